package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/qaharness/api-test-framework/pkg/request"
	"github.com/qaharness/api-test-framework/pkg/session"
)

var requestCmd = &cobra.Command{
	Use:   "request <method> <path>",
	Short: "Send one request to the environment's base URL",
	Example: `  harness request GET /api/users --query page=1
  harness request POST /api/orders --json '{"sku":"A-1"}' --login-path /api/login --login-json '{"username":"qa","password":"secret"}'`,
	Args: cobra.ExactArgs(2),
	RunE: runRequest,
}

func init() {
	f := requestCmd.Flags()
	f.String("json", "", "JSON request body")
	f.StringToString("form", nil, "form fields (key=value)")
	f.StringToString("query", nil, "query parameters (key=value)")
	f.StringToString("header", nil, "extra headers (key=value)")
	f.String("token", "", "use this token instead of logging in")
	f.String("login-path", "", "log in at this path before the request")
	f.String("login-json", "", "JSON body of the login request")
	f.String("token-path", "data.token", "dotted path of the token in the login response")
}

func runRequest(cmd *cobra.Command, args []string) error {
	f := cmd.Flags()

	name := envName()
	if name == "" {
		name = "test"
	}
	env, err := cfg.Environment(name)
	if err != nil {
		return err
	}

	sess := session.New()
	if token, _ := f.GetString("token"); token != "" {
		if err := sess.SetToken(token); err != nil {
			return err
		}
	}

	client, err := request.New(env, sess)
	if err != nil {
		return err
	}

	if loginPath, _ := f.GetString("login-path"); loginPath != "" {
		raw, _ := f.GetString("login-json")
		body, err := decodeJSONFlag("login-json", raw)
		if err != nil {
			return err
		}
		tokenPath, _ := f.GetString("token-path")
		if _, err := client.Login(cmd.Context(), loginPath, body, tokenPath); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
	}

	opts, err := callOptions(f)
	if err != nil {
		return err
	}

	resp, err := client.Do(cmd.Context(), args[0], args[1], opts...)
	if resp != nil {
		printResponse(cmd.OutOrStdout(), strings.ToUpper(args[0]), client.URL(args[1]), resp)
	}

	return err
}

// callOptions maps the body, query and header flags to request options.
func callOptions(f *pflag.FlagSet) ([]request.CallOption, error) {
	var opts []request.CallOption

	if raw, _ := f.GetString("json"); raw != "" {
		body, err := decodeJSONFlag("json", raw)
		if err != nil {
			return nil, err
		}
		opts = append(opts, request.WithJSON(body))
	}
	if form, _ := f.GetStringToString("form"); len(form) > 0 {
		opts = append(opts, request.WithForm(form))
	}
	if query, _ := f.GetStringToString("query"); len(query) > 0 {
		opts = append(opts, request.WithQuery(query))
	}
	if headers, _ := f.GetStringToString("header"); len(headers) > 0 {
		opts = append(opts, request.WithHeaders(headers))
	}

	return opts, nil
}

func decodeJSONFlag(name, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("--%s is not valid JSON: %w", name, err)
	}
	return v, nil
}

func printResponse(w io.Writer, method, url string, resp *request.Response) {
	status := color.New(color.FgGreen, color.Bold)
	if resp.StatusCode >= 400 {
		status = color.New(color.FgRed, color.Bold)
	}

	status.Fprintf(w, "%d", resp.StatusCode)
	fmt.Fprintf(w, " %s %s (%s)\n", method, url, resp.Duration.Round(time.Millisecond))
	if resp.RequestID != "" {
		color.New(color.Faint).Fprintf(w, "request id: %s\n", resp.RequestID)
	}

	if resp.JSON != nil {
		pretty, err := json.MarshalIndent(resp.JSON, "", "  ")
		if err == nil {
			fmt.Fprintln(w, string(pretty))
			return
		}
	}
	fmt.Fprintln(w, resp.Text())
}
