package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/qaharness/api-test-framework/internal/services"
)

var (
	envCmd = &cobra.Command{
		Use:   "env",
		Short: "Inspect configured environments",
	}

	envListCmd = &cobra.Command{
		Use:   "list",
		Short: "List environment names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := services.NewEnvService(cfg)
			w := cmd.OutOrStdout()

			if detail, _ := cmd.Flags().GetBool("detail"); !detail {
				for _, name := range srv.List() {
					fmt.Fprintln(w, name)
				}
				return nil
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tBASE URL\tDB\tSSH")
			for _, e := range srv.Describe() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Name, e.BaseURL, yesNo(e.HasDB), yesNo(e.HasSSH))
			}
			return tw.Flush()
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Inspect the loaded configuration",
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration with secrets hidden",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := yaml.Marshal(cfg.DebugMap())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
)

func init() {
	envListCmd.Flags().Bool("detail", false, "show base URL and which checks each environment supports")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
