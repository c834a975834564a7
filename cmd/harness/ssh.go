package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/qaharness/api-test-framework/internal/services"
)

var (
	sshCmd = &cobra.Command{
		Use:   "ssh",
		Short: "Run commands on the environment's host",
	}

	sshExecCmd = &cobra.Command{
		Use:   "exec <command>...",
		Short: "Run a shell command and print its output",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := services.NewSSHService(cfg).Exec(cmd.Context(), envName(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), res.Stdout)
			if res.Stderr != "" {
				color.New(color.FgRed).Fprint(cmd.ErrOrStderr(), res.Stderr)
			}
			if res.ExitCode != 0 {
				return fmt.Errorf("remote command exited with code %d", res.ExitCode)
			}
			return nil
		},
	}

	sshCatCmd = &cobra.Command{
		Use:   "cat <path>",
		Short: "Print a remote file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := services.NewSSHService(cfg).ReadFile(cmd.Context(), envName(), args[0])
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
)
