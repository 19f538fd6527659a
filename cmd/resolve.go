// File: cmd/resolve.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/authcap-cli/internal/auth"
)

// newResolveCmd creates the `resolve` command, a validation utility for
// stored authentication state.
func newResolveCmd() *cobra.Command {
	resolveCmd := &cobra.Command{
		Use:   "resolve [storage-state-path]",
		Short: "Validates a stored session file and prints its canonical path",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("auth-config")

			var input auth.Input
			switch {
			case configPath != "":
				loaded, err := auth.LoadInputFromFile(configPath)
				if err != nil {
					return err
				}
				input = loaded
			case len(args) == 1:
				input = auth.ConfigInput{StorageState: args[0]}
			default:
				return fmt.Errorf("provide a storage-state path or --auth-config")
			}

			resolved, err := auth.Resolve(input)
			if err != nil {
				return err
			}
			if resolved == nil || resolved.StorageState == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "No storage state configured.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), resolved.StorageState)
			return nil
		},
	}

	resolveCmd.Flags().String("auth-config", "", "JSON file holding the auth reference")
	return resolveCmd
}
