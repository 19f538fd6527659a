// File: cmd/profiles.go
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/authcap-cli/internal/auth"
)

// newProfilesCmd creates the `profiles` command group over the configured
// profiles directory.
func newProfilesCmd() *cobra.Command {
	profilesCmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage saved capture profiles",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lists saved profiles and whether they hold session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := auth.ListProfiles(cfg.Auth.ProfilesDir)
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No profiles found.")
				return nil
			}
			for _, profile := range profiles {
				state := "no session state"
				if resolved, resolveErr := auth.ResolveProfileState(profile.Path); resolveErr == nil && resolved != nil {
					state = "has session state"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  (%s)\n",
					profile.Name, profile.Modified.Format("2006-01-02 15:04"), state)
			}
			return nil
		},
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Prints the canonical storage-state path of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profileDir := filepath.Join(cfg.Auth.ProfilesDir, args[0])
			resolved, err := auth.ResolveProfileState(profileDir)
			if err != nil {
				return err
			}
			if resolved == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Profile %q has no saved session state.\n", args[0])
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), resolved.StorageState)
			return nil
		},
	}

	profilesCmd.AddCommand(listCmd)
	profilesCmd.AddCommand(showCmd)
	return profilesCmd
}
