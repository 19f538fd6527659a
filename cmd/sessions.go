// File: cmd/sessions.go
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/authcap-cli/api/schemas"
	"github.com/xkilldash9x/authcap-cli/internal/observability"
	"github.com/xkilldash9x/authcap-cli/internal/session"
)

// newSessionsCmd creates the `sessions` command group for working with a
// browser that is already running with remote debugging enabled.
func newSessionsCmd() *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect and export sessions from a running browser",
	}

	sessionsCmd.AddCommand(newSessionsListCmd())
	sessionsCmd.AddCommand(newSessionsExportCmd())
	return sessionsCmd
}

// formatSessionEntry renders one listed session as a human-readable line.
func formatSessionEntry(entry schemas.CdpSessionEntry) string {
	line := fmt.Sprintf("context %d", entry.ContextIndex)
	if entry.PageIndex != nil {
		line += fmt.Sprintf(" page %d", *entry.PageIndex)
	} else {
		line += " (no open pages)"
	}
	if entry.URL != "" {
		line += "  " + entry.URL
	}
	if entry.Title != nil && *entry.Title != "" {
		line += fmt.Sprintf("  (%s)", *entry.Title)
	}
	return line
}

func newSessionsListCmd() *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Lists the open pages of a browser reachable over CDP",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			endpoint, _ := cmd.Flags().GetString("endpoint")

			broker := session.NewBroker(session.NewPlaywrightDriver(cfg.Browser, logger), logger)
			entries, err := broker.ListSessions(cmd.Context(), endpoint)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
				return nil
			}
			for _, entry := range entries {
				fmt.Fprintln(cmd.OutOrStdout(), formatSessionEntry(entry))
			}
			return nil
		},
	}

	listCmd.Flags().String("endpoint", "http://localhost:9222", "remote debugging endpoint URL")
	return listCmd
}

// promptSelectSession prints the listed sessions numbered and asks the user to
// pick one, returning the chosen entry's context index.
func promptSelectSession(out io.Writer, in io.Reader, entries []schemas.CdpSessionEntry) (int, error) {
	if len(entries) == 0 {
		return 0, fmt.Errorf("no sessions available to select from")
	}
	for i, entry := range entries {
		fmt.Fprintf(out, "  [%d] %s\n", i, formatSessionEntry(entry))
	}
	fmt.Fprintf(out, "Select session [0-%d]: ", len(entries)-1)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return 0, err
	}
	answer := strings.TrimSpace(line)
	idx, err := strconv.Atoi(answer)
	if err != nil || idx < 0 || idx >= len(entries) {
		return 0, fmt.Errorf("invalid selection %q (valid: 0..%d)", answer, len(entries)-1)
	}
	return entries[idx].ContextIndex, nil
}

func newSessionsExportCmd() *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Saves the storage state of a running browser session",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()
			endpoint, _ := cmd.Flags().GetString("endpoint")
			output, _ := cmd.Flags().GetString("output")
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			interactive, _ := cmd.Flags().GetBool("select")

			broker := session.NewBroker(session.NewPlaywrightDriver(cfg.Browser, logger), logger)

			var contextIndex int
			switch {
			case cmd.Flags().Changed("context"):
				contextIndex, _ = cmd.Flags().GetInt("context")
			case interactive:
				entries, err := broker.ListSessions(cmd.Context(), endpoint)
				if err != nil {
					return err
				}
				contextIndex, err = promptSelectSession(cmd.OutOrStdout(), os.Stdin, entries)
				if err != nil {
					return err
				}
			default:
				entries, err := broker.ListSessions(cmd.Context(), endpoint)
				if err != nil {
					return err
				}
				contextIndex, err = session.ResolveContextIndex(entries, nil)
				if err != nil {
					return err
				}
			}

			result, err := broker.ExportSession(cmd.Context(), session.ExportOptions{
				EndpointURL:  endpoint,
				ContextIndex: contextIndex,
				OutputPath:   output,
				Overwrite:    overwrite,
				SettleDelay:  cfg.Capture.SettleDelay,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			logger.Info("Session state exported",
				zap.String("path", result.StorageStatePath),
				zap.Int("context_index", contextIndex),
			)
			return nil
		},
	}

	exportCmd.Flags().String("endpoint", "http://localhost:9222", "remote debugging endpoint URL")
	exportCmd.Flags().Int("context", 0, "browsing context index to export (auto-selected when exactly one session is listed)")
	exportCmd.Flags().Bool("select", false, "pick the session interactively from the list")
	exportCmd.Flags().StringP("output", "o", "", "path to write the storage state (required)")
	exportCmd.Flags().Bool("overwrite", false, "replace the output file if it already exists")
	exportCmd.MarkFlagRequired("output")

	return exportCmd
}
