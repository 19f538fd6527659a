// File: cmd/capture.go
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/authcap-cli/api/schemas"
	"github.com/xkilldash9x/authcap-cli/internal/observability"
	"github.com/xkilldash9x/authcap-cli/internal/session"
)

// Capture outcomes map to process exit codes so scripts can branch on them.
const (
	exitCodeTimeout = 2
	exitCodeAbort   = 130
)

// newCaptureCmd creates the `capture-auth` command.
func newCaptureCmd() *cobra.Command {
	captureCmd := &cobra.Command{
		Use:   "capture-auth",
		Short: "Opens a browser, waits for you to log in, then saves the session state",
		Long: `Launches a headed browser and polls the page URL until it matches the
completion pattern. Once matched (and confirmed), the browsing context's
cookies and local storage are written to the output file for later reuse.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := viper.BindPFlag("capture.timeout", cmd.Flags().Lookup("timeout")); err != nil {
				return err
			}
			if err := viper.BindPFlag("capture.poll_interval", cmd.Flags().Lookup("poll-interval")); err != nil {
				return err
			}
			if err := viper.BindPFlag("capture.settle_delay", cmd.Flags().Lookup("settle-delay")); err != nil {
				return err
			}
			return viper.BindPFlag("browser.headless", cmd.Flags().Lookup("headless"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			output, _ := cmd.Flags().GetString("output")
			pattern, _ := cmd.Flags().GetString("url-pattern")
			startURL, _ := cmd.Flags().GetString("start-url")
			overwrite, _ := cmd.Flags().GetBool("overwrite")
			autoConfirm, _ := cmd.Flags().GetBool("yes")

			opts := session.CaptureOptions{
				OutputPath:           output,
				CompletionURLPattern: pattern,
				StartURL:             startURL,
				Timeout:              viper.GetDuration("capture.timeout"),
				PollInterval:         viper.GetDuration("capture.poll_interval"),
				SettleDelay:          viper.GetDuration("capture.settle_delay"),
				Overwrite:            overwrite,
				Headless:             viper.GetBool("browser.headless"),
			}
			if !autoConfirm {
				opts.Confirm = promptConfirm(cmd.OutOrStdout())
			}

			capturer := session.NewCapturer(session.NewPlaywrightDriver(cfg.Browser, logger), logger)
			result, err := capturer.Run(ctx, opts)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), result.Message)
			switch result.Status {
			case schemas.CaptureSuccess:
				logger.Info("Session state saved", zap.String("path", result.StorageStatePath))
			case schemas.CaptureTimeout:
				exitCode = exitCodeTimeout
			case schemas.CaptureAbort:
				exitCode = exitCodeAbort
			}
			return nil
		},
	}

	captureCmd.Flags().StringP("output", "o", "", "path to write the captured storage state (required)")
	captureCmd.Flags().StringP("url-pattern", "p", "", "regular expression matched against the page URL (required)")
	captureCmd.Flags().String("start-url", "", "URL to open when the browser starts")
	captureCmd.Flags().Duration("timeout", 0, "how long to wait for the completion URL")
	captureCmd.Flags().Duration("poll-interval", 0, "delay between URL checks")
	captureCmd.Flags().Duration("settle-delay", 0, "pause after the match before exporting state")
	captureCmd.Flags().Bool("overwrite", false, "replace the output file if it already exists")
	captureCmd.Flags().Bool("headless", false, "run the browser without a window (default from browser.headless)")
	captureCmd.Flags().BoolP("yes", "y", false, "save immediately on match without prompting")
	captureCmd.MarkFlagRequired("output")
	captureCmd.MarkFlagRequired("url-pattern")

	return captureCmd
}

// promptConfirm builds the interactive confirmation used when --yes is not
// set. Declining resumes polling; the prompt reappears on the next match.
func promptConfirm(out io.Writer) session.ConfirmFunc {
	reader := bufio.NewReader(os.Stdin)
	return func(ctx context.Context, matchedURL string) (bool, error) {
		fmt.Fprintf(out, "Completion URL detected: %s\nSave session state now? [Y/n]: ", matchedURL)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "" || answer == "y" || answer == "yes", nil
	}
}
