package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/sbgecom/internal/bridge"
	"github.com/muurk/sbgecom/internal/logging"
	"github.com/muurk/sbgecom/internal/monitor"
	"github.com/muurk/sbgecom/internal/ui"
)

var logsDuration time.Duration

func init() {
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(monitorCmd)

	logsCmd.Flags().DurationVar(&logsDuration, "duration", 0, "Stop after this long (default: until interrupted)")
}

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the logs output by the device",
	Long: `Print every log the device outputs, one per line.

With --format json each line is a JSON event carrying the raw payload and,
for known logs, the decoded fields.`,
	Example: `  # Stream for ten seconds
  sbgecom logs --duration 10s

  # Decode a capture file as JSON lines
  sbgecom logs --replay capture.bin --format json`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

func runLogs(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if logsDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, logsDuration)
		defer cancel()
	}

	return withSession(cmd, "Log stream", func(s *session) error {
		out := cmd.OutOrStdout()
		enc := json.NewEncoder(out)

		b := bridge.New(deviceName(s), bridge.SinkFunc(func(_ context.Context, e bridge.Event) error {
			if opts.format == formatJSON {
				return enc.Encode(e)
			}
			if e.Decoded != nil {
				_, err := fmt.Fprintf(out, "%s  %s\n", e.Time.Format("15:04:05.000"), e.Decoded)
				return err
			}
			_, err := fmt.Fprintf(out, "%s  %s/%s [% x]\n", e.Time.Format("15:04:05.000"), e.Class, e.Name, e.Payload)
			return err
		}))
		b.Attach(s.Handle)

		err := s.endOfStream(b.Run(ctx, s.Handle, monitor.DefaultPollInterval))
		st := b.Stats()
		logging.Debug("log stream ended", zap.Uint64("events", st.Events), zap.Uint64("decode_errors", st.DecodeErrors))
		if err != nil {
			return err
		}
		if opts.format == formatDetailed && st.Events == 0 {
			newPrinter(cmd).PrintResult(ui.NewWarningResult("no logs received",
				ui.Field{Key: "Frames", Value: fmt.Sprint(s.Stats().FramesReceived)},
				ui.Field{Key: "Hint", Value: "enable outputs with 'sbgecom output set'"}))
		}
		return nil
	})
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Live dashboard of the logs output by the device",
	Long: `Show a live dashboard with per-log counts and rates, the latest
attitude and status, and the frame decoder counters.

Press q to quit, r to reset the counts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !ui.IsTerminal() {
			return errors.New("monitor needs a terminal; use 'sbgecom logs' when piping output")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.Close()

		if err := monitor.Run(ctx, s.Handle, deviceName(s), nil, nil); err != nil {
			return fail(cmd, "Monitor", err)
		}
		return nil
	},
}

// deviceName names the device in events and dashboards.
func deviceName(s *session) string {
	if s.name != "" {
		return s.name
	}
	if s.profile.SerialNumber != "" {
		return s.profile.SerialNumber
	}
	return s.profile.Transport
}
