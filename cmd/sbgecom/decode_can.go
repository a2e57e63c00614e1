package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/sbgecom/internal/ecan"
	"github.com/muurk/sbgecom/internal/logging"
)

var decodeStrict bool

func init() {
	rootCmd.AddCommand(decodeCANCmd)
	decodeCANCmd.Flags().BoolVar(&decodeStrict, "strict", false, "Stop at the first line that cannot be decoded")
}

var decodeCANCmd = &cobra.Command{
	Use:   "decode-can",
	Short: "Decode CAN output read as candump lines on stdin",
	Long: `Decode the CAN output of a device captured with candump.

Both the compact form (123#0011223344556677) and the logged form
((1700000000.123456) can0 123#00112233) are accepted. Frames with an
identifier that has no decoder are printed raw.`,
	Example: `  candump -L can0 | sbgecom decode-can
  sbgecom decode-can --format json < capture.log`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, skipped, err := decodeCAN(cmd.InOrStdin(), cmd.OutOrStdout(), opts.format == formatJSON, decodeStrict)
		logging.Debug("decode-can finished", zap.Int("frames", n), zap.Int("skipped", skipped))
		return err
	},
}

// canRecord is the JSON form of one decoded frame.
type canRecord struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Data    string       `json:"data"`
	Decoded ecan.Message `json:"decoded,omitempty"`
}

// decodeCAN decodes every candump line of in. Blank lines and lines starting
// with '#' are ignored. It returns the frames decoded and the lines skipped.
func decodeCAN(in io.Reader, out io.Writer, jsonOut, strict bool) (int, int, error) {
	var (
		enc     = json.NewEncoder(out)
		decoded int
		skipped int
		lineNo  int
		scanner = bufio.NewScanner(in)
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		f, err := ecan.ParseCandump(line)
		var msg ecan.Message
		if err == nil {
			msg, err = ecan.Decode(f)
		}
		if err != nil {
			if strict {
				return decoded, skipped, fmt.Errorf("line %d: %w", lineNo, err)
			}
			skipped++
			logging.Warn("skipping line", zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		decoded++

		if jsonOut {
			rec := canRecord{
				ID:   fmt.Sprintf("0x%03x", uint16(f.ID)),
				Name: f.ID.String(),
				Data: fmt.Sprintf("%x", f.Payload()),
			}
			if _, raw := msg.(*ecan.Raw); !raw {
				rec.Decoded = msg
			}
			if err := enc.Encode(rec); err != nil {
				return decoded, skipped, err
			}
			continue
		}
		if _, err := fmt.Fprintf(out, "%-24s %s\n", f, msg); err != nil {
			return decoded, skipped, err
		}
	}
	if err := scanner.Err(); err != nil {
		return decoded, skipped, fmt.Errorf("read input: %w", err)
	}
	return decoded, skipped, nil
}
