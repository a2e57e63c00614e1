package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/sbgecom/internal/config"
	"github.com/muurk/sbgecom/internal/ecom"
	"github.com/muurk/sbgecom/internal/logging"
	"github.com/muurk/sbgecom/internal/transport"
	"github.com/muurk/sbgecom/internal/ui"
)

// Output formats
const (
	formatDetailed = "detailed"
	formatJSON     = "json"
)

// options holds the persistent connection and output flags.
type options struct {
	profile   string
	port      string
	baud      int
	udpRemote string
	udpLocal  string
	replay    string
	timeout   time.Duration
	attempts  int
	logLevel  string
	format    string
}

var opts options

var errNoConnection = errors.New("no connection given: use --port, --udp-remote or --replay, or create a profile with 'sbgecom config init'")

// resolveProfile builds the connection profile from flags, falling back to
// the named (or default) profile of reg. The returned name is empty when the
// profile came from flags only.
func (o *options) resolveProfile(reg *config.Registry) (*config.Profile, string, error) {
	var (
		p    config.Profile
		name string
	)
	switch {
	case o.replay != "":
		p = config.Profile{Transport: config.TransportReplay, File: o.replay}
	case o.udpRemote != "":
		p = config.Profile{Transport: config.TransportUDP, RemoteAddr: o.udpRemote, LocalAddr: o.udpLocal}
	case o.port != "":
		p = config.Profile{Transport: config.TransportSerial, Port: o.port}
	default:
		if reg == nil || (o.profile == "" && reg.DefaultProfile == "") {
			return nil, "", errNoConnection
		}
		stored, err := reg.Profile(o.profile)
		if err != nil {
			return nil, "", err
		}
		p = *stored
		name = o.profile
		if name == "" {
			name = reg.DefaultProfile
		}
	}

	if o.baud > 0 {
		p.BaudRate = o.baud
	}
	if p.Transport == config.TransportSerial && p.BaudRate == 0 {
		p.BaudRate = config.DefaultBaudRate
	}
	if o.timeout > 0 {
		p.Timeout = o.timeout
	}
	if o.attempts > 0 {
		p.Attempts = o.attempts
	}
	if err := p.Validate(); err != nil {
		return nil, "", err
	}
	return &p, name, nil
}

// describe returns header fields for a profile.
func describe(p *config.Profile, name string) []ui.Field {
	var fields []ui.Field
	if name != "" {
		fields = append(fields, ui.Field{Key: "Profile", Value: name})
	}
	switch p.Transport {
	case config.TransportSerial:
		fields = append(fields, ui.Field{Key: "Port", Value: fmt.Sprintf("%s @ %d baud", p.Port, p.BaudRate)})
	case config.TransportUDP:
		fields = append(fields, ui.Field{Key: "Device", Value: p.RemoteAddr})
		if p.LocalAddr != "" {
			fields = append(fields, ui.Field{Key: "Listen", Value: p.LocalAddr})
		}
	case config.TransportReplay:
		fields = append(fields, ui.Field{Key: "Capture", Value: p.File})
	}
	return fields
}

// session is an open connection to one device.
type session struct {
	*ecom.Handle
	profile *config.Profile
	name    string
	reg     *config.Registry
}

// endOfStream filters the error a drained capture file ends a poll loop with.
func (s *session) endOfStream(err error) error {
	if s.profile.Transport == config.TransportReplay && errors.Is(err, transport.ErrClosed) {
		logging.Debug("capture replayed", zap.String("file", s.profile.File))
		return nil
	}
	return err
}

// openSession resolves the profile and opens the handle.
func openSession() (*session, error) {
	reg, err := config.LoadRegistry()
	if err != nil {
		logging.Warn("ignoring unreadable config", zap.Error(err))
		reg = nil
	}

	p, name, err := opts.resolveProfile(reg)
	if err != nil {
		return nil, err
	}

	t, err := transport.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s transport: %w", p.Transport, err)
	}
	h, err := ecom.NewHandle(t)
	if err != nil {
		_ = t.Close()
		return nil, err
	}
	if p.Timeout > 0 {
		h.SetTimeout(p.Timeout)
	}
	if p.Attempts > 0 {
		h.SetAttempts(p.Attempts)
	}
	logging.Debug("session opened",
		zap.String("transport", p.Transport),
		zap.Duration("timeout", h.Timeout()),
		zap.Int("attempts", h.Attempts()))

	return &session{Handle: h, profile: p, name: name, reg: reg}, nil
}

// rememberDevice stores the identification in the profile it was read
// through. Flag-only sessions are not recorded.
func (s *session) rememberDevice(productCode, serial string) {
	if s.name == "" || s.reg == nil {
		return
	}
	if err := s.reg.RecordDevice(s.name, productCode, serial); err != nil {
		logging.Debug("record device", zap.Error(err))
		return
	}
	if err := s.reg.Save(); err != nil {
		logging.Warn("failed to save config", zap.Error(err))
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newPrinter returns a ui printer for the command output.
func newPrinter(cmd *cobra.Command) *ui.Printer {
	return ui.NewPrinter(cmd.OutOrStdout())
}

// fail renders a failure box with the troubleshooting hint for err and
// returns err so the exit status reflects it.
func fail(cmd *cobra.Command, title string, err error) error {
	if opts.format == formatJSON {
		return err
	}
	p := newPrinter(cmd)
	p.PrintResult(ui.NewFailureResult(title, err, ecom.GetTroubleshootingHint(err)))
	cmd.SilenceErrors = true
	return err
}

// withSession opens a session, prints the command header in detailed mode,
// runs fn and closes the session.
func withSession(cmd *cobra.Command, title string, fn func(s *session) error) error {
	if opts.format != formatDetailed && opts.format != formatJSON {
		return fmt.Errorf("unknown format %q (want %s or %s)", opts.format, formatDetailed, formatJSON)
	}
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.Close()

	if opts.format == formatDetailed {
		newPrinter(cmd).PrintHeader(ui.NewHeader(title, cmd.CommandPath(), describe(s.profile, s.name)...))
	}
	if err := fn(s); err != nil {
		return fail(cmd, title, err)
	}
	return nil
}
