package monitor

import (
	"context"
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/sbgecom/internal/ecom"
	"github.com/muurk/sbgecom/internal/logging"
	"github.com/muurk/sbgecom/internal/logs"
	"github.com/muurk/sbgecom/internal/protocol"
)

// Sender is the part of tea.Program the poll loop needs.
type Sender interface {
	Send(msg tea.Msg)
}

// DefaultPollInterval bounds each Poll so cancellation is noticed promptly.
const DefaultPollInterval = 100 * time.Millisecond

// statsEvery is how often counter snapshots are pushed to the dashboard.
const statsEvery = 500 * time.Millisecond

// Attach forwards every log dispatched by h to s.
func Attach(h *ecom.Handle, s Sender) {
	h.OnAnyLog(func(f protocol.Frame) error {
		decoded, err := logs.Decode(f.ID, f.Payload)
		if err != nil {
			logging.Debug("undecodable log", zap.Stringer("id", f.ID), zap.Error(err))
			decoded = nil
		}
		s.Send(LogMsg{Frame: f, Decoded: decoded, At: time.Now()})
		return nil
	})
}

// Pump polls h until ctx is done, pushing counter snapshots to s. A poll
// error is sent as ErrMsg and returned.
func Pump(ctx context.Context, h *ecom.Handle, s Sender, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	lastStats := time.Time{}
	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := h.Poll(interval); err != nil {
			s.Send(ErrMsg{Err: err})
			return err
		}
		if time.Since(lastStats) >= statsEvery {
			s.Send(StatsMsg(h.Stats()))
			lastStats = time.Now()
		}
	}
}

// Run shows the dashboard until the user quits, ctx is cancelled or the
// transport fails.
func Run(ctx context.Context, h *ecom.Handle, device string, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}
	if in != nil {
		opts = append(opts, tea.WithInput(in))
	}
	if out != nil {
		opts = append(opts, tea.WithOutput(out))
	}
	p := tea.NewProgram(New(device), opts...)
	Attach(h, p)

	done := make(chan error, 1)
	go func() {
		done <- Pump(ctx, h, p, DefaultPollInterval)
	}()

	final, err := p.Run()
	cancel()
	pumpErr := <-done

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	if err != nil {
		return err
	}
	if m, ok := final.(Model); ok && m.Err() != nil {
		return m.Err()
	}
	return pumpErr
}
