package monitor

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/sbgecom/internal/ecom"
	"github.com/muurk/sbgecom/internal/logs"
	"github.com/muurk/sbgecom/internal/protocol"
	"github.com/muurk/sbgecom/internal/ui"
)

// LogMsg carries one dispatched log into the model.
type LogMsg struct {
	Frame   protocol.Frame
	Decoded logs.Log // nil when the payload could not be decoded
	At      time.Time
}

// StatsMsg carries a snapshot of the handle counters.
type StatsMsg ecom.Stats

// ErrMsg ends the dashboard with an error.
type ErrMsg struct{ Err error }

type keyMap struct {
	Reset key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding { return []key.Binding{k.Reset, k.Quit} }

func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Reset, k.Quit}} }

// entry is one row of the counts table.
type entry struct {
	count uint64
	bytes uint64
	first time.Time
	last  time.Time
}

// rate returns messages per second over the observed window.
func (e *entry) rate() float64 {
	window := e.last.Sub(e.first).Seconds()
	if e.count < 2 || window <= 0 {
		return 0
	}
	return float64(e.count-1) / window
}

// Model is the dashboard state.
type Model struct {
	Device string
	Width  int

	spinner spinner.Model
	help    help.Model
	keys    keyMap

	entries map[protocol.CommandID]*entry
	order   []protocol.CommandID
	total   uint64

	euler  *logs.EKFEuler
	status *logs.Status
	stats  ecom.Stats

	err      error
	quitting bool
}

// New creates a dashboard for the named device.
func New(device string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ui.PrimaryColor)

	return Model{
		Device:  device,
		Width:   ui.GetTerminalWidth(),
		spinner: s,
		help:    help.New(),
		keys: keyMap{
			Reset: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset counts")),
			Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		},
		entries: make(map[protocol.CommandID]*entry),
	}
}

// Init starts the spinner.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles key presses, logs and counter snapshots.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Reset):
			m.entries = make(map[protocol.CommandID]*entry)
			m.order = nil
			m.total = 0
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.total > 0 {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case LogMsg:
		m.record(msg)
		return m, nil

	case StatsMsg:
		m.stats = ecom.Stats(msg)
		return m, nil

	case ErrMsg:
		m.err = msg.Err
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) record(msg LogMsg) {
	e, ok := m.entries[msg.Frame.ID]
	if !ok {
		e = &entry{first: msg.At}
		m.entries[msg.Frame.ID] = e
		m.order = append(m.order, msg.Frame.ID)
		slices.Sort(m.order)
	}
	e.count++
	e.bytes += uint64(len(msg.Frame.Payload))
	e.last = msg.At
	m.total++

	switch l := msg.Decoded.(type) {
	case *logs.EKFEuler:
		m.euler = l
	case *logs.Status:
		m.status = l
	}
}

// Count returns how many logs with the given id were received.
func (m Model) Count(id protocol.CommandID) uint64 {
	if e, ok := m.entries[id]; ok {
		return e.count
	}
	return 0
}

// Total returns the number of logs received.
func (m Model) Total() uint64 { return m.total }

// Err returns the error that ended the dashboard, if any.
func (m Model) Err() error { return m.err }

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(ui.NewHeader("Live logs", "sbgecom monitor", ui.Field{Key: "Device", Value: m.Device}).
		SetWidth(m.Width).Render())
	b.WriteString("\n\n")

	if m.total == 0 {
		b.WriteString(fmt.Sprintf("  %s Waiting for logs...\n\n", m.spinner.View()))
		b.WriteString(m.help.View(m.keys))
		return b.String()
	}

	rows := make([]string, 0, len(m.order)+1)
	rows = append(rows, ui.TableHeaderStyle.Render(fmt.Sprintf("  %-24s %10s %10s %8s", "MESSAGE", "COUNT", "BYTES", "HZ")))
	for _, id := range m.order {
		e := m.entries[id]
		rows = append(rows, fmt.Sprintf("  %-24s %10d %10d %8.1f", protocol.MessageName(id), e.count, e.bytes, e.rate()))
	}
	b.WriteString(strings.Join(rows, "\n"))
	b.WriteString("\n\n")

	var details []ui.Field
	if m.euler != nil {
		d := m.euler.Degrees()
		details = append(details,
			ui.Field{Key: "Attitude", Value: fmt.Sprintf("roll %.2f  pitch %.2f  yaw %.2f deg", d[0], d[1], d[2])},
			ui.Field{Key: "Solution", Value: m.euler.SolutionMode().String()},
		)
	}
	if m.status != nil {
		health := "OK"
		if !m.status.Healthy() {
			health = "DEGRADED"
		}
		details = append(details, ui.Field{Key: "Status", Value: health})
	}
	ds := m.stats.Decoder
	details = append(details,
		ui.Field{Key: "Frames", Value: fmt.Sprintf("%d received, %d dropped", m.stats.FramesReceived, m.stats.FramesDropped)},
		ui.Field{Key: "Decoder", Value: fmt.Sprintf("%d crc errors, %d malformed, %d bytes skipped", ds.ChecksumErrors, ds.MalformedFrames, ds.DiscardedBytes)},
	)
	b.WriteString(ui.Table("", details))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
