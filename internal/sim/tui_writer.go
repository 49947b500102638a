package sim

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"flowtrace-sim/internal/config"
	"flowtrace-sim/internal/metrics"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a formatted sample line for the viewport.
type logMsg struct{ line string }

// sampleMsg carries row data for the latest-values panel.
type sampleMsg struct{ metrics.Row }

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

var protocolPalette = []string{colorGreen, colorCyan, colorYellow, colorMagenta}

// TUIWriter renders sample rows in a bubbletea TUI during replay or a
// live run.
type TUIWriter struct {
	program        teaProgram
	protocolColors map[string]string
	colorIdx       int
	done           chan struct{}
	sendSignal     atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter.
func NewTUIWriter(cfg *config.SimulationConfig) *TUIWriter {
	w := &TUIWriter{protocolColors: map[string]string{}, done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(cfg), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

func (w *TUIWriter) protocolColor(protocol string) string {
	if c, ok := w.protocolColors[protocol]; ok {
		return c
	}
	c := protocolPalette[w.colorIdx%len(protocolPalette)]
	w.protocolColors[protocol] = c
	w.colorIdx++
	return c
}

// Write implements metrics.SampleWriter.
func (w *TUIWriter) Write(row metrics.Row) error {
	pColor := w.protocolColor(row.Protocol)
	line := fmt.Sprintf("%s[%s]%s %st=%.3fs%s %s%s%s %s%s%s %svalue=%g%s %stopology=%s%s %srun=%s%s",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, row.TimeSec, colorReset,
		pColor, row.Protocol, colorReset,
		colorCyan, row.Metric, colorReset,
		colorGreen, row.Value, colorReset,
		colorYellow, row.Topology, colorReset,
		colorGray, row.RunID, colorReset)
	w.program.Send(logMsg{line: line})
	w.program.Send(sampleMsg{row})
	return nil
}

// WriteBatch outputs multiple rows.
func (w *TUIWriter) WriteBatch(rows []metrics.Row) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

var (
	tuiTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	tuiHelpStyle   = lipgloss.NewStyle().Faint(true)
	tuiHeaderStyle = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
)

type tuiModel struct {
	cfg          *config.SimulationConfig
	latest       table.Model
	vp           viewport.Model
	logs         []string
	values       map[string]float64 // protocol.metric -> latest value
	samples      int
	wrap         bool
	autoscroll   bool
	header       string
	headerHeight int
	height       int
}

func newTUIModel(cfg *config.SimulationConfig) tuiModel {
	cols := []table.Column{
		{Title: "Stream", Width: 24},
		{Title: "Latest", Width: 12},
	}
	t := table.New(table.WithColumns(cols), table.WithHeight(1))
	return tuiModel{
		cfg:        cfg,
		latest:     t,
		vp:         viewport.New(0, 0),
		values:     make(map[string]float64),
		autoscroll: true,
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.vp.Width = msg.Width
		m.latest.SetWidth(msg.Width)
		m.height = msg.Height
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.refreshViewport()
		case "a":
			m.autoscroll = !m.autoscroll
			m.header = m.renderHeader()
			m.headerHeight = lipgloss.Height(m.header)
			m.updateViewportHeight()
		default:
			var cmd tea.Cmd
			m.vp, cmd = m.vp.Update(msg)
			return m, cmd
		}
	case logMsg:
		m.logs = append(m.logs, msg.line)
		m.refreshViewport()
	case sampleMsg:
		m.values[msg.Protocol+"."+msg.Metric] = msg.Value
		m.samples++
		m.refreshLatest()
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
	default:
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *tuiModel) updateViewportHeight() {
	h := m.height - m.headerHeight
	if h < 1 {
		h = 1
	}
	m.vp.Height = h
}

func (m *tuiModel) refreshViewport() {
	lines := m.logs
	if m.wrap && m.vp.Width > 0 {
		wrapped := make([]string, 0, len(lines))
		for _, l := range lines {
			wrapped = append(wrapped, wordwrap.String(l, m.vp.Width))
		}
		lines = wrapped
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

func (m *tuiModel) refreshLatest() {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	rows := make([]table.Row, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, table.Row{key, fmt.Sprintf("%.4g", m.values[key])})
	}
	m.latest.SetRows(rows)
	m.latest.SetHeight(len(rows) + 1)
}

func (m *tuiModel) renderHeader() string {
	title := tuiTitleStyle.Render("flowtrace-sim")
	info := fmt.Sprintf("samples=%d", m.samples)
	if m.cfg != nil {
		info = fmt.Sprintf("duration=%gs segment=%dB samples=%d",
			m.cfg.DurationSec, m.cfg.SegmentSize, m.samples)
	}
	scroll := "autoscroll"
	if !m.autoscroll {
		scroll = "manual"
	}
	help := tuiHelpStyle.Render("q quit | w wrap | a " + scroll)
	parts := []string{title + "  " + info + "  " + help}
	if len(m.values) > 0 {
		parts = append(parts, m.latest.View())
	}
	return tuiHeaderStyle.Render(strings.Join(parts, "\n")) + "\n"
}

func (m tuiModel) View() string {
	return m.header + m.vp.View()
}
