package output

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tkjaer/ulat/internal/shared"
)

// BubbleTUIOutput is a live latency dashboard using Bubble Tea
type BubbleTUIOutput struct {
	mu      sync.Mutex
	program *tea.Program
	model   *tuiModel
	quitCh  chan struct{}
	doneCh  chan struct{}
}

// tickMsg is sent periodically to refresh the display
type tickMsg time.Time

// tuiStats holds the latest progress reported by the engine
type tuiStats struct {
	total    uint64 // 0 = unbounded
	sent     uint64
	received uint64
	min      time.Duration
	avg      time.Duration
	max      time.Duration
	finished bool
}

// lossPct is the share of sent probes without an echo so far. Probes still
// in flight count as lost until their echo arrives.
func (s tuiStats) lossPct() float64 {
	if s.sent == 0 || s.received >= s.sent {
		return 0
	}
	return float64(s.sent-s.received) / float64(s.sent) * 100
}

// tuiModel holds the Bubble Tea model state
type tuiModel struct {
	// Data
	mu        sync.RWMutex
	stats     tuiStats
	info      shared.OutputInfo
	startTime time.Time

	// UI state
	width    int
	height   int
	help     help.Model
	keys     keyMap
	progress progress.Model

	quit func()
}

// keyMap defines keyboard shortcuts
type keyMap struct {
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Help},
	}
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "stop and quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("h", "?"),
		key.WithHelp("h/?", "toggle help"),
	),
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FBBF24"))

	minStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34D399"))

	avgStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA"))

	maxStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171"))

	statsGoodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#34D399"))

	statsWarningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FBBF24"))

	statsBadStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))

	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

type lossLevel int

const (
	lossGood lossLevel = iota
	lossWarning
	lossBad
)

// classifyLoss buckets the rounded loss percentage: up to 1% is good, up to
// 10% is a warning.
func classifyLoss(pct float64) lossLevel {
	rounded := int(pct + 0.5)
	switch {
	case rounded <= 1:
		return lossGood
	case rounded <= 10:
		return lossWarning
	default:
		return lossBad
	}
}

func lossStyle(pct float64) lipgloss.Style {
	switch classifyLoss(pct) {
	case lossGood:
		return statsGoodStyle
	case lossWarning:
		return statsWarningStyle
	default:
		return statsBadStyle
	}
}

// formatLatency renders a latency with a resolution that stays readable
// from microseconds to seconds.
func formatLatency(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < time.Second:
		return d.Round(10 * time.Microsecond).String()
	default:
		return d.Round(time.Millisecond).String()
	}
}

// NewBubbleTUIOutput creates a new Bubble Tea TUI output
func NewBubbleTUIOutput(info shared.OutputInfo) *BubbleTUIOutput {
	quitCh := make(chan struct{})
	quitOnce := &sync.Once{}

	model := &tuiModel{
		stats:     tuiStats{total: info.Count},
		info:      info,
		startTime: time.Now(),
		help:      help.New(),
		keys:      keys,
		progress:  progress.New(progress.WithDefaultGradient()),
		quit: func() {
			quitOnce.Do(func() { close(quitCh) })
		},
	}

	return &BubbleTUIOutput{
		model:  model,
		quitCh: quitCh,
		doneCh: make(chan struct{}),
	}
}

// Start initializes and starts the Bubble Tea program
func (b *BubbleTUIOutput) Start() {
	doneCh := make(chan struct{})
	b.mu.Lock()
	b.doneCh = doneCh
	b.program = tea.NewProgram(b.model, tea.WithAltScreen())
	program := b.program
	b.mu.Unlock()

	go func() {
		// Ensure cleanup happens even if there's a panic
		defer func() {
			close(doneCh)
			if r := recover(); r != nil {
				slog.Error("TUI panic", "panic", r)
				program.Kill()
			}
		}()

		if _, err := program.Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
		}
		// The program may also end without a key press, e.g. on SIGTERM
		b.model.quit()
	}()
}

// QuitChan is closed when the user quits the TUI
func (b *BubbleTUIOutput) QuitChan() <-chan struct{} {
	return b.quitCh
}

// SetTotal implements the Output interface
func (b *BubbleTUIOutput) SetTotal(total uint64) {
	b.model.mu.Lock()
	defer b.model.mu.Unlock()
	b.model.stats.total = total
}

// UpdateSent implements the Output interface
func (b *BubbleTUIOutput) UpdateSent(sent uint64) {
	b.model.mu.Lock()
	defer b.model.mu.Unlock()
	b.model.stats.sent = sent
}

// UpdateReceived implements the Output interface
func (b *BubbleTUIOutput) UpdateReceived(received uint64, min, avg, max time.Duration) {
	b.model.mu.Lock()
	defer b.model.mu.Unlock()
	b.model.stats.received = received
	b.model.stats.min = min
	b.model.stats.avg = avg
	b.model.stats.max = max
}

// Complete implements the Output interface. The dashboard keeps showing the
// final numbers until the user quits.
func (b *BubbleTUIOutput) Complete(summary *shared.Summary) {
	b.model.mu.Lock()
	defer b.model.mu.Unlock()
	b.model.stats.sent = summary.Sent
	b.model.stats.received = summary.Received
	b.model.stats.min = time.Duration(summary.Min) * time.Microsecond
	b.model.stats.avg = time.Duration(summary.Avg) * time.Microsecond
	b.model.stats.max = time.Duration(summary.Max) * time.Microsecond
	b.model.stats.finished = true
}

// Close implements the Output interface
func (b *BubbleTUIOutput) Close() error {
	b.mu.Lock()
	program := b.program
	doneCh := b.doneCh
	b.mu.Unlock()

	if program != nil {
		// Request graceful shutdown
		program.Quit()

		select {
		case <-doneCh:
			// Clean exit
		case <-time.After(500 * time.Millisecond):
			// Force cleanup if it takes too long
			program.Kill()
			<-doneCh
		}
	}

	b.model.quit()

	b.mu.Lock()
	b.program = nil
	b.mu.Unlock()

	return nil
}

// Init is the initial I/O for Bubble Tea
func (m *tuiModel) Init() tea.Cmd {
	return tickCmd()
}

// Update handles messages and updates the model
func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quit()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = max(msg.Width-8, 10)

	case tickMsg:
		return m, tickCmd()
	}

	return m, nil
}

// View renders the UI
func (m *tuiModel) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	m.mu.RLock()
	stats := m.stats
	m.mu.RUnlock()

	var b strings.Builder

	// Title bar
	b.WriteString(titleStyle.Width(m.width).Render(m.title()))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatistics(stats))
	b.WriteString("\n")

	if stats.finished {
		b.WriteString(dimStyle.Render("Measurement finished, press q to exit"))
	} else {
		b.WriteString(dimStyle.Render("Measuring..."))
	}
	b.WriteString("\n")

	// Help
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

func (m *tuiModel) title() string {
	target := m.info.Destination
	if m.info.DestinationPTR != "" && m.info.DestinationPTR != target {
		target = fmt.Sprintf("%s (%s)", target, m.info.DestinationPTR)
	}
	elapsed := time.Since(m.startTime)
	return fmt.Sprintf(" UDP latency to %s port %d | Size: %dB | Interval: %s | Elapsed: %s ",
		target, m.info.Port, m.info.PacketSize, m.info.Interval, elapsed.Round(time.Second))
}

func (m *tuiModel) renderStatistics(stats tuiStats) string {
	var lines []string

	lines = append(lines, headerStyle.Render("Latency"))
	lines = append(lines, minStyle.Render("Min latency: "+formatLatency(stats.min)))
	lines = append(lines, avgStyle.Render("Avg latency: "+formatLatency(stats.avg)))
	lines = append(lines, maxStyle.Render("Max latency: "+formatLatency(stats.max)))

	loss := stats.lossPct()
	lines = append(lines, lossStyle(loss).Render(fmt.Sprintf("Packet loss: %.2f%%", loss)))
	lines = append(lines, "")

	if stats.total > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("Packets sent: %d/%d  received: %d", stats.sent, stats.total, stats.received)))
		ratio := float64(stats.sent) / float64(stats.total)
		lines = append(lines, m.progress.ViewAs(min(ratio, 1)))
	} else {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("Packets sent: %d  received: %d", stats.sent, stats.received)))
	}

	return borderStyle.Width(max(m.width-2, 20)).Render(strings.Join(lines, "\n"))
}

// tickCmd returns a command that sends a tick message periodically
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}
