package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/vizcap/internal/analyzer"
	"github.com/olivier-w/vizcap/internal/export"
	"github.com/olivier-w/vizcap/internal/player"
	"github.com/olivier-w/vizcap/internal/render"
	"github.com/olivier-w/vizcap/internal/util"
)

// Stubbed in tests.
var writeArtifact = os.WriteFile

// chromeLines is the number of terminal rows reserved around the
// visualization block.
const chromeLines = 10

// ExportOptions are the capture parameters fixed at startup.
type ExportOptions struct {
	Width  int
	Height int
	FPS    int
	MP4    bool
}

// Model is the Bubbletea model for the vizcap TUI.
type Model struct {
	player    *player.Player
	an        *analyzer.Analyzer
	metadata  player.Metadata
	audioPath string

	cfg      render.Config
	themeIdx int

	exportOpts ExportOptions
	session    *export.Session
	exportUpd  export.Update
	exportBar  progress.Model
	exportDone string // terminal status of the last finished session

	term   *termRenderer
	spring springField
	canvas *render.Canvas
	frame  string
	vizW   int
	vizH   int // terminal rows

	width, height int
	elapsed       time.Duration
	duration      time.Duration
	playedAt      time.Time // last transition into playing
	paused        bool
	playbackDone  bool
	renderErr     error
	saveMsg       string
	saveMsgTime   time.Time
	quitting      bool
	ticking       bool
}

// New creates a new Model around an already-open player.
func New(p *player.Player, an *analyzer.Analyzer, meta player.Metadata, audioPath string, cfg render.Config, opts ExportOptions) Model {
	themeIdx := 0
	for i, name := range render.Themes() {
		if name == cfg.Theme {
			themeIdx = i
			break
		}
	}
	return Model{
		player:     p,
		an:         an,
		metadata:   meta,
		audioPath:  audioPath,
		cfg:        cfg,
		themeIdx:   themeIdx,
		exportOpts: opts,
		exportBar:  progress.New(progress.WithDefaultGradient()),
		term:       newTermRenderer(),
		spring:     newSpringField(30, 7.5, 0.3),
		duration:   p.Duration(),
		playedAt:   time.Now(),
		ticking:    true,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), checkDone(m.player), tea.SetWindowTitle(windowTitle(m.metadata.Title, false)))
}

func checkDone(p *player.Player) tea.Cmd {
	return func() tea.Msg {
		<-p.Done()
		return playbackEndedMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		if m.quitting || m.paused || m.playbackDone || m.renderErr != nil {
			m.ticking = false
			return m, nil
		}
		m.elapsed = m.player.Position()
		if m.saveMsg != "" && time.Since(m.saveMsgTime) > 5*time.Second {
			m.saveMsg = ""
		}
		m.drawLiveFrame()
		if m.renderErr != nil {
			m.ticking = false
			return m, nil
		}
		return m, tickCmd()

	case playbackEndedMsg:
		m.elapsed = m.duration
		m.playbackDone = true
		if m.session == nil {
			m.quitting = true
			m.player.Close()
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
		return m, nil

	case exportMsg:
		return m.handleExport(msg)

	case artifactSavedMsg:
		if msg.err != nil {
			m.saveMsg = fmt.Sprintf("Save failed: %v", msg.err)
		} else {
			m.saveMsg = fmt.Sprintf("Saved %s", msg.name)
		}
		m.saveMsgTime = time.Now()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeCanvas()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if isQuit(msg) {
		m.quitting = true
		if m.session != nil {
			m.session.Cancel()
		}
		m.player.Close()
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
	}
	switch msg.String() {
	case " ":
		m.player.TogglePause()
		m.paused = m.player.Paused()
		if m.paused {
			m.drawPausedFrame()
			return m, tea.SetWindowTitle(windowTitle(m.metadata.Title, true))
		}
		m.playedAt = time.Now()
		cmd := tea.SetWindowTitle(windowTitle(m.metadata.Title, false))
		if !m.ticking && m.renderErr == nil {
			m.ticking = true
			return m, tea.Batch(cmd, tickCmd())
		}
		return m, cmd
	case "v":
		if m.cfg.Kind == render.KindLinear {
			m.cfg.Kind = render.KindCircular
		} else {
			m.cfg.Kind = render.KindLinear
		}
	case "b":
		if m.cfg.LinearStyle == render.StyleBars {
			m.cfg.LinearStyle = render.StyleWaveform
		} else {
			m.cfg.LinearStyle = render.StyleBars
		}
	case "t":
		names := render.Themes()
		m.themeIdx = (m.themeIdx + 1) % len(names)
		m.cfg.Theme = names[m.themeIdx]
	case "p":
		m.cfg.Pulse = !m.cfg.Pulse
	case "s":
		m.cfg.Swing = !m.cfg.Swing
	case "e":
		return m.startExport()
	case "x":
		if m.session != nil {
			m.session.Cancel()
		}
	}
	if m.paused {
		m.drawPausedFrame()
	}
	return m, nil
}

func (m Model) startExport() (tea.Model, tea.Cmd) {
	if m.session != nil {
		return m, nil
	}
	s, err := export.Start(export.Settings{
		AudioPath:    m.audioPath,
		Width:        m.exportOpts.Width,
		Height:       m.exportOpts.Height,
		FPS:          m.exportOpts.FPS,
		SecondaryMP4: m.exportOpts.MP4,
		Render:       m.cfg,
	})
	if err != nil {
		m.saveMsg = fmt.Sprintf("Export failed to start: %v", err)
		m.saveMsgTime = time.Now()
		return m, nil
	}
	m.session = s
	m.exportUpd = export.Update{}
	m.exportDone = ""
	return m, waitExport(s.Updates())
}

func (m Model) handleExport(msg exportMsg) (tea.Model, tea.Cmd) {
	if !msg.ok {
		m.session = nil
		if m.playbackDone {
			m.quitting = true
			m.player.Close()
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
		return m, nil
	}

	m.exportUpd = msg.update
	var cmds []tea.Cmd
	cmds = append(cmds, waitExport(m.session.Updates()))

	if msg.update.Phase.Terminal() {
		switch {
		case msg.update.Err != nil:
			m.exportDone = fmt.Sprintf("Export failed: %v", msg.update.Err)
		case msg.update.Phase == export.PhaseCancelled:
			m.exportDone = "Export cancelled"
		default:
			m.exportDone = "Export complete"
		}
	}
	if a := msg.update.Artifact; a != nil {
		name, data := a.Name, a.Data
		cmds = append(cmds, func() tea.Msg {
			err := writeArtifact(name, data, 0o644)
			return artifactSavedMsg{name: name, err: err}
		})
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) resizeCanvas() {
	w := m.width - 2
	if w < 16 {
		w = 16
	}
	rows := m.height - chromeLines
	if rows < 4 {
		rows = 4
	}
	m.vizW = w
	m.vizH = rows
	m.canvas = render.NewCanvas(w, rows*m.term.rowsPerCell())
	if m.paused {
		m.drawPausedFrame()
	}
}

func (m *Model) drawLiveFrame() {
	if m.canvas == nil {
		return
	}
	snap := m.an.Snapshot()
	m.spring.smoothFreq(snap.Freq[:])
	elapsed := time.Since(m.playedAt).Seconds()
	if err := render.Render(m.canvas, snap, m.cfg, elapsed); err != nil {
		m.renderErr = err
		return
	}
	m.frame = m.term.Render(m.canvas.Image(), m.vizW, m.vizH)
}

// drawPausedFrame replaces the visualization with a still. With an overlay
// image set the overlay is drawn at rest scale; otherwise a placeholder shows.
func (m *Model) drawPausedFrame() {
	if m.canvas == nil || m.renderErr != nil {
		return
	}
	if m.cfg.Overlay == nil {
		m.frame = ""
		return
	}
	// A nil frame draws the background and the resting overlay only.
	if err := render.Render(m.canvas, nil, m.cfg, 0); err != nil {
		m.renderErr = err
		return
	}
	m.frame = m.term.Render(m.canvas.Image(), m.vizW, m.vizH)
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	w := m.width
	if w < 30 {
		w = 50
	}

	header := headerStyle.Render("vizcap")
	title := titleStyle.Render(m.metadata.Title)

	subtitle := ""
	if m.metadata.Artist != "" && m.metadata.Album != "" {
		subtitle = artistStyle.Render(fmt.Sprintf("%s - %s", m.metadata.Artist, m.metadata.Album))
	} else if m.metadata.Artist != "" {
		subtitle = artistStyle.Render(m.metadata.Artist)
	} else if m.metadata.Album != "" {
		subtitle = artistStyle.Render(m.metadata.Album)
	}

	var b strings.Builder
	b.WriteString("\n  " + header + "  " + title)
	if subtitle != "" {
		b.WriteString("  " + subtitle)
	}
	b.WriteString("\n")

	b.WriteString(m.vizBlock())

	elapsedStr := timeStyle.Render(util.FormatDuration(m.elapsed))
	durationStr := timeStyle.Render(util.FormatDuration(m.duration))
	b.WriteString(fmt.Sprintf("  %s / %s   %s\n", elapsedStr, durationStr, statusStyle.Render(m.statusLine())))

	if line := m.exportLine(w); line != "" {
		b.WriteString("  " + line + "\n")
	}
	if m.renderErr != nil {
		b.WriteString("  " + errorStyle.Render(fmt.Sprintf("Render error: %v", m.renderErr)) + "\n")
	}
	if m.saveMsg != "" {
		b.WriteString("  " + helpStyle.Render(m.saveMsg) + "\n")
	}
	b.WriteString("  " + helpStyle.Render(helpText(m.session != nil)) + "\n")
	return b.String()
}

// vizBlock returns the visualization rows, or a placeholder when paused with
// no overlay image.
func (m Model) vizBlock() string {
	if m.paused && m.frame == "" {
		pad := strings.Repeat("\n", m.vizH/2)
		indent := strings.Repeat(" ", max(0, (m.vizW-6)/2))
		return pad + indent + pausedStyle.Render("Paused") + strings.Repeat("\n", m.vizH-m.vizH/2)
	}
	if m.frame == "" {
		return strings.Repeat("\n", m.vizH+1)
	}
	return m.frame + "\n"
}

func (m Model) statusLine() string {
	mode := "bars"
	if m.cfg.Kind == render.KindCircular {
		mode = "circular"
	} else if m.cfg.LinearStyle == render.StyleWaveform {
		mode = "waveform"
	}
	flags := ""
	if m.cfg.Pulse {
		flags += " pulse"
	}
	if m.cfg.Swing {
		flags += " swing"
	}
	state := "playing"
	if m.paused {
		state = "paused"
	}
	return fmt.Sprintf("%s  %s  %s%s", state, mode, m.cfg.Theme, flags)
}

func (m Model) exportLine(w int) string {
	if m.session == nil {
		if m.exportDone != "" {
			return statusStyle.Render(m.exportDone)
		}
		return ""
	}
	bar := m.exportBar
	bar.Width = w - 40
	if bar.Width < 10 {
		bar.Width = 10
	}
	label := m.exportUpd.Phase.String()
	if m.exportUpd.Status != "" {
		label = m.exportUpd.Status
	}
	return fmt.Sprintf("%s %s %3.0f%%", statusStyle.Render(label), bar.ViewAs(m.exportUpd.Progress/100), m.exportUpd.Progress)
}

func windowTitle(title string, paused bool) string {
	if paused {
		return "⏸ " + title + " - vizcap"
	}
	return "▶ " + title + " - vizcap"
}
