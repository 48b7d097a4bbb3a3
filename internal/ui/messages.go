package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/vizcap/internal/export"
)

type tickMsg time.Time
type playbackEndedMsg struct{}

// exportMsg carries one session update; ok is false when the update channel
// has closed and the session is over.
type exportMsg struct {
	update export.Update
	ok     bool
}

type artifactSavedMsg struct {
	name string
	err  error
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitExport(ch <-chan export.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-ch
		return exportMsg{update: u, ok: ok}
	}
}
