package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText(exporting bool) string {
	if exporting {
		return "x cancel export  q quit"
	}
	return "space pause  v mode  b style  t theme  p pulse  s swing  e export  q quit"
}
