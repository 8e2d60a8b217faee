package main

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/radoslav1992/ai-help-center/internal/model/chat"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	mutedStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	okStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

func renderMessage(m chat.Message) string {
	label, style := "assistant", assistantStyle
	if m.Role == chat.RoleUser {
		label, style = "you", userStyle
	}
	lines := strings.Split(strings.TrimRight(m.Content, "\n"), "\n")
	for i := range lines {
		lines[i] = "  " + lines[i]
	}
	return style.Render(label+":") + "\n" + strings.Join(lines, "\n")
}
