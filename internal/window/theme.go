// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package window

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#e91e63")
	colorSuccess = lipgloss.Color("#30d158")
	colorError   = lipgloss.Color("#ff453a")
	colorMuted   = lipgloss.Color("#808080")
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
)

var inputStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorAccent).
	Padding(0, 1)
