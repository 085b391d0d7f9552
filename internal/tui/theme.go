package tui

import "github.com/charmbracelet/lipgloss"

// ---------------------------------------------------------------------------
// Catppuccin Mocha palette, the subset this screen uses
// https://catppuccin.com/palette
// ---------------------------------------------------------------------------

const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorLavender lipgloss.Color = "#b4befe"

	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorOverlay1 lipgloss.Color = "#7f849c"
	colorSurface1 lipgloss.Color = "#45475a"
	colorSurface0 lipgloss.Color = "#313244"
	colorBase     lipgloss.Color = "#1e1e2e"
)

const (
	colorAccent  = colorPink
	colorFocus   = colorLavender
	colorSuccess = colorGreen
	colorError   = colorRed
	colorWarning = colorYellow
	colorInfo    = colorTeal
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorOverlay1)
	subtleStyle  = lipgloss.NewStyle().Foreground(colorSubtext0)
	loadingStyle = lipgloss.NewStyle().Foreground(colorInfo).Italic(true)
	buttonStyle  = lipgloss.NewStyle().Foreground(colorBase).Background(colorAccent).Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Foreground(colorText).Background(colorSurface0).Padding(0, 1)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
	dangerStyle  = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	modalStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorFocus).Padding(1, 2)

	toastStyles = map[toastLevel]lipgloss.Style{
		toastSuccess: lipgloss.NewStyle().Foreground(colorBase).Background(colorSuccess).Padding(0, 1),
		toastError:   lipgloss.NewStyle().Foreground(colorBase).Background(colorError).Padding(0, 1),
		toastWarning: lipgloss.NewStyle().Foreground(colorBase).Background(colorWarning).Padding(0, 1),
		toastInfo:    lipgloss.NewStyle().Foreground(colorBase).Background(colorInfo).Padding(0, 1),
	}
)

