package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vmedia7860-pixel/civic-issue-reporting/internal/model"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for top-level section headers and the application title.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorStyle highlights the error line the repository surfaces after a
// fallback.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// PendingStyle marks records that exist only in the local cache.
var PendingStyle = lipgloss.NewStyle().
	Foreground(ColorOrange).
	Italic(true)

// DetailPanelStyle wraps the detail view content area.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// StatusStyle returns a color-coded style for a report status.
func StatusStyle(status model.Status) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch status {
	case model.StatusNew:
		return base.Foreground(ColorBlue)
	case model.StatusTriaged:
		return base.Foreground(ColorMagenta)
	case model.StatusInProgress:
		return base.Foreground(ColorYellow)
	case model.StatusResolved:
		return base.Foreground(ColorGreen)
	case model.StatusClosed:
		return base.Foreground(ColorGray)
	default:
		return base.Foreground(ColorGray)
	}
}

// PriorityStyle returns a color-coded style for a report priority.
// Higher numbers are hotter on the 1-10 scale.
func PriorityStyle(priority int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)

	switch {
	case priority >= 9:
		return base.Foreground(ColorRed)
	case priority >= 7:
		return base.Foreground(ColorOrange)
	case priority >= 5:
		return base.Foreground(ColorYellow)
	case priority >= 3:
		return base.Foreground(ColorBlue)
	default:
		return base.Foreground(ColorGray)
	}
}

// CategoryStyle returns a color-coded style for a report category label.
func CategoryStyle(cat model.Category) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch cat {
	case model.CategoryEmergency:
		return base.Foreground(ColorRed)
	case model.CategoryWater:
		return base.Foreground(ColorBlue)
	case model.CategoryElectricity:
		return base.Foreground(ColorYellow)
	case model.CategoryRoad:
		return base.Foreground(ColorOrange)
	case model.CategoryParks:
		return base.Foreground(ColorGreen)
	case model.CategoryWaste, model.CategoryTraffic:
		return base.Foreground(ColorMagenta)
	default:
		return base.Foreground(ColorGray)
	}
}
