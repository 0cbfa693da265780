package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planbatch/internal/model"
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

// HeaderStyle is used for the top bar and list titles.
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

// PanelStyle wraps overlay content such as help and the command palette.
var PanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for items in a list.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(2)

// SelectedItemStyle highlights the currently focused list item.
var SelectedItemStyle = lipgloss.NewStyle().
	PaddingLeft(1).
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// TitleStyle is used for view titles inside the content area.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	MarginBottom(1)

// DimmedStyle renders secondary text.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// ErrorStyle renders failures in the status bar and on the error screen.
var ErrorStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorRed)

// SuccessStyle renders completed operations.
var SuccessStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// WarningStyle renders notices that need attention but are not failures.
var WarningStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorYellow)

// TaskTypeStyle returns a color-coded badge style for a task type.
func TaskTypeStyle(tt model.TaskType) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch tt {
	case model.TaskTypeMonthlyPlan:
		return base.Foreground(ColorBlue)
	case model.TaskTypePortfolioPlan:
		return base.Foreground(ColorMagenta)
	case model.TaskTypeOwnerExternal:
		return base.Foreground(ColorOrange)
	case model.TaskTypeOwnerInternal:
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGray)
	}
}

// TaskTypeBadge returns the short label shown in list rows.
func TaskTypeBadge(tt model.TaskType) string {
	switch tt {
	case model.TaskTypeMonthlyPlan:
		return "MONTHLY"
	case model.TaskTypePortfolioPlan:
		return "PORTFOLIO"
	case model.TaskTypeOwnerExternal:
		return "OWNER EXT"
	case model.TaskTypeOwnerInternal:
		return "OWNER INT"
	default:
		return string(tt)
	}
}
