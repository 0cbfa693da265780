package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/planbatch/internal/theme"
)

// NoticeKind sets the color of a status bar notice.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

// Notice is a one-line message shown in the status bar in place of the
// key hints until the next action.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Empty reports whether there is nothing to show.
func (n Notice) Empty() bool { return n.Text == "" }

func (n Notice) style() lipgloss.Style {
	switch n.Kind {
	case NoticeSuccess:
		return theme.SuccessStyle
	case NoticeWarning:
		return theme.WarningStyle
	case NoticeError:
		return theme.ErrorStyle
	default:
		return lipgloss.NewStyle()
	}
}

// Layout manages the terminal layout dimensions.
type Layout struct {
	Width           int
	Height          int
	HeaderHeight    int
	StatusBarHeight int
}

// NewLayout creates a Layout with the given terminal dimensions.
// HeaderHeight and StatusBarHeight default to 1.
func NewLayout(width, height int) Layout {
	return Layout{
		Width:           width,
		Height:          height,
		HeaderHeight:    1,
		StatusBarHeight: 1,
	}
}

// ContentWidth returns the full available width.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight returns the height available for the main content area,
// accounting for the header and status bar.
func (l Layout) ContentHeight() int {
	return l.Height - l.HeaderHeight - l.StatusBarHeight
}

// RenderHeader renders the top bar with the title on the left and a short
// context summary (reference data counts, upload state) on the right.
func (l Layout) RenderHeader(title string, context string) string {
	titleRendered := theme.HeaderStyle.Render(title)

	contextRendered := theme.HeaderStyle.
		Align(lipgloss.Right).
		Render(context)

	gap := l.Width -
		lipgloss.Width(titleRendered) -
		lipgloss.Width(contextRendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.HeaderStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.HeaderStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		titleRendered,
		filler,
		contextRendered,
	)
}

// RenderStatusBar renders the bottom bar. A non-empty notice replaces the
// key hints.
func (l Layout) RenderStatusBar(hints string, notice Notice) string {
	text := hints
	style := theme.StatusBarStyle
	if !notice.Empty() {
		text = notice.Text
		style = notice.style().Inherit(theme.StatusBarStyle).Padding(0, 1)
	}
	rendered := style.MaxWidth(l.Width).Render(text)

	gap := l.Width - lipgloss.Width(rendered)
	if gap < 0 {
		gap = 0
	}

	filler := theme.StatusBarStyle.Render(
		lipgloss.NewStyle().
			Width(gap).
			Background(theme.StatusBarStyle.GetBackground()).
			Render(""),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered, filler)
}

// RenderCentered places lines in the middle of the content area. Used for
// the loading and error screens.
func (l Layout) RenderCentered(lines ...string) string {
	return lipgloss.NewStyle().
		Width(l.ContentWidth()).
		Height(l.ContentHeight()).
		Align(lipgloss.Center, lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Center, lines...))
}

// RenderWithFrame composes a full terminal view by vertically joining
// the header, content area, and status bar.
func (l Layout) RenderWithFrame(
	header string,
	content string,
	statusBar string,
) string {
	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		content,
		statusBar,
	)
}
