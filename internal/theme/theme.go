package theme

import "github.com/charmbracelet/lipgloss"

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

// ErrorBarStyle is used for the status bar when a backend error is showing.
var ErrorBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorRed).
	Padding(0, 1)

// DetailPanelStyle wraps the reading pane content area.
var DetailPanelStyle = lipgloss.NewStyle().
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

// BorderStyle provides a standard rounded border for panels.
var BorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// UnreadStyle marks messages that have not been opened yet.
var UnreadStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite)

// ReadStyle is the muted style for messages already seen.
var ReadStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// CheckedStyle renders the selection marker of checked rows.
var CheckedStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorGreen)

// DraftBadgeStyle labels locally stored draft rows in the list.
var DraftBadgeStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorOrange)

// AttachmentStyle marks rows that carry attachments.
var AttachmentStyle = lipgloss.NewStyle().
	Foreground(ColorYellow)

// ViewLabelStyle returns a color-coded style for the given mailbox view name.
func ViewLabelStyle(view string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch view {
	case "primary":
		return base.Foreground(ColorBlue)
	case "others":
		return base.Foreground(ColorMagenta)
	case "sent":
		return base.Foreground(ColorGreen)
	case "drafts":
		return base.Foreground(ColorOrange)
	case "spam":
		return base.Foreground(ColorRed)
	case "trash":
		return base.Foreground(ColorGray)
	case "archive":
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGray)
	}
}

// CountStyle returns the style for an unread count badge. Zero counts
// render muted so busy mailboxes stand out.
func CountStyle(count int) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true)
	if count == 0 {
		return base.Foreground(ColorSubtle)
	}
	return base.Foreground(ColorYellow)
}

// FlagStyle returns a color-coded style for a message flag badge.
func FlagStyle(flag string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch flag {
	case "flagged":
		return base.Foreground(ColorOrange)
	case "answered":
		return base.Foreground(ColorGreen)
	case "draft":
		return base.Foreground(ColorYellow)
	default:
		return base.Foreground(ColorGray)
	}
}
