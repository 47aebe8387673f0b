package maillist

import (
	"fmt"
	"io"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShashiSrinath/dueam/internal/model"
	"github.com/ShashiSrinath/dueam/internal/theme"
)

// Row wraps a list row so it can be used in a bubbles/list.
type Row struct {
	Email *model.Email
}

// FilterValue returns the string used for fuzzy filtering.
func (r Row) FilterValue() string {
	return r.senderLabel() + " " + r.subjectLabel()
}

// Title returns the row title for the list.
func (r Row) Title() string { return r.subjectLabel() }

// Description returns a short summary line for the list.
func (r Row) Description() string {
	return r.senderLabel()
}

// Key returns the composite row identity.
func (r Row) Key() model.RowKey { return r.Email.Key() }

func (r Row) senderLabel() string {
	if r.Email.SenderName != nil && *r.Email.SenderName != "" {
		return *r.Email.SenderName
	}
	return r.Email.SenderAddress
}

func (r Row) subjectLabel() string {
	if r.Email.Subject != nil && *r.Email.Subject != "" {
		return *r.Email.Subject
	}
	return "(no subject)"
}

// renderState carries list-wide row state into the delegate. Shared by
// reference with the maillist Model so snapshot updates are visible.
type renderState struct {
	selection map[model.RowKey]bool
}

// ItemDelegate implements list.ItemDelegate for rendering mail rows.
type ItemDelegate struct {
	state *renderState
}

// Height returns the number of lines each row takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between rows.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-row messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single mail row line.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	row, ok := item.(Row)
	if !ok {
		return
	}

	e := row.Email
	key := e.Key()
	isCursor := index == m.Index()
	flags := model.DecodeFlags(e.Flags)
	unread := key.Kind == model.RowKindMessage && !flags.Has(model.FlagSeen)

	var mark string
	if d.state != nil && d.state.selection[key] {
		mark = theme.CheckedStyle.Render("✓")
	} else if unread {
		mark = theme.UnreadStyle.Render("●")
	} else {
		mark = " "
	}

	sender := ellipsize(row.senderLabel(), 24)
	sender = fmt.Sprintf("%-24s", sender)

	subject := row.subjectLabel()
	if unread {
		sender = theme.UnreadStyle.Render(sender)
		subject = theme.UnreadStyle.Render(subject)
	} else {
		sender = theme.ReadStyle.Render(sender)
	}

	badge := ""
	if key.Kind == model.RowKindDraft {
		badge = theme.DraftBadgeStyle.Render(" DRAFT")
	}
	if e.HasAttachment {
		badge += theme.AttachmentStyle.Render(" 📎")
	}
	if e.ThreadCount != nil && *e.ThreadCount > 1 {
		badge += lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Render(fmt.Sprintf(" (%d)", *e.ThreadCount))
	}

	snippet := ""
	if e.Snippet != nil && *e.Snippet != "" {
		snippet = theme.ReadStyle.Render("  " + ellipsize(*e.Snippet, 48))
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render(relativeTime(e.Date))

	line := fmt.Sprintf(
		"%s %s %s%s%s  %s",
		mark, sender, subject, badge, snippet, timeStr,
	)

	if isCursor {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// ellipsize fits s into max display cells, cutting on rune boundaries and
// ending with an ellipsis when anything was dropped.
func ellipsize(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max-1]) + "…"
}

// relativeTime returns a human-friendly relative time string for an
// RFC 3339 date.
func relativeTime(raw string) string {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil || t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		return t.Format("Jan 02")
	}
}
