package readpane

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/keys"
	"github.com/ShashiSrinath/dueam/internal/model"
	"github.com/ShashiSrinath/dueam/internal/senderinfo"
	"github.com/ShashiSrinath/dueam/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// LoadedMsg carries the loaded message detail.
type LoadedMsg struct {
	Email       *model.Email
	Content     *model.EmailContent
	Attachments []model.Attachment
	Thread      []model.Email
	Sender      *model.Sender
}

// ActionMsg signals the parent to execute an action on the open message.
type ActionMsg struct {
	Action string
	Key    model.RowKey
}

// Model is the reading pane component.
type Model struct {
	gw       gateway.Gateway
	senders  *senderinfo.Cache
	keys     *keys.KeyMap
	viewport viewport.Model
	email    *model.Email
	content  *model.EmailContent
	atts     []model.Attachment
	thread   []model.Email
	sender   *model.Sender
	width    int
	height   int
	loading  bool
}

// New creates a new reading pane model.
func New(gw gateway.Gateway, senders *senderinfo.Cache, keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		gw:       gw,
		senders:  senders,
		keys:     keys,
		viewport: vp,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the reading pane.
func (m Model) Init() tea.Cmd {
	return nil
}

// Load returns a command that fetches everything the pane renders for the
// given row. Sender enrichment failures degrade to the bare address.
func (m Model) Load(e *model.Email) tea.Cmd {
	gw := m.gw
	senders := m.senders
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		msg := LoadedMsg{Email: e}
		if content, err := gw.GetEmailContent(ctx, e.ID); err == nil {
			msg.Content = content
		}
		if atts, err := gw.GetAttachments(ctx, e.ID); err == nil {
			msg.Attachments = atts
		}
		if e.ThreadCount != nil && *e.ThreadCount > 1 {
			if thread, err := gw.GetThreadEmails(ctx, e.ID, 50, 0); err == nil {
				msg.Thread = thread
			}
		}
		if senders != nil {
			if s, err := senders.Sender(ctx, e.SenderAddress); err == nil {
				msg.Sender = s
			}
		}
		return msg
	}
}

// SetLoading marks the pane as waiting for a Load command to finish.
func (m *Model) SetLoading() {
	m.loading = true
	m.email = nil
	m.content = nil
	m.atts = nil
	m.thread = nil
	m.sender = nil
}

// Update handles messages for the reading pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.email = msg.Email
		m.content = msg.Content
		m.atts = msg.Attachments
		m.thread = msg.Thread
		m.sender = msg.Sender
		m.loading = false
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Trash):
			if m.email != nil {
				k := m.email.Key()
				return m, func() tea.Msg {
					return ActionMsg{Action: "trash", Key: k}
				}
			}

		case key.Matches(msg, m.keys.Archive):
			if m.email != nil {
				k := m.email.Key()
				return m, func() tea.Msg {
					return ActionMsg{Action: "archive", Key: k}
				}
			}
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the reading pane.
func (m Model) View() string {
	if m.loading {
		loadingStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return loadingStyle.Render("Loading message...")
	}

	if m.email == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No message open")
	}

	return m.viewport.View()
}

// renderContent builds the full message content string for the viewport.
func (m Model) renderContent() string {
	if m.email == nil {
		return ""
	}

	e := m.email
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	subject := "(no subject)"
	if e.Subject != nil && *e.Subject != "" {
		subject = *e.Subject
	}
	sections = append(sections, titleStyle.Render(subject))
	sections = append(sections, m.renderSenderLine())
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	if e.RecipientTo != nil && *e.RecipientTo != "" {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("To:"),
			valStyle.Render(*e.RecipientTo),
		))
	}
	if t, err := time.Parse(time.RFC3339, e.Date); err == nil {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Date:"),
			valStyle.Render(t.Format("Mon, 02 Jan 2006 15:04")),
		))
	}

	if len(m.atts) > 0 {
		var names []string
		for _, a := range m.atts {
			name := "attachment"
			if a.Filename != nil && *a.Filename != "" {
				name = *a.Filename
			}
			names = append(names, fmt.Sprintf("%s (%s)", name, humanSize(a.Size)))
		}
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Attachments:"),
			theme.AttachmentStyle.Render(strings.Join(names, ", ")),
		))
	}

	sections = append(sections, "")
	sections = append(sections, m.renderBody())

	if len(m.thread) > 1 {
		sections = append(sections, "")
		sections = append(sections, metaStyle.Render(
			fmt.Sprintf("── thread (%d messages) ──", len(m.thread)),
		))
		for i := range m.thread {
			t := &m.thread[i]
			if t.ID == e.ID {
				continue
			}
			label := t.SenderAddress
			if t.SenderName != nil && *t.SenderName != "" {
				label = *t.SenderName
			}
			snippet := ""
			if t.Snippet != nil {
				snippet = *t.Snippet
			}
			sections = append(sections, fmt.Sprintf(
				"%s %s",
				valStyle.Render(label+":"),
				metaStyle.Render(snippet),
			))
		}
	}

	return strings.Join(sections, "\n")
}

// renderSenderLine shows the sender with any cached enrichment.
func (m Model) renderSenderLine() string {
	e := m.email
	nameStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
	addrStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)

	name := e.SenderAddress
	if e.SenderName != nil && *e.SenderName != "" {
		name = *e.SenderName
	}
	line := nameStyle.Render(name) + " " + addrStyle.Render("<"+e.SenderAddress+">")

	if s := m.sender; s != nil {
		var bits []string
		if s.JobTitle != nil && *s.JobTitle != "" {
			bits = append(bits, *s.JobTitle)
		}
		if s.Company != nil && *s.Company != "" {
			bits = append(bits, *s.Company)
		}
		if s.Location != nil && *s.Location != "" {
			bits = append(bits, *s.Location)
		}
		if len(bits) > 0 {
			line += "\n" + addrStyle.Render(strings.Join(bits, " · "))
		}
	}
	return line
}

// renderBody prefers plain text and falls back to stripped HTML.
func (m Model) renderBody() string {
	bodyStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite).Width(m.width - 4)

	if m.content != nil {
		if m.content.BodyText != nil && strings.TrimSpace(*m.content.BodyText) != "" {
			return bodyStyle.Render(strings.TrimSpace(*m.content.BodyText))
		}
		if m.content.BodyHTML != nil && *m.content.BodyHTML != "" {
			return bodyStyle.Render(stripHTML(*m.content.BodyHTML))
		}
	}
	if m.email.Snippet != nil {
		return bodyStyle.Render(*m.email.Snippet)
	}
	return bodyStyle.Render("(empty message)")
}

// stripHTML drops tags and collapses whitespace for terminal display.
func stripHTML(html string) string {
	var b strings.Builder
	inTag := false
	lastSpace := true
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case inTag:
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		default:
			b.WriteRune(r)
			lastSpace = false
		}
	}
	return strings.TrimSpace(b.String())
}

// humanSize formats a byte count for the attachment line.
func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// Email returns the currently open row, or nil.
func (m Model) Email() *model.Email {
	return m.email
}

// SetSize updates the pane dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
