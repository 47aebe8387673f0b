package compose

import (
	"fmt"
	"net/mail"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShashiSrinath/dueam/internal/mailstore"
	"github.com/ShashiSrinath/dueam/internal/model"
	"github.com/ShashiSrinath/dueam/internal/theme"
)

// SendMsg is dispatched when the user submits the form with send confirmed.
type SendMsg struct{}

// CloseMsg is dispatched when the user leaves the form keeping the draft.
type CloseMsg struct{}

// DiscardMsg is dispatched when the user asks to delete the draft.
type DiscardMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	accountID int64
	to        string
	cc        string
	bcc       string
	subject   string
	body      string
	send      bool
}

// Model is the Bubble Tea model for the compose form. Field edits are
// pushed into the store's composer session so its autosave sees them.
type Model struct {
	form       *huh.Form
	fb         *formBindings
	lastPushed formBindings
	store      *mailstore.Store
	accounts   []model.Account
	editDraft  bool
	width      int
	height     int
}

// New creates a new compose form model.
func New(s *mailstore.Store, width, height int) Model {
	return Model{
		fb:     &formBindings{},
		store:  s,
		width:  width,
		height: height,
	}
}

// SetAccounts sets the available accounts for the account selector.
func (m *Model) SetAccounts(accounts []model.Account) {
	m.accounts = accounts
}

// StartNew initializes the form for a fresh message and opens a composer
// session in the store.
func (m *Model) StartNew(accountID int64) tea.Cmd {
	*m.fb = formBindings{accountID: accountID, send: true}
	m.editDraft = false
	m.store.OpenComposer(mailstore.Composer{Open: true, AccountID: accountID})
	return m.startForm()
}

// StartReply initializes the form replying to the given message.
func (m *Model) StartReply(e *model.Email) tea.Cmd {
	subject := ""
	if e.Subject != nil {
		subject = *e.Subject
	}
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	*m.fb = formBindings{
		accountID: e.AccountID,
		to:        e.SenderAddress,
		subject:   subject,
		send:      true,
	}
	m.editDraft = false
	m.store.OpenComposer(mailstore.Composer{
		Open:      true,
		AccountID: e.AccountID,
		To:        e.SenderAddress,
		Subject:   subject,
	})
	return m.startForm()
}

// StartDraft initializes the form from a stored draft.
func (m *Model) StartDraft(d *model.Draft) tea.Cmd {
	*m.fb = formBindings{
		accountID: d.AccountID,
		to:        strDeref(d.To),
		cc:        strDeref(d.Cc),
		bcc:       strDeref(d.Bcc),
		subject:   strDeref(d.Subject),
		body:      strDeref(d.BodyHTML),
		send:      true,
	}
	m.editDraft = true
	m.store.OpenDraft(d)
	return m.startForm()
}

func (m *Model) startForm() tea.Cmd {
	m.lastPushed = *m.fb
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the compose form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+d" {
		return m, func() tea.Msg { return DiscardMsg{} }
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	m.pushEdits()

	if m.form.State == huh.StateCompleted {
		if m.fb.send {
			return m, func() tea.Msg { return SendMsg{} }
		}
		return m, func() tea.Msg { return CloseMsg{} }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CloseMsg{} }
	}

	return m, cmd
}

// pushEdits forwards changed field values into the composer session. The
// store debounces the resulting autosave.
func (m *Model) pushEdits() {
	if *m.fb == m.lastPushed {
		return
	}
	m.lastPushed = *m.fb
	fb := *m.fb
	m.store.UpdateComposer(func(c *mailstore.Composer) {
		c.AccountID = fb.accountID
		c.To = fb.to
		c.Cc = fb.cc
		c.Bcc = fb.bcc
		c.Subject = fb.subject
		c.Body = fb.body
	})
}

// View renders the compose form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Message"
	if m.editDraft {
		titleText = "Edit Draft"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	var fields []huh.Field

	if len(m.accounts) > 1 {
		opts := make([]huh.Option[int64], len(m.accounts))
		for i, a := range m.accounts {
			opts[i] = huh.NewOption(a.Email, a.ID)
		}
		fields = append(fields, huh.NewSelect[int64]().
			Title("From").
			Options(opts...).
			Value(&m.fb.accountID))
	}

	fields = append(fields,
		huh.NewInput().
			Title("To").
			Placeholder("recipient@example.com").
			Value(&m.fb.to).
			Validate(validateAddressList),
		huh.NewInput().
			Title("Cc").
			Value(&m.fb.cc).
			Validate(validateAddressList),
		huh.NewInput().
			Title("Bcc").
			Value(&m.fb.bcc).
			Validate(validateAddressList),
		huh.NewInput().
			Title("Subject").
			Value(&m.fb.subject),
		huh.NewText().
			Title("Body").
			Value(&m.fb.body),
		huh.NewConfirm().
			Title("Send now?").
			Affirmative("Send").
			Negative("Keep draft").
			Value(&m.fb.send),
	)

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

// validateAddressList accepts an empty value or a comma-separated list of
// RFC 5322 addresses.
func validateAddressList(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, part := range strings.Split(s, ",") {
		if _, err := mail.ParseAddress(strings.TrimSpace(part)); err != nil {
			return fmt.Errorf("invalid address: %s", strings.TrimSpace(part))
		}
	}
	return nil
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
