package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/ShashiSrinath/dueam/internal/credential"
	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/keys"
	"github.com/ShashiSrinath/dueam/internal/mailstore"
	"github.com/ShashiSrinath/dueam/internal/model"
	"github.com/ShashiSrinath/dueam/internal/senderinfo"
	"github.com/ShashiSrinath/dueam/internal/settings"
	"github.com/ShashiSrinath/dueam/internal/ui"
	"github.com/ShashiSrinath/dueam/internal/ui/command"
	"github.com/ShashiSrinath/dueam/internal/ui/compose"
	helpview "github.com/ShashiSrinath/dueam/internal/ui/help"
	"github.com/ShashiSrinath/dueam/internal/ui/maillist"
	"github.com/ShashiSrinath/dueam/internal/ui/readpane"
)

// storeChangedMsg is sent whenever the store publishes a new snapshot.
type storeChangedMsg struct{}

// bootstrappedMsg is sent once the initial account and folder load is done.
type bootstrappedMsg struct {
	err error
}

// draftReadyMsg carries a loaded draft on its way into the composer.
type draftReadyMsg struct {
	draft *model.Draft
}

// sendDoneMsg reports the outcome of a send or a composer close.
type sendDoneMsg struct {
	err error
}

// composerClosedMsg is sent after a keep-draft close has flushed.
type composerClosedMsg struct{}

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewRead
	ViewCompose
	ViewHelp
	ViewCommand
)

// Model is the root Bubble Tea model. It routes views, forwards store
// snapshots into the sub-views, and translates sub-view messages back
// into store calls.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	store        *mailstore.Store
	gw           gateway.Gateway
	senders      *senderinfo.Cache
	settings     *settings.Settings
	keys         *keys.KeyMap
	log          *logrus.Logger

	mailList    maillist.Model
	readPane    readpane.Model
	composeView compose.Model
	helpView    helpview.Model
	commandView command.Model

	changes     <-chan struct{}
	unsubscribe func()
	snap        mailstore.Snapshot
	ready       bool
}

// Deps bundles the services the root model needs.
type Deps struct {
	Store    *mailstore.Store
	Gateway  gateway.Gateway
	Senders  *senderinfo.Cache
	Settings *settings.Settings
	Logger   *logrus.Logger
}

// New creates a new root application model.
func New(d Deps) Model {
	k := keys.DefaultKeyMap()
	changes, unsubscribe := d.Store.Subscribe()

	return Model{
		currentView: ViewList,
		store:       d.Store,
		gw:          d.Gateway,
		senders:     d.Senders,
		settings:    d.Settings,
		keys:        k,
		log:         d.Logger,
		mailList:    maillist.New(d.Store, k, 80, 24),
		readPane:    readpane.New(d.Gateway, d.Senders, k, 80, 24),
		composeView: compose.New(d.Store, 80, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		changes:     changes,
		unsubscribe: unsubscribe,
	}
}

// Init bootstraps the store and starts listening for snapshot changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.bootstrap(),
		m.waitForChange(),
	)
}

// bootstrap loads accounts, folders, counts, and settings, then points
// the list at the unified primary view.
func (m Model) bootstrap() tea.Cmd {
	st := m.store
	sets := m.settings
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := st.Bootstrap(ctx); err != nil {
			return bootstrappedMsg{err: err}
		}
		if err := sets.Load(ctx); err != nil {
			return bootstrappedMsg{err: err}
		}
		st.SetQuery(mailstore.Query{View: model.ViewPrimary})
		return bootstrappedMsg{}
	}
}

// waitForChange blocks on the store's subscriber channel and converts
// each wakeup into a Bubble Tea message.
func (m Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.mailList.SetSize(contentWidth, contentHeight)
		m.readPane.SetSize(contentWidth, contentHeight)
		m.composeView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case storeChangedMsg:
		m.snap = m.store.Snapshot()
		m.composeView.SetAccounts(m.snap.Accounts)
		cmd := m.mailList.ApplySnapshot(m.snap)
		return m, tea.Batch(cmd, m.waitForChange())

	case bootstrappedMsg:
		if msg.err != nil {
			m.log.WithError(msg.err).Error("bootstrap failed")
		}
		return m, nil

	case maillist.OpenMsg:
		return m.openRow(msg)

	case draftReadyMsg:
		if msg.draft == nil {
			return m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewCompose
		return m, m.composeView.StartDraft(msg.draft)

	case readpane.LoadedMsg:
		var cmd tea.Cmd
		m.readPane, cmd = m.readPane.Update(msg)
		return m, cmd

	case readpane.BackMsg:
		m.currentView = ViewList
		m.store.SetOpen(nil)
		return m, nil

	case readpane.ActionMsg:
		switch msg.Action {
		case "trash":
			m.store.MoveToTrash(msg.Key)
		case "archive":
			m.store.ArchiveEmails(msg.Key)
		}
		m.currentView = ViewList
		m.store.SetOpen(nil)
		return m, nil

	case compose.SendMsg:
		return m, m.sendMessage()

	case compose.CloseMsg:
		return m, m.closeComposer()

	case compose.DiscardMsg:
		return m, m.discardDraft()

	case sendDoneMsg:
		if msg.err == nil {
			m.currentView = ViewList
		}
		return m, nil

	case composerClosedMsg:
		m.currentView = ViewList
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(string(msg))

	case tea.KeyMsg:
		// Global keys that work regardless of current view
		switch msg.String() {
		case "ctrl+c":
			m.shutdown()
			return m, tea.Quit

		case "q":
			if m.currentView == ViewList && !m.mailList.InSearchMode() {
				m.shutdown()
				return m, tea.Quit
			}

		case "?":
			if m.currentView == ViewCompose || m.mailList.InSearchMode() {
				break
			}
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case ":":
			if m.currentView == ViewCompose || m.mailList.InSearchMode() {
				break
			}
			if m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.commandView.Focus()

		case "c":
			if m.currentView == ViewList && !m.mailList.InSearchMode() {
				m.previousView = m.currentView
				m.currentView = ViewCompose
				return m, m.composeView.StartNew(m.defaultAccountID())
			}
			if m.currentView == ViewRead {
				if e := m.readPane.Email(); e != nil {
					m.previousView = m.currentView
					m.currentView = ViewCompose
					return m, m.composeView.StartReply(e)
				}
			}
		}

		// Any key press dismisses a surfaced backend error.
		if m.snap.LastError != "" {
			m.store.ClearError()
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// openRow routes a list row to the reading pane or the draft composer.
func (m Model) openRow(msg maillist.OpenMsg) (tea.Model, tea.Cmd) {
	if msg.Key.Kind == model.RowKindDraft {
		return m, m.loadDraft(msg.Row.AccountID, msg.Key.ID)
	}

	m.previousView = m.currentView
	m.currentView = ViewRead
	m.readPane.SetLoading()

	key := msg.Key
	m.store.SetOpen(&key)
	if m.settings.Bool(settings.KeyMarkReadOnOpen, true) {
		m.store.MarkAsRead(key)
	}
	return m, m.readPane.Load(msg.Row)
}

// loadDraft fetches the backing draft for a synthesized draft row.
func (m Model) loadDraft(accountID, draftID int64) tea.Cmd {
	gw := m.gw
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		drafts, err := gw.GetDrafts(ctx, accountID)
		if err != nil {
			log.WithError(err).Warn("draft load failed")
			return draftReadyMsg{}
		}
		for i := range drafts {
			if drafts[i].ID == draftID {
				return draftReadyMsg{draft: &drafts[i]}
			}
		}
		return draftReadyMsg{}
	}
}

// sendMessage submits the composer session.
func (m Model) sendMessage() tea.Cmd {
	st := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return sendDoneMsg{err: st.Send(ctx)}
	}
}

// closeComposer flushes any pending edits into the draft and closes the
// session without sending.
func (m Model) closeComposer() tea.Cmd {
	st := m.store
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := st.SaveDraftNow(ctx); err != nil {
			log.WithError(err).Warn("draft save on close failed")
		}
		st.CloseComposer()
		return composerClosedMsg{}
	}
}

// discardDraft deletes the draft behind the composer session.
func (m Model) discardDraft() tea.Cmd {
	st := m.store
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return sendDoneMsg{err: st.Discard(ctx)}
	}
}

// defaultAccountID resolves the compose-from account, preferring the
// configured default and falling back to the first account.
func (m Model) defaultAccountID() int64 {
	if raw, ok := m.settings.Get(settings.KeyDefaultAccountID); ok {
		for _, a := range m.snap.Accounts {
			if fmt.Sprintf("%d", a.ID) == raw {
				return a.ID
			}
		}
	}
	if len(m.snap.Accounts) > 0 {
		return m.snap.Accounts[0].ID
	}
	return 0
}

// shutdown releases the store subscription before the program exits.
func (m *Model) shutdown() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.mailList, cmd = m.mailList.Update(msg)
	case ViewRead:
		m.readPane, cmd = m.readPane.Update(msg)
	case ViewCompose:
		m.composeView, cmd = m.composeView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Dueam", m.headerStatus())
	content := m.renderContent()

	var statusBar string
	if m.snap.LastError != "" && m.currentView != ViewCompose {
		statusBar = m.layout.RenderErrorBar("✗ " + m.snap.LastError)
	} else {
		statusBar = m.layout.RenderStatusBar(m.keyHints())
	}

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		return m.mailList.View()
	case ViewRead:
		return m.readPane.View()
	case ViewCompose:
		return m.composeView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	default:
		return ""
	}
}

// headerStatus summarizes counts and fetch state for the header bar.
func (m Model) headerStatus() string {
	var parts []string
	if m.snap.Counts.Primary > 0 {
		parts = append(parts, fmt.Sprintf("inbox %d", m.snap.Counts.Primary))
	}
	if m.snap.Counts.Drafts > 0 {
		parts = append(parts, fmt.Sprintf("drafts %d", m.snap.Counts.Drafts))
	}
	if m.snap.Fetching {
		parts = append(parts, "fetching…")
	}
	if len(parts) == 0 {
		return "idle"
	}
	return strings.Join(parts, " · ")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewRead:
		return "esc back | c reply | e archive | d trash | j/k scroll"
	case ViewCompose:
		return "enter next field | esc keep draft | ctrl+d discard"
	default:
		if len(m.snap.Selection) > 0 {
			return fmt.Sprintf(
				"%d selected | e archive | d trash | u restore | m mark read | esc clear",
				len(m.snap.Selection),
			)
		}
		return "q quit | ? help | c compose | / search | space select | 1-7 mailboxes"
	}
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "quit", "q":
		m.shutdown()
		return tea.Quit

	case "refresh", "sync":
		m.store.Refresh()
		return nil

	case "compose", "new":
		m.previousView = ViewList
		m.currentView = ViewCompose
		return m.composeView.StartNew(m.defaultAccountID())

	case "discard":
		if m.previousView == ViewCompose {
			return m.discardDraft()
		}
		return nil

	case "inbox", "primary":
		m.store.SetQuery(mailstore.Query{View: model.ViewPrimary})
		return nil
	case "others":
		m.store.SetQuery(mailstore.Query{View: model.ViewOthers})
		return nil
	case "sent":
		m.store.SetQuery(mailstore.Query{View: model.ViewSent})
		return nil
	case "drafts":
		m.store.SetQuery(mailstore.Query{View: model.ViewDrafts})
		return nil
	case "spam":
		m.store.SetQuery(mailstore.Query{View: model.ViewSpam})
		return nil
	case "trash":
		m.store.SetQuery(mailstore.Query{View: model.ViewTrash})
		return nil
	case "archive":
		m.store.SetQuery(mailstore.Query{View: model.ViewArchive})
		return nil

	case "theme":
		if len(fields) == 2 {
			return m.setSetting(settings.KeyTheme, fields[1])
		}
		return nil

	case "signature":
		if len(fields) > 1 {
			return m.setSetting(settings.KeySignature, strings.Join(fields[1:], " "))
		}
		return nil

	case "set":
		if len(fields) == 3 {
			return m.setSetting(fields[1], fields[2])
		}
		return nil

	// The enrichment API key lives in the OS keychain, not in backend
	// settings. "apikey <key>" stores it, "apikey clear" removes it.
	case "apikey":
		if len(fields) != 2 {
			return nil
		}
		log := m.log
		if fields[1] == "clear" {
			return func() tea.Msg {
				if err := credential.Delete(credential.KeyEnrichmentAPIKey); err != nil {
					log.WithError(err).Warn("removing enrichment api key failed")
				}
				return nil
			}
		}
		value := fields[1]
		return func() tea.Msg {
			if err := credential.Set(credential.KeyEnrichmentAPIKey, value); err != nil {
				log.WithError(err).Warn("storing enrichment api key failed")
			}
			return nil
		}

	default:
		return nil
	}
}

// setSetting persists a settings change in the background.
func (m Model) setSetting(key, value string) tea.Cmd {
	sets := m.settings
	log := m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := sets.Set(ctx, key, value); err != nil {
			log.WithError(err).WithField("key", key).Warn("setting update rejected")
		}
		return nil
	}
}
