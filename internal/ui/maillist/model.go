package maillist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ShashiSrinath/dueam/internal/keys"
	"github.com/ShashiSrinath/dueam/internal/mailstore"
	"github.com/ShashiSrinath/dueam/internal/model"
	"github.com/ShashiSrinath/dueam/internal/theme"
)

// OpenMsg is sent when the user opens a row. Draft rows open in the
// composer, message rows in the reading pane.
type OpenMsg struct {
	Key model.RowKey
	Row *model.Email
}

// filterCycle defines the filter states cycled by Tab.
var filterCycle = []model.Filter{
	model.FilterNone,
	model.FilterUnread,
	model.FilterFlagged,
}

// viewTitles maps each mailbox view to its list title.
var viewTitles = map[model.View]string{
	model.ViewPrimary: "Primary",
	model.ViewOthers:  "Others",
	model.ViewSent:    "Sent",
	model.ViewDrafts:  "Drafts",
	model.ViewSpam:    "Spam",
	model.ViewTrash:   "Trash",
	model.ViewArchive: "Archive",
}

// Model is the mail list view component. The store owns all list state;
// this component renders the latest snapshot and translates key presses
// into store calls.
type Model struct {
	list        list.Model
	store       *mailstore.Store
	keys        *keys.KeyMap
	state       *renderState
	snap        mailstore.Snapshot
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new mail list model.
func New(s *mailstore.Store, k *keys.KeyMap, width, height int) Model {
	state := &renderState{selection: map[model.RowKey]bool{}}
	l := list.New([]list.Item{}, ItemDelegate{state: state}, width, height-2)
	l.Title = "Primary"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search mail..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		store:       s,
		keys:        k,
		state:       state,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns the initial command for the list view.
func (m Model) Init() tea.Cmd {
	return nil
}

// ApplySnapshot replaces the rendered rows with the given store snapshot,
// keeping the cursor on the same row when it survives.
func (m *Model) ApplySnapshot(snap mailstore.Snapshot) tea.Cmd {
	var cursorKey *model.RowKey
	if row, ok := m.list.SelectedItem().(Row); ok {
		k := row.Key()
		cursorKey = &k
	}

	m.snap = snap
	m.state.selection = snap.Selection
	m.list.Title = titleFor(snap.Query)

	items := make([]list.Item, len(snap.Rows))
	cursor := -1
	for i, e := range snap.Rows {
		items[i] = Row{Email: e}
		if cursorKey != nil && e.Key() == *cursorKey {
			cursor = i
		}
	}
	cmd := m.list.SetItems(items)
	if cursor >= 0 {
		m.list.Select(cursor)
	} else if m.list.Index() >= len(items) && len(items) > 0 {
		m.list.Select(len(items) - 1)
	}
	return cmd
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		q := m.snap.Query
		q.Search = m.searchInput.Value()
		m.store.SetQuery(q)
		return m, nil

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		if m.snap.Query.Search != "" {
			q := m.snap.Query
			q.Search = ""
			m.store.SetQuery(q)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		if len(m.snap.Selection) > 0 {
			m.store.ClearSelection()
		} else if m.snap.Query.Search != "" {
			q := m.snap.Query
			q.Search = ""
			m.store.SetQuery(q)
		}
		return m, nil

	case key.Matches(msg, m.keys.Open):
		row, ok := m.list.SelectedItem().(Row)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return OpenMsg{Key: row.Key(), Row: row.Email}
		}

	case key.Matches(msg, m.keys.Toggle):
		if row, ok := m.list.SelectedItem().(Row); ok {
			m.store.ToggleSelect(row.Key())
		}
		return m, nil

	case key.Matches(msg, m.keys.RangeSelect):
		if row, ok := m.list.SelectedItem().(Row); ok {
			m.store.RangeSelect(row.Key())
		}
		return m, nil

	case key.Matches(msg, m.keys.SelectAll):
		m.store.SelectAll()
		return m, nil

	case key.Matches(msg, m.keys.Archive):
		m.store.ArchiveEmails(m.actionKeys()...)
		return m, nil

	case key.Matches(msg, m.keys.Trash):
		m.store.MoveToTrash(m.actionKeys()...)
		return m, nil

	case key.Matches(msg, m.keys.Restore):
		m.store.MoveToInbox(m.actionKeys()...)
		return m, nil

	case key.Matches(msg, m.keys.Unread):
		m.store.MarkAsRead(m.actionKeys()...)
		return m, nil

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.Refresh):
		m.store.Refresh()
		return m, nil

	case key.Matches(msg, m.keys.CycleFilter):
		q := m.snap.Query
		q.Filter = nextFilter(q.Filter)
		m.store.SetQuery(q)
		return m, nil

	case key.Matches(msg, m.keys.ViewPrimary):
		return m, m.switchView(model.ViewPrimary)
	case key.Matches(msg, m.keys.ViewOthers):
		return m, m.switchView(model.ViewOthers)
	case key.Matches(msg, m.keys.ViewSent):
		return m, m.switchView(model.ViewSent)
	case key.Matches(msg, m.keys.ViewDrafts):
		return m, m.switchView(model.ViewDrafts)
	case key.Matches(msg, m.keys.ViewSpam):
		return m, m.switchView(model.ViewSpam)
	case key.Matches(msg, m.keys.ViewTrash):
		return m, m.switchView(model.ViewTrash)
	case key.Matches(msg, m.keys.ViewArchive):
		return m, m.switchView(model.ViewArchive)
	}

	atBottom := m.list.Index() == len(m.list.Items())-1

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)

	// Moving past the last loaded row pulls the next page in.
	if atBottom && key.Matches(msg, m.keys.Down) && m.snap.HasMore {
		m.store.FetchNextPage()
	}
	return m, cmd
}

// switchView replaces the query with the given mailbox view, keeping the
// account scope and dropping filter and search.
func (m Model) switchView(v model.View) tea.Cmd {
	q := mailstore.Query{AccountID: m.snap.Query.AccountID, View: v}
	m.store.SetQuery(q)
	return nil
}

// actionKeys returns the checked rows, or the cursor row when nothing
// is checked.
func (m Model) actionKeys() []model.RowKey {
	if selected := m.store.SelectedKeys(); len(selected) > 0 {
		return selected
	}
	if row, ok := m.list.SelectedItem().(Row); ok {
		return []model.RowKey{row.Key()}
	}
	return nil
}

// View renders the mail list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when the list is empty.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.snap.Fetching {
		return style.Render("Loading...")
	}
	if m.snap.Query.Search != "" {
		return style.Render("No matches.\nPress / to change the search, esc to clear it.")
	}
	if m.snap.Query.Filter != model.FilterNone {
		return style.Render("Nothing here.\nPress tab to change the filter.")
	}
	return style.Render("This mailbox is empty.")
}

// titleFor builds the list title from the active query.
func titleFor(q mailstore.Query) string {
	title, ok := viewTitles[q.View]
	if !ok {
		title = viewTitles[model.ViewPrimary]
	}
	if q.Search != "" {
		return title + " › search: " + q.Search
	}
	switch q.Filter {
	case model.FilterUnread:
		return title + " › unread"
	case model.FilterFlagged:
		return title + " › flagged"
	}
	return title
}

// nextFilter advances the Tab filter cycle.
func nextFilter(f model.Filter) model.Filter {
	for i, cur := range filterCycle {
		if cur == f {
			return filterCycle[(i+1)%len(filterCycle)]
		}
	}
	return model.FilterNone
}

// InSearchMode reports whether the search input has keyboard focus.
func (m Model) InSearchMode() bool {
	return m.searchMode
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
