// Package mailstore implements the client-side synchronization core of the
// mail client: an observable state container that mirrors backend-owned data
// reached over the command gateway, layering optimistic mutations, cursor
// pagination, selection, and composer state on top of eventually-consistent
// server truth.
package mailstore

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/model"
)

// Options tunes store behavior. Zero values select defaults.
type Options struct {
	// PageSize is the number of rows requested per list page.
	PageSize int

	// ReconcileDebounce is the quiet window after the last emails-updated
	// event before one reconciliation pass runs.
	ReconcileDebounce time.Duration

	// AutosaveDebounce is the quiet window after the last composer edit
	// before the open draft is autosaved.
	AutosaveDebounce time.Duration

	Logger *logrus.Logger
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = 50
	}
	if o.ReconcileDebounce <= 0 {
		o.ReconcileDebounce = 400 * time.Millisecond
	}
	if o.AutosaveDebounce <= 0 {
		o.AutosaveDebounce = 2 * time.Second
	}
	if o.Logger == nil {
		o.Logger = logrus.New()
		o.Logger.SetOutput(io.Discard)
	}
	return o
}

// Query describes the active logical email list: account filter, view or
// folder, flag filter, and free-text search.
type Query struct {
	AccountID *int64
	View      model.View
	Filter    model.Filter
	Search    string
}

// Composer is the state of the open compose session.
type Composer struct {
	Open          bool
	DraftID       *int64
	AccountID     int64
	To            string
	Cc            string
	Bcc           string
	Subject       string
	Body          string
	AttachmentIDs []int64
}

// Snapshot is a consistent read of the store's state. Row pointers are
// shared with the store: a row that did not change between snapshots is the
// same pointer, which is what lets render layers skip unchanged rows.
type Snapshot struct {
	Accounts  []model.Account
	Folders   map[int64][]model.Folder
	Counts    model.UnifiedCounts
	Query     Query
	Rows      []*model.Email
	HasMore   bool
	Fetching  bool
	Selection map[model.RowKey]bool
	Focused   *model.RowKey
	Open      *model.RowKey
	Composer  Composer
	LastError string
	Version   uint64
}

// Store is the synchronization store. It is the single writer of list,
// selection, and composer state; all readers are passive subscribers. Every
// backend call runs in its own goroutine and re-enters through an apply
// function that re-validates the query generation under the lock, so a
// stale response can never overwrite state belonging to a newer query.
type Store struct {
	gw   gateway.Gateway
	opts Options
	log  *logrus.Logger

	mu sync.Mutex

	accounts []model.Account
	folders  map[int64][]model.Folder
	counts   model.UnifiedCounts

	query      Query
	generation uint64
	rows       []*model.Email
	hasMore    bool
	fetching   bool

	selection map[model.RowKey]bool
	focused   *model.RowKey
	open      *model.RowKey

	composer      Composer
	lastSaved     *model.DraftPayload
	autosave      *debouncer
	savingDraft   bool
	pendingResave bool

	lastErr string
	version uint64

	subs    map[int]chan struct{}
	nextSub int

	reconcile    *debouncer
	cancelEvents func()
	closed       bool
}

// New creates a store bound to the given gateway and subscribes it to the
// backend's push events.
func New(gw gateway.Gateway, events gateway.EventSource, opts Options) *Store {
	opts = opts.withDefaults()

	s := &Store{
		gw:        gw,
		opts:      opts,
		log:       opts.Logger,
		folders:   make(map[int64][]model.Folder),
		selection: make(map[model.RowKey]bool),
		subs:      make(map[int]chan struct{}),
	}
	s.reconcile = newDebouncer(opts.ReconcileDebounce, s.reconcilePass)
	s.autosave = newDebouncer(opts.AutosaveDebounce, s.autosaveDraft)

	if events != nil {
		s.cancelEvents = events.Subscribe(s.onEvent)
	}
	return s
}

// Close detaches the store from the event channel and stops its timers.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancelEvents
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.reconcile.stop()
	s.autosave.stop()
}

// Reset restores the store to its exact initial state with freshly
// allocated collections. The query generation stays monotonic so that
// responses from before the reset can never be applied after it.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = nil
	s.folders = make(map[int64][]model.Folder)
	s.counts = model.UnifiedCounts{}
	s.query = Query{}
	s.generation++
	s.rows = nil
	s.hasMore = false
	s.fetching = false
	s.selection = make(map[model.RowKey]bool)
	s.focused = nil
	s.open = nil
	s.composer = Composer{}
	s.lastSaved = nil
	s.lastErr = ""
	s.autosave.stop()
	s.reconcile.cancel()
	s.notifyLocked()
}

// Subscribe returns a coalescing change-signal channel and its cancel
// function. The channel receives at most one pending signal; readers
// re-snapshot on receipt.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// Snapshot returns a consistent copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]*model.Email, len(s.rows))
	copy(rows, s.rows)

	sel := make(map[model.RowKey]bool, len(s.selection))
	for k := range s.selection {
		sel[k] = true
	}

	folders := make(map[int64][]model.Folder, len(s.folders))
	for id, fs := range s.folders {
		folders[id] = fs
	}

	return Snapshot{
		Accounts:  s.accounts,
		Folders:   folders,
		Counts:    s.counts,
		Query:     s.query,
		Rows:      rows,
		HasMore:   s.hasMore,
		Fetching:  s.fetching,
		Selection: sel,
		Focused:   copyKey(s.focused),
		Open:      copyKey(s.open),
		Composer:  s.composer,
		LastError: s.lastErr,
		Version:   s.version,
	}
}

// Version returns the state version counter. It advances on every
// observable change and only on observable changes.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// SetOpen records which row is open in the reading pane. A nil key closes
// it. The open row also becomes the selection anchor.
func (s *Store) SetOpen(key *model.RowKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.open = copyKey(key)
	if key != nil {
		s.focused = copyKey(key)
	}
	s.notifyLocked()
}

// ClearError clears the surfaced foreground error.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastErr == "" {
		return
	}
	s.lastErr = ""
	s.notifyLocked()
}

// Bootstrap loads accounts, folders, and unified counts. It is called once
// at startup and again by every reconciliation pass.
func (s *Store) Bootstrap(ctx context.Context) error {
	accounts, err := s.gw.GetAccounts(ctx)
	if err != nil {
		return err
	}

	folders := make(map[int64][]model.Folder, len(accounts))
	for _, a := range accounts {
		fs, err := s.gw.GetFolders(ctx, a.ID)
		if err != nil {
			return err
		}
		folders[a.ID] = fs
	}

	counts, err := s.gw.GetUnifiedCounts(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = accounts
	s.folders = folders
	s.counts = counts
	s.notifyLocked()
	return nil
}

// refreshCounts re-fetches folders and unified counts in the background,
// after a mutation the backend has confirmed.
func (s *Store) refreshCounts() {
	go func() {
		if err := s.Bootstrap(context.Background()); err != nil {
			s.log.WithError(err).Warn("refreshing counts after mutation")
		}
	}()
}

// onEvent handles one backend push notification.
func (s *Store) onEvent(ev gateway.Event) {
	switch ev.Name {
	case gateway.EventEmailsUpdated:
		s.reconcile.trigger()
	}
}

// reconcilePass runs one debounced reconciliation: metadata first, then a
// stable list refresh, never a query reset, so scroll position and
// selection survive.
func (s *Store) reconcilePass() {
	ctx := context.Background()
	if err := s.Bootstrap(ctx); err != nil {
		s.log.WithError(err).Warn("reconcile: refreshing metadata")
	}
	s.Refresh()
}

// notifyLocked bumps the version and signals all subscribers. Callers hold
// the state mutex.
func (s *Store) notifyLocked() {
	s.version++
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// setErrorLocked records a foreground failure for the UI to surface.
func (s *Store) setErrorLocked(err error) {
	s.lastErr = err.Error()
}

func copyKey(k *model.RowKey) *model.RowKey {
	if k == nil {
		return nil
	}
	c := *k
	return &c
}
