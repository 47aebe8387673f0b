package mailstore_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/mailstore"
	"github.com/ShashiSrinath/dueam/internal/model"
	"github.com/ShashiSrinath/dueam/tests/testutil"
)

var listBase = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newStore(t *testing.T, fake *testutil.FakeGateway, hub *gateway.Hub, opts mailstore.Options) *mailstore.Store {
	t.Helper()

	// Assign through a typed check so a nil *Hub becomes a nil interface
	// instead of a typed-nil EventSource.
	var events gateway.EventSource
	if hub != nil {
		events = hub
	}
	st := mailstore.New(fake, events, opts)
	t.Cleanup(st.Close)
	return st
}

func msgKey(id int64) model.RowKey {
	return model.RowKey{Kind: model.RowKindMessage, ID: id}
}

func waitSettled(t *testing.T, st *mailstore.Store, want int) mailstore.Snapshot {
	t.Helper()

	testutil.WaitFor(t, time.Second, func() bool {
		snap := st.Snapshot()
		return len(snap.Rows) == want && !snap.Fetching
	}, "list did not settle")
	return st.Snapshot()
}

func TestSetQueryLoadsFirstPage(t *testing.T) {
	all := testutil.Emails(80, listBase)
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			return testutil.Page(all, q.Cursor, q.Limit), nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{PageSize: 50})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})

	snap := waitSettled(t, st, 50)
	if !snap.HasMore {
		t.Fatal("expected more pages after a full page")
	}
	if snap.Rows[0].ID != 80 || snap.Rows[49].ID != 31 {
		t.Fatalf("unexpected page bounds: first=%d last=%d", snap.Rows[0].ID, snap.Rows[49].ID)
	}
}

func TestNewToleratesTypedNilHub(t *testing.T) {
	all := testutil.Emails(5, listBase)
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			return testutil.Page(all, q.Cursor, q.Limit), nil
		},
	}

	// A nil *Hub stored in the interface is non-nil to the == check;
	// construction and queries must still work.
	var hub *gateway.Hub
	st := mailstore.New(fake, hub, mailstore.Options{PageSize: 50})
	t.Cleanup(st.Close)

	st.SetQuery(mailstore.Query{View: model.ViewPrimary})
	snap := waitSettled(t, st, 5)
	if snap.Rows[0].ID != 5 {
		t.Fatalf("unexpected first row id %d", snap.Rows[0].ID)
	}
}

func TestFetchNextPageUsesKeysetCursor(t *testing.T) {
	all := testutil.Emails(80, listBase)

	var mu sync.Mutex
	var cursors []*model.Cursor
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			mu.Lock()
			cursors = append(cursors, q.Cursor)
			mu.Unlock()
			return testutil.Page(all, q.Cursor, q.Limit), nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{PageSize: 50})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})
	waitSettled(t, st, 50)

	st.FetchNextPage()
	snap := waitSettled(t, st, 80)

	if snap.HasMore {
		t.Fatal("short page should clear the has-more flag")
	}
	seen := make(map[int64]bool)
	for _, r := range snap.Rows {
		if seen[r.ID] {
			t.Fatalf("duplicate row id %d after pagination", r.ID)
		}
		seen[r.ID] = true
	}

	mu.Lock()
	defer mu.Unlock()
	if len(cursors) != 2 || cursors[0] != nil || cursors[1] == nil {
		t.Fatalf("unexpected cursor sequence: %+v", cursors)
	}
	if cursors[1].ID != 31 {
		t.Fatalf("second page cursor should point at the last loaded row, got id %d", cursors[1].ID)
	}

	// A further request while has-more is clear must not fetch.
	st.FetchNextPage()
	time.Sleep(20 * time.Millisecond)
	if n := fake.CallCount("get_emails"); n != 2 {
		t.Fatalf("expected no third fetch, got %d calls", n)
	}
}

func TestStaleQueryResponseDiscarded(t *testing.T) {
	primary := testutil.Emails(5, listBase)
	sent := testutil.Emails(3, listBase.Add(time.Hour))

	release := make(chan struct{})
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			if q.View == model.ViewPrimary {
				<-release
				return testutil.Page(primary, q.Cursor, q.Limit), nil
			}
			return testutil.Page(sent, q.Cursor, q.Limit), nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{PageSize: 50})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})
	st.SetQuery(mailstore.Query{View: model.ViewSent})
	snap := waitSettled(t, st, 3)

	version := snap.Version
	close(release)
	time.Sleep(30 * time.Millisecond)

	snap = st.Snapshot()
	if len(snap.Rows) != 3 || snap.Query.View != model.ViewSent {
		t.Fatalf("stale first-query response overwrote the active list: %d rows", len(snap.Rows))
	}
	if snap.Version != version {
		t.Fatal("discarded response must not notify subscribers")
	}
}

func TestRefreshKeepsUnchangedRowPointers(t *testing.T) {
	rows := testutil.Emails(5, listBase)

	var mu sync.Mutex
	serve := rows
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			mu.Lock()
			defer mu.Unlock()
			return testutil.Page(serve, q.Cursor, q.Limit), nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{PageSize: 50})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})
	before := waitSettled(t, st, 5)

	// Identical content re-fetched: no notification, same pointers.
	st.Refresh()
	testutil.WaitFor(t, time.Second, func() bool {
		return fake.CallCount("get_emails") == 2
	}, "refresh never hit the backend")
	time.Sleep(20 * time.Millisecond)

	after := st.Snapshot()
	if after.Version != before.Version {
		t.Fatal("no-op refresh must not notify subscribers")
	}
	for i := range after.Rows {
		if after.Rows[i] != before.Rows[i] {
			t.Fatalf("row %d pointer changed across a no-op refresh", i)
		}
	}

	// One row's flags change: only that row gets a new pointer.
	mu.Lock()
	changed := append([]model.Email(nil), rows...)
	changed[2].Flags = `["seen"]`
	serve = changed
	mu.Unlock()

	st.Refresh()
	testutil.WaitFor(t, time.Second, func() bool {
		return st.Snapshot().Version != before.Version
	}, "changed refresh never applied")

	after = st.Snapshot()
	for i := range after.Rows {
		same := after.Rows[i] == before.Rows[i]
		if i == 2 && same {
			t.Fatal("changed row kept its stale pointer")
		}
		if i != 2 && !same {
			t.Fatalf("unchanged row %d was reallocated", i)
		}
	}
}

func TestRefreshShorterThanListKeepsTail(t *testing.T) {
	all := testutil.Emails(80, listBase)

	var mu sync.Mutex
	serve := all
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			mu.Lock()
			defer mu.Unlock()
			return testutil.Page(serve, q.Cursor, q.Limit), nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{PageSize: 50})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})
	waitSettled(t, st, 50)
	st.FetchNextPage()
	before := waitSettled(t, st, 80)

	// The backend answers the refresh with only the newest 30 rows, one of
	// them changed. Rows loaded past that window must survive in order.
	mu.Lock()
	top := append([]model.Email(nil), all[:30]...)
	top[0].Flags = `["seen"]`
	serve = top
	mu.Unlock()

	st.Refresh()
	testutil.WaitFor(t, time.Second, func() bool {
		return st.Snapshot().Version != before.Version
	}, "refresh never applied")

	after := st.Snapshot()
	if len(after.Rows) != 80 {
		t.Fatalf("short refresh window truncated the list to %d rows", len(after.Rows))
	}
	for i, r := range after.Rows {
		if want := int64(80 - i); r.ID != want {
			t.Fatalf("row %d has id %d, want %d", i, r.ID, want)
		}
	}
	if !after.Rows[0].Seen() {
		t.Fatal("changed head row not applied")
	}
	for i := 30; i < 80; i++ {
		if after.Rows[i] != before.Rows[i] {
			t.Fatalf("tail row %d was reallocated across the merge", i)
		}
	}
}

func TestSearchQueryRoutesToSearchCommand(t *testing.T) {
	all := testutil.Emails(80, listBase)

	var mu sync.Mutex
	var queries []gateway.SearchQuery
	fake := &testutil.FakeGateway{
		SearchFn: func(_ context.Context, q gateway.SearchQuery) ([]model.Email, error) {
			mu.Lock()
			queries = append(queries, q)
			mu.Unlock()
			return testutil.Page(all, q.Cursor, q.Limit), nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{PageSize: 50})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary, Search: "invoice"})
	snap := waitSettled(t, st, 50)
	if !snap.HasMore {
		t.Fatal("full search page should leave more to load")
	}
	if fake.CallCount("get_emails") != 0 {
		t.Fatal("search queries must not hit the list command")
	}

	st.FetchNextPage()
	snap = waitSettled(t, st, 80)
	if snap.HasMore {
		t.Fatal("short search page should clear the has-more flag")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(queries) != 2 {
		t.Fatalf("expected 2 search calls, got %d", len(queries))
	}
	for i, q := range queries {
		if q.Query != "invoice" {
			t.Fatalf("call %d searched for %q", i, q.Query)
		}
	}
	if queries[0].Cursor != nil || queries[1].Cursor == nil {
		t.Fatalf("unexpected search cursor sequence: %+v", queries)
	}
	if queries[1].Cursor.ID != 31 {
		t.Fatalf("second search cursor should point at the last loaded row, got id %d", queries[1].Cursor.ID)
	}
}

func TestStaleSearchResponseDiscarded(t *testing.T) {
	matches := testutil.Emails(5, listBase)
	sent := testutil.Emails(3, listBase.Add(time.Hour))

	release := make(chan struct{})
	fake := &testutil.FakeGateway{
		SearchFn: func(_ context.Context, q gateway.SearchQuery) ([]model.Email, error) {
			<-release
			return testutil.Page(matches, q.Cursor, q.Limit), nil
		},
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			return testutil.Page(sent, q.Cursor, q.Limit), nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{PageSize: 50})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary, Search: "invoice"})
	st.SetQuery(mailstore.Query{View: model.ViewSent})
	snap := waitSettled(t, st, 3)

	version := snap.Version
	close(release)
	time.Sleep(30 * time.Millisecond)

	snap = st.Snapshot()
	if len(snap.Rows) != 3 || snap.Query.Search != "" {
		t.Fatalf("stale search response overwrote the active list: %d rows", len(snap.Rows))
	}
	if snap.Version != version {
		t.Fatal("discarded search response must not notify subscribers")
	}
}

func TestSetQueryResetsHasMoreOptimistically(t *testing.T) {
	all := testutil.Emails(5, listBase)

	release := make(chan struct{})
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			<-release
			return testutil.Page(all, q.Cursor, q.Limit), nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{PageSize: 50})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})

	snap := st.Snapshot()
	if !snap.Fetching {
		t.Fatal("first page fetch should be marked in flight")
	}
	if !snap.HasMore {
		t.Fatal("has-more should stay set until the first page answers")
	}

	close(release)
	snap = waitSettled(t, st, 5)
	if snap.HasMore {
		t.Fatal("short first page should clear the has-more flag")
	}
}

func TestMarkAsReadIsImmediate(t *testing.T) {
	rows := testutil.Emails(3, listBase)

	release := make(chan struct{})
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			return testutil.Page(rows, q.Cursor, q.Limit), nil
		},
		MarkAsReadFn: func(_ context.Context, ids []int64) error {
			<-release
			return nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})
	waitSettled(t, st, 3)

	st.MarkAsRead(msgKey(2))

	snap := st.Snapshot()
	var row *model.Email
	for _, r := range snap.Rows {
		if r.ID == 2 {
			row = r
		}
	}
	if row == nil || !row.Seen() {
		t.Fatal("seen flag must be visible before the backend acknowledges")
	}
	close(release)
}

func TestMoveToTrashRollsBackOnFailure(t *testing.T) {
	rows := testutil.Emails(4, listBase)
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			return testutil.Page(rows, q.Cursor, q.Limit), nil
		},
		MoveToTrashFn: func(_ context.Context, ids []int64) error {
			return errors.New("imap connection lost")
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})
	waitSettled(t, st, 4)

	st.ToggleSelect(msgKey(3))
	st.SetOpen(&model.RowKey{Kind: model.RowKindMessage, ID: 3})
	before := st.Snapshot()

	st.MoveToTrash(msgKey(3))

	testutil.WaitFor(t, time.Second, func() bool {
		return st.Snapshot().LastError != ""
	}, "move failure never surfaced")

	after := st.Snapshot()
	if len(after.Rows) != len(before.Rows) {
		t.Fatalf("rollback restored %d rows, want %d", len(after.Rows), len(before.Rows))
	}
	for i := range after.Rows {
		if after.Rows[i].ID != before.Rows[i].ID {
			t.Fatalf("row order changed after rollback at index %d", i)
		}
	}
	if !after.Selection[msgKey(3)] {
		t.Fatal("selection not restored after rollback")
	}
	if after.Open == nil || after.Open.ID != 3 {
		t.Fatal("open row not restored after rollback")
	}
}

func TestMoveSkipsRollbackAfterQueryChange(t *testing.T) {
	primary := testutil.Emails(4, listBase)
	sent := testutil.Emails(2, listBase.Add(time.Hour))

	fail := make(chan struct{})
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			if q.View == model.ViewSent {
				return testutil.Page(sent, q.Cursor, q.Limit), nil
			}
			return testutil.Page(primary, q.Cursor, q.Limit), nil
		},
		MoveToTrashFn: func(_ context.Context, ids []int64) error {
			<-fail
			return errors.New("rejected")
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})
	waitSettled(t, st, 4)

	st.MoveToTrash(msgKey(2))
	st.SetQuery(mailstore.Query{View: model.ViewSent})
	waitSettled(t, st, 2)
	close(fail)

	testutil.WaitFor(t, time.Second, func() bool {
		return st.Snapshot().LastError != ""
	}, "move failure never surfaced")

	snap := st.Snapshot()
	if snap.Query.View != model.ViewSent || len(snap.Rows) != 2 {
		t.Fatalf("late rollback clobbered the newer query: %d rows in %q", len(snap.Rows), snap.Query.View)
	}
}

func TestMoveToTrashDeletesDraftRows(t *testing.T) {
	drafts := []model.Draft{draftRecord(-7, "bob@example.com", "hello")}

	var mu sync.Mutex
	var deleted []int64
	fake := &testutil.FakeGateway{
		AccountsFn: func(context.Context) ([]model.Account, error) {
			return []model.Account{{ID: 1, Email: "me@example.com"}}, nil
		},
		DraftsFn: func(_ context.Context, accountID int64) ([]model.Draft, error) {
			return drafts, nil
		},
		DeleteDraftFn: func(_ context.Context, id int64) error {
			mu.Lock()
			deleted = append(deleted, id)
			mu.Unlock()
			return nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{})
	if err := st.Bootstrap(t.Context()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	st.SetQuery(mailstore.Query{View: model.ViewDrafts})
	snap := waitSettled(t, st, 1)

	key := snap.Rows[0].Key()
	if key.Kind != model.RowKindDraft {
		t.Fatalf("draft row has kind %q", key.Kind)
	}
	st.MoveToTrash(key)

	testutil.WaitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(deleted) == 1
	}, "draft never deleted")

	mu.Lock()
	defer mu.Unlock()
	if deleted[0] != -7 {
		t.Fatalf("deleted wrong draft id %d", deleted[0])
	}
	if fake.CallCount("move_to_trash") != 0 {
		t.Fatal("draft rows must not be sent to the server-side trash command")
	}
}

func TestRangeSelectTogglesSpanByTargetState(t *testing.T) {
	rows := testutil.Emails(6, listBase)
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			return testutil.Page(rows, q.Cursor, q.Limit), nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})
	waitSettled(t, st, 6)

	// Rows in list order carry ids 6..1. Anchor at 6, extend to 3.
	st.ToggleSelect(msgKey(6))
	st.RangeSelect(msgKey(3))

	snap := st.Snapshot()
	for _, id := range []int64{6, 5, 4, 3} {
		if !snap.Selection[msgKey(id)] {
			t.Fatalf("id %d missing from range selection", id)
		}
	}
	if len(snap.Selection) != 4 {
		t.Fatalf("selection size %d, want 4", len(snap.Selection))
	}

	// Same target again: the span toggles back off.
	st.RangeSelect(msgKey(3))
	snap = st.Snapshot()
	if len(snap.Selection) != 0 {
		t.Fatalf("repeated range select left %d selected", len(snap.Selection))
	}
}

func TestRangeSelectFallsBackToNearestSelected(t *testing.T) {
	rows := testutil.Emails(8, listBase)
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			return testutil.Page(rows, q.Cursor, q.Limit), nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})
	waitSettled(t, st, 8)

	// Fragmented selection: ids 8 (index 0) and 4 (index 4). Focus ends on
	// a deselected row, so the anchor must fall back to the selected row
	// nearest the target.
	st.ToggleSelect(msgKey(8))
	st.ToggleSelect(msgKey(4))
	st.ToggleSelect(msgKey(4)) // focused row no longer selected

	st.RangeSelect(msgKey(6))

	snap := st.Snapshot()
	for _, id := range []int64{8, 7, 6} {
		if !snap.Selection[msgKey(id)] {
			t.Fatalf("id %d missing, nearest-anchor span should cover 8..6", id)
		}
	}
	if len(snap.Selection) != 3 {
		t.Fatalf("selection size %d, want 3", len(snap.Selection))
	}
}

func TestSelectAllPromotesPartialSelection(t *testing.T) {
	rows := testutil.Emails(4, listBase)
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			return testutil.Page(rows, q.Cursor, q.Limit), nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})
	waitSettled(t, st, 4)

	st.ToggleSelect(msgKey(2))
	st.SelectAll()
	if n := len(st.Snapshot().Selection); n != 4 {
		t.Fatalf("partial selection promoted to %d, want 4", n)
	}

	st.SelectAll()
	if n := len(st.Snapshot().Selection); n != 0 {
		t.Fatalf("full selection cleared to %d, want 0", n)
	}
}

func TestReconcileCoalescesEventBursts(t *testing.T) {
	rows := testutil.Emails(3, listBase)
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			return testutil.Page(rows, q.Cursor, q.Limit), nil
		},
	}
	hub := gateway.NewHub()

	st := newStore(t, fake, hub, mailstore.Options{
		ReconcileDebounce: 30 * time.Millisecond,
	})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})
	waitSettled(t, st, 3)

	for i := 0; i < 5; i++ {
		hub.Publish(gateway.Event{Name: gateway.EventEmailsUpdated})
		time.Sleep(5 * time.Millisecond)
	}

	testutil.WaitFor(t, time.Second, func() bool {
		return fake.CallCount("get_emails") >= 2
	}, "reconcile pass never ran")
	time.Sleep(60 * time.Millisecond)

	if n := fake.CallCount("get_emails"); n != 2 {
		t.Fatalf("burst of 5 events caused %d list fetches, want exactly 2 (initial + one reconcile)", n)
	}
	if n := fake.CallCount("get_unified_counts"); n != 1 {
		t.Fatalf("burst of 5 events refreshed counts %d times, want 1", n)
	}
}

func TestResetDropsPendingReconcile(t *testing.T) {
	rows := testutil.Emails(3, listBase)
	fake := &testutil.FakeGateway{
		EmailsFn: func(_ context.Context, q gateway.EmailQuery) ([]model.Email, error) {
			return testutil.Page(rows, q.Cursor, q.Limit), nil
		},
	}
	hub := gateway.NewHub()

	st := newStore(t, fake, hub, mailstore.Options{
		ReconcileDebounce: 30 * time.Millisecond,
	})
	st.SetQuery(mailstore.Query{View: model.ViewPrimary})
	waitSettled(t, st, 3)

	hub.Publish(gateway.Event{Name: gateway.EventEmailsUpdated})
	st.Reset()
	time.Sleep(80 * time.Millisecond)

	if n := fake.CallCount("get_emails"); n != 1 {
		t.Fatalf("reconcile armed before the reset still ran, %d list fetches", n)
	}
	if n := fake.CallCount("get_unified_counts"); n != 0 {
		t.Fatalf("reconcile armed before the reset refreshed counts %d times", n)
	}
}

func TestDraftSnippetCutsOnRuneBoundary(t *testing.T) {
	body := "<p>" + strings.Repeat("é", 200) + "</p>"
	fake := &testutil.FakeGateway{
		AccountsFn: func(context.Context) ([]model.Account, error) {
			return []model.Account{{ID: 1, Email: "me@example.com"}}, nil
		},
		DraftsFn: func(_ context.Context, accountID int64) ([]model.Draft, error) {
			return []model.Draft{draftRecord(-3, "bob@example.com", body)}, nil
		},
	}

	st := newStore(t, fake, nil, mailstore.Options{})
	if err := st.Bootstrap(t.Context()); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	st.SetQuery(mailstore.Query{View: model.ViewDrafts})
	snap := waitSettled(t, st, 1)

	if snap.Rows[0].Snippet == nil {
		t.Fatal("draft row has no snippet")
	}
	got := *snap.Rows[0].Snippet
	if !utf8.ValidString(got) {
		t.Fatalf("snippet split a codepoint: %q", got)
	}
	if n := utf8.RuneCountInString(got); n != 120 {
		t.Fatalf("snippet has %d runes, want 120", n)
	}
}

func draftRecord(id int64, to, body string) model.Draft {
	subject := "WIP"
	return model.Draft{
		ID:        id,
		AccountID: 1,
		To:        &to,
		Subject:   &subject,
		BodyHTML:  &body,
		UpdatedAt: listBase.Format(time.RFC3339),
	}
}
