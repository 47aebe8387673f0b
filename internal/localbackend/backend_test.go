package localbackend_test

import (
	"sync"
	"testing"

	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/model"
	"github.com/ShashiSrinath/dueam/tests/testutil"
)

func TestSeededListPaginatesWithoutOverlap(t *testing.T) {
	b := testutil.NewTestBackend(t)
	ctx := t.Context()
	if err := b.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	page1, err := b.GetEmails(ctx, gateway.EmailQuery{View: model.ViewPrimary, Limit: 20})
	if err != nil {
		t.Fatalf("first page: %v", err)
	}
	if len(page1) != 20 {
		t.Fatalf("first page has %d rows", len(page1))
	}
	for i := 1; i < len(page1); i++ {
		if !model.Less(&page1[i], &page1[i-1]) {
			t.Fatalf("rows %d and %d out of order", i-1, i)
		}
	}

	cursor := model.CursorAfter(&page1[len(page1)-1])
	page2, err := b.GetEmails(ctx, gateway.EmailQuery{
		View: model.ViewPrimary, Limit: 20, Cursor: &cursor,
	})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}

	seen := make(map[int64]bool)
	for _, e := range page1 {
		seen[e.ID] = true
	}
	for _, e := range page2 {
		if seen[e.ID] {
			t.Fatalf("email %d appears on both pages", e.ID)
		}
	}
}

func TestUnreadFilter(t *testing.T) {
	b := testutil.NewTestBackend(t)
	ctx := t.Context()
	if err := b.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	unread, err := b.GetEmails(ctx, gateway.EmailQuery{
		View: model.ViewPrimary, Filter: model.FilterUnread, Limit: 100,
	})
	if err != nil {
		t.Fatalf("unread query: %v", err)
	}
	if len(unread) == 0 {
		t.Fatal("seed data should contain unread mail")
	}
	for _, e := range unread {
		if e.Seen() {
			t.Fatalf("email %d is seen but passed the unread filter", e.ID)
		}
	}
}

func TestMarkAsReadEmitsAndUpdatesCounts(t *testing.T) {
	b := testutil.NewTestBackend(t)
	ctx := t.Context()
	if err := b.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	var mu sync.Mutex
	var events []string
	cancel := b.Subscribe(func(ev gateway.Event) {
		mu.Lock()
		events = append(events, ev.Name)
		mu.Unlock()
	})
	defer cancel()

	before, err := b.GetUnifiedCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}

	unread, err := b.GetEmails(ctx, gateway.EmailQuery{
		View: model.ViewPrimary, Filter: model.FilterUnread, Limit: 2,
	})
	if err != nil || len(unread) < 2 {
		t.Fatalf("unread page: %v (%d rows)", err, len(unread))
	}
	if err := b.MarkAsRead(ctx, []int64{unread[0].ID, unread[1].ID}); err != nil {
		t.Fatalf("mark as read: %v", err)
	}

	after, err := b.GetUnifiedCounts(ctx)
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if after.Primary != before.Primary-2 {
		t.Fatalf("primary unread went %d -> %d, want -2", before.Primary, after.Primary)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 || events[0] != gateway.EventEmailsUpdated {
		t.Fatalf("events after mark-as-read: %v", events)
	}

	// Re-marking already seen mail changes nothing and stays silent.
	if err := b.MarkAsRead(ctx, []int64{unread[0].ID}); err != nil {
		t.Fatalf("idempotent mark: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("no-op mark emitted an event: %v", events)
	}
}

func TestMoveToTrashAndBack(t *testing.T) {
	b := testutil.NewTestBackend(t)
	ctx := t.Context()
	if err := b.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	page, err := b.GetEmails(ctx, gateway.EmailQuery{View: model.ViewPrimary, Limit: 1})
	if err != nil || len(page) != 1 {
		t.Fatalf("page: %v", err)
	}
	id := page[0].ID

	if err := b.MoveToTrash(ctx, []int64{id}); err != nil {
		t.Fatalf("trash: %v", err)
	}
	trash, err := b.GetEmails(ctx, gateway.EmailQuery{View: model.ViewTrash, Limit: 10})
	if err != nil {
		t.Fatalf("trash page: %v", err)
	}
	if len(trash) != 1 || trash[0].ID != id {
		t.Fatalf("trash contents: %+v", trash)
	}

	if err := b.MoveToInbox(ctx, []int64{id}); err != nil {
		t.Fatalf("restore: %v", err)
	}
	trash, err = b.GetEmails(ctx, gateway.EmailQuery{View: model.ViewTrash, Limit: 10})
	if err != nil {
		t.Fatalf("trash page: %v", err)
	}
	if len(trash) != 0 {
		t.Fatalf("trash still holds %d rows after restore", len(trash))
	}
}

func TestDraftLifecycle(t *testing.T) {
	b := testutil.NewTestBackend(t)
	ctx := t.Context()
	if err := b.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	accounts, err := b.GetAccounts(ctx)
	if err != nil || len(accounts) != 1 {
		t.Fatalf("accounts: %v", err)
	}
	accountID := accounts[0].ID

	to := "pal@example.com"
	subject := "lunch?"
	id, err := b.SaveDraft(ctx, model.DraftPayload{
		AccountID: accountID, To: &to, Subject: &subject,
	})
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if id >= 0 {
		t.Fatalf("draft wire id %d must be negative", id)
	}

	subject = "lunch tomorrow?"
	id2, err := b.SaveDraft(ctx, model.DraftPayload{
		ID: &id, AccountID: accountID, To: &to, Subject: &subject,
	})
	if err != nil {
		t.Fatalf("update draft: %v", err)
	}
	if id2 != id {
		t.Fatalf("update changed the draft id: %d -> %d", id, id2)
	}

	drafts, err := b.GetDrafts(ctx, accountID)
	if err != nil || len(drafts) != 1 {
		t.Fatalf("drafts: %v (%d)", err, len(drafts))
	}
	if drafts[0].Subject == nil || *drafts[0].Subject != "lunch tomorrow?" {
		t.Fatalf("draft subject: %+v", drafts[0].Subject)
	}

	if err := b.DeleteDraft(ctx, id); err != nil {
		t.Fatalf("delete draft: %v", err)
	}

	// A late autosave for the deleted draft must fail, not recreate it.
	if _, err := b.SaveDraft(ctx, model.DraftPayload{
		ID: &id, AccountID: accountID, To: &to, Subject: &subject,
	}); err == nil {
		t.Fatal("saving a deleted draft should fail")
	}
	drafts, err = b.GetDrafts(ctx, accountID)
	if err != nil || len(drafts) != 0 {
		t.Fatalf("drafts after delete: %v (%d)", err, len(drafts))
	}
}

func TestSendFilesIntoSent(t *testing.T) {
	b := testutil.NewTestBackend(t)
	ctx := t.Context()
	if err := b.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	accounts, _ := b.GetAccounts(ctx)

	err := b.SendEmail(ctx, model.OutgoingEmail{
		AccountID: accounts[0].ID,
		To:        "pal@example.com",
		Subject:   "hello",
		Body:      "<p>hi there</p>",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	sent, err := b.GetEmails(ctx, gateway.EmailQuery{View: model.ViewSent, Limit: 10})
	if err != nil || len(sent) != 1 {
		t.Fatalf("sent page: %v (%d)", err, len(sent))
	}
	if !sent[0].Seen() {
		t.Fatal("sent mail must carry the seen flag")
	}

	content, err := b.GetEmailContent(ctx, sent[0].ID)
	if err != nil || content.BodyHTML == nil {
		t.Fatalf("sent body: %v", err)
	}
}

func TestSenderEnrichmentRoundTrip(t *testing.T) {
	b := testutil.NewTestBackend(t)
	ctx := t.Context()

	s, err := b.GetSenderInfo(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if s != nil {
		t.Fatalf("unknown sender returned %+v", s)
	}

	var mu sync.Mutex
	var updated []string
	cancel := b.Subscribe(func(ev gateway.Event) {
		if ev.Name == gateway.EventSenderUpdated {
			mu.Lock()
			updated = append(updated, ev.SenderAddress())
			mu.Unlock()
		}
	})
	defer cancel()

	s, err = b.RegenerateSenderInfo(ctx, "Jane.Doe@Example.com", true)
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if s == nil || s.Name == nil || *s.Name != "Jane Doe" {
		t.Fatalf("derived profile: %+v", s)
	}
	if s.LastEnrichedAt == nil {
		t.Fatal("enrichment time not stamped")
	}

	mu.Lock()
	if len(updated) != 1 || updated[0] != "jane.doe@example.com" {
		t.Fatalf("sender-updated events: %v", updated)
	}
	mu.Unlock()

	company := "Acme"
	s.Company = &company
	if err := b.UpdateSenderInfo(ctx, *s); err != nil {
		t.Fatalf("update: %v", err)
	}
	s, err = b.GetSenderInfo(ctx, "jane.doe@example.com")
	if err != nil || s == nil || s.Company == nil || *s.Company != "Acme" {
		t.Fatalf("edited profile: %+v (%v)", s, err)
	}
}

func TestSearchMatchesSubjectAndSender(t *testing.T) {
	b := testutil.NewTestBackend(t)
	ctx := t.Context()
	if err := b.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	hits, err := b.SearchEmails(ctx, gateway.SearchQuery{Query: "grace@navy", Limit: 100})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) == 0 {
		t.Fatal("sender search found nothing")
	}
	for _, e := range hits {
		if e.SenderAddress != "grace@navy.example" {
			t.Fatalf("hit from wrong sender: %s", e.SenderAddress)
		}
	}
}
