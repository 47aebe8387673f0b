package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/model"
)

// FakeGateway is a scripted gateway double. Each command has an optional
// function hook; unhooked commands succeed with zero values. Every call is
// recorded, and RecordedCalls exposes the method names in call order.
type FakeGateway struct {
	mu    sync.Mutex
	calls []string

	AccountsFn      func(ctx context.Context) ([]model.Account, error)
	FoldersFn       func(ctx context.Context, accountID int64) ([]model.Folder, error)
	CountsFn        func(ctx context.Context) (model.UnifiedCounts, error)
	EmailsFn        func(ctx context.Context, q gateway.EmailQuery) ([]model.Email, error)
	SearchFn        func(ctx context.Context, q gateway.SearchQuery) ([]model.Email, error)
	DraftsFn        func(ctx context.Context, accountID int64) ([]model.Draft, error)
	EmailByIDFn     func(ctx context.Context, id int64) (*model.Email, error)
	ThreadFn        func(ctx context.Context, emailID int64, limit, offset int) ([]model.Email, error)
	ContentFn       func(ctx context.Context, id int64) (*model.EmailContent, error)
	AttachmentsFn   func(ctx context.Context, emailID int64) ([]model.Attachment, error)
	AttachmentFn    func(ctx context.Context, attachmentID int64) ([]byte, error)
	MarkAsReadFn    func(ctx context.Context, ids []int64) error
	MoveToTrashFn   func(ctx context.Context, ids []int64) error
	ArchiveFn       func(ctx context.Context, ids []int64) error
	MoveToInboxFn   func(ctx context.Context, ids []int64) error
	SaveDraftFn     func(ctx context.Context, p model.DraftPayload) (int64, error)
	DeleteDraftFn   func(ctx context.Context, id int64) error
	SendEmailFn     func(ctx context.Context, e model.OutgoingEmail) error
	SenderInfoFn    func(ctx context.Context, address string) (*model.Sender, error)
	RegenerateFn    func(ctx context.Context, address string, manual bool) (*model.Sender, error)
	UpdateSenderFn  func(ctx context.Context, s model.Sender) error
	DomainInfoFn    func(ctx context.Context, domain string) (*model.Domain, error)
	GetSettingsFn   func(ctx context.Context) (map[string]string, error)
	UpdateSettingFn func(ctx context.Context, key, value string) error
}

var _ gateway.Gateway = (*FakeGateway)(nil)

func (f *FakeGateway) record(method string) {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()
}

// RecordedCalls returns every method name invoked so far, in order.
func (f *FakeGateway) RecordedCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many times method was invoked.
func (f *FakeGateway) CallCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == method {
			n++
		}
	}
	return n
}

func (f *FakeGateway) GetAccounts(ctx context.Context) ([]model.Account, error) {
	f.record("get_accounts")
	if f.AccountsFn != nil {
		return f.AccountsFn(ctx)
	}
	return nil, nil
}

func (f *FakeGateway) GetFolders(ctx context.Context, accountID int64) ([]model.Folder, error) {
	f.record("get_folders")
	if f.FoldersFn != nil {
		return f.FoldersFn(ctx, accountID)
	}
	return nil, nil
}

func (f *FakeGateway) GetUnifiedCounts(ctx context.Context) (model.UnifiedCounts, error) {
	f.record("get_unified_counts")
	if f.CountsFn != nil {
		return f.CountsFn(ctx)
	}
	return model.UnifiedCounts{}, nil
}

func (f *FakeGateway) GetEmails(ctx context.Context, q gateway.EmailQuery) ([]model.Email, error) {
	f.record("get_emails")
	if f.EmailsFn != nil {
		return f.EmailsFn(ctx, q)
	}
	return nil, nil
}

func (f *FakeGateway) SearchEmails(ctx context.Context, q gateway.SearchQuery) ([]model.Email, error) {
	f.record("search_emails")
	if f.SearchFn != nil {
		return f.SearchFn(ctx, q)
	}
	return nil, nil
}

func (f *FakeGateway) GetDrafts(ctx context.Context, accountID int64) ([]model.Draft, error) {
	f.record("get_drafts")
	if f.DraftsFn != nil {
		return f.DraftsFn(ctx, accountID)
	}
	return nil, nil
}

func (f *FakeGateway) GetEmailByID(ctx context.Context, id int64) (*model.Email, error) {
	f.record("get_email_by_id")
	if f.EmailByIDFn != nil {
		return f.EmailByIDFn(ctx, id)
	}
	return nil, nil
}

func (f *FakeGateway) GetThreadEmails(ctx context.Context, emailID int64, limit, offset int) ([]model.Email, error) {
	f.record("get_thread_emails")
	if f.ThreadFn != nil {
		return f.ThreadFn(ctx, emailID, limit, offset)
	}
	return nil, nil
}

func (f *FakeGateway) GetEmailContent(ctx context.Context, id int64) (*model.EmailContent, error) {
	f.record("get_email_content")
	if f.ContentFn != nil {
		return f.ContentFn(ctx, id)
	}
	return nil, nil
}

func (f *FakeGateway) GetAttachments(ctx context.Context, emailID int64) ([]model.Attachment, error) {
	f.record("get_attachments")
	if f.AttachmentsFn != nil {
		return f.AttachmentsFn(ctx, emailID)
	}
	return nil, nil
}

func (f *FakeGateway) GetAttachmentData(ctx context.Context, attachmentID int64) ([]byte, error) {
	f.record("get_attachment_data")
	if f.AttachmentFn != nil {
		return f.AttachmentFn(ctx, attachmentID)
	}
	return nil, nil
}

func (f *FakeGateway) MarkAsRead(ctx context.Context, ids []int64) error {
	f.record("mark_as_read")
	if f.MarkAsReadFn != nil {
		return f.MarkAsReadFn(ctx, ids)
	}
	return nil
}

func (f *FakeGateway) MoveToTrash(ctx context.Context, ids []int64) error {
	f.record("move_to_trash")
	if f.MoveToTrashFn != nil {
		return f.MoveToTrashFn(ctx, ids)
	}
	return nil
}

func (f *FakeGateway) ArchiveEmails(ctx context.Context, ids []int64) error {
	f.record("archive_emails")
	if f.ArchiveFn != nil {
		return f.ArchiveFn(ctx, ids)
	}
	return nil
}

func (f *FakeGateway) MoveToInbox(ctx context.Context, ids []int64) error {
	f.record("move_to_inbox")
	if f.MoveToInboxFn != nil {
		return f.MoveToInboxFn(ctx, ids)
	}
	return nil
}

func (f *FakeGateway) SaveDraft(ctx context.Context, p model.DraftPayload) (int64, error) {
	f.record("save_draft")
	if f.SaveDraftFn != nil {
		return f.SaveDraftFn(ctx, p)
	}
	return 0, nil
}

func (f *FakeGateway) DeleteDraft(ctx context.Context, id int64) error {
	f.record("delete_draft")
	if f.DeleteDraftFn != nil {
		return f.DeleteDraftFn(ctx, id)
	}
	return nil
}

func (f *FakeGateway) SendEmail(ctx context.Context, e model.OutgoingEmail) error {
	f.record("send_email")
	if f.SendEmailFn != nil {
		return f.SendEmailFn(ctx, e)
	}
	return nil
}

func (f *FakeGateway) GetSenderInfo(ctx context.Context, address string) (*model.Sender, error) {
	f.record("get_sender_info")
	if f.SenderInfoFn != nil {
		return f.SenderInfoFn(ctx, address)
	}
	return nil, nil
}

func (f *FakeGateway) RegenerateSenderInfo(ctx context.Context, address string, manual bool) (*model.Sender, error) {
	f.record("regenerate_sender_info")
	if f.RegenerateFn != nil {
		return f.RegenerateFn(ctx, address, manual)
	}
	return nil, nil
}

func (f *FakeGateway) UpdateSenderInfo(ctx context.Context, s model.Sender) error {
	f.record("update_sender_info")
	if f.UpdateSenderFn != nil {
		return f.UpdateSenderFn(ctx, s)
	}
	return nil
}

func (f *FakeGateway) GetDomainInfo(ctx context.Context, domain string) (*model.Domain, error) {
	f.record("get_domain_info")
	if f.DomainInfoFn != nil {
		return f.DomainInfoFn(ctx, domain)
	}
	return nil, nil
}

func (f *FakeGateway) GetSettings(ctx context.Context) (map[string]string, error) {
	f.record("get_settings")
	if f.GetSettingsFn != nil {
		return f.GetSettingsFn(ctx)
	}
	return map[string]string{}, nil
}

func (f *FakeGateway) UpdateSetting(ctx context.Context, key, value string) error {
	f.record("update_setting")
	if f.UpdateSettingFn != nil {
		return f.UpdateSettingFn(ctx, key, value)
	}
	return nil
}

// Emails builds n list rows with descending dates so row 0 is newest.
// IDs count down from n to 1 and dates step back one minute per row
// starting at base.
func Emails(n int, base time.Time) []model.Email {
	rows := make([]model.Email, n)
	for i := 0; i < n; i++ {
		subject := fmt.Sprintf("Message %d", n-i)
		snippet := fmt.Sprintf("snippet %d", n-i)
		rows[i] = model.Email{
			ID:            int64(n - i),
			AccountID:     1,
			FolderID:      10,
			RemoteID:      fmt.Sprintf("r-%d", n-i),
			Subject:       &subject,
			SenderAddress: "alice@example.com",
			Date:          base.Add(-time.Duration(i) * time.Minute).UTC().Format(time.RFC3339),
			Flags:         "[]",
			Snippet:       &snippet,
		}
	}
	return rows
}

// Page slices rows the way a keyset-paginated backend would: rows strictly
// after the cursor in (date desc, id desc) order, at most limit of them.
func Page(rows []model.Email, cursor *model.Cursor, limit int) []model.Email {
	var out []model.Email
	for i := range rows {
		if cursor != nil {
			r := &rows[i]
			after := r.Date < cursor.Date || (r.Date == cursor.Date && r.ID < cursor.ID)
			if !after {
				continue
			}
		}
		out = append(out, rows[i])
		if len(out) == limit {
			break
		}
	}
	return out
}

// WaitFor polls cond until it holds or the deadline passes.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("condition not reached within %v: %s", timeout, msg)
}
