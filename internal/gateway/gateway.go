package gateway

import (
	"context"
	"encoding/json"

	"github.com/ShashiSrinath/dueam/internal/model"
)

// EmailQuery selects a page of list rows from the backend.
type EmailQuery struct {
	AccountID *int64        `json:"account_id,omitempty"`
	View      model.View    `json:"view"`
	Filter    model.Filter  `json:"filter,omitempty"`
	Limit     int           `json:"limit"`
	Cursor    *model.Cursor `json:"cursor,omitempty"`
}

// SearchQuery selects a page of full-text search results. Cursor semantics
// are identical to EmailQuery.
type SearchQuery struct {
	Query     string        `json:"query"`
	AccountID *int64        `json:"account_id,omitempty"`
	View      model.View    `json:"view,omitempty"`
	Limit     int           `json:"limit"`
	Cursor    *model.Cursor `json:"cursor,omitempty"`
}

// Gateway is the typed command surface of the native backend. Every call is
// asynchronous and one-shot; any call may fail with an opaque error. There
// is no cancellation on the wire; a context that expires abandons the call
// and its eventual response is discarded.
type Gateway interface {
	GetAccounts(ctx context.Context) ([]model.Account, error)
	GetFolders(ctx context.Context, accountID int64) ([]model.Folder, error)
	GetUnifiedCounts(ctx context.Context) (model.UnifiedCounts, error)

	GetEmails(ctx context.Context, q EmailQuery) ([]model.Email, error)
	SearchEmails(ctx context.Context, q SearchQuery) ([]model.Email, error)
	GetDrafts(ctx context.Context, accountID int64) ([]model.Draft, error)
	GetEmailByID(ctx context.Context, id int64) (*model.Email, error)
	GetThreadEmails(ctx context.Context, emailID int64, limit, offset int) ([]model.Email, error)
	GetEmailContent(ctx context.Context, id int64) (*model.EmailContent, error)
	GetAttachments(ctx context.Context, emailID int64) ([]model.Attachment, error)
	GetAttachmentData(ctx context.Context, attachmentID int64) ([]byte, error)

	MarkAsRead(ctx context.Context, ids []int64) error
	MoveToTrash(ctx context.Context, ids []int64) error
	ArchiveEmails(ctx context.Context, ids []int64) error
	MoveToInbox(ctx context.Context, ids []int64) error

	SaveDraft(ctx context.Context, p model.DraftPayload) (int64, error)
	DeleteDraft(ctx context.Context, id int64) error
	SendEmail(ctx context.Context, e model.OutgoingEmail) error

	GetSenderInfo(ctx context.Context, address string) (*model.Sender, error)
	RegenerateSenderInfo(ctx context.Context, address string, manual bool) (*model.Sender, error)
	UpdateSenderInfo(ctx context.Context, s model.Sender) error
	GetDomainInfo(ctx context.Context, domain string) (*model.Domain, error)

	GetSettings(ctx context.Context) (map[string]string, error)
	UpdateSetting(ctx context.Context, key, value string) error
}

// Event names pushed by the backend.
const (
	// EventEmailsUpdated signals that mailbox contents changed in some
	// way. Its payload varies by origin and is ignored; receipt always
	// triggers a full debounced reconciliation.
	EventEmailsUpdated = "emails-updated"

	// EventSenderUpdated signals that a single sender profile changed.
	// Payload: the sender's address as a JSON string.
	EventSenderUpdated = "sender-updated"
)

// Event is one push notification from the backend.
type Event struct {
	Name    string
	Payload json.RawMessage
}

// SenderAddress extracts the address from a sender-updated payload.
// Returns "" when the payload does not carry one.
func (e Event) SenderAddress() string {
	var addr string
	if err := json.Unmarshal(e.Payload, &addr); err != nil {
		return ""
	}
	return addr
}

// EventSource delivers backend push notifications to any number of
// independent subscribers.
type EventSource interface {
	// Subscribe registers a handler for every subsequent event and
	// returns a cancel function. Handlers must not block.
	Subscribe(fn func(Event)) (cancel func())
}
