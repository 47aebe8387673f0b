package model

// View identifies a logical mailbox view aggregated across accounts.
type View string

const (
	ViewPrimary View = "primary"
	ViewSent    View = "sent"
	ViewSpam    View = "spam"
	ViewDrafts  View = "drafts"
	ViewTrash   View = "trash"
	ViewArchive View = "archive"
	ViewOthers  View = "others"
)

// Filter narrows a view to a flag-based subset.
type Filter string

const (
	FilterNone    Filter = ""
	FilterUnread  Filter = "unread"
	FilterFlagged Filter = "flagged"
)

// RowKind distinguishes real messages from locally synthesized draft rows.
// Draft rows reuse the drafts table's id space, so a bare id is ambiguous;
// every place that identifies a list row uses the composite RowKey instead.
type RowKind string

const (
	RowKindMessage RowKind = "message"
	RowKindDraft   RowKind = "draft"
)

// RowKey is the composite identity of a list row.
type RowKey struct {
	Kind RowKind `json:"kind"`
	ID   int64   `json:"id"`
}

// DraftFolderID is the sentinel folder id carried by synthesized draft rows.
const DraftFolderID int64 = -1

// Email is the lightweight list-row projection of a message.
//
// Date is an RFC 3339 timestamp kept as a string: the backend stores and
// orders it as text, and the (Date desc, ID desc) pair doubles as the
// pagination cursor, so lexicographic comparison must match backend order.
type Email struct {
	ID            int64   `json:"id"`
	AccountID     int64   `json:"account_id"`
	FolderID      int64   `json:"folder_id"`
	RemoteID      string  `json:"remote_id"`
	MessageID     *string `json:"message_id,omitempty"`
	ThreadID      *string `json:"thread_id,omitempty"`
	ThreadCount   *int64  `json:"thread_count,omitempty"`
	Subject       *string `json:"subject,omitempty"`
	SenderName    *string `json:"sender_name,omitempty"`
	SenderAddress string  `json:"sender_address"`
	RecipientTo   *string `json:"recipient_to,omitempty"`
	Date          string  `json:"date"`
	Flags         string  `json:"flags"`
	Snippet       *string `json:"snippet,omitempty"`
	Summary       *string `json:"summary,omitempty"`
	HasAttachment bool    `json:"has_attachments"`
	IsReply       bool    `json:"is_reply"`
	IsForward     bool    `json:"is_forward"`
}

// Key returns the composite row identity. Rows with the draft sentinel
// folder id are draft rows regardless of sign convention.
func (e *Email) Key() RowKey {
	if e.FolderID == DraftFolderID {
		return RowKey{Kind: RowKindDraft, ID: e.ID}
	}
	return RowKey{Kind: RowKindMessage, ID: e.ID}
}

// Seen reports whether the row carries the "seen" flag.
func (e *Email) Seen() bool {
	return DecodeFlags(e.Flags).Has(FlagSeen)
}

// Cursor is an exclusive keyset-pagination position: fetch rows strictly
// after this (Date desc, ID desc) pair.
type Cursor struct {
	Date string `json:"date"`
	ID   int64  `json:"id"`
}

// CursorAfter returns the cursor positioned at e, for fetching the page
// that follows it.
func CursorAfter(e *Email) Cursor {
	return Cursor{Date: e.Date, ID: e.ID}
}

// Less reports whether a sorts strictly after b in list order, i.e. a is
// strictly less by the (Date desc, ID desc) ordering.
func Less(a, b *Email) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	return a.ID < b.ID
}

// EmailContent holds the full message body fetched on demand.
type EmailContent struct {
	BodyText *string `json:"body_text,omitempty"`
	BodyHTML *string `json:"body_html,omitempty"`
}

// Attachment describes one attachment of a message or draft.
type Attachment struct {
	ID       int64   `json:"id"`
	EmailID  *int64  `json:"email_id,omitempty"`
	DraftID  *int64  `json:"draft_id,omitempty"`
	Filename *string `json:"filename,omitempty"`
	MimeType *string `json:"mime_type,omitempty"`
	Size     int64   `json:"size"`
}
