package model

// AccountKind identifies the provider behind a mailbox credential set.
type AccountKind string

const (
	AccountKindGoogle    AccountKind = "google"
	AccountKindMicrosoft AccountKind = "microsoft"
	AccountKindImapSmtp  AccountKind = "imap_smtp"
)

// ServerConfig holds explicit connection parameters for generic IMAP/SMTP
// accounts. Provider-backed accounts leave it nil.
type ServerConfig struct {
	ImapHost       string `json:"imap_host"`
	ImapPort       int    `json:"imap_port"`
	ImapEncryption string `json:"imap_encryption"`
	SmtpHost       string `json:"smtp_host"`
	SmtpPort       int    `json:"smtp_port"`
	SmtpEncryption string `json:"smtp_encryption"`
}

// Account identifies one remote mailbox credential set. Accounts are created
// by the backend's onboarding flow and are read-only in this layer; ID is 0
// until the backend has persisted the account.
type Account struct {
	ID        int64         `json:"id"`
	Kind      AccountKind   `json:"kind"`
	Email     string        `json:"email"`
	Name      *string       `json:"name,omitempty"`
	AvatarURL *string       `json:"avatar_url,omitempty"`
	Server    *ServerConfig `json:"server,omitempty"`
}

// Folder role constants, matching the backend's closed set.
const (
	RoleInbox   = "inbox"
	RoleSent    = "sent"
	RoleSpam    = "spam"
	RoleDrafts  = "drafts"
	RoleTrash   = "trash"
	RoleArchive = "archive"
)

// Folder is a named mail container scoped to one account.
type Folder struct {
	ID          int64  `json:"id"`
	AccountID   int64  `json:"account_id"`
	Name        string `json:"name"`
	Path        string `json:"path"`
	Role        string `json:"role"`
	UnreadCount int    `json:"unread_count"`
	TotalCount  int    `json:"total_count"`
}

// UnifiedCounts aggregates unread/item counts per logical view across all
// accounts. Recomputed by the backend after any mutation that can change
// mailbox membership.
type UnifiedCounts struct {
	Primary int `json:"primary"`
	Sent    int `json:"sent"`
	Spam    int `json:"spam"`
	Drafts  int `json:"drafts"`
	Others  int `json:"others"`
}
