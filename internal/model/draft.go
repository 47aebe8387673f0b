package model

// Draft is a locally stored draft record as returned by the backend.
// IDs are negative on the wire to keep them visually distinct from message
// ids; the absolute value addresses the drafts table.
type Draft struct {
	ID          int64        `json:"id"`
	AccountID   int64        `json:"account_id"`
	To          *string      `json:"to_address,omitempty"`
	Cc          *string      `json:"cc_address,omitempty"`
	Bcc         *string      `json:"bcc_address,omitempty"`
	Subject     *string      `json:"subject,omitempty"`
	BodyHTML    *string      `json:"body_html,omitempty"`
	UpdatedAt   string       `json:"updated_at"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// DraftPayload is the value sent to save_draft. A nil ID creates a new
// draft; otherwise the existing draft is updated in place.
type DraftPayload struct {
	ID            *int64  `json:"id,omitempty"`
	AccountID     int64   `json:"account_id"`
	To            *string `json:"to,omitempty"`
	Cc            *string `json:"cc,omitempty"`
	Bcc           *string `json:"bcc,omitempty"`
	Subject       *string `json:"subject,omitempty"`
	BodyHTML      *string `json:"body_html,omitempty"`
	AttachmentIDs []int64 `json:"attachment_ids"`
}

// OutgoingEmail is the value sent to send_email.
type OutgoingEmail struct {
	AccountID     int64   `json:"account_id"`
	To            string  `json:"to"`
	Cc            *string `json:"cc,omitempty"`
	Bcc           *string `json:"bcc,omitempty"`
	Subject       string  `json:"subject"`
	Body          string  `json:"body"`
	AttachmentIDs []int64 `json:"attachment_ids"`
}
