package gateway

import (
	"context"

	"github.com/ShashiSrinath/dueam/internal/model"
)

// Invoker executes one named backend command. Conn implements it; tests
// substitute scripted fakes.
type Invoker interface {
	Invoke(ctx context.Context, method string, params any, result any) error
}

// Client is the typed Gateway implementation over a command invoker.
type Client struct {
	inv Invoker
}

// NewClient wraps an invoker in the typed command surface.
func NewClient(inv Invoker) *Client {
	return &Client{inv: inv}
}

func (c *Client) GetAccounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := c.inv.Invoke(ctx, "get_accounts", nil, &accounts)
	return accounts, err
}

func (c *Client) GetFolders(ctx context.Context, accountID int64) ([]model.Folder, error) {
	var folders []model.Folder
	err := c.inv.Invoke(ctx, "get_folders", map[string]any{"account_id": accountID}, &folders)
	return folders, err
}

func (c *Client) GetUnifiedCounts(ctx context.Context) (model.UnifiedCounts, error) {
	var counts model.UnifiedCounts
	err := c.inv.Invoke(ctx, "get_unified_counts", nil, &counts)
	return counts, err
}

func (c *Client) GetEmails(ctx context.Context, q EmailQuery) ([]model.Email, error) {
	var emails []model.Email
	err := c.inv.Invoke(ctx, "get_emails", q, &emails)
	return emails, err
}

func (c *Client) SearchEmails(ctx context.Context, q SearchQuery) ([]model.Email, error) {
	var emails []model.Email
	err := c.inv.Invoke(ctx, "search_emails", q, &emails)
	return emails, err
}

func (c *Client) GetDrafts(ctx context.Context, accountID int64) ([]model.Draft, error) {
	var drafts []model.Draft
	err := c.inv.Invoke(ctx, "get_drafts", map[string]any{"account_id": accountID}, &drafts)
	return drafts, err
}

func (c *Client) GetEmailByID(ctx context.Context, id int64) (*model.Email, error) {
	var email model.Email
	if err := c.inv.Invoke(ctx, "get_email_by_id", map[string]any{"email_id": id}, &email); err != nil {
		return nil, err
	}
	return &email, nil
}

func (c *Client) GetThreadEmails(ctx context.Context, emailID int64, limit, offset int) ([]model.Email, error) {
	var emails []model.Email
	err := c.inv.Invoke(ctx, "get_thread_emails", map[string]any{
		"email_id": emailID,
		"limit":    limit,
		"offset":   offset,
	}, &emails)
	return emails, err
}

func (c *Client) GetEmailContent(ctx context.Context, id int64) (*model.EmailContent, error) {
	var content model.EmailContent
	if err := c.inv.Invoke(ctx, "get_email_content", map[string]any{"email_id": id}, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

func (c *Client) GetAttachments(ctx context.Context, emailID int64) ([]model.Attachment, error) {
	var attachments []model.Attachment
	err := c.inv.Invoke(ctx, "get_attachments", map[string]any{"email_id": emailID}, &attachments)
	return attachments, err
}

func (c *Client) GetAttachmentData(ctx context.Context, attachmentID int64) ([]byte, error) {
	var data []byte
	err := c.inv.Invoke(ctx, "get_attachment_data", map[string]any{"attachment_id": attachmentID}, &data)
	return data, err
}

func (c *Client) MarkAsRead(ctx context.Context, ids []int64) error {
	return c.inv.Invoke(ctx, "mark_as_read", map[string]any{"email_ids": ids}, nil)
}

func (c *Client) MoveToTrash(ctx context.Context, ids []int64) error {
	return c.inv.Invoke(ctx, "move_to_trash", map[string]any{"email_ids": ids}, nil)
}

func (c *Client) ArchiveEmails(ctx context.Context, ids []int64) error {
	return c.inv.Invoke(ctx, "archive_emails", map[string]any{"email_ids": ids}, nil)
}

func (c *Client) MoveToInbox(ctx context.Context, ids []int64) error {
	return c.inv.Invoke(ctx, "move_to_inbox", map[string]any{"email_ids": ids}, nil)
}

func (c *Client) SaveDraft(ctx context.Context, p model.DraftPayload) (int64, error) {
	var id int64
	err := c.inv.Invoke(ctx, "save_draft", p, &id)
	return id, err
}

func (c *Client) DeleteDraft(ctx context.Context, id int64) error {
	return c.inv.Invoke(ctx, "delete_draft", map[string]any{"id": id}, nil)
}

func (c *Client) SendEmail(ctx context.Context, e model.OutgoingEmail) error {
	return c.inv.Invoke(ctx, "send_email", e, nil)
}

func (c *Client) GetSenderInfo(ctx context.Context, address string) (*model.Sender, error) {
	var sender *model.Sender
	err := c.inv.Invoke(ctx, "get_sender_info", map[string]any{"address": address}, &sender)
	return sender, err
}

func (c *Client) RegenerateSenderInfo(ctx context.Context, address string, manual bool) (*model.Sender, error) {
	var sender *model.Sender
	err := c.inv.Invoke(ctx, "regenerate_sender_info", map[string]any{
		"address": address,
		"manual":  manual,
	}, &sender)
	return sender, err
}

func (c *Client) UpdateSenderInfo(ctx context.Context, s model.Sender) error {
	return c.inv.Invoke(ctx, "update_sender_info", s, nil)
}

func (c *Client) GetDomainInfo(ctx context.Context, domain string) (*model.Domain, error) {
	var d *model.Domain
	err := c.inv.Invoke(ctx, "get_domain_info", map[string]any{"domain": domain}, &d)
	return d, err
}

func (c *Client) GetSettings(ctx context.Context) (map[string]string, error) {
	var settings map[string]string
	err := c.inv.Invoke(ctx, "get_settings", nil, &settings)
	return settings, err
}

func (c *Client) UpdateSetting(ctx context.Context, key, value string) error {
	return c.inv.Invoke(ctx, "update_setting", map[string]any{"key": key, "value": value}, nil)
}
