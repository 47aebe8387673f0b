package localbackend

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/model"
)

const emailColumns = `
	e.id, e.account_id, e.folder_id, e.remote_id, e.message_id, e.thread_id,
	e.subject, e.sender_name, e.sender_address, e.recipient_to, e.date,
	e.flags, e.snippet, e.summary, e.has_attachments, e.is_reply, e.is_forward`

// viewRole maps a logical view onto a folder role. The drafts view is not
// here: drafts are listed through get_drafts, not the emails table.
func viewRole(v model.View) (string, bool) {
	switch v {
	case model.ViewPrimary:
		return model.RoleInbox, true
	case model.ViewSent:
		return model.RoleSent, true
	case model.ViewSpam:
		return model.RoleSpam, true
	case model.ViewTrash:
		return model.RoleTrash, true
	case model.ViewArchive:
		return model.RoleArchive, true
	case model.ViewOthers:
		return "", true
	}
	return "", false
}

// GetEmails retrieves one page of list rows for a view, ordered by
// (date desc, id desc) with exclusive keyset pagination.
func (b *Backend) GetEmails(ctx context.Context, q gateway.EmailQuery) ([]model.Email, error) {
	role, ok := viewRole(q.View)
	if !ok {
		return nil, fmt.Errorf("view %q has no folder mapping", q.View)
	}

	conditions := []string{"f.role = ?"}
	args := []interface{}{role}

	if q.AccountID != nil {
		conditions = append(conditions, "e.account_id = ?")
		args = append(args, *q.AccountID)
	}
	switch q.Filter {
	case model.FilterUnread:
		conditions = append(conditions, `e.flags NOT LIKE '%"seen"%'`)
	case model.FilterFlagged:
		conditions = append(conditions, `e.flags LIKE '%"flagged"%'`)
	}
	if q.Cursor != nil {
		conditions = append(conditions, "(e.date < ? OR (e.date = ? AND e.id < ?))")
		args = append(args, q.Cursor.Date, q.Cursor.Date, q.Cursor.ID)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM emails e
		JOIN folders f ON f.id = e.folder_id
		WHERE %s
		ORDER BY e.date DESC, e.id DESC
		LIMIT ?`, emailColumns, strings.Join(conditions, " AND "))
	args = append(args, q.Limit)

	return b.queryEmails(ctx, query, args...)
}

// SearchEmails retrieves one page of rows matching a free-text query over
// subject, snippet, and sender. Cursor semantics match GetEmails.
func (b *Backend) SearchEmails(ctx context.Context, q gateway.SearchQuery) ([]model.Email, error) {
	like := "%" + q.Query + "%"
	conditions := []string{
		"(e.subject LIKE ? OR e.snippet LIKE ? OR e.sender_address LIKE ? OR e.sender_name LIKE ?)",
	}
	args := []interface{}{like, like, like, like}

	if q.View != "" {
		role, ok := viewRole(q.View)
		if ok {
			conditions = append(conditions, "f.role = ?")
			args = append(args, role)
		}
	}
	if q.AccountID != nil {
		conditions = append(conditions, "e.account_id = ?")
		args = append(args, *q.AccountID)
	}
	if q.Cursor != nil {
		conditions = append(conditions, "(e.date < ? OR (e.date = ? AND e.id < ?))")
		args = append(args, q.Cursor.Date, q.Cursor.Date, q.Cursor.ID)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM emails e
		JOIN folders f ON f.id = e.folder_id
		WHERE %s
		ORDER BY e.date DESC, e.id DESC
		LIMIT ?`, emailColumns, strings.Join(conditions, " AND "))
	args = append(args, q.Limit)

	return b.queryEmails(ctx, query, args...)
}

// GetEmailByID retrieves a single list row, nil when it does not exist.
func (b *Backend) GetEmailByID(ctx context.Context, id int64) (*model.Email, error) {
	query := fmt.Sprintf("SELECT %s FROM emails e WHERE e.id = ?", emailColumns)
	rows, err := b.queryEmails(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// GetThreadEmails retrieves the messages sharing a thread with emailID,
// oldest first.
func (b *Backend) GetThreadEmails(ctx context.Context, emailID int64, limit, offset int) ([]model.Email, error) {
	var threadID sql.NullString
	err := b.db.GetContext(ctx,
		&threadID, "SELECT thread_id FROM emails WHERE id = ?", emailID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading thread id for email %d: %w", emailID, err)
	}
	if !threadID.Valid || threadID.String == "" {
		return b.queryEmails(ctx,
			fmt.Sprintf("SELECT %s FROM emails e WHERE e.id = ?", emailColumns), emailID)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM emails e
		WHERE e.thread_id = ?
		ORDER BY e.date ASC, e.id ASC
		LIMIT ? OFFSET ?`, emailColumns)
	return b.queryEmails(ctx, query, threadID.String, limit, offset)
}

// GetEmailContent retrieves the stored body of one message.
func (b *Backend) GetEmailContent(ctx context.Context, id int64) (*model.EmailContent, error) {
	var content model.EmailContent
	err := b.db.QueryRowxContext(ctx,
		"SELECT body_text, body_html FROM email_bodies WHERE email_id = ?", id,
	).Scan(&content.BodyText, &content.BodyHTML)
	if errors.Is(err, sql.ErrNoRows) {
		return &model.EmailContent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading body of email %d: %w", id, err)
	}
	return &content, nil
}

// GetAttachments retrieves attachment metadata for one message.
func (b *Backend) GetAttachments(ctx context.Context, emailID int64) ([]model.Attachment, error) {
	rows, err := b.db.QueryxContext(ctx, `
		SELECT id, email_id, draft_id, filename, mime_type, size
		FROM attachments WHERE email_id = ? ORDER BY id`, emailID)
	if err != nil {
		return nil, fmt.Errorf("querying attachments: %w", err)
	}
	defer rows.Close()

	var attachments []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.EmailID, &a.DraftID,
			&a.Filename, &a.MimeType, &a.Size); err != nil {
			return nil, fmt.Errorf("scanning attachment row: %w", err)
		}
		attachments = append(attachments, a)
	}

	return attachments, rows.Err()
}

// GetAttachmentData retrieves one attachment's bytes.
func (b *Backend) GetAttachmentData(ctx context.Context, attachmentID int64) ([]byte, error) {
	var data []byte
	err := b.db.GetContext(ctx,
		&data, "SELECT data FROM attachments WHERE id = ?", attachmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("reading attachment %d: %w", attachmentID, err)
	}
	return data, nil
}

// MarkAsRead adds the seen flag to the given messages and emits an
// emails-updated event when anything changed.
func (b *Backend) MarkAsRead(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	changed := false
	for _, id := range ids {
		var raw string
		err := tx.GetContext(ctx, &raw, "SELECT flags FROM emails WHERE id = ?", id)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return fmt.Errorf("reading flags of email %d: %w", id, err)
		}

		flags := model.DecodeFlags(raw)
		if flags.Has(model.FlagSeen) {
			continue
		}
		flags.Add(model.FlagSeen)
		if _, err := tx.ExecContext(ctx,
			"UPDATE emails SET flags = ? WHERE id = ?", flags.Encode(), id); err != nil {
			return fmt.Errorf("marking email %d as read: %w", id, err)
		}
		changed = true
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	if changed {
		b.emit(gateway.EventEmailsUpdated, map[string]interface{}{"ids": ids})
	}
	return nil
}

// MoveToTrash moves messages into their account's trash folder.
func (b *Backend) MoveToTrash(ctx context.Context, ids []int64) error {
	return b.moveToRole(ctx, ids, model.RoleTrash)
}

// ArchiveEmails moves messages into their account's archive folder.
func (b *Backend) ArchiveEmails(ctx context.Context, ids []int64) error {
	return b.moveToRole(ctx, ids, model.RoleArchive)
}

// MoveToInbox moves messages back into their account's inbox.
func (b *Backend) MoveToInbox(ctx context.Context, ids []int64) error {
	return b.moveToRole(ctx, ids, model.RoleInbox)
}

// moveToRole re-files messages into the folder holding the given role in
// each message's own account.
func (b *Backend) moveToRole(ctx context.Context, ids []int64, role string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, id := range ids {
		var accountID int64
		err := tx.GetContext(ctx,
			&accountID, "SELECT account_id FROM emails WHERE id = ?", id,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("email %d not found", id)
		}
		if err != nil {
			return fmt.Errorf("reading email %d: %w", id, err)
		}

		var folderID int64
		err = tx.GetContext(ctx, &folderID,
			"SELECT id FROM folders WHERE account_id = ? AND role = ?",
			accountID, role,
		)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("account %d has no %s folder", accountID, role)
		}
		if err != nil {
			return fmt.Errorf("resolving %s folder: %w", role, err)
		}

		if _, err := tx.ExecContext(ctx,
			"UPDATE emails SET folder_id = ? WHERE id = ?", folderID, id); err != nil {
			return fmt.Errorf("moving email %d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	b.emit(gateway.EventEmailsUpdated, map[string]interface{}{"ids": ids, "moved_to": role})
	return nil
}

// SendEmail files an outgoing message into the account's sent folder. The
// local backend has no SMTP path, so sending is local delivery.
func (b *Backend) SendEmail(ctx context.Context, e model.OutgoingEmail) error {
	var folderID int64
	err := b.db.GetContext(ctx, &folderID,
		"SELECT id FROM folders WHERE account_id = ? AND role = ?",
		e.AccountID, model.RoleSent,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("account %d has no sent folder", e.AccountID)
	}
	if err != nil {
		return fmt.Errorf("resolving sent folder: %w", err)
	}

	var senderAddress string
	err = b.db.GetContext(ctx,
		&senderAddress, "SELECT email FROM accounts WHERE id = ?", e.AccountID,
	)
	if err != nil {
		return fmt.Errorf("reading account %d: %w", e.AccountID, err)
	}

	snippet := snippetOf(e.Body)
	res, err := b.db.ExecContext(ctx, `
		INSERT INTO emails (
			account_id, folder_id, remote_id, message_id,
			subject, sender_address, recipient_to, date, flags, snippet
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, '["seen"]', ?)`,
		e.AccountID, folderID, uuid.New().String(),
		fmt.Sprintf("<%s@dueam.local>", uuid.New().String()),
		e.Subject, senderAddress, e.To, nowRFC3339(), snippet,
	)
	if err != nil {
		return fmt.Errorf("filing sent message: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		if _, err := b.db.ExecContext(ctx,
			"INSERT INTO email_bodies (email_id, body_html) VALUES (?, ?)",
			id, e.Body); err != nil {
			b.log.WithError(err).Warn("storing sent message body")
		}
	}

	b.emit(gateway.EventEmailsUpdated, map[string]interface{}{"sent": true})
	return nil
}

// queryEmails runs a list query and scans its rows.
func (b *Backend) queryEmails(ctx context.Context, query string, args ...interface{}) ([]model.Email, error) {
	rows, err := b.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying emails: %w", err)
	}
	defer rows.Close()

	var emails []model.Email
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}

	return emails, rows.Err()
}

// scanEmail scans an email row from a sqlx.Rows result set.
func scanEmail(rows *sqlx.Rows) (model.Email, error) {
	var (
		e              model.Email
		hasAttachments int
		isReply        int
		isForward      int
	)

	err := rows.Scan(
		&e.ID, &e.AccountID, &e.FolderID, &e.RemoteID, &e.MessageID, &e.ThreadID,
		&e.Subject, &e.SenderName, &e.SenderAddress, &e.RecipientTo, &e.Date,
		&e.Flags, &e.Snippet, &e.Summary, &hasAttachments, &isReply, &isForward,
	)
	if err != nil {
		return model.Email{}, fmt.Errorf("scanning email row: %w", err)
	}

	e.HasAttachment = hasAttachments != 0
	e.IsReply = isReply != 0
	e.IsForward = isForward != 0
	return e, nil
}

// snippetOf collapses a body into a short plain-text preview.
func snippetOf(body string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range body {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			sb.WriteByte(' ')
		case !inTag:
			sb.WriteRune(r)
		}
	}
	text := strings.Join(strings.Fields(sb.String()), " ")
	const max = 120
	if utf8.RuneCountInString(text) > max {
		text = string([]rune(text)[:max])
	}
	return text
}
