package localbackend

import (
	"context"
	"fmt"

	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/model"
)

// GetDrafts retrieves all drafts of one account, most recently edited
// first. Draft ids are negated on the way out so they cannot be mistaken
// for message ids by callers showing a mixed list.
func (b *Backend) GetDrafts(ctx context.Context, accountID int64) ([]model.Draft, error) {
	rows, err := b.db.QueryxContext(ctx, `
		SELECT id, account_id, to_address, cc_address, bcc_address,
			subject, body_html, updated_at
		FROM drafts
		WHERE account_id = ?
		ORDER BY updated_at DESC, id DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("querying drafts: %w", err)
	}
	defer rows.Close()

	var drafts []model.Draft
	for rows.Next() {
		var d model.Draft
		if err := rows.Scan(&d.ID, &d.AccountID, &d.To, &d.Cc, &d.Bcc,
			&d.Subject, &d.BodyHTML, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning draft row: %w", err)
		}
		tableID := d.ID
		d.ID = -tableID

		attachments, err := b.draftAttachments(ctx, tableID)
		if err != nil {
			return nil, err
		}
		d.Attachments = attachments
		drafts = append(drafts, d)
	}

	return drafts, rows.Err()
}

// SaveDraft creates or updates a draft and returns its wire id (negative).
// An update to a draft that no longer exists fails rather than recreating
// it, so an autosave racing a delete cannot resurrect the draft.
func (b *Backend) SaveDraft(ctx context.Context, p model.DraftPayload) (int64, error) {
	if p.ID == nil {
		res, err := b.db.ExecContext(ctx, `
			INSERT INTO drafts (account_id, to_address, cc_address, bcc_address,
				subject, body_html, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.AccountID, p.To, p.Cc, p.Bcc, p.Subject, p.BodyHTML, nowRFC3339(),
		)
		if err != nil {
			return 0, fmt.Errorf("creating draft: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading draft id: %w", err)
		}
		if err := b.attachToDraft(ctx, id, p.AttachmentIDs); err != nil {
			return 0, err
		}
		b.emit(gateway.EventEmailsUpdated, map[string]interface{}{"draft_id": -id})
		return -id, nil
	}

	tableID := wireDraftID(*p.ID)
	res, err := b.db.ExecContext(ctx, `
		UPDATE drafts
		SET to_address = ?, cc_address = ?, bcc_address = ?,
			subject = ?, body_html = ?, updated_at = ?
		WHERE id = ?`,
		p.To, p.Cc, p.Bcc, p.Subject, p.BodyHTML, nowRFC3339(), tableID,
	)
	if err != nil {
		return 0, fmt.Errorf("updating draft %d: %w", tableID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("updating draft %d: %w", tableID, err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("draft %d not found", tableID)
	}
	if err := b.attachToDraft(ctx, tableID, p.AttachmentIDs); err != nil {
		return 0, err
	}

	b.emit(gateway.EventEmailsUpdated, map[string]interface{}{"draft_id": -tableID})
	return -tableID, nil
}

// DeleteDraft removes a draft by wire id.
func (b *Backend) DeleteDraft(ctx context.Context, id int64) error {
	tableID := wireDraftID(id)
	res, err := b.db.ExecContext(ctx, "DELETE FROM drafts WHERE id = ?", tableID)
	if err != nil {
		return fmt.Errorf("deleting draft %d: %w", tableID, err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("draft %d not found", tableID)
	}

	b.emit(gateway.EventEmailsUpdated, map[string]interface{}{"deleted_draft": id})
	return nil
}

// draftAttachments loads attachment metadata for one draft.
func (b *Backend) draftAttachments(ctx context.Context, tableID int64) ([]model.Attachment, error) {
	rows, err := b.db.QueryxContext(ctx, `
		SELECT id, email_id, draft_id, filename, mime_type, size
		FROM attachments WHERE draft_id = ? ORDER BY id`, tableID)
	if err != nil {
		return nil, fmt.Errorf("querying draft attachments: %w", err)
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

// attachToDraft points the given attachments at a draft.
func (b *Backend) attachToDraft(ctx context.Context, tableID int64, attachmentIDs []int64) error {
	for _, aid := range attachmentIDs {
		res, err := b.db.ExecContext(ctx,
			"UPDATE attachments SET draft_id = ? WHERE id = ?", tableID, aid)
		if err != nil {
			return fmt.Errorf("attaching %d to draft %d: %w", aid, tableID, err)
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			return fmt.Errorf("attachment %d not found", aid)
		}
	}
	return nil
}

// wireDraftID maps a wire draft id onto the drafts table's id space.
func wireDraftID(id int64) int64 {
	if id < 0 {
		return -id
	}
	return id
}
