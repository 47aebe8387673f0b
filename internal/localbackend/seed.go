package localbackend

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ShashiSrinath/dueam/internal/model"
)

// Seed populates an empty database with a demo account, the standard
// folder set, and a spread of messages. It is a no-op when any account
// already exists.
func (b *Backend) Seed(ctx context.Context) error {
	var accounts int
	if err := b.db.GetContext(ctx, &accounts, "SELECT COUNT(*) FROM accounts"); err != nil {
		return fmt.Errorf("checking accounts: %w", err)
	}
	if accounts > 0 {
		return nil
	}

	res, err := b.db.ExecContext(ctx,
		"INSERT INTO accounts (kind, email, name) VALUES (?, ?, ?)",
		string(model.AccountKindImapSmtp), "demo@dueam.local", "Demo",
	)
	if err != nil {
		return fmt.Errorf("seeding account: %w", err)
	}
	accountID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading account id: %w", err)
	}

	folderIDs := make(map[string]int64)
	for _, f := range []struct{ name, path, role string }{
		{"Inbox", "INBOX", model.RoleInbox},
		{"Sent", "Sent", model.RoleSent},
		{"Spam", "Junk", model.RoleSpam},
		{"Trash", "Trash", model.RoleTrash},
		{"Archive", "Archive", model.RoleArchive},
		{"Newsletters", "Newsletters", ""},
	} {
		res, err := b.db.ExecContext(ctx,
			"INSERT INTO folders (account_id, name, path, role) VALUES (?, ?, ?, ?)",
			accountID, f.name, f.path, f.role,
		)
		if err != nil {
			return fmt.Errorf("seeding folder %s: %w", f.name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading folder id: %w", err)
		}
		folderIDs[f.role+"/"+f.name] = id
	}

	inbox := folderIDs[model.RoleInbox+"/Inbox"]
	news := folderIDs["/Newsletters"]

	senders := []struct{ name, address string }{
		{"Grace Hopper", "grace@navy.example"},
		{"Ken Thompson", "ken@bell.example"},
		{"Barbara Liskov", "barbara@mit.example"},
	}
	base := time.Now().UTC()
	for i := 0; i < 60; i++ {
		from := senders[i%len(senders)]
		folder := inbox
		flags := "[]"
		if i%7 == 0 {
			folder = news
		}
		if i%3 == 0 {
			flags = `["seen"]`
		}

		subject := fmt.Sprintf("Demo message %d", i+1)
		snippet := fmt.Sprintf("This is the preview of demo message %d.", i+1)
		date := base.Add(-time.Duration(i) * 3 * time.Hour).Format(time.RFC3339)

		res, err := b.db.ExecContext(ctx, `
			INSERT INTO emails (
				account_id, folder_id, remote_id, message_id, thread_id,
				subject, sender_name, sender_address, recipient_to,
				date, flags, snippet
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			accountID, folder, uuid.New().String(),
			fmt.Sprintf("<%s@dueam.local>", uuid.New().String()),
			fmt.Sprintf("thread-%d", i/4),
			subject, from.name, from.address, "demo@dueam.local",
			date, flags, snippet,
		)
		if err != nil {
			return fmt.Errorf("seeding email %d: %w", i, err)
		}
		if id, err := res.LastInsertId(); err == nil {
			body := fmt.Sprintf("<p>Hello,</p><p>this is demo message %d.</p>", i+1)
			if _, err := b.db.ExecContext(ctx,
				"INSERT INTO email_bodies (email_id, body_html) VALUES (?, ?)",
				id, body); err != nil {
				return fmt.Errorf("seeding body %d: %w", i, err)
			}
		}
	}

	for _, s := range senders {
		if _, err := b.RegenerateSenderInfo(ctx, s.address, false); err != nil {
			return fmt.Errorf("seeding sender %s: %w", s.address, err)
		}
	}

	if err := b.UpdateSetting(ctx, "theme", "dark"); err != nil {
		return err
	}

	b.log.WithField("account_id", accountID).Info("seeded demo mailbox")
	return nil
}
