package mailstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ShashiSrinath/dueam/internal/model"
)

// fetchDraftRows synthesizes list rows for the drafts view. Drafts are not
// messages: the backend returns raw draft records per account, and the rows
// shown for them are built here with the draft sentinel folder id, no
// pagination, and the fixed "Draft" sender label.
func (s *Store) fetchDraftRows(ctx context.Context, q Query) ([]*model.Email, error) {
	var accountIDs []int64
	if q.AccountID != nil {
		accountIDs = []int64{*q.AccountID}
	} else {
		s.mu.Lock()
		for _, a := range s.accounts {
			accountIDs = append(accountIDs, a.ID)
		}
		s.mu.Unlock()
	}

	var rows []*model.Email
	for _, id := range accountIDs {
		drafts, err := s.gw.GetDrafts(ctx, id)
		if err != nil {
			return nil, err
		}
		for i := range drafts {
			rows = append(rows, draftRow(&drafts[i]))
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		return model.Less(rows[j], rows[i])
	})
	return rows, nil
}

// draftRow builds the list-row projection of one draft record.
func draftRow(d *model.Draft) *model.Email {
	name := "Draft"
	address := "(No Recipient)"
	if d.To != nil && strings.TrimSpace(*d.To) != "" {
		address = strings.TrimSpace(*d.To)
	}

	var snippet *string
	if d.BodyHTML != nil {
		if text := snippetOf(*d.BodyHTML); text != "" {
			snippet = &text
		}
	}

	return &model.Email{
		ID:            d.ID,
		AccountID:     d.AccountID,
		FolderID:      model.DraftFolderID,
		RemoteID:      fmt.Sprintf("local-draft-%d", d.ID),
		Subject:       d.Subject,
		SenderName:    &name,
		SenderAddress: address,
		RecipientTo:   d.To,
		Date:          d.UpdatedAt,
		Flags:         "[]",
		Snippet:       snippet,
		HasAttachment: false,
	}
}

// snippetOf strips markup and collapses whitespace into a short preview.
func snippetOf(html string) string {
	var b strings.Builder
	inTag := false
	for _, r := range html {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			b.WriteByte(' ')
		case !inTag:
			b.WriteRune(r)
		}
	}
	text := strings.Join(strings.Fields(b.String()), " ")
	return truncateRunes(text, 120)
}

// truncateRunes cuts s to at most max runes, never mid-codepoint.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
