package mailstore

import (
	"context"
	"reflect"
	"strings"

	"github.com/ShashiSrinath/dueam/internal/model"
)

// OpenComposer starts a compose session with the given initial fields. Any
// previous session is replaced without saving; callers that want the old
// draft kept call SaveDraftNow first.
func (s *Store) OpenComposer(c Composer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.Open = true
	s.composer = c
	s.lastSaved = nil
	s.autosave.cancel()
	s.notifyLocked()
}

// OpenDraft starts a compose session editing an existing draft record.
func (s *Store) OpenDraft(d *model.Draft) {
	id := d.ID
	c := Composer{
		DraftID:   &id,
		AccountID: d.AccountID,
		To:        strDeref(d.To),
		Cc:        strDeref(d.Cc),
		Bcc:       strDeref(d.Bcc),
		Subject:   strDeref(d.Subject),
		Body:      strDeref(d.BodyHTML),
	}
	for _, a := range d.Attachments {
		c.AttachmentIDs = append(c.AttachmentIDs, a.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c.Open = true
	s.composer = c
	s.lastSaved = payloadOf(c)
	s.autosave.cancel()
	s.notifyLocked()
}

// UpdateComposer applies an edit to the open compose session and arms the
// autosave timer. Edits after the session closed are dropped.
func (s *Store) UpdateComposer(edit func(*Composer)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.composer.Open {
		return
	}
	edit(&s.composer)
	s.composer.Open = true
	s.autosave.trigger()
	s.notifyLocked()
}

// SaveDraftNow persists the open compose session immediately and surfaces
// any failure. An empty draft is not saved.
func (s *Store) SaveDraftNow(ctx context.Context) error {
	s.mu.Lock()
	if !s.composer.Open {
		s.mu.Unlock()
		return nil
	}
	s.autosave.cancel()
	p := payloadOf(s.composer)
	s.mu.Unlock()

	if p == nil {
		return nil
	}
	return s.saveDraft(ctx, *p, true)
}

// Send submits the open compose session, deletes its backing draft, and
// closes the composer. The session stays open on failure so nothing typed
// is lost.
func (s *Store) Send(ctx context.Context) error {
	s.mu.Lock()
	if !s.composer.Open {
		s.mu.Unlock()
		return nil
	}
	s.autosave.cancel()
	c := s.composer
	s.mu.Unlock()

	out := model.OutgoingEmail{
		AccountID:     c.AccountID,
		To:            strings.TrimSpace(c.To),
		Cc:            optStr(c.Cc),
		Bcc:           optStr(c.Bcc),
		Subject:       c.Subject,
		Body:          c.Body,
		AttachmentIDs: c.AttachmentIDs,
	}
	if err := s.gw.SendEmail(ctx, out); err != nil {
		s.mu.Lock()
		s.setErrorLocked(err)
		s.notifyLocked()
		s.mu.Unlock()
		return err
	}

	if c.DraftID != nil {
		if err := s.gw.DeleteDraft(ctx, *c.DraftID); err != nil {
			s.log.WithError(err).Warn("deleting draft after send")
		}
	}

	s.closeComposer()
	s.refreshCounts()
	s.Refresh()
	return nil
}

// Discard closes the compose session and deletes its backing draft, if any.
func (s *Store) Discard(ctx context.Context) error {
	s.mu.Lock()
	if !s.composer.Open {
		s.mu.Unlock()
		return nil
	}
	s.autosave.cancel()
	draftID := s.composer.DraftID
	s.mu.Unlock()

	if draftID != nil {
		if err := s.gw.DeleteDraft(ctx, *draftID); err != nil {
			s.mu.Lock()
			s.setErrorLocked(err)
			s.notifyLocked()
			s.mu.Unlock()
			return err
		}
	}
	s.closeComposer()
	s.Refresh()
	return nil
}

// CloseComposer closes the session without saving or deleting anything.
func (s *Store) CloseComposer() {
	s.closeComposer()
}

func (s *Store) closeComposer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autosave.cancel()
	s.composer = Composer{}
	s.lastSaved = nil
	s.notifyLocked()
}

// autosaveDraft runs when the autosave window elapses. Empty drafts and
// payloads value-equal to the last successful save are skipped; failures
// are logged, never surfaced, and re-armed edits retry naturally.
func (s *Store) autosaveDraft() {
	s.mu.Lock()
	if !s.composer.Open {
		s.mu.Unlock()
		return
	}
	p := payloadOf(s.composer)
	last := s.lastSaved
	s.mu.Unlock()

	if p == nil {
		return
	}
	if last != nil && reflect.DeepEqual(*p, *last) {
		return
	}
	if err := s.saveDraft(context.Background(), *p, false); err != nil {
		s.log.WithError(err).Warn("draft autosave failed")
	}
}

// saveDraft performs one save_draft round trip and records the assigned
// draft id and the saved payload for the value-equality skip.
func (s *Store) saveDraft(ctx context.Context, p model.DraftPayload, surface bool) error {
	id, err := s.gw.SaveDraft(ctx, p)
	if err != nil {
		if surface {
			s.mu.Lock()
			s.setErrorLocked(err)
			s.notifyLocked()
			s.mu.Unlock()
		}
		return err
	}

	s.mu.Lock()
	if s.composer.Open {
		if s.composer.DraftID == nil {
			s.composer.DraftID = &id
		}
		saved := p
		saved.ID = s.composer.DraftID
		s.lastSaved = &saved
		s.notifyLocked()
	}
	s.mu.Unlock()
	return nil
}

// payloadOf maps the compose session to the wire payload. It returns nil
// for an empty draft: no recipient, no subject, and a blank body.
func payloadOf(c Composer) *model.DraftPayload {
	to := strings.TrimSpace(c.To)
	subject := strings.TrimSpace(c.Subject)
	if to == "" && subject == "" && emptyBody(c.Body) {
		return nil
	}

	p := model.DraftPayload{
		ID:            c.DraftID,
		AccountID:     c.AccountID,
		To:            optStr(c.To),
		Cc:            optStr(c.Cc),
		Bcc:           optStr(c.Bcc),
		Subject:       optStr(c.Subject),
		BodyHTML:      optStr(c.Body),
		AttachmentIDs: c.AttachmentIDs,
	}
	return &p
}

// emptyBody reports whether a body is blank or still the editor's empty
// placeholder markup.
func emptyBody(body string) bool {
	t := strings.TrimSpace(body)
	switch t {
	case "", "<p></p>", "<p><br></p>", "<br>", "<div></div>":
		return true
	}
	return false
}

func optStr(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func strDeref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
