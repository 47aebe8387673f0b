package mailstore

import (
	"context"

	"github.com/ShashiSrinath/dueam/internal/model"
)

// MarkAsRead optimistically adds the seen flag to the given rows and tells
// the backend. The flag change is visible before the call returns; a
// backend failure is logged and left for the next reconciliation to settle,
// since re-marking an already-read message is harmless.
func (s *Store) MarkAsRead(keys ...model.RowKey) {
	s.mu.Lock()
	want := make(map[model.RowKey]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	var ids []int64
	changed := false
	for i, r := range s.rows {
		k := r.Key()
		if !want[k] || k.Kind != model.RowKindMessage || r.Seen() {
			continue
		}
		flags := model.DecodeFlags(r.Flags)
		flags.Add(model.FlagSeen)
		updated := *r
		updated.Flags = flags.Encode()
		s.rows[i] = &updated
		ids = append(ids, r.ID)
		changed = true
	}
	if changed {
		s.notifyLocked()
	}
	s.mu.Unlock()

	if len(ids) == 0 {
		return
	}
	go func() {
		if err := s.gw.MarkAsRead(context.Background(), ids); err != nil {
			s.log.WithError(err).Warn("mark as read not acknowledged")
		} else {
			s.refreshCounts()
		}
	}()
}

// MoveToTrash removes the given rows optimistically. Message rows move via
// the backend's trash command; draft rows have no server-side folder and
// are deleted outright.
func (s *Store) MoveToTrash(keys ...model.RowKey) {
	s.move(keys, true, s.gw.MoveToTrash)
}

// ArchiveEmails removes the given message rows optimistically and archives
// them on the backend. Draft rows are ignored.
func (s *Store) ArchiveEmails(keys ...model.RowKey) {
	s.move(keys, false, s.gw.ArchiveEmails)
}

// MoveToInbox removes the given message rows optimistically and moves them
// back to the inbox on the backend. Draft rows are ignored.
func (s *Store) MoveToInbox(keys ...model.RowKey) {
	s.move(keys, false, s.gw.MoveToInbox)
}

// listState is the part of the store a failed move restores.
type listState struct {
	rows      []*model.Email
	hasMore   bool
	selection map[model.RowKey]bool
	focused   *model.RowKey
	open      *model.RowKey
}

// move is the shared optimistic remove-and-confirm path. The removal is
// applied immediately under a snapshot; if the backend rejects it the
// snapshot is restored, unless the query changed in the meantime, in which
// case the newer query's state wins and the failure is only surfaced.
func (s *Store) move(keys []model.RowKey, deleteDrafts bool, cmd func(context.Context, []int64) error) {
	s.mu.Lock()

	want := make(map[model.RowKey]bool, len(keys))
	for _, k := range keys {
		want[k] = true
	}

	var messageIDs, draftIDs []int64
	for _, r := range s.rows {
		k := r.Key()
		if !want[k] {
			continue
		}
		if k.Kind == model.RowKindDraft {
			if deleteDrafts {
				draftIDs = append(draftIDs, k.ID)
			}
		} else {
			messageIDs = append(messageIDs, k.ID)
		}
	}
	if len(messageIDs) == 0 && len(draftIDs) == 0 {
		s.mu.Unlock()
		return
	}

	snap := listState{
		rows:      append([]*model.Email(nil), s.rows...),
		hasMore:   s.hasMore,
		selection: copySelection(s.selection),
		focused:   copyKey(s.focused),
		open:      copyKey(s.open),
	}
	gen := s.generation

	kept := s.rows[:0]
	for _, r := range s.rows {
		removed := want[r.Key()] &&
			(r.Key().Kind == model.RowKindMessage || deleteDrafts)
		if !removed {
			kept = append(kept, r)
		}
	}
	s.rows = kept
	s.pruneLocked()
	s.notifyLocked()
	s.mu.Unlock()

	go func() {
		ctx := context.Background()
		var err error
		if len(messageIDs) > 0 {
			err = cmd(ctx, messageIDs)
		}
		for _, id := range draftIDs {
			if err != nil {
				break
			}
			err = s.gw.DeleteDraft(ctx, id)
		}

		if err == nil {
			s.refreshCounts()
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.setErrorLocked(err)
		if gen == s.generation {
			s.rows = snap.rows
			s.hasMore = snap.hasMore
			s.selection = snap.selection
			s.focused = snap.focused
			s.open = snap.open
		}
		s.notifyLocked()
	}()
}

func copySelection(sel map[model.RowKey]bool) map[model.RowKey]bool {
	out := make(map[model.RowKey]bool, len(sel))
	for k := range sel {
		out[k] = true
	}
	return out
}
