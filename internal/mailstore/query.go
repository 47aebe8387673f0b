package mailstore

import (
	"context"
	"sort"

	"github.com/ShashiSrinath/dueam/internal/gateway"
	"github.com/ShashiSrinath/dueam/internal/model"
)

type applyMode int

const (
	modeReplace applyMode = iota // first page of a new query
	modeAppend                   // next page of the current query
	modeMerge                    // background refresh of loaded rows
)

// SetQuery makes q the active query, clears list, selection, and reading
// state, and fetches the first page. Responses tied to the previous query
// carry its generation and are discarded on arrival.
func (s *Store) SetQuery(q Query) {
	s.mu.Lock()
	s.query = q
	s.generation++
	gen := s.generation
	s.rows = nil
	// Optimistic until the first page answers; FetchNextPage is gated on
	// fetching so this cannot start a second fetch.
	s.hasMore = true
	s.fetching = true
	s.selection = make(map[model.RowKey]bool)
	s.focused = nil
	s.open = nil
	s.notifyLocked()
	limit := s.opts.PageSize
	s.mu.Unlock()

	go func() {
		rows, err := s.fetchRows(context.Background(), q, limit, nil)
		s.applyRows(gen, modeReplace, rows, limit, err)
	}()
}

// FetchNextPage loads the page after the last loaded row. It is a no-op
// while a foreground fetch is in flight, when the list is empty, or when
// the last response was short.
func (s *Store) FetchNextPage() {
	s.mu.Lock()
	if s.fetching || !s.hasMore || len(s.rows) == 0 {
		s.mu.Unlock()
		return
	}
	q := s.query
	gen := s.generation
	cursor := model.CursorAfter(s.rows[len(s.rows)-1])
	s.fetching = true
	s.notifyLocked()
	limit := s.opts.PageSize
	s.mu.Unlock()

	go func() {
		rows, err := s.fetchRows(context.Background(), q, limit, &cursor)
		s.applyRows(gen, modeAppend, rows, limit, err)
	}()
}

// Refresh re-fetches every loaded row of the current query and merges the
// response in place, preserving row pointers that did not change. It never
// resets scroll, selection, or the open row, and its failures are logged
// rather than surfaced.
func (s *Store) Refresh() {
	s.mu.Lock()
	q := s.query
	gen := s.generation
	limit := len(s.rows)
	if limit < s.opts.PageSize {
		limit = s.opts.PageSize
	}
	s.mu.Unlock()

	go func() {
		rows, err := s.fetchRows(context.Background(), q, limit, nil)
		s.applyRows(gen, modeMerge, rows, limit, err)
	}()
}

// fetchRows dispatches one page fetch for q. Search takes precedence over
// the view; the drafts view is synthesized client-side from draft records.
func (s *Store) fetchRows(ctx context.Context, q Query, limit int, cursor *model.Cursor) ([]*model.Email, error) {
	if q.Search != "" {
		rows, err := s.gw.SearchEmails(ctx, gateway.SearchQuery{
			Query:     q.Search,
			AccountID: q.AccountID,
			View:      q.View,
			Limit:     limit,
			Cursor:    cursor,
		})
		return asRowPtrs(rows), err
	}
	if q.View == model.ViewDrafts {
		return s.fetchDraftRows(ctx, q)
	}
	rows, err := s.gw.GetEmails(ctx, gateway.EmailQuery{
		AccountID: q.AccountID,
		View:      q.View,
		Filter:    q.Filter,
		Limit:     limit,
		Cursor:    cursor,
	})
	return asRowPtrs(rows), err
}

// applyRows folds one fetch response into the store. gen is the query
// generation the fetch was issued under; a mismatch means the query changed
// while the call was in flight and the response is dropped untouched.
func (s *Store) applyRows(gen uint64, mode applyMode, fresh []*model.Email, limit int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.log.WithField("generation", gen).Debug("dropping stale page response")
		return
	}

	if err != nil {
		if mode == modeMerge {
			s.log.WithError(err).Warn("background refresh failed")
			return
		}
		s.fetching = false
		s.setErrorLocked(err)
		s.notifyLocked()
		return
	}

	// A full page means more rows may exist. This over-reports by one
	// fetch when the total is an exact multiple of the page size; the
	// extra fetch returns empty and settles it. Synthesized draft lists
	// are always complete.
	fullPage := limit > 0 && len(fresh) == limit
	if s.query.Search == "" && s.query.View == model.ViewDrafts {
		fullPage = false
	}

	switch mode {
	case modeReplace:
		s.rows = fresh
		s.hasMore = fullPage
		s.fetching = false

	case modeAppend:
		seen := make(map[model.RowKey]bool, len(s.rows))
		for _, r := range s.rows {
			seen[r.Key()] = true
		}
		for _, r := range fresh {
			if !seen[r.Key()] {
				s.rows = append(s.rows, r)
			}
		}
		s.hasMore = fullPage
		s.fetching = false

	case modeMerge:
		merged, changed := stableMerge(s.rows, fresh)
		newHasMore := fullPage
		if !changed && newHasMore == s.hasMore {
			return
		}
		s.rows = merged
		s.hasMore = newHasMore
		s.pruneLocked()
	}

	s.notifyLocked()
}

// stableMerge folds a fresh response over the loaded rows. A loaded row
// that reappears unchanged in the fields a row render depends on keeps its
// pointer; loaded rows sorting strictly after the last fresh row survive
// the merge, so a refresh window shorter than the list cannot truncate it.
func stableMerge(old, fresh []*model.Email) (merged []*model.Email, changed bool) {
	byKey := make(map[model.RowKey]*model.Email, len(old))
	for _, r := range old {
		byKey[r.Key()] = r
	}

	merged = make([]*model.Email, 0, len(fresh))
	for _, f := range fresh {
		if prev, ok := byKey[f.Key()]; ok && rowEqual(prev, f) {
			merged = append(merged, prev)
		} else {
			merged = append(merged, f)
		}
	}

	if len(fresh) > 0 {
		last := fresh[len(fresh)-1]
		for _, r := range old {
			if model.Less(r, last) {
				merged = append(merged, r)
			}
		}
		sort.SliceStable(merged, func(i, j int) bool {
			return model.Less(merged[j], merged[i])
		})
	}

	if len(merged) != len(old) {
		return merged, true
	}
	for i := range merged {
		if merged[i] != old[i] {
			return merged, true
		}
	}
	return merged, false
}

// rowEqual compares the fields a list render depends on.
func rowEqual(a, b *model.Email) bool {
	return a.Flags == b.Flags &&
		eqStrPtr(a.Subject, b.Subject) &&
		eqStrPtr(a.Snippet, b.Snippet) &&
		eqStrPtr(a.Summary, b.Summary)
}

func eqStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// pruneLocked drops selection, focus, and reading state that refers to rows
// no longer present in the list.
func (s *Store) pruneLocked() {
	live := make(map[model.RowKey]bool, len(s.rows))
	for _, r := range s.rows {
		live[r.Key()] = true
	}
	for k := range s.selection {
		if !live[k] {
			delete(s.selection, k)
		}
	}
	if s.focused != nil && !live[*s.focused] {
		s.focused = nil
	}
	if s.open != nil && !live[*s.open] {
		s.open = nil
	}
}

func asRowPtrs(rows []model.Email) []*model.Email {
	out := make([]*model.Email, len(rows))
	for i := range rows {
		out[i] = &rows[i]
	}
	return out
}
