package mailstore

import "github.com/ShashiSrinath/dueam/internal/model"

// ToggleSelect flips the selection state of one row and makes it the range
// anchor.
func (s *Store) ToggleSelect(key model.RowKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOfLocked(key) < 0 {
		return
	}
	if s.selection[key] {
		delete(s.selection, key)
	} else {
		s.selection[key] = true
	}
	s.focused = copyKey(&key)
	s.notifyLocked()
}

// RangeSelect extends the selection from the anchor to target, inclusive.
// The whole span is set to the opposite of the target's prior state, so a
// repeated range over the same target undoes itself. When the focused row
// is not itself selected, the anchor falls back to the selected row nearest
// the target; with nothing selected at all this degrades to a plain toggle.
func (s *Store) RangeSelect(target model.RowKey) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ti := s.indexOfLocked(target)
	if ti < 0 {
		return
	}

	ai := -1
	if s.focused != nil && s.selection[*s.focused] {
		ai = s.indexOfLocked(*s.focused)
	}
	if ai < 0 {
		ai = s.nearestSelectedLocked(ti)
	}
	if ai < 0 {
		if s.selection[target] {
			delete(s.selection, target)
		} else {
			s.selection[target] = true
		}
		s.focused = copyKey(&target)
		s.notifyLocked()
		return
	}

	lo, hi := ai, ti
	if lo > hi {
		lo, hi = hi, lo
	}
	selecting := !s.selection[target]
	for i := lo; i <= hi; i++ {
		k := s.rows[i].Key()
		if selecting {
			s.selection[k] = true
		} else {
			delete(s.selection, k)
		}
	}
	s.focused = copyKey(&target)
	s.notifyLocked()
}

// SelectAll toggles between every loaded row selected and nothing selected.
// A partial selection is promoted to full rather than cleared.
func (s *Store) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.selection) == len(s.rows) && len(s.rows) > 0 {
		s.selection = make(map[model.RowKey]bool)
	} else {
		s.selection = make(map[model.RowKey]bool, len(s.rows))
		for _, r := range s.rows {
			s.selection[r.Key()] = true
		}
	}
	s.notifyLocked()
}

// ClearSelection empties the selection set.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.selection) == 0 {
		return
	}
	s.selection = make(map[model.RowKey]bool)
	s.notifyLocked()
}

// SelectedKeys returns the selected keys in list order.
func (s *Store) SelectedKeys() []model.RowKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]model.RowKey, 0, len(s.selection))
	for _, r := range s.rows {
		if k := r.Key(); s.selection[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

func (s *Store) indexOfLocked(key model.RowKey) int {
	for i, r := range s.rows {
		if r.Key() == key {
			return i
		}
	}
	return -1
}

// nearestSelectedLocked returns the index of the selected row closest to
// position ti, or -1 when nothing is selected.
func (s *Store) nearestSelectedLocked(ti int) int {
	best, bestDist := -1, 0
	for i, r := range s.rows {
		if !s.selection[r.Key()] {
			continue
		}
		dist := ti - i
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	return best
}
