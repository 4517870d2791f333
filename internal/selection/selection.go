// Package selection tracks which grid rows are selected for bulk actions.
package selection

import "github.com/Tiliavir/timesheet/internal/grid"

// Set is a set of selected row keys. The zero value is empty and ready to use.
type Set struct {
	keys  map[string]bool
	order []string
}

// Toggle selects key, or deselects it when already selected.
func (s *Set) Toggle(key string) {
	if s.keys[key] {
		s.remove(key)
		return
	}
	s.add(key)
}

// ToggleAll selects every visible key, or clears the selection when all of
// them are already selected.
func (s *Set) ToggleAll(visible []string) {
	all := len(visible) > 0
	for _, k := range visible {
		if !s.keys[k] {
			all = false
			break
		}
	}
	if all {
		s.Clear()
		return
	}
	for _, k := range visible {
		if !s.keys[k] {
			s.add(k)
		}
	}
}

// Clear empties the selection.
func (s *Set) Clear() {
	s.keys = nil
	s.order = nil
}

// Has reports whether key is selected.
func (s *Set) Has(key string) bool {
	return s.keys[key]
}

// Len returns the number of selected keys.
func (s *Set) Len() int {
	return len(s.order)
}

// Keys returns the selected keys in selection order.
func (s *Set) Keys() []string {
	return append([]string(nil), s.order...)
}

// KeySet returns the selection as a map, as used by grid.RemoveRows.
func (s *Set) KeySet() map[string]bool {
	m := make(map[string]bool, len(s.keys))
	for k := range s.keys {
		m[k] = true
	}
	return m
}

// SelectedEntryIDs returns the ids of every entry, on every day, of every
// selected row still present in g. Keys whose row is gone contribute nothing.
func (s *Set) SelectedEntryIDs(g *grid.WeekGrid) []string {
	var ids []string
	for _, k := range s.order {
		row := g.Row(k)
		if row == nil {
			continue
		}
		ids = append(ids, row.EntryIDs(g.Days)...)
	}
	return ids
}

func (s *Set) add(key string) {
	if s.keys == nil {
		s.keys = map[string]bool{}
	}
	s.keys[key] = true
	s.order = append(s.order, key)
}

func (s *Set) remove(key string) {
	delete(s.keys, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
