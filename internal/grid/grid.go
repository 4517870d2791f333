// Package grid maintains the week matrix of time entries: one row per
// (project, task) pair, one column per day, with row, day and week totals.
//
// A grid is built once from a flat entry list and then kept current with
// PatchCell, AddRow and RemoveRows. Every write path keeps
//
//	WeekTotal == sum(DailyTotals) == sum(row.Total)
//
// Callers must not modify rows or totals directly.
package grid

import (
	"errors"
	"fmt"

	"github.com/Tiliavir/timesheet/internal/model"
)

var (
	ErrDuplicateRow = errors.New("row already exists")
	ErrUnknownRow   = errors.New("unknown row")
	ErrUnknownDay   = errors.New("day not in week")
)

// RowMeta is the display snapshot of a row.
type RowMeta struct {
	Client  model.Ref
	Project model.Ref
	Task    model.Ref
}

// Key returns the row key for the metadata's project and task.
func (m RowMeta) Key() string {
	return model.RowKey(m.Project.ID, m.Task.ID)
}

// Row is one (client, project, task) line of the week.
type Row struct {
	Key string
	RowMeta

	// Entries holds the entries of each day that has any. Days without
	// entries have no key.
	Entries map[model.DateKey][]model.TimeEntry
	Total   int64
}

// Has reports whether the row has entries on day.
func (r *Row) Has(day model.DateKey) bool {
	_, ok := r.Entries[day]
	return ok
}

// DayTotal returns the summed duration of the row's entries on day.
func (r *Row) DayTotal(day model.DateKey) int64 {
	return sum(r.Entries[day])
}

// EntryIDs returns the ids of all entries in the row, day by day in week order.
func (r *Row) EntryIDs(days [7]model.DateKey) []string {
	var ids []string
	for _, d := range days {
		for _, e := range r.Entries[d] {
			ids = append(ids, e.ID)
		}
	}
	return ids
}

func (r *Row) resum() {
	var total int64
	for _, list := range r.Entries {
		total += sum(list)
	}
	r.Total = total
}

// WeekGrid is the aggregation state of one week.
type WeekGrid struct {
	Days        [7]model.DateKey
	Rows        []*Row
	DailyTotals [7]int64
	WeekTotal   int64

	index map[string]*Row
}

// New returns an empty grid for the given days.
func New(days [7]model.DateKey) *WeekGrid {
	return &WeekGrid{Days: days, index: map[string]*Row{}}
}

// Build groups entries into rows and days and computes every total. Rows
// appear in the order their first entry, or their meta, is seen; meta rows
// come first so callers can pin an order. Entries dated outside days are
// skipped and returned.
func Build(days [7]model.DateKey, entries []model.TimeEntry, metas ...RowMeta) (*WeekGrid, []model.TimeEntry) {
	g := New(days)
	for _, m := range metas {
		if _, ok := g.index[m.Key()]; !ok {
			g.appendRow(m)
		}
	}

	var skipped []model.TimeEntry
	for _, e := range entries {
		if g.DayIndex(e.DateKey) < 0 {
			skipped = append(skipped, e)
			continue
		}
		row, ok := g.index[e.RowKey()]
		if !ok {
			row = g.appendRow(metaOf(e))
		}
		row.Entries[e.DateKey] = append(row.Entries[e.DateKey], e)
	}

	for _, row := range g.Rows {
		row.resum()
	}
	g.resumDays()
	return g, skipped
}

// metaOf takes the row snapshot from an entry; the entry's own ids win over
// the snapshot ids so the row key always matches e.RowKey().
func metaOf(e model.TimeEntry) RowMeta {
	m := RowMeta{Client: e.Client, Project: e.Project, Task: e.Task}
	m.Client.ID = e.ClientID
	m.Project.ID = e.ProjectID
	m.Task.ID = e.TaskID
	return m
}

func (g *WeekGrid) appendRow(m RowMeta) *Row {
	row := &Row{
		Key:     m.Key(),
		RowMeta: m,
		Entries: map[model.DateKey][]model.TimeEntry{},
	}
	g.Rows = append(g.Rows, row)
	g.index[row.Key] = row
	return row
}

// Row returns the row with the given key, or nil.
func (g *WeekGrid) Row(key string) *Row {
	return g.index[key]
}

// DayIndex returns the column of day, or -1 when day is outside the week.
func (g *WeekGrid) DayIndex(day model.DateKey) int {
	for i, d := range g.Days {
		if d == day {
			return i
		}
	}
	return -1
}

// Cell returns a copy of the entries of one (row, day) cell.
func (g *WeekGrid) Cell(rowKey string, day model.DateKey) []model.TimeEntry {
	row := g.index[rowKey]
	if row == nil {
		return nil
	}
	return append([]model.TimeEntry(nil), row.Entries[day]...)
}

// Keys returns the row keys in display order.
func (g *WeekGrid) Keys() []string {
	keys := make([]string, len(g.Rows))
	for i, r := range g.Rows {
		keys[i] = r.Key
	}
	return keys
}

// FindEntry locates an entry by id.
func (g *WeekGrid) FindEntry(id string) (rowKey string, day model.DateKey, ok bool) {
	for _, row := range g.Rows {
		for d, list := range row.Entries {
			for _, e := range list {
				if e.ID == id {
					return row.Key, d, true
				}
			}
		}
	}
	return "", "", false
}

// PatchCell replaces the entries of one cell and updates the row total, that
// day's column total and the week total. Other rows and days are not touched.
// An empty list removes the day from the row.
func (g *WeekGrid) PatchCell(rowKey string, day model.DateKey, entries []model.TimeEntry) error {
	row := g.index[rowKey]
	if row == nil {
		return fmt.Errorf("%w: %s", ErrUnknownRow, rowKey)
	}
	idx := g.DayIndex(day)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownDay, day)
	}

	if len(entries) == 0 {
		delete(row.Entries, day)
	} else {
		row.Entries[day] = append([]model.TimeEntry(nil), entries...)
	}
	row.resum()

	var col int64
	for _, r := range g.Rows {
		col += r.DayTotal(day)
	}
	g.DailyTotals[idx] = col
	g.resumWeek()
	return nil
}

// AddRow appends an empty row. It fails with ErrDuplicateRow, leaving the
// grid unchanged, when the key is already present.
func (g *WeekGrid) AddRow(m RowMeta) (*Row, error) {
	if _, ok := g.index[m.Key()]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateRow, m.Key())
	}
	return g.appendRow(m), nil
}

// RemoveRows drops the named rows and recomputes the day and week totals from
// the rows that remain. It returns the number of rows removed.
func (g *WeekGrid) RemoveRows(keys map[string]bool) int {
	kept := g.Rows[:0]
	removed := 0
	for _, row := range g.Rows {
		if keys[row.Key] {
			delete(g.index, row.Key)
			removed++
			continue
		}
		kept = append(kept, row)
	}
	for i := len(kept); i < len(g.Rows); i++ {
		g.Rows[i] = nil
	}
	g.Rows = kept
	g.resumDays()
	return removed
}

func (g *WeekGrid) resumDays() {
	for i, d := range g.Days {
		var col int64
		for _, r := range g.Rows {
			col += r.DayTotal(d)
		}
		g.DailyTotals[i] = col
	}
	g.resumWeek()
}

func (g *WeekGrid) resumWeek() {
	var total int64
	for _, t := range g.DailyTotals {
		total += t
	}
	g.WeekTotal = total
}

// Clone returns a deep copy of the grid.
func (g *WeekGrid) Clone() *WeekGrid {
	c := New(g.Days)
	c.DailyTotals = g.DailyTotals
	c.WeekTotal = g.WeekTotal
	for _, row := range g.Rows {
		nr := c.appendRow(row.RowMeta)
		nr.Total = row.Total
		for d, list := range row.Entries {
			cp := make([]model.TimeEntry, len(list))
			for i, e := range list {
				if e.Description != nil {
					desc := *e.Description
					e.Description = &desc
				}
				cp[i] = e
			}
			nr.Entries[d] = cp
		}
	}
	return c
}

// Check verifies the total invariants and returns a descriptive error on the
// first violation.
func (g *WeekGrid) Check() error {
	var rowsTotal int64
	var cols [7]int64
	for _, row := range g.Rows {
		var rt int64
		for d, list := range row.Entries {
			if len(list) == 0 {
				return fmt.Errorf("row %s: empty entry list kept for %s", row.Key, d)
			}
			idx := g.DayIndex(d)
			if idx < 0 {
				return fmt.Errorf("row %s: entries for %s outside week", row.Key, d)
			}
			s := sum(list)
			rt += s
			cols[idx] += s
		}
		if rt != row.Total {
			return fmt.Errorf("row %s: total %d, entries sum to %d", row.Key, row.Total, rt)
		}
		rowsTotal += rt
	}
	var days int64
	for i, c := range cols {
		if c != g.DailyTotals[i] {
			return fmt.Errorf("day %s: total %d, rows sum to %d", g.Days[i], g.DailyTotals[i], c)
		}
		days += c
	}
	if g.WeekTotal != days || g.WeekTotal != rowsTotal {
		return fmt.Errorf("week total %d, days sum to %d, rows sum to %d", g.WeekTotal, days, rowsTotal)
	}
	return nil
}

func sum(list []model.TimeEntry) int64 {
	var total int64
	for _, e := range list {
		total += e.DurationSeconds
	}
	return total
}
