package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Tiliavir/timesheet/internal/model"
	"github.com/Tiliavir/timesheet/internal/timecalc"
)

// ErrNotFound is returned when an entry id is not stored.
var ErrNotFound = errors.New("time entry not found")

// BaseDir returns the root data directory (~/.tsh).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tsh"), nil
}

// Store keeps time entries as one JSON file per day under a base directory,
// plus a catalog.json listing clients, projects and tasks.
type Store struct {
	base string
}

// New returns a Store rooted at base.
func New(base string) *Store {
	return &Store{base: base}
}

// dayFilePath returns the path for the given date's JSON file.
func dayFilePath(base string, t time.Time) string {
	return filepath.Join(base, t.Format("2006"), t.Format("01"), t.Format("02")+".json")
}

// LoadDay loads the DayFile for the given date. Returns an empty DayFile if not found.
func LoadDay(base string, t time.Time) (model.DayFile, error) {
	path := dayFilePath(base, t)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.DayFile{Date: timecalc.DateKeyOf(t), Entries: []model.TimeEntry{}}, nil
	}
	if err != nil {
		return model.DayFile{}, fmt.Errorf("storage error reading %s: %w", path, err)
	}

	var df model.DayFile
	if err := json.Unmarshal(data, &df); err != nil {
		// Back up corrupt file and abort.
		backupPath := path + ".corrupt"
		_ = os.Rename(path, backupPath)
		return model.DayFile{}, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", path, backupPath, err)
	}
	return df, nil
}

// SaveDay atomically writes a DayFile for the given date.
func SaveDay(base string, t time.Time, df model.DayFile) error {
	return writeJSON(dayFilePath(base, t), df)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	// Atomic write: write to temp file then rename.
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}

// LoadRange loads all entries in [from, to] inclusive.
func LoadRange(base string, from, to time.Time) ([]model.TimeEntry, error) {
	var entries []model.TimeEntry
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		df, err := LoadDay(base, d)
		if err != nil {
			return nil, err
		}
		entries = append(entries, df.Entries...)
	}
	return entries, nil
}

func (s *Store) catalogPath() string {
	return filepath.Join(s.base, "catalog.json")
}

// LoadCatalog reads catalog.json. A missing file is an empty catalogue.
func (s *Store) LoadCatalog() (model.Catalog, error) {
	data, err := os.ReadFile(s.catalogPath())
	if os.IsNotExist(err) {
		return model.Catalog{}, nil
	}
	if err != nil {
		return model.Catalog{}, fmt.Errorf("storage error reading catalog: %w", err)
	}
	var c model.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return model.Catalog{}, fmt.Errorf("corrupt catalog %s: %w", s.catalogPath(), err)
	}
	return c, nil
}

// SaveCatalog atomically writes catalog.json.
func (s *Store) SaveCatalog(c model.Catalog) error {
	return writeJSON(s.catalogPath(), c)
}

// ImportCatalog merges c into catalog.json, replacing records with the same id.
func (s *Store) ImportCatalog(ctx context.Context, c model.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cur, err := s.LoadCatalog()
	if err != nil {
		return err
	}
	for _, cl := range c.Clients {
		cur.Clients = upsert(cur.Clients, cl, func(x model.Client) string { return x.ID })
	}
	for _, p := range c.Projects {
		cur.Projects = upsert(cur.Projects, p, func(x model.Project) string { return x.ID })
	}
	for _, t := range c.Tasks {
		cur.Tasks = upsert(cur.Tasks, t, func(x model.Task) string { return x.ID })
	}
	return s.SaveCatalog(cur)
}

func upsert[T any](list []T, v T, id func(T) string) []T {
	for i := range list {
		if id(list[i]) == id(v) {
			list[i] = v
			return list
		}
	}
	return append(list, v)
}

// ListTimeEntries returns the entries of userID dated from..to inclusive, with
// client, project and task snapshots filled from the catalogue. An empty
// userID matches every entry.
func (s *Store) ListTimeEntries(ctx context.Context, userID string, from, to model.DateKey) ([]model.TimeEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start, err := timecalc.ParseDateKey(from)
	if err != nil {
		return nil, err
	}
	end, err := timecalc.ParseDateKey(to)
	if err != nil {
		return nil, err
	}
	all, err := LoadRange(s.base, start, end)
	if err != nil {
		return nil, err
	}
	cat, err := s.LoadCatalog()
	if err != nil {
		return nil, err
	}

	var out []model.TimeEntry
	for _, e := range all {
		if userID != "" && e.UserID != "" && e.UserID != userID {
			continue
		}
		out = append(out, withRefs(e, cat))
	}
	return out, nil
}

// CreateTimeEntry stores a new entry under its date with a fresh id.
func (s *Store) CreateTimeEntry(ctx context.Context, ne model.NewEntry) (model.TimeEntry, error) {
	if err := ctx.Err(); err != nil {
		return model.TimeEntry{}, err
	}
	day, err := timecalc.ParseDateKey(ne.DateKey)
	if err != nil {
		return model.TimeEntry{}, err
	}
	if ne.DurationSeconds < 0 {
		return model.TimeEntry{}, fmt.Errorf("negative duration %d", ne.DurationSeconds)
	}
	src := ne.Source
	if src == "" {
		src = model.SourceManual
	}
	e := model.TimeEntry{
		ID:              uuid.NewString(),
		UserID:          ne.UserID,
		ClientID:        ne.ClientID,
		ProjectID:       ne.ProjectID,
		TaskID:          ne.TaskID,
		DateKey:         ne.DateKey,
		DurationSeconds: ne.DurationSeconds,
		Description:     ne.Description,
		Billable:        ne.Billable,
		Source:          src,
	}

	df, err := LoadDay(s.base, day)
	if err != nil {
		return model.TimeEntry{}, err
	}
	df.Entries = append(df.Entries, e)
	if err := SaveDay(s.base, day, df); err != nil {
		return model.TimeEntry{}, err
	}

	cat, err := s.LoadCatalog()
	if err != nil {
		return e, nil
	}
	return withRefs(e, cat), nil
}

// UpdateTimeEntry applies p to the stored entry with the given id.
func (s *Store) UpdateTimeEntry(ctx context.Context, id string, p model.EntryPatch) (model.TimeEntry, error) {
	if err := ctx.Err(); err != nil {
		return model.TimeEntry{}, err
	}
	if p.DurationSeconds != nil && *p.DurationSeconds < 0 {
		return model.TimeEntry{}, fmt.Errorf("negative duration %d", *p.DurationSeconds)
	}
	day, df, i, err := s.find(id)
	if err != nil {
		return model.TimeEntry{}, err
	}
	df.Entries[i] = p.Apply(df.Entries[i])
	if err := SaveDay(s.base, day, df); err != nil {
		return model.TimeEntry{}, err
	}
	cat, err := s.LoadCatalog()
	if err != nil {
		return df.Entries[i], nil
	}
	return withRefs(df.Entries[i], cat), nil
}

// DeleteTimeEntry removes the entry with the given id.
func (s *Store) DeleteTimeEntry(ctx context.Context, id string) error {
	return s.BulkDeleteTimeEntries(ctx, []string{id})
}

// BulkDeleteTimeEntries removes every listed entry. All ids are located
// before any file is rewritten; one unknown id fails the whole call.
func (s *Store) BulkDeleteTimeEntries(ctx context.Context, ids []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	type dayEdit struct {
		day  time.Time
		df   model.DayFile
		drop map[string]bool
	}
	edits := map[model.DateKey]*dayEdit{}
	for _, id := range ids {
		day, df, _, err := s.find(id)
		if err != nil {
			return err
		}
		k := timecalc.DateKeyOf(day)
		if edits[k] == nil {
			edits[k] = &dayEdit{day: day, df: df, drop: map[string]bool{}}
		}
		edits[k].drop[id] = true
	}

	keys := make([]model.DateKey, 0, len(edits))
	for k := range edits {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		ed := edits[k]
		kept := ed.df.Entries[:0]
		for _, e := range ed.df.Entries {
			if !ed.drop[e.ID] {
				kept = append(kept, e)
			}
		}
		ed.df.Entries = kept
		if err := SaveDay(s.base, ed.day, ed.df); err != nil {
			return err
		}
	}
	return nil
}

// ListProjectsForClient returns the catalogue projects of clientID.
func (s *Store) ListProjectsForClient(ctx context.Context, clientID string) ([]model.Project, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	cat, err := s.LoadCatalog()
	if err != nil {
		return nil, err
	}
	var out []model.Project
	for _, p := range cat.Projects {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListTasksForProject returns the catalogue tasks of projectID.
func (s *Store) ListTasksForProject(ctx context.Context, clientID, projectID string) ([]model.Task, error) {
	projects, err := s.ListProjectsForClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	owned := false
	for _, p := range projects {
		owned = owned || p.ID == projectID
	}
	if !owned {
		return nil, nil
	}
	cat, err := s.LoadCatalog()
	if err != nil {
		return nil, err
	}
	var out []model.Task
	for _, t := range cat.Tasks {
		if t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

// find locates an entry by id across all day files.
func (s *Store) find(id string) (time.Time, model.DayFile, int, error) {
	paths, err := filepath.Glob(filepath.Join(s.base, "[0-9][0-9][0-9][0-9]", "[0-9][0-9]", "[0-9][0-9].json"))
	if err != nil {
		return time.Time{}, model.DayFile{}, 0, fmt.Errorf("storage error listing day files: %w", err)
	}
	for _, p := range paths {
		rel, _ := filepath.Rel(s.base, p)
		day, err := time.ParseInLocation("2006/01/02.json", filepath.ToSlash(rel), time.Local)
		if err != nil {
			continue
		}
		df, err := LoadDay(s.base, day)
		if err != nil {
			return time.Time{}, model.DayFile{}, 0, err
		}
		for i, e := range df.Entries {
			if e.ID == id {
				return day, df, i, nil
			}
		}
	}
	return time.Time{}, model.DayFile{}, 0, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// withRefs fills the display snapshots of e from the catalogue.
func withRefs(e model.TimeEntry, cat model.Catalog) model.TimeEntry {
	for _, c := range cat.Clients {
		if c.ID == e.ClientID {
			e.Client = model.Ref{ID: c.ID, Name: c.Name, Nickname: c.Nickname}
		}
	}
	for _, p := range cat.Projects {
		if p.ID == e.ProjectID {
			e.Project = model.Ref{ID: p.ID, Name: p.Name, Nickname: p.Nickname}
		}
	}
	for _, t := range cat.Tasks {
		if t.ID == e.TaskID {
			e.Task = model.Ref{ID: t.ID, Name: t.Name}
		}
	}
	return e
}
