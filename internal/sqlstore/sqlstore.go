// Package sqlstore keeps time entries and the client/project/task catalogue
// in a single SQLite database.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/Tiliavir/timesheet/internal/model"
)

// ErrNotFound is returned when an entry id is not stored.
var ErrNotFound = errors.New("time entry not found")

const (
	createClientsTableSQL = `
	CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		nickname TEXT NOT NULL DEFAULT ''
	)`

	createProjectsTableSQL = `
	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		client_id TEXT NOT NULL REFERENCES clients(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		nickname TEXT NOT NULL DEFAULT ''
	)`

	createTasksTableSQL = `
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		billable INTEGER NOT NULL DEFAULT 0
	)`

	createEntriesTableSQL = `
	CREATE TABLE IF NOT EXISTS time_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		client_id TEXT NOT NULL,
		project_id TEXT NOT NULL,
		task_id TEXT NOT NULL,
		date_key TEXT NOT NULL,
		duration_seconds INTEGER NOT NULL CHECK (duration_seconds >= 0),
		description TEXT,
		billable INTEGER NOT NULL DEFAULT 0,
		source TEXT NOT NULL DEFAULT 'manual',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`

	createEntriesDateIndexSQL = `CREATE INDEX IF NOT EXISTS time_entries_user_date ON time_entries (user_id, date_key)`

	// entry queries
	selectEntrySQL = `
	SELECT e.id, e.user_id, e.client_id, e.project_id, e.task_id, e.date_key,
		e.duration_seconds, e.description, e.billable, e.source,
		COALESCE(c.name, ''), COALESCE(c.nickname, ''),
		COALESCE(p.name, ''), COALESCE(p.nickname, ''),
		COALESCE(t.name, '')
	FROM time_entries e
	LEFT JOIN clients c ON c.id = e.client_id
	LEFT JOIN projects p ON p.id = e.project_id
	LEFT JOIN tasks t ON t.id = e.task_id`

	listEntriesSQL = selectEntrySQL + `
	WHERE (? = '' OR e.user_id = ?) AND e.date_key BETWEEN ? AND ?
	ORDER BY e.date_key, e.rowid`
	getEntrySQL    = selectEntrySQL + ` WHERE e.id = ?`
	insertEntrySQL = `
	INSERT INTO time_entries (id, user_id, client_id, project_id, task_id, date_key, duration_seconds, description, billable, source)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	updateEntrySQL = `UPDATE time_entries SET duration_seconds = ?, description = ?, billable = ? WHERE id = ?`
	deleteEntrySQL = `DELETE FROM time_entries WHERE id = ?`

	// catalogue queries
	listProjectsSQL = `SELECT id, client_id, name, nickname FROM projects WHERE client_id = ? ORDER BY name`
	listTasksSQL    = `
	SELECT t.id, t.project_id, t.name, t.billable
	FROM tasks t JOIN projects p ON p.id = t.project_id
	WHERE p.client_id = ? AND t.project_id = ?
	ORDER BY t.name`
	upsertClientSQL = `
	INSERT INTO clients (id, name, nickname) VALUES (?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET name = excluded.name, nickname = excluded.nickname`
	upsertProjectSQL = `
	INSERT INTO projects (id, client_id, name, nickname) VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET client_id = excluded.client_id, name = excluded.name, nickname = excluded.nickname`
	upsertTaskSQL = `
	INSERT INTO tasks (id, project_id, name, billable) VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET project_id = excluded.project_id, name = excluded.name, billable = excluded.billable`
)

// Store is a SQLite-backed time-entry store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		createClientsTableSQL,
		createProjectsTableSQL,
		createTasksTableSQL,
		createEntriesTableSQL,
		createEntriesDateIndexSQL,
	}
	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (model.TimeEntry, error) {
	var (
		e    model.TimeEntry
		desc sql.NullString
		src  string
	)
	err := row.Scan(&e.ID, &e.UserID, &e.ClientID, &e.ProjectID, &e.TaskID, &e.DateKey,
		&e.DurationSeconds, &desc, &e.Billable, &src,
		&e.Client.Name, &e.Client.Nickname, &e.Project.Name, &e.Project.Nickname, &e.Task.Name)
	if err != nil {
		return model.TimeEntry{}, err
	}
	if desc.Valid {
		d := desc.String
		e.Description = &d
	}
	e.Source = model.Source(src)
	if e.Client.Name != "" {
		e.Client.ID = e.ClientID
	}
	if e.Project.Name != "" {
		e.Project.ID = e.ProjectID
	}
	if e.Task.Name != "" {
		e.Task.ID = e.TaskID
	}
	return e, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

// ListTimeEntries returns the entries of userID dated from..to inclusive. An
// empty userID matches every entry.
func (s *Store) ListTimeEntries(ctx context.Context, userID string, from, to model.DateKey) ([]model.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx, listEntriesSQL, userID, userID, string(from), string(to))
	if err != nil {
		return nil, fmt.Errorf("query time entries: %w", err)
	}
	defer rows.Close()

	var out []model.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan time entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) get(ctx context.Context, id string) (model.TimeEntry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, getEntrySQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.TimeEntry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("get time entry: %w", err)
	}
	return e, nil
}

// CreateTimeEntry inserts a new entry with a fresh id.
func (s *Store) CreateTimeEntry(ctx context.Context, ne model.NewEntry) (model.TimeEntry, error) {
	if ne.DurationSeconds < 0 {
		return model.TimeEntry{}, fmt.Errorf("negative duration %d", ne.DurationSeconds)
	}
	src := ne.Source
	if src == "" {
		src = model.SourceManual
	}
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, insertEntrySQL, id, ne.UserID, ne.ClientID, ne.ProjectID, ne.TaskID,
		string(ne.DateKey), ne.DurationSeconds, nullString(ne.Description), ne.Billable, string(src))
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("insert time entry: %w", err)
	}
	return s.get(ctx, id)
}

// UpdateTimeEntry applies p to the stored entry with the given id.
func (s *Store) UpdateTimeEntry(ctx context.Context, id string, p model.EntryPatch) (model.TimeEntry, error) {
	if p.DurationSeconds != nil && *p.DurationSeconds < 0 {
		return model.TimeEntry{}, fmt.Errorf("negative duration %d", *p.DurationSeconds)
	}
	cur, err := s.get(ctx, id)
	if err != nil {
		return model.TimeEntry{}, err
	}
	next := p.Apply(cur)
	if _, err := s.db.ExecContext(ctx, updateEntrySQL, next.DurationSeconds, nullString(next.Description), next.Billable, id); err != nil {
		return model.TimeEntry{}, fmt.Errorf("update time entry: %w", err)
	}
	return next, nil
}

// DeleteTimeEntry removes the entry with the given id.
func (s *Store) DeleteTimeEntry(ctx context.Context, id string) error {
	return s.BulkDeleteTimeEntries(ctx, []string{id})
}

// BulkDeleteTimeEntries removes every listed entry in one transaction. If any
// id is unknown nothing is deleted.
func (s *Store) BulkDeleteTimeEntries(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		res, err := tx.ExecContext(ctx, deleteEntrySQL, id)
		if err != nil {
			return fmt.Errorf("delete time entry: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	return tx.Commit()
}

// ListProjectsForClient returns the projects of clientID.
func (s *Store) ListProjectsForClient(ctx context.Context, clientID string) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx, listProjectsSQL, clientID)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.Nickname); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListTasksForProject returns the tasks of projectID, provided the project
// belongs to clientID.
func (s *Store) ListTasksForProject(ctx context.Context, clientID, projectID string) ([]model.Task, error) {
	rows, err := s.db.QueryContext(ctx, listTasksSQL, clientID, projectID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Billable); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ImportCatalog upserts every client, project and task of c in one transaction.
func (s *Store) ImportCatalog(ctx context.Context, c model.Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, cl := range c.Clients {
		if _, err := tx.ExecContext(ctx, upsertClientSQL, cl.ID, cl.Name, cl.Nickname); err != nil {
			return fmt.Errorf("import client %s: %w", cl.ID, err)
		}
	}
	for _, p := range c.Projects {
		if _, err := tx.ExecContext(ctx, upsertProjectSQL, p.ID, p.ClientID, p.Name, p.Nickname); err != nil {
			return fmt.Errorf("import project %s: %w", p.ID, err)
		}
	}
	for _, t := range c.Tasks {
		if _, err := tx.ExecContext(ctx, upsertTaskSQL, t.ID, t.ProjectID, t.Name, t.Billable); err != nil {
			return fmt.Errorf("import task %s: %w", t.ID, err)
		}
	}
	return tx.Commit()
}
