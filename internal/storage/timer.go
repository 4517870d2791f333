package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Timer is a running stopwatch for one grid row. It is kept in
// <base>/timer.json until stopped.
type Timer struct {
	RowKey      string    `json:"row_key,omitempty"`
	ClientID    string    `json:"client_id,omitempty"`
	ProjectID   string    `json:"project_id,omitempty"`
	TaskID      string    `json:"task_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Billable    bool      `json:"billable,omitempty"`
	Start       time.Time `json:"start"`
}

func timerPath(base string) string {
	return filepath.Join(base, "timer.json")
}

// LoadTimer returns the running timer, or nil if none is running.
func LoadTimer(base string) (*Timer, error) {
	path := timerPath(base)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", path, err)
	}
	var t Timer
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("corrupt timer file %s (delete it to reset): %w", path, err)
	}
	return &t, nil
}

// SaveTimer atomically writes the running timer.
func SaveTimer(base string, t Timer) error {
	return writeJSON(timerPath(base), t)
}

// ClearTimer removes the running timer. Clearing when none runs is not an error.
func ClearTimer(base string) error {
	if err := os.Remove(timerPath(base)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage error removing timer: %w", err)
	}
	return nil
}
