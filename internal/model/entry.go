package model

// DateKey identifies one calendar day as "2006-01-02". Dates are naive local
// dates; no timezone is attached.
type DateKey string

// DateLayout is the layout used for DateKey values.
const DateLayout = "2006-01-02"

// Source records how an entry was produced. Display-only.
type Source string

const (
	SourceManual Source = "manual"
	SourceTimer  Source = "timer"
)

// Ref is a read-only display snapshot of a client, project or task.
type Ref struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
}

// Label returns the nickname when set, otherwise the name.
func (r Ref) Label() string {
	if r.Nickname != "" {
		return r.Nickname
	}
	return r.Name
}

// TimeEntry represents a single tracked time entry.
type TimeEntry struct {
	ID              string  `json:"id"`
	UserID          string  `json:"user_id,omitempty"`
	ClientID        string  `json:"client_id"`
	ProjectID       string  `json:"project_id"`
	TaskID          string  `json:"task_id"`
	DateKey         DateKey `json:"date"`
	DurationSeconds int64   `json:"duration_seconds"`
	Description     *string `json:"description"`
	Billable        bool    `json:"billable"`
	Source          Source  `json:"source"`

	Client  Ref `json:"client"`
	Project Ref `json:"project"`
	Task    Ref `json:"task"`
}

// RowKey returns the key of the grid row this entry belongs to.
func (e TimeEntry) RowKey() string {
	return RowKey(e.ProjectID, e.TaskID)
}

// RowKey builds the key for a (project, task) pair.
func RowKey(projectID, taskID string) string {
	return projectID + "-" + taskID
}

// NewEntry is the payload for creating a time entry.
type NewEntry struct {
	UserID          string  `json:"user_id"`
	ClientID        string  `json:"client_id"`
	ProjectID       string  `json:"project_id"`
	TaskID          string  `json:"task_id"`
	DateKey         DateKey `json:"date"`
	DurationSeconds int64   `json:"duration_seconds"`
	Description     *string `json:"description,omitempty"`
	Billable        bool    `json:"billable"`
	Source          Source  `json:"source"`
}

// EntryPatch holds the editable fields of an entry. Nil fields are left unchanged.
type EntryPatch struct {
	DurationSeconds *int64  `json:"duration_seconds,omitempty"`
	Description     *string `json:"description,omitempty"`
	Billable        *bool   `json:"billable,omitempty"`
}

// Apply returns e with the non-nil fields of p applied.
func (p EntryPatch) Apply(e TimeEntry) TimeEntry {
	if p.DurationSeconds != nil {
		e.DurationSeconds = *p.DurationSeconds
	}
	if p.Description != nil {
		d := *p.Description
		e.Description = &d
	}
	if p.Billable != nil {
		e.Billable = *p.Billable
	}
	return e
}

// Project is a catalogue project belonging to a client.
type Project struct {
	ID       string `json:"id"`
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
}

// Task is a catalogue task belonging to a project.
type Task struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Billable  bool   `json:"billable"`
}

// Client is a catalogue client.
type Client struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname,omitempty"`
}

// DayFile is the top-level structure stored in each daily JSON file.
type DayFile struct {
	Date    DateKey     `json:"date"`
	Entries []TimeEntry `json:"entries"`
}

// Catalog lists the clients, projects and tasks known to a local store.
type Catalog struct {
	Clients  []Client  `json:"clients"`
	Projects []Project `json:"projects"`
	Tasks    []Task    `json:"tasks"`
}
