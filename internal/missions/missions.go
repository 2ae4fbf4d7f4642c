// Package missions defines the mission tracker domain: operatives, tasks,
// the task-progression state machine and timer deadline math.
// It has no external dependencies beyond bcrypt for credential checks.
package missions

import (
	"context"
	"errors"
	"time"
)

// MaxImagesPerQuestion caps the images an admin may attach to one question.
const MaxImagesPerQuestion = 5

// DefaultPerformance is the label given to newly created operatives.
const DefaultPerformance = "Operative"

var (
	ErrInvalidCredentials = errors.New("invalid credentials or access code")
	ErrUserNotFound       = errors.New("user not found")
	ErrTaskNotFound       = errors.New("task not found")
	ErrDisqualified       = errors.New("operative disqualified")
	ErrTaskLocked         = errors.New("task is locked")
	ErrAlreadyCompleted   = errors.New("task already completed")
	ErrInvalidItem        = errors.New("invalid item index")
	ErrInvalidCount       = errors.New("invalid attempt count")
	ErrInvalidTask        = errors.New("invalid task")
	ErrTimerDisabled      = errors.New("timer not enabled for task")
	ErrInvalidTimerKind   = errors.New("invalid timer kind")
	ErrTimerNotRunning    = errors.New("no timer running for task")
)

// Document is the whole persisted state. It is read and written as a unit.
type Document struct {
	Users []User `json:"users"`
	Tasks []Task `json:"tasks"`
}

// User returns a pointer into d.Users, or nil.
func (d *Document) User(username string) *User {
	for i := range d.Users {
		if d.Users[i].Username == username {
			return &d.Users[i]
		}
	}
	return nil
}

// VisibleTasks returns the tasks shown to operatives, in order.
// Operative task ids are positions in this slice.
func (d *Document) VisibleTasks() []Task {
	out := make([]Task, 0, len(d.Tasks))
	for _, t := range d.Tasks {
		if t.IsVisible() {
			out = append(out, t)
		}
	}
	return out
}

type User struct {
	Username       string        `json:"username"`
	CompletedTasks int           `json:"completedTasks"`
	ItemsFound     map[int][]int `json:"itemsFound"`
	WrongAttempts  map[int]int   `json:"wrongAttempts"`
	UnlockedTasks  []int         `json:"unlockedTasks,omitempty"`
	Disqualified   bool          `json:"disqualified"`
	Performance    string        `json:"performance"`
	StartTime      time.Time     `json:"startTime"`
}

// NewUser returns an operative with no progress.
func NewUser(username string, now time.Time) User {
	return User{
		Username:      username,
		ItemsFound:    map[int][]int{},
		WrongAttempts: map[int]int{},
		Performance:   DefaultPerformance,
		StartTime:     now.UTC(),
	}
}

type Task struct {
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Password     string     `json:"password,omitempty"`
	TimerEnabled bool       `json:"timerEnabled"`
	Duration     int        `json:"duration"`
	Visible      *bool      `json:"visible,omitempty"`
	Questions    []Question `json:"questions"`
}

// IsVisible reports whether operatives can see the task. A missing flag
// counts as visible.
func (t Task) IsVisible() bool {
	return t.Visible == nil || *t.Visible
}

type Question struct {
	Text   string   `json:"text"`
	Images []string `json:"images,omitempty"`
}

// Store holds the document. Update must apply fn to a freshly read
// document and persist the result, serialised against other Updates.
// If fn returns an error nothing is written.
type Store interface {
	Load(ctx context.Context) (Document, error)
	Update(ctx context.Context, fn func(*Document) error) error
}

// TimerStore persists absolute timer deadlines.
type TimerStore interface {
	Deadline(ctx context.Context, key TimerKey) (time.Time, bool, error)
	SetDeadline(ctx context.Context, key TimerKey, end time.Time) error
	Clear(ctx context.Context, key TimerKey) error
}

// Event describes a change observers may care about.
type Event struct {
	Type      string `json:"type"`
	Username  string `json:"username"`
	TaskID    int    `json:"taskId"`
	Remaining int    `json:"remaining,omitempty"`
}

// Publisher receives events after successful mutations.
type Publisher interface {
	Publish(topic string, e Event)
}

// AdminTopic carries every user mutation for the admin monitor.
const AdminTopic = "admin"
