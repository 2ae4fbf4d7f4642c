package missions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Rules are the tunable progression constants.
type Rules struct {
	MaxWrongAttempts   int
	ExtractionDuration time.Duration
}

// DefaultRules are five strikes and a one minute
// extraction window.
var DefaultRules = Rules{
	MaxWrongAttempts:   5,
	ExtractionDuration: 60 * time.Second,
}

// Next screens returned by completion and timer expiry.
const (
	NextExtraction = "extraction"
	NextTaskList   = "task-list"

	ActionAutoSubmitted = "auto-submitted"
	ActionReturnToList  = "return-to-list"
)

// errNoChange aborts an Update without writing and without failing the call.
var errNoChange = errors.New("no change")

// Service implements the operative and admin operations over a Store and a
// TimerStore. Every mutation is one Store.Update.
type Service struct {
	store  Store
	timers TimerStore
	creds  *Credentials
	rules  Rules
	events Publisher
	now    func() time.Time
	tick   time.Duration
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithTickInterval sets how often WatchTimer re-reads a deadline.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) { s.tick = d }
}

func NewService(store Store, timers TimerStore, creds *Credentials, rules Rules, opts ...Option) *Service {
	if rules.MaxWrongAttempts <= 0 {
		rules.MaxWrongAttempts = DefaultRules.MaxWrongAttempts
	}
	if rules.ExtractionDuration <= 0 {
		rules.ExtractionDuration = DefaultRules.ExtractionDuration
	}
	s := &Service{
		store:  store,
		timers: timers,
		creds:  creds,
		rules:  rules,
		now:    time.Now,
		tick:   time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) publish(typ, username string, taskID int) {
	if s.events == nil {
		return
	}
	s.events.Publish(AdminTopic, Event{Type: typ, Username: username, TaskID: taskID})
}

func (s *Service) update(ctx context.Context, fn func(*Document) error) error {
	err := s.store.Update(ctx, fn)
	if errors.Is(err, errNoChange) {
		return nil
	}
	return err
}

// operative resolves a user and the visible task for a user-side call.
func operative(d *Document, username string, taskID int) (*User, Task, []Task, error) {
	u := d.User(username)
	if u == nil {
		return nil, Task{}, nil, ErrUserNotFound
	}
	tasks := d.VisibleTasks()
	if taskID < 0 || taskID >= len(tasks) {
		return u, Task{}, tasks, fmt.Errorf("task %d: %w", taskID, ErrTaskNotFound)
	}
	return u, tasks[taskID], tasks, nil
}

// LoginResult is the outcome of a successful credential check.
type LoginResult struct {
	Role Role
	User *User
}

// Login authenticates and, for operatives, returns the user record,
// creating it on first login. A disqualified operative gets the record
// together with ErrDisqualified.
func (s *Service) Login(ctx context.Context, username, password string) (LoginResult, error) {
	username = strings.TrimSpace(username)
	role, err := s.creds.Authenticate(username, password)
	if err != nil {
		return LoginResult{}, err
	}
	if role == RoleAdmin {
		return LoginResult{Role: RoleAdmin}, nil
	}

	doc, err := s.store.Load(ctx)
	if err != nil {
		return LoginResult{}, fmt.Errorf("loading document: %w", err)
	}
	u := doc.User(username)
	if u == nil {
		var created User
		err := s.update(ctx, func(d *Document) error {
			if existing := d.User(username); existing != nil {
				created = *existing
				return errNoChange
			}
			created = NewUser(username, s.now())
			d.Users = append(d.Users, created)
			return nil
		})
		if err != nil {
			return LoginResult{}, fmt.Errorf("creating operative: %w", err)
		}
		s.publish("user_created", username, 0)
		u = &created
	}
	if u.Disqualified {
		return LoginResult{Role: RoleUser, User: u}, ErrDisqualified
	}
	return LoginResult{Role: RoleUser, User: u}, nil
}

// AdminLogin accepts only the admin pair. Unlike Login it never creates
// an operative record.
func (s *Service) AdminLogin(username, password string) error {
	role, err := s.creds.Authenticate(strings.TrimSpace(username), password)
	if err != nil {
		return err
	}
	if role != RoleAdmin {
		return ErrInvalidCredentials
	}
	return nil
}

// Tasks returns the operative-visible task list.
func (s *Service) Tasks(ctx context.Context) ([]Task, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	return doc.VisibleTasks(), nil
}

type TaskProgress struct {
	TaskID int       `json:"taskId"`
	Title  string    `json:"title"`
	State  TaskState `json:"state"`
}

type ProgressReport struct {
	User  User           `json:"userData"`
	Tasks []TaskProgress `json:"tasks"`
}

// Progress projects every visible task's state for username.
func (s *Service) Progress(ctx context.Context, username string) (ProgressReport, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return ProgressReport{}, fmt.Errorf("loading document: %w", err)
	}
	u := doc.User(username)
	if u == nil {
		return ProgressReport{}, ErrUserNotFound
	}
	tasks := doc.VisibleTasks()
	out := make([]TaskProgress, 0, len(tasks))
	for i, t := range tasks {
		flags, err := s.timerFlags(ctx, username, i)
		if err != nil {
			return ProgressReport{}, err
		}
		out = append(out, TaskProgress{
			TaskID: i,
			Title:  t.Title,
			State:  StateOf(u, i, t, len(tasks), flags),
		})
	}
	return ProgressReport{User: *u, Tasks: out}, nil
}

func (s *Service) timerFlags(ctx context.Context, username string, taskID int) (TimerFlags, error) {
	m, err := s.activeTimer(ctx, TimerKey{Kind: TimerMission, Username: username, TaskID: taskID})
	if err != nil {
		return TimerFlags{}, err
	}
	e, err := s.activeTimer(ctx, TimerKey{Kind: TimerExtraction, Username: username, TaskID: taskID})
	if err != nil {
		return TimerFlags{}, err
	}
	return TimerFlags{Mission: m, Extraction: e}, nil
}

func (s *Service) activeTimer(ctx context.Context, key TimerKey) (bool, error) {
	end, ok, err := s.timers.Deadline(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reading timer %s: %w", key, err)
	}
	return ok && Remaining(s.now(), end) > 0, nil
}

type UnlockResult struct {
	Unlocked     bool `json:"unlocked"`
	Attempts     int  `json:"attempts"`
	Disqualified bool `json:"disqualified"`
}

// UnlockTask checks a password for an out-of-sequence task. Tasks already
// open are reported unlocked without touching the attempt counter.
func (s *Service) UnlockTask(ctx context.Context, username string, taskID int, password string) (UnlockResult, error) {
	active, err := s.activeTimer(ctx, TimerKey{Kind: TimerMission, Username: username, TaskID: taskID})
	if err != nil {
		return UnlockResult{}, err
	}

	var res UnlockResult
	err = s.update(ctx, func(d *Document) error {
		u, task, tasks, err := operative(d, username, taskID)
		if err != nil {
			return err
		}
		if u.Disqualified {
			return ErrDisqualified
		}
		ok, _ := Unlocked(UnlockInput{
			Index:            taskID,
			CompletedTasks:   u.CompletedTasks,
			TotalTasks:       len(tasks),
			HasValidPassword: u.IsUnlocked(taskID),
			HasActiveTimer:   active,
		})
		if ok {
			res = UnlockResult{Unlocked: true, Attempts: u.WrongAttempts[taskID]}
			return errNoChange
		}
		match, err := u.CheckPassword(taskID, task.Password, password, s.rules.MaxWrongAttempts)
		if err != nil {
			return err
		}
		res = UnlockResult{Unlocked: match, Attempts: u.WrongAttempts[taskID], Disqualified: u.Disqualified}
		return nil
	})
	if err != nil {
		return UnlockResult{}, err
	}
	if !res.Unlocked || res.Disqualified {
		s.publish("wrong_attempt", username, taskID)
	}
	return res, nil
}

// UpdateAttempts stores a client-side attempt count. A user already
// disqualified is reported as such and nothing is written.
func (s *Service) UpdateAttempts(ctx context.Context, username string, taskID, count int) (bool, error) {
	if count < 0 {
		return false, ErrInvalidCount
	}
	var disq bool
	err := s.update(ctx, func(d *Document) error {
		u, _, _, err := operative(d, username, taskID)
		if err != nil {
			return err
		}
		if u.Disqualified {
			disq = true
			return errNoChange
		}
		disq = u.SetAttempts(taskID, count, s.rules.MaxWrongAttempts)
		return nil
	})
	if err != nil {
		return false, err
	}
	s.publish("attempts_updated", username, taskID)
	return disq, nil
}

// ToggleItem flips one intel item for the operative.
func (s *Service) ToggleItem(ctx context.Context, username string, taskID, item int) ([]int, error) {
	return s.toggleItem(ctx, username, taskID, item, false)
}

// AdminToggleItem flips one intel item on behalf of any operative,
// disqualified or not.
func (s *Service) AdminToggleItem(ctx context.Context, username string, taskID, item int) ([]int, error) {
	return s.toggleItem(ctx, username, taskID, item, true)
}

func (s *Service) toggleItem(ctx context.Context, username string, taskID, item int, admin bool) ([]int, error) {
	var active bool
	if !admin {
		var err error
		active, err = s.activeTimer(ctx, TimerKey{Kind: TimerMission, Username: username, TaskID: taskID})
		if err != nil {
			return nil, err
		}
	}

	var items []int
	err := s.update(ctx, func(d *Document) error {
		u, task, tasks, err := operative(d, username, taskID)
		if err != nil {
			return err
		}
		if !admin {
			if u.Disqualified {
				return ErrDisqualified
			}
			open, _ := Unlocked(UnlockInput{
				Index:            taskID,
				CompletedTasks:   u.CompletedTasks,
				TotalTasks:       len(tasks),
				HasValidPassword: u.IsUnlocked(taskID),
				HasActiveTimer:   active,
			})
			if !open {
				return fmt.Errorf("task %d: %w", taskID, ErrTaskLocked)
			}
		}
		if item < 0 || item >= len(task.Questions) {
			return fmt.Errorf("item %d of task %d: %w", item, taskID, ErrInvalidItem)
		}
		items = u.ToggleItem(taskID, item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publish("item_toggled", username, taskID)
	return items, nil
}

type CompletionResult struct {
	User       User         `json:"userData"`
	Next       string       `json:"next"`
	Extraction *TimerStatus `json:"extraction,omitempty"`
}

// CompleteTask submits taskID as done. When every question's item is
// secured the extraction timer starts; otherwise the operative goes back
// to the task list.
func (s *Service) CompleteTask(ctx context.Context, username string, taskID int) (CompletionResult, error) {
	return s.complete(ctx, username, taskID, false)
}

func (s *Service) complete(ctx context.Context, username string, taskID int, auto bool) (CompletionResult, error) {
	missionKey := TimerKey{Kind: TimerMission, Username: username, TaskID: taskID}
	active, err := s.activeTimer(ctx, missionKey)
	if err != nil {
		return CompletionResult{}, err
	}

	var (
		user    User
		secured bool
	)
	err = s.update(ctx, func(d *Document) error {
		u, task, tasks, err := operative(d, username, taskID)
		if err != nil {
			return err
		}
		if u.Disqualified {
			return ErrDisqualified
		}
		ok, _ := Unlocked(UnlockInput{
			Index:            taskID,
			CompletedTasks:   u.CompletedTasks,
			TotalTasks:       len(tasks),
			HasValidPassword: u.IsUnlocked(taskID),
			HasActiveTimer:   active || auto,
		})
		if !ok {
			return fmt.Errorf("task %d: %w", taskID, ErrTaskLocked)
		}
		if err := u.Complete(taskID); err != nil {
			return err
		}
		secured = u.AllItemsSecured(taskID, len(task.Questions))
		user = *u
		return nil
	})
	if err != nil {
		return CompletionResult{}, err
	}

	if err := s.timers.Clear(ctx, missionKey); err != nil {
		return CompletionResult{}, fmt.Errorf("clearing mission timer: %w", err)
	}
	s.publish("task_completed", username, taskID)

	res := CompletionResult{User: user, Next: NextTaskList}
	if !secured {
		return res, nil
	}
	key := TimerKey{Kind: TimerExtraction, Username: username, TaskID: taskID}
	end := s.now().Add(s.rules.ExtractionDuration)
	if err := s.timers.SetDeadline(ctx, key, end); err != nil {
		return CompletionResult{}, fmt.Errorf("starting extraction timer: %w", err)
	}
	st := s.status(key, end)
	res.Next = NextExtraction
	res.Extraction = &st
	return res, nil
}

type TimerStatus struct {
	Kind      TimerKind  `json:"kind"`
	TaskID    int        `json:"taskId"`
	Active    bool       `json:"active"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	Remaining int        `json:"remaining"`
	Expired   bool       `json:"expired,omitempty"`
	Action    string     `json:"action,omitempty"`
}

func (s *Service) status(key TimerKey, end time.Time) TimerStatus {
	left := Remaining(s.now(), end)
	return TimerStatus{
		Kind:      key.Kind,
		TaskID:    key.TaskID,
		Active:    left > 0,
		EndTime:   &end,
		Remaining: left,
	}
}

// StartTimer begins a mission countdown, or resumes the persisted one if it
// is still running. A fresh duration is used only the first time an open,
// uncompleted task is started. Extraction countdowns are created by
// CompleteTask and can only be resumed here.
func (s *Service) StartTimer(ctx context.Context, kind TimerKind, username string, taskID int) (TimerStatus, error) {
	key := TimerKey{Kind: kind, Username: username, TaskID: taskID}
	end, ok, err := s.timers.Deadline(ctx, key)
	if err != nil {
		return TimerStatus{}, fmt.Errorf("reading timer %s: %w", key, err)
	}
	if ok && Remaining(s.now(), end) > 0 {
		return s.status(key, end), nil
	}
	if ok {
		// A stale record means the expiry was never observed.
		return s.expire(ctx, key)
	}

	doc, err := s.store.Load(ctx)
	if err != nil {
		return TimerStatus{}, fmt.Errorf("loading document: %w", err)
	}
	u, task, tasks, err := operative(&doc, username, taskID)
	if err != nil {
		return TimerStatus{}, err
	}
	if u.Disqualified {
		return TimerStatus{}, ErrDisqualified
	}

	var d time.Duration
	switch kind {
	case TimerMission:
		if !task.TimerEnabled || task.Duration <= 0 {
			return TimerStatus{}, fmt.Errorf("task %d: %w", taskID, ErrTimerDisabled)
		}
		open, _ := Unlocked(UnlockInput{
			Index:            taskID,
			CompletedTasks:   u.CompletedTasks,
			TotalTasks:       len(tasks),
			HasValidPassword: u.IsUnlocked(taskID),
		})
		if !open {
			return TimerStatus{}, fmt.Errorf("task %d: %w", taskID, ErrTaskLocked)
		}
		if taskID < u.CompletedTasks {
			return TimerStatus{}, fmt.Errorf("task %d: %w", taskID, ErrAlreadyCompleted)
		}
		d = time.Duration(task.Duration) * time.Second
	case TimerExtraction:
		return TimerStatus{}, fmt.Errorf("extraction for task %d: %w", taskID, ErrTimerNotRunning)
	default:
		return TimerStatus{}, ErrInvalidTimerKind
	}

	end = s.now().Add(d)
	if err := s.timers.SetDeadline(ctx, key, end); err != nil {
		return TimerStatus{}, fmt.Errorf("starting timer %s: %w", key, err)
	}
	return s.status(key, end), nil
}

// TimerStatus reconciles a timer against its persisted deadline. An expired
// record is cleared and its terminal action runs.
func (s *Service) TimerStatus(ctx context.Context, kind TimerKind, username string, taskID int) (TimerStatus, error) {
	key := TimerKey{Kind: kind, Username: username, TaskID: taskID}
	end, ok, err := s.timers.Deadline(ctx, key)
	if err != nil {
		return TimerStatus{}, fmt.Errorf("reading timer %s: %w", key, err)
	}
	if !ok {
		return TimerStatus{Kind: kind, TaskID: taskID}, nil
	}
	if Remaining(s.now(), end) > 0 {
		return s.status(key, end), nil
	}
	return s.expire(ctx, key)
}

// WatchTimer ticks onTick until the timer expires, is cleared, or ctx ends.
func (s *Service) WatchTimer(ctx context.Context, kind TimerKind, username string, taskID int, onTick func(TimerStatus)) (TimerStatus, error) {
	key := TimerKey{Kind: kind, Username: username, TaskID: taskID}
	c := Countdown{Timers: s.timers, Key: key, Interval: s.tick, Now: s.now}
	res, err := c.Run(ctx, func(left int) {
		onTick(TimerStatus{Kind: kind, TaskID: taskID, Active: true, Remaining: left})
	})
	if err != nil {
		return TimerStatus{}, err
	}
	switch res {
	case CountdownExpired:
		return s.terminal(ctx, key)
	default:
		return TimerStatus{Kind: kind, TaskID: taskID}, nil
	}
}

func (s *Service) expire(ctx context.Context, key TimerKey) (TimerStatus, error) {
	if err := s.timers.Clear(ctx, key); err != nil {
		return TimerStatus{}, fmt.Errorf("clearing timer %s: %w", key, err)
	}
	return s.terminal(ctx, key)
}

// terminal runs the expiry action of an already cleared timer.
func (s *Service) terminal(ctx context.Context, key TimerKey) (TimerStatus, error) {
	st := TimerStatus{Kind: key.Kind, TaskID: key.TaskID, Expired: true}
	switch key.Kind {
	case TimerMission:
		_, err := s.complete(ctx, key.Username, key.TaskID, true)
		if err != nil && !errors.Is(err, ErrAlreadyCompleted) && !errors.Is(err, ErrDisqualified) {
			return TimerStatus{}, fmt.Errorf("auto-submitting task %d: %w", key.TaskID, err)
		}
		st.Action = ActionAutoSubmitted
	case TimerExtraction:
		st.Action = ActionReturnToList
	}
	s.publish("timer_expired", key.Username, key.TaskID)
	return st, nil
}

// Snapshot returns the whole document for the admin console.
func (s *Service) Snapshot(ctx context.Context) (Document, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("loading document: %w", err)
	}
	if doc.Users == nil {
		doc.Users = []User{}
	}
	if doc.Tasks == nil {
		doc.Tasks = []Task{}
	}
	return doc, nil
}

// ValidateTask normalises t and reports the first problem found.
func ValidateTask(t *Task) error {
	t.Title = strings.TrimSpace(t.Title)
	if t.Title == "" {
		return fmt.Errorf("title is required: %w", ErrInvalidTask)
	}
	if t.Duration < 0 {
		return fmt.Errorf("duration must not be negative: %w", ErrInvalidTask)
	}
	if t.TimerEnabled && t.Duration == 0 {
		return fmt.Errorf("timer needs a duration: %w", ErrInvalidTask)
	}
	for i, q := range t.Questions {
		if len(q.Images) > MaxImagesPerQuestion {
			return fmt.Errorf("question %d has more than %d images: %w", i+1, MaxImagesPerQuestion, ErrInvalidTask)
		}
	}
	return nil
}

// SaveTasks replaces the whole task list.
func (s *Service) SaveTasks(ctx context.Context, tasks []Task) error {
	for i := range tasks {
		if err := ValidateTask(&tasks[i]); err != nil {
			return fmt.Errorf("task %d: %w", i+1, err)
		}
	}
	if tasks == nil {
		tasks = []Task{}
	}
	if err := s.store.Update(ctx, func(d *Document) error {
		d.Tasks = tasks
		return nil
	}); err != nil {
		return err
	}
	s.publish("tasks_saved", "", 0)
	return nil
}

// ResetUser rewinds an operative to the first task and drops their timers.
func (s *Service) ResetUser(ctx context.Context, username string) error {
	var total int
	err := s.store.Update(ctx, func(d *Document) error {
		u := d.User(username)
		if u == nil {
			return ErrUserNotFound
		}
		u.Reset()
		total = len(d.VisibleTasks())
		return nil
	})
	if err != nil {
		return err
	}
	for i := range total {
		for _, k := range []TimerKind{TimerMission, TimerExtraction} {
			if err := s.timers.Clear(ctx, TimerKey{Kind: k, Username: username, TaskID: i}); err != nil {
				return fmt.Errorf("clearing timers: %w", err)
			}
		}
	}
	s.publish("user_reset", username, 0)
	return nil
}

// SetDisqualified disqualifies or reinstates an operative. Reinstatement
// also clears every wrong attempt counter.
func (s *Service) SetDisqualified(ctx context.Context, username string, disqualified bool) error {
	err := s.store.Update(ctx, func(d *Document) error {
		u := d.User(username)
		if u == nil {
			return ErrUserNotFound
		}
		if disqualified {
			u.Disqualified = true
		} else {
			u.Reinstate()
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish("disqualification_changed", username, 0)
	return nil
}
