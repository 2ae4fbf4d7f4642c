package missions

import (
	"fmt"
	"slices"
	"strings"
)

type TaskState string

const (
	StateLocked             TaskState = "LOCKED"
	StateUnlocked           TaskState = "UNLOCKED"
	StateInProgress         TaskState = "IN_PROGRESS"
	StateItemsPendingSubmit TaskState = "ITEMS_PENDING_SUBMIT"
	StateCompleted          TaskState = "COMPLETED"
	StateExtracting         TaskState = "EXTRACTING"
)

// UnlockInput is the full set of facts the unlock decision depends on.
type UnlockInput struct {
	Index            int
	CompletedTasks   int
	TotalTasks       int
	HasValidPassword bool
	HasActiveTimer   bool
}

type unlockRule struct {
	name  string
	match func(UnlockInput) bool
}

// unlockRules is evaluated in order; the first match unlocks.
var unlockRules = []unlockRule{
	{"game finished", func(in UnlockInput) bool { return in.TotalTasks > 0 && in.CompletedTasks >= in.TotalTasks }},
	{"in sequence", func(in UnlockInput) bool { return in.Index <= in.CompletedTasks }},
	{"password", func(in UnlockInput) bool { return in.HasValidPassword }},
	{"active timer", func(in UnlockInput) bool { return in.HasActiveTimer }},
}

// Unlocked reports whether a task may be opened and, if so, which rule
// granted access.
func Unlocked(in UnlockInput) (bool, string) {
	for _, r := range unlockRules {
		if r.match(in) {
			return true, r.name
		}
	}
	return false, ""
}

// TimerFlags reports which timer records exist for a (user, task).
type TimerFlags struct {
	Mission    bool
	Extraction bool
}

// StateOf projects the progression state of task index for u.
func StateOf(u *User, index int, task Task, totalTasks int, timers TimerFlags) TaskState {
	finished := totalTasks > 0 && u.CompletedTasks >= totalTasks
	if index < u.CompletedTasks || finished {
		if timers.Extraction {
			return StateExtracting
		}
		return StateCompleted
	}

	ok, _ := Unlocked(UnlockInput{
		Index:            index,
		CompletedTasks:   u.CompletedTasks,
		TotalTasks:       totalTasks,
		HasValidPassword: u.IsUnlocked(index),
		HasActiveTimer:   timers.Mission,
	})
	if !ok {
		return StateLocked
	}

	switch {
	case u.AllItemsSecured(index, len(task.Questions)):
		return StateItemsPendingSubmit
	case timers.Mission || len(u.ItemsFound[index]) > 0:
		return StateInProgress
	default:
		return StateUnlocked
	}
}

// IsUnlocked reports whether index was unlocked out of sequence by password.
func (u *User) IsUnlocked(index int) bool {
	return slices.Contains(u.UnlockedTasks, index)
}

func (u *User) markUnlocked(index int) {
	if !u.IsUnlocked(index) {
		u.UnlockedTasks = append(u.UnlockedTasks, index)
		slices.Sort(u.UnlockedTasks)
	}
}

// ToggleItem flips membership of item in the task's found set and returns
// the resulting set in ascending order.
func (u *User) ToggleItem(task, item int) []int {
	if u.ItemsFound == nil {
		u.ItemsFound = map[int][]int{}
	}
	items := u.ItemsFound[task]
	if i := slices.Index(items, item); i >= 0 {
		items = slices.Delete(items, i, i+1)
	} else {
		items = append(items, item)
	}
	slices.Sort(items)
	if items == nil {
		items = []int{}
	}
	u.ItemsFound[task] = items
	return slices.Clone(items)
}

// AllItemsSecured reports whether every one of questions items is found.
// A task with no questions has nothing to secure.
func (u *User) AllItemsSecured(task, questions int) bool {
	if questions == 0 {
		return false
	}
	found := u.ItemsFound[task]
	for q := range questions {
		if !slices.Contains(found, q) {
			return false
		}
	}
	return true
}

// SetAttempts records count wrong attempts for task. Counts never go down
// and reaching limit disqualifies the user. It returns the disqualified flag.
func (u *User) SetAttempts(task, count, limit int) bool {
	if u.WrongAttempts == nil {
		u.WrongAttempts = map[int]int{}
	}
	if count > u.WrongAttempts[task] {
		u.WrongAttempts[task] = count
	}
	if u.WrongAttempts[task] >= limit {
		u.Disqualified = true
	}
	return u.Disqualified
}

// RecordWrongAttempt increments the task's counter.
func (u *User) RecordWrongAttempt(task, limit int) (int, bool) {
	n := u.WrongAttempts[task] + 1
	disq := u.SetAttempts(task, n, limit)
	return n, disq
}

// CheckPassword verifies a password for an out-of-sequence unlock. On
// success the task is remembered as unlocked; on failure the attempt is
// counted against limit.
func (u *User) CheckPassword(task int, stored, given string, limit int) (bool, error) {
	if stored == "" {
		return false, fmt.Errorf("task %d: %w", task, ErrTaskLocked)
	}
	if strings.TrimSpace(given) == strings.TrimSpace(stored) {
		u.markUnlocked(task)
		return true, nil
	}
	u.RecordWrongAttempt(task, limit)
	return false, nil
}

// Complete advances CompletedTasks past index. Completing an index below
// CompletedTasks is rejected so the counter never moves backwards.
func (u *User) Complete(index int) error {
	if index < u.CompletedTasks {
		return ErrAlreadyCompleted
	}
	u.CompletedTasks = max(u.CompletedTasks, index+1)
	return nil
}

// Reinstate clears disqualification and every attempt counter.
func (u *User) Reinstate() {
	u.Disqualified = false
	u.WrongAttempts = map[int]int{}
}

// Reset rewinds sequential progress. Found items are kept.
func (u *User) Reset() {
	u.CompletedTasks = 0
	u.UnlockedTasks = nil
}
