package missions

import (
	"errors"
	"slices"
	"testing"
	"time"
)

func TestUnlockedDecisionTable(t *testing.T) {
	tests := []struct {
		name     string
		in       UnlockInput
		want     bool
		wantRule string
	}{
		{"first task", UnlockInput{Index: 0, CompletedTasks: 0, TotalTasks: 3}, true, "in sequence"},
		{"next in sequence", UnlockInput{Index: 2, CompletedTasks: 2, TotalTasks: 3}, true, "in sequence"},
		{"ahead of sequence", UnlockInput{Index: 2, CompletedTasks: 1, TotalTasks: 3}, false, ""},
		{"password", UnlockInput{Index: 2, CompletedTasks: 0, TotalTasks: 3, HasValidPassword: true}, true, "password"},
		{"active timer survives reload", UnlockInput{Index: 2, CompletedTasks: 0, TotalTasks: 3, HasActiveTimer: true}, true, "active timer"},
		{"game finished", UnlockInput{Index: 5, CompletedTasks: 3, TotalTasks: 3}, true, "game finished"},
		{"no tasks at all", UnlockInput{Index: 1, CompletedTasks: 0, TotalTasks: 0}, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rule := Unlocked(tt.in)
			if got != tt.want || rule != tt.wantRule {
				t.Errorf("Unlocked(%+v) = %v %q, want %v %q", tt.in, got, rule, tt.want, tt.wantRule)
			}
		})
	}
}

func TestStateOf(t *testing.T) {
	task := Task{Title: "t", Questions: []Question{{Text: "a"}, {Text: "b"}}}

	tests := []struct {
		name   string
		user   User
		index  int
		timers TimerFlags
		want   TaskState
	}{
		{"locked", User{CompletedTasks: 0}, 1, TimerFlags{}, StateLocked},
		{"unlocked", User{CompletedTasks: 1}, 1, TimerFlags{}, StateUnlocked},
		{"in progress by timer", User{CompletedTasks: 1}, 1, TimerFlags{Mission: true}, StateInProgress},
		{"in progress by item", User{CompletedTasks: 1, ItemsFound: map[int][]int{1: {0}}}, 1, TimerFlags{}, StateInProgress},
		{"items pending submit", User{CompletedTasks: 1, ItemsFound: map[int][]int{1: {1, 0}}}, 1, TimerFlags{}, StateItemsPendingSubmit},
		{"completed", User{CompletedTasks: 2}, 1, TimerFlags{}, StateCompleted},
		{"extracting", User{CompletedTasks: 2}, 1, TimerFlags{Extraction: true}, StateExtracting},
		{"password unlocked", User{UnlockedTasks: []int{2}}, 2, TimerFlags{}, StateUnlocked},
		{"finished game", User{CompletedTasks: 3}, 2, TimerFlags{}, StateCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StateOf(&tt.user, tt.index, task, 3, tt.timers); got != tt.want {
				t.Errorf("StateOf = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestToggleItemTwiceRestores(t *testing.T) {
	u := NewUser("alice", time.Now())
	u.ItemsFound[0] = []int{2}
	before := slices.Clone(u.ItemsFound[0])

	if got := u.ToggleItem(0, 1); !slices.Equal(got, []int{1, 2}) {
		t.Fatalf("after first toggle = %v, want [1 2]", got)
	}
	if got := u.ToggleItem(0, 1); !slices.Equal(got, before) {
		t.Fatalf("after second toggle = %v, want %v", got, before)
	}
}

func TestToggleItemOnFreshUser(t *testing.T) {
	var u User
	if got := u.ToggleItem(4, 0); !slices.Equal(got, []int{0}) {
		t.Errorf("toggle = %v, want [0]", got)
	}
	if got := u.ToggleItem(4, 0); got == nil || len(got) != 0 {
		t.Errorf("toggle back = %#v, want empty non-nil", got)
	}
}

func TestCompleteIsMonotonic(t *testing.T) {
	u := NewUser("alice", time.Now())
	seq := []int{0, 1, 0, 3, 2, 1, 4}
	prev := u.CompletedTasks
	for _, idx := range seq {
		err := u.Complete(idx)
		if u.CompletedTasks < prev {
			t.Fatalf("completedTasks went from %d to %d on index %d", prev, u.CompletedTasks, idx)
		}
		if idx < prev && !errors.Is(err, ErrAlreadyCompleted) {
			t.Errorf("Complete(%d) with completed=%d: err = %v, want ErrAlreadyCompleted", idx, prev, err)
		}
		prev = u.CompletedTasks
	}
	if u.CompletedTasks != 5 {
		t.Errorf("completedTasks = %d, want 5", u.CompletedTasks)
	}
}

func TestFiveWrongAttemptsDisqualify(t *testing.T) {
	u := NewUser("alice", time.Now())
	for i := 1; i <= 4; i++ {
		n, disq := u.RecordWrongAttempt(3, 5)
		if n != i || disq {
			t.Fatalf("attempt %d: count=%d disq=%v", i, n, disq)
		}
	}
	if _, disq := u.RecordWrongAttempt(3, 5); !disq {
		t.Fatal("fifth wrong attempt must disqualify")
	}

	// A lower count cannot undo it.
	if !u.SetAttempts(3, 0, 5) {
		t.Error("disqualification must be sticky")
	}

	u.Reinstate()
	if u.Disqualified || len(u.WrongAttempts) != 0 {
		t.Errorf("reinstate left disq=%v attempts=%v", u.Disqualified, u.WrongAttempts)
	}
}

func TestCheckPassword(t *testing.T) {
	u := NewUser("alice", time.Now())

	ok, err := u.CheckPassword(2, "BLACKBOX", "wrong", 5)
	if err != nil || ok {
		t.Fatalf("wrong password: ok=%v err=%v", ok, err)
	}
	if u.WrongAttempts[2] != 1 {
		t.Errorf("wrongAttempts[2] = %d, want 1", u.WrongAttempts[2])
	}

	ok, err = u.CheckPassword(2, "BLACKBOX", " BLACKBOX ", 5)
	if err != nil || !ok {
		t.Fatalf("right password: ok=%v err=%v", ok, err)
	}
	if !u.IsUnlocked(2) {
		t.Error("task 2 should be remembered as unlocked")
	}

	if _, err := u.CheckPassword(1, "", "anything", 5); !errors.Is(err, ErrTaskLocked) {
		t.Errorf("task without password: err = %v, want ErrTaskLocked", err)
	}
}

func TestVisibleTasks(t *testing.T) {
	hidden := false
	shown := true
	d := Document{Tasks: []Task{
		{Title: "a"},
		{Title: "b", Visible: &hidden},
		{Title: "c", Visible: &shown},
	}}
	got := d.VisibleTasks()
	if len(got) != 2 || got[0].Title != "a" || got[1].Title != "c" {
		t.Errorf("VisibleTasks = %+v", got)
	}
}
