package missions

import (
	"context"
	"fmt"
	"time"
)

type TimerKind string

const (
	TimerMission    TimerKind = "mission"
	TimerExtraction TimerKind = "extraction"
)

// ParseTimerKind validates a kind received from a client.
func ParseTimerKind(s string) (TimerKind, error) {
	switch k := TimerKind(s); k {
	case TimerMission, TimerExtraction:
		return k, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrInvalidTimerKind)
	}
}

type TimerKey struct {
	Kind     TimerKind
	Username string
	TaskID   int
}

func (k TimerKey) String() string {
	return fmt.Sprintf("%s:%s:%d", k.Kind, k.Username, k.TaskID)
}

// Remaining returns whole seconds left until deadline, rounded up, and
// never negative. It depends only on its arguments, so any scheduler may
// call it at any cadence and still report the same value for the same now.
func Remaining(now, deadline time.Time) int {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// Countdown drives a persisted timer. Each tick re-reads the deadline from
// the store; there is no local counter to drift.
type Countdown struct {
	Timers   TimerStore
	Key      TimerKey
	Interval time.Duration
	Now      func() time.Time
}

// CountdownResult says why Run returned.
type CountdownResult int

const (
	CountdownCancelled CountdownResult = iota
	CountdownCleared
	CountdownExpired
)

// Run calls onTick with the remaining seconds immediately and then on every
// interval. It returns CountdownExpired after clearing the record once the
// deadline passes, CountdownCleared if the record disappears, and
// CountdownCancelled when ctx ends.
func (c *Countdown) Run(ctx context.Context, onTick func(remaining int)) (CountdownResult, error) {
	interval := c.Interval
	if interval <= 0 {
		interval = time.Second
	}
	now := c.Now
	if now == nil {
		now = time.Now
	}

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		end, ok, err := c.Timers.Deadline(ctx, c.Key)
		if err != nil {
			if ctx.Err() != nil {
				return CountdownCancelled, nil
			}
			return CountdownCancelled, fmt.Errorf("reading deadline %s: %w", c.Key, err)
		}
		if !ok {
			return CountdownCleared, nil
		}

		left := Remaining(now(), end)
		if left <= 0 {
			if err := c.Timers.Clear(ctx, c.Key); err != nil {
				return CountdownExpired, fmt.Errorf("clearing deadline %s: %w", c.Key, err)
			}
			return CountdownExpired, nil
		}
		onTick(left)

		select {
		case <-ctx.Done():
			return CountdownCancelled, nil
		case <-t.C:
		}
	}
}
