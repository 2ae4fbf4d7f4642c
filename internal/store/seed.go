package store

import (
	"context"
	"errors"
	"log/slog"

	"github.com/technomatra/missions/internal/missions"
)

var errSkip = errors.New("skip")

func demoTasks() []missions.Task {
	return []missions.Task{
		{
			Title:       "Operation Nightfall",
			Description: "Locate the two dead drops hidden in the east wing and report back before the guards rotate.",
			Questions: []missions.Question{
				{Text: "Dead drop behind the notice board"},
				{Text: "Dead drop under the third stair"},
			},
		},
		{
			Title:        "Signal Intercept",
			Description:  "Decode the transmission captured at the relay tower. The channel closes when the timer runs out.",
			TimerEnabled: true,
			Duration:     300,
			Questions: []missions.Question{
				{Text: "Frequency written on the relay log"},
				{Text: "Call sign of the sender"},
				{Text: "Time stamp of the last burst"},
			},
		},
		{
			Title:       "Vault Protocol",
			Description: "The vault opens only for operatives holding the access phrase from headquarters.",
			Password:    "BLACKBOX",
			Questions: []missions.Question{
				{Text: "Serial number on the vault door"},
			},
		},
	}
}

// SeedDemo installs the demo missions when the document has no tasks.
// Idempotent: does nothing if tasks already exist.
func SeedDemo(ctx context.Context, logger *slog.Logger, s missions.Store) error {
	seeded := false
	err := s.Update(ctx, func(d *missions.Document) error {
		if len(d.Tasks) > 0 {
			return errSkip
		}
		d.Tasks = demoTasks()
		seeded = true
		return nil
	})
	if err != nil && !errors.Is(err, errSkip) {
		return err
	}
	if seeded {
		logger.Info("demo missions seeded", "tasks", len(demoTasks()))
	}
	return nil
}
