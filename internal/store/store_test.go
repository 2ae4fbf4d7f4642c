package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/technomatra/missions/internal/database"
	"github.com/technomatra/missions/internal/migrations"
	"github.com/technomatra/missions/internal/missions"
)

func newFileStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "data.json"), slog.Default())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return s
}

func newLibSQLStore(t *testing.T) *LibSQLStore {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return NewLibSQLStore(db)
}

func backends(t *testing.T) map[string]missions.Store {
	return map[string]missions.Store{
		"file":   newFileStore(t),
		"libsql": newLibSQLStore(t),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			doc, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("load empty: %v", err)
			}
			if len(doc.Users) != 0 || len(doc.Tasks) != 0 {
				t.Fatalf("expected empty document, got %+v", doc)
			}

			err = s.Update(ctx, func(d *missions.Document) error {
				u := missions.NewUser("alice", time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
				u.ToggleItem(1, 0)
				u.WrongAttempts[2] = 3
				d.Users = append(d.Users, u)
				d.Tasks = append(d.Tasks, missions.Task{Title: "One"})
				return nil
			})
			if err != nil {
				t.Fatalf("update: %v", err)
			}

			doc, err = s.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			u := doc.User("alice")
			if u == nil {
				t.Fatal("alice not persisted")
			}
			if got := u.ItemsFound[1]; len(got) != 1 || got[0] != 0 {
				t.Errorf("itemsFound[1] = %v, want [0]", got)
			}
			if u.WrongAttempts[2] != 3 {
				t.Errorf("wrongAttempts[2] = %d, want 3", u.WrongAttempts[2])
			}
			if len(doc.Tasks) != 1 || doc.Tasks[0].Title != "One" {
				t.Errorf("tasks = %+v", doc.Tasks)
			}
		})
	}
}

func TestStoreUpdateErrorWritesNothing(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			boom := errors.New("boom")

			err := s.Update(ctx, func(d *missions.Document) error {
				d.Tasks = append(d.Tasks, missions.Task{Title: "Ghost"})
				return boom
			})
			if !errors.Is(err, boom) {
				t.Fatalf("expected boom, got %v", err)
			}

			doc, _ := s.Load(ctx)
			if len(doc.Tasks) != 0 {
				t.Errorf("failed update leaked %d tasks", len(doc.Tasks))
			}
		})
	}
}

func TestStoreConcurrentUpdatesAreNotLost(t *testing.T) {
	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			const n = 20

			var wg sync.WaitGroup
			for i := range n {
				wg.Add(1)
				go func() {
					defer wg.Done()
					err := s.Update(ctx, func(d *missions.Document) error {
						d.Users = append(d.Users, missions.NewUser(fmt.Sprintf("op-%d", i), time.Now()))
						return nil
					})
					if err != nil {
						t.Errorf("update %d: %v", i, err)
					}
				}()
			}
			wg.Wait()

			doc, err := s.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if len(doc.Users) != n {
				t.Errorf("users = %d, want %d", len(doc.Users), n)
			}
		})
	}
}

func TestFileStoreUnreadableDegradesToEmpty(t *testing.T) {
	s := newFileStore(t)
	if err := os.WriteFile(s.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(doc.Users) != 0 || len(doc.Tasks) != 0 {
		t.Errorf("expected empty document, got %+v", doc)
	}

	// The next write replaces the corrupt file.
	err = s.Update(context.Background(), func(d *missions.Document) error {
		d.Tasks = []missions.Task{{Title: "Fresh"}}
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	doc, _ = s.Load(context.Background())
	if len(doc.Tasks) != 1 {
		t.Errorf("tasks = %d, want 1", len(doc.Tasks))
	}
}

func TestFileStoreReadsLegacyDocument(t *testing.T) {
	s := newFileStore(t)
	raw := `{
  "users": [
    {
      "username": "alice",
      "completedTasks": 2,
      "itemsFound": {"0": [1, 0]},
      "disqualified": false,
      "wrongAttempts": {"3": 4},
      "performance": "Operative",
      "startTime": "2026-02-01T10:00:00.000Z"
    }
  ],
  "tasks": [
    {"title": "A", "description": "d", "visible": false, "questions": [{"text": "q", "images": ["/uploads/a.png"]}]},
    {"title": "B", "description": "d", "questions": []}
  ]
}`
	if err := os.WriteFile(s.Path(), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	u := doc.User("alice")
	if u == nil {
		t.Fatal("alice missing")
	}
	if u.CompletedTasks != 2 || u.WrongAttempts[3] != 4 || len(u.ItemsFound[0]) != 2 {
		t.Errorf("user decoded wrong: %+v", u)
	}
	if vis := doc.VisibleTasks(); len(vis) != 1 || vis[0].Title != "B" {
		t.Errorf("visible tasks = %+v", vis)
	}
}

func TestSeedDemoIdempotent(t *testing.T) {
	s := newFileStore(t)
	ctx := context.Background()

	if err := SeedDemo(ctx, slog.Default(), s); err != nil {
		t.Fatalf("first seed: %v", err)
	}
	if err := SeedDemo(ctx, slog.Default(), s); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	doc, _ := s.Load(ctx)
	if len(doc.Tasks) != len(demoTasks()) {
		t.Errorf("tasks = %d, want %d", len(doc.Tasks), len(demoTasks()))
	}
}
