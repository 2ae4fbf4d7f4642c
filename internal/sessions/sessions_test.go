package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/technomatra/missions/internal/database"
	"github.com/technomatra/missions/internal/migrations"
)

type store interface {
	Create(ctx context.Context) (string, error)
	Valid(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

func testLifecycle(t *testing.T, s store, advance func(time.Duration)) {
	t.Helper()
	ctx := context.Background()

	id, err := s.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if ok, err := s.Valid(ctx, id); err != nil || !ok {
		t.Fatalf("fresh session: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.Valid(ctx, "someone-else"); ok {
		t.Error("unknown id accepted")
	}

	other, _ := s.Create(ctx)
	if err := s.Delete(ctx, other); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if ok, _ := s.Valid(ctx, other); ok {
		t.Error("deleted session still valid")
	}

	advance(time.Hour)
	if ok, err := s.Valid(ctx, id); err != nil || ok {
		t.Errorf("session past its ttl: ok=%v err=%v", ok, err)
	}
}

func TestMemoryStore(t *testing.T) {
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	testLifecycle(t, s, func(d time.Duration) { now = now.Add(d) })
}

func TestMemoryStoreSweepsOnCreate(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	s := NewMemoryStore(time.Hour)
	s.now = func() time.Time { return now }

	for range 10 {
		s.Create(ctx)
	}
	now = now.Add(2 * time.Hour)
	id, _ := s.Create(ctx)

	if len(s.sessions) != 1 {
		t.Errorf("sessions = %d, want 1", len(s.sessions))
	}
	if _, ok := s.sessions[id]; !ok {
		t.Error("new session missing")
	}
}

func TestLibSQLStore(t *testing.T) {
	db, err := database.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	now := time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)
	s := NewLibSQLStore(db, time.Hour)
	s.now = func() time.Time { return now }

	testLifecycle(t, s, func(d time.Duration) { now = now.Add(d) })

	// Creating a session sweeps the expired rows.
	s.Create(context.Background())
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM admin_sessions`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestRedisStoreKey(t *testing.T) {
	s := NewRedisStore(nil, "missions:", time.Hour)
	if got, want := s.key("abc"), "missions:session:abc"; got != want {
		t.Errorf("key = %q, want %q", got, want)
	}
}

func TestRedisStoreUnreachable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         "localhost:1",
		DialTimeout:  10 * time.Millisecond,
		ReadTimeout:  10 * time.Millisecond,
		WriteTimeout: 10 * time.Millisecond,
		MaxRetries:   -1,
	})
	defer rdb.Close()
	s := NewRedisStore(rdb, "missions:", time.Hour)
	ctx := context.Background()

	if _, err := s.Create(ctx); err == nil {
		t.Error("Create: expected error from unreachable redis")
	}
	if ok, err := s.Valid(ctx, "abc"); err == nil || ok {
		t.Errorf("Valid: ok=%v err=%v", ok, err)
	}
}
