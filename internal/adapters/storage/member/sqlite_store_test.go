package member_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"society/internal/adapters/storage"
	store "society/internal/adapters/storage/member"
	domain "society/internal/domain/member"
)

func newStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store.NewSQLiteStore(db)
}

func seed(t *testing.T, s *store.SQLiteStore, members ...domain.Member) {
	t.Helper()
	for _, m := range members {
		if err := s.Save(context.Background(), m); err != nil {
			t.Fatalf("Save %s: %v", m.ID, err)
		}
	}
}

// TestSQLiteStore_CountFilters verifies Count honours status and role.
func TestSQLiteStore_CountFilters(t *testing.T) {
	s := newStore(t)
	joined := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	seed(t, s,
		domain.Member{ID: "1", Name: "Aroha", Email: "a@example.org", Role: domain.RoleMember, Status: domain.StatusActive, JoinedAt: joined},
		domain.Member{ID: "2", Name: "Bea", Email: "b@example.org", Role: domain.RoleBoard, Status: domain.StatusActive, JoinedAt: joined},
		domain.Member{ID: "3", Name: "Cai", Email: "c@example.org", Role: domain.RoleMember, Status: domain.StatusInactive, JoinedAt: joined},
		domain.Member{ID: "4", Name: "Dev", Email: "d@example.org", Role: domain.RoleVolunteer, Status: domain.StatusArchived, JoinedAt: joined},
	)
	ctx := context.Background()

	tests := []struct {
		filter store.ListFilter
		want   int
	}{
		{store.ListFilter{}, 4},
		{store.ListFilter{Status: domain.StatusActive}, 2},
		{store.ListFilter{Role: domain.RoleMember}, 2},
		{store.ListFilter{Status: domain.StatusActive, Role: domain.RoleBoard}, 1},
	}
	for _, tt := range tests {
		got, err := s.Count(ctx, tt.filter)
		if err != nil {
			t.Fatalf("Count(%+v): %v", tt.filter, err)
		}
		if got != tt.want {
			t.Errorf("Count(%+v) = %d, want %d", tt.filter, got, tt.want)
		}
	}
}

// TestSQLiteStore_SaveUpdatesAndLists verifies upsert and name ordering.
func TestSQLiteStore_SaveUpdatesAndLists(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	joined := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	m := domain.Member{ID: "1", Name: "Zed", Email: "z@example.org", Role: domain.RoleMember, Status: domain.StatusActive, JoinedAt: joined}
	seed(t, s, m, domain.Member{ID: "2", Name: "Amy", Email: "amy@example.org", Role: domain.RoleMember, Status: domain.StatusActive, JoinedAt: joined})

	if err := m.Archive(); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	seed(t, s, m)

	got, err := s.GetByID(ctx, "1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != domain.StatusArchived || !got.JoinedAt.Equal(joined) {
		t.Errorf("got %+v", got)
	}

	list, err := s.List(ctx, store.ListFilter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Amy" {
		t.Errorf("List = %+v, want Amy first", list)
	}

	if err := s.Delete(ctx, "2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n, _ := s.Count(ctx, store.ListFilter{}); n != 1 {
		t.Errorf("Count after delete = %d, want 1", n)
	}
}
