package session

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRepositorySaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	s := Session{SessionID: "s1", ClientID: "c1", Status: StatusStarting, Active: true, CreatedAt: time.Now()}
	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, ok, err := repo.FindByID(ctx, "s1")
	if err != nil || !ok {
		t.Fatalf("FindByID = (%v, %v, %v), want found", got, ok, err)
	}
	if got.ClientID != "c1" {
		t.Errorf("ClientID = %q, want c1", got.ClientID)
	}

	if _, ok, _ := repo.FindByID(ctx, "missing"); ok {
		t.Error("FindByID(missing) ok = true, want false")
	}
}

func TestMemoryRepositoryActiveIndex(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_ = repo.Save(ctx, Session{SessionID: "a", Active: true})
	_ = repo.Save(ctx, Session{SessionID: "b", Active: false})

	ids, err := repo.FindAllActiveSessionIDs(ctx)
	if err != nil {
		t.Fatalf("FindAllActiveSessionIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("active ids = %v, want [a]", ids)
	}

	inactive, err := repo.FindAllInactiveSessions(ctx)
	if err != nil {
		t.Fatalf("FindAllInactiveSessions: %v", err)
	}
	if len(inactive) != 1 || inactive[0].SessionID != "b" {
		t.Fatalf("inactive = %v, want [b]", inactive)
	}
}

func TestMemoryRepositoryDeleteByID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	_ = repo.Save(ctx, Session{SessionID: "s1", Active: true})

	if err := repo.DeleteByID(ctx, "s1"); err != nil {
		t.Fatalf("DeleteByID: %v", err)
	}
	if _, ok, _ := repo.FindByID(ctx, "s1"); ok {
		t.Fatal("session still present after DeleteByID")
	}
	// idempotent
	if err := repo.DeleteByID(ctx, "s1"); err != nil {
		t.Fatalf("DeleteByID (repeat): %v", err)
	}
}

func TestMemoryRepositoryCleanupOrphanedSessions(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	// record saved as active is indexed -> stays indexed after cleanup
	_ = repo.Save(ctx, Session{SessionID: "a", Active: true})

	// simulate drift: index entry with no backing record
	repo.mu.Lock()
	repo.active["ghost"] = struct{}{}
	repo.mu.Unlock()

	removed, err := repo.CleanupOrphanedSessions(ctx)
	if err != nil {
		t.Fatalf("CleanupOrphanedSessions: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	ids, _ := repo.FindAllActiveSessionIDs(ctx)
	if len(ids) != 1 || ids[0] != "a" {
		t.Fatalf("active ids after cleanup = %v, want [a]", ids)
	}
}

func TestMemoryRepositoryCleanupOldInactiveSessionsByTTL(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	old := Session{SessionID: "old", Active: false, LastHeartbeat: time.Now().Add(-48 * time.Hour)}
	recent := Session{SessionID: "recent", Active: false, LastHeartbeat: time.Now()}
	_ = repo.Save(ctx, old)
	_ = repo.Save(ctx, recent)

	removed, err := repo.CleanupOldInactiveSessionsByTTL(ctx, 24)
	if err != nil {
		t.Fatalf("CleanupOldInactiveSessionsByTTL: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if _, ok, _ := repo.FindByID(ctx, "old"); ok {
		t.Error("old session still present")
	}
	if _, ok, _ := repo.FindByID(ctx, "recent"); !ok {
		t.Error("recent session was removed, want kept")
	}
}
