package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/session"
)

func newTestReaper(conf Config) (*Reaper, *session.Service, *session.MemoryRepository) {
	repo := session.NewMemoryRepository()
	svc := session.NewService(repo)
	return New(svc, conf), svc, repo
}

func registerAndRecord(t *testing.T, svc *session.Service, repo *session.MemoryRepository, id string, heartbeatAge time.Duration, lastChunk string) {
	t.Helper()
	ctx := context.Background()
	if _, err := svc.RegisterSession(ctx, session.RegisterInput{SessionID: id, ClientID: "c1"}); err != nil {
		t.Fatalf("RegisterSession: %v", err)
	}
	s, _, err := repo.FindByID(ctx, id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	s.LastHeartbeat = time.Now().UTC().Add(-heartbeatAge)
	s.LastChunk = lastChunk
	if err := repo.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestReaperHardTimeout(t *testing.T) {
	r, svc, repo := newTestReaper(Config{
		Interval:        time.Second,
		MaxInactiveTime: 5 * time.Second,
		ChunkTimeSize:   time.Second,
		MaxAgeHours:     24,
	})
	registerAndRecord(t, svc, repo, "rec-a", 10*time.Second, "0001.mp4")

	r.tick(context.Background())

	s, err := svc.Get(context.Background(), "rec-a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Status != session.StatusFailed {
		t.Fatalf("status = %v, want FAILED", s.Status)
	}
	if s.Active {
		t.Fatalf("expected session to be deactivated")
	}
}

func TestReaperSilentDetection(t *testing.T) {
	r, svc, repo := newTestReaper(Config{
		Interval:        time.Second,
		MaxInactiveTime: time.Hour,
		ChunkTimeSize:   10 * time.Second,
		MaxAgeHours:     24,
	})
	registerAndRecord(t, svc, repo, "rec-b", 3*10*time.Second+31*time.Second, "0001.mp4")

	r.tick(context.Background())

	s, err := svc.Get(context.Background(), "rec-b")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Status != session.StatusFailed {
		t.Fatalf("status = %v, want FAILED", s.Status)
	}
}

func TestReaperLeavesHealthySessionAlone(t *testing.T) {
	r, svc, repo := newTestReaper(DefaultConfig())
	registerAndRecord(t, svc, repo, "rec-c", time.Second, "0001.mp4")

	r.tick(context.Background())

	s, err := svc.Get(context.Background(), "rec-c")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Status == session.StatusFailed {
		t.Fatalf("healthy session was failed")
	}
}

func TestReaperStuckDetection(t *testing.T) {
	chunkTime := 10 * time.Millisecond
	r, svc, repo := newTestReaper(Config{
		Interval:        time.Millisecond,
		MaxInactiveTime: time.Hour,
		ChunkTimeSize:   chunkTime,
		MaxAgeHours:     24,
	})
	// dt must stay above 2*chunkTimeSize but well under the silent threshold.
	registerAndRecord(t, svc, repo, "rec-d", 3*chunkTime, "0001.mp4")

	ctx := context.Background()
	r.tick(ctx) // first observation: records lastChunk, starts stuckSince
	time.Sleep(3 * chunkTime)
	r.tick(ctx) // lastChunk still unchanged, stuckFor now exceeds 2*chunkTimeSize

	s, err := svc.Get(ctx, "rec-d")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Status != session.StatusFailed {
		t.Fatalf("status = %v, want FAILED (stuck)", s.Status)
	}
}
