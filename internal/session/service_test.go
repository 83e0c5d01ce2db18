package session

import (
	"context"
	"errors"
	"testing"
)

func newTestService() *Service {
	return NewService(NewMemoryRepository())
}

func TestRegisterSessionRequiresIDs(t *testing.T) {
	svc := newTestService()
	_, err := svc.RegisterSession(context.Background(), RegisterInput{})
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestRegisterSessionDefaultsToStarting(t *testing.T) {
	svc := newTestService()
	s, err := svc.RegisterSession(context.Background(), RegisterInput{SessionID: "s1", ClientID: "c1"})
	if err != nil {
		t.Fatalf("RegisterSession: %v", err)
	}
	if s.Status != StatusStarting {
		t.Errorf("Status = %v, want STARTING", s.Status)
	}
	if !s.Active {
		t.Error("Active = false, want true")
	}
	if s.LastHeartbeat.Before(s.CreatedAt) {
		t.Error("LastHeartbeat < CreatedAt, want >=")
	}
}

func TestRegisterSessionRejectsDuplicateLive(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	if _, err := svc.RegisterSession(ctx, RegisterInput{SessionID: "s1", ClientID: "c1"}); err != nil {
		t.Fatalf("first RegisterSession: %v", err)
	}

	_, err := svc.RegisterSession(ctx, RegisterInput{SessionID: "s1", ClientID: "c1"})
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestRegisterSessionAllowsReplacingTerminal(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	if _, err := svc.RegisterSession(ctx, RegisterInput{SessionID: "s1", ClientID: "c1"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, "s1", StatusFailed); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	if _, err := svc.RegisterSession(ctx, RegisterInput{SessionID: "s1", ClientID: "c2"}); err != nil {
		t.Fatalf("re-register over terminal session: %v", err)
	}
}

func TestHeartbeatUnknownSession(t *testing.T) {
	svc := newTestService()
	_, err := svc.Heartbeat(context.Background(), "missing", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestHeartbeatIgnoresNonMonotoneChunk(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	_, _ = svc.RegisterSession(ctx, RegisterInput{SessionID: "s1", ClientID: "c1"})

	if _, err := svc.Heartbeat(ctx, "s1", "0005.mp4"); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	got, err := svc.Heartbeat(ctx, "s1", "0002.mp4")
	if err != nil {
		t.Fatalf("Heartbeat (regression): %v", err)
	}
	if got.LastChunk != "0005.mp4" {
		t.Errorf("LastChunk = %q, want unchanged 0005.mp4", got.LastChunk)
	}
}

func TestUpdateStatusRejectsIllegalTransition(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	_, _ = svc.RegisterSession(ctx, RegisterInput{SessionID: "s1", ClientID: "c1"})
	if _, err := svc.UpdateStatus(ctx, "s1", StatusRecording); err != nil {
		t.Fatalf("UpdateStatus to RECORDING: %v", err)
	}

	_, err := svc.UpdateStatus(ctx, "s1", StatusStarting)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestDeactivateRemovesFromActiveIndex(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	_, _ = svc.RegisterSession(ctx, RegisterInput{SessionID: "s1", ClientID: "c1"})

	if _, err := svc.Deactivate(ctx, "s1"); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	active, err := svc.IsActive(ctx, "s1")
	if err != nil {
		t.Fatalf("IsActive: %v", err)
	}
	if active {
		t.Error("IsActive = true after Deactivate, want false")
	}

	s, err := svc.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get after deactivate: %v", err)
	}
	if s.Status != StatusInactive {
		t.Errorf("Status = %v, want INACTIVE", s.Status)
	}
}

func TestDeregisterThenGetReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	_, _ = svc.RegisterSession(ctx, RegisterInput{SessionID: "s1", ClientID: "c1"})

	if err := svc.Deregister(ctx, "s1"); err != nil {
		t.Fatalf("Deregister: %v", err)
	}

	if _, err := svc.Get(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after deregister err = %v, want ErrNotFound", err)
	}

	if err := svc.Deregister(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Deregister err = %v, want ErrNotFound", err)
	}
}

func TestStopSessionTransitionsToStopping(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	_, _ = svc.RegisterSession(ctx, RegisterInput{SessionID: "s1", ClientID: "c1"})

	s, err := svc.StopSession(ctx, "s1")
	if err != nil {
		t.Fatalf("StopSession: %v", err)
	}
	if s.Status != StatusStopping {
		t.Errorf("Status = %v, want STOPPING", s.Status)
	}

	if _, err := svc.UpdateStatus(ctx, "s1", StatusCompleted); err != nil {
		t.Fatalf("UpdateStatus to COMPLETED: %v", err)
	}
}

func TestCountReflectsActiveAndInactive(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	_, _ = svc.RegisterSession(ctx, RegisterInput{SessionID: "s1", ClientID: "c1"})
	_, _ = svc.RegisterSession(ctx, RegisterInput{SessionID: "s2", ClientID: "c2"})
	_, _ = svc.Deactivate(ctx, "s2")

	counts, err := svc.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if counts.Total != 2 || counts.Active != 1 || counts.Inactive != 1 {
		t.Fatalf("counts = %+v, want {Total:2 Active:1 Inactive:1}", counts)
	}
}

func TestFailSessionSetsFailedAndDeactivates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	_, _ = svc.RegisterSession(ctx, RegisterInput{SessionID: "s1", ClientID: "c1"})

	s, err := svc.FailSession(ctx, "s1")
	if err != nil {
		t.Fatalf("FailSession: %v", err)
	}
	if s.Status != StatusFailed {
		t.Errorf("Status = %v, want FAILED", s.Status)
	}
	if s.Active {
		t.Errorf("expected session to be deactivated")
	}
}
