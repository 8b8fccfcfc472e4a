package actor

import (
	"context"
	"testing"
	"time"
)

func TestNewActorRef(t *testing.T) {
	a := newRecordingActor("test-1")
	ref := NewActorRef("test-1", a, 10)

	if ref.ID() != "test-1" {
		t.Errorf("expected ID 'test-1', got '%s'", ref.ID())
	}
	if cap(ref.mailbox) != 10 {
		t.Errorf("expected mailbox size 10, got %d", cap(ref.mailbox))
	}
}

func TestActorRefStartStop(t *testing.T) {
	ctx := context.Background()
	a := newRecordingActor("test-1")
	ref := NewActorRef("test-1", a, 10)

	if err := ref.Start(ctx); err != nil {
		t.Fatalf("failed to start actor: %v", err)
	}
	if !a.startCalled.Load() {
		t.Error("Start() was not called on the actor")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := ref.Stop(stopCtx); err != nil {
		t.Fatalf("failed to stop actor: %v", err)
	}
	if !a.stopCalled.Load() {
		t.Error("Stop() was not called on the actor")
	}

	// Stopping twice is a no-op.
	if err := ref.Stop(stopCtx); err != nil {
		t.Errorf("second stop returned %v", err)
	}
}

func TestActorRefStopDrainsMailbox(t *testing.T) {
	ctx := context.Background()
	a := newRecordingActor("drain")
	ref := NewActorRef("drain", a, 10)
	if err := ref.Start(ctx); err != nil {
		t.Fatalf("failed to start actor: %v", err)
	}

	for i := 0; i < 5; i++ {
		if err := ref.Send(&testMessage{ID: "m"}); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := ref.Stop(stopCtx); err != nil {
		t.Fatalf("failed to stop actor: %v", err)
	}
	if got := len(a.messages()); got != 5 {
		t.Errorf("expected 5 processed messages, got %d", got)
	}
}

func TestActorRefSendAfterStop(t *testing.T) {
	ctx := context.Background()
	ref := NewActorRef("stopped", newRecordingActor("stopped"), 10)
	if err := ref.Start(ctx); err != nil {
		t.Fatalf("failed to start actor: %v", err)
	}
	if err := ref.Stop(ctx); err != nil {
		t.Fatalf("failed to stop actor: %v", err)
	}
	if err := ref.Send(&testMessage{ID: "late"}); err == nil {
		t.Error("expected error sending to stopped actor")
	}
}

func TestActorRefMailboxFull(t *testing.T) {
	ctx := context.Background()
	a := newRecordingActor("full")
	a.block = make(chan struct{})
	ref := NewActorRef("full", a, 1)
	if err := ref.Start(ctx); err != nil {
		t.Fatalf("failed to start actor: %v", err)
	}

	// The first message is taken by the blocked actor, the second fills
	// the mailbox, the third is rejected.
	var lastErr error
	for i := 0; i < 3; i++ {
		lastErr = ref.Send(&testMessage{ID: "m"})
		if i == 0 {
			time.Sleep(20 * time.Millisecond)
		}
	}
	if lastErr == nil {
		t.Error("expected mailbox full error")
	}

	close(a.block)
	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := ref.Stop(stopCtx); err != nil {
		t.Fatalf("failed to stop actor: %v", err)
	}
}

func TestActorRefReceiveErrorKeepsRunning(t *testing.T) {
	ctx := context.Background()
	a := newRecordingActor("errors")
	ref := NewActorRef("errors", a, 10)
	if err := ref.Start(ctx); err != nil {
		t.Fatalf("failed to start actor: %v", err)
	}

	_ = ref.Send(&errorMessage{})
	_ = ref.Send(&testMessage{ID: "after"})

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := ref.Stop(stopCtx); err != nil {
		t.Fatalf("failed to stop actor: %v", err)
	}
	if got := len(a.messages()); got != 2 {
		t.Errorf("expected 2 messages, got %d", got)
	}
}

func TestActorRefSequentialProcessing(t *testing.T) {
	ctx := context.Background()
	a := newRecordingActor("seq")
	ref := NewActorRef("seq", a, 0, WithSequentialProcessing())
	if err := ref.Start(ctx); err != nil {
		t.Fatalf("failed to start actor: %v", err)
	}

	if err := ref.Send(&testMessage{ID: "now"}); err != nil {
		t.Fatalf("send: %v", err)
	}
	// No waiting: sequential sends are processed before Send returns.
	if got := len(a.messages()); got != 1 {
		t.Errorf("expected 1 message, got %d", got)
	}
	if err := ref.Stop(ctx); err != nil {
		t.Fatalf("failed to stop actor: %v", err)
	}
}

func TestSystemSpawnGetStop(t *testing.T) {
	ctx := context.Background()
	sys := NewSystem()

	ref, err := sys.Spawn(ctx, "a", newRecordingActor("a"), 4)
	if err != nil {
		t.Fatalf("spawn: %v", err)
	}
	if _, err := sys.Spawn(ctx, "a", newRecordingActor("a"), 4); err == nil {
		t.Error("expected duplicate id error")
	}

	got, ok := sys.Get("a")
	if !ok || got != ref {
		t.Error("Get did not return the spawned actor")
	}

	if err := sys.Stop(ctx, "a"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if _, ok := sys.Get("a"); ok {
		t.Error("actor still registered after stop")
	}
	if err := sys.Stop(ctx, "a"); err == nil {
		t.Error("expected not found error")
	}
}

func TestSystemStopAll(t *testing.T) {
	ctx := context.Background()
	sys := NewSystem()
	actors := []*recordingActor{newRecordingActor("x"), newRecordingActor("y")}
	for _, a := range actors {
		if _, err := sys.Spawn(ctx, a.ID(), a, 4); err != nil {
			t.Fatalf("spawn %s: %v", a.ID(), err)
		}
	}

	if err := sys.StopAll(ctx); err != nil {
		t.Fatalf("stop all: %v", err)
	}
	for _, a := range actors {
		if !a.stopCalled.Load() {
			t.Errorf("actor %s was not stopped", a.ID())
		}
	}
}
