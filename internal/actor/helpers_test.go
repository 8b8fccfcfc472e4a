package actor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

type testMessage struct {
	ID string
}

func (m *testMessage) Type() string { return "test" }

type errorMessage struct{}

func (m *errorMessage) Type() string { return "error" }

// recordingActor remembers every message it receives.
type recordingActor struct {
	id          string
	mu          sync.Mutex
	received    []Message
	startCalled atomic.Bool
	stopCalled  atomic.Bool
	block       chan struct{}
}

func newRecordingActor(id string) *recordingActor {
	return &recordingActor{id: id}
}

func (a *recordingActor) ID() string { return a.id }

func (a *recordingActor) Start(ctx context.Context) error {
	a.startCalled.Store(true)
	return nil
}

func (a *recordingActor) Stop(ctx context.Context) error {
	a.stopCalled.Store(true)
	return nil
}

func (a *recordingActor) Receive(ctx context.Context, msg Message) error {
	if a.block != nil {
		<-a.block
	}
	a.mu.Lock()
	a.received = append(a.received, msg)
	a.mu.Unlock()
	if _, ok := msg.(*errorMessage); ok {
		return errors.New("error message received")
	}
	return nil
}

func (a *recordingActor) messages() []Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Message(nil), a.received...)
}
