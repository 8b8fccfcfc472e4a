package actor

import (
	"context"
	"fmt"

	"github.com/codefionn/tapcalc/internal/history"
	"github.com/codefionn/tapcalc/internal/logger"
)

// HistoryActor owns a history store. Appends arrive without a reply
// channel so the calculator never waits on disk.
type HistoryActor struct {
	name  string
	store history.Store
	log   *logger.Logger
}

// NewHistoryActor returns an actor that owns store and closes it on stop.
func NewHistoryActor(name string, store history.Store) *HistoryActor {
	return &HistoryActor{
		name:  name,
		store: store,
		log:   logger.Global().WithPrefix("history"),
	}
}

func (a *HistoryActor) ID() string { return a.name }

func (a *HistoryActor) Start(ctx context.Context) error {
	return nil
}

// Stop closes the store.
func (a *HistoryActor) Stop(ctx context.Context) error {
	return a.store.Close()
}

// Receive handles one history message. Load and clear results travel on
// the message's response channel; append errors are returned.
func (a *HistoryActor) Receive(ctx context.Context, msg Message) error {
	switch m := msg.(type) {
	case HistoryAppendMsg:
		a.log.Debug("append %q = %q", m.Expression, m.Result)
		if err := a.store.Append(m.Expression, m.Result); err != nil {
			return fmt.Errorf("append history entry: %w", err)
		}
		return nil
	case HistoryLoadMsg:
		entries, err := a.store.LoadAll()
		a.log.Debug("load returned %d entries, err=%v", len(entries), err)
		m.ResponseChan <- HistoryLoadResponse{Entries: entries, Err: err}
		return nil
	case HistoryClearMsg:
		err := a.store.Clear()
		a.log.Debug("clear returned err=%v", err)
		m.ResponseChan <- HistoryClearResponse{Err: err}
		return nil
	case HistoryFlushMsg:
		// Everything queued before this message has been handled.
		close(m.Done)
		return nil
	default:
		return fmt.Errorf("unknown history actor message type: %T", msg)
	}
}

// Message types

type HistoryAppendMsg struct {
	Expression string
	Result     string
}

func (HistoryAppendMsg) Type() string { return "historyAppendMsg" }

type HistoryLoadMsg struct {
	ResponseChan chan HistoryLoadResponse
}

func (HistoryLoadMsg) Type() string { return "historyLoadMsg" }

type HistoryLoadResponse struct {
	Entries []history.Entry
	Err     error
}

type HistoryClearMsg struct {
	ResponseChan chan HistoryClearResponse
}

func (HistoryClearMsg) Type() string { return "historyClearMsg" }

type HistoryClearResponse struct {
	Err error
}

type HistoryFlushMsg struct {
	Done chan struct{}
}

func (HistoryFlushMsg) Type() string { return "historyFlushMsg" }
