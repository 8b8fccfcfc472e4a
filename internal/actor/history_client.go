package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/codefionn/tapcalc/internal/history"
)

const historyRequestTimeout = 5 * time.Second

// HistoryClient provides a convenient interface for interacting with the history actor
type HistoryClient struct {
	actorRef *ActorRef
}

// NewHistoryClient creates a new client for the history actor
func NewHistoryClient(actorRef *ActorRef) *HistoryClient {
	return &HistoryClient{
		actorRef: actorRef,
	}
}

// Append enqueues an entry and returns immediately. The only errors are a
// stopped actor or a full mailbox.
func (c *HistoryClient) Append(expression, result string) error {
	if c.actorRef == nil {
		return fmt.Errorf("history actor not available")
	}
	return c.actorRef.Send(HistoryAppendMsg{Expression: expression, Result: result})
}

// LoadAll returns the stored entries, newest first.
func (c *HistoryClient) LoadAll(ctx context.Context) ([]history.Entry, error) {
	if c.actorRef == nil {
		return nil, fmt.Errorf("history actor not available")
	}

	responseCh := make(chan HistoryLoadResponse, 1)
	if err := c.actorRef.Send(HistoryLoadMsg{ResponseChan: responseCh}); err != nil {
		return nil, fmt.Errorf("failed to send history load request: %w", err)
	}

	select {
	case response := <-responseCh:
		return response.Entries, response.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(historyRequestTimeout):
		return nil, fmt.Errorf("timeout waiting for history load response")
	}
}

// Clear removes all entries.
func (c *HistoryClient) Clear(ctx context.Context) error {
	if c.actorRef == nil {
		return fmt.Errorf("history actor not available")
	}

	responseCh := make(chan HistoryClearResponse, 1)
	if err := c.actorRef.Send(HistoryClearMsg{ResponseChan: responseCh}); err != nil {
		return fmt.Errorf("failed to send history clear request: %w", err)
	}

	select {
	case response := <-responseCh:
		return response.Err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(historyRequestTimeout):
		return fmt.Errorf("timeout waiting for history clear response")
	}
}

// Flush waits until every message sent before it has been processed.
func (c *HistoryClient) Flush(ctx context.Context) error {
	if c.actorRef == nil {
		return fmt.Errorf("history actor not available")
	}

	done := make(chan struct{})
	if err := c.actorRef.Send(HistoryFlushMsg{Done: done}); err != nil {
		return fmt.Errorf("failed to send history flush request: %w", err)
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
