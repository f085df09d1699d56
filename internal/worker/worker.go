// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package worker runs pipeline stages as independently cancellable units of
// work reporting to their owner through a one-way mailbox.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/papaper/papaper/pkg/types"
)

// Mailbox is an unbounded FIFO of messages from one worker to its owner.
// Post never blocks the worker; Poll drains pending messages without
// blocking the owner. One worker writes, one owner reads.
type Mailbox struct {
	mu      sync.Mutex
	pending []types.Message
}

// NewMailbox returns an empty mailbox.
func NewMailbox() *Mailbox {
	return &Mailbox{}
}

// Post appends a message to the mailbox.
func (m *Mailbox) Post(msg types.Message) {
	m.mu.Lock()
	m.pending = append(m.pending, msg)
	m.mu.Unlock()
}

// Poll returns all pending messages in post order and clears the mailbox.
// It returns nil when nothing is pending.
func (m *Mailbox) Poll() []types.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := m.pending
	m.pending = nil
	return msgs
}

// Progressf posts a tag-prefixed progress line.
func (m *Mailbox) Progressf(tag, format string, args ...any) {
	m.Post(types.Message{
		Kind: types.MessageProgress,
		Text: fmt.Sprintf("[%s] ", tag) + fmt.Sprintf(format, args...),
	})
}

// Result posts a structured payload under the given key.
func (m *Mailbox) Result(key string, ranked []types.RankedChunk) {
	m.Post(types.Message{
		Kind:   types.MessageResult,
		Key:    key,
		Ranked: ranked,
	})
}

// Handle controls one running unit of work.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Cancel aborts the unit of work. The worker stops at its next blocking or
// checkpoint, leaving persisted state as of the last completed record or
// chunk decision.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed once the worker has finished, whether it completed,
// failed, or was cancelled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err returns the worker's terminal error. It is valid only after Done is
// closed; nil means the unit of work completed.
func (h *Handle) Err() error {
	return h.err
}

// Start runs fn on its own goroutine and returns a handle for cancellation.
// On success it posts a tag-prefixed COMPLETE progress line; on failure it
// posts exactly one terminal ERROR message carrying the failure detail.
func Start(ctx context.Context, tag string, box *Mailbox, fn func(ctx context.Context) error) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer cancel()

		if err := fn(ctx); err != nil {
			h.err = err
			box.Post(types.Message{
				Kind: types.MessageError,
				Text: fmt.Sprintf("[%s] ERROR: %v", tag, err),
			})
			return
		}
		box.Progressf(tag, "COMPLETE")
	}()

	return h
}
