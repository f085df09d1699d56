// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/papaper/papaper/internal/worker"
	"github.com/papaper/papaper/pkg/types"
)

// pollInterval is how often a command drains its worker's mailbox.
const pollInterval = 100 * time.Millisecond

// pump polls the mailbox until the worker finishes, printing progress and
// error lines to w as they arrive. It returns the last structured payload
// the worker posted, if any.
func pump(h *worker.Handle, box *worker.Mailbox, w io.Writer) []types.RankedChunk {
	var ranked []types.RankedChunk

	flush := func() {
		for _, msg := range box.Poll() {
			if msg.Kind == types.MessageResult {
				ranked = msg.Ranked
				continue
			}
			fmt.Fprintln(w, msg.Text)
		}
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			flush()
		case <-h.Done():
			flush()
			return ranked
		}
	}
}
