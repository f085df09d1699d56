// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// MessageKind distinguishes the three variants a worker can post to its
// owner: a routine progress line, a structured result payload, or a single
// terminal error.
type MessageKind int

const (
	MessageProgress MessageKind = iota
	MessageResult
	MessageError
)

// Message is one item on a worker mailbox. Progress and error messages
// carry Text, a human-readable line prefixed with the producing subsystem's
// tag; error text additionally contains the literal marker "ERROR" so owners
// can surface it prominently. Result messages carry a named payload instead.
type Message struct {
	Kind MessageKind
	Text string

	// Key names the result payload kind; Ranked is the payload itself.
	// Both are set only when Kind is MessageResult.
	Key    string
	Ranked []RankedChunk
}

// IsError reports whether the message warrants prominent surfacing.
func (m Message) IsError() bool {
	return m.Kind == MessageError || strings.Contains(m.Text, "ERROR")
}
