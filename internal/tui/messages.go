package tui

import (
	"polyglot/internal/capability"
	"polyglot/internal/message"
)

// stateChangedMsg is forwarded from the event bus after any committed
// operation-state mutation.
type stateChangedMsg struct {
	messageID string
}

// messageSubmittedMsg is forwarded when a new message enters the store.
type messageSubmittedMsg struct {
	message message.Message
}

// downloadMsg carries one normalized download-progress sample.
type downloadMsg struct {
	messageID string
	cap       capability.Capability
	percent   int
}

// settledMsg is forwarded when a pipeline reaches a terminal status.
type settledMsg struct {
	messageID string
	cap       capability.Capability
}

// opErrMsg wraps an operation error for display in the status line.
type opErrMsg struct {
	err error
}

// submittedMsg reports the outcome of an async submit.
type submittedMsg struct {
	err error
}
