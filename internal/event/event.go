// Package event provides the synchronous pub-sub bus connecting the
// orchestration engine to its observers (the TUI and the snapshot
// persister) without direct dependencies between them.
package event

import (
	"polyglot/internal/capability"
	"polyglot/internal/message"
)

// Type identifies an event kind. String-typed for easy debugging.
type Type string

const (
	// TypeMessageSubmitted fires when a new message enters the store.
	TypeMessageSubmitted Type = "message.submitted"
	// TypeStateChanged fires after every committed operation-state
	// mutation.
	TypeStateChanged Type = "state.changed"
	// TypeDownloadProgress fires for each model-download progress sample,
	// attributed to the (message, capability) pipeline that triggered it.
	TypeDownloadProgress Type = "download.progress"
	// TypePipelineSettled fires when a pipeline reaches succeeded or
	// failed.
	TypePipelineSettled Type = "pipeline.settled"
)

// Event is implemented by all bus payloads.
type Event interface {
	EventType() Type
}

// MessageSubmitted announces a newly appended message.
type MessageSubmitted struct {
	Message message.Message
}

func (MessageSubmitted) EventType() Type { return TypeMessageSubmitted }

// StateChanged announces that a message's operation state mutated.
type StateChanged struct {
	MessageID string
}

func (StateChanged) EventType() Type { return TypeStateChanged }

// DownloadProgress carries one normalized progress sample. Percent is the
// floored completion percentage; consumers that want the original ambient
// last-write-wins display simply overwrite their current value.
type DownloadProgress struct {
	MessageID  string
	Capability capability.Capability
	Percent    int
	Loaded     uint64
	Total      uint64
}

func (DownloadProgress) EventType() Type { return TypeDownloadProgress }

// PipelineSettled announces a pipeline reaching a terminal status.
type PipelineSettled struct {
	MessageID  string
	Capability capability.Capability
}

func (PipelineSettled) EventType() Type { return TypePipelineSettled }
