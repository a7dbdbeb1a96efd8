// Package opstate models the per-message, per-capability operation state:
// one record per message tracking the detection, translation, and
// summarization pipelines, plus the ephemeral UI selection state. All
// mutation goes through the Tracker's named transition methods; nothing
// else may write these records.
package opstate

// Status is the lifecycle position of one pipeline.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is settled.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// ErrorKind classifies pipeline failures. Kinds are stable identifiers;
// the accompanying message is what users see.
type ErrorKind string

const (
	// KindEnvironmentUnsupported: the capability namespace is absent.
	KindEnvironmentUnsupported ErrorKind = "environment_unsupported"
	// KindCapabilityUnavailable: the service reports "no".
	KindCapabilityUnavailable ErrorKind = "capability_unavailable"
	// KindUnsupportedLanguage: a detected or requested language is not
	// readily available.
	KindUnsupportedLanguage ErrorKind = "unsupported_language"
	// KindInvalidLanguagePair: missing, identical, or unavailable
	// source/target pair.
	KindInvalidLanguagePair ErrorKind = "invalid_language_pair"
	// KindDetectionFailure, KindTranslationFailure,
	// KindSummarizationFailure: the external call itself broke; the user
	// may retry by re-invoking.
	KindDetectionFailure     ErrorKind = "detection_failure"
	KindTranslationFailure   ErrorKind = "translation_failure"
	KindSummarizationFailure ErrorKind = "summarization_failure"
)

// OperationError is a user-facing pipeline error. Message is generic and
// stable; raw service errors are logged, never stored here.
type OperationError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// DetectionState tracks the detection pipeline for one message.
type DetectionState struct {
	Status Status `json:"status"`
	// Language is the top-ranked detected language code.
	Language string `json:"language,omitempty"`
	// Label is the display label resolved from the language table, or the
	// raw code when the language is not in the table.
	Label string `json:"label,omitempty"`
	// Supported is false when the environment cannot detect at all or the
	// detected language is not readily available.
	Supported bool `json:"supported"`
	// Note carries the human-readable remark for the succeeded-but-
	// unsupported-language terminal state. Not an error.
	Note string          `json:"note,omitempty"`
	Err  *OperationError `json:"error,omitempty"`
}

// TranslationState tracks the translation pipeline for one message.
type TranslationState struct {
	Status Status `json:"status"`
	// SelectedTarget is the target language chosen in the dropdown.
	SelectedTarget string `json:"selected_target"`
	// TranslatedText and TranslatedTo are always written together.
	TranslatedText string          `json:"translated_text,omitempty"`
	TranslatedTo   string          `json:"translated_to,omitempty"`
	Err            *OperationError `json:"error,omitempty"`
}

// SummarizationState tracks the summarization pipeline for one message.
type SummarizationState struct {
	Status  Status          `json:"status"`
	Summary string          `json:"summary,omitempty"`
	Err     *OperationError `json:"error,omitempty"`
}

// OperationState is the complete per-message record.
type OperationState struct {
	Detection     DetectionState     `json:"detection"`
	Translation   TranslationState   `json:"translation"`
	Summarization SummarizationState `json:"summarization"`
	// UIOpen marks this message's target-language dropdown as open. At
	// most one record system-wide has it set.
	UIOpen bool `json:"ui_open"`
}
