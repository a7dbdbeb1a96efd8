// Package engine implements the orchestration core: it owns the message
// log and operation-state tracker, auto-starts language detection for
// every submitted message, and exposes the gated translation and
// summarization entry points. All business rules (precondition
// rejections, eligibility, availability gating) live here; the UI only
// renders state and invokes these methods.
package engine

import (
	"context"
	"errors"
	"fmt"

	"polyglot/internal/capability"
	"polyglot/internal/event"
	"polyglot/internal/langs"
	"polyglot/internal/logging"
	"polyglot/internal/message"
	"polyglot/internal/opstate"
	"polyglot/internal/util"
)

// Sentinel errors for synchronous precondition rejections. Each maps to a
// distinct user-facing message stored on the operation state.
var (
	ErrUnknownMessage         = errors.New("unknown message")
	ErrMissingLanguage        = errors.New("missing source or target language")
	ErrDetectionPending       = errors.New("language detection still in progress")
	ErrUnsupportedSource      = errors.New("source language not supported")
	ErrSameLanguage           = errors.New("source and target languages are the same")
	ErrEnvironmentUnsupported = errors.New("capability not supported by this environment")
	ErrCapabilityUnavailable  = errors.New("capability not available")
	ErrPairUnavailable        = errors.New("language pair not supported")
	ErrNotEligible            = errors.New("message not eligible for summarization")
	ErrSuperseded             = errors.New("superseded by a newer invocation")
	ErrUnknownLanguage        = errors.New("language not in the supported table")
)

// User-facing pipeline messages. Generic and stable: raw service errors
// are logged, never shown.
const (
	msgDetectionEnvUnsupported = "Language detection is not supported by this environment."
	msgDetectionUnavailable    = "Language detection is not available at the moment. Please try again later."
	msgDetectionFailed         = "Failed to detect language. Please try again."
	msgLanguageUnsupported     = "This language is not supported for detection."

	msgTranslationEnvUnsupported = "Translation is not supported by this environment."
	msgTranslationUnavailable    = "Translation is not available at the moment. Please try again later."
	msgMissingLanguage           = "Missing source or target language."
	msgDetectionPending          = "Language detection has not finished yet."
	msgUnsupportedSource         = "Translation is not available for unsupported languages."
	msgSameLanguage              = "Source and target languages cannot be the same."
	msgPairUnavailable           = "This language pair is currently not supported for translation."
	msgTranslationFailed         = "Something went wrong translating your message. Please try again."

	msgSummaryEnvUnsupported = "Summarization is not supported by this environment."
	msgSummaryUnavailable    = "Summarization is not available at the moment. Please try again later."
	msgSummaryFailed         = "Something went wrong summarizing your message. Please try again."
)

// summarizeMinLength is the exclusive length threshold for summarization
// eligibility, in bytes (the original counted UTF-16 units; the sets
// differ only on non-ASCII text, which cannot be English-detected here).
const summarizeMinLength = 150

// summarizeLanguage is the only detected language eligible for
// summarization.
const summarizeLanguage = "en"

// Engine drives the per-message pipelines.
type Engine struct {
	neg      *capability.Negotiator
	messages *message.Store
	states   *opstate.Tracker
	bus      *event.Bus
	table    *langs.Table
	log      *logging.Logger
}

// New wires an Engine. The tracker's mutation hook is claimed by the
// engine to publish state-changed events; callers must not set their own.
func New(svc capability.Service, bus *event.Bus, table *langs.Table, logger *logging.Logger) *Engine {
	e := &Engine{
		neg:      capability.NewNegotiator(svc),
		messages: message.NewStore(),
		states:   opstate.NewTracker(),
		bus:      bus,
		table:    table,
		log:      logger,
	}
	e.states.SetOnChange(func(id string) {
		bus.Publish(event.StateChanged{MessageID: id})
	})
	return e
}

// Messages returns all messages in submission order.
func (e *Engine) Messages() []message.Message { return e.messages.All() }

// State returns the operation state for one message.
func (e *Engine) State(id string) (opstate.OperationState, bool) { return e.states.Get(id) }

// States returns all operation states keyed by message id.
func (e *Engine) States() map[string]opstate.OperationState { return e.states.All() }

// Languages returns the enumerated supported-language table.
func (e *Engine) Languages() *langs.Table { return e.table }

// Submit appends a new message and auto-starts its detection pipeline on
// a separate goroutine. The returned message is already in the store with
// detection recorded as running.
func (e *Engine) Submit(ctx context.Context, text string) (message.Message, error) {
	msg, err := e.messages.Append(text)
	if err != nil {
		return message.Message{}, err
	}
	gen, err := e.states.Create(msg.ID, langs.DefaultTarget)
	if err != nil {
		// Ids are random; a collision here is a bug, not a user error.
		return message.Message{}, fmt.Errorf("create operation state: %w", err)
	}

	e.bus.Publish(event.MessageSubmitted{Message: msg})
	e.log.Info("message submitted",
		"message_id", msg.ID,
		"length", len(msg.Text),
		"preview", util.TruncateString(msg.Text, 40))

	go e.runDetection(ctx, msg, gen)
	return msg, nil
}

// Redetect re-runs the detection pipeline for a message whose previous
// attempt failed. Blocking; runs the pipeline on the calling goroutine.
func (e *Engine) Redetect(ctx context.Context, id string) error {
	msg, ok := e.messages.Get(id)
	if !ok {
		return ErrUnknownMessage
	}
	gen, err := e.states.BeginDetection(id)
	if err != nil {
		return ErrUnknownMessage
	}
	e.runDetection(ctx, msg, gen)
	return nil
}

// runDetection executes the detection pipeline: availability check,
// optional model download with progress, detect, detected-language
// support re-check, label resolution.
func (e *Engine) runDetection(ctx context.Context, msg message.Message, gen uint64) {
	log := e.log.With("message_id", msg.ID, "capability", string(capability.Detection))

	status := e.neg.Check(ctx, capability.Detection)
	if status.Kind == capability.Unavailable {
		kind, userMsg := opstate.KindCapabilityUnavailable, msgDetectionUnavailable
		if errors.Is(status.Cause, capability.ErrUnsupported) {
			kind, userMsg = opstate.KindEnvironmentUnsupported, msgDetectionEnvUnsupported
		}
		log.Warn("detection unavailable", "reason", status.Reason)
		if e.states.FailDetection(msg.ID, gen, kind, userMsg) {
			e.settle(msg.ID, capability.Detection)
		}
		return
	}

	inst, err := e.acquire(ctx, capability.Detection, capability.CreateOptions{}, msg.ID)
	if err != nil {
		log.Error("detection acquisition failed", "error", err)
		if e.states.FailDetection(msg.ID, gen, opstate.KindDetectionFailure, msgDetectionFailed) {
			e.settle(msg.ID, capability.Detection)
		}
		return
	}

	results, err := inst.Detect(ctx, msg.Text)
	if err != nil || len(results) == 0 {
		log.Error("detection failed", "error", err, "results", len(results))
		if e.states.FailDetection(msg.ID, gen, opstate.KindDetectionFailure, msgDetectionFailed) {
			e.settle(msg.ID, capability.Detection)
		}
		return
	}

	// Top-ranked result only; the rest are discarded.
	code := results[0].Language
	log.Debug("language detected", "language", code, "confidence", results[0].Confidence)

	// The service may detect a language it cannot fully support. That is
	// a successful detection, not an error.
	if status.Caps.LanguageAvailable(code) != capability.AvailabilityReadily {
		label := fmt.Sprintf("Unsupported language (%s)", code)
		if e.states.CompleteDetectionUnsupported(msg.ID, gen, code, label, msgLanguageUnsupported) {
			e.settle(msg.ID, capability.Detection)
		}
		return
	}

	if e.states.CompleteDetection(msg.ID, gen, code, e.table.LabelFor(code)) {
		e.settle(msg.ID, capability.Detection)
	}
}

// Translate runs the translation pipeline for a message using its
// currently selected target language. Synchronous precondition failures
// return a sentinel error and record the rejection without any capability
// call; pipeline failures are recorded on the state and also returned.
// Blocking; the UI invokes it from a command goroutine. Re-enterable.
func (e *Engine) Translate(ctx context.Context, id string) error {
	st, ok := e.states.Get(id)
	if !ok {
		return ErrUnknownMessage
	}
	msg, ok := e.messages.Get(id)
	if !ok {
		return ErrUnknownMessage
	}

	source := st.Detection.Language
	target := st.Translation.SelectedTarget

	// Pure precondition checks, in order, before any capability query.
	switch {
	case st.Detection.Status == opstate.StatusRunning:
		e.states.RejectTranslation(id, opstate.KindInvalidLanguagePair, msgDetectionPending) //nolint:errcheck
		return ErrDetectionPending
	case source == "" || target == "":
		e.states.RejectTranslation(id, opstate.KindInvalidLanguagePair, msgMissingLanguage) //nolint:errcheck
		return ErrMissingLanguage
	case !st.Detection.Supported:
		e.states.RejectTranslation(id, opstate.KindUnsupportedLanguage, msgUnsupportedSource) //nolint:errcheck
		return ErrUnsupportedSource
	case source == target:
		e.states.RejectTranslation(id, opstate.KindInvalidLanguagePair, msgSameLanguage) //nolint:errcheck
		return ErrSameLanguage
	}

	log := e.log.With("message_id", id, "capability", string(capability.Translation),
		"source", source, "target", target)

	status := e.neg.Check(ctx, capability.Translation)
	if status.Kind == capability.Unavailable {
		if errors.Is(status.Cause, capability.ErrUnsupported) {
			e.states.RejectTranslation(id, opstate.KindEnvironmentUnsupported, msgTranslationEnvUnsupported) //nolint:errcheck
			return ErrEnvironmentUnsupported
		}
		e.states.RejectTranslation(id, opstate.KindCapabilityUnavailable, msgTranslationUnavailable) //nolint:errcheck
		return ErrCapabilityUnavailable
	}

	gen, err := e.states.BeginTranslation(id)
	if err != nil {
		return ErrUnknownMessage
	}

	// Pair availability is terminal when not readily usable: no download
	// loop for translation pairs.
	if status.Caps.LanguagePairAvailable(source, target) != capability.AvailabilityReadily {
		log.Warn("language pair not available")
		if e.states.FailTranslation(id, gen, opstate.KindInvalidLanguagePair, msgPairUnavailable) {
			e.settle(id, capability.Translation)
		}
		return ErrPairUnavailable
	}

	inst, err := e.acquire(ctx, capability.Translation, capability.CreateOptions{
		SourceLanguage: source,
		TargetLanguage: target,
	}, id)
	if err != nil {
		log.Error("translator acquisition failed", "error", err)
		if e.states.FailTranslation(id, gen, opstate.KindTranslationFailure, msgTranslationFailed) {
			e.settle(id, capability.Translation)
		}
		return err
	}

	translated, err := inst.Translate(ctx, msg.Text)
	if err != nil {
		log.Error("translation failed", "error", err)
		if e.states.FailTranslation(id, gen, opstate.KindTranslationFailure, msgTranslationFailed) {
			e.settle(id, capability.Translation)
		}
		return err
	}

	// Text and target commit together; a stale generation means a newer
	// invocation owns the state now.
	if !e.states.CompleteTranslation(id, gen, translated, target) {
		log.Debug("translation result superseded")
		return ErrSuperseded
	}
	log.Info("translation complete")
	e.settle(id, capability.Translation)
	return nil
}

// SummarizeEligible reports whether the summarization entry point is
// offered for a message: text longer than the threshold and detected as
// English. Pure; safe to re-query.
func (e *Engine) SummarizeEligible(id string) bool {
	msg, ok := e.messages.Get(id)
	if !ok {
		return false
	}
	st, ok := e.states.Get(id)
	if !ok {
		return false
	}
	return len(msg.Text) > summarizeMinLength && st.Detection.Language == summarizeLanguage
}

// Summarize runs the summarization pipeline. Ineligible messages are
// rejected without touching state: the entry point is not offered, so
// there is nothing to record. Blocking; re-enterable.
func (e *Engine) Summarize(ctx context.Context, id string) error {
	msg, ok := e.messages.Get(id)
	if !ok {
		return ErrUnknownMessage
	}
	if !e.SummarizeEligible(id) {
		return ErrNotEligible
	}

	log := e.log.With("message_id", id, "capability", string(capability.Summarization))

	// Both readily and after-download are acceptable here; the download
	// reports through the same progress mechanism as detection.
	status := e.neg.Check(ctx, capability.Summarization)
	if status.Kind == capability.Unavailable {
		if errors.Is(status.Cause, capability.ErrUnsupported) {
			e.states.RejectSummarization(id, opstate.KindEnvironmentUnsupported, msgSummaryEnvUnsupported) //nolint:errcheck
			return ErrEnvironmentUnsupported
		}
		e.states.RejectSummarization(id, opstate.KindCapabilityUnavailable, msgSummaryUnavailable) //nolint:errcheck
		return ErrCapabilityUnavailable
	}

	gen, err := e.states.BeginSummarization(id)
	if err != nil {
		return ErrUnknownMessage
	}

	inst, err := e.acquire(ctx, capability.Summarization, capability.CreateOptions{}, id)
	if err != nil {
		log.Error("summarizer acquisition failed", "error", err)
		if e.states.FailSummarization(id, gen, opstate.KindSummarizationFailure, msgSummaryFailed) {
			e.settle(id, capability.Summarization)
		}
		return err
	}

	summary, err := inst.Summarize(ctx, msg.Text)
	if err != nil {
		log.Error("summarization failed", "error", err)
		if e.states.FailSummarization(id, gen, opstate.KindSummarizationFailure, msgSummaryFailed) {
			e.settle(id, capability.Summarization)
		}
		return err
	}

	if !e.states.CompleteSummarization(id, gen, summary) {
		log.Debug("summary superseded")
		return ErrSuperseded
	}
	log.Info("summarization complete")
	e.settle(id, capability.Summarization)
	return nil
}

// OpenDropdown toggles the target-language dropdown for a message,
// closing every other message's dropdown.
func (e *Engine) OpenDropdown(id string) error {
	if err := e.states.OpenDropdown(id); err != nil {
		return ErrUnknownMessage
	}
	return nil
}

// CloseAllDropdowns handles the outside-click signal.
func (e *Engine) CloseAllDropdowns() { e.states.CloseAllDropdowns() }

// OpenDropdownID returns the message whose dropdown is open, if any.
func (e *Engine) OpenDropdownID() (string, bool) { return e.states.OpenDropdownID() }

// SelectTarget records a dropdown choice. The code must come from the
// supported-language table.
func (e *Engine) SelectTarget(id, code string) error {
	if !e.table.Contains(code) {
		return ErrUnknownLanguage
	}
	if err := e.states.SelectTarget(id, code); err != nil {
		return ErrUnknownMessage
	}
	return nil
}

// Export returns the full message list and operation-state map for the
// persistence boundary. Called by the snapshot store on every mutation.
func (e *Engine) Export() ([]message.Message, map[string]opstate.OperationState) {
	return e.messages.All(), e.states.All()
}

// Restore rehydrates a previously persisted snapshot. Pipelines persisted
// mid-flight are demoted to failed with a retry suggestion; dropdown
// state is not restored. Must be called before any Submit.
func (e *Engine) Restore(msgs []message.Message, states map[string]opstate.OperationState) {
	e.messages.Restore(msgs)
	e.states.Restore(states)
}

// acquire obtains a fresh capability instance, forwarding download
// progress to the bus attributed to the owning message. Handles are never
// cached across pipelines.
func (e *Engine) acquire(ctx context.Context, cap capability.Capability, opts capability.CreateOptions, messageID string) (capability.Instance, error) {
	ac := e.neg.Acquire(ctx, cap, opts)
	for p := range ac.Progress() {
		e.bus.Publish(event.DownloadProgress{
			MessageID:  messageID,
			Capability: cap,
			Percent:    p.Percent(),
			Loaded:     p.Loaded,
			Total:      p.Total,
		})
	}
	return ac.Instance()
}

func (e *Engine) settle(id string, cap capability.Capability) {
	e.bus.Publish(event.PipelineSettled{MessageID: id, Capability: cap})
}
