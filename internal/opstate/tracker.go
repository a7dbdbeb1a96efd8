package opstate

import (
	"errors"
	"sync"
)

// Sentinel errors returned by tracker transitions.
var (
	ErrUnknownMessage = errors.New("no operation state for message")
	ErrAlreadyExists  = errors.New("operation state already exists for message")
)

// retryMessage is shown for pipelines found mid-flight in a persisted
// snapshot; a running pipeline cannot survive a process restart.
const retryMessage = "The previous attempt was interrupted. Please try again."

// entry pairs the exported record with per-pipeline generation counters.
// A pipeline result commits only while its generation is still current,
// so a superseded invocation's late result is dropped instead of racing.
type entry struct {
	state          OperationState
	detectionGen   uint64
	translationGen uint64
	summaryGen     uint64
}

// Tracker owns every OperationState, keyed by message id. All reads
// return copies; all writes go through named transition methods guarded
// by one mutex, keeping each record internally consistent under
// concurrent pipeline completion.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]*entry

	// onChange, when set, runs after every committed mutation with the
	// affected message id. Set once at wiring time, before concurrent use.
	onChange func(id string)
}

// NewTracker creates an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]*entry)}
}

// SetOnChange registers the mutation hook. Must be called before the
// tracker is shared between goroutines.
func (t *Tracker) SetOnChange(fn func(id string)) {
	t.onChange = fn
}

func (t *Tracker) notify(id string) {
	if t.onChange != nil {
		t.onChange(id)
	}
}

// Create registers the record for a new message with detection already
// running (detection auto-starts on submission) and the default target
// language selected. Returns the detection generation for the auto-started
// pipeline.
func (t *Tracker) Create(id, defaultTarget string) (uint64, error) {
	t.mu.Lock()
	if _, exists := t.entries[id]; exists {
		t.mu.Unlock()
		return 0, ErrAlreadyExists
	}
	e := &entry{
		state: OperationState{
			Detection:     DetectionState{Status: StatusRunning},
			Translation:   TranslationState{Status: StatusIdle, SelectedTarget: defaultTarget},
			Summarization: SummarizationState{Status: StatusIdle},
		},
		detectionGen: 1,
	}
	t.entries[id] = e
	t.mu.Unlock()

	t.notify(id)
	return 1, nil
}

// Get returns a copy of the record for id.
func (t *Tracker) Get(id string) (OperationState, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return OperationState{}, false
	}
	return e.state, true
}

// All returns copies of every record keyed by message id.
func (t *Tracker) All() map[string]OperationState {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[string]OperationState, len(t.entries))
	for id, e := range t.entries {
		out[id] = e.state
	}
	return out
}

// -----------------------------------------------------------------------------
// Detection transitions
// -----------------------------------------------------------------------------

// BeginDetection marks detection running and returns the new generation.
// Used for manual re-detection; Create already begins the first run.
func (t *Tracker) BeginDetection(id string) (uint64, error) {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return 0, ErrUnknownMessage
	}
	e.detectionGen++
	gen := e.detectionGen
	e.state.Detection = DetectionState{Status: StatusRunning}
	t.mu.Unlock()

	t.notify(id)
	return gen, nil
}

// CompleteDetection commits a successful detection: language code, display
// label, and supported flag. Stale generations are dropped.
func (t *Tracker) CompleteDetection(id string, gen uint64, language, label string) bool {
	return t.commitDetection(id, gen, DetectionState{
		Status:    StatusSucceeded,
		Language:  language,
		Label:     label,
		Supported: true,
	})
}

// CompleteDetectionUnsupported commits the succeeded-but-unsupported
// terminal state: the language was detected but is not readily available.
// This is a non-error outcome carrying a human-readable note.
func (t *Tracker) CompleteDetectionUnsupported(id string, gen uint64, language, label, note string) bool {
	return t.commitDetection(id, gen, DetectionState{
		Status:   StatusSucceeded,
		Language: language,
		Label:    label,
		Note:     note,
	})
}

// FailDetection commits a detection failure.
func (t *Tracker) FailDetection(id string, gen uint64, kind ErrorKind, msg string) bool {
	return t.commitDetection(id, gen, DetectionState{
		Status: StatusFailed,
		Err:    &OperationError{Kind: kind, Message: msg},
	})
}

func (t *Tracker) commitDetection(id string, gen uint64, next DetectionState) bool {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok || e.detectionGen != gen {
		t.mu.Unlock()
		return false
	}
	e.state.Detection = next
	t.mu.Unlock()

	t.notify(id)
	return true
}

// -----------------------------------------------------------------------------
// Translation transitions
// -----------------------------------------------------------------------------

// BeginTranslation marks translation running and returns the new
// generation. The pipeline is re-enterable: succeeding or failing earlier
// does not block a new run.
func (t *Tracker) BeginTranslation(id string) (uint64, error) {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return 0, ErrUnknownMessage
	}
	e.translationGen++
	gen := e.translationGen
	e.state.Translation.Status = StatusRunning
	e.state.Translation.Err = nil
	t.mu.Unlock()

	t.notify(id)
	return gen, nil
}

// CompleteTranslation commits translated text and its target language
// together — never separately — and force-closes the message's dropdown.
func (t *Tracker) CompleteTranslation(id string, gen uint64, text, target string) bool {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok || e.translationGen != gen {
		t.mu.Unlock()
		return false
	}
	e.state.Translation.Status = StatusSucceeded
	e.state.Translation.TranslatedText = text
	e.state.Translation.TranslatedTo = target
	e.state.Translation.Err = nil
	e.state.UIOpen = false
	t.mu.Unlock()

	t.notify(id)
	return true
}

// FailTranslation commits a translation failure for an in-flight run.
func (t *Tracker) FailTranslation(id string, gen uint64, kind ErrorKind, msg string) bool {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok || e.translationGen != gen {
		t.mu.Unlock()
		return false
	}
	e.state.Translation.Status = StatusFailed
	e.state.Translation.Err = &OperationError{Kind: kind, Message: msg}
	t.mu.Unlock()

	t.notify(id)
	return true
}

// RejectTranslation records a synchronous precondition rejection. It bumps
// the generation so any in-flight run becomes stale: the rejection is the
// latest verdict. Only the error field and status change.
func (t *Tracker) RejectTranslation(id string, kind ErrorKind, msg string) error {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return ErrUnknownMessage
	}
	e.translationGen++
	e.state.Translation.Status = StatusFailed
	e.state.Translation.Err = &OperationError{Kind: kind, Message: msg}
	t.mu.Unlock()

	t.notify(id)
	return nil
}

// -----------------------------------------------------------------------------
// Summarization transitions
// -----------------------------------------------------------------------------

// BeginSummarization marks summarization running and returns the new
// generation.
func (t *Tracker) BeginSummarization(id string) (uint64, error) {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return 0, ErrUnknownMessage
	}
	e.summaryGen++
	gen := e.summaryGen
	e.state.Summarization.Status = StatusRunning
	e.state.Summarization.Err = nil
	t.mu.Unlock()

	t.notify(id)
	return gen, nil
}

// CompleteSummarization commits the summary text.
func (t *Tracker) CompleteSummarization(id string, gen uint64, summary string) bool {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok || e.summaryGen != gen {
		t.mu.Unlock()
		return false
	}
	e.state.Summarization.Status = StatusSucceeded
	e.state.Summarization.Summary = summary
	e.state.Summarization.Err = nil
	t.mu.Unlock()

	t.notify(id)
	return true
}

// FailSummarization commits a summarization failure.
func (t *Tracker) FailSummarization(id string, gen uint64, kind ErrorKind, msg string) bool {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok || e.summaryGen != gen {
		t.mu.Unlock()
		return false
	}
	e.state.Summarization.Status = StatusFailed
	e.state.Summarization.Err = &OperationError{Kind: kind, Message: msg}
	t.mu.Unlock()

	t.notify(id)
	return true
}

// RejectSummarization records a synchronous precondition rejection,
// superseding any in-flight run.
func (t *Tracker) RejectSummarization(id string, kind ErrorKind, msg string) error {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return ErrUnknownMessage
	}
	e.summaryGen++
	e.state.Summarization.Status = StatusFailed
	e.state.Summarization.Err = &OperationError{Kind: kind, Message: msg}
	t.mu.Unlock()

	t.notify(id)
	return nil
}

// -----------------------------------------------------------------------------
// UI selection transitions
// -----------------------------------------------------------------------------

// OpenDropdown toggles the dropdown for id and closes every other
// message's dropdown in the same step: the open slot is a single shared
// resource, not independent per-message flags.
func (t *Tracker) OpenDropdown(id string) error {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return ErrUnknownMessage
	}
	wasOpen := e.state.UIOpen
	for _, other := range t.entries {
		other.state.UIOpen = false
	}
	e.state.UIOpen = !wasOpen
	t.mu.Unlock()

	t.notify(id)
	return nil
}

// CloseAllDropdowns clears every open flag (the outside-click signal).
func (t *Tracker) CloseAllDropdowns() {
	t.mu.Lock()
	var changed []string
	for id, e := range t.entries {
		if e.state.UIOpen {
			e.state.UIOpen = false
			changed = append(changed, id)
		}
	}
	t.mu.Unlock()

	for _, id := range changed {
		t.notify(id)
	}
}

// OpenDropdownID reports which message's dropdown is open, if any.
func (t *Tracker) OpenDropdownID() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, e := range t.entries {
		if e.state.UIOpen {
			return id, true
		}
	}
	return "", false
}

// SelectTarget records the chosen target language and closes the
// dropdown. Validation against the language table is the caller's job.
func (t *Tracker) SelectTarget(id, code string) error {
	t.mu.Lock()
	e, ok := t.entries[id]
	if !ok {
		t.mu.Unlock()
		return ErrUnknownMessage
	}
	e.state.Translation.SelectedTarget = code
	e.state.UIOpen = false
	t.mu.Unlock()

	t.notify(id)
	return nil
}

// -----------------------------------------------------------------------------
// Snapshot rehydration
// -----------------------------------------------------------------------------

// Restore replaces all records with a persisted snapshot. Any pipeline
// persisted as running is demoted to failed with a retry-suggesting
// message; dropdown flags are not restored (they are ephemeral).
func (t *Tracker) Restore(states map[string]OperationState) {
	t.mu.Lock()
	t.entries = make(map[string]*entry, len(states))
	for id, s := range states {
		if s.Detection.Status == StatusRunning {
			s.Detection = DetectionState{
				Status: StatusFailed,
				Err:    &OperationError{Kind: KindDetectionFailure, Message: retryMessage},
			}
		}
		if s.Translation.Status == StatusRunning {
			s.Translation.Status = StatusFailed
			s.Translation.Err = &OperationError{Kind: KindTranslationFailure, Message: retryMessage}
		}
		if s.Summarization.Status == StatusRunning {
			s.Summarization.Status = StatusFailed
			s.Summarization.Err = &OperationError{Kind: KindSummarizationFailure, Message: retryMessage}
		}
		s.UIOpen = false
		t.entries[id] = &entry{state: s}
	}
	t.mu.Unlock()
}
