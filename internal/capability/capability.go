// Package capability defines the contract for the external AI capability
// service and the negotiator that normalizes its three-valued availability
// answers and download-progress reporting for the orchestration engine.
//
// The service itself is an external collaborator: this package specifies
// the boundary and ships no inference. See the local subpackage for the
// in-process implementation used by default and in tests.
package capability

import (
	"context"
	"errors"
)

// Capability identifies one negotiable capability.
type Capability string

const (
	Detection     Capability = "detection"
	Translation   Capability = "translation"
	Summarization Capability = "summarization"
)

// Availability is the three-valued readiness answer a service gives for a
// capability, a language, or a language pair.
type Availability string

const (
	// AvailabilityNo means the capability exists but cannot be used.
	AvailabilityNo Availability = "no"
	// AvailabilityAfterDownload means usable once a model download completes.
	AvailabilityAfterDownload Availability = "after-download"
	// AvailabilityReadily means usable immediately.
	AvailabilityReadily Availability = "readily"
)

// ErrUnsupported is returned by Service implementations when the requested
// capability namespace does not exist in the host environment at all, as
// opposed to existing but answering "no".
var ErrUnsupported = errors.New("capability not supported by this environment")

// Progress is one download-progress sample, in bytes.
type Progress struct {
	Loaded uint64
	Total  uint64
}

// Percent returns the completed percentage, floored, clamped to [0, 100].
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 0
	}
	pct := int(p.Loaded * 100 / p.Total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// DetectionResult is a single ranked language-detection result.
type DetectionResult struct {
	Language   string
	Confidence float64
}

// CreateOptions configures instance creation. Source and target languages
// are required for translation instances and ignored otherwise. Monitor,
// when non-nil, receives raw progress samples during a first-time model
// download; it may be called from the service's goroutine and must not
// block.
type CreateOptions struct {
	SourceLanguage string
	TargetLanguage string
	Monitor        func(Progress)
}

// Capabilities answers availability queries for one capability.
type Capabilities interface {
	// Available reports overall availability of the capability.
	Available() Availability
	// LanguageAvailable reports availability for a single language code.
	// Only meaningful for detection and summarization.
	LanguageAvailable(code string) Availability
	// LanguagePairAvailable reports availability for a source/target pair.
	// Only meaningful for translation.
	LanguagePairAvailable(source, target string) Availability
}

// Instance is an acquired capability handle. Ready must be waited on
// before first use when the capability was not readily available.
type Instance interface {
	// Ready blocks until the instance is usable, typically after a model
	// download completes. It is a one-shot signal: subsequent calls return
	// the same result immediately.
	Ready(ctx context.Context) error

	// Detect returns detection results ordered by descending confidence.
	Detect(ctx context.Context, text string) ([]DetectionResult, error)
	// Translate converts text to the instance's target language.
	Translate(ctx context.Context, text string) (string, error)
	// Summarize condenses text.
	Summarize(ctx context.Context, text string) (string, error)
}

// Service is the external capability service boundary. Implementations
// must return ErrUnsupported (possibly wrapped) from Capabilities and
// Create when the capability namespace is absent entirely.
type Service interface {
	Capabilities(ctx context.Context, cap Capability) (Capabilities, error)
	Create(ctx context.Context, cap Capability, opts CreateOptions) (Instance, error)
}
