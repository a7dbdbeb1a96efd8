// Package local is an in-process implementation of the capability.Service
// contract. It stands in for the real AI-backed service so the application
// runs (and is tested) without any external dependency: detection is a
// small stopword-and-script heuristic, translation is a tagged
// passthrough, and summarization is extractive. First use of a capability
// can simulate a model download with progress reporting.
//
// The point of this package is the contract behavior (availability
// negotiation, download progress, ready signaling), not output quality.
package local

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/language"

	"polyglot/internal/capability"
)

// knownLanguages are the codes the provider can detect and translate
// between. Deliberately the same set as the UI table.
var knownLanguages = map[string]bool{
	"en": true, "pt": true, "es": true, "ru": true, "tr": true, "fr": true,
}

// downloadSteps is how many progress samples a simulated download emits.
const downloadSteps = 5

// Option configures a Service.
type Option func(*Service)

// WithAvailability overrides the initial availability of cap.
func WithAvailability(cap capability.Capability, a capability.Availability) Option {
	return func(s *Service) { s.avail[cap] = a }
}

// WithoutCapability removes the capability namespace entirely, making the
// service behave like a host environment that has never heard of it.
func WithoutCapability(cap capability.Capability) Option {
	return func(s *Service) { s.absent[cap] = true }
}

// WithDownloadSize sets the simulated model size in bytes.
func WithDownloadSize(bytes uint64) Option {
	return func(s *Service) { s.downloadSize = bytes }
}

// Service implements capability.Service in-process.
type Service struct {
	mu           sync.Mutex
	avail        map[capability.Capability]capability.Availability
	absent       map[capability.Capability]bool
	downloaded   map[capability.Capability]bool
	downloadSize uint64
}

// NewService returns a Service with every capability available after a
// simulated first-time download, mirroring a fresh host environment.
func NewService(opts ...Option) *Service {
	s := &Service{
		avail: map[capability.Capability]capability.Availability{
			capability.Detection:     capability.AvailabilityAfterDownload,
			capability.Translation:   capability.AvailabilityAfterDownload,
			capability.Summarization: capability.AvailabilityAfterDownload,
		},
		absent:       make(map[capability.Capability]bool),
		downloaded:   make(map[capability.Capability]bool),
		downloadSize: 4 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capabilities implements capability.Service.
func (s *Service) Capabilities(ctx context.Context, cap capability.Capability) (capability.Capabilities, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.absent[cap] {
		return nil, capability.ErrUnsupported
	}

	avail := s.avail[cap]
	if avail == capability.AvailabilityAfterDownload && s.downloaded[cap] {
		avail = capability.AvailabilityReadily
	}
	return &caps{avail: avail}, nil
}

// Create implements capability.Service.
func (s *Service) Create(ctx context.Context, cap capability.Capability, opts capability.CreateOptions) (capability.Instance, error) {
	s.mu.Lock()
	if s.absent[cap] {
		s.mu.Unlock()
		return nil, capability.ErrUnsupported
	}
	avail := s.avail[cap]
	if avail == capability.AvailabilityNo {
		s.mu.Unlock()
		return nil, fmt.Errorf("%s is not available", cap)
	}
	needsDownload := avail == capability.AvailabilityAfterDownload && !s.downloaded[cap]
	size := s.downloadSize
	s.mu.Unlock()

	if cap == capability.Translation {
		if opts.SourceLanguage == "" || opts.TargetLanguage == "" {
			return nil, fmt.Errorf("translation instance requires source and target languages")
		}
		if _, err := language.Parse(opts.SourceLanguage); err != nil {
			return nil, fmt.Errorf("invalid source language %q: %w", opts.SourceLanguage, err)
		}
		if _, err := language.Parse(opts.TargetLanguage); err != nil {
			return nil, fmt.Errorf("invalid target language %q: %w", opts.TargetLanguage, err)
		}
	}

	return &instance{
		svc:           s,
		cap:           cap,
		opts:          opts,
		needsDownload: needsDownload,
		size:          size,
	}, nil
}

type caps struct {
	avail capability.Availability
}

func (c *caps) Available() capability.Availability { return c.avail }

func (c *caps) LanguageAvailable(code string) capability.Availability {
	if c.avail == capability.AvailabilityNo {
		return capability.AvailabilityNo
	}
	tag, err := language.Parse(code)
	if err != nil {
		return capability.AvailabilityNo
	}
	base, _ := tag.Base()
	if knownLanguages[base.String()] {
		return capability.AvailabilityReadily
	}
	return capability.AvailabilityNo
}

func (c *caps) LanguagePairAvailable(source, target string) capability.Availability {
	if c.LanguageAvailable(source) != capability.AvailabilityReadily {
		return capability.AvailabilityNo
	}
	if c.LanguageAvailable(target) != capability.AvailabilityReadily {
		return capability.AvailabilityNo
	}
	return capability.AvailabilityReadily
}

type instance struct {
	svc  *Service
	cap  capability.Capability
	opts capability.CreateOptions

	readyOnce     sync.Once
	needsDownload bool
	size          uint64
}

// Ready simulates the one-shot model download on first use, emitting
// monotonic progress to the creation monitor.
func (i *instance) Ready(ctx context.Context) error {
	i.readyOnce.Do(func() {
		if !i.needsDownload {
			return
		}
		for step := 1; step <= downloadSteps; step++ {
			if i.opts.Monitor != nil {
				i.opts.Monitor(capability.Progress{
					Loaded: i.size * uint64(step) / downloadSteps,
					Total:  i.size,
				})
			}
		}
		i.svc.mu.Lock()
		i.svc.downloaded[i.cap] = true
		i.svc.mu.Unlock()
	})
	return ctx.Err()
}

func (i *instance) Detect(ctx context.Context, text string) ([]capability.DetectionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("nothing to detect")
	}
	return detect(text), nil
}

func (i *instance) Translate(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if i.cap != capability.Translation {
		return "", fmt.Errorf("instance is a %s instance, not a translator", i.cap)
	}
	// Deterministic stand-in output tagged with the pair.
	return fmt.Sprintf("[%s→%s] %s", i.opts.SourceLanguage, i.opts.TargetLanguage, text), nil
}

func (i *instance) Summarize(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return summarize(text), nil
}

// stopwords per language, weighted equally. Short, high-frequency function
// words chosen so the six languages separate cleanly on everyday text.
var stopwords = map[string][]string{
	"en": {"the", "and", "is", "of", "to", "in", "that", "it", "with", "for", "was", "this"},
	"pt": {"de", "que", "e", "o", "da", "em", "um", "para", "com", "uma", "os", "não"},
	"es": {"de", "la", "que", "el", "en", "y", "los", "del", "las", "por", "un", "una"},
	"fr": {"le", "la", "les", "de", "des", "et", "est", "un", "une", "que", "pour", "dans", "bonjour"},
	"tr": {"bir", "ve", "bu", "için", "ile", "de", "da", "ne", "çok", "ama", "gibi"},
	"ru": {"и", "в", "не", "на", "что", "я", "с", "это", "как", "он", "по"},
}

func detect(text string) []capability.DetectionResult {
	scores := make(map[string]float64, len(stopwords))

	// Script heuristics dominate word counts when present.
	for _, r := range text {
		switch {
		case unicode.In(r, unicode.Cyrillic):
			scores["ru"] += 2
		case strings.ContainsRune("ığşİ", r):
			scores["tr"] += 2
		case strings.ContainsRune("ãõ", r):
			scores["pt"] += 2
		case strings.ContainsRune("¿¡ñ", r):
			scores["es"] += 2
		case strings.ContainsRune("àâêîôûëïœ", r):
			scores["fr"] += 1
		}
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		for code, list := range stopwords {
			for _, sw := range list {
				if w == sw {
					scores[code]++
				}
			}
		}
	}

	best, second := "en", 0.0
	bestScore := -1.0
	for code, score := range scores {
		switch {
		case score > bestScore, score == bestScore && code < best:
			if bestScore > second {
				second = bestScore
			}
			best, bestScore = code, score
		case score > second:
			second = score
		}
	}
	if bestScore <= 0 {
		// No signal at all: report English with low confidence.
		return []capability.DetectionResult{{Language: "en", Confidence: 0.1}}
	}

	conf := bestScore / (bestScore + second + 1)
	results := []capability.DetectionResult{{Language: best, Confidence: conf}}
	if second > 0 {
		for code, score := range scores {
			if code != best && score == second {
				results = append(results, capability.DetectionResult{
					Language:   code,
					Confidence: score / (bestScore + second + 1),
				})
				break
			}
		}
	}
	return results
}

// summarize keeps the first two sentences, which is as extractive as it
// gets.
func summarize(text string) string {
	text = strings.TrimSpace(text)
	var sentences []string
	start := 0
	for idx, r := range text {
		if r == '.' || r == '!' || r == '?' {
			sentences = append(sentences, strings.TrimSpace(text[start:idx+1]))
			start = idx + 1
			if len(sentences) == 2 {
				break
			}
		}
	}
	if len(sentences) == 0 {
		if r := []rune(text); len(r) > 120 {
			return string(r[:120]) + "…"
		}
		return text
	}
	return strings.Join(sentences, " ")
}
