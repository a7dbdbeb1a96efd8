package capability

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// StatusKind classifies a negotiated availability check.
type StatusKind int

const (
	// Unavailable means the capability cannot be used in this environment.
	Unavailable StatusKind = iota
	// NeedsDownload means the capability works after a model download.
	NeedsDownload
	// Ready means the capability is immediately usable.
	Ready
)

func (k StatusKind) String() string {
	switch k {
	case Unavailable:
		return "unavailable"
	case NeedsDownload:
		return "needs-download"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("StatusKind(%d)", int(k))
	}
}

// Status is the result of a negotiated availability check.
type Status struct {
	Kind StatusKind
	// Reason is a human-readable explanation when Kind is Unavailable.
	Reason string
	// Cause is the underlying error for an Unavailable status; check it
	// with errors.Is(ErrUnsupported) to distinguish an absent capability
	// namespace from a service answering "no".
	Cause error
	// Caps carries the underlying capability answers for follow-up
	// language and pair queries. Nil when Kind is Unavailable because the
	// namespace was absent.
	Caps Capabilities
}

// ErrAcquireFailed wraps failures that occur after a NeedsDownload check,
// during instance creation or model download. It is distinct from an
// Unavailable status so callers can tell "never possible" from "the
// download or setup broke".
var ErrAcquireFailed = errors.New("capability acquisition failed")

// Negotiator wraps a Service with a uniform availability result and
// normalizes callback-style download progress into a finite stream.
// Handles are never cached: every Acquire creates a fresh instance.
type Negotiator struct {
	svc Service
}

// NewNegotiator returns a Negotiator over svc.
func NewNegotiator(svc Service) *Negotiator {
	return &Negotiator{svc: svc}
}

// Check queries availability of cap and folds the answer into a Status.
func (n *Negotiator) Check(ctx context.Context, cap Capability) Status {
	caps, err := n.svc.Capabilities(ctx, cap)
	if err != nil {
		reason := fmt.Sprintf("%s capability: %v", cap, err)
		if errors.Is(err, ErrUnsupported) {
			reason = ErrUnsupported.Error()
		}
		return Status{Kind: Unavailable, Reason: reason, Cause: err}
	}

	switch caps.Available() {
	case AvailabilityReadily:
		return Status{Kind: Ready, Caps: caps}
	case AvailabilityAfterDownload:
		return Status{Kind: NeedsDownload, Caps: caps}
	default:
		return Status{
			Kind:   Unavailable,
			Reason: fmt.Sprintf("%s is not available at the moment", cap),
			Caps:   caps,
		}
	}
}

// Acquisition is an in-flight instance acquisition. Progress yields a
// finite sequence of download-progress samples and is closed once the
// handle settles; Instance blocks until settled and returns the handle or
// the acquisition error.
type Acquisition struct {
	progress chan Progress
	done     chan struct{}

	inst Instance
	err  error
}

// Progress returns the progress stream. Loaded values are monotonically
// non-decreasing; regressing samples from the service are dropped. The
// channel is closed when the acquisition settles, so ranging over it is
// the idiomatic way to wait while observing progress.
func (a *Acquisition) Progress() <-chan Progress {
	return a.progress
}

// Instance blocks until the acquisition settles.
func (a *Acquisition) Instance() (Instance, error) {
	<-a.done
	return a.inst, a.err
}

// Acquire creates a fresh instance of cap, subscribing to download
// progress before the handle resolves. The caller should drain
// Acquisition.Progress and then call Instance.
func (n *Negotiator) Acquire(ctx context.Context, cap Capability, opts CreateOptions) *Acquisition {
	a := &Acquisition{
		// Buffered so a service that emits progress faster than the
		// consumer drains cannot stall instance creation.
		progress: make(chan Progress, 64),
		done:     make(chan struct{}),
	}

	var mu sync.Mutex
	var lastLoaded uint64
	var settled bool
	opts.Monitor = func(p Progress) {
		mu.Lock()
		defer mu.Unlock()
		// A sample arriving after settlement, or regressing, is dropped.
		if settled || p.Loaded < lastLoaded {
			return
		}
		lastLoaded = p.Loaded
		select {
		case a.progress <- p:
		default:
			// Consumer is behind; later samples supersede this one anyway.
		}
	}

	go func() {
		defer close(a.done)
		defer func() {
			mu.Lock()
			settled = true
			mu.Unlock()
			close(a.progress)
		}()

		inst, err := n.svc.Create(ctx, cap, opts)
		if err != nil {
			a.err = fmt.Errorf("%w: %v", ErrAcquireFailed, err)
			return
		}
		if err := inst.Ready(ctx); err != nil {
			a.err = fmt.Errorf("%w: %v", ErrAcquireFailed, err)
			return
		}
		a.inst = inst
	}()

	return a
}
