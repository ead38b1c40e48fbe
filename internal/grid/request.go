package grid

// request.go implements the request lifecycle manager.
//
// Exactly one lineage of requests is tracked: the latest issued query key.
//
//	Idle -> Fetching -> Succeeded | Failed | Cancelled
//
// Issuing a different key cancels the previous in-flight request without
// waiting for it to settle. Issuing the key that is already in flight is a
// no-op unless forced. Results are only applied while their request is still
// the latest, so a slow earlier response can never overwrite a later one,
// even when the transport ignores cancellation.

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome classifies how a request finished.
type Outcome int

const (
	OutcomeSucceeded Outcome = iota
	OutcomeFailed
	OutcomeCancelled
	// OutcomeStale means the request completed but a newer key is current.
	OutcomeStale
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSucceeded:
		return "succeeded"
	case OutcomeFailed:
		return "failed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeStale:
		return "stale"
	default:
		return "unknown"
	}
}

// InFlightRequest is a network request that has been issued and not yet
// resolved or cancelled.
type InFlightRequest struct {
	ID        string
	Key       string
	StartedAt time.Time

	cancel context.CancelFunc
}

type requestIDKey struct{}

// RequestIDFromContext returns the in-flight request id carried by ctx.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestManager tracks the latest issued request.
type RequestManager struct {
	mu             sync.Mutex
	latest         *InFlightRequest
	suppressCancel bool
}

// NewRequestManager creates a manager. When suppressCancel is true, request
// contexts are detached from cancellation so the transport never sees an
// abort; stale results are still discarded by IsLatest.
func NewRequestManager(suppressCancel bool) *RequestManager {
	return &RequestManager{suppressCancel: suppressCancel}
}

// Begin registers a request for key and returns the context to run it with.
//
// If key is already the latest in-flight request and force is false, no new
// request is issued and ok is false. Otherwise any previous in-flight request
// is cancelled and replaced.
func (m *RequestManager) Begin(parent context.Context, key string, force bool) (ctx context.Context, req *InFlightRequest, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.latest != nil && m.latest.Key == key && !force {
		return nil, nil, false
	}

	if m.latest != nil {
		m.latest.cancel()
		m.latest = nil
	}

	var cancel context.CancelFunc
	if m.suppressCancel {
		ctx, cancel = context.WithoutCancel(parent), func() {}
	} else {
		ctx, cancel = context.WithCancel(parent)
	}

	req = &InFlightRequest{
		ID:        uuid.NewString(),
		Key:       key,
		StartedAt: time.Now(),
		cancel:    cancel,
	}
	m.latest = req

	return context.WithValue(ctx, requestIDKey{}, req.ID), req, true
}

// IsLatest reports whether req is still the request whose result may be applied.
func (m *RequestManager) IsLatest(req *InFlightRequest) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return req != nil && m.latest == req
}

// Finish clears req if it is still the latest. It releases the request's
// context resources either way.
func (m *RequestManager) Finish(req *InFlightRequest) {
	if req == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest == req {
		m.latest = nil
	}
	req.cancel()
}

// Supersede forgets the current lineage without issuing a new request,
// cancelling whatever is in flight. Used when a cache hit becomes current.
func (m *RequestManager) Supersede() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest != nil {
		m.latest.cancel()
		m.latest = nil
	}
}

// CancelAll cancels the in-flight request, if any.
func (m *RequestManager) CancelAll() {
	m.Supersede()
}

// InFlight returns the key of the in-flight request, or "".
func (m *RequestManager) InFlight() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest == nil {
		return ""
	}
	return m.latest.Key
}

// Classify maps a request's result to an Outcome.
// A request that is no longer latest is stale (or cancelled if its error
// says so) regardless of success.
func (m *RequestManager) Classify(req *InFlightRequest, err error) Outcome {
	latest := m.IsLatest(req)
	switch {
	case err != nil && isCancellation(err):
		return OutcomeCancelled
	case !latest:
		return OutcomeStale
	case err != nil:
		return OutcomeFailed
	default:
		return OutcomeSucceeded
	}
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled)
}
