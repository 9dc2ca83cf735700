package view

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Readiness defaults. The backoff grows linearly with the attempt number
// (base × attempt, capped) because view-layer render time is not constant
// across terminals and loads; a fixed delay is either too slow or too
// flaky.
const (
	DefaultReadinessBase     = 20 * time.Millisecond
	DefaultReadinessCap      = 250 * time.Millisecond
	DefaultReadinessAttempts = 5
	DefaultReadinessDebounce = 10 * time.Millisecond
)

// ErrNotReady reports that the rendered element set never reached the
// expected size within the retry budget. Non-fatal: the caller re-invokes
// on the next structural mutation.
var ErrNotReady = errors.New("view: element set not ready")

// Report describes the outcome of a readiness check.
type Report struct {
	Ready    bool
	Attempts int
}

// Readiness waits until the rendered tree exposes the expected number of
// item elements, combining bounded backoff polling with the tree's
// structural mutation signal. Mutation bursts are debounced into a single
// re-check.
type Readiness struct {
	tree        Tree
	base        time.Duration
	cap         time.Duration
	maxAttempts int
	debounce    time.Duration
	log         zerolog.Logger
}

// ReadinessParams holds parameters for creating a Readiness controller.
type ReadinessParams struct {
	Tree        Tree
	Base        time.Duration  // 0 = DefaultReadinessBase
	Cap         time.Duration  // 0 = DefaultReadinessCap
	MaxAttempts int            // 0 = DefaultReadinessAttempts
	Debounce    time.Duration  // 0 = DefaultReadinessDebounce
	Logger      zerolog.Logger // zero value = no logging
}

// NewReadiness creates a Readiness controller for the given tree.
func NewReadiness(params ReadinessParams) *Readiness {
	r := &Readiness{
		tree:        params.Tree,
		base:        params.Base,
		cap:         params.Cap,
		maxAttempts: params.MaxAttempts,
		debounce:    params.Debounce,
		log:         params.Logger,
	}
	if r.base == 0 {
		r.base = DefaultReadinessBase
	}
	if r.cap == 0 {
		r.cap = DefaultReadinessCap
	}
	if r.maxAttempts == 0 {
		r.maxAttempts = DefaultReadinessAttempts
	}
	if r.debounce == 0 {
		r.debounce = DefaultReadinessDebounce
	}
	return r
}

// EnsureReady blocks until the tree exposes expected item elements, the
// retry budget runs out, or ctx is done. On exhaustion it returns
// ErrNotReady together with a report of the attempts spent.
func (r *Readiness) EnsureReady(ctx context.Context, expected int) (Report, error) {
	for attempt := 1; ; attempt++ {
		if len(r.tree.ItemElements()) == expected {
			return Report{Ready: true, Attempts: attempt}, nil
		}
		if attempt >= r.maxAttempts {
			r.log.Warn().
				Int("expected", expected).
				Int("rendered", len(r.tree.ItemElements())).
				Int("attempts", attempt).
				Msg("readiness budget exhausted")
			return Report{Attempts: attempt}, fmt.Errorf("%w after %d attempts", ErrNotReady, attempt)
		}
		if err := r.wait(ctx, attempt); err != nil {
			return Report{Attempts: attempt}, err
		}
	}
}

// wait sleeps for the attempt's backoff delay, cut short by a structural
// mutation. A mutation does not re-check immediately: further mutations
// are coalesced for the debounce window first, so a burst of insertions
// triggers one re-check instead of a re-entrant storm.
func (r *Readiness) wait(ctx context.Context, attempt int) error {
	delay := time.Duration(attempt) * r.base
	if delay > r.cap {
		delay = r.cap
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-r.tree.Mutations():
		return r.settle(ctx)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// settle drains mutation signals until the debounce window passes quietly.
func (r *Readiness) settle(ctx context.Context) error {
	timer := time.NewTimer(r.debounce)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			return nil
		case <-r.tree.Mutations():
			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(r.debounce)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
