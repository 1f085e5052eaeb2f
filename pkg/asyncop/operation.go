// Package asyncop runs a possibly failing operation with a fixed-delay retry
// loop and exposes its live {data, loading, error} state.
//
// Every Execute takes a generation token. Only the newest call may commit
// state or report a terminal failure; superseded calls return ErrStale.
package asyncop

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lms-admin-gateway/pkg/errors"
)

const (
	// DefaultRetryAttempts is the attempt count used when Options leaves it unset.
	DefaultRetryAttempts = 3
	// DefaultRetryDelay is the pause between attempts when Options leaves it unset.
	DefaultRetryDelay = time.Second
)

// Func is the wrapped operation.
type Func[A, T any] func(ctx context.Context, args A) (T, error)

// Observer receives one call per attempt. err is nil for a successful attempt.
type Observer interface {
	ObserveAttempt(operation string, attempt int, err error)
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Options configures an Operation.
type Options struct {
	Name          string
	RetryAttempts int
	RetryDelay    time.Duration
	// OnError runs once per terminal failure of the current call.
	OnError  func(error)
	Logger   *zap.Logger
	Observer Observer
	Sleep    SleepFunc
}

// State is a snapshot of an Operation.
type State[T any] struct {
	Data     T
	HasData  bool
	Loading  bool
	Err      error
	Attempts int
}

// Operation wraps a Func. The zero value is not usable; call New.
type Operation[A, T any] struct {
	fn   Func[A, T]
	opts Options

	mu       sync.Mutex
	gen      uint64
	state    State[T]
	lastArgs A
}

// New wraps fn. RetryAttempts below one becomes DefaultRetryAttempts and a
// negative delay becomes DefaultRetryDelay.
func New[A, T any](fn Func[A, T], opts Options) *Operation[A, T] {
	if opts.RetryAttempts < 1 {
		opts.RetryAttempts = DefaultRetryAttempts
	}
	if opts.RetryDelay < 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Sleep == nil {
		opts.Sleep = sleep
	}
	if opts.Name == "" {
		opts.Name = "operation"
	}
	return &Operation[A, T]{fn: fn, opts: opts}
}

// Execute runs the operation with args, retrying with the same args after a
// fixed delay until it succeeds or RetryAttempts are used up. The returned
// error is the stored error; data from a previous call stays visible while
// loading. A cancelled ctx ends the retry wait and becomes the terminal error.
func (o *Operation[A, T]) Execute(ctx context.Context, args A) (T, error) {
	o.mu.Lock()
	o.gen++
	gen := o.gen
	o.lastArgs = args
	o.state.Loading = true
	o.state.Err = nil
	o.state.Attempts = 0
	o.mu.Unlock()

	log := o.opts.Logger.With(zap.String("operation", o.opts.Name), zap.Uint64("generation", gen))

	var (
		zero     T
		lastErr  error
		attempts int
	)
	for attempt := 1; attempt <= o.opts.RetryAttempts; attempt++ {
		attempts = attempt
		if !o.markAttempt(gen, attempt) {
			return zero, appErrors.ErrStale
		}
		log.Debug("attempt started", zap.Int("attempt", attempt))

		result, err := o.call(ctx, args)
		if o.opts.Observer != nil {
			o.opts.Observer.ObserveAttempt(o.opts.Name, attempt, err)
		}
		if err == nil {
			if !o.commit(gen, func(s *State[T]) {
				s.Data = result
				s.HasData = true
				s.Err = nil
			}) {
				return zero, appErrors.ErrStale
			}
			return result, nil
		}

		lastErr = err
		if attempt == o.opts.RetryAttempts {
			break
		}
		log.Warn("attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		if waitErr := o.opts.Sleep(ctx, o.opts.RetryDelay); waitErr != nil {
			lastErr = waitErr
			break
		}
	}

	if !o.commit(gen, func(s *State[T]) {
		s.Data = zero
		s.HasData = false
		s.Err = lastErr
	}) {
		return zero, appErrors.ErrStale
	}
	log.Error("operation failed", zap.Int("attempts", attempts), zap.Error(lastErr))
	if o.opts.OnError != nil {
		o.opts.OnError(lastErr)
	}
	return zero, lastErr
}

// Retry re-executes with the arguments of the most recent Execute, or the zero
// value of A when there was none.
func (o *Operation[A, T]) Retry(ctx context.Context) (T, error) {
	o.mu.Lock()
	args := o.lastArgs
	o.mu.Unlock()
	return o.Execute(ctx, args)
}

// State returns a snapshot.
func (o *Operation[A, T]) State() State[T] {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Reset clears the state and invalidates in-flight calls.
func (o *Operation[A, T]) Reset() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.gen++
	o.state = State[T]{}
	var zero A
	o.lastArgs = zero
}

// current reports whether gen is still the newest generation. Callers hold mu.
func (o *Operation[A, T]) current(gen uint64) bool {
	return o.gen == gen
}

func (o *Operation[A, T]) markAttempt(gen uint64, attempt int) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.current(gen) {
		return false
	}
	o.state.Loading = true
	o.state.Attempts = attempt
	return true
}

func (o *Operation[A, T]) commit(gen uint64, apply func(*State[T])) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.current(gen) {
		return false
	}
	apply(&o.state)
	o.state.Loading = false
	return true
}

// call converts a panic in fn into an error so every failure reaches the stored state.
func (o *Operation[A, T]) call(ctx context.Context, args A) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			result = zero
			err = fmt.Errorf("%s panicked: %v", o.opts.Name, r)
		}
	}()
	return o.fn(ctx, args)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
