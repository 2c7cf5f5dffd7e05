package corporation

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/goliatone/go-onboarding/pkg/client"
	"github.com/goliatone/go-onboarding/pkg/logger"
	"github.com/goliatone/go-onboarding/pkg/model"
)

const (
	// DefaultDebounce is the quiet period before a lookup is issued.
	DefaultDebounce = 500 * time.Millisecond
	// NumberLength is the only length that triggers a lookup.
	NumberLength = 9

	// MsgInvalid is shown when the service rejects a number without a message.
	MsgInvalid = "Invalid Corporation Number"
	// MsgLookupFailed is shown when the service errors or cannot be reached.
	MsgLookupFailed = "Failed to validate corporation number"
)

// Lookuper resolves a corporation number against the remote registry.
type Lookuper interface {
	LookupCorporation(ctx context.Context, number string) (client.CorporationResult, error)
}

// LookupFunc adapts a function to Lookuper.
type LookupFunc func(ctx context.Context, number string) (client.CorporationResult, error)

// LookupCorporation calls f.
func (f LookupFunc) LookupCorporation(ctx context.Context, number string) (client.CorporationResult, error) {
	return f(ctx, number)
}

// Listener receives every observable state change. Notifications run outside
// the validator lock, so a listener racing a newer Check may see an older
// snapshot; call State for the authoritative value.
type Listener func(model.ValidationState)

// Option configures a Validator.
type Option func(*Validator)

// WithDebounce overrides the quiet period. Non-positive values are ignored.
func WithDebounce(d time.Duration) Option {
	return func(v *Validator) {
		if d > 0 {
			v.debounce = d
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logger.Logger) Option {
	return func(v *Validator) {
		if l != nil {
			v.logger = l
		}
	}
}

// Validator checks corporation numbers remotely, coalescing rapid edits. Each
// Check supersedes the previous one: its timer is stopped, its request context
// canceled, and any late result is discarded by generation.
type Validator struct {
	lookup   Lookuper
	debounce time.Duration
	logger   logger.Logger

	ctx       context.Context
	cancelAll context.CancelFunc

	mu        sync.Mutex
	state     model.ValidationState
	gen       uint64
	timer     *time.Timer
	cancel    context.CancelFunc
	idle      chan struct{}
	closed    bool
	listeners []Listener
}

// New builds a validator around lookup.
func New(lookup Lookuper, options ...Option) *Validator {
	ctx, cancel := context.WithCancel(context.Background())
	v := &Validator{
		lookup:    lookup,
		debounce:  DefaultDebounce,
		logger:    logger.NewNop(),
		ctx:       ctx,
		cancelAll: cancel,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(v)
	}
	return v
}

// Subscribe registers fn for state changes.
func (v *Validator) Subscribe(fn Listener) {
	if fn == nil {
		return
	}
	v.mu.Lock()
	v.listeners = append(v.listeners, fn)
	v.mu.Unlock()
}

// State returns the current validation state.
func (v *Validator) State() model.ValidationState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Pending reports whether a lookup is scheduled or in flight.
func (v *Validator) Pending() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.idle != nil
}

// Check schedules a lookup for number once the quiet period elapses. When the
// field is untouched or the number is not exactly nine characters long, the
// error is cleared immediately and nothing is sent.
func (v *Validator) Check(number string, touched bool) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}

	v.gen++
	gen := v.gen
	v.stopLocked()

	if !touched || utf8.RuneCountInString(number) != NumberLength {
		changed := v.setLocked(model.ValidationState{})
		v.markIdleLocked()
		listeners, state := v.snapshotLocked()
		v.mu.Unlock()
		if changed {
			notify(listeners, state)
		}
		return
	}

	// a superseded request no longer counts as in flight
	changed := false
	if v.state.Validating {
		changed = v.setLocked(model.ValidationState{})
	}
	v.markBusyLocked()
	v.timer = time.AfterFunc(v.debounce, func() {
		v.run(gen, number)
	})
	listeners, state := v.snapshotLocked()
	v.mu.Unlock()

	if changed {
		notify(listeners, state)
	}
}

// Settled blocks until no lookup is scheduled or in flight, then returns the
// resulting state.
func (v *Validator) Settled(ctx context.Context) (model.ValidationState, error) {
	for {
		v.mu.Lock()
		idle := v.idle
		state := v.state
		v.mu.Unlock()

		if idle == nil {
			return state, nil
		}
		select {
		case <-idle:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

// Close cancels any pending timer or request and suppresses later updates.
func (v *Validator) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.gen++
	v.stopLocked()
	v.markIdleLocked()
	v.listeners = nil
	v.mu.Unlock()

	v.cancelAll()
}

func (v *Validator) run(gen uint64, number string) {
	v.mu.Lock()
	if v.closed || gen != v.gen {
		v.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(v.ctx)
	v.timer = nil
	v.cancel = cancel
	v.setLocked(model.ValidationState{Validating: true})
	listeners, state := v.snapshotLocked()
	v.mu.Unlock()

	notify(listeners, state)

	result, err := v.lookup.LookupCorporation(ctx, number)
	next := v.resolve(number, result, err)

	v.mu.Lock()
	if v.closed || gen != v.gen {
		v.mu.Unlock()
		cancel()
		v.logger.Debug("discarding superseded corporation lookup", map[string]any{"number": number})
		return
	}
	v.cancel = nil
	cancel()
	v.setLocked(next)
	v.markIdleLocked()
	listeners, state = v.snapshotLocked()
	v.mu.Unlock()

	notify(listeners, state)
}

func (v *Validator) resolve(number string, result client.CorporationResult, err error) model.ValidationState {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return model.ValidationState{}
		}
		v.logger.WithError(err).Warn("corporation lookup failed", map[string]any{"number": number})

		var statusErr *client.StatusError
		if errors.As(err, &statusErr) && statusErr.Message != "" {
			return model.ValidationState{Error: statusErr.Message}
		}
		return model.ValidationState{Error: MsgLookupFailed}
	}
	if result.Valid {
		return model.ValidationState{}
	}
	if result.Message != "" {
		return model.ValidationState{Error: result.Message}
	}
	return model.ValidationState{Error: MsgInvalid}
}

func (v *Validator) stopLocked() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

func (v *Validator) setLocked(next model.ValidationState) bool {
	if v.state == next {
		return false
	}
	v.state = next
	return true
}

func (v *Validator) markBusyLocked() {
	if v.idle == nil {
		v.idle = make(chan struct{})
	}
}

func (v *Validator) markIdleLocked() {
	if v.idle != nil {
		close(v.idle)
		v.idle = nil
	}
}

func (v *Validator) snapshotLocked() ([]Listener, model.ValidationState) {
	if len(v.listeners) == 0 {
		return nil, v.state
	}
	out := make([]Listener, len(v.listeners))
	copy(out, v.listeners)
	return out, v.state
}

func notify(listeners []Listener, state model.ValidationState) {
	for _, fn := range listeners {
		fn(state)
	}
}
