package partner

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/empaques/backoffice/internal/domain/partner"
	"github.com/empaques/backoffice/internal/domain/shared"
)

// Result is the outcome of a directory lookup delivered to the resolver's
// callback.
type Result struct {
	TaxID  string
	Client *partner.Client
	Found  bool
	Err    error
}

// Resolver debounces tax-identifier keystrokes against the remote client
// directory. Lookups fire after the debounce window elapses with no new
// input, only for identifiers at least MinLength long, and never while a
// previous lookup is still in flight.
//
// The resolver is failure-silent on not-found: an unknown identifier is a
// normal outcome (the operator is typing a new client), not an error.
type Resolver struct {
	directory partner.Directory
	log       *zap.Logger

	window    time.Duration
	minLength int
	timeout   time.Duration

	onResult func(Result)

	mu       sync.Mutex
	timer    *time.Timer
	pending  string
	inFlight bool
}

// ResolverOptions tunes the debounce behavior
type ResolverOptions struct {
	DebounceWindow time.Duration
	MinLength      int
	LookupTimeout  time.Duration
}

// NewResolver creates a resolver. onResult is invoked from the lookup
// goroutine whenever a lookup completes; it may be nil.
func NewResolver(directory partner.Directory, opts ResolverOptions, onResult func(Result), log *zap.Logger) *Resolver {
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = 800 * time.Millisecond
	}
	if opts.MinLength <= 0 {
		opts.MinLength = 8
	}
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 5 * time.Second
	}
	return &Resolver{
		directory: directory,
		log:       log.Named("resolver"),
		window:    opts.DebounceWindow,
		minLength: opts.MinLength,
		timeout:   opts.LookupTimeout,
		onResult:  onResult,
	}
}

// Search registers a new keystroke. Each call resets the debounce timer;
// input shorter than the minimum length cancels any pending lookup and
// schedules nothing.
func (r *Resolver) Search(taxID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.pending = taxID

	if len(taxID) < r.minLength {
		return
	}

	r.timer = time.AfterFunc(r.window, func() {
		r.fire(taxID)
	})
}

// Flush runs any pending lookup immediately, bypassing the debounce
// window. Used on field blur and form submit so the operator never waits
// out the window. It still respects the minimum length and the in-flight
// exclusion.
func (r *Resolver) Flush() {
	r.mu.Lock()
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	taxID := r.pending
	r.mu.Unlock()

	if len(taxID) < r.minLength {
		return
	}
	r.fire(taxID)
}

// fire performs one lookup unless another is already running. A lookup
// that arrives while one is in flight is dropped, not queued: the next
// keystroke will schedule a fresh one.
func (r *Resolver) fire(taxID string) {
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		return
	}
	r.inFlight = true
	r.mu.Unlock()

	go func() {
		defer func() {
			r.mu.Lock()
			r.inFlight = false
			r.mu.Unlock()
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		result := r.lookup(ctx, taxID)
		if r.onResult != nil {
			r.onResult(result)
		}
	}()
}

// Resolve performs a synchronous lookup, skipping the debounce machinery.
// It backs the back-office client search endpoint.
func (r *Resolver) Resolve(ctx context.Context, taxID string) (*partner.Client, error) {
	if len(taxID) < r.minLength {
		return nil, shared.ErrInvalidInput
	}

	client, err := r.directory.FindByTaxID(ctx, taxID)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (r *Resolver) lookup(ctx context.Context, taxID string) Result {
	client, err := r.directory.FindByTaxID(ctx, taxID)
	switch {
	case err == nil:
		return Result{TaxID: taxID, Client: client, Found: true}
	case errors.Is(err, shared.ErrNotFound):
		return Result{TaxID: taxID, Found: false}
	default:
		r.log.Warn("Client lookup failed", zap.String("tax_id", taxID), zap.Error(err))
		return Result{TaxID: taxID, Err: err}
	}
}
