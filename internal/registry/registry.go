// ABOUTME: Client-side registry of normalized run records
// ABOUTME: Gates refresh on authorization, applies optimistic add/remove, discards stale responses

package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/harper/stride/internal/models"
	"github.com/harper/stride/internal/runs"
	"github.com/harper/stride/internal/transport"
	"github.com/rs/zerolog"
)

// ErrAuthorizationLost is returned by Refresh when the backend rejects the
// session token. The collection has already been cleared.
var ErrAuthorizationLost = errors.New("authorization lost")

// ErrSuperseded is returned by Refresh when its response arrived after a newer
// refresh or local mutation had started. The response was discarded.
var ErrSuperseded = errors.New("refresh superseded")

// FetchError is a recoverable refresh failure. The collection is left as it was.
type FetchError struct {
	Status transport.Status
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch runs (%s): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("fetch runs: %s", e.Status)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transport fetches the full run collection from the backend.
type Transport interface {
	FetchRuns(ctx context.Context, token string) (transport.Status, []map[string]any, error)
}

// Observer receives a snapshot of the collection after every change.
// It is called with the registry locked and must not call back into it.
type Observer func(runs []models.RunRecord)

// Registry owns the run collection. All mutation goes through its methods.
type Registry struct {
	mu        sync.Mutex
	transport Transport
	auth      Authorization
	runs      []models.RunRecord
	// seq increases on every refresh and local mutation; a refresh response is
	// applied only if no newer operation has started since it was issued.
	seq      uint64
	observer Observer
	onSync   func()
	logger   zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithObserver registers a change observer.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

// WithSyncHook registers fn to run after every refresh whose response replaced
// the collection, including refreshes started by SetAuthorization or Watch.
// Like the observer it runs with the registry locked.
func WithSyncHook(fn func()) Option {
	return func(r *Registry) { r.onSync = fn }
}

// WithAuthorization sets the initial authorization state without triggering a refresh.
func WithAuthorization(a Authorization) Option {
	return func(r *Registry) { r.auth = a }
}

// New creates an empty registry backed by t.
func New(t Transport, opts ...Option) *Registry {
	r := &Registry{
		transport: t,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Authorization returns the current authorization state.
func (r *Registry) Authorization() Authorization {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.auth
}

// Runs returns a copy of the collection, most recent first.
func (r *Registry) Runs() []models.RunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// Get returns the run with the given id.
func (r *Registry) Get(id string) (models.RunRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.runs[i], true
	}
	return models.RunRecord{}, false
}

// Len returns the number of runs held.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

// Restore replaces the collection with previously normalized records, for
// example a cached snapshot. It is ignored unless the caller is permitted.
func (r *Registry) Restore(records []models.RunRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.auth.Permitted() {
		return
	}
	r.seq++
	r.replaceLocked(records)
}

// Refresh reloads the collection from the backend. synced reports whether a
// successful response replaced the collection.
//
// Without a permitted authorization the collection is cleared and no request
// is made. Forbidden clears the collection and returns nil; unauthorized clears
// it and returns ErrAuthorizationLost; any other failure leaves the collection
// untouched and returns a *FetchError. Responses that arrive after a newer
// refresh or local mutation has started are discarded with ErrSuperseded.
func (r *Registry) Refresh(ctx context.Context) (synced bool, err error) {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	auth := r.auth
	if !auth.Permitted() {
		r.resetLocked()
		r.mu.Unlock()
		r.logger.Debug().Bool("authenticated", auth.Authenticated()).Str("role", auth.Role.String()).Msg("Refresh skipped")
		return false, nil
	}
	r.mu.Unlock()

	status, records, fetchErr := r.transport.FetchRuns(ctx, auth.Token)

	r.mu.Lock()
	defer r.mu.Unlock()

	if seq != r.seq {
		r.logger.Debug().Uint64("seq", seq).Uint64("latest", r.seq).Msg("Discarding stale refresh response")
		return false, ErrSuperseded
	}

	if fetchErr != nil {
		return false, &FetchError{Status: transport.StatusFailure, Err: fetchErr}
	}

	switch status {
	case transport.StatusOK:
		r.replaceLocked(runs.NormalizeAll(records))
		r.logger.Info().Int("runs", len(r.runs)).Msg("Runs refreshed")
		if r.onSync != nil {
			r.onSync()
		}
		return true, nil
	case transport.StatusForbidden:
		r.resetLocked()
		r.logger.Info().Msg("Runs forbidden for this account; collection cleared")
		return false, nil
	case transport.StatusUnauthorized:
		r.resetLocked()
		return false, ErrAuthorizationLost
	default:
		return false, &FetchError{Status: status}
	}
}

// Add normalizes raw and inserts it at the front of the collection without a
// round trip. An existing run with the same id is replaced.
func (r *Registry) Add(raw runs.Raw) models.RunRecord {
	rec := runs.Normalize(raw)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++

	next := make([]models.RunRecord, 0, len(r.runs)+1)
	next = append(next, rec)
	for _, existing := range r.runs {
		if existing.ID != rec.ID {
			next = append(next, existing)
		}
	}
	r.runs = next
	r.notifyLocked()
	return rec
}

// Remove deletes the run with the given id. It reports whether a run was removed;
// an unknown id is a no-op.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexLocked(id)
	if i < 0 {
		return false
	}
	r.seq++
	r.runs = append(r.runs[:i:i], r.runs[i+1:]...)
	r.notifyLocked()
	return true
}

// SetAuthorization applies an authorization transition. Entering the permitted
// state (or switching tokens while in it) triggers a refresh whose result is
// returned; leaving it clears the collection.
func (r *Registry) SetAuthorization(ctx context.Context, a Authorization) (synced bool, err error) {
	r.mu.Lock()
	prev := r.auth
	r.auth = a
	was, now := prev.Permitted(), a.Permitted()
	if was && !now {
		r.seq++
		r.resetLocked()
	}
	r.mu.Unlock()

	if now && (!was || prev.Token != a.Token) {
		return r.Refresh(ctx)
	}
	return false, nil
}

// Watch applies authorization transitions from events until the channel is
// closed or ctx is done. Refresh failures are logged, not returned.
func (r *Registry) Watch(ctx context.Context, events <-chan Authorization) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := r.SetAuthorization(ctx, a); err != nil && !errors.Is(err, ErrSuperseded) {
				r.logger.Warn().Err(err).Msg("Refresh after authorization change failed")
			}
		}
	}
}

func (r *Registry) indexLocked(id string) int {
	for i := range r.runs {
		if r.runs[i].ID == id {
			return i
		}
	}
	return -1
}

// replaceLocked swaps in a new collection, keeping the first record per id.
func (r *Registry) replaceLocked(records []models.RunRecord) {
	seen := make(map[string]struct{}, len(records))
	next := make([]models.RunRecord, 0, len(records))
	for _, rec := range records {
		if _, dup := seen[rec.ID]; dup {
			continue
		}
		seen[rec.ID] = struct{}{}
		next = append(next, rec)
	}
	r.runs = next
	r.notifyLocked()
}

func (r *Registry) resetLocked() {
	r.runs = nil
	r.notifyLocked()
}

func (r *Registry) snapshotLocked() []models.RunRecord {
	out := make([]models.RunRecord, len(r.runs))
	copy(out, r.runs)
	return out
}

func (r *Registry) notifyLocked() {
	if r.observer != nil {
		r.observer(r.snapshotLocked())
	}
}
