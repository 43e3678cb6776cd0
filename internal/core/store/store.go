// Package store implements the local-first entity store pattern: each
// entity family lives as an in-memory authoritative collection, loaded once
// at startup from the persistence adapter and re-persisted as a single JSON
// blob, best-effort and debounced, after every mutation.
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/ekuzmina/wardrobe-assistant/internal/core/domain"
	"github.com/ekuzmina/wardrobe-assistant/internal/core/ports"
)

// Entity is anything a Store can hold.
type Entity interface {
	EntityID() string
}

type toucher interface {
	Touch(time.Time)
}

const defaultDebounce = 250 * time.Millisecond

type Option func(*options)

type options struct {
	prepend  bool
	capLimit int
	debounce time.Duration
	now      func() time.Time
}

// WithPrepend inserts new entities at the front of the collection instead
// of appending, so List returns most-recent-first.
func WithPrepend() Option {
	return func(o *options) { o.prepend = true }
}

// WithCap evicts entities past n on insert, oldest first.
func WithCap(n int) Option {
	return func(o *options) { o.capLimit = n }
}

// WithDebounce overrides the persist coalescing window.
func WithDebounce(d time.Duration) Option {
	return func(o *options) { o.debounce = d }
}

// WithClock overrides the timestamp source, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// Store owns one entity family for the lifetime of the process. All
// mutations are synchronous against the in-memory collection and schedule
// an asynchronous full-collection persist under the store's fixed key.
type Store[E Entity] struct {
	key   string
	blobs ports.BlobStore
	log   *slog.Logger
	opts  options

	mu        sync.Mutex
	items     []E
	version   uint64
	dirty     bool
	saveTimer *time.Timer
}

// New builds the store and loads its collection. A missing key or a decode
// failure is logged and yields an empty collection, never an error.
func New[E Entity](ctx context.Context, blobs ports.BlobStore, key string, log *slog.Logger, opts ...Option) *Store[E] {
	o := options{debounce: defaultDebounce, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store[E]{key: key, blobs: blobs, log: log.With("collection", key), opts: o}
	s.load(ctx)
	return s
}

func (s *Store[E]) load(ctx context.Context) {
	blob, err := s.blobs.Read(ctx, s.key)
	if err != nil {
		if !domain.IsKind(err, domain.ErrNotFound) {
			s.log.Warn("load_failed_starting_empty", "error", err)
		}
		return
	}

	var items []E
	if err := json.Unmarshal(blob, &items); err != nil {
		s.log.Warn("decode_failed_starting_empty", "error", err)
		return
	}
	s.items = items
}

// List returns the collection in its stored order. The returned slice is a
// copy; callers may not reach the store's backing array through it.
func (s *Store[E]) List() []E {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]E, len(s.items))
	copy(out, s.items)
	return out
}

// Len reports the current collection size.
func (s *Store[E]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Version increments on every mutation; derived indexes key their memos on
// it.
func (s *Store[E]) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// GetByID returns a copy of the entity or domain.ErrNotFound.
func (s *Store[E]) GetByID(id string) (E, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.items {
		if e.EntityID() == id {
			return e, nil
		}
	}
	var zero E
	return zero, domain.WrapError(domain.ErrNotFound, "get "+s.key, errNoSuchID(id))
}

// Add inserts the entity (front or back per options) and enforces the cap.
func (s *Store[E]) Add(e E) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opts.prepend {
		s.items = append([]E{e}, s.items...)
	} else {
		s.items = append(s.items, e)
	}
	if s.opts.capLimit > 0 && len(s.items) > s.opts.capLimit {
		if s.opts.prepend {
			s.items = s.items[:s.opts.capLimit]
		} else {
			s.items = s.items[len(s.items)-s.opts.capLimit:]
		}
	}
	s.changedLocked()
}

// Update replaces the stored entity with the same id and stamps UpdatedAt.
// An absent id is a no-op.
func (s *Store[E]) Update(e E) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].EntityID() == e.EntityID() {
			touch(&e, s.opts.now())
			s.items[i] = e
			s.changedLocked()
			return
		}
	}
}

// Mutate applies fn to the current in-memory value under the store lock and
// stamps UpdatedAt. This is the read-current, merge, write discipline that
// concurrent enrichment stages must use: a stage that captured the entity
// before suspending on a remote call must not write that stale copy back.
func (s *Store[E]) Mutate(id string, fn func(*E)) (E, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].EntityID() == id {
			fn(&s.items[i])
			touch(&s.items[i], s.opts.now())
			s.changedLocked()
			return s.items[i], nil
		}
	}
	var zero E
	return zero, domain.WrapError(domain.ErrNotFound, "mutate "+s.key, errNoSuchID(id))
}

// TryMutate is Mutate whose fn may reject the change: a non-nil error
// aborts with no write, no timestamp, and no version bump. Validation that
// must see the value being written, rather than an earlier snapshot,
// belongs in fn.
func (s *Store[E]) TryMutate(id string, fn func(*E) error) (E, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero E
	for i := range s.items {
		if s.items[i].EntityID() == id {
			e := s.items[i]
			if err := fn(&e); err != nil {
				return zero, err
			}
			touch(&e, s.opts.now())
			s.items[i] = e
			s.changedLocked()
			return e, nil
		}
	}
	return zero, domain.WrapError(domain.ErrNotFound, "mutate "+s.key, errNoSuchID(id))
}

// Remove deletes by id; an absent id is a no-op.
func (s *Store[E]) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].EntityID() == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.changedLocked()
			return
		}
	}
}

// RemoveAll clears the collection.
func (s *Store[E]) RemoveAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.items) == 0 {
		return
	}
	s.items = nil
	s.changedLocked()
}

func (s *Store[E]) changedLocked() {
	s.version++
	s.dirty = true
	if s.saveTimer == nil {
		s.saveTimer = time.AfterFunc(s.opts.debounce, s.persist)
	}
}

func (s *Store[E]) persist() {
	s.mu.Lock()
	s.saveTimer = nil
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	s.dirty = false
	snapshot := make([]E, len(s.items))
	copy(snapshot, s.items)
	s.mu.Unlock()

	blob, err := json.Marshal(snapshot)
	if err != nil {
		s.log.Warn("persist_encode_failed", "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.blobs.Write(ctx, s.key, blob); err != nil {
		s.log.Warn("persist_write_failed", "error", err)
	}
}

// Flush cancels any pending debounce and persists immediately. Used on
// shutdown; write failures stay best-effort.
func (s *Store[E]) Flush(ctx context.Context) {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	if !s.dirty {
		s.mu.Unlock()
		return
	}
	s.dirty = false
	snapshot := make([]E, len(s.items))
	copy(snapshot, s.items)
	s.mu.Unlock()

	blob, err := json.Marshal(snapshot)
	if err != nil {
		s.log.Warn("flush_encode_failed", "error", err)
		return
	}
	if err := s.blobs.Write(ctx, s.key, blob); err != nil {
		s.log.Warn("flush_write_failed", "error", err)
	}
}

func touch(e any, t time.Time) {
	if tt, ok := e.(toucher); ok {
		tt.Touch(t)
	}
}

type errNoSuchID string

func (e errNoSuchID) Error() string { return "no entity with id " + string(e) }
