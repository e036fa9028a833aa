// Package entitycache holds the last fetched collection for each tracked
// entity kind together with its loading flag and fetch time. A Store is
// built once at startup and handed to every consumer; there is no package
// level instance.
package entitycache

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	hclog "github.com/hashicorp/go-hclog"

	"devdeck/internal/platform/clock"
)

// TTL is the freshness window for every kind.
const TTL = 5 * time.Minute

type Kind string

const (
	KindTools     Kind = "tools"
	KindPorts     Kind = "ports"
	KindProcesses Kind = "processes"
	KindCaches    Kind = "caches"
)

// Entry is a point-in-time copy of one slot.
type Entry[T any] struct {
	Items       []T
	Loading     bool
	LastFetchAt *time.Time
}

// IsValid reports whether a collection fetched at lastFetchAt is still fresh
// at now. The boundary is exclusive: exactly ttl old is stale.
func IsValid(now time.Time, lastFetchAt *time.Time, ttl time.Duration) bool {
	if lastFetchAt == nil {
		return false
	}
	return now.Sub(*lastFetchAt) < ttl
}

// SnapshotStore persists slot contents so separate processes share freshness.
type SnapshotStore interface {
	Load(ctx context.Context, kind Kind) (payload []byte, fetchedAt time.Time, ok bool, err error)
	Save(ctx context.Context, kind Kind, payload []byte, fetchedAt time.Time) error
	Delete(ctx context.Context, kind Kind) error
}

type Status struct {
	Kind        Kind
	Count       int
	Loading     bool
	LastFetchAt *time.Time
	Valid       bool
}

type Store struct {
	clk       clock.Clock
	snapshots SnapshotStore
	log       hclog.Logger

	mu    sync.Mutex
	slots map[Kind]statusReporter
}

type statusReporter interface {
	status() Status
}

// New builds a Store. snapshots may be nil for a purely in-memory store.
func New(clk clock.Clock, snapshots SnapshotStore, logger hclog.Logger) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Store{clk: clk, snapshots: snapshots, log: logger.Named("entitycache"), slots: map[Kind]statusReporter{}}
}

// Register creates the slot for kind, restoring a persisted snapshot when one
// exists. Registering a kind twice returns a fresh slot that replaces the
// earlier one in Status.
func Register[T any](s *Store, kind Kind) *Slot[T] {
	slot := &Slot[T]{kind: kind, store: s}
	slot.restore()
	s.mu.Lock()
	s.slots[kind] = slot
	s.mu.Unlock()
	return slot
}

// Status lists every registered kind sorted by name.
func (s *Store) Status() []Status {
	s.mu.Lock()
	reporters := make([]statusReporter, 0, len(s.slots))
	for _, r := range s.slots {
		reporters = append(reporters, r)
	}
	s.mu.Unlock()

	out := make([]Status, 0, len(reporters))
	for _, r := range reporters {
		out = append(out, r.status())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

type Slot[T any] struct {
	kind  Kind
	store *Store

	mu    sync.Mutex
	entry Entry[T]
}

func (s *Slot[T]) Kind() Kind { return s.kind }

// Get returns a copy of the current entry.
func (s *Slot[T]) Get() Entry[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Entry[T]{Loading: s.entry.Loading}
	if s.entry.Items != nil {
		out.Items = append([]T(nil), s.entry.Items...)
	}
	if s.entry.LastFetchAt != nil {
		at := *s.entry.LastFetchAt
		out.LastFetchAt = &at
	}
	return out
}

// Set replaces the whole collection, stamps the fetch time and clears the
// loading flag. An empty collection is a valid, cacheable answer.
func (s *Slot[T]) Set(items []T) {
	now := s.store.clk.Now()
	if items == nil {
		items = []T{}
	}
	s.mu.Lock()
	s.entry = Entry[T]{Items: append([]T(nil), items...), LastFetchAt: &now}
	s.mu.Unlock()
	s.persist(items, now)
}

func (s *Slot[T]) SetLoading(loading bool) {
	s.mu.Lock()
	s.entry.Loading = loading
	s.mu.Unlock()
}

// Valid applies IsValid with TTL to this slot.
func (s *Slot[T]) Valid() bool {
	s.mu.Lock()
	last := s.entry.LastFetchAt
	s.mu.Unlock()
	return IsValid(s.store.clk.Now(), last, TTL)
}

// Invalidate forgets the fetch time but keeps the items, so views can keep
// showing stale data while a refresh runs.
func (s *Slot[T]) Invalidate() {
	s.mu.Lock()
	s.entry.LastFetchAt = nil
	s.mu.Unlock()
	if s.store.snapshots == nil {
		return
	}
	if err := s.store.snapshots.Delete(context.Background(), s.kind); err != nil {
		s.store.log.Warn("drop snapshot failed", "kind", s.kind, "error", err)
	}
}

func (s *Slot[T]) status() Status {
	e := s.Get()
	return Status{
		Kind:        s.kind,
		Count:       len(e.Items),
		Loading:     e.Loading,
		LastFetchAt: e.LastFetchAt,
		Valid:       IsValid(s.store.clk.Now(), e.LastFetchAt, TTL),
	}
}

func (s *Slot[T]) persist(items []T, at time.Time) {
	if s.store.snapshots == nil {
		return
	}
	payload, err := json.Marshal(items)
	if err != nil {
		s.store.log.Warn("encode snapshot failed", "kind", s.kind, "error", err)
		return
	}
	if err := s.store.snapshots.Save(context.Background(), s.kind, payload, at); err != nil {
		s.store.log.Warn("save snapshot failed", "kind", s.kind, "error", err)
	}
}

func (s *Slot[T]) restore() {
	if s.store.snapshots == nil {
		return
	}
	payload, at, ok, err := s.store.snapshots.Load(context.Background(), s.kind)
	if err != nil {
		s.store.log.Warn("load snapshot failed", "kind", s.kind, "error", err)
		return
	}
	if !ok {
		return
	}
	var items []T
	if err := json.Unmarshal(payload, &items); err != nil {
		s.store.log.Warn("decode snapshot failed", "kind", s.kind, "error", err)
		return
	}
	if items == nil {
		items = []T{}
	}
	s.entry = Entry[T]{Items: items, LastFetchAt: &at}
	s.store.log.Debug("restored snapshot", "kind", s.kind, "items", len(items), "fetched_at", at)
}
