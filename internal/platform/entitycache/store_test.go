package entitycache_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"devdeck/internal/platform/clock"
	"devdeck/internal/platform/entitycache"
	"devdeck/internal/platform/sqlitedb"
)

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

func TestIsValidBoundaries(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		last *time.Time
		now  time.Time
		want bool
	}{
		{name: "absent", last: nil, now: t0, want: false},
		{name: "just fetched", last: &t0, now: t0, want: true},
		{name: "4m59s", last: &t0, now: t0.Add(4*time.Minute + 59*time.Second), want: true},
		{name: "exactly ttl", last: &t0, now: t0.Add(entitycache.TTL), want: false},
		{name: "5m01s", last: &t0, now: t0.Add(5*time.Minute + time.Second), want: false},
	}
	for _, tc := range cases {
		if got := entitycache.IsValid(tc.now, tc.last, entitycache.TTL); got != tc.want {
			t.Fatalf("%s: IsValid=%v want %v", tc.name, got, tc.want)
		}
	}
}

func TestSlotSetStampsAndClearsLoading(t *testing.T) {
	t.Parallel()
	clk := &manualClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	store := entitycache.New(clk, nil, nil)
	slot := entitycache.Register[string](store, entitycache.KindTools)

	if slot.Valid() {
		t.Fatalf("fresh slot must not be valid")
	}
	slot.SetLoading(true)
	if !slot.Get().Loading {
		t.Fatalf("expected loading flag")
	}
	slot.Set(nil)
	entry := slot.Get()
	if entry.Loading {
		t.Fatalf("set must clear loading")
	}
	if entry.LastFetchAt == nil || !entry.LastFetchAt.Equal(clk.now) {
		t.Fatalf("unexpected fetch time: %v", entry.LastFetchAt)
	}
	if entry.Items == nil || len(entry.Items) != 0 {
		t.Fatalf("empty result must be cached as empty, got %#v", entry.Items)
	}
	if !slot.Valid() {
		t.Fatalf("empty collection must still be fresh")
	}

	clk.now = clk.now.Add(5*time.Minute + time.Second)
	if slot.Valid() {
		t.Fatalf("slot must expire after ttl")
	}
}

func TestLoadingAloneNeverMarksFresh(t *testing.T) {
	t.Parallel()
	store := entitycache.New(clock.SystemClock{}, nil, nil)
	slot := entitycache.Register[int](store, entitycache.KindPorts)
	slot.Set([]int{1, 2})
	slot.Invalidate()
	slot.SetLoading(true)
	slot.SetLoading(false)

	entry := slot.Get()
	if entry.LastFetchAt != nil {
		t.Fatalf("failed refresh must not restamp fetch time")
	}
	if len(entry.Items) != 2 {
		t.Fatalf("stale items must be kept, got %v", entry.Items)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	t.Parallel()
	store := entitycache.New(clock.SystemClock{}, nil, nil)
	slot := entitycache.Register[string](store, entitycache.KindCaches)
	slot.Set([]string{"a"})
	entry := slot.Get()
	entry.Items[0] = "mutated"
	if got := slot.Get().Items[0]; got != "a" {
		t.Fatalf("slot leaked its backing slice: %q", got)
	}
}

func TestSnapshotsSurviveNewStore(t *testing.T) {
	t.Parallel()
	db, err := sqlitedb.Open(filepath.Join(t.TempDir(), "state", "devdeck.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	snapshots, err := entitycache.NewSQLiteSnapshots(context.Background(), db)
	if err != nil {
		t.Fatalf("open snapshots: %v", err)
	}

	clk := &manualClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	first := entitycache.Register[string](entitycache.New(clk, snapshots, nil), entitycache.KindTools)
	first.Set([]string{"eslint", "prettier"})

	clk.now = clk.now.Add(2 * time.Minute)
	second := entitycache.Register[string](entitycache.New(clk, snapshots, nil), entitycache.KindTools)
	entry := second.Get()
	if len(entry.Items) != 2 || entry.Items[1] != "prettier" {
		t.Fatalf("snapshot not restored: %+v", entry.Items)
	}
	if !second.Valid() {
		t.Fatalf("restored snapshot should still be fresh")
	}

	second.Invalidate()
	third := entitycache.Register[string](entitycache.New(clk, snapshots, nil), entitycache.KindTools)
	if third.Get().LastFetchAt != nil {
		t.Fatalf("invalidated snapshot must not be restored")
	}
}

func TestStatusListsRegisteredKinds(t *testing.T) {
	t.Parallel()
	store := entitycache.New(clock.SystemClock{}, nil, nil)
	tools := entitycache.Register[string](store, entitycache.KindTools)
	entitycache.Register[int](store, entitycache.KindPorts)
	tools.Set([]string{"x"})

	status := store.Status()
	if len(status) != 2 {
		t.Fatalf("expected 2 kinds, got %d", len(status))
	}
	if status[0].Kind != entitycache.KindPorts || status[1].Kind != entitycache.KindTools {
		t.Fatalf("status not sorted: %+v", status)
	}
	if !status[1].Valid || status[1].Count != 1 {
		t.Fatalf("unexpected tools status: %+v", status[1])
	}
}
