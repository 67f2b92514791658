package packcache

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/corridor-hub/corridor-hub/internal/corridor"
	"github.com/corridor-hub/corridor-hub/internal/geo"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"), testLogger())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func samplePack(key, algoVersion string) *corridor.Pack {
	return &corridor.Pack{
		CorridorKey: key,
		RouteKey:    "rk-1",
		Profile:     "drive",
		AlgoVersion: algoVersion,
		BBox:        geo.BBox{MinLng: 153.0, MinLat: -28.1, MaxLng: 153.5, MaxLat: -27.4},
		Nodes:       []corridor.Node{{ID: 1, Lat: -27.47, Lng: 153.02}, {ID: 2, Lat: -27.48, Lng: 153.03}},
		Edges:       []corridor.PackEdge{{A: 1, B: 2, DistanceM: 120, DurationS: 9, Flags: corridor.FlagToll}},
		CreatedAt:   "2026-08-29T00:00:00Z",
	}
}

func TestPutAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pack := samplePack("key-a", "v1")
	n, err := store.Put(ctx, pack, 15000, 350000)
	if err != nil {
		t.Fatalf("put error: %v", err)
	}
	if n <= 0 {
		t.Fatalf("expected positive payload size, got %d", n)
	}

	rec, err := store.Get(ctx, "key-a")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if rec.Bytes != n {
		t.Fatalf("stored size mismatch: %d != %d", rec.Bytes, n)
	}
	got := rec.Pack
	if got.CorridorKey != "key-a" || got.Profile != "drive" || got.AlgoVersion != "v1" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
	if len(got.Nodes) != 2 || len(got.Edges) != 1 {
		t.Fatalf("payload mismatch: %d nodes, %d edges", len(got.Nodes), len(got.Edges))
	}
	if got.Edges[0].Flags != corridor.FlagToll {
		t.Fatalf("flags lost: %d", got.Edges[0].Flags)
	}
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)
	if _, err := store.Get(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	pack := samplePack("key-b", "v1")
	if _, err := store.Put(ctx, pack, 15000, 350000); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if _, err := store.Put(ctx, pack, 15000, 350000); err != nil {
		t.Fatalf("second put must be safe: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats error: %v", err)
	}
	if stats.Rows != 1 {
		t.Fatalf("upsert must not duplicate rows: %d", stats.Rows)
	}
}

func TestPurgeOtherVersions(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, spec := range []struct{ key, version string }{
		{"key-v1-a", "v1"},
		{"key-v1-b", "v1"},
		{"key-v2", "v2"},
	} {
		if _, err := store.Put(ctx, samplePack(spec.key, spec.version), 15000, 350000); err != nil {
			t.Fatalf("put %s: %v", spec.key, err)
		}
	}

	removed, err := store.PurgeOtherVersions(ctx, "v2")
	if err != nil {
		t.Fatalf("purge error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 removed, got %d", removed)
	}

	if _, err := store.Get(ctx, "key-v1-a"); err != ErrNotFound {
		t.Fatalf("v1 row must be gone, got %v", err)
	}
	if _, err := store.Get(ctx, "key-v2"); err != nil {
		t.Fatalf("current version row must survive: %v", err)
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats error: %v", err)
	}
	if stats.Rows != 0 || stats.Bytes != 0 {
		t.Fatalf("fresh store must be empty: %+v", stats)
	}

	n, err := store.Put(ctx, samplePack("key-s", "v1"), 15000, 350000)
	if err != nil {
		t.Fatalf("put error: %v", err)
	}
	stats, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats error: %v", err)
	}
	if stats.Rows != 1 || stats.Bytes != int64(n) {
		t.Fatalf("stats mismatch: %+v (payload %d)", stats, n)
	}
}

func TestMemoryStoreMatchesSemantics(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	if _, err := store.Get(ctx, "absent"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := store.Put(ctx, samplePack("key-m", "v1"), 15000, 350000); err != nil {
		t.Fatalf("put error: %v", err)
	}
	rec, err := store.Get(ctx, "key-m")
	if err != nil {
		t.Fatalf("get error: %v", err)
	}
	if rec.Pack.RouteKey != "rk-1" {
		t.Fatalf("round-trip mismatch: %+v", rec.Pack)
	}

	removed, err := store.PurgeOtherVersions(ctx, "v2")
	if err != nil || removed != 1 {
		t.Fatalf("purge: removed=%d err=%v", removed, err)
	}
}
