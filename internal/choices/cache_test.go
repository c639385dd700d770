package choices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type fakeSource struct {
	values  []string
	err     error
	queries int
}

func (f *fakeSource) DistinctValues(ctx context.Context, column string) ([]string, error) {
	f.queries++
	if f.err != nil {
		return nil, f.err
	}
	return f.values, nil
}

func setupCache(t *testing.T, source Source) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := New(client, source, 24*time.Hour)
	t.Cleanup(func() { cache.Close() })
	return cache, mr
}

func TestChoicesQueriesOncePerTTLWindow(t *testing.T) {
	source := &fakeSource{values: []string{"Bulk carrier", "Cargo"}}
	cache, _ := setupCache(t, source)
	ctx := context.Background()

	first, err := cache.Choices(ctx, "ship_type")
	if err != nil {
		t.Fatalf("Choices failed: %v", err)
	}
	second, err := cache.Choices(ctx, "ship_type")
	if err != nil {
		t.Fatalf("Choices on hit failed: %v", err)
	}

	if source.queries != 1 {
		t.Errorf("expected 1 underlying query, got %d", source.queries)
	}
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("expected 3 entries (placeholder + 2), got %d and %d", len(first), len(second))
	}
	if first[0] != Placeholder {
		t.Errorf("expected leading placeholder, got %+v", first[0])
	}
	if first[1].Value != "Bulk carrier" || first[1].Label != "Bulk carrier" {
		t.Errorf("unexpected first choice: %+v", first[1])
	}
}

func TestChoicesRequeriesAfterExpiry(t *testing.T) {
	source := &fakeSource{values: []string{"Cargo"}}
	cache, mr := setupCache(t, source)
	ctx := context.Background()

	if _, err := cache.Choices(ctx, "ship_type"); err != nil {
		t.Fatalf("Choices failed: %v", err)
	}

	mr.FastForward(24*time.Hour + time.Minute)

	if _, err := cache.Choices(ctx, "ship_type"); err != nil {
		t.Fatalf("Choices after expiry failed: %v", err)
	}
	if source.queries != 2 {
		t.Errorf("expected 2 underlying queries across TTL boundary, got %d", source.queries)
	}
}

func TestChoicesColumnsAreIndependent(t *testing.T) {
	source := &fakeSource{values: []string{"a"}}
	cache, _ := setupCache(t, source)
	ctx := context.Background()

	if _, err := cache.Choices(ctx, "ship_type"); err != nil {
		t.Fatalf("Choices ship_type failed: %v", err)
	}
	if _, err := cache.Choices(ctx, "ship_name"); err != nil {
		t.Fatalf("Choices ship_name failed: %v", err)
	}
	if source.queries != 2 {
		t.Errorf("expected one query per column, got %d", source.queries)
	}
}

func TestChoicesPropagatesSourceError(t *testing.T) {
	wantErr := errors.New("bad column")
	source := &fakeSource{err: wantErr}
	cache, _ := setupCache(t, source)

	_, err := cache.Choices(context.Background(), "nope")
	if !errors.Is(err, wantErr) {
		t.Errorf("expected source error to propagate, got %v", err)
	}
}

func TestInvalidateForcesRequery(t *testing.T) {
	source := &fakeSource{values: []string{"Cargo"}}
	cache, _ := setupCache(t, source)
	ctx := context.Background()

	if _, err := cache.Choices(ctx, "ship_type"); err != nil {
		t.Fatalf("Choices failed: %v", err)
	}
	if err := cache.Invalidate(ctx, "ship_type"); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	if _, err := cache.Choices(ctx, "ship_type"); err != nil {
		t.Fatalf("Choices after invalidate failed: %v", err)
	}
	if source.queries != 2 {
		t.Errorf("expected requery after invalidate, got %d queries", source.queries)
	}
}

func TestInvalidateUnknownColumnIsNoop(t *testing.T) {
	source := &fakeSource{}
	cache, _ := setupCache(t, source)

	if err := cache.Invalidate(context.Background(), "never-cached"); err != nil {
		t.Errorf("Invalidate of absent key failed: %v", err)
	}
}
