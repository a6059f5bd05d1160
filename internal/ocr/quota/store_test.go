package quota

import (
	"context"
	"testing"
	"time"

	"afipscan/pkg/models"
)

func TestMemoryStoreCounts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if n, _ := store.Current(ctx, models.ProviderGoogleVision); n != 0 {
		t.Fatalf("fresh store count = %d, want 0", n)
	}

	for i := int64(1); i <= 3; i++ {
		n, err := store.Increment(ctx, models.ProviderGoogleVision)
		if err != nil {
			t.Fatal(err)
		}
		if n != i {
			t.Fatalf("increment %d returned %d", i, n)
		}
	}

	if n, _ := store.Current(ctx, models.ProviderGoogleVision); n != 3 {
		t.Fatalf("count = %d, want 3", n)
	}
	if n, _ := store.Current(ctx, models.ProviderDocumentAI); n != 0 {
		t.Fatalf("other provider count = %d, providers must not share counters", n)
	}
}

func TestMemoryStoreDayRollover(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 10, 15, 23, 50, 0, 0, time.UTC)
	store := NewMemoryStoreWithClock(func() time.Time { return clock })

	store.Increment(ctx, models.ProviderGoogleVision)
	store.Increment(ctx, models.ProviderGoogleVision)

	clock = clock.Add(20 * time.Minute)

	if n, _ := store.Current(ctx, models.ProviderGoogleVision); n != 0 {
		t.Fatalf("count after midnight = %d, want reset to 0", n)
	}
	if n, _ := store.Increment(ctx, models.ProviderGoogleVision); n != 1 {
		t.Fatalf("first increment of the new day = %d, want 1", n)
	}
}

func TestMemoryStoreSameDayNoRollover(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2024, 10, 15, 8, 0, 0, 0, time.UTC)
	store := NewMemoryStoreWithClock(func() time.Time { return clock })

	store.Increment(ctx, models.ProviderDocumentAI)
	clock = clock.Add(10 * time.Hour)

	if n, _ := store.Current(ctx, models.ProviderDocumentAI); n != 1 {
		t.Fatalf("count = %d, same-day reads must not reset", n)
	}
}
