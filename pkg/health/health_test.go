package health

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateAllHealthy(t *testing.T) {
	agg := NewAggregator(time.Second,
		CheckerFunc{CheckerName: "retrieval", Fn: func(ctx context.Context) error { return nil }},
		CheckerFunc{CheckerName: "llm", Fn: func(ctx context.Context) error { return nil }},
	)

	status := agg.Aggregate(context.Background())

	assert.Equal(t, StatusOK, status.Status)
	require.Len(t, status.Checks, 2)
	assert.True(t, status.Checks["retrieval"].Healthy)
	assert.True(t, status.Checks["llm"].Healthy)
}

func TestAggregateDegradedOnFailure(t *testing.T) {
	agg := NewAggregator(time.Second,
		CheckerFunc{CheckerName: "retrieval", Fn: func(ctx context.Context) error { return nil }},
		CheckerFunc{CheckerName: "llm", Fn: func(ctx context.Context) error { return fmt.Errorf("model offline") }},
	)

	status := agg.Aggregate(context.Background())

	assert.Equal(t, StatusDegraded, status.Status)
	assert.True(t, status.Checks["retrieval"].Healthy)
	assert.False(t, status.Checks["llm"].Healthy)
	assert.Equal(t, "model offline", status.Checks["llm"].Error)
}

func TestAggregateSharedTimeout(t *testing.T) {
	agg := NewAggregator(30*time.Millisecond,
		CheckerFunc{CheckerName: "slow", Fn: func(ctx context.Context) error {
			select {
			case <-time.After(time.Second):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}},
	)

	start := time.Now()
	status := agg.Aggregate(context.Background())

	assert.Equal(t, StatusDegraded, status.Status)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
