package tools

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fnExecutor struct {
	name string
	fn   func(ctx context.Context, query string) (map[string]interface{}, error)
}

func (f *fnExecutor) Name() string { return f.name }
func (f *fnExecutor) Execute(ctx context.Context, query string) (map[string]interface{}, error) {
	return f.fn(ctx, query)
}

func TestPoolExecuteSuccess(t *testing.T) {
	pool := NewPool(200 * time.Millisecond)
	exec := &fnExecutor{name: "fast", fn: func(ctx context.Context, q string) (map[string]interface{}, error) {
		return map[string]interface{}{"echo": q}, nil
	}}

	res := pool.Execute(context.Background(), exec, "hello")

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, "fast", res.Name)
	assert.Equal(t, "hello", res.Payload["echo"])
	assert.Empty(t, res.Error)
}

func TestPoolExecuteTimeout(t *testing.T) {
	pool := NewPool(30 * time.Millisecond)
	exec := &fnExecutor{name: "slow", fn: func(ctx context.Context, q string) (map[string]interface{}, error) {
		select {
		case <-time.After(2 * time.Second):
			return map[string]interface{}{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}}

	start := time.Now()
	res := pool.Execute(context.Background(), exec, "anything")

	assert.Equal(t, StatusTimeout, res.Status)
	assert.Nil(t, res.Payload)
	assert.Less(t, time.Since(start), time.Second, "timeout must cut the call short")
}

func TestPoolExecuteError(t *testing.T) {
	pool := NewPool(200 * time.Millisecond)
	exec := &fnExecutor{name: "broken", fn: func(ctx context.Context, q string) (map[string]interface{}, error) {
		return nil, fmt.Errorf("backend unavailable")
	}}

	res := pool.Execute(context.Background(), exec, "x")

	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Error, "backend unavailable")
}

func TestPoolExecuteRecoversPanic(t *testing.T) {
	pool := NewPool(200 * time.Millisecond)
	exec := &fnExecutor{name: "panicky", fn: func(ctx context.Context, q string) (map[string]interface{}, error) {
		panic("boom")
	}}

	res := pool.Execute(context.Background(), exec, "x")

	assert.Equal(t, StatusError, res.Status)
	assert.Contains(t, res.Error, "panicked")
}

func TestPoolExecuteAllKeepsDispatchOrder(t *testing.T) {
	pool := NewPool(500 * time.Millisecond)

	// The first executor finishes last; results must still come back in
	// dispatch order.
	execs := []Executor{
		&fnExecutor{name: "a", fn: func(ctx context.Context, q string) (map[string]interface{}, error) {
			time.Sleep(80 * time.Millisecond)
			return map[string]interface{}{"n": "a"}, nil
		}},
		&fnExecutor{name: "b", fn: func(ctx context.Context, q string) (map[string]interface{}, error) {
			return nil, fmt.Errorf("nope")
		}},
		&fnExecutor{name: "c", fn: func(ctx context.Context, q string) (map[string]interface{}, error) {
			return map[string]interface{}{"n": "c"}, nil
		}},
	}

	results := pool.ExecuteAll(context.Background(), execs, "q")

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].Name)
	assert.Equal(t, StatusSuccess, results[0].Status)
	assert.Equal(t, "b", results[1].Name)
	assert.Equal(t, StatusError, results[1].Status)
	assert.Equal(t, "c", results[2].Name)
	assert.Equal(t, StatusSuccess, results[2].Status)
}
