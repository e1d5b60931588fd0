package tools

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Pool runs tool executors concurrently with a per-call timeout. A panic
// inside an executor is reported as an error result, never propagated.
type Pool struct {
	timeout time.Duration
}

// NewPool builds a pool with the given per-call timeout. A zero timeout
// falls back to 500ms.
func NewPool(timeout time.Duration) *Pool {
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	return &Pool{timeout: timeout}
}

// Execute runs one tool under the pool timeout and reports its trace.
func (p *Pool) Execute(ctx context.Context, exec Executor, query string) CallResult {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	type outcome struct {
		payload map[string]interface{}
		err     error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[ERROR] Tool %s panicked: %v", exec.Name(), r)
				done <- outcome{err: fmt.Errorf("tool %s panicked: %v", exec.Name(), r)}
			}
		}()
		payload, err := exec.Execute(callCtx, query)
		done <- outcome{payload: payload, err: err}
	}()

	select {
	case <-callCtx.Done():
		return CallResult{
			Name:      exec.Name(),
			Status:    StatusTimeout,
			Error:     fmt.Sprintf("tool %s timed out after %s", exec.Name(), p.timeout),
			LatencyMS: time.Since(start).Milliseconds(),
		}
	case out := <-done:
		elapsed := time.Since(start).Milliseconds()
		if out.err != nil {
			return CallResult{
				Name:      exec.Name(),
				Status:    StatusError,
				Error:     out.err.Error(),
				LatencyMS: elapsed,
			}
		}
		return CallResult{
			Name:      exec.Name(),
			Status:    StatusSuccess,
			Payload:   out.payload,
			LatencyMS: elapsed,
		}
	}
}

// ExecuteAll fans the query out to every executor concurrently and returns
// the traces in dispatch order regardless of completion order.
func (p *Pool) ExecuteAll(ctx context.Context, execs []Executor, query string) []CallResult {
	results := make([]CallResult, len(execs))
	var wg sync.WaitGroup
	for i, exec := range execs {
		wg.Add(1)
		go func(i int, exec Executor) {
			defer wg.Done()
			results[i] = p.Execute(ctx, exec, query)
		}(i, exec)
	}
	wg.Wait()
	return results
}
