package health

import (
	"context"
	"sync"
	"time"
)

// Aggregate statuses.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// CheckResult is the outcome of probing one backend.
type CheckResult struct {
	Healthy   bool
	LatencyMS int64
	Error     string
}

// Checker probes one backend dependency.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// CheckerFunc adapts a plain probe function into a Checker.
type CheckerFunc struct {
	CheckerName string
	Fn          func(ctx context.Context) error
}

func (c CheckerFunc) Name() string { return c.CheckerName }

func (c CheckerFunc) Check(ctx context.Context) CheckResult {
	start := time.Now()
	err := c.Fn(ctx)
	res := CheckResult{
		Healthy:   err == nil,
		LatencyMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// Status is the aggregated health snapshot.
type Status struct {
	Status string
	Checks map[string]CheckResult
}

// Aggregator fans out to all registered checkers with one shared timeout.
type Aggregator struct {
	checkers []Checker
	timeout  time.Duration
}

func NewAggregator(timeout time.Duration, checkers ...Checker) *Aggregator {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Aggregator{
		checkers: checkers,
		timeout:  timeout,
	}
}

// Aggregate probes every backend concurrently. Any unhealthy backend
// degrades the overall status; the gateway itself stays up.
func (a *Aggregator) Aggregate(ctx context.Context) Status {
	probeCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	results := make([]CheckResult, len(a.checkers))
	var wg sync.WaitGroup
	for i, c := range a.checkers {
		wg.Add(1)
		go func(i int, c Checker) {
			defer wg.Done()
			results[i] = c.Check(probeCtx)
		}(i, c)
	}
	wg.Wait()

	status := Status{
		Status: StatusOK,
		Checks: make(map[string]CheckResult, len(a.checkers)),
	}
	for i, c := range a.checkers {
		status.Checks[c.Name()] = results[i]
		if !results[i].Healthy {
			status.Status = StatusDegraded
		}
	}
	return status
}
