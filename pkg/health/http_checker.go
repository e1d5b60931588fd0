package health

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// HTTPChecker probes a backend by GETting a URL. Any response below 500
// counts as healthy; the backend is up even if it dislikes the request.
type HTTPChecker struct {
	ProbeName string
	URL       string
	Client    *http.Client
}

func NewHTTPChecker(name, url string) HTTPChecker {
	return HTTPChecker{
		ProbeName: name,
		URL:       url,
		Client:    &http.Client{Timeout: 3 * time.Second},
	}
}

func (c HTTPChecker) Name() string { return c.ProbeName }

func (c HTTPChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	res := CheckResult{}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	resp, err := c.Client.Do(req)
	res.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		res.Error = fmt.Sprintf("status %d", resp.StatusCode)
		return res
	}
	res.Healthy = true
	return res
}
