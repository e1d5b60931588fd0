package retrieval

import "sort"

// Hit is one retrieved knowledge-base fragment.
type Hit struct {
	Text     string                 `json:"text"`
	Score    float64                `json:"score"`
	DocID    string                 `json:"doc_id,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// Query carries one retrieval request through the orchestrator.
type Query struct {
	Query          string
	SessionID      string
	TopK           int
	Threshold      float64
	PreferExternal bool
	Metadata       map[string]interface{}
}

// Result is what the orchestrator hands to the composer.
type Result struct {
	Hits           []Hit   `json:"hits"`
	Answer         string  `json:"answer,omitempty"`
	KBHit          bool    `json:"kb_hit"`
	Confidence     float64 `json:"confidence"`
	Source         string  `json:"source"`
	FallbackReason string  `json:"fallback_reason,omitempty"`
	LatencyMS      int64   `json:"latency_ms"`
}

// Retrieval sources reported in the latency map.
const (
	SourceExternal = "external"
	SourceLocal    = "local"
)

// RankFilterTruncate sorts hits by score descending (stable), drops hits
// below the inclusive threshold, then truncates to topK. Filtering happens
// before truncation so a low-scoring hit can never crowd out a passing one.
func RankFilterTruncate(hits []Hit, topK int, threshold float64) []Hit {
	ranked := make([]Hit, len(hits))
	copy(ranked, hits)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	filtered := ranked[:0]
	for _, h := range ranked {
		if h.Score >= threshold {
			filtered = append(filtered, h)
		}
	}
	if topK > 0 && len(filtered) > topK {
		filtered = filtered[:topK]
	}
	return filtered
}
