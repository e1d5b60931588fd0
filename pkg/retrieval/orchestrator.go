package retrieval

import (
	"context"
	"errors"
	"log"
	"time"
)

// Fallback reasons the orchestrator can attach to an empty result.
const (
	ReasonNoHits           = "no_hits"
	ReasonBelowThreshold   = "below_threshold"
	ReasonRagUnready       = "rag_unready"
	ReasonRetrievalTimeout = "retrieval_timeout"
)

// Orchestrator tries the external RAG platform first (when configured and
// preferred) and falls back to local backends. It never returns an error:
// a broken retrieval path degrades to an empty result with a reason.
type Orchestrator struct {
	external *Client
	primary  Backend
	fallback *Index
}

// NewOrchestrator wires the retrieval paths. external and primary may be
// nil; fallback must not be.
func NewOrchestrator(external *Client, primary Backend, fallback *Index) *Orchestrator {
	return &Orchestrator{
		external: external,
		primary:  primary,
		fallback: fallback,
	}
}

// Retrieve answers one retrieval query. The threshold is inclusive and is
// applied before truncation to TopK.
func (o *Orchestrator) Retrieve(ctx context.Context, q Query) Result {
	start := time.Now()
	if q.TopK <= 0 {
		q.TopK = 3
	}

	externalReason := ""
	if q.PreferExternal && o.external != nil {
		res, err := o.askExternal(ctx, q)
		if err == nil {
			res.LatencyMS = time.Since(start).Milliseconds()
			return res
		}
		externalReason = ReasonRagUnready
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			externalReason = ReasonRetrievalTimeout
		}
		log.Printf("[WARN] External retrieval failed, falling back to local: %v", err)
	}

	res := o.searchLocal(ctx, q)
	if !res.KBHit && externalReason != "" {
		res.FallbackReason = externalReason
	}
	res.LatencyMS = time.Since(start).Milliseconds()
	return res
}

func (o *Orchestrator) askExternal(ctx context.Context, q Query) (Result, error) {
	ans, err := o.external.Ask(ctx, q.Query, q.SessionID, q.TopK, q.Metadata)
	if err != nil {
		return Result{}, err
	}

	hits := RankFilterTruncate(ans.Hits, q.TopK, q.Threshold)
	confidence := ans.Confidence
	if confidence == 0 && len(hits) > 0 {
		confidence = hits[0].Score
	}

	res := Result{
		Hits:       hits,
		Answer:     ans.Answer,
		Confidence: confidence,
		Source:     SourceExternal,
	}
	res.KBHit = len(hits) > 0 || (ans.Answer != "" && confidence >= q.Threshold && confidence > 0)
	if !res.KBHit {
		res.FallbackReason = emptyReason(ans.Hits)
	}
	return res, nil
}

func (o *Orchestrator) searchLocal(ctx context.Context, q Query) Result {
	var candidates []Hit
	var err error

	if o.primary != nil {
		candidates, err = o.primary.Search(ctx, q.Query, q.TopK)
		if err != nil {
			log.Printf("[WARN] Primary local backend failed, using fallback index: %v", err)
			candidates = nil
		}
	}
	if candidates == nil && o.fallback != nil {
		candidates, _ = o.fallback.Search(ctx, q.Query, q.TopK)
	}

	hits := RankFilterTruncate(candidates, q.TopK, q.Threshold)
	res := Result{
		Hits:   hits,
		Source: SourceLocal,
	}
	if len(hits) > 0 && hits[0].Score > 0 {
		res.KBHit = true
		res.Confidence = hits[0].Score
	} else {
		res.Hits = nil
		res.FallbackReason = emptyReason(candidates)
	}
	return res
}

// emptyReason separates "nothing matched at all" from "matches existed but
// none cleared the threshold".
func emptyReason(candidates []Hit) string {
	for _, h := range candidates {
		if h.Score > 0 {
			return ReasonBelowThreshold
		}
	}
	return ReasonNoHits
}
