package retrieval

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankFilterTruncate(t *testing.T) {
	hits := []Hit{
		{Text: "a", Score: 0.2},
		{Text: "b", Score: 0.9},
		{Text: "c", Score: 0.3},
		{Text: "d", Score: 0.8},
		{Text: "e", Score: 0.3},
	}

	tests := []struct {
		name      string
		topK      int
		threshold float64
		wantTexts []string
	}{
		{
			name:      "filter happens before truncation",
			topK:      2,
			threshold: 0.3,
			wantTexts: []string{"b", "d"},
		},
		{
			name:      "threshold is inclusive",
			topK:      10,
			threshold: 0.3,
			wantTexts: []string{"b", "d", "c", "e"},
		},
		{
			name:      "stable order for equal scores",
			topK:      10,
			threshold: 0.25,
			wantTexts: []string{"b", "d", "c", "e"},
		},
		{
			name:      "nothing passes a high threshold",
			topK:      3,
			threshold: 0.95,
			wantTexts: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RankFilterTruncate(hits, tt.topK, tt.threshold)
			texts := make([]string, 0, len(got))
			for _, h := range got {
				texts = append(texts, h.Text)
			}
			assert.Equal(t, tt.wantTexts, texts)
		})
	}
}

func TestIndexSearchScoring(t *testing.T) {
	idx := NewSeededIndex()

	hits, err := idx.Search(context.Background(), "退款政策是什么", 3)
	require.NoError(t, err)
	require.NotEmpty(t, hits)
	assert.Equal(t, "kb-refund", hits[0].DocID)
	assert.InDelta(t, 0.8, hits[0].Score, 1e-9)
}

func TestIndexSearchNoOverlap(t *testing.T) {
	idx := NewSeededIndex()

	hits, err := idx.Search(context.Background(), "xyzzy", 3)
	require.NoError(t, err)
	for _, h := range hits {
		assert.Zero(t, h.Score)
	}
}

func TestIndexAddReplaceRemove(t *testing.T) {
	idx := NewIndex()
	idx.Add("d1", "first version")
	idx.Add("d1", "second version")
	assert.Equal(t, 1, idx.Len())

	idx.Remove("d1")
	assert.Equal(t, 0, idx.Len())
}

func TestOrchestratorLocalHit(t *testing.T) {
	o := NewOrchestrator(nil, nil, NewSeededIndex())

	res := o.Retrieve(context.Background(), Query{
		Query:     "物流进度怎么查",
		TopK:      3,
		Threshold: 0.3,
	})

	assert.True(t, res.KBHit)
	assert.Equal(t, SourceLocal, res.Source)
	assert.InDelta(t, 0.8, res.Confidence, 1e-9)
	assert.Empty(t, res.FallbackReason)
	require.NotEmpty(t, res.Hits)
}

func TestOrchestratorNoHits(t *testing.T) {
	o := NewOrchestrator(nil, nil, NewSeededIndex())

	res := o.Retrieve(context.Background(), Query{
		Query:     "qqqq",
		TopK:      3,
		Threshold: 0.3,
	})

	assert.False(t, res.KBHit)
	assert.Empty(t, res.Hits)
	assert.Equal(t, ReasonNoHits, res.FallbackReason)
}

func TestOrchestratorBelowThreshold(t *testing.T) {
	o := NewOrchestrator(nil, nil, NewSeededIndex())

	res := o.Retrieve(context.Background(), Query{
		Query:     "退款政策",
		TopK:      3,
		Threshold: 0.9,
	})

	assert.False(t, res.KBHit)
	assert.Equal(t, ReasonBelowThreshold, res.FallbackReason)
}

func TestOrchestratorExternalSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, askPath, r.URL.Path)
		assert.Equal(t, "secret-token", r.Header.Get("X-Customer-Service-Token"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, false, body["allow_web"])
		assert.Equal(t, true, body["doc_only"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"answer":     "签收后 7 天内可退款",
			"confidence": 0.92,
			"citations": []map[string]interface{}{
				{"text": "退款政策全文", "score": 0.92, "doc_id": "kb-1"},
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-token", time.Second)
	o := NewOrchestrator(client, nil, NewSeededIndex())

	res := o.Retrieve(context.Background(), Query{
		Query:          "怎么退款",
		SessionID:      "s1",
		TopK:           3,
		Threshold:      0.3,
		PreferExternal: true,
	})

	assert.True(t, res.KBHit)
	assert.Equal(t, SourceExternal, res.Source)
	assert.Equal(t, "签收后 7 天内可退款", res.Answer)
	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
}

func TestOrchestratorExternalTimeoutFallsBackToLocal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok", 30*time.Millisecond)
	o := NewOrchestrator(client, nil, NewSeededIndex())

	res := o.Retrieve(context.Background(), Query{
		Query:          "退款政策",
		TopK:           3,
		Threshold:      0.3,
		PreferExternal: true,
	})

	// The slow external platform must not lose the request: the local
	// index still answers.
	assert.True(t, res.KBHit)
	assert.Equal(t, SourceLocal, res.Source)
	require.NotEmpty(t, res.Hits)
}

func TestOrchestratorExternalErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "tok", time.Second)
	o := NewOrchestrator(client, nil, NewSeededIndex())

	res := o.Retrieve(context.Background(), Query{
		Query:          "zzzz",
		TopK:           3,
		Threshold:      0.3,
		PreferExternal: true,
	})

	assert.False(t, res.KBHit)
	assert.Equal(t, ReasonRagUnready, res.FallbackReason)
}

type erroringBackend struct{}

func (erroringBackend) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	return nil, assert.AnError
}

func TestOrchestratorPrimaryBackendFailureUsesFallback(t *testing.T) {
	o := NewOrchestrator(nil, erroringBackend{}, NewSeededIndex())

	res := o.Retrieve(context.Background(), Query{
		Query:     "商品信息",
		TopK:      3,
		Threshold: 0.3,
	})

	assert.True(t, res.KBHit)
	assert.Equal(t, SourceLocal, res.Source)
}
