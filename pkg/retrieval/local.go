package retrieval

import (
	"context"
	"strings"
	"sync"
)

// Backend answers retrieval queries against one knowledge-base store.
// Implementations return candidates ranked by score descending; threshold
// filtering and final truncation belong to the orchestrator.
type Backend interface {
	Search(ctx context.Context, query string, topK int) ([]Hit, error)
}

type document struct {
	id   string
	text string
}

// Index is the deterministic in-memory fallback backend. It never fails:
// scoring is pure string matching, no model and no network involved.
type Index struct {
	mu   sync.RWMutex
	docs []document
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{}
}

// NewSeededIndex returns an index preloaded with the built-in
// customer-service snippets, so the gateway answers FAQ-style questions
// even before any document is ingested. The snippets are worded so that
// identifier-style tool queries ("查询订单 ORD-...") share no overlap with
// them; those belong to the tool path, not the knowledge base.
func NewSeededIndex() *Index {
	idx := NewIndex()
	idx.Add("kb-refund", "退款政策支持七天无理由退货退款")
	idx.Add("kb-logistics", "物流状态每天更新，支持快递跟踪")
	idx.Add("kb-product", "产品信息包含SKU和库存数据")
	return idx
}

// Add ingests one document. An existing doc id is replaced.
func (idx *Index) Add(docID, text string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i, d := range idx.docs {
		if d.id == docID {
			idx.docs[i].text = text
			return
		}
	}
	idx.docs = append(idx.docs, document{id: docID, text: text})
}

// Remove drops a document by id.
func (idx *Index) Remove(docID string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	for i, d := range idx.docs {
		if d.id == docID {
			idx.docs = append(idx.docs[:i], idx.docs[i+1:]...)
			return
		}
	}
}

// Len reports the number of ingested documents.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// Search scores every document against the query and returns the ranked
// candidates. Any token or substring overlap scores 0.8, no overlap scores
// 0.0. Ranking is stable so equal scores keep ingestion order.
func (idx *Index) Search(ctx context.Context, query string, topK int) ([]Hit, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))
	hits := make([]Hit, 0, len(idx.docs))
	for _, d := range idx.docs {
		hits = append(hits, Hit{
			Text:  d.text,
			Score: scoreOverlap(q, strings.ToLower(d.text)),
			DocID: d.id,
		})
	}
	return RankFilterTruncate(hits, 0, 0), nil
}

func scoreOverlap(query, doc string) float64 {
	if query == "" {
		return 0.0
	}
	if strings.Contains(doc, query) {
		return 0.8
	}
	for _, token := range strings.Fields(query) {
		if len([]rune(token)) >= 2 && strings.Contains(doc, token) {
			return 0.8
		}
	}
	// Whitespace-free CJK queries: slide 2-rune windows over the query.
	runes := []rune(query)
	for i := 0; i+2 <= len(runes); i++ {
		window := string(runes[i : i+2])
		if strings.TrimSpace(window) != window || strings.Contains(window, " ") {
			continue
		}
		if strings.Contains(doc, window) {
			return 0.8
		}
	}
	return 0.0
}
