package tools

import (
	"context"
	"strings"
)

// Result statuses reported by the executor pool.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// Executor is a single business tool. Execute returns the structured
// payload for a query, or an error when the backend cannot answer.
type Executor interface {
	Name() string
	Execute(ctx context.Context, query string) (map[string]interface{}, error)
}

// CallResult is the trace of one tool invocation.
type CallResult struct {
	Name      string                 `json:"name"`
	Status    string                 `json:"status"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
	Error     string                 `json:"error,omitempty"`
	LatencyMS int64                  `json:"latency_ms"`
}

// Definition binds an executor to its trigger phrases. Declaration order
// doubles as routing priority.
type Definition struct {
	Executor Executor
	Triggers []string
}

// Registry holds the ordered set of registered tools.
type Registry struct {
	defs  []Definition
	index map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Register appends a tool. Registering a name twice replaces its triggers
// and executor but keeps its original priority slot.
func (r *Registry) Register(def Definition) {
	name := def.Executor.Name()
	if i, ok := r.index[name]; ok {
		r.defs[i] = def
		return
	}
	r.index[name] = len(r.defs)
	r.defs = append(r.defs, def)
}

// AddTriggers extends the trigger table of an already registered tool.
func (r *Registry) AddTriggers(name string, phrases ...string) {
	i, ok := r.index[name]
	if !ok {
		return
	}
	r.defs[i].Triggers = append(r.defs[i].Triggers, phrases...)
}

// Lookup returns the executor registered under name.
func (r *Registry) Lookup(name string) (Executor, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.defs[i].Executor, true
}

// Names lists tool names in priority order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d.Executor.Name())
	}
	return out
}

// Definitions returns the registered tools in priority order.
func (r *Registry) Definitions() []Definition {
	return r.defs
}

// Match finds the first tool (priority order) whose trigger table contains
// a substring of the normalized query. Only tools named in allowed are
// candidates; an empty allowed list disables tool routing entirely, so a
// channel that never granted tools cannot invoke them.
func (r *Registry) Match(query string, allowed []string) (string, bool) {
	matches := r.MatchAll(query, allowed)
	if len(matches) == 0 {
		return "", false
	}
	return matches[0], true
}

// MatchAll returns every matching allowed tool in priority order.
func (r *Registry) MatchAll(query string, allowed []string) []string {
	if len(allowed) == 0 {
		return nil
	}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	allowSet := map[string]bool{}
	for _, a := range allowed {
		allowSet[a] = true
	}
	var matches []string
	for _, d := range r.defs {
		name := d.Executor.Name()
		if !allowSet[name] {
			continue
		}
		for _, trig := range d.Triggers {
			if trig == "" {
				continue
			}
			if strings.Contains(q, strings.ToLower(trig)) {
				matches = append(matches, name)
				break
			}
		}
	}
	return matches
}
