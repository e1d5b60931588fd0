package session

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"smart-gateway-be/internal/dto"
)

// PendingTask states.
const (
	StateRunning = "running"
	StateDone    = "done"
	StateFailed  = "failed"
)

// ExpiredReason marks tasks forcibly failed by retention expiry.
const ExpiredReason = "expired"

// PendingTask tracks the one in-flight (or finished, unconsumed) answer
// of a session.
type PendingTask struct {
	State      string
	Token      string
	StartedAt  time.Time
	FinishedAt time.Time
	Result     *dto.ChatResponse
	FailReason string
}

// ClaimKind tells the caller what to do with an inbound message.
type ClaimKind int

const (
	// ClaimDispatch: the session was idle, the caller owns the new task.
	ClaimDispatch ClaimKind = iota
	// ClaimInterim: a task is still running, reply with the placeholder.
	ClaimInterim
	// ClaimConsumed: a finished task was consumed, deliver its result.
	ClaimConsumed
)

type Claim struct {
	Kind       ClaimKind
	Token      string
	Result     *dto.ChatResponse
	FailReason string
}

// Store is the per-session pending-task table. One session has at most
// one Running task; finished tasks are consumed exactly once; tasks
// older than the retention window are forcibly failed as expired.
type Store struct {
	mu        sync.Mutex
	tasks     map[string]*PendingTask
	retention time.Duration
	onExpire  func(sessionID string, task *PendingTask)
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewStore builds a store and starts its expiry janitor.
func NewStore(retention time.Duration) *Store {
	if retention <= 0 {
		retention = 10 * time.Minute
	}
	s := &Store{
		tasks:     make(map[string]*PendingTask),
		retention: retention,
		stop:      make(chan struct{}),
	}
	go s.janitor()
	return s
}

// SetExpiryHook registers a callback fired when a running task is
// forcibly expired. Fired outside the store lock.
func (s *Store) SetExpiryHook(fn func(sessionID string, task *PendingTask)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onExpire = fn
}

// Acquire arbitrates one inbound message for a session. Exactly one of
// three outcomes happens atomically: the caller claims a new Running
// task, observes a still-running task, or consumes a finished one.
func (s *Store) Acquire(sessionID string) Claim {
	var expired *PendingTask

	s.mu.Lock()
	t, ok := s.tasks[sessionID]
	if ok && t.State == StateRunning && time.Since(t.StartedAt) > s.retention {
		t.State = StateFailed
		t.FailReason = ExpiredReason
		t.FinishedAt = time.Now()
		expired = t
	}
	var claim Claim
	switch {
	case !ok:
		token := uuid.NewString()
		s.tasks[sessionID] = &PendingTask{
			State:     StateRunning,
			Token:     token,
			StartedAt: time.Now(),
		}
		claim = Claim{Kind: ClaimDispatch, Token: token}
	case t.State == StateRunning:
		claim = Claim{Kind: ClaimInterim}
	default:
		delete(s.tasks, sessionID)
		claim = Claim{Kind: ClaimConsumed, Result: t.Result, FailReason: t.FailReason}
	}
	hook := s.onExpire
	s.mu.Unlock()

	if expired != nil && hook != nil {
		hook(sessionID, expired)
	}
	return claim
}

// Complete transitions the claimed task to Done. Returns false when the
// task no longer exists or the token does not match (expired meanwhile).
func (s *Store) Complete(sessionID, token string, result *dto.ChatResponse) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[sessionID]
	if !ok || t.Token != token || t.State != StateRunning {
		return false
	}
	t.State = StateDone
	t.Result = result
	t.FinishedAt = time.Now()
	return true
}

// Fail transitions the claimed task to Failed, keeping any partial result
// for the consumer.
func (s *Store) Fail(sessionID, token, reason string, partial *dto.ChatResponse) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[sessionID]
	if !ok || t.Token != token || t.State != StateRunning {
		return false
	}
	t.State = StateFailed
	t.FailReason = reason
	t.Result = partial
	t.FinishedAt = time.Now()
	return true
}

// Discard removes the claimed task without consumption. Used when the
// answer was already delivered synchronously.
func (s *Store) Discard(sessionID, token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[sessionID]
	if !ok || t.Token != token {
		return false
	}
	delete(s.tasks, sessionID)
	return true
}

// Len reports the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Close stops the janitor.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *Store) janitor() {
	interval := s.retention / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep forcibly fails overdue running tasks and evicts terminal tasks
// that were never consumed within a second retention window.
func (s *Store) sweep() {
	type expiredEntry struct {
		sessionID string
		task      *PendingTask
	}
	var expired []expiredEntry

	s.mu.Lock()
	now := time.Now()
	for sid, t := range s.tasks {
		switch t.State {
		case StateRunning:
			if now.Sub(t.StartedAt) > s.retention {
				t.State = StateFailed
				t.FailReason = ExpiredReason
				t.FinishedAt = now
				expired = append(expired, expiredEntry{sessionID: sid, task: t})
			}
		default:
			if now.Sub(t.FinishedAt) > s.retention {
				delete(s.tasks, sid)
			}
		}
	}
	hook := s.onExpire
	s.mu.Unlock()

	for _, e := range expired {
		log.Printf("[WARN] Session %s task expired after %s", e.sessionID, s.retention)
		if hook != nil {
			hook(e.sessionID, e.task)
		}
	}
}
