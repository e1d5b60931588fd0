package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smart-gateway-be/internal/dto"
)

func TestAcquireDispatchThenInterim(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	first := s.Acquire("s1")
	require.Equal(t, ClaimDispatch, first.Kind)
	require.NotEmpty(t, first.Token)

	second := s.Acquire("s1")
	assert.Equal(t, ClaimInterim, second.Kind)
}

func TestCompleteThenConsumeExactlyOnce(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	claim := s.Acquire("s1")
	require.Equal(t, ClaimDispatch, claim.Kind)

	resp := &dto.ChatResponse{SessionId: "s1", ReplyText: "订单已发货"}
	require.True(t, s.Complete("s1", claim.Token, resp))

	consumed := s.Acquire("s1")
	require.Equal(t, ClaimConsumed, consumed.Kind)
	require.NotNil(t, consumed.Result)
	assert.Equal(t, "订单已发货", consumed.Result.ReplyText)

	// The next message starts fresh: the result is gone.
	next := s.Acquire("s1")
	assert.Equal(t, ClaimDispatch, next.Kind)
}

func TestFailKeepsPartialResult(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	claim := s.Acquire("s1")
	partial := &dto.ChatResponse{SessionId: "s1", FallbackReason: "tool_error"}
	require.True(t, s.Fail("s1", claim.Token, "tool_error", partial))

	consumed := s.Acquire("s1")
	require.Equal(t, ClaimConsumed, consumed.Kind)
	assert.Equal(t, "tool_error", consumed.FailReason)
	require.NotNil(t, consumed.Result)
}

func TestCompleteWithStaleTokenRejected(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	claim := s.Acquire("s1")
	require.True(t, s.Discard("s1", claim.Token))

	assert.False(t, s.Complete("s1", claim.Token, &dto.ChatResponse{}))
	assert.False(t, s.Fail("s1", claim.Token, "tool_error", nil))
}

func TestAtMostOneRunningTaskUnderConcurrency(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	const goroutines = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	dispatched := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claim := s.Acquire("s1")
			if claim.Kind == ClaimDispatch {
				mu.Lock()
				dispatched++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, dispatched, "exactly one concurrent message may claim the task")
	assert.Equal(t, 1, s.Len())
}

func TestConsumeExactlyOnceUnderConcurrency(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	claim := s.Acquire("s1")
	require.True(t, s.Complete("s1", claim.Token, &dto.ChatResponse{ReplyText: "done"}))

	const goroutines = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	consumed := 0

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := s.Acquire("s1")
			if c.Kind == ClaimConsumed {
				mu.Lock()
				consumed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, consumed, "a finished task is consumed exactly once")
}

func TestRetentionExpiresRunningTask(t *testing.T) {
	s := NewStore(40 * time.Millisecond)
	defer s.Close()

	var hookMu sync.Mutex
	hookCalls := 0
	s.SetExpiryHook(func(sessionID string, task *PendingTask) {
		hookMu.Lock()
		hookCalls++
		hookMu.Unlock()
		assert.Equal(t, "s1", sessionID)
		assert.Equal(t, ExpiredReason, task.FailReason)
	})

	claim := s.Acquire("s1")
	require.Equal(t, ClaimDispatch, claim.Kind)

	time.Sleep(80 * time.Millisecond)

	// The overdue task is consumed as Failed("expired"); a worker that
	// finishes afterwards must not resurrect it.
	consumed := s.Acquire("s1")
	require.Equal(t, ClaimConsumed, consumed.Kind)
	assert.Equal(t, ExpiredReason, consumed.FailReason)
	assert.False(t, s.Complete("s1", claim.Token, &dto.ChatResponse{}))

	hookMu.Lock()
	defer hookMu.Unlock()
	assert.GreaterOrEqual(t, hookCalls, 1)
}

func TestScenarioDDuplicateDispatchSuppressed(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	// Message 1 claims the task; the slow pipeline is still running when
	// messages 2 and 3 arrive.
	claim := s.Acquire("user-42")
	require.Equal(t, ClaimDispatch, claim.Kind)

	assert.Equal(t, ClaimInterim, s.Acquire("user-42").Kind)
	assert.Equal(t, ClaimInterim, s.Acquire("user-42").Kind)

	require.True(t, s.Complete("user-42", claim.Token, &dto.ChatResponse{ReplyText: "答案"}))

	consumed := s.Acquire("user-42")
	require.Equal(t, ClaimConsumed, consumed.Kind)
	assert.Equal(t, "答案", consumed.Result.ReplyText)
}

func TestSessionsAreIndependent(t *testing.T) {
	s := NewStore(time.Minute)
	defer s.Close()

	a := s.Acquire("a")
	b := s.Acquire("b")
	assert.Equal(t, ClaimDispatch, a.Kind)
	assert.Equal(t, ClaimDispatch, b.Kind)
	assert.NotEqual(t, a.Token, b.Token)
}
