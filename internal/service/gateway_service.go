package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smart-gateway-be/internal/dto"
	"smart-gateway-be/internal/entity"
	"smart-gateway-be/internal/pkg/logger"
	"smart-gateway-be/internal/repository/contract"
	"smart-gateway-be/pkg/compose"
	"smart-gateway-be/pkg/retrieval"
	"smart-gateway-be/pkg/session"
	"smart-gateway-be/pkg/tools"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Fixed reply fragments of the latency-bridging protocol. The placeholder
// goes out when the answer is still being produced; the preamble marks a
// result consumed by a later message.
const (
	PlaceholderText  = "您的问题正在处理中，请稍候。稍后发送任意消息即可获取答案。"
	ConsumedPreamble = "（这是您上一个问题的答案）"
)

// Routing modes carried in request metadata.
const (
	RoutingAuto      = "auto"
	RoutingToolsOnly = "tools_only"
	RoutingRagOnly   = "rag_only"
)

type IGatewayService interface {
	// Chat handles one inbound message end to end, always returning a
	// well-formed reply within the channel deadline.
	Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error)
	RecentLogs(ctx context.Context, limit int) ([]dto.ChatLogDTO, error)
	SessionLogs(ctx context.Context, sessionID string, limit int) ([]dto.ChatLogDTO, error)
}

// GatewayOptions carries the stage budgets and defaults from config.
type GatewayOptions struct {
	DefaultTopK      int
	DefaultThreshold float64
	ChannelDeadline  time.Duration
	RetrievalTimeout time.Duration
	ToolTimeout      time.Duration
	LLMTimeout       time.Duration
}

type gatewayService struct {
	registry     *tools.Registry
	pool         *tools.Pool
	orchestrator *retrieval.Orchestrator
	composer     *compose.Composer
	sessions     *session.Store
	chatLogRepo  contract.ChatLogRepository // nil without a database
	events       IEventPublisher
	logger       logger.ILogger
	pipelineLog  logger.ILogger
	validate     *validator.Validate
	opts         GatewayOptions
}

func NewGatewayService(
	registry *tools.Registry,
	pool *tools.Pool,
	orchestrator *retrieval.Orchestrator,
	composer *compose.Composer,
	sessions *session.Store,
	chatLogRepo contract.ChatLogRepository,
	events IEventPublisher,
	appLogger logger.ILogger,
	pipelineLog logger.ILogger,
	opts GatewayOptions,
) IGatewayService {
	if opts.DefaultTopK <= 0 {
		opts.DefaultTopK = 3
	}
	if opts.DefaultThreshold <= 0 {
		opts.DefaultThreshold = 0.3
	}
	if opts.ChannelDeadline <= 0 {
		opts.ChannelDeadline = 4500 * time.Millisecond
	}
	s := &gatewayService{
		registry:     registry,
		pool:         pool,
		orchestrator: orchestrator,
		composer:     composer,
		sessions:     sessions,
		chatLogRepo:  chatLogRepo,
		events:       events,
		logger:       appLogger,
		pipelineLog:  pipelineLog,
		validate:     validator.New(),
		opts:         opts,
	}
	sessions.SetExpiryHook(func(sessionID string, task *session.PendingTask) {
		appLogger.Warn("gateway", "Pending task expired", map[string]interface{}{
			"session_id": sessionID,
			"started_at": task.StartedAt.Format(time.RFC3339),
		})
		events.TaskExpired(sessionID, task.StartedAt)
	})
	return s
}

func (s *gatewayService) Chat(ctx context.Context, req *dto.ChatRequest) (*dto.ChatResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid chat request: %w", err)
	}

	claim := s.sessions.Acquire(req.SessionId)
	switch claim.Kind {
	case session.ClaimInterim:
		return s.interimResponse(req), nil
	case session.ClaimConsumed:
		return s.consumedResponse(req, claim), nil
	}

	deadline := s.opts.ChannelDeadline
	if req.DeadlineMs > 0 {
		deadline = time.Duration(req.DeadlineMs) * time.Millisecond
	}

	done := make(chan *dto.ChatResponse, 1)
	go func() {
		// The pipeline outlives the channel deadline on purpose: a late
		// answer is parked in the session store for the next message.
		workCtx, cancel := context.WithTimeout(context.Background(), s.pipelineBudget())
		defer cancel()

		resp := s.executePipeline(workCtx, req)
		if isHardFailure(resp.FallbackReason) {
			s.sessions.Fail(req.SessionId, claim.Token, resp.FallbackReason, resp)
		} else {
			s.sessions.Complete(req.SessionId, claim.Token, resp)
		}
		done <- resp
	}()

	select {
	case resp := <-done:
		// Answered in time: deliver directly, nothing left to consume.
		s.sessions.Discard(req.SessionId, claim.Token)
		return resp, nil
	case <-time.After(deadline):
		s.logger.Info("gateway", "Deadline reached, bridging with placeholder", map[string]interface{}{
			"session_id":  req.SessionId,
			"deadline_ms": deadline.Milliseconds(),
		})
		return s.interimResponse(req), nil
	}
}

// isHardFailure separates degraded-but-answered replies (a soft fallback
// is still a Done task) from pipeline failures that park as Failed.
func isHardFailure(reason string) bool {
	switch reason {
	case compose.ReasonToolError, compose.ReasonToolTimeout,
		compose.ReasonLLMTimeout, compose.ReasonInternalError:
		return true
	}
	return false
}

// pipelineBudget bounds the background worker: every stage budget plus
// slack, so a wedged backend cannot leak goroutines forever.
func (s *gatewayService) pipelineBudget() time.Duration {
	return s.opts.RetrievalTimeout + s.opts.ToolTimeout + s.opts.LLMTimeout + 2*time.Second
}

func (s *gatewayService) interimResponse(req *dto.ChatRequest) *dto.ChatResponse {
	return &dto.ChatResponse{
		SessionId: req.SessionId,
		ReplyText: PlaceholderText,
		Interim:   true,
		Latency:   map[string]interface{}{"total_ms": int64(0)},
	}
}

func (s *gatewayService) consumedResponse(req *dto.ChatRequest, claim session.Claim) *dto.ChatResponse {
	resp := claim.Result
	if resp == nil {
		resp = &dto.ChatResponse{
			SessionId:      req.SessionId,
			ReplyText:      compose.ApologyText,
			FallbackReason: claim.FailReason,
		}
	}
	if claim.FailReason != "" && resp.FallbackReason == "" {
		resp.FallbackReason = claim.FailReason
	}
	if resp.ReplyText == "" {
		resp.ReplyText = compose.ApologyText
	}
	resp.ReplyText = ConsumedPreamble + resp.ReplyText
	resp.Interim = false
	return resp
}

func (s *gatewayService) executePipeline(ctx context.Context, req *dto.ChatRequest) *dto.ChatResponse {
	start := time.Now()
	traceID := s.traceID(ctx)

	topK := s.opts.DefaultTopK
	threshold := s.opts.DefaultThreshold
	if req.Rag != nil {
		if req.Rag.TopK > 0 {
			topK = req.Rag.TopK
		}
		if req.Rag.Threshold > 0 {
			threshold = req.Rag.Threshold
		}
	}

	routingMode := req.MetaString("routing_mode", RoutingAuto)
	ragFirst := req.MetaBool("use_rag_first", true)
	// External retrieval is opt-out: a configured RAG platform is used
	// unless the client disables it. Without a configured client the
	// orchestrator goes straight to the local backends.
	preferExternal := req.MetaBool("use_enhanced_retrieval", true)
	broadcastTools := req.MetaBool("use_enhanced_tools", false)

	var (
		wg            sync.WaitGroup
		retrievalRes  retrieval.Result
		toolResults   []tools.CallResult
		matchedTools  []string
		toolMs        int64
		toolAttempted = routingMode == RoutingToolsOnly
	)

	if routingMode != RoutingToolsOnly {
		wg.Add(1)
		go func() {
			defer wg.Done()
			retrievalCtx, cancel := context.WithTimeout(ctx, s.opts.RetrievalTimeout)
			defer cancel()
			retrievalRes = s.orchestrator.Retrieve(retrievalCtx, retrieval.Query{
				Query:          req.Message,
				SessionID:      req.SessionId,
				TopK:           topK,
				Threshold:      threshold,
				PreferExternal: preferExternal,
				Metadata:       req.Metadata,
			})
		}()
	}

	if routingMode != RoutingRagOnly {
		wg.Add(1)
		go func() {
			defer wg.Done()
			toolStart := time.Now()
			matchedTools = s.registry.MatchAll(req.Message, req.ToolsAllowed)
			if len(matchedTools) > 0 {
				toolAttempted = true
				names := matchedTools
				if !broadcastTools {
					names = names[:1]
				}
				execs := make([]tools.Executor, 0, len(names))
				for _, name := range names {
					if exec, ok := s.registry.Lookup(name); ok {
						execs = append(execs, exec)
					}
				}
				toolResults = s.pool.ExecuteAll(ctx, execs, req.Message)
			}
			toolMs = time.Since(toolStart).Milliseconds()
		}()
	}

	wg.Wait()

	reply := s.composer.Compose(ctx, compose.Input{
		Query:         req.Message,
		RagFirst:      ragFirst && routingMode != RoutingToolsOnly,
		Retrieval:     retrievalRes,
		ToolAttempted: toolAttempted,
		ToolMatched:   len(matchedTools) > 0,
		ToolResults:   toolResults,
	})

	totalMs := time.Since(start).Milliseconds()
	latency := map[string]interface{}{
		"retrieval_ms":     retrievalRes.LatencyMS,
		"retrieval_source": retrievalRes.Source,
		"tool_ms":          toolMs,
		"llm_ms":           reply.LLMLatencyMS,
		"total_ms":         totalMs,
		"low_confidence":   reply.LowConfidence,
	}

	resp := &dto.ChatResponse{
		SessionId:      req.SessionId,
		ReplyText:      reply.Text,
		KBHit:          retrievalRes.KBHit,
		Confidence:     retrievalRes.Confidence,
		Retrieved:      retrievalRes.Hits,
		ToolCalls:      matchedTools,
		ToolTraces:     toolResults,
		SourceRefs:     sourceRefs(retrievalRes.Hits),
		Latency:        latency,
		FallbackReason: reply.FallbackReason,
		TraceId:        traceID,
	}

	s.pipelineLog.Info("pipeline", "Chat handled", map[string]interface{}{
		"session_id":      req.SessionId,
		"channel":         req.Channel,
		"routing_mode":    routingMode,
		"kb_hit":          resp.KBHit,
		"source":          reply.Source,
		"fallback_reason": resp.FallbackReason,
		"matched_tools":   matchedTools,
		"latency":         latency,
		"trace_id":        traceID,
	})

	s.persistChatLog(req, resp)
	s.events.ChatCompleted(req.SessionId, req.Channel, resp.FallbackReason, resp.KBHit, totalMs)

	return resp
}

func (s *gatewayService) traceID(ctx context.Context) string {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return uuid.NewString()
}

func sourceRefs(hits []retrieval.Hit) []string {
	refs := make([]string, 0, len(hits))
	for _, h := range hits {
		if h.DocID != "" {
			refs = append(refs, h.DocID)
		}
	}
	return refs
}

// persistChatLog records the exchange for the dashboard. Best effort:
// logging failures never affect the reply.
func (s *gatewayService) persistChatLog(req *dto.ChatRequest, resp *dto.ChatResponse) {
	if s.chatLogRepo == nil {
		return
	}

	toolCalls := make([]map[string]interface{}, 0, len(resp.ToolTraces))
	for _, t := range resp.ToolTraces {
		toolCalls = append(toolCalls, map[string]interface{}{
			"name":       t.Name,
			"status":     t.Status,
			"error":      t.Error,
			"latency_ms": t.LatencyMS,
		})
	}
	retrieved := make([]map[string]interface{}, 0, len(resp.Retrieved))
	for _, h := range resp.Retrieved {
		retrieved = append(retrieved, map[string]interface{}{
			"doc_id": h.DocID,
			"score":  h.Score,
			"text":   h.Text,
		})
	}

	logCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	err := s.chatLogRepo.Create(logCtx, &entity.ChatLog{
		Id:            uuid.New(),
		SessionId:     req.SessionId,
		Channel:       req.Channel,
		UserMessage:   req.Message,
		ModelResponse: resp.ReplyText,
		KBHit:         resp.KBHit,
		Confidence:    resp.Confidence,
		ToolCalls:     toolCalls,
		Retrieved:     retrieved,
		Latency:       resp.Latency,
		TraceId:       resp.TraceId,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		s.logger.Warn("gateway", "Failed to persist chat log", map[string]interface{}{
			"session_id": req.SessionId,
			"error":      err.Error(),
		})
	}
}

func (s *gatewayService) RecentLogs(ctx context.Context, limit int) ([]dto.ChatLogDTO, error) {
	if s.chatLogRepo == nil {
		return []dto.ChatLogDTO{}, nil
	}
	logs, err := s.chatLogRepo.FindRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toChatLogDTOs(logs), nil
}

func (s *gatewayService) SessionLogs(ctx context.Context, sessionID string, limit int) ([]dto.ChatLogDTO, error) {
	if s.chatLogRepo == nil {
		return []dto.ChatLogDTO{}, nil
	}
	logs, err := s.chatLogRepo.FindBySessionId(ctx, sessionID, limit)
	if err != nil {
		return nil, err
	}
	return toChatLogDTOs(logs), nil
}

func toChatLogDTOs(logs []*entity.ChatLog) []dto.ChatLogDTO {
	out := make([]dto.ChatLogDTO, 0, len(logs))
	for _, l := range logs {
		out = append(out, dto.ChatLogDTO{
			Id:            l.Id.String(),
			SessionId:     l.SessionId,
			Channel:       l.Channel,
			UserMessage:   l.UserMessage,
			ModelResponse: l.ModelResponse,
			KBHit:         l.KBHit,
			Confidence:    l.Confidence,
			ToolCalls:     l.ToolCalls,
			Retrieved:     l.Retrieved,
			Latency:       l.Latency,
			TraceId:       l.TraceId,
			CreatedAt:     l.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}
