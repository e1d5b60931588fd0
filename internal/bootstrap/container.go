package bootstrap

import (
	"context"
	"log"
	"strings"
	"time"

	"smart-gateway-be/internal/config"
	"smart-gateway-be/internal/controller"
	"smart-gateway-be/internal/handler"
	"smart-gateway-be/internal/pkg/logger"
	"smart-gateway-be/internal/repository/contract"
	"smart-gateway-be/internal/repository/implementation"
	"smart-gateway-be/internal/service"
	internalWS "smart-gateway-be/internal/websocket"
	"smart-gateway-be/pkg/cache"
	"smart-gateway-be/pkg/compose"
	"smart-gateway-be/pkg/embedding"
	"smart-gateway-be/pkg/health"
	"smart-gateway-be/pkg/llm/factory"
	"smart-gateway-be/pkg/retrieval"
	"smart-gateway-be/pkg/session"
	"smart-gateway-be/pkg/tools"
	"smart-gateway-be/pkg/tools/business"

	pktNats "smart-gateway-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	GatewayController  controller.IGatewayController
	KBController       controller.IKBController
	HealthController   controller.IHealthController
	LogsController     controller.ILogsController
	EventStreamHandler *handler.EventStreamHandler

	// Background services (exposed for main.go to run)
	ConsumerService service.IConsumerService
	IngressService  service.IIngressService

	// Owned resources for shutdown
	SessionStore *session.Store
	Logger       logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	pipelineLog := logger.NewIsolatedLogger("logs/gateway_pipeline.log")

	// 2. Event bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS, best effort
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	var natsSub *pktNats.Subscriber
	if natsPub != nil {
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		}
	}

	// 3. Redis, shared by the tool cache and the stream hub fanout
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
			rdb = nil
		}
	}

	hub := internalWS.NewHub(rdb, sysLogger)
	go hub.Run()

	eventPublisher := service.NewEventPublisher(natsPub, hub, sysLogger)

	cacheTTL := time.Duration(cfg.Gateway.CacheTTLSec) * time.Second
	var toolCache cache.Store
	if rdb != nil {
		log.Printf("[INFO] Using Redis tool cache")
		toolCache = cache.NewRedisStore(rdb, cacheTTL)
	} else {
		toolCache = cache.NewMemoryStore(cacheTTL)
	}

	// 4. Tools
	registry := business.NewRegistry(toolCache)
	applyExtraTriggers(registry, cfg.Gateway.ExtraTriggers)
	pool := tools.NewPool(time.Duration(cfg.Gateway.ToolTimeoutMs) * time.Millisecond)

	// 5. AI providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(
			cfg.Ai.OllamaBaseURL,
			cfg.Ai.OllamaEmbedModel,
		)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaEmbedModel)
	} else {
		embeddingProvider = embedding.NewStubProvider(768)
		log.Printf("[INFO] Using Embedding Provider: STUB")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 6. Retrieval paths
	var externalClient *retrieval.Client
	if cfg.Gateway.RetrievalBaseURL != "" {
		externalClient = retrieval.NewClient(
			cfg.Gateway.RetrievalBaseURL,
			cfg.Gateway.RetrievalToken,
			time.Duration(cfg.Gateway.RetrievalTimeoutMs)*time.Millisecond,
		)
	}

	fallbackIndex := retrieval.NewSeededIndex()

	var chunkRepo contract.KBChunkRepository
	var chatLogRepo contract.ChatLogRepository
	var vectorBackend retrieval.Backend
	if db != nil {
		chunkRepo = implementation.NewKBChunkRepository(db)
		chatLogRepo = implementation.NewChatLogRepository(db)
		vectorBackend = retrieval.NewVectorBackend(chunkRepo, embeddingProvider)
	} else {
		log.Printf("[WARN] No database configured, chat logs and vector search disabled")
	}

	orchestrator := retrieval.NewOrchestrator(externalClient, vectorBackend, fallbackIndex)

	// 7. Latency bridging
	sessionStore := session.NewStore(time.Duration(cfg.Gateway.TaskRetentionSec) * time.Second)

	composer := compose.NewComposer(
		llmProvider,
		time.Duration(cfg.Gateway.LLMTimeoutMs)*time.Millisecond,
		cfg.Gateway.RagConfThreshold,
	)

	gatewayService := service.NewGatewayService(
		registry,
		pool,
		orchestrator,
		composer,
		sessionStore,
		chatLogRepo,
		eventPublisher,
		sysLogger,
		pipelineLog,
		service.GatewayOptions{
			DefaultTopK:      cfg.Gateway.DefaultTopK,
			DefaultThreshold: cfg.Gateway.DefaultThreshold,
			ChannelDeadline:  time.Duration(cfg.Gateway.ChannelDeadlineMs) * time.Millisecond,
			RetrievalTimeout: time.Duration(cfg.Gateway.RetrievalTimeoutMs) * time.Millisecond,
			ToolTimeout:      time.Duration(cfg.Gateway.ToolTimeoutMs) * time.Millisecond,
			LLMTimeout:       time.Duration(cfg.Gateway.LLMTimeoutMs) * time.Millisecond,
		},
	)

	kbService := service.NewKBService(pubSub, cfg.Gateway.KBIngestTopic, sysLogger)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Gateway.KBIngestTopic,
		fallbackIndex,
		chunkRepo,
		embeddingProvider,
		eventPublisher,
	)

	ingressService := service.NewIngressService(natsSub, gatewayService, eventPublisher, sysLogger)

	healthService := service.NewHealthService(buildHealthAggregator(cfg, db, externalClient, natsPub))

	return &Container{
		GatewayController:  controller.NewGatewayController(gatewayService),
		KBController:       controller.NewKBController(kbService),
		HealthController:   controller.NewHealthController(healthService),
		LogsController:     controller.NewLogsController(gatewayService, sysLogger),
		EventStreamHandler: handler.NewEventStreamHandler(hub, sysLogger),

		ConsumerService: consumerService,
		IngressService:  ingressService,
		SessionStore:    sessionStore,
		Logger:          sysLogger,
	}
}

// applyExtraTriggers extends trigger tables from config, format
// "tool=phrase|phrase,tool2=phrase".
func applyExtraTriggers(registry *tools.Registry, raw string) {
	if raw == "" {
		return
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}
		phrases := strings.Split(parts[1], "|")
		registry.AddTriggers(parts[0], phrases...)
	}
}

func buildHealthAggregator(cfg *config.Config, db *gorm.DB, externalClient *retrieval.Client, natsPub *pktNats.Publisher) *health.Aggregator {
	checkers := []health.Checker{}

	if externalClient != nil {
		checkers = append(checkers, health.CheckerFunc{
			CheckerName: "retrieval_external",
			Fn:          externalClient.Ping,
		})
	}
	if cfg.Ai.LLMProvider == "ollama" {
		checkers = append(checkers, health.NewHTTPChecker("llm", cfg.Ai.OllamaBaseURL+"/api/tags"))
	}
	if db != nil {
		checkers = append(checkers, health.CheckerFunc{
			CheckerName: "database",
			Fn: func(ctx context.Context) error {
				sqlDB, err := db.DB()
				if err != nil {
					return err
				}
				return sqlDB.PingContext(ctx)
			},
		})
	}
	if natsPub != nil {
		checkers = append(checkers, health.CheckerFunc{
			CheckerName: "nats",
			Fn:          natsPub.Ping,
		})
	}

	return health.NewAggregator(3*time.Second, checkers...)
}
