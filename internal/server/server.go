package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"architect/internal/ai"
	"architect/internal/config"
	"architect/internal/handler"
	"architect/internal/metrics"
	"architect/internal/pkg/anthropic"
	"architect/internal/pkg/cache"
	"architect/internal/pkg/gooseai"
	"architect/internal/pkg/mongodb"
	"architect/internal/repository"
	"architect/internal/server/middleware"
	"architect/internal/service"
)

// Server HTTP 服务器
type Server struct {
	cfg     *config.Config
	engine  *gin.Engine
	mongo   *mongodb.Client
	redis   *cache.RedisCache
	cron    *cron.Cron
	metrics *metrics.Metrics

	orchestrator *ai.Orchestrator
	convService  *service.ConversationService
	toolService  *service.ToolService
}

// New 创建服务器实例
func New(cfg *config.Config) (*Server, error) {
	// 设置 Gin 模式
	switch cfg.Server.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建 Gin 引擎
	engine := gin.New()

	// 初始化 MongoDB (可选，对话归档)
	var mongoClient *mongodb.Client
	var archiveRepo *repository.ArchiveRepo
	if cfg.Mongo.URI != "" {
		client, err := mongodb.New(&cfg.Mongo)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to MongoDB, continuing without it")
		} else {
			mongoClient = client
			archiveRepo = repository.NewArchiveRepo(client.Database())
			log.Info().Str("database", cfg.Mongo.Database).Msg("connected to MongoDB")

			// 创建索引
			if err := archiveRepo.EnsureIndexes(context.Background()); err != nil {
				log.Warn().Err(err).Msg("failed to ensure indexes")
			}
		}
	}

	// 初始化 Redis (可选，对话快照)
	var redisCache *cache.RedisCache
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisCache(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to Redis, continuing without it")
		} else {
			redisCache = rc
			log.Info().Str("addr", cfg.Redis.Addr).Msg("connected to Redis")
		}
	}

	m := metrics.New()

	gooseClient := gooseai.NewClient(gooseai.Config{
		APIKey:  cfg.Providers.GooseAI.APIKey,
		BaseURL: cfg.Providers.GooseAI.BaseURL,
		Timeout: cfg.Providers.RequestTimeout,
	})

	// 提供商顺序即降级顺序，Anthropic 优先
	providers := []ai.Provider{
		ai.NewAnthropicProvider(anthropic.NewClient(anthropic.Config{
			APIKey:  cfg.Providers.Anthropic.APIKey,
			BaseURL: cfg.Providers.Anthropic.BaseURL,
			Model:   cfg.Providers.Anthropic.Model,
			Timeout: cfg.Providers.RequestTimeout,
		})),
		ai.NewGooseAIProvider(gooseClient),
	}
	orchestrator := ai.NewOrchestrator(providers, cfg.Providers.RequestTimeout, m)

	convRepo := repository.NewConversationRepo()
	convService := service.NewConversationService(
		orchestrator, convRepo, redisCache, archiveRepo, m, cfg.Conversation.MaxAge)
	toolService := service.NewToolService(gooseClient)

	srv := &Server{
		cfg:          cfg,
		engine:       engine,
		mongo:        mongoClient,
		redis:        redisCache,
		metrics:      m,
		orchestrator: orchestrator,
		convService:  convService,
		toolService:  toolService,
	}

	// 设置路由
	srv.setupRoutes()

	// 定时清理过期对话
	if err := srv.setupCron(); err != nil {
		return nil, err
	}

	return srv, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// 全局中间件
	s.engine.Use(middleware.Recovery())
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.Logger())
	s.engine.Use(middleware.CORS())

	// 健康检查
	healthHandler := handler.NewHealthHandler(s.orchestrator)
	s.engine.GET("/health", healthHandler.Health)
	s.engine.GET("/ready", healthHandler.Ready)

	// Prometheus 指标
	s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// Swagger 文档
	s.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API v1
	v1 := s.engine.Group("/api/v1")
	{
		// 对话接口
		convHandler := handler.NewConversationHandler(s.convService)
		v1.POST("/conversation/start", convHandler.Start)
		v1.POST("/conversation/continue", convHandler.Continue)
		v1.POST("/conversation/cleanup", convHandler.Cleanup)
		v1.GET("/conversation/:id", convHandler.Get)
		v1.GET("/conversation/:id/download", convHandler.DownloadProject)
		v1.GET("/conversation/:id/response/download", convHandler.DownloadResponse)

		// 提供商状态接口
		providerHandler := handler.NewProviderHandler(s.orchestrator)
		v1.GET("/models/status", providerHandler.Status)
		v1.GET("/models/available", providerHandler.Available)
		v1.GET("/models/performance", providerHandler.Performance)
		v1.GET("/models/recommendations", providerHandler.Recommendations)

		// 工具调用接口
		mcpHandler := handler.NewMCPHandler(s.toolService)
		mcp := v1.Group("/mcp")
		{
			mcp.GET("/status", mcpHandler.Status)
			mcp.GET("/tools", mcpHandler.Tools)
			mcp.GET("/health", mcpHandler.Health)
			mcp.POST("/execute", mcpHandler.Execute)
			mcp.POST("/create-project", mcpHandler.CreateProject)
			mcp.POST("/deploy-project", mcpHandler.DeployProject)
		}
	}
}

// setupCron 注册过期对话的定时清理任务
func (s *Server) setupCron() error {
	schedule := s.cfg.Conversation.SweepSchedule
	if schedule == "" {
		return nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		removed := s.convService.Cleanup(context.Background())
		log.Debug().Int("removed", removed).Msg("scheduled conversation sweep finished")
	})
	if err != nil {
		return err
	}

	s.cron = c
	log.Info().Str("schedule", schedule).Msg("conversation sweep scheduled")
	return nil
}

// Run 启动服务器
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	if s.cron != nil {
		s.cron.Start()
	}

	// 启动服务器
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待关闭信号或错误
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server...")

		if s.cron != nil {
			<-s.cron.Stop().Done()
		}

		// 关闭连接
		if s.mongo != nil {
			if err := s.mongo.Close(context.Background()); err != nil {
				log.Error().Err(err).Msg("failed to close MongoDB connection")
			}
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close Redis connection")
			}
		}

		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// Engine 获取 Gin 引擎 (用于测试)
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
