package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/forgeline/forge-backend/internal/adapters"
	"github.com/forgeline/forge-backend/internal/board"
	"github.com/forgeline/forge-backend/internal/cache"
	"github.com/forgeline/forge-backend/internal/database"
	"github.com/forgeline/forge-backend/internal/errors"
	"github.com/forgeline/forge-backend/internal/monitoring"
	"github.com/forgeline/forge-backend/internal/ratelimit"
	"github.com/forgeline/forge-backend/internal/security"
	"github.com/forgeline/forge-backend/internal/service"
	"github.com/forgeline/forge-backend/internal/types"
)

// Config holds runtime configuration, loaded from the environment.
type Config struct {
	DataDir        string   `validate:"required"`
	Port           string   `validate:"required,numeric"`
	JWTSecret      string   `validate:"required,min=16"`
	SkillScorerURL string   `validate:"omitempty,url"`
	SkillScorerKey string   `validate:"-"`
	RedisAddr      string   `validate:"-"`
	RedisPassword  string   `validate:"-"`
	RedisDB        int      `validate:"gte=0"`
	AllowedOrigins []string `validate:"min=1"`
	GinMode        string   `validate:"oneof=debug release test"`
}

func loadConfig() (Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	redisDB, _ := strconv.Atoi(getEnvOrDefault("REDIS_DB", "0"))

	cfg := Config{
		DataDir:        getEnvOrDefault("DATA_DIR", "./data"),
		Port:           getEnvOrDefault("PORT", "8080"),
		JWTSecret:      getEnvOrDefault("JWT_SECRET", "change-me-in-production-please"),
		SkillScorerURL: os.Getenv("SKILL_SCORER_URL"),
		SkillScorerKey: os.Getenv("SKILL_SCORER_API_KEY"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        redisDB,
		AllowedOrigins: strings.Split(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"), ","),
		GinMode:        getEnvOrDefault("GIN_MODE", "release"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, errors.NewConfigurationError("invalid configuration", err)
	}

	return cfg, nil
}

// server bundles the router with everything it needs to shut down cleanly.
type server struct {
	cfg        Config
	db         *database.DB
	router     *gin.Engine
	metrics    *monitoring.Metrics
	logger     *monitoring.Logger
	limiter    *ratelimit.RateLimiter
	tokens     *security.TokenManager
	matchCache *cache.Cache

	scores        *service.ScoreService
	verifications *service.VerificationService
	matches       *service.MatchService
	skills        *service.SkillService
	boards        *board.Service
}

func newServer(cfg Config) (*server, error) {
	db, err := database.NewDB(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	repo := database.NewRepository(db)
	appMetrics := monitoring.NewMetrics()
	appLogger := monitoring.NewLogger()

	redisClient, err := ratelimit.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		// Redis being down is not fatal; the limiter falls back to memory.
		slog.Warn("Redis unavailable, using in-memory rate limiting", "error", err)
	}
	limiter := ratelimit.NewRateLimiter(redisClient, ratelimit.DefaultConfig(), appMetrics)

	s := &server{
		cfg:           cfg,
		db:            db,
		metrics:       appMetrics,
		logger:        appLogger,
		limiter:       limiter,
		tokens:        security.NewTokenManager(security.DefaultConfig(cfg.JWTSecret)),
		matchCache:    cache.NewCache(2 * time.Minute),
		scores:        service.NewScoreService(repo, appLogger),
		verifications: service.NewVerificationService(repo, appLogger),
		matches:       service.NewMatchService(repo, appLogger),
		boards:        board.NewService(repo),
	}

	if cfg.SkillScorerURL != "" {
		scorer := adapters.NewSkillScorerClient(cfg.SkillScorerURL, cfg.SkillScorerKey, appLogger, appMetrics)
		s.skills = service.NewSkillService(repo, scorer, appLogger)
	}

	s.router = s.buildRouter()
	return s, nil
}

func (s *server) buildRouter() *gin.Engine {
	r := gin.New()

	r.Use(monitoring.MonitoringMiddleware(s.metrics, s.logger))
	r.Use(monitoring.SecurityMonitoringMiddleware(s.logger))
	r.Use(errors.ErrorHandler())
	r.Use(errors.RecoveryHandler())

	r.Use(security.SecurityHeadersMiddleware())
	r.Use(security.RequestTimeout(30 * time.Second))
	r.Use(security.ValidateContentType())

	r.Use(cors.New(cors.Config{
		AllowOrigins:  s.cfg.AllowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}))

	r.Use(s.limiter.IPRateLimitMiddleware())

	// Match responses tolerate short staleness; score and verification
	// writes must never be served from cache.
	r.Use(s.matchCache.Middleware(s.metrics, "/projects"))

	r.GET("/health", s.handleHealth)
	r.GET("/metrics", s.handleMetrics)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	r.GET("/builders/top", s.handleTopBuilders)
	r.GET("/builders/:id/score", s.handleGetScore)
	r.GET("/projects/:id/matches", s.handleOwnerMatches)
	r.GET("/projects/:id/role-matches", s.handleRoleMatches)
	r.GET("/stats/live", s.handleLiveStats)
	r.GET("/ratelimit/status", s.limiter.HandleRateLimitStatus())

	authRequired := security.AuthMiddleware(s.tokens)

	r.POST("/builders/:id/score", authRequired, s.limiter.RecomputeThrottleMiddleware(), s.handleComputeScore)
	r.POST("/builders/:id/skills/refresh", authRequired, s.handleSkillRefresh)
	r.POST("/deliveries/:id/verification", authRequired, s.handleRunVerification)

	admin := r.Group("/admin", authRequired)
	admin.GET("/ratelimits", s.limiter.HandleAdminRateLimits())
	admin.POST("/ratelimits/reset", s.limiter.HandleAdminResetAll())
	admin.POST("/ratelimits/cooldowns/:id/reset", s.limiter.HandleAdminResetCooldown())
	admin.POST("/ratelimits/ips/:ip/reset", s.limiter.HandleAdminResetIP())
	admin.GET("/cache/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"match_cache": s.matchCache.Stats(),
			"leaderboard": s.boards.CacheStats(),
		})
	})
	admin.GET("/pools/database", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.db.GetPoolStats())
	})

	return r
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"metrics":   s.metrics.GetStats(),
	})
}

func (s *server) handleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, s.metrics.GetStats())
}

func (s *server) handleComputeScore(c *gin.Context) {
	builderID, ok := s.pathID(c)
	if !ok {
		return
	}

	payload, err := s.scores.Compute(c.Request.Context(), builderID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.metrics.IncrementScoreComputation()
	s.boards.InvalidateLeaderboard()
	s.matchCache.DeletePrefix("/projects")
	c.JSON(http.StatusOK, types.ComputeScoreResponse{Success: true, Score: *payload})
}

func (s *server) handleGetScore(c *gin.Context) {
	builderID, ok := s.pathID(c)
	if !ok {
		return
	}

	payload, err := s.scores.Get(c.Request.Context(), builderID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"score": payload})
}

func (s *server) handleSkillRefresh(c *gin.Context) {
	if s.skills == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "skill scorer not configured"})
		return
	}

	builderID, ok := s.pathID(c)
	if !ok {
		return
	}

	resp, err := s.skills.Refresh(c.Request.Context(), builderID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.metrics.IncrementSkillRefresh()
	c.JSON(http.StatusOK, resp)
}

func (s *server) handleRunVerification(c *gin.Context) {
	deliveryID, ok := s.pathID(c)
	if !ok {
		return
	}

	payload, err := s.verifications.Run(c.Request.Context(), deliveryID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.metrics.IncrementVerificationRun()
	c.JSON(http.StatusOK, types.VerifyResponse{Success: true, Verification: *payload})
}

func (s *server) handleOwnerMatches(c *gin.Context) {
	projectID, ok := s.pathID(c)
	if !ok {
		return
	}

	resp, err := s.matches.OwnerMatches(c.Request.Context(), projectID)
	if err != nil {
		s.respondError(c, err)
		return
	}

	truncateMatches(resp, parseLimit(c, 10, 10))
	s.metrics.IncrementMatchRequest()
	c.JSON(http.StatusOK, resp)
}

func (s *server) handleRoleMatches(c *gin.Context) {
	projectID, ok := s.pathID(c)
	if !ok {
		return
	}

	role := c.Query("role")
	if role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role query parameter is required"})
		return
	}

	resp, err := s.matches.RoleMatches(c.Request.Context(), projectID, role)
	if err != nil {
		s.respondError(c, err)
		return
	}

	truncateMatches(resp, parseLimit(c, 20, 20))
	s.metrics.IncrementMatchRequest()
	c.JSON(http.StatusOK, resp)
}

func (s *server) handleTopBuilders(c *gin.Context) {
	resp, err := s.boards.TopBuilders(c.Request.Context(), parseLimit(c, 50, 100))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *server) handleLiveStats(c *gin.Context) {
	stats, err := s.boards.Live(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// pathID validates the :id path parameter, responding 400 on bad input.
func (s *server) pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if err := security.ValidateID(security.DefaultConfig(s.cfg.JWTSecret), id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return id, true
}

func (s *server) respondError(c *gin.Context, err error) {
	appErr := errors.ToAppError(err)
	errors.LogError(c, appErr)
	c.JSON(appErr.HTTPStatus, gin.H{
		"error":    appErr.ErrBuilder.Msg,
		"category": appErr.Category,
	})
}

func parseLimit(c *gin.Context, def, max int) int {
	limit := def
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > max {
		limit = max
	}
	return limit
}

func truncateMatches(resp *types.MatchResponse, limit int) {
	if len(resp.Matches) > limit {
		resp.Matches = resp.Matches[:limit]
	}
}

func (s *server) Close() {
	if err := s.db.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	gin.SetMode(cfg.GinMode)

	s, err := newServer(cfg)
	if err != nil {
		slog.Error("Failed to initialize server", "error", err)
		os.Exit(1)
	}
	defer s.Close()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: s.router,
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
