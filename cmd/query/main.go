// Command query serves the local query API: operator login, RAG question
// answering, and the two run-level reports. It never drives a pipeline
// run — that's cmd/pipeline — it only reads already-indexed data. Grounded
// on the teacher's cmd/api/main.go wiring order (load env, load config,
// build logger, connect pool, construct repositories/services bottom-up,
// build the router, start the server).
package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chatlens/internal/auth"
	"chatlens/internal/config"
	"chatlens/internal/db"
	"chatlens/internal/embed"
	"chatlens/internal/httpapi"
	"chatlens/internal/llm"
	"chatlens/internal/rag"
	"chatlens/internal/repository"
	"chatlens/internal/vectorstore"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		os.Stderr.WriteString("warning: loading .env: " + err.Error() + "\n")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	vecStore := vectorstore.NewStore(pool)
	reports := repository.NewPgReportRepository(pool)

	httpClient := llm.NewHTTPClient(cfg.ModelBaseURL, nil, cfg.MaxConcurrentRequests, llm.RetryPolicy{
		MaxAttempts: cfg.RetryAttempts,
		InitialWait: time.Duration(cfg.BackoffInitialS * float64(time.Second)),
		Timeout:     time.Duration(cfg.RequestTimeoutS) * time.Second,
	})

	queryCfg := rag.DefaultQueryConfig()
	queryCfg.Model = cfg.ModelName
	queryCfg.Temperature = cfg.ModelTemperature
	ragEngine := rag.NewEngine(vecStore, embed.NewEmbedder(), httpClient, queryCfg)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, login rate limiting and refresh tokens degrade to in-memory/unlimited", zap.Error(err))
			redisClient = nil
		}
		cancel()
	}

	var tokenStore auth.RefreshTokenStore
	if redisClient != nil {
		tokenStore = auth.NewRedisRefreshTokenStore(redisClient)
	} else {
		tokenStore = auth.NewMemoryRefreshTokenStore()
	}

	jwtSvc := auth.NewJWTServiceWithStore(
		cfg.JWTSecret,
		time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshTTLMinutes)*time.Minute,
		tokenStore,
	)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured")
	}

	loginLimiter := auth.NewLoginRateLimiter(redisClient, time.Minute, 5)
	operator := auth.NewOperator("operator", cfg.OperatorPasswordHash)

	authHandler := httpapi.NewAuthHandler(logger, operator, jwtSvc)
	queryHandler := httpapi.NewQueryHandler(logger, ragEngine)
	reportHandler := httpapi.NewReportHandler(logger, reports)
	router := httpapi.NewRouter(logger, jwtSvc, loginLimiter, authHandler, queryHandler, reportHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting query server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
