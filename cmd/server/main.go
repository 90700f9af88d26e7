package main

import (
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"

	"taskdeck/internal/app"
	"taskdeck/internal/config"
	"taskdeck/internal/ratelimit"
	"taskdeck/internal/server"
	"taskdeck/internal/token"
	"taskdeck/internal/util"
	"taskdeck/pkg/ai"
	"taskdeck/pkg/domain"
	"taskdeck/pkg/storage"
	"taskdeck/pkg/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	jwtTTL, err := config.ParseJWTTTL(cfg.JWTTTL)
	if err != nil {
		log.Fatalf("failed to parse JWT TTL: %v", err)
	}

	logger := util.InitLogger(cfg.LogLevel)

	dataStore, err := store.NewGormStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to init database: %v", err)
	}
	objects, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
	if err != nil {
		log.Fatalf("failed to init object storage: %v", err)
	}
	inferrer := ai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel)

	tokens, err := token.NewManager(token.Config{
		Secret: cfg.JWTSecret,
		Issuer: cfg.JWTIssuer,
		TTL:    jwtTTL,
	})
	if err != nil {
		log.Fatalf("failed to init token manager: %v", err)
	}

	appCore, err := app.New(dataStore, objects, inferrer)
	if err != nil {
		log.Fatalf("failed to init app: %v", err)
	}
	if cfg.BootstrapAdminName != "" && cfg.BootstrapAdminPassword != "" {
		if err := appCore.EnsureUser(cfg.BootstrapAdminName, cfg.BootstrapAdminPassword, cfg.BootstrapAdminName, domain.UserAdmin); err != nil {
			log.Fatalf("failed to bootstrap admin: %v", err)
		}
	}

	signupLimit := cfg.SignupRateLimitPerMinute
	if signupLimit <= 0 {
		signupLimit = 5
	}
	signinLimit := cfg.SigninRateLimitPerMinute
	if signinLimit <= 0 {
		signinLimit = 10
	}
	signupLimiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "taskdeck:ratelimit:signup", signupLimit, time.Minute)
	if err != nil {
		log.Fatalf("failed to init signup limiter: %v", err)
	}
	signinLimiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "taskdeck:ratelimit:signin", signinLimit, time.Minute)
	if err != nil {
		log.Fatalf("failed to init signin limiter: %v", err)
	}

	httpServer, err := server.New(server.Config{
		App:            appCore,
		Tokens:         tokens,
		SignupLimiter:  signupLimiter,
		SigninLimiter:  signinLimiter,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	if err != nil {
		log.Fatalf("failed to init server: %v", err)
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("server listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "err", err)
	}
}
