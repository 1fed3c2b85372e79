package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/roofline/roofline-backend/internal/auth"
	"github.com/roofline/roofline-backend/internal/config"
	"github.com/roofline/roofline-backend/internal/database"
	"github.com/roofline/roofline-backend/internal/handler"
	"github.com/roofline/roofline-backend/internal/middleware"
	"github.com/roofline/roofline-backend/internal/queue"
	"github.com/roofline/roofline-backend/internal/repository"
	"github.com/roofline/roofline-backend/internal/router"
	"github.com/roofline/roofline-backend/internal/service"
)

func main() {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	leases := repository.NewLeaseRepo(db)

	codec := auth.NewCodec(auth.TokenConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})
	sessions := service.NewSession(users, tokens, codec, auth.LockoutPolicy{
		Threshold: cfg.LockoutThreshold,
		Window:    cfg.LockoutWindow,
	})

	authHandler := handler.NewAuthHandler(cfg, users, sessions, service.NewStaticVerifier())
	leaseHandler := handler.NewLeaseHandler(leases)

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, login rate limiting disabled")
	}
	loginLimiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	authn := middleware.Authenticate(codec, users, middleware.PublicPaths())

	// Notification stub: consumes registration and payment events and
	// writes them to logs/notifications.log.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterCore(e, authHandler, leaseHandler, authn, loginLimiter)

	addr := ":" + cfg.Port
	log.Printf("core listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
