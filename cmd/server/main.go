package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/parking-reservation/internal/config"
	"github.com/iliyamo/parking-reservation/internal/database"
	"github.com/iliyamo/parking-reservation/internal/handler"
	appmw "github.com/iliyamo/parking-reservation/internal/middleware"
	"github.com/iliyamo/parking-reservation/internal/queue"
	"github.com/iliyamo/parking-reservation/internal/repository"
	"github.com/iliyamo/parking-reservation/internal/router"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer db.Close()

	// Repositories share the one pooled connection.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	locationRepo := repository.NewLocationRepo(db)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo, roleRepo)
	roleHandler := handler.NewRoleHandler(roleRepo)
	ownerHandler := handler.NewOwnerHandler(locationRepo)
	adminHandler := handler.NewAdminHandler(locationRepo, roleRepo)
	publicHandler := handler.NewPublicHandler(locationRepo)

	e := echo.New()

	// Redis is optional: a nil client turns the cache and the rate
	// limiter into pass-through middleware.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}
	e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cache := appmw.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler, cache)
	router.RegisterOwner(e, ownerHandler, roleRepo, cfg.JWTSecret)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)
	router.RegisterRoles(e, roleHandler, cfg.JWTSecret)

	// Approval events are consumed in the background; the consumer keeps
	// its own reconnect loop and never takes the server down.
	go func() {
		if err := queue.StartApprovalConsumer(); err != nil {
			log.Printf("approval consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
