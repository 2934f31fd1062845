package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/YildirimDemir/social-platform/internal/authgate"
	"github.com/YildirimDemir/social-platform/internal/config"
	"github.com/YildirimDemir/social-platform/internal/crypto"
	"github.com/YildirimDemir/social-platform/internal/database"
	"github.com/YildirimDemir/social-platform/internal/handler"
	"github.com/YildirimDemir/social-platform/internal/identity"
	"github.com/YildirimDemir/social-platform/internal/queue"
	"github.com/YildirimDemir/social-platform/internal/repository"
	"github.com/YildirimDemir/social-platform/internal/router"
	"github.com/YildirimDemir/social-platform/internal/token"
	"github.com/YildirimDemir/social-platform/internal/verification"
)

func main() {
	log.SetPrefix("[identity] ")

	_ = godotenv.Load() // .env is optional outside local dev

	cfg := config.Load().MustIdentity()

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis: connection failed, verification store unavailable")
	}
	defer rdb.Close()

	svc := identity.NewService(
		repository.NewAccountRepo(db),
		repository.NewRoleRepo(db),
		verification.NewRedisStore(rdb),
		token.NewService(cfg.JWTSecret, cfg.JWTExpirationSec),
		crypto.NewHasher(cfg.BcryptCost),
		queue.NewPublisher(cfg.RabbitURL),
	)

	// The identity service gates its own /v1 routes in-process; no RPC
	// round trip through its own /internal endpoint.
	gate := authgate.New(svc)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, svc), gate, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
