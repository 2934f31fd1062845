package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/YildirimDemir/social-platform/internal/authgate"
	"github.com/YildirimDemir/social-platform/internal/clients"
	"github.com/YildirimDemir/social-platform/internal/config"
	"github.com/YildirimDemir/social-platform/internal/gateway"
)

func main() {
	log.SetPrefix("[gateway] ")

	_ = godotenv.Load()

	cfg := config.Load().MustGateway()

	identityRPC := clients.NewIdentityClient(cfg.IdentityRPCURL, cfg.ServiceAuthToken, 5*time.Second)
	gate := authgate.New(identityRPC)

	e := echo.New()
	e.HideBanner = true
	gateway.RegisterRoutes(e, gate)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, identity=%s)", addr, cfg.Env, cfg.IdentityRPCURL)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
