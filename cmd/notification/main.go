package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/YildirimDemir/social-platform/internal/config"
	"github.com/YildirimDemir/social-platform/internal/mailer"
	"github.com/YildirimDemir/social-platform/internal/queue"
)

func main() {
	log.SetPrefix("[notification] ")

	_ = godotenv.Load()

	cfg := config.Load()

	log.Printf("consuming notification events (env=%s)", cfg.Env)
	if err := queue.StartNotificationConsumer(cfg.RabbitURL, mailer.NewLogMailer()); err != nil {
		log.Fatal(err)
	}
}
