package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guardbot/antispam/internal/config"
	"github.com/guardbot/antispam/internal/gateway"
	"github.com/guardbot/antispam/internal/messaging"
	"github.com/guardbot/antispam/internal/ratelimit"
	"github.com/guardbot/antispam/internal/telegram"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	log.Println("Starting guardbot gateway...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Redis setup, for notice rate limiting.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	cancel()

	// NATS setup.
	natsConfig := messaging.DefaultConfig()
	natsConfig.URL = cfg.NATS.URL
	natsConfig.Name = "guardbot-gateway"

	natsClient, err := messaging.NewClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	// Bot API client. getMe doubles as a token check.
	tg := telegram.NewClient(cfg.Telegram.Token, "")
	meCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	me, err := tg.GetMe(meCtx)
	cancel()
	if err != nil {
		log.Fatalf("failed to verify bot token: %v", err)
	}

	svc := gateway.NewService(tg, natsClient, ratelimit.NewLimiter(rdb))
	if err := svc.Start(); err != nil {
		log.Fatalf("failed to start gateway: %v", err)
	}

	log.Printf("guardbot gateway running")
	log.Printf("  bot:        @%s (id %d)", me.Username, me.ID)
	log.Printf("  redis_addr: %s", cfg.Redis.Addr)
	log.Printf("  nats_url:   %s", cfg.NATS.URL)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	svc.Stop()
	natsClient.Close()
	rdb.Close()
}
