package main

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/guardbot/antispam/internal/audit"
	"github.com/guardbot/antispam/internal/config"
	"github.com/guardbot/antispam/internal/membership"
	"github.com/guardbot/antispam/internal/messaging"
	"github.com/guardbot/antispam/internal/metrics"
	"github.com/guardbot/antispam/internal/moderation"
	"github.com/guardbot/antispam/internal/offense"
	"github.com/guardbot/antispam/internal/pipeline"
	"github.com/guardbot/antispam/internal/protocol"
	"github.com/guardbot/antispam/internal/trust"
)

const sweepInterval = 10 * time.Minute

// natsActions dispatches moderation actions to the gateway over NATS.
// Publishing is non-blocking, so the pipeline never waits on the platform.
type natsActions struct {
	nats           *messaging.Client
	notifyOnDelete bool
}

func (a *natsActions) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	if err := a.nats.PublishDelete(protocol.DeleteAction{ChatID: chatID, MessageID: messageID}); err != nil {
		return err
	}
	if a.notifyOnDelete {
		notice := protocol.NotifyAction{ChatID: chatID, Text: "Removed a message that looked like spam."}
		if err := a.nats.PublishNotify(notice); err != nil {
			log.Printf("[moderator] notify publish failed chat=%d: %v", chatID, err)
		}
	}
	return nil
}

func (a *natsActions) BanSender(ctx context.Context, chatID, userID int64, duration time.Duration) error {
	return a.nats.PublishBan(protocol.BanAction{
		ChatID:   chatID,
		UserID:   userID,
		Duration: int64(duration.Seconds()),
	})
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	log.Println("Starting guardbot moderator...")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	// Redis setup.
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
	natsConfig.Name = "guardbot-moderator"

	natsClient, err := messaging.NewClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Membership store: in-memory by default, Redis for multi-instance or
	// restart-safe deployments.
	var members membership.Store
	switch cfg.Moderation.Store {
	case "redis":
		members = membership.NewRedisStore(rdb, cfg.Moderation.RecencyWindow)
	default:
		mem := membership.NewMemoryStore()
		go mem.StartSweep(ctx, sweepInterval, cfg.Moderation.RecencyWindow)
		go func() {
			ticker := time.NewTicker(sweepInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					metrics.TrackedMembers.Set(float64(mem.Len()))
				}
			}
		}()
		members = mem
	}

	// Optional decision audit log.
	var auditor pipeline.Auditor
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Fatalf("failed to open Postgres: %v", err)
		}
		if err := db.PingContext(ctx); err != nil {
			log.Fatalf("failed to connect to Postgres: %v", err)
		}
		if err := audit.Migrate(db); err != nil {
			log.Fatalf("failed to run audit migrations: %v", err)
		}
		defer db.Close()
		auditor = audit.NewStore(db)
	}

	classifier := moderation.NewClassifier(moderation.BuildCatalog())

	resolver := trust.NewResolver(trust.Config{
		BotID:     cfg.Trust.BotID,
		OwnerIDs:  cfg.Trust.OwnerIDs,
		ChannelID: cfg.Trust.ChannelID,
	}, natsClient)

	actions := &natsActions{nats: natsClient, notifyOnDelete: cfg.Moderation.NotifyOnDelete}

	pipe := pipeline.New(pipeline.Config{
		NewMembersOnly: cfg.Moderation.NewMembersOnly,
		RecencyWindow:  cfg.Moderation.RecencyWindow,
	}, classifier, members, resolver, actions).
		WithBanner(actions, offense.NewStore(rdb))
	if auditor != nil {
		pipe = pipe.WithAudit(auditor)
	}

	// Route inbound events through the pipeline.
	err = natsClient.SubscribeEvents(func(data []byte) {
		typ, ev, err := protocol.ParseEvent(data)
		if err != nil {
			log.Printf("[moderator] bad event: %v", err)
			return
		}
		metrics.EventsTotal.WithLabelValues(typ).Inc()

		switch e := ev.(type) {
		case *protocol.MessageEvent:
			d := pipe.ProcessMessage(ctx, e)
			metrics.DecisionsTotal.WithLabelValues(d.Outcome).Inc()
		case *protocol.MembershipEvent:
			pipe.ProcessJoin(ctx, e)
		}
	})
	if err != nil {
		log.Fatalf("failed to subscribe to events: %v", err)
	}

	// Metrics and health endpoints.
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	go func() {
		if err := http.ListenAndServe(cfg.Metrics.Listen, mux); err != nil {
			log.Printf("[moderator] metrics server: %v", err)
		}
	}()

	log.Printf("guardbot moderator running")
	log.Printf("  redis_addr:       %s", cfg.Redis.Addr)
	log.Printf("  nats_url:         %s", cfg.NATS.URL)
	log.Printf("  member_store:     %s", cfg.Moderation.Store)
	log.Printf("  new_members_only: %v", cfg.Moderation.NewMembersOnly)
	log.Printf("  metrics_listen:   %s", cfg.Metrics.Listen)

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	stop()
	natsClient.Close()
	rdb.Close()
}
