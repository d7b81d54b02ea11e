package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/steph2502/oohlalaa-shop-go/internal/cart"
	"github.com/steph2502/oohlalaa-shop-go/internal/checkout"
	"github.com/steph2502/oohlalaa-shop-go/internal/config"
	"github.com/steph2502/oohlalaa-shop-go/internal/httpapi"
	"github.com/steph2502/oohlalaa-shop-go/internal/notify"
	"github.com/steph2502/oohlalaa-shop-go/internal/payment"
	"github.com/steph2502/oohlalaa-shop-go/internal/store"
	"github.com/steph2502/oohlalaa-shop-go/internal/sweeper"
	"github.com/steph2502/oohlalaa-shop-go/pkg/kafka"
	"github.com/steph2502/oohlalaa-shop-go/pkg/metrics"
)

func main() {
	cfg, err := config.Load(os.Getenv("OOHLALAA_CONFIG"))
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(connectCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect error: %v", err)
	}
	defer pool.Close()
	if err := pool.Ping(connectCtx); err != nil {
		log.Fatalf("db ping error: %v", err)
	}

	st := store.NewPostgres(pool)
	policy := cfg.DeliveryPolicy()

	// Notifications go through the Postgres outbox and Kafka when brokers
	// are configured; otherwise straight to Telegram.
	var sink notify.Sink
	kafkaClient := kafka.NewClient(cfg.Kafka.Brokers)
	if kafkaClient.Enabled() {
		publisher, err := kafkaClient.NewPublisher(cfg.Kafka.Topic)
		if err != nil {
			log.Fatalf("kafka error: %v", err)
		}
		defer publisher.Close()
		sink = notify.NewOutbox(pool)
		go notify.NewRelay(pool, publisher, 5*time.Second).Run(ctx)
	} else {
		sink = notify.NewTelegram(cfg.Telegram.BotToken)
	}
	notifier := notify.NewService(sink, cfg.Telegram.AdminIDs)

	gateway := payment.NewClient(cfg.Korapay.BaseURL, cfg.Korapay.Secret, cfg.Korapay.RequestTimeout)
	carts := cart.NewService(st, policy)
	engine := checkout.NewEngine(st, gateway, policy,
		cfg.Korapay.RedirectURL, cfg.Korapay.WebhookURL, cfg.Orders.TTL)
	reconciler := payment.NewReconciler(st, cfg.Korapay.Secret, notifier)

	srvMetrics := metrics.NewServerMetrics("storefront")
	sweepMetrics := metrics.NewJobMetrics("storefront", "expiry_sweep")

	go sweeper.New(st, notifier, cfg.Orders.SweepInterval, sweepMetrics).Run(ctx)
	go sweeper.NewReminder(st, notifier, cfg.Carts.ReminderInterval, cfg.Carts.IdleThreshold).Run(ctx)

	api := httpapi.NewServer(carts, engine, reconciler, st,
		cfg.Telegram.AdminIDs, cfg.LowStockThreshold, srvMetrics, pool)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("storefront listening on :%s (sweep every %s, order ttl %s)",
			cfg.Port, cfg.Orders.SweepInterval, cfg.Orders.TTL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
}
