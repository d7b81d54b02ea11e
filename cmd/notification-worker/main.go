package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/steph2502/oohlalaa-shop-go/internal/config"
	"github.com/steph2502/oohlalaa-shop-go/internal/notify"
	"github.com/steph2502/oohlalaa-shop-go/pkg/contracts"
	"github.com/steph2502/oohlalaa-shop-go/pkg/kafka"
	"github.com/steph2502/oohlalaa-shop-go/pkg/logging"
	"github.com/steph2502/oohlalaa-shop-go/pkg/metrics"
)

// The worker drains the notification topic and delivers to Telegram. An
// inbox table keyed by event id absorbs Kafka redeliveries.
func main() {
	cfg, err := config.Load(os.Getenv("OOHLALAA_CONFIG"))
	if err != nil {
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

	kafkaClient := kafka.NewClient(cfg.Kafka.Brokers)
	if !kafkaClient.Enabled() {
		log.Fatal("KAFKA brokers are required for the notification worker")
	}

	telegram := notify.NewTelegram(cfg.Telegram.BotToken)
	go consume(ctx, pool, kafkaClient, cfg, telegram)

	srvMetrics := metrics.NewServerMetrics("notification_worker")
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		w.Header().Set("Content-Type", "application/json")
		if err := pool.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"db_error"}`))
			srvMetrics.Observe("health", "503", start)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok"}`))
		srvMetrics.Observe("health", "200", start)
	})
	mux.Handle("GET /metrics", metrics.Handler())

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("notification-worker listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
}

func consume(ctx context.Context, pool *pgxpool.Pool, client *kafka.Client, cfg config.Config, telegram *notify.Telegram) {
	reader := client.NewReader(cfg.Kafka.Topic, cfg.Kafka.GroupID)
	defer reader.Close()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("kafka read error: %v", err)
			time.Sleep(2 * time.Second)
			continue
		}

		var n contracts.Notification
		if err := json.Unmarshal(msg.Value, &n); err != nil {
			log.Printf("notification decode error: %v", err)
			continue
		}
		if n.EventID == "" || n.Recipient == "" {
			continue
		}

		fresh, err := markSeen(ctx, pool, n.EventID)
		if err != nil {
			log.Printf("inbox error: %v", err)
			continue
		}
		if !fresh {
			continue
		}

		if err := telegram.Send(ctx, n); err != nil {
			logging.Log(logging.Fields{
				Service:  "notification-worker",
				OrderRef: n.OrderRef,
				Step:     "deliver_" + string(n.Kind),
				Status:   "error",
				Message:  err.Error(),
			})
			continue
		}
		logging.Log(logging.Fields{
			Service:  "notification-worker",
			OrderRef: n.OrderRef,
			Step:     "deliver_" + string(n.Kind),
			Status:   "sent",
		})
	}
}

// markSeen records the event id and reports whether it was new.
func markSeen(ctx context.Context, pool *pgxpool.Pool, eventID string) (bool, error) {
	tag, err := pool.Exec(ctx,
		`INSERT INTO notification_inbox(event_id, received_at)
		 VALUES ($1, now()) ON CONFLICT (event_id) DO NOTHING`, eventID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
