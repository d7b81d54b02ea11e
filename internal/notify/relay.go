package notify

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/steph2502/oohlalaa-shop-go/pkg/kafka"
	"github.com/steph2502/oohlalaa-shop-go/pkg/logging"
	"github.com/steph2502/oohlalaa-shop-go/pkg/outbox"
)

const relayBatchSize = 100

// Relay drains the notification outbox to Kafka. Rows that fail to publish
// keep their attempt counter and are retried on the next pass.
type Relay struct {
	pool      *pgxpool.Pool
	publisher *kafka.Publisher
	interval  time.Duration
}

func NewRelay(pool *pgxpool.Pool, publisher *kafka.Publisher, interval time.Duration) *Relay {
	return &Relay{pool: pool, publisher: publisher, interval: interval}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.drain(ctx)
		}
	}
}

func (r *Relay) drain(ctx context.Context) {
	for {
		records, err := outbox.FetchPending(ctx, r.pool, relayBatchSize)
		if err != nil {
			logging.Error("storefront", "outbox_fetch", err)
			return
		}
		if len(records) == 0 {
			return
		}
		anyFailed := false
		for _, rec := range records {
			if err := r.publisher.Publish(ctx, rec.Recipient, rec.Notification()); err != nil {
				logging.Error("storefront", "outbox_publish", err)
				_ = outbox.MarkFailed(ctx, r.pool, rec.ID)
				anyFailed = true
				continue
			}
			if err := outbox.MarkSent(ctx, r.pool, rec.ID); err != nil {
				logging.Error("storefront", "outbox_mark_sent", err)
			}
		}
		// Failed rows stay pending; wait for the next tick instead of
		// refetching them immediately.
		if anyFailed || len(records) < relayBatchSize {
			return
		}
	}
}
