package notify

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/steph2502/oohlalaa-shop-go/pkg/contracts"
	"github.com/steph2502/oohlalaa-shop-go/pkg/outbox"
)

// Outbox stores notifications in Postgres for the relay to pick up. This is
// the durable path: the worker can be down without losing messages.
type Outbox struct {
	pool *pgxpool.Pool
}

func NewOutbox(pool *pgxpool.Pool) *Outbox {
	return &Outbox{pool: pool}
}

func (o *Outbox) Send(ctx context.Context, n contracts.Notification) error {
	return outbox.Insert(ctx, o.pool, n)
}
