// Package outbox persists notifications next to the state change that caused
// them. A relay drains pending rows to Kafka; delivery failures never roll
// back storefront state.
package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/steph2502/oohlalaa-shop-go/pkg/contracts"
)

type Record struct {
	ID        int64      `json:"id"`
	EventID   string     `json:"event_id"`
	Recipient string     `json:"recipient"`
	OrderRef  string     `json:"order_ref"`
	Kind      string     `json:"kind"`
	Text      string     `json:"text"`
	Attempts  int        `json:"attempts"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at"`
}

func (r Record) Notification() contracts.Notification {
	return contracts.Notification{
		EventID:   r.EventID,
		Recipient: r.Recipient,
		OrderRef:  r.OrderRef,
		Kind:      contracts.NotificationKind(r.Kind),
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
	}
}

func Insert(ctx context.Context, pool *pgxpool.Pool, n contracts.Notification) error {
	_, err := pool.Exec(ctx,
		`INSERT INTO notification_outbox(event_id, recipient, order_ref, kind, text)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (event_id) DO NOTHING`,
		n.EventID, n.Recipient, n.OrderRef, string(n.Kind), n.Text)
	return err
}

func MarkSent(ctx context.Context, pool *pgxpool.Pool, id int64) error {
	_, err := pool.Exec(ctx, `UPDATE notification_outbox SET sent_at=now() WHERE id=$1`, id)
	return err
}

func MarkFailed(ctx context.Context, pool *pgxpool.Pool, id int64) error {
	_, err := pool.Exec(ctx, `UPDATE notification_outbox SET attempts=attempts+1 WHERE id=$1`, id)
	return err
}

func FetchPending(ctx context.Context, pool *pgxpool.Pool, limit int) ([]Record, error) {
	rows, err := pool.Query(ctx,
		`SELECT id, event_id, recipient, order_ref, kind, text, attempts, created_at, sent_at
		 FROM notification_outbox
		 WHERE sent_at IS NULL
		 ORDER BY id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.Recipient, &rec.OrderRef, &rec.Kind, &rec.Text, &rec.Attempts, &rec.CreatedAt, &rec.SentAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
