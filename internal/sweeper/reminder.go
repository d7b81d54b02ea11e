package sweeper

import (
	"context"
	"time"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
	"github.com/steph2502/oohlalaa-shop-go/internal/notify"
	"github.com/steph2502/oohlalaa-shop-go/internal/store"
	"github.com/steph2502/oohlalaa-shop-go/pkg/logging"
)

// Reminder messages customers whose carts have items but sat untouched for a
// day. Each cart is reminded at most once; any cart mutation re-arms it.
type Reminder struct {
	store    store.Store
	notifier *notify.Service
	interval time.Duration
	idle     time.Duration
	now      func() time.Time
}

func NewReminder(st store.Store, notifier *notify.Service, interval, idle time.Duration) *Reminder {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	if idle <= 0 {
		idle = 24 * time.Hour
	}
	return &Reminder{
		store:    st,
		notifier: notifier,
		interval: interval,
		idle:     idle,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *Reminder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RemindOnce(ctx); err != nil {
				logging.Error("storefront", "cart_reminder", err)
			}
		}
	}
}

func (r *Reminder) RemindOnce(ctx context.Context) (int, error) {
	idleSince := r.now().Add(-r.idle)

	var idle []domain.Cart
	err := r.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		idle, err = tx.ListIdleCarts(ctx, idleSince)
		return err
	})
	if err != nil {
		return 0, err
	}

	reminded := 0
	for _, c := range idle {
		cart := c
		claimed := false
		err := r.store.WithinTx(ctx, func(tx store.Tx) error {
			fresh, err := tx.GetCart(ctx, cart.CustomerID)
			if err != nil {
				return err
			}
			if fresh.ReminderSent || len(fresh.Items) == 0 {
				return nil
			}
			fresh.ReminderSent = true
			cart = fresh
			claimed = true
			return tx.SaveCart(ctx, fresh)
		})
		if err != nil {
			logging.Log(logging.Fields{
				Service:    "storefront",
				CustomerID: string(cart.CustomerID),
				Step:       "cart_reminder",
				Status:     "error",
				Message:    err.Error(),
			})
			continue
		}
		if !claimed {
			continue
		}
		r.notifier.CartReminder(ctx, cart)
		reminded++
	}
	return reminded, nil
}
