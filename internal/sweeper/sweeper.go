// Package sweeper hosts the periodic jobs: reclaiming stock from expired
// unpaid orders, and nudging customers about abandoned carts.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
	"github.com/steph2502/oohlalaa-shop-go/internal/notify"
	"github.com/steph2502/oohlalaa-shop-go/internal/store"
	"github.com/steph2502/oohlalaa-shop-go/pkg/logging"
	"github.com/steph2502/oohlalaa-shop-go/pkg/metrics"
)

// Sweeper cancels unpaid orders past their expiry and puts their reserved
// stock back on the shelf. Each order is one transaction; one bad order does
// not stall the rest of the batch.
type Sweeper struct {
	store    store.Store
	notifier *notify.Service
	interval time.Duration
	jobs     *metrics.JobMetrics
	now      func() time.Time
}

func New(st store.Store, notifier *notify.Service, interval time.Duration, jobs *metrics.JobMetrics) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		store:    st,
		notifier: notifier,
		interval: interval,
		jobs:     jobs,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx); err != nil {
				logging.Error("storefront", "expiry_sweep", err)
			}
		}
	}
}

// SweepOnce processes every currently expired order and returns how many it
// cancelled.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	now := s.now()

	var expired []domain.Order
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		expired, err = tx.ListExpiredUnpaid(ctx, now)
		return err
	})
	if err != nil {
		if s.jobs != nil {
			s.jobs.Runs.WithLabelValues("error").Inc()
		}
		return 0, err
	}

	cancelled := 0
	for _, o := range expired {
		if err := s.cancelOrder(ctx, o.PaymentReference); err != nil {
			logging.Log(logging.Fields{
				Service:  "storefront",
				OrderRef: o.PaymentReference,
				Step:     "expiry_sweep",
				Status:   "error",
				Message:  err.Error(),
			})
			continue
		}
		cancelled++
	}

	if s.jobs != nil {
		s.jobs.Runs.WithLabelValues("ok").Inc()
		s.jobs.Processed.Add(float64(cancelled))
	}
	if cancelled > 0 {
		logging.Log(logging.Fields{
			Service: "storefront",
			Step:    "expiry_sweep",
			Status:  "ok",
			Message: fmt.Sprintf("cancelled %d expired orders", cancelled),
		})
	}
	return cancelled, nil
}

func (s *Sweeper) cancelOrder(ctx context.Context, ref string) error {
	var swept domain.Order
	err := s.store.WithinTx(ctx, func(tx store.Tx) error {
		order, err := tx.GetOrderByReference(ctx, ref)
		if err != nil {
			return err
		}
		// The order may have been paid or swept between listing and now.
		if !order.Expired(s.now()) {
			return nil
		}

		for _, it := range order.Items {
			if err := tx.ReleaseStock(ctx, it.ProductID, it.Size, it.Quantity); err != nil {
				return err
			}
		}
		order.Status = domain.OrderCancelled
		order.PaymentStatus = domain.PaymentFailed
		if err := tx.UpdateOrder(ctx, order); err != nil {
			return err
		}
		swept = order
		return nil
	})
	if err != nil {
		return err
	}
	if swept.PaymentReference != "" {
		s.notifier.OrderExpired(ctx, swept)
	}
	return nil
}
