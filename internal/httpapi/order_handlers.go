package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
	"github.com/steph2502/oohlalaa-shop-go/internal/payment"
	"github.com/steph2502/oohlalaa-shop-go/internal/store"
	"github.com/steph2502/oohlalaa-shop-go/pkg/idempotency"
)

type checkoutRequest struct {
	CustomerID   string `json:"customerId"`
	CustomerName string `json:"customerName"`
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.Observe("checkout", "400", start)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	res, err := s.engine.Checkout(r.Context(),
		domain.CustomerID(req.CustomerID), req.CustomerName, idempotency.Key(r))
	s.metrics.Observe("checkout", statusLabel(err), start)
	if err != nil {
		writeError(w, err)
		return
	}

	code := http.StatusCreated
	if res.Replayed {
		code = http.StatusOK
	}
	writeJSON(w, code, map[string]any{"checkoutUrl": res.CheckoutURL, "reference": res.Reference})
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	customer := domain.CustomerID(r.PathValue("customerID"))

	var orders []domain.Order
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		orders, err = tx.ListOrdersByCustomer(r.Context(), customer)
		return err
	})
	s.metrics.Observe("orders_list", statusLabel(err), start)
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

const signatureHeader = "x-korapay-signature"

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.metrics.Observe("webhook", "400", start)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unreadable body"})
		return
	}

	outcome, err := s.reconciler.HandleWebhook(r.Context(), r.Header.Get(signatureHeader), body)
	s.metrics.Observe("webhook", statusLabel(err), start)
	if err != nil {
		writeError(w, err)
		return
	}

	// Non-error outcomes all return 200 so the provider stops retrying.
	switch outcome {
	case payment.OutcomeProcessed:
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	default:
		writeJSON(w, http.StatusOK, map[string]any{"received": true})
	}
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// handleOrderStatus is the manual fulfillment path: an admin walks a paid
// order through PROCESSING -> SHIPPED -> DELIVERED, or cancels it.
func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ref := r.PathValue("reference")

	var req orderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.Observe("admin_order_status", "400", start)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	next := domain.OrderStatus(req.Status)

	var updated domain.Order
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		order, err := tx.GetOrderByReference(r.Context(), ref)
		if err != nil {
			return err
		}
		if !domain.CanTransition(order.Status, next) {
			return domain.ErrInvalidTransition
		}
		order.Status = next
		if err := tx.UpdateOrder(r.Context(), order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	s.metrics.Observe("admin_order_status", statusLabel(err), start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": updated})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var stats store.Stats
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		stats, err = tx.Stats(r.Context(), s.lowStockThreshold)
		return err
	})
	s.metrics.Observe("admin_stats", statusLabel(err), start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
