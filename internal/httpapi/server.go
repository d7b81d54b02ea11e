// Package httpapi exposes the storefront over JSON HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/steph2502/oohlalaa-shop-go/internal/cart"
	"github.com/steph2502/oohlalaa-shop-go/internal/checkout"
	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
	"github.com/steph2502/oohlalaa-shop-go/internal/payment"
	"github.com/steph2502/oohlalaa-shop-go/internal/store"
	"github.com/steph2502/oohlalaa-shop-go/pkg/metrics"
)

// Pinger is what the health endpoint needs from the database pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	carts      *cart.Service
	engine     *checkout.Engine
	reconciler *payment.Reconciler
	store      store.Store

	adminIDs          map[string]bool
	lowStockThreshold int

	metrics *metrics.ServerMetrics
	pinger  Pinger
}

func NewServer(
	carts *cart.Service,
	engine *checkout.Engine,
	reconciler *payment.Reconciler,
	st store.Store,
	adminIDs []string,
	lowStockThreshold int,
	m *metrics.ServerMetrics,
	pinger Pinger,
) *Server {
	admins := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &Server{
		carts:             carts,
		engine:            engine,
		reconciler:        reconciler,
		store:             st,
		adminIDs:          admins,
		lowStockThreshold: lowStockThreshold,
		metrics:           m,
		pinger:            pinger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /products", s.handleListProducts)
	mux.HandleFunc("GET /products/category/{category}", s.handleListProducts)
	mux.HandleFunc("GET /products/{id}", s.handleGetProduct)

	mux.HandleFunc("GET /cart/{customerID}", s.handleGetCart)
	mux.HandleFunc("POST /cart/add", s.handleCartAdd)
	mux.HandleFunc("POST /cart/update", s.handleCartUpdate)
	mux.HandleFunc("POST /cart/remove", s.handleCartRemove)
	mux.HandleFunc("POST /cart/delivery", s.handleDeliveryZone)
	mux.HandleFunc("POST /cart/delivery-address", s.handleDeliveryAddress)

	mux.HandleFunc("POST /orders/checkout", s.handleCheckout)
	mux.HandleFunc("GET /orders/{customerID}", s.handleListOrders)

	mux.HandleFunc("POST /payment/webhook", s.handleWebhook)

	mux.HandleFunc("PATCH /admin/orders/{reference}/status", s.requireAdmin(s.handleOrderStatus))
	mux.HandleFunc("GET /admin/stats", s.requireAdmin(s.handleStats))

	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidSignature):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": err.Error()})
	case domain.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrProductUnavailable),
		errors.Is(err, domain.ErrInvalidTransition):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
}

func statusLabel(err error) string {
	switch {
	case err == nil:
		return "200"
	case errors.Is(err, domain.ErrInvalidSignature):
		return "401"
	case domain.IsNotFound(err):
		return "404"
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrProductUnavailable),
		errors.Is(err, domain.ErrInvalidTransition):
		return "400"
	default:
		return "500"
	}
}

// requireAdmin gates a handler on the X-Telegram-ID header being one of the
// configured administrators.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Telegram-ID")
		if id == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing admin identity"})
			return
		}
		if !s.adminIDs[id] {
			writeJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "db_error"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
