package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
)

type cartItemRequest struct {
	CustomerID string `json:"customerId"`
	ProductID  string `json:"productId"`
	Size       int    `json:"size"`
	Quantity   int    `json:"quantity"`
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	view, err := s.carts.View(r.Context(), domain.CustomerID(r.PathValue("customerID")))
	s.metrics.Observe("cart_get", statusLabel(err), start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCartAdd(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.Observe("cart_add", "400", start)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := s.carts.AddItem(r.Context(),
		domain.CustomerID(req.CustomerID), domain.ProductID(req.ProductID), req.Size, req.Quantity)
	s.metrics.Observe("cart_add", statusLabel(err), start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.Observe("cart_update", "400", start)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	view, err := s.carts.SetQuantity(r.Context(),
		domain.CustomerID(req.CustomerID), domain.ProductID(req.ProductID), req.Size, req.Quantity)
	s.metrics.Observe("cart_update", statusLabel(err), start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req cartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.Observe("cart_remove", "400", start)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	view, err := s.carts.RemoveItem(r.Context(),
		domain.CustomerID(req.CustomerID), domain.ProductID(req.ProductID), req.Size)
	s.metrics.Observe("cart_remove", statusLabel(err), start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type deliveryRequest struct {
	CustomerID       string `json:"customerId"`
	DeliveryLocation string `json:"delivery_location"`
	DeliveryAddress  string `json:"delivery_address"`
}

func (s *Server) handleDeliveryZone(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req deliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.Observe("cart_delivery", "400", start)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	view, err := s.carts.SetDeliveryZone(r.Context(),
		domain.CustomerID(req.CustomerID), req.DeliveryLocation)
	s.metrics.Observe("cart_delivery", statusLabel(err), start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleDeliveryAddress(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req deliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.Observe("cart_delivery_address", "400", start)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	view, err := s.carts.SetDeliveryAddress(r.Context(),
		domain.CustomerID(req.CustomerID), req.DeliveryLocation, req.DeliveryAddress)
	s.metrics.Observe("cart_delivery_address", statusLabel(err), start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
