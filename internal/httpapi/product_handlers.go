package httpapi

import (
	"net/http"
	"time"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
	"github.com/steph2502/oohlalaa-shop-go/internal/store"
)

type productView struct {
	ID       domain.ProductID   `json:"id"`
	Name     string             `json:"name"`
	Category domain.Category    `json:"category"`
	Sizes    []domain.SizeEntry `json:"sizes"`
}

// inStockView hides size entries with no stock; customers only see what they
// can actually order.
func inStockView(p domain.Product) productView {
	v := productView{ID: p.ID, Name: p.Name, Category: p.Category, Sizes: []domain.SizeEntry{}}
	for _, s := range p.Sizes {
		if s.Stock > 0 {
			v.Sizes = append(v.Sizes, s)
		}
	}
	return v
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	category := domain.Category(r.PathValue("category"))
	if category != "" && !category.Valid() {
		s.metrics.Observe("products_list", "400", start)
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid category"})
		return
	}

	var products []domain.Product
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		products, err = tx.ListProducts(r.Context(), category)
		return err
	})
	s.metrics.Observe("products_list", statusLabel(err), start)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]productView, 0, len(products))
	for _, p := range products {
		out = append(out, inStockView(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := domain.ProductID(r.PathValue("id"))

	var product domain.Product
	err := s.store.WithinTx(r.Context(), func(tx store.Tx) error {
		var err error
		product, err = tx.GetProduct(r.Context(), id)
		return err
	})
	if err == nil && !product.IsActive {
		err = domain.ErrProductNotFound
	}
	s.metrics.Observe("products_get", statusLabel(err), start)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inStockView(product))
}
