package domain

import "time"

type ProductID string

type Category string

const (
	CategoryClassic Category = "classic"
	CategoryPremium Category = "premium"
	CategoryLuxury  Category = "luxury"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryClassic, CategoryPremium, CategoryLuxury:
		return true
	}
	return false
}

// SizeEntry is one purchasable variant of a product: a bottle size in ml,
// its price and its remaining stock. Stock is never negative.
type SizeEntry struct {
	Size  int   `json:"size"`
	Price int64 `json:"price"` // minor currency units (kobo)
	Stock int   `json:"stock"`
}

type Product struct {
	ID       ProductID   `json:"id"`
	Name     string      `json:"name"`
	Category Category    `json:"category"`
	Sizes    []SizeEntry `json:"sizes"`
	IsActive bool        `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SizeEntry returns the variant with the given size label, or nil.
func (p *Product) SizeEntry(size int) *SizeEntry {
	for i := range p.Sizes {
		if p.Sizes[i].Size == size {
			return &p.Sizes[i]
		}
	}
	return nil
}
