package main

import (
	"context"

	"github.com/steph2502/oohlalaa-shop-go/internal/domain"
	"github.com/steph2502/oohlalaa-shop-go/internal/store"
)

// Price map per category and bottle size, in minor units.
var seedPrices = map[domain.Category]map[int]int64{
	domain.CategoryClassic: {3: 1500, 30: 12000},
	domain.CategoryPremium: {10: 6500},
	domain.CategoryLuxury:  {10: 8500},
}

type seedProduct struct {
	id       domain.ProductID
	name     string
	category domain.Category
	stock    map[int]int // size -> units
}

var seedCatalog = []seedProduct{
	{"amouage-interlude", "Amouage Interlude", domain.CategoryClassic, map[int]int{3: 2, 30: 1}},
	{"black-orchid", "Black Orchid", domain.CategoryClassic, map[int]int{3: 1}},
	{"bvlgari-extreme-man", "Bvlgari Extreme Man", domain.CategoryClassic, map[int]int{3: 1}},
	{"cherry-in-the-air", "Cherry in the Air", domain.CategoryClassic, map[int]int{3: 1}},
	{"decadence-marc-jacobs", "Decadence Marc Jacobs", domain.CategoryClassic, map[int]int{3: 1}},
	{"escada-magnetism", "Escada Magnetism", domain.CategoryClassic, map[int]int{3: 1}},
	{"french-coffee", "French Coffee", domain.CategoryClassic, map[int]int{3: 1}},
	{"gucci-bloom", "Gucci Bloom", domain.CategoryClassic, map[int]int{3: 1}},
	{"gucci-flora", "Gucci Flora", domain.CategoryClassic, map[int]int{3: 1}},
	{"gucci-guilty", "Gucci Guilty", domain.CategoryClassic, map[int]int{3: 1}},
	{"gucci-oud-intense", "Gucci Oud Intense", domain.CategoryClassic, map[int]int{3: 1}},
	{"issey-miyake", "Issey Miyake", domain.CategoryClassic, map[int]int{3: 1}},
	{"jimmy-choo-woman", "Jimmy Choo Woman", domain.CategoryClassic, map[int]int{3: 1}},
	{"lovespell-victoria-secret", "Lovespell Victoria Secret", domain.CategoryClassic, map[int]int{3: 1}},
	{"mon-paris", "Mon Paris", domain.CategoryClassic, map[int]int{3: 1}},
	{"olympea-paco-robanne", "Olympea Paco Robanne", domain.CategoryClassic, map[int]int{3: 1}},
	{"baccarat-rouge-540", "Baccarat Rouge 540", domain.CategoryLuxury, map[int]int{10: 2}},
	{"creed-aventus", "Creed Aventus", domain.CategoryLuxury, map[int]int{10: 1}},
	{"oud-wood-tom-ford", "Oud Wood Tom Ford", domain.CategoryLuxury, map[int]int{10: 1}},
	{"khamrah-lattafa", "Khamrah Lattafa", domain.CategoryPremium, map[int]int{10: 3}},
	{"asad-lattafa", "Asad Lattafa", domain.CategoryPremium, map[int]int{10: 2}},
	{"yara-lattafa", "Yara Lattafa", domain.CategoryPremium, map[int]int{10: 2}},
}

// seedProducts loads the starter catalog, skipping products already present.
func seedProducts(ctx context.Context, st store.Store) (int, error) {
	inserted := 0
	for _, sp := range seedCatalog {
		sp := sp
		err := st.WithinTx(ctx, func(tx store.Tx) error {
			if _, err := tx.GetProduct(ctx, sp.id); err == nil {
				return nil
			}

			var sizes []domain.SizeEntry
			for size, stock := range sp.stock {
				price, ok := seedPrices[sp.category][size]
				if !ok {
					continue
				}
				sizes = append(sizes, domain.SizeEntry{Size: size, Price: price, Stock: stock})
			}
			if len(sizes) == 0 {
				return nil
			}

			inserted++
			return tx.InsertProduct(ctx, domain.Product{
				ID:       sp.id,
				Name:     sp.name,
				Category: sp.category,
				Sizes:    sizes,
				IsActive: true,
			})
		})
		if err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}
