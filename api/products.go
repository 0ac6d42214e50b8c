package api

import (
	"errors"
	"slices"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

// Product is a catalogue entry with its size variants.
type Product struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Variants []string `json:"variants"`
}

// ProductVariant is one product in one variant.
type ProductVariant struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Variant string `json:"variant"`
}

// ProductStore is a read-only catalogue, safe for concurrent use.
type ProductStore struct {
	products []Product
}

func NewProductStore(products ...Product) *ProductStore {
	return &ProductStore{products: products}
}

// SeedProducts returns the initial catalogue.
func SeedProducts() []Product {
	return []Product{
		{ID: 1, Name: "Remera", Variants: []string{"S", "M", "L", "XL"}},
		{ID: 2, Name: "Zapatilla", Variants: []string{"38", "39", "40", "41"}},
	}
}

func (s *ProductStore) List() []Product {
	return s.products
}

func (s *ProductStore) Get(id int) (Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}

// Variant looks up a product and one of its variants. Variant names are
// case-sensitive.
func (s *ProductStore) Variant(id int, variant string) (ProductVariant, error) {
	p, ok := s.Get(id)
	if !ok {
		return ProductVariant{}, ErrProductNotFound
	}
	if !slices.Contains(p.Variants, variant) {
		return ProductVariant{}, ErrVariantNotFound
	}
	return ProductVariant{ID: p.ID, Name: p.Name, Variant: variant}, nil
}
