package domain

import "time"

// ProductStatus is the stock state of a product.
type ProductStatus string

const (
	ProductStatusInStock      ProductStatus = "In Stock"
	ProductStatusLowStock     ProductStatus = "Low Stock"
	ProductStatusOutOfStock   ProductStatus = "Out of Stock"
	ProductStatusDiscontinued ProductStatus = "Discontinued"
)

// Valid reports whether s is a known status.
func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusInStock, ProductStatusLowStock, ProductStatusOutOfStock, ProductStatusDiscontinued:
		return true
	}
	return false
}

// NeedsRestock reports whether s is Low Stock or Out of Stock.
func (s ProductStatus) NeedsRestock() bool {
	return s == ProductStatusLowStock || s == ProductStatusOutOfStock
}

// ProductCategory enumerates catalog sections.
type ProductCategory string

const (
	CategoryElectronics   ProductCategory = "Electronics"
	CategoryClothing      ProductCategory = "Clothing"
	CategoryBooks         ProductCategory = "Books"
	CategoryHomeGarden    ProductCategory = "Home & Garden"
	CategorySports        ProductCategory = "Sports"
	CategoryFoodBeverages ProductCategory = "Food & Beverages"
	CategoryOther         ProductCategory = "Other"
)

// ProductCategories lists every accepted category.
var ProductCategories = []ProductCategory{
	CategoryElectronics,
	CategoryClothing,
	CategoryBooks,
	CategoryHomeGarden,
	CategorySports,
	CategoryFoodBeverages,
	CategoryOther,
}

// Valid reports whether c is a known category.
func (c ProductCategory) Valid() bool {
	for _, known := range ProductCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Product defaults.
const (
	DefaultMinQuantity     = 5
	DefaultProductImageURL = "https://via.placeholder.com/300x300?text=Product+Image"
)

// Product is an owner-scoped inventory record.
type Product struct {
	ID          string
	OwnerID     string
	Name        string
	Description string
	Category    ProductCategory
	SKU         string
	Price       float64
	Cost        float64
	Quantity    int
	MinQuantity int
	Supplier    string
	Location    string
	ImageURL    string
	Status      ProductStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DeriveStatus computes the stock status for the given levels. An explicit
// Discontinued status wins over the derived one.
func DeriveStatus(quantity, minQuantity int, explicit *ProductStatus) ProductStatus {
	if explicit != nil && *explicit == ProductStatusDiscontinued {
		return ProductStatusDiscontinued
	}
	switch {
	case quantity <= 0:
		return ProductStatusOutOfStock
	case quantity <= minQuantity:
		return ProductStatusLowStock
	default:
		return ProductStatusInStock
	}
}

// Restock sets the absolute quantity and recomputes the status, keeping a
// Discontinued status in place.
func (p *Product) Restock(quantity int) {
	current := p.Status
	p.Quantity = quantity
	p.Status = DeriveStatus(p.Quantity, p.MinQuantity, &current)
}
