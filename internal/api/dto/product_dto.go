package dto

import (
	"time"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// ProductResponse is the client view of a product. LegacyID and Image repeat
// ID and ImageURL under the names the browser client reads.
type ProductResponse struct {
	ID          string    `json:"id"`
	LegacyID    string    `json:"_id"`
	OwnerID     string    `json:"ownerId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	SKU         string    `json:"sku"`
	Price       float64   `json:"price"`
	Cost        float64   `json:"cost"`
	Quantity    int       `json:"quantity"`
	MinQuantity int       `json:"minQuantity"`
	Supplier    string    `json:"supplier"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"imageUrl"`
	Image       string    `json:"image"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewProductResponse maps a domain product.
func NewProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		LegacyID:    p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		Category:    string(p.Category),
		SKU:         p.SKU,
		Price:       p.Price,
		Cost:        p.Cost,
		Quantity:    p.Quantity,
		MinQuantity: p.MinQuantity,
		Supplier:    p.Supplier,
		Location:    p.Location,
		ImageURL:    p.ImageURL,
		Image:       p.ImageURL,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// NewProductList maps a slice of products, never returning nil.
func NewProductList(products []domain.Product) []ProductResponse {
	items := make([]ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, NewProductResponse(&products[i]))
	}
	return items
}
