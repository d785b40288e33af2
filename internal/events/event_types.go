package events

import (
	"time"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventProductCreated EventType = "product_created"
	EventProductUpdated EventType = "product_updated"
	EventProductDeleted EventType = "product_deleted"
	EventStockAdjusted  EventType = "stock_adjusted"
	EventStockAlert     EventType = "stock_alert"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ProductID string      `json:"product_id"`
	OwnerID   string      `json:"owner_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ProductCreatedPayload payload.
type ProductCreatedPayload struct {
	Name     string               `json:"name"`
	SKU      string               `json:"sku,omitempty"`
	Quantity int                  `json:"quantity"`
	Status   domain.ProductStatus `json:"status"`
}

// StockChangedPayload describes a quantity or status transition.
type StockChangedPayload struct {
	OldQuantity int                  `json:"old_quantity"`
	NewQuantity int                  `json:"new_quantity"`
	OldStatus   domain.ProductStatus `json:"old_status"`
	NewStatus   domain.ProductStatus `json:"new_status"`
}

// StockAlertPayload is emitted when a product enters Low Stock or Out of Stock.
type StockAlertPayload struct {
	Name        string               `json:"name"`
	Quantity    int                  `json:"quantity"`
	MinQuantity int                  `json:"min_quantity"`
	Status      domain.ProductStatus `json:"status"`
}
