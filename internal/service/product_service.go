package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/inventory-service/internal/domain"
	"github.com/spec-kit/inventory-service/internal/events"
	"github.com/spec-kit/inventory-service/internal/repository"
	apperrors "github.com/spec-kit/inventory-service/pkg/util/errorutil"
)

// ProductInput describes a new product. Image is accepted as an alias of
// ImageURL; ImageURL wins when both are sent.
type ProductInput struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required,max=500"`
	Category    string   `json:"category" validate:"required,product_category"`
	SKU         string   `json:"sku"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Cost        *float64 `json:"cost" validate:"required,gte=0"`
	Quantity    *int     `json:"quantity" validate:"omitnil,gte=0"`
	MinQuantity *int     `json:"minQuantity" validate:"omitnil,gte=0"`
	Supplier    string   `json:"supplier" validate:"required"`
	Location    string   `json:"location" validate:"required"`
	ImageURL    string   `json:"imageUrl"`
	Image       string   `json:"image"`
	Status      string   `json:"status" validate:"omitempty,product_status"`
}

// ProductUpdate is a partial product change. Nil fields are left alone.
type ProductUpdate struct {
	Name        *string  `json:"name" validate:"omitnil,min=1"`
	Description *string  `json:"description" validate:"omitnil,min=1,max=500"`
	Category    *string  `json:"category" validate:"omitnil,product_category"`
	SKU         *string  `json:"sku"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0"`
	Cost        *float64 `json:"cost" validate:"omitnil,gte=0"`
	Quantity    *int     `json:"quantity" validate:"omitnil,gte=0"`
	MinQuantity *int     `json:"minQuantity" validate:"omitnil,gte=0"`
	Supplier    *string  `json:"supplier" validate:"omitnil,min=1"`
	Location    *string  `json:"location" validate:"omitnil,min=1"`
	ImageURL    *string  `json:"imageUrl"`
	Image       *string  `json:"image"`
	Status      *string  `json:"status" validate:"omitnil,product_status"`
}

// StockAdjustment sets the quantity either absolutely or by a delta. Exactly
// one field must be set; Quantity is the API contract.
type StockAdjustment struct {
	Quantity   *int `json:"quantity"`
	Adjustment *int `json:"adjustment"`
}

// ProductService coordinates owner-scoped product workflows.
type ProductService struct {
	products   repository.ProductRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// ProductDependencies bundles collaborators for the product service.
type ProductDependencies struct {
	ProductRepo repository.ProductRepository
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewProductService constructs the service.
func NewProductService(deps ProductDependencies) *ProductService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		products:   deps.ProductRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create validates and stores a product owned by ownerID.
func (s *ProductService) Create(ctx context.Context, ownerID string, input ProductInput) (*domain.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.SKU = strings.TrimSpace(input.SKU)
	input.Supplier = strings.TrimSpace(input.Supplier)
	input.Location = strings.TrimSpace(input.Location)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	if err := s.ensureSKUFree(ctx, ownerID, input.SKU, ""); err != nil {
		return nil, err
	}

	product := &domain.Product{
		OwnerID:     ownerID,
		Name:        input.Name,
		Description: input.Description,
		Category:    domain.ProductCategory(input.Category),
		SKU:         input.SKU,
		Price:       *input.Price,
		Cost:        *input.Cost,
		MinQuantity: domain.DefaultMinQuantity,
		Supplier:    input.Supplier,
		Location:    input.Location,
		ImageURL:    orDefault(firstNonEmpty(input.ImageURL, input.Image), domain.DefaultProductImageURL),
	}
	if input.Quantity != nil {
		product.Quantity = *input.Quantity
	}
	if input.MinQuantity != nil {
		product.MinQuantity = *input.MinQuantity
	}
	product.Status = domain.DeriveStatus(product.Quantity, product.MinQuantity, statusPtr(input.Status))

	if err := s.products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, skuTaken()
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.EventProductCreated, product, events.ProductCreatedPayload{
		Name:     product.Name,
		SKU:      product.SKU,
		Quantity: product.Quantity,
		Status:   product.Status,
	})
	s.alertIfLow(ctx, product, "")
	return product, nil
}

// List returns the owner's products, newest first.
func (s *ProductService) List(ctx context.Context, ownerID string) ([]domain.Product, error) {
	products, err := s.products.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return products, nil
}

// ListLowStock returns Low Stock and Out of Stock products by ascending quantity.
func (s *ProductService) ListLowStock(ctx context.Context, ownerID string) ([]domain.Product, error) {
	products, err := s.products.ListLowStock(ctx, ownerID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return products, nil
}

// GetByID returns the product if ownerID owns it. Products of other owners
// are reported as not found.
func (s *ProductService) GetByID(ctx context.Context, ownerID, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, productNotFound()
	}
	product, err := s.products.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, mapProductErr(err)
	}
	return product, nil
}

// Update applies a partial update and recomputes status when the stock
// levels or the status field change.
func (s *ProductService) Update(ctx context.Context, ownerID, id string, update ProductUpdate) (*domain.Product, error) {
	update.Name = trimPtr(update.Name)
	update.SKU = trimPtr(update.SKU)
	update.Supplier = trimPtr(update.Supplier)
	update.Location = trimPtr(update.Location)
	if err := validateStruct(update); err != nil {
		return nil, err
	}

	product, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	before := *product

	if update.SKU != nil && *update.SKU != product.SKU {
		if err := s.ensureSKUFree(ctx, ownerID, *update.SKU, product.ID); err != nil {
			return nil, err
		}
		product.SKU = *update.SKU
	}
	applyProductUpdate(product, update)

	stockTouched := update.Quantity != nil || update.MinQuantity != nil
	switch {
	case update.Status != nil:
		product.Status = domain.DeriveStatus(product.Quantity, product.MinQuantity, statusPtr(*update.Status))
	case stockTouched:
		product.Status = domain.DeriveStatus(product.Quantity, product.MinQuantity, &before.Status)
	}

	if err := s.save(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventProductUpdated, product, stockChange(&before, product))
	s.alertIfLow(ctx, product, before.Status)
	return product, nil
}

// Delete removes the product permanently.
func (s *ProductService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return productNotFound()
	}
	if err := s.products.Delete(ctx, ownerID, id); err != nil {
		return mapProductErr(err)
	}
	s.publish(ctx, events.EventProductDeleted, &domain.Product{ID: id, OwnerID: ownerID}, nil)
	return nil
}

// AdjustStock sets the quantity and recomputes the status. A Discontinued
// product stays Discontinued.
func (s *ProductService) AdjustStock(ctx context.Context, ownerID, id string, adj StockAdjustment) (*domain.Product, error) {
	if (adj.Quantity == nil) == (adj.Adjustment == nil) {
		return nil, apperrors.NewValidationError("Provide either quantity or adjustment",
			map[string]any{"quantity": "exactly one of quantity or adjustment is required"})
	}

	product, err := s.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	before := *product

	var quantity int
	if adj.Quantity != nil {
		quantity = *adj.Quantity
	} else {
		delta := *adj.Adjustment
		if delta > 0 && product.Quantity > math.MaxInt-delta {
			return nil, apperrors.NewValidationError("Quantity is too large",
				map[string]any{"adjustment": "resulting quantity is too large"})
		}
		quantity = product.Quantity + delta
	}
	if quantity < 0 {
		return nil, apperrors.NewValidationError("Quantity cannot be negative",
			map[string]any{"quantity": "quantity cannot be negative"})
	}

	product.Restock(quantity)
	if err := s.save(ctx, product); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventStockAdjusted, product, stockChange(&before, product))
	s.alertIfLow(ctx, product, before.Status)
	return product, nil
}

func (s *ProductService) save(ctx context.Context, product *domain.Product) error {
	if err := s.products.Update(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return skuTaken()
		}
		return mapProductErr(err)
	}
	return nil
}

func (s *ProductService) ensureSKUFree(ctx context.Context, ownerID, sku, exceptID string) error {
	if sku == "" {
		return nil
	}
	existing, err := s.products.GetBySKU(ctx, ownerID, sku)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return apperrors.NewInternalError(err)
	}
	if existing.ID != exceptID {
		return skuTaken()
	}
	return nil
}

func (s *ProductService) alertIfLow(ctx context.Context, product *domain.Product, previous domain.ProductStatus) {
	if !product.Status.NeedsRestock() || product.Status == previous {
		return
	}
	s.publish(ctx, events.EventStockAlert, product, events.StockAlertPayload{
		Name:        product.Name,
		Quantity:    product.Quantity,
		MinQuantity: product.MinQuantity,
		Status:      product.Status,
	})
}

func (s *ProductService) publish(ctx context.Context, eventType events.EventType, product *domain.Product, payload interface{}) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		ProductID: product.ID,
		OwnerID:   product.OwnerID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish product event", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func applyProductUpdate(p *domain.Product, u ProductUpdate) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Category != nil {
		p.Category = domain.ProductCategory(*u.Category)
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Cost != nil {
		p.Cost = *u.Cost
	}
	if u.Quantity != nil {
		p.Quantity = *u.Quantity
	}
	if u.MinQuantity != nil {
		p.MinQuantity = *u.MinQuantity
	}
	if u.Supplier != nil {
		p.Supplier = *u.Supplier
	}
	if u.Location != nil {
		p.Location = *u.Location
	}
	image := u.ImageURL
	if image == nil {
		image = u.Image
	}
	if image != nil {
		p.ImageURL = orDefault(*image, domain.DefaultProductImageURL)
	}
}

func stockChange(before, after *domain.Product) events.StockChangedPayload {
	return events.StockChangedPayload{
		OldQuantity: before.Quantity,
		NewQuantity: after.Quantity,
		OldStatus:   before.Status,
		NewStatus:   after.Status,
	}
}

func statusPtr(status string) *domain.ProductStatus {
	if status == "" {
		return nil
	}
	s := domain.ProductStatus(status)
	return &s
}

func productNotFound() error {
	return apperrors.NewNotFound("Product", nil)
}

func skuTaken() error {
	return apperrors.NewConflict("Product with this SKU already exists", map[string]any{"sku": "already exists"})
}

func mapProductErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return productNotFound()
	}
	return apperrors.NewInternalError(err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
