package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// MemoryUserRepository is an in-memory UserRepository used when no database
// is configured and in tests.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository creates an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(user.Email, "") {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return ErrNotFound
	}
	if r.emailTaken(user.Email, user.ID) {
		return ErrDuplicate
	}
	user.UpdatedAt = time.Now().UTC()
	r.users[user.ID] = *user
	return nil
}

// Delete removes a user. Only used to simulate vanished accounts.
func (r *MemoryUserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryUserRepository) emailTaken(email, exceptID string) bool {
	for id, user := range r.users {
		if id != exceptID && strings.EqualFold(user.Email, email) {
			return true
		}
	}
	return false
}

// MemoryProductRepository is an in-memory ProductRepository.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	seq      int64
	order    map[string]int64
}

// NewMemoryProductRepository creates an empty store.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]domain.Product),
		order:    make(map[string]int64),
	}
}

func (r *MemoryProductRepository) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.skuTaken(product.OwnerID, product.SKU, "") {
		return ErrDuplicate
	}
	now := time.Now().UTC()
	product.ID = uuid.NewString()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.seq++
	r.order[product.ID] = r.seq
	r.products[product.ID] = *product
	return nil
}

func (r *MemoryProductRepository) Update(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[product.ID]
	if !ok || existing.OwnerID != product.OwnerID {
		return ErrNotFound
	}
	if r.skuTaken(product.OwnerID, product.SKU, product.ID) {
		return ErrDuplicate
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	r.products[product.ID] = *product
	return nil
}

func (r *MemoryProductRepository) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.products[id]
	if !ok || existing.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(r.products, id)
	delete(r.order, id)
	return nil
}

func (r *MemoryProductRepository) GetByID(_ context.Context, ownerID, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok || product.OwnerID != ownerID {
		return nil, ErrNotFound
	}
	return &product, nil
}

func (r *MemoryProductRepository) GetBySKU(_ context.Context, ownerID, sku string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, product := range r.products {
		if product.OwnerID == ownerID && product.SKU == sku {
			p := product
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// ListByOwner returns the owner's products, newest first.
func (r *MemoryProductRepository) ListByOwner(_ context.Context, ownerID string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := r.filter(func(p domain.Product) bool { return p.OwnerID == ownerID })
	sort.SliceStable(products, func(i, j int) bool {
		return r.order[products[i].ID] > r.order[products[j].ID]
	})
	return products, nil
}

// ListLowStock returns Low Stock and Out of Stock products by ascending quantity.
func (r *MemoryProductRepository) ListLowStock(_ context.Context, ownerID string) ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	products := r.filter(func(p domain.Product) bool {
		return p.OwnerID == ownerID && p.Status.NeedsRestock()
	})
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].Quantity != products[j].Quantity {
			return products[i].Quantity < products[j].Quantity
		}
		return r.order[products[i].ID] > r.order[products[j].ID]
	})
	return products, nil
}

func (r *MemoryProductRepository) filter(keep func(domain.Product) bool) []domain.Product {
	out := make([]domain.Product, 0)
	for _, product := range r.products {
		if keep(product) {
			out = append(out, product)
		}
	}
	return out
}

func (r *MemoryProductRepository) skuTaken(ownerID, sku, exceptID string) bool {
	if sku == "" {
		return false
	}
	for id, product := range r.products {
		if id != exceptID && product.OwnerID == ownerID && product.SKU == sku {
			return true
		}
	}
	return false
}
