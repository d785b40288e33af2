package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/inventory-service/internal/domain"
)

// ProductRepository encapsulates product persistence. Every lookup and
// mutation is scoped by owner id.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, ownerID, id string) error
	GetByID(ctx context.Context, ownerID, id string) (*domain.Product, error)
	GetBySKU(ctx context.Context, ownerID, sku string) (*domain.Product, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Product, error)
	ListLowStock(ctx context.Context, ownerID string) ([]domain.Product, error)
}

type productRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository instantiates repository.
func NewProductRepository(pool *pgxpool.Pool) ProductRepository {
	return &productRepository{pool: pool}
}

const productColumns = `id, owner_id, name, description, category, sku, price, cost, quantity,
               min_quantity, supplier, location, image_url, status, created_at, updated_at`

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	const query = `
        INSERT INTO products (owner_id, name, description, category, sku, price, cost, quantity,
                              min_quantity, supplier, location, image_url, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.OwnerID,
		product.Name,
		product.Description,
		product.Category,
		product.SKU,
		product.Price,
		product.Cost,
		product.Quantity,
		product.MinQuantity,
		product.Supplier,
		product.Location,
		product.ImageURL,
		product.Status,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	return translate(err)
}

// Update writes the whole record in a single statement, so the stored status
// always matches the stored quantity.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	const query = `
        UPDATE products SET name=$1, description=$2, category=$3, sku=$4, price=$5, cost=$6,
            quantity=$7, min_quantity=$8, supplier=$9, location=$10, image_url=$11, status=$12,
            updated_at=NOW()
        WHERE id=$13 AND owner_id=$14
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		product.Name,
		product.Description,
		product.Category,
		product.SKU,
		product.Price,
		product.Cost,
		product.Quantity,
		product.MinQuantity,
		product.Supplier,
		product.Location,
		product.ImageURL,
		product.Status,
		product.ID,
		product.OwnerID,
	).Scan(&product.UpdatedAt)
	return translate(err)
}

func (r *productRepository) Delete(ctx context.Context, ownerID, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return translate(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) GetByID(ctx context.Context, ownerID, id string) (*domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE id=$1 AND owner_id=$2`
	return scanProduct(r.pool.QueryRow(ctx, query, id, ownerID))
}

func (r *productRepository) GetBySKU(ctx context.Context, ownerID, sku string) (*domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products WHERE sku=$1 AND owner_id=$2`
	return scanProduct(r.pool.QueryRow(ctx, query, sku, ownerID))
}

func (r *productRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products
        WHERE owner_id=$1
        ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, ownerID)
}

func (r *productRepository) ListLowStock(ctx context.Context, ownerID string) ([]domain.Product, error) {
	const query = `SELECT ` + productColumns + ` FROM products
        WHERE owner_id=$1 AND status IN ($2, $3)
        ORDER BY quantity ASC, created_at DESC`
	return r.list(ctx, query, ownerID, domain.ProductStatusLowStock, domain.ProductStatusOutOfStock)
}

func (r *productRepository) list(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	return products, translate(rows.Err())
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var product domain.Product
	if err := row.Scan(
		&product.ID,
		&product.OwnerID,
		&product.Name,
		&product.Description,
		&product.Category,
		&product.SKU,
		&product.Price,
		&product.Cost,
		&product.Quantity,
		&product.MinQuantity,
		&product.Supplier,
		&product.Location,
		&product.ImageURL,
		&product.Status,
		&product.CreatedAt,
		&product.UpdatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &product, nil
}
