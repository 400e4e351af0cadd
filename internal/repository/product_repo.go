package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, name, description, price, category, stock, image_url, created_at, updated_at`

type CreateProductInput struct {
	Name        string
	Description string
	Price       float64
	Category    string
	Stock       int
	ImageURL    *string
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *float64
	Category    *string
	Stock       *int
	ImageURL    *string
}

type ProductListFilter struct {
	Category string
	Search   string
	Limit    int
	Offset   int
}

type ProductRepository struct {
	db DBTX
}

func NewProductRepository(db DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

func scanProduct(row pgx.Row) (*models.Product, error) {
	var product models.Product
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		&product.Price,
		&product.Category,
		&product.Stock,
		&product.ImageURL,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func collectProducts(rows pgx.Rows) ([]models.Product, error) {
	defer rows.Close()

	products := make([]models.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) Create(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	query := `
		INSERT INTO products (name, description, price, category, stock, image_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + productColumns
	return scanProduct(r.db.QueryRow(ctx, query,
		input.Name,
		input.Description,
		input.Price,
		input.Category,
		input.Stock,
		input.ImageURL,
	))
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(r.db.QueryRow(ctx, query, id))
}

func (r *ProductRepository) GetByName(ctx context.Context, name string) (*models.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE lower(name) = lower($1) ORDER BY id LIMIT 1`
	return scanProduct(r.db.QueryRow(ctx, query, name))
}

func (r *ProductRepository) List(ctx context.Context, filter ProductListFilter) ([]models.Product, int, error) {
	args := []any{}
	whereParts := []string{"TRUE"}

	if category := strings.TrimSpace(filter.Category); category != "" {
		args = append(args, category)
		whereParts = append(whereParts, fmt.Sprintf("category = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		whereParts = append(whereParts, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}
	where := strings.Join(whereParts, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT %s
		FROM products
		WHERE %s
		ORDER BY name ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, productColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	products, err := collectProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ListByIDsForUpdate row-locks the requested products in id order so that
// concurrent orders touching the same products queue instead of deadlocking.
func (r *ProductRepository) ListByIDsForUpdate(ctx context.Context, ids []int64) ([]models.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		ORDER BY id ASC
		FOR UPDATE
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	return collectProducts(rows)
}

func (r *ProductRepository) UpdatePartial(ctx context.Context, id int64, input UpdateProductInput) (*models.Product, error) {
	query := `
		UPDATE products
		SET name = COALESCE($2, name),
			description = COALESCE($3, description),
			price = COALESCE($4, price),
			category = COALESCE($5, category),
			stock = COALESCE($6, stock),
			image_url = COALESCE($7, image_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + productColumns
	return scanProduct(r.db.QueryRow(ctx, query,
		id,
		input.Name,
		input.Description,
		input.Price,
		input.Category,
		input.Stock,
		input.ImageURL,
	))
}

func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// DecrementStockIfAvailable returns pgx.ErrNoRows when the product is gone
// or holds fewer than quantity units.
func (r *ProductRepository) DecrementStockIfAvailable(ctx context.Context, id int64, quantity int) (int, error) {
	query := `
		UPDATE products
		SET stock = stock - $2, updated_at = NOW()
		WHERE id = $1 AND stock >= $2
		RETURNING stock
	`
	var stock int
	if err := r.db.QueryRow(ctx, query, id, quantity).Scan(&stock); err != nil {
		return 0, err
	}
	return stock, nil
}

func (r *ProductRepository) IncrementStock(ctx context.Context, id int64, quantity int) (int, error) {
	query := `
		UPDATE products
		SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING stock
	`
	var stock int
	if err := r.db.QueryRow(ctx, query, id, quantity).Scan(&stock); err != nil {
		return 0, err
	}
	return stock, nil
}
