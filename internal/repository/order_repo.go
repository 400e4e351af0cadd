package repository

import (
	"context"
	"time"

	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/jackc/pgx/v5"
)

type CreateOrderItemInput struct {
	ProductID int64
	Name      string
	Quantity  int
	Price     float64
}

type CreateOrderInput struct {
	UserID      int64
	TotalAmount float64
	OrderDate   time.Time
	Items       []CreateOrderItemInput
}

type OrderRepository struct {
	db DBTX
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	query := `
		INSERT INTO orders (user_id, total_amount, status, order_date)
		VALUES ($1, $2, 'pending', $3)
		RETURNING id, user_id, total_amount, status, order_date, updated_at
	`
	var order models.Order
	err := r.db.QueryRow(ctx, query, input.UserID, input.TotalAmount, input.OrderDate).Scan(
		&order.ID,
		&order.UserID,
		&order.TotalAmount,
		&order.Status,
		&order.OrderDate,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	itemQuery := `
		INSERT INTO order_items (order_id, product_id, name, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	order.Items = make([]models.OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		productID := item.ProductID
		created := models.OrderItem{
			OrderID:   order.ID,
			ProductID: &productID,
			Name:      item.Name,
			Quantity:  item.Quantity,
			Price:     item.Price,
		}
		if err := r.db.QueryRow(ctx, itemQuery,
			order.ID,
			item.ProductID,
			item.Name,
			item.Quantity,
			item.Price,
		).Scan(&created.ID); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, created)
	}

	return &order, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.OrderDetail, error) {
	query := `
		SELECT o.id, o.user_id, o.total_amount, o.status, o.order_date, o.updated_at,
			   u.id, u.name, u.email, u.role, u.membership_status, u.join_date
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE o.id = $1
	`
	detail, err := scanOrderDetail(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*models.Order{&detail.Order}); err != nil {
		return nil, err
	}
	return detail, nil
}

func (r *OrderRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Order, error) {
	query := `
		SELECT id, user_id, total_amount, status, order_date, updated_at
		FROM orders
		WHERE id = $1
		FOR UPDATE
	`
	var order models.Order
	err := r.db.QueryRow(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.TotalAmount,
		&order.Status,
		&order.OrderDate,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*models.Order{&order}); err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns every order newest first. A non-zero userID narrows the
// result to that purchaser.
func (r *OrderRepository) List(ctx context.Context, userID int64) ([]models.OrderDetail, error) {
	query := `
		SELECT o.id, o.user_id, o.total_amount, o.status, o.order_date, o.updated_at,
			   u.id, u.name, u.email, u.role, u.membership_status, u.join_date
		FROM orders o
		JOIN users u ON u.id = o.user_id
		WHERE ($1::bigint = 0 OR o.user_id = $1)
		ORDER BY o.order_date DESC, o.id DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]models.OrderDetail, 0)
	for rows.Next() {
		detail, err := scanOrderDetail(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	refs := make([]*models.Order, 0, len(orders))
	for i := range orders {
		refs = append(refs, &orders[i].Order)
	}
	if err := r.attachItems(ctx, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []*models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(orders))
	byID := make(map[int64]*models.Order, len(orders))
	for _, order := range orders {
		order.Items = make([]models.OrderItem, 0)
		ids = append(ids, order.ID)
		byID[order.ID] = order
	}

	query := `
		SELECT id, order_id, product_id, name, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Name,
			&item.Quantity,
			&item.Price,
		); err != nil {
			return err
		}
		if order, ok := byID[item.OrderID]; ok {
			order.Items = append(order.Items, item)
		}
	}
	return rows.Err()
}

func scanOrderDetail(row pgx.Row) (*models.OrderDetail, error) {
	var detail models.OrderDetail
	err := row.Scan(
		&detail.ID,
		&detail.UserID,
		&detail.TotalAmount,
		&detail.Status,
		&detail.OrderDate,
		&detail.UpdatedAt,
		&detail.User.ID,
		&detail.User.Name,
		&detail.User.Email,
		&detail.User.Role,
		&detail.User.MembershipStatus,
		&detail.User.JoinDate,
	)
	if err != nil {
		return nil, err
	}
	return &detail, nil
}
