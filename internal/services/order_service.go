package services

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/alaaeddinekamel/gym-management/internal/metrics"
	"github.com/alaaeddinekamel/gym-management/internal/models"
	"github.com/alaaeddinekamel/gym-management/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type OrderService struct {
	db        *pgxpool.Pool
	orderRepo *repository.OrderRepository
	metrics   *metrics.AppMetrics
	now       func() time.Time
}

func NewOrderService(
	db *pgxpool.Pool,
	orderRepo *repository.OrderRepository,
	appMetrics *metrics.AppMetrics,
) *OrderService {
	return &OrderService{
		db:        db,
		orderRepo: orderRepo,
		metrics:   appMetrics,
		now:       time.Now,
	}
}

type OrderLineInput struct {
	ProductID int64
	Quantity  int
}

// maxOrderLineQuantity bounds a merged line to the order_items.quantity
// column range.
const maxOrderLineQuantity = math.MaxInt32

// AggregateOrderLines validates the requested lines and folds repeated
// products into one line, keeping first-seen order.
func AggregateOrderLines(items []OrderLineInput) ([]OrderLineInput, error) {
	if len(items) == 0 {
		return nil, validationError("order must contain at least one item")
	}

	merged := make([]OrderLineInput, 0, len(items))
	index := make(map[int64]int, len(items))
	for i, item := range items {
		if item.ProductID <= 0 {
			return nil, validationError("items[%d]: product_id is required", i)
		}
		if item.Quantity <= 0 {
			return nil, validationError("items[%d]: quantity must be greater than 0", i)
		}
		if item.Quantity > maxOrderLineQuantity {
			return nil, validationError("items[%d]: quantity must not exceed %d", i, maxOrderLineQuantity)
		}
		if pos, ok := index[item.ProductID]; ok {
			if merged[pos].Quantity > maxOrderLineQuantity-item.Quantity {
				return nil, validationError("items[%d]: total quantity for product %d must not exceed %d", i, item.ProductID, maxOrderLineQuantity)
			}
			merged[pos].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged, nil
}

// OrderTotal sums quantity times unit price in whole cents.
func OrderTotal(items []repository.CreateOrderItemInput) float64 {
	var cents int64
	for _, item := range items {
		cents += int64(math.Round(item.Price*100)) * int64(item.Quantity)
	}
	return float64(cents) / 100
}

// PlaceOrder locks every requested product, checks all lines before touching
// stock, then decrements and records the order in the same transaction.
// Prices come from the catalog row, never from the caller.
func (s *OrderService) PlaceOrder(ctx context.Context, userID int64, items []OrderLineInput) (*models.OrderDetail, error) {
	lines, err := AggregateOrderLines(items)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageError("begin order", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txUserRepo := repository.NewUserRepository(tx)
	txProductRepo := repository.NewProductRepository(tx)
	txOrderRepo := repository.NewOrderRepository(tx)

	if _, err := txUserRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("user not found")
		}
		return nil, storageError("load user", err)
	}

	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locked, err := txProductRepo.ListByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, storageError("lock products", err)
	}
	products := make(map[int64]models.Product, len(locked))
	for _, product := range locked {
		products[product.ID] = product
	}

	orderItems, err := priceOrderLines(lines, products)
	if err != nil {
		return nil, err
	}

	remaining := make(map[int64]int, len(orderItems))
	for _, item := range orderItems {
		stock, err := txProductRepo.DecrementStockIfAvailable(ctx, item.ProductID, item.Quantity)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				product := products[item.ProductID]
				return nil, conflictError("insufficient stock for %q, available: %d", product.Name, product.Stock)
			}
			return nil, storageError("decrement stock", err)
		}
		remaining[item.ProductID] = stock
	}

	total := OrderTotal(orderItems)
	order, err := txOrderRepo.Create(ctx, repository.CreateOrderInput{
		UserID:      userID,
		TotalAmount: total,
		OrderDate:   s.now().UTC(),
		Items:       orderItems,
	})
	if err != nil {
		return nil, storageError("create order", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("commit order", err)
	}

	s.metrics.RecordOrderPlaced(ctx, total, len(orderItems))
	for productID, stock := range remaining {
		s.metrics.RecordInventoryLevel(ctx, productID, stock)
	}

	return s.loadDetail(ctx, order.ID)
}

// priceOrderLines checks existence and stock for every line and snapshots
// the catalog name and price. The first failing line is reported.
func priceOrderLines(lines []OrderLineInput, products map[int64]models.Product) ([]repository.CreateOrderItemInput, error) {
	items := make([]repository.CreateOrderItemInput, 0, len(lines))
	for _, line := range lines {
		product, ok := products[line.ProductID]
		if !ok {
			return nil, notFoundError("product %d not found", line.ProductID)
		}
		if product.Stock < line.Quantity {
			return nil, conflictError("insufficient stock for %q, available: %d", product.Name, product.Stock)
		}
		items = append(items, repository.CreateOrderItemInput{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
	}
	return items, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]models.OrderDetail, error) {
	orders, err := s.orderRepo.List(ctx, 0)
	if err != nil {
		return nil, storageError("list orders", err)
	}
	return orders, nil
}

func (s *OrderService) ListForUser(ctx context.Context, userID int64) ([]models.OrderDetail, error) {
	orders, err := s.orderRepo.List(ctx, userID)
	if err != nil {
		return nil, storageError("list orders", err)
	}
	return orders, nil
}

func (s *OrderService) GetOrder(ctx context.Context, actorID int64, role string, orderID int64) (*models.OrderDetail, error) {
	detail, err := s.loadDetail(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && detail.UserID != actorID {
		return nil, forbiddenError("forbidden")
	}
	return detail, nil
}

// UpdateStatus moves an order to a new status. Entering cancelled restores
// stock for every line exactly once; a cancelled order accepts no further
// transitions.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID int64, requestedStatus string) (*models.OrderDetail, error) {
	nextStatus := requestedStatus
	if !models.IsValidOrderStatus(nextStatus) {
		return nil, validationError("invalid status %q", requestedStatus)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, storageError("begin status update", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txOrderRepo := repository.NewOrderRepository(tx)
	txProductRepo := repository.NewProductRepository(tx)

	order, err := txOrderRepo.GetByIDForUpdate(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("order not found")
		}
		return nil, storageError("load order", err)
	}

	if order.Status == nextStatus {
		return s.loadDetail(ctx, order.ID)
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, conflictError("order is cancelled and cannot move to %s", nextStatus)
	}

	restored := make(map[int64]int)
	if nextStatus == models.OrderStatusCancelled {
		for _, item := range restockLines(order.Items) {
			stock, err := txProductRepo.IncrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					continue
				}
				return nil, storageError("restore stock", err)
			}
			restored[item.ProductID] = stock
		}
	}

	if err := txOrderRepo.UpdateStatus(ctx, order.ID, nextStatus); err != nil {
		return nil, storageError("update order", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("commit status update", err)
	}

	if nextStatus == models.OrderStatusCancelled {
		s.metrics.RecordOrderCancelled(ctx)
		for productID, stock := range restored {
			s.metrics.RecordInventoryLevel(ctx, productID, stock)
		}
	}

	return s.loadDetail(ctx, order.ID)
}

// restockLines folds order items per product, in product id order, skipping
// lines whose product no longer exists.
func restockLines(items []models.OrderItem) []OrderLineInput {
	totals := make(map[int64]int)
	for _, item := range items {
		if item.ProductID == nil {
			continue
		}
		totals[*item.ProductID] += item.Quantity
	}

	lines := make([]OrderLineInput, 0, len(totals))
	for productID, quantity := range totals {
		lines = append(lines, OrderLineInput{ProductID: productID, Quantity: quantity})
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })
	return lines
}

func (s *OrderService) loadDetail(ctx context.Context, orderID int64) (*models.OrderDetail, error) {
	detail, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundError("order not found")
		}
		return nil, storageError("load order", err)
	}
	return detail, nil
}
