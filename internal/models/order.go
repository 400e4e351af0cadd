package models

import "time"

const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusCancelled = "cancelled"
	OrderStatusDelivered = "delivered"
)

// OrderItem snapshots the product name and unit price at purchase time.
// ProductID is nil once the product has been removed from the catalog.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	ProductID *int64  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Order struct {
	ID          int64       `json:"id"`
	UserID      int64       `json:"user_id"`
	Items       []OrderItem `json:"items"`
	TotalAmount float64     `json:"total_amount"`
	Status      string      `json:"status"`
	OrderDate   time.Time   `json:"order_date"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type OrderDetail struct {
	Order
	User PublicUser `json:"user"`
}

func IsValidOrderStatus(status string) bool {
	switch status {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusCancelled, OrderStatusDelivered:
		return true
	}
	return false
}
