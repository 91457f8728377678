package models

import "time"

type OrderItemStatus string

const (
	OrderItemStatusPending   OrderItemStatus = "pending"
	OrderItemStatusShipped   OrderItemStatus = "shipped"
	OrderItemStatusDelivered OrderItemStatus = "delivered"
	OrderItemStatusCancelled OrderItemStatus = "cancelled"
)

// orderItemTransitions is the fulfillment state machine. Delivered and
// cancelled are terminal.
var orderItemTransitions = map[OrderItemStatus][]OrderItemStatus{
	OrderItemStatusPending:   {OrderItemStatusShipped, OrderItemStatusCancelled},
	OrderItemStatusShipped:   {OrderItemStatusDelivered, OrderItemStatusCancelled},
	OrderItemStatusDelivered: {},
	OrderItemStatusCancelled: {},
}

// ValidStatus reports whether s names a known order-item status.
func ValidStatus(s OrderItemStatus) bool {
	_, ok := orderItemTransitions[s]
	return ok
}

// CanTransition reports whether an order item may move from one status to
// another.
func CanTransition(from, to OrderItemStatus) bool {
	for _, next := range orderItemTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID         int       `json:"id"`
	CustomerID *int      `json:"customer_id"`
	GuestToken *string   `json:"guest_token,omitempty"`
	Total      float64   `json:"total"`
	CreatedAt  time.Time `json:"created_at"`
}

type OrderItem struct {
	ID        int             `json:"id"`
	OrderID   int             `json:"order_id"`
	ProductID int             `json:"product_id"`
	VendorID  int             `json:"vendor_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice float64         `json:"unit_price"`
	Status    OrderItemStatus `json:"status"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// VendorOrder is one row of the vendor order management view: the order
// joined with the caller's items on it.
type VendorOrder struct {
	Order
	Items []OrderItem `json:"items"`
}

type UpdateOrderItemStatusRequest struct {
	Status OrderItemStatus `json:"status" binding:"required"`
}

// OrderEvent is the payload published to the order_events topic when an
// order item or payment changes state.
type OrderEvent struct {
	EventType     string  `json:"event_type"`
	OrderID       int     `json:"order_id"`
	OrderItemID   int     `json:"order_item_id,omitempty"`
	CustomerID    int     `json:"customer_id,omitempty"`
	VendorID      int     `json:"vendor_id,omitempty"`
	Status        string  `json:"status,omitempty"`
	Amount        float64 `json:"amount,omitempty"`
	TransactionID string  `json:"transaction_id,omitempty"`
}

// VendorReport aggregates a vendor's sales figures.
type VendorReport struct {
	TotalOrders   int            `json:"total_orders"`
	ItemsSold     int            `json:"items_sold"`
	Revenue       float64        `json:"revenue"`
	ItemsByStatus map[string]int `json:"items_by_status"`
}
