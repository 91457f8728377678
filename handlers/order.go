package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"quikko-api/kafka"
	"quikko-api/models"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type OrderHandler struct {
	db       *sql.DB
	producer sarama.SyncProducer
	logger   *zap.Logger
}

func NewOrderHandler(db *sql.DB, producer sarama.SyncProducer, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		db:       db,
		producer: producer,
		logger:   logger,
	}
}

// GetVendorOrders returns the caller's order management view: one row per
// order carrying the vendor's items on it. Duplicate order rows collapse to
// a single entry, last occurrence wins.
func (h *OrderHandler) GetVendorOrders(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "GetVendorOrders")
	defer span.End()

	vendorID := c.GetInt("user_id")
	span.SetAttributes(attribute.Int("vendor.id", vendorID))

	query := `SELECT o.id, o.customer_id, o.guest_token, o.total, o.created_at,
		i.id, i.order_id, i.product_id, i.vendor_id, i.quantity, i.unit_price, i.status, i.updated_at
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE i.vendor_id = $1`
	args := []interface{}{vendorID}
	if status := c.Query("status"); status != "" {
		query += " AND i.status = $2"
		args = append(args, status)
	}
	query += " ORDER BY o.created_at DESC, i.id"

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to fetch vendor orders", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer rows.Close()

	orders := []models.VendorOrder{}
	index := map[int]int{}
	for rows.Next() {
		var o models.Order
		var item models.OrderItem
		if err := rows.Scan(&o.ID, &o.CustomerID, &o.GuestToken, &o.Total, &o.CreatedAt,
			&item.ID, &item.OrderID, &item.ProductID, &item.VendorID,
			&item.Quantity, &item.UnitPrice, &item.Status, &item.UpdatedAt); err != nil {
			span.RecordError(err)
			h.logger.Error("Failed to scan order row", zap.Error(err))
			continue
		}

		if pos, seen := index[o.ID]; seen {
			// Last occurrence wins for the order fields; items accumulate.
			orders[pos].Order = o
			orders[pos].Items = append(orders[pos].Items, item)
			continue
		}
		index[o.ID] = len(orders)
		orders = append(orders, models.VendorOrder{Order: o, Items: []models.OrderItem{item}})
	}

	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) GetVendorOrderItems(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "GetVendorOrderItems")
	defer span.End()

	vendorID := c.GetInt("user_id")
	span.SetAttributes(attribute.Int("vendor.id", vendorID))

	query := "SELECT id, order_id, product_id, vendor_id, quantity, unit_price, status, updated_at FROM order_items WHERE vendor_id = $1"
	args := []interface{}{vendorID}
	if status := c.Query("status"); status != "" {
		query += " AND status = $2"
		args = append(args, status)
	}
	query += " ORDER BY id"

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to fetch order items", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VendorID,
			&item.Quantity, &item.UnitPrice, &item.Status, &item.UpdatedAt); err != nil {
			span.RecordError(err)
			h.logger.Error("Failed to scan order item", zap.Error(err))
			continue
		}
		items = append(items, item)
	}

	c.JSON(http.StatusOK, items)
}

// UpdateOrderItemStatus moves an order item through the fulfillment state
// machine. Unknown statuses are a 400, disallowed transitions a 409.
func (h *OrderHandler) UpdateOrderItemStatus(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "UpdateOrderItemStatus")
	defer span.End()

	itemID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order item ID"})
		return
	}
	span.SetAttributes(attribute.Int("order_item.id", itemID))

	var req models.UpdateOrderItemStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status: " + string(req.Status)})
		return
	}

	vendorID := c.GetInt("user_id")

	var current models.OrderItemStatus
	var orderID int
	var customerID sql.NullInt64
	err = h.db.QueryRowContext(ctx,
		`SELECT i.status, i.order_id, o.customer_id
		FROM order_items i JOIN orders o ON o.id = i.order_id
		WHERE i.id = $1 AND i.vendor_id = $2`,
		itemID, vendorID,
	).Scan(&current, &orderID, &customerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order item not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to fetch order item", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !models.CanTransition(current, req.Status) {
		span.SetAttributes(
			attribute.String("status.from", string(current)),
			attribute.String("status.to", string(req.Status)),
		)
		c.JSON(http.StatusConflict, gin.H{
			"error": "Cannot transition order item from " + string(current) + " to " + string(req.Status),
		})
		return
	}

	var item models.OrderItem
	err = h.db.QueryRowContext(ctx,
		"UPDATE order_items SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2 RETURNING id, order_id, product_id, vendor_id, quantity, unit_price, status, updated_at",
		req.Status, itemID,
	).Scan(&item.ID, &item.OrderID, &item.ProductID, &item.VendorID,
		&item.Quantity, &item.UnitPrice, &item.Status, &item.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to update order item status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if h.producer != nil {
		event := models.OrderEvent{
			EventType:   "order_item_" + string(item.Status),
			OrderID:     item.OrderID,
			OrderItemID: item.ID,
			CustomerID:  int(customerID.Int64),
			VendorID:    vendorID,
			Status:      string(item.Status),
		}
		if err := kafka.PublishOrderEvent(ctx, h.producer, kafka.OrderEventsTopic, event, h.logger); err != nil {
			h.logger.Error("Failed to publish order item event", zap.Error(err))
			// Don't fail the request, but log the error
		}
	}

	h.logger.Info("Order item status updated",
		zap.Int("order_item_id", item.ID),
		zap.String("from", string(current)),
		zap.String("to", string(item.Status)),
	)
	c.JSON(http.StatusOK, item)
}
