package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"quikko-api/kafka"
	"quikko-api/models"

	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const paymentColumns = "id, order_id, payment_method, amount, status, transaction_id, created_at, updated_at"

type PaymentHandler struct {
	db       *sql.DB
	producer sarama.SyncProducer
	logger   *zap.Logger
}

func NewPaymentHandler(db *sql.DB, producer sarama.SyncProducer, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		db:       db,
		producer: producer,
		logger:   logger,
	}
}

func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "CreatePayment")
	defer span.End()

	var req models.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	transactionID := req.TransactionID
	if transactionID == "" {
		transactionID = uuid.NewString()
	}

	span.SetAttributes(
		attribute.Int("order.id", req.OrderID),
		attribute.String("transaction.id", transactionID),
	)

	var payment models.Payment
	err := h.db.QueryRowContext(ctx,
		"INSERT INTO payments (order_id, payment_method, amount, status, transaction_id) VALUES ($1, $2, $3, $4, $5) RETURNING "+paymentColumns,
		req.OrderID, req.PaymentMethod, req.Amount, models.PaymentStatusPending, transactionID,
	).Scan(&payment.ID, &payment.OrderID, &payment.PaymentMethod, &payment.Amount,
		&payment.Status, &payment.TransactionID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to create payment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.logger.Info("Payment created",
		zap.Int("payment_id", payment.ID),
		zap.String("transaction_id", payment.TransactionID),
	)
	c.JSON(http.StatusCreated, payment)
}

// UpdatePaymentStatus is the payment-provider callback: it transitions the
// payment row matched by transaction id and refreshes updated_at. There is
// no version check; concurrent callbacks are last-write-wins.
func (h *PaymentHandler) UpdatePaymentStatus(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "UpdatePaymentStatus")
	defer span.End()

	transactionID := c.Param("transactionId")
	span.SetAttributes(attribute.String("transaction.id", transactionID))

	var req models.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var payment models.Payment
	err := h.db.QueryRowContext(ctx,
		"UPDATE payments SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE transaction_id = $2 RETURNING "+paymentColumns,
		req.Status, transactionID,
	).Scan(&payment.ID, &payment.OrderID, &payment.PaymentMethod, &payment.Amount,
		&payment.Status, &payment.TransactionID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to update payment status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if h.producer != nil {
		var customerID sql.NullInt64
		if err := h.db.QueryRowContext(ctx,
			"SELECT customer_id FROM orders WHERE id = $1", payment.OrderID,
		).Scan(&customerID); err == nil && customerID.Valid {
			event := models.OrderEvent{
				EventType:     "payment_" + string(payment.Status),
				OrderID:       payment.OrderID,
				CustomerID:    int(customerID.Int64),
				Status:        string(payment.Status),
				Amount:        payment.Amount,
				TransactionID: payment.TransactionID,
			}
			if err := kafka.PublishOrderEvent(ctx, h.producer, kafka.OrderEventsTopic, event, h.logger); err != nil {
				h.logger.Error("Failed to publish payment event", zap.Error(err))
			}
		}
	}

	h.logger.Info("Payment status updated",
		zap.String("transaction_id", payment.TransactionID),
		zap.String("status", string(payment.Status)),
	)
	c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) GetPaymentByTransactionID(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "GetPaymentByTransactionID")
	defer span.End()

	transactionID := c.Param("transactionId")
	span.SetAttributes(attribute.String("transaction.id", transactionID))

	var payment models.Payment
	err := h.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE transaction_id = $1",
		transactionID,
	).Scan(&payment.ID, &payment.OrderID, &payment.PaymentMethod, &payment.Amount,
		&payment.Status, &payment.TransactionID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to fetch payment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, payment)
}

func (h *PaymentHandler) GetPaymentsByOrder(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "GetPaymentsByOrder")
	defer span.End()

	orderID := c.Param("id")
	span.SetAttributes(attribute.String("order.id", orderID))

	rows, err := h.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE order_id = $1 ORDER BY created_at DESC",
		orderID,
	)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to fetch payments", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		var payment models.Payment
		if err := rows.Scan(&payment.ID, &payment.OrderID, &payment.PaymentMethod, &payment.Amount,
			&payment.Status, &payment.TransactionID, &payment.CreatedAt, &payment.UpdatedAt); err != nil {
			span.RecordError(err)
			h.logger.Error("Failed to scan payment", zap.Error(err))
			continue
		}
		payments = append(payments, payment)
	}

	c.JSON(http.StatusOK, payments)
}
