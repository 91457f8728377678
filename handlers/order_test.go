package handlers

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quikko-api/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/IBM/sarama"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// Mock Kafka producer for testing.
type mockProducer struct {
	sent []*sarama.ProducerMessage
}

func (m *mockProducer) SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error) {
	m.sent = append(m.sent, msg)
	return 0, 0, nil
}

func (m *mockProducer) SendMessages(msgs []*sarama.ProducerMessage) error {
	m.sent = append(m.sent, msgs...)
	return nil
}

func (m *mockProducer) Close() error { return nil }

func (m *mockProducer) TxnStatus() sarama.ProducerTxnStatusFlag { return sarama.ProducerTxnFlagReady }

func (m *mockProducer) IsTransactional() bool { return false }

func (m *mockProducer) BeginTxn() error { return nil }

func (m *mockProducer) CommitTxn() error { return nil }

func (m *mockProducer) AbortTxn() error { return nil }

func (m *mockProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (m *mockProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func setupOrderTest(t *testing.T) (*OrderHandler, sqlmock.Sqlmock, *mockProducer, *gin.Engine) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	producer := &mockProducer{}
	handler := NewOrderHandler(db, producer, logger)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	vendor := router.Group("/", setUser(1, "vendor"))
	vendor.GET("/vendor/orders", handler.GetVendorOrders)
	vendor.GET("/vendor/order-items", handler.GetVendorOrderItems)
	vendor.PUT("/vendor/order-items/:id/status", handler.UpdateOrderItemStatus)

	return handler, mock, producer, router
}

func vendorOrderRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "customer_id", "guest_token", "total", "created_at",
		"item_id", "order_id", "product_id", "vendor_id", "quantity", "unit_price", "status", "updated_at",
	})
}

func TestOrderHandler_GetVendorOrders_DeduplicatesByOrderID(t *testing.T) {
	handler, mock, _, router := setupOrderTest(t)
	defer handler.db.Close()

	now := time.Now()
	rows := vendorOrderRows().
		AddRow(7, 2, nil, 30.0, now, 11, 7, 100, 1, 1, 10.0, "pending", now).
		AddRow(7, 2, nil, 30.0, now, 12, 7, 101, 1, 2, 10.0, "shipped", now).
		AddRow(8, 3, nil, 5.0, now, 13, 8, 102, 1, 1, 5.0, "pending", now)

	mock.ExpectQuery("SELECT (.+) FROM order_items i").
		WithArgs(1).
		WillReturnRows(rows)

	req := httptest.NewRequest("GET", "/vendor/orders", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var orders []models.VendorOrder
	if err := json.Unmarshal(w.Body.Bytes(), &orders); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if len(orders) != 2 {
		t.Fatalf("Expected 2 orders after dedup, got %d", len(orders))
	}
	if orders[0].ID != 7 {
		t.Errorf("Expected first order id 7, got %d", orders[0].ID)
	}
	if len(orders[0].Items) != 2 {
		t.Errorf("Expected 2 items on order 7, got %d", len(orders[0].Items))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderHandler_GetVendorOrders_StatusFilter(t *testing.T) {
	handler, mock, _, router := setupOrderTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT (.+) FROM order_items i").
		WithArgs(1, "shipped").
		WillReturnRows(vendorOrderRows())

	req := httptest.NewRequest("GET", "/vendor/orders?status=shipped", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderHandler_UpdateOrderItemStatus_Success(t *testing.T) {
	handler, mock, producer, router := setupOrderTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT i.status, i.order_id, o.customer_id").
		WithArgs(11, 1).
		WillReturnRows(sqlmock.NewRows([]string{"status", "order_id", "customer_id"}).
			AddRow("pending", 7, 2))

	mock.ExpectQuery("UPDATE order_items SET status = \\$1").
		WithArgs("shipped", 11).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "order_id", "product_id", "vendor_id", "quantity", "unit_price", "status", "updated_at",
		}).AddRow(11, 7, 100, 1, 1, 10.0, "shipped", time.Now()))

	body := []byte(`{"status":"shipped"}`)
	req := httptest.NewRequest("PUT", "/vendor/order-items/11/status", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var item models.OrderItem
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if item.Status != models.OrderItemStatusShipped {
		t.Errorf("Expected status shipped, got %s", item.Status)
	}

	if len(producer.sent) != 1 {
		t.Errorf("Expected 1 published event, got %d", len(producer.sent))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderHandler_UpdateOrderItemStatus_DisallowedTransition(t *testing.T) {
	handler, mock, producer, router := setupOrderTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT i.status, i.order_id, o.customer_id").
		WithArgs(11, 1).
		WillReturnRows(sqlmock.NewRows([]string{"status", "order_id", "customer_id"}).
			AddRow("delivered", 7, 2))

	body := []byte(`{"status":"pending"}`)
	req := httptest.NewRequest("PUT", "/vendor/order-items/11/status", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected status %d, got %d: %s", http.StatusConflict, w.Code, w.Body.String())
	}
	if len(producer.sent) != 0 {
		t.Errorf("Expected no published events, got %d", len(producer.sent))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestOrderHandler_UpdateOrderItemStatus_UnknownStatus(t *testing.T) {
	handler, _, _, router := setupOrderTest(t)
	defer handler.db.Close()

	// No database expectations - the status must be rejected up front
	body := []byte(`{"status":"misplaced"}`)
	req := httptest.NewRequest("PUT", "/vendor/order-items/11/status", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestOrderHandler_UpdateOrderItemStatus_NotFound(t *testing.T) {
	handler, mock, _, router := setupOrderTest(t)
	defer handler.db.Close()

	mock.ExpectQuery("SELECT i.status, i.order_id, o.customer_id").
		WithArgs(99, 1).
		WillReturnError(sql.ErrNoRows)

	body := []byte(`{"status":"shipped"}`)
	req := httptest.NewRequest("PUT", "/vendor/order-items/99/status", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}
