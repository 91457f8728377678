package kafka

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"quikko-api/fcm"
	"quikko-api/middleware"
	"quikko-api/models"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func InitConsumer(logger *zap.Logger) (sarama.Consumer, error) {
	config := sarama.NewConfig()
	config.Consumer.Return.Errors = true
	config.Consumer.Retry.Backoff = 1 * time.Second

	brokers := []string{getEnv("KAFKA_BROKER", "localhost:9092")}

	consumer, err := sarama.NewConsumer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka consumer: %w", err)
	}

	logger.Info("Kafka consumer initialized")
	return consumer, nil
}

// StartConsumer reads order events and turns them into stored notifications
// plus an FCM push when the recipient has a registered device token.
func StartConsumer(consumer sarama.Consumer, db *sql.DB, pusher *fcm.Client, logger *zap.Logger) error {
	topic := getEnv("KAFKA_TOPIC", OrderEventsTopic)
	partitionConsumer, err := consumer.ConsumePartition(topic, 0, sarama.OffsetNewest)
	if err != nil {
		return fmt.Errorf("failed to consume partition: %w", err)
	}
	defer partitionConsumer.Close()

	logger.Info("Kafka consumer started", zap.String("topic", topic))

	for {
		select {
		case message := <-partitionConsumer.Messages():
			if err := handleMessageWithRetry(message, db, pusher, logger, 3); err != nil {
				logger.Error("Failed to handle message after retries", zap.Error(err))
			}
		case err := <-partitionConsumer.Errors():
			logger.Error("Kafka consumer error", zap.Error(err))
		}
	}
}

func handleMessageWithRetry(message *sarama.ConsumerMessage, db *sql.DB, pusher *fcm.Client, logger *zap.Logger, maxRetries int) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		err := handleMessage(message, db, pusher, logger)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < maxRetries {
			backoff := time.Duration(attempt) * time.Second
			logger.Warn("Retrying message handling",
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)
			time.Sleep(backoff)
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

func handleMessage(message *sarama.ConsumerMessage, db *sql.DB, pusher *fcm.Client, logger *zap.Logger) error {
	// Extract trace context from Kafka message headers
	var propagator propagation.TextMapPropagator = otel.GetTextMapPropagator()
	carrier := saramaHeaderCarrierConsumer(message.Headers)
	ctx := propagator.Extract(context.Background(), carrier)

	var tracer trace.Tracer = otel.Tracer("quikko-api")
	ctx, span := tracer.Start(ctx, "ProcessNotification")
	defer span.End()

	var event models.OrderEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	if event.EventType == "" {
		return fmt.Errorf("missing event_type in event")
	}

	span.SetAttributes(
		attribute.String("event.type", event.EventType),
		attribute.Int("order.id", event.OrderID),
	)

	userID, title, body, ok := notificationContent(event)
	if !ok {
		logger.Debug("Unknown event type", zap.String("event_type", event.EventType))
		return nil
	}

	return deliverNotification(ctx, db, pusher, userID, title, body, event.EventType, logger)
}

func deliverNotification(ctx context.Context, db *sql.DB, pusher *fcm.Client, userID int, title, body, eventType string, logger *zap.Logger) error {
	if _, err := db.ExecContext(ctx,
		"INSERT INTO notifications (user_id, title, message) VALUES ($1, $2, $3)",
		userID, title, body,
	); err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	middleware.RecordNotificationSent(eventType)

	traceID := middleware.GetTraceID(ctx)
	logger.Info("Notification stored",
		zap.String("trace_id", traceID),
		zap.String("event_type", eventType),
		zap.Int("user_id", userID),
		zap.String("title", title),
	)

	if pusher == nil || !pusher.Enabled() {
		return nil
	}

	var token sql.NullString
	err := db.QueryRowContext(ctx, "SELECT fcm_token FROM users WHERE id = $1", userID).Scan(&token)
	if err != nil || !token.Valid || token.String == "" {
		// No registered device; the stored notification is still polled.
		return nil
	}

	if err := pusher.Send(ctx, token.String, title, body); err != nil {
		logger.Warn("FCM push failed",
			zap.String("trace_id", traceID),
			zap.Int("user_id", userID),
			zap.Error(err),
		)
	}
	return nil
}

// notificationContent maps an order event to the recipient and the
// user-facing copy. Unknown event types are skipped.
func notificationContent(event models.OrderEvent) (int, string, string, bool) {
	switch event.EventType {
	case "order_item_shipped":
		return event.CustomerID, "Order shipped",
			fmt.Sprintf("An item from your order #%d has been shipped.", event.OrderID), true
	case "order_item_delivered":
		return event.CustomerID, "Order delivered",
			fmt.Sprintf("An item from your order #%d has been delivered.", event.OrderID), true
	case "order_item_cancelled":
		return event.CustomerID, "Order cancelled",
			fmt.Sprintf("An item from your order #%d was cancelled.", event.OrderID), true
	case "payment_paid":
		return event.CustomerID, "Payment received",
			fmt.Sprintf("Payment for order #%d was successful. Transaction ID: %s", event.OrderID, event.TransactionID), true
	case "payment_failed":
		return event.CustomerID, "Payment failed",
			fmt.Sprintf("Payment for order #%d failed. Please try again.", event.OrderID), true
	default:
		return 0, "", "", false
	}
}

// saramaHeaderCarrierConsumer implements the TextMapCarrier interface for Kafka headers (for consumer)
type saramaHeaderCarrierConsumer []*sarama.RecordHeader

func (c saramaHeaderCarrierConsumer) Get(key string) string {
	for _, h := range c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c saramaHeaderCarrierConsumer) Set(key, value string) {}

func (c saramaHeaderCarrierConsumer) Keys() []string {
	keys := make([]string, len(c))
	for i, h := range c {
		keys[i] = string(h.Key)
	}
	return keys
}
