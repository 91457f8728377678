package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"quikko-api/models"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewNotificationHandler(db *sql.DB, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{
		db:     db,
		logger: logger,
	}
}

// GetNotifications lists the caller's notifications newest first. There is
// no read-state and no deletion; clients poll.
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "GetNotifications")
	defer span.End()

	userID := c.GetInt("user_id")
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := h.db.QueryContext(ctx,
		"SELECT id, user_id, title, message, created_at FROM notifications WHERE user_id = $1 ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to fetch notifications", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.CreatedAt); err != nil {
			span.RecordError(err)
			h.logger.Error("Failed to scan notification", zap.Error(err))
			continue
		}
		notifications = append(notifications, n)
	}

	c.JSON(http.StatusOK, notifications)
}

// UpdateFCMToken stores the device messaging token for a user. The token
// is overwritten on every registration.
func (h *NotificationHandler) UpdateFCMToken(c *gin.Context) {
	_, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "UpdateFCMToken")
	defer span.End()

	userID := c.Param("id")
	span.SetAttributes(attribute.String("user.id", userID))

	var req models.FCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fcmToken is required"})
		return
	}

	if err := h.saveToken(c, userID, req.FCMToken); err != nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated successfully"})
}

// SaveFCMToken is the same write keyed by the authenticated user.
func (h *NotificationHandler) SaveFCMToken(c *gin.Context) {
	_, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "SaveFCMToken")
	defer span.End()

	var req models.FCMTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fcmToken is required"})
		return
	}

	userID := c.GetInt("user_id")
	span.SetAttributes(attribute.Int("user.id", userID))

	if err := h.saveToken(c, userID, req.FCMToken); err != nil {
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated successfully"})
}

// saveToken writes the token and responds with the error cases itself; a
// non-nil return tells the caller the response is already written.
func (h *NotificationHandler) saveToken(c *gin.Context, userID interface{}, token string) error {
	result, err := h.db.ExecContext(c.Request.Context(),
		"UPDATE users SET fcm_token = $1 WHERE id = $2", token, userID)
	if err != nil {
		h.logger.Error("Failed to update FCM token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return err
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return errors.New("user not found")
	}
	return nil
}
