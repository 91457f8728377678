package handlers

import (
	"database/sql"
	"net/http"

	"quikko-api/models"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ChatHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewChatHandler(db *sql.DB, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		db:     db,
		logger: logger,
	}
}

// GetConversations groups the caller's messages by counterpart. There is no
// stored conversation entity; the participant pair is the grouping key and
// the newest message per counterpart wins.
func (h *ChatHandler) GetConversations(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "GetConversations")
	defer span.End()

	userID := c.GetInt("user_id")
	span.SetAttributes(attribute.Int("user.id", userID))

	rows, err := h.db.QueryContext(ctx,
		`SELECT m.sender_id, m.receiver_id, m.message, m.created_at, u.id, u.name
		FROM messages m
		JOIN users u ON u.id = CASE WHEN m.sender_id = $1 THEN m.receiver_id ELSE m.sender_id END
		WHERE m.sender_id = $1 OR m.receiver_id = $1
		ORDER BY m.created_at`,
		userID,
	)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to fetch conversations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer rows.Close()

	conversations := []models.Conversation{}
	index := map[int]int{}
	for rows.Next() {
		var senderID, receiverID, counterpartID int
		var message, counterpartName string
		var conv models.Conversation
		if err := rows.Scan(&senderID, &receiverID, &message, &conv.LastMessageTime,
			&counterpartID, &counterpartName); err != nil {
			span.RecordError(err)
			h.logger.Error("Failed to scan message row", zap.Error(err))
			continue
		}

		conv.UserID = counterpartID
		conv.UserName = counterpartName
		conv.LastMessage = message

		if pos, seen := index[counterpartID]; seen {
			conversations[pos] = conv
			continue
		}
		index[counterpartID] = len(conversations)
		conversations = append(conversations, conv)
	}

	span.SetAttributes(attribute.Int("conversations.count", len(conversations)))
	c.JSON(http.StatusOK, conversations)
}

// GetMessages returns the thread between two users ordered by creation
// time.
func (h *ChatHandler) GetMessages(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "GetMessages")
	defer span.End()

	user1 := c.Query("user1")
	user2 := c.Query("user2")
	if user1 == "" || user2 == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user1 and user2 are required"})
		return
	}

	rows, err := h.db.QueryContext(ctx,
		`SELECT id, sender_id, receiver_id, message, created_at FROM messages
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)
		ORDER BY created_at`,
		user1, user2,
	)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to fetch messages", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer rows.Close()

	messages := []models.Message{}
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Message, &m.CreatedAt); err != nil {
			span.RecordError(err)
			h.logger.Error("Failed to scan message", zap.Error(err))
			continue
		}
		messages = append(messages, m)
	}

	c.JSON(http.StatusOK, messages)
}

// SendMessage stores a message from the authenticated sender and returns
// the created row for the client to append.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "SendMessage")
	defer span.End()

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	senderID := c.GetInt("user_id")
	span.SetAttributes(
		attribute.Int("sender.id", senderID),
		attribute.Int("receiver.id", req.ReceiverID),
	)

	var m models.Message
	err := h.db.QueryRowContext(ctx,
		"INSERT INTO messages (sender_id, receiver_id, message) VALUES ($1, $2, $3) RETURNING id, sender_id, receiver_id, message, created_at",
		senderID, req.ReceiverID, req.Message,
	).Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Message, &m.CreatedAt)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to send message", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.logger.Info("Message sent", zap.Int("message_id", m.ID), zap.Int("receiver_id", m.ReceiverID))
	c.JSON(http.StatusCreated, m)
}
