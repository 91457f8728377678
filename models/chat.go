package models

import "time"

type Message struct {
	ID         int       `json:"id"`
	SenderID   int       `json:"sender_id"`
	ReceiverID int       `json:"receiver_id"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// Conversation is a per-counterpart summary derived from the messages
// table. There is no stored conversation entity; the pair of participant
// columns is the grouping key.
type Conversation struct {
	UserID          int       `json:"user_id"`
	UserName        string    `json:"user_name"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
}

type SendMessageRequest struct {
	ReceiverID int    `json:"receiver_id" binding:"required"`
	Message    string `json:"message" binding:"required"`
}
