// Package fcm sends push notifications through the Firebase Cloud
// Messaging HTTP endpoint. Only the single send call the notification
// consumer needs is implemented; SDK-level features (topics, device
// groups) are out of scope.
package fcm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

const defaultEndpoint = "https://fcm.googleapis.com/fcm/send"

type Client struct {
	httpClient *http.Client
	endpoint   string
	serverKey  string
}

type pushMessage struct {
	To           string       `json:"to"`
	Notification notification `json:"notification"`
}

type notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func NewClient() *Client {
	endpoint := os.Getenv("FCM_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		endpoint:   endpoint,
		serverKey:  os.Getenv("FCM_SERVER_KEY"),
	}
}

// Enabled reports whether a server key is configured. Without one, pushes
// are skipped and notifications are still stored.
func (c *Client) Enabled() bool {
	return c.serverKey != ""
}

// Send pushes a notification to a single device token.
func (c *Client) Send(ctx context.Context, token, title, body string) error {
	payload, err := json.Marshal(pushMessage{
		To:           token,
		Notification: notification{Title: title, Body: body},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+c.serverKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("push rejected with status %d", resp.StatusCode)
	}
	return nil
}
