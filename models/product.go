package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type Product struct {
	ID          int               `json:"id"`
	VendorID    int               `json:"vendor_id"`
	CategoryID  *int              `json:"category_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Stock       int               `json:"stock"`
	Images      []string          `json:"images"`
	Variants    map[string]string `json:"variants,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       float64         `json:"price" binding:"required,gt=0"`
	Stock       int             `json:"stock" binding:"gte=0"`
	CategoryID  *int            `json:"category_id"`
	Images      []string        `json:"images"`
	Variants    json.RawMessage `json:"variants"`
}

type UpdateProductRequest struct {
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       float64         `json:"price" binding:"omitempty,gt=0"`
	Stock       *int            `json:"stock" binding:"omitempty"`
	CategoryID  *int            `json:"category_id"`
	Images      []string        `json:"images"`
	Variants    json.RawMessage `json:"variants"`
}

// ParseVariants validates the free-form variant payload into a flat
// string-to-string map. Legacy clients send the map JSON-encoded inside a
// string, so one level of that wrapping is accepted. A malformed payload is
// an error for the caller to reject, never a silent nil.
func ParseVariants(raw json.RawMessage) (map[string]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var wrapped string
	if err := json.Unmarshal(raw, &wrapped); err == nil {
		if wrapped == "" {
			return nil, nil
		}
		raw = json.RawMessage(wrapped)
	}

	var variants map[string]string
	if err := json.Unmarshal(raw, &variants); err != nil {
		return nil, fmt.Errorf("invalid variants payload: %w", err)
	}
	return variants, nil
}
