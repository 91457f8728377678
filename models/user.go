package models

import "time"

type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	FCMToken  *string   `json:"fcm_token,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	PasswordHash string `json:"-"`
}

type RegisterVendorRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	StoreName string `json:"store_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// VendorProfile is the storefront record attached to a vendor user.
type VendorProfile struct {
	UserID      int       `json:"user_id"`
	StoreName   string    `json:"store_name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	LogoURL     string    `json:"logo_url"`
	CategoryID  *int      `json:"category_id"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UpdateProfileRequest carries only the fields the vendor touched; nil
// pointers leave the stored value alone.
type UpdateProfileRequest struct {
	StoreName   *string `json:"store_name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Address     *string `json:"address"`
	LogoURL     *string `json:"logo_url"`
	CategoryID  *int    `json:"category_id"`
}
