package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"quikko-api/models"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const profileColumns = "user_id, store_name, slug, description, address, logo_url, category_id, updated_at"

type ProfileHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewProfileHandler(db *sql.DB, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		db:     db,
		logger: logger,
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "GetProfile")
	defer span.End()

	vendorID := c.GetInt("user_id")
	span.SetAttributes(attribute.Int("vendor.id", vendorID))

	var p models.VendorProfile
	err := h.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM vendor_profiles WHERE user_id = $1",
		vendorID,
	).Scan(&p.UserID, &p.StoreName, &p.Slug, &p.Description, &p.Address,
		&p.LogoURL, &p.CategoryID, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to fetch profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, p)
}

// UpdateProfile applies only the fields the vendor submitted. The full
// updated row is returned so the client never has to merge around missing
// fields. A store name without an explicit slug derives one.
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "UpdateProfile")
	defer span.End()

	vendorID := c.GetInt("user_id")
	span.SetAttributes(attribute.Int("vendor.id", vendorID))

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.StoreName != nil && req.Slug == nil {
		slug := slugify(*req.StoreName)
		req.Slug = &slug
	}

	// Build update query dynamically
	query := "UPDATE vendor_profiles SET updated_at = CURRENT_TIMESTAMP"
	args := []interface{}{}
	argPos := 1

	appendField := func(column string, value interface{}) {
		query += ", " + column + " = $" + strconv.Itoa(argPos)
		args = append(args, value)
		argPos++
	}

	if req.StoreName != nil {
		appendField("store_name", *req.StoreName)
	}
	if req.Slug != nil {
		appendField("slug", *req.Slug)
	}
	if req.Description != nil {
		appendField("description", *req.Description)
	}
	if req.Address != nil {
		appendField("address", *req.Address)
	}
	if req.LogoURL != nil {
		appendField("logo_url", *req.LogoURL)
	}
	if req.CategoryID != nil {
		appendField("category_id", *req.CategoryID)
	}

	query += " WHERE user_id = $" + strconv.Itoa(argPos) + " RETURNING " + profileColumns
	args = append(args, vendorID)

	var p models.VendorProfile
	err := h.db.QueryRowContext(ctx, query, args...).Scan(
		&p.UserID, &p.StoreName, &p.Slug, &p.Description, &p.Address,
		&p.LogoURL, &p.CategoryID, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to update profile", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.logger.Info("Profile updated", zap.Int("vendor_id", vendorID))
	c.JSON(http.StatusOK, p)
}

// slugify lowercases the store name and collapses any run of
// non-alphanumerics into a single hyphen.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
