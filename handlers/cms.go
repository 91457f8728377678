package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"quikko-api/cache"
	"quikko-api/models"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type CMSHandler struct {
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

func NewCMSHandler(db *sql.DB, redisClient *redis.Client, logger *zap.Logger) *CMSHandler {
	return &CMSHandler{
		db:          db,
		redisClient: redisClient,
		logger:      logger,
	}
}

// GetContent serves landing-page copy filtered by type and title. Results
// are cached per (type, title) pair since the content changes rarely.
func (h *CMSHandler) GetContent(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "GetCMSContent")
	defer span.End()

	contentType := c.Query("type")
	title := c.Query("title")
	span.SetAttributes(
		attribute.String("cms.type", contentType),
		attribute.String("cms.title", title),
	)

	if h.redisClient != nil {
		cachedData, err := cache.GetCMSContent(ctx, h.redisClient, contentType, title)
		if err == nil {
			var contents []models.CMSContent
			if err := json.Unmarshal(cachedData, &contents); err == nil {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				c.JSON(http.StatusOK, contents)
				return
			}
		}
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	query := "SELECT id, type, title, body, image_url FROM cms_contents WHERE 1=1"
	args := []interface{}{}
	if contentType != "" {
		args = append(args, contentType)
		query += " AND type = $1"
	}
	if title != "" {
		args = append(args, title)
		if len(args) == 1 {
			query += " AND title = $1"
		} else {
			query += " AND title = $2"
		}
	}
	query += " ORDER BY id"

	rows, err := h.db.QueryContext(ctx, query, args...)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to fetch CMS content", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer rows.Close()

	contents := []models.CMSContent{}
	for rows.Next() {
		var content models.CMSContent
		if err := rows.Scan(&content.ID, &content.Type, &content.Title, &content.Body, &content.ImageURL); err != nil {
			span.RecordError(err)
			h.logger.Error("Failed to scan CMS content", zap.Error(err))
			continue
		}
		contents = append(contents, content)
	}

	if h.redisClient != nil {
		cache.SetCMSContent(ctx, h.redisClient, contentType, title, contents, 5*time.Minute)
	}

	c.JSON(http.StatusOK, contents)
}
