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

type ReportHandler struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewReportHandler(db *sql.DB, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		db:     db,
		logger: logger,
	}
}

// GetVendorReport aggregates the caller's sales: distinct orders, units
// sold, revenue over non-cancelled items, and item counts per status.
func (h *ReportHandler) GetVendorReport(c *gin.Context) {
	ctx, span := otel.Tracer("quikko-api").Start(c.Request.Context(), "GetVendorReport")
	defer span.End()

	vendorID := c.GetInt("user_id")
	span.SetAttributes(attribute.Int("vendor.id", vendorID))

	report := models.VendorReport{ItemsByStatus: map[string]int{}}

	err := h.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT order_id),
			COALESCE(SUM(quantity) FILTER (WHERE status != 'cancelled'), 0),
			COALESCE(SUM(quantity * unit_price) FILTER (WHERE status != 'cancelled'), 0)
		FROM order_items WHERE vendor_id = $1`,
		vendorID,
	).Scan(&report.TotalOrders, &report.ItemsSold, &report.Revenue)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to aggregate vendor report", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	rows, err := h.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM order_items WHERE vendor_id = $1 GROUP BY status",
		vendorID,
	)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to count items by status", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			span.RecordError(err)
			h.logger.Error("Failed to scan status count", zap.Error(err))
			continue
		}
		report.ItemsByStatus[status] = count
	}

	c.JSON(http.StatusOK, report)
}
