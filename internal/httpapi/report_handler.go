package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"chatlens/internal/repository"
)

// ReportHandler serves the redaction coverage and missing-attachments
// reports spec.md §6 names, read back by run_id from where the pipeline
// persisted them.
type ReportHandler struct {
	logger  *zap.Logger
	reports repository.ReportRepository
}

func NewReportHandler(logger *zap.Logger, reports repository.ReportRepository) *ReportHandler {
	return &ReportHandler{logger: logger, reports: reports}
}

// RedactionReport handles GET /reports/redaction?run_id=...
func (h *ReportHandler) RedactionReport(c *gin.Context) {
	runID := c.Query("run_id")
	if runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "run_id is required"})
		return
	}

	report, err := h.reports.RedactionReport(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "redaction report not found"})
			return
		}
		h.logger.Error("get redaction report failed", zap.Error(err), zap.String("run_id", runID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch redaction report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// MissingAttachments handles GET /reports/missing-attachments?run_id=...
func (h *ReportHandler) MissingAttachments(c *gin.Context) {
	runID := c.Query("run_id")
	if runID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "run_id is required"})
		return
	}

	report, err := h.reports.MissingAttachmentsReport(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "missing attachments report not found"})
			return
		}
		h.logger.Error("get missing attachments report failed", zap.Error(err), zap.String("run_id", runID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not fetch missing attachments report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}
