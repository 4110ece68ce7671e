package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"chatlens/internal/rag"
)

// QueryHandler serves the RAG query endpoint, per SPEC_FULL.md §4.4's
// RAGEngine.Answer surface.
type QueryHandler struct {
	logger *zap.Logger
	engine *rag.Engine
}

func NewQueryHandler(logger *zap.Logger, engine *rag.Engine) *QueryHandler {
	return &QueryHandler{logger: logger, engine: engine}
}

// Ask handles POST /query.
func (h *QueryHandler) Ask(c *gin.Context) {
	var req struct {
		Contact  string `json:"contact" binding:"required"`
		Question string `json:"question" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid query request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	answer, err := h.engine.Answer(c.Request.Context(), req.Contact, req.Question)
	if err != nil {
		h.logger.Error("query failed", zap.Error(err), zap.String("contact", req.Contact))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not answer query"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"answer":           answer.Text,
		"citations":        answer.Citations,
		"contact":          answer.Contact,
		"retrieved_chunks": answer.RetrievedChunks,
		"min_score":        answer.MinScore,
		"max_score":        answer.MaxScore,
		"processing_ms":    answer.ProcessingTime.Milliseconds(),
	})
}
