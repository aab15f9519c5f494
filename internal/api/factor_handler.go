package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stringer07/factor-mining/internal/factor"
)

// FactorHandler handles factor registry API requests
type FactorHandler struct {
	registry *factor.Registry
}

// NewFactorHandler creates a new factor handler
func NewFactorHandler(registry *factor.Registry) *FactorHandler {
	return &FactorHandler{registry: registry}
}

// List returns metadata for all registered factors
func (h *FactorHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.registry.List(),
	})
}
