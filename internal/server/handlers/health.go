package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	environment string
}

func NewHealthHandler(environment string) *HealthHandler {
	return &HealthHandler{environment: environment}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"environment": h.environment,
	})
}
