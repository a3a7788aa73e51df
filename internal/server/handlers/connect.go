package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dvanosdol88/teller-codex10-9A/internal/application/cachesvc"
)

type ConnectHandler struct {
	cacheSvc cachesvc.ICacheService
	logger   zerolog.Logger
}

func NewConnectHandler(cacheSvc cachesvc.ICacheService, logger zerolog.Logger) *ConnectHandler {
	return &ConnectHandler{
		cacheSvc: cacheSvc,
		logger:   logger,
	}
}

// CreateConnectToken forwards the request body to Teller on top of the
// configured application id. An empty body is fine.
func (h *ConnectHandler) CreateConnectToken(c *gin.Context) {
	options := map[string]any{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&options); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Bad Request",
				"message": err.Error(),
			})
			return
		}
	}

	token, err := h.cacheSvc.CreateConnectToken(c.Request.Context(), options)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Data(http.StatusOK, "application/json", token)
}
