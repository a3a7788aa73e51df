package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dvanosdol88/teller-codex10-9A/internal/application/cachesvc"
	"github.com/dvanosdol88/teller-codex10-9A/internal/domain"
	"github.com/dvanosdol88/teller-codex10-9A/internal/server/middleware"
	"github.com/dvanosdol88/teller-codex10-9A/pkg/config"
	"github.com/dvanosdol88/teller-codex10-9A/pkg/signature"
)

type Handlers struct {
	CacheSvc cachesvc.ICacheService
	Verifier *signature.Verifier
	Logger   zerolog.Logger
	Config   *config.Config
}

func New(cacheSvc cachesvc.ICacheService, verifier *signature.Verifier, logger zerolog.Logger, config *config.Config) *Handlers {
	return &Handlers{
		CacheSvc: cacheSvc,
		Verifier: verifier,
		Logger:   logger,
		Config:   config,
	}
}

func (h *Handlers) SetupHandlers(router *gin.Engine) {
	connectHandler := NewConnectHandler(h.CacheSvc, h.Logger)
	enrollmentHandler := NewEnrollmentHandler(h.CacheSvc, h.Logger)
	accountHandler := NewAccountHandler(h.CacheSvc, h.Logger)
	webhookHandler := NewWebhookHandler(h.Verifier, h.Logger)
	healthHandler := NewHealthHandler(h.Config.Server.Environment)

	if h.Config.Static.Dir != "" {
		router.StaticFile("/", h.Config.Static.Dir+"/index.html")
		router.Static("/static", h.Config.Static.Dir)
	}

	api := router.Group("/api", middleware.NoStore())
	{
		api.GET("/healthz", healthHandler.Health)
		api.GET("/config", h.RuntimeConfig)

		api.POST("/connect/token", connectHandler.CreateConnectToken)
		api.POST("/enrollments", enrollmentHandler.Enroll)

		// Cached views served straight from the database.
		db := api.Group("/db")
		{
			db.GET("/accounts", accountHandler.ListAccounts)
			db.GET("/accounts/:account_id/balances", accountHandler.CachedBalance)
			db.GET("/accounts/:account_id/transactions", accountHandler.CachedTransactions)
		}

		// Live views that hit Teller and refresh the cache on the way out.
		api.GET("/accounts/:account_id/balances", accountHandler.LiveBalance)
		api.GET("/accounts/:account_id/transactions", accountHandler.LiveTransactions)

		api.POST("/webhooks/teller", webhookHandler.HandleTellerWebhook)
	}
}

// RuntimeConfig exposes the settings the Teller Connect front end needs.
func (h *Handlers) RuntimeConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"applicationId": h.Config.Teller.ApplicationID,
		"environment":   h.Config.Teller.Environment,
		"apiBaseUrl":    "/api",
	})
}

// bearerToken extracts the access token from the Authorization header.
// The empty string means missing or malformed; the service maps it to an
// unknown-token failure.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// respondError translates the service error taxonomy onto HTTP statuses:
// validation 400, unknown token 401, not found 404, Teller API failure
// 502, anything else 500.
func respondError(c *gin.Context, logger zerolog.Logger, err error) {
	var validationErr *domain.ValidationError
	var notFoundErr *domain.NotFoundError
	var apiErr *domain.APIError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": validationErr.Msg,
		})
	case errors.Is(err, domain.ErrUnknownToken):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Unauthorized",
			"message": "Unknown access token, reconnect via Teller Connect",
		})
	case errors.As(err, &notFoundErr):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": notFoundErr.Error(),
		})
	case errors.As(err, &apiErr):
		logger.Error().Err(err).Msg("Teller API failure")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "Bad Gateway",
			"message": err.Error(),
		})
	default:
		logger.Error().Err(err).Msg("Internal error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": "Something went wrong",
		})
	}
}
