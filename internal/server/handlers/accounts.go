package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dvanosdol88/teller-codex10-9A/internal/application/cachesvc"
)

type AccountHandler struct {
	cacheSvc cachesvc.ICacheService
	logger   zerolog.Logger
}

func NewAccountHandler(cacheSvc cachesvc.ICacheService, logger zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		cacheSvc: cacheSvc,
		logger:   logger,
	}
}

func (h *AccountHandler) ListAccounts(c *gin.Context) {
	accounts, err := h.cacheSvc.ListAccounts(c.Request.Context(), bearerToken(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	views := make([]accountView, len(accounts))
	for i, account := range accounts {
		views[i] = toAccountView(account)
	}

	c.JSON(http.StatusOK, gin.H{"accounts": views})
}

func (h *AccountHandler) CachedBalance(c *gin.Context) {
	accountID := c.Param("account_id")

	balance, err := h.cacheSvc.CachedBalance(c.Request.Context(), bearerToken(c), accountID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": balance.AccountID,
		"cached_at":  balance.CachedAt,
		"balance":    json.RawMessage(balance.Raw),
	})
}

func (h *AccountHandler) CachedTransactions(c *gin.Context) {
	accountID := c.Param("account_id")

	limit := 10
	if raw, ok := c.GetQuery("limit"); ok {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid-limit",
				"message": "limit must be an integer",
			})
			return
		}
		limit = clamp(parsed, 1, 100)
	}

	transactions, err := h.cacheSvc.CachedTransactions(c.Request.Context(), bearerToken(c), accountID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	raws := make([]json.RawMessage, len(transactions))
	for i, tx := range transactions {
		raws[i] = tx.Raw
	}

	var cachedAt any
	if len(transactions) > 0 {
		cachedAt = transactions[0].CachedAt
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id":   accountID,
		"transactions": raws,
		"cached_at":    cachedAt,
	})
}

func (h *AccountHandler) LiveBalance(c *gin.Context) {
	accountID := c.Param("account_id")

	balance, err := h.cacheSvc.LiveBalance(c.Request.Context(), bearerToken(c), accountID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": accountID,
		"balance":    balance,
	})
}

func (h *AccountHandler) LiveTransactions(c *gin.Context) {
	accountID := c.Param("account_id")

	count := 10
	if raw, ok := c.GetQuery("count"); ok {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "invalid-count",
				"message": "count must be between 1 and 100",
			})
			return
		}
		count = parsed
	}

	transactions, err := h.cacheSvc.LiveTransactions(c.Request.Context(), bearerToken(c), accountID, count)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id":   accountID,
		"transactions": transactions,
	})
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
