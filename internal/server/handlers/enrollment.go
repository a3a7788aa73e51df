package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/dvanosdol88/teller-codex10-9A/internal/application/cachesvc"
	"github.com/dvanosdol88/teller-codex10-9A/internal/domain"
)

type EnrollmentHandler struct {
	cacheSvc cachesvc.ICacheService
	logger   zerolog.Logger
}

func NewEnrollmentHandler(cacheSvc cachesvc.ICacheService, logger zerolog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{
		cacheSvc: cacheSvc,
		logger:   logger,
	}
}

type enrollmentUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type enrollmentPayload struct {
	AccessToken      string         `json:"accessToken"`
	AccessTokenSnake string         `json:"access_token"`
	User             enrollmentUser `json:"user"`
}

func (p enrollmentPayload) token() string {
	if p.AccessToken != "" {
		return p.AccessToken
	}
	return p.AccessTokenSnake
}

type enrollmentBody struct {
	enrollmentPayload
	Enrollment *enrollmentPayload `json:"enrollment"`
}

type accountView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Institution string `json:"institution"`
	LastFour    string `json:"last_four"`
	Type        string `json:"type"`
	Subtype     string `json:"subtype"`
	Currency    string `json:"currency"`
}

func toAccountView(account domain.Account) accountView {
	return accountView{
		ID:          account.ID,
		Name:        account.Name,
		Institution: account.Institution,
		LastFour:    account.LastFour,
		Type:        account.Type,
		Subtype:     account.Subtype,
		Currency:    account.Currency,
	}
}

// Enroll accepts the payload Teller Connect hands the front end, either
// wrapped in an "enrollment" envelope or flat, with the access token in
// camelCase or snake_case.
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	var body enrollmentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Bad Request",
			"message": err.Error(),
		})
		return
	}

	enrollment := body.enrollmentPayload
	if body.Enrollment != nil {
		enrollment = *body.Enrollment
	}

	accessToken := enrollment.token()
	if accessToken == "" || enrollment.User.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid-enrollment",
			"message": "accessToken and user.id are required",
		})
		return
	}

	result, err := h.cacheSvc.Enroll(c.Request.Context(), enrollment.User.ID, accessToken, enrollment.User.Name)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	accounts := make([]accountView, len(result.Accounts))
	for i, account := range result.Accounts {
		accounts[i] = toAccountView(account)
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":   result.User.ID,
			"name": result.User.Name,
		},
		"accounts": accounts,
	})
}
