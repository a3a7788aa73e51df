package clients

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvanosdol88/teller-codex10-9A/internal/domain"
	"github.com/dvanosdol88/teller-codex10-9A/internal/domain/interfaces"
	"github.com/dvanosdol88/teller-codex10-9A/pkg/config"
)

type tellerClient struct {
	baseURL       string
	applicationID string
	httpClient    *http.Client
	maxRetries    int
	retryDelay    time.Duration
	logger        zerolog.Logger
}

// NewTellerClient builds the Teller API client. Outside sandbox the
// certificate and private key PEMs are required for mutual TLS.
func NewTellerClient(cfg config.TellerConfig, logger zerolog.Logger) (interfaces.TellerClient, error) {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.Certificate != "" && cfg.PrivateKey != "" {
		cert, err := tls.X509KeyPair([]byte(cfg.Certificate), []byte(cfg.PrivateKey))
		if err != nil {
			return nil, fmt.Errorf("failed to load teller client certificate: %w", err)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
		}
	}

	return &tellerClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		applicationID: cfg.ApplicationID,
		httpClient:    httpClient,
		maxRetries:    cfg.MaxRetries,
		retryDelay:    500 * time.Millisecond,
		logger:        logger,
	}, nil
}

func (c *tellerClient) CreateConnectToken(ctx context.Context, options map[string]any) (json.RawMessage, error) {
	payload := map[string]any{"application_id": c.applicationID}
	for k, v := range options {
		payload[k] = v
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal connect token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/connect/token", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *tellerClient) ListAccounts(ctx context.Context, accessToken string) ([]json.RawMessage, error) {
	var accounts []json.RawMessage
	if err := c.get(ctx, accessToken, "/accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (c *tellerClient) GetAccountBalances(ctx context.Context, accessToken, accountID string) (json.RawMessage, error) {
	var balance json.RawMessage
	path := fmt.Sprintf("/accounts/%s/balances", url.PathEscape(accountID))
	if err := c.get(ctx, accessToken, path, nil, &balance); err != nil {
		return nil, err
	}
	return balance, nil
}

func (c *tellerClient) GetAccountTransactions(ctx context.Context, accessToken, accountID string, count int) ([]json.RawMessage, error) {
	params := url.Values{}
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}

	var transactions []json.RawMessage
	path := fmt.Sprintf("/accounts/%s/transactions", url.PathEscape(accountID))
	if err := c.get(ctx, accessToken, path, params, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (c *tellerClient) get(ctx context.Context, accessToken, path string, params url.Values, out any) error {
	fullURL := c.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", basicAuth(accessToken))
	req.Header.Set("Accept", "application/json")

	payload, err := c.do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to unmarshal teller response: %w", err)
	}
	return nil
}

// do runs the request, retrying transport failures and 5xx answers with
// exponential backoff. 4xx answers are never retried; they come back as a
// typed *domain.APIError for the caller to interpret.
func (c *tellerClient) do(req *http.Request) (json.RawMessage, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(c.retryDelay * time.Duration(1<<(attempt-1))):
			}
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("failed to rewind request body: %w", err)
				}
				req.Body = body
			}
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			c.logger.Warn().Err(err).Int("attempt", attempt+1).Str("url", req.URL.String()).Msg("Teller request failed, retrying")
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return body, nil
		}

		apiErr := &domain.APIError{StatusCode: resp.StatusCode, Payload: body}
		if resp.StatusCode >= 500 {
			lastErr = apiErr
			c.logger.Warn().Int("status", resp.StatusCode).Int("attempt", attempt+1).Str("url", req.URL.String()).Msg("Teller server error, retrying")
			continue
		}
		return nil, apiErr
	}

	c.logger.Error().Err(lastErr).Str("url", req.URL.String()).Int("max_retries", c.maxRetries).Msg("Teller request failed after all retries")
	return nil, lastErr
}

// basicAuth converts a Teller access token into the Basic scheme the API
// expects: base64("token:"). Tokens already carrying a scheme pass through.
func basicAuth(token string) string {
	token = strings.TrimSpace(token)
	lower := strings.ToLower(token)
	if strings.HasPrefix(lower, "basic ") {
		return token
	}
	if strings.HasPrefix(lower, "bearer ") {
		token = token[len("bearer "):]
	}
	encoded := base64.StdEncoding.EncodeToString([]byte(token + ":"))
	return "Basic " + encoded
}
