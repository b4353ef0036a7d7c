package client

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"flowswap/pkg/apperrors"
)

const defaultTimeout = 15 * time.Second

// ChangeNow is a client for the ChangeNOW v1 exchange API. The API key
// is sent per request and must never appear in logs or output.
type ChangeNow struct {
	http    *fasthttp.Client
	baseURL string
	apiKey  string
	timeout time.Duration
	log     *zap.Logger
}

// New creates a ChangeNOW API client.
func New(baseURL, apiKey string, timeout time.Duration, log *zap.Logger) *ChangeNow {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ChangeNow{
		http:    &fasthttp.Client{},
		baseURL: baseURL,
		apiKey:  apiKey,
		timeout: timeout,
		log:     log.Named("changenow"),
	}
}

// APIError carries the provider's HTTP status and error message.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("provider error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider error (status %d)", e.StatusCode)
}

func (e *APIError) Unwrap() error { return apperrors.ErrProviderUnavailable }

// Currency is one entry of the provider's currency list.
type Currency struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Image  string `json:"image"`
}

// EstimateResult is the provider's answer to an exchange-amount query.
type EstimateResult struct {
	EstimatedAmount json.Number `json:"estimatedAmount"`
	SpeedForecast   string      `json:"transactionSpeedForecast"`
	WarningMessage  string      `json:"warningMessage"`
}

// MinAmountResult is the provider's minimum input for a pair.
type MinAmountResult struct {
	MinAmount json.Number `json:"minAmount"`
}

// CreateTransactionRequest is the body for transaction creation.
type CreateTransactionRequest struct {
	From          string      `json:"from"`
	To            string      `json:"to"`
	Address       string      `json:"address"`
	Amount        json.Number `json:"amount"`
	ExtraID       string      `json:"extraId,omitempty"`
	RefundAddress string      `json:"refundAddress,omitempty"`
}

// TransactionResponse is the provider's record of a created transaction.
type TransactionResponse struct {
	ID            string      `json:"id"`
	PayinAddress  string      `json:"payinAddress"`
	PayoutAddress string      `json:"payoutAddress"`
	FromCurrency  string      `json:"fromCurrency"`
	ToCurrency    string      `json:"toCurrency"`
	FromAmount    json.Number `json:"fromAmount"`
	ToAmount      json.Number `json:"toAmount"`
	Status        string      `json:"status"`
	ValidUntil    string      `json:"validUntil"`
}

// TransactionStatus is the provider's view of a transaction in flight.
type TransactionStatus struct {
	ID            string      `json:"id"`
	Status        string      `json:"status"`
	PayinAddress  string      `json:"payinAddress"`
	PayoutAddress string      `json:"payoutAddress"`
	AmountFrom    json.Number `json:"amountFrom"`
	AmountTo      json.Number `json:"amountTo"`
	PayinHash     string      `json:"payinHash"`
	PayoutHash    string      `json:"payoutHash"`
	CreatedAt     string      `json:"createdAt"`
	UpdatedAt     string      `json:"updatedAt"`
}

// Currencies fetches the provider's active currency list.
func (c *ChangeNow) Currencies(ctx context.Context) ([]Currency, error) {
	url := fmt.Sprintf("%s/currencies?active=true&fixedRate=false", c.baseURL)

	var out []Currency
	if err := c.get(ctx, url, true, &out); err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	return out, nil
}

// EstimatedAmount asks the provider how much of the target currency the
// given input amount would buy.
func (c *ChangeNow) EstimatedAmount(ctx context.Context, amount, from, to string) (*EstimateResult, error) {
	url := fmt.Sprintf("%s/exchange-amount/%s/%s_%s?api_key=%s", c.baseURL, amount, from, to, c.apiKey)

	var out EstimateResult
	if err := c.get(ctx, url, false, &out); err != nil {
		return nil, fmt.Errorf("failed to get estimate for %s_%s: %w", from, to, err)
	}
	return &out, nil
}

// MinimumAmount fetches the provider's minimum tradable input for a pair.
func (c *ChangeNow) MinimumAmount(ctx context.Context, from, to string) (*MinAmountResult, error) {
	url := fmt.Sprintf("%s/min-amount/%s_%s?api_key=%s", c.baseURL, from, to, c.apiKey)

	var out MinAmountResult
	if err := c.get(ctx, url, false, &out); err != nil {
		return nil, fmt.Errorf("failed to get minimum amount for %s_%s: %w", from, to, err)
	}
	return &out, nil
}

// CreateTransaction asks the provider to open a new exchange transaction
// and issue a deposit address.
func (c *ChangeNow) CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*TransactionResponse, error) {
	url := fmt.Sprintf("%s/transactions/%s", c.baseURL, c.apiKey)

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transaction request: %w", err)
	}

	var out TransactionResponse
	if err := c.do(ctx, fasthttp.MethodPost, url, body, false, &out); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if out.ID == "" {
		return nil, fmt.Errorf("%w: provider returned no transaction id", apperrors.ErrProviderUnavailable)
	}
	return &out, nil
}

// Transaction fetches the current provider status of a transaction.
func (c *ChangeNow) Transaction(ctx context.Context, id string) (*TransactionStatus, error) {
	url := fmt.Sprintf("%s/transactions/%s/%s", c.baseURL, id, c.apiKey)

	var out TransactionStatus
	if err := c.get(ctx, url, false, &out); err != nil {
		return nil, fmt.Errorf("failed to get status of transaction %s: %w", id, err)
	}
	return &out, nil
}

func (c *ChangeNow) get(ctx context.Context, url string, keyHeader bool, out interface{}) error {
	return c.do(ctx, fasthttp.MethodGet, url, nil, keyHeader, out)
}

func (c *ChangeNow) do(ctx context.Context, method, url string, body []byte, keyHeader bool, out interface{}) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(method)
	req.Header.SetContentType("application/json")
	if keyHeader {
		req.Header.Set("x-changenow-api-key", c.apiKey)
	}
	if body != nil {
		req.SetBody(body)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining > 0 && remaining < timeout {
			timeout = remaining
		}
	}

	if err := c.http.DoTimeout(req, resp, timeout); err != nil {
		c.log.Warn("provider request failed",
			zap.String("method", method),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %v", apperrors.ErrProviderUnavailable, err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		apiErr := &APIError{StatusCode: status, Message: extractMessage(resp.Body())}
		c.log.Warn("provider returned error status",
			zap.String("method", method),
			zap.Int("status", status),
			zap.String("message", apiErr.Message),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%w: failed to decode provider response: %v", apperrors.ErrProviderUnavailable, err)
	}
	return nil
}

// extractMessage pulls a human-readable message out of a provider error
// body, falling back to the raw body.
func extractMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg, ok := payload["message"].(string); ok && msg != "" {
			return msg
		}
		if msg, ok := payload["error"].(string); ok && msg != "" {
			return msg
		}
	}
	const maxLen = 200
	if len(body) > maxLen {
		body = body[:maxLen]
	}
	return string(body)
}
