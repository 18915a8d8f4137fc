package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"checkout-gateway/internal/util"

	"go.uber.org/zap"
)

// Client talks to the payment gateway REST API.
type Client struct {
	baseURL    string
	apiToken   string
	serviceID  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new gateway client
func NewClient(baseURL, apiToken, serviceID string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   baseURL,
		apiToken:  apiToken,
		serviceID: serviceID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: util.GetLogger(),
	}
}

// GetTransaction fetches the authoritative state of a transaction
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	ctx, span := util.StartSpan(ctx, "GatewayClient.GetTransaction")
	defer span.End()

	var tx Transaction
	path := "/v1/transactions/" + url.PathEscape(transactionID)
	if err := c.do(ctx, "get_transaction", http.MethodGet, path, nil, &tx); err != nil {
		return nil, fmt.Errorf("failed to get transaction %s: %w", transactionID, err)
	}
	return &tx, nil
}

// GetTerminalStatus fetches the state of an in-store terminal payment
func (c *Client) GetTerminalStatus(ctx context.Context, hash string) (*TerminalStatus, error) {
	ctx, span := util.StartSpan(ctx, "GatewayClient.GetTerminalStatus")
	defer span.End()

	var status TerminalStatus
	path := "/v1/terminals/status?" + url.Values{"hash": {hash}}.Encode()
	if err := c.do(ctx, "get_terminal_status", http.MethodGet, path, nil, &status); err != nil {
		return nil, fmt.Errorf("failed to get terminal status: %w", err)
	}
	return &status, nil
}

// CreateTransaction starts a new hosted payment
func (c *Client) CreateTransaction(ctx context.Context, req *CreateTransactionRequest) (*CreateTransactionResponse, error) {
	ctx, span := util.StartSpan(ctx, "GatewayClient.CreateTransaction")
	defer span.End()

	if req.ServiceID == "" {
		req.ServiceID = c.serviceID
	}

	var resp CreateTransactionResponse
	if err := c.do(ctx, "create_transaction", http.MethodPost, "/v1/transactions", req, &resp); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	if resp.PaymentURL == "" {
		return nil, fmt.Errorf("failed to create transaction: gateway returned no payment url")
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		util.GatewayRequestDuration.WithLabelValues(operation, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	util.GatewayRequestDuration.WithLabelValues(operation, strconv.Itoa(resp.StatusCode)).
		Observe(time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		c.logger.Warn("Gateway request rejected",
			zap.String("operation", operation),
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message))
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Message}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}
