package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Order is a gateway-side payment order a client completes at checkout.
type Order struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount"`
	Currency    string `json:"currency"`
	Receipt     string `json:"receipt"`
}

// Gateway creates payment orders with the external provider.
type Gateway interface {
	CreateOrder(ctx context.Context, amountCents int64, receipt string) (*Order, error)
	// Currency is the ISO code orders are denominated in.
	Currency() string
}

// HTTPGateway talks to the provider's REST API using key-pair basic auth.
type HTTPGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	currency  string
	client    *http.Client
}

// NewHTTPGateway constructs a gateway client. currency is the ISO code
// orders are denominated in, e.g. "USD".
func NewHTTPGateway(baseURL, keyID, keySecret, currency string) *HTTPGateway {
	return &HTTPGateway{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		currency:  currency,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Currency reports the configured order currency.
func (g *HTTPGateway) Currency() string { return g.currency }

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers an order with the provider and returns its id.
func (g *HTTPGateway) CreateOrder(ctx context.Context, amountCents int64, receipt string) (*Order, error) {
	body, err := json.Marshal(createOrderRequest{
		Amount:   amountCents,
		Currency: g.currency,
		Receipt:  receipt,
	})
	if err != nil {
		return nil, fmt.Errorf("encode order request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build order request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("create payment order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("payment gateway returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("decode order response: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("payment gateway returned an order without an id")
	}
	return &order, nil
}
