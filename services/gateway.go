package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const gatewayBaseURL = "https://api.razorpay.com/v1"

// ErrGatewayNotConfigured means the gateway credentials are missing from the
// environment. Translated to ErrGatewayUnavailable at the service boundary.
var ErrGatewayNotConfigured = errors.New("payment gateway not configured")

// RemoteOrder is the gateway's handle for a newly created order, including
// the public key the browser needs to open the payment interface.
type RemoteOrder struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	KeyID     string `json:"key_id"`
}

// RemotePayment is the gateway's record of a payment, fetched server-side
// during verification.
type RemotePayment struct {
	Reference      string `json:"id"`
	OrderReference string `json:"order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
}

// Captured reports whether the gateway has actually collected the money.
func (p *RemotePayment) Captured() bool {
	return p.Status == "captured"
}

// PaymentGateway is the boundary to the external payment provider. The
// provider is untrusted until a completion report has been verified through
// VerifySignature plus a server-side FetchPayment.
type PaymentGateway interface {
	CreateRemoteOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*RemoteOrder, error)
	FetchPayment(ctx context.Context, paymentReference string) (*RemotePayment, error)
	VerifySignature(orderReference, paymentReference, signature string) bool

	// ClientKey is the public credential the browser needs to open the
	// gateway's payment interface.
	ClientKey() string
}

// GatewayClient talks to a Razorpay-compatible REST API with basic-auth key
// credentials.
type GatewayClient struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

// NewGatewayClient constructs a GatewayClient from GATEWAY_KEY_ID and
// GATEWAY_KEY_SECRET. A nil http client gets a bounded default timeout so a
// hung gateway cannot block requests indefinitely.
func NewGatewayClient(client *http.Client) *GatewayClient {
	if client == nil {
		client = &http.Client{Timeout: 8 * time.Second}
	}
	return &GatewayClient{
		baseURL:   gatewayBaseURL,
		keyID:     os.Getenv("GATEWAY_KEY_ID"),
		keySecret: os.Getenv("GATEWAY_KEY_SECRET"),
		client:    client,
	}
}

// ClientKey returns the public key id handed to the browser.
func (g *GatewayClient) ClientKey() string {
	return g.keyID
}

func (g *GatewayClient) configured() bool {
	return g.keyID != "" && g.keySecret != ""
}

// CreateRemoteOrder registers an order with the gateway and returns its
// reference. Amount is in minor currency units.
func (g *GatewayClient) CreateRemoteOrder(ctx context.Context, amount int64, currency, receipt string, notes map[string]string) (*RemoteOrder, error) {
	if !g.configured() {
		return nil, ErrGatewayNotConfigured
	}

	payload := map[string]interface{}{
		"amount":   amount,
		"currency": currency,
		"receipt":  receipt,
	}
	if len(notes) > 0 {
		payload["notes"] = notes
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway order request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("gateway order request returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode gateway order response: %w", err)
	}

	return &RemoteOrder{
		Reference: parsed.ID,
		Amount:    parsed.Amount,
		Currency:  parsed.Currency,
		KeyID:     g.keyID,
	}, nil
}

// FetchPayment loads the gateway's own record of a payment so the client
// report can be checked against it.
func (g *GatewayClient) FetchPayment(ctx context.Context, paymentReference string) (*RemotePayment, error) {
	if !g.configured() {
		return nil, ErrGatewayNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/payments/"+paymentReference, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(g.keyID, g.keySecret)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway payment lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("gateway payment lookup returned status %d: %s", resp.StatusCode, string(raw))
	}

	var payment RemotePayment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("failed to decode gateway payment response: %w", err)
	}
	return &payment, nil
}

// VerifySignature checks the HMAC-SHA256 the gateway hands the browser on
// completion: hex(HMAC(orderReference + "|" + paymentReference, keySecret)).
// The comparison is constant time.
func (g *GatewayClient) VerifySignature(orderReference, paymentReference, signature string) bool {
	if !g.configured() {
		return false
	}
	mac := hmac.New(sha256.New, []byte(g.keySecret))
	mac.Write([]byte(orderReference + "|" + paymentReference))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
