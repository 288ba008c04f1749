package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CardClient talks to the card provider's hosted-checkout API and implements
// CheckoutProvider. The provider exposes a Stripe-style sessions resource:
// create a session, redirect the customer, query the session afterwards.
type CardClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewCardClient(apiKey, baseURL string) *CardClient {
	return &CardClient{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateSession opens a hosted checkout session scoped to the order total.
// Amounts are sent in minor units.
func (c *CardClient) CreateSession(ctx context.Context, sessionReq CheckoutSessionRequest) (CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", sessionReq.SuccessURL)
	form.Set("cancel_url", sessionReq.CancelURL)
	form.Set("client_reference_id", sessionReq.Reference)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(sessionReq.Currency))
	form.Set("line_items[0][price_data][product_data][name]", "Order "+sessionReq.Reference)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(int64(sessionReq.Amount*100), 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return CheckoutSession{}, InitiationError{Method: "card", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var payload struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.do(req, &payload); err != nil {
		return CheckoutSession{}, InitiationError{Method: "card", Err: err}
	}

	return CheckoutSession{SessionID: payload.ID, RedirectURL: payload.URL}, nil
}

// SessionStatus queries a checkout session. The provider reports
// payment_status "paid" or "unpaid"; an expired session reads as failed.
func (c *CardClient) SessionStatus(ctx context.Context, sessionID string) (ProviderStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		return StatusPending, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var payload struct {
		Status        string `json:"status"`
		PaymentStatus string `json:"payment_status"`
	}
	if err := c.do(req, &payload); err != nil {
		return StatusPending, err
	}

	if payload.PaymentStatus == "paid" {
		return StatusPaid, nil
	}
	if payload.Status == "expired" {
		return StatusFailed, nil
	}
	return StatusPending, nil
}

func (c *CardClient) do(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("card provider request failed: %s: %s", resp.Status, raw)
	}
	return json.Unmarshal(raw, out)
}
