package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"
)

const (
	mpesaSandboxBase    = "https://sandbox.safaricom.co.ke"
	mpesaProductionBase = "https://api.safaricom.co.ke"

	// Daraja error code returned by the STK query endpoint while the
	// customer has not yet acted on the prompt.
	mpesaStillProcessing = "500.001.1001"
)

// MpesaConfig carries the Daraja credentials.
type MpesaConfig struct {
	ConsumerKey    string
	ConsumerSecret string
	Shortcode      string
	Passkey        string
	Environment    string
	CallbackURL    string
}

// MpesaClient talks to the Safaricom Daraja API and implements PushProvider.
type MpesaClient struct {
	cfg  MpesaConfig
	http *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewMpesaClient(cfg MpesaConfig) *MpesaClient {
	return &MpesaClient{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

func (m *MpesaClient) baseURL() string {
	if m.cfg.Environment == "production" {
		return mpesaProductionBase
	}
	return mpesaSandboxBase
}

// token fetches (or reuses) a Daraja OAuth token. Tokens are valid for an
// hour; a small safety margin is kept.
func (m *MpesaClient) token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.accessToken != "" && time.Now().Before(m.tokenExpiry) {
		return m.accessToken, nil
	}

	url := m.baseURL() + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	credentials := base64.StdEncoding.EncodeToString(
		[]byte(m.cfg.ConsumerKey + ":" + m.cfg.ConsumerSecret))
	req.Header.Set("Authorization", "Basic "+credentials)

	resp, err := m.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("mpesa token request failed: %s: %s", resp.Status, body)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}

	m.accessToken = payload.AccessToken
	m.tokenExpiry = time.Now().Add(50 * time.Minute)
	return m.accessToken, nil
}

// stkPassword is the base64 of shortcode+passkey+timestamp required by the
// STK endpoints.
func (m *MpesaClient) stkPassword(timestamp string) string {
	return base64.StdEncoding.EncodeToString(
		[]byte(m.cfg.Shortcode + m.cfg.Passkey + timestamp))
}

// Push sends an STK prompt to the customer's phone and returns the
// CheckoutRequestID as the correlation handle.
func (m *MpesaClient) Push(ctx context.Context, pushReq PushRequest) (PushResult, error) {
	token, err := m.token(ctx)
	if err != nil {
		return PushResult{}, InitiationError{Method: "mpesa", Err: err}
	}

	timestamp := time.Now().Format("20060102150405")
	payload := map[string]interface{}{
		"BusinessShortCode": m.cfg.Shortcode,
		"Password":          m.stkPassword(timestamp),
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            int(pushReq.Amount),
		"PartyA":            pushReq.Phone,
		"PartyB":            m.cfg.Shortcode,
		"PhoneNumber":       pushReq.Phone,
		"CallBackURL":       m.cfg.CallbackURL,
		"AccountReference":  pushReq.AccountRef,
		"TransactionDesc":   pushReq.Narrative,
	}

	var result struct {
		ResponseCode        string `json:"ResponseCode"`
		ResponseDescription string `json:"ResponseDescription"`
		CheckoutRequestID   string `json:"CheckoutRequestID"`
		CustomerMessage     string `json:"CustomerMessage"`
	}
	if err := m.postJSON(ctx, token, "/mpesa/stkpush/v1/processrequest", payload, &result); err != nil {
		return PushResult{}, InitiationError{Method: "mpesa", Err: err}
	}

	if result.ResponseCode != "0" {
		return PushResult{}, ProviderDeniedError{Method: "mpesa", Reason: result.ResponseDescription}
	}

	return PushResult{
		CorrelationID: result.CheckoutRequestID,
		Message:       result.CustomerMessage,
	}, nil
}

// QueryStatus asks Daraja for the outcome of an STK push. ResultCode 0 means
// paid; the "still processing" error code maps to pending; anything else is
// a failure (cancelled prompt, timeout on the handset, insufficient funds).
func (m *MpesaClient) QueryStatus(ctx context.Context, correlationID string) (ProviderStatus, error) {
	token, err := m.token(ctx)
	if err != nil {
		return StatusPending, err
	}

	timestamp := time.Now().Format("20060102150405")
	payload := map[string]interface{}{
		"BusinessShortCode": m.cfg.Shortcode,
		"Password":          m.stkPassword(timestamp),
		"Timestamp":         timestamp,
		"CheckoutRequestID": correlationID,
	}

	var result struct {
		ResponseCode string `json:"ResponseCode"`
		ResultCode   string `json:"ResultCode"`
		ResultDesc   string `json:"ResultDesc"`
		ErrorCode    string `json:"errorCode"`
	}
	if err := m.postJSON(ctx, token, "/mpesa/stkpushquery/v1/query", payload, &result); err != nil {
		return StatusPending, err
	}

	if result.ErrorCode == mpesaStillProcessing {
		return StatusPending, nil
	}
	if result.ResultCode == "0" {
		return StatusPaid, nil
	}
	log.Printf("[MPESA] [INFO] stk query %s resolved: code=%s desc=%s",
		correlationID, result.ResultCode, result.ResultDesc)
	return StatusFailed, nil
}

func (m *MpesaClient) postJSON(ctx context.Context, token, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL()+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("mpesa request failed: %s: %s", resp.Status, raw)
	}
	return json.Unmarshal(raw, out)
}
