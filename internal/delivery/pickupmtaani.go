package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

// FallbackAgents is served when no partner API key is configured or the
// partner API is down, so the checkout flow stays usable.
var FallbackAgents = []models.PickupAgent{
	{AgentID: "agent_1", Name: "Westlands Agent", Location: "Westlands Mall", Area: "Westlands", Zone: "Nairobi"},
	{AgentID: "agent_2", Name: "CBD Agent", Location: "Kenyatta Avenue", Area: "CBD", Zone: "Nairobi"},
	{AgentID: "agent_3", Name: "Karen Agent", Location: "Karen Shopping Centre", Area: "Karen", Zone: "Nairobi"},
	{AgentID: "agent_4", Name: "Mombasa Road Agent", Location: "City Mall", Area: "Mombasa Road", Zone: "Nairobi"},
	{AgentID: "agent_5", Name: "Thika Road Agent", Location: "Garden City", Area: "Thika Road", Zone: "Nairobi"},
}

// TrackingInfo is the partner's view of a package in transit.
type TrackingInfo struct {
	TrackingNumber string `json:"tracking_number"`
	Status         string `json:"status"`
	Message        string `json:"message,omitempty"`
}

// Client is a read-only passthrough to the Pick Up Mtaani partner API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether live partner calls are possible.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Agents lists pickup locations. Without an API key the fallback list is
// returned with mock=true.
func (c *Client) Agents(ctx context.Context) ([]models.PickupAgent, bool, error) {
	if !c.Configured() {
		return FallbackAgents, true, nil
	}

	var agents []models.PickupAgent
	if err := c.getJSON(ctx, "/api/v1/locations", nil, &agents); err != nil {
		return nil, false, err
	}
	return agents, false, nil
}

// Charge looks up the delivery fee to a destination agent. Without an API key
// the schedule's flat pickup fee is returned.
func (c *Client) Charge(ctx context.Context, destinationAgentID string) (float64, error) {
	if !c.Configured() {
		return models.PickupMtaaniFee, nil
	}

	var payload struct {
		DeliveryFee float64 `json:"delivery_fee"`
	}
	params := url.Values{"destination_agent_id": {destinationAgentID}}
	if err := c.getJSON(ctx, "/api/v1/delivery-charge/agent-package", params, &payload); err != nil {
		return models.PickupMtaaniFee, err
	}
	return payload.DeliveryFee, nil
}

// TrackPackage queries the partner for a tracking number we don't know about
// locally.
func (c *Client) TrackPackage(ctx context.Context, trackingNumber string) (*TrackingInfo, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("pickup mtaani api key not configured")
	}

	var info TrackingInfo
	params := url.Values{"tracking_number": {trackingNumber}}
	if err := c.getJSON(ctx, "/api/v1/packages/agent-agent", params, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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
		return fmt.Errorf("pickup mtaani request failed: %s: %s", resp.Status, raw)
	}
	return json.Unmarshal(raw, out)
}
