package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/joanrunyiri/Jojos-Boutick/internal/delivery"
	"github.com/joanrunyiri/Jojos-Boutick/internal/models"
)

func TestStatusStepTimeline(t *testing.T) {
	steps := map[string]int{
		models.OrderStatusPending:    1,
		models.OrderStatusProcessing: 2,
		models.OrderStatusShipped:    3,
		models.OrderStatusDelivered:  4,
		models.OrderStatusCancelled:  0,
	}
	for status, want := range steps {
		if got := statusStep(status); got != want {
			t.Fatalf("statusStep(%q) = %d, want %d", status, got, want)
		}
	}
}

func deliveryTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	client := delivery.NewClient("", "")

	r := gin.New()
	r.GET("/delivery/pickup-mtaani/agents", GetPickupAgents(client))
	r.GET("/delivery/pickup-mtaani/charge", GetDeliveryCharge(client))
	return r
}

func TestGetPickupAgentsFallback(t *testing.T) {
	r := deliveryTestRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/delivery/pickup-mtaani/agents", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Agents []models.PickupAgent `json:"agents"`
		Mock   bool                 `json:"mock"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !body.Mock {
		t.Fatal("unconfigured client must report the mock agent list")
	}
	if len(body.Agents) == 0 {
		t.Fatal("fallback agent list must not be empty")
	}
}

func TestGetDeliveryCharge(t *testing.T) {
	r := deliveryTestRouter()

	cases := []struct {
		method string
		code   int
		fee    float64
	}{
		{models.DeliveryPickupMtaani, http.StatusOK, 200},
		{models.DeliveryDoorstep, http.StatusOK, 350},
		{"drone", http.StatusBadRequest, 0},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/delivery/pickup-mtaani/charge?method="+tc.method, nil)
		r.ServeHTTP(w, req)

		if w.Code != tc.code {
			t.Fatalf("method %q: expected %d, got %d", tc.method, tc.code, w.Code)
		}
		if tc.code != http.StatusOK {
			continue
		}

		var body struct {
			Fee float64 `json:"fee"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if body.Fee != tc.fee {
			t.Fatalf("method %q: expected fee %v, got %v", tc.method, tc.fee, body.Fee)
		}
	}
}
