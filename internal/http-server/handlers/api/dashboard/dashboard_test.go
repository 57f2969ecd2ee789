package dashboard

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"reverse_market/internal/http-server/middleware/auth"
	"reverse_market/internal/models/user"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeStats struct{}

func (fakeStats) ReadCustomerStats(customerId string) (int, int, int, error) {
	return 5, 2, 9, nil
}

func (fakeStats) ReadSellerStats(sellerId string) (int, int, int, error) {
	return 7, 1, 4, nil
}

func statsFor(t *testing.T, userType string) *httptest.ResponseRecorder {
	t.Helper()
	handler := NewGetStats(discard, fakeStats{})

	ident := auth.Identity{User: user.User{Id: "user-1", UserType: userType}}
	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), ident))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestCustomerStatsShape(t *testing.T) {
	rec := statsFor(t, user.TypeCustomer)
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var stats CustomerStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalRequests != 5 || stats.ActiveRequests != 2 || stats.TotalOffersReceived != 9 {
		t.Errorf("stats = %+v", stats)
	}

	var raw map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &raw)
	for _, key := range []string{"total_requests", "active_requests", "total_offers_received"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing %q in customer payload", key)
		}
	}
}

func TestSellerStatsShape(t *testing.T) {
	rec := statsFor(t, user.TypeSeller)
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var stats SellerStats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalOffers != 7 || stats.AcceptedOffers != 1 || stats.PendingOffers != 4 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestStatsRequiresIdentity(t *testing.T) {
	handler := NewGetStats(discard, fakeStats{})

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/stats", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != 401 {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
