package request

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"reverse_market/internal/http-server/middleware/auth"
	"reverse_market/internal/models/request"
	"reverse_market/internal/models/user"
	"reverse_market/internal/storage/postgres"

	"github.com/go-chi/chi/v5"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSaver struct {
	calls int
	last  request.CreateRequest
}

func (f *fakeSaver) SaveRequest(customerId string, req request.CreateRequest) (request.Request, error) {
	f.calls++
	f.last = req
	return request.Request{
		Id:         "req-1",
		CustomerId: customerId,
		Title:      req.Title,
		BudgetMin:  req.BudgetMin,
		BudgetMax:  req.BudgetMax,
		Categories: req.Categories,
		Quantity:   req.Quantity,
		Status:     request.StatusOpen,
	}, nil
}

type fakeCloser struct {
	err error
}

func (f *fakeCloser) CloseRequest(requestId, customerId string) (request.Request, int, error) {
	if f.err != nil {
		return request.Request{}, 0, f.err
	}
	return request.Request{Id: requestId, CustomerId: customerId, Status: request.StatusClosed}, 2, nil
}

type fakePublisher struct {
	events [][]byte
}

func (f *fakePublisher) Publish(key, value []byte) {
	f.events = append(f.events, value)
}

func asCustomer(r *http.Request) *http.Request {
	id := auth.Identity{User: user.User{Id: "cust-1", UserType: user.TypeCustomer}}
	return r.WithContext(auth.WithIdentity(r.Context(), id))
}

func asSeller(r *http.Request) *http.Request {
	id := auth.Identity{User: user.User{Id: "sell-1", UserType: user.TypeSeller}}
	return r.WithContext(auth.WithIdentity(r.Context(), id))
}

func TestPostRequestValidation(t *testing.T) {
	cases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "valid",
			body:       `{"title":"Laptop","description":"A laptop","budget_min":100,"budget_max":500,"categories":["Electronics & Gadgets"],"quantity":1}`,
			wantStatus: 201,
		},
		{
			name:       "quantity defaults to one",
			body:       `{"title":"Laptop","description":"A laptop","budget_min":100,"budget_max":500,"categories":["Electronics & Gadgets"]}`,
			wantStatus: 201,
		},
		{
			name:       "min above max",
			body:       `{"title":"Laptop","description":"A laptop","budget_min":600,"budget_max":500,"categories":["Electronics & Gadgets"],"quantity":1}`,
			wantStatus: 400,
		},
		{
			name:       "negative budget",
			body:       `{"title":"Laptop","description":"A laptop","budget_min":-5,"budget_max":500,"categories":["Electronics & Gadgets"],"quantity":1}`,
			wantStatus: 400,
		},
		{
			name:       "empty categories",
			body:       `{"title":"Laptop","description":"A laptop","budget_min":100,"budget_max":500,"categories":[],"quantity":1}`,
			wantStatus: 400,
		},
		{
			name:       "unknown category",
			body:       `{"title":"Laptop","description":"A laptop","budget_min":100,"budget_max":500,"categories":["electronics"],"quantity":1}`,
			wantStatus: 400,
		},
		{
			name:       "negative quantity",
			body:       `{"title":"Laptop","description":"A laptop","budget_min":100,"budget_max":500,"categories":["Electronics & Gadgets"],"quantity":-1}`,
			wantStatus: 400,
		},
		{
			name:       "missing title",
			body:       `{"description":"A laptop","budget_min":100,"budget_max":500,"categories":["Electronics & Gadgets"],"quantity":1}`,
			wantStatus: 400,
		},
		{
			name:       "unknown json field",
			body:       `{"title":"Laptop","description":"A laptop","budget_min":100,"budget_max":500,"categories":["Electronics & Gadgets"],"quantity":1,"surprise":true}`,
			wantStatus: 400,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			saver := &fakeSaver{}
			events := &fakePublisher{}
			handler := NewPostRequest(discard, saver, events, "test")

			req := asCustomer(httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader(tc.body)))
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tc.wantStatus, rec.Body.String())
			}

			if tc.wantStatus == 201 {
				if saver.calls != 1 {
					t.Errorf("saver calls = %d, want 1", saver.calls)
				}
				if saver.last.Quantity < 1 {
					t.Errorf("saved quantity = %d, want >= 1", saver.last.Quantity)
				}
				if len(events.events) != 1 {
					t.Errorf("published events = %d, want 1", len(events.events))
				}
			} else if saver.calls != 0 {
				t.Errorf("saver called on invalid input")
			}
		})
	}
}

func TestPostRequestForbiddenForSellers(t *testing.T) {
	saver := &fakeSaver{}
	handler := NewPostRequest(discard, saver, &fakePublisher{}, "test")

	body := `{"title":"Laptop","description":"A laptop","budget_min":100,"budget_max":500,"categories":["Electronics & Gadgets"],"quantity":1}`
	req := asSeller(httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader(body)))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != 403 {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if saver.calls != 0 {
		t.Error("saver called for a seller")
	}
}

func TestCloseRequestStatusMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, 200},
		{"not owner", fmt.Errorf("op: %w", postgres.ErrForbidden), 403},
		{"absent", fmt.Errorf("op: %w", postgres.ErrNotFound), 404},
		{"already terminal", fmt.Errorf("op: %w", postgres.ErrInvalidState), 409},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			router := chi.NewRouter()
			router.Put("/api/requests/{requestId}/close",
				NewCloseRequest(discard, &fakeCloser{err: tc.err}, &fakePublisher{}, "test"))

			req := asCustomer(httptest.NewRequest(http.MethodPut, "/api/requests/req-1/close", nil))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}

type fakeBrowser struct {
	filter request.BrowseFilter
}

func (f *fakeBrowser) ReadOpenRequests(filter request.BrowseFilter, limit, offset int) ([]request.Request, error) {
	f.filter = filter
	return []request.Request{{Id: "req-1", Status: request.StatusOpen}}, nil
}

func TestGetRequestsFilters(t *testing.T) {
	browser := &fakeBrowser{}
	handler := NewGetRequests(discard, browser)

	req := asSeller(httptest.NewRequest(http.MethodGet,
		"/api/requests?category=Automotive&min_budget=50&max_budget=200&location=Nairobi", nil))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	if browser.filter.Category != "Automotive" || browser.filter.Location != "Nairobi" {
		t.Errorf("filter = %+v, not forwarded", browser.filter)
	}
	if browser.filter.MinBudget == nil || *browser.filter.MinBudget != 50 {
		t.Error("min_budget not forwarded")
	}
	if browser.filter.MaxBudget == nil || *browser.filter.MaxBudget != 200 {
		t.Error("max_budget not forwarded")
	}

	var out []request.Request
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("response not a request list: %v", err)
	}
}

func TestGetRequestsRejectsBadParams(t *testing.T) {
	handler := NewGetRequests(discard, &fakeBrowser{})

	for _, target := range []string{
		"/api/requests?min_budget=abc",
		"/api/requests?max_budget=abc",
		"/api/requests?category=bogus",
		"/api/requests?limit=-1",
		"/api/requests?offset=x",
	} {
		req := asSeller(httptest.NewRequest(http.MethodGet, target, nil))
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code != 400 {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
	}
}
