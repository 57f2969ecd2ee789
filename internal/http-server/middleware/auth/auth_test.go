package auth

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reverse_market/internal/lib/token"
	"reverse_market/internal/models/user"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSessions struct {
	live map[string]bool
}

func (f *fakeSessions) Exists(ctx context.Context, jti string) (bool, error) {
	return f.live[jti], nil
}

type fakeUsers struct{}

func (fakeUsers) FetchUser(id string) (user.User, error) {
	return user.User{Id: id, UserType: user.TypeCustomer}, nil
}

func TestMiddleware(t *testing.T) {
	tokens := token.NewManager("test-secret", time.Hour)

	signed, jti, err := tokens.Mint("user-1", "customer")
	if err != nil {
		t.Fatal(err)
	}

	foreign, _, err := token.NewManager("other-secret", time.Hour).Mint("user-1", "customer")
	if err != nil {
		t.Fatal(err)
	}

	sessions := &fakeSessions{live: map[string]bool{jti: true}}

	var gotIdentity *Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, ok := FromContext(r.Context()); ok {
			gotIdentity = &id
		}
		w.WriteHeader(200)
	})
	handler := New(discard, tokens, sessions, fakeUsers{})(next)

	cases := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + signed, 200},
		{"missing header", "", 401},
		{"not bearer", "Basic abc", 401},
		{"foreign signature", "Bearer " + foreign, 401},
		{"garbage token", "Bearer not.a.token", 401},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gotIdentity = nil
			req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			if tc.wantStatus == 200 {
				if gotIdentity == nil {
					t.Fatal("no identity planted on context")
				}
				if gotIdentity.User.Id != "user-1" || gotIdentity.Jti != jti {
					t.Errorf("identity = %+v", gotIdentity)
				}
			} else if gotIdentity != nil {
				t.Error("next handler ran on rejected request")
			}
		})
	}
}

func TestMiddlewareRejectsDeadSession(t *testing.T) {
	tokens := token.NewManager("test-secret", time.Hour)

	signed, _, err := tokens.Mint("user-1", "customer")
	if err != nil {
		t.Fatal(err)
	}

	// token is valid but its session was torn down (logout)
	handler := New(discard, tokens, &fakeSessions{live: map[string]bool{}}, fakeUsers{})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Error("next handler ran with a dead session")
		}))

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != 401 {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
