package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	mwauth "reverse_market/internal/http-server/middleware/auth"
	"reverse_market/internal/lib/token"
	"reverse_market/internal/models/user"
	"reverse_market/internal/storage/postgres"

	"golang.org/x/crypto/bcrypt"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeUsers struct {
	saved    int
	existing map[string]string // email -> password hash
}

func (f *fakeUsers) SaveUser(req user.RegisterRequest, passwordHash string) (user.User, error) {
	if _, ok := f.existing[req.Email]; ok {
		return user.User{}, fmt.Errorf("mem: %w", postgres.ErrUserExists)
	}
	f.saved++
	return user.User{Id: "user-1", Email: req.Email, FullName: req.FullName, UserType: req.UserType}, nil
}

func (f *fakeUsers) FetchUserByEmail(email string) (user.User, string, error) {
	hash, ok := f.existing[email]
	if !ok {
		return user.User{}, "", fmt.Errorf("mem: %w", postgres.ErrUserNotFound)
	}
	return user.User{Id: "user-1", Email: email, UserType: user.TypeCustomer}, hash, nil
}

type fakeSessions struct {
	live map[string]string
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{live: make(map[string]string)}
}

func (f *fakeSessions) Put(ctx context.Context, jti, userId string, ttl time.Duration) error {
	f.live[jti] = userId
	return nil
}

func (f *fakeSessions) Delete(ctx context.Context, jti string) error {
	delete(f.live, jti)
	return nil
}

func TestRegister(t *testing.T) {
	tokens := token.NewManager("test-secret", time.Hour)

	cases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "customer",
			body:       `{"email":"c@test.com","password":"secret1","full_name":"C","user_type":"customer"}`,
			wantStatus: 200,
		},
		{
			name:       "seller with business fields",
			body:       `{"email":"s@test.com","password":"secret1","full_name":"S","user_type":"seller","business_name":"S Ltd"}`,
			wantStatus: 200,
		},
		{
			name:       "bad user type",
			body:       `{"email":"x@test.com","password":"secret1","full_name":"X","user_type":"admin"}`,
			wantStatus: 400,
		},
		{
			name:       "malformed email",
			body:       `{"email":"not-an-email","password":"secret1","full_name":"X","user_type":"customer"}`,
			wantStatus: 400,
		},
		{
			name:       "short password",
			body:       `{"email":"x@test.com","password":"abc","full_name":"X","user_type":"customer"}`,
			wantStatus: 400,
		},
		{
			name:       "duplicate email",
			body:       `{"email":"dup@test.com","password":"secret1","full_name":"X","user_type":"customer"}`,
			wantStatus: 400,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users := &fakeUsers{existing: map[string]string{"dup@test.com": "x"}}
			sessions := newFakeSessions()
			handler := NewRegister(discard, users, tokens, sessions)

			req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tc.wantStatus, rec.Body.String())
			}

			if tc.wantStatus != 200 {
				return
			}

			var resp user.AuthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if resp.AccessToken == "" || resp.TokenType != "bearer" {
				t.Errorf("bad auth response: %+v", resp)
			}

			claims, err := tokens.Parse(resp.AccessToken)
			if err != nil {
				t.Fatalf("minted token does not parse: %v", err)
			}
			if _, ok := sessions.live[claims.ID]; !ok {
				t.Error("session not registered for minted token")
			}
		})
	}
}

func TestLogin(t *testing.T) {
	tokens := token.NewManager("test-secret", time.Hour)
	hash, err := bcrypt.GenerateFromPassword([]byte("right-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	users := &fakeUsers{existing: map[string]string{"c@test.com": string(hash)}}

	cases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"correct", `{"email":"c@test.com","password":"right-password"}`, 200},
		{"wrong password", `{"email":"c@test.com","password":"wrong"}`, 401},
		{"unknown email", `{"email":"nobody@test.com","password":"right-password"}`, 401},
		{"missing password", `{"email":"c@test.com"}`, 400},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewLogin(discard, users, tokens, newFakeSessions())

			req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d, body %s", rec.Code, tc.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestLogoutTearsDownSession(t *testing.T) {
	sessions := newFakeSessions()
	sessions.live["jti-1"] = "user-1"

	handler := NewLogout(discard, sessions)

	ident := mwauth.Identity{User: user.User{Id: "user-1"}, Jti: "jti-1"}
	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	req = req.WithContext(mwauth.WithIdentity(req.Context(), ident))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if _, ok := sessions.live["jti-1"]; ok {
		t.Error("session still live after logout")
	}
}

func TestProfileReturnsIdentity(t *testing.T) {
	handler := NewProfile(discard)

	ident := mwauth.Identity{User: user.User{Id: "user-1", Email: "c@test.com", UserType: user.TypeCustomer}}
	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req = req.WithContext(mwauth.WithIdentity(req.Context(), ident))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var usr user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if usr.Id != "user-1" || usr.Email != "c@test.com" {
		t.Errorf("profile = %+v", usr)
	}
}
