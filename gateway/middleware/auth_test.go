package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crowdsale/crypto"
)

func contextWithSubject(r *http.Request, subject [20]byte) context.Context {
	return context.WithValue(r.Context(), ContextKeySubject, subject)
}

func TestAuthenticatorAcceptsScopedToken(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{HMACSecret: "secret", Issuer: "saled"}, nil)
	subject := [20]byte{0x01}
	token, err := IssueToken("secret", "saled", subject, []string{ScopeOperator}, time.Hour, time.Now())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	var seen [20]byte
	var scopes []string
	handler := auth.Middleware(ScopeOperator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = Subject(r.Context())
		scopes = Scopes(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	req := httptest.NewRequest(http.MethodPost, "/v1/sale/pause", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	if seen != subject {
		t.Fatalf("subject mismatch: %s", crypto.FormatAddress(seen))
	}
	if len(scopes) != 1 || scopes[0] != ScopeOperator {
		t.Fatalf("unexpected scopes %v", scopes)
	}
}

func TestAuthenticatorRejections(t *testing.T) {
	auth := NewAuthenticator(AuthConfig{HMACSecret: "secret", Issuer: "saled"}, nil)
	subject := [20]byte{0x02}
	now := time.Now()
	scoped, _ := IssueToken("secret", "saled", subject, []string{ScopeKYC}, time.Hour, now)
	expired, _ := IssueToken("secret", "saled", subject, []string{ScopeOperator}, time.Minute, now.Add(-time.Hour))
	forged, _ := IssueToken("other", "saled", subject, []string{ScopeOperator}, time.Hour, now)
	wrongIssuer, _ := IssueToken("secret", "elsewhere", subject, []string{ScopeOperator}, time.Hour, now)

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"forged", "Bearer " + forged, http.StatusUnauthorized},
		{"issuer", "Bearer " + wrongIssuer, http.StatusUnauthorized},
		{"scope", "Bearer " + scoped, http.StatusForbidden},
	}
	handler := auth.Middleware(ScopeOperator)(okHandler())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/sale/pause", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			res := httptest.NewRecorder()
			handler.ServeHTTP(res, req)
			if res.Code != tc.status {
				t.Fatalf("expected %d, got %d", tc.status, res.Code)
			}
		})
	}
}

func TestIssueTokenRequiresSecret(t *testing.T) {
	if _, err := IssueToken(" ", "", [20]byte{0x01}, nil, time.Hour, time.Now()); err == nil {
		t.Fatalf("expected error without secret")
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS(CORSConfig{AllowedOrigins: []string{"https://sale.example"}})(okHandler())
	req := httptest.NewRequest(http.MethodOptions, "/v1/sale", nil)
	req.Header.Set("Origin", "https://sale.example")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.Code)
	}
	if got := res.Header().Get("Access-Control-Allow-Origin"); got != "https://sale.example" {
		t.Fatalf("unexpected origin %q", got)
	}
}
