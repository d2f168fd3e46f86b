package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims UserClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func authedRequest(token string) *http.Request {
	r := httptest.NewRequest("GET", "/api/auth/me", nil)
	if token != "" {
		r.Header.Set("Authorization", token)
	}
	return r
}

func TestJWTAuth(t *testing.T) {
	var gotClaims *UserClaims
	handler := JWTAuth(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	validClaims := UserClaims{
		UserID:   7,
		Username: "operator",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	t.Run("valid_token", func(t *testing.T) {
		gotClaims = nil
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("Bearer "+signToken(t, validClaims, testSecret)))
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if gotClaims == nil || gotClaims.UserID != 7 || gotClaims.Username != "operator" {
			t.Errorf("claims = %+v", gotClaims)
		}
	})

	t.Run("missing_header", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest(""))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("not_bearer", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("Basic dXNlcjpwYXNz"))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("wrong_secret", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("Bearer "+signToken(t, validClaims, "other-secret")))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("expired_token", func(t *testing.T) {
		expired := validClaims
		expired.RegisteredClaims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, authedRequest("Bearer "+signToken(t, expired, testSecret)))
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})
}

func TestRateLimiter(t *testing.T) {
	handler := RateLimiter(1, 2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Burst of 2 passes, third request in the same instant is limited.
	statuses := make([]int, 3)
	for i := range statuses {
		w := httptest.NewRecorder()
		r := httptest.NewRequest("GET", "/x", nil)
		r.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(w, r)
		statuses[i] = w.Code
	}
	if statuses[0] != 200 || statuses[1] != 200 {
		t.Errorf("burst requests = %v, first two should pass", statuses)
	}
	if statuses[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", statuses[2])
	}

	// A different client IP gets its own limiter.
	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/x", nil)
	r.RemoteAddr = "10.0.0.2:1234"
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("other client = %d, want 200", w.Code)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"remote_addr", "", "", "192.168.1.5:4444", "192.168.1.5"},
		{"x_forwarded_for", "203.0.113.7, 10.0.0.1", "", "10.0.0.2:80", "203.0.113.7"},
		{"x_forwarded_for_single", "203.0.113.9", "", "10.0.0.2:80", "203.0.113.9"},
		{"x_real_ip", "", "203.0.113.8", "10.0.0.2:80", "203.0.113.8"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/x", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
