package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

const challenge = `Bearer realm="policyrag"`

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	for name, keys := range map[string][]string{
		"nil":   nil,
		"blank": {"", ""},
	} {
		t.Run(name, func(t *testing.T) {
			handler := BearerAuthMiddleware(keys)(okHandler())
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest("DELETE", "/cache", http.NoBody))

			if rr.Code != http.StatusOK {
				t.Errorf("got %d, want %d", rr.Code, http.StatusOK)
			}
			if h := rr.Header().Get("WWW-Authenticate"); h != "" {
				t.Errorf("unexpected challenge %q with auth disabled", h)
			}
		})
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	tests := []struct {
		name, method, path, header, message string
	}{
		{"missing header", "POST", "/answer", "", "missing authorization header"},
		{"basic scheme", "POST", "/search", "Basic dXNlcjpwYXNz", "authorization header must use Bearer scheme"},
		{"lowercase scheme", "POST", "/answer", "bearer secret", "authorization header must use Bearer scheme"},
		{"wrong key", "POST", "/answer", "Bearer wrong-key", "invalid api key"},
		{"empty token", "POST", "/answer", "Bearer ", "invalid api key"},
		{"key prefix", "POST", "/answer", "Bearer secre", "invalid api key"},
		{"cache purge", "DELETE", "/cache", "", "missing authorization header"},
		{"cache stats", "GET", "/cache/stats", "Bearer wrong-key", "invalid api key"},
		{"exempt prefix only", "GET", "/health/deep", "", "missing authorization header"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, http.NoBody)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("got %d, want %d", rr.Code, http.StatusUnauthorized)
			}
			if h := rr.Header().Get("WWW-Authenticate"); h != challenge {
				t.Errorf("WWW-Authenticate = %q, want %q", h, challenge)
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != CodeUnauthorized || errResp.Message != tc.message {
				t.Errorf("error = %s %q, want %s %q", errResp.Code, errResp.Message, CodeUnauthorized, tc.message)
			}
		})
	}
}

func TestAuthMiddleware_AcceptsAnyConfiguredKey(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"ops-key", "", "widget-key"})(okHandler())

	for _, key := range []string{"ops-key", "widget-key"} {
		req := httptest.NewRequest("DELETE", "/cache", http.NoBody)
		req.Header.Set("Authorization", "Bearer "+key)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("key %s: got %d, want %d", key, rr.Code, http.StatusOK)
		}
		if h := rr.Header().Get("WWW-Authenticate"); h != "" {
			t.Errorf("key %s: challenge %q on an accepted request", key, h)
		}
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	handler := BearerAuthMiddleware([]string{"secret"})(okHandler())

	for _, path := range []string{"/health", "/metrics", "/suggestions"} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", path, http.NoBody))

		if rr.Code != http.StatusOK {
			t.Errorf("exempt path %s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
}
