package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func serveCORS(origins []string, method, origin string) *httptest.ResponseRecorder {
	h := CORS(origins)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	req := httptest.NewRequest(method, "/fetch_user_data", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCORS_Wildcard(t *testing.T) {
	rec := serveCORS([]string{"*"}, http.MethodPost, "https://app.example.com")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Expected origin echoed, got %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("Expected no credentials for wildcard match")
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("Expected request to reach handler, got %d", rec.Code)
	}
}

func TestCORS_ExplicitOrigin(t *testing.T) {
	rec := serveCORS([]string{"https://app.example.com"}, http.MethodPost, "https://app.example.com")
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("Expected credentials for explicit origin")
	}

	rec = serveCORS([]string{"https://app.example.com"}, http.MethodPost, "https://evil.example.com")
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("Expected no CORS headers for unknown origin")
	}
}

func TestCORS_Preflight(t *testing.T) {
	rec := serveCORS([]string{"*"}, http.MethodOptions, "https://app.example.com")
	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", rec.Code)
	}
}
