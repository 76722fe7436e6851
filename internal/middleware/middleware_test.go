package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"peerprep/interview/internal/models"
)

type mockRequest struct {
	Value string `json:"value"`
}

func (m *mockRequest) Validate() error {
	switch m.Value {
	case "error_response":
		return &models.ErrorResponse{Code: "invalid", Message: "invalid"}
	case "generic_error":
		return errors.New("failed")
	default:
		return nil
	}
}

func TestValidateRequestSuccess(t *testing.T) {
	called := false
	handler := ValidateRequest[*mockRequest]()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if req := GetValidatedRequest[*mockRequest](r); req.Value != "ok" {
			t.Fatalf("expected value ok, got %s", req.Value)
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(`{"value":"ok"}`)))

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected handler to run with 200, called=%v status=%d", called, rec.Code)
	}
}

func TestValidateRequestFailures(t *testing.T) {
	cases := map[string]string{
		`{`:                          "invalid_json",
		`{"value":"error_response"}`: "invalid",
		`{"value":"generic_error"}`:  "validation_error",
	}
	for body, code := range cases {
		handler := ValidateRequest[*mockRequest]()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatalf("handler should not run for %s", body)
		}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/test", bytes.NewBufferString(body)))

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"code":"`+code+`"`) {
			t.Fatalf("%s: expected code %s, got %s", body, code, rec.Body.String())
		}
	}
}

func TestRequireSessionToken(t *testing.T) {
	const secret = "test-secret"
	token, err := IssueSessionToken(secret, "s1", "Ada", time.Hour)
	if err != nil {
		t.Fatalf("IssueSessionToken: %v", err)
	}

	var seen *SessionClaims
	handler := RequireSessionToken(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/session?token="+token, nil))
	if rec.Code != http.StatusOK || seen == nil || seen.SessionID != "s1" {
		t.Fatalf("expected query token to authenticate, status=%d claims=%+v", rec.Code, seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/ws/session", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected header token to authenticate, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/session", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	forged, _ := IssueSessionToken("other-secret", "s1", "Ada", time.Hour)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws/session?token="+forged, nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong signature, got %d", rec.Code)
	}

	expired, _ := IssueSessionToken(secret, "s1", "Ada", -time.Minute)
	if _, err := ParseSessionToken(expired, secret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestRequireSessionTokenDisabled(t *testing.T) {
	called := false
	handler := RequireSessionToken("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		if ClaimsFromContext(r.Context()) != nil {
			t.Fatalf("expected no claims when auth is off")
		}
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("expected pass-through when secret is empty")
	}
}
