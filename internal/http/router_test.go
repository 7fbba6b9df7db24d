package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apihttp "twende/internal/http"
	"twende/internal/infra"
)

type stubVerifier struct {
	token *infra.AuthToken
	err   error
}

func (s *stubVerifier) VerifyIDToken(_ context.Context, _ string) (*infra.AuthToken, error) {
	return s.token, s.err
}

// buildRouter wires the full route table with a stub verifier. Services are
// nil: every assertion here fails before any service method is reached.
func buildRouter(verifier infra.TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)
	return apihttp.NewRouter(apihttp.RouterDeps{
		Verifier: verifier,
		Log:      log,
	})
}

func asUser(uid, role string) *stubVerifier {
	claims := map[string]interface{}{}
	if role != "" {
		claims["role"] = role
	}
	return &stubVerifier{token: &infra.AuthToken{UID: uid, Claims: claims}}
}

func doRequest(r *gin.Engine, method, path string, body any, auth string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth_NoAuthRequired(t *testing.T) {
	r := buildRouter(&stubVerifier{err: errors.New("never called")})
	if w := doRequest(r, http.MethodGet, "/health", nil, ""); w.Code != http.StatusOK {
		t.Errorf("code = %d, want 200", w.Code)
	}
}

func TestMetrics_NoAuthRequired(t *testing.T) {
	r := buildRouter(&stubVerifier{err: errors.New("never called")})
	if w := doRequest(r, http.MethodGet, "/metrics", nil, ""); w.Code != http.StatusOK {
		t.Errorf("code = %d, want 200", w.Code)
	}
}

func TestCreateRide_Unauthenticated(t *testing.T) {
	r := buildRouter(&stubVerifier{err: errors.New("bad token")})
	w := doRequest(r, http.MethodPost, "/api/rides", map[string]any{"vehicle_id": "v1"}, "Bearer bad")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("code = %d, want 401", w.Code)
	}
}

func TestCreateRide_InvalidJSON(t *testing.T) {
	r := buildRouter(asUser("c1", ""))
	req := httptest.NewRequest(http.MethodPost, "/api/rides", bytes.NewBufferString("{not json"))
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("code = %d, want 400", w.Code)
	}
}

func TestAccept_RequiresDriverRole(t *testing.T) {
	r := buildRouter(asUser("someone", ""))
	w := doRequest(r, http.MethodPost, "/api/rides/abc/accept", nil, "Bearer good")
	if w.Code != http.StatusForbidden {
		t.Errorf("code = %d, want 403", w.Code)
	}
}

func TestUpdateRideStatus_RequiresDriverRole(t *testing.T) {
	r := buildRouter(asUser("customer", ""))
	w := doRequest(r, http.MethodPut, "/api/rides/abc/status", map[string]any{"status": "IN_PROGRESS"}, "Bearer good")
	if w.Code != http.StatusForbidden {
		t.Errorf("code = %d, want 403", w.Code)
	}
}

func TestPricingConfig_RequiresAdminRole(t *testing.T) {
	r := buildRouter(asUser("driver1", "driver"))
	w := doRequest(r, http.MethodPost, "/api/pricing/configs", map[string]any{"name": "x"}, "Bearer good")
	if w.Code != http.StatusForbidden {
		t.Errorf("code = %d, want 403", w.Code)
	}
}
