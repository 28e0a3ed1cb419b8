package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	xlogger "FXAdvisor/pkg/logger"

	"github.com/labstack/echo/v4"
)

func newTestHandler(t *testing.T) *ForecastEchoHandler {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return NewForecastEchoHandler(l, nil, nil, nil, "secret")
}

func TestHealthOpenWithoutKey(t *testing.T) {
	e := echo.New()
	newTestHandler(t).RegisterRoutes(e)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestAPIKeyRequired(t *testing.T) {
	e := echo.New()
	newTestHandler(t).RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodGet, "/v1/forecast?pair=USDINR", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without key = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/forecast?pair=USDINR", nil)
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status with wrong key = %d, want 401", rec.Code)
	}
}
