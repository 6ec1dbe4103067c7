package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func serveMetrics(cfg *MetricsConfig, authorization string) *httptest.ResponseRecorder {
	e := echo.New()
	e.GET("/metrics", func(c echo.Context) error {
		return c.String(http.StatusOK, "metrics")
	}, MetricsBasicAuth(cfg))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func basic(user, pass string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+pass))
}

func TestMetricsBasicAuth(t *testing.T) {
	enabled := &MetricsConfig{User: "testuser", Password: "testpass"}

	tests := []struct {
		name          string
		cfg           *MetricsConfig
		authorization string
		wantCode      int
	}{
		{name: "認証設定なしは素通し", cfg: &MetricsConfig{}, wantCode: http.StatusOK},
		{name: "nil設定は素通し", cfg: nil, wantCode: http.StatusOK},
		{name: "正しい認証情報", cfg: enabled, authorization: basic("testuser", "testpass"), wantCode: http.StatusOK},
		{name: "誤ったパスワード", cfg: enabled, authorization: basic("testuser", "wrong"), wantCode: http.StatusUnauthorized},
		{name: "誤ったユーザー", cfg: enabled, authorization: basic("wrong", "testpass"), wantCode: http.StatusUnauthorized},
		{name: "Authorizationヘッダーなし", cfg: enabled, wantCode: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveMetrics(tt.cfg, tt.authorization)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "metrics", rec.Body.String())
			}
		})
	}
}

func TestLoadMetricsConfig(t *testing.T) {
	tests := []struct {
		name        string
		user        string
		password    string
		wantEnabled bool
	}{
		{name: "両方設定あり", user: "user", password: "pass", wantEnabled: true},
		{name: "ユーザーのみ", user: "user", wantEnabled: false},
		{name: "パスワードのみ", password: "pass", wantEnabled: false},
		{name: "両方なし", wantEnabled: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("METRICS_USER", tt.user)
			t.Setenv("METRICS_PASSWORD", tt.password)

			cfg := LoadMetricsConfig()
			assert.Equal(t, tt.user, cfg.User)
			assert.Equal(t, tt.wantEnabled, cfg.IsEnabled())
		})
	}
}
