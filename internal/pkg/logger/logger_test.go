package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{name: "default config", config: DefaultConfig()},
		{name: "nil config uses defaults", config: nil},
		{
			name:   "console output",
			config: &Config{Level: "debug", Format: "console", Output: "console"},
		},
		{
			name:   "stderr output",
			config: &Config{Level: "warn", Format: "console", Output: "stderr"},
		},
		{
			name: "file output",
			config: &Config{
				Level:  "info",
				Format: "json",
				Output: "file",
				File:   FileConfig{Filename: filepath.Join(dir, "app.log"), MaxSize: 10, MaxAge: 7, MaxBackups: 3},
			},
		},
		{
			name:    "invalid level",
			config:  &Config{Level: "loud", Format: "json", Output: "console"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  &Config{Level: "info", Format: "xml", Output: "console"},
			wantErr: true,
		},
		{
			name:    "invalid output",
			config:  &Config{Level: "info", Format: "json", Output: "syslog"},
			wantErr: true,
		},
		{
			name:    "file output without filename",
			config:  &Config{Level: "info", Format: "json", Output: "both"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, l)
			l.With(zap.String("k", "v")).Named("test").Debug("hello")
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithUserID(ctx, "user-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "user-1", GetUserID(ctx))
	assert.Empty(t, GetRequestID(context.Background()))

	l := NewNop()
	ctx = ToContext(ctx, l)
	assert.NotNil(t, FromContext(ctx))
	assert.NotNil(t, l.WithContext(ctx))

	InfoContext(ctx, "info")
	WarnContext(ctx, "warn")
}

func TestGinLogger_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var seen string
	r := gin.New()
	r.Use(GinLoggerWithConfig(NewNop(), MiddlewareOptions{SkipPaths: []string{"/health"}}))
	r.GET("/ping", func(c *gin.Context) {
		seen = GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "fixed-id")
	r.ServeHTTP(w, req)

	assert.Equal(t, "fixed-id", seen)
	assert.Equal(t, "fixed-id", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestGinRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(GinRecovery(NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal server error")
}

func TestGlobalLogger(t *testing.T) {
	require.NoError(t, InitGlobal(DefaultConfig()))
	assert.NotNil(t, L())

	Info("info message", zap.String("key", "value"))
	Warn("warn message")
	_ = Sync()
}
