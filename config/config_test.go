package config

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/solar")
	t.Setenv("JWT_SECRET", "secret")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, 25, s.MaxOpenConns)
	assert.Equal(t, 10, s.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, s.ConnMaxLifetime)
	assert.Equal(t, "Gujarat", s.HomeState)
	assert.Equal(t, 3, s.CodeRetryAttempts)
	assert.Equal(t, 200*time.Millisecond, s.SlowRequestThreshold)
	assert.Equal(t, []string{"http://localhost:3000"}, s.AllowedOrigins)
	assert.Equal(t, "none", s.TraceExporter)
	assert.Equal(t, 1.0, s.TraceSampleRatio)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_URL", "postgres://localhost/solar")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("PORT", "9090")
	t.Setenv("HOME_STATE", "Rajasthan")
	t.Setenv("DB_MAX_OPEN_CONNS", "5")
	t.Setenv("DB_MAX_IDLE_CONNS", "2")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", s.Port)
	assert.Equal(t, "Rajasthan", s.HomeState)
	assert.Equal(t, 5, s.MaxOpenConns)
	assert.Equal(t, 2, s.MaxIdleConns)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.AllowedOrigins)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DB_URL", "")
	require.NoError(t, os.Unsetenv("DB_URL"))
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	assert.Error(t, err)
}

func TestSettings_Validate(t *testing.T) {
	valid := func() Settings {
		return Settings{MaxOpenConns: 10, MaxIdleConns: 5, CodeRetryAttempts: 3, HomeState: "Gujarat",
			TraceExporter: "none", TraceSampleRatio: 1}
	}

	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Settings) {}},
		{name: "zero pool", mutate: func(s *Settings) { s.MaxOpenConns = 0 }, wantErr: true},
		{name: "idle above open", mutate: func(s *Settings) { s.MaxIdleConns = 11 }, wantErr: true},
		{name: "no retries", mutate: func(s *Settings) { s.CodeRetryAttempts = 0 }, wantErr: true},
		{name: "no home state", mutate: func(s *Settings) { s.HomeState = "" }, wantErr: true},
		{name: "unknown exporter", mutate: func(s *Settings) { s.TraceExporter = "jaeger" }, wantErr: true},
		{name: "sample ratio above one", mutate: func(s *Settings) { s.TraceSampleRatio = 1.5 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLogLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLogLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLogLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLogLevel("nonsense"))
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := newLogger(&buf, "info")

	r := gin.New()
	r.Use(RequestLogger(logger, time.Hour))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "request", entry["msg"])
	assert.Equal(t, "/ping", entry["path"])
	assert.Equal(t, float64(http.StatusNoContent), entry["status"])
}

func TestNewTracerProvider_StdoutExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewTracerProvider(&Settings{HomeState: "Gujarat", TraceExporter: "stdout", TraceSampleRatio: 1}, &buf)
	require.NoError(t, err)

	_, span := tp.Tracer("config-test").Start(context.Background(), "uow.create_job")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "uow.create_job")
	assert.Contains(t, buf.String(), ServiceName)
}

func TestNewTracerProvider_NoneRecordsWithoutExporting(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewTracerProvider(&Settings{TraceExporter: "none", TraceSampleRatio: 1}, &buf)
	require.NoError(t, err)
	rec := tracetest.NewSpanRecorder()
	tp.RegisterSpanProcessor(rec)

	_, span := tp.Tracer("config-test").Start(context.Background(), "uow.update_job")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	require.Len(t, rec.Ended(), 1)
	assert.Equal(t, "uow.update_job", rec.Ended()[0].Name())
	assert.Empty(t, buf.String())

	_, err = NewTracerProvider(&Settings{TraceExporter: "zipkin"}, &buf)
	assert.Error(t, err)
}
