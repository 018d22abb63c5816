package httpapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestRouter_HandlerWithMetrics(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	router := NewRouter(zap.New(core))
	router.RegisterMetricsRoutes()
	router.Handle("/api/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTeapot, Ok("pong"))
	})
	h := router.Handler(true)

	rec := serve(h, newRequest(http.MethodGet, "/api/v1/ping", "", "doctor-1", "DOCTOR"))
	require.Equal(t, http.StatusTeapot, rec.Code)

	rec = serve(h, newRequest(http.MethodGet, "/metrics", "", "", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "postcare_http_requests_total"))

	entries := logs.FilterMessage("HTTP request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/api/v1/ping", fields["path"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, "doctor-1", fields["user_id"])
	assert.Equal(t, zap.DebugLevel, entries[1].Level)
}

func TestRouter_HandlerServerErrorLogsWarn(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	router := NewRouter(zap.New(core))
	router.Handle("/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	serve(router.Handler(false), newRequest(http.MethodGet, "/boom", "", "", ""))

	entries := logs.FilterMessage("HTTP request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
}

func TestIdentityFromReq(t *testing.T) {
	rec := serve(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := identityFromReq(w, r)
		if ok {
			writeJSON(w, http.StatusOK, Ok(id.Role))
		}
	}), newRequest(http.MethodGet, "/", "", "u1", " doctor "))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"DOCTOR"`)
}
