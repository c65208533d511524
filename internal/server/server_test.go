package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcncl/jsonstruct/internal/config"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.NewConfig()
	if mutate != nil {
		mutate(cfg)
	}
	s, err := New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func post(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestConvert_OK(t *testing.T) {
	s := newTestServer(t, nil)

	rec := post(t, s.Handler(), "/convert", `{"meta": {"count": 3}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	resp := decode[convertResponse](t, rec)
	expected := "type Data struct {\n" +
		"\tMeta Meta `json:\"meta\"`\n" +
		"}\n" +
		"\n" +
		"type Meta struct {\n" +
		"\tCount int `json:\"count\"`\n" +
		"}\n"
	assert.Equal(t, expected, resp.StructCode)
}

func TestConvert_RootNameFromQuery(t *testing.T) {
	s := newTestServer(t, nil)

	rec := post(t, s.Handler(), "/convert?name=Tags", `["a", "b"]`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "type Tags []string\n", decode[convertResponse](t, rec).StructCode)
}

func TestConvert_InvalidInput(t *testing.T) {
	s := newTestServer(t, nil)

	for name, body := range map[string]string{
		"syntax":   `{"a": }`,
		"empty":    ``,
		"multiple": `1 2`,
		"NaN":      `{"a": NaN}`,
		"nan":      `{"a": nan}`,
		"-Inf":     `{"a": -Inf}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := post(t, s.Handler(), "/convert", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			resp := decode[errorResponse](t, rec)
			assert.True(t, strings.HasPrefix(resp.Error, "invalid input: "), resp.Error)
		})
	}
}

func TestConvert_BodyTooLarge(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Server.MaxBodyBytes = 8 })

	rec := post(t, s.Handler(), "/convert", `{"name": "far too long for the limit"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestConvert_MethodNotAllowed(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/convert", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestConvert_UsesConfig(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Types.ForceInt64 = true })

	rec := post(t, s.Handler(), "/convert", `{"id": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode[convertResponse](t, rec).StructCode, "Id int64")
}

func TestConvert_CachesResults(t *testing.T) {
	s := newTestServer(t, nil)

	first := post(t, s.Handler(), "/convert", `{"a": 1}`)
	second := post(t, s.Handler(), "/convert", `{"a": 1}`)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, s.cache.Len())

	other := post(t, s.Handler(), "/convert?name=Other", `{"a": 1}`)
	require.Equal(t, http.StatusOK, other.Code)
	assert.Equal(t, 2, s.cache.Len(), "root name is part of the key")
}

func TestConvert_Concurrent(t *testing.T) {
	s := newTestServer(t, nil)
	body := `{"items": [{"id": 1, "tags": ["x"]}], "total": 1}`

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := post(t, s.Handler(), "/convert", body)
			results[i] = rec.Body.String()
		}(i)
	}
	wg.Wait()

	for _, r := range results[1:] {
		assert.Equal(t, results[0], r)
	}
	assert.Contains(t, results[0], "structCode")
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestMetrics(t *testing.T) {
	s := newTestServer(t, nil)

	post(t, s.Handler(), "/convert", `{"a": 1}`)
	post(t, s.Handler(), "/convert", `{"a": 1}`)
	post(t, s.Handler(), "/convert", `nope`)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, `jsonstruct_conversions_total{result="ok"} 1`)
	assert.Contains(t, body, `jsonstruct_conversions_total{result="cached"} 1`)
	assert.Contains(t, body, `jsonstruct_conversions_total{result="invalid"} 1`)
	assert.Contains(t, body, "jsonstruct_conversion_duration_seconds_count 1")
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("Data", []byte("{}")), cacheKey("Data", []byte("{}")))
	assert.NotEqual(t, cacheKey("ab", []byte("c")), cacheKey("a", []byte("bc")))
	assert.Len(t, cacheKey("Data", nil), 64)
}

func TestNew_InvalidCacheSize(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Server.CacheSize = 0
	_, err := New(cfg, nil)
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Server.Addr = "127.0.0.1:0" })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
