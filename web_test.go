package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/spyboard/games/codenames"
)

func get(t *testing.T, srv *httptest.Server, path string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func TestStaticRoutes(t *testing.T) {
	srv, _ := startTestServer(t, testConfig())

	resp, body := get(t, srv, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Ok\n", body)

	resp, body = get(t, srv, "/version")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "spyboard v"+releaseVersion+"\n", body)

	resp, body = get(t, srv, "/robots.txt")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "User-agent: GPTBot")

	resp, body = get(t, srv, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/codenames"`)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}

func TestPrefixedRoutes(t *testing.T) {
	cfg := testConfig()
	cfg.prefix = "/games/"

	srv, _ := startTestServer(t, cfg)

	resp, _ := get(t, srv, "/games/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := get(t, srv, "/games/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `href="/games/codenames"`)
}

func TestProfileRoutesOptIn(t *testing.T) {
	srv, _ := startTestServer(t, testConfig())

	resp, _ := get(t, srv, "/pprof/heap")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cfg := testConfig()
	cfg.profile = true
	srv, _ = startTestServer(t, cfg)

	resp, _ = get(t, srv, "/pprof/cmdline")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = get(t, srv, "/pprof/goroutine")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoomStats(t *testing.T) {
	cfg := testConfig()
	cfg.profile = true

	srv, gm := startTestServer(t, cfg)

	resp, body := get(t, srv, "/pprof/rooms")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", body)

	code := newRoom(t, gm)
	conn := wsDial(t, srv, code, uuid.NewString())
	readState(t, conn, 2)

	resp, body = get(t, srv, "/pprof/rooms")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json; charset=utf-8", resp.Header.Get("Content-Type"))

	var stats []roomStats
	require.NoError(t, json.Unmarshal([]byte(body), &stats))
	require.Len(t, stats, 1)

	assert.Equal(t, code, stats[0].Code)
	assert.Equal(t, codenames.PhaseLobby, stats[0].Phase)
	assert.Equal(t, 1, stats[0].Players)
	assert.Equal(t, 1, stats[0].Sockets)
	assert.True(t, strings.HasSuffix(stats[0].StateSize, "B"), stats[0].StateSize)
}

func TestRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1:5555", realIP(r))

	r.Header.Set("X-Real-IP", "192.0.2.7")
	assert.Equal(t, "192.0.2.7:5555", realIP(r))

	r.Header.Set("CF-Connecting-IP", "2001:db8::1")
	assert.Equal(t, "[2001:db8::1]:5555", realIP(r))
}

func TestHumanReadableSize(t *testing.T) {
	assert.Equal(t, "999 B", humanReadableSize(999))
	assert.Equal(t, "1.5 kB", humanReadableSize(1500))
	assert.Equal(t, "2.0 MB", humanReadableSize(2_000_000))
	assert.Equal(t, "1.0 GB", humanReadableSize(1_000_000_000))
}
