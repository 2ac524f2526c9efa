package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/presbrey/relayd/irc/config"
	"github.com/presbrey/relayd/irc/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminRequest(t *testing.T, srv *server.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Admin().ServeHTTP(rec, req)
	return rec
}

func TestAdminHealthz(t *testing.T) {
	srv, _ := startServer(t)

	rec := adminRequest(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestAdminStatsAndChannels(t *testing.T) {
	srv, addr := startServer(t)

	alice := Register(t, addr, "alice")
	bob := Register(t, addr, "bob")
	NewIRCClient(t, addr).Sync(t)
	alice.Join(t, "#lounge")
	bob.Join(t, "#lounge")
	alice.Send("MODE #lounge +t")
	alice.Send("TOPIC #lounge :welcome")
	alice.Expect(t, "TOPIC #lounge welcome")

	rec := adminRequest(t, srv, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats server.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.Clients)
	assert.Equal(t, 2, stats.Registered)
	assert.Equal(t, 1, stats.Channels)

	rec = adminRequest(t, srv, http.MethodGet, "/api/channels", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var channels []server.ChannelInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &channels))
	assert.Equal(t, []server.ChannelInfo{{
		Name:    "#lounge",
		Topic:   "welcome",
		Modes:   "+t",
		Members: []string{"alice", "bob"},
	}}, channels)
}

func TestAdminNotice(t *testing.T) {
	srv, addr := startServer(t)

	alice := Register(t, addr, "alice")
	alice.Join(t, "#lounge")

	rec := adminRequest(t, srv, http.MethodPost, "/api/channels/%23lounge/notice", `{"text":"maintenance at noon"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	alice.Expect(t, ":irc.test NOTICE #lounge :maintenance at noon")

	rec = adminRequest(t, srv, http.MethodPost, "/api/channels/%23nowhere/notice", `{"text":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = adminRequest(t, srv, http.MethodPost, "/api/channels/%23lounge/notice", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "text")

	rec = adminRequest(t, srv, http.MethodPost, "/api/channels/%23lounge/notice", `{"text":"`+strings.Repeat("x", 401)+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = adminRequest(t, srv, http.MethodPost, "/api/channels/%23lounge/notice", `{"text":"a\r\nQUIT"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminMetrics(t *testing.T) {
	srv, addr := startServer(t)

	alice := Register(t, addr, "alice")
	alice.Send("FROB")
	alice.Expect(t, " 421 ")

	rec := adminRequest(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "relayd_connections 1")
	assert.Contains(t, body, `relayd_commands_total{command="NICK"} 1`)
	assert.Contains(t, body, `relayd_commands_total{command="unknown"} 1`)
	assert.Contains(t, body, `relayd_reply_errors_total{code="421"} 1`)
}

func TestAdminListener(t *testing.T) {
	srv, _ := startServer(t, func(cfg *config.Config) {
		cfg.Admin.Enabled = true
	})

	require.NotNil(t, srv.AdminAddr())
	resp, err := http.Get("http://" + srv.AdminAddr().String() + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
