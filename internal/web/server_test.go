package web

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/zanbot/internal/blacklist"
	"github.com/edgard/zanbot/internal/database"
	"github.com/edgard/zanbot/internal/session"
)

type staticStatus bool

func (s staticStatus) Connected() bool { return bool(s) }

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()
	if deps.Blacklist == nil {
		deps.Blacklist = blacklist.NewStore(filepath.Join(t.TempDir(), "data", "zanwo.json"), nil)
	}
	srv, err := NewServer("127.0.0.1:0", deps, discardLogger())
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, method, path, body string) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	var resp apiResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func decodeConfig(t *testing.T, raw json.RawMessage) blacklist.Config {
	t.Helper()
	var cfg blacklist.Config
	require.NoError(t, json.Unmarshal(raw, &cfg))
	return cfg
}

func TestGetConfig(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Deps{})
	rec, resp := do(t, srv, http.MethodGet, "/config", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, resp.Code)
	assert.JSONEq(t, `{"blockedGroups":[],"blockedUsers":[]}`, string(resp.Data))
}

func TestPostConfigPartialUpdate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "data", "zanwo.json")
	store := blacklist.NewStore(path, nil)
	srv := newTestServer(t, Deps{Blacklist: store})

	rec, resp := do(t, srv, http.MethodPost, "/config", `{"blockedGroups":["100"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, resp.Code)

	rec, resp = do(t, srv, http.MethodPost, "/config", `{"blockedUsers":["1","2"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, resp.Code)

	_, resp = do(t, srv, http.MethodGet, "/config", "")
	cfg := decodeConfig(t, resp.Data)
	assert.Equal(t, []string{"100"}, cfg.BlockedGroups)
	assert.Equal(t, []string{"1", "2"}, cfg.BlockedUsers)

	reloaded := blacklist.NewStore(path, nil)
	require.NoError(t, reloaded.Load())
	assert.Equal(t, cfg, reloaded.Snapshot())
}

func TestPostConfigCoercesAndIgnoresNonArrays(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Deps{})
	do(t, srv, http.MethodPost, "/config", `{"blockedGroups":["100"],"blockedUsers":["9"]}`)

	rec, resp := do(t, srv, http.MethodPost, "/config", `{"blockedGroups":[123,"456"],"blockedUsers":"9"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 0, resp.Code)

	_, resp = do(t, srv, http.MethodGet, "/config", "")
	cfg := decodeConfig(t, resp.Data)
	assert.Equal(t, []string{"123", "456"}, cfg.BlockedGroups)
	assert.Equal(t, []string{"9"}, cfg.BlockedUsers)
}

func TestPostConfigBadBody(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`not json`, `{"blockedGroups":`, `[1,`} {
		t.Run(body, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, Deps{})
			rec, resp := do(t, srv, http.MethodPost, "/config", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, -1, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestPostConfigNonObjectBodyKeepsLists(t *testing.T) {
	t.Parallel()

	for _, body := range []string{`[1]`, `"x"`, `42`, `null`} {
		t.Run(body, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "data", "zanwo.json")
			store := blacklist.NewStore(path, nil)
			groups := []string{"100"}
			require.NoError(t, store.Update(&groups, nil))
			srv := newTestServer(t, Deps{Blacklist: store})

			rec, resp := do(t, srv, http.MethodPost, "/config", body)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, 0, resp.Code)

			reloaded := blacklist.NewStore(path, nil)
			require.NoError(t, reloaded.Load())
			assert.Equal(t, []string{"100"}, reloaded.Snapshot().BlockedGroups)
			assert.Empty(t, reloaded.Snapshot().BlockedUsers)
		})
	}
}

func TestPostConfigSaveFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	store := blacklist.NewStore(filepath.Join(blocker, "zanwo.json"), nil)
	srv := newTestServer(t, Deps{Blacklist: store})

	rec, resp := do(t, srv, http.MethodPost, "/config", `{"blockedUsers":["7"]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, resp.Code)
	assert.True(t, store.IsUserBlocked("7"))
}

func TestConfigPage(t *testing.T) {
	t.Parallel()

	store := blacklist.NewStore(filepath.Join(t.TempDir(), "zanwo.json"), nil)
	groups := []string{"4242"}
	require.NoError(t, store.Update(&groups, nil))
	srv := newTestServer(t, Deps{Blacklist: store})

	for _, path := range []string{"/", "/config/page"} {
		rec, _ := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		body := rec.Body.String()
		assert.Contains(t, body, "<title>赞我配置</title>")
		assert.Contains(t, body, "黑名单配置")
		assert.Contains(t, body, "4242")
	}
}

func TestHistoryEndpoints(t *testing.T) {
	t.Parallel()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "zanbot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.CloseDB(db) })
	store := database.NewStore(db, nil)

	ctx := context.Background()
	for i := range 3 {
		require.NoError(t, store.SaveLike(ctx, &database.LikeRecord{
			CreatedAt: time.Now().Add(-time.Duration(i) * time.Minute), Command: database.CommandLikeSelf,
			SenderID: "111", TargetID: "111", Times: 10, Success: true,
		}))
	}

	srv := newTestServer(t, Deps{Store: store})

	rec, resp := do(t, srv, http.MethodGet, "/history?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var records []database.LikeRecord
	require.NoError(t, json.Unmarshal(resp.Data, &records))
	assert.Len(t, records, 2)

	rec, _ = do(t, srv, http.MethodGet, "/history?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, resp = do(t, srv, http.MethodGet, "/history/count?user_id=111&window=1h", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var count struct {
		UserID string `json:"userId"`
		Count  int    `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &count))
	assert.Equal(t, "111", count.UserID)
	assert.Equal(t, 3, count.Count)

	rec, _ = do(t, srv, http.MethodGet, "/history/count", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryDisabled(t *testing.T) {
	t.Parallel()

	rec, resp := do(t, newTestServer(t, Deps{}), http.MethodGet, "/history", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, -1, resp.Code)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	identity := &session.Identity{}
	identity.Set("999")
	srv := newTestServer(t, Deps{Session: identity, Status: staticStatus(true)})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","onebot_connected":true,"self_id":"999"}`, rec.Body.String())
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, Deps{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
