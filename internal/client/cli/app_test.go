package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/api"
	"github.com/dmitrijs2005/giftdesk/internal/client/config"
	"github.com/dmitrijs2005/giftdesk/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_RunAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case api.PathIdentify:
			_ = json.NewEncoder(w).Encode(api.IdentifyResponse{FirstName: "Ada", LastName: "Lovelace", MaskedEmployeeID: "E*"})
		case api.PathVerify:
			_ = json.NewEncoder(w).Encode(api.SessionResponse{
				Token:     "tok",
				Employee:  api.Employee{EmployeeID: "E1", FirstName: "Ada", PointsBalance: 10},
				ExpiresAt: time.Now().Add(30 * time.Minute),
			})
		case api.PathLogout:
			_ = json.NewEncoder(w).Encode(struct{}{})
		default:
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: api.CodeUnauthorized})
		}
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ServerEndpointAddr = srv.URL
	cfg.CacheDSN = filepath.Join(t.TempDir(), "cache.db")
	cfg.RecheckInterval = time.Hour

	in := newScript("status", "login E1", "1990", "whoami", "logout", "exit")
	var out bytes.Buffer

	app, err := NewApp(context.Background(), cfg, in, &out, logging.Nop{})
	require.NoError(t, err)
	require.NoError(t, app.Run(context.Background()))

	s := out.String()
	assert.Contains(t, s, "Welcome to giftdesk")
	assert.Contains(t, s, "Session: unauthenticated")
	assert.Contains(t, s, "Welcome, Ada! Points balance: 10.")
	assert.Contains(t, s, "(E1)")
	assert.Contains(t, s, "Logged out.")
	assert.Contains(t, s, "Bye!")
	assert.True(t, in.closed)
	assert.Contains(t, in.prompts, "giftdesk (E1)> ")
}

func TestStartRecheckWatcher_StopsOnCancel(t *testing.T) {
	app, _, tr, _ := newTestApp(newScript())
	tr.login("E1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.StartRecheckWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		tr.mu.Lock()
		defer tr.mu.Unlock()
		return tr.rechecks > 0 && tr.resumes > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRun_RestoreErrorIsShown(t *testing.T) {
	app, _, tr, out := newTestApp(newScript("exit"))
	tr.restoreErr = errUnavailableForTest

	require.NoError(t, app.Run(context.Background()))
	assert.Equal(t, 1, tr.restores)
	assert.True(t, tr.closed)
	assert.Contains(t, out.String(), "Server is unavailable")
}
