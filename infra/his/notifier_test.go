package his

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurmitra/scheduler/auth"
	"github.com/ayurmitra/scheduler/core/engine"
	"github.com/ayurmitra/scheduler/core/logger"
)

func TestNotifyRun(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokenServer.Close()

	var gotAuth string
	var gotBody []byte
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/scheduling/runs", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer apiServer.Close()

	n := New(Config{
		BaseURL: apiServer.URL,
		Auth:    auth.Conf{ClientID: "id", ClientSecret: "secret", TokenURL: tokenServer.URL},
	}, logger.Nop{})

	result := &engine.Result{RunID: "run-1", ScheduledCount: 4, AlgorithmUsed: "cp-greedy"}
	require.NoError(t, n.NotifyRun(context.Background(), result))

	assert.Equal(t, "Bearer tok", gotAuth)
	var decoded engine.Result
	require.NoError(t, json.Unmarshal(gotBody, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Equal(t, 4, decoded.ScheduledCount)
}

func TestNotifyRunWithoutAuth(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusOK)
	}))
	defer apiServer.Close()

	n := New(Config{BaseURL: apiServer.URL}, logger.Nop{})
	require.NoError(t, n.NotifyRun(context.Background(), &engine.Result{RunID: "run-2"}))
}

func TestNotifyRunErrorStatus(t *testing.T) {
	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer apiServer.Close()

	n := New(Config{BaseURL: apiServer.URL}, logger.Nop{})
	require.Error(t, n.NotifyRun(context.Background(), &engine.Result{RunID: "run-3"}))
}

func TestNilNotifier(t *testing.T) {
	var n *Notifier
	require.NoError(t, n.NotifyRun(context.Background(), &engine.Result{}))
}
