package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantoracle/internal/api/handlers"
	"github.com/wonny/quantoracle/internal/contracts"
	"github.com/wonny/quantoracle/internal/featurestore"
	"github.com/wonny/quantoracle/internal/pipeline"
	"github.com/wonny/quantoracle/internal/rank"
	"github.com/wonny/quantoracle/internal/registry"
	"github.com/wonny/quantoracle/pkg/config"
	"github.com/wonny/quantoracle/pkg/logger"
	"github.com/wonny/quantoracle/pkg/redis"
)

const testFamily = "ridge_h5"

type testEnv struct {
	server *httptest.Server
	reg    *registry.FSRegistry
	feats  *featurestore.Store
	hub    *Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{LogLevel: "error"}
	log := logger.New(cfg)
	zlog := log.Zerolog()

	reg := registry.NewFSRegistry(filepath.Join(dir, "models"), zlog)
	feats := featurestore.New(filepath.Join(dir, "features.csv"), zlog)
	predictor := rank.NewPredictor(reg, zlog)

	redisClient, err := redis.New(cfg) // disabled: cache is a no-op
	require.NoError(t, err)
	cache := redis.NewCache(redisClient, "quantoracle")

	hub := NewHub(log)
	router := NewRouter(
		handlers.NewRankingsHandler(reg, feats, predictor, cache, testFamily, log),
		handlers.NewPortfolioHandler(reg, feats, predictor, cache, testFamily, log),
		handlers.NewModelsHandler(reg, testFamily, log),
		hub,
		log,
	)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, reg: reg, feats: feats, hub: hub}
}

func (e *testEnv) publishModel(t *testing.T) {
	t.Helper()
	n := len(contracts.FeatureNames)
	artifact := &contracts.ModelArtifact{
		W:        make([]float64, n),
		Mu:       make([]float64, n),
		Sig:      make([]float64, n),
		Features: append([]string(nil), contracts.FeatureNames...),
	}
	for i := range artifact.Sig {
		artifact.Sig[i] = 1.0
	}
	artifact.W[0] = 1.0 // score follows ret_1d

	meta := &contracts.ModelMeta{Model: "ridge", Horizon: 5, Alpha: 10, Features: artifact.Features}
	require.NoError(t, registry.Publish(context.Background(), e.reg, testFamily, "20250701T183000Z", artifact, meta))
}

func (e *testEnv) writeSnapshot(t *testing.T) {
	t.Helper()
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	rows := []contracts.FeatureRow{
		{Date: date, Symbol: "AAA.NSE", Ret1D: 0.05, Vol20D: 0.2, RSI14: 60},
		{Date: date, Symbol: "BBB.NSE", Ret1D: 0.01, Vol20D: 0.2, RSI14: 50},
		{Date: date, Symbol: "CCC.NSE", Ret1D: -0.03, Vol20D: 0.2, RSI14: 40},
		{Date: date, Symbol: "DDD.NSE", Ret1D: -0.06, Vol20D: 0.2, RSI14: 30},
	}
	require.NoError(t, e.feats.Write(context.Background(), &contracts.FeatureTable{Rows: rows}))
}

func getJSON(t *testing.T, url string, dest interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if dest != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	var body map[string]interface{}
	status := getJSON(t, env.server.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestRankings(t *testing.T) {
	env := newTestEnv(t)
	env.publishModel(t)
	env.writeSnapshot(t)

	var resp handlers.RankingsResponse
	status := getJSON(t, env.server.URL+"/api/rankings?n=2", &resp)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, "20250701T183000Z", resp.Version)
	assert.Equal(t, "2025-07-01", resp.AsOf)
	require.Len(t, resp.Top, 2)
	require.Len(t, resp.Bottom, 2)
	assert.Equal(t, "AAA.NSE", resp.Top[0].Symbol)
	assert.Equal(t, "DDD.NSE", resp.Bottom[0].Symbol, "most negative first")
	assert.Equal(t, 1, resp.Top[0].Rank)
}

func TestRankings_NoModel(t *testing.T) {
	env := newTestEnv(t)
	env.writeSnapshot(t)

	status := getJSON(t, env.server.URL+"/api/rankings", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRankings_BadN(t *testing.T) {
	env := newTestEnv(t)
	env.publishModel(t)
	env.writeSnapshot(t)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, env.server.URL+"/api/rankings?n=0", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, env.server.URL+"/api/rankings?n=abc", nil))
}

func TestPortfolio(t *testing.T) {
	env := newTestEnv(t)
	env.publishModel(t)
	env.writeSnapshot(t)

	var resp handlers.PortfolioResponse
	status := getJSON(t, env.server.URL+"/api/portfolio?long_n=2&short_n=2&gross=1.0&net=0.0&max_w=0.5", &resp)
	require.Equal(t, http.StatusOK, status)

	assert.InDelta(t, 1.0, resp.Gross, 1e-9)
	assert.InDelta(t, 0.0, resp.Net, 1e-9)
	assert.Greater(t, resp.Weights["AAA.NSE"], 0.0)
	assert.Less(t, resp.Weights["DDD.NSE"], 0.0)
}

func TestPortfolio_BadParams(t *testing.T) {
	env := newTestEnv(t)
	env.publishModel(t)
	env.writeSnapshot(t)

	assert.Equal(t, http.StatusBadRequest, getJSON(t, env.server.URL+"/api/portfolio?gross=-1", nil))
	assert.Equal(t, http.StatusBadRequest, getJSON(t, env.server.URL+"/api/portfolio?long_n=-2", nil))
}

func TestModelsLatest(t *testing.T) {
	env := newTestEnv(t)
	env.publishModel(t)

	var resp struct {
		Family  string              `json:"family"`
		Version string              `json:"version"`
		Meta    contracts.ModelMeta `json:"meta"`
	}
	status := getJSON(t, env.server.URL+"/api/models/latest", &resp)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, testFamily, resp.Family)
	assert.Equal(t, "20250701T183000Z", resp.Version)
	assert.Equal(t, 5, resp.Meta.Horizon)
}

func TestModelsLatest_NoModel(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, getJSON(t, env.server.URL+"/api/models/latest", nil))
}

func TestStream(t *testing.T) {
	env := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// registration races the publish; wait for the hub to see the client
	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	env.hub.Publish(pipeline.Event{Stage: "train", Msg: "published v1", At: time.Now().UTC()})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event pipeline.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "train", event.Stage)
	assert.Equal(t, "published v1", event.Msg)
}
