package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/signalnine/studyscope/internal/analytics"
	"github.com/signalnine/studyscope/internal/logging"
	"github.com/signalnine/studyscope/internal/report"
	"github.com/signalnine/studyscope/internal/server"
	"github.com/signalnine/studyscope/internal/storage/memory"
	"github.com/signalnine/studyscope/internal/trial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.CreateStudy(ctx, "sparse", trial.Minimize))
	for _, tr := range []trial.Trial{
		{State: trial.StateComplete, Value: trial.Float64(0), Params: map[string]float64{"param_a": 1, "param_b": 2}},
		{State: trial.StateComplete, Value: trial.Float64(2), Params: map[string]float64{"param_b": 0}},
		{State: trial.StateComplete, Value: trial.Float64(1), Params: map[string]float64{"param_a": 2.5, "param_b": 1}},
		{State: trial.StateFail},
	} {
		_, err := store.AppendTrial(ctx, "sparse", tr)
		require.NoError(t, err)
	}
	require.NoError(t, store.CreateStudy(ctx, "empty", trial.Maximize))

	ts := httptest.NewServer(server.New(store, logging.NewNop()).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string, out any) int {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusOK, get(t, ts, "/healthz", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestListStudies(t *testing.T) {
	ts := newTestServer(t)
	var got []report.Summary
	require.Equal(t, http.StatusOK, get(t, ts, "/studies", &got))
	require.Len(t, got, 2)
	assert.Equal(t, "empty", got[0].Name)
	assert.Equal(t, "sparse", got[1].Name)
	assert.Equal(t, 4, got[1].Trials)
	assert.Equal(t, 3, got[1].Completed)
}

func TestGetStudy(t *testing.T) {
	ts := newTestServer(t)
	var got report.Summary
	require.Equal(t, http.StatusOK, get(t, ts, "/studies/sparse", &got))
	assert.Equal(t, []string{"param_a", "param_b"}, got.Params)
	require.NotNil(t, got.BestValue)
	assert.Equal(t, 0.0, *got.BestValue)
}

func TestUnknownStudy(t *testing.T) {
	ts := newTestServer(t)
	for _, path := range []string{"/studies/missing", "/studies/missing/history"} {
		var body map[string]string
		assert.Equal(t, http.StatusNotFound, get(t, ts, path, &body), path)
		assert.NotEmpty(t, body["error"], path)
	}
}

func TestUnknownProjection(t *testing.T) {
	ts := newTestServer(t)
	var body map[string]string
	assert.Equal(t, http.StatusNotFound, get(t, ts, "/studies/sparse/pie", &body))
	assert.Contains(t, body["error"], "pie")
}

func TestHistory(t *testing.T) {
	ts := newTestServer(t)
	var got analytics.History
	require.Equal(t, http.StatusOK, get(t, ts, "/studies/sparse/history", &got))
	assert.Equal(t, []float64{0, 1, 2}, got.Raw.X)
	assert.Equal(t, []float64{0, 2, 1}, got.Raw.Y)
	assert.Equal(t, []float64{0, 0, 0}, got.RunningBest.Y)
}

func TestProjectionParams(t *testing.T) {
	ts := newTestServer(t)

	var dims []analytics.Dimension
	require.Equal(t, http.StatusOK, get(t, ts, "/studies/sparse/parallel-coordinate?params=param_b", &dims))
	require.Len(t, dims, 2)
	assert.Equal(t, analytics.ObjectiveLabel, dims[0].Label)
	assert.Equal(t, "param_b", dims[1].Label)

	var pairs []analytics.ContourPair
	require.Equal(t, http.StatusOK, get(t, ts, "/studies/sparse/contour?params=param_b,param_a", &pairs))
	require.Len(t, pairs, 1)
	assert.Equal(t, "param_b", pairs[0].X.Param)
	assert.Equal(t, "param_a", pairs[0].Y.Param)

	var slices []analytics.SliceSubplot
	require.Equal(t, http.StatusOK, get(t, ts, "/studies/sparse/slice?params=param_a&params=param_b", &slices))
	require.Len(t, slices, 2)
	assert.Equal(t, []float64{1, 2.5}, slices[0].Points.X)
}

func TestEmptyStudyProjections(t *testing.T) {
	ts := newTestServer(t)
	for _, p := range report.AllProjections {
		if p == report.History {
			continue
		}
		var got []json.RawMessage
		require.Equal(t, http.StatusOK, get(t, ts, "/studies/empty/"+string(p)+"?params=x,y", &got), p)
		assert.Empty(t, got, p)
	}
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	get(t, ts, "/studies/sparse/history", nil)
	get(t, ts, "/studies/missing/slice", nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `studyscope_projection_requests_total{code="200",projection="history"} 1`)
	assert.Contains(t, string(body), `studyscope_projection_requests_total{code="404",projection="slice"} 1`)
	assert.Contains(t, string(body), "studyscope_projection_duration_seconds_bucket")
}

func TestParseParams(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, nil},
		{[]string{"a"}, []string{"a"}},
		{[]string{"a,b", "c"}, []string{"a", "b", "c"}},
		{[]string{" a , ,b "}, []string{"a", "b"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, server.ParseParams(tt.in))
	}
}

// infStore hands out a study JSON cannot encode, as an unchecked backend could.
type infStore struct {
	*memory.Store
}

func (infStore) Snapshot(ctx context.Context, study string) (*trial.Study, error) {
	return &trial.Study{
		Name:      study,
		Direction: trial.Minimize,
		Trials:    []trial.Trial{{State: trial.StateComplete, Value: trial.Float64(math.Inf(1))}},
	}, nil
}

func TestUnencodableResponse(t *testing.T) {
	var logs bytes.Buffer
	srv := server.New(infStore{memory.NewStore()}, logging.NewWithWriter(&logs, slog.LevelInfo, "text"))

	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/studies/s/history", nil))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.NotEmpty(t, body["error"])
	assert.Contains(t, logs.String(), "encoding response")

	metrics := httptest.NewRecorder()
	srv.Handler().ServeHTTP(metrics, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, metrics.Body.String(), `studyscope_projection_requests_total{code="500",projection="history"} 1`)
}
