package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"netmon/model"
	"netmon/monitor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource struct{ report *monitor.Report }

func (f fixedSource) Latest() *monitor.Report { return f.report }

func get(t *testing.T, src ReportSource, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	NewRouter(src).ServeHTTP(w, req)
	return w
}

func report() *monitor.Report {
	return &monitor.Report{
		Tick:   2,
		RxRate: model.NewByteRate(1300, 2*time.Second),
		Rows: []monitor.Row{
			{Pid: 7, Name: "curl", RxRate: model.NewByteRate(1300, 2*time.Second), RxTotal: 2300},
		},
	}
}

func TestHealth(t *testing.T) {
	w := get(t, fixedSource{}, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestThroughputBeforeFirstTick(t *testing.T) {
	w := get(t, fixedSource{}, "/api/v1/throughput")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestThroughput(t *testing.T) {
	w := get(t, fixedSource{report()}, "/api/v1/throughput")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Tick   uint64  `json:"tick"`
		RxRate float64 `json:"rx_bps"`
		Rows   []struct {
			Pid     uint32  `json:"pid"`
			Name    string  `json:"name"`
			RxRate  float64 `json:"rx_bps"`
			RxTotal int64   `json:"rx_total"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, uint64(2), body.Tick)
	assert.InDelta(t, 650, body.RxRate, 1e-9)
	require.Len(t, body.Rows, 1)
	assert.Equal(t, "curl", body.Rows[0].Name)
	assert.Equal(t, int64(2300), body.Rows[0].RxTotal)
}

func TestProcess(t *testing.T) {
	tests := []struct {
		name string
		src  ReportSource
		path string
		code int
	}{
		{"found", fixedSource{report()}, "/api/v1/processes/7", http.StatusOK},
		{"not active", fixedSource{report()}, "/api/v1/processes/8", http.StatusNotFound},
		{"bad pid", fixedSource{report()}, "/api/v1/processes/abc", http.StatusBadRequest},
		{"negative pid", fixedSource{report()}, "/api/v1/processes/-1", http.StatusBadRequest},
		{"no data", fixedSource{}, "/api/v1/processes/7", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, tt.src, tt.path)
			assert.Equal(t, tt.code, w.Code)
		})
	}
}
