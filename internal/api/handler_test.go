package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/cxd309/trip-engine/internal/config"
	"github.com/cxd309/trip-engine/internal/engine"
	"github.com/cxd309/trip-engine/internal/fluid"
	"github.com/cxd309/trip-engine/internal/optimizer"
	"github.com/cxd309/trip-engine/internal/snapshot"
)

const tripBody = `{
	"trip_input": {
		"start_md": 1000, "end_md": 700, "step_m": 100,
		"base_mud_density_kgpm3": 1200, "backfill_density_kgpm3": 1200,
		"target_esd_kgpm3": 1200, "crack_float_kpa": 0, "initial_sabp_kpa": 0
	},
	"geometry": {
		"hole": [{"name": "hole", "top_md": 0, "bottom_md": 1000, "id": 0.2159}],
		"string": [{"name": "dp", "top_md": 0, "bottom_md": 1000, "od": 0.127, "id": 0.1086}]
	},
	"trajectory": {"model": "survey", "stations": [{"md": 0}, {"md": 1000}]},
	"muds": [{"name": "wbm", "density_kgpm3": 1200}]
}`

const optimizerBody = `{
	"optimizer_input": {
		"control_md": 2500, "target_esd_kgpm3": 1250, "base_mud_density_kgpm3": 1200,
		"surface_slug_volume_m3": %s, "surface_slug_density_kgpm3": 1800,
		"second_slug_volume_m3": 2
	},
	"geometry": {
		"hole": [{"top_md": 0, "bottom_md": 2600, "id": 0.2159}],
		"string": [{"top_md": 0, "bottom_md": 2600, "od": 0.127, "id": 0.1086}]
	},
	"trajectory": {"model": "plan", "kickoff_md": 1000, "build_rate": 3, "hold_inc": 90}
}`

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(config.EngineConfig{DefaultStep: 150}, nil), []string{"*"})
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type tripEnvelope struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Data    engine.TripResult `json:"data"`
}

func TestHealth(t *testing.T) {
	w := do(t, newRouter(), http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"code":0,"message":"success","data":{"status":"ok"}}`, w.Body.String())
}

func TestRunTrip(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		body      string
		wantCode  int
		wantSteps int
	}{
		{"request step", "/v1/trip/run", tripBody, http.StatusOK, 4},
		{"query step", "/v1/trip/run?step=300", tripBody, http.StatusOK, 2},
		{"default step", "/v1/trip/run", `{
			"trip_input": {"start_md": 1000, "end_md": 700, "base_mud_density_kgpm3": 1200, "target_esd_kgpm3": 1200},
			"geometry": {
				"hole": [{"top_md": 0, "bottom_md": 1000, "id": 0.2159}],
				"string": [{"top_md": 0, "bottom_md": 1000, "od": 0.127, "id": 0.1086}]
			}
		}`, http.StatusOK, 3},
		{"bad query step", "/v1/trip/run?step=abc", tripBody, http.StatusBadRequest, 0},
		{"malformed body", "/v1/trip/run", `{"trip_input":`, http.StatusBadRequest, 0},
		{"invalid input", "/v1/trip/run", `{"trip_input": {"start_md": 10, "step_m": 5}}`, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, newRouter(), http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.wantCode, w.Code, w.Body.String())

			var resp tripEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			if tt.wantCode != http.StatusOK {
				assert.NotZero(t, resp.Code)
				return
			}
			assert.Zero(t, resp.Code)
			assert.NotEmpty(t, resp.Data.RunID)
			assert.Len(t, resp.Data.Steps, tt.wantSteps)
			assert.Equal(t, 700.0, resp.Data.Steps[len(resp.Data.Steps)-1].BitMD)
		})
	}
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		name    string
		origins []string
		want    string
	}{
		{"any origin", []string{"*"}, "*"},
		{"listed origin", []string{"http://rig.example"}, "http://rig.example"},
		{"disabled", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRouter(NewHandler(config.EngineConfig{}, nil), tt.origins)
			req := httptest.NewRequest(http.MethodGet, "/v1/health", nil)
			req.Header.Set("Origin", "http://rig.example")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestSetEngineConfig(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(config.EngineConfig{DefaultStep: 150}, nil)
	r := NewRouter(h, nil)
	body := `{
		"trip_input": {"start_md": 1000, "end_md": 700, "base_mud_density_kgpm3": 1200, "target_esd_kgpm3": 1200},
		"geometry": {
			"hole": [{"top_md": 0, "bottom_md": 1000, "id": 0.2159}],
			"string": [{"top_md": 0, "bottom_md": 1000, "od": 0.127, "id": 0.1086}]
		}
	}`
	h.SetEngineConfig(config.EngineConfig{DefaultStep: 300})

	w := do(t, r, http.MethodPost, "/v1/trip/run", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp tripEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data.Steps, 2)
}

func TestRunTripMsgPack(t *testing.T) {
	w := do(t, newRouter(), http.MethodPost, "/v1/trip/run?format=msgpack", tripBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/x-msgpack", w.Header().Get("Content-Type"))

	var resp map[string]any
	require.NoError(t, msgpack.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp["message"])
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data, "run_id")
	assert.Len(t, data["steps"], 4)
}

func TestOptimize(t *testing.T) {
	r := newRouter()

	w := do(t, r, http.MethodPost, "/v1/optimizer", fmtBody("1.5"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var ok struct {
		Data optimizer.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ok))
	assert.InDelta(t, 1250, ok.Data.ESDAtControl, 1e-6)

	w = do(t, r, http.MethodPost, "/v1/optimizer", fmtBody("100"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), `"code":10003`)

	w = do(t, r, http.MethodPost, "/v1/optimizer", `{"optimizer_input": {}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func fmtBody(slug string) string {
	return fmt.Sprintf(optimizerBody, slug)
}

func TestSnapshotRoutes(t *testing.T) {
	r := newRouter()

	w := do(t, r, http.MethodPost, "/v1/snapshot", tripBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var taken struct {
		Data snapshot.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &taken))
	frozen := taken.Data
	assert.NotEmpty(t, frozen.ID)
	assert.Len(t, frozen.Stations, 2)
	require.Len(t, frozen.Muds, 1)

	w = do(t, r, http.MethodPost, "/v1/snapshot", `{"trip_input": {}, "geometry": {"hole": []}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":10002`)

	current := frozen
	current.Muds = append([]fluid.Mud(nil), frozen.Muds...)
	current.Muds[0].Density = 1300

	body, err := json.Marshal(diffRequest{Frozen: frozen, Current: current})
	require.NoError(t, err)
	w = do(t, r, http.MethodPost, "/v1/snapshot/diff", string(body))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var diff struct {
		Data diffResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &diff))
	assert.True(t, diff.Data.Stale)
	require.Len(t, diff.Data.Changes, 1)
	assert.Equal(t, snapshot.ChangeMud, diff.Data.Changes[0].Kind)
}

func TestRunTripZeroStep(t *testing.T) {
	body := `{
		"trip_input": {"start_md": 1000, "end_md": 700, "step_m": 0, "base_mud_density_kgpm3": 1200, "target_esd_kgpm3": 1200},
		"geometry": {
			"hole": [{"top_md": 0, "bottom_md": 1000, "id": 0.2159}],
			"string": [{"top_md": 0, "bottom_md": 1000, "od": 0.127, "id": 0.1086}]
		}
	}`
	w := do(t, newRouter(), http.MethodPost, "/v1/trip/run", body)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

	var resp tripEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int(errInvalidInput), resp.Code)
	assert.Contains(t, resp.Message, "step_m")
}
