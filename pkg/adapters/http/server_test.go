package http_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/stategraph/internal/logging"
	"github.com/aretw0/stategraph/internal/testutils"
	httpadapter "github.com/aretw0/stategraph/pkg/adapters/http"
	"github.com/aretw0/stategraph/pkg/adapters/memory"
	"github.com/aretw0/stategraph/pkg/navigator"
	"github.com/aretw0/stategraph/pkg/observability"
	"github.com/aretw0/stategraph/pkg/session"
	"github.com/aretw0/stategraph/pkg/tools"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	g := testutils.MustGraph(t, testutils.SaveScenarioDoc())
	mgr := session.NewManager(memory.NewStore())
	require.NoError(t, mgr.StartWithID(context.Background(), tools.DefaultSessionID, g))

	reg := prometheus.NewRegistry()
	tb := tools.New(navigator.New(g), mgr, tools.WithMetrics(observability.NewMetrics(reg)))
	srv := httptest.NewServer(httpadapter.NewHandler(tb,
		httpadapter.WithLogger(logging.NewNop()),
		httpadapter.WithMetrics(reg),
	))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, srv *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestListTools(t *testing.T) {
	srv := newTestServer(t)

	resp := get(t, srv, "/tools")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []httpadapter.ToolInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 11)
	assert.Equal(t, "find_path", list[0].Name)
	assert.Equal(t, "object", list[0].InputSchema["type"])
	assert.Equal(t, []any{"current_state", "goal"}, list[0].InputSchema["required"])
}

func TestCallTool(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/tools/find_path", `{"current_state":"home","goal":"save"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res struct {
		Text     string `json:"text"`
		NotFound bool   `json:"not_found"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.Contains(t, res.Text, "1. Save file")
	assert.False(t, res.NotFound)
}

func TestCallTool_NotFoundIsAResult(t *testing.T) {
	srv := newTestServer(t)

	resp := post(t, srv, "/tools/remove_state", `{"state_id":"ghost"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res struct {
		NotFound bool `json:"not_found"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	assert.True(t, res.NotFound)
}

func TestCallTool_Errors(t *testing.T) {
	srv := newTestServer(t)

	assert.Equal(t, http.StatusNotFound, post(t, srv, "/tools/teleport", `{}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, post(t, srv, "/tools/find_path", `{"current_state":"home"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, post(t, srv, "/tools/find_path", `not json`).StatusCode)
	assert.Equal(t, http.StatusOK, post(t, srv, "/tools/list_states", ``).StatusCode)
}

func TestGraphEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp := get(t, srv, "/states/home/actions")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var actions []navigator.AvailableAction
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&actions))
	require.Len(t, actions, 2)
	assert.Equal(t, "save_modal_open", actions[0].NextStateID)

	assert.Equal(t, http.StatusNotFound, get(t, srv, "/states/ghost/actions").StatusCode)

	resp = get(t, srv, "/graph")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc struct {
		Graph struct {
			States []struct {
				ID string `json:"id"`
			} `json:"states"`
		} `json:"graph"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Len(t, doc.Graph.States, 3)

	resp = get(t, srv, "/info")
	var info map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	assert.Equal(t, "stategraph-http", info["app"])
	assert.EqualValues(t, 3, info["states"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	post(t, srv, "/tools/list_states", `{}`)

	resp := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	buf := new(strings.Builder)
	_, err := bufio.NewReader(resp.Body).WriteTo(buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `stategraph_tool_calls_total{outcome="ok",tool="list_states"} 1`)
}

func TestSubscribeEvents_ReceivesDiff(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?watch=states", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	readUntil := func(prefix string) string {
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if strings.HasPrefix(line, prefix) {
				return line
			}
		}
	}
	readUntil("data: connected")

	post(t, srv, "/tools/remove_state", `{"state_id":"save_dialog_open"}`)

	readUntil("event: diff")
	line := readUntil("data: ")
	assert.Contains(t, line, `"states_removed":["save_dialog_open"]`)
}
