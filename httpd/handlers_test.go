package httpd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Irene-123/talk-to-your-pc-mcp-server/llm"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/tool"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTools struct {
	callResult string
	callErr    error
	queryErr   error
	events     []tool.Event
	gotTool    string
	gotInput   string
}

func (f *fakeTools) Descriptors() []tool.Descriptor {
	return []tool.Descriptor{
		{Name: "run_diagnosis", Description: "diagnose", InputSchema: map[string]interface{}{"type": "object"}},
		{Name: "get_pc_settings", Description: "settings", InputSchema: map[string]interface{}{"type": "object"}},
	}
}

func (f *fakeTools) Names() []string { return []string{"run_diagnosis", "get_pc_settings"} }

func (f *fakeTools) Call(_ context.Context, name, input string) (string, error) {
	f.gotTool, f.gotInput = name, input
	if name == "nope" {
		return "", fmt.Errorf("%w: %s", tool.ErrUnknownTool, name)
	}
	return f.callResult, f.callErr
}

func (f *fakeTools) Stream(_ context.Context, name, input string, emit func(tool.Event)) {
	f.gotTool, f.gotInput = name, input
	for _, ev := range f.events {
		emit(ev)
	}
}

func (f *fakeTools) Query(_ context.Context, system, user string) (string, error) {
	if f.queryErr != nil {
		return "", f.queryErr
	}
	return "echo: " + user, nil
}

func newTestServer(ft *fakeTools) *Server {
	s := New(Config{Version: "0.1.0"})
	if ft != nil {
		s.SetTools(ft)
	}
	return s
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := doRequest(newTestServer(&fakeTools{}), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "talk-to-your-pc-mcp", resp.Server)
	assert.Equal(t, "0.1.0", resp.Version)
	assert.NotEmpty(t, resp.Timestamp)
	assert.Equal(t, []string{"run_diagnosis", "get_pc_settings"}, resp.AvailableTools)
}

func TestHealth_DoesNotNeedToolRuntime(t *testing.T) {
	rec := doRequest(newTestServer(nil), http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Empty(t, resp.AvailableTools)
}

func TestHealth_UnknownPath(t *testing.T) {
	rec := doRequest(newTestServer(&fakeTools{}), http.MethodGet, "/nothing/here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	rec := doRequest(newTestServer(&fakeTools{}), http.MethodPost, "/", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListTools(t *testing.T) {
	rec := doRequest(newTestServer(&fakeTools{}), http.MethodGet, "/mcp/tools", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp toolsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tools, 2)
	assert.Equal(t, "run_diagnosis", resp.Tools[0].Name)
	assert.NotNil(t, resp.Tools[0].InputSchema)
}

func TestCallTool(t *testing.T) {
	ft := &fakeTools{callResult: "disk is fine"}
	rec := doRequest(newTestServer(ft), http.MethodPost, "/mcp/tools/call",
		`{"tool": "run_diagnosis", "input_text": "is my disk full?"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "disk is fine", resp.Result)
	assert.Equal(t, "run_diagnosis", resp.Tool)
	assert.Equal(t, "is my disk full?", resp.InputText)
	assert.NotEmpty(t, resp.Timestamp)
	assert.Equal(t, "is my disk full?", ft.gotInput)
}

func TestCallTool_UnknownTool(t *testing.T) {
	rec := doRequest(newTestServer(&fakeTools{}), http.MethodPost, "/mcp/tools/call",
		`{"tool": "nope", "input_text": "hi"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "Unknown tool")
}

func TestCallTool_ExecutionFailure(t *testing.T) {
	ft := &fakeTools{callErr: llm.ErrNoClient}
	rec := doRequest(newTestServer(ft), http.MethodPost, "/mcp/tools/call",
		`{"tool": "run_diagnosis", "input_text": "hi"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "Tool execution failed")
}

func TestCallTool_BadRequests(t *testing.T) {
	s := newTestServer(&fakeTools{})

	rec := doRequest(s, http.MethodPost, "/mcp/tools/call", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, http.MethodPost, "/mcp/tools/call", `{"tool": "run_diagnosis"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(s, http.MethodGet, "/mcp/tools/call", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCallTool_RuntimeNotReady(t *testing.T) {
	// until the manager installs a runtime the server stays up but
	// refuses tool calls instead of serving under default settings
	s := newTestServer(nil)

	rec := doRequest(s, http.MethodPost, "/mcp/tools/call", `{"tool": "run_diagnosis", "input_text": "check disk"}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "tool runtime not ready")
}

func TestBatch(t *testing.T) {
	ft := &fakeTools{callResult: "done"}
	rec := doRequest(newTestServer(ft), http.MethodPost, "/mcp/tools/batch",
		`[{"tool": "run_diagnosis", "input_text": "a"}, {"tool": "nope", "input_text": "b"}]`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)

	assert.Equal(t, "done", resp.Results[0].Result)
	assert.Empty(t, resp.Results[0].Error)
	assert.Empty(t, resp.Results[1].Result)
	assert.Contains(t, resp.Results[1].Error, "unknown tool")
	assert.NotEmpty(t, resp.Results[1].Timestamp)
}

func TestLLMQuery(t *testing.T) {
	rec := doRequest(newTestServer(&fakeTools{}), http.MethodPost, "/llm/query",
		`{"system_prompt": "be nice", "user_prompt": "hello"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp llmQueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "echo: hello", resp.Response)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestLLMQuery_NoClient(t *testing.T) {
	ft := &fakeTools{queryErr: llm.ErrNoClient}
	rec := doRequest(newTestServer(ft), http.MethodPost, "/llm/query",
		`{"user_prompt": "hello"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Detail, "LLM query failed")
}

func TestSystemInfo(t *testing.T) {
	rec := doRequest(newTestServer(&fakeTools{}), http.MethodGet, "/system/info", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp, "platform")
	assert.Contains(t, resp, "memory_total")
	assert.Contains(t, resp, "timestamp")
}

func TestCORSPreflight(t *testing.T) {
	rec := doRequest(newTestServer(&fakeTools{}), http.MethodOptions, "/mcp/tools/call", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Methods"))
}
