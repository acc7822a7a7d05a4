package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Irene-123/talk-to-your-pc-mcp-server/sysinfo"
	"github.com/Irene-123/talk-to-your-pc-mcp-server/tool"
)

type healthResponse struct {
	Status         string   `json:"status"`
	Server         string   `json:"server"`
	Version        string   `json:"version"`
	Timestamp      string   `json:"timestamp"`
	AvailableTools []string `json:"available_tools"`
}

type toolsResponse struct {
	Tools []tool.Descriptor `json:"tools"`
}

type toolRequest struct {
	Tool      string `json:"tool"`
	InputText string `json:"input_text"`
}

type toolResponse struct {
	Result    string `json:"result"`
	Timestamp string `json:"timestamp"`
	Tool      string `json:"tool"`
	InputText string `json:"input_text"`
}

type batchItem struct {
	Tool      string `json:"tool"`
	InputText string `json:"input_text"`
	Result    string `json:"result,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

type batchResponse struct {
	Results []batchItem `json:"results"`
}

type llmQueryRequest struct {
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
}

type llmQueryResponse struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// errorResponse matches the {"detail": ...} shape of the original API.
type errorResponse struct {
	Detail string `json:"detail"`
}

func now() string { return time.Now().Format(time.RFC3339) }

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, format string, args ...interface{}) {
	writeJSON(w, code, errorResponse{Detail: fmt.Sprintf(format, args...)})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var names []string
	if ts, ok := s.toolService(); ok {
		names = ts.Names()
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "healthy",
		Server:         serverName,
		Version:        s.cfg.Version,
		Timestamp:      now(),
		AvailableTools: names,
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	ts, ok := s.toolService()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "tool runtime not ready")
		return
	}
	writeJSON(w, http.StatusOK, toolsResponse{Tools: ts.Descriptors()})
}

func (s *Server) decodeToolRequest(w http.ResponseWriter, r *http.Request) (*toolRequest, bool) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return nil, false
	}
	var req toolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return nil, false
	}
	if req.InputText == "" {
		writeError(w, http.StatusBadRequest, "input_text is required")
		return nil, false
	}
	return &req, true
}

func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeToolRequest(w, r)
	if !ok {
		return
	}
	ts, ok := s.toolService()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "tool runtime not ready")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	s.log.Info().Str("tool", req.Tool).Msgf("tool call with input: %s", req.InputText)

	result, err := ts.Call(ctx, req.Tool, req.InputText)
	if err != nil {
		if errors.Is(err, tool.ErrUnknownTool) {
			writeError(w, http.StatusBadRequest, "Unknown tool: %s", req.Tool)
			return
		}
		writeError(w, http.StatusInternalServerError, "Tool execution failed: %v", err)
		return
	}

	writeJSON(w, http.StatusOK, toolResponse{
		Result:    result,
		Timestamp: now(),
		Tool:      req.Tool,
		InputText: req.InputText,
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var reqs []toolRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	ts, ok := s.toolService()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "tool runtime not ready")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	results := make([]batchItem, 0, len(reqs))
	for _, req := range reqs {
		item := batchItem{Tool: req.Tool, InputText: req.InputText}
		result, err := ts.Call(ctx, req.Tool, req.InputText)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.Result = result
		}
		item.Timestamp = now()
		results = append(results, item)
	}
	writeJSON(w, http.StatusOK, batchResponse{Results: results})
}

func (s *Server) handleLLMQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req llmQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: %v", err)
		return
	}
	if req.SystemPrompt == "" {
		req.SystemPrompt = "You are a helpful assistant."
	}
	ts, ok := s.toolService()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "tool runtime not ready")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.RequestTimeout)
	defer cancel()

	response, err := ts.Query(ctx, req.SystemPrompt, req.UserPrompt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "LLM query failed: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, llmQueryResponse{Response: response, Timestamp: now()})
}

func (s *Server) handleSystemInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	info, err := sysinfo.Collect(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get system info: %v", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
