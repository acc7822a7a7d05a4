package httpd

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Irene-123/talk-to-your-pc-mcp-server/tool"
)

// handleStreamTool executes a tool and reports progress as server-sent
// events, one JSON object per frame.
func (s *Server) handleStreamTool(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeToolRequest(w, r)
	if !ok {
		return
	}
	ts, ok := s.toolService()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "tool runtime not ready")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	emit := func(ev tool.Event) {
		payload, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Fprintf(w, "data: %s\n\n", payload)
		flusher.Flush()
	}

	ts.Stream(r.Context(), req.Tool, req.InputText, emit)
}
