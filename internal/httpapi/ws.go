package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/scamscope/scamscope/internal/pipeline"
)

// stageEvent is one progress frame on the analysis websocket.
type stageEvent struct {
	Stage  string `json:"stage"`
	Detail any    `json:"detail,omitempty"`
}

type wsResult struct {
	Stage  string          `json:"stage"`
	Result pipeline.Result `json:"result"`
}

// handleAnalyzeWS runs one analysis per inbound message and streams stage
// events back as the pipeline progresses. Intended for interactive clients
// that want to show work-in-progress rather than wait for the final verdict.
func (s *Server) handleAnalyzeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))

		var req analyzeRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err) {
				return
			}
			_ = writeJSON(conn, stageEvent{Stage: "error", Detail: "invalid message"})
			return
		}

		preq := s.toPipelineRequest(r, req)
		// OnStage fires synchronously inside Analyze, so writes stay
		// single-threaded on this connection.
		preq.OnStage = func(stage string, detail any) {
			_ = writeJSON(conn, stageEvent{Stage: stage, Detail: detail})
		}

		res, err := s.pipeline.Analyze(r.Context(), preq)
		if err != nil {
			_ = writeJSON(conn, stageEvent{Stage: "rejected", Detail: err.Error()})
			continue
		}
		if err := writeJSON(conn, wsResult{Stage: "result", Result: res}); err != nil {
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(v)
}
