// Package gateway exposes an orchestrator over a websocket so GUI shells and
// other local frontends can drive conversations without linking the core in
// process. One connection is one conversation: each gets its own orchestrator
// and session, and frames on a connection are handled strictly in order.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/codes"

	orchestration "github.com/jpcaldeira/aura-core/core"
)

// UtteranceFrame is the only frame a client sends.
type UtteranceFrame struct {
	Utterance string `json:"utterance"`
}

// ResponseFrame mirrors the turn's envelope onto the wire.
type ResponseFrame struct {
	Status      string `json:"status"`
	SpokenText  string `json:"spoken_text"`
	DisplayText string `json:"display_text"`
	Payload     any    `json:"payload,omitempty"`
}

// Server upgrades HTTP requests to websocket conversations. The orchestrator
// factory runs once per connection, so every client starts with fresh
// dialogue state.
type Server struct {
	newOrchestrator func() *orchestration.Orchestrator
	upgrader        websocket.Upgrader
}

func NewServer(newOrchestrator func() *orchestration.Orchestrator) *Server {
	return &Server{
		newOrchestrator: newOrchestrator,
		upgrader:        websocket.Upgrader{},
	}
}

// Handler wraps the server for mounting on an HTTP mux.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s, "conversation")
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err.Error())
		return
	}
	defer conn.Close()

	o := s.newOrchestrator()
	defer o.Close()

	s.serve(r.Context(), conn, o)
}

func (s *Server) serve(ctx context.Context, conn *websocket.Conn, o *orchestration.Orchestrator) {
	for {
		var frame UtteranceFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.WarnContext(ctx, "websocket read failed", "error", err.Error())
			}
			return
		}

		response, err := s.turn(ctx, o, frame.Utterance)
		if err != nil {
			// The turn was cancelled before anything happened; the
			// connection is going away with it.
			return
		}

		if err := conn.WriteJSON(response); err != nil {
			logger.WarnContext(ctx, "websocket write failed", "error", err.Error())
			return
		}
	}
}

func (s *Server) turn(ctx context.Context, o *orchestration.Orchestrator, utterance string) (ResponseFrame, error) {
	ctx, span := tracer.Start(ctx, "gateway turn")
	defer span.End()

	envelope, err := o.Process(ctx, utterance)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ResponseFrame{}, err
	}

	return ResponseFrame{
		Status:      string(envelope.Status),
		SpokenText:  envelope.SpokenText,
		DisplayText: envelope.DisplayText,
		Payload:     envelope.Payload,
	}, nil
}

// DecodeResponse parses one response frame, for clients that read raw
// messages.
func DecodeResponse(data []byte) (ResponseFrame, error) {
	var frame ResponseFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return ResponseFrame{}, fmt.Errorf("malformed response frame: %w", err)
	}
	return frame, nil
}
