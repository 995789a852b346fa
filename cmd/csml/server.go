package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/csml-lang/interpreter/internal/bot"
	"github.com/csml-lang/interpreter/internal/evaluator"
	"github.com/csml-lang/interpreter/internal/extension"
	"github.com/csml-lang/interpreter/internal/health"
	"github.com/csml-lang/interpreter/internal/observe"
	"github.com/csml-lang/interpreter/pkg/stream"
	"github.com/csml-lang/interpreter/pkg/value"
)

// turnRequest is the JSON body of a POST /v1/turns request: the
// conversation's current [value.Context] and the triggering [value.Event],
// per spec.md §6's wire shapes.
type turnRequest struct {
	BotID   string         `json:"bot_id"`
	Context *value.Context `json:"context"`
	Event   *value.Event   `json:"event"`
}

// turnResponse is the JSON body returned for a turn: the (possibly
// mutated) context the caller must persist for the next turn, and this
// turn's message output.
type turnResponse struct {
	Context *value.Context     `json:"context"`
	Message *value.MessageData `json:"message"`
}

// newServer wires the HTTP surface: health/readiness probes, a
// synchronous turn endpoint, and a streaming endpoint that upgrades to a
// WebSocket and forwards [stream.Sender] events as they're produced —
// demonstrating, per spec.md §5/§9, that the evaluator's Sender is
// transport-agnostic.
func newServer(addr string, loader bot.Loader, extensions extension.Host, healthHandler *health.Handler, metrics *observe.Metrics) *http.Server {
	mux := http.NewServeMux()
	healthHandler.Register(mux)
	mux.HandleFunc("POST /v1/turns", turnHandler(loader, extensions, metrics))
	mux.HandleFunc("GET /v1/turns/stream", streamTurnHandler(loader, extensions, metrics))

	return &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// turnHandler drives one bot.Interpret call per request with no streaming
// sink, returning the final context and message in a single response.
func turnHandler(loader bot.Loader, extensions extension.Host, metrics *observe.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req turnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.Context == nil || req.Event == nil {
			httpError(w, http.StatusBadRequest, "context and event are required")
			return
		}

		bundle, err := loader.Load(r.Context(), req.BotID)
		if err != nil {
			httpError(w, http.StatusNotFound, err.Error())
			return
		}

		start := time.Now()
		metrics.ActiveTurns.Add(r.Context(), 1)
		msg := bot.Interpret(r.Context(), bundle, req.Context, req.Event, nil, extensions, metrics)
		metrics.ActiveTurns.Add(r.Context(), -1)
		metrics.TurnDuration.Record(r.Context(), time.Since(start).Seconds())

		if msg.Exit == value.ExitHold {
			metrics.HeldConversations.Add(r.Context(), 1)
		}
		if msg.Exit == value.ExitError {
			metrics.RecordRuntimeError(r.Context(), "RuntimeError")
		}

		writeJSONResponse(w, http.StatusOK, turnResponse{Context: req.Context, Message: msg})
	}
}

// streamTurnHandler drives one bot.Interpret call with a [stream.Sender]
// wired in, forwarding each SenderEvent to the client over a WebSocket
// connection as a JSON text frame, in order, as the turn runs.
func streamTurnHandler(loader bot.Loader, extensions extension.Host, metrics *observe.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req turnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if req.Context == nil || req.Event == nil {
			httpError(w, http.StatusBadRequest, "context and event are required")
			return
		}

		bundle, err := loader.Load(r.Context(), req.BotID)
		if err != nil {
			httpError(w, http.StatusNotFound, err.Error())
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			slog.Error("websocket accept failed", "err", err)
			return
		}
		defer conn.Close(websocket.StatusInternalError, "turn ended unexpectedly")

		ctx := conn.CloseRead(r.Context())
		sender := stream.New()

		done := make(chan struct{})
		go func() {
			defer close(done)
			for ev := range sender.Events() {
				frame, err := json.Marshal(ev)
				if err != nil {
					continue
				}
				if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
					return
				}
			}
		}()

		start := time.Now()
		metrics.ActiveTurns.Add(ctx, 1)
		msg := bot.Interpret(ctx, bundle, req.Context, req.Event, sender, extensions, metrics)
		metrics.ActiveTurns.Add(ctx, -1)
		metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())

		sender.Close()
		<-done

		final, err := json.Marshal(turnResponse{Context: req.Context, Message: msg})
		if err != nil {
			conn.Close(websocket.StatusInternalError, "failed to encode final response")
			return
		}
		_ = conn.Write(ctx, websocket.MessageText, final)
		conn.Close(websocket.StatusNormalClosure, "turn complete")
	}
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSONResponse(w, status, map[string]string{"error": msg})
}

func writeJSONResponse(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

// compile-time check that the Sender used here matches evaluator.Sender.
var _ evaluator.Sender = (*stream.Sender)(nil)
