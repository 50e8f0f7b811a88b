package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/antoniostano/genesisvoice/internal/catalog"
	"github.com/antoniostano/genesisvoice/internal/generation"
	"github.com/antoniostano/genesisvoice/internal/protocol"
)

const msgLoginRequired = "Please login to generate voice"

type startGenerationRequest struct {
	Text         string   `json:"text"`
	VoiceID      string   `json:"voice_id"`
	Language     string   `json:"language"`
	Style        string   `json:"style,omitempty"`
	Exaggeration *float64 `json:"exaggeration,omitempty"`
	CFGWeight    *float64 `json:"cfg_weight,omitempty"`
}

func (s *Server) handleStartGeneration(w http.ResponseWriter, r *http.Request) {
	var req startGenerationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	genReq := generation.Request{
		Text:         req.Text,
		VoiceID:      req.VoiceID,
		Language:     strings.ToLower(strings.TrimSpace(req.Language)),
		Exaggeration: req.Exaggeration,
		CFGWeight:    req.CFGWeight,
	}
	if style := strings.TrimSpace(req.Style); style != "" {
		preset, ok := catalog.LookupPreset(style)
		if !ok {
			respondError(w, http.StatusBadRequest, "invalid_request", "unknown style "+strconv.Quote(style))
			return
		}
		if genReq.Exaggeration == nil {
			genReq.Exaggeration = &preset.Exaggeration
		}
		if genReq.CFGWeight == nil {
			genReq.CFGWeight = &preset.CFGWeight
		}
	}

	sess := sessionFrom(r)
	h, err := s.workflow.Start(s.runCtx, sess, genReq)
	switch {
	case errors.Is(err, generation.ErrInvalidRequest):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	case errors.Is(err, generation.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", msgLoginRequired)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "generation_start_failed", err.Error())
		return
	}

	s.registry.Add(sess.Namespace(), h)
	respondJSON(w, http.StatusAccepted, h.Snapshot())
}

func (s *Server) handleGetGeneration(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupGeneration(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.Snapshot())
}

func (s *Server) handleCancelGeneration(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	h, err := s.registry.Cancel(sessionFrom(r).Namespace(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "generation_not_found", err.Error())
		return
	}

	// The run reaches its terminal state promptly once cancelled.
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	snap, _ := h.Wait(ctx)
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListGenerations(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	list := s.registry.List(sessionFrom(r).Namespace())
	if len(list) > limit {
		list = list[:limit]
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"generations": list,
	})
}

func (s *Server) lookupGeneration(w http.ResponseWriter, r *http.Request) (*generation.Handle, bool) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		respondError(w, http.StatusBadRequest, "invalid_generation_id", "missing generation id")
		return nil, false
	}
	h, err := s.registry.Get(sessionFrom(r).Namespace(), id)
	if err != nil {
		respondError(w, http.StatusNotFound, "generation_not_found", err.Error())
		return nil, false
	}
	return h, true
}

// handleGenerationWS streams snapshots of one run until it is terminal. The
// browser may send a cancel control message at any time.
func (s *Server) handleGenerationWS(w http.ResponseWriter, r *http.Request) {
	h, ok := s.lookupGeneration(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	s.metrics.SessionEvent("ws_connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	updates, unsubscribe := h.Subscribe()
	defer unsubscribe()
	outbound := make(chan any, 16)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for {
			var msg any
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-updates:
				if !ok {
					s.closeStream(conn)
					cancel()
					return
				}
				msg = protocol.NewGenerationUpdate(snap)
			case msg = <-outbound:
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(msg); err != nil {
				s.metrics.WSMessages.WithLabelValues("outbound", "write_error").Inc()
				cancel()
				return
			}
			if t, ok := messageTypeOf(msg); ok {
				s.metrics.WSMessages.WithLabelValues("outbound", string(t)).Inc()
			}
		}
	}()

	conn.SetReadLimit(64 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for ctx.Err() == nil {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if msgType != websocket.TextMessage {
			continue
		}
		parsed, err := protocol.ParseClientMessage(data)
		if err != nil {
			select {
			case outbound <- protocol.NewErrorEvent(h.ID(), "invalid_client_message", err.Error()):
			default:
				// Keep websocket writes single-threaded; drop if the queue is full.
			}
			continue
		}
		control, ok := parsed.(protocol.ClientControl)
		if !ok {
			continue
		}
		s.metrics.WSMessages.WithLabelValues("inbound", string(control.Type)).Inc()
		switch control.Action {
		case protocol.ActionCancel:
			h.Cancel()
		case protocol.ActionPing:
			select {
			case outbound <- protocol.SystemEvent{Type: protocol.TypeSystemEvent, GenerationID: h.ID(), Code: "pong"}:
			default:
			}
		}
	}

	cancel()
	<-writerDone
	s.metrics.SessionEvent("ws_disconnected")
}

func (s *Server) closeStream(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "generation finished")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	// Give the peer a moment to answer the close before the read loop gives up.
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
}

func messageTypeOf(v any) (protocol.MessageType, bool) {
	switch m := v.(type) {
	case protocol.ClientControl:
		return m.Type, true
	case protocol.GenerationUpdate:
		return m.Type, true
	case protocol.SystemEvent:
		return m.Type, true
	case protocol.ErrorEvent:
		return m.Type, true
	default:
		return "", false
	}
}
