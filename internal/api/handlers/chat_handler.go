package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/markdave123-py/Paperlens/internal/core"
	"github.com/markdave123-py/Paperlens/internal/models"
)

// Asker runs the synchronous report pipeline.
type Asker interface {
	Ask(ctx context.Context, ref models.SourceRef, question string) (*models.Report, error)
}

// StreamStarter starts a streaming generation session.
type StreamStarter interface {
	StartStream(ctx context.Context, ref models.SourceRef, sessionID string) (string, error)
}

type ChatHandler struct {
	asker    Asker
	streamer StreamStarter
	logger   *zap.Logger
}

func NewChatHandler(asker Asker, streamer StreamStarter, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{asker: asker, streamer: streamer, logger: logger}
}

type AskRequest struct {
	SourceType   string `json:"sourceType"`
	SourceID     int64  `json:"sourceId"`
	UserQuestion string `json:"userQuestion"`
}

type StreamRequest struct {
	SourceType string `json:"sourceType"`
	SourceID   int64  `json:"sourceId"`
	SessionID  string `json:"sessionId,omitempty"`
}

type StreamResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// Ask answers a question about a paper or blog and returns the stored report.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	ref, err := sourceRef(req.SourceType, req.SourceID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(req.UserQuestion) == "" {
		writeError(w, h.logger, fmt.Errorf("%w: userQuestion is required", core.ErrInvalidInput))
		return
	}

	report, err := h.asker.Ask(r.Context(), ref, req.UserQuestion)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// Stream acknowledges a streaming session; chunks arrive on the websocket.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req StreamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	ref, err := sourceRef(req.SourceType, req.SourceID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	id, err := h.streamer.StartStream(r.Context(), ref, req.SessionID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, StreamResponse{Message: "Streaming started", SessionID: id})
}

func sourceRef(sourceType string, id int64) (models.SourceRef, error) {
	t, err := models.ParseSourceType(sourceType)
	if err != nil {
		return models.SourceRef{}, fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	if id < 1 {
		return models.SourceRef{}, fmt.Errorf("%w: sourceId must be positive", core.ErrInvalidInput)
	}
	return models.SourceRef{Type: t, ID: id}, nil
}
