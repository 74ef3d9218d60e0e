package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/markdave123-py/Paperlens/internal/core"
)

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrSourceNotFound), errors.Is(err, core.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrFileMissing):
		return http.StatusConflict
	case errors.Is(err, core.ErrExtraction):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrGeneration):
		return http.StatusBadGateway
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := StatusFor(err)
	kind := core.ErrorKind(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
		msg = "internal server error"
	} else {
		logger.Info("request rejected", zap.String("kind", kind), zap.Error(err))
	}
	writeJSON(w, status, errorBody{Error: msg, Kind: kind})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %w", core.ErrInvalidInput, err)
	}
	return nil
}
