// Package transport exposes the relay's HTTP handlers.
package transport

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/sensorledger/relay-backend/internal/model"
	"github.com/sensorledger/relay-backend/internal/relay"
)

type (
	// Relayer runs the pipeline for one raw reading payload.
	Relayer interface {
		Handle(ctx context.Context, raw map[string]any) (model.RelayResult, error)
	}
)

// Handler serves the relay's ingress endpoints.
type Handler struct {
	relayer Relayer
	logger  *zap.Logger
}

// NewHandler returns a Handler instance.
func NewHandler(relayer Relayer, logger *zap.Logger) *Handler {
	return &Handler{relayer: relayer, logger: logger}
}

// Router returns the ingress routes.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/", h.health).Methods(http.MethodGet)
	r.HandleFunc("/api/lecturas", h.receiveReading).Methods(http.MethodPost)
	return r
}

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type errorResponse struct {
	Status    string `json:"status"`
	Error     string `json:"error"`
	ErrorKind string `json:"error_kind"`
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "relayer running"})
}

func (h *Handler) receiveReading(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		h.writeError(w, &model.FieldError{Field: "body", Reason: "malformed JSON"})
		return
	}

	result, err := h.relayer.Handle(r.Context(), raw)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := relay.ErrorKind(err)
	h.logger.Warn("request failed", zap.String("error_kind", kind), zap.Error(err))
	writeJSON(w, statusFor(kind), errorResponse{
		Status:    "error",
		Error:     err.Error(),
		ErrorKind: kind,
	})
}

func statusFor(kind string) int {
	switch kind {
	case "validation":
		return http.StatusBadRequest
	case "confirmation_timeout":
		return http.StatusGatewayTimeout
	case "internal":
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
