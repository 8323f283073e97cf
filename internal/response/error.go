package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/GregMSThompson/swift-sage/internal/errs"
	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

// ApologyMessage is shown for provider faults that have no local fallback.
const ApologyMessage = "Sorry, I encountered an error processing your request. Please try again."

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (h *responseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
	}); err != nil {
		log := logger.FromContext(r.Context())
		log.Error("failed to encode error response", "error", err, "status", status, "code", code)
	}
}

func (h *responseHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message := h.classify(r, err)
	h.WriteError(w, r, status, code, message)
}

// classify logs err and picks the status, code and user-safe message for it.
func (h *responseHandler) classify(r *http.Request, err error) (int, string, string) {
	log := logger.FromContext(r.Context())

	var (
		invalidAudio *errs.InvalidAudioError
		validation   *errs.ValidationError
		notFound     *errs.NotFoundError
		synthesis    *errs.SynthesisError
		external     *errs.ExternalServiceError
		database     *errs.DatabaseError
	)

	switch {
	case errors.As(err, &invalidAudio):
		log.Warn("invalid input", "error", err)
		return http.StatusBadRequest, "invalid_audio", invalidAudio.Message

	case errors.As(err, &validation):
		log.Warn("validation failed", "error", validation.Message)
		return http.StatusBadRequest, "invalid_input", validation.Message

	case errors.As(err, &notFound):
		log.Warn("resource not found", "error", notFound.Message)
		return http.StatusNotFound, "not_found", notFound.Message

	case errors.As(err, &synthesis):
		log.Error("synthesis error", "tts_provider", synthesis.Provider, "error", err)
		return http.StatusInternalServerError, "synthesis_failed", synthesis.Message

	case errors.As(err, &external):
		level := slog.LevelError
		status := http.StatusBadGateway
		if external.Transient {
			level = slog.LevelWarn
			status = http.StatusServiceUnavailable
		}
		log.Log(r.Context(), level, "external service error",
			"service", external.Service,
			"transient", external.Transient,
			"error", err)
		return status, "service_unavailable", ApologyMessage

	case errors.As(err, &database):
		log.Error("database error",
			"operation", database.Operation,
			"error", err)
		return http.StatusInternalServerError, "internal_error", "An error occurred"

	default:
		log.Error("unexpected error",
			"error", err,
			"type", fmt.Sprintf("%T", err))
		return http.StatusInternalServerError, "internal_error", "An unexpected error occurred"
	}
}
