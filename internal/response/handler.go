package response

import (
	"log/slog"
	"net/http"

	"github.com/GregMSThompson/swift-sage/internal/dto"
)

type ResponseHandler interface {
	WriteSuccess(w http.ResponseWriter, r *http.Request, status int, data any)
	WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string)
	HandleError(w http.ResponseWriter, r *http.Request, err error)
	WriteVoice(w http.ResponseWriter, r *http.Request, result dto.VoiceResult)
	HandleVoiceError(w http.ResponseWriter, r *http.Request, result dto.VoiceResult, err error)
}

type responseHandler struct {
	Log *slog.Logger
}

func New(log *slog.Logger) *responseHandler {
	return &responseHandler{Log: log}
}
