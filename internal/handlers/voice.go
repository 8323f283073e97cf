package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/internal/errs"
	"github.com/GregMSThompson/swift-sage/internal/response"
)

const (
	defaultMaxUploadBytes = 25 << 20
	// multipart parts beyond this are spooled to disk
	formMemoryBytes = 8 << 20
)

type voiceHandlers struct {
	ResponseHandler response.ResponseHandler
	VoiceSvc        VoiceService
	MaxUploadBytes  int64
}

func NewVoiceHandlers(deps *Deps) *voiceHandlers {
	limit := deps.MaxUploadBytes
	if limit <= 0 {
		limit = defaultMaxUploadBytes
	}
	return &voiceHandlers{
		ResponseHandler: deps.ResponseHandler,
		VoiceSvc:        deps.VoiceSvc,
		MaxUploadBytes:  limit,
	}
}

func (h *voiceHandlers) VoiceRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Command)
	return r
}

func (h *voiceHandlers) Command(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(formMemoryBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.ResponseHandler.HandleError(w, r, errs.NewValidationError(fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit)))
			return
		}
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("request must be multipart form data"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := parseVoiceRequest(r)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	if closer, ok := req.Input.Audio.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	result, err := h.VoiceSvc.Process(r.Context(), req)
	if err != nil {
		h.ResponseHandler.HandleVoiceError(w, r, result, err)
		return
	}

	h.ResponseHandler.WriteVoice(w, r, result)
}

func parseVoiceRequest(r *http.Request) (dto.VoiceRequest, error) {
	req := dto.VoiceRequest{
		Providers: dto.ProviderChoice{
			LLM: dto.LLMProvider(strings.ToLower(strings.TrimSpace(r.FormValue("llmProvider")))),
			TTS: dto.TTSProvider(strings.ToLower(strings.TrimSpace(r.FormValue("ttsProvider")))),
		},
		Client: dto.ClientContext{
			City:     r.Header.Get("X-Client-City"),
			Region:   r.Header.Get("X-Client-Region"),
			Country:  r.Header.Get("X-Client-Country"),
			TimeZone: r.Header.Get("X-Client-Timezone"),
		},
	}
	if req.Providers.TTS == "" && strings.EqualFold(r.FormValue("useWebSpeech"), "false") {
		req.Providers.TTS = dto.TTSCartesia
	}

	for i, raw := range r.MultipartForm.Value["message"] {
		var wire dto.WireMessage
		if err := json.Unmarshal([]byte(raw), &wire); err != nil {
			return req, errs.NewValidationError(fmt.Sprintf("message %d is not valid JSON", i))
		}
		req.History = append(req.History, wire.ChatMessage())
	}

	if files := r.MultipartForm.File["input"]; len(files) > 0 {
		file, err := files[0].Open()
		if err != nil {
			return req, errs.NewInvalidAudioError("Invalid audio", err)
		}
		req.Input = dto.UserInput{Audio: file, Filename: files[0].Filename}
		return req, nil
	}

	values := r.MultipartForm.Value["input"]
	if len(values) == 0 {
		return req, errs.NewValidationError("input is required")
	}
	req.Input = dto.UserInput{Text: values[0]}
	return req, nil
}
