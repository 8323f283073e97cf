package services

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/internal/errs"
	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

type speechToText interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

type transcriptionService struct {
	stt     speechToText
	timeout time.Duration
}

// NewTranscriptionService accepts a nil stt, in which case audio input is
// rejected and only typed text works.
func NewTranscriptionService(stt speechToText, timeout time.Duration) *transcriptionService {
	return &transcriptionService{stt: stt, timeout: timeout}
}

// Transcribe turns user input into an utterance. Typed text comes back
// unchanged. Blank text, silence and speech-to-text faults are all reported
// as InvalidAudioError rather than provider faults.
func (s *transcriptionService) Transcribe(ctx context.Context, in dto.UserInput) (string, error) {
	if !in.IsAudio() {
		if strings.TrimSpace(in.Text) == "" {
			return "", errs.NewInvalidAudioError("Invalid input", nil)
		}
		return in.Text, nil
	}

	if s.stt == nil {
		return "", errs.NewValidationError("audio input is not supported: no speech-to-text provider configured")
	}

	log := logger.FromContext(ctx)
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.stt.Transcribe(ctx, in.Audio, in.Filename)
	if err != nil {
		log.Warn("transcription failed", "error", err)
		return "", errs.NewInvalidAudioError("Invalid audio", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.Info("transcription empty")
		return "", errs.NewInvalidAudioError("Invalid audio", nil)
	}
	return text, nil
}
