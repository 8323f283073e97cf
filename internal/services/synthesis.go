package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/internal/errs"
	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

// SpeechSynthesizer is one paid speech provider returning a raw PCM stream.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) (io.ReadCloser, dto.AudioFormat, error)
}

type usageRecorder interface {
	Record(ctx context.Context, provider string)
}

type synthesisService struct {
	providers map[dto.TTSProvider]SpeechSynthesizer
	usage     usageRecorder
	timeout   time.Duration
}

func NewSynthesisService(providers map[dto.TTSProvider]SpeechSynthesizer, usage usageRecorder, timeout time.Duration) *synthesisService {
	return &synthesisService{
		providers: providers,
		usage:     usage,
		timeout:   timeout,
	}
}

// Supports reports whether provider can serve this process. Client-side web
// speech needs no configuration.
func (s *synthesisService) Supports(provider dto.TTSProvider) bool {
	if provider == dto.TTSWebSpeech {
		return true
	}
	_, ok := s.providers[provider]
	return ok
}

// Synthesize returns either the text for client-side synthesis or a live
// audio stream. The stream stays bound to the synthesis timeout until it is
// closed. Provider failures are SynthesisErrors with no fallback.
func (s *synthesisService) Synthesize(ctx context.Context, text string, provider dto.TTSProvider) (*dto.SpeechResult, error) {
	log := logger.FromContext(ctx)

	if provider == dto.TTSWebSpeech {
		s.usage.Record(ctx, string(provider))
		return &dto.SpeechResult{Provider: provider, Text: text}, nil
	}

	synth, ok := s.providers[provider]
	if !ok {
		return nil, errs.NewValidationError(fmt.Sprintf("speech provider %q is not available", provider))
	}

	s.usage.Record(ctx, string(provider))

	cancel := context.CancelFunc(func() {})
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	audio, format, err := synth.Synthesize(ctx, text)
	if err != nil {
		cancel()
		log.Error("synthesis failed", "tts_provider", provider, "error", err)
		return nil, errs.NewSynthesisError(string(provider), err)
	}

	return &dto.SpeechResult{
		Provider: provider,
		Text:     text,
		Audio:    &cancelOnClose{ReadCloser: audio, cancel: cancel},
		Format:   format,
	}, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
