package services

import (
	"context"
	"fmt"

	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/internal/errs"
	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

type transcriber interface {
	Transcribe(ctx context.Context, in dto.UserInput) (string, error)
}

type conversationRunner interface {
	Converse(ctx context.Context, provider dto.LLMProvider, client ChatClient, in dto.ConversationInput) (dto.ConversationResult, error)
}

type speechSynthesis interface {
	Supports(provider dto.TTSProvider) bool
	Synthesize(ctx context.Context, text string, provider dto.TTSProvider) (*dto.SpeechResult, error)
}

type voiceService struct {
	transcription transcriber
	conversation  conversationRunner
	synthesis     speechSynthesis
	usage         usageRecorder
	models        map[dto.LLMProvider]ChatClient
}

func NewVoiceService(
	transcription transcriber,
	conversation conversationRunner,
	synthesis speechSynthesis,
	usage usageRecorder,
	models map[dto.LLMProvider]ChatClient,
) *voiceService {
	return &voiceService{
		transcription: transcription,
		conversation:  conversation,
		synthesis:     synthesis,
		usage:         usage,
		models:        models,
	}
}

// Process runs one voice command end to end. The returned result always
// carries whatever was learned before a failure, so callers can still report
// the transcript.
func (s *voiceService) Process(ctx context.Context, req dto.VoiceRequest) (dto.VoiceResult, error) {
	result := dto.VoiceResult{}

	choice := req.Providers
	defaults := dto.DefaultProviderChoice()
	if choice.LLM == "" {
		choice.LLM = defaults.LLM
	}
	if choice.TTS == "" {
		choice.TTS = defaults.TTS
	}
	result.Providers = choice

	client, ok := s.models[choice.LLM]
	if !ok || client == nil {
		return result, errs.NewValidationError(fmt.Sprintf("language provider %q is not available", choice.LLM))
	}
	if !s.synthesis.Supports(choice.TTS) {
		return result, errs.NewValidationError(fmt.Sprintf("speech provider %q is not available", choice.TTS))
	}
	if err := ValidateHistory(req.History); err != nil {
		return result, err
	}

	log, ctx := logger.With(ctx, "llm_provider", choice.LLM, "tts_provider", choice.TTS)

	transcript, err := s.transcription.Transcribe(ctx, req.Input)
	if err != nil {
		return result, err
	}
	result.Transcript = transcript
	log.Info("utterance received", "audio", req.Input.IsAudio(), "chars", len(transcript))

	s.usage.Record(ctx, string(choice.LLM))

	conv, err := s.conversation.Converse(ctx, choice.LLM, client, dto.ConversationInput{
		Utterance: transcript,
		History:   req.History,
		Client:    req.Client,
	})
	if err != nil {
		return result, err
	}
	result.Reply = conv.Reply

	speech, err := s.synthesis.Synthesize(ctx, conv.Reply, choice.TTS)
	if err != nil {
		return result, err
	}
	result.Speech = speech

	log.Info("voice command processed",
		"tools", len(conv.Executions),
		"provider_calls", conv.ProviderCalls,
		"streamed", speech.Audio != nil)
	return result, nil
}
