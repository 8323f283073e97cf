package services

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/internal/errs"
	"github.com/GregMSThompson/swift-sage/pkg/helpers"
)

func TestSynthesizeWebSpeechPassthrough(t *testing.T) {
	usage := &recordingUsage{}
	svc := NewSynthesisService(nil, usage, time.Second)

	res, err := svc.Synthesize(helpers.TestCtx(), "You have 3 tasks.", dto.TTSWebSpeech)
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if res.Audio != nil || res.Text != "You have 3 tasks." || res.Provider != dto.TTSWebSpeech {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(usage.records) != 1 || usage.records[0] != "webspeech" {
		t.Fatalf("usage not recorded: %v", usage.records)
	}
}

func TestSynthesizeStreamsAudio(t *testing.T) {
	synth := &fakeSynthesizer{audio: "pcm-bytes"}
	usage := &recordingUsage{}
	svc := NewSynthesisService(map[dto.TTSProvider]SpeechSynthesizer{dto.TTSCartesia: synth}, usage, time.Second)

	res, err := svc.Synthesize(helpers.TestCtx(), "hello", dto.TTSCartesia)
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	body, err := io.ReadAll(res.Audio)
	if err != nil || string(body) != "pcm-bytes" {
		t.Fatalf("audio mismatch: %q, %v", body, err)
	}
	if res.Format.SampleRate != 24000 {
		t.Fatalf("format not propagated: %+v", res.Format)
	}
	if synth.ctxErr() != nil {
		t.Fatalf("stream context must stay live until Close")
	}
	if err := res.Audio.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	if !errors.Is(synth.ctxErr(), context.Canceled) {
		t.Fatalf("Close should release the synthesis context")
	}
	if len(usage.records) != 1 || usage.records[0] != "cartesia" {
		t.Fatalf("usage not recorded: %v", usage.records)
	}
}

func TestSynthesizeFailure(t *testing.T) {
	synth := &fakeSynthesizer{err: &statusError{code: 500}}
	usage := &recordingUsage{}
	svc := NewSynthesisService(map[dto.TTSProvider]SpeechSynthesizer{dto.TTSOpenAI: synth}, usage, time.Second)

	res, err := svc.Synthesize(helpers.TestCtx(), "hello", dto.TTSOpenAI)

	var se *errs.SynthesisError
	if !errors.As(err, &se) {
		t.Fatalf("expected SynthesisError, got %v", err)
	}
	if se.Message != "Voice synthesis failed" || se.Provider != "openai-tts" || res != nil {
		t.Fatalf("unexpected error: %+v", se)
	}
	// The attempt still counts.
	if len(usage.records) != 1 {
		t.Fatalf("expected usage record for failed call")
	}
}

func TestSynthesizeUnconfiguredProvider(t *testing.T) {
	svc := NewSynthesisService(nil, &recordingUsage{}, time.Second)

	if svc.Supports(dto.TTSCartesia) {
		t.Fatalf("cartesia should not be supported without a client")
	}
	if !svc.Supports(dto.TTSWebSpeech) {
		t.Fatalf("webspeech is always supported")
	}

	_, err := svc.Synthesize(helpers.TestCtx(), "hello", dto.TTSCartesia)
	var ve *errs.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestSynthesizeTimeout(t *testing.T) {
	provider := &blockingProvider{}
	svc := NewSynthesisService(map[dto.TTSProvider]SpeechSynthesizer{dto.TTSCartesia: provider}, &recordingUsage{}, 50*time.Millisecond)

	var (
		res *dto.SpeechResult
		err error
	)
	within(t, 2*time.Second, func() {
		res, err = svc.Synthesize(helpers.TestCtx(), "hello", dto.TTSCartesia)
	})

	var se *errs.SynthesisError
	if !errors.As(err, &se) || se.Provider != "cartesia" || res != nil {
		t.Fatalf("expected cartesia SynthesisError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !provider.hadDeadline() {
		t.Fatalf("synthesis call should carry a deadline")
	}
}
