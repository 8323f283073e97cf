package dto

import "io"

// UserInput is either typed text or an uploaded audio clip. Audio wins when
// both are set.
type UserInput struct {
	Text     string
	Audio    io.Reader
	Filename string
}

func (in UserInput) IsAudio() bool { return in.Audio != nil }

type VoiceRequest struct {
	Input     UserInput
	History   []ChatMessage
	Providers ProviderChoice
	Client    ClientContext
}

type AudioFormat struct {
	Encoding   string
	SampleRate int
}

// SpeechResult is either streamed audio or, for client-side synthesis, the
// reply text itself. Callers must Close Audio when it is set.
type SpeechResult struct {
	Provider TTSProvider
	Text     string
	Audio    io.ReadCloser
	Format   AudioFormat
}

// VoiceResult carries the resolved providers from the start, so failures can
// still report which speech provider was chosen.
type VoiceResult struct {
	Providers  ProviderChoice
	Transcript string
	Reply      string
	Speech     *SpeechResult
}
