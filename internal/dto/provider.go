package dto

type LLMProvider string

const (
	LLMGroq   LLMProvider = "groq"
	LLMOpenAI LLMProvider = "openai"
	LLMGemini LLMProvider = "gemini"
)

type TTSProvider string

const (
	TTSWebSpeech TTSProvider = "webspeech"
	TTSCartesia  TTSProvider = "cartesia"
	TTSOpenAI    TTSProvider = "openai-tts"
)

// ProviderChoice selects the language and speech backends for one request.
// The zero value is not usable; start from DefaultProviderChoice.
type ProviderChoice struct {
	LLM LLMProvider
	TTS TTSProvider
}

func DefaultProviderChoice() ProviderChoice {
	return ProviderChoice{LLM: LLMGroq, TTS: TTSWebSpeech}
}

var LLMProviders = []LLMProvider{LLMGroq, LLMOpenAI, LLMGemini}

var TTSProviders = []TTSProvider{TTSWebSpeech, TTSCartesia, TTSOpenAI}
