package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port     string
	LogLevel string

	ProjectID   string
	Region      string
	VertexModel string
	KMSKeyName  string

	GroqAPIKey         string
	GroqBaseURL        string
	GroqModel          string
	TranscriptionModel string

	OpenAIAPIKey   string
	OpenAIBaseURL  string
	OpenAIModel    string
	OpenAITTSModel string
	OpenAITTSVoice string

	CartesiaAPIKey  string
	CartesiaBaseURL string
	CartesiaModel   string
	CartesiaVoiceID string

	TodoistAPIKey  string
	TodoistBaseURL string

	UsageStore   string
	AuthRequired bool

	ProviderTimeout  time.Duration
	ToolTimeout      time.Duration
	SynthesisTimeout time.Duration
	UsageTimeout     time.Duration
	MaxUploadBytes   int64
}

func New() *Config {
	return &Config{
		Port:     getOr("PORT", "8080"),
		LogLevel: os.Getenv("LOGLEVEL"),

		ProjectID:   os.Getenv("PROJECTID"),
		Region:      getOr("REGION", "us-central1"),
		VertexModel: os.Getenv("VERTEXMODEL"),
		KMSKeyName:  os.Getenv("KMSKEYNAME"),

		GroqAPIKey:         os.Getenv("GROQAPIKEY"),
		GroqBaseURL:        os.Getenv("GROQBASEURL"),
		GroqModel:          getOr("GROQMODEL", "llama-3.1-8b-instant"),
		TranscriptionModel: getOr("TRANSCRIPTIONMODEL", "whisper-large-v3"),

		OpenAIAPIKey:   os.Getenv("OPENAIAPIKEY"),
		OpenAIBaseURL:  os.Getenv("OPENAIBASEURL"),
		OpenAIModel:    getOr("OPENAIMODEL", "gpt-4o-mini"),
		OpenAITTSModel: getOr("OPENAITTSMODEL", "gpt-4o-mini-tts"),
		OpenAITTSVoice: getOr("OPENAITTSVOICE", "alloy"),

		CartesiaAPIKey:  os.Getenv("CARTESIAAPIKEY"),
		CartesiaBaseURL: os.Getenv("CARTESIABASEURL"),
		CartesiaModel:   getOr("CARTESIAMODEL", "sonic-english"),
		CartesiaVoiceID: os.Getenv("CARTESIAVOICEID"),

		TodoistAPIKey:  os.Getenv("TODOISTAPIKEY"),
		TodoistBaseURL: os.Getenv("TODOISTBASEURL"),

		UsageStore:   strings.ToLower(getOr("USAGESTORE", "memory")),
		AuthRequired: getBool("AUTHREQUIRED", false),

		ProviderTimeout:  getDuration("PROVIDERTIMEOUT", 30*time.Second),
		ToolTimeout:      getDuration("TOOLTIMEOUT", 10*time.Second),
		SynthesisTimeout: getDuration("SYNTHESISTIMEOUT", 60*time.Second),
		UsageTimeout:     getDuration("USAGETIMEOUT", 5*time.Second),
		MaxUploadBytes:   getInt64("MAXUPLOADBYTES", 25<<20),
	}
}

func getOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return fallback
	}
	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getInt64(key string, fallback int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(os.Getenv(key)), 10, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
