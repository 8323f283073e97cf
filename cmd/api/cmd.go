package main

import (
	"log/slog"
	"net/http"
	"os"
	_ "time/tzdata"

	"github.com/GregMSThompson/swift-sage/internal/bootstrap"
	cartesiaclient "github.com/GregMSThompson/swift-sage/internal/client/cartesia"
	openaiclient "github.com/GregMSThompson/swift-sage/internal/client/openai"
	todoistclient "github.com/GregMSThompson/swift-sage/internal/client/todoist"
	"github.com/GregMSThompson/swift-sage/internal/config"
	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/internal/handlers"
	"github.com/GregMSThompson/swift-sage/internal/response"
	"github.com/GregMSThompson/swift-sage/internal/router"
	"github.com/GregMSThompson/swift-sage/internal/services"
	"github.com/GregMSThompson/swift-sage/internal/store"
	"github.com/GregMSThompson/swift-sage/internal/tools"
	"github.com/GregMSThompson/swift-sage/pkg/helpers"
)

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	// clients
	models := map[dto.LLMProvider]services.ChatClient{}
	speech := map[dto.TTSProvider]services.SpeechSynthesizer{}
	var groq, openai *openaiclient.Client

	if cfg.GroqAPIKey != "" {
		groq, err = openaiclient.NewClient(string(dto.LLMGroq), cfg.GroqAPIKey,
			openaiclient.WithBaseURL(helpers.FirstNonBlank(cfg.GroqBaseURL, openaiclient.GroqBaseURL)),
			openaiclient.WithChatModel(cfg.GroqModel),
			openaiclient.WithTranscriptionModel(cfg.TranscriptionModel))
		exitOnError("groq client failed", err, bs.Log)
		models[dto.LLMGroq] = groq
	}
	if cfg.OpenAIAPIKey != "" {
		openai, err = openaiclient.NewClient(string(dto.LLMOpenAI), cfg.OpenAIAPIKey,
			openaiclient.WithBaseURL(cfg.OpenAIBaseURL),
			openaiclient.WithChatModel(cfg.OpenAIModel),
			openaiclient.WithSpeechModel(cfg.OpenAITTSModel),
			openaiclient.WithVoice(cfg.OpenAITTSVoice))
		exitOnError("openai client failed", err, bs.Log)
		models[dto.LLMOpenAI] = openai
		speech[dto.TTSOpenAI] = openai
	}
	if bs.VertexAdapter != nil {
		models[dto.LLMGemini] = bs.VertexAdapter
	}
	if cfg.CartesiaAPIKey != "" {
		cartesia, err := cartesiaclient.NewClient(cfg.CartesiaAPIKey,
			cartesiaclient.WithBaseURL(cfg.CartesiaBaseURL),
			cartesiaclient.WithModel(cfg.CartesiaModel),
			cartesiaclient.WithVoiceID(cfg.CartesiaVoiceID))
		exitOnError("cartesia client failed", err, bs.Log)
		speech[dto.TTSCartesia] = cartesia
	}
	todoist, err := todoistclient.NewClient(cfg.TodoistAPIKey, todoistclient.WithBaseURL(cfg.TodoistBaseURL))
	exitOnError("todoist client failed", err, bs.Log)

	// stores
	usage := services.NewUsageTracker(store.NewMemoryUsageStore(), cfg.UsageTimeout)
	if bs.Firestore != nil {
		usage = services.NewUsageTracker(store.NewUsageStore(bs.Firestore), cfg.UsageTimeout)
	}

	// tools
	registry := tools.NewRegistry()
	err = tools.RegisterTodoist(registry, todoist)
	exitOnError("tool registration failed", err, bs.Log)
	executor := tools.NewExecutor(registry, cfg.ToolTimeout)

	// services
	// speech-to-text prefers the free provider
	transcription := services.NewTranscriptionService(nil, cfg.ProviderTimeout)
	switch {
	case groq != nil:
		transcription = services.NewTranscriptionService(groq, cfg.ProviderTimeout)
	case openai != nil:
		transcription = services.NewTranscriptionService(openai, cfg.ProviderTimeout)
	default:
		bs.Log.Warn("no speech-to-text provider configured; audio input disabled")
	}
	conversation := services.NewConversationService(registry, executor, cfg.ProviderTimeout)
	synthesis := services.NewSynthesisService(speech, usage, cfg.SynthesisTimeout)
	voice := services.NewVoiceService(transcription, conversation, synthesis, usage, models)

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.Firebase = bs.Firebase
	deps.AuthRequired = cfg.AuthRequired
	deps.MaxUploadBytes = cfg.MaxUploadBytes
	deps.VoiceSvc = voice
	deps.UsageSvc = usage

	// router
	r := router.NewRouter(deps)
	bs.Log.Info("server starting", "port", cfg.Port, "llm_providers", len(models), "tts_providers", len(speech)+1)
	err = http.ListenAndServe(":"+cfg.Port, r)
	exitOnError("server start failed", err, bs.Log)
}
