package handlers

import (
	"context"
	"log/slog"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/internal/response"
)

type VoiceService interface {
	Process(ctx context.Context, req dto.VoiceRequest) (dto.VoiceResult, error)
}

type UsageService interface {
	Snapshot(ctx context.Context) (dto.UsageSnapshot, error)
	Reset(ctx context.Context) error
}

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	VoiceSvc        VoiceService
	UsageSvc        UsageService
	Firebase        *auth.Client
	AuthRequired    bool
	MaxUploadBytes  int64
}
