package services

import (
	"context"
	"time"

	"github.com/GregMSThompson/swift-sage/internal/dto"
	"github.com/GregMSThompson/swift-sage/internal/models"
	"github.com/GregMSThompson/swift-sage/pkg/logger"
)

// unitCost is the estimated USD cost of one call, keyed by provider id.
var unitCost = map[string]float64{
	string(dto.LLMGroq):      0,
	string(dto.LLMOpenAI):    0.015,
	string(dto.LLMGemini):    0.012,
	string(dto.TTSWebSpeech): 0,
	string(dto.TTSCartesia):  0.05,
	string(dto.TTSOpenAI):    0.03,
}

func UnitCost(provider string) float64 {
	return unitCost[provider]
}

type usageStore interface {
	Increment(ctx context.Context, provider string, cost float64) error
	Reset(ctx context.Context) error
	List(ctx context.Context) ([]models.UsageCounter, error)
}

// UsageTracker keeps per-provider call counts and estimated cost. It is
// observational only; failures never affect a request.
type UsageTracker struct {
	store   usageStore
	timeout time.Duration
}

// NewUsageTracker bounds each Record by timeout. Zero means no bound.
func NewUsageTracker(store usageStore, timeout time.Duration) *UsageTracker {
	return &UsageTracker{store: store, timeout: timeout}
}

// Record counts one call. It outlives a cancelled caller but never waits on
// the store for longer than the tracker timeout.
func (t *UsageTracker) Record(ctx context.Context, provider string) {
	ctx = context.WithoutCancel(ctx)
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	if err := t.store.Increment(ctx, provider, UnitCost(provider)); err != nil {
		logger.FromContext(ctx).Warn("usage record failed", "provider", provider, "error", err)
	}
}

func (t *UsageTracker) Reset(ctx context.Context) error {
	if err := t.store.Reset(ctx); err != nil {
		return err
	}
	logger.FromContext(ctx).Info("usage reset")
	return nil
}

// Snapshot lists every known provider, zero-filled, plus any extra provider
// ids found in the store.
func (t *UsageTracker) Snapshot(ctx context.Context) (dto.UsageSnapshot, error) {
	counters, err := t.store.List(ctx)
	if err != nil {
		return dto.UsageSnapshot{}, err
	}

	snap := dto.UsageSnapshot{Providers: make(map[string]dto.UsageEntry, len(unitCost))}
	for provider := range unitCost {
		snap.Providers[provider] = dto.UsageEntry{}
	}
	for _, c := range counters {
		entry := snap.Providers[c.Provider]
		entry.Calls += c.Calls
		entry.Cost += c.Cost
		snap.Providers[c.Provider] = entry
	}
	for _, entry := range snap.Providers {
		snap.TotalCalls += entry.Calls
		snap.TotalCost += entry.Cost
	}
	return snap, nil
}
