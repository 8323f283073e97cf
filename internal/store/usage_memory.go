package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/GregMSThompson/swift-sage/internal/models"
)

// memoryUsageStore keeps counters for the life of the process.
type memoryUsageStore struct {
	mu       sync.Mutex
	counters map[string]models.UsageCounter
	clockNow func() time.Time
}

func NewMemoryUsageStore() *memoryUsageStore {
	return &memoryUsageStore{
		counters: make(map[string]models.UsageCounter),
		clockNow: time.Now,
	}
}

func (s *memoryUsageStore) Increment(ctx context.Context, provider string, cost float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.counters[provider]
	c.Provider = provider
	c.Calls++
	c.Cost += cost
	c.UpdatedAt = s.clockNow()
	s.counters[provider] = c
	return nil
}

func (s *memoryUsageStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters = make(map[string]models.UsageCounter)
	return nil
}

func (s *memoryUsageStore) List(ctx context.Context) ([]models.UsageCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.UsageCounter, 0, len(s.counters))
	for _, c := range s.counters {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out, nil
}
