package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GregMSThompson/swift-sage/internal/dto"
)

type stubUsageService struct {
	snap       dto.UsageSnapshot
	err        error
	resetCalls int
}

func (s *stubUsageService) Snapshot(ctx context.Context) (dto.UsageSnapshot, error) {
	return s.snap, s.err
}

func (s *stubUsageService) Reset(ctx context.Context) error {
	s.resetCalls++
	return s.err
}

func TestUsageSnapshotHandler(t *testing.T) {
	svc := &stubUsageService{snap: dto.UsageSnapshot{TotalCalls: 3, TotalCost: 0.05}}
	resp := &stubResponseHandler{}
	h := NewUsageHandlers(&Deps{ResponseHandler: resp, UsageSvc: svc})
	rr := httptest.NewRecorder()

	h.UsageRoutes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK || !resp.writeSuccessCalled {
		t.Fatalf("expected success, got %d", rr.Code)
	}
	snap, ok := resp.writeSuccessData.(dto.UsageSnapshot)
	if !ok || snap.TotalCalls != 3 {
		t.Fatalf("unexpected data: %#v", resp.writeSuccessData)
	}
}

func TestUsageResetHandler(t *testing.T) {
	svc := &stubUsageService{}
	resp := &stubResponseHandler{}
	h := NewUsageHandlers(&Deps{ResponseHandler: resp, UsageSvc: svc})
	rr := httptest.NewRecorder()

	h.UsageRoutes().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/reset", nil))

	if svc.resetCalls != 1 || !resp.writeSuccessCalled {
		t.Fatalf("expected reset and success response")
	}
}

func TestUsageHandlerError(t *testing.T) {
	svc := &stubUsageService{err: errors.New("store down")}
	resp := &stubResponseHandler{}
	h := NewUsageHandlers(&Deps{ResponseHandler: resp, UsageSvc: svc})
	rr := httptest.NewRecorder()

	h.UsageRoutes().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if !resp.handleErrorCalled || resp.writeSuccessCalled {
		t.Fatalf("expected HandleError")
	}
}
