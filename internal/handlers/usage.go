package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/swift-sage/internal/response"
)

type usageHandlers struct {
	ResponseHandler response.ResponseHandler
	UsageSvc        UsageService
}

func NewUsageHandlers(deps *Deps) *usageHandlers {
	return &usageHandlers{
		ResponseHandler: deps.ResponseHandler,
		UsageSvc:        deps.UsageSvc,
	}
}

func (h *usageHandlers) UsageRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Snapshot)
	r.Post("/reset", h.Reset)
	return r
}

func (h *usageHandlers) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.UsageSvc.Snapshot(r.Context())
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, snap)
}

func (h *usageHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.UsageSvc.Reset(r.Context()); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	snap, err := h.UsageSvc.Snapshot(r.Context())
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, snap)
}
