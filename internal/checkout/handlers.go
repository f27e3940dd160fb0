package checkout

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-patungan/internal/common"
)

// Handler exposes REST endpoints for checkout.
type Handler struct {
	Svc *Service
}

// Split handles POST /api/v1/checkout/split.
func (h *Handler) Split(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	var payload Input
	if err := common.DecodeJSON(r, &payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if strings.TrimSpace(payload.ListID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "list_id is required", nil)
		return
	}
	out, err := h.Svc.Split(r.Context(), payload)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

// Mock handles POST /api/v1/checkout/mock/{listID}.
func (h *Handler) Mock(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return
	}
	listID := chi.URLParam(r, "listID")
	if strings.TrimSpace(listID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "list id is required", nil)
		return
	}
	out, err := h.Svc.Mock(r.Context(), listID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}
