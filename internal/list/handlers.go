package list

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noah-isme/backend-patungan/internal/common"
	"github.com/noah-isme/backend-patungan/internal/identity"
)

// Handler exposes REST endpoints for shared lists.
type Handler struct {
	Service *Service
}

type createRequest struct {
	Name string `json:"name"`
}

type itemRequest struct {
	Name          string   `json:"name"`
	PriceEstimate *float64 `json:"price_estimate"`
}

type claimRequest struct {
	// UserID lets a member record a claim on behalf of another user. It
	// defaults to the caller when omitted.
	UserID     string  `json:"user_id"`
	Percentage float64 `json:"percentage"`
}

// Create handles POST /api/v1/lists.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity", nil)
		return
	}
	var req createRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	created, err := h.Service.Create(r.Context(), userID, req.Name)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Get handles GET /api/v1/lists/{listID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	listID := chi.URLParam(r, "listID")
	if strings.TrimSpace(listID) == "" {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "list id is required", nil)
		return
	}
	detail, err := h.Service.Get(r.Context(), listID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": detail})
}

// AddItem handles POST /api/v1/lists/{listID}/items.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity", nil)
		return
	}
	var req itemRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	item, err := h.Service.AddItem(r.Context(), userID, chi.URLParam(r, "listID"), ItemInput{
		Name:          req.Name,
		PriceEstimate: req.PriceEstimate,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

// Items handles GET /api/v1/lists/{listID}/items.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	items, err := h.Service.Items(r.Context(), chi.URLParam(r, "listID"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// AddClaim handles POST /api/v1/lists/{listID}/items/{itemID}/claims.
func (h *Handler) AddClaim(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity", nil)
		return
	}
	var req claimRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request payload", nil)
		return
	}
	claimUser := userID
	if strings.TrimSpace(req.UserID) != "" {
		parsed, err := uuid.Parse(req.UserID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "INVALID_USER_ID", "user_id must be a UUID", nil)
			return
		}
		claimUser = parsed
	}
	claim, err := h.Service.AddClaim(r.Context(), claimUser, chi.URLParam(r, "listID"), chi.URLParam(r, "itemID"), ClaimInput{
		Percentage: req.Percentage,
	})
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": claim})
}

// Lock handles POST /api/v1/lists/{listID}/lock.
func (h *Handler) Lock(w http.ResponseWriter, r *http.Request) {
	userID, ok := identity.UserIDFromContext(r.Context())
	if !ok {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing identity", nil)
		return
	}
	locked, err := h.Service.Lock(r.Context(), userID, chi.URLParam(r, "listID"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": locked})
}
