package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/barakah/internal/model"
	"github.com/dukerupert/barakah/internal/store"
	"github.com/dukerupert/barakah/internal/websocket"
)

type CustomItemHandler struct {
	itemStore   *store.CustomItemStore
	memberStore *store.MemberStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewCustomItemHandler(is *store.CustomItemStore, ms *store.MemberStore, hub *websocket.Hub, logger *slog.Logger) *CustomItemHandler {
	return &CustomItemHandler{itemStore: is, memberStore: ms, hub: hub, logger: logger}
}

// broadcast scopes the message to the family of the item's member.
func (h *CustomItemHandler) broadcast(r *http.Request, action string, item *model.CustomItem) {
	if h.hub == nil {
		return
	}
	msg := websocket.NewMessage(websocket.EntityCustomItem, action, item.ID, map[string]any{"member_id": item.MemberID})
	member, err := h.memberStore.GetByID(r.Context(), item.MemberID)
	if err != nil || member == nil {
		h.logger.Warn("resolve family for broadcast", "member_id", item.MemberID, "error", err)
		return
	}
	h.hub.Broadcast(msg.ForFamily(member.FamilyID))
}

type customItemRequest struct {
	MemberID    int64   `json:"member_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"is_active"`
}

func (h *CustomItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req customItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeMessage(w, http.StatusBadRequest, "title is required")
		return
	}

	member, err := h.memberStore.GetByID(r.Context(), req.MemberID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to check member")
		return
	}
	if member == nil {
		writeMessage(w, http.StatusNotFound, "member not found")
		return
	}

	var desc string
	if req.Description != nil {
		desc = strings.TrimSpace(*req.Description)
	}

	item, err := h.itemStore.Create(r.Context(), member.ID, req.Title, desc)
	if err != nil {
		h.logger.Error("create custom item", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to create custom item")
		return
	}

	h.broadcast(r, "created", item)

	writeJSON(w, http.StatusCreated, item)
}

// List serves GET /api/custom-items?member_id=N, returning every item of
// the member including inactive ones.
func (h *CustomItemHandler) List(w http.ResponseWriter, r *http.Request) {
	memberID, ok := parseQueryID(r, "member_id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "member_id is required")
		return
	}
	h.list(w, r, memberID, false)
}

// ListForMember serves GET /api/members/{id}/custom-items. Only active
// items are returned unless active_only=false.
func (h *CustomItemHandler) ListForMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}
	activeOnly, err := parseQueryBool(r, "active_only", true)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "active_only must be a boolean")
		return
	}
	h.list(w, r, memberID, activeOnly)
}

func (h *CustomItemHandler) list(w http.ResponseWriter, r *http.Request, memberID int64, activeOnly bool) {
	member, err := h.memberStore.GetByID(r.Context(), memberID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to check member")
		return
	}
	if member == nil {
		writeMessage(w, http.StatusNotFound, "member not found")
		return
	}

	items, err := h.itemStore.ListByMember(r.Context(), memberID, activeOnly)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to list custom items")
		return
	}
	if items == nil {
		items = []model.CustomItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *CustomItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req customItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = existing.Title
	}
	desc := existing.Description
	if req.Description != nil {
		desc = strings.TrimSpace(*req.Description)
	}
	active := existing.IsActive
	if req.IsActive != nil {
		active = *req.IsActive
	}

	item, err := h.itemStore.Update(r.Context(), existing.ID, title, desc, active)
	if err != nil {
		h.logger.Error("update custom item", "id", existing.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to update custom item")
		return
	}

	h.broadcast(r, "updated", item)

	writeJSON(w, http.StatusOK, item)
}

// Delete deactivates the item so past entries keep their meaning. With
// hard=true the row is removed.
func (h *CustomItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}
	hard, err := parseQueryBool(r, "hard", false)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "hard must be a boolean")
		return
	}

	if hard {
		err = h.itemStore.Delete(r.Context(), existing.ID)
	} else {
		err = h.itemStore.Deactivate(r.Context(), existing.ID)
	}
	if err != nil {
		h.logger.Error("delete custom item", "id", existing.ID, "hard", hard, "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to delete custom item")
		return
	}

	h.broadcast(r, "deleted", existing)

	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomItemHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.CustomItem, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	item, err := h.itemStore.GetByID(r.Context(), id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to get custom item")
		return nil, false
	}
	if item == nil {
		writeMessage(w, http.StatusNotFound, "custom item not found")
		return nil, false
	}
	return item, true
}
