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

type FamilyHandler struct {
	familyStore *store.FamilyStore
	memberStore *store.MemberStore
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewFamilyHandler(fs *store.FamilyStore, ms *store.MemberStore, hub *websocket.Hub, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{familyStore: fs, memberStore: ms, hub: hub, logger: logger}
}

func (h *FamilyHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type familyRequest struct {
	Name            string `json:"name"`
	LocationCity    string `json:"location_city"`
	LocationCountry string `json:"location_country"`
	Latitude        string `json:"latitude"`
	Longitude       string `json:"longitude"`
}

func (req familyRequest) family() model.Family {
	return model.Family{
		Name:            strings.TrimSpace(req.Name),
		LocationCity:    strings.TrimSpace(req.LocationCity),
		LocationCountry: strings.TrimSpace(req.LocationCountry),
		Latitude:        strings.TrimSpace(req.Latitude),
		Longitude:       strings.TrimSpace(req.Longitude),
	}
}

func (h *FamilyHandler) List(w http.ResponseWriter, r *http.Request) {
	families, err := h.familyStore.List(r.Context())
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to list families")
		return
	}
	if families == nil {
		families = []model.Family{}
	}
	writeJSON(w, http.StatusOK, families)
}

func (h *FamilyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req familyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	f := req.family()
	if f.Name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}

	exists, err := h.familyStore.NameExists(r.Context(), f.Name, 0)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to check name")
		return
	}
	if exists {
		writeMessage(w, http.StatusConflict, "a family with that name already exists")
		return
	}

	family, err := h.familyStore.Create(r.Context(), f)
	if err != nil {
		h.logger.Error("create family", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to create family")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityFamily, "created", family.ID, nil).ForFamily(family.ID))

	writeJSON(w, http.StatusCreated, family)
}

func (h *FamilyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	family, err := h.familyStore.GetByID(r.Context(), id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to get family")
		return
	}
	if family == nil {
		writeMessage(w, http.StatusNotFound, "family not found")
		return
	}
	writeJSON(w, http.StatusOK, family)
}

func (h *FamilyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.familyStore.GetByID(r.Context(), id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to get family")
		return
	}
	if existing == nil {
		writeMessage(w, http.StatusNotFound, "family not found")
		return
	}

	var req familyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	f := req.family()
	if f.Name == "" {
		f.Name = existing.Name
	}

	exists, err := h.familyStore.NameExists(r.Context(), f.Name, id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to check name")
		return
	}
	if exists {
		writeMessage(w, http.StatusConflict, "a family with that name already exists")
		return
	}

	family, err := h.familyStore.Update(r.Context(), id, f)
	if err != nil {
		h.logger.Error("update family", "id", id, "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to update family")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityFamily, "updated", id, nil).ForFamily(id))

	writeJSON(w, http.StatusOK, family)
}

func (h *FamilyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	existing, err := h.familyStore.GetByID(r.Context(), id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to get family")
		return
	}
	if existing == nil {
		writeMessage(w, http.StatusNotFound, "family not found")
		return
	}

	if err := h.familyStore.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete family", "id", id, "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to delete family")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityFamily, "deleted", id, nil).ForFamily(id))

	w.WriteHeader(http.StatusNoContent)
}

func (h *FamilyHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return
	}

	family, err := h.familyStore.GetByID(r.Context(), id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to get family")
		return
	}
	if family == nil {
		writeMessage(w, http.StatusNotFound, "family not found")
		return
	}

	members, err := h.memberStore.ListByFamily(r.Context(), id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to list members")
		return
	}
	if members == nil {
		members = []model.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}
