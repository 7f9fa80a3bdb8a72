package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/barakah/internal/model"
	"github.com/dukerupert/barakah/internal/photo"
	"github.com/dukerupert/barakah/internal/store"
	"github.com/dukerupert/barakah/internal/websocket"
)

// multipart overhead allowed on top of photo.MaxSize
const uploadSlack = 1 << 20

type MemberHandler struct {
	memberStore *store.MemberStore
	familyStore *store.FamilyStore
	photos      photo.Storage
	hub         *websocket.Hub
	logger      *slog.Logger
}

func NewMemberHandler(ms *store.MemberStore, fs *store.FamilyStore, photos photo.Storage, hub *websocket.Hub, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{memberStore: ms, familyStore: fs, photos: photos, hub: hub, logger: logger}
}

func (h *MemberHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

type memberRequest struct {
	FamilyID int64      `json:"family_id"`
	Name     string     `json:"name"`
	Role     model.Role `json:"role"`
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeMessage(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Role == "" {
		req.Role = model.RoleAdult
	}
	if !req.Role.Valid() {
		writeMessage(w, http.StatusBadRequest, "role must be adult or child")
		return
	}

	family, err := h.familyStore.GetByID(r.Context(), req.FamilyID)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to check family")
		return
	}
	if family == nil {
		writeMessage(w, http.StatusNotFound, "family not found")
		return
	}

	member, err := h.memberStore.Create(r.Context(), req.FamilyID, req.Name, req.Role)
	if err != nil {
		h.logger.Error("create member", "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to create member")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityMember, "created", member.ID, nil).ForFamily(member.FamilyID))

	writeJSON(w, http.StatusCreated, member)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	member, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, member)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req memberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		req.Name = existing.Name
	}
	if req.Role == "" {
		req.Role = existing.Role
	}
	if !req.Role.Valid() {
		writeMessage(w, http.StatusBadRequest, "role must be adult or child")
		return
	}

	member, err := h.memberStore.Update(r.Context(), existing.ID, req.Name, req.Role)
	if err != nil {
		h.logger.Error("update member", "id", existing.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to update member")
		return
	}

	h.broadcast(websocket.NewMessage(websocket.EntityMember, "updated", member.ID, nil).ForFamily(member.FamilyID))

	writeJSON(w, http.StatusOK, member)
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if err := h.memberStore.Delete(r.Context(), existing.ID); err != nil {
		h.logger.Error("delete member", "id", existing.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to delete member")
		return
	}
	h.removePhoto(r, existing.PhotoPath)

	h.broadcast(websocket.NewMessage(websocket.EntityMember, "deleted", existing.ID, nil).ForFamily(existing.FamilyID))

	w.WriteHeader(http.StatusNoContent)
}

// UploadPhoto stores the multipart "file" field as the member's photo and
// removes the one it replaces.
func (h *MemberHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	existing, ok := h.lookup(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, photo.MaxSize+uploadSlack)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeMessage(w, http.StatusBadRequest, photo.ErrTooLarge.Error())
			return
		}
		writeMessage(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()

	path, err := photo.Upload(r.Context(), h.photos, header.Filename, file)
	switch {
	case errors.Is(err, photo.ErrTooLarge), errors.Is(err, photo.ErrUnsupportedType), errors.Is(err, photo.ErrNotImage):
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.logger.Error("upload photo", "member_id", existing.ID, "error", err)
		writeMessage(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	member, err := h.memberStore.SetPhoto(r.Context(), existing.ID, path)
	if err != nil {
		h.logger.Error("set member photo", "member_id", existing.ID, "error", err)
		h.removePhoto(r, path)
		writeMessage(w, http.StatusInternalServerError, "failed to update member")
		return
	}
	if member == nil {
		// deleted while the upload was in flight
		h.removePhoto(r, path)
		writeMessage(w, http.StatusNotFound, "member not found")
		return
	}
	h.removePhoto(r, existing.PhotoPath)

	h.broadcast(websocket.NewMessage(websocket.EntityMember, "updated", member.ID, nil).ForFamily(member.FamilyID))

	writeJSON(w, http.StatusOK, map[string]string{
		"message":    "Photo uploaded successfully",
		"photo_path": path,
	})
}

func (h *MemberHandler) removePhoto(r *http.Request, path string) {
	if path == "" {
		return
	}
	if err := h.photos.Delete(r.Context(), path); err != nil {
		h.logger.Warn("delete photo", "path", path, "error", err)
	}
}

func (h *MemberHandler) lookup(w http.ResponseWriter, r *http.Request) (*model.Member, bool) {
	id, err := parseIDParam(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid id")
		return nil, false
	}

	member, err := h.memberStore.GetByID(r.Context(), id)
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to get member")
		return nil, false
	}
	if member == nil {
		writeMessage(w, http.StatusNotFound, "member not found")
		return nil, false
	}
	return member, true
}
