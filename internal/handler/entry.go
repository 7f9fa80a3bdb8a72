package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/dukerupert/barakah/internal/model"
	"github.com/dukerupert/barakah/internal/tracker"
)

type EntryHandler struct {
	tracker *tracker.Service
	logger  *slog.Logger
}

func NewEntryHandler(t *tracker.Service, logger *slog.Logger) *EntryHandler {
	return &EntryHandler{tracker: t, logger: logger}
}

// DailyStats serves GET /api/daily-stats/{memberId}?entry_date=YYYY-MM-DD.
// The day's row is created with defaults on first read.
func (h *EntryHandler) DailyStats(w http.ResponseWriter, r *http.Request) {
	memberID, err := parsePathID(r, "memberId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid member id")
		return
	}

	stats, err := h.tracker.DailyStats(r.Context(), memberID, r.URL.Query().Get("entry_date"))
	if err != nil {
		h.logFailure("daily stats", err)
		writeError(w, err, "failed to get daily stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// UpdateEntry serves POST /api/update-entry?member_id=N&entry_date=YYYY-MM-DD.
// Fields absent from the body are left unchanged.
func (h *EntryHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	memberID, ok := parseQueryID(r, "member_id")
	if !ok {
		writeMessage(w, http.StatusBadRequest, "member_id is required")
		return
	}

	var patch model.EntryPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	entry, err := h.tracker.UpdateEntry(r.Context(), memberID, r.URL.Query().Get("entry_date"), patch)
	if err != nil {
		h.logFailure("update entry", err)
		writeError(w, err, "failed to update entry")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *EntryHandler) logFailure(op string, err error) {
	if isClientError(err) {
		return
	}
	h.logger.Error(op, "error", err)
}
