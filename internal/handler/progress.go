package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/barakah/internal/tracker"
)

type ProgressHandler struct {
	tracker *tracker.Service
	logger  *slog.Logger
}

func NewProgressHandler(t *tracker.Service, logger *slog.Logger) *ProgressHandler {
	return &ProgressHandler{tracker: t, logger: logger}
}

func (h *ProgressHandler) FamilyProgress(w http.ResponseWriter, r *http.Request) {
	familyID, err := parsePathID(r, "familyId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid family id")
		return
	}

	snap, err := h.tracker.FamilySnapshot(r.Context(), familyID, r.URL.Query().Get("entry_date"))
	if err != nil {
		h.logFailure("family progress", err)
		writeError(w, err, "failed to get family progress")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *ProgressHandler) MonthlyStats(w http.ResponseWriter, r *http.Request) {
	familyID, err := parsePathID(r, "familyId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid family id")
		return
	}

	stats, err := h.tracker.MonthlyCalendar(r.Context(), familyID, r.URL.Query().Get("month"))
	if err != nil {
		h.logFailure("monthly stats", err)
		writeError(w, err, "failed to get monthly stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *ProgressHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	familyID, err := parsePathID(r, "familyId")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid family id")
		return
	}

	board, err := h.tracker.Leaderboard(r.Context(), familyID)
	if err != nil {
		h.logFailure("leaderboard", err)
		writeError(w, err, "failed to get leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, board)
}

func (h *ProgressHandler) logFailure(op string, err error) {
	if isClientError(err) {
		return
	}
	h.logger.Error(op, "error", err)
}

func isClientError(err error) bool {
	return errors.Is(err, tracker.ErrNotFound) ||
		errors.Is(err, tracker.ErrInvalidArgument) ||
		errors.Is(err, tracker.ErrConflict)
}
