package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dukerupert/barakah/internal/prayertimes"
)

type PrayerTimesHandler struct {
	service *prayertimes.Service
	today   func() string
}

func NewPrayerTimesHandler(s *prayertimes.Service, today func() string) *PrayerTimesHandler {
	return &PrayerTimesHandler{service: s, today: today}
}

// Get serves GET /api/prayer-times?entry_date&city&country&latitude&longitude.
// Without a usable location the Mecca default is used.
func (h *PrayerTimesHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("entry_date")
	if date == "" {
		date = h.today()
	}
	loc := prayertimes.Location{
		City:      strings.TrimSpace(q.Get("city")),
		Country:   strings.TrimSpace(q.Get("country")),
		Latitude:  strings.TrimSpace(q.Get("latitude")),
		Longitude: strings.TrimSpace(q.Get("longitude")),
	}

	pt, err := h.service.Times(r.Context(), date, loc)
	if errors.Is(err, prayertimes.ErrInvalidDate) {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeMessage(w, http.StatusInternalServerError, "failed to get prayer times")
		return
	}
	writeJSON(w, http.StatusOK, pt)
}
