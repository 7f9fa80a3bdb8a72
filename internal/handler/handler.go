// Package handler serves the JSON API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dukerupert/barakah/internal/tracker"
)

func parseIDParam(r *http.Request) (int64, error) {
	return parsePathID(r, "id")
}

func parsePathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.PathValue(name), 10, 64)
}

// parseQueryID reads a required positive integer query parameter.
func parseQueryID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseQueryBool reads an optional boolean query parameter.
func parseQueryBool(r *http.Request, name string, def bool) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps tracker errors to a status code. Anything unrecognised is
// reported as a 500 with a generic message.
func writeError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, tracker.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, tracker.ErrInvalidArgument):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, tracker.ErrConflict):
		writeMessage(w, http.StatusConflict, err.Error())
	default:
		writeMessage(w, http.StatusInternalServerError, fallback)
	}
}
