// Package prayertimes looks up daily prayer times from the Aladhan API,
// caching results per date and location.
package prayertimes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/barakah/internal/model"
)

const DefaultBaseURL = "http://api.aladhan.com/v1"

const defaultLocationKey = "default_mecca_saudi_arabia"

var ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

// Location identifies where times are computed. City and country take
// precedence over coordinates; with neither, Mecca is used.
type Location struct {
	City      string
	Country   string
	Latitude  string
	Longitude string
}

func FamilyLocation(f model.Family) Location {
	return Location{City: f.LocationCity, Country: f.LocationCountry, Latitude: f.Latitude, Longitude: f.Longitude}
}

func (l Location) byCity() bool   { return l.City != "" && l.Country != "" }
func (l Location) byCoords() bool { return l.Latitude != "" && l.Longitude != "" }

// Key is the cache key for the location.
func (l Location) Key() string {
	switch {
	case l.byCity():
		return l.City + "_" + l.Country
	case l.byCoords():
		return l.Latitude + "_" + l.Longitude
	}
	return defaultLocationKey
}

// Fallback is served when the upstream API cannot be reached. It is never
// cached.
func Fallback(date string) model.PrayerTimes {
	return model.PrayerTimes{
		Date:    date,
		Fajr:    "05:00",
		Dhuhr:   "12:30",
		Asr:     "15:45",
		Maghrib: "18:15",
		Isha:    "19:30",
	}
}

// Cache persists fetched times. *store.PrayerTimesStore satisfies it.
type Cache interface {
	Get(ctx context.Context, date, locationKey string) (*model.PrayerTimes, error)
	Put(ctx context.Context, locationKey string, pt model.PrayerTimes) error
}

type Service struct {
	cache   Cache
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

func NewService(cache Cache, baseURL string, logger *slog.Logger) *Service {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Service{
		cache:   cache,
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.With("component", "prayertimes"),
	}
}

// Times returns prayer times for date at loc. A cached row is returned as
// is; otherwise the API is queried and a successful answer cached. If the
// API fails the fixed fallback times are returned without error.
func (s *Service) Times(ctx context.Context, date string, loc Location) (model.PrayerTimes, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return model.PrayerTimes{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	key := loc.Key()

	cached, err := s.cache.Get(ctx, date, key)
	if err != nil {
		s.logger.Warn("read prayer times cache", "date", date, "location", key, "error", err)
	} else if cached != nil {
		return *cached, nil
	}

	pt, err := s.fetch(ctx, day, loc)
	if err != nil {
		s.logger.Warn("fetch prayer times, using fallback", "date", date, "location", key, "error", err)
		return Fallback(date), nil
	}

	if err := s.cache.Put(ctx, key, pt); err != nil {
		s.logger.Warn("write prayer times cache", "date", date, "location", key, "error", err)
	}
	return pt, nil
}

// Prefetch warms the cache for every location and reports how many lookups
// hit the API successfully or were already cached.
func (s *Service) Prefetch(ctx context.Context, date string, locs []Location) int {
	ok := 0
	seen := make(map[string]bool, len(locs))
	for _, loc := range locs {
		if seen[loc.Key()] {
			continue
		}
		seen[loc.Key()] = true
		pt, err := s.Times(ctx, date, loc)
		if err == nil && pt != Fallback(date) {
			ok++
		}
	}
	return ok
}

type apiResponse struct {
	Code int `json:"code"`
	Data struct {
		Timings struct {
			Fajr    string `json:"Fajr"`
			Dhuhr   string `json:"Dhuhr"`
			Asr     string `json:"Asr"`
			Maghrib string `json:"Maghrib"`
			Isha    string `json:"Isha"`
		} `json:"timings"`
	} `json:"data"`
}

func (s *Service) fetch(ctx context.Context, day time.Time, loc Location) (model.PrayerTimes, error) {
	params := url.Values{}
	endpoint := "timingsByCity"
	switch {
	case loc.byCity():
		params.Set("city", loc.City)
		params.Set("country", loc.Country)
	case loc.byCoords():
		endpoint = "timings"
		params.Set("latitude", loc.Latitude)
		params.Set("longitude", loc.Longitude)
	default:
		params.Set("city", "Mecca")
		params.Set("country", "Saudi Arabia")
	}
	u := fmt.Sprintf("%s/%s/%s?%s", s.baseURL, endpoint, day.Format("02-01-2006"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return model.PrayerTimes{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return model.PrayerTimes{}, fmt.Errorf("prayer times API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.PrayerTimes{}, fmt.Errorf("prayer times API returned status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return model.PrayerTimes{}, fmt.Errorf("decode prayer times response: %w", err)
	}
	if body.Code != http.StatusOK {
		return model.PrayerTimes{}, fmt.Errorf("prayer times API returned code %d", body.Code)
	}

	t := body.Data.Timings
	return model.PrayerTimes{
		Date:    day.Format("2006-01-02"),
		Fajr:    clock(t.Fajr),
		Dhuhr:   clock(t.Dhuhr),
		Asr:     clock(t.Asr),
		Maghrib: clock(t.Maghrib),
		Isha:    clock(t.Isha),
	}, nil
}

// clock strips the zone suffix the API sometimes appends, as in "04:45 (EET)".
func clock(s string) string {
	if i := strings.IndexByte(s, ' '); i >= 0 {
		return s[:i]
	}
	return s
}
