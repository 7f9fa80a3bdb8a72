package prayertimes

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/dukerupert/barakah/internal/model"
)

type memCache struct {
	mu   sync.Mutex
	rows map[string]model.PrayerTimes
}

func newMemCache() *memCache {
	return &memCache{rows: make(map[string]model.PrayerTimes)}
}

func (c *memCache) Get(_ context.Context, date, key string) (*model.PrayerTimes, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	pt, ok := c.rows[date+"|"+key]
	if !ok {
		return nil, nil
	}
	return &pt, nil
}

func (c *memCache) Put(_ context.Context, key string, pt model.PrayerTimes) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[pt.Date+"|"+key] = pt
	return nil
}

// fakeAPI answers like Aladhan and records the requests it saw.
type fakeAPI struct {
	mu    sync.Mutex
	calls int
	paths []string
	query url.Values
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.calls++
	f.paths = append(f.paths, r.URL.Path)
	f.query = r.URL.Query()
	f.mu.Unlock()

	var resp apiResponse
	resp.Code = 200
	resp.Data.Timings.Fajr = "04:45 (EET)"
	resp.Data.Timings.Dhuhr = "12:05 (EET)"
	resp.Data.Timings.Asr = "15:25"
	resp.Data.Timings.Maghrib = "17:55"
	resp.Data.Timings.Isha = "19:15"
	json.NewEncoder(w).Encode(resp)
}

func (f *fakeAPI) snapshot() (int, []string, url.Values) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, append([]string(nil), f.paths...), f.query
}

func TestLocationKey(t *testing.T) {
	tests := []struct {
		loc  Location
		want string
	}{
		{Location{City: "Cairo", Country: "Egypt"}, "Cairo_Egypt"},
		{Location{City: "Cairo", Country: "Egypt", Latitude: "30.0", Longitude: "31.2"}, "Cairo_Egypt"},
		{Location{Latitude: "21.42", Longitude: "39.82"}, "21.42_39.82"},
		{Location{City: "Cairo"}, "default_mecca_saudi_arabia"},
		{Location{}, "default_mecca_saudi_arabia"},
	}
	for _, tt := range tests {
		if got := tt.loc.Key(); got != tt.want {
			t.Errorf("Key(%+v) = %q, want %q", tt.loc, got, tt.want)
		}
	}
}

func TestTimesFetchesAndCaches(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	svc := NewService(newMemCache(), srv.URL, slog.Default())
	loc := Location{City: "Cairo", Country: "Egypt"}

	pt, err := svc.Times(context.Background(), "2026-03-01", loc)
	if err != nil {
		t.Fatalf("times: %v", err)
	}
	if pt.Fajr != "04:45" {
		t.Errorf("fajr = %q, want %q", pt.Fajr, "04:45")
	}
	if pt.Date != "2026-03-01" {
		t.Errorf("date = %q", pt.Date)
	}

	if _, err := svc.Times(context.Background(), "2026-03-01", loc); err != nil {
		t.Fatalf("times: %v", err)
	}

	calls, paths, query := api.snapshot()
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (second lookup should hit cache)", calls)
	}
	if paths[0] != "/timingsByCity/01-03-2026" {
		t.Errorf("path = %q", paths[0])
	}
	if query.Get("city") != "Cairo" || query.Get("country") != "Egypt" {
		t.Errorf("query = %v", query)
	}
}

func TestTimesByCoordinates(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	svc := NewService(newMemCache(), srv.URL, slog.Default())
	pt, err := svc.Times(context.Background(), "2026-03-01", Location{Latitude: "21.42", Longitude: "39.82"})
	if err != nil {
		t.Fatalf("times: %v", err)
	}
	if pt.Isha != "19:15" {
		t.Errorf("isha = %q", pt.Isha)
	}

	_, paths, query := api.snapshot()
	if paths[0] != "/timings/01-03-2026" {
		t.Errorf("path = %q", paths[0])
	}
	if query.Get("latitude") != "21.42" {
		t.Errorf("query = %v", query)
	}
}

func TestTimesFallbackOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cache := newMemCache()
	svc := NewService(cache, srv.URL, slog.Default())

	pt, err := svc.Times(context.Background(), "2026-03-01", Location{})
	if err != nil {
		t.Fatalf("times: %v", err)
	}
	if pt != Fallback("2026-03-01") {
		t.Errorf("got %+v, want fallback", pt)
	}
	if len(cache.rows) != 0 {
		t.Error("fallback times must not be cached")
	}
}

func TestTimesRejectsBadDate(t *testing.T) {
	svc := NewService(newMemCache(), "http://127.0.0.1:0", slog.Default())
	if _, err := svc.Times(context.Background(), "01-03-2026", Location{}); err == nil {
		t.Error("expected error for malformed date")
	}
}

func TestPrefetchDeduplicatesLocations(t *testing.T) {
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	defer srv.Close()

	svc := NewService(newMemCache(), srv.URL, slog.Default())
	locs := []Location{
		{City: "Cairo", Country: "Egypt"},
		{City: "Cairo", Country: "Egypt"},
		{Latitude: "21.42", Longitude: "39.82"},
	}

	if got := svc.Prefetch(context.Background(), "2026-03-01", locs); got != 2 {
		t.Errorf("prefetched = %d, want 2", got)
	}
	if calls, _, _ := api.snapshot(); calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}
