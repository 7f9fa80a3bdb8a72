// Package server wires stores, services and handlers into the HTTP router.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/rs/cors"

	"github.com/dukerupert/barakah/internal/database"
	"github.com/dukerupert/barakah/internal/handler"
	"github.com/dukerupert/barakah/internal/middleware"
	"github.com/dukerupert/barakah/internal/photo"
	"github.com/dukerupert/barakah/internal/prayertimes"
	"github.com/dukerupert/barakah/internal/scheduler"
	"github.com/dukerupert/barakah/internal/store"
	"github.com/dukerupert/barakah/internal/tracker"
	ws "github.com/dukerupert/barakah/internal/websocket"
)

const (
	uploadLimit  = 10
	uploadWindow = time.Minute
)

type Options struct {
	CORSOrigins  []string
	Photos       photo.Storage
	PrayerAPIURL string
	Location     *time.Location
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

type Server struct {
	db          *database.DB
	hub         *ws.Hub
	tracker     *tracker.Service
	prayers     *prayertimes.Service
	familyStore *store.FamilyStore
	prayerStore *store.PrayerTimesStore
	familyH     *handler.FamilyHandler
	memberH     *handler.MemberHandler
	customItemH *handler.CustomItemHandler
	entryH      *handler.EntryHandler
	progressH   *handler.ProgressHandler
	prayerH     *handler.PrayerTimesHandler
	photos      photo.Storage
	corsOrigins []string
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(db *database.DB, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger)

	trackerOpts := []tracker.Option{tracker.WithLocation(opts.Location), tracker.WithNotifier(hub)}
	if opts.Now != nil {
		trackerOpts = append(trackerOpts, tracker.WithClock(opts.Now))
	}
	svc := tracker.New(db, logger, trackerOpts...)

	familyStore := store.NewFamilyStore(db)
	memberStore := store.NewMemberStore(db)
	itemStore := store.NewCustomItemStore(db)
	prayerStore := store.NewPrayerTimesStore(db)
	prayers := prayertimes.NewService(prayerStore, opts.PrayerAPIURL, logger)

	photos := opts.Photos
	if photos == nil {
		photos = photo.NewLocalStorage("uploads/photos")
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	return &Server{
		db:          db,
		hub:         hub,
		tracker:     svc,
		prayers:     prayers,
		familyStore: familyStore,
		prayerStore: prayerStore,
		familyH:     handler.NewFamilyHandler(familyStore, memberStore, hub, logger.With("component", "family")),
		memberH:     handler.NewMemberHandler(memberStore, familyStore, photos, hub, logger.With("component", "member")),
		customItemH: handler.NewCustomItemHandler(itemStore, memberStore, hub, logger.With("component", "custom_item")),
		entryH:      handler.NewEntryHandler(svc, logger.With("component", "entry")),
		progressH:   handler.NewProgressHandler(svc, logger.With("component", "progress")),
		prayerH:     handler.NewPrayerTimesHandler(prayers, svc.Today),
		photos:      photos,
		corsOrigins: origins,
		rateLimiter: middleware.NewRateLimiter(uploadLimit, uploadWindow),
		logger:      logger,
	}
}

// Tracker returns the entry service for the CLI and scheduled jobs.
func (s *Server) Tracker() *tracker.Service {
	return s.tracker
}

// RateLimiter returns the upload rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the websocket hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// JobDeps returns what the background jobs operate on.
func (s *Server) JobDeps() scheduler.Deps {
	return scheduler.Deps{
		Entries:  s.tracker,
		Families: s.familyStore,
		Prayers:  s.prayers,
		Cache:    s.prayerStore,
	}
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)

	// Families
	mux.HandleFunc("GET /api/families", s.familyH.List)
	mux.HandleFunc("POST /api/families", s.familyH.Create)
	mux.HandleFunc("GET /api/families/{id}", s.familyH.Get)
	mux.HandleFunc("PUT /api/families/{id}", s.familyH.Update)
	mux.HandleFunc("DELETE /api/families/{id}", s.familyH.Delete)
	mux.HandleFunc("GET /api/families/{id}/members", s.familyH.ListMembers)

	// Members
	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("GET /api/members/{id}", s.memberH.Get)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("DELETE /api/members/{id}", s.memberH.Delete)
	mux.HandleFunc("POST /api/members/{id}/photo", s.rateLimitedHandler(s.memberH.UploadPhoto))
	mux.HandleFunc("GET /api/members/{id}/custom-items", s.customItemH.ListForMember)

	// Custom checklist items
	mux.HandleFunc("GET /api/custom-items", s.customItemH.List)
	mux.HandleFunc("POST /api/custom-items", s.customItemH.Create)
	mux.HandleFunc("PUT /api/custom-items/{id}", s.customItemH.Update)
	mux.HandleFunc("DELETE /api/custom-items/{id}", s.customItemH.Delete)

	// Daily entries
	mux.HandleFunc("GET /api/daily-stats/{memberId}", s.entryH.DailyStats)
	mux.HandleFunc("POST /api/update-entry", s.entryH.UpdateEntry)

	// Family views
	mux.HandleFunc("GET /api/family-progress/{familyId}", s.progressH.FamilyProgress)
	mux.HandleFunc("GET /api/family/{familyId}/monthly-stats", s.progressH.MonthlyStats)
	mux.HandleFunc("GET /api/family/{familyId}/leaderboard", s.progressH.Leaderboard)

	mux.HandleFunc("GET /api/prayer-times", s.prayerH.Get)

	if local, ok := s.photos.(*photo.LocalStorage); ok {
		mux.Handle("GET "+photo.LocalURLPrefix+"/", http.StripPrefix(photo.LocalURLPrefix+"/", http.FileServer(http.Dir(local.Dir()))))
	}

	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.logger, s.wsOrigins()))

	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	httpLogger := s.logger.With("component", "http")
	return middleware.RequestLogger(httpLogger)(middleware.Recover(httpLogger)(c.Handler(mux)))
}

// wsOrigins converts CORS origins to the host patterns websocket.Accept
// matches against.
func (s *Server) wsOrigins() []string {
	if slices.Contains(s.corsOrigins, "*") {
		return []string{"*"}
	}
	out := make([]string, 0, len(s.corsOrigins))
	for _, o := range s.corsOrigins {
		out = append(out, hostOf(o))
	}
	return out
}

func hostOf(origin string) string {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return origin
	}
	return u.Host
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("health check", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}` + "\n"))
		return
	}
	w.Write([]byte(`{"status":"ok"}` + "\n"))
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP)(h).ServeHTTP
}
