// Package tracker implements the daily-entry operations and family views on
// top of the stores and the pure scoring code in progress.
package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/barakah/internal/database"
	"github.com/dukerupert/barakah/internal/model"
	"github.com/dukerupert/barakah/internal/progress"
	"github.com/dukerupert/barakah/internal/quran"
	"github.com/dukerupert/barakah/internal/store"
	"github.com/dukerupert/barakah/internal/websocket"
)

// earliestDate is the lower bound for all-time reads.
const earliestDate = "0001-01-01"

// Notifier receives change notifications. *websocket.Hub satisfies it.
type Notifier interface {
	Broadcast(msg websocket.Message)
}

type Service struct {
	members  *store.MemberStore
	items    *store.CustomItemStore
	entries  *store.EntryStore
	progress *store.ProgressStore
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
	loc      *time.Location
}

type Option func(*Service)

// WithClock overrides the time source used to resolve "today".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the zone in which calendar dates are resolved.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithNotifier sets where entry changes are broadcast.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func New(db *database.DB, logger *slog.Logger, opts ...Option) *Service {
	s := &Service{
		members:  store.NewMemberStore(db),
		items:    store.NewCustomItemStore(db),
		entries:  store.NewEntryStore(db),
		progress: store.NewProgressStore(db),
		logger:   logger.With("component", "tracker"),
		now:      time.Now,
		loc:      time.Local,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current date in the service's zone.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(progress.DateLayout)
}

// resolveDate defaults an empty date to today and validates the rest.
func (s *Service) resolveDate(date string) (string, error) {
	if date == "" {
		return s.Today(), nil
	}
	if _, err := time.Parse(progress.DateLayout, date); err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidArgument, date)
	}
	return date, nil
}

// DailyStats returns the member's entry for date with its derived stats,
// creating the row with defaults if it does not exist yet.
func (s *Service) DailyStats(ctx context.Context, memberID int64, date string) (*model.DailyStats, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	e, err := s.entries.GetOrCreate(ctx, memberID, date)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	if e == nil {
		return nil, fmt.Errorf("%w: member %d", ErrNotFound, memberID)
	}

	active, err := s.items.ActiveIDs(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}
	maxPage, err := s.entries.MaxQuranPage(ctx, memberID, date)
	if err != nil {
		return nil, fmt.Errorf("daily stats: %w", err)
	}

	stats := progress.Stats(*e, maxPage, active)
	return &stats, nil
}

// UpdateEntry applies a partial update to the member's entry for date.
// Quran fields are synchronized so juz and page always agree; when both
// are given the page wins. Out-of-range values are clamped.
func (s *Service) UpdateEntry(ctx context.Context, memberID int64, date string, patch model.EntryPatch) (*model.DailyEntry, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	if patch.FastingStatus != nil && !patch.FastingStatus.Valid() {
		return nil, fmt.Errorf("%w: fasting_status must be one of fasting, not_fasting, excused", ErrInvalidArgument)
	}

	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	if member == nil {
		return nil, fmt.Errorf("%w: member %d", ErrNotFound, memberID)
	}

	if pos, ok := quran.Resolve(patch.QuranJuz, patch.QuranPage); ok {
		juz, page := pos.Juz, pos.Page
		patch.QuranJuz, patch.QuranPage = &juz, &page
	}

	e, err := s.entries.Apply(ctx, memberID, date, patch)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	if e == nil {
		return nil, fmt.Errorf("%w: member %d", ErrNotFound, memberID)
	}

	s.logger.Debug("entry updated", "member_id", memberID, "date", date)
	s.broadcast(websocket.NewMessage(websocket.EntityEntry, "updated", e.ID, map[string]any{
		"member_id":  memberID,
		"entry_date": date,
	}).ForFamily(member.FamilyID))
	return e, nil
}

// FamilySnapshot returns every member's stats for one date. It does not
// create rows.
func (s *Service) FamilySnapshot(ctx context.Context, familyID int64, date string) (*model.FamilyProgress, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	ds, err := s.loadFamily(ctx, familyID, date, date)
	if err != nil {
		return nil, err
	}
	snap := progress.Snapshot(*ds, date)
	return &snap, nil
}

// MonthlyCalendar returns per-day family summaries for a YYYY-MM month.
// An empty month means the current one.
func (s *Service) MonthlyCalendar(ctx context.Context, familyID int64, month string) (*model.MonthlyStats, error) {
	var first time.Time
	if month == "" {
		now := s.now().In(s.loc)
		first = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	} else {
		t, err := time.Parse("2006-01", month)
		if err != nil {
			return nil, fmt.Errorf("%w: month %q must be YYYY-MM", ErrInvalidArgument, month)
		}
		first = t
	}
	last := first.AddDate(0, 1, -1)

	ds, err := s.loadFamily(ctx, familyID, first.Format(progress.DateLayout), last.Format(progress.DateLayout))
	if err != nil {
		return nil, err
	}
	stats := progress.Monthly(*ds, first.Year(), first.Month())
	return &stats, nil
}

// Leaderboard ranks the family's members over every recorded day up to
// today.
func (s *Service) Leaderboard(ctx context.Context, familyID int64) (*model.Leaderboard, error) {
	today := s.Today()
	ds, err := s.loadFamily(ctx, familyID, earliestDate, today)
	if err != nil {
		return nil, err
	}
	lb := progress.Leaderboard(*ds, today)
	return &lb, nil
}

// MaterializeToday creates today's row for every member that lacks one, so
// the day's Quran baseline is captured before anyone reads.
func (s *Service) MaterializeToday(ctx context.Context) (int64, error) {
	today := s.Today()
	n, err := s.entries.MaterializeAll(ctx, today)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.broadcast(websocket.NewMessage(websocket.EntityEntry, "materialized", 0, map[string]any{
			"entry_date": today,
			"count":      n,
		}))
	}
	return n, nil
}

func (s *Service) loadFamily(ctx context.Context, familyID int64, from, to string) (*progress.Dataset, error) {
	ds, err := s.progress.LoadFamily(ctx, familyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("load family %d: %w", familyID, err)
	}
	if ds == nil {
		return nil, fmt.Errorf("%w: family %d", ErrNotFound, familyID)
	}
	return ds, nil
}

func (s *Service) broadcast(msg websocket.Message) {
	if s.notifier != nil {
		s.notifier.Broadcast(msg)
	}
}
