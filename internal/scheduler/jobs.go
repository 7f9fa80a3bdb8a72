package scheduler

import (
	"context"
	"time"

	"github.com/dukerupert/barakah/internal/model"
	"github.com/dukerupert/barakah/internal/prayertimes"
)

const (
	JobMaterializeEntries = "materialize-entries"
	JobPrefetchPrayers    = "prefetch-prayer-times"
	JobPrunePrayerCache   = "prune-prayer-cache"

	jobTimeout         = 2 * time.Minute
	prayerCacheMaxDays = 30
)

// Materializer creates today's entry rows. *tracker.Service satisfies it.
type Materializer interface {
	Today() string
	MaterializeToday(ctx context.Context) (int64, error)
}

type FamilyLister interface {
	ListWithLocation(ctx context.Context) ([]model.Family, error)
}

type PrayerPrefetcher interface {
	Prefetch(ctx context.Context, date string, locs []prayertimes.Location) int
}

type PrayerPruner interface {
	DeleteBefore(ctx context.Context, date string) (int64, error)
}

type Deps struct {
	Entries  Materializer
	Families FamilyLister
	Prayers  PrayerPrefetcher
	Cache    PrayerPruner
}

// RegisterJobs schedules the standard jobs: today's rows at midnight, the
// prayer-time prefetch shortly after, and a weekly cache prune.
func (s *Scheduler) RegisterJobs(d Deps) error {
	if err := s.ScheduleDaily(JobMaterializeEntries, "00:00", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		n, err := d.Entries.MaterializeToday(ctx)
		if err != nil {
			s.logger.Error("materialize entries", "error", err)
			return
		}
		s.logger.Info("materialized entries", "date", d.Entries.Today(), "created", n)
	}); err != nil {
		return err
	}

	if err := s.ScheduleDaily(JobPrefetchPrayers, "00:05", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		families, err := d.Families.ListWithLocation(ctx)
		if err != nil {
			s.logger.Error("list families for prefetch", "error", err)
			return
		}
		locs := make([]prayertimes.Location, 0, len(families))
		for _, f := range families {
			locs = append(locs, prayertimes.FamilyLocation(f))
		}
		ok := d.Prayers.Prefetch(ctx, d.Entries.Today(), locs)
		s.logger.Info("prefetched prayer times", "locations", len(locs), "fetched", ok)
	}); err != nil {
		return err
	}

	return s.ScheduleWeekly(JobPrunePrayerCache, time.Sunday, "03:00", func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		cutoff, err := time.Parse("2006-01-02", d.Entries.Today())
		if err != nil {
			s.logger.Error("parse today", "error", err)
			return
		}
		before := cutoff.AddDate(0, 0, -prayerCacheMaxDays).Format("2006-01-02")
		n, err := d.Cache.DeleteBefore(ctx, before)
		if err != nil {
			s.logger.Error("prune prayer cache", "error", err)
			return
		}
		s.logger.Info("pruned prayer cache", "before", before, "deleted", n)
	})
}
