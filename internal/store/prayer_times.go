package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/barakah/internal/database"
	"github.com/dukerupert/barakah/internal/model"
)

// PrayerTimesStore caches upstream prayer times per (date, location key).
type PrayerTimesStore struct {
	db *database.DB
}

func NewPrayerTimesStore(db *database.DB) *PrayerTimesStore {
	return &PrayerTimesStore{db: db}
}

func (s *PrayerTimesStore) Get(ctx context.Context, date, locationKey string) (*model.PrayerTimes, error) {
	var pt model.PrayerTimes
	err := s.db.QueryRowContext(ctx,
		`SELECT entry_date, fajr, dhuhr, asr, maghrib, isha FROM prayer_times_cache WHERE entry_date = ? AND location_key = ?`,
		date, locationKey,
	).Scan(&pt.Date, &pt.Fajr, &pt.Dhuhr, &pt.Asr, &pt.Maghrib, &pt.Isha)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get prayer times: %w", err)
	}
	return &pt, nil
}

// Put stores times for (date, location key). An existing row wins.
func (s *PrayerTimesStore) Put(ctx context.Context, locationKey string, pt model.PrayerTimes) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prayer_times_cache (entry_date, location_key, fajr, dhuhr, asr, maghrib, isha)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (entry_date, location_key) DO NOTHING`,
		pt.Date, locationKey, pt.Fajr, pt.Dhuhr, pt.Asr, pt.Maghrib, pt.Isha,
	)
	if err != nil {
		return fmt.Errorf("put prayer times: %w", err)
	}
	return nil
}

// DeleteBefore removes cached rows dated strictly before date.
func (s *PrayerTimesStore) DeleteBefore(ctx context.Context, date string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM prayer_times_cache WHERE entry_date < ?`, date)
	if err != nil {
		return 0, fmt.Errorf("prune prayer times: %w", err)
	}
	return res.RowsAffected()
}
