// Package progress turns raw daily entries into the family dashboard views:
// per-member stats, daily scores, the monthly calendar and the leaderboard.
// Everything here is pure computation over already loaded data.
package progress

import (
	"strconv"

	"github.com/dukerupert/barakah/internal/model"
	"github.com/dukerupert/barakah/internal/quran"
)

// Score weights. A full day of six prayers and fasting is 34 points, so any
// Quran reading or a handful of custom items pushes it into the top tier.
// The daily goal is free text and earns no points; scoring it would reward
// typing a sentence over the habits the goal describes.
const (
	PrayerWeight     = 4
	QuranPageWeight  = 1
	QuranPointsCap   = 20
	FastingBonus     = 10
	CustomItemWeight = 2
)

// Tier thresholds used for calendar cell colouring.
const (
	ExcellentThreshold = 40
	GoodThreshold      = 20
)

func PrayersCompleted(e model.DailyEntry) int {
	n := 0
	for _, done := range []bool{e.Fajr, e.Dhuhr, e.Asr, e.Maghrib, e.Isha, e.Taraweeh} {
		if done {
			n++
		}
	}
	return n
}

// PagesToday is the forward page progress since the day's baseline.
func PagesToday(e model.DailyEntry) int {
	return max(0, e.QuranPage-e.StartingQuranPage)
}

// CustomItemsCompleted counts the true values in the entry's own checklist.
// A row keeps its count after the items are deactivated or deleted.
func CustomItemsCompleted(e model.DailyEntry) int {
	n := 0
	for _, done := range e.CustomItems {
		if done {
			n++
		}
	}
	return n
}

// ActiveItemsCompleted counts checked items that are still active, for
// display next to the active item total.
func ActiveItemsCompleted(e model.DailyEntry, activeItemIDs []int64) int {
	n := 0
	for _, id := range activeItemIDs {
		if e.CustomItems[strconv.FormatInt(id, 10)] {
			n++
		}
	}
	return n
}

// Score computes the daily score from its components.
func Score(prayers, pagesToday int, fasting model.FastingStatus, customCompleted int) int {
	s := prayers * PrayerWeight
	s += min(max(0, pagesToday)*QuranPageWeight, QuranPointsCap)
	if fasting == model.Fasting {
		s += FastingBonus
	}
	s += customCompleted * CustomItemWeight
	return s
}

func TierFor(score int) model.Tier {
	switch {
	case score >= ExcellentThreshold:
		return model.TierExcellent
	case score >= GoodThreshold:
		return model.TierGood
	default:
		return model.TierNeedsImprovement
	}
}

// EntryScore scores a stored entry from its own fields only.
func EntryScore(e model.DailyEntry) int {
	return Score(PrayersCompleted(e), PagesToday(e), e.FastingStatus, CustomItemsCompleted(e))
}

// MemberStats derives one member's stats for a date. A nil entry yields the
// default stats for a day with no row. The score comes from the entry
// alone; activeItemIDs only feed the displayed completed/total pair.
func MemberStats(m model.Member, e *model.DailyEntry, date string, activeItemIDs []int64) model.MemberProgress {
	entry := model.DefaultEntry(m.ID, date)
	if e != nil {
		entry = *e
	}
	if entry.FastingStatus == "" {
		entry.FastingStatus = model.NotFasting
	}

	prayers := PrayersCompleted(entry)
	pages := PagesToday(entry)
	score := Score(prayers, pages, entry.FastingStatus, CustomItemsCompleted(entry))

	return model.MemberProgress{
		MemberID:             m.ID,
		MemberName:           m.Name,
		Role:                 m.Role,
		PhotoPath:            m.PhotoPath,
		FastingStatus:        entry.FastingStatus,
		PrayersCompleted:     prayers,
		QuranProgress:        quran.Progress(entry.QuranPage),
		QuranPagesToday:      pages,
		DailyGoal:            entry.DailyGoal,
		CustomItemsCompleted: ActiveItemsCompleted(entry, activeItemIDs),
		CustomItemsTotal:     len(activeItemIDs),
		Score:                score,
		Tier:                 TierFor(score),
	}
}

// Stats builds the checklist view for a single entry.
func Stats(e model.DailyEntry, currentMaxPage int, activeItemIDs []int64) model.DailyStats {
	delta := quran.Delta(
		quran.Position{Juz: e.StartingQuranJuz, Page: e.StartingQuranPage},
		quran.Position{Juz: e.QuranJuz, Page: e.QuranPage},
	)
	score := EntryScore(e)
	return model.DailyStats{
		DailyEntry:          e,
		CurrentMaxQuranPage: max(currentMaxPage, e.QuranPage),
		QuranPagesToday:     delta.Page,
		QuranJuzToday:       delta.Juz,
		PrayersCompleted:    PrayersCompleted(e),
		QuranProgress:       quran.Progress(e.QuranPage),
		CustomItemsTotal:    len(activeItemIDs),
		Score:               score,
		Tier:                TierFor(score),
	}
}
