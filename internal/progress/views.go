package progress

import (
	"math"
	"sort"
	"time"

	"github.com/dukerupert/barakah/internal/model"
)

const DateLayout = "2006-01-02"

// Dataset is everything the family views need, loaded in one consistent read.
type Dataset struct {
	Family      model.Family
	Members     []model.Member
	ActiveItems map[int64][]int64 // member id -> active custom item ids
	Entries     []model.DailyEntry
}

type entryIndex map[int64]map[string]*model.DailyEntry

func (ds Dataset) index() entryIndex {
	idx := make(entryIndex, len(ds.Members))
	for i := range ds.Entries {
		e := &ds.Entries[i]
		byDate, ok := idx[e.MemberID]
		if !ok {
			byDate = make(map[string]*model.DailyEntry)
			idx[e.MemberID] = byDate
		}
		byDate[e.Date] = e
	}
	return idx
}

func (idx entryIndex) get(memberID int64, date string) *model.DailyEntry {
	return idx[memberID][date]
}

// Snapshot returns every member's stats for one date. Members without a
// row for the date get default stats.
func Snapshot(ds Dataset, date string) model.FamilyProgress {
	idx := ds.index()
	members := make([]model.MemberProgress, 0, len(ds.Members))
	for _, m := range ds.Members {
		members = append(members, MemberStats(m, idx.get(m.ID, date), date, ds.ActiveItems[m.ID]))
	}
	return model.FamilyProgress{
		FamilyID:   ds.Family.ID,
		FamilyName: ds.Family.Name,
		Date:       date,
		Members:    members,
	}
}

// Monthly returns one summary per calendar day of the month, including days
// on which nobody recorded anything.
func Monthly(ds Dataset, year int, month time.Month) model.MonthlyStats {
	idx := ds.index()
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)

	var days []model.DailySummary
	for d := first; d.Month() == month; d = d.AddDate(0, 0, 1) {
		date := d.Format(DateLayout)
		summary := model.DailySummary{
			Date:          date,
			MembersScores: make([]model.MemberDailyScore, 0, len(ds.Members)),
		}

		total := 0
		for _, m := range ds.Members {
			stats := MemberStats(m, idx.get(m.ID, date), date, ds.ActiveItems[m.ID])
			if stats.FastingStatus == model.Fasting {
				summary.FastingCount++
			}
			total += stats.Score
			summary.MembersScores = append(summary.MembersScores, model.MemberDailyScore{
				MemberID:      m.ID,
				MemberName:    m.Name,
				Role:          m.Role,
				Score:         stats.Score,
				Tier:          stats.Tier,
				FastingStatus: stats.FastingStatus,
			})
		}
		if len(ds.Members) > 0 {
			summary.TotalScore = math.Round(float64(total)/float64(len(ds.Members))*100) / 100
		}
		days = append(days, summary)
	}

	return model.MonthlyStats{
		FamilyID: ds.Family.ID,
		Month:    first.Format("2006-01"),
		Dates:    days,
	}
}

// Leaderboard ranks members by their total score over every recorded day up
// to and including today. Ties are broken by member id.
func Leaderboard(ds Dataset, today string) model.Leaderboard {
	idx := ds.index()

	entries := make([]model.LeaderboardEntry, 0, len(ds.Members))
	for _, m := range ds.Members {
		le := model.LeaderboardEntry{
			MemberID:   m.ID,
			MemberName: m.Name,
			Role:       m.Role,
			PhotoPath:  m.PhotoPath,
		}

		var recorded []*model.DailyEntry
		for _, e := range idx[m.ID] {
			if e.Date <= today {
				recorded = append(recorded, e)
			}
		}
		sort.Slice(recorded, func(i, j int) bool { return recorded[i].Date < recorded[j].Date })

		for _, e := range recorded {
			le.TotalScore += EntryScore(*e)
			le.QuranPagesTotal += PagesToday(*e)
			switch e.FastingStatus {
			case model.Fasting:
				le.FastingTotal++
				le.FastingStreak++
			case model.Excused:
				// excused days leave the streak as is
			default:
				le.FastingStreak = 0
			}
		}
		le.QuranStreak = quranStreak(idx, m.ID, today)

		entries = append(entries, le)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].MemberID < entries[j].MemberID
	})
	for i := range entries {
		entries[i].Rank = i + 1
		if i > 0 && entries[i].TotalScore == entries[i-1].TotalScore {
			entries[i].Rank = entries[i-1].Rank
		}
	}

	return model.Leaderboard{
		FamilyID: ds.Family.ID,
		AsOf:     today,
		Entries:  entries,
	}
}

// quranStreak counts consecutive days ending today with forward Quran
// progress. A missing row breaks the streak.
func quranStreak(idx entryIndex, memberID int64, today string) int {
	day, err := time.Parse(DateLayout, today)
	if err != nil {
		return 0
	}
	streak := 0
	for {
		e := idx.get(memberID, day.Format(DateLayout))
		if e == nil || PagesToday(*e) <= 0 {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}
