package model

import "time"

type FastingStatus string

const (
	Fasting    FastingStatus = "fasting"
	NotFasting FastingStatus = "not_fasting"
	Excused    FastingStatus = "excused"
)

func (s FastingStatus) Valid() bool {
	switch s {
	case Fasting, NotFasting, Excused:
		return true
	}
	return false
}

// DailyEntry is one member's record for one calendar date. Date is YYYY-MM-DD.
// StartingQuranJuz and StartingQuranPage are fixed when the row is first
// materialized and never rewritten.
type DailyEntry struct {
	ID                int64           `json:"id"`
	MemberID          int64           `json:"member_id"`
	Date              string          `json:"date"`
	FastingStatus     FastingStatus   `json:"fasting_status"`
	Fajr              bool            `json:"fajr"`
	Dhuhr             bool            `json:"dhuhr"`
	Asr               bool            `json:"asr"`
	Maghrib           bool            `json:"maghrib"`
	Isha              bool            `json:"isha"`
	Taraweeh          bool            `json:"taraweeh"`
	QuranJuz          int             `json:"quran_juz"`
	QuranPage         int             `json:"quran_page"`
	StartingQuranJuz  int             `json:"starting_quran_juz"`
	StartingQuranPage int             `json:"starting_quran_page"`
	DailyGoal         string          `json:"daily_goal"`
	CustomItems       map[string]bool `json:"custom_items"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// DefaultEntry returns the all-false, zero-progress entry used for dates
// with no stored row.
func DefaultEntry(memberID int64, date string) DailyEntry {
	return DailyEntry{
		MemberID:      memberID,
		Date:          date,
		FastingStatus: NotFasting,
		CustomItems:   map[string]bool{},
	}
}

// EntryPatch is a partial update. Nil fields are left unchanged.
type EntryPatch struct {
	FastingStatus *FastingStatus  `json:"fasting_status"`
	Fajr          *bool           `json:"fajr"`
	Dhuhr         *bool           `json:"dhuhr"`
	Asr           *bool           `json:"asr"`
	Maghrib       *bool           `json:"maghrib"`
	Isha          *bool           `json:"isha"`
	Taraweeh      *bool           `json:"taraweeh"`
	QuranJuz      *int            `json:"quran_juz"`
	QuranPage     *int            `json:"quran_page"`
	DailyGoal     *string         `json:"daily_goal"`
	CustomItems   map[string]bool `json:"custom_items"`
}
