package model

type Tier string

const (
	TierExcellent        Tier = "excellent"
	TierGood             Tier = "good"
	TierNeedsImprovement Tier = "needs_improvement"
)

// MemberProgress is one member's derived stats for one date.
type MemberProgress struct {
	MemberID             int64         `json:"member_id"`
	MemberName           string        `json:"member_name"`
	Role                 Role          `json:"role"`
	PhotoPath            string        `json:"photo_path"`
	FastingStatus        FastingStatus `json:"fasting_status"`
	PrayersCompleted     int           `json:"prayers_completed"`
	QuranProgress        int           `json:"quran_progress"`
	QuranPagesToday      int           `json:"quran_pages_today"`
	DailyGoal            string        `json:"daily_goal"`
	CustomItemsCompleted int           `json:"custom_items_completed"`
	CustomItemsTotal     int           `json:"custom_items_total"`
	Score                int           `json:"score"`
	Tier                 Tier          `json:"tier"`
}

type FamilyProgress struct {
	FamilyID   int64            `json:"family_id"`
	FamilyName string           `json:"family_name"`
	Date       string           `json:"date"`
	Members    []MemberProgress `json:"members"`
}

type MemberDailyScore struct {
	MemberID      int64         `json:"member_id"`
	MemberName    string        `json:"member_name"`
	Role          Role          `json:"role"`
	Score         int           `json:"score"`
	Tier          Tier          `json:"tier"`
	FastingStatus FastingStatus `json:"fasting_status"`
}

type DailySummary struct {
	Date          string             `json:"date"`
	TotalScore    float64            `json:"total_score"`
	FastingCount  int                `json:"fasting_count"`
	MembersScores []MemberDailyScore `json:"members_scores"`
}

type MonthlyStats struct {
	FamilyID int64          `json:"family_id"`
	Month    string         `json:"month"`
	Dates    []DailySummary `json:"dates"`
}

type LeaderboardEntry struct {
	Rank            int    `json:"rank"`
	MemberID        int64  `json:"member_id"`
	MemberName      string `json:"member_name"`
	Role            Role   `json:"role"`
	PhotoPath       string `json:"photo_path"`
	TotalScore      int    `json:"total_score"`
	QuranStreak     int    `json:"quran_streak"`
	QuranPagesTotal int    `json:"quran_pages_total"`
	FastingTotal    int    `json:"fasting_total"`
	FastingStreak   int    `json:"fasting_streak"`
}

type Leaderboard struct {
	FamilyID int64              `json:"family_id"`
	AsOf     string             `json:"as_of"`
	Entries  []LeaderboardEntry `json:"entries"`
}

// DailyStats is the checklist view of one entry, including the baseline
// used for "+N pages today".
type DailyStats struct {
	DailyEntry
	CurrentMaxQuranPage int  `json:"current_max_quran_page"`
	QuranPagesToday     int  `json:"quran_pages_today"`
	QuranJuzToday       int  `json:"quran_juz_today"`
	PrayersCompleted    int  `json:"prayers_completed"`
	QuranProgress       int  `json:"quran_progress"`
	CustomItemsTotal    int  `json:"custom_items_total"`
	Score               int  `json:"score"`
	Tier                Tier `json:"tier"`
}
