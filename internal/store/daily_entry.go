package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dukerupert/barakah/internal/database"
	"github.com/dukerupert/barakah/internal/model"
)

type EntryStore struct {
	db *database.DB
}

func NewEntryStore(db *database.DB) *EntryStore {
	return &EntryStore{db: db}
}

func scanEntry(scanner interface{ Scan(...any) error }) (*model.DailyEntry, error) {
	var e model.DailyEntry
	var customItems string
	err := scanner.Scan(
		&e.ID, &e.MemberID, &e.Date, &e.FastingStatus,
		&e.Fajr, &e.Dhuhr, &e.Asr, &e.Maghrib, &e.Isha, &e.Taraweeh,
		&e.QuranJuz, &e.QuranPage, &e.StartingQuranJuz, &e.StartingQuranPage,
		&e.DailyGoal, &customItems, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.CustomItems = map[string]bool{}
	if customItems != "" {
		if err := json.Unmarshal([]byte(customItems), &e.CustomItems); err != nil {
			return nil, fmt.Errorf("decode custom items: %w", err)
		}
	}
	return &e, nil
}

const entryCols = `e.id, e.member_id, e.entry_date, e.fasting_status,
	e.fajr, e.dhuhr, e.asr, e.maghrib, e.isha, e.taraweeh,
	e.quran_juz, e.quran_page, e.starting_quran_juz, e.starting_quran_page,
	e.daily_goal, e.custom_items, e.created_at, e.updated_at`

// materializeSQL creates the row for (member, date) if it does not exist.
// The Quran bookmark of the member's latest earlier row becomes both the
// current position and the day's starting baseline. The WHERE clause keeps
// SQLite's INSERT ... SELECT ... ON CONFLICT parse unambiguous.
const materializeSQL = `INSERT INTO daily_entries
	(member_id, entry_date, quran_juz, quran_page, starting_quran_juz, starting_quran_page)
SELECT m.id, CAST(? AS TEXT),
	COALESCE(prev.quran_juz, 0), COALESCE(prev.quran_page, 0),
	COALESCE(prev.quran_juz, 0), COALESCE(prev.quran_page, 0)
FROM members m
LEFT JOIN daily_entries prev ON prev.id = (
	SELECT p.id FROM daily_entries p
	WHERE p.member_id = m.id AND p.entry_date < ?
	ORDER BY p.entry_date DESC LIMIT 1
)
WHERE %s
ON CONFLICT (member_id, entry_date) DO NOTHING`

var (
	materializeOneSQL = fmt.Sprintf(materializeSQL, "m.id = ?")
	materializeAllSQL = fmt.Sprintf(materializeSQL, "m.id > 0")
)

func materialize(ctx context.Context, q database.Querier, memberID int64, date string) error {
	_, err := q.ExecContext(ctx, materializeOneSQL, date, date, memberID)
	if err != nil {
		return fmt.Errorf("materialize entry: %w", err)
	}
	return nil
}

func getEntry(ctx context.Context, q database.Querier, memberID int64, date string) (*model.DailyEntry, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+entryCols+` FROM daily_entries e WHERE e.member_id = ? AND e.entry_date = ?`,
		memberID, date,
	)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return e, nil
}

// Get returns the stored row without creating it.
func (s *EntryStore) Get(ctx context.Context, memberID int64, date string) (*model.DailyEntry, error) {
	return getEntry(ctx, s.db, memberID, date)
}

// GetOrCreate returns the row for (member, date), materializing it first if
// needed. It returns nil if the member does not exist.
func (s *EntryStore) GetOrCreate(ctx context.Context, memberID int64, date string) (*model.DailyEntry, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := materialize(ctx, tx, memberID, date); err != nil {
		return nil, err
	}
	e, err := getEntry(ctx, tx, memberID, date)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit entry: %w", err)
	}
	return e, nil
}

// MaterializeAll creates the row for date for every member that lacks one
// and returns how many rows were created.
func (s *EntryStore) MaterializeAll(ctx context.Context, date string) (int64, error) {
	res, err := s.db.ExecContext(ctx, materializeAllSQL, date, date)
	if err != nil {
		return 0, fmt.Errorf("materialize entries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("materialize entries: %w", err)
	}
	return n, nil
}

// Apply writes a patch to the row for (member, date), creating the row first
// if needed. Every field, including the juz/page pair, lands in a single
// UPDATE inside one transaction. CustomItems, when non-nil, replaces the
// stored map. It returns nil if the member does not exist.
func (s *EntryStore) Apply(ctx context.Context, memberID int64, date string, p model.EntryPatch) (*model.DailyEntry, error) {
	var customItems *string
	if p.CustomItems != nil {
		b, err := json.Marshal(p.CustomItems)
		if err != nil {
			return nil, fmt.Errorf("encode custom items: %w", err)
		}
		encoded := string(b)
		customItems = &encoded
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := materialize(ctx, tx, memberID, date); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, `UPDATE daily_entries SET
		fasting_status = COALESCE(?, fasting_status),
		fajr = COALESCE(?, fajr),
		dhuhr = COALESCE(?, dhuhr),
		asr = COALESCE(?, asr),
		maghrib = COALESCE(?, maghrib),
		isha = COALESCE(?, isha),
		taraweeh = COALESCE(?, taraweeh),
		quran_juz = COALESCE(?, quran_juz),
		quran_page = COALESCE(?, quran_page),
		daily_goal = COALESCE(?, daily_goal),
		custom_items = COALESCE(?, custom_items),
		updated_at = CURRENT_TIMESTAMP
		WHERE member_id = ? AND entry_date = ?`,
		p.FastingStatus, p.Fajr, p.Dhuhr, p.Asr, p.Maghrib, p.Isha, p.Taraweeh,
		p.QuranJuz, p.QuranPage, p.DailyGoal, customItems,
		memberID, date,
	)
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}

	e, err := getEntry(ctx, tx, memberID, date)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit entry: %w", err)
	}
	return e, nil
}

// MaxQuranPage returns the highest page the member has reached on or before
// the given date, or 0 if there are no rows.
func (s *EntryStore) MaxQuranPage(ctx context.Context, memberID int64, upTo string) (int, error) {
	var page int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(quran_page), 0) FROM daily_entries WHERE member_id = ? AND entry_date <= ?`,
		memberID, upTo,
	).Scan(&page)
	if err != nil {
		return 0, fmt.Errorf("max quran page: %w", err)
	}
	return page, nil
}

// ListByMember returns the member's rows in [from, to], oldest first.
func (s *EntryStore) ListByMember(ctx context.Context, memberID int64, from, to string) ([]model.DailyEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryCols+` FROM daily_entries e
		WHERE e.member_id = ? AND e.entry_date BETWEEN ? AND ?
		ORDER BY e.entry_date`,
		memberID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return collectEntries(rows)
}

func collectEntries(rows *sql.Rows) ([]model.DailyEntry, error) {
	defer rows.Close()

	var entries []model.DailyEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
