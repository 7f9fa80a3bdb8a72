package store

import (
	"context"
	"fmt"

	"github.com/dukerupert/barakah/internal/database"
	"github.com/dukerupert/barakah/internal/progress"
)

// ProgressStore loads the inputs for the family-wide views.
type ProgressStore struct {
	db *database.DB
}

func NewProgressStore(db *database.DB) *ProgressStore {
	return &ProgressStore{db: db}
}

// LoadFamily reads the family, its members, their active custom items and
// their entries dated within [from, to] inside a single snapshot transaction,
// so a view never mixes rows from before and after a concurrent write.
// It returns nil if the family does not exist.
func (s *ProgressStore) LoadFamily(ctx context.Context, familyID int64, from, to string) (*progress.Dataset, error) {
	tx, err := s.db.BeginSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	family, err := getFamily(ctx, tx, familyID)
	if err != nil || family == nil {
		return nil, err
	}

	members, err := listMembers(ctx, tx, familyID)
	if err != nil {
		return nil, err
	}

	active, err := activeItemsByMember(ctx, tx, familyID)
	if err != nil {
		return nil, err
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+entryCols+` FROM daily_entries e
		JOIN members m ON m.id = e.member_id
		WHERE m.family_id = ? AND e.entry_date BETWEEN ? AND ?
		ORDER BY e.member_id, e.entry_date`,
		familyID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list family entries: %w", err)
	}
	entries, err := collectEntries(rows)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit snapshot: %w", err)
	}

	return &progress.Dataset{
		Family:      *family,
		Members:     members,
		ActiveItems: active,
		Entries:     entries,
	}, nil
}

func activeItemsByMember(ctx context.Context, q database.Querier, familyID int64) (map[int64][]int64, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT ci.member_id, ci.id FROM custom_checklist_items ci
		JOIN members m ON m.id = ci.member_id
		WHERE m.family_id = ? AND ci.is_active = ?
		ORDER BY ci.member_id, ci.id`,
		familyID, true,
	)
	if err != nil {
		return nil, fmt.Errorf("list active items: %w", err)
	}
	defer rows.Close()

	active := make(map[int64][]int64)
	for rows.Next() {
		var memberID, id int64
		if err := rows.Scan(&memberID, &id); err != nil {
			return nil, fmt.Errorf("scan active item: %w", err)
		}
		active[memberID] = append(active[memberID], id)
	}
	return active, rows.Err()
}
