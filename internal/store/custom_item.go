package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/barakah/internal/database"
	"github.com/dukerupert/barakah/internal/model"
)

type CustomItemStore struct {
	db *database.DB
}

func NewCustomItemStore(db *database.DB) *CustomItemStore {
	return &CustomItemStore{db: db}
}

func scanCustomItem(scanner interface{ Scan(...any) error }) (*model.CustomItem, error) {
	var c model.CustomItem
	err := scanner.Scan(&c.ID, &c.MemberID, &c.Title, &c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const customItemCols = `id, member_id, title, description, is_active, created_at, updated_at`

func (s *CustomItemStore) Create(ctx context.Context, memberID int64, title, description string) (*model.CustomItem, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO custom_checklist_items (member_id, title, description, is_active) VALUES (?, ?, ?, ?) RETURNING id`,
		memberID, title, description, true,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert custom item: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *CustomItemStore) GetByID(ctx context.Context, id int64) (*model.CustomItem, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+customItemCols+` FROM custom_checklist_items WHERE id = ?`, id)
	c, err := scanCustomItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get custom item: %w", err)
	}
	return c, nil
}

// ListByMember returns a member's items in creation order, optionally only
// the active ones.
func (s *CustomItemStore) ListByMember(ctx context.Context, memberID int64, activeOnly bool) ([]model.CustomItem, error) {
	query := `SELECT ` + customItemCols + ` FROM custom_checklist_items WHERE member_id = ?`
	args := []any{memberID}
	if activeOnly {
		query += ` AND is_active = ?`
		args = append(args, true)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list custom items: %w", err)
	}
	defer rows.Close()

	var items []model.CustomItem
	for rows.Next() {
		c, err := scanCustomItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan custom item: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// ActiveIDs returns the ids of the member's active items.
func (s *CustomItemStore) ActiveIDs(ctx context.Context, memberID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM custom_checklist_items WHERE member_id = ? AND is_active = ? ORDER BY id`,
		memberID, true,
	)
	if err != nil {
		return nil, fmt.Errorf("list active item ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *CustomItemStore) Update(ctx context.Context, id int64, title, description string, isActive bool) (*model.CustomItem, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE custom_checklist_items SET title = ?, description = ?, is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		title, description, isActive, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update custom item: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Deactivate soft-deletes an item. Past entries keep their checked state
// for it.
func (s *CustomItemStore) Deactivate(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE custom_checklist_items SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		false, id,
	)
	if err != nil {
		return fmt.Errorf("deactivate custom item: %w", err)
	}
	return nil
}

func (s *CustomItemStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM custom_checklist_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete custom item: %w", err)
	}
	return nil
}
