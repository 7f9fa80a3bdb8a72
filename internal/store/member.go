package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/barakah/internal/database"
	"github.com/dukerupert/barakah/internal/model"
)

type MemberStore struct {
	db *database.DB
}

func NewMemberStore(db *database.DB) *MemberStore {
	return &MemberStore{db: db}
}

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	err := scanner.Scan(&m.ID, &m.FamilyID, &m.Name, &m.Role, &m.PhotoPath, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const memberCols = `id, family_id, name, role, photo_path, created_at, updated_at`

func (s *MemberStore) Create(ctx context.Context, familyID int64, name string, role model.Role) (*model.Member, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO members (family_id, name, role) VALUES (?, ?, ?) RETURNING id`,
		familyID, name, role,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *MemberStore) GetByID(ctx context.Context, id int64) (*model.Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// ListByFamily returns the family's members in creation order.
func (s *MemberStore) ListByFamily(ctx context.Context, familyID int64) ([]model.Member, error) {
	return listMembers(ctx, s.db, familyID)
}

func listMembers(ctx context.Context, q database.Querier, familyID int64) ([]model.Member, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+memberCols+` FROM members WHERE family_id = ? ORDER BY id`, familyID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *MemberStore) Update(ctx context.Context, id int64, name string, role model.Role) (*model.Member, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE members SET name = ?, role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, role, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *MemberStore) SetPhoto(ctx context.Context, id int64, photoPath string) (*model.Member, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE members SET photo_path = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		photoPath, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set member photo: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *MemberStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}
