package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/barakah/internal/database"
	"github.com/dukerupert/barakah/internal/model"
)

type FamilyStore struct {
	db *database.DB
}

func NewFamilyStore(db *database.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

func scanFamily(scanner interface{ Scan(...any) error }) (*model.Family, error) {
	var f model.Family
	err := scanner.Scan(&f.ID, &f.Name, &f.LocationCity, &f.LocationCountry, &f.Latitude, &f.Longitude, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

const familyCols = `id, name, location_city, location_country, latitude, longitude, created_at, updated_at`

func (s *FamilyStore) Create(ctx context.Context, f model.Family) (*model.Family, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO families (name, location_city, location_country, latitude, longitude) VALUES (?, ?, ?, ?, ?) RETURNING id`,
		f.Name, f.LocationCity, f.LocationCountry, f.Latitude, f.Longitude,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *FamilyStore) GetByID(ctx context.Context, id int64) (*model.Family, error) {
	return getFamily(ctx, s.db, id)
}

func getFamily(ctx context.Context, q database.Querier, id int64) (*model.Family, error) {
	row := q.QueryRowContext(ctx, `SELECT `+familyCols+` FROM families WHERE id = ?`, id)
	f, err := scanFamily(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return f, nil
}

func (s *FamilyStore) List(ctx context.Context) ([]model.Family, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+familyCols+` FROM families ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list families: %w", err)
	}
	defer rows.Close()

	var families []model.Family
	for rows.Next() {
		f, err := scanFamily(rows)
		if err != nil {
			return nil, fmt.Errorf("scan family: %w", err)
		}
		families = append(families, *f)
	}
	return families, rows.Err()
}

// ListWithLocation returns families that have enough location data for a
// prayer-time lookup.
func (s *FamilyStore) ListWithLocation(ctx context.Context) ([]model.Family, error) {
	families, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	var located []model.Family
	for _, f := range families {
		if f.HasLocation() {
			located = append(located, f)
		}
	}
	return located, nil
}

func (s *FamilyStore) Update(ctx context.Context, id int64, f model.Family) (*model.Family, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE families SET name = ?, location_city = ?, location_country = ?, latitude = ?, longitude = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		f.Name, f.LocationCity, f.LocationCountry, f.Latitude, f.Longitude, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update family: %w", err)
	}
	return s.GetByID(ctx, id)
}

// Delete removes the family; members, their entries and custom items go
// with it through ON DELETE CASCADE.
func (s *FamilyStore) Delete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM families WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete family: %w", err)
	}
	return nil
}

func (s *FamilyStore) NameExists(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM families WHERE name = ? AND id != ?`,
		name, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check family name exists: %w", err)
	}
	return count > 0, nil
}
