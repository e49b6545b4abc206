package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/joeblew999/agromind/internal/geometry"
	"github.com/joeblew999/agromind/internal/service"
)

const duckdbSchema = `
CREATE TABLE IF NOT EXISTS fields (
	id          VARCHAR PRIMARY KEY,
	name        VARCHAR NOT NULL,
	crop        VARCHAR,
	area_ha     DOUBLE,
	coordinates VARCHAR,
	color       VARCHAR,
	created_at  TIMESTAMP,
	updated_at  TIMESTAMP
)`

const fieldColumns = "id, name, crop, area_ha, coordinates, color, created_at, updated_at"

// DuckDB stores fields in a DuckDB table. Coordinates are kept as JSON text.
type DuckDB struct {
	db *sql.DB
}

// NewDuckDB creates the fields table if needed.
func NewDuckDB(ctx context.Context, conn *sql.DB) (*DuckDB, error) {
	if _, err := conn.ExecContext(ctx, duckdbSchema); err != nil {
		return nil, fmt.Errorf("create fields table: %w", err)
	}
	return &DuckDB{db: conn}, nil
}

// DB returns the underlying connection for ad-hoc queries.
func (s *DuckDB) DB() *sql.DB { return s.db }

func (s *DuckDB) List(ctx context.Context) ([]service.Field, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+fieldColumns+" FROM fields")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []service.Field
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (s *DuckDB) Get(ctx context.Context, id string) (service.Field, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+fieldColumns+" FROM fields WHERE id = ?", id)
	f, err := scanField(row)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Field{}, service.ErrNotFound
	}
	return f, err
}

func (s *DuckDB) Create(ctx context.Context, f service.Field) error {
	coords, err := encodeCoordinates(f.Coordinates)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO fields ("+fieldColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT DO NOTHING",
		f.ID, f.Name, f.Crop, f.AreaHa, coords, f.Color, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert field: %w", err)
	}
	return affected(res, service.ErrExists)
}

func (s *DuckDB) Update(ctx context.Context, f service.Field) error {
	coords, err := encodeCoordinates(f.Coordinates)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE fields SET name = ?, crop = ?, area_ha = ?, coordinates = ?, color = ?, created_at = ?, updated_at = ?
		 WHERE id = ?`,
		f.Name, f.Crop, f.AreaHa, coords, f.Color, f.CreatedAt, f.UpdatedAt, f.ID)
	if err != nil {
		return fmt.Errorf("update field: %w", err)
	}
	return affected(res, service.ErrNotFound)
}

func (s *DuckDB) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM fields WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete field: %w", err)
	}
	return affected(res, service.ErrNotFound)
}

func (s *DuckDB) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanField(sc scanner) (service.Field, error) {
	var (
		f                service.Field
		crop, color, loc sql.NullString
		area             sql.NullFloat64
		created, updated sql.NullTime
	)
	if err := sc.Scan(&f.ID, &f.Name, &crop, &area, &loc, &color, &created, &updated); err != nil {
		return service.Field{}, err
	}
	f.Crop, f.Color, f.AreaHa = crop.String, color.String, area.Float64
	f.CreatedAt, f.UpdatedAt = created.Time, updated.Time
	if loc.Valid {
		if err := json.Unmarshal([]byte(loc.String), &f.Coordinates); err != nil {
			return service.Field{}, fmt.Errorf("decode coordinates of %q: %w", f.ID, err)
		}
	}
	return f, nil
}

func encodeCoordinates(loc geometry.Location) (sql.NullString, error) {
	if len(loc) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(loc)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode coordinates: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func affected(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return none
	}
	return nil
}
