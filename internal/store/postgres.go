package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joeblew999/agromind/internal/service"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS fields (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	crop        TEXT,
	area_ha     DOUBLE PRECISION,
	coordinates JSONB,
	color       TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Postgres stores fields in the hosted PostgreSQL database.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and creates the fields table if needed.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create fields table: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (s *Postgres) List(ctx context.Context) ([]service.Field, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+fieldColumns+" FROM fields")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fields []service.Field
	for rows.Next() {
		f, err := scanPgField(rows)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (s *Postgres) Get(ctx context.Context, id string) (service.Field, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+fieldColumns+" FROM fields WHERE id = $1", id)
	f, err := scanPgField(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return service.Field{}, service.ErrNotFound
	}
	return f, err
}

func (s *Postgres) Create(ctx context.Context, f service.Field) error {
	coords, err := jsonCoordinates(f)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		"INSERT INTO fields ("+fieldColumns+") VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (id) DO NOTHING",
		f.ID, f.Name, f.Crop, f.AreaHa, coords, f.Color, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert field: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrExists
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, f service.Field) error {
	coords, err := jsonCoordinates(f)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE fields SET name = $2, crop = $3, area_ha = $4, coordinates = $5, color = $6, created_at = $7, updated_at = $8
		 WHERE id = $1`,
		f.ID, f.Name, f.Crop, f.AreaHa, coords, f.Color, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update field: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (s *Postgres) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM fields WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete field: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrNotFound
	}
	return nil
}

func (s *Postgres) Close() error {
	s.pool.Close()
	return nil
}

// jsonCoordinates returns nil for absent geometry so the column stays NULL.
func jsonCoordinates(f service.Field) ([]byte, error) {
	if len(f.Coordinates) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(f.Coordinates)
	if err != nil {
		return nil, fmt.Errorf("encode coordinates: %w", err)
	}
	return b, nil
}

func scanPgField(row pgx.Row) (service.Field, error) {
	var (
		f           service.Field
		crop, color *string
		area        *float64
		coords      []byte
	)
	if err := row.Scan(&f.ID, &f.Name, &crop, &area, &coords, &color, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return service.Field{}, err
	}
	if crop != nil {
		f.Crop = *crop
	}
	if color != nil {
		f.Color = *color
	}
	if area != nil {
		f.AreaHa = *area
	}
	if coords != nil {
		if err := json.Unmarshal(coords, &f.Coordinates); err != nil {
			return service.Field{}, fmt.Errorf("decode coordinates of %q: %w", f.ID, err)
		}
	}
	return f, nil
}
