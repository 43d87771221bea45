package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kjannette/goldsight-backend/internal/models"
)

// ModelRepo stores saved models in PostgreSQL with the forecast as JSONB.
type ModelRepo struct {
	pool *pgxpool.Pool
}

func NewModelRepo(pool *pgxpool.Pool) *ModelRepo {
	return &ModelRepo{pool: pool}
}

func (r *ModelRepo) Save(ctx context.Context, m *models.SavedModel) error {
	forecast, err := json.Marshal(m.Forecast)
	if err != nil {
		return fmt.Errorf("marshal forecast: %w", err)
	}
	created := m.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
		m.CreatedAt = created
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO saved_models (id, name, horizon, forecast, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.Name, m.Horizon, forecast, created,
	)
	if err != nil {
		return fmt.Errorf("insert saved model: %w", err)
	}
	return nil
}

func (r *ModelRepo) List(ctx context.Context, limit int) ([]models.SavedModel, error) {
	query := `SELECT id, name, horizon, forecast, created_at
		FROM saved_models ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list saved models: %w", err)
	}
	defer rows.Close()
	return collectModels(rows)
}

func (r *ModelRepo) Get(ctx context.Context, id string) (*models.SavedModel, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, horizon, forecast, created_at FROM saved_models WHERE id = $1`, id)
	m, err := scanModel(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get saved model %s: %w", id, err)
	}
	return m, nil
}

func (r *ModelRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM saved_models WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete saved model %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ModelRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM saved_models`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count saved models: %w", err)
	}
	return n, nil
}

// --- scan helpers ---

type scannable interface {
	Scan(dest ...any) error
}

func scanModel(row scannable) (*models.SavedModel, error) {
	var m models.SavedModel
	var forecast []byte
	if err := row.Scan(&m.ID, &m.Name, &m.Horizon, &forecast, &m.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(forecast, &m.Forecast); err != nil {
		return nil, fmt.Errorf("decode forecast for %s: %w", m.ID, err)
	}
	return &m, nil
}

type rowsIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectModels(rows rowsIter) ([]models.SavedModel, error) {
	out := []models.SavedModel{}
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}
