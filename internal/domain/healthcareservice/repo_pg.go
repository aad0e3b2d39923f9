package healthcareservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/appointments/internal/platform/apperr"
	"github.com/clinic/appointments/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type healthcareServiceRepoPG struct{ pool *pgxpool.Pool }

func NewHealthcareServiceRepoPG(pool *pgxpool.Pool) HealthcareServiceRepository {
	return &healthcareServiceRepoPG{pool: pool}
}

func (r *healthcareServiceRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const hsCols = `id, name, description, duration_minutes, price, created_at, updated_at`

func (r *healthcareServiceRepoPG) scanRow(row pgx.Row) (*HealthcareService, error) {
	var hs HealthcareService
	err := row.Scan(&hs.ID, &hs.Name, &hs.Description, &hs.DurationMinutes, &hs.Price,
		&hs.CreatedAt, &hs.UpdatedAt)
	return &hs, err
}

func (r *healthcareServiceRepoPG) Create(ctx context.Context, hs *HealthcareService) error {
	hs.ID = uuid.New()
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO healthcare_service (id, name, description, duration_minutes, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		hs.ID, hs.Name, hs.Description, hs.DurationMinutes, hs.Price,
	).Scan(&hs.CreatedAt, &hs.UpdatedAt)
	return mapWriteErr(err, hs.Name)
}

func (r *healthcareServiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*HealthcareService, error) {
	hs, err := r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+hsCols+` FROM healthcare_service WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Wrap(apperr.NotFound, err, "healthcare service not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get healthcare service %s: %w", id, err)
	}
	return hs, nil
}

func (r *healthcareServiceRepoPG) Update(ctx context.Context, hs *HealthcareService) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE healthcare_service SET name = $2, description = $3,
			duration_minutes = $4, price = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at`,
		hs.ID, hs.Name, hs.Description, hs.DurationMinutes, hs.Price,
	).Scan(&hs.CreatedAt, &hs.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.NotFound, err, "healthcare service not found")
	}
	return mapWriteErr(err, hs.Name)
}

func (r *healthcareServiceRepoPG) List(ctx context.Context, limit, offset int) ([]*HealthcareService, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM healthcare_service`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+hsCols+` FROM healthcare_service ORDER BY name ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := r.collect(rows)
	return items, total, err
}

func (r *healthcareServiceRepoPG) ListAll(ctx context.Context) ([]*HealthcareService, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+hsCols+` FROM healthcare_service ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *healthcareServiceRepoPG) collect(rows pgx.Rows) ([]*HealthcareService, error) {
	var items []*HealthcareService
	for rows.Next() {
		hs, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, hs)
	}
	return items, rows.Err()
}

func mapWriteErr(err error, name string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return apperr.Wrap(apperr.InvalidInput, err, fmt.Sprintf("a service named %q already exists", name))
	}
	return err
}
