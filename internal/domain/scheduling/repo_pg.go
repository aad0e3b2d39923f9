package scheduling

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

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, patient_name, patient_contact, appointment_date, appointment_time,
	service_id, status, estimated_end_time, total_amount, invoice_id, created_at, updated_at`

func (r *appointmentRepoPG) scanAppt(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientName, &a.PatientContact, &a.AppointmentDate, &a.AppointmentTime,
		&a.ServiceID, &a.Status, &a.EstimatedEndTime, &a.TotalAmount, &a.InvoiceID,
		&a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointment (id, patient_name, patient_contact, appointment_date, appointment_time,
			service_id, status, estimated_end_time, total_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientName, a.PatientContact, a.AppointmentDate, a.AppointmentTime,
		a.ServiceID, a.Status, a.EstimatedEndTime, a.TotalAmount,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := r.scanAppt(r.conn(ctx).QueryRow(ctx, `SELECT `+apptCols+` FROM appointment WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Wrap(apperr.NotFound, err, "appointment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return a, nil
}

func (r *appointmentRepoPG) Update(ctx context.Context, a *Appointment) error {
	err := r.conn(ctx).QueryRow(ctx, `
		UPDATE appointment SET patient_name = $2, patient_contact = $3, appointment_date = $4,
			appointment_time = $5, service_id = $6, status = $7, estimated_end_time = $8,
			total_amount = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		a.ID, a.PatientName, a.PatientContact, a.AppointmentDate, a.AppointmentTime,
		a.ServiceID, a.Status, a.EstimatedEndTime, a.TotalAmount,
	).Scan(&a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.Wrap(apperr.NotFound, err, "appointment not found")
	}
	return err
}

// ListActiveByDate takes a transaction-scoped advisory lock on the date when
// called inside a transaction. Two saves for the same day then serialise
// between this read and their commit.
func (r *appointmentRepoPG) ListActiveByDate(ctx context.Context, date Date, excludeID uuid.UUID) ([]*Appointment, error) {
	if tx := db.TxFromContext(ctx); tx != nil {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "appointment:"+date.String()); err != nil {
			return nil, fmt.Errorf("lock appointment date %s: %w", date, err)
		}
	}

	rows, err := r.conn(ctx).Query(ctx, `SELECT `+apptCols+` FROM appointment
		WHERE appointment_date = $1 AND status <> $2 AND id <> $3
		ORDER BY appointment_time ASC NULLS LAST`,
		date, StatusCancelled, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

func (r *appointmentRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	query := `SELECT ` + apptCols + ` FROM appointment WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM appointment WHERE 1=1`
	var args []interface{}
	idx := 1

	if p, ok := params["date"]; ok {
		query += fmt.Sprintf(` AND appointment_date = $%d::date`, idx)
		countQuery += fmt.Sprintf(` AND appointment_date = $%d::date`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["status"]; ok {
		query += fmt.Sprintf(` AND status = $%d`, idx)
		countQuery += fmt.Sprintf(` AND status = $%d`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["service"]; ok {
		query += fmt.Sprintf(` AND service_id = $%d::uuid`, idx)
		countQuery += fmt.Sprintf(` AND service_id = $%d::uuid`, idx)
		args = append(args, p)
		idx++
	}
	if p, ok := params["patient"]; ok {
		query += fmt.Sprintf(` AND patient_name ILIKE $%d`, idx)
		countQuery += fmt.Sprintf(` AND patient_name ILIKE $%d`, idx)
		args = append(args, "%"+p+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY appointment_date DESC, appointment_time ASC NULLS LAST LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanAppt(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) SetInvoice(ctx context.Context, id, invoiceID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointment SET invoice_id = $2, updated_at = NOW()
		WHERE id = $1 AND invoice_id IS NULL`, id, invoiceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return apperr.New(apperr.InvalidTransition, "Invoice Already Linked",
		fmt.Sprintf("Appointment %s already has an invoice.", id))
}
