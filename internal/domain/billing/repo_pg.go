package billing

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

func connFor(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== Customer Repository ===========

type customerRepoPG struct{ pool *pgxpool.Pool }

func NewCustomerRepoPG(pool *pgxpool.Pool) CustomerRepository { return &customerRepoPG{pool: pool} }

func (r *customerRepoPG) GetOrCreate(ctx context.Context, name, customerType string) (*Customer, error) {
	q := connFor(ctx, r.pool)
	if _, err := q.Exec(ctx, `
		INSERT INTO customer (id, name, customer_type) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING`,
		uuid.New(), name, customerType); err != nil {
		return nil, fmt.Errorf("insert customer %q: %w", name, err)
	}
	var c Customer
	err := q.QueryRow(ctx, `SELECT id, name, customer_type, created_at FROM customer WHERE name = $1`, name).
		Scan(&c.ID, &c.Name, &c.CustomerType, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("load customer %q: %w", name, err)
	}
	return &c, nil
}

// =========== Item Repository ===========

type itemRepoPG struct{ pool *pgxpool.Pool }

func NewItemRepoPG(pool *pgxpool.Pool) ItemRepository { return &itemRepoPG{pool: pool} }

func (r *itemRepoPG) GetOrCreate(ctx context.Context, code string) (*Item, error) {
	q := connFor(ctx, r.pool)
	if _, err := q.Exec(ctx, `
		INSERT INTO item (code, name, item_group, is_stock_item, uom) VALUES ($1, $1, $2, FALSE, $3)
		ON CONFLICT (code) DO NOTHING`,
		code, ServiceItemGroup, DefaultUOM); err != nil {
		return nil, fmt.Errorf("insert item %q: %w", code, err)
	}
	var it Item
	err := q.QueryRow(ctx, `SELECT code, name, item_group, is_stock_item, uom, created_at FROM item WHERE code = $1`, code).
		Scan(&it.Code, &it.Name, &it.ItemGroup, &it.IsStockItem, &it.UOM, &it.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("load item %q: %w", code, err)
	}
	return &it, nil
}

// =========== Invoice Repository ===========

type invoiceRepoPG struct{ pool *pgxpool.Pool }

func NewInvoiceRepoPG(pool *pgxpool.Pool) InvoiceRepository { return &invoiceRepoPG{pool: pool} }

func (r *invoiceRepoPG) conn(ctx context.Context) queryable { return connFor(ctx, r.pool) }

const invCols = `id, appointment_id, customer_id, posting_date, due_date, is_pos,
	status, currency, grand_total, paid_amount, created_at, submitted_at`

func (r *invoiceRepoPG) scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.AppointmentID, &inv.CustomerID, &inv.PostingDate, &inv.DueDate, &inv.IsPOS,
		&inv.Status, &inv.Currency, &inv.GrandTotal, &inv.PaidAmount, &inv.CreatedAt, &inv.SubmittedAt)
	return &inv, err
}

func (r *invoiceRepoPG) Create(ctx context.Context, inv *Invoice) error {
	inv.ID = uuid.New()
	q := r.conn(ctx)
	err := q.QueryRow(ctx, `
		INSERT INTO invoice (id, appointment_id, customer_id, posting_date, due_date, is_pos,
			status, currency, grand_total, paid_amount, submitted_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at`,
		inv.ID, inv.AppointmentID, inv.CustomerID, inv.PostingDate, inv.DueDate, inv.IsPOS,
		inv.Status, inv.Currency, inv.GrandTotal, inv.PaidAmount, inv.SubmittedAt,
	).Scan(&inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert invoice: %w", err)
	}

	for _, li := range inv.Items {
		li.ID = uuid.New()
		li.InvoiceID = inv.ID
		if _, err := q.Exec(ctx, `
			INSERT INTO invoice_line_item (id, invoice_id, sequence, item_code, item_name, description,
				quantity, rate, amount, uom)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			li.ID, li.InvoiceID, li.Sequence, li.ItemCode, li.ItemName, li.Description,
			li.Quantity, li.Rate, li.Amount, li.UOM); err != nil {
			return fmt.Errorf("insert invoice line %d: %w", li.Sequence, err)
		}
	}
	for _, p := range inv.Payments {
		p.ID = uuid.New()
		p.InvoiceID = inv.ID
		if _, err := q.Exec(ctx, `
			INSERT INTO invoice_payment (id, invoice_id, mode_of_payment, amount)
			VALUES ($1,$2,$3,$4)`,
			p.ID, p.InvoiceID, p.ModeOfPayment, p.Amount); err != nil {
			return fmt.Errorf("insert invoice payment: %w", err)
		}
	}
	return nil
}

func (r *invoiceRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := r.scanInvoice(r.conn(ctx).QueryRow(ctx, `SELECT `+invCols+` FROM invoice WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Wrap(apperr.NotFound, err, "invoice not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice %s: %w", id, err)
	}
	if err := r.loadChildren(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invoiceRepoPG) ListByAppointment(ctx context.Context, appointmentID uuid.UUID) ([]*Invoice, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+invCols+` FROM invoice WHERE appointment_id = $1 ORDER BY created_at`, appointmentID)
	if err != nil {
		return nil, err
	}
	items, err := r.collect(rows)
	if err != nil {
		return nil, err
	}
	for _, inv := range items {
		if err := r.loadChildren(ctx, inv); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (r *invoiceRepoPG) List(ctx context.Context, limit, offset int) ([]*Invoice, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM invoice`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+invCols+` FROM invoice ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := r.collect(rows)
	if err != nil {
		return nil, 0, err
	}
	for _, inv := range items {
		if err := r.loadChildren(ctx, inv); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

func (r *invoiceRepoPG) collect(rows pgx.Rows) ([]*Invoice, error) {
	defer rows.Close()
	var items []*Invoice
	for rows.Next() {
		inv, err := r.scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, inv)
	}
	return items, rows.Err()
}

func (r *invoiceRepoPG) loadChildren(ctx context.Context, inv *Invoice) error {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, invoice_id, sequence, item_code, item_name, description, quantity, rate, amount, uom
		FROM invoice_line_item WHERE invoice_id = $1 ORDER BY sequence`, inv.ID)
	if err != nil {
		return err
	}
	inv.Items = nil
	for rows.Next() {
		var li InvoiceLineItem
		if err := rows.Scan(&li.ID, &li.InvoiceID, &li.Sequence, &li.ItemCode, &li.ItemName, &li.Description,
			&li.Quantity, &li.Rate, &li.Amount, &li.UOM); err != nil {
			rows.Close()
			return err
		}
		inv.Items = append(inv.Items, &li)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.conn(ctx).Query(ctx, `
		SELECT id, invoice_id, mode_of_payment, amount
		FROM invoice_payment WHERE invoice_id = $1`, inv.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	inv.Payments = nil
	for rows.Next() {
		var p InvoicePayment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.ModeOfPayment, &p.Amount); err != nil {
			return err
		}
		inv.Payments = append(inv.Payments, &p)
	}
	return rows.Err()
}
