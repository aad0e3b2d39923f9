package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice status values.
const (
	InvoiceStatusDraft     = "Draft"
	InvoiceStatusPaid      = "Paid"
	InvoiceStatusCancelled = "Cancelled"
)

const (
	// WalkInCustomer is the single customer every appointment is billed to.
	WalkInCustomer     = "Walk-in Customer"
	CustomerIndividual = "Individual"

	ServiceItemGroup = "Services"
	DefaultUOM       = "Nos"

	ModeCash = "Cash"
)

// Customer maps to the customer table.
type Customer struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	CustomerType string    `db:"customer_type" json:"customer_type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Item maps to the item table. Each healthcare service is sold as a
// non-stock item whose code is the service name.
type Item struct {
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	ItemGroup   string    `db:"item_group" json:"item_group"`
	IsStockItem bool      `db:"is_stock_item" json:"is_stock_item"`
	UOM         string    `db:"uom" json:"uom"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Invoice maps to the invoice table. Items and Payments are stored in their
// own tables and loaded with the header.
type Invoice struct {
	ID            uuid.UUID          `db:"id" json:"id"`
	AppointmentID uuid.UUID          `db:"appointment_id" json:"appointment_id"`
	CustomerID    uuid.UUID          `db:"customer_id" json:"customer_id"`
	PostingDate   time.Time          `db:"posting_date" json:"posting_date"`
	DueDate       time.Time          `db:"due_date" json:"due_date"`
	IsPOS         bool               `db:"is_pos" json:"is_pos"`
	Status        string             `db:"status" json:"status"`
	Currency      string             `db:"currency" json:"currency"`
	GrandTotal    decimal.Decimal    `db:"grand_total" json:"grand_total"`
	PaidAmount    decimal.Decimal    `db:"paid_amount" json:"paid_amount"`
	CreatedAt     time.Time          `db:"created_at" json:"created_at"`
	SubmittedAt   *time.Time         `db:"submitted_at" json:"submitted_at,omitempty"`
	Items         []*InvoiceLineItem `json:"items"`
	Payments      []*InvoicePayment  `json:"payments"`
}

// InvoiceLineItem maps to the invoice_line_item table.
type InvoiceLineItem struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	InvoiceID   uuid.UUID       `db:"invoice_id" json:"invoice_id"`
	Sequence    int             `db:"sequence" json:"sequence"`
	ItemCode    string          `db:"item_code" json:"item_code"`
	ItemName    string          `db:"item_name" json:"item_name"`
	Description string          `db:"description" json:"description"`
	Quantity    decimal.Decimal `db:"quantity" json:"quantity"`
	Rate        decimal.Decimal `db:"rate" json:"rate"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	UOM         string          `db:"uom" json:"uom"`
}

// InvoicePayment maps to the invoice_payment table.
type InvoicePayment struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	InvoiceID     uuid.UUID       `db:"invoice_id" json:"invoice_id"`
	ModeOfPayment string          `db:"mode_of_payment" json:"mode_of_payment"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
}

// Billable is what billing needs to know about an appointment.
type Billable struct {
	AppointmentID uuid.UUID
	PatientName   string
	ServiceID     uuid.UUID
	ServiceName   string
	TotalAmount   decimal.NullDecimal
}

// LineDescription is the text of the single line on an appointment invoice.
func (b *Billable) LineDescription() string {
	return fmt.Sprintf("Appointment ID: %s | Patient: %s", b.AppointmentID, b.PatientName)
}

// AddItem appends a line and recomputes the grand total.
func (inv *Invoice) AddItem(li *InvoiceLineItem) {
	li.Sequence = len(inv.Items) + 1
	li.Amount = li.Quantity.Mul(li.Rate)
	if li.UOM == "" {
		li.UOM = DefaultUOM
	}
	inv.Items = append(inv.Items, li)
	inv.GrandTotal = decimal.Zero
	for _, it := range inv.Items {
		inv.GrandTotal = inv.GrandTotal.Add(it.Amount)
	}
}

// Submit records full payment and marks the invoice Paid.
func (inv *Invoice) Submit(mode string, at time.Time) error {
	if inv.Status != InvoiceStatusDraft {
		return fmt.Errorf("invoice is %s, only drafts can be submitted", inv.Status)
	}
	if len(inv.Items) == 0 {
		return fmt.Errorf("invoice has no items")
	}
	inv.Payments = append(inv.Payments, &InvoicePayment{ModeOfPayment: mode, Amount: inv.GrandTotal})
	inv.PaidAmount = decimal.Zero
	for _, p := range inv.Payments {
		inv.PaidAmount = inv.PaidAmount.Add(p.Amount)
	}
	inv.Status = InvoiceStatusPaid
	inv.SubmittedAt = &at
	return nil
}
