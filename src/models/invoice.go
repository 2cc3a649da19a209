package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceType distinguishes receivables from payables
type InvoiceType string

const (
	InvoiceTypeSales    InvoiceType = "SALES"
	InvoiceTypePurchase InvoiceType = "PURCHASE"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "DRAFT"
	InvoiceStatusSent      InvoiceStatus = "SENT"
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"
	InvoiceStatusPaid      InvoiceStatus = "PAID"
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED"
)

// Status sets used by debt calculations
var (
	// DebtInvoiceStatuses count toward current debt and overdue figures
	DebtInvoiceStatuses = []InvoiceStatus{InvoiceStatusSent, InvoiceStatusOverdue}

	// AgingInvoiceStatuses count toward the aging report; drafts are
	// reported but never block credit
	AgingInvoiceStatuses = []InvoiceStatus{InvoiceStatusSent, InvoiceStatusOverdue, InvoiceStatusDraft}
)

// Invoice represents a billed obligation of a customer
type Invoice struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	InvoiceNumber string        `json:"invoice_number" db:"invoice_number"`
	CustomerID    uuid.UUID     `json:"customer_id" db:"customer_id"`
	OrderID       *uuid.UUID    `json:"order_id,omitempty" db:"order_id"` // Order this invoice was generated from
	InvoiceType   InvoiceType   `json:"invoice_type" db:"invoice_type"`
	Status        InvoiceStatus `json:"status" db:"status"`

	TotalAmount   decimal.Decimal `json:"total_amount" db:"total_amount"`
	BalanceAmount decimal.Decimal `json:"balance_amount" db:"balance_amount"` // Unpaid part

	DueDate *time.Time `json:"due_date,omitempty" db:"due_date"` // nil means not yet due
	PaidAt  *time.Time `json:"paid_at,omitempty" db:"paid_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CountsTowardDebt reports whether the invoice is part of current debt
func (i *Invoice) CountsTowardDebt() bool {
	return i.InvoiceType == InvoiceTypeSales && containsStatus(DebtInvoiceStatuses, i.Status)
}

// CountsTowardAging reports whether the invoice appears in the aging report
func (i *Invoice) CountsTowardAging() bool {
	return i.InvoiceType == InvoiceTypeSales && containsStatus(AgingInvoiceStatuses, i.Status)
}

// OverdueDays returns the whole days past due and whether a due date exists.
// Invoices without a due date are never overdue.
func (i *Invoice) OverdueDays(now time.Time) (int, bool) {
	if i.DueDate == nil {
		return 0, false
	}
	return OverdueDays(*i.DueDate, now), true
}

// IsOverdue reports whether the due date lies strictly before now
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.DueDate != nil && i.DueDate.Before(now)
}

// InvoiceFilter narrows invoice listings. A nil CustomerID lists every customer.
type InvoiceFilter struct {
	CustomerID *uuid.UUID
	Types      []InvoiceType
	Statuses   []InvoiceStatus
}

// Matches applies the filter to a single invoice
func (f InvoiceFilter) Matches(inv *Invoice) bool {
	if f.CustomerID != nil && inv.CustomerID != *f.CustomerID {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if t == inv.InvoiceType {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, inv.Status) {
		return false
	}
	return true
}

func containsStatus(statuses []InvoiceStatus, s InvoiceStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
