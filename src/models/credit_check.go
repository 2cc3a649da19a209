package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditCheckResult is the outcome of an order eligibility check
type CreditCheckResult struct {
	Eligible         bool            `json:"eligible"`
	Reason           string          `json:"reason,omitempty"` // Set only when not eligible
	CurrentDebt      decimal.Decimal `json:"current_debt"`
	CreditLimit      decimal.Decimal `json:"credit_limit"`
	AvailableCredit  decimal.Decimal `json:"available_credit"` // Effective limit minus debt, may be negative
	OverdueAmount    decimal.Decimal `json:"overdue_amount"`
	MaxOverdueDays   int             `json:"max_overdue_days"`
	RequiresApproval bool            `json:"requires_approval"`
	WarningMessage   string          `json:"warning_message,omitempty"`
}

// OverdueInvoice is a single overdue invoice in an overdue breakdown
type OverdueInvoice struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	DueDate       time.Time       `json:"due_date"`
	OverdueDays   int             `json:"overdue_days"`
}

// OverdueInfo summarises the overdue invoices of one customer
type OverdueInfo struct {
	OverdueAmount   decimal.Decimal  `json:"overdue_amount"`
	MaxOverdueDays  int              `json:"max_overdue_days"` // Worst single invoice
	OverdueInvoices []OverdueInvoice `json:"overdue_invoices"`
}

// CustomerFailure records a customer skipped by a batch run
type CustomerFailure struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Err        error     `json:"-"`
	Message    string    `json:"error"`
}

// CreditHoldRunResult summarises one run of the credit hold batch
type CreditHoldRunResult struct {
	Processed      int               `json:"processed"`
	Locked         int               `json:"locked"`
	Unlocked       int               `json:"unlocked"`
	UnlockEligible int               `json:"unlock_eligible"` // Held, no longer breaching, active approval present
	Suspended      int               `json:"suspended"`       // Breaching but protected by an active approval
	Failures       []CustomerFailure `json:"failures,omitempty"`
}
