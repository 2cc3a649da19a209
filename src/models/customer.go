package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerType is the customer segment used to pick a debt policy
type CustomerType string

const (
	CustomerTypeContractor CustomerType = "CONTRACTOR"
	CustomerTypeWholesale  CustomerType = "WHOLESALE"
	CustomerTypeRegular    CustomerType = "REGULAR"
)

// Customer represents a buyer account that can carry debt
type Customer struct {
	ID           uuid.UUID    `json:"id" db:"id"`
	Name         string       `json:"name" db:"name"`
	CompanyName  *string      `json:"company_name,omitempty" db:"company_name"`
	CustomerType CustomerType `json:"customer_type" db:"customer_type"`

	// Credit position
	CreditLimit    decimal.Decimal `json:"credit_limit" db:"credit_limit"`
	CreditHold     bool            `json:"credit_hold" db:"credit_hold"`
	CurrentBalance decimal.Decimal `json:"current_balance" db:"current_balance"` // Maintained by the ledger, not by this engine

	// Values cached by the last credit check
	OverdueAmount   decimal.Decimal `json:"overdue_amount" db:"overdue_amount"`
	MaxOverdueDays  int             `json:"max_overdue_days" db:"max_overdue_days"`
	LastCreditCheck *time.Time      `json:"last_credit_check,omitempty" db:"last_credit_check"`

	IsDeleted bool `json:"is_deleted" db:"is_deleted"`

	// Row version for optimistic locking; every engine write bumps it
	Version int64 `json:"version" db:"version"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Store level errors shared by every repository implementation
var (
	ErrRecordNotFound  = errors.New("record not found")
	ErrVersionConflict = errors.New("record was modified concurrently")
)

var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrInvalidCustomerType = errors.New("customer type is required")
	ErrNegativeCreditLimit = errors.New("credit limit cannot be negative")
)

// Validate validates the customer record
func (c *Customer) Validate() error {
	if c.CustomerType == "" {
		return ErrInvalidCustomerType
	}
	if c.CreditLimit.LessThan(decimal.Zero) {
		return ErrNegativeCreditLimit
	}
	return nil
}

// DisplayName prefers the company name for business accounts
func (c *Customer) DisplayName() string {
	if c.CompanyName != nil && *c.CompanyName != "" {
		return *c.CompanyName
	}
	return c.Name
}

// IsActive reports whether the customer may still be evaluated for credit
func (c *Customer) IsActive() bool {
	return !c.IsDeleted
}

// CustomerFilter narrows customer listings
type CustomerFilter struct {
	IncludeDeleted bool
	CustomerType   *CustomerType
}

// CreditSnapshotUpdate is the cached result of a credit check written back
// to the customer row. ExpectedVersion must match the stored version.
type CreditSnapshotUpdate struct {
	CustomerID      uuid.UUID
	ExpectedVersion int64
	OverdueAmount   decimal.Decimal
	MaxOverdueDays  int
	CheckedAt       time.Time
}
