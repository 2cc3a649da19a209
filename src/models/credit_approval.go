package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApprovalStatus represents the state of a credit exception request
type ApprovalStatus string

const (
	ApprovalStatusPending  ApprovalStatus = "PENDING"
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// DefaultApprovalValidity is how long an exception request (and the grant
// it produces) stays valid
const DefaultApprovalValidity = 7 * 24 * time.Hour

// CreditApproval is a manual exception request letting a customer exceed
// policy for a limited time
type CreditApproval struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	CustomerID uuid.UUID  `json:"customer_id" db:"customer_id"`
	OrderID    *uuid.UUID `json:"order_id,omitempty" db:"order_id"`

	// Snapshot taken when the request was created
	RequestedAmount decimal.Decimal `json:"requested_amount" db:"requested_amount"`
	CurrentDebt     decimal.Decimal `json:"current_debt" db:"current_debt"`
	CreditLimit     decimal.Decimal `json:"credit_limit" db:"credit_limit"`
	Reason          string          `json:"reason" db:"reason"`

	// Decision
	Status         ApprovalStatus `json:"status" db:"status"`
	ApprovedBy     *string        `json:"approved_by,omitempty" db:"approved_by"`
	ApprovedAt     *time.Time     `json:"approved_at,omitempty" db:"approved_at"`
	RejectedReason *string        `json:"rejected_reason,omitempty" db:"rejected_reason"`
	ExpiresAt      time.Time      `json:"expires_at" db:"expires_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

var (
	ErrApprovalNotFound      = errors.New("credit approval not found")
	ErrApprovalNotPending    = errors.New("credit approval has already been processed")
	ErrApprovalExpired       = errors.New("credit approval request has expired")
	ErrInvalidApprovalAmount = errors.New("requested amount must be positive")
	ErrApprovalReasonMissing = errors.New("approval reason is required")
	ErrApproverMissing       = errors.New("approver is required")
)

// CanTransitionTo checks if the approval can move to a new status
func (a *CreditApproval) CanTransitionTo(newStatus ApprovalStatus) bool {
	validTransitions := map[ApprovalStatus][]ApprovalStatus{
		ApprovalStatusPending: {
			ApprovalStatusApproved,
			ApprovalStatusRejected,
		},
		ApprovalStatusApproved: {}, // Terminal state
		ApprovalStatusRejected: {}, // Terminal state
	}

	allowed, exists := validTransitions[a.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == newStatus {
			return true
		}
	}
	return false
}

// IsTerminal returns true once the request has been decided
func (a *CreditApproval) IsTerminal() bool {
	return a.Status == ApprovalStatusApproved || a.Status == ApprovalStatusRejected
}

// IsExpired reports whether the validity window has passed
func (a *CreditApproval) IsExpired(now time.Time) bool {
	return !a.ExpiresAt.After(now)
}

// IsActiveGrant reports whether an approved exception is still in force
func (a *CreditApproval) IsActiveGrant(now time.Time) bool {
	return a.Status == ApprovalStatusApproved && a.ExpiresAt.After(now)
}

// ApprovalFilter narrows approval listings
type ApprovalFilter struct {
	CustomerID *uuid.UUID
	Status     *ApprovalStatus
}

// Matches applies the filter to a single approval
func (f ApprovalFilter) Matches(a *CreditApproval) bool {
	if f.CustomerID != nil && a.CustomerID != *f.CustomerID {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	return true
}

// CreditApprovalBuilder helps construct approval requests
type CreditApprovalBuilder struct {
	approval *CreditApproval
}

// NewCreditApprovalBuilder creates a pending approval valid for the default window
func NewCreditApprovalBuilder(now time.Time) *CreditApprovalBuilder {
	return &CreditApprovalBuilder{
		approval: &CreditApproval{
			ID:        uuid.New(),
			Status:    ApprovalStatusPending,
			ExpiresAt: now.Add(DefaultApprovalValidity),
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// WithCustomer sets the customer and optional order
func (b *CreditApprovalBuilder) WithCustomer(customerID uuid.UUID, orderID *uuid.UUID) *CreditApprovalBuilder {
	b.approval.CustomerID = customerID
	b.approval.OrderID = orderID
	return b
}

// WithRequest sets the requested amount and reason
func (b *CreditApprovalBuilder) WithRequest(amount decimal.Decimal, reason string) *CreditApprovalBuilder {
	b.approval.RequestedAmount = amount
	b.approval.Reason = reason
	return b
}

// WithSnapshot records debt and limit at request time
func (b *CreditApprovalBuilder) WithSnapshot(currentDebt, creditLimit decimal.Decimal) *CreditApprovalBuilder {
	b.approval.CurrentDebt = currentDebt
	b.approval.CreditLimit = creditLimit
	return b
}

// WithValidity overrides the validity window
func (b *CreditApprovalBuilder) WithValidity(validity time.Duration) *CreditApprovalBuilder {
	b.approval.ExpiresAt = b.approval.CreatedAt.Add(validity)
	return b
}

// Build validates and returns the approval
func (b *CreditApprovalBuilder) Build() (*CreditApproval, error) {
	if b.approval.RequestedAmount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidApprovalAmount
	}
	if b.approval.Reason == "" {
		return nil, ErrApprovalReasonMissing
	}
	return b.approval, nil
}
