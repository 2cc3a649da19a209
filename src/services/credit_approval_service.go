package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/logger"
	"github.com/livefire2015/ez-credit/src/models"
	"github.com/shopspring/decimal"
)

// CreditApprovalService manages manual credit exceptions
type CreditApprovalService struct {
	customers  CustomerRepository
	approvals  ApprovalRepository
	aggregator *DebtAggregator
	validity   time.Duration
	retries    int
	now        func() time.Time
}

// NewCreditApprovalService creates a new approval service
func NewCreditApprovalService(repos Repositories, aggregator *DebtAggregator, validity time.Duration, retries int) *CreditApprovalService {
	if validity <= 0 {
		validity = models.DefaultApprovalValidity
	}
	if retries <= 0 {
		retries = DefaultCheckRetries
	}
	return &CreditApprovalService{
		customers:  repos.Customers,
		approvals:  repos.Approvals,
		aggregator: aggregator,
		validity:   validity,
		retries:    retries,
		now:        time.Now,
	}
}

// CreateApprovalRequest contains parameters for a credit exception request
type CreateApprovalRequest struct {
	CustomerID uuid.UUID
	OrderID    *uuid.UUID
	Amount     decimal.Decimal
	Reason     string
}

// CreateCreditApprovalRequest opens a pending exception. Debt and limit are
// snapshotted now and not re-read when the request is decided.
func (s *CreditApprovalService) CreateCreditApprovalRequest(ctx context.Context, req CreateApprovalRequest) (*models.CreditApproval, error) {
	ctx = logger.WithCustomer(ctx, req.CustomerID)

	builder := models.NewCreditApprovalBuilder(s.now()).
		WithCustomer(req.CustomerID, req.OrderID).
		WithRequest(req.Amount, req.Reason).
		WithValidity(s.validity)

	// Validate input before touching the store
	if _, err := builder.Build(); err != nil {
		return nil, err
	}

	customer, err := s.customers.GetCustomer(ctx, req.CustomerID)
	if errors.Is(err, models.ErrRecordNotFound) || (err == nil && !customer.IsActive()) {
		return nil, models.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load customer %s: %w", req.CustomerID, err)
	}

	debt, err := s.aggregator.CurrentDebt(ctx, req.CustomerID)
	if err != nil {
		return nil, err
	}

	approval, err := builder.WithSnapshot(debt, customer.CreditLimit).Build()
	if err != nil {
		return nil, err
	}
	if err := s.approvals.CreateApproval(ctx, approval); err != nil {
		return nil, fmt.Errorf("failed to create credit approval: %w", err)
	}

	logger.Info(ctx, "credit approval requested",
		"approval_id", approval.ID,
		"amount", approval.RequestedAmount.String(),
		"current_debt", debt.String(),
		"expires_at", approval.ExpiresAt)

	return approval, nil
}

// ProcessApprovalRequest contains the decision on a pending exception
type ProcessApprovalRequest struct {
	ApprovalID     uuid.UUID
	Approved       bool
	ApprovedBy     string
	RejectedReason *string
}

// ProcessApproval decides a pending exception. Approving clears the
// customer's credit hold immediately; this is the only path that unlocks.
//
// When the decision is stored but the hold cannot be cleared, the decided
// approval is returned together with the error.
func (s *CreditApprovalService) ProcessApproval(ctx context.Context, req ProcessApprovalRequest) (*models.CreditApproval, error) {
	if req.ApprovedBy == "" {
		return nil, models.ErrApproverMissing
	}

	approval, err := s.approvals.GetApproval(ctx, req.ApprovalID)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, models.ErrApprovalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credit approval %s: %w", req.ApprovalID, err)
	}
	ctx = logger.WithCustomer(ctx, approval.CustomerID)

	newStatus := models.ApprovalStatusRejected
	if req.Approved {
		newStatus = models.ApprovalStatusApproved
	}
	if !approval.CanTransitionTo(newStatus) {
		return nil, models.ErrApprovalNotPending
	}

	now := s.now()
	if approval.IsExpired(now) {
		return nil, models.ErrApprovalExpired
	}

	approvedBy := req.ApprovedBy
	approval.Status = newStatus
	approval.ApprovedBy = &approvedBy
	approval.ApprovedAt = &now
	approval.RejectedReason = nil
	if !req.Approved {
		approval.RejectedReason = req.RejectedReason
	}
	approval.UpdatedAt = now

	if err := s.approvals.UpdateApprovalDecision(ctx, approval); err != nil {
		if errors.Is(err, models.ErrVersionConflict) {
			return nil, models.ErrApprovalNotPending
		}
		return nil, fmt.Errorf("failed to record approval decision: %w", err)
	}

	logger.Info(ctx, "credit approval processed",
		"approval_id", approval.ID,
		"status", approval.Status,
		"approved_by", approvedBy)

	if req.Approved {
		if err := s.clearHold(ctx, approval.CustomerID); err != nil {
			return approval, err
		}
	}
	return approval, nil
}

func (s *CreditApprovalService) clearHold(ctx context.Context, customerID uuid.UUID) error {
	for attempt := 1; attempt <= s.retries; attempt++ {
		customer, err := s.customers.GetCustomer(ctx, customerID)
		if errors.Is(err, models.ErrRecordNotFound) {
			return models.ErrCustomerNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load customer %s: %w", customerID, err)
		}
		if !customer.CreditHold {
			return nil
		}

		err = s.customers.SetCreditHold(ctx, customerID, customer.Version, false)
		if err == nil {
			logger.Info(ctx, "credit hold cleared by approval")
			return nil
		}
		if !errors.Is(err, models.ErrVersionConflict) {
			return fmt.Errorf("failed to clear credit hold: %w", err)
		}
		logger.Warn(ctx, "credit hold clear raced with another write, retrying", "attempt", attempt)
	}
	return fmt.Errorf("failed to clear credit hold for customer %s: %w", customerID, models.ErrVersionConflict)
}

// ListPendingApprovals returns pending requests newest first
func (s *CreditApprovalService) ListPendingApprovals(ctx context.Context) ([]models.CreditApproval, error) {
	pending := models.ApprovalStatusPending
	approvals, err := s.approvals.ListApprovals(ctx, models.ApprovalFilter{Status: &pending})
	if err != nil {
		return nil, fmt.Errorf("failed to list pending approvals: %w", err)
	}
	return approvals, nil
}

// ActiveApproval returns the approved exception currently in force for the
// customer, or nil when there is none
func (s *CreditApprovalService) ActiveApproval(ctx context.Context, customerID uuid.UUID) (*models.CreditApproval, error) {
	approval, err := s.approvals.FindActiveApproval(ctx, customerID, s.now())
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up active approval: %w", err)
	}
	return approval, nil
}
