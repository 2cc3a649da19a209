package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/logger"
	"github.com/livefire2015/ez-credit/src/models"
)

// CreditHoldService runs the credit hold state machine.
//
// UNLOCKED -> LOCKED happens automatically when the policy enables auto hold
// and the customer's fresh overdue figure breaches it. LOCKED -> UNLOCKED is
// never automatic; only an approved exception clears a hold. A customer with
// an active approved exception is not locked while the grant lasts.
type CreditHoldService struct {
	customers  CustomerRepository
	approvals  ApprovalRepository
	aggregator *DebtAggregator
	policies   *DebtPolicyService
	notifier   Notifier
	workers    int
	now        func() time.Time
}

// NewCreditHoldService creates a new credit hold service
func NewCreditHoldService(repos Repositories, aggregator *DebtAggregator, policies *DebtPolicyService, notifier Notifier, workers int) *CreditHoldService {
	return &CreditHoldService{
		customers:  repos.Customers,
		approvals:  repos.Approvals,
		aggregator: aggregator,
		policies:   policies,
		notifier:   notifier,
		workers:    workers,
		now:        time.Now,
	}
}

// holdDecision is the outcome for one customer
type holdDecision int

const (
	holdUnchanged holdDecision = iota
	holdLocked
	holdSuspended
	holdUnlockEligible
)

// AutoUpdateCreditHolds evaluates every active customer once. Running it
// twice in a row makes no further transitions.
func (s *CreditHoldService) AutoUpdateCreditHolds(ctx context.Context) (*models.CreditHoldRunResult, error) {
	ctx = logger.WithJob(ctx, "credit-hold-update")

	customers, err := s.customers.ListCustomers(ctx, models.CustomerFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	result := &models.CreditHoldRunResult{Processed: len(customers)}
	var mu sync.Mutex

	result.Failures = forEachCustomer(ctx, s.workers, customers, func(ctx context.Context, _ int, customer models.Customer) error {
		decision, err := s.evaluateCustomer(ctx, customer)
		if err != nil {
			return err
		}

		mu.Lock()
		defer mu.Unlock()
		switch decision {
		case holdLocked:
			result.Locked++
		case holdSuspended:
			result.Suspended++
		case holdUnlockEligible:
			result.UnlockEligible++
		}
		return nil
	})

	logger.Info(ctx, "credit hold update finished",
		"processed", result.Processed,
		"locked", result.Locked,
		"unlocked", result.Unlocked,
		"suspended", result.Suspended,
		"unlock_eligible", result.UnlockEligible,
		"failures", len(result.Failures))

	return result, nil
}

func (s *CreditHoldService) evaluateCustomer(ctx context.Context, customer models.Customer) (holdDecision, error) {
	policy := s.policies.ResolvePolicy(ctx, customer.CustomerType)

	overdue, err := s.aggregator.OverdueInfo(ctx, customer.ID)
	if err != nil {
		return holdUnchanged, err
	}
	shouldLock := policy.ShouldAutoHold(overdue.MaxOverdueDays)

	switch {
	case shouldLock && !customer.CreditHold:
		active, err := s.activeApproval(ctx, customer.ID)
		if err != nil {
			return holdUnchanged, err
		}
		if active != nil {
			logger.Info(ctx, "auto hold suspended by approved exception",
				"approval_id", active.ID,
				"expires_at", active.ExpiresAt)
			return holdSuspended, nil
		}

		if err := s.customers.SetCreditHold(ctx, customer.ID, customer.Version, true); err != nil {
			return holdUnchanged, fmt.Errorf("failed to lock customer: %w", err)
		}
		logger.Info(ctx, "customer put on credit hold",
			"max_overdue_days", overdue.MaxOverdueDays,
			"policy_max_overdue_days", policy.MaxOverdueDays)
		s.notifyLocked(ctx, customer, overdue.MaxOverdueDays)
		return holdLocked, nil

	case !shouldLock && customer.CreditHold:
		// Unlocking stays manual; only report that an approval would allow it.
		active, err := s.activeApproval(ctx, customer.ID)
		if err != nil {
			return holdUnchanged, err
		}
		if active != nil {
			return holdUnlockEligible, nil
		}
	}

	return holdUnchanged, nil
}

func (s *CreditHoldService) activeApproval(ctx context.Context, customerID uuid.UUID) (*models.CreditApproval, error) {
	if s.approvals == nil {
		return nil, nil
	}
	approval, err := s.approvals.FindActiveApproval(ctx, customerID, s.now())
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up active approval: %w", err)
	}
	return approval, nil
}

func (s *CreditHoldService) notifyLocked(ctx context.Context, customer models.Customer, maxOverdueDays int) {
	if s.notifier == nil {
		return
	}
	err := s.notifier.Send(ctx, models.Notification{
		Type:       models.NotificationTypeCreditHold,
		Priority:   models.PriorityHigh,
		CustomerID: customer.ID,
		Title:      "Credit account on hold",
		Message: fmt.Sprintf("Your account has been put on credit hold because an invoice is %d days overdue. Please pay to lift the hold.",
			maxOverdueDays),
		Data: map[string]interface{}{
			"customerId":     customer.ID.String(),
			"maxOverdueDays": maxOverdueDays,
			"action":         string(models.NotificationTypeCreditHold),
		},
	})
	if err != nil {
		logger.Warn(ctx, "credit hold notification failed", "error", err)
	}
}
