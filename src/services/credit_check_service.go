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

// DefaultCheckRetries is how often a credit check is re-evaluated after a
// concurrent write to the same customer
const DefaultCheckRetries = 3

var ErrNegativeOrderAmount = errors.New("order amount cannot be negative")

// Ineligibility reasons
const (
	reasonCustomerUnavailable = "Customer not found or credit is no longer extended to this account"
	reasonCreditHold          = "Account is on credit hold. Please contact accounting."
)

// CreditCheckService decides whether a customer may place a new order on credit
type CreditCheckService struct {
	customers  CustomerRepository
	aggregator *DebtAggregator
	policies   *DebtPolicyService
	retries    int
	now        func() time.Time
}

// NewCreditCheckService creates a new credit check service
func NewCreditCheckService(customers CustomerRepository, aggregator *DebtAggregator, policies *DebtPolicyService, retries int) *CreditCheckService {
	if retries <= 0 {
		retries = DefaultCheckRetries
	}
	return &CreditCheckService{
		customers:  customers,
		aggregator: aggregator,
		policies:   policies,
		retries:    retries,
		now:        time.Now,
	}
}

// CheckEligibility evaluates a prospective order and caches the overdue
// figures on the customer. The cache write is compare-and-swap on the
// customer version; on conflict the whole check is re-evaluated.
func (s *CreditCheckService) CheckEligibility(ctx context.Context, customerID uuid.UUID, orderAmount decimal.Decimal) (*models.CreditCheckResult, error) {
	if orderAmount.IsNegative() {
		return nil, ErrNegativeOrderAmount
	}
	ctx = logger.WithCustomer(ctx, customerID)

	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		result, err := s.checkOnce(ctx, customerID, orderAmount)
		if err == nil {
			return result, nil
		}
		if !errors.Is(err, models.ErrVersionConflict) {
			return nil, err
		}
		lastErr = err
		logger.Warn(ctx, "credit check raced with another write, retrying", "attempt", attempt)
	}
	return nil, fmt.Errorf("credit check for customer %s gave up after %d attempts: %w", customerID, s.retries, lastErr)
}

func (s *CreditCheckService) checkOnce(ctx context.Context, customerID uuid.UUID, orderAmount decimal.Decimal) (*models.CreditCheckResult, error) {
	customer, err := s.customers.GetCustomer(ctx, customerID)
	if errors.Is(err, models.ErrRecordNotFound) {
		return customerUnavailableResult(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load customer %s: %w", customerID, err)
	}
	if !customer.IsActive() {
		return customerUnavailableResult(), nil
	}

	policy := s.policies.ResolvePolicy(ctx, customer.CustomerType)

	debt, overdue, err := s.aggregator.DebtPosition(ctx, customerID)
	if err != nil {
		return nil, err
	}

	result := EvaluateEligibility(customer, policy, debt, *overdue, orderAmount)

	err = s.customers.UpdateCreditSnapshot(ctx, models.CreditSnapshotUpdate{
		CustomerID:      customer.ID,
		ExpectedVersion: customer.Version,
		OverdueAmount:   overdue.OverdueAmount,
		MaxOverdueDays:  overdue.MaxOverdueDays,
		CheckedAt:       s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to cache credit check: %w", err)
	}

	logger.Debug(ctx, "credit check evaluated",
		"eligible", result.Eligible,
		"current_debt", debt.String(),
		"order_amount", orderAmount.String(),
		"max_overdue_days", overdue.MaxOverdueDays,
		"policy_source", policy.Source)

	return &result, nil
}

func customerUnavailableResult() *models.CreditCheckResult {
	return &models.CreditCheckResult{
		Eligible:         false,
		Reason:           reasonCustomerUnavailable,
		CurrentDebt:      decimal.Zero,
		CreditLimit:      decimal.Zero,
		AvailableCredit:  decimal.Zero,
		OverdueAmount:    decimal.Zero,
		RequiresApproval: false,
	}
}

// EvaluateEligibility applies the checks in order: hold, overdue days, then
// credit limit. The first failing check decides the reason. A warning is
// only attached to eligible results.
func EvaluateEligibility(customer *models.Customer, policy models.DebtPolicy, currentDebt decimal.Decimal, overdue models.OverdueInfo, orderAmount decimal.Decimal) models.CreditCheckResult {
	effectiveLimit := policy.EffectiveCreditLimit(customer.CreditLimit)

	result := models.CreditCheckResult{
		Eligible:        true,
		CurrentDebt:     currentDebt,
		CreditLimit:     customer.CreditLimit,
		AvailableCredit: effectiveLimit.Sub(currentDebt),
		OverdueAmount:   overdue.OverdueAmount,
		MaxOverdueDays:  overdue.MaxOverdueDays,
	}

	switch {
	case customer.CreditHold:
		result.Reason = reasonCreditHold
	case policy.BreachesOverdueLimit(overdue.MaxOverdueDays):
		result.Reason = fmt.Sprintf("Invoice overdue %d days (limit %d days). Please settle it first.",
			overdue.MaxOverdueDays, policy.MaxOverdueDays)
	case currentDebt.Add(orderAmount).GreaterThan(effectiveLimit):
		result.Reason = fmt.Sprintf("Credit limit exceeded. Current debt: %s, order: %s, limit: %s",
			FormatVND(currentDebt), FormatVND(orderAmount), FormatVND(effectiveLimit))
	default:
		if overdue.MaxOverdueDays > 0 && overdue.MaxOverdueDays <= policy.WarningDays {
			result.WarningMessage = fmt.Sprintf("An invoice reaches the overdue threshold within %d days. Please pay soon.",
				policy.WarningDays-overdue.MaxOverdueDays)
		}
		return result
	}

	result.Eligible = false
	result.RequiresApproval = true
	return result
}
