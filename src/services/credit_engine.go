package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
	"github.com/shopspring/decimal"
)

// EngineOptions tunes the credit engine. Zero values select defaults.
type EngineOptions struct {
	Workers          int
	CheckRetries     int
	ReminderDays     []int
	ApprovalValidity time.Duration
	Now              func() time.Time // Clock used by every component
}

// CreditEngine is the entry point used by the order API, the admin UI and
// the scheduled jobs. It wires every credit component over one set of
// repositories.
type CreditEngine struct {
	policies   *DebtPolicyService
	aggregator *DebtAggregator
	aging      *DebtAgingService
	checks     *CreditCheckService
	holds      *CreditHoldService
	approvals  *CreditApprovalService
	reminders  *DebtReminderService
	risk       *CreditRiskService
}

// NewCreditEngine creates a new credit engine
func NewCreditEngine(repos Repositories, notifier Notifier, opts EngineOptions) *CreditEngine {
	policies := NewDebtPolicyService(repos.Configurations)
	aggregator := NewDebtAggregator(repos.Invoices)
	holds := NewCreditHoldService(repos, aggregator, policies, notifier, opts.Workers)

	e := &CreditEngine{
		policies:   policies,
		aggregator: aggregator,
		aging:      NewDebtAgingService(repos, opts.Workers),
		checks:     NewCreditCheckService(repos.Customers, aggregator, policies, opts.CheckRetries),
		holds:      holds,
		approvals:  NewCreditApprovalService(repos, aggregator, opts.ApprovalValidity, opts.CheckRetries),
		reminders:  NewDebtReminderService(repos.Invoices, notifier, holds, opts.ReminderDays),
		risk:       NewCreditRiskService(repos),
	}

	if opts.Now != nil {
		e.aggregator.now = opts.Now
		e.aging.now = opts.Now
		e.checks.now = opts.Now
		e.holds.now = opts.Now
		e.approvals.now = opts.Now
		e.reminders.now = opts.Now
		e.risk.now = opts.Now
	}
	return e
}

// CheckEligibility decides whether the customer may place an order of orderAmount
func (e *CreditEngine) CheckEligibility(ctx context.Context, customerID uuid.UUID, orderAmount decimal.Decimal) (*models.CreditCheckResult, error) {
	return e.checks.CheckEligibility(ctx, customerID, orderAmount)
}

// GenerateDebtAgingReport builds the aging report for all active customers
func (e *CreditEngine) GenerateDebtAgingReport(ctx context.Context) (*DebtAgingReportResult, error) {
	return e.aging.GenerateDebtAgingReport(ctx)
}

// CreateCreditApprovalRequest opens a credit exception request
func (e *CreditEngine) CreateCreditApprovalRequest(ctx context.Context, req CreateApprovalRequest) (*models.CreditApproval, error) {
	return e.approvals.CreateCreditApprovalRequest(ctx, req)
}

// ProcessApproval approves or rejects a pending exception
func (e *CreditEngine) ProcessApproval(ctx context.Context, req ProcessApprovalRequest) (*models.CreditApproval, error) {
	return e.approvals.ProcessApproval(ctx, req)
}

// AutoUpdateCreditHolds runs the credit hold state machine over all customers
func (e *CreditEngine) AutoUpdateCreditHolds(ctx context.Context) (*models.CreditHoldRunResult, error) {
	return e.holds.AutoUpdateCreditHolds(ctx)
}

// ListPendingApprovals returns undecided exception requests, newest first
func (e *CreditEngine) ListPendingApprovals(ctx context.Context) ([]models.CreditApproval, error) {
	return e.approvals.ListPendingApprovals(ctx)
}

// ActiveApproval returns the customer's unexpired approved exception, if any
func (e *CreditEngine) ActiveApproval(ctx context.Context, customerID uuid.UUID) (*models.CreditApproval, error) {
	return e.approvals.ActiveApproval(ctx, customerID)
}

// ResolvePolicy returns the debt policy that applies to a customer segment
func (e *CreditEngine) ResolvePolicy(ctx context.Context, segment models.CustomerType) models.DebtPolicy {
	return e.policies.ResolvePolicy(ctx, segment)
}

// ListDebtConfigurations returns the stored policy rows ordered by name
func (e *CreditEngine) ListDebtConfigurations(ctx context.Context) ([]models.DebtConfiguration, error) {
	return e.policies.ListDebtConfigurations(ctx)
}

// SaveDebtConfiguration validates and upserts a policy row
func (e *CreditEngine) SaveDebtConfiguration(ctx context.Context, cfg *models.DebtConfiguration) error {
	return e.policies.SaveDebtConfiguration(ctx, cfg)
}

// ProcessReminders sends due reminders and then runs the hold update
func (e *CreditEngine) ProcessReminders(ctx context.Context) (*models.ReminderRunResult, error) {
	return e.reminders.ProcessReminders(ctx)
}

// AnalyzeCustomer scores one customer's credit risk and suggests a limit
func (e *CreditEngine) AnalyzeCustomer(ctx context.Context, customerID uuid.UUID) (*models.CreditRiskResult, error) {
	return e.risk.AnalyzeCustomer(ctx, customerID)
}

// AnalyzeAllContractors scores every contractor, riskiest first
func (e *CreditEngine) AnalyzeAllContractors(ctx context.Context) ([]models.CreditRiskResult, error) {
	return e.risk.AnalyzeAllContractors(ctx)
}
