package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/logger"
	"github.com/livefire2015/ez-credit/src/models"
	"github.com/shopspring/decimal"
)

const (
	riskOrderHistorySize   = 50
	riskDefaultPaymentTerm = 30 * 24 * time.Hour
	riskRecentWindow       = 30 * 24 * time.Hour
	riskMonth              = 30 * 24 * time.Hour
)

// CreditRiskService scores customer creditworthiness from order and
// invoice history
type CreditRiskService struct {
	customers CustomerRepository
	invoices  InvoiceRepository
	orders    OrderRepository
	now       func() time.Time
}

// NewCreditRiskService creates a new credit risk service
func NewCreditRiskService(repos Repositories) *CreditRiskService {
	return &CreditRiskService{
		customers: repos.Customers,
		invoices:  repos.Invoices,
		orders:    repos.Orders,
		now:       time.Now,
	}
}

// AnalyzeCustomer scores one customer
func (s *CreditRiskService) AnalyzeCustomer(ctx context.Context, customerID uuid.UUID) (*models.CreditRiskResult, error) {
	customer, err := s.customers.GetCustomer(ctx, customerID)
	if errors.Is(err, models.ErrRecordNotFound) {
		return nil, models.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load customer %s: %w", customerID, err)
	}

	orders, err := s.orders.ListOrders(ctx, models.OrderFilter{
		CustomerID: &customerID,
		Limit:      riskOrderHistorySize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	invoices, err := s.invoices.ListInvoices(ctx, models.InvoiceFilter{CustomerID: &customerID})
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	result := ScoreCreditRisk(customer, orders, invoices, s.now())
	return &result, nil
}

// AnalyzeAllContractors scores every contractor, riskiest first. Customers
// that fail to load are logged and left out.
func (s *CreditRiskService) AnalyzeAllContractors(ctx context.Context) ([]models.CreditRiskResult, error) {
	ctx = logger.WithJob(ctx, "credit-risk")
	contractor := models.CustomerTypeContractor

	customers, err := s.customers.ListCustomers(ctx, models.CustomerFilter{CustomerType: &contractor})
	if err != nil {
		return nil, fmt.Errorf("failed to list contractors: %w", err)
	}

	results := make([]models.CreditRiskResult, 0, len(customers))
	for _, c := range customers {
		result, err := s.AnalyzeCustomer(ctx, c.ID)
		if err != nil {
			logger.Warn(logger.WithCustomer(ctx, c.ID), "credit risk analysis failed", "error", err)
			continue
		}
		results = append(results, *result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RiskScore > results[j].RiskScore
	})
	return results, nil
}

// ScoreCreditRisk computes the risk result from a customer's latest orders
// (newest first) and all of its invoices
func ScoreCreditRisk(customer *models.Customer, orders []models.Order, invoices []models.Invoice, now time.Time) models.CreditRiskResult {
	baseLimit := customer.CreditLimit
	if baseLimit.IsZero() {
		baseLimit = models.DefaultRiskBaseLimit
	}

	orderInvoices := invoicesForOrders(orders, invoices)
	currentDebt := unsettledBalance(invoices)

	factors := models.RiskFactors{
		PaymentHistory: paymentHistoryScore(orders, orderInvoices),
		DebtRatio:      debtRatioScore(currentDebt, baseLimit),
		OrderFrequency: orderFrequencyScore(orders),
		AccountAge:     accountAgeScore(customer.CreatedAt, now),
		RecentBehavior: recentBehaviorScore(orders, orderInvoices, now),
	}
	score := factors.Score()
	level := models.RiskLevelForScore(score)

	result := models.CreditRiskResult{
		CustomerID:           customer.ID,
		CustomerName:         customer.DisplayName(),
		RiskScore:            score,
		RiskLevel:            level,
		SuggestedCreditLimit: baseLimit.Mul(level.LimitMultiplier()).Round(0),
		CurrentDebt:          currentDebt,
		MaxCreditLimit:       baseLimit,
		Factors:              factors,
		Warnings:             []string{},
	}

	if factors.PaymentHistory > 20 {
		result.Warnings = append(result.Warnings, "Poor payment history")
	}
	if factors.DebtRatio > 15 {
		result.Warnings = append(result.Warnings, "High debt ratio")
	}
	if factors.RecentBehavior > 5 {
		result.Warnings = append(result.Warnings, "Worrying recent behavior")
	}
	if currentDebt.GreaterThan(baseLimit.Mul(decimal.NewFromFloat(0.8))) {
		result.Warnings = append(result.Warnings, "Close to credit limit")
	}

	switch level {
	case models.RiskLevelLow:
		result.Recommendations = []string{"Reliable customer, credit limit can be raised"}
	case models.RiskLevelMedium:
		result.Recommendations = []string{"Monitor payments regularly"}
	case models.RiskLevelHigh:
		result.Recommendations = []string{"Require payment before delivery", "Reduce credit limit"}
	default:
		result.Recommendations = []string{"Stop extending credit", "Collect outstanding debt immediately"}
	}

	return result
}

// invoicesForOrders groups invoices by the order they were generated from
func invoicesForOrders(orders []models.Order, invoices []models.Invoice) map[uuid.UUID][]models.Invoice {
	grouped := make(map[uuid.UUID][]models.Invoice, len(orders))
	for _, o := range orders {
		grouped[o.ID] = nil
	}
	for _, inv := range invoices {
		if inv.OrderID == nil {
			continue
		}
		if _, ok := grouped[*inv.OrderID]; ok {
			grouped[*inv.OrderID] = append(grouped[*inv.OrderID], inv)
		}
	}
	return grouped
}

func unsettledBalance(invoices []models.Invoice) decimal.Decimal {
	total := decimal.Zero
	for _, inv := range invoices {
		if inv.Status == models.InvoiceStatusPaid || inv.Status == models.InvoiceStatusCancelled {
			continue
		}
		total = total.Add(inv.BalanceAmount)
	}
	return total
}

// paymentHistoryScore is 0-30, the share of late invoices scaled to 30.
// Unknown history scores 15.
func paymentHistoryScore(orders []models.Order, orderInvoices map[uuid.UUID][]models.Invoice) int {
	if len(orders) == 0 {
		return 15
	}

	late, onTime := 0, 0
	for _, o := range orders {
		for _, inv := range orderInvoices[o.ID] {
			switch inv.Status {
			case models.InvoiceStatusPaid:
				due := inv.CreatedAt.Add(riskDefaultPaymentTerm)
				if inv.DueDate != nil {
					due = *inv.DueDate
				}
				paidAt := inv.UpdatedAt
				if inv.PaidAt != nil {
					paidAt = *inv.PaidAt
				}
				if paidAt.After(due) {
					late++
				} else {
					onTime++
				}
			case models.InvoiceStatusOverdue:
				late++
			}
		}
	}

	total := late + onTime
	if total == 0 {
		return 15
	}
	return int(math.Round(float64(late) / float64(total) * 30))
}

// debtRatioScore is 0-25 by unsettled balance over the credit limit
func debtRatioScore(currentDebt, creditLimit decimal.Decimal) int {
	ratio := currentDebt.Div(creditLimit)
	switch {
	case ratio.LessThanOrEqual(decimal.NewFromFloat(0.3)):
		return 0
	case ratio.LessThanOrEqual(decimal.NewFromFloat(0.5)):
		return 8
	case ratio.LessThanOrEqual(decimal.NewFromFloat(0.7)):
		return 15
	case ratio.LessThanOrEqual(decimal.NewFromFloat(0.9)):
		return 20
	default:
		return 25
	}
}

// orderFrequencyScore is 0-20 by the mean gap between orders
func orderFrequencyScore(orders []models.Order) int {
	if len(orders) < 3 {
		return 10
	}

	oldest, newest := orders[0].CreatedAt, orders[0].CreatedAt
	for _, o := range orders[1:] {
		if o.CreatedAt.Before(oldest) {
			oldest = o.CreatedAt
		}
		if o.CreatedAt.After(newest) {
			newest = o.CreatedAt
		}
	}
	avgGapDays := newest.Sub(oldest).Hours() / 24 / float64(len(orders)-1)

	switch {
	case avgGapDays <= 14:
		return 0
	case avgGapDays <= 30:
		return 5
	case avgGapDays <= 60:
		return 10
	default:
		return 20
	}
}

// accountAgeScore is 0-15; older accounts score higher
func accountAgeScore(createdAt, now time.Time) int {
	months := float64(now.Sub(createdAt)) / float64(riskMonth)
	switch {
	case months >= 24:
		return 15
	case months >= 12:
		return 12
	case months >= 6:
		return 8
	case months >= 3:
		return 4
	default:
		return 0
	}
}

// recentBehaviorScore is 0-10 from the last 30 days of orders
func recentBehaviorScore(orders []models.Order, orderInvoices map[uuid.UUID][]models.Invoice, now time.Time) int {
	since := now.Add(-riskRecentWindow)

	recent := 0
	issues := 0
	for _, o := range orders {
		if o.CreatedAt.Before(since) {
			continue
		}
		recent++
		for _, inv := range orderInvoices[o.ID] {
			if inv.Status == models.InvoiceStatusOverdue {
				issues++
			}
		}
	}

	if recent == 0 && len(orders) > 5 {
		return 3
	}
	if issues*3 > 10 {
		return 10
	}
	return issues * 3
}
