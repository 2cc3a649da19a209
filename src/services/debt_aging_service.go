package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/logger"
	"github.com/livefire2015/ez-credit/src/models"
	"github.com/shopspring/decimal"
)

// DebtAgingService builds the debt aging report
type DebtAgingService struct {
	customers CustomerRepository
	invoices  InvoiceRepository
	orders    OrderRepository
	workers   int
	now       func() time.Time
}

// NewDebtAgingService creates a new debt aging service
func NewDebtAgingService(repos Repositories, workers int) *DebtAgingService {
	return &DebtAgingService{
		customers: repos.Customers,
		invoices:  repos.Invoices,
		orders:    repos.Orders,
		workers:   workers,
		now:       time.Now,
	}
}

// DebtAgingReportResult contains the report rows and the customers that
// could not be processed
type DebtAgingReportResult struct {
	GeneratedAt time.Time                `json:"generated_at"`
	Rows        []models.DebtAgingReport `json:"rows"`
	Failures    []models.CustomerFailure `json:"failures,omitempty"`
}

// GenerateDebtAgingReport builds one row per active customer with debt,
// sorted by total debt descending
func (s *DebtAgingService) GenerateDebtAgingReport(ctx context.Context) (*DebtAgingReportResult, error) {
	ctx = logger.WithJob(ctx, "debt-aging-report")
	now := s.now()

	customers, err := s.customers.ListCustomers(ctx, models.CustomerFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	rows := make([]*models.DebtAgingReport, len(customers))
	failures := forEachCustomer(ctx, s.workers, customers, func(ctx context.Context, i int, customer models.Customer) error {
		row, err := s.customerRow(ctx, customer, now)
		if err != nil {
			return err
		}
		rows[i] = row
		return nil
	})

	result := &DebtAgingReportResult{
		GeneratedAt: now,
		Rows:        make([]models.DebtAgingReport, 0, len(rows)),
		Failures:    failures,
	}
	for _, row := range rows {
		if row != nil && row.TotalDebt.GreaterThan(decimal.Zero) {
			result.Rows = append(result.Rows, *row)
		}
	}
	sortAgingRows(result.Rows)

	logger.Info(ctx, "debt aging report generated",
		"customers", len(customers),
		"rows", len(result.Rows),
		"failures", len(failures))

	return result, nil
}

func (s *DebtAgingService) customerRow(ctx context.Context, customer models.Customer, now time.Time) (*models.DebtAgingReport, error) {
	invoices, err := s.invoices.ListInvoices(ctx, models.InvoiceFilter{
		CustomerID: &customer.ID,
		Types:      []models.InvoiceType{models.InvoiceTypeSales},
		Statuses:   models.AgingInvoiceStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	orders, err := s.orders.ListOrders(ctx, models.OutstandingOrdersFilter(customer.ID))
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	row := BuildAgingRow(customer, invoices, orders, now)
	return &row, nil
}

// BuildAgingRow buckets one customer's obligations.
//
// Every economic obligation is counted exactly once: pass one buckets the
// invoices and collects the orders they were generated from, pass two
// buckets only the outstanding orders that have no invoice yet, using the
// assumed payment term as due date. The row is then reconciled against the
// ledger balance.
func BuildAgingRow(customer models.Customer, invoices []models.Invoice, orders []models.Order, now time.Time) models.DebtAgingReport {
	row := models.DebtAgingReport{
		CustomerID:     customer.ID,
		CustomerName:   customer.DisplayName(),
		CustomerType:   customer.CustomerType,
		CreditLimit:    customer.CreditLimit,
		CreditHold:     customer.CreditHold,
		MaxOverdueDays: customer.MaxOverdueDays,
	}

	invoicedOrders := make(map[uuid.UUID]struct{})
	for i := range invoices {
		inv := &invoices[i]
		if !inv.CountsTowardAging() {
			continue
		}
		if inv.OrderID != nil {
			invoicedOrders[*inv.OrderID] = struct{}{}
		}
		days, _ := inv.OverdueDays(now) // no due date buckets as current
		row.AddToBucket(days, inv.BalanceAmount)
	}

	for i := range orders {
		order := &orders[i]
		if _, invoiced := invoicedOrders[order.ID]; invoiced {
			continue
		}
		if !order.IsOutstanding() {
			continue
		}
		unpaid := order.UnpaidAmount()
		if unpaid.LessThanOrEqual(decimal.Zero) {
			continue
		}
		row.AddToBucket(models.OverdueDays(order.AssumedDueDate(), now), unpaid)
	}

	row.Reconcile(customer.CurrentBalance)
	return row
}

func sortAgingRows(rows []models.DebtAgingReport) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TotalDebt.GreaterThan(rows[j].TotalDebt)
	})
}
