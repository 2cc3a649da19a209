package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
	"github.com/livefire2015/ez-credit/src/repository/memory"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// daysAgo returns a due date that is exactly n days overdue at testNow
func daysAgo(n int) *time.Time {
	t := testNow.AddDate(0, 0, -n)
	return &t
}

func newTestStore() *memory.Store { return memory.NewStore() }

func reposFor(store *memory.Store) Repositories {
	return Repositories{
		Customers:      store,
		Invoices:       store,
		Orders:         store,
		Configurations: store,
		Approvals:      store,
	}
}

func newTestEngine(repos Repositories, notifier Notifier) *CreditEngine {
	return NewCreditEngine(repos, notifier, EngineOptions{Workers: 2, Now: fixedClock})
}

func addCustomer(store *memory.Store, name string, customerType models.CustomerType, creditLimit int64) models.Customer {
	c := models.Customer{
		ID:             uuid.New(),
		Name:           name,
		CustomerType:   customerType,
		CreditLimit:    amount(creditLimit),
		CurrentBalance: decimal.Zero,
		CreatedAt:      testNow.AddDate(-1, 0, 0),
		UpdatedAt:      testNow.AddDate(-1, 0, 0),
	}
	store.AddCustomer(c)
	return c
}

func addSalesInvoice(store *memory.Store, customerID uuid.UUID, balance int64, due *time.Time) models.Invoice {
	inv := models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: "INV-" + uuid.NewString()[:8],
		CustomerID:    customerID,
		InvoiceType:   models.InvoiceTypeSales,
		Status:        models.InvoiceStatusSent,
		TotalAmount:   amount(balance),
		BalanceAmount: amount(balance),
		DueDate:       due,
		CreatedAt:     testNow.AddDate(0, -1, 0),
		UpdatedAt:     testNow.AddDate(0, -1, 0),
	}
	store.AddInvoice(inv)
	return inv
}

func addPolicy(store *memory.Store, name string, maxOverdueDays int, percent int64, warningDays int, autoHold bool) {
	cfg := models.DebtConfiguration{
		Name:               name,
		MaxOverdueDays:     maxOverdueDays,
		CreditLimitPercent: amount(percent),
		WarningDays:        warningDays,
		AutoHoldOnOverdue:  autoHold,
		IsActive:           true,
	}
	_ = store.SaveDebtConfiguration(context.Background(), &cfg)
}

// conflictingCustomers fails the first writes with a version conflict
type conflictingCustomers struct {
	CustomerRepository
	mu        sync.Mutex
	conflicts int
	writes    int
}

func (c *conflictingCustomers) conflict() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes++
	if c.conflicts > 0 {
		c.conflicts--
		return true
	}
	return false
}

func (c *conflictingCustomers) UpdateCreditSnapshot(ctx context.Context, update models.CreditSnapshotUpdate) error {
	if c.conflict() {
		return models.ErrVersionConflict
	}
	return c.CustomerRepository.UpdateCreditSnapshot(ctx, update)
}

func (c *conflictingCustomers) SetCreditHold(ctx context.Context, id uuid.UUID, expectedVersion int64, hold bool) error {
	if c.conflict() {
		return models.ErrVersionConflict
	}
	return c.CustomerRepository.SetCreditHold(ctx, id, expectedVersion, hold)
}

// failingInvoices fails invoice listings for one customer
type failingInvoices struct {
	InvoiceRepository
	failFor uuid.UUID
}

func (f *failingInvoices) ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error) {
	if filter.CustomerID != nil && *filter.CustomerID == f.failFor {
		return nil, errors.New("invoice table unavailable")
	}
	return f.InvoiceRepository.ListInvoices(ctx, filter)
}

// brokenConfigurations fails every lookup
type brokenConfigurations struct{}

func (brokenConfigurations) GetActiveDebtConfiguration(context.Context, string) (*models.DebtConfiguration, error) {
	return nil, errors.New("connection refused")
}

func (brokenConfigurations) ListDebtConfigurations(context.Context) ([]models.DebtConfiguration, error) {
	return nil, errors.New("connection refused")
}

func (brokenConfigurations) SaveDebtConfiguration(context.Context, *models.DebtConfiguration) error {
	return errors.New("connection refused")
}
