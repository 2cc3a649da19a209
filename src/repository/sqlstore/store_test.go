package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
	"github.com/livefire2015/ez-credit/src/services"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

var (
	_ services.CustomerRepository          = (*Store)(nil)
	_ services.InvoiceRepository           = (*Store)(nil)
	_ services.OrderRepository             = (*Store)(nil)
	_ services.DebtConfigurationRepository = (*Store)(nil)
	_ services.ApprovalRepository          = (*Store)(nil)
)

var now = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := sql.Open(DriverSQLite, filepath.Join(t.TempDir(), "credit.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := New(db, DriverSQLite)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	store.now = func() time.Time { return now }

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return store
}

func createCustomer(t *testing.T, store *Store, name string, customerType models.CustomerType) *models.Customer {
	t.Helper()
	c := &models.Customer{
		Name:         name,
		CustomerType: customerType,
		CreditLimit:  decimal.NewFromInt(10_000_000),
		CreatedAt:    now.AddDate(-1, 0, 0),
	}
	if err := store.CreateCustomer(context.Background(), c); err != nil {
		t.Fatalf("Failed to create customer: %v", err)
	}
	return c
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	if _, err := New(nil, "mysql"); !errors.Is(err, ErrUnsupportedDriver) {
		t.Errorf("Expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	if err := store.Migrate(context.Background()); err != nil {
		t.Errorf("Second migration failed: %v", err)
	}
}

func TestCustomerRoundTripAndLocking(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	company := "Acme Construction JSC"
	c := &models.Customer{
		Name:           "Acme",
		CompanyName:    &company,
		CustomerType:   models.CustomerTypeContractor,
		CreditLimit:    decimal.RequireFromString("150000000.50"),
		CurrentBalance: decimal.NewFromInt(2_500_000),
	}
	if err := store.CreateCustomer(ctx, c); err != nil {
		t.Fatalf("Failed to create customer: %v", err)
	}

	got, err := store.GetCustomer(ctx, c.ID)
	if err != nil {
		t.Fatalf("Failed to get customer: %v", err)
	}
	if got.DisplayName() != company || !got.CreditLimit.Equal(c.CreditLimit) || got.LastCreditCheck != nil {
		t.Errorf("Unexpected customer: %+v", got)
	}

	if err := store.SetCreditHold(ctx, c.ID, 7, true); !errors.Is(err, models.ErrVersionConflict) {
		t.Errorf("Expected version conflict, got %v", err)
	}
	if err := store.SetCreditHold(ctx, uuid.New(), 0, true); !errors.Is(err, models.ErrRecordNotFound) {
		t.Errorf("Expected record not found, got %v", err)
	}
	if err := store.SetCreditHold(ctx, c.ID, 0, true); err != nil {
		t.Fatalf("Failed to set hold: %v", err)
	}

	checkedAt := now.Add(-time.Hour)
	err = store.UpdateCreditSnapshot(ctx, models.CreditSnapshotUpdate{
		CustomerID:      c.ID,
		ExpectedVersion: 1,
		OverdueAmount:   decimal.NewFromInt(800_000),
		MaxOverdueDays:  33,
		CheckedAt:       checkedAt,
	})
	if err != nil {
		t.Fatalf("Failed to update snapshot: %v", err)
	}

	got, _ = store.GetCustomer(ctx, c.ID)
	if !got.CreditHold || got.Version != 2 || got.MaxOverdueDays != 33 {
		t.Errorf("Unexpected state after writes: hold=%v version=%d days=%d", got.CreditHold, got.Version, got.MaxOverdueDays)
	}
	if got.LastCreditCheck == nil || !got.LastCreditCheck.Equal(checkedAt) {
		t.Errorf("Expected last credit check %v, got %v", checkedAt, got.LastCreditCheck)
	}
	if !got.UpdatedAt.Equal(now) {
		t.Errorf("Expected updated_at %v, got %v", now, got.UpdatedAt)
	}
}

func TestListCustomersFilters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	contractor := createCustomer(t, store, "Builder", models.CustomerTypeContractor)
	createCustomer(t, store, "Shop", models.CustomerTypeRegular)
	deleted := &models.Customer{Name: "Gone", CustomerType: models.CustomerTypeContractor, IsDeleted: true}
	if err := store.CreateCustomer(ctx, deleted); err != nil {
		t.Fatalf("Failed to create customer: %v", err)
	}

	active, err := store.ListCustomers(ctx, models.CustomerFilter{})
	if err != nil {
		t.Fatalf("Failed to list customers: %v", err)
	}
	if len(active) != 2 {
		t.Errorf("Expected 2 active customers, got %d", len(active))
	}

	all, _ := store.ListCustomers(ctx, models.CustomerFilter{IncludeDeleted: true})
	if len(all) != 3 {
		t.Errorf("Expected 3 customers including deleted, got %d", len(all))
	}

	segment := models.CustomerTypeContractor
	contractors, _ := store.ListCustomers(ctx, models.CustomerFilter{CustomerType: &segment})
	if len(contractors) != 1 || contractors[0].ID != contractor.ID {
		t.Errorf("Expected only the active contractor, got %+v", contractors)
	}
}

func TestInvoicesAndOrders(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := createCustomer(t, store, "Builder", models.CustomerTypeContractor)

	remaining := decimal.NewFromInt(400)
	confirmed := now.AddDate(0, 0, -9)
	orders := []*models.Order{
		{OrderNumber: "SO-1", CustomerID: c.ID, Status: models.OrderStatusConfirmed, PaymentStatus: models.OrderPaymentPending,
			NetAmount: decimal.NewFromInt(1000), ConfirmedAt: &confirmed, CreatedAt: now.AddDate(0, 0, -10)},
		{OrderNumber: "SO-2", CustomerID: c.ID, Status: models.OrderStatusDelivered, PaymentStatus: models.OrderPaymentPartial,
			NetAmount: decimal.NewFromInt(900), RemainingAmount: &remaining, CreatedAt: now.AddDate(0, 0, -5)},
		{OrderNumber: "SO-3", CustomerID: c.ID, Status: models.OrderStatusCancelled, PaymentStatus: models.OrderPaymentPending,
			NetAmount: decimal.NewFromInt(700), CreatedAt: now.AddDate(0, 0, -1)},
	}
	for _, o := range orders {
		if err := store.CreateOrder(ctx, o); err != nil {
			t.Fatalf("Failed to create order: %v", err)
		}
	}

	due := now.AddDate(0, 0, -3)
	invoices := []*models.Invoice{
		{InvoiceNumber: "INV-1", CustomerID: c.ID, OrderID: &orders[0].ID, InvoiceType: models.InvoiceTypeSales,
			Status: models.InvoiceStatusSent, TotalAmount: decimal.NewFromInt(1000), BalanceAmount: decimal.NewFromInt(1000),
			DueDate: &due, CreatedAt: now.AddDate(0, 0, -8)},
		{InvoiceNumber: "INV-2", CustomerID: c.ID, InvoiceType: models.InvoiceTypePurchase,
			Status: models.InvoiceStatusSent, BalanceAmount: decimal.NewFromInt(50), CreatedAt: now.AddDate(0, 0, -7)},
		{InvoiceNumber: "INV-3", CustomerID: c.ID, InvoiceType: models.InvoiceTypeSales,
			Status: models.InvoiceStatusPaid, CreatedAt: now.AddDate(0, 0, -6)},
	}
	for _, inv := range invoices {
		if err := store.CreateInvoice(ctx, inv); err != nil {
			t.Fatalf("Failed to create invoice: %v", err)
		}
	}

	debt, err := store.ListInvoices(ctx, models.InvoiceFilter{
		CustomerID: &c.ID,
		Types:      []models.InvoiceType{models.InvoiceTypeSales},
		Statuses:   models.DebtInvoiceStatuses,
	})
	if err != nil {
		t.Fatalf("Failed to list invoices: %v", err)
	}
	if len(debt) != 1 || debt[0].InvoiceNumber != "INV-1" {
		t.Fatalf("Expected only INV-1, got %+v", debt)
	}
	if debt[0].OrderID == nil || *debt[0].OrderID != orders[0].ID || debt[0].DueDate == nil || !debt[0].DueDate.Equal(due) {
		t.Errorf("Nullable columns not read back: %+v", debt[0])
	}

	all, _ := store.ListInvoices(ctx, models.InvoiceFilter{})
	if len(all) != 3 || all[0].InvoiceNumber != "INV-1" {
		t.Errorf("Expected 3 invoices oldest first, got %d", len(all))
	}

	outstanding, err := store.ListOrders(ctx, models.OutstandingOrdersFilter(c.ID))
	if err != nil {
		t.Fatalf("Failed to list orders: %v", err)
	}
	if len(outstanding) != 2 || outstanding[0].OrderNumber != "SO-2" {
		t.Fatalf("Expected SO-2 then SO-1, got %+v", outstanding)
	}
	if outstanding[0].RemainingAmount == nil || !outstanding[0].RemainingAmount.Equal(remaining) {
		t.Errorf("Remaining amount not read back: %v", outstanding[0].RemainingAmount)
	}
	if outstanding[1].ConfirmedAt == nil || outstanding[1].RemainingAmount != nil {
		t.Errorf("Unexpected nullable columns on SO-1: %+v", outstanding[1])
	}

	latest, _ := store.ListOrders(ctx, models.OrderFilter{CustomerID: &c.ID, Limit: 1})
	if len(latest) != 1 || latest[0].OrderNumber != "SO-3" {
		t.Errorf("Expected only the newest order, got %+v", latest)
	}
}

func TestDebtConfigurations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.GetActiveDebtConfiguration(ctx, ""); !errors.Is(err, models.ErrRecordNotFound) {
		t.Errorf("Expected record not found on empty table, got %v", err)
	}

	wholesale := &models.DebtConfiguration{Name: "WHOLESALE", MaxOverdueDays: 45, CreditLimitPercent: decimal.NewFromInt(80), WarningDays: 5, IsActive: true}
	contractor := &models.DebtConfiguration{Name: "CONTRACTOR", MaxOverdueDays: 60, CreditLimitPercent: decimal.NewFromInt(120), IsActive: false}
	for _, cfg := range []*models.DebtConfiguration{wholesale, contractor} {
		if err := store.SaveDebtConfiguration(ctx, cfg); err != nil {
			t.Fatalf("Failed to save configuration: %v", err)
		}
	}

	if _, err := store.GetActiveDebtConfiguration(ctx, "CONTRACTOR"); !errors.Is(err, models.ErrRecordNotFound) {
		t.Errorf("Inactive row must not be returned, got %v", err)
	}
	first, err := store.GetActiveDebtConfiguration(ctx, "")
	if err != nil || first.Name != "WHOLESALE" {
		t.Errorf("Expected WHOLESALE as first active row, got %+v, %v", first, err)
	}

	originalID := wholesale.ID
	replacement := &models.DebtConfiguration{Name: "WHOLESALE", MaxOverdueDays: 20, CreditLimitPercent: decimal.NewFromInt(90), AutoHoldOnOverdue: true, IsActive: true}
	if err := store.SaveDebtConfiguration(ctx, replacement); err != nil {
		t.Fatalf("Failed to replace configuration: %v", err)
	}
	if replacement.ID != originalID {
		t.Errorf("Expected upsert to keep ID %s, got %s", originalID, replacement.ID)
	}

	got, _ := store.GetActiveDebtConfiguration(ctx, "WHOLESALE")
	if got.MaxOverdueDays != 20 || !got.AutoHoldOnOverdue || !got.CreditLimitPercent.Equal(decimal.NewFromInt(90)) {
		t.Errorf("Replacement not stored: %+v", got)
	}

	all, _ := store.ListDebtConfigurations(ctx)
	if len(all) != 2 || all[0].Name != "CONTRACTOR" {
		t.Errorf("Expected 2 rows by name, got %+v", all)
	}
}

func TestApprovals(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := createCustomer(t, store, "Builder", models.CustomerTypeContractor)

	approval, err := models.NewCreditApprovalBuilder(now).
		WithCustomer(c.ID, nil).
		WithRequest(decimal.NewFromInt(2_000_000), "Project deadline").
		WithSnapshot(decimal.NewFromInt(9_000_000), c.CreditLimit).
		Build()
	if err != nil {
		t.Fatalf("Failed to build approval: %v", err)
	}
	if err := store.CreateApproval(ctx, approval); err != nil {
		t.Fatalf("Failed to create approval: %v", err)
	}

	pending := models.ApprovalStatusPending
	list, _ := store.ListApprovals(ctx, models.ApprovalFilter{Status: &pending})
	if len(list) != 1 || !list[0].CurrentDebt.Equal(decimal.NewFromInt(9_000_000)) {
		t.Fatalf("Expected one pending approval, got %+v", list)
	}

	if _, err := store.FindActiveApproval(ctx, c.ID, now); !errors.Is(err, models.ErrRecordNotFound) {
		t.Errorf("Pending approval must not be active, got %v", err)
	}

	by := "cfo"
	approval.Status = models.ApprovalStatusApproved
	approval.ApprovedBy = &by
	approval.ApprovedAt = &now
	approval.UpdatedAt = now
	if err := store.UpdateApprovalDecision(ctx, approval); err != nil {
		t.Fatalf("Failed to record decision: %v", err)
	}
	if err := store.UpdateApprovalDecision(ctx, approval); !errors.Is(err, models.ErrVersionConflict) {
		t.Errorf("Expected conflict on second decision, got %v", err)
	}
	missing := *approval
	missing.ID = uuid.New()
	if err := store.UpdateApprovalDecision(ctx, &missing); !errors.Is(err, models.ErrRecordNotFound) {
		t.Errorf("Expected record not found, got %v", err)
	}

	active, err := store.FindActiveApproval(ctx, c.ID, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Failed to find active approval: %v", err)
	}
	if active.ID != approval.ID || active.ApprovedBy == nil || *active.ApprovedBy != "cfo" {
		t.Errorf("Unexpected active approval: %+v", active)
	}
	if _, err := store.FindActiveApproval(ctx, c.ID, approval.ExpiresAt); !errors.Is(err, models.ErrRecordNotFound) {
		t.Errorf("Approval must lapse at its expiry, got %v", err)
	}
}

// TestEngineOverSQLite runs a credit check and a hold run end to end
func TestEngineOverSQLite(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	c := createCustomer(t, store, "Builder", models.CustomerTypeContractor)

	due := now.AddDate(0, 0, -45)
	if err := store.CreateInvoice(ctx, &models.Invoice{
		InvoiceNumber: "INV-9", CustomerID: c.ID, InvoiceType: models.InvoiceTypeSales, Status: models.InvoiceStatusOverdue,
		TotalAmount: decimal.NewFromInt(3_000_000), BalanceAmount: decimal.NewFromInt(3_000_000), DueDate: &due,
	}); err != nil {
		t.Fatalf("Failed to create invoice: %v", err)
	}

	repos := services.Repositories{Customers: store, Invoices: store, Orders: store, Configurations: store, Approvals: store}
	engine := services.NewCreditEngine(repos, nil, services.EngineOptions{Now: func() time.Time { return now }})

	check, err := engine.CheckEligibility(ctx, c.ID, decimal.NewFromInt(1))
	if err != nil {
		t.Fatalf("CheckEligibility() error = %v", err)
	}
	if check.Eligible || check.MaxOverdueDays != 45 {
		t.Errorf("Unexpected check result: %+v", check)
	}

	holds, err := engine.AutoUpdateCreditHolds(ctx)
	if err != nil {
		t.Fatalf("AutoUpdateCreditHolds() error = %v", err)
	}
	if holds.Locked != 1 {
		t.Errorf("Expected one lock, got %+v", holds)
	}

	stored, _ := store.GetCustomer(ctx, c.ID)
	if !stored.CreditHold || stored.Version != 2 {
		t.Errorf("Expected held customer at version 2, got hold=%v version=%d", stored.CreditHold, stored.Version)
	}
}
