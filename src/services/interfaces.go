package services

//go:generate mockgen -destination=mocks/mock_notifier.go -package=mock_services github.com/livefire2015/ez-credit/src/services Notifier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
)

// CustomerRepository abstracts persistence of customer credit state.
// Writes are compare-and-swap on the customer version and return
// models.ErrVersionConflict when the row changed underneath.
type CustomerRepository interface {
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	ListCustomers(ctx context.Context, filter models.CustomerFilter) ([]models.Customer, error)
	UpdateCreditSnapshot(ctx context.Context, update models.CreditSnapshotUpdate) error
	SetCreditHold(ctx context.Context, id uuid.UUID, expectedVersion int64, hold bool) error
}

// InvoiceRepository lists billed obligations
type InvoiceRepository interface {
	ListInvoices(ctx context.Context, filter models.InvoiceFilter) ([]models.Invoice, error)
}

// OrderRepository lists customer orders, newest first
type OrderRepository interface {
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
}

// DebtConfigurationRepository stores debt policy rows.
// GetActiveDebtConfiguration with an empty name returns the first active row
// by name; it returns models.ErrRecordNotFound when nothing matches.
type DebtConfigurationRepository interface {
	GetActiveDebtConfiguration(ctx context.Context, name string) (*models.DebtConfiguration, error)
	ListDebtConfigurations(ctx context.Context) ([]models.DebtConfiguration, error)
	SaveDebtConfiguration(ctx context.Context, cfg *models.DebtConfiguration) error
}

// ApprovalRepository stores credit exception requests.
// UpdateApprovalDecision only succeeds while the stored row is still PENDING.
type ApprovalRepository interface {
	CreateApproval(ctx context.Context, approval *models.CreditApproval) error
	GetApproval(ctx context.Context, id uuid.UUID) (*models.CreditApproval, error)
	UpdateApprovalDecision(ctx context.Context, approval *models.CreditApproval) error
	FindActiveApproval(ctx context.Context, customerID uuid.UUID, now time.Time) (*models.CreditApproval, error)
	ListApprovals(ctx context.Context, filter models.ApprovalFilter) ([]models.CreditApproval, error)
}

// Notifier delivers alerts. Failures are reported but never fail the caller.
type Notifier interface {
	Send(ctx context.Context, n models.Notification) error
}

// Repositories groups the stores the engine reads and writes
type Repositories struct {
	Customers      CustomerRepository
	Invoices       InvoiceRepository
	Orders         OrderRepository
	Configurations DebtConfigurationRepository
	Approvals      ApprovalRepository
}
