package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
	"github.com/shopspring/decimal"
)

// DebtAggregator computes a customer's debt from its open sales invoices
type DebtAggregator struct {
	invoices InvoiceRepository
	now      func() time.Time
}

// NewDebtAggregator creates a new debt aggregator
func NewDebtAggregator(invoices InvoiceRepository) *DebtAggregator {
	return &DebtAggregator{
		invoices: invoices,
		now:      time.Now,
	}
}

// CurrentDebt sums the balance of the customer's SENT and OVERDUE sales invoices
func (a *DebtAggregator) CurrentDebt(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, error) {
	invoices, err := a.debtInvoices(ctx, customerID)
	if err != nil {
		return decimal.Zero, err
	}
	return SumCurrentDebt(invoices), nil
}

// OverdueInfo returns the overdue breakdown of the customer as of now
func (a *DebtAggregator) OverdueInfo(ctx context.Context, customerID uuid.UUID) (*models.OverdueInfo, error) {
	invoices, err := a.debtInvoices(ctx, customerID)
	if err != nil {
		return nil, err
	}
	info := ComputeOverdueInfo(invoices, a.now())
	return &info, nil
}

// DebtPosition returns current debt and overdue info from a single read
func (a *DebtAggregator) DebtPosition(ctx context.Context, customerID uuid.UUID) (decimal.Decimal, *models.OverdueInfo, error) {
	invoices, err := a.debtInvoices(ctx, customerID)
	if err != nil {
		return decimal.Zero, nil, err
	}
	info := ComputeOverdueInfo(invoices, a.now())
	return SumCurrentDebt(invoices), &info, nil
}

func (a *DebtAggregator) debtInvoices(ctx context.Context, customerID uuid.UUID) ([]models.Invoice, error) {
	invoices, err := a.invoices.ListInvoices(ctx, models.InvoiceFilter{
		CustomerID: &customerID,
		Types:      []models.InvoiceType{models.InvoiceTypeSales},
		Statuses:   models.DebtInvoiceStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices for customer %s: %w", customerID, err)
	}
	return invoices, nil
}

// SumCurrentDebt sums balances of the invoices that count toward debt
func SumCurrentDebt(invoices []models.Invoice) decimal.Decimal {
	total := decimal.Zero
	for i := range invoices {
		if invoices[i].CountsTowardDebt() {
			total = total.Add(invoices[i].BalanceAmount)
		}
	}
	return total
}

// ComputeOverdueInfo restricts to debt invoices due strictly before now.
// Invoices without a due date are never overdue.
func ComputeOverdueInfo(invoices []models.Invoice, now time.Time) models.OverdueInfo {
	info := models.OverdueInfo{
		OverdueAmount:   decimal.Zero,
		OverdueInvoices: []models.OverdueInvoice{},
	}

	for i := range invoices {
		inv := &invoices[i]
		if !inv.CountsTowardDebt() || !inv.IsOverdue(now) {
			continue
		}

		days := models.OverdueDays(*inv.DueDate, now)
		info.OverdueAmount = info.OverdueAmount.Add(inv.BalanceAmount)
		if days > info.MaxOverdueDays {
			info.MaxOverdueDays = days
		}
		info.OverdueInvoices = append(info.OverdueInvoices, models.OverdueInvoice{
			ID:            inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			Amount:        inv.BalanceAmount,
			DueDate:       *inv.DueDate,
			OverdueDays:   days,
		})
	}

	return info
}
