package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestOrderUnpaidAmount(t *testing.T) {
	zero := decimal.Zero
	remaining := decimal.NewFromInt(350)

	tests := []struct {
		name      string
		remaining *decimal.Decimal
		expected  int64
	}{
		{"remaining set", &remaining, 350},
		{"remaining zero falls back to net minus deposit", &zero, 700},
		{"remaining missing", nil, 700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Order{
				NetAmount:       decimal.NewFromInt(1000),
				DepositAmount:   decimal.NewFromInt(300),
				RemainingAmount: tt.remaining,
			}
			if got := o.UnpaidAmount(); !got.Equal(decimal.NewFromInt(tt.expected)) {
				t.Errorf("UnpaidAmount() = %s, want %d", got, tt.expected)
			}
		})
	}
}

func TestOrderAssumedDueDate(t *testing.T) {
	created := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	confirmed := time.Date(2026, 6, 3, 8, 0, 0, 0, time.UTC)

	o := Order{CreatedAt: created}
	if got := o.AssumedDueDate(); !got.Equal(created.AddDate(0, 0, 7)) {
		t.Errorf("AssumedDueDate() = %v, want created + 7 days", got)
	}

	o.ConfirmedAt = &confirmed
	if got := o.AssumedDueDate(); !got.Equal(confirmed.AddDate(0, 0, 7)) {
		t.Errorf("AssumedDueDate() = %v, want confirmed + 7 days", got)
	}
}

func TestOrderIsOutstanding(t *testing.T) {
	tests := []struct {
		status   OrderStatus
		payment  OrderPaymentStatus
		expected bool
	}{
		{OrderStatusConfirmed, OrderPaymentPending, true},
		{OrderStatusDelivered, OrderPaymentPartial, true},
		{OrderStatusShipped, OrderPaymentOverdue, true},
		{OrderStatusCompleted, OrderPaymentPaid, false},
		{OrderStatusConfirmed, OrderPaymentRefunded, false},
		{OrderStatusCancelled, OrderPaymentPending, false},
		{OrderStatusReturned, OrderPaymentOverdue, false},
	}

	for _, tt := range tests {
		o := Order{Status: tt.status, PaymentStatus: tt.payment}
		if got := o.IsOutstanding(); got != tt.expected {
			t.Errorf("IsOutstanding() for %s/%s = %v, want %v", tt.status, tt.payment, got, tt.expected)
		}
	}
}

func TestInvoiceDebtEligibility(t *testing.T) {
	tests := []struct {
		invoiceType InvoiceType
		status      InvoiceStatus
		debt        bool
		aging       bool
	}{
		{InvoiceTypeSales, InvoiceStatusSent, true, true},
		{InvoiceTypeSales, InvoiceStatusOverdue, true, true},
		{InvoiceTypeSales, InvoiceStatusDraft, false, true},
		{InvoiceTypeSales, InvoiceStatusPaid, false, false},
		{InvoiceTypeSales, InvoiceStatusCancelled, false, false},
		{InvoiceTypePurchase, InvoiceStatusSent, false, false},
	}

	for _, tt := range tests {
		inv := Invoice{InvoiceType: tt.invoiceType, Status: tt.status}
		if got := inv.CountsTowardDebt(); got != tt.debt {
			t.Errorf("CountsTowardDebt() for %s/%s = %v, want %v", tt.invoiceType, tt.status, got, tt.debt)
		}
		if got := inv.CountsTowardAging(); got != tt.aging {
			t.Errorf("CountsTowardAging() for %s/%s = %v, want %v", tt.invoiceType, tt.status, got, tt.aging)
		}
	}
}

func TestReminderLevels(t *testing.T) {
	tests := []struct {
		days     int
		level    ReminderLevel
		sequence int
		priority NotificationPriority
	}{
		{1, ReminderLevelFirst, 1, PriorityMedium},
		{7, ReminderLevelFirst, 1, PriorityMedium},
		{15, ReminderLevelSecond, 2, PriorityMedium},
		{30, ReminderLevelFinal, 3, PriorityHigh},
	}

	for _, tt := range tests {
		level := ReminderLevelFor(tt.days)
		if level != tt.level || level.Sequence() != tt.sequence || level.Priority() != tt.priority {
			t.Errorf("day %d: got %s/%d/%s, want %s/%d/%s",
				tt.days, level, level.Sequence(), level.Priority(), tt.level, tt.sequence, tt.priority)
		}
	}
}

func TestRiskLevelForScore(t *testing.T) {
	tests := []struct {
		score int
		level RiskLevel
	}{
		{0, RiskLevelLow},
		{25, RiskLevelLow},
		{26, RiskLevelMedium},
		{50, RiskLevelMedium},
		{75, RiskLevelHigh},
		{76, RiskLevelCritical},
	}

	for _, tt := range tests {
		if got := RiskLevelForScore(tt.score); got != tt.level {
			t.Errorf("RiskLevelForScore(%d) = %s, want %s", tt.score, got, tt.level)
		}
	}
}
