package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the fulfilment state of an order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusConfirmed  OrderStatus = "CONFIRMED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipped    OrderStatus = "SHIPPED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusCancelled  OrderStatus = "CANCELLED"
	OrderStatusReturned   OrderStatus = "RETURNED"
)

// OrderPaymentStatus represents how much of an order has been paid
type OrderPaymentStatus string

const (
	OrderPaymentPending  OrderPaymentStatus = "PENDING"
	OrderPaymentPartial  OrderPaymentStatus = "PARTIAL"
	OrderPaymentPaid     OrderPaymentStatus = "PAID"
	OrderPaymentOverdue  OrderPaymentStatus = "OVERDUE"
	OrderPaymentRefunded OrderPaymentStatus = "REFUNDED"
)

// AssumedPaymentTermDays is the payment term applied to orders that have
// not been invoiced yet
const AssumedPaymentTermDays = 7

var (
	// OutstandingPaymentStatuses mark an order as still owing money
	OutstandingPaymentStatuses = []OrderPaymentStatus{OrderPaymentPending, OrderPaymentPartial, OrderPaymentOverdue}

	// ClosedOrderStatuses never carry debt
	ClosedOrderStatuses = []OrderStatus{OrderStatusCancelled, OrderStatusReturned}
)

// Order represents a customer order that may not be invoiced yet
type Order struct {
	ID            uuid.UUID          `json:"id" db:"id"`
	OrderNumber   string             `json:"order_number" db:"order_number"`
	CustomerID    uuid.UUID          `json:"customer_id" db:"customer_id"`
	Status        OrderStatus        `json:"status" db:"status"`
	PaymentStatus OrderPaymentStatus `json:"payment_status" db:"payment_status"`

	NetAmount       decimal.Decimal  `json:"net_amount" db:"net_amount"`
	DepositAmount   decimal.Decimal  `json:"deposit_amount" db:"deposit_amount"`
	RemainingAmount *decimal.Decimal `json:"remaining_amount,omitempty" db:"remaining_amount"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsOutstanding reports whether the order still counts as unpaid debt
func (o *Order) IsOutstanding() bool {
	for _, s := range ClosedOrderStatuses {
		if o.Status == s {
			return false
		}
	}
	for _, s := range OutstandingPaymentStatuses {
		if o.PaymentStatus == s {
			return true
		}
	}
	return false
}

// UnpaidAmount returns the remaining amount when it is set and non-zero,
// otherwise net amount minus deposit
func (o *Order) UnpaidAmount() decimal.Decimal {
	if o.RemainingAmount != nil && !o.RemainingAmount.IsZero() {
		return *o.RemainingAmount
	}
	return o.NetAmount.Sub(o.DepositAmount)
}

// AssumedDueDate is confirmation (or creation) date plus the assumed payment term
func (o *Order) AssumedDueDate() time.Time {
	base := o.CreatedAt
	if o.ConfirmedAt != nil {
		base = *o.ConfirmedAt
	}
	return base.AddDate(0, 0, AssumedPaymentTermDays)
}

// OrderFilter narrows order listings
type OrderFilter struct {
	CustomerID      *uuid.UUID
	PaymentStatuses []OrderPaymentStatus
	ExcludeStatuses []OrderStatus
	Limit           int // 0 means no limit; results are newest first
}

// Matches applies the status and customer parts of the filter
func (f OrderFilter) Matches(o *Order) bool {
	if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
		return false
	}
	if len(f.PaymentStatuses) > 0 {
		found := false
		for _, s := range f.PaymentStatuses {
			if s == o.PaymentStatus {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, s := range f.ExcludeStatuses {
		if s == o.Status {
			return false
		}
	}
	return true
}

// OutstandingOrdersFilter selects the orders that carry debt for a customer
func OutstandingOrdersFilter(customerID uuid.UUID) OrderFilter {
	return OrderFilter{
		CustomerID:      &customerID,
		PaymentStatuses: OutstandingPaymentStatuses,
		ExcludeStatuses: ClosedOrderStatuses,
	}
}
