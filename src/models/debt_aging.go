package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// OverdueDays returns ceil((now - dueDate) / 1 day).
// Zero or negative means the obligation is not overdue.
func OverdueDays(dueDate, now time.Time) int {
	elapsed := now.Sub(dueDate)
	days := int(elapsed / day)
	if elapsed%day > 0 {
		days++
	}
	return days
}

// AgingBucket is one of the five mutually exclusive overdue ranges
type AgingBucket string

const (
	AgingBucketCurrent AgingBucket = "current"
	AgingBucket1To30   AgingBucket = "1-30"
	AgingBucket31To60  AgingBucket = "31-60"
	AgingBucket61To90  AgingBucket = "61-90"
	AgingBucketOver90  AgingBucket = "90+"
)

// BucketForOverdueDays maps an overdue day count to its aging bucket
func BucketForOverdueDays(days int) AgingBucket {
	switch {
	case days <= 0:
		return AgingBucketCurrent
	case days <= 30:
		return AgingBucket1To30
	case days <= 60:
		return AgingBucket31To60
	case days <= 90:
		return AgingBucket61To90
	default:
		return AgingBucketOver90
	}
}

// DebtAgingReport is one customer row of the debt aging report
type DebtAgingReport struct {
	CustomerID     uuid.UUID       `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	CustomerType   CustomerType    `json:"customer_type"`
	TotalDebt      decimal.Decimal `json:"total_debt"`
	Current        decimal.Decimal `json:"current"`
	Days1To30      decimal.Decimal `json:"days_1_to_30"`
	Days31To60     decimal.Decimal `json:"days_31_to_60"`
	Days61To90     decimal.Decimal `json:"days_61_to_90"`
	Over90         decimal.Decimal `json:"over_90"`
	CreditLimit    decimal.Decimal `json:"credit_limit"`
	CreditHold     bool            `json:"credit_hold"`
	MaxOverdueDays int             `json:"max_overdue_days"`
}

// AddToBucket adds an amount to the bucket matching the overdue day count
func (r *DebtAgingReport) AddToBucket(overdueDays int, amount decimal.Decimal) {
	switch BucketForOverdueDays(overdueDays) {
	case AgingBucketCurrent:
		r.Current = r.Current.Add(amount)
	case AgingBucket1To30:
		r.Days1To30 = r.Days1To30.Add(amount)
	case AgingBucket31To60:
		r.Days31To60 = r.Days31To60.Add(amount)
	case AgingBucket61To90:
		r.Days61To90 = r.Days61To90.Add(amount)
	default:
		r.Over90 = r.Over90.Add(amount)
	}
}

// BucketSum returns the sum of the five aging buckets
func (r *DebtAgingReport) BucketSum() decimal.Decimal {
	return r.Current.Add(r.Days1To30).Add(r.Days31To60).Add(r.Days61To90).Add(r.Over90)
}

// Reconcile sets TotalDebt to max(bucket sum, ledger balance). A ledger
// balance not explained by the buckets is treated as not yet due, so the
// buckets keep summing exactly to TotalDebt.
func (r *DebtAgingReport) Reconcile(ledgerBalance decimal.Decimal) {
	calculated := r.BucketSum()
	if ledgerBalance.GreaterThan(calculated) {
		r.Current = r.Current.Add(ledgerBalance.Sub(calculated))
		r.TotalDebt = ledgerBalance
		return
	}
	r.TotalDebt = calculated
}

// Bucket returns the amount held in a given bucket
func (r *DebtAgingReport) Bucket(b AgingBucket) decimal.Decimal {
	switch b {
	case AgingBucketCurrent:
		return r.Current
	case AgingBucket1To30:
		return r.Days1To30
	case AgingBucket31To60:
		return r.Days31To60
	case AgingBucket61To90:
		return r.Days61To90
	default:
		return r.Over90
	}
}
