package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestApprovalStatusTransitions(t *testing.T) {
	tests := []struct {
		name        string
		fromStatus  ApprovalStatus
		toStatus    ApprovalStatus
		shouldAllow bool
	}{
		{"pending to approved", ApprovalStatusPending, ApprovalStatusApproved, true},
		{"pending to rejected", ApprovalStatusPending, ApprovalStatusRejected, true},
		{"approved to rejected", ApprovalStatusApproved, ApprovalStatusRejected, false},
		{"approved to pending", ApprovalStatusApproved, ApprovalStatusPending, false},
		{"rejected to approved", ApprovalStatusRejected, ApprovalStatusApproved, false},
		{"unknown status", ApprovalStatus("ESCALATED"), ApprovalStatusApproved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			approval := &CreditApproval{Status: tt.fromStatus}
			if got := approval.CanTransitionTo(tt.toStatus); got != tt.shouldAllow {
				t.Errorf("CanTransitionTo(%s) from %s = %v, want %v", tt.toStatus, tt.fromStatus, got, tt.shouldAllow)
			}
		})
	}
}

func TestCreditApprovalBuilder(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	customerID := uuid.New()
	orderID := uuid.New()

	approval, err := NewCreditApprovalBuilder(now).
		WithCustomer(customerID, &orderID).
		WithRequest(decimal.NewFromInt(2_000_000), "large project order").
		WithSnapshot(decimal.NewFromInt(9_000_000), decimal.NewFromInt(10_000_000)).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if approval.Status != ApprovalStatusPending {
		t.Errorf("Status = %s, want PENDING", approval.Status)
	}
	if !approval.ExpiresAt.Equal(now.Add(7 * 24 * time.Hour)) {
		t.Errorf("ExpiresAt = %v, want now + 7 days", approval.ExpiresAt)
	}
	if approval.OrderID == nil || *approval.OrderID != orderID {
		t.Errorf("OrderID not set")
	}
	if !approval.CurrentDebt.Equal(decimal.NewFromInt(9_000_000)) {
		t.Errorf("CurrentDebt = %s", approval.CurrentDebt)
	}

	tests := []struct {
		name   string
		amount decimal.Decimal
		reason string
		want   error
	}{
		{"zero amount", decimal.Zero, "reason", ErrInvalidApprovalAmount},
		{"negative amount", decimal.NewFromInt(-1), "reason", ErrInvalidApprovalAmount},
		{"missing reason", decimal.NewFromInt(1), "", ErrApprovalReasonMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCreditApprovalBuilder(now).WithCustomer(customerID, nil).WithRequest(tt.amount, tt.reason).Build()
			if err != tt.want {
				t.Errorf("Build() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestApprovalExpiry(t *testing.T) {
	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	approval := &CreditApproval{Status: ApprovalStatusApproved, ExpiresAt: now}

	if !approval.IsExpired(now) {
		t.Error("approval must be expired at its expiry instant")
	}
	if approval.IsActiveGrant(now) {
		t.Error("expired approval must not be an active grant")
	}
	if !approval.IsActiveGrant(now.Add(-time.Second)) {
		t.Error("approval must be active before expiry")
	}

	approval.Status = ApprovalStatusRejected
	if approval.IsActiveGrant(now.Add(-time.Hour)) {
		t.Error("rejected approval is never an active grant")
	}
}
