package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/models"
)

func TestCreateCreditApprovalRequest(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	customer := addCustomer(store, "Acme", models.CustomerTypeContractor, 10_000_000)
	addSalesInvoice(store, customer.ID, 9_000_000, daysAgo(5))
	engine := newTestEngine(reposFor(store), nil)

	orderID := uuid.New()
	approval, err := engine.CreateCreditApprovalRequest(ctx, CreateApprovalRequest{
		CustomerID: customer.ID,
		OrderID:    &orderID,
		Amount:     amount(2_000_000),
		Reason:     "Project deadline",
	})
	if err != nil {
		t.Fatalf("CreateCreditApprovalRequest() error = %v", err)
	}

	if approval.Status != models.ApprovalStatusPending {
		t.Errorf("Status = %s, want PENDING", approval.Status)
	}
	if !approval.CurrentDebt.Equal(amount(9_000_000)) || !approval.CreditLimit.Equal(amount(10_000_000)) {
		t.Errorf("snapshot = %s/%s", approval.CurrentDebt, approval.CreditLimit)
	}
	if !approval.ExpiresAt.Equal(testNow.Add(models.DefaultApprovalValidity)) {
		t.Errorf("ExpiresAt = %v, want seven days after %v", approval.ExpiresAt, testNow)
	}
	if approval.OrderID == nil || *approval.OrderID != orderID {
		t.Error("order reference not kept")
	}

	stored, err := store.GetApproval(ctx, approval.ID)
	if err != nil {
		t.Fatalf("GetApproval() error = %v", err)
	}
	if stored.Reason != "Project deadline" {
		t.Errorf("stored Reason = %q", stored.Reason)
	}
}

func TestCreateCreditApprovalRequestValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	customer := addCustomer(store, "Acme", models.CustomerTypeRegular, 10_000_000)
	deleted := addCustomer(store, "Gone", models.CustomerTypeRegular, 10_000_000)
	deleted.IsDeleted = true
	store.AddCustomer(deleted)
	engine := newTestEngine(reposFor(store), nil)

	tests := []struct {
		name    string
		req     CreateApprovalRequest
		wantErr error
	}{
		{"zero amount", CreateApprovalRequest{CustomerID: customer.ID, Amount: amount(0), Reason: "x"}, models.ErrInvalidApprovalAmount},
		{"negative amount", CreateApprovalRequest{CustomerID: customer.ID, Amount: amount(-1), Reason: "x"}, models.ErrInvalidApprovalAmount},
		{"missing reason", CreateApprovalRequest{CustomerID: customer.ID, Amount: amount(1)}, models.ErrApprovalReasonMissing},
		{"unknown customer", CreateApprovalRequest{CustomerID: uuid.New(), Amount: amount(1), Reason: "x"}, models.ErrCustomerNotFound},
		{"deleted customer", CreateApprovalRequest{CustomerID: deleted.ID, Amount: amount(1), Reason: "x"}, models.ErrCustomerNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.CreateCreditApprovalRequest(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	pending, _ := engine.ListPendingApprovals(ctx)
	if len(pending) != 0 {
		t.Errorf("rejected requests must not be stored, found %d", len(pending))
	}
}

func TestProcessApprovalClearsHold(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	customer := addCustomer(store, "Held", models.CustomerTypeRegular, 10_000_000)
	customer.CreditHold = true
	store.AddCustomer(customer)
	engine := newTestEngine(reposFor(store), nil)

	approval, err := engine.CreateCreditApprovalRequest(ctx, CreateApprovalRequest{
		CustomerID: customer.ID, Amount: amount(500_000), Reason: "Paid in cash on site",
	})
	if err != nil {
		t.Fatalf("CreateCreditApprovalRequest() error = %v", err)
	}

	decided, err := engine.ProcessApproval(ctx, ProcessApprovalRequest{
		ApprovalID: approval.ID, Approved: true, ApprovedBy: "chief.accountant",
	})
	if err != nil {
		t.Fatalf("ProcessApproval() error = %v", err)
	}
	if decided.Status != models.ApprovalStatusApproved || decided.ApprovedBy == nil || *decided.ApprovedBy != "chief.accountant" {
		t.Errorf("unexpected decision: %+v", decided)
	}
	if decided.ApprovedAt == nil || !decided.ApprovedAt.Equal(testNow) {
		t.Errorf("ApprovedAt = %v, want %v", decided.ApprovedAt, testNow)
	}

	stored, _ := store.GetCustomer(ctx, customer.ID)
	if stored.CreditHold {
		t.Error("approval must clear the hold immediately")
	}

	active, err := engine.ActiveApproval(ctx, customer.ID)
	if err != nil {
		t.Fatalf("ActiveApproval() error = %v", err)
	}
	if active == nil || active.ID != approval.ID {
		t.Errorf("expected %s to be active, got %+v", approval.ID, active)
	}

	// Deciding again is refused
	_, err = engine.ProcessApproval(ctx, ProcessApprovalRequest{ApprovalID: approval.ID, Approved: false, ApprovedBy: "someone"})
	if !errors.Is(err, models.ErrApprovalNotPending) {
		t.Errorf("expected ErrApprovalNotPending, got %v", err)
	}
}

func TestProcessApprovalRejection(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	customer := addCustomer(store, "Held", models.CustomerTypeRegular, 10_000_000)
	customer.CreditHold = true
	store.AddCustomer(customer)
	engine := newTestEngine(reposFor(store), nil)

	approval, err := engine.CreateCreditApprovalRequest(ctx, CreateApprovalRequest{
		CustomerID: customer.ID, Amount: amount(500_000), Reason: "Big order",
	})
	if err != nil {
		t.Fatalf("CreateCreditApprovalRequest() error = %v", err)
	}

	reason := "Too much outstanding debt"
	decided, err := engine.ProcessApproval(ctx, ProcessApprovalRequest{
		ApprovalID: approval.ID, Approved: false, ApprovedBy: "chief.accountant", RejectedReason: &reason,
	})
	if err != nil {
		t.Fatalf("ProcessApproval() error = %v", err)
	}
	if decided.Status != models.ApprovalStatusRejected || decided.RejectedReason == nil || *decided.RejectedReason != reason {
		t.Errorf("unexpected decision: %+v", decided)
	}

	stored, _ := store.GetCustomer(ctx, customer.ID)
	if !stored.CreditHold {
		t.Error("rejection must leave the hold in place")
	}
	if active, _ := engine.ActiveApproval(ctx, customer.ID); active != nil {
		t.Error("rejected approval must not be active")
	}
}

func TestProcessApprovalErrors(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	customer := addCustomer(store, "Acme", models.CustomerTypeRegular, 10_000_000)
	stale := addApproval(store, customer.ID, models.ApprovalStatusPending, testNow.Add(-time.Minute))
	fresh := addApproval(store, customer.ID, models.ApprovalStatusPending, testNow.AddDate(0, 0, 1))
	engine := newTestEngine(reposFor(store), nil)

	tests := []struct {
		name    string
		req     ProcessApprovalRequest
		wantErr error
	}{
		{"missing approver", ProcessApprovalRequest{ApprovalID: fresh.ID, Approved: true}, models.ErrApproverMissing},
		{"unknown approval", ProcessApprovalRequest{ApprovalID: uuid.New(), Approved: true, ApprovedBy: "a"}, models.ErrApprovalNotFound},
		{"expired request", ProcessApprovalRequest{ApprovalID: stale.ID, Approved: true, ApprovedBy: "a"}, models.ErrApprovalExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.ProcessApproval(ctx, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	stored, _ := store.GetApproval(ctx, stale.ID)
	if stored.Status != models.ApprovalStatusPending {
		t.Errorf("expired request must stay pending, got %s", stored.Status)
	}
}

func TestProcessApprovalHoldClearRetries(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	customer := addCustomer(store, "Held", models.CustomerTypeRegular, 10_000_000)
	customer.CreditHold = true
	store.AddCustomer(customer)

	customers := &conflictingCustomers{CustomerRepository: store, conflicts: 1}
	repos := reposFor(store)
	repos.Customers = customers
	engine := newTestEngine(repos, nil)

	approval := addApproval(store, customer.ID, models.ApprovalStatusPending, testNow.AddDate(0, 0, 7))
	if _, err := engine.ProcessApproval(ctx, ProcessApprovalRequest{ApprovalID: approval.ID, Approved: true, ApprovedBy: "a"}); err != nil {
		t.Fatalf("ProcessApproval() error = %v", err)
	}
	if stored, _ := store.GetCustomer(ctx, customer.ID); stored.CreditHold {
		t.Error("hold should be cleared after a retry")
	}

	// Exhausted retries still report the stored decision
	held, _ := store.GetCustomer(ctx, customer.ID)
	if err := store.SetCreditHold(ctx, customer.ID, held.Version, true); err != nil {
		t.Fatalf("SetCreditHold() error = %v", err)
	}
	customers.conflicts = 10
	second := addApproval(store, customer.ID, models.ApprovalStatusPending, testNow.AddDate(0, 0, 7))

	decided, err := engine.ProcessApproval(ctx, ProcessApprovalRequest{ApprovalID: second.ID, Approved: true, ApprovedBy: "a"})
	if !errors.Is(err, models.ErrVersionConflict) {
		t.Errorf("expected ErrVersionConflict, got %v", err)
	}
	if decided == nil || decided.Status != models.ApprovalStatusApproved {
		t.Errorf("expected the approved decision alongside the error, got %+v", decided)
	}
}

func TestListPendingApprovals(t *testing.T) {
	ctx := context.Background()
	store := newTestStore()
	customer := addCustomer(store, "Acme", models.CustomerTypeRegular, 10_000_000)
	engine := newTestEngine(reposFor(store), nil)

	first := addApproval(store, customer.ID, models.ApprovalStatusPending, testNow.AddDate(0, 0, 7))
	addApproval(store, customer.ID, models.ApprovalStatusRejected, testNow.AddDate(0, 0, 7))
	second, err := engine.CreateCreditApprovalRequest(ctx, CreateApprovalRequest{
		CustomerID: customer.ID, Amount: amount(10), Reason: "newer",
	})
	if err != nil {
		t.Fatalf("CreateCreditApprovalRequest() error = %v", err)
	}

	pending, err := engine.ListPendingApprovals(ctx)
	if err != nil {
		t.Fatalf("ListPendingApprovals() error = %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending approvals, got %d", len(pending))
	}
	if pending[0].ID != second.ID || pending[1].ID != first.ID {
		t.Error("expected newest first")
	}

	if active, err := engine.ActiveApproval(ctx, customer.ID); err != nil || active != nil {
		t.Errorf("expected no active approval, got %+v, %v", active, err)
	}
}
