package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/livefire2015/ez-credit/src/logger"
	"github.com/livefire2015/ez-credit/src/models"
	"github.com/livefire2015/ez-credit/src/notify"
	"github.com/livefire2015/ez-credit/src/repository/memory"
	"github.com/livefire2015/ez-credit/src/services"
	"github.com/shopspring/decimal"
)

// This example walks one contractor through the credit lifecycle:
// 1. Check an order against the credit limit
// 2. Let an invoice go 45 days overdue and run the hold job
// 3. Request and approve a credit exception
// 4. Print the aging report and the risk score

func main() {
	logger.Init(&logger.Config{Level: "warn", Format: "text"})

	ctx := context.Background()
	now := time.Now().UTC()
	store := memory.NewStore()

	engine := services.NewCreditEngine(services.Repositories{
		Customers:      store,
		Invoices:       store,
		Orders:         store,
		Configurations: store,
		Approvals:      store,
	}, notify.Log{}, services.EngineOptions{})

	contractor := models.Customer{
		ID:           uuid.New(),
		Name:         "Hoang Long Construction",
		CustomerType: models.CustomerTypeContractor,
		CreditLimit:  decimal.NewFromInt(100_000_000),
		CreatedAt:    now.AddDate(-2, 0, 0),
		UpdatedAt:    now.AddDate(-2, 0, 0),
	}
	store.AddCustomer(contractor)

	fmt.Println("=== EZ Credit - Complete Flow Example ===")
	fmt.Println()

	// Step 1: Credit check on a fresh account
	fmt.Println("Step 1: Credit Check")
	fmt.Println("--------------------")

	dueSoon := now.AddDate(0, 0, 5)
	store.AddInvoice(salesInvoice(contractor.ID, 60_000_000, &dueSoon, now))

	for _, orderAmount := range []int64{30_000_000, 50_000_000} {
		result, err := engine.CheckEligibility(ctx, contractor.ID, decimal.NewFromInt(orderAmount))
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("  Order %s: eligible=%v requires approval=%v\n",
			services.FormatVND(decimal.NewFromInt(orderAmount)), result.Eligible, result.RequiresApproval)
		if result.Reason != "" {
			fmt.Printf("    Reason: %s\n", result.Reason)
		}
		if result.WarningMessage != "" {
			fmt.Printf("    Warning: %s\n", result.WarningMessage)
		}
	}

	// Step 2: An old invoice goes 45 days overdue
	fmt.Println("\nStep 2: Credit Hold Job")
	fmt.Println("-----------------------")

	longOverdue := now.AddDate(0, 0, -45)
	store.AddInvoice(salesInvoice(contractor.ID, 15_000_000, &longOverdue, now))

	holds, err := engine.AutoUpdateCreditHolds(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  Processed: %d, locked: %d, suspended: %d\n", holds.Processed, holds.Locked, holds.Suspended)

	locked, err := store.GetCustomer(ctx, contractor.ID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  Credit hold: %v\n", locked.CreditHold)

	// Step 3: Sales asks for an exception and the CFO approves it
	fmt.Println("\nStep 3: Credit Exception")
	fmt.Println("------------------------")

	approval, err := engine.CreateCreditApprovalRequest(ctx, services.CreateApprovalRequest{
		CustomerID: contractor.ID,
		Amount:     decimal.NewFromInt(20_000_000),
		Reason:     "Steel delivery for the Thu Duc site",
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  Request %s: %s, expires %s\n", approval.ID, approval.Status, approval.ExpiresAt.Format(time.DateOnly))

	decided, err := engine.ProcessApproval(ctx, services.ProcessApprovalRequest{
		ApprovalID: approval.ID,
		Approved:   true,
		ApprovedBy: "cfo@hoanglong.vn",
	})
	if err != nil {
		log.Fatal(err)
	}
	unlocked, _ := store.GetCustomer(ctx, contractor.ID)
	fmt.Printf("  Decision: %s by %s, credit hold now %v\n", decided.Status, *decided.ApprovedBy, unlocked.CreditHold)

	holds, err = engine.AutoUpdateCreditHolds(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  Next hold run: locked %d, suspended %d\n", holds.Locked, holds.Suspended)

	// Step 4: Reports
	fmt.Println("\nStep 4: Aging and Risk")
	fmt.Println("----------------------")

	report, err := engine.GenerateDebtAgingReport(ctx)
	if err != nil {
		log.Fatal(err)
	}
	for _, row := range report.Rows {
		fmt.Printf("  %s: total %s, current %s, 31-60 days %s\n",
			row.CustomerName,
			services.FormatVND(row.TotalDebt),
			services.FormatVND(row.Current),
			services.FormatVND(row.Days31To60))
	}

	risk, err := engine.AnalyzeCustomer(ctx, contractor.ID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("  Risk score %d (%s), suggested limit %s\n",
		risk.RiskScore, risk.RiskLevel, services.FormatVND(risk.SuggestedCreditLimit))
	for _, w := range risk.Warnings {
		fmt.Printf("    - %s\n", w)
	}

	fmt.Println("\n=== Complete ===")
}

func salesInvoice(customerID uuid.UUID, balance int64, due *time.Time, now time.Time) models.Invoice {
	return models.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: "INV-" + uuid.NewString()[:8],
		CustomerID:    customerID,
		InvoiceType:   models.InvoiceTypeSales,
		Status:        models.InvoiceStatusSent,
		TotalAmount:   decimal.NewFromInt(balance),
		BalanceAmount: decimal.NewFromInt(balance),
		DueDate:       due,
		CreatedAt:     now.AddDate(0, -2, 0),
		UpdatedAt:     now.AddDate(0, -2, 0),
	}
}
