package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/livefire2015/ez-credit/src/services"
)

func requestApprovalCmd(a *app) *cobra.Command {
	var (
		reason  string
		orderID string
	)

	cmd := &cobra.Command{
		Use:   "request-approval [customer-id] [amount]",
		Short: "Open a credit exception request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			customerID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid customer id: %w", err)
			}
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount: %w", err)
			}

			req := services.CreateApprovalRequest{
				CustomerID: customerID,
				Amount:     amount,
				Reason:     reason,
			}
			if orderID != "" {
				id, err := uuid.Parse(orderID)
				if err != nil {
					return fmt.Errorf("invalid order id: %w", err)
				}
				req.OrderID = &id
			}

			approval, err := a.engine.CreateCreditApprovalRequest(a.jobContext(cmd, "approval-request"), req)
			if err != nil {
				return err
			}
			return a.printJSON(approval)
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", "", "why the exception is needed")
	cmd.Flags().StringVar(&orderID, "order", "", "order the exception is for")
	return cmd
}

func processApprovalCmd(a *app) *cobra.Command {
	var (
		approve bool
		reject  bool
		by      string
		reason  string
	)

	cmd := &cobra.Command{
		Use:   "process-approval [approval-id]",
		Short: "Approve or reject a pending credit exception",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if approve == reject {
				return errors.New("exactly one of --approve or --reject is required")
			}
			approvalID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid approval id: %w", err)
			}

			req := services.ProcessApprovalRequest{
				ApprovalID: approvalID,
				Approved:   approve,
				ApprovedBy: by,
			}
			if reject && reason != "" {
				req.RejectedReason = &reason
			}

			approval, err := a.engine.ProcessApproval(a.jobContext(cmd, "approval-decision"), req)
			if approval != nil {
				if printErr := a.printJSON(approval); printErr != nil {
					return printErr
				}
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&approve, "approve", false, "approve the request and clear the credit hold")
	cmd.Flags().BoolVar(&reject, "reject", false, "reject the request")
	cmd.Flags().StringVar(&by, "by", "", "approver name")
	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason")
	return cmd
}

func pendingApprovalsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "pending-approvals",
		Short: "List credit exceptions waiting for a decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			approvals, err := a.engine.ListPendingApprovals(a.jobContext(cmd, "pending-approvals"))
			if err != nil {
				return err
			}
			return a.printJSON(approvals)
		},
	}
}
