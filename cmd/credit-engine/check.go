package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func checkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check [customer-id] [order-amount]",
		Short: "Check whether a customer may place an order",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			customerID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid customer id: %w", err)
			}
			amount, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid order amount: %w", err)
			}

			result, err := a.engine.CheckEligibility(a.jobContext(cmd, "credit-check"), customerID, amount)
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}
}
