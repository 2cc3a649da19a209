package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func riskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "risk [customer-id]",
		Short: "Score credit risk for one customer or all contractors",
		Long: `Score credit risk and suggest a credit limit.

Without a customer id every contractor is scored, riskiest first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.jobContext(cmd, "credit-risk")

			if len(args) == 0 {
				results, err := a.engine.AnalyzeAllContractors(ctx)
				if err != nil {
					return err
				}
				return a.printJSON(results)
			}

			customerID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid customer id: %w", err)
			}
			result, err := a.engine.AnalyzeCustomer(ctx, customerID)
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}
}
