package main

import (
	"github.com/spf13/cobra"
)

func agingReportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "aging-report",
		Short: "Refresh credit snapshots and print the debt aging report",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.engine.GenerateDebtAgingReport(a.jobContext(cmd, "debt-aging-report"))
			if err != nil {
				return err
			}
			return a.printJSON(report)
		},
	}
}

func updateHoldsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update-holds",
		Short: "Lock customers whose debt is overdue past their policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.engine.AutoUpdateCreditHolds(a.jobContext(cmd, "credit-hold-update"))
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}
}

func remindersCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reminders",
		Short: "Send overdue invoice reminders, then update credit holds",
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := a.engine.ProcessReminders(a.jobContext(cmd, "debt-reminders"))
			if err != nil {
				return err
			}
			return a.printJSON(result)
		},
	}
}
