package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/livefire2015/ez-credit/src/models"
)

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage debt policy configurations",
	}
	cmd.AddCommand(configListCmd(a))
	cmd.AddCommand(configSetCmd(a))
	cmd.AddCommand(configResolveCmd(a))
	return cmd
}

func configResolveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [customer-type]",
		Short: "Show the policy a customer segment is checked against",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := a.engine.ResolvePolicy(a.jobContext(cmd, "config-resolve"), models.CustomerType(args[0]))
			return a.printJSON(policy)
		},
	}
}

func configListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored debt configurations",
		RunE: func(cmd *cobra.Command, args []string) error {
			configs, err := a.engine.ListDebtConfigurations(a.jobContext(cmd, "config-list"))
			if err != nil {
				return err
			}
			return a.printJSON(configs)
		},
	}
}

func configSetCmd(a *app) *cobra.Command {
	var (
		description    string
		maxOverdueDays int
		percent        string
		warningDays    int
		autoHold       bool
		inactive       bool
	)

	cmd := &cobra.Command{
		Use:   "set [name]",
		Short: "Create or replace the debt configuration for a segment",
		Long: `Create or replace a debt configuration. The name is a customer type
(CONTRACTOR, WHOLESALE, REGULAR) or Default for the fallback row.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limitPercent, err := decimal.NewFromString(percent)
			if err != nil {
				return fmt.Errorf("invalid credit limit percent: %w", err)
			}

			cfg := &models.DebtConfiguration{
				Name:               args[0],
				MaxOverdueDays:     maxOverdueDays,
				CreditLimitPercent: limitPercent,
				WarningDays:        warningDays,
				AutoHoldOnOverdue:  autoHold,
				IsActive:           !inactive,
			}
			if description != "" {
				cfg.Description = &description
			}

			if err := a.engine.SaveDebtConfiguration(a.jobContext(cmd, "config-set"), cfg); err != nil {
				return err
			}
			return a.printJSON(cfg)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "free text description")
	cmd.Flags().IntVar(&maxOverdueDays, "max-overdue-days", 30, "days overdue before a customer is blocked")
	cmd.Flags().StringVar(&percent, "limit-percent", "100", "usable share of the credit limit, in percent")
	cmd.Flags().IntVar(&warningDays, "warning-days", 7, "days before the deadline to warn")
	cmd.Flags().BoolVar(&autoHold, "auto-hold", true, "lock customers automatically when overdue")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "store the row as inactive")
	return cmd
}
