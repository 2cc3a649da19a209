package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/livefire2015/ez-credit/src/logger"
)

func migrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the engine tables",
		Long: `Create the SQL tables and, when approvals are stored in DynamoDB,
the approvals table. Existing tables are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.jobContext(cmd, "migrate")

			if err := a.store.Migrate(ctx); err != nil {
				return err
			}
			logger.Info(ctx, "sql schema migrated", "driver", a.cfg.Database.Driver)

			if a.approvals != nil {
				if err := a.approvals.CreateTable(ctx); err != nil {
					return err
				}
				logger.Info(ctx, "approvals table ready", "table", a.cfg.Approvals.Table)
			}

			fmt.Fprintln(a.out, "migration complete")
			return nil
		},
	}
}
