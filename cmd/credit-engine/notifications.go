package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func notificationsCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "notifications [customer-id]",
		Short: "Show a customer's notification inbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			customerID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid customer id: %w", err)
			}
			records, err := a.store.ListNotifications(a.jobContext(cmd, "notifications"), customerID, limit)
			if err != nil {
				return err
			}
			return a.printJSON(records)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum notifications to show")
	return cmd
}
