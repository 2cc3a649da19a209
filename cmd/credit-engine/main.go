// Command credit-engine runs the credit checks, batch jobs and approval
// workflow against the configured database.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"github.com/livefire2015/ez-credit/src/config"
	"github.com/livefire2015/ez-credit/src/logger"
	"github.com/livefire2015/ez-credit/src/notify"
	"github.com/livefire2015/ez-credit/src/repository/dynamo"
	"github.com/livefire2015/ez-credit/src/repository/sqlstore"
	"github.com/livefire2015/ez-credit/src/services"
)

var Version = "dev"

// app holds what every subcommand needs once configuration is loaded
type app struct {
	configPath string
	cfg        *config.Config
	store      *sqlstore.Store
	approvals  *dynamo.ApprovalStore // nil unless the dynamodb backend is selected
	engine     *services.CreditEngine
	out        io.Writer // command results
	logOut     io.Writer // log records, kept off the result stream
}

func main() {
	a := &app{out: os.Stdout, logOut: os.Stderr}

	rootCmd := &cobra.Command{
		Use:                "credit-engine",
		Short:              "Credit risk and debt aging engine",
		Version:            Version,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "configuration file")

	rootCmd.AddCommand(migrateCmd(a))
	rootCmd.AddCommand(checkCmd(a))
	rootCmd.AddCommand(agingReportCmd(a))
	rootCmd.AddCommand(updateHoldsCmd(a))
	rootCmd.AddCommand(remindersCmd(a))
	rootCmd.AddCommand(requestApprovalCmd(a))
	rootCmd.AddCommand(processApprovalCmd(a))
	rootCmd.AddCommand(pendingApprovalsCmd(a))
	rootCmd.AddCommand(riskCmd(a))
	rootCmd.AddCommand(configCmd(a))
	rootCmd.AddCommand(notificationsCmd(a))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.initLogging()

	ctx := cmd.Context()
	store, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	a.store = store

	repos := services.Repositories{
		Customers:      store,
		Invoices:       store,
		Orders:         store,
		Configurations: store,
		Approvals:      store,
	}
	if cfg.Approvals.Backend == "dynamodb" {
		client, err := dynamo.NewClient(ctx, dynamo.ClientOptions{
			Region:   cfg.Approvals.Region,
			Endpoint: cfg.Approvals.Endpoint,
		})
		if err != nil {
			return err
		}
		a.approvals = dynamo.NewApprovalStore(client, cfg.Approvals.Table)
		repos.Approvals = a.approvals
	}

	notifier := notify.Multi{notify.NewInbox(store), notify.Log{}}
	a.engine = services.NewCreditEngine(repos, notifier, services.EngineOptions{
		Workers:          cfg.Engine.Workers,
		CheckRetries:     cfg.Engine.CheckRetries,
		ReminderDays:     cfg.Engine.ReminderDays,
		ApprovalValidity: time.Duration(cfg.Engine.ApprovalValidityDays) * 24 * time.Hour,
	})

	logger.Debug(ctx, "credit engine ready",
		"driver", cfg.Database.Driver,
		"approvals_backend", cfg.Approvals.Backend)
	return nil
}

func (a *app) initLogging() {
	logger.InitWithWriter(&logger.Config{Level: a.cfg.Log.Level, Format: a.cfg.Log.Format}, a.logOut)
}

func (a *app) teardown(cmd *cobra.Command, args []string) error {
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// jobContext tags the command context so every log line carries the job name
func (a *app) jobContext(cmd *cobra.Command, job string) context.Context {
	return logger.WithJob(cmd.Context(), job)
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
