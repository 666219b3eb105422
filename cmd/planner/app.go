package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"planner/internal/amqp"
	"planner/internal/backend"
	"planner/internal/cli"
	"planner/internal/config"
	"planner/internal/core"
	"planner/internal/format"
	"planner/internal/ledger"
	"planner/internal/log"
	"planner/internal/services"
	"planner/internal/storage"
)

// app carries what every command needs. Fields left nil are filled from the
// environment before the command runs.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	format *format.Formatter
	month  string
	now    func() time.Time

	// store replaces the configured backend when set.
	store storage.Store
	newID func() string
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "planner",
		Short: "Monthly budget planner",
		Long: `planner keeps one ledger per month: income, category budgets,
expenses and upcoming maturities, with spending summaries per category.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.month, "month", "", "month to work on, YYYY-MM (default: current month)")

	root.AddCommand(serveCmd(a))
	root.AddCommand(summaryCmd(a))
	root.AddCommand(incomeCmd(a))
	root.AddCommand(budgetCmd(a))
	root.AddCommand(filterCmd(a))
	root.AddCommand(monthsCmd(a))
	root.AddCommand(expenseCmd(a))
	root.AddCommand(maturityCmd(a))
	root.AddCommand(categoryCmd(a))
	return root
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	if a.now == nil {
		a.now = time.Now
	}
	if a.cfg == nil {
		cli.LoadEnvFile()
		cfg, err := cli.LoadAndValidateConfig()
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if a.logger == nil {
		a.logger = cli.SetupLogger(a.cfg.LogLevel, log.ComponentCLI)
	}
	f, err := format.New(a.cfg.Locale)
	if err != nil {
		return err
	}
	a.format = f
	return nil
}

func (a *app) activeMonth() (core.MonthKey, error) {
	if a.month == "" {
		return core.MonthKeyOf(a.now()), nil
	}
	month, err := core.ParseMonthKey(a.month)
	if err != nil {
		return "", fmt.Errorf("--month %q: %w", a.month, err)
	}
	return month, nil
}

func (a *app) today() core.Date {
	return core.DateOf(a.now())
}

func (a *app) openStore() (*backend.Result, error) {
	if a.store != nil {
		return &backend.Result{Store: a.store}, nil
	}
	cfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	return backend.Open(cfg, a.logger.Slog())
}

// session is one opened ledger: the store, the catalog and a planner on the
// active month.
type session struct {
	planner   *services.Planner
	catalog   *ledger.CatalogStore
	repo      *ledger.Repository
	backend   *backend.Result
	publisher *amqp.Client
	logger    *log.Logger
}

func (a *app) openSession(ctx context.Context) (*session, error) {
	month, err := a.activeMonth()
	if err != nil {
		return nil, err
	}
	res, err := a.openStore()
	if err != nil {
		return nil, err
	}

	logger := a.logger.Slog()
	s := &session{
		catalog: ledger.OpenCatalog(ctx, res.Store, logger),
		repo:    ledger.NewRepository(res.Store, logger),
		backend: res,
		logger:  a.logger,
	}

	opts := []services.Option{services.WithLogger(logger)}
	if a.newID != nil {
		opts = append(opts, services.WithIDGenerator(a.newID))
	}
	if a.cfg.AMQPEnabled() {
		client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue, logger)
		if err != nil {
			a.logger.Warn("AMQP unavailable, continuing without change events", log.FieldError, err)
		} else {
			s.publisher = client
			opts = append(opts, services.WithPublisher(client))
		}
	}

	s.planner, err = services.NewPlanner(ctx, s.repo, s.catalog, month, opts...)
	if err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *session) close() {
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			s.logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	}
	if err := s.backend.Close(); err != nil {
		s.logger.Warn("Failed to close store", log.FieldError, err)
	}
}

// withSession opens a session for the command and closes it afterwards.
func (a *app) withSession(cmd *cobra.Command, fn func(s *session) error) error {
	s, err := a.openSession(cmd.Context())
	if err != nil {
		return err
	}
	defer s.close()
	return fn(s)
}

// checkStatus turns a mutation result into the command's error.
func checkStatus(what string, status ledger.SaveStatus) error {
	if status.Skipped {
		return fmt.Errorf("%s not found", what)
	}
	if status.Err != nil {
		return fmt.Errorf("change applied but not saved: %w", status.Err)
	}
	return nil
}
