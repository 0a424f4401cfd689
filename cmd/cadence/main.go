package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexanderramin/cadence/internal/app"
	"github.com/alexanderramin/cadence/internal/cli"
	"github.com/alexanderramin/cadence/internal/cli/formatter"
	"github.com/alexanderramin/cadence/internal/config"
	"github.com/alexanderramin/cadence/internal/db"
	"github.com/alexanderramin/cadence/internal/events"
	"github.com/alexanderramin/cadence/internal/repository"
	"github.com/alexanderramin/cadence/internal/service"
	"github.com/alexanderramin/cadence/internal/workdays"
	"github.com/mattn/go-isatty"
	"github.com/nats-io/nats.go"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}
	weekdays, err := cfg.Weekdays()
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	observer := service.NewSlogUseCaseObserver(logger)

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	workItemRepo := repository.NewSQLiteWorkItemRepo(database)
	relationRepo := repository.NewSQLiteRelationRepo(database)
	calendarRepo := repository.NewSQLiteCalendarRepo(database)
	journalRepo := repository.NewSQLiteJournalRepo(database)
	lockRepo := repository.NewSQLiteJobLockRepo(database)

	// Wire unit of work for transactional operations
	uow := db.NewSQLiteUnitOfWork(database)

	// Events go to NATS when configured; calendar changes are then queued
	// for a worker instead of being propagated in this process.
	var publisher events.Publisher = &events.NoopPublisher{}
	if cfg.NATSURL != "" {
		natsPub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return err
		}
		publisher = natsPub
	}
	defer publisher.Close()

	schedule := service.NewScheduleService(
		repository.NewGraphStore(workItemRepo, relationRepo),
		calendarRepo, workItemRepo, journalRepo, publisher, observer)
	workItems := service.NewWorkItemService(workItemRepo, relationRepo, calendarRepo, journalRepo, uow, schedule, observer)

	propagator := workdays.NewPropagator(workItemRepo, relationRepo, calendarRepo, journalRepo, schedule,
		workdays.NewJobLockGuard(lockRepo, cfg.LockTTL), publisher, logger)

	var notifier app.WorkingDaysNotifier = workdays.NewInlineNotifier(propagator).
		WithReport(func(res *app.WorkingDaysChangeResult) {
			fmt.Fprint(os.Stdout, formatter.FormatPropagation(res))
		})
	var runWorker func(ctx context.Context) error
	if cfg.NATSURL != "" {
		notifier = workdays.NewNATSNotifier(publisher)
		runWorker = func(ctx context.Context) error {
			sub, err := events.NewNATSSubscriber(cfg.NATSURL,
				nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
					logger.Warn("nats disconnected", "error", err)
				}),
				nats.ReconnectHandler(func(nc *nats.Conn) {
					logger.Info("nats reconnected", "url", nc.ConnectedUrl())
				}),
			)
			if err != nil {
				return err
			}
			defer sub.Close()
			return workdays.NewWorker(sub, propagator, logger).Run(ctx)
		}
	}

	a := &cli.App{
		Schedule:        schedule,
		WorkItems:       workItems,
		Relations:       service.NewRelationService(relationRepo, workItems, uow, schedule, observer),
		Calendar:        service.NewCalendarService(calendarRepo, uow, notifier, observer),
		Import:          service.NewImportService(uow, schedule, observer),
		RunWorker:       runWorker,
		DefaultWeekdays: weekdays,
		User:            cfg.ActingUser,
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
		AccessiblePrompts: os.Getenv("ACCESSIBLE") != "",
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Execute root command
	return cli.NewRootCmd(a).ExecuteContext(ctx)
}
