// Command labeltagctl is the CLI surface for the labeling pipeline:
// config, db-test, run, and run --resume.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	_ "github.com/sijms/go-ora/v2"

	"github.com/wms-platform/labeltagctl/internal/apperr"
	"github.com/wms-platform/labeltagctl/internal/config"
	"github.com/wms-platform/labeltagctl/internal/domain"
	"github.com/wms-platform/labeltagctl/internal/job"
	"github.com/wms-platform/labeltagctl/internal/labeldata"
	"github.com/wms-platform/labeltagctl/internal/obslog"
	"github.com/wms-platform/labeltagctl/internal/printing"
	"github.com/wms-platform/labeltagctl/internal/query"
	"github.com/wms-platform/labeltagctl/internal/refdata"
	"github.com/wms-platform/labeltagctl/internal/resilience"
	"github.com/wms-platform/labeltagctl/internal/template"
)

func main() {
	logger := obslog.New(obslog.DefaultConfig("labeltagctl"))

	defer func() {
		if r := recover(); r != nil {
			logger.Panic(context.Background(), r)
			os.Exit(apperr.ExitInternal)
		}
	}()

	root := newRootCmd(logger)
	if err := root.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(apperr.ExitCodeFor(err))
	}
}

func newRootCmd(logger *obslog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "labeltagctl",
		Short:         "Deterministic pallet label production for the WMS",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newConfigCmd(logger))
	root.AddCommand(newDbTestCmd(logger))
	root.AddCommand(newRunCmd(logger))
	root.AddCommand(newListCheckpointsCmd(logger))
	return root
}

// newConfigCmd dumps the effective configuration with secrets
// redacted.
func newConfigCmd(logger *obslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration, secrets redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			keys := make([]string, 0, 32)
			redacted := cfg.Redacted()
			for k := range redacted {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, redacted[k])
			}
			return nil
		},
	}
}

// newDbTestCmd runs the database connectivity probe, plus a
// default-printer TCP probe so an operator can tell apart "database
// unreachable" from "printer unreachable" before running a job.
func newDbTestCmd(logger *obslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "db-test",
		Short: "Probe database and default-printer connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			store := query.NewStore(db)
			dbBreaker := resilience.NewCircuitBreaker(resilience.DefaultBreakerConfig("db-test"), logger)
			_, pingErr := dbBreaker.Execute(ctx, func() (any, error) {
				return nil, store.Ping(ctx)
			})
			if pingErr != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "database: FAIL (%v)\n", pingErr)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "database: OK")
			}

			if cfg.PrinterDefaultID != "" && cfg.PrinterInventoryFile != "" && cfg.PrinterRoutingFile != "" {
				registry, err := loadRegistry(cfg)
				if err == nil {
					if printer, ok := registry.FindPrinter(cfg.PrinterDefaultID); ok {
						transport := printing.NewTransport(transportConfig(cfg), nil, logger)
						if transport.TestConnectivity(ctx, printer) {
							fmt.Fprintf(cmd.OutOrStdout(), "printer %s: OK\n", printer.ID)
						} else {
							fmt.Fprintf(cmd.OutOrStdout(), "printer %s: FAIL\n", printer.ID)
						}
					}
				}
			}

			if pingErr != nil {
				return pingErr
			}
			return nil
		},
	}
}

// newRunCmd runs a shipment or carrier-move job end to end, or
// resumes an incomplete checkpoint.
func newRunCmd(logger *obslog.Logger) *cobra.Command {
	var (
		shipmentID    string
		carrierMoveID string
		dryRun        bool
		printerID     string
		outputDir     string
		resumeID      string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build and print labels for a shipment or carrier move",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if printerID != "" {
				cfg.PrinterForceID = printerID
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}

			ctx := cmd.Context()

			if resumeID != "" {
				return runResume(ctx, cfg, logger, resumeID, dryRun)
			}

			if shipmentID == "" && carrierMoveID == "" {
				return apperr.ValidationError("run requires --shipment-id or --carrier-move-id")
			}
			return runOnce(ctx, cfg, logger, shipmentID, carrierMoveID, dryRun)
		},
	}

	cmd.Flags().StringVar(&shipmentID, "shipment-id", "", "Shipment id to print")
	cmd.Flags().StringVar(&carrierMoveID, "carrier-move-id", "", "Carrier-move id to print")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Write rendered labels to disk only, skip printer transmission")
	cmd.Flags().StringVar(&printerID, "printer", "", "Override the resolved printer id for this run")
	cmd.Flags().StringVar(&outputDir, "output-dir", "", "Override the configured output directory for this run")
	cmd.Flags().StringVar(&resumeID, "resume", "", "Resume an incomplete checkpoint by job id instead of starting a new job")
	return cmd
}

// newListCheckpointsCmd is the unadvertised operator subcommand
// over the checkpoint store's ListIncomplete.
func newListCheckpointsCmd(logger *obslog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:    "list-checkpoints",
		Short:  "List incomplete job checkpoints, most recently updated first",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			store := job.NewCheckpointStore(cfg.CheckpointDir, logger)
			incomplete, err := store.ListIncomplete()
			if err != nil {
				return err
			}
			for _, cp := range incomplete {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\tnext=%d/%d\tupdated=%s\n",
					cp.ID, cp.InputMode, cp.SourceID, cp.NextTaskIndex, len(cp.Tasks), cp.UpdatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

// pipeline bundles every component Load needs to prepare and run one
// job, constructed once per CLI invocation.
type pipeline struct {
	preparer    *job.Preparer
	taskBuilder *job.TaskBuilder
	registry    *printing.Registry
	transport   *printing.Transport
	executor    *job.Executor
	checkpoints *job.CheckpointStore
	db          *sql.DB
}

func buildPipeline(cfg *config.Config, logger *obslog.Logger) (*pipeline, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	store := query.NewStore(db)
	preparer := job.NewPreparer(store, logger)

	skuMatrix, err := refdata.LoadSkuMatrix(cfg.SkuMatrixFile, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	var locationMatrix *refdata.LocationMatrix
	if cfg.LocationMatrixFile != "" {
		locationMatrix, err = refdata.LoadLocationMatrix(cfg.LocationMatrixFile, logger)
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	builder := labeldata.NewBuilder(skuMatrix, locationMatrix, labeldata.ShipFrom{
		Name:         cfg.SiteShipFromName,
		Address:      cfg.SiteShipFromAddress,
		CityStateZip: cfg.SiteShipFromCityStateZip,
	})

	tmplBytes, err := os.ReadFile(cfg.LabelTemplateFile)
	if err != nil {
		db.Close()
		return nil, apperr.ConfigError("label template file not found: " + cfg.LabelTemplateFile).Wrap(err)
	}
	tmpl, err := template.Parse("pallet-label", string(tmplBytes))
	if err != nil {
		db.Close()
		return nil, err
	}

	registry, err := loadRegistry(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	transport := printing.NewTransport(transportConfig(cfg), resilience.NewRegistry(logger), logger)
	checkpoints := job.NewCheckpointStore(cfg.CheckpointDir, logger)
	executor := job.NewExecutor(checkpoints, transport, logger)

	return &pipeline{
		preparer:    preparer,
		taskBuilder: job.NewTaskBuilder(builder, tmpl),
		registry:    registry,
		transport:   transport,
		executor:    executor,
		checkpoints: checkpoints,
		db:          db,
	}, nil
}

func (p *pipeline) Close() {
	if p.db != nil {
		p.db.Close()
	}
}

func runOnce(ctx context.Context, cfg *config.Config, logger *obslog.Logger, shipmentID, carrierMoveID string, dryRun bool) error {
	pl, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer pl.Close()

	var (
		tasks      []domain.PrintTask
		mode       domain.InputMode
		sourceID   string
		routingCtx map[string]string
	)

	if shipmentID != "" {
		mode, sourceID = domain.InputShipment, shipmentID
		prepared, err := pl.preparer.PrepareShipment(ctx, shipmentID)
		if err != nil {
			return err
		}
		tasks, err = pl.taskBuilder.BuildShipmentTasks(prepared)
		if err != nil {
			return err
		}
		routingCtx = job.PrinterSelectionFields(prepared)
	} else {
		mode, sourceID = domain.InputCarrierMove, carrierMoveID
		prepared, err := pl.preparer.PrepareCarrierMove(ctx, carrierMoveID)
		if err != nil {
			return err
		}
		tasks, err = pl.taskBuilder.BuildCarrierMoveTasks(prepared)
		if err != nil {
			return err
		}
		if len(prepared.Groups) > 0 && len(prepared.Groups[0].Jobs) > 0 {
			routingCtx = job.PrinterSelectionFields(prepared.Groups[0].Jobs[0])
		}
	}

	printer, err := resolvePrinter(ctx, cfg, pl.registry, routingCtx)
	if err != nil && !dryRun {
		return err
	}

	jobID := uuid.NewString()
	_, err = pl.executor.Start(ctx, job.RunParams{
		ID:        jobID,
		Mode:      mode,
		SourceID:  sourceID,
		OutputDir: cfg.OutputDir,
		Tasks:     tasks,
		Printer:   printer,
		FileOnly:  dryRun,
	})
	return err
}

func runResume(ctx context.Context, cfg *config.Config, logger *obslog.Logger, checkpointID string, dryRun bool) error {
	pl, err := buildPipeline(cfg, logger)
	if err != nil {
		return err
	}
	defer pl.Close()

	var printer *domain.PrinterConfig
	if !dryRun {
		if cfg.PrinterForceID != "" {
			printer, _ = pl.registry.FindPrinter(cfg.PrinterForceID)
		}
		if printer == nil && cfg.PrinterDefaultID != "" {
			printer, _ = pl.registry.FindPrinter(cfg.PrinterDefaultID)
		}
		if printer == nil {
			return apperr.ConfigError("no printer resolved to resume checkpoint " + checkpointID)
		}
	}

	_, err = pl.executor.Resume(ctx, checkpointID, printer, dryRun)
	return err
}

func resolvePrinter(ctx context.Context, cfg *config.Config, registry *printing.Registry, fields map[string]string) (*domain.PrinterConfig, error) {
	if cfg.PrinterForceID != "" {
		printer, ok := registry.FindPrinter(cfg.PrinterForceID)
		if !ok {
			return nil, apperr.ConfigError("PRINTER_FORCE_ID " + cfg.PrinterForceID + " is unknown or disabled")
		}
		return printer, nil
	}
	return registry.SelectPrinter(ctx, fields)
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	dsn := query.BuildDSN(query.DSNConfig{
		Host:     cfg.SiteHost,
		Port:     cfg.OraclePort,
		Service:  cfg.OracleService,
		Username: cfg.OracleUsername,
		Password: cfg.OraclePassword,
		Explicit: firstNonEmpty(cfg.OracleDSN, cfg.OracleJDBCURL),
	})
	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return nil, apperr.DbConnectivityError("failed to open database handle").Wrap(err)
	}
	db.SetMaxOpenConns(cfg.DBPoolMaxSize)
	return db, nil
}

func loadRegistry(cfg *config.Config) (*printing.Registry, error) {
	printersFile, err := os.Open(cfg.PrinterInventoryFile)
	if err != nil {
		return nil, apperr.ConfigError("printer inventory file not found: " + cfg.PrinterInventoryFile).Wrap(err)
	}
	defer printersFile.Close()

	routingFile, err := os.Open(cfg.PrinterRoutingFile)
	if err != nil {
		return nil, apperr.ConfigError("printer routing file not found: " + cfg.PrinterRoutingFile).Wrap(err)
	}
	defer routingFile.Close()

	return printing.LoadRegistry(printersFile, routingFile)
}

func transportConfig(cfg *config.Config) printing.TransportConfig {
	return printing.TransportConfig{
		ConnectTimeout: time.Duration(cfg.PrinterConnectTimeoutMS) * time.Millisecond,
		IOTimeout:      time.Duration(cfg.PrinterIOTimeoutMS) * time.Millisecond,
		MaxRetries:     cfg.PrinterRetryMax,
		RetryBaseDelay: time.Duration(cfg.PrinterRetryBaseMS) * time.Millisecond,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
