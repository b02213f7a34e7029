// Command harvest runs one harvest from the command line and prints the
// documents it found as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/user/news-harvester/internal/adapter/dateparser"
	"github.com/user/news-harvester/internal/adapter/postgres"
	redis_adapter "github.com/user/news-harvester/internal/adapter/redis"
	"github.com/user/news-harvester/internal/bootstrap"
	"github.com/user/news-harvester/internal/entity"
	"github.com/user/news-harvester/internal/source"
	"github.com/user/news-harvester/internal/usecase"
	"github.com/user/news-harvester/pkg/config"
	"github.com/user/news-harvester/pkg/logger"
	"github.com/user/news-harvester/pkg/metrics"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var flags harvestFlags

	cmd := &cobra.Command{
		Use:   "harvest",
		Short: "Harvest finextra latest news backwards in time",
		Long: `Walks the finextra latest-news listings from today (or --start-date) backwards
one day at a time and prints every article found as a JSON array.

At least one bound is required: --interval, --max-count, --last-known-file or --incremental.
With --persist the documents, skipped items and run record are stored in PostgreSQL
and the newest document becomes the checkpoint used by --incremental.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.intervalSet = cmd.Flags().Changed("interval")
			return runHarvest(cmd.Context(), flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().DurationVar(&flags.interval, "interval", 0, "how far back to walk, e.g. 24h (default HARVEST_INTERVAL_HOURS)")
	cmd.Flags().IntVar(&flags.maxCount, "max-count", 0, "stop after this many documents (default HARVEST_MAX_COUNT)")
	cmd.Flags().StringVar(&flags.lastKnownFile, "last-known-file", "", "JSON document of a previous run to stop at")
	cmd.Flags().StringVar(&flags.startDate, "start-date", "", "first listing date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&flags.incremental, "incremental", false, "stop at the stored checkpoint (requires --persist)")
	cmd.Flags().BoolVar(&flags.persist, "persist", false, "store results in PostgreSQL and Redis")
	cmd.Flags().StringVar(&flags.fetchMode, "fetch-mode", "", "browser or http (default FETCH_MODE)")
	return cmd
}

func runHarvest(ctx context.Context, flags harvestFlags, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if flags.fetchMode != "" {
		cfg.FetchMode = flags.fetchMode
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	log := logger.New(os.Stderr, cfg.LogLevel)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session, closeSession, err := bootstrap.FetchSession(cfg, log)
	if err != nil {
		return err
	}
	defer closeSession()

	m := metrics.New(prometheus.NewRegistry())
	src := source.Finextra()
	harvester := usecase.NewHarvester(session, src, dateparser.New(time.UTC), m, log,
		usecase.WithMaxBarrenDates(cfg.MaxBarrenDates))

	var result *usecase.HarvestResult
	if flags.persist {
		req, err := flags.runRequest(cfg)
		if err != nil {
			return err
		}
		result, err = executePersisted(ctx, cfg, src.Name, harvester, m, log, req)
		if err != nil {
			return err
		}
	} else {
		opts, err := flags.options(cfg)
		if err != nil {
			return err
		}
		var harvestErr error
		result, harvestErr = harvester.Content(ctx, opts)
		if result == nil {
			return harvestErr
		}
		if harvestErr != nil {
			log.Error("harvest ended early, printing partial results", zap.Error(harvestErr))
		}
	}

	if result == nil {
		return errors.New("harvest produced no result")
	}
	log.Info("harvest finished",
		zap.String("outcome", string(result.Outcome)),
		zap.Int("documents", len(result.Documents)),
		zap.Int("skipped", len(result.Skipped)))
	return writeDocuments(out, result.Documents)
}

func executePersisted(
	ctx context.Context,
	cfg *config.Config,
	sourceName string,
	harvester usecase.ContentHarvester,
	m *metrics.Metrics,
	log *zap.Logger,
	req entity.RunRequest,
) (*usecase.HarvestResult, error) {
	dbpool, err := bootstrap.Postgres(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer dbpool.Close()

	rdb, err := bootstrap.Redis(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer rdb.Close()

	worker := usecase.NewRunWorker(
		sourceName,
		harvester,
		redis_adapter.NewQueueRepo(rdb),
		postgres.NewRunRepo(dbpool),
		postgres.NewDocumentRepo(dbpool),
		postgres.NewSkippedItemRepo(dbpool),
		redis_adapter.NewCheckpointRepo(rdb),
		m,
		log,
	)
	result, err := worker.Execute(ctx, req)
	if err != nil {
		return result, fmt.Errorf("persisted run failed: %w", err)
	}
	return result, nil
}

func writeDocuments(out io.Writer, docs []*entity.Document) error {
	if docs == nil {
		docs = []*entity.Document{}
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}
