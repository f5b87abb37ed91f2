package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jpeetla/executive-web-scraper/internal/export"
	"github.com/jpeetla/executive-web-scraper/internal/model"
	"github.com/jpeetla/executive-web-scraper/pkg/notion"
)

var (
	batchInput       string
	batchNotionDB    string
	batchOut         string
	batchLimit       int
	batchConcurrency int
	batchTarget      string
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Find executives for every company in a lead list or the Notion queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if batchInput == "" && batchNotionDB == "" {
			batchNotionDB = cfg.Notion.LeadDB
		}
		if batchInput == "" && batchNotionDB == "" {
			return eris.New("batch: --input or --notion-db is required")
		}
		if _, err := export.FormatFor(batchOut); err != nil {
			return err
		}

		env, err := initPipeline(ctx, batchTarget)
		if err != nil {
			return err
		}
		defer env.Close()

		leads, err := loadLeads(ctx, env.Notion)
		if err != nil {
			return err
		}

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.MaxConcurrentCompanies
		}

		runner := newLeadRunner(env)
		rows, summary, err := processBatch(ctx, leads, batchLimit, concurrency, runner.run)
		if err != nil {
			return err
		}

		if err := export.WriteFile(batchOut, rows); err != nil {
			return eris.Wrap(err, "batch: export")
		}
		zap.L().Info("batch exported",
			zap.String("path", batchOut),
			zap.Int("rows", len(rows)),
			zap.Int("succeeded", summary.Succeeded),
			zap.Int("failed", summary.Failed),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "lead list (.csv or .xlsx)")
	batchCmd.Flags().StringVar(&batchNotionDB, "notion-db", "", "read queued leads from this Notion database (default notion.lead_db)")
	batchCmd.Flags().StringVar(&batchOut, "out", "executives.csv", "output file (.csv, .xlsx or .json)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 100, "max number of leads to process")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "companies resolved at once (default batch.max_concurrent_companies)")
	batchCmd.Flags().StringVar(&batchTarget, "target", "", "target to resolve (default from config)")
	rootCmd.AddCommand(batchCmd)
}

func loadLeads(ctx context.Context, nc notion.Client) ([]model.Lead, error) {
	if batchInput != "" {
		leads, err := export.ReadLeadsFile(batchInput)
		if err != nil {
			return nil, eris.Wrap(err, "batch: read leads")
		}
		return leads, nil
	}
	if nc == nil {
		return nil, eris.New("batch: notion.token is required to read the lead queue")
	}
	leads, err := notion.QueuedLeads(ctx, nc, batchNotionDB)
	if err != nil {
		return nil, eris.Wrap(err, "batch: query queued leads")
	}
	return leads, nil
}

// resolveFunc is the callback signature for resolving one lead.
type resolveFunc func(ctx context.Context, lead model.Lead) (model.RunResult, error)

// batchSummary counts batch outcomes.
type batchSummary struct {
	Leads      int
	Succeeded  int
	Failed     int
	Executives int
}

// processBatch applies limit, then resolves leads concurrently. A failed
// lead is logged and skipped. Rows are returned in lead order.
func processBatch(ctx context.Context, leads []model.Lead, limit, concurrency int, resolve resolveFunc) ([]export.Row, batchSummary, error) {
	if len(leads) == 0 {
		zap.L().Info("no leads to process")
		return nil, batchSummary{}, nil
	}

	if limit > 0 && len(leads) > limit {
		leads = leads[:limit]
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	zap.L().Info("processing batch",
		zap.Int("leads", len(leads)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed, found atomic.Int64
	perLead := make([][]export.Row, len(leads))

	for i, lead := range leads {
		g.Go(func() error {
			log := zap.L().With(zap.String("company", lead.Identifier()))

			result, err := resolve(gctx, lead)
			if err != nil {
				failed.Add(1)
				log.Error("resolution failed", zap.Error(err))
				return nil
			}

			succeeded.Add(1)
			found.Add(int64(len(result.Executives)))
			perLead[i] = export.Rows(lead, result.Executives)
			log.Info("resolution complete",
				zap.Int("executives", len(result.Executives)),
				zap.Int("urls_processed", result.Stats.URLsProcessed),
				zap.Duration("duration", result.Duration),
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, batchSummary{}, eris.Wrap(err, "batch processing")
	}

	var rows []export.Row
	for _, r := range perLead {
		rows = append(rows, r...)
	}

	summary := batchSummary{
		Leads:      len(leads),
		Succeeded:  int(succeeded.Load()),
		Failed:     int(failed.Load()),
		Executives: int(found.Load()),
	}
	zap.L().Info("batch complete",
		zap.Int("leads", summary.Leads),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("executives", summary.Executives),
	)
	return rows, summary, nil
}
