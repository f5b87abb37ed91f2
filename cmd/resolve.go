package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/jpeetla/executive-web-scraper/internal/model"
	"github.com/jpeetla/executive-web-scraper/internal/store"
	"github.com/jpeetla/executive-web-scraper/pkg/notion"
)

// identifierResolver is the part of pipeline.Resolver the commands use.
type identifierResolver interface {
	ResolveIdentifier(ctx context.Context, identifier string) (model.RunResult, error)
}

// leadRunner resolves one lead and records the run. Store and Notion are
// optional; bookkeeping failures are logged and never fail the lead.
type leadRunner struct {
	resolver identifierResolver
	store    store.Store
	notion   notion.Client
}

func newLeadRunner(env *pipelineEnv) *leadRunner {
	return &leadRunner{resolver: env.Resolver, store: env.Store, notion: env.Notion}
}

// run resolves lead.Identifier(). The run row moves queued → running →
// complete (or failed), and a Notion-sourced lead has its page status
// updated to match.
func (lr *leadRunner) run(ctx context.Context, lead model.Lead) (model.RunResult, error) {
	log := zap.L().With(zap.String("company", lead.Identifier()))

	var runID string
	if lr.store != nil {
		r, err := lr.store.CreateRun(ctx, lead)
		if err != nil {
			log.Warn("create run record", zap.Error(err))
		} else {
			runID = r.ID
			if err := lr.store.UpdateRunStatus(ctx, runID, model.RunStatusRunning); err != nil {
				log.Warn("update run status", zap.Error(err))
			}
		}
	}
	lr.setNotionStatus(ctx, lead, notion.StatusRunning, -1)

	result, err := lr.resolver.ResolveIdentifier(ctx, lead.Identifier())
	if err != nil {
		if runID != "" {
			if fErr := lr.store.FailRun(ctx, runID, err.Error()); fErr != nil {
				log.Warn("fail run record", zap.Error(fErr))
			}
		}
		lr.setNotionStatus(ctx, lead, notion.StatusFailed, -1)
		return model.RunResult{}, eris.Wrapf(err, "resolve %q", lead.Identifier())
	}

	if runID != "" {
		if uErr := lr.store.UpdateRunResult(ctx, runID, &result); uErr != nil {
			log.Warn("save run result", zap.Error(uErr))
		}
	}
	lr.setNotionStatus(ctx, lead, notion.StatusComplete, len(result.Executives))

	return result, nil
}

func (lr *leadRunner) setNotionStatus(ctx context.Context, lead model.Lead, status string, found int) {
	if lr.notion == nil || lead.NotionPageID == "" {
		return
	}
	if err := notion.SetLeadStatus(ctx, lr.notion, lead.NotionPageID, status, found); err != nil {
		zap.L().Warn("failed to update notion status",
			zap.String("page", lead.NotionPageID),
			zap.String("status", status),
			zap.Error(err),
		)
	}
}
