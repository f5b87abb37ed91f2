package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpeetla/executive-web-scraper/internal/model"
)

func execsFor(domain string, n int) []model.Executive {
	out := make([]model.Executive, n)
	for i := range out {
		out[i] = model.Executive{Domain: domain, Name: domain + "-exec", Title: "CEO", Source: model.SourceWeb}
	}
	return out
}

func TestProcessBatch_PreservesLeadOrder(t *testing.T) {
	leads := []model.Lead{
		{Domain: "slow.com", InvestorReference: "Fund I"},
		{Domain: "fast.com", CompanyReference: "Portfolio"},
	}

	rows, summary, err := processBatch(context.Background(), leads, 0, 2, func(_ context.Context, lead model.Lead) (model.RunResult, error) {
		if lead.Domain == "slow.com" {
			time.Sleep(20 * time.Millisecond)
		}
		return model.RunResult{Executives: execsFor(lead.Domain, 1)}, nil
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "slow.com", rows[0].Domain)
	assert.Equal(t, "Fund I", rows[0].InvestorReference)
	assert.Equal(t, "fast.com", rows[1].Domain)
	assert.Equal(t, "Portfolio", rows[1].CompanyReference)
	assert.Equal(t, batchSummary{Leads: 2, Succeeded: 2, Executives: 2}, summary)
}

func TestProcessBatch_FailureDoesNotAbort(t *testing.T) {
	leads := []model.Lead{{Domain: "bad.com"}, {Domain: "good.com"}}

	rows, summary, err := processBatch(context.Background(), leads, 0, 1, func(_ context.Context, lead model.Lead) (model.RunResult, error) {
		if lead.Domain == "bad.com" {
			return model.RunResult{}, assert.AnError
		}
		return model.RunResult{Executives: execsFor(lead.Domain, 3)}, nil
	})
	require.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 3, summary.Executives)
}

func TestProcessBatch_Limit(t *testing.T) {
	leads := []model.Lead{{Domain: "a.com"}, {Domain: "b.com"}, {Domain: "c.com"}}

	var calls atomic.Int32
	_, summary, err := processBatch(context.Background(), leads, 2, 3, func(context.Context, model.Lead) (model.RunResult, error) {
		calls.Add(1)
		return model.RunResult{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, summary.Leads)
}

func TestProcessBatch_BoundedConcurrency(t *testing.T) {
	leads := make([]model.Lead, 8)
	for i := range leads {
		leads[i] = model.Lead{Domain: string(rune('a'+i)) + ".com"}
	}

	var active, peak atomic.Int32
	_, _, err := processBatch(context.Background(), leads, 0, 2, func(context.Context, model.Lead) (model.RunResult, error) {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return model.RunResult{}, nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestProcessBatch_Empty(t *testing.T) {
	rows, summary, err := processBatch(context.Background(), nil, 10, 3, nil)
	require.NoError(t, err)
	assert.Nil(t, rows)
	assert.Zero(t, summary)
}

func TestProcessBatch_ZeroConcurrency(t *testing.T) {
	rows, _, err := processBatch(context.Background(), []model.Lead{{Domain: "a.com"}}, 0, 0, func(context.Context, model.Lead) (model.RunResult, error) {
		return model.RunResult{Executives: execsFor("a.com", 1)}, nil
	})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
