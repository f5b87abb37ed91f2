package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jpeetla/executive-web-scraper/internal/model"
)

func TestFormatRunsList(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)
	runs := []model.Run{
		{
			ID:        "abc12345-6789-0000-0000-000000000000",
			Lead:      model.Lead{Domain: "acme.com", CompanyName: "Acme"},
			Status:    model.RunStatusComplete,
			Result:    &model.RunResult{Executives: execsFor("acme.com", 4)},
			CreatedAt: now,
			UpdatedAt: now.Add(2 * time.Minute),
		},
		{
			ID:        "def12345-6789-0000-0000-000000000000",
			Lead:      model.Lead{CompanyName: "A Very Long Company Name Incorporated"},
			Status:    model.RunStatusRunning,
			CreatedAt: now.Add(-1 * time.Hour),
			UpdatedAt: now.Add(-30 * time.Minute),
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	output := buf.String()
	assert.Contains(t, output, "EXECUTIVES")
	assert.Contains(t, output, "acme.com")
	assert.Contains(t, output, "complete")
	assert.Contains(t, output, "A Very Long Company Name In...")
	assert.Contains(t, output, "running")
	assert.Contains(t, output, "2025-06-15 10:30")
	assert.Contains(t, output, "abc12345")
	assert.Contains(t, output, "2m0s")
}

func TestComputeRunStats(t *testing.T) {
	runs := []model.Run{
		{Status: model.RunStatusComplete, Result: &model.RunResult{
			Executives: []model.Executive{{Source: model.SourceWeb}, {Source: model.SourceApollo}},
			Duration:   4 * time.Second,
		}},
		{Status: model.RunStatusComplete, Result: &model.RunResult{
			Executives: []model.Executive{{Source: model.SourceWeb}},
			Duration:   2 * time.Second,
		}},
		{Status: model.RunStatusFailed},
		{Status: model.RunStatusRunning},
	}

	s := computeRunStats(runs)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 2, s.Complete)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 1, s.Other)
	assert.Equal(t, 3, s.Executives)
	assert.Equal(t, 2, s.BySource[model.SourceWeb])
	assert.InDelta(t, 3.0, s.AvgDurSecs, 0.001)

	var buf bytes.Buffer
	formatRunStats(&buf, s)
	assert.Contains(t, buf.String(), "Total runs:")
	assert.Contains(t, buf.String(), "apollo:")
	assert.Contains(t, buf.String(), "Avg duration:")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "abc12345", truncateID("abc12345-6789"))
	assert.Equal(t, "short", truncateID("short"))
}
