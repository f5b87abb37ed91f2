package notion

import (
	"context"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestQueryPages_FollowsCursors(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", cursorIs("")).Return(&notionapi.DatabaseQueryResponse{
		Results:    []notionapi.Page{{ID: "p1"}, {ID: "p2"}},
		HasMore:    true,
		NextCursor: "c1",
	}, nil).Once()
	mc.On("QueryDatabase", ctx, "db-1", cursorIs("c1")).Return(&notionapi.DatabaseQueryResponse{
		Results:    []notionapi.Page{{ID: "p3"}},
		HasMore:    true,
		NextCursor: "c2",
	}, nil).Once()
	mc.On("QueryDatabase", ctx, "db-1", cursorIs("c2")).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{{ID: "p4"}},
	}, nil).Once()

	pages, err := QueryPages(ctx, mc, "db-1", nil)
	require.NoError(t, err)
	require.Len(t, pages, 4)
	for i, id := range []notionapi.ObjectID{"p1", "p2", "p3", "p4"} {
		assert.Equal(t, id, pages[i].ID)
	}
	mc.AssertExpectations(t)
}

func TestQueryPages_ErrorOnLaterPage(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-1", cursorIs("")).Return(&notionapi.DatabaseQueryResponse{
		Results:    []notionapi.Page{{ID: "p1"}},
		HasMore:    true,
		NextCursor: "c1",
	}, nil).Once()
	mc.On("QueryDatabase", ctx, "db-1", cursorIs("c1")).Return(nil, assert.AnError).Once()

	pages, err := QueryPages(ctx, mc, "db-1", nil)
	assert.ErrorContains(t, err, "notion: query pages")
	assert.Nil(t, pages)
	mc.AssertExpectations(t)
}

func TestQueryPages_Empty(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()
	mc.On("QueryDatabase", ctx, "db-1", mock.Anything).Return(&notionapi.DatabaseQueryResponse{}, nil).Once()

	pages, err := QueryPages(ctx, mc, "db-1", nil)
	require.NoError(t, err)
	assert.Empty(t, pages)
}

func TestQueryQueuedLeads_FiltersOnStatus(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	mc.On("QueryDatabase", ctx, "db-leads", mock.MatchedBy(func(req *notionapi.DatabaseQueryRequest) bool {
		pf, ok := req.Filter.(notionapi.PropertyFilter)
		return ok && pf.Property == PropStatus && pf.Status != nil && pf.Status.Equals == StatusQueued
	})).Return(&notionapi.DatabaseQueryResponse{
		Results: []notionapi.Page{{ID: "lead-1"}, {ID: "lead-2"}},
	}, nil).Once()

	pages, err := QueryQueuedLeads(ctx, mc, "db-leads")
	require.NoError(t, err)
	assert.Len(t, pages, 2)
	mc.AssertExpectations(t)
}

func TestQueryQueuedLeads_Error(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()
	mc.On("QueryDatabase", ctx, "db-err", mock.Anything).Return(nil, assert.AnError).Once()

	pages, err := QueryQueuedLeads(ctx, mc, "db-err")
	assert.ErrorContains(t, err, "notion: query queued leads")
	assert.Nil(t, pages)
}

func TestNewClient_Options(t *testing.T) {
	c := NewClient("token").(*apiClient)
	require.NotNil(t, c.limiter)
	assert.InDelta(t, DefaultRateLimit, float64(c.limiter.Limit()), 0.001)

	c = NewClient("token", WithRateLimit(10)).(*apiClient)
	assert.Equal(t, 10, c.limiter.Burst())

	c = NewClient("token", WithRateLimit(0)).(*apiClient)
	assert.Nil(t, c.limiter)
	assert.NoError(t, c.throttle(context.Background()))
}

func TestThrottle_Cancelled(t *testing.T) {
	c := NewClient("token", WithRateLimit(0.001)).(*apiClient)
	require.NoError(t, c.throttle(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorContains(t, c.throttle(ctx), "notion: rate limit")
}
