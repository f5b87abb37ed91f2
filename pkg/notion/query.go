package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryPages returns every page of dbID matching filter (nil for all),
// following cursors to the end. Each next page is requested while the
// previous batch is being appended.
func QueryPages(ctx context.Context, c Client, dbID string, filter notionapi.Filter) ([]notionapi.Page, error) {
	type batch struct {
		resp *notionapi.DatabaseQueryResponse
		err  error
	}
	fetch := func(cursor notionapi.Cursor) <-chan batch {
		ch := make(chan batch, 1)
		go func() {
			resp, err := c.QueryDatabase(ctx, dbID, &notionapi.DatabaseQueryRequest{
				Filter:      filter,
				StartCursor: cursor,
			})
			ch <- batch{resp: resp, err: err}
		}()
		return ch
	}

	var pages []notionapi.Page
	next := fetch("")
	for {
		b := <-next
		if b.err != nil {
			return nil, eris.Wrap(b.err, "notion: query pages")
		}
		if b.resp.HasMore {
			next = fetch(b.resp.NextCursor)
		}
		pages = append(pages, b.resp.Results...)
		if !b.resp.HasMore {
			return pages, nil
		}
	}
}

// QueryQueuedLeads returns the pages of dbID whose Status is Queued.
func QueryQueuedLeads(ctx context.Context, c Client, dbID string) ([]notionapi.Page, error) {
	pages, err := QueryPages(ctx, c, dbID, notionapi.PropertyFilter{
		Property: PropStatus,
		Status:   &notionapi.StatusFilterCondition{Equals: StatusQueued},
	})
	if err != nil {
		return nil, eris.Wrap(err, "notion: query queued leads")
	}
	return pages, nil
}
