package listing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hypewatch/pkg/errors"
)

// fakeFetcher replays a scripted sequence of page responses
type fakeFetcher struct {
	responses []pageResponse
	calls     int
	cursors   []string
}

type pageResponse struct {
	page *Page
	err  error
}

func (f *fakeFetcher) FetchPage(ctx context.Context, sourceForum, after, token string) (*Page, error) {
	f.cursors = append(f.cursors, after)
	if f.calls >= len(f.responses) {
		return &Page{}, nil
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp.page, resp.err
}

func testWindow() Window {
	return NewWindow("wallstreetbets", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
}

func makeItems(window Window, count int, newestEpoch int64) []Item {
	items := make([]Item, count)
	for i := 0; i < count; i++ {
		items[i] = Item{
			ID:          string(rune('a'+i%26)) + time.Unix(newestEpoch-int64(i), 0).Format("150405"),
			SourceForum: window.SourceForum,
			CreatedAt:   newestEpoch - int64(i),
		}
	}
	return items
}

func newTestFetcher(fake *fakeFetcher, retry RetryPolicy) *Fetcher {
	if retry.Cooldown == 0 {
		retry.Cooldown = time.Millisecond
	}
	return NewFetcher(fake, FetcherConfig{
		PageCap: 5,
		Retry:   retry,
	})
}

func TestFetchWindow_MultiPage(t *testing.T) {
	window := testWindow()

	fake := &fakeFetcher{responses: []pageResponse{
		{page: &Page{Items: makeItems(window, 100, window.EndEpoch-1), After: "t3_p1"}},
		{page: &Page{Items: makeItems(window, 100, window.EndEpoch-200), After: "t3_p2"}},
		{page: &Page{Items: makeItems(window, 40, window.EndEpoch-400), After: ""}},
	}}

	fetcher := newTestFetcher(fake, RetryPolicy{})
	items, err := fetcher.FetchWindow(context.Background(), window, "token")
	require.NoError(t, err)

	assert.Len(t, items, 240)
	assert.Equal(t, []string{"", "t3_p1", "t3_p2"}, fake.cursors)

	// Ascending by creation time
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i-1].CreatedAt, items[i].CreatedAt)
	}
}

func TestFetchWindow_FiltersOutsideWindow(t *testing.T) {
	window := testWindow()

	// One item from the next day, two inside, one older than the window
	page := &Page{Items: []Item{
		{ID: "next", CreatedAt: window.EndEpoch},
		{ID: "in1", CreatedAt: window.EndEpoch - 10},
		{ID: "in2", CreatedAt: window.StartEpoch},
		{ID: "old", CreatedAt: window.StartEpoch - 1},
	}, After: "t3_more"}

	fake := &fakeFetcher{responses: []pageResponse{{page: page}}}
	fetcher := newTestFetcher(fake, RetryPolicy{})

	items, err := fetcher.FetchWindow(context.Background(), window, "token")
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "in2", items[0].ID)
	assert.Equal(t, "in1", items[1].ID)

	// Seeing an older-than-window item stops pagination despite the cursor
	assert.Equal(t, 1, fake.calls)
}

func TestFetchWindow_RateLimitRetriesSameCursor(t *testing.T) {
	window := testWindow()

	fake := &fakeFetcher{responses: []pageResponse{
		{page: &Page{Items: makeItems(window, 3, window.EndEpoch-1), After: "t3_p1"}},
		{err: errors.ErrRateLimited},
		{err: errors.ErrRateLimited},
		{page: &Page{Items: makeItems(window, 2, window.StartEpoch+1), After: ""}},
	}}

	fetcher := newTestFetcher(fake, RetryPolicy{Cooldown: time.Millisecond})
	items, err := fetcher.FetchWindow(context.Background(), window, "token")
	require.NoError(t, err)

	assert.Len(t, items, 5)
	// Throttled attempts repeat the cursor instead of advancing it
	assert.Equal(t, []string{"", "t3_p1", "t3_p1", "t3_p1"}, fake.cursors)
}

func TestFetchWindow_RateLimitAttemptCap(t *testing.T) {
	window := testWindow()

	fake := &fakeFetcher{responses: []pageResponse{
		{err: errors.ErrRateLimited},
		{err: errors.ErrRateLimited},
		{err: errors.ErrRateLimited},
	}}

	fetcher := newTestFetcher(fake, RetryPolicy{Cooldown: time.Millisecond, MaxAttempts: 2})
	items, err := fetcher.FetchWindow(context.Background(), window, "token")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRateLimited))
	assert.Empty(t, items)
	assert.Equal(t, 3, fake.calls)
}

func TestFetchWindow_UpstreamErrorKeepsPartial(t *testing.T) {
	window := testWindow()

	fake := &fakeFetcher{responses: []pageResponse{
		{page: &Page{Items: makeItems(window, 10, window.EndEpoch-1), After: "t3_p1"}},
		{err: errors.Wrap(errors.ErrUpstream, "status 500")},
	}}

	fetcher := newTestFetcher(fake, RetryPolicy{})
	items, err := fetcher.FetchWindow(context.Background(), window, "token")

	require.NoError(t, err)
	assert.Len(t, items, 10)
}

func TestFetchWindow_PageCap(t *testing.T) {
	window := testWindow()

	// Every page claims more data is available
	var responses []pageResponse
	for i := 0; i < 10; i++ {
		responses = append(responses, pageResponse{
			page: &Page{Items: makeItems(window, 2, window.EndEpoch-1), After: "t3_more"},
		})
	}

	fake := &fakeFetcher{responses: responses}
	fetcher := newTestFetcher(fake, RetryPolicy{})

	items, err := fetcher.FetchWindow(context.Background(), window, "token")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPageCapReached))
	assert.Equal(t, 5, fake.calls)
	assert.Len(t, items, 10)
}

func TestNewWindow_HalfOpenBounds(t *testing.T) {
	window := NewWindow("stocks", time.Date(2026, 8, 1, 15, 30, 0, 0, time.UTC))

	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), window.Day)
	assert.Equal(t, int64(86400), window.EndEpoch-window.StartEpoch)

	assert.True(t, window.Contains(window.StartEpoch))
	assert.True(t, window.Contains(window.EndEpoch-1))
	assert.False(t, window.Contains(window.EndEpoch))
	assert.False(t, window.Contains(window.StartEpoch-1))
}

func TestSortItems_IDTiebreak(t *testing.T) {
	items := []Item{
		{ID: "b", CreatedAt: 100},
		{ID: "a", CreatedAt: 100},
		{ID: "c", CreatedAt: 50},
	}
	sortItems(items)

	assert.Equal(t, "c", items[0].ID)
	assert.Equal(t, "a", items[1].ID)
	assert.Equal(t, "b", items[2].ID)
}
