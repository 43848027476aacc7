package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"hypewatch/internal/domain/listing"
	"hypewatch/pkg/errors"
)

const defaultBaseURL = "https://oauth.reddit.com"

// Reddit listing API response shapes
type listingResponse struct {
	Data listingData `json:"data"`
}

type listingData struct {
	Children []listingChild `json:"children"`
	After    string         `json:"after"`
}

type listingChild struct {
	Data postData `json:"data"`
}

type postData struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	CreatedUTC  float64 `json:"created_utc"`
	Permalink   string  `json:"permalink"`
	Author      string  `json:"author"`
	URL         string  `json:"url"`
	IsSelf      bool    `json:"is_self"`
	Over18      bool    `json:"over_18"`
	NumComments int     `json:"num_comments"`
	Score       int     `json:"score"`
	LinkFlair   string  `json:"link_flair_text"`
}

// Compile-time check
var _ listing.PageFetcher = (*Client)(nil)

// Client fetches listing pages from the Reddit API
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	pageSize   int
}

// NewClient creates a Reddit listing client
func NewClient(userAgent string, pageSize int) *Client {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		userAgent:  userAgent,
		pageSize:   pageSize,
	}
}

// FetchPage fetches one page of /r/{sub}/new with bearer auth.
// 429 maps to ErrRateLimited so the fetcher can back off and retry the same
// cursor; other non-2xx responses map to ErrUpstream.
func (c *Client) FetchPage(ctx context.Context, sourceForum, after, token string) (*listing.Page, error) {
	endpoint := fmt.Sprintf("%s/r/%s/new?limit=%d", c.baseURL, url.PathEscape(sourceForum), c.pageSize)
	if after != "" {
		endpoint += "&after=" + url.QueryEscape(after)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create listing request")
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "reddit listing request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, errors.Wrapf(errors.ErrRateLimited, "r/%s after=%q", sourceForum, after)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errors.Wrapf(errors.ErrUpstream, "reddit listing returned status %d: %s", resp.StatusCode, string(body))
	}

	var decoded listingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, errors.Wrap(err, "decode listing response")
	}

	page := &listing.Page{
		Items: make([]listing.Item, 0, len(decoded.Data.Children)),
		After: decoded.Data.After,
	}
	for _, child := range decoded.Data.Children {
		page.Items = append(page.Items, toItem(sourceForum, child.Data))
	}

	return page, nil
}

// SetBaseURL overrides the API base URL (used in tests)
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

func toItem(sourceForum string, p postData) listing.Item {
	forum := p.Subreddit
	if forum == "" {
		forum = sourceForum
	}
	return listing.Item{
		ID:           p.ID,
		SourceForum:  forum,
		Title:        p.Title,
		Body:         p.Selftext,
		CreatedAt:    int64(p.CreatedUTC),
		Permalink:    p.Permalink,
		Author:       p.Author,
		URL:          p.URL,
		IsSelfPost:   p.IsSelf,
		IsAdult:      p.Over18,
		CommentCount: p.NumComments,
		Score:        p.Score,
		FlairText:    p.LinkFlair,
	}
}
