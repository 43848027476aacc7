package listing

import (
	"time"
)

// windowSeconds is the length of one daily ingestion window
const windowSeconds = 86400

// Item is one post fetched from a source forum listing.
// CreatedAt is epoch seconds as reported by the upstream API.
type Item struct {
	ID           string `json:"id" db:"id"`
	SourceForum  string `json:"source_forum" db:"source_forum"`
	Title        string `json:"title" db:"title"`
	Body         string `json:"body" db:"body"`
	CreatedAt    int64  `json:"created_at" db:"created_at"`
	Permalink    string `json:"permalink" db:"permalink"`
	Author       string `json:"author" db:"author"`
	URL          string `json:"url" db:"url"`
	IsSelfPost   bool   `json:"is_self_post" db:"is_self_post"`
	IsAdult      bool   `json:"is_adult" db:"is_adult"`
	CommentCount int    `json:"comment_count" db:"comment_count"`
	Score        int    `json:"score" db:"score"`
	FlairText    string `json:"flair_text" db:"flair_text"`
}

// CreatedTime returns the item creation time in UTC
func (i Item) CreatedTime() time.Time {
	return time.Unix(i.CreatedAt, 0).UTC()
}

// Window is one (source forum, UTC calendar day) ingestion unit. The epoch
// bounds are half-open: an item belongs to the window when
// StartEpoch <= created < EndEpoch.
type Window struct {
	SourceForum string
	Day         time.Time
	StartEpoch  int64
	EndEpoch    int64
}

// NewWindow builds the daily window covering the given day. The day is
// truncated to UTC midnight regardless of its original location.
func NewWindow(sourceForum string, day time.Time) Window {
	day = day.UTC()
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	start := midnight.Unix()

	return Window{
		SourceForum: sourceForum,
		Day:         midnight,
		StartEpoch:  start,
		EndEpoch:    start + windowSeconds,
	}
}

// Contains reports whether an epoch timestamp falls inside the window
func (w Window) Contains(epoch int64) bool {
	return epoch >= w.StartEpoch && epoch < w.EndEpoch
}

// Start returns the inclusive window start as a time
func (w Window) Start() time.Time {
	return time.Unix(w.StartEpoch, 0).UTC()
}

// End returns the exclusive window end as a time
func (w Window) End() time.Time {
	return time.Unix(w.EndEpoch, 0).UTC()
}

// Page is one page of a paginated listing. After is the opaque cursor for the
// next page; empty means the listing is exhausted.
type Page struct {
	Items []Item
	After string
}
