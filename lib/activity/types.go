package activity

import "encoding/json"

// DateFormat is the fixed key format for daily records. Because it is
// zero-padded ISO, lexicographic order on date strings coincides with
// chronological order.
const DateFormat = "2006-01-02"

// BookSession is one book's share of a reading day.
type BookSession struct {
	Title           string `json:"title"`
	Asin            string `json:"asin,omitempty"`
	DurationSeconds int64  `json:"duration_seconds"`
	Sessions        int64  `json:"sessions"`
	Thumbnail       string `json:"thumbnail,omitempty"`
}

// DailyRecord is one calendar day of reading activity. Within a
// canonical collection dates are unique and sorted ascending.
type DailyRecord struct {
	Date         string        `json:"date"`
	TotalSeconds int64         `json:"total_seconds"`
	TotalMinutes float64       `json:"total_minutes"`
	Books        []BookSession `json:"books"`
}

// WindowQuery records the parameters a raw response was fetched with,
// kept alongside the payload for audit purposes.
type WindowQuery struct {
	ChildDirectedId string `json:"childDirectedId"`
	StartTime       int64  `json:"startTime"`
	EndTime         int64  `json:"endTime"`
}

// RawResponse is an opaque payload captured from the dashboard. The
// body is kept verbatim so a fetch can be replayed through extraction
// later without touching the network.
type RawResponse struct {
	URL    string          `json:"url"`
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
	Query  *WindowQuery    `json:"query,omitempty"`
}

// FetchResult is the full outcome of one run, archived to its own
// timestamped file and never overwritten.
type FetchResult struct {
	FetchedAt       string        `json:"fetched_at"`
	ReadingActivity []DailyRecord `json:"reading_activity"`
	RawResponses    []RawResponse `json:"raw_responses"`
}

// Dataset is the single canonical reading history, fully rewritten at
// the end of each successful run.
type Dataset struct {
	ReadingActivity []DailyRecord `json:"reading_activity"`
	LastUpdated     string        `json:"last_updated,omitempty"`
}
