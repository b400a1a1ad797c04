package activity

import "time"

// Window is a closed-open [Start, End) slice of time used to page
// through the dashboard's history one query at a time.
type Window struct {
	Start time.Time
	End   time.Time
}

// EnumerateWindows splits [start, end) into contiguous, non-overlapping
// windows of the given width. The final window is truncated so that its
// End always equals end. start == end produces no windows.
func EnumerateWindows(start, end time.Time, width time.Duration) []Window {
	var windows []Window
	cursor := start
	for cursor.Before(end) {
		next := cursor.Add(width)
		if next.After(end) {
			next = end
		}
		windows = append(windows, Window{Start: cursor, End: next})
		cursor = next
	}
	return windows
}

// LatestDate returns the latest parseable date key found in records.
// Entries with a missing or malformed date are skipped, they must not
// abort the computation.
func LatestDate(records []DailyRecord) (string, bool) {
	var latest time.Time
	found := false
	for _, r := range records {
		if r.Date == "" {
			continue
		}
		day, err := time.Parse(DateFormat, r.Date)
		if err != nil {
			continue
		}
		if !found || day.After(latest) {
			latest = day
			found = true
		}
	}
	if !found {
		return "", false
	}
	return latest.Format(DateFormat), true
}
