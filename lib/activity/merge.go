package activity

import (
	"slices"
	"strings"
)

// Merge combines previously persisted records with a newly fetched
// batch, deduplicating by date. When both sides carry the same date,
// the incoming record wins whenever it has at least as many books:
// a re-fetch of an already captured day is assumed to be at least as
// complete, so ties favor the newer fetch.
//
// Merging the same batch twice yields the same result as merging it
// once, and for batches with disjoint dates the application order does
// not matter.
func Merge(existing, incoming []DailyRecord) []DailyRecord {
	byDate := make(map[string]DailyRecord, len(existing)+len(incoming))
	for _, r := range existing {
		byDate[r.Date] = r
	}
	for _, r := range incoming {
		stored, ok := byDate[r.Date]
		if !ok || len(r.Books) >= len(stored.Books) {
			byDate[r.Date] = r
		}
	}

	merged := make([]DailyRecord, 0, len(byDate))
	for _, r := range byDate {
		merged = append(merged, r)
	}
	slices.SortFunc(merged, func(a, b DailyRecord) int {
		return strings.Compare(a.Date, b.Date)
	})
	return merged
}
