package activity

import (
	"encoding/json"
	"math"
	"slices"
	"strings"
	"time"
)

// wire shapes for the get-weekly-activities response, only the fields
// extraction needs are declared
type activityPayload struct {
	ActivityV2Data []activityCategory `json:"activityV2Data"`
}

type activityCategory struct {
	Intervals []activityInterval `json:"intervals"`
}

type activityInterval struct {
	StartTime          *int64           `json:"startTime"`
	AggregatedDuration int64            `json:"aggregatedDuration"`
	Results            []activityResult `json:"aggregatedActivityResults"`
}

type activityResult struct {
	ActivityDuration int64          `json:"activityDuration"`
	ActivityCount    int64          `json:"activityCount"`
	Attributes       map[string]any `json:"attributes"`
}

func attrString(attrs map[string]any, key string) string {
	s, _ := attrs[key].(string)
	return s
}

// ExtractDailyRecords walks every recognized activities payload in
// responses and produces one record per interval that has actual
// reading time. Payloads that are not activity query responses, or
// that fail to unmarshal, are skipped: a long multi-window fetch is
// expected to contain failed or unrelated responses and those must
// not abort extraction of the valid remainder.
//
// Interval start timestamps are converted to calendar dates in tz,
// the household's zone, so a session late in the evening lands on the
// day it was actually read.
//
// Duplicate dates across payloads are preserved here, Merge owns
// deduplication. The output is sorted ascending by date.
func ExtractDailyRecords(responses []RawResponse, tz *time.Location) []DailyRecord {
	var records []DailyRecord
	for _, res := range responses {
		if !strings.Contains(res.URL, "get-weekly-activities") {
			continue
		}
		var payload activityPayload
		if err := json.Unmarshal(res.Body, &payload); err != nil {
			continue
		}

		for _, category := range payload.ActivityV2Data {
			for _, interval := range category.Intervals {
				// zero-duration intervals are filler for days with no
				// reading, they are not meaningful records
				if interval.StartTime == nil || interval.AggregatedDuration == 0 {
					continue
				}

				books := make([]BookSession, 0, len(interval.Results))
				for _, result := range interval.Results {
					title := attrString(result.Attributes, "TITLE")
					if title == "" {
						title = "Unknown"
					}
					books = append(books, BookSession{
						Title:           title,
						Asin:            attrString(result.Attributes, "ORIGINAL_KEY"),
						DurationSeconds: result.ActivityDuration,
						Sessions:        result.ActivityCount,
						Thumbnail:       attrString(result.Attributes, "THUMBNAIL_URL"),
					})
				}

				seconds := interval.AggregatedDuration
				records = append(records, DailyRecord{
					Date:         time.Unix(*interval.StartTime, 0).In(tz).Format(DateFormat),
					TotalSeconds: seconds,
					TotalMinutes: math.Round(float64(seconds)/60*10) / 10,
					Books:        books,
				})
			}
		}
	}

	slices.SortFunc(records, func(a, b DailyRecord) int {
		return strings.Compare(a.Date, b.Date)
	})
	return records
}
