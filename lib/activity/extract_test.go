package activity

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"kindlestats/lib/timezone"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const activitiesUrl = "https://www.amazon.com/parentdashboard/ajax/get-weekly-activities-v2"

func activityResponse(body string) RawResponse {
	return RawResponse{
		URL:    activitiesUrl,
		Status: 200,
		Body:   json.RawMessage(body),
	}
}

func TestExtractSkipsEmptyIntervals(t *testing.T) {
	// 2025-06-02T03:00:00Z, which is still June 1st in the household zone
	const validStart = 1748833200

	res := activityResponse(fmt.Sprintf(`{
		"activityV2Data": [{
			"intervals": [
				{"startTime": %d, "aggregatedDuration": 0},
				{"startTime": null, "aggregatedDuration": 5},
				{"startTime": %d, "aggregatedDuration": 120}
			]
		}]
	}`, validStart, validStart))

	records := ExtractDailyRecords([]RawResponse{res}, timezone.Location)
	require.Len(t, records, 1)
	require.Equal(t, "2025-06-01", records[0].Date)
	require.Equal(t, int64(120), records[0].TotalSeconds)
	require.Equal(t, 2.0, records[0].TotalMinutes)
}

func TestExtractBookFields(t *testing.T) {
	res := activityResponse(`{
		"activityV2Data": [{
			"intervals": [{
				"startTime": 1748833200,
				"aggregatedDuration": 754,
				"aggregatedActivityResults": [
					{
						"activityDuration": 600,
						"activityCount": 2,
						"attributes": {
							"TITLE": "The Hobbit",
							"ORIGINAL_KEY": "B0079KT81G",
							"THUMBNAIL_URL": "https://images.example/hobbit.jpg"
						}
					},
					{
						"activityDuration": 154,
						"activityCount": 1,
						"attributes": {}
					}
				]
			}]
		}]
	}`)

	records := ExtractDailyRecords([]RawResponse{res}, timezone.Location)
	require.Len(t, records, 1)

	expected := []BookSession{
		{
			Title:           "The Hobbit",
			Asin:            "B0079KT81G",
			DurationSeconds: 600,
			Sessions:        2,
			Thumbnail:       "https://images.example/hobbit.jpg",
		},
		{
			Title:           "Unknown",
			DurationSeconds: 154,
			Sessions:        1,
		},
	}
	diff := cmp.Diff(expected, records[0].Books)
	require.Empty(t, diff)

	require.Equal(t, 12.6, records[0].TotalMinutes)
}

func TestExtractSkipsUnrecognizedPayloads(t *testing.T) {
	responses := []RawResponse{
		{
			URL:    "https://www.amazon.com/parentdashboard/ajax/get-household",
			Status: 200,
			Body:   json.RawMessage(`{"members": []}`),
		},
		activityResponse(`not even json`),
		activityResponse(`["unexpected", "shape"]`),
		activityResponse(`{"activityV2Data": [{"intervals": [{"startTime": 1748833200, "aggregatedDuration": 60}]}]}`),
	}

	records := ExtractDailyRecords(responses, timezone.Location)
	require.Len(t, records, 1)
	require.Equal(t, "2025-06-01", records[0].Date)
}

func TestExtractAttributesDatesInHouseholdZone(t *testing.T) {
	// midnight UTC lands on the previous calendar day on the west coast
	midnightUtc := time.Date(2025, time.July, 10, 0, 0, 0, 0, time.UTC).Unix()

	res := activityResponse(fmt.Sprintf(
		`{"activityV2Data": [{"intervals": [{"startTime": %d, "aggregatedDuration": 300}]}]}`,
		midnightUtc,
	))

	records := ExtractDailyRecords([]RawResponse{res}, timezone.Location)
	require.Len(t, records, 1)
	require.Equal(t, "2025-07-09", records[0].Date)
}

func TestExtractSortsAndKeepsDuplicateDates(t *testing.T) {
	responses := []RawResponse{
		activityResponse(`{"activityV2Data": [{"intervals": [{"startTime": 1749438000, "aggregatedDuration": 60}]}]}`),
		activityResponse(`{"activityV2Data": [{"intervals": [{"startTime": 1748833200, "aggregatedDuration": 60}]}]}`),
		activityResponse(`{"activityV2Data": [{"intervals": [{"startTime": 1748833200, "aggregatedDuration": 90}]}]}`),
	}

	records := ExtractDailyRecords(responses, timezone.Location)
	// duplicates survive extraction, dedup is Merge's job
	require.Len(t, records, 3)
	require.Equal(t, "2025-06-01", records[0].Date)
	require.Equal(t, "2025-06-01", records[1].Date)
	require.Equal(t, "2025-06-08", records[2].Date)
}
