package activity

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func day(date string, titles ...string) DailyRecord {
	books := make([]BookSession, len(titles))
	for i, title := range titles {
		books[i] = BookSession{Title: title, DurationSeconds: 600, Sessions: 1}
	}
	return DailyRecord{
		Date:         date,
		TotalSeconds: int64(len(titles)) * 600,
		TotalMinutes: float64(len(titles)) * 10,
		Books:        books,
	}
}

func TestMergeRefetchReplacesDay(t *testing.T) {
	existing := []DailyRecord{day("2025-06-01", "b1")}
	incoming := []DailyRecord{
		day("2025-06-01", "b1", "b2"),
		day("2025-06-02", "b3"),
	}

	merged := Merge(existing, incoming)
	require.Len(t, merged, 2)
	require.Equal(t, "2025-06-01", merged[0].Date)
	require.Len(t, merged[0].Books, 2)
	require.Equal(t, "2025-06-02", merged[1].Date)
	require.Len(t, merged[1].Books, 1)
}

func TestMergeKeepsRicherExistingDay(t *testing.T) {
	existing := []DailyRecord{day("2025-06-01", "b1", "b2", "b3")}
	incoming := []DailyRecord{day("2025-06-01", "b1")}

	merged := Merge(existing, incoming)
	require.Len(t, merged, 1)
	require.Len(t, merged[0].Books, 3)
}

func TestMergeEqualBookCountFavorsIncoming(t *testing.T) {
	existing := []DailyRecord{day("2025-06-01", "old title")}
	incoming := []DailyRecord{day("2025-06-01", "corrected title")}

	merged := Merge(existing, incoming)
	require.Len(t, merged, 1)
	require.Equal(t, "corrected title", merged[0].Books[0].Title)
}

func TestMergeIdempotent(t *testing.T) {
	a := []DailyRecord{day("2025-05-30", "b1"), day("2025-06-01", "b2")}
	b := []DailyRecord{day("2025-06-01", "b2", "b3"), day("2025-06-04", "b4")}

	once := Merge(a, b)
	twice := Merge(once, b)
	diff := cmp.Diff(once, twice)
	require.Empty(t, diff)
}

func TestMergeOrderIndependentForDisjointDates(t *testing.T) {
	a := []DailyRecord{day("2025-05-01", "b1")}
	b := []DailyRecord{day("2025-05-02", "b2"), day("2025-05-03", "b3")}
	c := []DailyRecord{day("2025-05-04", "b4")}

	bFirst := Merge(Merge(a, b), c)
	cFirst := Merge(Merge(a, c), b)
	diff := cmp.Diff(bFirst, cFirst)
	require.Empty(t, diff)
}

func TestMergeOutputUniqueAndSorted(t *testing.T) {
	existing := []DailyRecord{
		day("2025-06-03", "b1"),
		day("2025-06-01", "b2"),
	}
	incoming := []DailyRecord{
		day("2025-06-02", "b3"),
		day("2025-06-01", "b4", "b5"),
		day("2025-06-02", "b6"),
	}

	merged := Merge(existing, incoming)
	seen := map[string]bool{}
	for i, r := range merged {
		require.False(t, seen[r.Date], "duplicate date %s", r.Date)
		seen[r.Date] = true
		if i > 0 {
			require.Less(t, merged[i-1].Date, r.Date)
		}
	}
	require.Len(t, merged, 3)
}

func TestMergeEmpty(t *testing.T) {
	merged := Merge(nil, nil)
	require.Empty(t, merged)
}
