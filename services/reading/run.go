package reading

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"kindlestats/lib/activity"
	"kindlestats/lib/timezone"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/reading")

// Source is the external query collaborator. Anything that can list
// the tracked children and answer one (child, window) query at a time
// can drive a run: the live dashboard client, or a fixture replay in
// tests.
type Source interface {
	Children(ctx context.Context) (map[string]string, error)
	FetchWindow(ctx context.Context, childID string, start, end time.Time) (activity.RawResponse, error)
	Captured() []activity.RawResponse
}

type Options struct {
	// window width, defaults to one week
	Width time.Duration
	// pause between queries so the dashboard's informal rate limits
	// are respected, defaults to 300ms
	Delay time.Duration
	// where history begins when no usable dataset exists yet,
	// defaults to 2025-01-01 in the household zone
	Bootstrap time.Time
	// zone used for all date attribution, defaults to the household
	// zone
	Location *time.Location
	// clock override for tests
	Now func() time.Time
}

func (o *Options) setDefaults() {
	if o.Width == 0 {
		o.Width = 7 * 24 * time.Hour
	}
	if o.Delay == 0 {
		o.Delay = 300 * time.Millisecond
	}
	if o.Location == nil {
		o.Location = timezone.Location
	}
	if o.Bootstrap.IsZero() {
		o.Bootstrap = time.Date(2025, time.January, 1, 0, 0, 0, 0, o.Location)
	}
	if o.Now == nil {
		o.Now = timezone.Now
	}
}

// Summary is what a run reports back for display.
type Summary struct {
	FetchedDays int
	TotalDays   int
	NewDays     int
	FirstDate   string
	LastDate    string
	FetchPath   string
}

// Run performs one full fetch-and-merge cycle: figure out where the
// existing history ends, page through every window from there to now
// for each child, extract daily records from whatever came back, and
// merge them into the canonical dataset.
//
// Individual window failures are logged and skipped. The gap they
// leave heals on a later run, because the start date is recomputed
// from the persisted dataset's latest day each time. The dataset file
// is only rewritten after everything else has succeeded.
func Run(ctx context.Context, src Source, store Store, opts Options) (Summary, error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()

	opts.setDefaults()

	dataset, err := store.LoadDataset()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load dataset")
		return Summary{}, err
	}

	start := opts.Bootstrap
	if latest, ok := activity.LatestDate(dataset.ReadingActivity); ok {
		// re-fetch the latest captured day too, it may have been
		// incomplete when last seen
		start, err = time.ParseInLocation(activity.DateFormat, latest, opts.Location)
		if err != nil {
			return Summary{}, err
		}
		slog.InfoContext(ctx, "incremental fetch", "start_date", latest)
	} else {
		slog.InfoContext(ctx, "no usable reading history, starting from the bootstrap window",
			"start_date", start.Format(activity.DateFormat))
	}

	now := opts.Now()
	children, err := src.Children(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to discover children")
		return Summary{}, err
	}
	if len(children) == 0 {
		slog.WarnContext(ctx, "no child profiles found in household")
	}

	windows := activity.EnumerateWindows(start, now, opts.Width)
	responses := append([]activity.RawResponse{}, src.Captured()...)

	childIds := make([]string, 0, len(children))
	for id := range children {
		childIds = append(childIds, id)
	}
	slices.Sort(childIds)

	for _, childID := range childIds {
		slog.InfoContext(ctx, "fetching history",
			"child", children[childID],
			"windows", len(windows),
		)
		for i, w := range windows {
			raw, err := src.FetchWindow(ctx, childID, w.Start, w.End)
			switch {
			case err != nil:
				slog.WarnContext(ctx, "window query failed",
					"child", children[childID],
					"window_start", w.Start.Format(activity.DateFormat),
					"err", err,
				)
			case raw.Status != http.StatusOK:
				slog.WarnContext(ctx, "window query returned non-ok status",
					"child", children[childID],
					"window_start", w.Start.Format(activity.DateFormat),
					"status", raw.Status,
				)
			default:
				slog.DebugContext(ctx, "window fetched",
					"child", children[childID],
					"window", i+1,
					"of", len(windows),
				)
				responses = append(responses, raw)
			}

			select {
			case <-ctx.Done():
				return Summary{}, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}

	incoming := activity.ExtractDailyRecords(responses, opts.Location)
	slog.InfoContext(ctx, "extracted daily records", "days", len(incoming))

	fetchPath, err := store.SaveFetch(activity.FetchResult{
		FetchedAt:       now.UTC().Format(time.RFC3339),
		ReadingActivity: incoming,
		RawResponses:    responses,
	}, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to archive fetch")
		return Summary{}, err
	}

	merged := activity.Merge(dataset.ReadingActivity, incoming)
	summary := Summary{
		FetchedDays: len(incoming),
		TotalDays:   len(merged),
		NewDays:     len(merged) - len(dataset.ReadingActivity),
		FetchPath:   fetchPath,
	}
	if len(merged) > 0 {
		summary.FirstDate = merged[0].Date
		summary.LastDate = merged[len(merged)-1].Date
	}

	dataset.ReadingActivity = merged
	dataset.LastUpdated = now.Format(time.RFC3339)
	if err := store.SaveDataset(dataset); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save dataset")
		return Summary{}, err
	}

	return summary, nil
}
