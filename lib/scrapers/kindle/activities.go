package kindle

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"

	"kindlestats/lib/activity"
	"kindlestats/lib/timezone"
)

// FetchWindow queries one child's activity for a single [start, end)
// window, aggregated per calendar day in the household zone. The
// response body stays opaque here, recognizing and walking it is the
// extraction layer's job.
func (c *Client) FetchWindow(ctx context.Context, childID string, start, end time.Time) (activity.RawResponse, error) {
	ctx, span := tracer.Start(ctx, "client:FetchWindow")
	defer span.End()

	if c.csrf == "" {
		return activity.RawResponse{}, fmt.Errorf("not signed in: missing csrf token")
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json;charset=UTF-8").
		SetHeader("accept", "application/json").
		SetHeader("x-amzn-csrf", c.csrf).
		SetBody(map[string]any{
			"childDirectedId":     childID,
			"startTime":           start.Unix(),
			"endTime":             end.Unix(),
			"aggregationInterval": 86400,
			"timeZone":            timezone.Location.String(),
		}).
		Post(activitiesPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to query activities")
		return activity.RawResponse{}, err
	}

	return activity.RawResponse{
		URL:    c.absUrl(activitiesPath),
		Status: res.StatusCode(),
		Body:   rawJsonBody(res.Body()),
		Query: &activity.WindowQuery{
			ChildDirectedId: childID,
			StartTime:       start.Unix(),
			EndTime:         end.Unix(),
		},
	}, nil
}
