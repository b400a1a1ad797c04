package kindle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/codes"

	"kindlestats/lib/activity"
)

type householdBody struct {
	Members []householdMember `json:"members"`
}

type householdMember struct {
	DirectedId string `json:"directedId"`
	Role       string `json:"role"`
	FirstName  string `json:"firstName"`
}

// Children fetches the household roster and returns its child profiles
// as a directedId -> first name map. The raw response is recorded for
// the run's audit archive.
func (c *Client) Children(ctx context.Context) (map[string]string, error) {
	ctx, span := tracer.Start(ctx, "client:Children")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("accept", "application/json").
		Get(householdPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch household")
		return nil, err
	}

	c.captured = append(c.captured, activity.RawResponse{
		URL:    c.absUrl(householdPath),
		Status: res.StatusCode(),
		Body:   rawJsonBody(res.Body()),
	})

	if res.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("get-household returned status %d", res.StatusCode())
	}

	var body householdBody
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return nil, fmt.Errorf("unexpected get-household response: %w", err)
	}

	children := map[string]string{}
	for _, member := range body.Members {
		if member.Role != "CHILD" || member.DirectedId == "" {
			continue
		}
		name := member.FirstName
		if name == "" {
			name = "Unknown"
		}
		children[member.DirectedId] = name
	}
	return children, nil
}
