// Package strava implements the discovery and detail collaborators
// over the Strava v3 REST API.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/pacelab/segscout/internal/geo"
	"github.com/pacelab/segscout/internal/segment"
)

// Client talks to the segment explore and detail endpoints. It
// implements segment.Explorer and segment.DetailFetcher.
type Client struct {
	baseURL string
	token   string
	httpc   *http.Client
	logger  *zap.Logger
}

// NewClient builds a Client with a bounded-timeout HTTP client.
func NewClient(baseURL, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type exploreResponse struct {
	Segments []struct {
		ID int64 `json:"id"`
	} `json:"segments"`
}

// Explore returns up to one page of candidate segments inside the
// bound, filtered by activity type.
func (c *Client) Explore(ctx context.Context, bound geo.Bound, activity string) ([]segment.Candidate, error) {
	query := url.Values{}
	query.Set("bounds", fmt.Sprintf("%g,%g,%g,%g", bound.SW.Lat, bound.SW.Lng, bound.NE.Lat, bound.NE.Lng))
	query.Set("activity_type", activity)

	var resp exploreResponse
	if err := c.getJSON(ctx, "/segments/explore?"+query.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("explore segments: %w", err)
	}

	candidates := make([]segment.Candidate, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		candidates = append(candidates, segment.Candidate{ID: s.ID})
	}
	return candidates, nil
}

// detailResponse uses pointers so a missing base field is detectable:
// an incomplete detail payload is a fetch failure, not a partial record.
type detailResponse struct {
	ID          *int64    `json:"id"`
	Name        *string   `json:"name"`
	Distance    *float64  `json:"distance"`
	AvgGrade    *float64  `json:"average_grade"`
	TotalClimb  *float64  `json:"total_elevation_gain"`
	EffortCount *int      `json:"effort_count"`
	StartLatLng []float64 `json:"start_latlng"`
	EndLatLng   []float64 `json:"end_latlng"`
}

// Detail fetches the full base fields for one segment id.
func (c *Client) Detail(ctx context.Context, id int64) (segment.Record, error) {
	var resp detailResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/segments/%d", id), &resp); err != nil {
		return segment.Record{}, fmt.Errorf("segment detail %d: %w", id, err)
	}

	if resp.ID == nil || resp.Name == nil || resp.Distance == nil || resp.AvgGrade == nil ||
		resp.TotalClimb == nil || resp.EffortCount == nil ||
		len(resp.StartLatLng) != 2 || len(resp.EndLatLng) != 2 {
		return segment.Record{}, fmt.Errorf("segment detail %d: incomplete payload", id)
	}

	return segment.Record{
		ID:          *resp.ID,
		Name:        *resp.Name,
		DistanceM:   *resp.Distance,
		AvgGrade:    *resp.AvgGrade,
		TotalClimbM: *resp.TotalClimb,
		EffortCount: *resp.EffortCount,
		StartPoint:  geo.LatLng{Lat: resp.StartLatLng[0], Lng: resp.StartLatLng[1]},
		EndPoint:    geo.LatLng{Lat: resp.EndLatLng[0], Lng: resp.EndLatLng[1]},
	}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
