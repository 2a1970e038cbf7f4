package strava

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pacelab/segscout/internal/geo"
	"github.com/pacelab/segscout/internal/segment"
)

func TestExplore(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth string
	var gotQuery map[string][]string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"segments":[{"id":101},{"id":102}]}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "secret-token", time.Second, nil)
	bound := geo.Bound{SW: geo.LatLng{Lat: 51.7, Lng: -1.3}, NE: geo.LatLng{Lat: 51.8, Lng: -1.2}}

	candidates, err := c.Explore(context.Background(), bound, "running")
	require.NoError(t, err)

	assert.Equal(t, []segment.Candidate{{ID: 101}, {ID: 102}}, candidates)
	assert.Equal(t, "/segments/explore", gotPath)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, []string{"51.7,-1.3,51.8,-1.2"}, gotQuery["bounds"])
	assert.Equal(t, []string{"running"}, gotQuery["activity_type"])
}

func TestExploreNonOKStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", time.Second, nil)
	_, err := c.Explore(context.Background(), geo.Bound{NE: geo.LatLng{Lat: 1, Lng: 1}}, "running")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestDetail(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/segments/101", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 101,
			"name": "Hill Sprint",
			"distance": 1630.5,
			"average_grade": 4.2,
			"total_elevation_gain": 68.125,
			"effort_count": 321,
			"start_latlng": [51.75, -1.25],
			"end_latlng": [51.76, -1.24]
		}`))
	}))
	defer ts.Close()

	c := NewClient(ts.URL, "", time.Second, nil)
	rec, err := c.Detail(context.Background(), 101)
	require.NoError(t, err)

	assert.Equal(t, segment.Record{
		ID:          101,
		Name:        "Hill Sprint",
		DistanceM:   1630.5,
		AvgGrade:    4.2,
		TotalClimbM: 68.125,
		EffortCount: 321,
		StartPoint:  geo.LatLng{Lat: 51.75, Lng: -1.25},
		EndPoint:    geo.LatLng{Lat: 51.76, Lng: -1.24},
	}, rec)
}

func TestDetailIncompletePayload(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"missing name", `{"id":101,"distance":1630,"average_grade":4.2,"total_elevation_gain":68,"effort_count":321,"start_latlng":[51.75,-1.25],"end_latlng":[51.76,-1.24]}`},
		{"short latlng", `{"id":101,"name":"x","distance":1630,"average_grade":4.2,"total_elevation_gain":68,"effort_count":321,"start_latlng":[51.75],"end_latlng":[51.76,-1.24]}`},
		{"empty object", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer ts.Close()

			c := NewClient(ts.URL, "", time.Second, nil)
			_, err := c.Detail(context.Background(), 101)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "incomplete payload")
		})
	}
}
