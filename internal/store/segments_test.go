package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pacelab/segscout/internal/geo"
	"github.com/pacelab/segscout/internal/segment"
)

// fakeDetails serves full base-field records and counts calls per id.
type fakeDetails struct {
	calls   map[int64]int
	failing map[int64]bool
}

func newFakeDetails(failing ...int64) *fakeDetails {
	f := &fakeDetails{calls: map[int64]int{}, failing: map[int64]bool{}}
	for _, id := range failing {
		f.failing[id] = true
	}
	return f
}

func (f *fakeDetails) Detail(_ context.Context, id int64) (segment.Record, error) {
	f.calls[id]++
	if f.failing[id] {
		return segment.Record{}, fmt.Errorf("detail %d: boom", id)
	}
	return segment.Record{
		ID:          id,
		Name:        fmt.Sprintf("Segment %d", id),
		DistanceM:   1000,
		AvgGrade:    1,
		TotalClimbM: 10,
		EffortCount: 5,
		StartPoint:  geo.LatLng{Lat: 0, Lng: 0},
		EndPoint:    geo.LatLng{Lat: 1, Lng: 0},
	}, nil
}

func candidates(ids ...int64) []segment.Candidate {
	out := make([]segment.Candidate, len(ids))
	for i, id := range ids {
		out[i] = segment.Candidate{ID: id}
	}
	return out
}

func openTestSegments(t *testing.T) *SegmentStore {
	t.Helper()
	s, err := OpenSegments(emptyStoreFile(t, "segments.json"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })
	return s
}

func TestUpsertNewIsIdempotent(t *testing.T) {
	t.Parallel()

	s := openTestSegments(t)
	details := newFakeDetails()

	added, failures := s.UpsertNew(context.Background(), candidates(1, 2, 2, 3), details)
	require.Empty(t, failures)
	require.Equal(t, 3, added)
	require.Equal(t, 3, s.Len())

	// A second pass over the same ids neither adds records nor fetches
	// details again.
	added, failures = s.UpsertNew(context.Background(), candidates(1, 2, 3), details)
	require.Empty(t, failures)
	require.Zero(t, added)
	require.Equal(t, 3, s.Len())
	for id, n := range details.calls {
		require.Equal(t, 1, n, "id %d fetched more than once", id)
	}
}

func TestUpsertNewSkipsExistingWithoutFetch(t *testing.T) {
	t.Parallel()

	s := openTestSegments(t)
	details := newFakeDetails()

	_, _ = s.UpsertNew(context.Background(), candidates(7), details)
	require.Equal(t, 1, details.calls[7])

	_, _ = s.UpsertNew(context.Background(), candidates(7, 8), details)
	require.Equal(t, 1, details.calls[7])
	require.Equal(t, 1, details.calls[8])
}

func TestUpsertNewContinuesPastFailures(t *testing.T) {
	t.Parallel()

	s := openTestSegments(t)
	details := newFakeDetails(2)

	added, failures := s.UpsertNew(context.Background(), candidates(1, 2, 3), details)
	require.Equal(t, 2, added)
	require.Len(t, failures, 1)
	require.Equal(t, int64(2), failures[0].ID)
	require.Error(t, failures[0].Err)

	require.True(t, s.Exists(1))
	require.False(t, s.Exists(2))
	require.True(t, s.Exists(3))
}

func TestFindAndExists(t *testing.T) {
	t.Parallel()

	s := openTestSegments(t)
	_, _ = s.UpsertNew(context.Background(), candidates(42), newFakeDetails())

	rec, ok := s.Find(42)
	require.True(t, ok)
	require.Equal(t, int64(42), rec.ID)
	require.Equal(t, "Segment 42", rec.Name)

	_, ok = s.Find(43)
	require.False(t, ok)
	require.False(t, s.Exists(43))
}

func TestPendingEnrichmentAndApply(t *testing.T) {
	t.Parallel()

	s := openTestSegments(t)
	_, _ = s.UpsertNew(context.Background(), candidates(1, 2), newFakeDetails())

	require.Len(t, s.PendingEnrichment(), 2)

	require.NoError(t, s.ApplyEnrichment(1, "E. Keita", "4:05"))
	pending := s.PendingEnrichment()
	require.Len(t, pending, 1)
	require.Equal(t, int64(2), pending[0].ID)

	rec, ok := s.Find(1)
	require.True(t, ok)
	require.Equal(t, "E. Keita", rec.EnrichmentName)
	require.Equal(t, "4:05", rec.EnrichmentTime)
}

func TestApplyEnrichmentMissingID(t *testing.T) {
	t.Parallel()

	s := openTestSegments(t)
	err := s.ApplyEnrichment(99, "nobody", "1:00")
	require.ErrorIs(t, err, segment.ErrNotFound)
}

func TestSegmentsSaveRoundTrip(t *testing.T) {
	t.Parallel()

	path := emptyStoreFile(t, "segments.json")
	s, err := OpenSegments(path, nil)
	require.NoError(t, err)

	_, _ = s.UpsertNew(context.Background(), candidates(1, 2), newFakeDetails())
	require.NoError(t, s.ApplyEnrichment(1, "E. Keita", "4:05"))
	require.NoError(t, s.Save())
	require.NoError(t, s.Close())

	reloaded, err := OpenSegments(path, nil)
	require.NoError(t, err)
	defer func() { require.NoError(t, reloaded.Close()) }()

	require.Equal(t, 2, reloaded.Len())
	rec, ok := reloaded.Find(1)
	require.True(t, ok)
	require.Equal(t, "E. Keita", rec.EnrichmentName)
	require.Equal(t, "4:05", rec.EnrichmentTime)
	require.Equal(t, 1000.0, rec.DistanceM)
}
