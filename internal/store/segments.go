package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/pacelab/segscout/internal/segment"
)

// SegmentStore is the persisted collection of discovered segments,
// keyed by external id. Records are immutable once their base fields
// are set; only the enrichment fields are ever added.
type SegmentStore struct {
	path    string
	lock    *fileLock
	logger  *zap.Logger
	records []segment.Record
	index   map[int64]int
}

// IDFailure reports a per-id fetch failure from an ingestion batch.
type IDFailure struct {
	ID  int64
	Err error
}

// OpenSegments loads the segment store at path, taking the advisory
// lock for the location. The file must already exist.
func OpenSegments(path string, logger *zap.Logger) (*SegmentStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lock, err := acquireLock(path)
	if err != nil {
		return nil, err
	}
	data, err := readStoreFile(path)
	if err != nil {
		_ = lock.release()
		return nil, err
	}
	var records []segment.Record
	if err := json.Unmarshal(data, &records); err != nil {
		_ = lock.release()
		return nil, fmt.Errorf("%w: decode %s: %v", segment.ErrStoreUnavailable, path, err)
	}
	s := &SegmentStore{
		path:    path,
		lock:    lock,
		logger:  logger,
		records: records,
		index:   make(map[int64]int, len(records)),
	}
	for i, r := range records {
		s.index[r.ID] = i
	}
	return s, nil
}

// Find returns the record for id, if present.
func (s *SegmentStore) Find(id int64) (segment.Record, bool) {
	i, ok := s.index[id]
	if !ok {
		return segment.Record{}, false
	}
	return s.records[i], true
}

// Exists reports whether a record for id is already stored.
func (s *SegmentStore) Exists(id int64) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of stored records.
func (s *SegmentStore) Len() int {
	return len(s.records)
}

// All returns a snapshot of every record.
func (s *SegmentStore) All() []segment.Record {
	out := make([]segment.Record, len(s.records))
	copy(out, s.records)
	return out
}

// UpsertNew fetches details for every candidate id not already stored
// and appends the results. Ids already present are skipped without a
// detail call; a failed fetch for one id is reported in the returned
// failure list while the rest of the batch continues.
func (s *SegmentStore) UpsertNew(
	ctx context.Context,
	candidates []segment.Candidate,
	fetch segment.DetailFetcher,
) (int, []IDFailure) {
	added := 0
	var failures []IDFailure
	for _, c := range candidates {
		if s.Exists(c.ID) {
			continue
		}
		rec, err := fetch.Detail(ctx, c.ID)
		if err != nil {
			s.logger.Warn("segment detail fetch failed",
				zap.Int64("segment_id", c.ID),
				zap.Error(err),
			)
			failures = append(failures, IDFailure{ID: c.ID, Err: err})
			continue
		}
		// A batch may carry the same id twice.
		if s.Exists(rec.ID) {
			continue
		}
		s.records = append(s.records, rec)
		s.index[rec.ID] = len(s.records) - 1
		added++
	}
	return added, failures
}

// PendingEnrichment returns every record still missing an enrichment
// field.
func (s *SegmentStore) PendingEnrichment() []segment.Record {
	var out []segment.Record
	for _, r := range s.records {
		if !r.Enriched() {
			out = append(out, r)
		}
	}
	return out
}

// ApplyEnrichment sets both enrichment fields on the record for id.
func (s *SegmentStore) ApplyEnrichment(id int64, name, effortTime string) error {
	i, ok := s.index[id]
	if !ok {
		return fmt.Errorf("%w: id %d", segment.ErrNotFound, id)
	}
	s.records[i].EnrichmentName = name
	s.records[i].EnrichmentTime = effortTime
	return nil
}

// Save writes the full collection back to disk.
func (s *SegmentStore) Save() error {
	data, err := json.MarshalIndent(s.records, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal segments: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return err
	}
	s.logger.Info("saved segments", zap.Int("count", len(s.records)), zap.String("path", s.path))
	return nil
}

// Close releases the advisory lock. The store must not be used after.
func (s *SegmentStore) Close() error {
	return s.lock.release()
}
