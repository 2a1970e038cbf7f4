package store

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/pacelab/segscout/internal/geo"
	"github.com/pacelab/segscout/internal/segment"
)

// RegionStore is the persisted memo of which bounds have been
// exhaustively explored. Lookups lazily create a not-explored record
// for any bound they are asked about, so the store self-initializes
// for every region the crawler ever visits.
type RegionStore struct {
	path    string
	lock    *fileLock
	logger  *zap.Logger
	records []segment.RegionRecord
	index   map[string]int
}

// OpenRegions loads the region store at path, taking the advisory lock
// for the location. The file must already exist.
func OpenRegions(path string, logger *zap.Logger) (*RegionStore, error) {
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
	var records []segment.RegionRecord
	if err := json.Unmarshal(data, &records); err != nil {
		_ = lock.release()
		return nil, fmt.Errorf("%w: decode %s: %v", segment.ErrStoreUnavailable, path, err)
	}
	s := &RegionStore{
		path:    path,
		lock:    lock,
		logger:  logger,
		records: records,
		index:   make(map[string]int, len(records)),
	}
	for i, r := range records {
		s.index[r.Bound.Key()] = i
	}
	return s, nil
}

// IsExplored reports the explored flag for the bound, creating a
// not-explored record on first sight.
func (s *RegionStore) IsExplored(b geo.Bound) bool {
	return s.records[s.lookup(b)].Explored
}

// SetExplored sets the explored flag for the bound, creating the
// record first if needed.
func (s *RegionStore) SetExplored(b geo.Bound, explored bool) {
	s.logger.Info("set region explored",
		zap.Bool("explored", explored),
		zap.String("bound", b.String()),
	)
	s.records[s.lookup(b)].Explored = explored
}

func (s *RegionStore) lookup(b geo.Bound) int {
	key := b.Key()
	if i, ok := s.index[key]; ok {
		return i
	}
	s.records = append(s.records, segment.RegionRecord{Bound: b, Explored: false})
	i := len(s.records) - 1
	s.index[key] = i
	return i
}

// All returns a snapshot of every region record for display.
func (s *RegionStore) All() []segment.RegionRecord {
	out := make([]segment.RegionRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Save writes the full collection back to disk.
func (s *RegionStore) Save() error {
	data, err := json.MarshalIndent(s.records, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal regions: %w", err)
	}
	if err := writeAtomic(s.path, data); err != nil {
		return err
	}
	s.logger.Info("saved regions", zap.Int("count", len(s.records)), zap.String("path", s.path))
	return nil
}

// Close releases the advisory lock. The store must not be used after.
func (s *RegionStore) Close() error {
	return s.lock.release()
}
