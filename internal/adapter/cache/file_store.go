package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashbook/internal/domain"
)

const (
	snapshotFile = "snapshot.json"
	archiveFile  = "archive.json"
)

// FileStore implements usecase.CacheStore on plain JSON files under a state
// directory. It is an optimization path: saves swallow errors and anything
// unreadable loads as absent, so a corrupt file degrades to a fresh ledger
// instead of an error.
type FileStore struct {
	mu     sync.Mutex
	dir    string
	logger zerolog.Logger
}

// snapshotEnvelope wraps the persisted snapshot with its write time.
type snapshotEnvelope struct {
	SavedAt  time.Time       `json:"savedAt"`
	Snapshot json.RawMessage `json:"snapshot"`
}

// NewFileStore creates the store, making the state directory if needed.
func NewFileStore(dir string, logger zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{
		dir:    dir,
		logger: logger.With().Str("component", "cache").Logger(),
	}, nil
}

// SaveSnapshot persists the snapshot under the fixed key, overwriting any
// prior value. Persistence errors are logged and swallowed.
func (s *FileStore) SaveSnapshot(snapshot *domain.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(snapshotEnvelope{
		SavedAt:  time.Now().UTC(),
		Snapshot: snapshot.Canonical(),
	})
	if err != nil {
		s.logger.Debug().Err(err).Msg("snapshot serialization failed")
		return
	}
	if err := s.writeAtomic(snapshotFile, payload); err != nil {
		s.logger.Debug().Err(err).Msg("snapshot save failed")
	}
}

// LoadSnapshot returns the last persisted snapshot, or absent if never
// written or unreadable.
func (s *FileStore) LoadSnapshot() (*domain.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := os.ReadFile(filepath.Join(s.dir, snapshotFile))
	if err != nil {
		return nil, false
	}

	var envelope snapshotEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.logger.Debug().Err(err).Msg("cached snapshot unreadable, treating as absent")
		return nil, false
	}
	return domain.DecodeSnapshot(envelope.Snapshot)
}

// AppendArchive prepends a day-end record and truncates the list to the cap.
func (s *FileStore) AppendArchive(record domain.ArchiveRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.readArchive()
	records = append([]domain.ArchiveRecord{record}, records...)
	if len(records) > domain.MaxArchiveRecords {
		records = records[:domain.MaxArchiveRecords]
	}

	payload, err := json.Marshal(records)
	if err != nil {
		s.logger.Debug().Err(err).Msg("archive serialization failed")
		return
	}
	if err := s.writeAtomic(archiveFile, payload); err != nil {
		s.logger.Debug().Err(err).Msg("archive save failed")
	}
}

// ListArchive returns the capped, newest-first archive list. An unreadable
// archive file reads as empty.
func (s *FileStore) ListArchive() []domain.ArchiveRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readArchive()
}

func (s *FileStore) readArchive() []domain.ArchiveRecord {
	payload, err := os.ReadFile(filepath.Join(s.dir, archiveFile))
	if err != nil {
		return []domain.ArchiveRecord{}
	}
	var records []domain.ArchiveRecord
	if err := json.Unmarshal(payload, &records); err != nil {
		s.logger.Debug().Err(err).Msg("archive unreadable, treating as empty")
		return []domain.ArchiveRecord{}
	}
	return records
}

// writeAtomic writes via a temp file and rename so a crash mid-write never
// leaves a torn file behind.
func (s *FileStore) writeAtomic(name string, payload []byte) error {
	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
