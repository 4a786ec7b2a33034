package store

import (
	"context"
	"sort"
	"sync"

	"github.com/your-org/channelflow/internal/provisioning"
)

// MemoryRepository is an in-process implementation of
// provisioning.Repository, used by the unit tests; cmd/channelflow
// always wires the object-store repository.
type MemoryRepository struct {
	mu      sync.Mutex
	records map[string]provisioning.ChannelMetadata
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string]provisioning.ChannelMetadata)}
}

func (m *MemoryRepository) FindByContentID(_ context.Context, contentID string) (*provisioning.ChannelMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[contentID]
	if !ok {
		return nil, nil
	}
	copied := record
	return &copied, nil
}

func (m *MemoryRepository) Upsert(_ context.Context, record provisioning.ChannelMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[record.ContentID] = record
	return nil
}

func (m *MemoryRepository) ListFailed(_ context.Context, limit int) ([]provisioning.ChannelMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var failed []provisioning.ChannelMetadata
	for _, record := range m.records {
		if record.Status == provisioning.StatusFailed {
			failed = append(failed, record)
		}
	}

	sort.Slice(failed, func(i, j int) bool {
		return failed[i].LastProvisionedAt.Before(failed[j].LastProvisionedAt)
	})

	if limit > 0 && len(failed) > limit {
		failed = failed[:limit]
	}
	return failed, nil
}

// Purge implements admin.Purger: it is the one place a record is
// actually removed, reserved for the admin façade.
func (m *MemoryRepository) Purge(_ context.Context, contentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.records, contentID)
	return nil
}
