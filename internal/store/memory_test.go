package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/your-org/channelflow/internal/provisioning"
	"github.com/your-org/channelflow/internal/store"
)

func TestMemoryRepository_FindByContentID_NotFound(t *testing.T) {
	repo := store.NewMemoryRepository()
	record, err := repo.FindByContentID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestMemoryRepository_UpsertAndFind(t *testing.T) {
	repo := store.NewMemoryRepository()
	ctx := context.Background()

	record := provisioning.ChannelMetadata{ContentID: "c1", Status: provisioning.StatusProvisioning}
	require.NoError(t, repo.Upsert(ctx, record))

	got, err := repo.FindByContentID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, provisioning.StatusProvisioning, got.Status)

	record.Status = provisioning.StatusReady
	require.NoError(t, repo.Upsert(ctx, record))

	got, err = repo.FindByContentID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, provisioning.StatusReady, got.Status)
}

func TestMemoryRepository_ListFailed_OrderedByLastProvisionedAtAscending(t *testing.T) {
	repo := store.NewMemoryRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Upsert(ctx, provisioning.ChannelMetadata{ContentID: "newest", Status: provisioning.StatusFailed, LastProvisionedAt: now}))
	require.NoError(t, repo.Upsert(ctx, provisioning.ChannelMetadata{ContentID: "oldest", Status: provisioning.StatusFailed, LastProvisionedAt: now.Add(-time.Hour)}))
	require.NoError(t, repo.Upsert(ctx, provisioning.ChannelMetadata{ContentID: "ready", Status: provisioning.StatusReady, LastProvisionedAt: now}))

	failed, err := repo.ListFailed(ctx, 10)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Equal(t, "oldest", failed[0].ContentID)
	assert.Equal(t, "newest", failed[1].ContentID)
}

func TestMemoryRepository_ListFailed_RespectsLimit(t *testing.T) {
	repo := store.NewMemoryRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Upsert(ctx, provisioning.ChannelMetadata{
			ContentID:         string(rune('a' + i)),
			Status:            provisioning.StatusFailed,
			LastProvisionedAt: time.Now().UTC(),
		}))
	}

	failed, err := repo.ListFailed(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, failed, 2)
}

func TestMemoryRepository_Purge(t *testing.T) {
	repo := store.NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, provisioning.ChannelMetadata{ContentID: "c1", Status: provisioning.StatusReady}))
	require.NoError(t, repo.Purge(ctx, "c1"))

	got, err := repo.FindByContentID(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, got)
}
