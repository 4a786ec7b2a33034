package reconcile_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/channelflow/internal/provisioning"
	"github.com/your-org/channelflow/internal/reconcile"
	"github.com/your-org/channelflow/internal/store"
)

type fakeEngine struct {
	err error
}

func (f *fakeEngine) CreateChannel(_ context.Context, req provisioning.ChannelProvisioningRequest) (provisioning.ChannelProvisioningResult, error) {
	if f.err != nil {
		return provisioning.ChannelProvisioningResult{}, f.err
	}
	return provisioning.ChannelProvisioningResult{ChannelID: "chan-" + req.ContentID, OriginEndpoint: "origin-" + req.ContentID}, nil
}
func (f *fakeEngine) DeleteChannel(context.Context, string) error   { return nil }
func (f *fakeEngine) RotateIngestKey(context.Context, string) error { return nil }

type fakeAlerts struct {
	failures []string
}

func (f *fakeAlerts) IngestFailure(_ context.Context, contentID string, _ error) {
	f.failures = append(f.failures, contentID)
}

func TestReconcileFailed_ReplaysFailedRecords(t *testing.T) {
	repo := store.NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, provisioning.ChannelMetadata{
		ContentID:         "c1",
		ChannelID:         provisioning.PendingChannelID,
		OriginEndpoint:    provisioning.PendingOriginEndpoint,
		Classification:    provisioning.ClassificationSeries,
		Checksum:          "s1",
		Status:            provisioning.StatusFailed,
		Retries:           2,
		SourceAssetURI:    "gs://b/a",
		LastProvisionedAt: time.Now().UTC(),
	}))

	eng := &fakeEngine{}
	p, err := provisioning.NewProvisioner(repo, eng, zap.NewNop(), provisioning.Config{
		MaxProvisionRetry: 0,
		CdnBaseURL:        "https://cdn.example.com/",
		Ladders: provisioning.LadderConfig{
			ReelsPreset:  "low|640x360|400",
			SeriesPreset: "low|640x360|600",
		},
	})
	require.NoError(t, err)

	alerts := &fakeAlerts{}
	loop := reconcile.New(repo, p, alerts, zap.NewNop(), reconcile.Config{
		DefaultLimit:           20,
		DefaultTenantID:        "fallback-tenant",
		DefaultDurationSeconds: 1,
		DefaultIngestRegion:    "us-east-1",
	})

	require.NoError(t, loop.ReconcileFailed(ctx, 10))

	stored, err := repo.FindByContentID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, provisioning.StatusReady, stored.Status)
	assert.Equal(t, 3, stored.Retries)
	assert.Empty(t, alerts.failures)
}

func TestReconcileFailed_OneFailureDoesNotAbortSweep(t *testing.T) {
	repo := store.NewMemoryRepository()
	ctx := context.Background()

	for _, id := range []string{"c1", "c2"} {
		require.NoError(t, repo.Upsert(ctx, provisioning.ChannelMetadata{
			ContentID:         id,
			ChannelID:         provisioning.PendingChannelID,
			OriginEndpoint:    provisioning.PendingOriginEndpoint,
			Classification:    provisioning.ClassificationReel,
			Checksum:          "s1",
			Status:            provisioning.StatusFailed,
			LastProvisionedAt: time.Now().UTC(),
		}))
	}

	eng := &fakeEngine{err: errors.New("engine down")}
	p, err := provisioning.NewProvisioner(repo, eng, zap.NewNop(), provisioning.Config{
		MaxProvisionRetry: 0,
		CdnBaseURL:        "https://cdn.example.com/",
		Ladders: provisioning.LadderConfig{
			ReelsPreset:  "low|640x360|400",
			SeriesPreset: "low|640x360|600",
		},
	})
	require.NoError(t, err)

	alerts := &fakeAlerts{}
	loop := reconcile.New(repo, p, alerts, zap.NewNop(), reconcile.Config{DefaultLimit: 20})

	require.NoError(t, loop.ReconcileFailed(ctx, 10))
	assert.Len(t, alerts.failures, 2, "both records should have been attempted and reported")
}

func TestReconcileFailed_DefaultsMissingFields(t *testing.T) {
	repo := store.NewMemoryRepository()
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, provisioning.ChannelMetadata{
		ContentID:         "c1",
		ChannelID:         provisioning.PendingChannelID,
		OriginEndpoint:    provisioning.PendingOriginEndpoint,
		Classification:    provisioning.ClassificationReel,
		Checksum:          "s1",
		Status:            provisioning.StatusFailed,
		LastProvisionedAt: time.Now().UTC(),
		// IngestRegion deliberately left empty
	}))

	eng := &fakeEngine{}
	p, err := provisioning.NewProvisioner(repo, eng, zap.NewNop(), provisioning.Config{
		MaxProvisionRetry: 0,
		CdnBaseURL:        "https://cdn.example.com/",
		Ladders: provisioning.LadderConfig{
			ReelsPreset:  "low|640x360|400",
			SeriesPreset: "low|640x360|600",
		},
	})
	require.NoError(t, err)

	loop := reconcile.New(repo, p, &fakeAlerts{}, zap.NewNop(), reconcile.Config{
		DefaultLimit:           20,
		DefaultTenantID:        "fallback-tenant",
		DefaultDurationSeconds: 7,
		DefaultIngestRegion:    "eu-west-1",
	})

	require.NoError(t, loop.ReconcileFailed(ctx, 10))

	stored, err := repo.FindByContentID(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, provisioning.StatusReady, stored.Status)
	assert.Equal(t, "eu-west-1", stored.IngestRegion)
}

func TestEncodeReplayMessage_RoundTrips(t *testing.T) {
	event := provisioning.UploadCompletedEvent{
		EventID:   "reconcile-c1",
		EventType: provisioning.EventType,
		Data:      provisioning.UploadPayload{ContentID: "c1", Checksum: "s1"},
	}

	encoded, err := reconcile.EncodeReplayMessage(event)
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)

	var decoded provisioning.UploadCompletedEvent
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, event.Data.ContentID, decoded.Data.ContentID)
	assert.Equal(t, event.Data.Checksum, decoded.Data.Checksum)
}
