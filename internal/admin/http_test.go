package admin_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/your-org/channelflow/internal/admin"
	"github.com/your-org/channelflow/internal/provisioning"
	"github.com/your-org/channelflow/internal/store"
)

type fakeEngine struct{}

func (fakeEngine) CreateChannel(_ context.Context, req provisioning.ChannelProvisioningRequest) (provisioning.ChannelProvisioningResult, error) {
	return provisioning.ChannelProvisioningResult{ChannelID: "chan-" + req.ContentID, OriginEndpoint: "origin"}, nil
}
func (fakeEngine) DeleteChannel(context.Context, string) error   { return nil }
func (fakeEngine) RotateIngestKey(context.Context, string) error { return nil }

func newTestHandler(t *testing.T) (*admin.Handler, *store.MemoryRepository) {
	t.Helper()
	repo := store.NewMemoryRepository()
	p, err := provisioning.NewProvisioner(repo, fakeEngine{}, zap.NewNop(), provisioning.Config{
		CdnBaseURL: "https://cdn.example.com/",
		Ladders: provisioning.LadderConfig{
			ReelsPreset:  "low|640x360|400",
			SeriesPreset: "low|640x360|600",
		},
	})
	require.NoError(t, err)
	return admin.New(repo, p, fakeEngine{}, zap.NewNop()), repo
}

func TestHandleHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleGet_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/missing/", nil)
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleRetire(t *testing.T) {
	h, repo := newTestHandler(t)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, provisioning.ChannelMetadata{ContentID: "c1", Status: provisioning.StatusReady}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/channels/c1/retire", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := repo.FindByContentID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, provisioning.StatusRetired, stored.Status)
}

func TestHandleReplayMessage(t *testing.T) {
	h, repo := newTestHandler(t)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, provisioning.ChannelMetadata{
		ContentID:      "c1",
		Status:         provisioning.StatusReady,
		Classification: provisioning.ClassificationReel,
		Checksum:       "s1",
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/c1/replay-message", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	raw, err := base64.StdEncoding.DecodeString(body["message"])
	require.NoError(t, err)

	var event provisioning.UploadCompletedEvent
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "c1", event.Data.ContentID)
	assert.Equal(t, provisioning.ClassificationReel, event.Data.ContentType)
}

func TestHandleReplayMessage_NotFound(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/channels/missing/replay-message", nil)
	rec := httptest.NewRecorder()

	h.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlePurge(t *testing.T) {
	h, repo := newTestHandler(t)
	ctx := context.Background()
	require.NoError(t, repo.Upsert(ctx, provisioning.ChannelMetadata{ContentID: "c1", Status: provisioning.StatusReady}))

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/channels/c1/", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := repo.FindByContentID(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, stored)
}
