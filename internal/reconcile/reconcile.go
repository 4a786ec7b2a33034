// Package reconcile implements the Reconciliation Loop: a periodic
// sweep that replays records stuck in the "failed" state back through
// the provisioner, invoked by an external scheduler.
package reconcile

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/channelflow/internal/provisioning"
)

// Config is the closed set of reconciliation options.
type Config struct {
	DefaultLimit           int
	DefaultTenantID        string
	DefaultDurationSeconds int64
	DefaultIngestRegion    string
}

// Loop drives reconcileFailed sweeps over the metadata repository.
type Loop struct {
	repo        provisioning.Repository
	provisioner *provisioning.Provisioner
	alerts      provisioning.AlertingSink
	log         *zap.Logger
	cfg         Config
}

// New constructs a Loop from its collaborators.
func New(repo provisioning.Repository, provisioner *provisioning.Provisioner, alerts provisioning.AlertingSink, log *zap.Logger, cfg Config) *Loop {
	return &Loop{repo: repo, provisioner: provisioner, alerts: alerts, log: log, cfg: cfg}
}

// ReconcileFailed scans up to limit failed records and replays each
// independently through the provisioner. A failure on one record is
// reported to the alerting sink and does not abort the sweep.
func (l *Loop) ReconcileFailed(ctx context.Context, limit int) error {
	if limit <= 0 {
		limit = l.cfg.DefaultLimit
	}
	if limit <= 0 {
		limit = 20
	}

	records, err := l.repo.ListFailed(ctx, limit)
	if err != nil {
		return fmt.Errorf("list failed records: %w", err)
	}

	l.log.Info("reconciliation sweep starting", zap.Int("candidates", len(records)))

	for _, record := range records {
		event := l.synthesizeEvent(record)
		if _, err := l.provisioner.ProvisionFromUpload(ctx, event); err != nil {
			l.log.Warn("reconciliation attempt failed",
				zap.String("contentId", record.ContentID),
				zap.Error(err),
			)
			l.alerts.IngestFailure(ctx, record.ContentID, err)
			continue
		}
		l.log.Info("reconciliation attempt succeeded", zap.String("contentId", record.ContentID))
	}

	return nil
}

// synthesizeEvent reconstructs an UploadCompletedEvent from a stored,
// failed record: tenantId and durationSeconds, which the record never
// captures, come from the configured defaults, and ingestRegion falls
// back to the configured default when the record's is empty.
func (l *Loop) synthesizeEvent(record provisioning.ChannelMetadata) provisioning.UploadCompletedEvent {
	tenantID := l.cfg.DefaultTenantID
	durationSeconds := l.cfg.DefaultDurationSeconds
	if durationSeconds <= 0 {
		durationSeconds = 1
	}
	ingestRegion := record.IngestRegion
	if ingestRegion == "" {
		ingestRegion = l.cfg.DefaultIngestRegion
	}

	return provisioning.UploadCompletedEvent{
		EventID:    "reconcile-" + record.ContentID,
		EventType:  provisioning.EventType,
		OccurredAt: time.Now().UTC(),
		Data: provisioning.UploadPayload{
			ContentID:          record.ContentID,
			TenantID:           tenantID,
			ContentType:        record.Classification,
			SourceURI:          record.SourceAssetURI,
			Checksum:           record.Checksum,
			DurationSeconds:    durationSeconds,
			IngestRegion:       ingestRegion,
			DRM:                record.DRM,
			AvailabilityWindow: record.AvailabilityWindow,
			GeoRestrictions:    record.GeoRestrictions,
		},
	}
}

// EncodeReplayMessage encodes event into the same base64 pub/sub wire
// format the Upload Event Worker decodes, for operators who want to
// replay a failed record by re-publishing to the upload-events topic
// rather than provisioning it synchronously through the admin façade.
func EncodeReplayMessage(event provisioning.UploadCompletedEvent) (string, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal replay event: %w", err)
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
