package provisioning

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// LadderConfig groups the reel/series-specific routing and ABR choices
// the provisioner derives a request from.
type LadderConfig struct {
	ReelsPreset      string
	SeriesPreset     string
	ReelsIngestPool  string
	SeriesIngestPool string
	ReelsEgressPool  string
	SeriesEgressPool string
}

// Config is the closed set of options the Provisioner recognizes.
type Config struct {
	ManifestBucket    string
	MaxProvisionRetry int
	CdnBaseURL        string
	SigningKeyID      string
	DryRun            bool
	Ladders           LadderConfig
}

// Provisioner is the idempotency gate + state machine: it derives a
// provisioning request from an upload event, persists pre- and
// post-provisioning records, and drives the engine call under a
// bounded retry envelope.
type Provisioner struct {
	repo   Repository
	engine EngineClient
	log    *zap.Logger
	cfg    Config

	reelsLadder  []AbrVariant
	seriesLadder []AbrVariant
	retryPolicy  RetryPolicy
}

// NewProvisioner constructs a Provisioner, parsing the ABR presets
// once at startup. A parse failure is returned immediately rather than
// deferred to the first provisioning call.
func NewProvisioner(repo Repository, engine EngineClient, log *zap.Logger, cfg Config) (*Provisioner, error) {
	reels, err := ParseAbrPreset(cfg.Ladders.ReelsPreset)
	if err != nil {
		return nil, fmt.Errorf("parse reels preset: %w", err)
	}
	series, err := ParseAbrPreset(cfg.Ladders.SeriesPreset)
	if err != nil {
		return nil, fmt.Errorf("parse series preset: %w", err)
	}

	return &Provisioner{
		repo:         repo,
		engine:       engine,
		log:          log,
		cfg:          cfg,
		reelsLadder:  reels,
		seriesLadder: series,
		retryPolicy:  DefaultRetryPolicy(cfg.MaxProvisionRetry),
	}, nil
}

// ProvisionFromUpload is the sole Provisioner operation: it applies the
// idempotency gate, then drives the provisioning state machine,
// returning the terminal ChannelMetadata.
func (p *Provisioner) ProvisionFromUpload(ctx context.Context, event UploadCompletedEvent) (ChannelMetadata, error) {
	contentID := event.Data.ContentID

	existing, err := p.repo.FindByContentID(ctx, contentID)
	if err != nil {
		return ChannelMetadata{}, WrapKind(ErrKindStore, fmt.Errorf("find by content id: %w", err))
	}

	if existing != nil && existing.Status == StatusReady && existing.Checksum == event.Data.Checksum {
		p.log.Info("idempotent replay, skipping provisioning",
			zap.String("contentId", contentID),
			zap.String("checksum", event.Data.Checksum),
		)
		return *existing, nil
	}

	req, derived := p.derive(event)

	retries := 0
	if existing != nil {
		retries = existing.Retries + 1
	}

	channelID := PendingChannelID
	originEndpoint := PendingOriginEndpoint
	if existing != nil {
		channelID = existing.ChannelID
		originEndpoint = existing.OriginEndpoint
	}

	pre := ChannelMetadata{
		ContentID:          contentID,
		ChannelID:          channelID,
		Classification:     derived.Classification,
		ManifestPath:       derived.ManifestPath,
		PlaybackURL:        derived.PlaybackURL,
		OriginEndpoint:     originEndpoint,
		CacheKey:           derived.CacheKey,
		Checksum:           event.Data.Checksum,
		Status:             StatusProvisioning,
		Retries:            retries,
		SourceAssetURI:     event.Data.SourceURI,
		LastProvisionedAt:  now(),
		DRM:                event.Data.DRM,
		IngestRegion:       event.Data.IngestRegion,
		AvailabilityWindow: event.Data.AvailabilityWindow,
		GeoRestrictions:    event.Data.GeoRestrictions,
	}

	if err := p.repo.Upsert(ctx, pre); err != nil {
		return ChannelMetadata{}, WrapKind(ErrKindStore, fmt.Errorf("upsert provisioning record: %w", err))
	}

	result, err := withEngineRetry(ctx, p.log, p.retryPolicy, func(ctx context.Context) (ChannelProvisioningResult, error) {
		return p.engine.CreateChannel(ctx, req)
	})
	if err != nil {
		failed := pre
		failed.Status = StatusFailed
		failed.Retries = retries + 1
		failed.LastProvisionedAt = now()
		if upsertErr := p.repo.Upsert(ctx, failed); upsertErr != nil {
			p.log.Error("failed to persist failed record", zap.String("contentId", contentID), zap.Error(upsertErr))
		}
		return ChannelMetadata{}, WrapKind(ErrKindEngine, fmt.Errorf("create channel: %w", err))
	}

	final := pre
	final.ChannelID = result.ChannelID
	final.OriginEndpoint = result.OriginEndpoint
	final.Status = StatusReady
	final.LastProvisionedAt = now()
	if result.ManifestPath != "" {
		final.ManifestPath = result.ManifestPath
	}
	if result.PlaybackBaseURL != "" {
		resolved, err := ResolvePlaybackURL(result.PlaybackBaseURL, final.ManifestPath)
		if err != nil {
			p.log.Warn("failed to resolve engine-provided playback base url, keeping cdn-resolved url",
				zap.String("contentId", contentID), zap.Error(err))
		} else {
			final.PlaybackURL = resolved
		}
	}

	if err := p.repo.Upsert(ctx, final); err != nil {
		return ChannelMetadata{}, WrapKind(ErrKindStore, fmt.Errorf("upsert ready record: %w", err))
	}

	return final, nil
}

type derivedFields struct {
	Classification Classification
	ManifestPath   string
	PlaybackURL    string
	CacheKey       string
}

func (p *Provisioner) derive(event UploadCompletedEvent) (ChannelProvisioningRequest, derivedFields) {
	contentID := event.Data.ContentID
	classification := event.Data.ContentType

	ladder := p.reelsLadder
	ingestPool := p.cfg.Ladders.ReelsIngestPool
	egressPool := p.cfg.Ladders.ReelsEgressPool
	if classification == ClassificationSeries {
		ladder = p.seriesLadder
		ingestPool = p.cfg.Ladders.SeriesIngestPool
		egressPool = p.cfg.Ladders.SeriesEgressPool
	}

	manifestPath := ManifestPath(contentID)
	cacheKey := CacheKey(contentID, event.Data.Checksum)

	playbackURL, err := ResolvePlaybackURL(p.cfg.CdnBaseURL, manifestPath)
	if err != nil {
		p.log.Warn("failed to resolve playback url against cdn base, using manifest path verbatim",
			zap.String("contentId", contentID), zap.Error(err))
		playbackURL = manifestPath
	}

	metadata := map[string]string{
		"tenantId":        event.Data.TenantID,
		"checksum":        event.Data.Checksum,
		"ingestRegion":    event.Data.IngestRegion,
		"durationSeconds": strconv.FormatInt(event.Data.DurationSeconds, 10),
		"signingKeyId":    p.cfg.SigningKeyID,
		"dryRun":          strconv.FormatBool(p.cfg.DryRun),
	}

	req := ChannelProvisioningRequest{
		ContentID:          contentID,
		Classification:     classification,
		SourceURI:          event.Data.SourceURI,
		IngestPool:         ingestPool,
		EgressPool:         egressPool,
		AbrLadder:          ladder,
		OutputBucket:       p.cfg.ManifestBucket,
		ManifestPath:       manifestPath,
		CacheKey:           cacheKey,
		DRM:                event.Data.DRM,
		AvailabilityWindow: event.Data.AvailabilityWindow,
		GeoRestrictions:    event.Data.GeoRestrictions,
		Metadata:           metadata,
	}

	return req, derivedFields{
		Classification: classification,
		ManifestPath:   manifestPath,
		PlaybackURL:    playbackURL,
		CacheKey:       cacheKey,
	}
}

var now = func() time.Time { return time.Now().UTC() }
