// Package engine implements provisioning.EngineClient against the
// external media engine.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"

	"github.com/your-org/channelflow/internal/provisioning"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Config configures the gRPC transport to the media engine.
type Config struct {
	Addr           string
	Insecure       bool
	RequestTimeout time.Duration
}

// GRPCClient implements provisioning.EngineClient over a gRPC
// connection, completing the teacher stack's otherwise-unused gRPC
// dependency.
type GRPCClient struct {
	conn           *grpc.ClientConn
	requestTimeout time.Duration
}

// NewGRPCClient dials the media engine.
func NewGRPCClient(cfg Config) (*GRPCClient, error) {
	var creds []grpc.DialOption
	if cfg.Insecure {
		creds = append(creds, grpc.WithTransportCredentials(insecure.NewCredentials()))
	}

	conn, err := grpc.NewClient(cfg.Addr,
		append(creds,
			grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
			grpc.WithDefaultCallOptions(grpc.ForceCodec(jsonCodec{})),
		)...,
	)
	if err != nil {
		return nil, fmt.Errorf("dial media engine at %s: %w", cfg.Addr, err)
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &GRPCClient{conn: conn, requestTimeout: timeout}, nil
}

type createChannelRequest struct {
	ContentID      string                            `json:"contentId"`
	Classification provisioning.Classification       `json:"classification"`
	SourceURI      string                            `json:"sourceUri"`
	IngestPool     string                            `json:"ingestPool"`
	EgressPool     string                            `json:"egressPool"`
	AbrLadder      []provisioning.AbrVariant         `json:"abrLadder"`
	OutputBucket   string                            `json:"outputBucket"`
	ManifestPath   string                            `json:"manifestPath"`
	CacheKey       string                            `json:"cacheKey"`
	DRM            *provisioning.DRM                 `json:"drm,omitempty"`
	Availability   *provisioning.AvailabilityWindow  `json:"availabilityWindow,omitempty"`
	Geo            *provisioning.GeoRestrictions     `json:"geoRestrictions,omitempty"`
	Metadata       map[string]string                 `json:"metadata"`
}

type createChannelResponse struct {
	ChannelID       string `json:"channelId"`
	ManifestPath    string `json:"manifestPath"`
	OriginEndpoint  string `json:"originEndpoint"`
	PlaybackBaseURL string `json:"playbackBaseUrl"`
	ProfileHash     string `json:"profileHash"`
}

func (c *GRPCClient) CreateChannel(ctx context.Context, req provisioning.ChannelProvisioningRequest) (provisioning.ChannelProvisioningResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	wireReq := createChannelRequest{
		ContentID:      req.ContentID,
		Classification: req.Classification,
		SourceURI:      req.SourceURI,
		IngestPool:     req.IngestPool,
		EgressPool:     req.EgressPool,
		AbrLadder:      req.AbrLadder,
		OutputBucket:   req.OutputBucket,
		ManifestPath:   req.ManifestPath,
		CacheKey:       req.CacheKey,
		DRM:            req.DRM,
		Availability:   req.AvailabilityWindow,
		Geo:            req.GeoRestrictions,
		Metadata:       req.Metadata,
	}

	var wireResp createChannelResponse
	if err := c.conn.Invoke(ctx, "/mediaengine.v1.ChannelService/CreateChannel", wireReq, &wireResp); err != nil {
		return provisioning.ChannelProvisioningResult{}, fmt.Errorf("create channel rpc: %w", err)
	}

	return provisioning.ChannelProvisioningResult{
		ChannelID:       wireResp.ChannelID,
		ManifestPath:    wireResp.ManifestPath,
		OriginEndpoint:  wireResp.OriginEndpoint,
		PlaybackBaseURL: wireResp.PlaybackBaseURL,
		ProfileHash:     wireResp.ProfileHash,
	}, nil
}

func (c *GRPCClient) DeleteChannel(ctx context.Context, channelID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req := struct {
		ChannelID string `json:"channelId"`
	}{ChannelID: channelID}

	if err := c.conn.Invoke(ctx, "/mediaengine.v1.ChannelService/DeleteChannel", req, &struct{}{}); err != nil {
		return fmt.Errorf("delete channel rpc: %w", err)
	}
	return nil
}

func (c *GRPCClient) RotateIngestKey(ctx context.Context, channelID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req := struct {
		ChannelID string `json:"channelId"`
	}{ChannelID: channelID}

	if err := c.conn.Invoke(ctx, "/mediaengine.v1.ChannelService/RotateIngestKey", req, &struct{}{}); err != nil {
		return fmt.Errorf("rotate ingest key rpc: %w", err)
	}
	return nil
}

// Close tears down the gRPC connection.
func (c *GRPCClient) Close() error {
	return c.conn.Close()
}
