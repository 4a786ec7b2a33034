package engine

import (
	"context"
	"crypto/sha1" //nolint:gosec // profile hash identity, not a security boundary
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/your-org/channelflow/internal/provisioning"
)

// DryRunClient is an in-memory provisioning.EngineClient used when the
// dryRun config flag is set, so the service can run end to end without
// a live media engine endpoint: the same switch-on-config technique
// as objectstore.New's provider selection. Channel IDs are generated
// the way a real engine would assign opaque identifiers: a random
// UUID, not a derivation of the request.
type DryRunClient struct {
	mu       sync.Mutex
	channels map[string]bool
}

// NewDryRunClient constructs an empty DryRunClient.
func NewDryRunClient() *DryRunClient {
	return &DryRunClient{channels: make(map[string]bool)}
}

func (c *DryRunClient) CreateChannel(_ context.Context, req provisioning.ChannelProvisioningRequest) (provisioning.ChannelProvisioningResult, error) {
	channelID := "dryrun-" + uuid.NewString()

	c.mu.Lock()
	c.channels[channelID] = true
	c.mu.Unlock()

	sum := sha1.Sum([]byte(req.CacheKey + req.ManifestPath)) //nolint:gosec
	return provisioning.ChannelProvisioningResult{
		ChannelID:      channelID,
		ManifestPath:   req.ManifestPath,
		OriginEndpoint: fmt.Sprintf("dryrun-origin-%s", req.IngestPool),
		ProfileHash:    hex.EncodeToString(sum[:]),
	}, nil
}

func (c *DryRunClient) DeleteChannel(_ context.Context, channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.channels, channelID)
	return nil
}

func (c *DryRunClient) RotateIngestKey(_ context.Context, channelID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.channels[channelID] {
		return fmt.Errorf("dry run engine: unknown channel %s", channelID)
	}
	return nil
}
