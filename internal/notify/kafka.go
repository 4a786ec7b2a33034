// Package notify implements provisioning.NotificationPublisher.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/your-org/channelflow/internal/provisioning"
	"github.com/your-org/channelflow/pkg/kafka"
)

// playbackReadyEvent is the playback-ready notification wire format.
type playbackReadyEvent struct {
	Metadata    provisioning.ChannelMetadata `json:"metadata"`
	ManifestURL string                       `json:"manifestUrl"`
	ExpiresAt   time.Time                    `json:"expiresAt"`
}

// KafkaPublisher adapts the teacher's kafka.Producer onto the
// playback-ready topic, publishing events keyed by contentId so the
// hash balancer routes all revisions of a content's notifications to
// the same partition.
type KafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher constructs a KafkaPublisher over an already-built
// producer pointed at the playback-ready topic.
func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// PublishPlaybackReady emits a playback-ready notification for metadata.
func (p *KafkaPublisher) PublishPlaybackReady(ctx context.Context, metadata provisioning.ChannelMetadata, manifestURL string, expiresAt time.Time) error {
	event := playbackReadyEvent{
		Metadata:    metadata,
		ManifestURL: manifestURL,
		ExpiresAt:   expiresAt,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal playback ready event: %w", err)
	}

	headers := map[string]string{
		"event_type": "playback.ready",
		"content_id": metadata.ContentID,
	}

	if err := p.producer.Publish(ctx, []byte(metadata.ContentID), payload, headers); err != nil {
		return fmt.Errorf("publish playback ready event: %w", err)
	}
	return nil
}

// Close releases the underlying producer.
func (p *KafkaPublisher) Close(ctx context.Context) error {
	return p.producer.Close(ctx)
}
