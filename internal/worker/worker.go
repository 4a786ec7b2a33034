// Package worker implements the Upload Event Worker: a pub/sub message
// consumer that decodes upload-completed events, delegates to the
// channel provisioner, and decides ack/nack with bounded-attempt
// poison-message handling.
package worker

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/channelflow/internal/provisioning"
)

// Config is the closed set of worker options.
type Config struct {
	AckDeadlineSeconds  int
	ManifestTTLSeconds  int
	MaxDeliveryAttempts int
}

// Worker is the message-decode, poison-policy, ack/nack boundary.
// Every error raised while handling a message funnels through a single
// catch here; the Worker alone decides ack vs nack.
type Worker struct {
	provisioner *provisioning.Provisioner
	notifier    provisioning.NotificationPublisher
	alerts      provisioning.AlertingSink
	log         *zap.Logger
	cfg         Config
}

// New constructs a Worker from its collaborators.
func New(provisioner *provisioning.Provisioner, notifier provisioning.NotificationPublisher, alerts provisioning.AlertingSink, log *zap.Logger, cfg Config) *Worker {
	return &Worker{
		provisioner: provisioner,
		notifier:    notifier,
		alerts:      alerts,
		log:         log,
		cfg:         cfg,
	}
}

// HandleMessage decodes, provisions, notifies, and returns the ack/nack
// verdict for a single delivered message.
func (w *Worker) HandleMessage(ctx context.Context, msg PubSubMessage) Result {
	attempt := 1
	if msg.DeliveryAttempt != nil {
		attempt = *msg.DeliveryAttempt
	}

	contentID, err := w.process(ctx, msg)
	if err == nil {
		return Result{Action: ActionAck}
	}

	if contentID == "" {
		contentID = "unknown"
	}
	w.alerts.IngestFailure(ctx, contentID, err)

	maxAttempts := w.cfg.MaxDeliveryAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}

	if attempt >= maxAttempts {
		w.log.Error("poison message dropped after exhausting delivery attempts",
			zap.String("messageId", msg.MessageID),
			zap.String("contentId", contentID),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts),
			zap.Error(err),
		)
		return Result{Action: ActionAck}
	}

	w.log.Warn("message processing failed, requesting redelivery",
		zap.String("messageId", msg.MessageID),
		zap.String("contentId", contentID),
		zap.Int("attempt", attempt),
		zap.Error(err),
	)
	return Result{Action: ActionNack, RetryInSeconds: w.cfg.AckDeadlineSeconds}
}

// process decodes the message, provisions the channel, and publishes
// the playback-ready notification, returning the best-known contentId
// alongside any error so the caller can attribute alerting even when
// decoding failed before a contentId was known.
func (w *Worker) process(ctx context.Context, msg PubSubMessage) (string, error) {
	event, err := decode(msg.Data)
	if err != nil {
		return "", provisioning.WrapKind(provisioning.ErrKindDecode, err)
	}
	contentID := event.Data.ContentID

	metadata, err := w.provisioner.ProvisionFromUpload(ctx, event)
	if err != nil {
		return contentID, err
	}

	expiresAt := time.Now().UTC().Add(time.Duration(w.cfg.ManifestTTLSeconds) * time.Second)
	if err := w.notifier.PublishPlaybackReady(ctx, metadata, metadata.PlaybackURL, expiresAt); err != nil {
		return contentID, provisioning.WrapKind(provisioning.ErrKindNotify, fmt.Errorf("publish playback ready: %w", err))
	}

	return contentID, nil
}

func decode(data string) (provisioning.UploadCompletedEvent, error) {
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return provisioning.UploadCompletedEvent{}, fmt.Errorf("decode base64 payload: %w", err)
	}

	var event provisioning.UploadCompletedEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return provisioning.UploadCompletedEvent{}, fmt.Errorf("unmarshal upload event: %w", err)
	}

	if event.EventType != provisioning.EventType {
		return provisioning.UploadCompletedEvent{}, fmt.Errorf("unsupported event type %q", event.EventType)
	}

	return event, nil
}
