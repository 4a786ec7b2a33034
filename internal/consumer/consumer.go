// Package consumer is the pub/sub transport shell: it adapts a Kafka
// consumer group onto the worker.PubSubMessage envelope, so the Upload
// Event Worker never needs to know its messages actually arrived over
// Kafka. This carries no core design weight; it exists to make the
// repository buildable end to end.
package consumer

import (
	"context"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/your-org/channelflow/internal/worker"
)

// deliveryAttemptHeader is the Kafka header the producer/redelivery
// path increments each time a message is re-published after a nack.
const deliveryAttemptHeader = "delivery-attempt"

// Config configures the Kafka reader backing the consumer loop.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Loop polls Kafka and drives worker.HandleMessage for each fetched
// message, committing on ack and sleeping retryInSeconds without
// committing on nack so the consumer group redelivers the message.
type Loop struct {
	reader *kafkago.Reader
	worker *worker.Worker
	log    *zap.Logger
}

// New constructs a Loop over a Kafka consumer group reader.
func New(cfg Config, w *worker.Worker, log *zap.Logger) *Loop {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.Brokers,
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
	return &Loop{reader: reader, worker: w, log: log}
}

// Run polls until ctx is canceled or the reader is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		msg, err := l.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, kafkago.ErrGroupClosed) {
				return nil
			}
			l.log.Error("fetch message failed", zap.Error(err))
			continue
		}

		result := l.worker.HandleMessage(ctx, toPubSubMessage(msg))

		switch result.Action {
		case worker.ActionAck:
			if err := l.reader.CommitMessages(ctx, msg); err != nil {
				l.log.Error("commit message failed", zap.Error(err))
			}
		case worker.ActionNack:
			l.log.Warn("nack received, deferring commit",
				zap.Int("retryInSeconds", result.RetryInSeconds),
				zap.String("topic", msg.Topic),
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
			)
			if result.RetryInSeconds > 0 {
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Duration(result.RetryInSeconds) * time.Second):
				}
			}
		}
	}
}

// Close tears down the underlying Kafka reader.
func (l *Loop) Close() error {
	return l.reader.Close()
}

// toPubSubMessage wraps a fetched Kafka message into the envelope the
// worker expects. Kafka message values are already raw bytes, not
// base64 text, so the shell base64-re-encodes the value to satisfy the
// contract's described wire shape exactly as a real Pub/Sub push would
// deliver it.
func toPubSubMessage(msg kafkago.Message) worker.PubSubMessage {
	data := base64.StdEncoding.EncodeToString(msg.Value)

	pubsubMsg := worker.PubSubMessage{
		Data:        data,
		MessageID:   strconv.Itoa(msg.Partition) + "-" + strconv.FormatInt(msg.Offset, 10),
		PublishTime: msg.Time.UTC().Format(time.RFC3339),
	}

	for _, h := range msg.Headers {
		if h.Key == deliveryAttemptHeader {
			if attempt, err := strconv.Atoi(string(h.Value)); err == nil {
				pubsubMsg.DeliveryAttempt = &attempt
			}
		}
	}

	return pubsubMsg
}
