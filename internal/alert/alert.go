// Package alert implements provisioning.AlertingSink.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/your-org/channelflow/internal/provisioning"
)

// ZapSink logs operational failures as structured zap.Error entries.
// It is the default, always-available sink: no ecosystem alerting SDK
// appears anywhere in the pack, so this one concern stands on zap
// rather than a vendor client (see DESIGN.md).
type ZapSink struct {
	log *zap.Logger
}

// NewZapSink constructs a ZapSink.
func NewZapSink(log *zap.Logger) *ZapSink {
	return &ZapSink{log: log}
}

func (s *ZapSink) IngestFailure(_ context.Context, contentID string, err error) {
	s.log.Error("provisioning failure",
		zap.String("contentId", contentID),
		zap.Error(err),
	)
}

// WebhookSink fires a JSON POST at a configured URL, fire-and-forget
// with a bounded timeout, for operators wiring a side channel into a
// Slack/PagerDuty-style incoming webhook without pulling in a vendor
// SDK the pack never imports.
type WebhookSink struct {
	url    string
	client *http.Client
	log    *zap.Logger
}

// NewWebhookSink constructs a WebhookSink posting to url with timeout.
func NewWebhookSink(url string, timeout time.Duration, log *zap.Logger) *WebhookSink {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: timeout},
		log:    log,
	}
}

type webhookPayload struct {
	ContentID string `json:"contentId"`
	Error     string `json:"error"`
}

func (s *WebhookSink) IngestFailure(ctx context.Context, contentID string, err error) {
	body, marshalErr := json.Marshal(webhookPayload{ContentID: contentID, Error: err.Error()})
	if marshalErr != nil {
		s.log.Warn("failed to marshal webhook alert payload", zap.Error(marshalErr))
		return
	}

	req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if reqErr != nil {
		s.log.Warn("failed to build webhook alert request", zap.Error(reqErr))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, doErr := s.client.Do(req)
	if doErr != nil {
		s.log.Warn("webhook alert delivery failed", zap.String("contentId", contentID), zap.Error(doErr))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.log.Warn("webhook alert rejected",
			zap.String("contentId", contentID),
			zap.Int("status", resp.StatusCode),
		)
	}
}

// MultiSink fans a failure out to every configured sink. A sink that
// panics or blocks is the caller's problem; MultiSink itself never
// promotes a sink failure into an error the provisioner or worker
// sees: alerting errors are logged and swallowed.
type MultiSink struct {
	sinks []provisioning.AlertingSink
}

// NewMultiSink constructs a MultiSink over the given sinks, skipping
// any nil entries so an optional webhook sink can be wired
// conditionally.
func NewMultiSink(sinks ...provisioning.AlertingSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *MultiSink) IngestFailure(ctx context.Context, contentID string, err error) {
	for _, sink := range m.sinks {
		sink.IngestFailure(ctx, contentID, err)
	}
}
