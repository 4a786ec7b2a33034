package provisioning

import (
	"context"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy is a bounded exponential backoff envelope for the engine
// call in the provisioning state machine. Delays are strictly
// non-decreasing before jitter and capped by MaxDelay; the total delay
// across MaxRetries attempts is therefore bounded.
type RetryPolicy struct {
	MaxRetries   int
	BaseDelay    time.Duration
	Multiplier   float64
	MaxDelay     time.Duration
	JitterFactor float64
}

// DefaultRetryPolicy returns the envelope used when maxProvisionRetries
// is the only configured knob. Base delay and multiplier are an
// implementation choice (the source spec left them open): 200ms base,
// doubling, capped at 10s, with +/-20% jitter so concurrent retries
// across many contentIds don't synchronize against the engine.
func DefaultRetryPolicy(maxRetries int) RetryPolicy {
	return RetryPolicy{
		MaxRetries:   maxRetries,
		BaseDelay:    200 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     10 * time.Second,
		JitterFactor: 0.2,
	}
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}
	d := float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1))
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.JitterFactor > 0 {
		jitter := d * p.JitterFactor * (rand.Float64()*2 - 1) //nolint:gosec
		d += jitter
		if d < 0 {
			d = 0
		}
	}
	return time.Duration(d)
}

// withEngineRetry runs fn under the bounded-retry envelope, logging
// each retry with its attempt index and error. It only governs the
// single engine call passed in; repository upserts around it are not
// retried here.
func withEngineRetry(ctx context.Context, log *zap.Logger, policy RetryPolicy, fn func(ctx context.Context) (ChannelProvisioningResult, error)) (ChannelProvisioningResult, error) {
	var lastErr error

	for attempt := 0; attempt <= policy.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ChannelProvisioningResult{}, ctx.Err()
		default:
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt >= policy.MaxRetries {
			break
		}

		d := policy.delay(attempt + 1)
		log.Warn("engine call failed, retrying",
			zap.Int("attempt", attempt+1),
			zap.Int("maxRetries", policy.MaxRetries),
			zap.Duration("delay", d),
			zap.Error(err),
		)

		if d > 0 {
			timer := time.NewTimer(d)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ChannelProvisioningResult{}, ctx.Err()
			case <-timer.C:
			}
		}
	}

	return ChannelProvisioningResult{}, lastErr
}
