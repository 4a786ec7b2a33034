package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures the full runtime configuration for the channel
// provisioning service, parsed once from the environment exactly as
// the teacher's pkg/config does it: a struct-of-structs with env and
// envDefault tags, no flags package, no viper.
type Config struct {
	App          AppConfig
	Admin        AdminConfig
	Engine       GRPCConfig
	Kafka        KafkaConfig
	Storage      StorageConfig
	Tracing      TracingConfig
	Metrics      MetricsConfig
	Worker       WorkerConfig
	Provisioning ProvisioningConfig
	Reconcile    ReconcileConfig
	Alerting     AlertingConfig
}

type AppConfig struct {
	Name        string `env:"APP_NAME" envDefault:"channelflow"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	Version     string `env:"APP_VERSION" envDefault:"0.1.0"`
	LogLevel    string `env:"APP_LOG_LEVEL" envDefault:"info"`
}

// AdminConfig configures the admin façade's HTTP server, carrying the
// ambient HTTP knobs the teacher's own HTTPConfig does.
type AdminConfig struct {
	Addr         string        `env:"ADMIN_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"ADMIN_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"ADMIN_WRITE_TIMEOUT" envDefault:"60s"`
	IdleTimeout  time.Duration `env:"ADMIN_IDLE_TIMEOUT" envDefault:"120s"`
}

// GRPCConfig configures the gRPC transport to the media engine client,
// completing the teacher's otherwise-unused GRPCConfig knob.
type GRPCConfig struct {
	Addr           string        `env:"ENGINE_GRPC_ADDR" envDefault:"localhost:9090"`
	Insecure       bool          `env:"ENGINE_GRPC_INSECURE" envDefault:"true"`
	RequestTimeout time.Duration `env:"ENGINE_GRPC_REQUEST_TIMEOUT" envDefault:"10s"`
}

type KafkaConfig struct {
	Brokers             []string      `env:"KAFKA_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	UploadEventsTopic   string        `env:"KAFKA_UPLOAD_EVENTS_TOPIC" envDefault:"channelflow.upload-events"`
	UploadEventsGroupID string        `env:"KAFKA_UPLOAD_EVENTS_GROUP_ID" envDefault:"channelflow-provisioner"`
	PlaybackReadyTopic  string        `env:"KAFKA_PLAYBACK_READY_TOPIC" envDefault:"channelflow.playback-ready"`
	Retries             int           `env:"KAFKA_RETRIES" envDefault:"3"`
	RetryBackoff        time.Duration `env:"KAFKA_RETRY_BACKOFF" envDefault:"500ms"`
	CompressionCodec    string        `env:"KAFKA_COMPRESSION_CODEC" envDefault:"snappy"`
	BatchSize           int           `env:"KAFKA_BATCH_SIZE" envDefault:"100"`
	BatchTimeout        time.Duration `env:"KAFKA_BATCH_TIMEOUT" envDefault:"1s"`
}

// StorageConfig configures the object-store-backed metadata repository,
// adapting the teacher's StorageConfig onto channel records instead of
// raw upload blobs.
type StorageConfig struct {
	Provider  string `env:"STORAGE_PROVIDER" envDefault:"minio"`
	Endpoint  string `env:"STORAGE_ENDPOINT" envDefault:"http://localhost:9000"`
	Region    string `env:"STORAGE_REGION" envDefault:"us-east-1"`
	Bucket    string `env:"STORAGE_BUCKET" envDefault:"channelflow-metadata"`
	AccessKey string `env:"STORAGE_ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey string `env:"STORAGE_SECRET_KEY" envDefault:"minioadmin"`
	UseSSL    bool   `env:"STORAGE_USE_SSL" envDefault:"false"`
}

type TracingConfig struct {
	Endpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	Insecure     bool    `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`
	SampleRatio  float64 `env:"OTEL_TRACES_SAMPLER_RATIO" envDefault:"1.0"`
	ResourceAttr string  `env:"OTEL_RESOURCE_ATTRIBUTES" envDefault:"service.namespace=channelflow"`
}

// MetricsConfig is carried from the teacher unwired, same as in the
// teacher itself: a reserved listen address for a future metrics
// exporter, not yet read by main.go.
type MetricsConfig struct {
	Addr string `env:"METRICS_ADDR" envDefault:":9102"`
}

// WorkerConfig groups the Upload Event Worker's recognized options:
// ackDeadlineSeconds, manifestTtlSeconds, maxDeliveryAttempts.
type WorkerConfig struct {
	AckDeadlineSeconds  int `env:"ACK_DEADLINE_SECONDS" envDefault:"60"`
	ManifestTTLSeconds  int `env:"MANIFEST_TTL_SECONDS" envDefault:"3600"`
	MaxDeliveryAttempts int `env:"MAX_DELIVERY_ATTEMPTS" envDefault:"5"`
}

// ProvisioningConfig groups the Channel Provisioner's recognized
// options: the manifest bucket, retry budget, CDN base, signing key,
// dry-run flag, and reel/series ladder selection.
type ProvisioningConfig struct {
	ManifestBucket    string `env:"MANIFEST_BUCKET" envDefault:"channelflow-manifests"`
	MaxProvisionRetry int    `env:"MAX_PROVISION_RETRIES" envDefault:"3"`
	CdnBaseURL        string `env:"CDN_BASE_URL" envDefault:"https://cdn.example.com/"`
	SigningKeyID      string `env:"SIGNING_KEY_ID" envDefault:""`
	DryRun            bool   `env:"DRY_RUN" envDefault:"false"`

	ReelsPreset      string `env:"REELS_PRESET" envDefault:"low|640x360|400,mid|1280x720|1500,high|1920x1080|4500"`
	SeriesPreset     string `env:"SERIES_PRESET" envDefault:"low|640x360|600,mid|1280x720|2500,high|1920x1080|6000,uhd|3840x2160|16000"`
	ReelsIngestPool  string `env:"REELS_INGEST_POOL" envDefault:"reels-ingest"`
	SeriesIngestPool string `env:"SERIES_INGEST_POOL" envDefault:"series-ingest"`
	ReelsEgressPool  string `env:"REELS_EGRESS_POOL" envDefault:"reels-egress"`
	SeriesEgressPool string `env:"SERIES_EGRESS_POOL" envDefault:"series-egress"`
}

// ReconcileConfig groups the Reconciliation Loop's defaults: the
// per-sweep scan limit and the environment-specific fallback values
// stamped onto synthesized replay events when a stored record lacks
// them.
type ReconcileConfig struct {
	DefaultLimit           int           `env:"RECONCILE_DEFAULT_LIMIT" envDefault:"20"`
	Interval               time.Duration `env:"RECONCILE_INTERVAL" envDefault:"5m"`
	DefaultTenantID        string        `env:"RECONCILE_DEFAULT_TENANT_ID" envDefault:"unknown-tenant"`
	DefaultDurationSeconds int64         `env:"RECONCILE_DEFAULT_DURATION_SECONDS" envDefault:"1"`
	DefaultIngestRegion    string        `env:"RECONCILE_DEFAULT_INGEST_REGION" envDefault:"us-east-1"`
}

// AlertingConfig configures the optional webhook alerting sink that
// fans out alongside the always-on zap sink.
type AlertingConfig struct {
	WebhookURL     string        `env:"ALERT_WEBHOOK_URL" envDefault:""`
	WebhookTimeout time.Duration `env:"ALERT_WEBHOOK_TIMEOUT" envDefault:"5s"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
