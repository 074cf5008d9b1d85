package config

import (
	"os"
	"time"
)

// Config holds runtime settings for modelcreator.
//
// Fields:
//   - DatabaseDSN: relational store; the scheme selects pgx or sqlite.
//   - S3AccessKey / S3SecretKey: static credentials for the S3-compatible store.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings.
//   - S3PublicBaseURL: public read address of the bucket, defaults to
//     S3BaseEndpoint + "/" + S3Bucket when empty. The default endpoint is a
//     local MinIO on 127.0.0.1, which the remote training service cannot
//     reach; real runs must set this (or an internet-facing endpoint).
//   - S3KeyPrefix: optional "directory" for uploaded archives.
//   - S3PresignTTL: when positive, presigned GET URLs are handed to the
//     training service instead of public ones.
//   - FalKey / FalQueueURL / FalEndpoint: remote training API.
//   - TrainingSteps: fixed step count sent with every job.
//   - PollInterval: delay between queue status requests.
//   - MaxTrainingLogs: cap on log messages kept per job.
type Config struct {
	DatabaseDSN     string        `env:"DATABASE_DSN"`
	S3AccessKey     string        `env:"S3_ACCESS_KEY"`
	S3SecretKey     string        `env:"S3_SECRET_KEY"`
	S3Bucket        string        `env:"S3_BUCKET"`
	S3Region        string        `env:"S3_REGION"`
	S3BaseEndpoint  string        `env:"S3_BASE_ENDPOINT"`
	S3PublicBaseURL string        `env:"S3_PUBLIC_BASE_URL"`
	S3KeyPrefix     string        `env:"S3_KEY_PREFIX"`
	S3PresignTTL    time.Duration `env:"S3_PRESIGN_TTL"`
	FalKey          string        `env:"FAL_KEY"`
	FalQueueURL     string        `env:"FAL_QUEUE_URL"`
	FalEndpoint     string        `env:"FAL_ENDPOINT"`
	TrainingSteps   int           `env:"TRAINING_STEPS"`
	PollInterval    time.Duration `env:"POLL_INTERVAL"`
	MaxTrainingLogs int           `env:"MAX_TRAINING_LOGS"`
	LogLevel        string        `env:"LOG_LEVEL"`
	LogFormat       string        `env:"LOG_FORMAT"`
}

// LoadDefaults populates Config with development defaults (local MinIO,
// SQLite file in the working directory).
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "sqlite://modelcreator.db"
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Bucket = "training-images"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
	c.S3PublicBaseURL = ""
	c.S3KeyPrefix = ""
	c.S3PresignTTL = 0
	c.FalKey = ""
	c.FalQueueURL = "https://queue.fal.run"
	c.FalEndpoint = "fal-ai/flux-lora-fast-training"
	c.TrainingSteps = 100
	c.PollInterval = 1 * time.Second
	c.MaxTrainingLogs = 10000
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	args := os.Args[1:]

	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseEnv(cfg)
	parseFlags(cfg, args)
	return cfg
}
