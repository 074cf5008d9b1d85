package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/modelcreator/internal/flagx"
	"github.com/dmitrijs2005/modelcreator/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Pointer fields
// distinguish "absent" from "zero" so a partial file only overrides what it
// names.
type JsonConfig struct {
	DatabaseDSN     *string         `json:"database_dsn"`
	S3AccessKey     *string         `json:"s3_access_key"`
	S3SecretKey     *string         `json:"s3_secret_key"`
	S3Bucket        *string         `json:"s3_bucket"`
	S3Region        *string         `json:"s3_region"`
	S3BaseEndpoint  *string         `json:"s3_base_endpoint"`
	S3PublicBaseURL *string         `json:"s3_public_base_url"`
	S3KeyPrefix     *string         `json:"s3_key_prefix"`
	S3PresignTTL    *timex.Duration `json:"s3_presign_ttl"`
	FalKey          *string         `json:"fal_key"`
	FalQueueURL     *string         `json:"fal_queue_url"`
	FalEndpoint     *string         `json:"fal_endpoint"`
	TrainingSteps   *int            `json:"training_steps"`
	PollInterval    *timex.Duration `json:"poll_interval"`
	MaxTrainingLogs *int            `json:"max_training_logs"`
	LogLevel        *string         `json:"log_level"`
	LogFormat       *string         `json:"log_format"`
}

// parseJson overlays values from the JSON file named by -c/-config.
// Without the flag nothing is loaded. An unreadable file or invalid JSON
// panics, like a bad flag does.
func parseJson(config *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3PublicBaseURL, c.S3PublicBaseURL)
	setString(&config.S3KeyPrefix, c.S3KeyPrefix)
	setString(&config.FalKey, c.FalKey)
	setString(&config.FalQueueURL, c.FalQueueURL)
	setString(&config.FalEndpoint, c.FalEndpoint)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)

	if c.S3PresignTTL != nil {
		config.S3PresignTTL = c.S3PresignTTL.Duration
	}
	if c.PollInterval != nil {
		config.PollInterval = c.PollInterval.Duration
	}
	if c.TrainingSteps != nil {
		config.TrainingSteps = *c.TrainingSteps
	}
	if c.MaxTrainingLogs != nil {
		config.MaxTrainingLogs = *c.MaxTrainingLogs
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
