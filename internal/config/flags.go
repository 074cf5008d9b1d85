package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/modelcreator/internal/flagx"
)

// parseFlags populates Config fields from the short command-line flags
// listed in the package documentation. Only those flags are looked at, so
// -c/-config and anything else on the command line are ignored here.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, "d", "u", "p", "b", "g", "e", "o", "k", "m", "n", "i", "l")

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.S3PublicBaseURL, "o", config.S3PublicBaseURL, "public base URL of the bucket")
	fs.StringVar(&config.FalKey, "k", config.FalKey, "fal API key")
	fs.StringVar(&config.FalEndpoint, "m", config.FalEndpoint, "fal training endpoint")
	fs.IntVar(&config.TrainingSteps, "n", config.TrainingSteps, "training steps")
	pollInterval := fs.Int("i", int(config.PollInterval.Milliseconds()), "queue poll interval (in milliseconds)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.PollInterval = time.Duration(*pollInterval) * time.Millisecond
}
