// Package storage uploads training archives to an S3-compatible bucket and
// resolves the address the training service will download them from.
package storage

import (
	"context"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Options configures the bucket side of an Uploader.
type Options struct {
	AccessKey    string
	SecretKey    string
	Region       string
	BaseEndpoint string
	Bucket       string
	KeyPrefix    string
	// PublicBaseURL is the read address of the bucket root. When empty it is
	// derived from BaseEndpoint and Bucket (path-style addressing).
	PublicBaseURL string
	// PresignTTL > 0 switches Upload to return presigned GET URLs.
	PresignTTL time.Duration
}

func (o Options) publicBaseURL() string {
	if o.PublicBaseURL != "" {
		return strings.TrimRight(o.PublicBaseURL, "/")
	}
	return strings.TrimRight(o.BaseEndpoint, "/") + "/" + o.Bucket
}

// RemoteUnreachable reports whether uploaded archives would be addressed
// through a loopback host that a remote service cannot download from.
// Presigned URLs share the endpoint host, so they are checked the same way.
func (o Options) RemoteUnreachable() bool {
	base := o.publicBaseURL()
	if o.PresignTTL > 0 {
		base = o.BaseEndpoint
	}
	u, err := url.Parse(base)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := u.Hostname()
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// NewS3Client builds an S3 client with static credentials against the
// configured endpoint. Path-style addressing keeps MinIO and other
// self-hosted stores happy.
func NewS3Client(ctx context.Context, o Options) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(o.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			o.AccessKey,
			o.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(so *s3.Options) {
		if o.BaseEndpoint != "" {
			so.BaseEndpoint = aws.String(o.BaseEndpoint)
		}
		so.UsePathStyle = true
	})

	return client, nil
}
