package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/dmitrijs2005/modelcreator/internal/archive"
	"github.com/dmitrijs2005/modelcreator/internal/common"
	"github.com/dmitrijs2005/modelcreator/internal/logging"
	"github.com/google/uuid"
)

// ObjectPutter is the part of *s3.Client the uploader writes through.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// GetPresigner is satisfied by *s3.PresignClient.
type GetPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Uploader writes archives to the bucket. Every Upload creates a new
// object; retries are never deduplicated.
type Uploader struct {
	client    ObjectPutter
	presigner GetPresigner
	opts      Options
	logger    logging.Logger
	now       func() time.Time
}

// NewUploader wires an uploader around an existing client. presigner may
// be nil when opts.PresignTTL is zero.
func NewUploader(client ObjectPutter, presigner GetPresigner, opts Options, logger logging.Logger) *Uploader {
	return &Uploader{
		client:    client,
		presigner: presigner,
		opts:      opts,
		logger:    logger,
		now:       time.Now,
	}
}

// NewS3Uploader builds the S3 client and presigner from opts.
func NewS3Uploader(ctx context.Context, opts Options, logger logging.Logger) (*Uploader, error) {
	client, err := NewS3Client(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return NewUploader(client, s3.NewPresignClient(client), opts, logger), nil
}

// ObjectKey returns a fresh key for an archive uploaded at now.
func ObjectKey(prefix string, now time.Time) string {
	name := fmt.Sprintf("training_images_%d_%s%s", now.UnixMilli(), uuid.NewString(), archive.Extension)
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Upload stores the archive under a new key and returns the address it
// can be fetched from.
func (u *Uploader) Upload(ctx context.Context, data []byte) (string, error) {
	key := ObjectKey(u.opts.KeyPrefix, u.now())

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(archive.ContentType),
	})
	if err != nil {
		return "", &common.UploadError{Key: key, Message: storeMessage(err), Err: err}
	}

	objectURL, err := u.ObjectURL(ctx, key)
	if err != nil {
		return "", &common.UploadError{Key: key, Message: err.Error(), Err: err}
	}

	u.logger.Info(ctx, "archive uploaded", "bucket", u.opts.Bucket, "key", key, "size", len(data))
	return objectURL, nil
}

// ObjectURL resolves the read address of key: a presigned GET URL when
// PresignTTL is set, the public URL otherwise.
func (u *Uploader) ObjectURL(ctx context.Context, key string) (string, error) {
	if u.opts.PresignTTL > 0 {
		if u.presigner == nil {
			return "", errors.New("presigning requested but no presigner configured")
		}
		req, err := u.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(u.opts.Bucket),
			Key:    aws.String(key),
		}, s3.WithPresignExpires(u.opts.PresignTTL))
		if err != nil {
			return "", fmt.Errorf("presign %s: %w", key, err)
		}
		return req.URL, nil
	}

	return url.JoinPath(u.opts.publicBaseURL(), strings.Split(key, "/")...)
}

func storeMessage(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) && apiErr.ErrorMessage() != "" {
		return apiErr.ErrorMessage()
	}
	return err.Error()
}
