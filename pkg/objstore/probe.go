package objstore

import (
	"context"
	"errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// api is the subset of the S3 client used by the probe.
type api interface {
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// uploader abstracts the S3 upload manager so streamed bodies work without
// a seekable reader.
type uploader interface {
	Upload(ctx context.Context, in *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Probe issues point probes against the object store.
type Probe struct {
	client api
	up     uploader
	log    zerolog.Logger
}

// New creates a probe from an S3 API and an upload manager.
func New(client api, up uploader, log zerolog.Logger) *Probe {
	return &Probe{
		client: client,
		up:     up,
		log:    log.With().Str("component", "objstore-probe").Logger(),
	}
}

// FromClient creates a probe from a concrete S3 client, wiring the upload
// manager to it.
func FromClient(client *s3.Client, log zerolog.Logger) *Probe {
	return New(client, manager.NewUploader(client), log)
}

// Exists reports whether the object exists. Not-found is a false result,
// not an error; permission and network failures propagate.
func (p *Probe) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := p.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Put uploads the body to the given key. Streamed and buffered readers are
// both accepted; the upload manager chunks as needed.
func (p *Probe) Put(ctx context.Context, bucket, key string, body io.Reader) error {
	_, err := p.up.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	return err
}

// Content reads the full object decoded as text. Any retrieval failure
// yields ("", false); the error is logged, not returned.
func (p *Probe) Content(ctx context.Context, bucket, key string) (string, bool) {
	out, err := p.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		p.log.Debug().Err(err).Str("bucket", bucket).Str("key", key).Msg("Object retrieval failed")
		return "", false
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		p.log.Debug().Err(err).Str("bucket", bucket).Str("key", key).Msg("Object read failed")
		return "", false
	}
	return string(data), true
}

// isNotFound matches the errors S3 returns for a missing object on
// HeadObject (404 NotFound) and GetObject (NoSuchKey).
func isNotFound(err error) bool {
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return true
	}
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey"
	}
	return false
}
