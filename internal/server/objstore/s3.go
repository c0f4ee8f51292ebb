package objstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// deleteBatchMax is the DeleteObjects request limit imposed by S3.
const deleteBatchMax = 1000

// S3Config carries the settings needed to reach an S3-compatible backend
// (AWS S3 or MinIO).
type S3Config struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
	// Expiry bounds every signed URL issued by the store.
	Expiry time.Duration
}

// S3Store implements Store over aws-sdk-go-v2.
type S3Store struct {
	client  *s3.Client
	presign *s3.PresignClient
	bucket  string
	expiry  time.Duration
}

// NewS3Store builds clients for the configured backend. Static credentials
// and a base endpoint override keep it compatible with MinIO.
func NewS3Store(ctx context.Context, c S3Config) (*S3Store, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(c.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			c.AccessKey,
			c.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:  client,
		presign: s3.NewPresignClient(client),
		bucket:  c.Bucket,
		expiry:  c.Expiry,
	}, nil
}

// PresignPut returns a presigned PUT URL bound to key and contentType.
func (s *S3Store) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}
	if contentType != "" {
		in.ContentType = &contentType
	}

	req, err := s.presign.PresignPutObject(ctx, in, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return req.URL, nil
}

// PresignGet returns a presigned GET URL for key, optionally forcing a
// download filename through the response content disposition.
func (s *S3Store) PresignGet(ctx context.Context, key, downloadName string) (string, error) {
	in := &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	}
	if downloadName != "" {
		disposition := fmt.Sprintf("attachment; filename=%q", downloadName)
		in.ResponseContentDisposition = &disposition
	}

	req, err := s.presign.PresignGetObject(ctx, in, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}

// Exists issues a HeadObject for key. A missing object is not an error.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("head object: %w", err)
	}
	return true, nil
}

// DeleteBatch removes objects in chunks of up to 1000 keys per request.
func (s *S3Store) DeleteBatch(ctx context.Context, keys []string) error {
	for start := 0; start < len(keys); start += deleteBatchMax {
		end := min(start+deleteBatchMax, len(keys))

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range keys[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: &s.bucket,
			Delete: &types.Delete{Objects: objects},
		})
		if err != nil {
			return fmt.Errorf("delete objects: %w", err)
		}
	}
	return nil
}

// PurgeOwner lists and deletes everything under "{ownerID}/", page by page.
func (s *S3Store) PurgeOwner(ctx context.Context, ownerID string) error {
	prefix := ownerID + "/"

	var continuationToken *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            &s.bucket,
			Prefix:            &prefix,
			ContinuationToken: continuationToken,
		})
		if err != nil {
			return fmt.Errorf("list objects: %w", err)
		}

		if len(out.Contents) > 0 {
			keys := make([]string, 0, len(out.Contents))
			for _, obj := range out.Contents {
				keys = append(keys, *obj.Key)
			}
			if err := s.DeleteBatch(ctx, keys); err != nil {
				return err
			}
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			return nil
		}
		continuationToken = out.NextContinuationToken
	}
}
