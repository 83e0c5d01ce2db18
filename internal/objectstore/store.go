// Package objectstore wraps an S3-compatible bucket with the recorder's
// chunk and archive key conventions (§6).
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/log"
)

// Store is the recorder's handle onto a single bucket.
type Store struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	logger     zerolog.Logger
}

// New builds a Store bound to cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(regionOrDefault(cfg.Region)),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle
	})

	return &Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		bucket:     cfg.Bucket,
		logger:     log.WithComponent("objectstore"),
	}, nil
}

func regionOrDefault(region string) string {
	if region == "" {
		return "us-east-1"
	}
	return region
}

// PutChunk uploads a chunk's contents to <sessionId>/chunks/<chunkName>.
func (s *Store) PutChunk(ctx context.Context, sessionID, chunkName string, r io.Reader) error {
	key, err := ChunkKey(sessionID, chunkName)
	if err != nil {
		return err
	}
	return s.put(ctx, key, r)
}

// PutArchive uploads the optional log archive.
func (s *Store) PutArchive(ctx context.Context, sessionID, archiveName string, r io.Reader) error {
	key, err := ArchiveKey(sessionID, archiveName)
	if err != nil {
		return err
	}
	return s.put(ctx, key, r)
}

func (s *Store) put(ctx context.Context, key string, r io.Reader) error {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// HeadChunk reports whether a chunk already exists remotely and its size,
// used by the uploader/downloader to skip redundant transfers.
func (s *Store) HeadChunk(ctx context.Context, sessionID, chunkName string) (exists bool, size int64, err error) {
	key, err := ChunkKey(sessionID, chunkName)
	if err != nil {
		return false, 0, err
	}
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("head %s: %w", key, err)
	}
	if out.ContentLength == nil {
		return true, 0, nil
	}
	return true, *out.ContentLength, nil
}

// GetChunk downloads a chunk into w.
func (s *Store) GetChunk(ctx context.Context, sessionID, chunkName string, w io.WriterAt) error {
	key, err := ChunkKey(sessionID, chunkName)
	if err != nil {
		return err
	}
	_, err = s.downloader.Download(ctx, w, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("download %s: %w", key, err)
	}
	return nil
}

// ListChunks returns the chunk filenames stored for sessionID, in object
// listing order (lexicographic under a common prefix).
func (s *Store) ListChunks(ctx context.Context, sessionID string) ([]string, error) {
	prefix, err := ChunksPrefix(sessionID)
	if err != nil {
		return nil, err
	}

	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list chunks for %s: %w", sessionID, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			names = append(names, (*obj.Key)[len(prefix):])
		}
	}
	return names, nil
}

// DeleteChunks removes only the objects under sessionID's chunks prefix,
// leaving the session's top-level prefix (logs, metadata) untouched. This
// is the Cleaner's default deletion path (§4.9).
func (s *Store) DeleteChunks(ctx context.Context, sessionID string) (int, error) {
	prefix, err := ChunksPrefix(sessionID)
	if err != nil {
		return 0, err
	}
	return s.deleteByPrefix(ctx, sessionID, prefix)
}

// DeleteSession removes every object stored under sessionID's prefix,
// logs and metadata included, and reports how many were deleted. Reserved
// for an explicit entire-directory cleanup mode; the default chunk
// cleanup path uses DeleteChunks instead.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) (int, error) {
	prefix, err := SessionPrefix(sessionID)
	if err != nil {
		return 0, err
	}
	return s.deleteByPrefix(ctx, sessionID, prefix)
}

func (s *Store) deleteByPrefix(ctx context.Context, sessionID, prefix string) (int, error) {
	var keys []types.ObjectIdentifier
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, fmt.Errorf("list objects for delete %s: %w", sessionID, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			keys = append(keys, types.ObjectIdentifier{Key: obj.Key})
		}
	}
	if len(keys) == 0 {
		return 0, nil
	}

	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: keys, Quiet: aws.Bool(true)},
	})
	if err != nil {
		// Bulk delete failed: fall back to one DeleteObject call per key,
		// logging each failure and continuing with the rest.
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("bulk delete failed, falling back to per-object delete")
		deleted := 0
		for _, k := range keys {
			if _, derr := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: k.Key}); derr != nil {
				s.logger.Warn().Err(derr).Str("key", aws.ToString(k.Key)).Msg("per-object delete failed")
				continue
			}
			deleted++
		}
		return deleted, nil
	}
	s.logger.Info().Str("session_id", sessionID).Str("prefix", prefix).Int("count", len(keys)).Msg("deleted session objects")
	return len(keys), nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	return errors.As(err, &nf)
}
