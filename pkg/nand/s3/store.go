// Package s3 provides a NAND store that keeps one S3 object per erase block.
//
// Each object holds PagesPerBlock*PageSize bytes. An erased block is an empty
// object and reads back as zeros. A missing object means the block is
// unavailable.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/ssdsim/pkg/nand"
)

// Config holds configuration for the S3 NAND store.
type Config struct {
	// Bucket is the S3 bucket name.
	Bucket string `mapstructure:"bucket"`

	// Region is the AWS region (optional, uses SDK default if empty).
	Region string `mapstructure:"region"`

	// Endpoint is the S3 endpoint URL (optional, for S3-compatible services).
	Endpoint string `mapstructure:"endpoint"`

	// KeyPrefix is prepended to all block object keys (e.g., "ssd/").
	KeyPrefix string `mapstructure:"key_prefix"`

	// AccessKeyID and SecretAccessKey set static credentials. When empty the
	// default AWS credential chain is used.
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// ForcePathStyle forces path-style addressing (required for Localstack/MinIO).
	ForcePathStyle bool `mapstructure:"force_path_style"`
}

// API is the subset of the S3 client used by the store.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Store is an S3-backed implementation of nand.Store.
type Store struct {
	client    API
	bucket    string
	keyPrefix string
	geom      nand.Geometry
	closed    bool
	mu        sync.RWMutex
}

// New creates a new S3 NAND store with an existing client.
func New(client API, config Config, geom nand.Geometry) (*Store, error) {
	if err := geom.Validate(); err != nil {
		return nil, fmt.Errorf("invalid geometry: %w", err)
	}
	if config.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	return &Store{
		client:    client,
		bucket:    config.Bucket,
		keyPrefix: config.KeyPrefix,
		geom:      geom,
	}, nil
}

// NewFromConfig creates a new S3 NAND store by creating an S3 client from config.
func NewFromConfig(ctx context.Context, config Config, geom nand.Geometry) (*Store, error) {
	var opts []func(*awsconfig.LoadOptions) error

	if config.Region != "" {
		opts = append(opts, awsconfig.WithRegion(config.Region))
	}
	if config.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKeyID, config.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Opts []func(*s3.Options)

	if config.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
		})
	}

	if config.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return New(s3.NewFromConfig(awsCfg, s3Opts...), config, geom)
}

// objectKey returns the full S3 key for a block.
func (s *Store) objectKey(block uint32) string {
	return s.keyPrefix + nand.BlockName(block)
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nand.ErrStoreClosed
	}
	return nil
}

// ReadPage reads one page with a ranged GET.
func (s *Store) ReadPage(ctx context.Context, block, page uint32, buf []byte) error {
	if err := s.geom.CheckPage(block, page, buf); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	offset := s.geom.PageOffset(page)
	rangeHeader := fmt.Sprintf("bytes=%d-%d", offset, offset+int64(s.geom.PageSize)-1)

	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(block)),
		Range:  aws.String(rangeHeader),
	})
	if err != nil {
		switch {
		case isNotFoundError(err):
			return fmt.Errorf("block %d: %w", block, nand.ErrBlockUnavailable)
		case isInvalidRangeError(err):
			// Erased block: the object is shorter than the requested page.
			clear(buf)
			return nil
		}
		return fmt.Errorf("s3 get object range: %w", err)
	}
	defer resp.Body.Close()

	n, err := io.ReadFull(resp.Body, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read s3 object body: %w", err)
	}
	clear(buf[n:])
	return nil
}

// WritePage rewrites the block object with the page patched in.
func (s *Store) WritePage(ctx context.Context, block, page uint32, data []byte) error {
	if err := s.geom.CheckPage(block, page, data); err != nil {
		return err
	}

	// Writers are serialized so the GET-patch-PUT cycle cannot lose updates.
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nand.ErrStoreClosed
	}

	key := s.objectKey(block)
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return fmt.Errorf("block %d: %w", block, nand.ErrBlockUnavailable)
		}
		return fmt.Errorf("s3 get object: %w", err)
	}
	current, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("read s3 object body: %w", err)
	}

	body := make([]byte, s.geom.BlockSize())
	copy(body, current)
	copy(body[s.geom.PageOffset(page):], data)

	return s.put(ctx, key, body)
}

// EraseBlock replaces the block object with an empty one.
func (s *Store) EraseBlock(ctx context.Context, block uint32) error {
	if err := s.geom.CheckBlock(block); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nand.ErrStoreClosed
	}

	key := s.objectKey(block)
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFoundError(err) {
			return fmt.Errorf("block %d: %w", block, nand.ErrBlockUnavailable)
		}
		return fmt.Errorf("s3 head object: %w", err)
	}

	return s.put(ctx, key, nil)
}

// Provision writes an empty object for every block.
func (s *Store) Provision(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nand.ErrStoreClosed
	}

	for b := 0; b < s.geom.PhysicalBlocks; b++ {
		if err := s.put(ctx, s.objectKey(uint32(b)), nil); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, body []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}

// Geometry returns the store layout.
func (s *Store) Geometry() nand.Geometry {
	return s.geom
}

// HealthCheck verifies the S3 bucket is accessible.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("S3 health check failed: %w", err)
	}
	return nil
}

// Close marks the store as closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// isNotFoundError checks if an error is an S3 not found error.
func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "NoSuchKey") ||
		strings.Contains(errStr, "NotFound") ||
		strings.Contains(errStr, "404")
}

func isInvalidRangeError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "InvalidRange") || strings.Contains(errStr, "416")
}

// Ensure Store implements nand.Store.
var _ nand.Store = (*Store)(nil)
