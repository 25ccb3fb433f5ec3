// s3 holds a blobstore.Store backed by an S3-compatible bucket.
//
// Object ETags are used as Revisions, and conditional writes are sent as If-Match /
// If-None-Match preconditions so the bucket itself arbitrates between writers.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/openappconfig/openappconfig/internal/config"
	"github.com/openappconfig/openappconfig/internal/domain/blobstore"
)

const backendName = "s3"

// Client is the subset of *s3.Client that the Store uses; narrowed for mocking
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// NewClient builds an *s3.Client from config. Static credentials are used when given,
// otherwise the default AWS credential chain applies.
//
// A custom endpoint (MinIO, LocalStack) switches to path-style addressing.
func NewClient(ctx context.Context, conf config.S3Storage) (*s3.Client, error) {
	if conf.Endpoint != nil && strings.HasPrefix(*conf.Endpoint, "http://") && !conf.AllowHttp {
		return nil, wrap(fmt.Errorf("endpoint [%s] is plain HTTP but allow_http is not set", *conf.Endpoint))
	}
	var loadOpts []func(*awsconfig.LoadOptions) error
	if len(conf.Region) != 0 {
		loadOpts = append(loadOpts, awsconfig.WithRegion(conf.Region))
	}
	if conf.AccessKeyId != nil && conf.SecretAccessKey != nil {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(*conf.AccessKeyId, *conf.SecretAccessKey, ""),
		))
	}
	awsConf, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, wrap(fmt.Errorf("loading AWS config: %w", err))
	}
	return s3.NewFromConfig(awsConf, func(o *s3.Options) {
		if conf.Endpoint != nil {
			o.BaseEndpoint = aws.String(*conf.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

type Store struct {
	client    Client
	bucket    string
	keyPrefix string
}

// NewStore returns a Store keeping blobs in the given bucket, optionally nested under keyPrefix
func NewStore(client Client, bucket string, keyPrefix string) *Store {
	if len(keyPrefix) != 0 && !strings.HasSuffix(keyPrefix, "/") {
		keyPrefix = keyPrefix + "/"
	}
	return &Store{client: client, bucket: bucket, keyPrefix: keyPrefix}
}

func (s *Store) Get(ctx context.Context, path blobstore.Path) (*blobstore.Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.NotFound{Path: path}
		}
		return nil, wrap(err)
	}
	defer out.Body.Close()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, wrap(err)
	}
	return &blobstore.Object{Data: data, Revision: blobstore.Revision(aws.ToString(out.ETag))}, nil
}

func (s *Store) Put(ctx context.Context, path blobstore.Path, data []byte) (blobstore.Revision, error) {
	return s.put(ctx, path, data, nil, nil)
}

func (s *Store) PutIf(ctx context.Context, path blobstore.Path, data []byte, expected blobstore.Revision) (blobstore.Revision, error) {
	var rev blobstore.Revision
	var err error
	if expected == blobstore.Absent {
		rev, err = s.put(ctx, path, data, nil, aws.String("*"))
	} else {
		rev, err = s.put(ctx, path, data, aws.String(string(expected)), nil)
	}
	if err != nil && (isPreconditionFailed(err) || isNotFound(err)) {
		return blobstore.Absent, blobstore.PreconditionFailed{Path: path, Expected: expected}
	}
	return rev, err
}

func (s *Store) put(ctx context.Context, path blobstore.Path, data []byte, ifMatch *string, ifNoneMatch *string) (blobstore.Revision, error) {
	out, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.objectKey(path)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
		IfMatch:       ifMatch,
		IfNoneMatch:   ifNoneMatch,
	})
	if err != nil {
		return blobstore.Absent, wrap(err)
	}
	return blobstore.Revision(aws.ToString(out.ETag)), nil
}

func (s *Store) Delete(ctx context.Context, path blobstore.Path) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(path)),
	})
	if err != nil && !isNotFound(err) {
		return wrap(err)
	}
	return nil
}

func (s *Store) Head(ctx context.Context, path blobstore.Path) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(path)),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, wrap(err)
	}
	return true, nil
}

func (s *Store) List(ctx context.Context, prefix blobstore.Path, fn func(path blobstore.Path) error) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.objectKey(prefix)),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return wrap(err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if err := fn(blobstore.Path(strings.TrimPrefix(key, s.keyPrefix))); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) objectKey(path blobstore.Path) string {
	return s.keyPrefix + string(path)
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}

// S3 answers 412 for a failed precondition and 409 when a competing conditional
// write is in flight for the same key
func isPreconditionFailed(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return true
		}
	}
	return false
}

func isBucketMissing(err error) bool {
	var noSuchBucket *types.NoSuchBucket
	if errors.As(err, &noSuchBucket) || isNotFound(err) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "NoSuchBucket"
}

func wrap(err error) error {
	return blobstore.BackendErr{Backend: backendName, Underlying: err}
}

// NewSetup returns a blobstore.Setup that makes sure the bucket exists
func NewSetup(client Client, bucket string, region string) blobstore.Setup {
	return &setup{client: client, bucket: bucket, region: region}
}

type setup struct {
	client Client
	bucket string
	region string
}

func (s *setup) Check(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		if isBucketMissing(err) {
			return blobstore.NotSetUp{Reason: fmt.Sprintf("bucket [%s] does not exist", s.bucket)}
		}
		return wrap(err)
	}
	return nil
}

func (s *setup) Run(ctx context.Context) error {
	input := s3.CreateBucketInput{Bucket: aws.String(s.bucket)}
	// us-east-1 is the one region that rejects an explicit location constraint
	if len(s.region) != 0 && s.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.region),
		}
	}
	if _, err := s.client.CreateBucket(ctx, &input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "BucketAlreadyOwnedByYou" {
			return nil
		}
		return wrap(err)
	}
	return nil
}
