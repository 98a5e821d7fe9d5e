package images

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds the bucket that signature images are read from.
type S3Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string `env:"IMAGES_S3_BUCKET"`
	// AccessKey is the AWS access key ID (required).
	AccessKey string `env:"IMAGES_S3_ACCESS_KEY"`
	// SecretKey is the AWS secret access key (required).
	SecretKey string `env:"IMAGES_S3_SECRET_KEY"`
	// Endpoint is a custom endpoint for MinIO and other S3-compatible services.
	Endpoint string `env:"IMAGES_S3_ENDPOINT"`
	// Region is the AWS region.
	Region string `env:"IMAGES_S3_REGION" envDefault:"us-east-1"`
	// Prefix is prepended to every image reference.
	Prefix string `env:"IMAGES_S3_PREFIX" envDefault:"signatures/images/"`
	// PathStyle enables path-style URLs (required for MinIO).
	PathStyle bool `env:"IMAGES_S3_PATH_STYLE" envDefault:"false"`
}

func (c S3Config) validate() error {
	var missing []string
	if c.Bucket == "" {
		missing = append(missing, "bucket")
	}
	if c.AccessKey == "" {
		missing = append(missing, "access key")
	}
	if c.SecretKey == "" {
		missing = append(missing, "secret key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidConfig, strings.Join(missing, ", "))
	}
	return nil
}

// ObjectGetter is the subset of the S3 client the resolver needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Resolver reads images from an S3-compatible bucket.
type S3Resolver struct {
	client ObjectGetter
	opts   *options
	bucket string
	prefix string
}

var _ Resolver = (*S3Resolver)(nil)

// NewS3Resolver creates a resolver backed by a new S3 client.
func NewS3Resolver(cfg S3Config, opts ...Option) (*S3Resolver, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	clientOpts := []func(*s3.Options){
		func(o *s3.Options) {
			o.Region = cfg.Region
			o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		},
	}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		})
	}

	return NewS3ResolverWithClient(s3.New(s3.Options{}, clientOpts...), cfg.Bucket, cfg.Prefix, opts...), nil
}

// NewS3ResolverWithClient creates a resolver around an existing client.
func NewS3ResolverWithClient(client ObjectGetter, bucket, prefix string, opts ...Option) *S3Resolver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &S3Resolver{client: client, bucket: bucket, prefix: prefix, opts: o}
}

// ResolveImage implements Resolver.
func (r *S3Resolver) ResolveImage(ctx context.Context, ref string) (Payload, error) {
	name, err := cleanRef(ref)
	if err != nil {
		return Payload{}, err
	}

	out, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(path.Join(r.prefix, name)),
	})
	if err != nil {
		return Payload{}, wrapS3Error(err)
	}
	defer out.Body.Close()

	if size := aws.ToInt64(out.ContentLength); size > r.opts.maxBytes {
		return Payload{}, tooLarge(size, r.opts.maxBytes)
	}

	data, err := io.ReadAll(io.LimitReader(out.Body, r.opts.maxBytes+1))
	if err != nil {
		return Payload{}, errors.Join(ErrReadFailed, err)
	}
	if int64(len(data)) > r.opts.maxBytes {
		return Payload{}, tooLarge(int64(len(data)), r.opts.maxBytes)
	}

	return newPayload(name, aws.ToString(out.ContentType), data)
}
