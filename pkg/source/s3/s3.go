// Package s3 mirrors an S3 bucket prefix into an in-memory afero filesystem
// so that it can be imported into a device with Device.BuildFromDirectory.
package s3

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hashicorp/go-multierror"
	"github.com/marmos91/dittovfs/internal/logger"
	"github.com/marmos91/dittovfs/internal/ratelimiter"
	"github.com/marmos91/dittovfs/pkg/vfs"
	"github.com/spf13/afero"
)

// MirrorRoot is the directory of the returned filesystem that holds the
// mirrored prefix.
const MirrorRoot = "/mirror"

// Client is the subset of *s3.Client used for mirroring.
type Client interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config contains connection settings for an S3 or S3-compatible endpoint.
type Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	IncludeContents bool   `mapstructure:"include_contents"`

	// RequestsPerSecond caps list and get requests (0 = unlimited)
	RequestsPerSecond uint `mapstructure:"requests_per_second"`

	// Burst is the request burst allowed above RequestsPerSecond
	Burst uint `mapstructure:"burst"`
}

// MirrorOption customizes Mirror.
type MirrorOption func(*mirrorOptions)

type mirrorOptions struct {
	limiter *ratelimiter.RateLimiter
}

// WithRateLimit throttles every list and get request Mirror issues.
// A zero requestsPerSecond leaves requests unthrottled.
func WithRateLimit(requestsPerSecond, burst uint) MirrorOption {
	return func(o *mirrorOptions) {
		o.limiter = ratelimiter.New(requestsPerSecond, burst)
	}
}

// NewClient builds an S3 client from cfg.
//
// A custom endpoint (MinIO, Localstack...) switches to path-style
// addressing. Without static credentials the default AWS credential chain
// is used.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	if cfg.Region == "" {
		return nil, fmt.Errorf("s3 source: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error
	configOptions = append(configOptions, awsConfig.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return client, nil
}

// Mirror copies every object below prefix in bucket into a new in-memory
// filesystem, rooted at MirrorRoot.
//
// Keys ending in "/" are directory markers and produce empty directories.
// Object contents are only downloaded when includeContents is true; otherwise
// empty files are created. A prefix without any object fails with
// vfs.ErrInvalidPath.
//
// Listing failures and context cancellation abort the mirror. Download
// failures are collected and returned as a *multierror.Error together with
// the partial filesystem.
func Mirror(ctx context.Context, client Client, bucket, prefix string, includeContents bool, opts ...MirrorOption) (afero.Fs, string, error) {
	var o mirrorOptions
	for _, opt := range opts {
		opt(&o)
	}

	prefix = normalizePrefix(prefix)
	fsys := afero.NewMemMapFs()
	if err := fsys.MkdirAll(MirrorRoot, 0755); err != nil {
		return nil, "", err
	}

	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})

	var (
		errs    *multierror.Error
		objects int
	)
	for paginator.HasMorePages() {
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, "", err
		}
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to list s3://%s/%s: %w", bucket, prefix, err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rel := strings.TrimPrefix(key, prefix)
			if rel == "" {
				continue
			}
			objects++

			target := path.Join(MirrorRoot, rel)
			if strings.HasSuffix(rel, "/") {
				if err := fsys.MkdirAll(target, 0755); err != nil {
					errs = multierror.Append(errs, err)
				}
				continue
			}

			if err := fsys.MkdirAll(path.Dir(target), 0755); err != nil {
				errs = multierror.Append(errs, err)
				continue
			}

			var data []byte
			if includeContents {
				if err := o.limiter.Wait(ctx); err != nil {
					return nil, "", err
				}
				data, err = download(ctx, client, bucket, key)
				if err != nil {
					errs = multierror.Append(errs, err)
					continue
				}
			}

			if err := afero.WriteFile(fsys, target, data, 0644); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}

	if objects == 0 {
		return nil, "", &vfs.Error{
			Code:    vfs.ErrInvalidPath,
			Message: "import source has no objects",
			Name:    "s3://" + bucket + "/" + prefix,
		}
	}

	logger.Info("s3 source: mirrored %d objects from s3://%s/%s", objects, bucket, prefix)
	return fsys, MirrorRoot, errs.ErrorOrNil()
}

func download(ctx context.Context, client Client, bucket, key string) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// normalizePrefix drops leading slashes and ensures a non-empty prefix ends
// with exactly one "/".
func normalizePrefix(prefix string) string {
	prefix = strings.TrimLeft(prefix, "/")
	if prefix == "" {
		return ""
	}
	return strings.TrimRight(prefix, "/") + "/"
}

// Import mirrors cfg's bucket prefix and builds it into dev.
func Import(ctx context.Context, dev *vfs.Device, client Client, cfg Config) error {
	fsys, root, mirrorErr := Mirror(ctx, client, cfg.Bucket, cfg.Prefix, cfg.IncludeContents,
		WithRateLimit(cfg.RequestsPerSecond, cfg.Burst))
	if fsys == nil {
		return mirrorErr
	}

	var errs *multierror.Error
	if mirrorErr != nil {
		errs = multierror.Append(errs, mirrorErr)
	}
	if err := dev.BuildFromDirectory(fsys, root, cfg.IncludeContents); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}
