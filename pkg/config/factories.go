package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/marmos91/dittovfs/internal/logger"
	"github.com/marmos91/dittovfs/pkg/fixture"
	"github.com/marmos91/dittovfs/pkg/metrics"
	s3src "github.com/marmos91/dittovfs/pkg/source/s3"
	"github.com/marmos91/dittovfs/pkg/vfs"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/afero"
)

// DirectorySourceConfig configures the "directory" import source.
type DirectorySourceConfig struct {
	// Path is the local directory mirrored into the device root
	Path string `mapstructure:"path"`

	// IncludeContents copies file contents; otherwise files are created empty
	IncludeContents bool `mapstructure:"include_contents"`
}

// BuildDevice creates a device based on configuration.
//
// The device is assembled in three steps:
//  1. Create the device with the configured quota, owner and root mode
//  2. Import the configured source (none, directory or s3) into its root
//  3. Build the fixture structure, if any, on top of the imported tree
//
// Parameters:
//   - ctx: Context for source operations (S3 listing and downloads)
//   - cfg: The complete DittoVFS configuration
//   - m: Device metrics collector (nil uses the no-op collector)
//
// Returns:
//   - *vfs.Device: The assembled device
//   - error: Configuration, import or fixture error
func BuildDevice(ctx context.Context, cfg *Config, m metrics.DeviceMetrics) (*vfs.Device, error) {
	quota, err := cfg.Device.QuotaBytes()
	if err != nil {
		return nil, err
	}

	owner := vfs.WithOwner(vfs.Identity{UID: cfg.Device.Owner.UID, GID: cfg.Device.Owner.GID})
	rootOpts := []vfs.Option{owner}
	if cfg.Device.RootMode != nil {
		rootOpts = append(rootOpts, vfs.WithMode(*cfg.Device.RootMode))
	}
	dev := vfs.NewDevice(quota,
		vfs.WithRootOptions(rootOpts...),
		vfs.WithMetrics(m),
	)

	// ========================================================================
	// Step 1: Import Source
	// ========================================================================

	switch cfg.Source.Type {
	case "", "none":
	case "directory":
		if err := importDirectorySource(dev, cfg.Source.Directory); err != nil {
			return nil, err
		}
	case "s3":
		if err := importS3Source(ctx, dev, cfg.Source.S3); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown source type: %q (supported: none, directory, s3)", cfg.Source.Type)
	}

	// ========================================================================
	// Step 2: Fixture Structure
	// ========================================================================

	if cfg.Fixture.Structure != "" {
		if err := fixture.BuildFile(dev.Root(), cfg.Fixture.Structure, owner); err != nil {
			return nil, fmt.Errorf("failed to build fixture: %w", err)
		}
		dev.ReportUsage()
		logger.Info("Fixture structure built from %s", cfg.Fixture.Structure)
	}

	return dev, nil
}

// decodeSection decodes a type-specific section into out.
//
// Scalars are weakly typed so values coming from environment variables
// ("true", "10") decode into bools and numbers. Unknown keys are rejected.
// Every problem is reported prefixed with the section's key path.
func decodeSection(section string, options map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(options); err != nil {
		var decodeErr *mapstructure.Error
		if !errors.As(err, &decodeErr) {
			return fmt.Errorf("%s: %w", section, err)
		}

		var errs *multierror.Error
		for _, msg := range decodeErr.Errors {
			errs = multierror.Append(errs, fmt.Errorf("%s: %s", section, strings.TrimSpace(msg)))
		}
		return errs.ErrorOrNil()
	}
	return nil
}

// decodeDirectorySource decodes and validates the "directory" source section.
func decodeDirectorySource(options map[string]any) (*DirectorySourceConfig, error) {
	var srcCfg DirectorySourceConfig
	if err := decodeSection("source.directory", options, &srcCfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if srcCfg.Path == "" {
		return nil, fmt.Errorf("source.directory.path is required")
	}

	return &srcCfg, nil
}

// decodeS3Source decodes and validates the "s3" source section.
func decodeS3Source(options map[string]any) (*s3src.Config, error) {
	var srcCfg s3src.Config
	if err := decodeSection("source.s3", options, &srcCfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if srcCfg.Bucket == "" {
		return nil, fmt.Errorf("source.s3.bucket is required")
	}

	if srcCfg.Region == "" {
		return nil, fmt.Errorf("source.s3.region is required")
	}

	return &srcCfg, nil
}

// importDirectorySource mirrors a local directory into the device root.
func importDirectorySource(dev *vfs.Device, options map[string]any) error {
	srcCfg, err := decodeDirectorySource(options)
	if err != nil {
		return err
	}

	if err := dev.BuildFromDirectory(afero.NewOsFs(), srcCfg.Path, srcCfg.IncludeContents); err != nil {
		return fmt.Errorf("failed to import %s: %w", srcCfg.Path, err)
	}

	return nil
}

// importS3Source mirrors an S3 bucket prefix into the device root.
func importS3Source(ctx context.Context, dev *vfs.Device, options map[string]any) error {
	srcCfg, err := decodeS3Source(options)
	if err != nil {
		return err
	}

	client, err := s3src.NewClient(ctx, *srcCfg)
	if err != nil {
		return fmt.Errorf("failed to create S3 client: %w", err)
	}

	if err := s3src.Import(ctx, dev, client, *srcCfg); err != nil {
		return fmt.Errorf("failed to import s3://%s/%s: %w", srcCfg.Bucket, srcCfg.Prefix, err)
	}

	logger.Info("S3 source imported: bucket=%s, region=%s, prefix=%s",
		srcCfg.Bucket, srcCfg.Region, srcCfg.Prefix)

	return nil
}

// ConfigureLogging applies the logging section to the package logger.
//
// Returns a closer for the log destination. Closing it is a no-op for
// stdout and stderr.
func ConfigureLogging(cfg LoggingConfig) (io.Closer, error) {
	logger.SetLevel(cfg.Level)
	logger.SetFormat(cfg.Format)
	return logger.SetOutputPath(cfg.Output)
}
