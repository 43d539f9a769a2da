package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected default config to be valid, got error: %v", err)
	}
}

func TestValidate(t *testing.T) {
	structure := filepath.Join(t.TempDir(), "structure.yaml")
	if err := os.WriteFile(structure, []byte("a: b\n"), 0644); err != nil {
		t.Fatalf("Failed to write structure: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "InvalidLogLevel",
			mutate:  func(c *Config) { c.Logging.Level = "VERBOSE" },
			wantErr: "Logging.Level",
		},
		{
			name:    "InvalidLogFormat",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "Logging.Format",
		},
		{
			name:    "InvalidQuota",
			mutate:  func(c *Config) { c.Device.Quota = "plenty" },
			wantErr: "device.quota",
		},
		{
			name: "RootModeTooLarge",
			mutate: func(c *Config) {
				mode := uint32(01000)
				c.Device.RootMode = &mode
			},
			wantErr: "Device.RootMode",
		},
		{
			name:    "NegativeOwner",
			mutate:  func(c *Config) { c.Device.Owner.UID = -1 },
			wantErr: "Device.Owner.UID",
		},
		{
			name:    "InvalidMetricsPort",
			mutate:  func(c *Config) { c.Metrics.Port = 70000 },
			wantErr: "Metrics.Port",
		},
		{
			name:    "DirectoryWithoutPath",
			mutate:  func(c *Config) { c.Source.Type = "directory" },
			wantErr: "source.directory.path is required",
		},
		{
			name: "S3WithoutRegion",
			mutate: func(c *Config) {
				c.Source.Type = "s3"
				c.Source.S3 = map[string]any{"bucket": "test"}
			},
			wantErr: "source.s3.region is required",
		},
		{
			name:    "MissingFixture",
			mutate:  func(c *Config) { c.Fixture.Structure = structure + ".missing" },
			wantErr: "fixture.structure",
		},
		{
			name:   "ExistingFixture",
			mutate: func(c *Config) { c.Fixture.Structure = structure },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Expected no error, got: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}
