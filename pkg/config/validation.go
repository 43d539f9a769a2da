package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for rules that cannot
// be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	if _, err := cfg.Device.QuotaBytes(); err != nil {
		return fmt.Errorf("device.quota: %w", err)
	}

	// Decode errors already carry the section's key path
	switch cfg.Source.Type {
	case "directory":
		if _, err := decodeDirectorySource(cfg.Source.Directory); err != nil {
			return err
		}
	case "s3":
		if _, err := decodeS3Source(cfg.Source.S3); err != nil {
			return err
		}
	}

	if cfg.Fixture.Structure != "" {
		if info, err := os.Stat(cfg.Fixture.Structure); err != nil || !info.Mode().IsRegular() {
			return fmt.Errorf("fixture.structure: %q is not a readable file", cfg.Fixture.Structure)
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
