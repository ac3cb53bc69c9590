package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters (got %d)", len(c.Auth.JWTSecret))
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0 (got %s)", c.Auth.TokenTTL)
	}

	if err := c.Listing.validate(); err != nil {
		return fmt.Errorf("listing: %w", err)
	}

	if err := c.Upload.validate(); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	if c.RateLimit.UploadsPerMinute <= 0 {
		return fmt.Errorf("rate_limit.uploads_per_minute must be > 0 (got %d)", c.RateLimit.UploadsPerMinute)
	}

	return nil
}

func (l *ListingConfig) validate() error {
	if l.MaxImages <= 0 {
		return fmt.Errorf("max_images must be > 0 (got %d)", l.MaxImages)
	}
	if l.MaxFeatures <= 0 {
		return fmt.Errorf("max_features must be > 0 (got %d)", l.MaxFeatures)
	}
	return nil
}

func (u *UploadConfig) validate() error {
	if !u.Enabled() {
		return nil
	}
	if !strings.HasPrefix(u.MongoURI, "mongodb://") && !strings.HasPrefix(u.MongoURI, "mongodb+srv://") {
		return fmt.Errorf("mongo_uri must start with mongodb:// or mongodb+srv://")
	}
	if u.Bucket == "" {
		return fmt.Errorf("bucket is required")
	}
	if u.MaxBytes <= 0 {
		return fmt.Errorf("max_bytes must be > 0 (got %d)", u.MaxBytes)
	}
	u.PublicBaseURL = strings.TrimRight(u.PublicBaseURL, "/")
	return nil
}
