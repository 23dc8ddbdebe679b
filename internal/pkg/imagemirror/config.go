package imagemirror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cosanostra/blacklink/internal/pkg/env"
	"github.com/google/uuid"
)

// Config holds S3 image mirror configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // Where mirrored objects are served from
	Enabled         bool
}

// LoadConfig loads mirror configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),
		Enabled:         env.GetEnv("S3_MIRROR_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when the image mirror is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when the image mirror is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when the image mirror is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if image mirroring is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// NewObjectKey generates a standardized object key for a mirrored product
// image. Format: products/<username>/<uuid>.<ext>
func (c *Config) NewObjectKey(username, fileExtension string) string {
	ext := strings.TrimPrefix(fileExtension, ".")
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("products/%s/%s.%s", username, uuid.NewString(), ext)
}

// PublicURL resolves the serving URL for an object key
func (c *Config) PublicURL(objectKey string) string {
	if c.PublicBaseURL != "" {
		return strings.TrimRight(c.PublicBaseURL, "/") + "/" + objectKey
	}
	if c.EndpointURL != "" {
		return strings.TrimRight(c.EndpointURL, "/") + "/" + c.BucketName + "/" + objectKey
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", c.BucketName, c.Region, objectKey)
}
