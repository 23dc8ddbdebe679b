package imagemirror

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/cosanostra/blacklink/app/models"
)

// maxImageBytes caps how much of an upstream image we will mirror.
const maxImageBytes = 10 << 20

// Client mirrors upstream product images into the configured S3 bucket so
// storefront pages do not hotlink Mercado Livre's CDN.
type Client struct {
	s3Client *s3.Client
	httpc    *http.Client
	config   *Config
}

// NewClient creates a new image mirror client
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.IsEnabled() {
		return nil, fmt.Errorf("image mirror is disabled")
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.EndpointURL != "" {
			o.BaseEndpoint = aws.String(cfg.EndpointURL)
			o.UsePathStyle = true
		}
	})

	client := &Client{
		s3Client: s3Client,
		httpc:    &http.Client{Timeout: 20 * time.Second},
		config:   cfg,
	}

	log.Infof("[ImageMirror] Initialized S3 client for bucket: %s", cfg.BucketName)
	return client, nil
}

// MirrorProductImage downloads the source image and uploads it to the
// bucket, returning the public URL of the mirrored copy.
func (c *Client) MirrorProductImage(ctx context.Context, username, sourceURL string) (string, error) {
	sourceURL = strings.TrimSpace(sourceURL)
	if sourceURL == "" {
		return "", fmt.Errorf("source image URL is empty")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch source image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("source image fetch failed: status=%d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read source image: %w", err)
	}
	if len(body) > maxImageBytes {
		return "", fmt.Errorf("source image exceeds %d bytes", maxImageBytes)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("source is not an image: %s", contentType)
	}

	objectKey := c.config.NewObjectKey(models.NormalizeUsername(username), extensionFor(contentType, sourceURL))

	_, err = c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.config.BucketName),
		Key:           aws.String(objectKey),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload mirrored image: %w", err)
	}

	log.Infof("[ImageMirror] Mirrored %s -> s3://%s/%s (%d bytes)",
		sourceURL, c.config.BucketName, objectKey, len(body))
	return c.config.PublicURL(objectKey), nil
}

func extensionFor(contentType, sourceURL string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	if ext := path.Ext(sourceURL); mime.TypeByExtension(ext) != "" {
		return ext
	}
	return ".jpg"
}
