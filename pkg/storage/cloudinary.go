package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// CloudinaryConfig contains credentials required to talk to Cloudinary.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Cloudinary stores submission files as Cloudinary assets.
type Cloudinary struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// NewCloudinary constructs a Cloudinary-backed uploader.
func NewCloudinary(cfg CloudinaryConfig, logger zerolog.Logger) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Cloudinary{
		client: cld,
		folder: cfg.Folder,
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload stores the file under the same date-partitioned key the local
// backend uses. Documents go in as raw assets so they download unmodified.
func (s *Cloudinary) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	ext := strings.ToLower(path.Ext(name))
	key := strings.TrimSuffix(objectKey(name, time.Now()), ext)
	resourceType := resourceTypeFor(name)
	if resourceType == "raw" {
		// Raw assets keep the extension as part of the public id.
		key += ext
	}

	result, err := s.client.Upload.Upload(ctx, reader, uploader.UploadParams{
		Folder:       strings.Trim(s.folder, "/"),
		PublicID:     key,
		ResourceType: resourceType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload asset: %w", err)
	}

	s.logger.Info().
		Str("public_id", result.PublicID).
		Str("resource_type", resourceType).
		Int("bytes", result.Bytes).
		Msg("file uploaded to cloudinary")

	return result.SecureURL, nil
}

func resourceTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return "image"
	default:
		return "raw"
	}
}
