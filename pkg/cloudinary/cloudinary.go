// Package cloudinary stores lesson materials (PDFs, images, audio) in
// Cloudinary, organised into tutor- and lesson-scoped folders so a tutor's
// media library mirrors their catalog.
package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials and the root folder for material uploads.
type Config struct {
	CloudName  string
	APIKey     string
	APISecret  string
	RootFolder string
}

// MaterialStore uploads lesson materials to Cloudinary.
type MaterialStore struct {
	client *cloudinary.Cloudinary
	root   string
	logger zerolog.Logger
}

// New constructs a material store backed by Cloudinary.
func New(cfg Config, logger zerolog.Logger) (*MaterialStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &MaterialStore{
		client: cld,
		root:   strings.Trim(cfg.RootFolder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// UploadMaterial stores one lesson material and returns its delivery URL.
// Materials for a persisted lesson land in that lesson's folder; uploads that
// happen before the lesson has an ID stay at the tutor level.
func (s *MaterialStore) UploadMaterial(ctx context.Context, tutorID, lessonID uint, filename string, reader io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:       s.materialFolder(tutorID, lessonID),
		PublicID:     materialPublicID(filename),
		ResourceType: "auto",
	}

	result, err := s.client.Upload.Upload(ctx, reader, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload material: %w", err)
	}

	s.logger.Info().
		Uint("tutor_id", tutorID).
		Uint("lesson_id", lessonID).
		Str("public_id", result.PublicID).
		Msg("lesson material uploaded")

	return result.SecureURL, nil
}

func (s *MaterialStore) materialFolder(tutorID, lessonID uint) string {
	segments := []string{s.root, fmt.Sprintf("tutor-%d", tutorID)}
	if lessonID != 0 {
		segments = append(segments, fmt.Sprintf("lesson-%d", lessonID))
	}

	return path.Join(segments...)
}

// materialPublicID turns an uploaded filename into a readable slug with a
// timestamp suffix, so re-uploads of the same file never collide.
func materialPublicID(filename string) string {
	slug := strings.ToLower(strings.TrimSuffix(filename, filepath.Ext(filename)))
	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, slug)

	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "material"
	}

	return fmt.Sprintf("%s-%d", slug, time.Now().Unix())
}
