package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"ticketly-client/internal/api"
	"ticketly-client/internal/logger"
)

const uploadPath = "/eventos/eventos/upload-image"

var ErrUnsupportedImage = errors.New("unsupported image type")

var allowedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
}

type UploadService struct {
	API    api.Requester
	Logger *logger.Logger
}

func NewUploadService(requester api.Requester, log *logger.Logger) *UploadService {
	return &UploadService{API: requester, Logger: log}
}

// UploadImage sends an event image as the multipart field "file" and
// returns the path the backend stored it under.
func (s *UploadService) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedImage, filename)
	}

	var resp struct {
		ImageURL string `json:"image_url"`
	}
	if err := s.API.PostMultipart(ctx, uploadPath, "file", filepath.Base(filename), r, &resp); err != nil {
		return "", fmt.Errorf("failed to upload image %s: %w", filename, err)
	}
	if resp.ImageURL == "" {
		return "", fmt.Errorf("failed to upload image %s: empty image_url", filename)
	}
	s.Logger.Info("UPLOADS", fmt.Sprintf("Image uploaded: %s", resp.ImageURL))
	return resp.ImageURL, nil
}
