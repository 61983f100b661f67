package utils

import (
	"path"
	"strings"
)

const imageEndpoint = "/eventos/eventos/image/"

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// ImageURL resolves the image path stored on an event to the URL the
// image endpoint serves it from. Absolute URLs pass through.
func ImageURL(baseURL, raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	name := raw
	if strings.HasPrefix(raw, "/uploads/") {
		name = path.Base(raw)
	}
	return strings.TrimRight(baseURL, "/") + imageEndpoint + name
}

func IsValidImageURL(raw string) bool {
	if raw == "" {
		return false
	}
	lower := strings.ToLower(raw)
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
