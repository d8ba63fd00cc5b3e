// Package media fronts the upload CDN. Uploads go to an unsigned-preset
// endpoint and return a stable public URL; nothing about a message is written
// until that URL exists.
package media

import (
	"context"
	"io"
	"net/url"

	"pairchat-service/internal/apperrors"
)

// Uploader sends a file payload to the media store and returns its stable
// content reference.
type Uploader interface {
	Upload(ctx context.Context, fileName string, payload io.Reader, folder string) (string, error)
}

// ValidContentRef reports whether ref is a resolved content reference: an
// absolute http(s) URL with a host. Dangling or relative references are
// rejected before any record is written.
func ValidContentRef(ref string) bool {
	parsed, err := url.Parse(ref)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// RequireContentRef validates ref and wraps the failure in the taxonomy.
func RequireContentRef(ref string) error {
	if !ValidContentRef(ref) {
		return apperrors.Errorf(apperrors.InvalidArgument, "unresolved content reference %q", ref)
	}
	return nil
}
