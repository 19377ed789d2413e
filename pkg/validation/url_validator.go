package validation

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	apperrors "go-entropy-forensics/internal/errors"
)

// maxMediaURLLen caps accepted URLs; the fetchers pass them on verbatim
// and extremely long URLs are a request-smuggling smell, not media.
const maxMediaURLLen = 2048

// URLValidator enforces the media-fetch URL policy: which schemes and
// hosts a scan request may point at, and optionally which media file
// extensions. Embedded credentials are always rejected because the
// fetch layer would forward them to a third party.
type URLValidator struct {
	allowedSchemes    []string
	allowedHosts      []string
	allowedExtensions []string
}

// NewURLValidator creates a validator with the default policy: http and
// https, any host, any extension.
func NewURLValidator() *URLValidator {
	return &URLValidator{
		allowedSchemes: []string{"http", "https"},
		allowedHosts:   []string{}, // empty means all hosts allowed
	}
}

// NewURLValidatorWithOptions creates a URL validator with custom scheme
// and host allowlists
func NewURLValidatorWithOptions(schemes []string, hosts []string) *URLValidator {
	return &URLValidator{
		allowedSchemes: schemes,
		allowedHosts:   hosts,
	}
}

// WithMediaExtensions restricts accepted URL paths to the given media
// extensions (e.g. ".png", ".gif"). Matching ignores case.
func (v *URLValidator) WithMediaExtensions(exts ...string) *URLValidator {
	v.allowedExtensions = nil
	for _, ext := range exts {
		v.allowedExtensions = append(v.allowedExtensions, strings.ToLower(ext))
	}
	return v
}

// ValidateMediaURL validates if the provided URL is acceptable for media scanning
func (v *URLValidator) ValidateMediaURL(mediaURL string) error {
	if strings.TrimSpace(mediaURL) == "" {
		return apperrors.NewValidationError("URL cannot be empty", nil)
	}
	if len(mediaURL) > maxMediaURLLen {
		return apperrors.NewValidationError(
			fmt.Sprintf("URL exceeds %d characters", maxMediaURLLen), nil)
	}

	parsedURL, err := url.Parse(mediaURL)
	if err != nil {
		return apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if parsedURL.User != nil {
		return apperrors.NewValidationError("URL must not embed credentials", nil)
	}

	if len(v.allowedHosts) > 0 && !v.isHostAllowed(parsedURL.Hostname()) {
		return apperrors.NewValidationError("URL host not allowed", nil)
	}

	if len(v.allowedExtensions) > 0 && !v.isExtensionAllowed(parsedURL.Path) {
		return apperrors.NewValidationError("URL does not point at a recognized media type", nil)
	}

	return nil
}

// isSchemeAllowed checks if the URL scheme is in the allowed list
func (v *URLValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if scheme == allowed {
			return true
		}
	}
	return false
}

// isHostAllowed checks if the URL host is in the allowed list
// Returns true if no host restrictions are set (empty allowedHosts)
func (v *URLValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}

// isExtensionAllowed checks the path extension against the media
// allowlist, ignoring the query string
func (v *URLValidator) isExtensionAllowed(urlPath string) bool {
	ext := strings.ToLower(path.Ext(urlPath))
	for _, allowed := range v.allowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
