package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// LiveStreamIDRegex matches identifiers the platform hands out.
	LiveStreamIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	HTTPSchemes   = []string{"http", "https"}
	IngestSchemes = []string{"rtmp", "rtmps"}
)

const maxLiveStreamIDLength = 255

// ValidateLiveStreamID checks that id can be placed in a request path as-is.
func ValidateLiveStreamID(id string) error {
	if id == "" {
		return fmt.Errorf("live stream ID is required")
	}
	if len(id) > maxLiveStreamIDLength {
		return fmt.Errorf("live stream ID is too long (max %d characters)", maxLiveStreamIDLength)
	}
	if !LiveStreamIDRegex.MatchString(id) {
		return fmt.Errorf("invalid live stream ID format")
	}
	return nil
}

// ValidateURL validates URL format and restricts the scheme to one of schemes.
func ValidateURL(urlStr string, schemes ...string) error {
	if urlStr == "" {
		return fmt.Errorf("URL is required")
	}
	u, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	if !contains(schemes, u.Scheme) {
		return fmt.Errorf("invalid URL scheme %q (must be %s)", u.Scheme, strings.Join(schemes, " or "))
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

// ValidateNonEmptyString validates that string is not empty after trimming
func ValidateNonEmptyString(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
