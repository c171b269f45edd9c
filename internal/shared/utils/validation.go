package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Payload size limits (in bytes)
const (
	MaxSourceSize  = 512 * 1024 // 512KB - per markup/styles/script fragment
	MaxMessageSize = 16 * 1024  // 16KB - single relayed console message
	MaxQuerySize   = 256        // search query length
)

// String length limits
const (
	MaxIDLength    = 128
	MaxTitleLength = 256
	MaxNameLength  = 128
	MaxTagLength   = 32
	MaxTagCount    = 20
)

// SafeIDPattern allows alphanumeric, hyphens, underscores
var SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}

	if id != "" && !SafeIDPattern.MatchString(id) {
		return fmt.Errorf("%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}

	return nil
}

// ValidateTitle validates a pen title. Empty titles are allowed and
// replaced with a default by the store.
func ValidateTitle(title string) error {
	return ValidateString(title, "title", 0, MaxTitleLength, false)
}

// ValidateSource validates one code fragment by size only. Content is never
// inspected: malformed markup or script is the author's business.
func ValidateSource(source, fieldName string) error {
	if len(source) > MaxSourceSize {
		return fmt.Errorf("%s exceeds maximum size of %d bytes", fieldName, MaxSourceSize)
	}
	return nil
}

// ValidateQuery validates a search query
func ValidateQuery(query string) error {
	return ValidateString(query, "query", 0, MaxQuerySize, false)
}

// ValidateTags validates an array of tags
func ValidateTags(tags []string) error {
	if len(tags) > MaxTagCount {
		return fmt.Errorf("too many tags (maximum %d)", MaxTagCount)
	}

	for i, tag := range tags {
		if err := ValidateString(tag, fmt.Sprintf("tag[%d]", i), 1, MaxTagLength, false); err != nil {
			return err
		}
	}

	return nil
}

// ValidateMessage validates a relayed console message
func ValidateMessage(message string) error {
	if len(message) > MaxMessageSize {
		return fmt.Errorf("message exceeds maximum size of %d bytes", MaxMessageSize)
	}
	return nil
}
