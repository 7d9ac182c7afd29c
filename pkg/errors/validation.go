package errors

import (
	"strings"
	"unicode"
)

// ValidateTopic validates a user-supplied topic before it is sent to the
// generation backend.
//
// The validation rules are intentionally conservative:
//   - No empty topics
//   - No control characters (newlines and tabs allowed)
//   - Maximum length of 500 characters
func ValidateTopic(topic string) error {
	if strings.TrimSpace(topic) == "" {
		return New(ErrCodeInvalidTopic, "topic cannot be empty")
	}

	if len(topic) > 500 {
		return New(ErrCodeInvalidTopic, "topic too long (max 500 characters)")
	}

	for _, r := range topic {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return New(ErrCodeInvalidTopic, "topic contains invalid control characters")
		}
	}

	return nil
}

// ValidateNodeID validates a node identifier.
// IDs are free-form strings chosen by the generation backend, so the rules
// only guard against values that would break serialization or file paths.
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNodeID, "node id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidNodeID, "node id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNodeID, "node id contains invalid control characters")
		}
	}

	return nil
}

// ValidateExportFormat validates an export format name against the
// supported set.
func ValidateExportFormat(format string, supported []string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	for _, s := range supported {
		if format == s {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "unsupported format %q (supported: %s)", format, strings.Join(supported, ", "))
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
