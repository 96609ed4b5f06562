package utils

import (
	"fmt"
	"unicode/utf8"
)

// Payload size limits (in bytes)
const (
	MaxCodeSize    = 256 * 1024 // single App.js buffer
	MaxMessageSize = 4 * 1024   // one inbound WebSocket message
)

// ValidateString checks length bounds (in runes) and presence
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if value == "" {
		if required {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
	if !utf8.ValidString(value) {
		return fmt.Errorf("%s must be valid UTF-8", fieldName)
	}

	n := utf8.RuneCountInString(value)
	if n < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if maxLen > 0 && n > maxLen {
		return fmt.Errorf("%s must be at most %d characters", fieldName, maxLen)
	}
	return nil
}

// ValidateCode checks an edited source buffer. Empty code is allowed; the
// builder decides whether it compiles.
func ValidateCode(code string) error {
	if len(code) > MaxCodeSize {
		return fmt.Errorf("code size %d bytes exceeds maximum %d bytes", len(code), MaxCodeSize)
	}
	if !utf8.ValidString(code) {
		return fmt.Errorf("code must be valid UTF-8")
	}
	return nil
}
