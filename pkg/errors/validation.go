package errors

import (
	"strings"
	"unicode"
)

// Boundary limits for prediction requests collected from users.
const (
	minPostalCodeLen = 5
	minProductIDLen  = 3
	maxProductIDLen  = 64
)

// ValidatePostalCode validates a destination postal code.
// Postal codes must be at least five characters long and numeric only.
func ValidatePostalCode(cp string) error {
	cp = strings.TrimSpace(cp)
	if cp == "" {
		return New(ErrCodeInvalidInput, "postal code cannot be empty")
	}
	if len(cp) < minPostalCodeLen {
		return New(ErrCodeInvalidInput, "postal code must have at least %d digits", minPostalCodeLen)
	}
	for _, r := range cp {
		if !unicode.IsDigit(r) {
			return New(ErrCodeInvalidInput, "postal code must be numeric: %q", cp)
		}
	}
	return nil
}

// ValidateProductID validates a product (SKU) identifier.
//
// The validation rules are intentionally conservative:
//   - At least 3 characters
//   - No control characters
//   - Maximum length of 64 characters
func ValidateProductID(id string) error {
	id = strings.TrimSpace(id)
	if len(id) < minProductIDLen {
		return New(ErrCodeInvalidInput, "product id must have at least %d characters", minProductIDLen)
	}
	if len(id) > maxProductIDLen {
		return New(ErrCodeInvalidInput, "product id too long (max %d characters)", maxProductIDLen)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "product id contains invalid control characters")
		}
	}
	return nil
}

// ValidateQuantity validates the requested unit count.
func ValidateQuantity(n int) error {
	if n < 1 {
		return New(ErrCodeInvalidInput, "quantity must be at least 1, got %d", n)
	}
	return nil
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
