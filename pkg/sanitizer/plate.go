package sanitizer

import (
	"strings"
	"unicode"
)

// NormalizePlate uppercases a vehicle plate and strips everything except
// letters and digits, so "ab-123 cd" and "AB123CD" store identically.
func NormalizePlate(plate string) string {
	var result strings.Builder
	for _, r := range plate {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(unicode.ToUpper(r))
		}
	}
	return result.String()
}
