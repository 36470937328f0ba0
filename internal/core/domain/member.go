package domain

import "strings"

// NormalizeAadhaar strips spaces and dashes and checks for exactly 12 digits
func NormalizeAadhaar(raw string) (string, bool) {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	if len(cleaned) != 12 {
		return "", false
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return cleaned, true
}
