package domain

import "strings"

// NormalizeText trims leading/trailing whitespace from a free-text member field.
// Internal whitespace is preserved; batch labels such as "2021 - 2025" are stored as typed.
func NormalizeText(s string) string {
	return strings.TrimSpace(s)
}
