// Package utils provides bespoke, one off utils that don't make sense to be
// their own package
package utils

// PreviewLen is the character budget for memory previews in listings.
const PreviewLen = 100

// Truncate shortens s to at most maxLen characters, appending an ellipsis
// when anything was cut. The limit counts runes, not bytes, so multi-byte
// text is never split mid-character.
func Truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
