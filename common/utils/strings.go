package utils

import "unicode/utf8"

// TruncateUtf8 returns the longest prefix of s that fits in maxBytes without splitting a multi-byte character.
func TruncateUtf8(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	if maxBytes <= 0 {
		return ""
	}
	n := maxBytes
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
