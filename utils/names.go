package utils

import (
	"regexp"
	"strings"
)

// NormalizeName trims a facility or state name and collapses inner runs of whitespace,
// so "Hospital  Melaka " and "Hospital Melaka" resolve to the same lookup key.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// StripMention removes every occurrence of a bot handle (e.g. "@mybot") from text
// and reports whether it was present. Matching ignores case.
func StripMention(text, handle string) (string, bool) {
	if handle == "" {
		return text, false
	}
	if !strings.HasPrefix(handle, "@") {
		handle = "@" + handle
	}

	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(handle))
	if !re.MatchString(text) {
		return text, false
	}
	return strings.TrimSpace(re.ReplaceAllLiteralString(text, "")), true
}
