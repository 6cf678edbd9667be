package signup

import "regexp"

// emailRegex is a syntactic approximation of an address, not RFC 5322:
// word characters, dots and hyphens before the @, one or more labelled
// domain segments, and a final segment of 2 to 4 characters.
var emailRegex = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)

// IsValidEmail reports whether s looks like an email address.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}
