package domain

import (
	"regexp"
)

// Validation Helpers

var (
	dottedQuadRegex    = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)
	hostnameLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?$`)
	lastOctetRegex     = regexp.MustCompile(`^\d{1,3}$`)
)

// IsDottedQuad checks if the string has the strict four-group dotted-quad
// shape. It does not range-check the octets.
func IsDottedQuad(s string) bool {
	return dottedQuadRegex.MatchString(s)
}

// IsOctetShorthand checks if the string is a bare 1-3 digit number, the
// short form for the last octet of a range end.
func IsOctetShorthand(s string) bool {
	return lastOctetRegex.MatchString(s)
}

// IsValidHostnameLabel checks one DNS label: 1-63 alphanumeric or hyphen
// characters, not starting or ending with a hyphen.
func IsValidHostnameLabel(label string) bool {
	return hostnameLabelRegex.MatchString(label)
}
