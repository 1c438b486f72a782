package identity

import (
	"strings"
)

// NotApplicable marks cells that carry no usable value. Rows whose
// identifier equals it are dropped before reconciliation.
const NotApplicable = "N/A"

// CanonicalKey is the merge key for users: identifiers that fold to the
// same key describe the same person or credential.
func CanonicalKey(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func IsEmail(identifier string) bool {
	at := strings.Index(identifier, "@")
	return at > 0 && at < len(identifier)-1
}

// Humanize derives a display name from an email local part: segments
// split on '.', '_' and '-' are title-cased. Non-email identifiers are
// returned unchanged.
func Humanize(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if !IsEmail(identifier) {
		return identifier
	}
	local := identifier[:strings.Index(identifier, "@")]
	segments := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})
	if len(segments) == 0 {
		return identifier
	}
	for i, seg := range segments {
		segments[i] = titleCase(seg)
	}
	return strings.Join(segments, " ")
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
