// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"

	"github.com/dalemusser/waffle/pantry/text"
)

// Name trims surrounding whitespace and collapses inner runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NameCI is the case-folded form stored alongside a name for uniqueness
// checks and sorting.
func NameCI(s string) string {
	return text.Fold(Name(s))
}

// Text trims surrounding whitespace but keeps inner line breaks, for
// free-form fields such as descriptions.
func Text(s string) string {
	return strings.TrimSpace(s)
}

// InvitationCode trims and upper-cases a user-entered invitation code.
func InvitationCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Role lower-cases and trims a role string.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Email lower-cases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ID trims an opaque identifier taken from a path or body.
func ID(s string) string {
	return strings.TrimSpace(s)
}
