// internal/cypher/validator.go
package cypher

import (
	"fmt"
	"regexp"
	"strings"

	"cypher-catalog/internal/models"
)

// Mode selects the validation policy.
type Mode int

const (
	// ReadOnly rejects any statement containing a mutating keyword.
	ReadOnly Mode = iota
	// Administrative allows mutations; used by the maintenance tooling only.
	Administrative
)

func (m Mode) String() string {
	if m == Administrative {
		return "administrative"
	}
	return "read-only"
}

// Matches whole words anywhere in the text, string literals included.
var mutatingKeyword = regexp.MustCompile(`(?i)\b(create|merge|delete|remove|set|drop|detach)\b`)

// Validate decides whether query may be executed under mode.
func Validate(query string, mode Mode) models.ValidationVerdict {
	if strings.TrimSpace(query) == "" {
		return models.Reject("empty query")
	}
	if mode == Administrative {
		return models.Allow()
	}
	if m := mutatingKeyword.FindString(query); m != "" {
		return models.Reject(fmt.Sprintf("query contains disallowed operation: %s", strings.ToUpper(m)))
	}
	return models.Allow()
}

// IsReadOnly is shorthand for Validate(query, ReadOnly).Allowed.
func IsReadOnly(query string) bool {
	return Validate(query, ReadOnly).Allowed
}
