// internal/cypher/builder.go
package cypher

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	apperrors "cypher-catalog/internal/common/errors"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Identifier returns name quoted for use as a label, relationship type or property key.
// Only letters, digits and underscores are accepted.
func Identifier(name string) (string, error) {
	if !identifierPattern.MatchString(name) {
		return "", apperrors.NewValidationRejectedError(fmt.Sprintf("invalid identifier %q", name))
	}
	return "`" + name + "`", nil
}

// ValidateIdentifiers checks every name and reports the first invalid one.
func ValidateIdentifiers(names ...string) error {
	for _, n := range names {
		if _, err := Identifier(n); err != nil {
			return err
		}
	}
	return nil
}

// Statement is query text plus its bound parameters.
type Statement struct {
	Text   string
	Params map[string]any
}

// Builder assembles a statement from trusted text fragments, checked identifiers and bound
// parameters. Values are never spliced into the text; the first error sticks.
type Builder struct {
	sb     strings.Builder
	params map[string]any
	err    error
}

func NewBuilder() *Builder {
	return &Builder{params: make(map[string]any)}
}

// Text appends a fixed fragment.
func (b *Builder) Text(s string) *Builder {
	if b.err == nil {
		b.sb.WriteString(s)
	}
	return b
}

// Ident appends a quoted identifier.
func (b *Builder) Ident(name string) *Builder {
	if b.err != nil {
		return b
	}
	q, err := Identifier(name)
	if err != nil {
		b.err = err
		return b
	}
	b.sb.WriteString(q)
	return b
}

// Label appends ":`name`".
func (b *Builder) Label(name string) *Builder {
	return b.Text(":").Ident(name)
}

// RelType is Label for relationship types.
func (b *Builder) RelType(name string) *Builder {
	return b.Label(name)
}

// Property appends ".`name`".
func (b *Builder) Property(name string) *Builder {
	return b.Text(".").Ident(name)
}

// Param appends "$name" and binds value to it.
func (b *Builder) Param(name string, value any) *Builder {
	if b.err != nil {
		return b
	}
	if !identifierPattern.MatchString(name) {
		b.err = apperrors.NewValidationRejectedError(fmt.Sprintf("invalid parameter name %q", name))
		return b
	}
	b.sb.WriteString("$")
	b.sb.WriteString(name)
	b.params[name] = value
	return b
}

// Bind binds a parameter without writing a placeholder, for parameters the text already names.
func (b *Builder) Bind(name string, value any) *Builder {
	if b.err == nil {
		b.params[name] = value
	}
	return b
}

// Int appends a decimal literal. Used where Cypher does not accept parameters, such as
// variable-length bounds.
func (b *Builder) Int(n int) *Builder {
	return b.Text(strconv.Itoa(n))
}

func (b *Builder) Build() (Statement, error) {
	if b.err != nil {
		return Statement{}, b.err
	}
	return Statement{Text: b.sb.String(), Params: b.params}, nil
}
