package constraint

import (
	"strings"

	"github.com/samber/lo"
)

const (
	orToken       = "||"
	equalityToken = "="
)

// Parse turns an expression like "= 1.0.1 || = 1.0.2" into the exact
// versions it names, in input order. The result is never empty.
func Parse(expr string) []string {
	segments := strings.Split(expr, orToken)
	versions := lo.Map(segments, func(segment string, _ int) string {
		segment = strings.TrimSpace(segment)
		return strings.TrimSpace(strings.TrimPrefix(segment, equalityToken))
	})
	if len(versions) == 0 {
		return []string{strings.TrimSpace(expr)}
	}
	return versions
}

// Split breaks an expression into its OR operands, keeping the equality
// marker and dropping empty operands.
func Split(expr string) []string {
	segments := lo.Map(strings.Split(expr, orToken), func(segment string, _ int) string {
		return strings.TrimSpace(segment)
	})
	return lo.Compact(segments)
}

// Normalize returns a single operand in the "= <version>" form.
func Normalize(operand string) string {
	operand = strings.TrimSpace(operand)
	if strings.HasPrefix(operand, equalityToken) {
		return operand
	}
	return equalityToken + " " + operand
}
