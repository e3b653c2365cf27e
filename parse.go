package measure

import (
	"fmt"
	"strconv"
	"strings"
)

func isExpression(name string) bool {
	return strings.ContainsAny(name, "*/^")
}

// parse reads a unit expression in display form: factors joined by '*',
// with everything after the first '/' in the denominator, so "a*b/c*d" is
// (a*b)/(c*d) and a unit's Name parses back to the same unit. Factors take
// an optional integer power, "m^2" or "m**2".
func (r *Registry) parse(expr string, depth int) (Unit, error) {
	src := strings.ReplaceAll(expr, "**", "^")
	result := r.linked(Dimensionless())
	for side, part := range strings.Split(src, "/") {
		for _, factor := range strings.Split(part, "*") {
			factor = strings.TrimSpace(factor)
			if factor == "" {
				return Unit{}, fmt.Errorf("parse %q: empty factor: %w", expr, ErrUnresolvedName)
			}
			if factor == "1" {
				continue
			}
			base, power, err := splitPower(factor)
			if err != nil {
				return Unit{}, fmt.Errorf("parse %q: %w", expr, err)
			}
			u, err := r.resolve(base, depth)
			if err != nil {
				return Unit{}, fmt.Errorf("parse %q: %w", expr, err)
			}
			if side > 0 {
				power = -power
			}
			for ; power > 0; power-- {
				result = result.Multiply(u)
			}
			for ; power < 0; power++ {
				result = result.Divide(u)
			}
		}
	}
	return result, nil
}

// maxPower bounds the exponent of a single factor.
const maxPower = 64

func splitPower(factor string) (string, int, error) {
	base, exp, ok := strings.Cut(factor, "^")
	if !ok {
		return factor, 1, nil
	}
	base = strings.TrimSpace(base)
	power, err := strconv.Atoi(strings.TrimSpace(exp))
	if err != nil || base == "" || isExpression(base) || power > maxPower || power < -maxPower {
		return "", 0, &UnresolvedNameError{Name: factor}
	}
	return base, power, nil
}
