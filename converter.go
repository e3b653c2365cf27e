package measure

import (
	"math"
	"sort"
	"strings"
)

// Simplify cancels numerator and denominator terms of the same category.
// Each cancelled pair multiplies the returned factor by
// numerator.Scale / denominator.Scale, so that
// magnitude * factor is the same amount expressed in the simplified unit.
//
// Numerator terms are visited in order and each cancels the first remaining
// denominator term of its category; surviving terms keep their order.
func (u Unit) Simplify() (float64, Unit) {
	factor := 1.0
	cancelled := make([]bool, len(u.denominator))
	var num []BaseUnit
	for _, n := range u.numerator {
		match := -1
		for j, d := range u.denominator {
			if !cancelled[j] && d.Category == n.Category {
				match = j
				break
			}
		}
		if match < 0 {
			num = append(num, n)
			continue
		}
		cancelled[match] = true
		factor *= n.Scale / u.denominator[match].Scale
	}

	var den []BaseUnit
	for j, d := range u.denominator {
		if !cancelled[j] {
			den = append(den, d)
		}
	}
	if len(num) == len(u.numerator) {
		// nothing cancelled, keep the display name
		return 1, u
	}
	return factor, newUnit("", num, den, u.registry)
}

// ConversionFactor returns the number that converts a magnitude expressed
// in u into the same amount expressed in to. Units of different types
// cannot be converted and return a *TypeMismatchError.
func (u Unit) ConversionFactor(to Unit) (float64, error) {
	if u.UnitType() != to.UnitType() {
		return 0, newTypeMismatch(u, to)
	}
	return u.Scale() / to.Scale(), nil
}

func Simplify(u Unit) (float64, Unit) {
	return u.Simplify()
}

func ConversionFactor(from, to Unit) (float64, error) {
	return from.ConversionFactor(to)
}

// unitType renders the net category signature of the terms. Categories
// present on both sides cancel, scale-only terms are ignored and each side
// is sorted so that the result only depends on the multiset.
func unitType(numerator, denominator []BaseUnit) string {
	net := make(map[string]int)
	for _, t := range numerator {
		if !t.isScaleOnly() {
			net[t.Category]++
		}
	}
	for _, t := range denominator {
		if !t.isScaleOnly() {
			net[t.Category]--
		}
	}

	var num, den []string
	for category, n := range net {
		for ; n > 0; n-- {
			num = append(num, category)
		}
		for ; n < 0; n++ {
			den = append(den, category)
		}
	}
	return joinCategories(num) + "/" + joinCategories(den)
}

func joinCategories(categories []string) string {
	if len(categories) == 0 {
		return CategoryDimensionless
	}
	sort.Strings(categories)
	return strings.Join(categories, "*")
}

const floatTolerance = 1e-12

func floatEqual(a, b float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= floatTolerance*math.Max(math.Abs(a), math.Abs(b))
}
