package measure

import (
	"strings"

	"github.com/google/uuid"
)

const dimensionlessName = "dimensionless"

// Unit is a compound unit: a product of base units in the numerator divided
// by a product of base units in the denominator. Units are immutable; every
// operation returns a new value.
type Unit struct {
	numerator   []BaseUnit
	denominator []BaseUnit
	name        string
	unitType    string
	registry    uuid.UUID
}

// NewUnit builds a unit from its terms. The slices are copied.
func NewUnit(numerator, denominator []BaseUnit) Unit {
	return newUnit("", numerator, denominator, uuid.Nil)
}

// NewNamedUnit is NewUnit with a display name that replaces the name
// derived from the terms, e.g. "Hz" for 1/second.
func NewNamedUnit(name string, numerator, denominator []BaseUnit) Unit {
	return newUnit(name, numerator, denominator, uuid.Nil)
}

func FromBase(b BaseUnit) Unit {
	return NewUnit([]BaseUnit{b}, nil)
}

// Dimensionless returns the unit with no terms.
func Dimensionless() Unit {
	return NewUnit(nil, nil)
}

func newUnit(name string, numerator, denominator []BaseUnit, registry uuid.UUID) Unit {
	u := Unit{
		numerator:   cloneTerms(numerator),
		denominator: cloneTerms(denominator),
		registry:    registry,
	}
	if name == "" {
		name = renderName(u.numerator, u.denominator)
	}
	u.name = name
	u.unitType = unitType(u.numerator, u.denominator)
	return u
}

func cloneTerms(terms []BaseUnit) []BaseUnit {
	if len(terms) == 0 {
		return nil
	}
	return append([]BaseUnit(nil), terms...)
}

func renderName(numerator, denominator []BaseUnit) string {
	if len(numerator) == 0 && len(denominator) == 0 {
		return dimensionlessName
	}
	num := joinNames(numerator)
	if num == "" {
		num = "1"
	}
	if len(denominator) == 0 {
		return num
	}
	return num + "/" + joinNames(denominator)
}

func joinNames(terms []BaseUnit) string {
	names := make([]string, len(terms))
	for i, t := range terms {
		names[i] = t.Name
	}
	return strings.Join(names, "*")
}

func (u Unit) Numerator() []BaseUnit {
	return cloneTerms(u.numerator)
}

func (u Unit) Denominator() []BaseUnit {
	return cloneTerms(u.denominator)
}

// Name is the display name, e.g. "km", "H/mile" or "kW*h".
func (u Unit) Name() string {
	if u.name == "" {
		// zero Unit{}
		return dimensionlessName
	}
	return u.name
}

func (u Unit) String() string {
	return u.Name()
}

// UnitType is the dimensional signature of the unit, such as
// "[length]/[time]".
func (u Unit) UnitType() string {
	if u.unitType == "" {
		return unitType(nil, nil)
	}
	return u.unitType
}

func (u Unit) IsDimensionless() bool {
	return len(u.numerator) == 0 && len(u.denominator) == 0
}

// DimensionlessUnit returns the empty unit, linked to the same registry as u.
func (u Unit) DimensionlessUnit() Unit {
	return newUnit("", nil, nil, u.registry)
}

// Scale is the product of the numerator scales over the product of the
// denominator scales: the size of one u in canonical base units.
func (u Unit) Scale() float64 {
	scale := 1.0
	for _, t := range u.numerator {
		scale *= t.Scale
	}
	for _, t := range u.denominator {
		scale /= t.Scale
	}
	return scale
}

// RegistryID returns the handle of the registry u is linked to, or uuid.Nil.
func (u Unit) RegistryID() uuid.UUID {
	return u.registry
}

// Registry resolves the registry handle of u.
func (u Unit) Registry() (*Registry, bool) {
	if u.registry == uuid.Nil {
		return nil, false
	}
	return LookupRegistry(u.registry)
}

// LinkedTo returns a copy of u that resolves names through r. A nil r
// unlinks the copy.
func (u Unit) LinkedTo(r *Registry) Unit {
	id := uuid.Nil
	if r != nil {
		id = r.ID()
	}
	c := u
	c.registry = id
	return c
}

// Multiply concatenates the terms of u and o without cancelling anything.
func (u Unit) Multiply(o Unit) Unit {
	num := make([]BaseUnit, 0, len(u.numerator)+len(o.numerator))
	num = append(append(num, u.numerator...), o.numerator...)
	den := make([]BaseUnit, 0, len(u.denominator)+len(o.denominator))
	den = append(append(den, u.denominator...), o.denominator...)
	return newUnit("", num, den, linkOf(u, o))
}

func (u Unit) Invert() Unit {
	return newUnit("", u.denominator, u.numerator, u.registry)
}

func (u Unit) Divide(o Unit) Unit {
	return u.Multiply(o.Invert())
}

// Equal reports whether u and o describe the same unit once both are
// simplified: equal residual factors and the same terms on each side,
// regardless of order.
func (u Unit) Equal(o Unit) bool {
	fu, su := u.Simplify()
	fo, so := o.Simplify()
	if !floatEqual(fu, fo) {
		return false
	}
	return sameTerms(su.numerator, so.numerator) && sameTerms(su.denominator, so.denominator)
}

func linkOf(a, b Unit) uuid.UUID {
	if a.registry != uuid.Nil {
		return a.registry
	}
	return b.registry
}

func sameTerms(a, b []BaseUnit) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[BaseUnit]int, len(a))
	for _, t := range a {
		counts[t]++
	}
	for _, t := range b {
		if counts[t] == 0 {
			return false
		}
		counts[t]--
	}
	return true
}

// Multiply returns a*b without simplification.
func Multiply(a, b Unit) Unit {
	return a.Multiply(b)
}

// Divide returns a/b without simplification.
func Divide(a, b Unit) Unit {
	return a.Divide(b)
}
