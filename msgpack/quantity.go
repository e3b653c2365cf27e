package measuremsgpack

import (
	"fmt"

	"measure"

	"github.com/vmihailenco/msgpack/v5"
)

type BaseUnit struct {
	Name     string  `msgpack:"name,omitempty"`
	Category string  `msgpack:"category,omitempty"`
	Scale    float64 `msgpack:"scale,omitempty"`
}

type Unit struct {
	Name        string     `msgpack:"name,omitempty"`
	Numerator   []BaseUnit `msgpack:"num,omitempty"`
	Denominator []BaseUnit `msgpack:"den,omitempty"`
}

type Quantity struct {
	Magnitude float64 `msgpack:"mag"`
	Unit      Unit    `msgpack:"unit"`
}

func NewUnit(u measure.Unit) Unit {
	return Unit{
		Name:        u.Name(),
		Numerator:   newBaseUnits(u.Numerator()),
		Denominator: newBaseUnits(u.Denominator()),
	}
}

func NewQuantity(q measure.Quantity) Quantity {
	return Quantity{Magnitude: q.Magnitude, Unit: NewUnit(q.Unit)}
}

func newBaseUnits(terms []measure.BaseUnit) []BaseUnit {
	if len(terms) == 0 {
		return nil
	}
	out := make([]BaseUnit, len(terms))
	for i, t := range terms {
		out[i] = BaseUnit{Name: t.Name, Category: t.Category, Scale: t.Scale}
	}
	return out
}

func toBaseUnits(terms []BaseUnit) []measure.BaseUnit {
	if len(terms) == 0 {
		return nil
	}
	out := make([]measure.BaseUnit, len(terms))
	for i, t := range terms {
		out[i] = measure.BaseUnit{Name: t.Name, Category: t.Category, Scale: t.Scale}
	}
	return out
}

// ToUnit rebuilds the unit and links it to r, which may be nil.
func (u Unit) ToUnit(r *measure.Registry) measure.Unit {
	num, den := toBaseUnits(u.Numerator), toBaseUnits(u.Denominator)
	var unit measure.Unit
	if u.Name == "" || u.Name == measure.NewUnit(num, den).Name() {
		unit = measure.NewUnit(num, den)
	} else {
		unit = measure.NewNamedUnit(u.Name, num, den)
	}
	return unit.LinkedTo(r)
}

func (q Quantity) ToQuantity(r *measure.Registry) measure.Quantity {
	return measure.NewQuantity(q.Magnitude, q.Unit.ToUnit(r))
}

// Validate rejects terms that cannot take part in a conversion: a
// non-positive scale or a missing category.
func (q Quantity) Validate() error {
	for _, t := range append(append([]BaseUnit(nil), q.Unit.Numerator...), q.Unit.Denominator...) {
		if t.Scale <= 0 || t.Category == "" {
			return fmt.Errorf("bad term %q: %w", t.Name, measure.ErrInvalidOperand)
		}
	}
	return nil
}

func Marshal(q measure.Quantity) ([]byte, error) {
	return msgpack.Marshal(NewQuantity(q))
}

// Unmarshal decodes a quantity written by Marshal and links its unit to r.
func Unmarshal(data []byte, r *measure.Registry) (measure.Quantity, error) {
	var w Quantity
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return measure.Quantity{}, fmt.Errorf("decode quantity: %w", err)
	}
	if err := w.Validate(); err != nil {
		return measure.Quantity{}, fmt.Errorf("decode quantity: %w", err)
	}
	return w.ToQuantity(r), nil
}
