package measure

import (
	"fmt"
	"math"
	"strconv"
)

// Quantity is a magnitude expressed in a unit. Quantities are values: every
// operation except Ito returns a new Quantity.
type Quantity struct {
	Magnitude float64
	Unit      Unit
}

func NewQuantity(magnitude float64, unit Unit) Quantity {
	return Quantity{Magnitude: magnitude, Unit: unit}
}

// FromScalar wraps a bare number as a dimensionless quantity.
func FromScalar(v float64) Quantity {
	return Quantity{Magnitude: v, Unit: Dimensionless()}
}

// Dimensionality is the unit type of q.
func (q Quantity) Dimensionality() string {
	return q.Unit.UnitType()
}

// To converts q into target.
func (q Quantity) To(target Unit) (Quantity, error) {
	factor, err := q.Unit.ConversionFactor(target)
	if err != nil {
		return Quantity{}, err
	}
	return Quantity{Magnitude: q.Magnitude * factor, Unit: target}, nil
}

// ToName converts q into the unit called name, resolved through the
// registry q's unit is linked to.
func (q Quantity) ToName(name string) (Quantity, error) {
	target, err := q.resolve(name)
	if err != nil {
		return Quantity{}, err
	}
	return q.To(target)
}

// Ito converts q in place. q is left untouched when the conversion fails.
func (q *Quantity) Ito(target Unit) error {
	converted, err := q.To(target)
	if err != nil {
		return err
	}
	*q = converted
	return nil
}

func (q *Quantity) ItoName(name string) error {
	converted, err := q.ToName(name)
	if err != nil {
		return err
	}
	*q = converted
	return nil
}

func (q Quantity) resolve(name string) (Unit, error) {
	r, ok := q.Unit.Registry()
	if !ok {
		return Unit{}, fmt.Errorf("convert %s to %q: %w", q.Unit.Name(), name, ErrNoRegistry)
	}
	return r.GetUnit(name)
}

// Add returns q+o in q's unit. Both quantities must share a unit type.
func (q Quantity) Add(o Quantity) (Quantity, error) {
	factor, err := o.Unit.ConversionFactor(q.Unit)
	if err != nil {
		return Quantity{}, fmt.Errorf("add: %w", err)
	}
	return Quantity{Magnitude: q.Magnitude + o.Magnitude*factor, Unit: q.Unit}, nil
}

func (q Quantity) Sub(o Quantity) (Quantity, error) {
	factor, err := o.Unit.ConversionFactor(q.Unit)
	if err != nil {
		return Quantity{}, fmt.Errorf("sub: %w", err)
	}
	return Quantity{Magnitude: q.Magnitude - o.Magnitude*factor, Unit: q.Unit}, nil
}

// Plus is Add for an operand of unknown type. Only quantities can be added;
// strip units with To(...).Magnitude first.
func (q Quantity) Plus(v any) (Quantity, error) {
	switch o := v.(type) {
	case Quantity:
		return q.Add(o)
	case *Quantity:
		if o != nil {
			return q.Add(*o)
		}
	}
	return Quantity{}, fmt.Errorf("cannot add Quantity and %T, use .To(unit).Magnitude to strip units first: %w", v, ErrInvalidOperand)
}

func (q Quantity) Neg() Quantity {
	return Quantity{Magnitude: -q.Magnitude, Unit: q.Unit}
}

func (q Quantity) Pos() Quantity {
	return q
}

func (q Quantity) Abs() Quantity {
	return Quantity{Magnitude: math.Abs(q.Magnitude), Unit: q.Unit}
}

// Round rounds the magnitude to ndigits decimals, halves to even.
func (q Quantity) Round(ndigits int) Quantity {
	p := math.Pow10(ndigits)
	return Quantity{Magnitude: math.RoundToEven(q.Magnitude*p) / p, Unit: q.Unit}
}

func (q Quantity) Trunc() Quantity {
	return Quantity{Magnitude: math.Trunc(q.Magnitude), Unit: q.Unit}
}

func (q Quantity) Floor() Quantity {
	return Quantity{Magnitude: math.Floor(q.Magnitude), Unit: q.Unit}
}

func (q Quantity) Ceil() Quantity {
	return Quantity{Magnitude: math.Ceil(q.Magnitude), Unit: q.Unit}
}

// Mul multiplies magnitudes and units, then simplifies the unit and folds
// the simplification factor into the magnitude.
func (q Quantity) Mul(o Quantity) Quantity {
	if o.Unit.IsDimensionless() {
		return Quantity{Magnitude: q.Magnitude * o.Magnitude, Unit: q.Unit}
	}
	factor, unit := q.Unit.Multiply(o.Unit).Simplify()
	return Quantity{Magnitude: q.Magnitude * o.Magnitude * factor, Unit: unit}
}

func (q Quantity) MulScalar(v float64) Quantity {
	return q.Mul(q.scalar(v))
}

// MulUnit attaches u to q without touching the magnitude: 5 * km.
func (q Quantity) MulUnit(u Unit) Quantity {
	return Quantity{Magnitude: q.Magnitude, Unit: q.Unit.Multiply(u)}
}

func (q Quantity) Div(o Quantity) Quantity {
	if o.Unit.IsDimensionless() {
		return Quantity{Magnitude: q.Magnitude / o.Magnitude, Unit: q.Unit}
	}
	factor, unit := q.Unit.Divide(o.Unit).Simplify()
	return Quantity{Magnitude: q.Magnitude / o.Magnitude * factor, Unit: unit}
}

func (q Quantity) DivScalar(v float64) Quantity {
	return q.Div(q.scalar(v))
}

func (q Quantity) DivUnit(u Unit) Quantity {
	return Quantity{Magnitude: q.Magnitude, Unit: q.Unit.Divide(u)}
}

// Times multiplies q by a Quantity, a Unit or a plain number.
func (q Quantity) Times(v any) (Quantity, error) {
	switch o := v.(type) {
	case Quantity:
		return q.Mul(o), nil
	case Unit:
		return q.MulUnit(o), nil
	}
	f, ok := toFloat(v)
	if !ok {
		return Quantity{}, fmt.Errorf("cannot multiply Quantity by %T: %w", v, ErrInvalidOperand)
	}
	return q.MulScalar(f), nil
}

// Over divides q by a Quantity, a Unit or a plain number.
func (q Quantity) Over(v any) (Quantity, error) {
	switch o := v.(type) {
	case Quantity:
		return q.Div(o), nil
	case Unit:
		return q.DivUnit(o), nil
	}
	f, ok := toFloat(v)
	if !ok {
		return Quantity{}, fmt.Errorf("cannot divide Quantity by %T: %w", v, ErrInvalidOperand)
	}
	return q.DivScalar(f), nil
}

func (q Quantity) scalar(v float64) Quantity {
	return Quantity{Magnitude: v, Unit: q.Unit.DimensionlessUnit()}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// Equal is strict: the magnitudes and the units must be identical. 1 km
// and 1000 m are not Equal.
func (q Quantity) Equal(o Quantity) bool {
	return q.Magnitude == o.Magnitude && q.Unit.Equal(o.Unit)
}

// Less converts o into q's unit before comparing.
func (q Quantity) Less(o Quantity) (bool, error) {
	c, err := q.Compare(o)
	if err != nil {
		return false, err
	}
	return c < 0, nil
}

// Compare returns -1, 0 or +1 after converting o into q's unit.
func (q Quantity) Compare(o Quantity) (int, error) {
	factor, err := o.Unit.ConversionFactor(q.Unit)
	if err != nil {
		return 0, fmt.Errorf("compare: %w", err)
	}
	other := o.Magnitude * factor
	switch {
	case q.Magnitude < other:
		return -1, nil
	case q.Magnitude > other:
		return 1, nil
	}
	return 0, nil
}

// IsZero reports whether the magnitude is zero. Every unit is zero-centred,
// so a zero magnitude is a zero quantity whatever the unit.
func (q Quantity) IsZero() bool {
	return q.Magnitude == 0
}

func (q Quantity) Float64() float64 {
	return q.Magnitude
}

func (q Quantity) Int() int {
	return int(q.Magnitude)
}

func (q Quantity) String() string {
	return formatMagnitude(q.Magnitude) + " " + q.Unit.Name()
}

func (q Quantity) GoString() string {
	return fmt.Sprintf("<Quantity(%s, '%s')>", formatMagnitude(q.Magnitude), q.Unit.Name())
}

func formatMagnitude(m float64) string {
	return strconv.FormatFloat(m, 'g', -1, 64)
}
