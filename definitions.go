package measure

import (
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Definition describes a named unit known to a Registry. A definition is
// either a base unit (Category and Scale relative to the category's
// canonical unit) or a compound unit given by Expr, e.g. "mile/hour".
type Definition struct {
	Name     string   `yaml:"name"`
	Symbol   string   `yaml:"symbol,omitempty"`
	Aliases  []string `yaml:"aliases,omitempty"`
	Category string   `yaml:"category,omitempty"`
	Scale    float64  `yaml:"scale,omitempty"`
	Expr     string   `yaml:"expr,omitempty"`
}

// spellings lists every name the definition can be looked up by.
func (d Definition) spellings() []string {
	s := []string{d.Name}
	if d.Symbol != "" {
		s = append(s, d.Symbol)
	}
	return append(s, d.Aliases...)
}

func (d Definition) validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidDefinition)
	}
	for _, s := range d.spellings() {
		if s == "" || strings.ContainsAny(s, "*/^ ") {
			return fmt.Errorf("%w: %s: bad spelling %q", ErrInvalidDefinition, d.Name, s)
		}
	}
	if d.Expr != "" {
		if d.Category != "" || (d.Scale != 0 && d.Scale != 1) {
			return fmt.Errorf("%w: %s: expression units take no category or scale", ErrInvalidDefinition, d.Name)
		}
		return nil
	}
	if !strings.HasPrefix(d.Category, "[") || !strings.HasSuffix(d.Category, "]") {
		return fmt.Errorf("%w: %s: category %q must be bracketed", ErrInvalidDefinition, d.Name, d.Category)
	}
	if d.Scale <= 0 {
		return fmt.Errorf("%w: %s: scale must be positive", ErrInvalidDefinition, d.Name)
	}
	return nil
}

// DefaultDefinitions is the unit table every registry starts from.
var DefaultDefinitions = []Definition{
	{Name: dimensionlessName, Category: CategoryDimensionless, Scale: 1},
	{Name: "percent", Symbol: "%", Category: CategoryDimensionless, Scale: 0.01},

	{Name: "meter", Symbol: "m", Aliases: []string{"metre"}, Category: "[length]", Scale: 1},
	{Name: "inch", Symbol: "in", Aliases: []string{"inches"}, Category: "[length]", Scale: 0.0254},
	{Name: "foot", Symbol: "ft", Aliases: []string{"feet"}, Category: "[length]", Scale: 0.3048},
	{Name: "yard", Symbol: "yd", Category: "[length]", Scale: 0.9144},
	{Name: "mile", Symbol: "mi", Category: "[length]", Scale: 1609.344},
	{Name: "nautical_mile", Symbol: "nmi", Category: "[length]", Scale: 1852},

	{Name: "second", Symbol: "s", Aliases: []string{"sec"}, Category: "[time]", Scale: 1},
	{Name: "minute", Symbol: "min", Category: "[time]", Scale: 60},
	{Name: "hour", Symbol: "h", Aliases: []string{"hr", "H"}, Category: "[time]", Scale: 3600},
	{Name: "day", Symbol: "d", Category: "[time]", Scale: 86400},
	{Name: "week", Category: "[time]", Scale: 604800},

	{Name: "gram", Symbol: "g", Category: "[mass]", Scale: 1},
	{Name: "tonne", Symbol: "t", Category: "[mass]", Scale: 1e6},
	{Name: "pound", Symbol: "lb", Category: "[mass]", Scale: 453.59237},
	{Name: "ounce", Symbol: "oz", Category: "[mass]", Scale: 28.349523125},

	{Name: "watt", Symbol: "W", Category: "[power]", Scale: 1},
	{Name: "horsepower", Symbol: "hp", Category: "[power]", Scale: 745.69987158227022},
	{Name: "joule", Symbol: "J", Category: "[energy]", Scale: 1},
	{Name: "calorie", Symbol: "cal", Category: "[energy]", Scale: 4.184},
	{Name: "ampere", Symbol: "A", Aliases: []string{"amp"}, Category: "[current]", Scale: 1},
	{Name: "volt", Symbol: "V", Category: "[voltage]", Scale: 1},
	{Name: "kelvin", Symbol: "K", Category: "[temperature]", Scale: 1},
	{Name: "liter", Symbol: "l", Aliases: []string{"L", "litre"}, Category: "[volume]", Scale: 1},
	{Name: "byte", Symbol: "B", Category: "[information]", Scale: 1},
	{Name: "bit", Category: "[information]", Scale: 0.125},

	{Name: "hertz", Symbol: "Hz", Expr: "1/second"},
	{Name: "mph", Expr: "mile/hour"},
	{Name: "kph", Expr: "kilometer/hour"},
	{Name: "knot", Symbol: "kn", Expr: "nautical_mile/hour"},
}

type definitionFile struct {
	Definitions []Definition `yaml:"definitions"`
}

// LoadDefinitions reads a YAML document of the form
//
//	definitions:
//	  - name: furlong
//	    category: "[length]"
//	    scale: 201.168
//
// and defines every entry. Loading stops at the first invalid entry.
func (r *Registry) LoadDefinitions(src io.Reader) error {
	var file definitionFile
	if err := yaml.NewDecoder(src).Decode(&file); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode definitions: %w", err)
	}
	for _, d := range file.Definitions {
		if err := r.Define(d); err != nil {
			return err
		}
	}
	r.logger.Info("unit definitions loaded", "count", len(file.Definitions))
	return nil
}
