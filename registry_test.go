package measure_test

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"measure"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUnit(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name     string
		wantName string
		wantType string
		scale    float64
	}{
		{"m", "m", "[length]/[dimensionless]", 1},
		{"meter", "meter", "[length]/[dimensionless]", 1},
		{"metre", "metre", "[length]/[dimensionless]", 1},
		{"meters", "meter", "[length]/[dimensionless]", 1},
		{"km", "km", "[length]/[dimensionless]", 1000},
		{"kilometer", "kilometer", "[length]/[dimensionless]", 1000},
		{"kilometers", "kilometer", "[length]/[dimensionless]", 1000},
		{"cm", "cm", "[length]/[dimensionless]", 0.01},
		{"dam", "dam", "[length]/[dimensionless]", 10},
		{"µm", "µm", "[length]/[dimensionless]", 1e-6},
		{"ms", "ms", "[time]/[dimensionless]", 0.001},
		{"min", "min", "[time]/[dimensionless]", 60},
		{"H", "H", "[time]/[dimensionless]", 3600},
		{"hours", "hour", "[time]/[dimensionless]", 3600},
		{"kW", "kW", "[power]/[dimensionless]", 1000},
		{"kg", "kg", "[mass]/[dimensionless]", 1000},
		{"Hz", "Hz", "[dimensionless]/[time]", 1},
		{"kHz", "kHz", "[dimensionless]/[time]", 1000},
		{"kilohertz", "kilohertz", "[dimensionless]/[time]", 1000},
		{"mph", "mph", "[length]/[time]", 1609.344 / 3600},
		{"", "dimensionless", "[dimensionless]/[dimensionless]", 1},
		{"dimensionless", "dimensionless", "[dimensionless]/[dimensionless]", 1},
		{"kilodimensionless", "kilodimensionless", "[dimensionless]/[dimensionless]", 1000},
		{"%", "%", "[dimensionless]/[dimensionless]", 0.01},
		{"km/h", "km/h", "[length]/[time]", 1000.0 / 3600},
		{"kW*h/mile", "kW*h/mile", "[power]*[time]/[length]", 1000 * 3600 / 1609.344},
		{"kW * h / mile", "kW*h/mile", "[power]*[time]/[length]", 1000 * 3600 / 1609.344},
		{"m^2", "m*m", "[length]*[length]/[dimensionless]", 1},
		{"m**2", "m*m", "[length]*[length]/[dimensionless]", 1},
		{"m^-1", "1/m", "[dimensionless]/[length]", 1},
		{"1/s", "1/s", "[dimensionless]/[time]", 1},
		{"m/s^2", "m/s*s", "[length]/[time]*[time]", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := r.GetUnit(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, u.Name())
			assert.Equal(t, tt.wantType, u.UnitType())
			assert.InDelta(t, tt.scale, u.Scale(), 1e-12*tt.scale)
			assert.Equal(t, r.ID(), u.RegistryID())
		})
	}
}

func TestGetUnitNameRoundTrip(t *testing.T) {
	r := newTestRegistry(t)

	for _, u := range []measure.Unit{
		r.MustUnit("H").Divide(r.Mile()),
		r.MustUnit("kW*h").Divide(r.MustUnit("mile*h")),
		r.Meter().Divide(r.Second()).Divide(r.Second()),
		r.Dimensionless().Divide(r.MustUnit("s")),
	} {
		t.Run(u.Name(), func(t *testing.T) {
			parsed, err := r.GetUnit(u.Name())
			require.NoError(t, err)
			assert.True(t, parsed.Equal(u))
			assert.Equal(t, u.Name(), parsed.Name())
		})
	}
}

func TestGetUnitUnknown(t *testing.T) {
	r := newTestRegistry(t)

	for _, name := range []string{"furlong", "km/", "m^x", "blah/s", "*m", "m^2^3", "m^200000", "m^-65", "s/m**100"} {
		t.Run(name, func(t *testing.T) {
			_, err := r.GetUnit(name)
			assert.ErrorIs(t, err, measure.ErrUnresolvedName)
		})
	}

	u, err := r.GetUnit("m^64")
	require.NoError(t, err)
	assert.Len(t, u.Numerator(), 64)

	_, err = r.GetUnit("furlong")
	var unresolved *measure.UnresolvedNameError
	require.True(t, errors.As(err, &unresolved))
	assert.Equal(t, "furlong", unresolved.Name)

	assert.Panics(t, func() { r.MustUnit("furlong") })
}

func TestAccessors(t *testing.T) {
	r := newTestRegistry(t)

	accessors := map[string]func() measure.Unit{
		"dimensionless": r.Dimensionless,
		"meter":         r.Meter,
		"cm":            r.Centimeter,
		"kilometer":     r.Kilometer,
		"inch":          r.Inch,
		"mile":          r.Mile,
		"second":        r.Second,
		"minute":        r.Minute,
		"hour":          r.Hour,
		"Hz":            r.Hz,
		"kHz":           r.KHz,
		"watt":          r.Watt,
		"kW":            r.Kilowatt,
		"gram":          r.Gram,
		"kg":            r.Kilogram,
	}
	for name, get := range accessors {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, name, get().Name())
			assert.True(t, get().Equal(r.MustUnit(name)))
		})
	}
}

func TestDefine(t *testing.T) {
	r := newTestRegistry(t)

	require.NoError(t, r.Define(measure.Definition{Name: "furlong", Symbol: "fur", Category: "[length]", Scale: 201.168}))
	require.NoError(t, r.Define(measure.Definition{Name: "fortnight", Category: "[time]", Scale: 14 * 86400}))
	require.NoError(t, r.Define(measure.Definition{Name: "speed_of_slug", Expr: "furlong/fortnight"}))

	q, err := r.Quantity(1, "fur")
	require.NoError(t, err)
	m, err := q.ToName("m")
	require.NoError(t, err)
	assert.InDelta(t, 201.168, m.Magnitude, 1e-9)

	u, err := r.GetUnit("speed_of_slug")
	require.NoError(t, err)
	assert.Equal(t, "[length]/[time]", u.UnitType())

	u, err = r.GetUnit("kilofurlong")
	require.NoError(t, err)
	assert.InDelta(t, 201168, u.Scale(), 1e-6)
}

func TestDefineInvalid(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name string
		def  measure.Definition
	}{
		{"missing name", measure.Definition{Category: "[length]", Scale: 1}},
		{"duplicate name", measure.Definition{Name: "meter", Category: "[length]", Scale: 1}},
		{"duplicate symbol", measure.Definition{Name: "mega_meter", Symbol: "m", Category: "[length]", Scale: 1e6}},
		{"bare category", measure.Definition{Name: "rod", Category: "length", Scale: 5.0292}},
		{"zero scale", measure.Definition{Name: "rod", Category: "[length]"}},
		{"negative scale", measure.Definition{Name: "rod", Category: "[length]", Scale: -1}},
		{"operator in name", measure.Definition{Name: "a/b", Category: "[length]", Scale: 1}},
		{"expression with category", measure.Definition{Name: "pace", Expr: "m/s", Category: "[speed]"}},
		{"unknown expression term", measure.Definition{Name: "pace", Expr: "parsec/s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, r.Define(tt.def), measure.ErrInvalidDefinition)
		})
	}

	// a rejected expression leaves nothing behind
	_, err := r.GetUnit("pace")
	assert.ErrorIs(t, err, measure.ErrUnresolvedName)
	assert.NoError(t, r.Define(measure.Definition{Name: "pace", Expr: "m/s"}))
}

func TestDefineShadowsPrefixedName(t *testing.T) {
	r := newTestRegistry(t)

	before := r.MustUnit("mmi")
	assert.InDelta(t, 1.609344, before.Scale(), 1e-12)

	require.NoError(t, r.Define(measure.Definition{Name: "mmi", Category: "[length]", Scale: 2}))
	assert.Equal(t, 2.0, r.MustUnit("mmi").Scale())
}

func TestLoadDefinitions(t *testing.T) {
	r := newTestRegistry(t)

	src := `definitions:
  - name: furlong
    category: "[length]"
    scale: 201.168
  - name: fortnight
    aliases: [fortnights_alias]
    category: "[time]"
    scale: 1209600
  - name: fpf
    expr: furlong/fortnight
`
	require.NoError(t, r.LoadDefinitions(strings.NewReader(src)))

	u := r.MustUnit("furlong/fortnight")
	assert.Equal(t, "[length]/[time]", u.UnitType())
	assert.True(t, r.MustUnit("fpf").Equal(u))
	assert.Equal(t, "fortnights_alias", r.MustUnit("fortnights_alias").Name())

	assert.NoError(t, r.LoadDefinitions(strings.NewReader("")))
	assert.Error(t, r.LoadDefinitions(strings.NewReader("definitions: [")))
	assert.ErrorIs(t, r.LoadDefinitions(strings.NewReader("definitions:\n  - name: furlong\n    category: \"[length]\"\n    scale: 1\n")), measure.ErrInvalidDefinition)
}

func TestDefinitions(t *testing.T) {
	r := newTestRegistry(t)

	defs := r.Definitions()
	require.Len(t, defs, len(measure.DefaultDefinitions))
	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].Name, defs[i].Name)
	}
}

func TestRegistryHandles(t *testing.T) {
	r, err := measure.NewRegistry()
	require.NoError(t, err)

	got, ok := measure.LookupRegistry(r.ID())
	require.True(t, ok)
	assert.Same(t, r, got)

	q := measure.NewQuantity(1, r.Meter())
	require.NoError(t, r.Close())

	_, ok = measure.LookupRegistry(r.ID())
	assert.False(t, ok)
	_, err = q.ToName("km")
	assert.ErrorIs(t, err, measure.ErrNoRegistry)

	unlinked := newTestRegistry(t, measure.WithoutLinking())
	assert.Equal(t, uuid.Nil, unlinked.Meter().RegistryID())
}

func TestNewRegistryWithDefinitions(t *testing.T) {
	r := newTestRegistry(t, measure.WithDefinitions(measure.Definition{Name: "smoot", Category: "[length]", Scale: 1.7018}))
	assert.InDelta(t, 1.7018, r.MustUnit("smoot").Scale(), 1e-12)

	_, err := measure.NewRegistry(measure.WithDefinitions(measure.Definition{Name: "meter", Category: "[length]", Scale: 1}))
	assert.ErrorIs(t, err, measure.ErrInvalidDefinition)
}

func TestGetUnitConcurrent(t *testing.T) {
	r := newTestRegistry(t)
	names := []string{"km", "kHz", "mph", "kW*h/mile", "cm", "hours"}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, name := range names {
				_, err := r.GetUnit(name)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
