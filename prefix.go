package measure

import "sort"

// Prefix is an SI multiplier that can be put in front of a unit name
// ("kilo" + "meter") or symbol ("k" + "m").
type Prefix struct {
	Name   string
	Symbol string
	Factor float64
}

var siPrefixes = []Prefix{
	{"yotta", "Y", 1e24},
	{"zetta", "Z", 1e21},
	{"exa", "E", 1e18},
	{"peta", "P", 1e15},
	{"tera", "T", 1e12},
	{"giga", "G", 1e9},
	{"mega", "M", 1e6},
	{"kilo", "k", 1e3},
	{"hecto", "h", 1e2},
	{"deca", "da", 1e1},
	{"deci", "d", 1e-1},
	{"centi", "c", 1e-2},
	{"milli", "m", 1e-3},
	{"micro", "u", 1e-6},
	{"micro", "µ", 1e-6},
	{"nano", "n", 1e-9},
	{"pico", "p", 1e-12},
	{"femto", "f", 1e-15},
	{"atto", "a", 1e-18},
	{"zepto", "z", 1e-21},
	{"yocto", "y", 1e-24},
}

// Prefixes returns the SI prefixes known to every registry.
func Prefixes() []Prefix {
	return append([]Prefix(nil), siPrefixes...)
}

// prefixesBy returns the prefixes ordered so that longer spellings are tried
// first ("da" before "d").
func prefixesBy(key func(Prefix) string) []Prefix {
	sorted := Prefixes()
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(key(sorted[i])) > len(key(sorted[j]))
	})
	return sorted
}

var (
	longPrefixes  = prefixesBy(func(p Prefix) string { return p.Name })
	shortPrefixes = prefixesBy(func(p Prefix) string { return p.Symbol })
)
