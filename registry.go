package measure

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

var (
	registries      = make(map[uuid.UUID]*Registry)
	registriesMutex sync.RWMutex
)

// LookupRegistry resolves a registry handle as stored on linked units.
func LookupRegistry(id uuid.UUID) (*Registry, bool) {
	registriesMutex.RLock()
	defer registriesMutex.RUnlock()
	r, ok := registries[id]
	return r, ok
}

// Registry maps unit names to units. It owns the definition table and
// handles SI prefixes, plurals and unit expressions such as "km/h".
type Registry struct {
	id     uuid.UUID
	link   bool
	logger *slog.Logger
	extra  []Definition

	mutex       sync.RWMutex
	definitions map[string]Definition // by name
	spellings   map[string]string     // name, symbol or alias -> definition name
	cache       map[string]Unit
	db          *sql.DB
}

type Option func(*Registry)

// WithDefinitions adds definitions on top of DefaultDefinitions.
func WithDefinitions(defs ...Definition) Option {
	return func(r *Registry) {
		r.extra = append(r.extra, defs...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithoutLinking makes the registry hand out units that carry no reference
// back to it, so Quantity.ToName fails on them with ErrNoRegistry.
func WithoutLinking() Option {
	return func(r *Registry) {
		r.link = false
	}
}

func NewRegistry(opts ...Option) (*Registry, error) {
	r := &Registry{
		id:          uuid.New(),
		link:        true,
		logger:      slog.Default(),
		definitions: make(map[string]Definition),
		spellings:   make(map[string]string),
		cache:       make(map[string]Unit),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, d := range DefaultDefinitions {
		if err := r.define(d); err != nil {
			return nil, err
		}
	}
	for _, d := range r.extra {
		if err := r.Define(d); err != nil {
			return nil, err
		}
	}

	registriesMutex.Lock()
	registries[r.id] = r
	registriesMutex.Unlock()
	r.logger.Debug("unit registry created", "id", r.id, "definitions", len(r.definitions))
	return r, nil
}

func (r *Registry) ID() uuid.UUID {
	return r.id
}

// Close unregisters r, so units linked to it no longer resolve names, and
// closes the attached database if any.
func (r *Registry) Close() error {
	registriesMutex.Lock()
	delete(registries, r.id)
	registriesMutex.Unlock()

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// Define adds d to the registry and persists it when a database is
// attached.
func (r *Registry) Define(d Definition) error {
	if err := r.define(d); err != nil {
		r.logger.Debug("unit definition rejected", "name", d.Name, "error", err)
		return err
	}
	if d.Expr != "" {
		if _, err := r.GetUnit(d.Name); err != nil {
			r.undefine(d)
			return fmt.Errorf("%w: %s: %w", ErrInvalidDefinition, d.Name, err)
		}
	}
	r.mutex.RLock()
	db := r.db
	r.mutex.RUnlock()
	if db != nil {
		if err := persistDefinition(db, d); err != nil {
			return fmt.Errorf("persist definition %s: %w", d.Name, err)
		}
	}
	r.logger.Debug("unit definition added", "name", d.Name)
	return nil
}

func (r *Registry) define(d Definition) error {
	if err := d.validate(); err != nil {
		return err
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for _, s := range d.spellings() {
		if owner, ok := r.spellings[s]; ok {
			return fmt.Errorf("%w: %q already names %s", ErrInvalidDefinition, s, owner)
		}
	}
	r.definitions[d.Name] = d
	for _, s := range d.spellings() {
		r.spellings[s] = d.Name
	}
	clear(r.cache)
	return nil
}

func (r *Registry) undefine(d Definition) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.definitions, d.Name)
	for _, s := range d.spellings() {
		delete(r.spellings, s)
	}
	clear(r.cache)
}

// Definitions returns every definition sorted by name.
func (r *Registry) Definitions() []Definition {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	defs := make([]Definition, 0, len(r.definitions))
	for _, d := range r.definitions {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool {
		return defs[i].Name < defs[j].Name
	})
	return defs
}

// GetUnit resolves a unit name, a prefixed name ("km", "kilometer"), a
// plural ("meters") or an expression ("kW*h/mile").
func (r *Registry) GetUnit(name string) (Unit, error) {
	name = strings.TrimSpace(name)
	r.mutex.RLock()
	u, ok := r.cache[name]
	r.mutex.RUnlock()
	if ok {
		return u, nil
	}

	u, err := r.resolve(name, 0)
	if err != nil {
		return Unit{}, err
	}
	// expressions are rebuilt from cached names on every call
	if !isExpression(name) {
		r.mutex.Lock()
		r.cache[name] = u
		r.mutex.Unlock()
	}
	return u, nil
}

// MustUnit is GetUnit for names known to exist. It panics otherwise.
func (r *Registry) MustUnit(name string) Unit {
	u, err := r.GetUnit(name)
	if err != nil {
		panic(err)
	}
	return u
}

// Quantity builds magnitude in the unit called name.
func (r *Registry) Quantity(magnitude float64, name string) (Quantity, error) {
	u, err := r.GetUnit(name)
	if err != nil {
		return Quantity{}, err
	}
	return NewQuantity(magnitude, u), nil
}

func (r *Registry) Dimensionless() Unit { return r.MustUnit("") }
func (r *Registry) Meter() Unit         { return r.MustUnit("meter") }
func (r *Registry) Centimeter() Unit    { return r.MustUnit("cm") }
func (r *Registry) Kilometer() Unit     { return r.MustUnit("kilometer") }
func (r *Registry) Inch() Unit          { return r.MustUnit("inch") }
func (r *Registry) Mile() Unit          { return r.MustUnit("mile") }
func (r *Registry) Second() Unit        { return r.MustUnit("second") }
func (r *Registry) Minute() Unit        { return r.MustUnit("minute") }
func (r *Registry) Hour() Unit          { return r.MustUnit("hour") }
func (r *Registry) Hz() Unit            { return r.MustUnit("Hz") }
func (r *Registry) KHz() Unit           { return r.MustUnit("kHz") }
func (r *Registry) Watt() Unit          { return r.MustUnit("watt") }
func (r *Registry) Kilowatt() Unit      { return r.MustUnit("kW") }
func (r *Registry) Gram() Unit          { return r.MustUnit("gram") }
func (r *Registry) Kilogram() Unit      { return r.MustUnit("kg") }

// expression definitions may refer to each other
const maxResolveDepth = 16

func (r *Registry) resolve(name string, depth int) (Unit, error) {
	if depth > maxResolveDepth {
		return Unit{}, fmt.Errorf("resolve %q: definitions nested too deeply: %w", name, ErrUnresolvedName)
	}
	if name == "" {
		return r.linked(Dimensionless()), nil
	}
	if isExpression(name) {
		return r.parse(name, depth)
	}
	u, ok, err := r.resolveName(name, depth)
	if err != nil {
		return Unit{}, err
	}
	if !ok {
		return Unit{}, &UnresolvedNameError{Name: name}
	}
	return u, nil
}

// resolveName tries an exact spelling, then a prefixed spelling, then the
// singular of a plural.
func (r *Registry) resolveName(name string, depth int) (Unit, bool, error) {
	if d, ok := r.lookup(name); ok {
		u, err := r.build(d, name, "", 1, depth)
		return u, err == nil, err
	}
	for _, p := range longPrefixes {
		if rest, ok := strings.CutPrefix(name, p.Name); ok && rest != "" {
			if d, ok := r.lookup(rest); ok {
				u, err := r.build(d, name, p.Name, p.Factor, depth)
				return u, err == nil, err
			}
		}
	}
	for _, p := range shortPrefixes {
		if rest, ok := strings.CutPrefix(name, p.Symbol); ok && rest != "" {
			if d, ok := r.lookup(rest); ok {
				u, err := r.build(d, name, p.Name, p.Factor, depth)
				return u, err == nil, err
			}
		}
	}
	if singular, ok := strings.CutSuffix(name, "s"); ok && len(singular) > 2 {
		return r.resolveName(singular, depth)
	}
	return Unit{}, false, nil
}

func (r *Registry) lookup(spelling string) (Definition, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	name, ok := r.spellings[spelling]
	if !ok {
		return Definition{}, false
	}
	return r.definitions[name], true
}

// build turns a definition into a unit named after the spelling used to
// look it up. A prefix scales the single base term of a base unit; for
// compound units it becomes a separate dimensionless scale term named after
// the long prefix ("kilo").
func (r *Registry) build(d Definition, spelling, prefix string, factor float64, depth int) (Unit, error) {
	if d.Expr == "" {
		if d.Name == dimensionlessName && factor == 1 {
			return r.linked(Dimensionless()), nil
		}
		b := BaseUnit{Name: spelling, Category: d.Category, Scale: factor * d.Scale}
		return r.linked(FromBase(b)), nil
	}

	u, err := r.resolve(d.Expr, depth+1)
	if err != nil {
		return Unit{}, fmt.Errorf("resolve %s = %s: %w", d.Name, d.Expr, err)
	}
	num := u.numerator
	if factor != 1 {
		num = append([]BaseUnit{{Name: prefix, Category: CategoryDimensionless, Scale: factor}}, num...)
	}
	return r.linked(NewNamedUnit(spelling, num, u.denominator)), nil
}

func (r *Registry) linked(u Unit) Unit {
	if !r.link {
		return u
	}
	return u.LinkedTo(r)
}
