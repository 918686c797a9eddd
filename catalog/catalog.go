package catalog

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"bakery/recipe"
)

var ErrNotFound = errors.New("catalog: recipe not found")

// Provider hands out recipes by name. New returns a fresh value on every
// call so callers can modify their copy freely.
type Provider interface {
	Name() string
	Description() string
	New() recipe.Recipe
}

// Catalog is a read view of a recipe registry.
type Catalog interface {
	Names() []string
	Lookup(name string) (Provider, error)
}

// Default returns the process-wide registry.
func Default() Catalog { return registry{} }

type registry struct{}

func (registry) Names() []string                      { return Names() }
func (registry) Lookup(name string) (Provider, error) { return Lookup(name) }

var (
	mtx       sync.Mutex
	providers = make(map[string]Provider)
)

// Register adds a provider. Duplicate names are a programmer error.
func Register(p Provider) {
	mtx.Lock()
	defer mtx.Unlock()
	if _, ok := providers[p.Name()]; ok {
		panic(fmt.Sprintf("catalog: duplicate recipe %q", p.Name()))
	}
	providers[p.Name()] = p
}

func Lookup(name string) (Provider, error) {
	mtx.Lock()
	defer mtx.Unlock()
	p, ok := providers[name]
	if !ok {
		return nil, ErrNotFound
	}
	return p, nil
}

// Names returns the registered recipe names, sorted.
func Names() []string {
	mtx.Lock()
	defer mtx.Unlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Each visits providers in name order.
func Each(fn func(Provider)) {
	for _, name := range Names() {
		if p, err := Lookup(name); err == nil {
			fn(p)
		}
	}
}

// MakeProvider wraps a recipe constructor as a Provider.
func MakeProvider(name, description string, fn func() recipe.Recipe) Provider {
	return provider{name: name, description: description, fn: fn}
}

type provider struct {
	name        string
	description string
	fn          func() recipe.Recipe
}

func (p provider) Name() string        { return p.name }
func (p provider) Description() string { return p.description }
func (p provider) New() recipe.Recipe  { return p.fn() }
