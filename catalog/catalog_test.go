package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery/catalog"
	"bakery/recipe"
)

func fake(name string) catalog.Provider {
	return catalog.MakeProvider(name, "a "+name+" recipe", func() recipe.Recipe {
		return recipe.Recipe{Name: name}
	})
}

func TestRegistry(t *testing.T) {
	catalog.Register(fake("test-beta"))
	catalog.Register(fake("test-alpha"))

	p, err := catalog.Lookup("test-alpha")
	require.NoError(t, err)
	assert.Equal(t, "test-alpha", p.Name())
	assert.Equal(t, "a test-alpha recipe", p.Description())
	assert.Equal(t, "test-alpha", p.New().Name)

	_, err = catalog.Lookup("test-missing")
	assert.Equal(t, catalog.ErrNotFound, err)

	names := catalog.Names()
	assert.Contains(t, names, "test-alpha")
	assert.Contains(t, names, "test-beta")
	assert.True(t, sortedBefore(names, "test-alpha", "test-beta"))

	var visited []string
	catalog.Each(func(p catalog.Provider) {
		visited = append(visited, p.Name())
	})
	assert.Equal(t, names, visited)
}

func TestRegisterDuplicatePanics(t *testing.T) {
	catalog.Register(fake("test-dup"))
	assert.Panics(t, func() {
		catalog.Register(fake("test-dup"))
	})
}

func TestProviderNewIsFresh(t *testing.T) {
	catalog.Register(fake("test-fresh"))
	p, err := catalog.Lookup("test-fresh")
	require.NoError(t, err)

	a := p.New()
	a.Description = "mutated"
	b := p.New()
	assert.Empty(t, b.Description)
}

func sortedBefore(names []string, a, b string) bool {
	ai, bi := -1, -1
	for i, n := range names {
		switch n {
		case a:
			ai = i
		case b:
			bi = i
		}
	}
	return ai >= 0 && bi >= 0 && ai < bi
}
