package testutil

import (
	"context"
	"io/ioutil"
	"path"
	"testing"

	"github.com/ghodss/yaml"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery/catalog"
	"bakery/log"
	"bakery/pubsub"
	"bakery/recipe"
	"bakery/types"
)

func ID(t *testing.T) types.ID {
	id, err := types.NewID()
	assert.NoError(t, err)
	return id
}

func Context() context.Context {
	return log.NewContext(context.Background(), Log())
}

func Log() logrus.FieldLogger {
	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	return l
}

func Bus(t *testing.T, ctx context.Context) pubsub.Service {
	bus, err := pubsub.NewBus(ctx)
	require.NoError(t, err)
	return bus
}

// RequireRecipe builds a registered recipe and fails the test if it
// does not validate.
func RequireRecipe(t *testing.T, name string) recipe.Recipe {
	p, err := catalog.Lookup(name)
	require.NoError(t, err, name)
	r := p.New()
	require.NoError(t, recipe.Validate(r), name)
	return r
}

// ReadFixture reads a file from the package's _testdata directory,
// converting YAML fixtures to JSON.
func ReadFixture(t *testing.T, fpath string) []byte {
	buf, err := ioutil.ReadFile(path.Join("_testdata", fpath))
	require.NoError(t, err, fpath)
	switch path.Ext(fpath) {
	case ".yaml", ".yml":
		buf, err = yaml.YAMLToJSON(buf)
		require.NoError(t, err, fpath)
	}
	return buf
}
