package params

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairs(t *testing.T) {
	p := Pairs{}
	p = p.Set("NODE_VERSION", "20")
	p = p.Set("PORT", "3000")
	p = p.Set("NODE_VERSION", "22")

	assert.Equal(t, []string{"NODE_VERSION", "PORT"}, p.Keys())

	val, ok := p.Get("NODE_VERSION")
	require.True(t, ok)
	assert.Equal(t, "22", val)

	_, ok = p.Get("MISSING")
	assert.False(t, ok)

	merged := p.Merge(Pairs{
		{Key: "PORT", Value: "8080"},
		{Key: "DEBUG", Value: "1"},
	})
	assert.Equal(t, []string{"NODE_VERSION", "PORT", "DEBUG"}, merged.Keys())

	val, _ = merged.Get("PORT")
	assert.Equal(t, "8080", val)

	// original untouched by merge
	val, _ = p.Get("PORT")
	assert.Equal(t, "3000", val)
}

func TestFromMap(t *testing.T) {
	p := FromMap(map[string]string{
		"B": "2",
		"A": "1",
		"C": "3",
	})
	assert.Equal(t, []string{"A", "B", "C"}, p.Keys())
}

func TestParseKV(t *testing.T) {
	kv, err := ParseKV("PORT=8000")
	require.NoError(t, err)
	assert.Equal(t, KeyValue{Key: "PORT", Value: "8000"}, kv)

	kv, err = ParseKV("APP_MODULE=app.wsgi:application=prod")
	require.NoError(t, err)
	assert.Equal(t, "app.wsgi:application=prod", kv.Value)

	kv, err = ParseKV("EMPTY=")
	require.NoError(t, err)
	assert.Equal(t, "", kv.Value)

	for _, bad := range []string{"", "PORT", "=8000"} {
		_, err = ParseKV(bad)
		require.Error(t, err, bad)
	}
}

func TestParseKVs(t *testing.T) {
	pairs, err := ParseKVs([]string{"B=2", "A=1", "B=3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, pairs.Keys())
	val, _ := pairs.Get("B")
	assert.Equal(t, "3", val)

	_, err = ParseKVs([]string{"A=1", "nope"})
	require.Error(t, err)
}

func TestInterpolate(t *testing.T) {
	p := Params{
		Args: Pairs{{Key: "PYTHON_VERSION", Value: "3.11"}},
		Env:  Pairs{{Key: "PORT", Value: "8000"}},
	}

	out, err := p.Interpolate(`app:py{{.Arg "PYTHON_VERSION"}}-{{.EnvVar "PORT"}}`)
	require.NoError(t, err)
	assert.Equal(t, "app:py3.11-8000", out)

	_, err = p.Interpolate(`{{.Arg "X"`)
	require.Error(t, err)
}

func TestLoadEnvFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "params-test")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	fpath := filepath.Join(dir, "build.env")
	content := "PORT=9000\nNODE_VERSION=22\nAPP_MODULE=app$x:main\nQUOTED=\"app$x:main\"\n"
	require.NoError(t, ioutil.WriteFile(fpath, []byte(content), 0644))

	pairs, err := LoadEnvFile(fpath)
	require.NoError(t, err)
	assert.Equal(t, []string{"APP_MODULE", "NODE_VERSION", "PORT", "QUOTED"}, pairs.Keys())

	// values keep their $ references verbatim; nothing re-expands them here
	val, ok := pairs.Get("APP_MODULE")
	require.True(t, ok)
	assert.Equal(t, "app$x:main", val)
	val, ok = pairs.Get("QUOTED")
	require.True(t, ok)
	assert.Equal(t, "app$x:main", val)

	_, err = LoadEnvFile(filepath.Join(dir, "missing.env"))
	require.Error(t, err)
}
