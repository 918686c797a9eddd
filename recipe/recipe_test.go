package recipe_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery/params"
	"bakery/recipe"
)

func TestInstructionConstructors(t *testing.T) {
	run := recipe.Run("apk add --no-cache curl")
	assert.Equal(t, recipe.KindRun, run.Kind)
	assert.Equal(t, []string{"apk add --no-cache curl"}, run.Args)
	assert.Empty(t, run.Exec)

	cmd := recipe.Cmd("node", "server.js")
	assert.Equal(t, recipe.KindCmd, cmd.Kind)
	assert.Len(t, cmd.Exec, 2)

	cp := recipe.Copy("--", "/app").From("build").Chown("app:app")
	from, ok := cp.Flags.Get("from")
	require.True(t, ok)
	assert.Equal(t, "build", from)
	chown, ok := cp.Flags.Get("chown")
	require.True(t, ok)
	assert.Equal(t, "app:app", chown)
}

func TestInstructionWithFlagCopies(t *testing.T) {
	base := recipe.Copy("src", "dst").From("build")
	other := base.From("deps")

	from, _ := base.Flags.Get("from")
	assert.Equal(t, "build", from)
	from, _ = other.Flags.Get("from")
	assert.Equal(t, "deps", from)
}

func TestInstructionWithNote(t *testing.T) {
	in := recipe.Workdir("/app").WithNote("keep sources out of /")
	assert.Equal(t, "keep sources out of /", in.Note)
}

func TestCheck(t *testing.T) {
	in := recipe.Check(recipe.Healthcheck{
		Test:     []string{"CMD-SHELL", "curl -f http://localhost/ || exit 1"},
		Interval: 30 * time.Second,
		Timeout:  3 * time.Second,
		Retries:  3,
	})
	assert.Equal(t, recipe.KindHealthcheck, in.Kind)
	interval, ok := in.Flags.Get("interval")
	require.True(t, ok)
	assert.Equal(t, "30s", interval)
	_, ok = in.Flags.Get("start-period")
	assert.False(t, ok)
	retries, _ := in.Flags.Get("retries")
	assert.Equal(t, "3", retries)

	none := recipe.Check(recipe.Healthcheck{Disable: true})
	assert.Equal(t, []string{"NONE"}, none.Args)
	assert.Empty(t, none.Flags)
}

func testRecipe() recipe.Recipe {
	return recipe.Recipe{
		Name:        "demo",
		Description: "two stage demo",
		Args: []recipe.ArgSpec{
			{Name: "BASE_TAG", Default: "3.11-slim", Note: "base image tag"},
			{Name: "PORT", Default: "8000", Note: "listen port"},
		},
		Stages: []recipe.Stage{
			{
				Name:  "build",
				Image: "python:${BASE_TAG}",
				Instructions: []recipe.Instruction{
					recipe.Workdir("/app"),
					recipe.Copy("requirements.txt", "."),
					recipe.Run("pip install --no-cache-dir -r requirements.txt"),
				},
			},
			{
				Name:  "runtime",
				Image: "python:${BASE_TAG}",
				Instructions: []recipe.Instruction{
					recipe.ArgDefault("PORT", "8000"),
					recipe.Env("PORT", "${PORT}"),
					recipe.Copy("/usr/local/lib", "/usr/local/lib").From("build"),
					recipe.User("nobody"),
					recipe.Expose("${PORT}"),
					recipe.Cmd("python", "app.py"),
				},
			},
		},
	}
}

func TestRecipeAccessors(t *testing.T) {
	r := testRecipe()

	runtime := r.Runtime()
	assert.Equal(t, "runtime", runtime.Name)

	builders := r.Builders()
	require.Len(t, builders, 1)
	assert.Equal(t, "build", builders[0].Name)

	stage, ok := r.Stage("build")
	require.True(t, ok)
	assert.Equal(t, "python:${BASE_TAG}", stage.Image)

	_, ok = r.Stage("missing")
	assert.False(t, ok)
}

func TestResolveArgs(t *testing.T) {
	r := testRecipe()

	resolved, err := r.ResolveArgs(params.Pairs{{Key: "PORT", Value: "9000"}})
	require.NoError(t, err)
	port, _ := resolved.Get("PORT")
	assert.Equal(t, "9000", port)
	tag, _ := resolved.Get("BASE_TAG")
	assert.Equal(t, "3.11-slim", tag)

	_, err = r.ResolveArgs(params.Pairs{{Key: "NOPE", Value: "x"}})
	require.Error(t, err)
	uerr, ok := err.(recipe.ErrUnknownArg)
	require.True(t, ok)
	assert.Equal(t, "NOPE", uerr.Name)
}

func TestArgOverrides(t *testing.T) {
	r := testRecipe()

	overrides := r.ArgOverrides(params.Params{
		Env: params.Pairs{
			{Key: "PORT", Value: "9000"},
			{Key: "SECRET_KEY", Value: "shh"},
		},
		Args: params.Pairs{{Key: "BASE_TAG", Value: "3.12-slim"}},
	})

	port, ok := overrides.Get("PORT")
	require.True(t, ok)
	assert.Equal(t, "9000", port)

	tag, ok := overrides.Get("BASE_TAG")
	require.True(t, ok)
	assert.Equal(t, "3.12-slim", tag)

	_, ok = overrides.Get("SECRET_KEY")
	assert.False(t, ok)

	resolved, err := r.ResolveArgs(overrides)
	require.NoError(t, err)
	port, _ = resolved.Get("PORT")
	assert.Equal(t, "9000", port)
}

func TestArgOverridesEnvLoses(t *testing.T) {
	r := testRecipe()

	overrides := r.ArgOverrides(params.Params{
		Env:  params.Pairs{{Key: "PORT", Value: "9000"}},
		Args: params.Pairs{{Key: "PORT", Value: "9001"}},
	})

	port, _ := overrides.Get("PORT")
	assert.Equal(t, "9001", port)
}

func TestWithLabels(t *testing.T) {
	r := testRecipe()
	r.Labels = params.Pairs{{Key: "org.opencontainers.image.vendor", Value: "acme"}}

	labeled := r.WithLabels(params.Pairs{
		{Key: "org.opencontainers.image.title", Value: "demo"},
		{Key: "org.opencontainers.image.vendor", Value: "bakery"},
	})

	require.Len(t, r.Labels, 1)
	vendor, _ := r.Labels.Get("org.opencontainers.image.vendor")
	assert.Equal(t, "acme", vendor)

	require.Len(t, labeled.Labels, 2)
	vendor, _ = labeled.Labels.Get("org.opencontainers.image.vendor")
	assert.Equal(t, "bakery", vendor)
	title, _ := labeled.Labels.Get("org.opencontainers.image.title")
	assert.Equal(t, "demo", title)
}

func TestInfo(t *testing.T) {
	info := testRecipe().Info()
	assert.Equal(t, "demo", info.Name)
	assert.Equal(t, []string{"build", "runtime"}, info.Stages)
	require.Len(t, info.Args, 2)
	assert.Equal(t, "BASE_TAG", info.Args[0].Name)
	assert.Equal(t, "base image tag", info.Args[0].Purpose)
}
