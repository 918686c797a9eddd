package lint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery/lint"
	"bakery/recipe"
)

func clean() recipe.Recipe {
	return recipe.Recipe{
		Name: "clean",
		Args: []recipe.ArgSpec{{Name: "BASE_TAG", Default: "3.19"}},
		Stages: []recipe.Stage{
			{
				Name:  "build",
				Image: "golang:1.21-alpine",
				Instructions: []recipe.Instruction{
					recipe.Workdir("/src"),
					recipe.Copy(".", "."),
					recipe.Run("go build -o /out/app ./cmd/app"),
				},
			},
			{
				Name:  "runtime",
				Image: "alpine:${BASE_TAG}",
				Instructions: []recipe.Instruction{
					recipe.Workdir("/app"),
					recipe.Copy("/out/app", "/usr/local/bin/app").From("build"),
					recipe.User("nobody"),
					recipe.Expose("8080"),
					recipe.Check(recipe.Healthcheck{Test: []string{"CMD", "/usr/local/bin/app", "-ping"}}),
					recipe.Entrypoint("/usr/local/bin/app"),
				},
			},
		},
	}
}

func byName(t *testing.T, name string) lint.Check {
	t.Helper()
	for _, c := range lint.Checks() {
		if c.Name() == name {
			return c
		}
	}
	t.Fatalf("check %q not registered", name)
	return nil
}

func TestCleanRecipe(t *testing.T) {
	findings := lint.Run(clean())
	assert.Empty(t, findings)
	assert.False(t, lint.HasErrors(findings))
}

func TestFindingsStamped(t *testing.T) {
	r := clean()
	r.Stages[1].Instructions = nil

	findings := lint.Run(r)
	require.NotEmpty(t, findings)
	for _, f := range findings {
		assert.Equal(t, "clean", f.Recipe)
		assert.NotEmpty(t, f.Check)
		assert.NotEmpty(t, f.Message)
	}
	assert.True(t, lint.HasErrors(findings))
}

func TestNonrootUser(t *testing.T) {
	c := byName(t, "nonroot-user")

	assert.Empty(t, c.Check(clean()))

	r := clean()
	r.Stages[1].Instructions = []recipe.Instruction{recipe.Entrypoint("/app")}
	findings := c.Check(r)
	require.Len(t, findings, 1)
	assert.Equal(t, lint.Error, findings[0].Severity)
	assert.Equal(t, "runtime", findings[0].Stage)

	r = clean()
	r.Stages[1].Instructions = append(r.Stages[1].Instructions, recipe.User("root"))
	require.Len(t, c.Check(r), 1)

	r = clean()
	r.Stages[1].Instructions = append(r.Stages[1].Instructions, recipe.User("0:0"))
	require.Len(t, c.Check(r), 1)
}

func TestHealthcheck(t *testing.T) {
	c := byName(t, "healthcheck")

	assert.Empty(t, c.Check(clean()))

	r := clean()
	r.Stages[1].Instructions = []recipe.Instruction{recipe.User("nobody")}
	findings := c.Check(r)
	require.Len(t, findings, 1)
	assert.Equal(t, lint.Warning, findings[0].Severity)

	// HEALTHCHECK NONE is still no probe
	r = clean()
	r.Stages[1].Instructions = []recipe.Instruction{
		recipe.User("nobody"),
		recipe.Check(recipe.Healthcheck{Disable: true}),
	}
	require.Len(t, c.Check(r), 1)
}

func TestPinnedImage(t *testing.T) {
	c := byName(t, "pinned-image")

	assert.Empty(t, c.Check(clean()))

	r := clean()
	r.Stages[1].Image = "alpine"
	findings := c.Check(r)
	require.Len(t, findings, 1)
	assert.Equal(t, lint.Error, findings[0].Severity)
	assert.Contains(t, findings[0].Message, "no tag")

	r = clean()
	r.Stages[1].Image = "alpine:latest"
	findings = c.Check(r)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "latest")

	r = clean()
	r.Stages[1].Image = "alpine@sha256:c5b1261d6d3e43071626931fc004f70149baeba2c8ec672bd4f27761f8e1ad6b"
	assert.Empty(t, c.Check(r))

	// a stage built FROM an earlier stage is not an image reference
	r = clean()
	r.Stages[1].Image = "build"
	assert.Empty(t, c.Check(r))
}

func TestSecretArgs(t *testing.T) {
	c := byName(t, "no-secret-args")

	assert.Empty(t, c.Check(clean()))

	r := clean()
	r.Args = append(r.Args, recipe.ArgSpec{Name: "DB_PASSWORD"})
	findings := c.Check(r)
	require.Len(t, findings, 1)
	assert.Equal(t, lint.Error, findings[0].Severity)

	r = clean()
	r.Stages[0].Instructions = append(r.Stages[0].Instructions, recipe.Arg("NPM_TOKEN"))
	findings = c.Check(r)
	require.Len(t, findings, 1)
	assert.Equal(t, "build", findings[0].Stage)
}

func TestPreferCopy(t *testing.T) {
	c := byName(t, "prefer-copy")

	r := clean()
	r.Stages[0].Instructions = append(r.Stages[0].Instructions, recipe.Add("src", "dst"))
	findings := c.Check(r)
	require.Len(t, findings, 1)
	assert.Equal(t, lint.Warning, findings[0].Severity)

	r = clean()
	r.Stages[0].Instructions = append(r.Stages[0].Instructions,
		recipe.Add("https://example.com/tool.bin", "/usr/local/bin/tool"))
	assert.Empty(t, c.Check(r))

	r = clean()
	r.Stages[0].Instructions = append(r.Stages[0].Instructions, recipe.Add("rootfs.tar.gz", "/"))
	assert.Empty(t, c.Check(r))
}

func TestWorkdirAbsolute(t *testing.T) {
	c := byName(t, "workdir-absolute")

	assert.Empty(t, c.Check(clean()))

	r := clean()
	r.Stages[0].Instructions = append(r.Stages[0].Instructions, recipe.Workdir("app"))
	findings := c.Check(r)
	require.Len(t, findings, 1)
	assert.Equal(t, lint.Warning, findings[0].Severity)
}

func TestDuplicateEnv(t *testing.T) {
	c := byName(t, "duplicate-env")

	r := clean()
	r.Stages[1].Instructions = append(r.Stages[1].Instructions,
		recipe.Env("PORT", "8080"),
		recipe.Env("PORT", "9090"),
	)
	findings := c.Check(r)
	require.Len(t, findings, 1)
	assert.Contains(t, findings[0].Message, "PORT")
}

func TestRunSelected(t *testing.T) {
	r := clean()
	r.Stages[1].Image = "alpine"

	findings := lint.Run(r, byName(t, "pinned-image"))
	require.Len(t, findings, 1)
	assert.Equal(t, "pinned-image", findings[0].Check)

	assert.Empty(t, lint.Run(r, byName(t, "healthcheck")))
}
