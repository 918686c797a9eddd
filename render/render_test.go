package render_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery/params"
	"bakery/recipe"
	"bakery/render"
)

func demo() recipe.Recipe {
	return recipe.Recipe{
		Name:        "demo",
		Description: "demo recipe",
		Args: []recipe.ArgSpec{
			{Name: "BASE_TAG", Default: "3.19", Note: "alpine tag"},
			{Name: "PORT", Default: "8080"},
		},
		Labels: params.Pairs{
			{Key: "org.opencontainers.image.title", Value: "demo"},
		},
		Stages: []recipe.Stage{
			{
				Name:  "build",
				Image: "golang:1.21-alpine",
				Note:  "compile a static binary",
				Instructions: []recipe.Instruction{
					recipe.Workdir("/src"),
					recipe.Copy(".", "."),
					recipe.Run("go build -o /out/app ./cmd/app").
						WithNote("static binary keeps the runtime image bare"),
				},
			},
			{
				Name:  "runtime",
				Image: "alpine:${BASE_TAG}",
				Instructions: []recipe.Instruction{
					recipe.ArgDefault("PORT", "8080"),
					recipe.Env("PORT", "${PORT}"),
					recipe.Copy("/out/app", "/usr/local/bin/app").From("build"),
					recipe.User("nobody"),
					recipe.Expose("${PORT}"),
					recipe.Entrypoint("/usr/local/bin/app"),
				},
			},
		},
	}
}

const demoPlain = `ARG BASE_TAG=3.19
ARG PORT=8080

FROM golang:1.21-alpine AS build
WORKDIR /src
COPY . .
RUN go build -o /out/app ./cmd/app

FROM alpine:${BASE_TAG} AS runtime
ARG PORT=8080
ENV PORT=${PORT}
COPY --from=build /out/app /usr/local/bin/app
USER nobody
EXPOSE ${PORT}
ENTRYPOINT ["/usr/local/bin/app"]
LABEL org.opencontainers.image.title=demo
`

func TestDockerfile(t *testing.T) {
	r, err := render.New()
	require.NoError(t, err)

	out, err := r.Dockerfile(demo())
	require.NoError(t, err)
	assert.Equal(t, demoPlain, string(out))

	// identical input, identical bytes
	again, err := r.Dockerfile(demo())
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestDockerfileAnnotated(t *testing.T) {
	r, err := render.New(render.WithAnnotations(true))
	require.NoError(t, err)

	out, err := r.Dockerfile(demo())
	require.NoError(t, err)

	text := string(out)
	assert.Contains(t, text, "# alpine tag\nARG BASE_TAG=3.19\n")
	assert.Contains(t, text, "# compile a static binary\nFROM golang:1.21-alpine AS build\n")
	assert.Contains(t, text, "\n\n# static binary keeps the runtime image bare\nRUN go build")
}

func TestDockerfilePlainHasNoComments(t *testing.T) {
	r, err := render.New()
	require.NoError(t, err)

	out, err := r.Dockerfile(demo())
	require.NoError(t, err)
	for _, line := range strings.Split(string(out), "\n") {
		assert.False(t, strings.HasPrefix(line, "#"), "unexpected comment: %q", line)
	}
}

func TestDockerfileHeader(t *testing.T) {
	r, err := render.New(render.WithHeader("demo\ndo not edit"))
	require.NoError(t, err)

	out, err := r.Dockerfile(demo())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "# demo\n# do not edit\n\nARG BASE_TAG"))
}

func TestDockerfileExpand(t *testing.T) {
	r, err := render.New(render.WithExpand(true))
	require.NoError(t, err)

	out, err := r.Dockerfile(demo())
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "FROM alpine:3.19 AS runtime")
	assert.Contains(t, text, "ENV PORT=8080")
	assert.Contains(t, text, "EXPOSE 8080")
	assert.NotContains(t, text, "${")
}

func TestDockerfileExpandPreservesRuntimeVars(t *testing.T) {
	rec := demo()
	rec.Stages[1].Instructions = append(rec.Stages[1].Instructions,
		recipe.Env("PATH", "/opt/venv/bin:$PATH"))

	r, err := render.New(render.WithExpand(true))
	require.NoError(t, err)

	out, err := r.Dockerfile(rec)
	require.NoError(t, err)
	assert.Contains(t, string(out), "ENV PATH=/opt/venv/bin:$PATH")
}

func TestDockerfileArgOverrides(t *testing.T) {
	r, err := render.New(
		render.WithExpand(true),
		render.WithArgs(params.Pairs{{Key: "PORT", Value: "9000"}}),
	)
	require.NoError(t, err)

	out, err := r.Dockerfile(demo())
	require.NoError(t, err)
	text := string(out)
	assert.Contains(t, text, "ARG PORT=9000\n")
	assert.Contains(t, text, "EXPOSE 9000")

	r, err = render.New(render.WithArgs(params.Pairs{{Key: "NOPE", Value: "1"}}))
	require.NoError(t, err)
	_, err = r.Dockerfile(demo())
	require.Error(t, err)
	_, ok := err.(recipe.ErrUnknownArg)
	assert.True(t, ok)
}

func TestDockerfileLiteralDollarOverride(t *testing.T) {
	// values arriving from env files may carry $ themselves; the ARG
	// preamble must not expand them
	r, err := render.New(
		render.WithExpand(true),
		render.WithArgs(params.Pairs{{Key: "PORT", Value: "web$x:app"}}),
	)
	require.NoError(t, err)

	out, err := r.Dockerfile(demo())
	require.NoError(t, err)
	assert.Contains(t, string(out), "ARG PORT=web$x:app\n")
}

func TestStage(t *testing.T) {
	r, err := render.New()
	require.NoError(t, err)

	out, err := r.Stage(demo(), "build")
	require.NoError(t, err)
	assert.Equal(t, `FROM golang:1.21-alpine AS build
WORKDIR /src
COPY . .
RUN go build -o /out/app ./cmd/app
`, string(out))

	_, err = r.Stage(demo(), "missing")
	assert.Equal(t, render.ErrStageNotFound, err)
}

func TestStageBlocksComposeDockerfile(t *testing.T) {
	r, err := render.New()
	require.NoError(t, err)

	rec := demo()
	var blocks []string
	for _, s := range rec.Stages {
		out, err := r.Stage(rec, s.Name)
		require.NoError(t, err)
		blocks = append(blocks, string(out))
	}
	body := strings.Join(blocks, "\n")
	assert.True(t, strings.HasSuffix(demoPlain, "\n"+body))
}

func TestLine(t *testing.T) {
	for _, tc := range []struct {
		in   recipe.Instruction
		want string
	}{
		{recipe.Run("apk add --no-cache tini"), "RUN apk add --no-cache tini"},
		{recipe.RunExec("ls", "-l"), `RUN ["ls","-l"]`},
		{recipe.Env("NODE_ENV", "production"), "ENV NODE_ENV=production"},
		{recipe.Env("GREETING", "hello world"), `ENV GREETING="hello world"`},
		{recipe.Env("EMPTY", ""), `ENV EMPTY=""`},
		{recipe.Arg("PORT"), "ARG PORT"},
		{recipe.ArgDefault("PORT", "3000"), "ARG PORT=3000"},
		{recipe.Label("maintainer", "platform team"), `LABEL maintainer="platform team"`},
		{recipe.Copy("a", "b").From("deps").Chown("node:node"), "COPY --from=deps --chown=node:node a b"},
		{recipe.Workdir("/app"), "WORKDIR /app"},
		{recipe.Volume("/tmp", "/data"), "VOLUME /tmp /data"},
		{recipe.Expose("3000"), "EXPOSE 3000"},
		{recipe.Entrypoint("/sbin/tini", "--"), `ENTRYPOINT ["/sbin/tini","--"]`},
		{recipe.CmdShell(`gunicorn --bind 0.0.0.0:8000 "$APP_MODULE"`), `CMD gunicorn --bind 0.0.0.0:8000 "$APP_MODULE"`},
		{recipe.Shell("/bin/bash", "-c"), `SHELL ["/bin/bash","-c"]`},
		{recipe.StopSignal("SIGTERM"), "STOPSIGNAL SIGTERM"},
	} {
		got, err := render.Line(tc.in)
		require.NoError(t, err, tc.want)
		assert.Equal(t, tc.want, got)
	}
}

func TestLineHealthcheck(t *testing.T) {
	in := recipe.Check(recipe.Healthcheck{
		Test:     []string{"CMD-SHELL", "wget -q -O /dev/null http://localhost:3000/healthz || exit 1"},
		Interval: 30 * time.Second,
		Retries:  3,
	})
	got, err := render.Line(in)
	require.NoError(t, err)
	assert.Equal(t, "HEALTHCHECK --interval=30s --retries=3 CMD wget -q -O /dev/null http://localhost:3000/healthz || exit 1", got)

	in = recipe.Check(recipe.Healthcheck{Test: []string{"CMD", "curl", "-f", "http://localhost/"}})
	got, err = render.Line(in)
	require.NoError(t, err)
	assert.Equal(t, `HEALTHCHECK CMD ["curl","-f","http://localhost/"]`, got)

	got, err = render.Line(recipe.Check(recipe.Healthcheck{Disable: true}))
	require.NoError(t, err)
	assert.Equal(t, "HEALTHCHECK NONE", got)
}
