package node

import (
	"fmt"
	"time"

	"bakery/catalog"
	"bakery/recipe"
)

const (
	// Name is the catalog name of this recipe.
	Name = "node-service"

	description = "Node.js service in three stages: production deps, compiler, lean runtime"

	defaultNodeVersion = "20"
	defaultPort        = 3000
	defaultBuildScript = "build"
	defaultServerPath  = "dist/server.js"
	defaultHealthPath  = "/healthz"
)

func init() {
	catalog.Register(catalog.MakeProvider(Name, description, New))
}

// New returns the recipe with its defaults.
func New() recipe.Recipe {
	return NewBuilder().Create()
}

type Builder interface {
	WithNodeVersion(string) Builder
	WithPort(int) Builder
	WithBuildScript(string) Builder
	WithServerPath(string) Builder
	WithHealthPath(string) Builder
	Create() recipe.Recipe
}

func NewBuilder() Builder {
	return &builder{
		node:   defaultNodeVersion,
		port:   defaultPort,
		script: defaultBuildScript,
		server: defaultServerPath,
		health: defaultHealthPath,
	}
}

type builder struct {
	node   string
	port   int
	script string
	server string
	health string
}

func (b *builder) WithNodeVersion(version string) Builder {
	b.node = version
	return b
}

func (b *builder) WithPort(port int) Builder {
	b.port = port
	return b
}

func (b *builder) WithBuildScript(script string) Builder {
	b.script = script
	return b
}

func (b *builder) WithServerPath(path string) Builder {
	b.server = path
	return b
}

func (b *builder) WithHealthPath(path string) Builder {
	b.health = path
	return b
}

func (b *builder) Create() recipe.Recipe {
	probe := fmt.Sprintf(
		"wget -q -O /dev/null http://127.0.0.1:${PORT}%s || exit 1",
		b.health)

	return recipe.Recipe{
		Name:        Name,
		Description: description,
		Args: []recipe.ArgSpec{
			{Name: "NODE_VERSION", Default: b.node, Note: "major version; all three stages track it"},
			{Name: "PORT", Default: fmt.Sprintf("%d", b.port), Note: "listen port, surfaced to the app as $PORT"},
		},
		Notes: []string{
			"Assumes a lockfile: npm ci refuses to guess versions.",
			"The build script must emit the compiled server under dist/.",
		},
		Stages: []recipe.Stage{
			{
				Name:  "deps",
				Image: "node:${NODE_VERSION}-alpine",
				Note:  "Production node_modules, cached until the lockfile changes.",
				Instructions: []recipe.Instruction{
					recipe.Workdir("/app"),
					recipe.Copy("package.json", "package-lock.json", "./").
						WithNote("manifests only; source edits leave this layer cached"),
					recipe.Run("npm ci --omit=dev").
						WithNote("exact lockfile versions, dev tooling excluded"),
				},
			},
			{
				Name:  "build",
				Image: "node:${NODE_VERSION}-alpine",
				Note:  "Compiler stage with the full toolchain; nothing here ships.",
				Instructions: []recipe.Instruction{
					recipe.Workdir("/app"),
					recipe.Copy("package.json", "package-lock.json", "./"),
					recipe.Run("npm ci").
						WithNote("dev dependencies too; the compiler lives there"),
					recipe.Copy(".", "."),
					recipe.Run(fmt.Sprintf("npm run %s", b.script)).
						WithNote("emits the compiled server into dist/"),
				},
			},
			{
				Name:  "runtime",
				Image: "node:${NODE_VERSION}-alpine",
				Note:  "The shipped image: runtime deps, compiled output, tini as PID 1.",
				Instructions: []recipe.Instruction{
					recipe.Env("NODE_ENV", "production").
						WithNote("frameworks disable debug codepaths when they see it"),
					recipe.Run("apk add --no-cache tini").
						WithNote("node makes a poor PID 1; tini forwards signals and reaps zombies"),
					recipe.Workdir("/app"),
					recipe.Copy("/app/node_modules", "./node_modules").From("deps").Chown("node:node").
						WithNote("production dependencies only"),
					recipe.Copy("/app/dist", "./dist").From("build").Chown("node:node").
						WithNote("compiled output; sources and toolchain stay behind"),
					recipe.Copy("package.json", "./").Chown("node:node").
						WithNote("version metadata for the running app"),
					recipe.User("node").
						WithNote("uid 1000, shipped in the official image"),
					recipe.Arg("PORT"),
					recipe.Env("PORT", "${PORT}").
						WithNote("build arg frozen into the environment; the app reads $PORT"),
					recipe.Expose("${PORT}"),
					recipe.Check(recipe.Healthcheck{
						Test:     []string{"CMD-SHELL", probe},
						Interval: 30 * time.Second,
						Timeout:  3 * time.Second,
						Retries:  3,
					}).WithNote("busybox wget is already in alpine; no extra packages"),
					recipe.Entrypoint("/sbin/tini", "--").
						WithNote("everything below runs as a child of tini"),
					recipe.Cmd("node", b.server).
						WithNote("exec form: no shell between tini and node"),
					recipe.StopSignal("SIGTERM").
						WithNote("orchestrators send TERM first; node servers close listeners on it"),
				},
			},
		},
	}
}
