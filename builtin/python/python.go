package python

import (
	"fmt"
	"time"

	"bakery/catalog"
	"bakery/recipe"
)

const (
	// Name is the catalog name of this recipe.
	Name = "python-gunicorn"

	description = "Python WSGI service on gunicorn; virtualenv built in a throwaway stage"

	defaultPythonVersion = "3.11"
	defaultAppModule     = "app.wsgi:application"
	defaultWorkers       = 4
	defaultPort          = 8000
	defaultHealthPath    = "/healthz"

	venvPath = "/opt/venv"
)

func init() {
	catalog.Register(catalog.MakeProvider(Name, description, New))
}

// New returns the recipe with its defaults.
func New() recipe.Recipe {
	return NewBuilder().Create()
}

type Builder interface {
	WithPythonVersion(string) Builder
	WithAppModule(string) Builder
	WithWorkers(int) Builder
	WithPort(int) Builder
	WithHealthPath(string) Builder
	Create() recipe.Recipe
}

func NewBuilder() Builder {
	return &builder{
		python:  defaultPythonVersion,
		module:  defaultAppModule,
		workers: defaultWorkers,
		port:    defaultPort,
		health:  defaultHealthPath,
	}
}

type builder struct {
	python  string
	module  string
	workers int
	port    int
	health  string
}

func (b *builder) WithPythonVersion(version string) Builder {
	b.python = version
	return b
}

func (b *builder) WithAppModule(module string) Builder {
	b.module = module
	return b
}

func (b *builder) WithWorkers(n int) Builder {
	b.workers = n
	return b
}

func (b *builder) WithPort(port int) Builder {
	b.port = port
	return b
}

func (b *builder) WithHealthPath(path string) Builder {
	b.health = path
	return b
}

func (b *builder) Create() recipe.Recipe {
	probe := fmt.Sprintf(
		`python -c "import urllib.request; urllib.request.urlopen('http://127.0.0.1:%d%s')"`,
		b.port, b.health)

	return recipe.Recipe{
		Name:        Name,
		Description: description,
		Args: []recipe.ArgSpec{
			{Name: "PYTHON_VERSION", Default: b.python, Note: "interpreter version; both stages track it"},
			{Name: "APP_MODULE", Default: b.module, Note: "WSGI entrypoint handed to gunicorn"},
			{Name: "WEB_CONCURRENCY", Default: fmt.Sprintf("%d", b.workers), Note: "worker count gunicorn reads at startup"},
		},
		Notes: []string{
			"requirements.txt must list gunicorn; the runtime stage installs nothing itself.",
			"Serve TLS and static files from a proxy in front of this container.",
		},
		Stages: []recipe.Stage{
			{
				Name:  "builder",
				Image: "python:${PYTHON_VERSION}-slim",
				Note:  "Dependencies compile here; the toolchain never reaches the runtime image.",
				Instructions: []recipe.Instruction{
					recipe.Env("PIP_DISABLE_PIP_VERSION_CHECK", "1").
						WithNote("suppress the self-update check on every install"),
					recipe.Env("PIP_NO_CACHE_DIR", "1").
						WithNote("no wheel cache inside an image that is thrown away"),
					recipe.Run("python -m venv " + venvPath).
						WithNote("a virtualenv is a single directory the runtime stage can copy"),
					recipe.Env("PATH", venvPath+"/bin:$PATH").
						WithNote("pip now installs into the virtualenv"),
					recipe.Workdir("/app"),
					recipe.Copy("requirements.txt", "./").
						WithNote("only the manifest; source edits must not bust the dependency layer"),
					recipe.Run("pip install -r requirements.txt"),
				},
			},
			{
				Name:  "runtime",
				Image: "python:${PYTHON_VERSION}-slim",
				Note:  "The shipped image: interpreter, virtualenv, application source, nothing else.",
				Instructions: []recipe.Instruction{
					recipe.Env("PYTHONDONTWRITEBYTECODE", "1").
						WithNote("no .pyc litter in a read-only container"),
					recipe.Env("PYTHONUNBUFFERED", "1").
						WithNote("logs reach the collector the moment they are written"),
					recipe.Env("PATH", venvPath+"/bin:$PATH"),
					recipe.Run("addgroup --system app && adduser --system --ingroup app app").
						WithNote("system account with no shell and no home password"),
					recipe.Workdir("/app"),
					recipe.Copy(venvPath, venvPath).From("builder").
						WithNote("installed packages only; pip itself stays behind"),
					recipe.Copy(".", ".").Chown("app:app").
						WithNote("source owned by the runtime user, not root"),
					recipe.Arg("APP_MODULE"),
					recipe.Env("APP_MODULE", "${APP_MODULE}").
						WithNote("build arg frozen into the environment so the CMD reads it at start"),
					recipe.Arg("WEB_CONCURRENCY"),
					recipe.Env("WEB_CONCURRENCY", "${WEB_CONCURRENCY}").
						WithNote("gunicorn sizes its worker pool from this at startup"),
					recipe.User("app").
						WithNote("drop root before the process starts"),
					recipe.Expose(fmt.Sprintf("%d", b.port)),
					recipe.Check(recipe.Healthcheck{
						Test:        []string{"CMD-SHELL", probe},
						Interval:    30 * time.Second,
						Timeout:     3 * time.Second,
						StartPeriod: 5 * time.Second,
						Retries:     3,
					}).WithNote("urllib probe; no curl dependency in the image"),
					recipe.StopSignal("SIGTERM").
						WithNote("gunicorn drains workers gracefully on TERM"),
					recipe.CmdShell(fmt.Sprintf(`gunicorn --bind 0.0.0.0:%d "$APP_MODULE"`, b.port)).
						WithNote("shell form on purpose: $APP_MODULE resolves when the container starts"),
				},
			},
		},
	}
}
