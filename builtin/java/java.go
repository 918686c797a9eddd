package java

import (
	"fmt"
	"strings"
	"time"

	"bakery/catalog"
	"bakery/recipe"
)

const (
	// Name is the catalog name of this recipe.
	Name = "java-jlink"

	description = "Java service built with Maven, shipped on a jlink-pruned runtime"

	defaultJDKVersion = "17"
	defaultJarFile    = "target/*.jar"
	defaultPort       = 8080
	defaultHealthPath = "/actuator/health"

	jrePath = "/opt/jre"
)

// defaultModules covers a typical Spring-style service. Run jdeps against
// the application jar to shrink it further.
var defaultModules = []string{
	"java.base",
	"java.logging",
	"java.naming",
	"java.net.http",
	"java.sql",
	"java.management",
	"java.instrument",
	"java.security.jgss",
	"java.desktop",
	"jdk.unsupported",
}

func init() {
	catalog.Register(catalog.MakeProvider(Name, description, New))
}

// New returns the recipe with its defaults.
func New() recipe.Recipe {
	return NewBuilder().Create()
}

type Builder interface {
	WithJDKVersion(string) Builder
	WithModules([]string) Builder
	WithJarFile(string) Builder
	WithPort(int) Builder
	WithHealthPath(string) Builder
	Create() recipe.Recipe
}

func NewBuilder() Builder {
	return &builder{
		jdk:     defaultJDKVersion,
		modules: defaultModules,
		jar:     defaultJarFile,
		port:    defaultPort,
		health:  defaultHealthPath,
	}
}

type builder struct {
	jdk     string
	modules []string
	jar     string
	port    int
	health  string
}

func (b *builder) WithJDKVersion(version string) Builder {
	b.jdk = version
	return b
}

func (b *builder) WithModules(modules []string) Builder {
	b.modules = modules
	return b
}

func (b *builder) WithJarFile(glob string) Builder {
	b.jar = glob
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
	return recipe.Recipe{
		Name:        Name,
		Description: description,
		Args: []recipe.ArgSpec{
			{Name: "JDK_VERSION", Default: b.jdk, Note: "JDK major used to build and to carve the runtime"},
			{Name: "JAVA_MODULES", Default: strings.Join(b.modules, ","), Note: "module list handed to jlink; prune with jdeps"},
			{Name: "JAR_FILE", Default: b.jar, Note: "glob matching the single built artifact"},
		},
		Notes: []string{
			"The jlink stage fails the build if the module list misses one the app loads; extend JAVA_MODULES.",
		},
		Stages: []recipe.Stage{
			{
				Name:  "builder",
				Image: "maven:3.9-eclipse-temurin-${JDK_VERSION}",
				Note:  "Maven build; dependency resolution is its own layer.",
				Instructions: []recipe.Instruction{
					recipe.Workdir("/build"),
					recipe.Copy("pom.xml", "./").
						WithNote("pom first: the dependency layer survives source edits"),
					recipe.Run("mvn -B dependency:go-offline").
						WithNote("downloads the dependency tree once, cached until the pom changes"),
					recipe.Copy("src", "./src"),
					recipe.Run("mvn -B package -DskipTests").
						WithNote("tests belong to CI; the image build just packages"),
				},
			},
			{
				Name:  "jre",
				Image: "eclipse-temurin:${JDK_VERSION}",
				Note:  "jlink carves a runtime containing only the modules the app loads.",
				Instructions: []recipe.Instruction{
					recipe.Arg("JAVA_MODULES"),
					recipe.Run("$JAVA_HOME/bin/jlink" +
						" --add-modules ${JAVA_MODULES}" +
						" --strip-debug --no-man-pages --no-header-files --compress=2" +
						" --output " + jrePath).
						WithNote("an order of magnitude smaller than the full JDK"),
				},
			},
			{
				Name:  "runtime",
				Image: "debian:12-slim",
				Note:  "Plain Debian plus the pruned runtime; no JDK, no Maven.",
				Instructions: []recipe.Instruction{
					recipe.Env("JAVA_HOME", jrePath),
					recipe.Env("PATH", jrePath+"/bin:$PATH"),
					recipe.Run("apt-get update" +
						" && apt-get install -y --no-install-recommends curl" +
						" && rm -rf /var/lib/apt/lists/*").
						WithNote("curl only serves the healthcheck; lists removed in the same layer"),
					recipe.Run("addgroup --system app && adduser --system --ingroup app app").
						WithNote("system account with no shell and no password"),
					recipe.Copy(jrePath, jrePath).From("jre").
						WithNote("the carved runtime is one directory"),
					recipe.Workdir("/app"),
					recipe.Arg("JAR_FILE"),
					recipe.Copy("/build/${JAR_FILE}", "app.jar").From("builder").
						WithNote("glob resolves inside the builder stage to the single jar"),
					recipe.User("app").
						WithNote("drop root before the JVM starts"),
					recipe.Expose(fmt.Sprintf("%d", b.port)),
					recipe.Volume("/tmp").
						WithNote("JVM scratch files stay off the container layer filesystem"),
					recipe.Check(recipe.Healthcheck{
						Test: []string{"CMD-SHELL", fmt.Sprintf(
							"curl -f http://127.0.0.1:%d%s || exit 1", b.port, b.health)},
						Interval:    30 * time.Second,
						Timeout:     3 * time.Second,
						StartPeriod: 10 * time.Second,
						Retries:     3,
					}).WithNote("start period covers the JVM warmup"),
					recipe.Entrypoint("java", "-jar", "app.jar").
						WithNote("exec form: java is PID 1 and receives signals directly"),
					recipe.StopSignal("SIGTERM").
						WithNote("the JVM runs shutdown hooks on TERM"),
				},
			},
		},
	}
}
