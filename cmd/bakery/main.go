package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"bakery/log"
	"bakery/net"
	"bakery/version"
	"github.com/sirupsen/logrus"

	_ "bakery/builtin/java"
	_ "bakery/builtin/node"
	_ "bakery/builtin/python"

	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

var (
	app = kingpin.New("bakery", "Curated Dockerfile recipe catalog.")

	flagLogLevel = app.Flag("log-level", "Log level (debug, info, warn, error).  Default: info").
			Short('v').
			Default("info").
			Enum("debug", "info", "warn", "error")

	flagLogFile = app.Flag("log-file", "Log file.  Default: /dev/stderr").
			Default("/dev/stderr").
			String()

	cmdList = app.Command("list", "List catalog recipes.")

	cmdShow        = app.Command("show", "Render a recipe's Dockerfile to stdout.")
	showRecipe     = cmdShow.Arg("recipe", "recipe name").Required().String()
	showAnnotate   = cmdShow.Flag("annotate", "emit rationale comments").Bool()
	showExpand     = cmdShow.Flag("expand", "substitute resolved build arguments (preview)").Bool()
	showArgs       = cmdShow.Flag("arg", "build argument override").PlaceHolder("KEY=VALUE").Strings()
	showEnvFile    = cmdShow.Flag("env-file", "load argument values from an env file").ExistingFile()

	cmdDocs    = app.Command("docs", "Render a recipe's README to stdout.")
	docsRecipe = cmdDocs.Arg("recipe", "recipe name").Required().String()

	cmdLint     = app.Command("lint", "Run best-practice checks.")
	lintRecipes = cmdLint.Arg("recipe", "recipe names (default: all)").Strings()

	cmdVerify     = app.Command("verify", "Check documentation consistency.")
	verifyDir     = cmdVerify.Flag("dir", "verify an exported tree instead of in-memory docs").String()
	verifyRecipes = cmdVerify.Arg("recipe", "recipe names (default: all)").Strings()

	cmdExport     = app.Command("export", "Write Dockerfile and README for recipes.")
	exportOut     = cmdExport.Flag("out", "output directory").Short('o').Required().String()
	exportForce   = cmdExport.Flag("force", "overwrite files that drifted from the rendered output").Bool()
	exportRecipes = cmdExport.Arg("recipe", "recipe names (default: all)").Strings()

	cmdRender    = app.Command("render", "Render recipes per a manifest file.")
	renderFile   = cmdRender.Flag("manifest", "manifest file (json or yaml)").Short('f').Required().ExistingFile()
	renderBuild  = cmdRender.Flag("build", "also build entries that carry a build spec").Bool()
	renderWatch  = cmdRender.Flag("watch", "watch the manifest and re-render on change").Bool()

	cmdBuild     = app.Command("build", "Build a recipe image via the docker daemon.")
	buildRecipe  = cmdBuild.Arg("recipe", "recipe name").Required().String()
	buildTag     = cmdBuild.Flag("tag", "image tag").Short('t').Required().String()
	buildArgs    = cmdBuild.Flag("arg", "build argument override").PlaceHolder("KEY=VALUE").Strings()
	buildEnvFile = cmdBuild.Flag("env-file", "load argument values from an env file").ExistingFile()
	buildPull    = cmdBuild.Flag("pull", "always pull base images").Bool()
	buildNoCache = cmdBuild.Flag("no-cache", "disable the build cache").Bool()
	buildContext = cmdBuild.Flag("context", "build context directory").ExistingDir()
	buildMemory  = cmdBuild.Flag("memory", "build memory limit (eg 512m)").String()
	buildNetwork = cmdBuild.Flag("network", "build-time network mode").String()
	buildUIMode  = cmdBuild.Flag("ui", "progress ui (tui, plain, none)").Default("plain").Enum("tui", "plain", "none")

	cmdServe    = app.Command("serve", "Run the catalog REST server.")
	serveListen = cmdServe.Flag("listen-address", "Listen address. Default: "+net.DefaultListenAddress).
			Short('l').
			Default(net.DefaultListenAddress).
			String()
)

func main() {

	app.Version(version.String())
	app.HelpFlag.Short('h')
	app.DefaultEnvars()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	log, ctx := createLog()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var err error

	switch command {
	case cmdList.FullCommand():
		err = runList()
	case cmdShow.FullCommand():
		err = runShow()
	case cmdDocs.FullCommand():
		err = runDocs()
	case cmdLint.FullCommand():
		err = runLint(log)
	case cmdVerify.FullCommand():
		err = runVerify(ctx)
	case cmdExport.FullCommand():
		err = runExport(ctx, log)
	case cmdRender.FullCommand():
		err = runRender(ctx, cancel, log)
	case cmdBuild.FullCommand():
		err = runBuild(ctx, cancel, log)
	case cmdServe.FullCommand():
		err = runServe(ctx, cancel, log)
	}

	app.FatalIfError(err, "%s", command)
}

func handleSignals(ctx context.Context, cancel context.CancelFunc) <-chan struct{} {
	donech := make(chan struct{})
	go func() {
		defer close(donech)

		sigch := make(chan os.Signal, 1)
		signal.Notify(sigch, syscall.SIGINT, syscall.SIGHUP, syscall.SIGTERM)
		defer signal.Stop(sigch)

		select {
		case <-ctx.Done():
		case <-sigch:
			cancel()
		}
	}()
	return donech
}

func createLog() (logrus.FieldLogger, context.Context) {

	level, err := logrus.ParseLevel(*flagLogLevel)
	app.FatalIfError(err, "Invalid log level")

	file, err := os.OpenFile(*flagLogFile, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0644)
	app.FatalIfError(err, "Error opening log file")

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetOutput(file)

	return logger, log.NewContext(context.Background(), logger)
}
