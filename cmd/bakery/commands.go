package main

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"bakery/catalog"
	"bakery/docs"
	"bakery/lint"
	"bakery/params"
	"bakery/recipe"
	"bakery/render"
	"bakery/verify"
)

func runList() error {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTAGES\tDESCRIPTION")
	catalog.Each(func(p catalog.Provider) {
		r := p.New()
		fmt.Fprintf(tw, "%v\t%v\t%v\n", p.Name(), len(r.Stages), p.Description())
	})
	return tw.Flush()
}

func runShow() error {
	r, err := lookupRecipe(*showRecipe)
	if err != nil {
		return err
	}

	p, err := gatherParams(*showArgs, *showEnvFile)
	if err != nil {
		return err
	}

	renderer, err := render.New(
		render.WithAnnotations(*showAnnotate),
		render.WithExpand(*showExpand),
		render.WithArgs(r.ArgOverrides(p)),
	)
	if err != nil {
		return err
	}

	buf, err := renderer.Dockerfile(r)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(buf)
	return err
}

func runDocs() error {
	r, err := lookupRecipe(*docsRecipe)
	if err != nil {
		return err
	}

	buf, err := docs.Markdown(r)
	if err != nil {
		return err
	}

	_, err = os.Stdout.Write(buf)
	return err
}

func runLint(log logrus.FieldLogger) error {
	names, err := selectNames(*lintRecipes)
	if err != nil {
		return err
	}

	var findings []lint.Finding
	for _, name := range names {
		r, err := lookupRecipe(name)
		if err != nil {
			return err
		}
		findings = append(findings, lint.Run(r)...)
	}

	if len(findings) == 0 {
		log.WithField("recipes", len(names)).Info("lint: clean")
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tCHECK\tRECIPE\tSTAGE\tMESSAGE")
	for _, f := range findings {
		fmt.Fprintf(tw, "%v\t%v\t%v\t%v\t%v\n", f.Severity, f.Check, f.Recipe, f.Stage, f.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if lint.HasErrors(findings) {
		os.Exit(1)
	}
	return nil
}

func runVerify(ctx context.Context) error {
	names, err := selectNames(*verifyRecipes)
	if err != nil {
		return err
	}

	var reports []verify.Report
	if *verifyDir != "" {
		reports, err = verify.Tree(*verifyDir, catalog.Default(), names)
	} else {
		reports, err = verify.All(ctx, catalog.Default(), names)
	}
	if err != nil {
		return err
	}

	for _, report := range reports {
		if report.Clean() {
			fmt.Printf("%v: ok\n", report.Recipe)
			continue
		}
		for _, f := range report.Findings {
			fmt.Printf("%v: %v", report.Recipe, f.Message)
			if f.Path != "" {
				fmt.Printf(" (%v)", f.Path)
			}
			fmt.Println()
			if f.Diff != "" {
				fmt.Println(f.Diff)
			}
		}
	}

	if !verify.Clean(reports) {
		os.Exit(1)
	}
	return nil
}

func runExport(ctx context.Context, log logrus.FieldLogger) error {
	names, err := selectNames(*exportRecipes)
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(ctx)
	for _, name := range names {
		name := name
		g.Go(func() error {
			return exportRecipe(log, name)
		})
	}
	return g.Wait()
}

func exportRecipe(log logrus.FieldLogger, name string) error {
	log = log.WithField("recipe", name)

	r, err := lookupRecipe(name)
	if err != nil {
		return err
	}

	files, err := docs.Files(r, true)
	if err != nil {
		return err
	}

	dir := filepath.Join(*exportOut, name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	for _, file := range files {
		path := filepath.Join(dir, file.Name)
		if current, err := ioutil.ReadFile(path); err == nil {
			if bytes.Equal(current, file.Data) {
				continue
			}
			if !*exportForce {
				return fmt.Errorf("%v has local changes; use --force to overwrite", path)
			}
		}
		if err := ioutil.WriteFile(path, file.Data, 0644); err != nil {
			return err
		}
		log.WithField("path", path).Info("exported")
	}
	return nil
}

func lookupRecipe(name string) (recipe.Recipe, error) {
	p, err := catalog.Lookup(name)
	if err != nil {
		return recipe.Recipe{}, fmt.Errorf("%v: %q", err, name)
	}
	r := p.New()
	if err := recipe.Validate(r); err != nil {
		return recipe.Recipe{}, err
	}
	return r, nil
}

func selectNames(args []string) ([]string, error) {
	if len(args) == 0 {
		return catalog.Names(), nil
	}
	for _, name := range args {
		if _, err := catalog.Lookup(name); err != nil {
			return nil, fmt.Errorf("%v: %q", err, name)
		}
	}
	return args, nil
}

// gatherParams assembles the substitution parameters from repeated
// KEY=VALUE flags and an optional env file. Inline values win.
func gatherParams(args []string, envFile string) (params.Params, error) {
	pairs, err := params.ParseKVs(args)
	if err != nil {
		return params.Params{}, err
	}

	var env params.Pairs
	if envFile != "" {
		env, err = params.LoadEnvFile(envFile)
		if err != nil {
			return params.Params{}, err
		}
	}

	return params.Params{Args: pairs, Env: env}, nil
}
