package verify

import (
	"context"
	"fmt"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"bakery/catalog"
	"bakery/docs"
	"bakery/recipe"
	"bakery/render"
)

// Finding is one documentation inconsistency.
type Finding struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
	Diff    string `json:"diff,omitempty"`
}

// Report collects the findings for one recipe.
type Report struct {
	Recipe   string    `json:"recipe"`
	Findings []Finding `json:"findings,omitempty"`
}

func (r Report) Clean() bool { return len(r.Findings) == 0 }

// Clean reports whether every report is finding-free.
func Clean(reports []Report) bool {
	for _, r := range reports {
		if !r.Clean() {
			return false
		}
	}
	return true
}

// Recipe checks that the documented instruction sequence matches the
// rendered one: every dockerfile fence in the recipe's README must equal
// its stage, compared instruction by instruction.
func Recipe(r recipe.Recipe) (Report, error) {
	report := Report{Recipe: r.Name}

	md, err := docs.Markdown(r)
	if err != nil {
		return report, err
	}
	fences, err := docs.Fences(md)
	if err != nil {
		return report, err
	}

	plain, err := render.New()
	if err != nil {
		return report, err
	}

	if len(fences) != len(r.Stages) {
		report.Findings = append(report.Findings, Finding{
			Path:    docs.ReadmeName,
			Message: fmt.Sprintf("%d dockerfile fences for %d stages", len(fences), len(r.Stages)),
		})
		return report, nil
	}

	for i, stage := range r.Stages {
		block, err := plain.Stage(r, stage.Name)
		if err != nil {
			return report, err
		}
		want := Normalize(block)
		got := Normalize([]byte(fences[i]))
		if diff := cmp.Diff(want, got); diff != "" {
			report.Findings = append(report.Findings, Finding{
				Path:    docs.ReadmeName,
				Message: fmt.Sprintf("stage %q drifted from its documentation", stage.Name),
				Diff:    diff,
			})
		}
	}
	return report, nil
}

// All verifies recipes from c concurrently. An empty name list means
// everything c holds.
func All(ctx context.Context, c catalog.Catalog, names []string) ([]Report, error) {
	if len(names) == 0 {
		names = c.Names()
	}

	reports := make([]Report, len(names))
	g, ctx := errgroup.WithContext(ctx)
	for i := range names {
		i, name := i, names[i]
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			p, err := c.Lookup(name)
			if err != nil {
				return fmt.Errorf("%s: %v", name, err)
			}
			r := p.New()
			if err := recipe.Validate(r); err != nil {
				return err
			}
			report, err := Recipe(r)
			if err != nil {
				return err
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
