package recipe

import (
	"bakery/params"
	"bakery/types"
)

// ArgSpec is a build argument the recipe accepts, with its default and the
// purpose line shown in recipe docs.
type ArgSpec struct {
	Name    string `json:"name"`
	Default string `json:"default"`
	Note    string `json:"note,omitempty"`
}

// Stage is one build stage. The final stage of a recipe is its runtime
// image.
type Stage struct {
	Name         string
	Image        string
	Platform     string
	Note         string
	Instructions []Instruction
}

// Recipe is a curated multi-stage image build. Args apply to every stage;
// resolution happens at render or build time, never in the model. Labels
// are rendered into the runtime stage. Notes are recipe-wide rationale
// shown by the docs.
type Recipe struct {
	Name        string
	Description string
	Args        []ArgSpec
	Labels      params.Pairs
	Notes       []string
	Stages      []Stage
}

// Stage returns the named stage.
func (r Recipe) Stage(name string) (Stage, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return Stage{}, false
}

// Runtime returns the final stage, the one whose image ships.
func (r Recipe) Runtime() Stage {
	if len(r.Stages) == 0 {
		return Stage{}
	}
	return r.Stages[len(r.Stages)-1]
}

// Builders returns every stage before the runtime stage.
func (r Recipe) Builders() []Stage {
	if len(r.Stages) < 2 {
		return nil
	}
	return r.Stages[:len(r.Stages)-1]
}

// ArgDefaults returns the declared arguments as ordered pairs.
func (r Recipe) ArgDefaults() params.Pairs {
	pairs := make(params.Pairs, 0, len(r.Args))
	for _, a := range r.Args {
		pairs = pairs.Set(a.Name, a.Default)
	}
	return pairs
}

// ResolveArgs overlays overrides onto the declared defaults. Overrides for
// arguments the recipe does not declare are rejected.
func (r Recipe) ResolveArgs(overrides params.Pairs) (params.Pairs, error) {
	resolved := r.ArgDefaults()
	for _, kv := range overrides {
		if _, ok := resolved.Get(kv.Key); !ok {
			return nil, ErrUnknownArg{Name: kv.Key}
		}
		resolved = resolved.Set(kv.Key, kv.Value)
	}
	return resolved, nil
}

// ArgOverrides collects the effective argument overrides from a parameter
// set. Environment pairs supply values for declared argument names only,
// so a project .env file can carry unrelated variables; explicit args win.
func (r Recipe) ArgOverrides(p params.Params) params.Pairs {
	var overrides params.Pairs
	for _, a := range r.Args {
		if value, ok := p.Env.Get(a.Name); ok {
			overrides = overrides.Set(a.Name, value)
		}
	}
	return overrides.Merge(p.Args)
}

// WithLabels returns a copy of the recipe with the labels merged in. The
// receiver is not modified.
func (r Recipe) WithLabels(labels params.Pairs) Recipe {
	if len(labels) == 0 {
		return r
	}
	r.Labels = r.Labels.Merge(labels)
	return r
}

// Info summarizes the recipe for listings.
func (r Recipe) Info() types.RecipeInfo {
	info := types.RecipeInfo{
		Name:        r.Name,
		Description: r.Description,
	}
	for _, s := range r.Stages {
		info.Stages = append(info.Stages, s.Name)
	}
	for _, a := range r.Args {
		info.Args = append(info.Args, types.ArgInfo{
			Name:    a.Name,
			Default: a.Default,
			Purpose: a.Note,
		})
	}
	return info
}
