package docs

import (
	"bakery/params"
	"bakery/recipe"
	"bakery/render"
)

const (
	DockerfileName = "Dockerfile"
	ReadmeName     = "README.md"
)

// File is a named artifact produced from a recipe.
type File struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// Files renders the exportable artifacts of a recipe: the Dockerfile and
// its README.
func Files(r recipe.Recipe, annotate bool) ([]File, error) {
	return FilesWith(r, params.Params{}, annotate)
}

// FilesWith renders the artifacts with a parameter set applied: labels
// merge into the runtime stage and argument overrides replace declared
// defaults. The README documents the recipe itself and does not vary with
// parameters.
func FilesWith(r recipe.Recipe, p params.Params, annotate bool) ([]File, error) {
	r = r.WithLabels(p.Labels)
	renderer, err := render.New(
		render.WithAnnotations(annotate),
		render.WithArgs(r.ArgOverrides(p)),
	)
	if err != nil {
		return nil, err
	}
	dockerfile, err := renderer.Dockerfile(r)
	if err != nil {
		return nil, err
	}
	readme, err := Markdown(r)
	if err != nil {
		return nil, err
	}
	return []File{
		{Name: DockerfileName, Data: dockerfile},
		{Name: ReadmeName, Data: readme},
	}, nil
}
