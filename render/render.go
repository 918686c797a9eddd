package render

import (
	"bytes"
	"errors"
	"strings"

	"bakery/params"
	"bakery/recipe"
)

var ErrStageNotFound = errors.New("render: stage not found")

// Renderer turns recipes into Dockerfile text. Output is deterministic:
// identical inputs produce byte-identical files.
type Renderer interface {
	Dockerfile(r recipe.Recipe) ([]byte, error)
	Stage(r recipe.Recipe, name string) ([]byte, error)
}

type Opt func(*renderer) error

// WithAnnotations emits instruction and stage notes as comment lines.
func WithAnnotations(on bool) Opt {
	return func(r *renderer) error {
		r.annotate = on
		return nil
	}
}

// WithArgs overrides declared argument defaults. Unknown names fail the
// render.
func WithArgs(overrides params.Pairs) Opt {
	return func(r *renderer) error {
		r.overrides = overrides
		return nil
	}
}

// WithExpand substitutes resolved argument values into the output.
// References to anything else, such as runtime environment variables, stay
// verbatim. Preview only: built images rely on the daemon's own
// substitution.
func WithExpand(on bool) Opt {
	return func(r *renderer) error {
		r.expand = on
		return nil
	}
}

// WithHeader prepends a comment banner.
func WithHeader(text string) Opt {
	return func(r *renderer) error {
		r.header = text
		return nil
	}
}

func New(opts ...Opt) (Renderer, error) {
	r := &renderer{}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

type renderer struct {
	annotate  bool
	expand    bool
	overrides params.Pairs
	header    string
}

func (r *renderer) Dockerfile(rec recipe.Recipe) ([]byte, error) {
	resolved, err := rec.ResolveArgs(r.overrides)
	if err != nil {
		return nil, err
	}

	var blocks [][]string

	if r.header != "" {
		blocks = append(blocks, comment(r.header))
	}

	if len(rec.Args) > 0 {
		preamble, err := r.argLines(rec, resolved)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, preamble)
	}

	for idx, stage := range rec.Stages {
		lines, err := r.stageLines(rec, stage, idx == len(rec.Stages)-1, resolved)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, lines)
	}

	return join(blocks), nil
}

func (r *renderer) Stage(rec recipe.Recipe, name string) ([]byte, error) {
	resolved, err := rec.ResolveArgs(r.overrides)
	if err != nil {
		return nil, err
	}
	for idx, stage := range rec.Stages {
		if stage.Name != name {
			continue
		}
		lines, err := r.stageLines(rec, stage, idx == len(rec.Stages)-1, resolved)
		if err != nil {
			return nil, err
		}
		return join([][]string{lines}), nil
	}
	return nil, ErrStageNotFound
}

// argLines renders the global ARG preamble. Overridden defaults replace the
// declared ones in the output.
func (r *renderer) argLines(rec recipe.Recipe, resolved params.Pairs) ([]string, error) {
	var lines []string
	for _, a := range rec.Args {
		if r.annotate && a.Note != "" {
			lines = append(lines, comment(a.Note)...)
		}
		value, _ := resolved.Get(a.Name)
		in := recipe.Arg(a.Name)
		if value != "" {
			in = recipe.ArgDefault(a.Name, value)
		}
		line, err := r.line(in, nil)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (r *renderer) stageLines(rec recipe.Recipe, stage recipe.Stage, last bool, resolved params.Pairs) ([]string, error) {
	vars := map[string]string(nil)
	if r.expand {
		vars = resolved.Map()
	}

	var lines []string
	if r.annotate && stage.Note != "" {
		lines = append(lines, comment(stage.Note)...)
	}

	image := stage.Image
	if r.expand {
		expanded, err := params.ExpandPreserve(image, vars)
		if err != nil {
			return nil, err
		}
		image = expanded
	}
	from := "FROM "
	if stage.Platform != "" {
		from += "--platform=" + stage.Platform + " "
	}
	from += image + " AS " + stage.Name
	lines = append(lines, from)

	for i, in := range stage.Instructions {
		if r.annotate && in.Note != "" {
			if i > 0 {
				lines = append(lines, "")
			}
			lines = append(lines, comment(in.Note)...)
		}
		line, err := r.line(in, vars)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	if last {
		for _, kv := range rec.Labels {
			line, err := r.line(recipe.Label(kv.Key, kv.Value), vars)
			if err != nil {
				return nil, err
			}
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func comment(text string) []string {
	var lines []string
	for _, l := range strings.Split(strings.TrimRight(text, "\n"), "\n") {
		if l == "" {
			lines = append(lines, "#")
			continue
		}
		lines = append(lines, "# "+l)
	}
	return lines
}

func join(blocks [][]string) []byte {
	var buf bytes.Buffer
	for i, block := range blocks {
		if i > 0 {
			buf.WriteByte('\n')
		}
		for _, line := range block {
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}
