package docs

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"bakery/recipe"
	"bakery/render"
)

// Markdown renders the recipe's README: description, build arguments,
// per-stage Dockerfile fences, and the rationale behind every annotated
// instruction.
func Markdown(r recipe.Recipe) ([]byte, error) {
	doc, err := newDocument(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := docsTemplate.Execute(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var docsTemplate = template.Must(template.New("docs").Parse("" +
	"# {{.Name}}\n" +
	"\n" +
	"{{.Description}}\n" +
	"{{if .Args}}\n" +
	"## Build arguments\n" +
	"\n" +
	"| Name | Default | Purpose |\n" +
	"| --- | --- | --- |\n" +
	"{{range .Args}}| `{{.Name}}` | {{.Default}} | {{.Note}} |\n" +
	"{{end}}{{end}}" +
	"{{range .Stages}}\n" +
	"## Stage: {{.Name}}\n" +
	"{{if .Note}}\n" +
	"{{.Note}}\n" +
	"{{end}}\n" +
	"```dockerfile\n" +
	"{{.Dockerfile}}" +
	"```\n" +
	"{{if .Rationale}}\n" +
	"### Instruction rationale\n" +
	"\n" +
	"{{range .Rationale}}- `{{.Code}}`: {{.Note}}\n" +
	"{{end}}{{end}}{{end}}" +
	"{{if .Meta}}\n" +
	"## Runtime metadata\n" +
	"\n" +
	"{{range .Meta}}- {{.}}\n" +
	"{{end}}{{end}}" +
	"{{if .Notes}}\n" +
	"## Notes\n" +
	"\n" +
	"{{range .Notes}}- {{.}}\n" +
	"{{end}}{{end}}"))

type argRow struct {
	Name    string
	Default string
	Note    string
}

type rationaleRow struct {
	Code string
	Note string
}

type stageSection struct {
	Name       string
	Note       string
	Dockerfile string
	Rationale  []rationaleRow
}

type document struct {
	Name        string
	Description string
	Args        []argRow
	Stages      []stageSection
	Meta        []string
	Notes       []string
}

func newDocument(r recipe.Recipe) (document, error) {
	doc := document{
		Name:        r.Name,
		Description: r.Description,
		Meta:        metaLines(r),
		Notes:       r.Notes,
	}

	for _, a := range r.Args {
		row := argRow{Name: a.Name, Note: a.Note}
		if a.Default != "" {
			row.Default = "`" + a.Default + "`"
		}
		doc.Args = append(doc.Args, row)
	}

	plain, err := render.New()
	if err != nil {
		return document{}, err
	}
	for _, stage := range r.Stages {
		body, err := plain.Stage(r, stage.Name)
		if err != nil {
			return document{}, err
		}
		section := stageSection{
			Name:       stage.Name,
			Note:       stage.Note,
			Dockerfile: string(body),
		}
		for _, in := range stage.Instructions {
			if in.Note == "" {
				continue
			}
			code, err := render.Line(in)
			if err != nil {
				return document{}, err
			}
			section.Rationale = append(section.Rationale, rationaleRow{
				Code: code,
				Note: in.Note,
			})
		}
		doc.Stages = append(doc.Stages, section)
	}
	return doc, nil
}

func metaLines(r recipe.Recipe) []string {
	stage := r.Runtime()

	var user, signal string
	var ports, volumes []string
	probe := false
	for _, in := range stage.Instructions {
		switch in.Kind {
		case recipe.KindUser:
			user = in.Args[0]
		case recipe.KindExpose:
			ports = append(ports, in.Args...)
		case recipe.KindVolume:
			volumes = append(volumes, in.Args...)
		case recipe.KindStopSignal:
			signal = in.Args[0]
		case recipe.KindHealthcheck:
			probe = len(in.Exec) > 0
		}
	}

	var meta []string
	if user != "" {
		meta = append(meta, fmt.Sprintf("Runs as user `%s`.", user))
	}
	if len(ports) > 0 {
		meta = append(meta, "Exposes "+strings.Join(ports, ", ")+".")
	}
	if len(volumes) > 0 {
		meta = append(meta, "Declares volumes "+strings.Join(volumes, ", ")+".")
	}
	if probe {
		meta = append(meta, "Ships a container healthcheck.")
	}
	if signal != "" {
		meta = append(meta, "Stops with "+signal+".")
	}
	if len(r.Labels) > 0 {
		var labels []string
		for _, kv := range r.Labels {
			labels = append(labels, fmt.Sprintf("`%s=%s`", kv.Key, kv.Value))
		}
		meta = append(meta, "Labels: "+strings.Join(labels, ", ")+".")
	}
	return meta
}
