package params

import (
	"bytes"
	"text/template"
)

// Params is the full parameter set handed to rendering and building: build
// arguments, runtime environment overrides, and image labels.
type Params struct {
	Args   Pairs `json:"args,omitempty"`
	Env    Pairs `json:"env,omitempty"`
	Labels Pairs `json:"labels,omitempty"`
}

func (p Params) WithArgOverrides(overrides Pairs) Params {
	p.Args = p.Args.Merge(overrides)
	return p
}

func (p Params) ArgMap() map[string]string {
	return p.Args.Map()
}

// Arg, EnvVar and Label are template accessors, see Interpolate.

func (p Params) Arg(key string) string {
	val, _ := p.Args.Get(key)
	return val
}

func (p Params) EnvVar(key string) string {
	val, _ := p.Env.Get(key)
	return val
}

func (p Params) Label(key string) string {
	val, _ := p.Labels.Get(key)
	return val
}

func (p Params) ExecuteTemplate(tmpl *template.Template) (string, error) {
	buf := new(bytes.Buffer)
	err := tmpl.Execute(buf, p)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Interpolate resolves Go template references against this parameter set,
// eg. `app:{{.Arg "PYTHON_VERSION"}}`. Used for manifest tag and output
// fields; Dockerfile text uses Expand instead.
func (p Params) Interpolate(text string) (string, error) {
	tmpl, err := template.New("params-interpolate").Parse(text)
	if err != nil {
		return "", err
	}
	return p.ExecuteTemplate(tmpl)
}
