package verify

import (
	"bytes"

	"bakery/catalog"
	"bakery/docs"
)

// Artifacts checks submitted file contents against a recipe's rendered
// artifacts. Only the submitted names are compared; a name the recipe does
// not produce is a finding, not an error.
func Artifacts(c catalog.Catalog, name string, files []docs.File) (Report, error) {
	report := Report{Recipe: name}

	p, err := c.Lookup(name)
	if err != nil {
		return report, err
	}
	rendered, err := docs.Files(p.New(), true)
	if err != nil {
		return report, err
	}

	for _, f := range files {
		want, ok := lookupFile(rendered, f.Name)
		if !ok {
			report.Findings = append(report.Findings, Finding{
				Path:    f.Name,
				Message: "not a recipe artifact",
			})
			continue
		}
		if !bytes.Equal(f.Data, want) {
			report.Findings = append(report.Findings, Finding{
				Path:    f.Name,
				Message: "content drifted from the recipe",
				Diff:    diffLines(want, f.Data),
			})
		}
	}
	return report, nil
}

func lookupFile(files []docs.File, name string) ([]byte, bool) {
	for _, f := range files {
		if f.Name == name {
			return f.Data, true
		}
	}
	return nil, false
}
