package verify

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cmp/cmp"

	"bakery/catalog"
	"bakery/docs"
)

// Tree checks an exported directory against c: each recipe's Dockerfile
// and README on disk must match a fresh render. An empty name list means
// everything c holds.
func Tree(dir string, c catalog.Catalog, names []string) ([]Report, error) {
	if len(names) == 0 {
		names = c.Names()
	}

	reports := make([]Report, 0, len(names))
	for _, name := range names {
		p, err := c.Lookup(name)
		if err != nil {
			return nil, err
		}
		files, err := docs.Files(p.New(), true)
		if err != nil {
			return nil, err
		}

		report := Report{Recipe: name}
		for _, f := range files {
			path := filepath.Join(dir, name, f.Name)
			disk, err := ioutil.ReadFile(path)
			switch {
			case os.IsNotExist(err):
				report.Findings = append(report.Findings, Finding{
					Path:    path,
					Message: "file missing",
				})
			case err != nil:
				return nil, err
			case !bytes.Equal(disk, f.Data):
				report.Findings = append(report.Findings, Finding{
					Path:    path,
					Message: "content drifted from the recipe",
					Diff:    diffLines(f.Data, disk),
				})
			}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func diffLines(want, got []byte) string {
	return cmp.Diff(splitLines(want), splitLines(got))
}

func splitLines(data []byte) []string {
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}
