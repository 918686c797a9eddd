package verify_test

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bakery/catalog"
	"bakery/docs"
	"bakery/recipe"
	"bakery/verify"
)

func init() {
	catalog.Register(catalog.MakeProvider("test-verify", "verification fixture", fixture))
}

func fixture() recipe.Recipe {
	return recipe.Recipe{
		Name:        "test-verify",
		Description: "fixture",
		Args:        []recipe.ArgSpec{{Name: "BASE_TAG", Default: "3.19"}},
		Stages: []recipe.Stage{
			{
				Name:  "build",
				Image: "golang:1.21-alpine",
				Instructions: []recipe.Instruction{
					recipe.Workdir("/src"),
					recipe.Copy(".", "."),
					recipe.Run("go build -o /out/app ./cmd/app").WithNote("single binary"),
				},
			},
			{
				Name:  "runtime",
				Image: "alpine:${BASE_TAG}",
				Instructions: []recipe.Instruction{
					recipe.Copy("/out/app", "/usr/local/bin/app").From("build"),
					recipe.User("nobody"),
					recipe.Entrypoint("/usr/local/bin/app"),
				},
			},
		},
	}
}

func TestRecipe(t *testing.T) {
	report, err := verify.Recipe(fixture())
	require.NoError(t, err)
	assert.Equal(t, "test-verify", report.Recipe)
	assert.True(t, report.Clean(), "findings: %+v", report.Findings)
}

func TestAll(t *testing.T) {
	reports, err := verify.All(context.Background(), catalog.Default(), []string{"test-verify"})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, verify.Clean(reports))

	_, err = verify.All(context.Background(), catalog.Default(), []string{"test-nope"})
	require.Error(t, err)
}

func exportFixture(t *testing.T) string {
	t.Helper()
	dir, err := ioutil.TempDir("", "verify-tree")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	files, err := docs.Files(fixture(), true)
	require.NoError(t, err)
	base := filepath.Join(dir, "test-verify")
	require.NoError(t, os.MkdirAll(base, 0755))
	for _, f := range files {
		require.NoError(t, ioutil.WriteFile(filepath.Join(base, f.Name), f.Data, 0644))
	}
	return dir
}

func TestTree(t *testing.T) {
	dir := exportFixture(t)

	reports, err := verify.Tree(dir, catalog.Default(), []string{"test-verify"})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, reports[0].Clean(), "findings: %+v", reports[0].Findings)
}

func TestTreeDrift(t *testing.T) {
	dir := exportFixture(t)
	path := filepath.Join(dir, "test-verify", docs.ReadmeName)
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, ioutil.WriteFile(path, append(data, []byte("\nhand edit\n")...), 0644))

	reports, err := verify.Tree(dir, catalog.Default(), []string{"test-verify"})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Len(t, reports[0].Findings, 1)
	finding := reports[0].Findings[0]
	assert.Equal(t, path, finding.Path)
	assert.Contains(t, finding.Message, "drifted")
	assert.NotEmpty(t, finding.Diff)
}

func TestArtifacts(t *testing.T) {
	files, err := docs.Files(fixture(), true)
	require.NoError(t, err)

	report, err := verify.Artifacts(catalog.Default(), "test-verify", files)
	require.NoError(t, err)
	assert.True(t, report.Clean(), "findings: %+v", report.Findings)

	drifted := append([]byte(nil), files[1].Data...)
	drifted = append(drifted, []byte("\nhand edit\n")...)
	report, err = verify.Artifacts(catalog.Default(), "test-verify", []docs.File{
		{Name: docs.ReadmeName, Data: drifted},
		{Name: "Makefile", Data: []byte("all:\n")},
	})
	require.NoError(t, err)
	require.Len(t, report.Findings, 2)
	assert.Contains(t, report.Findings[0].Message, "drifted")
	assert.NotEmpty(t, report.Findings[0].Diff)
	assert.Equal(t, "not a recipe artifact", report.Findings[1].Message)

	_, err = verify.Artifacts(catalog.Default(), "test-nope", nil)
	require.Error(t, err)
}

func TestTreeMissing(t *testing.T) {
	dir := exportFixture(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "test-verify", docs.DockerfileName)))

	reports, err := verify.Tree(dir, catalog.Default(), []string{"test-verify"})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.Len(t, reports[0].Findings, 1)
	assert.Equal(t, "file missing", reports[0].Findings[0].Message)
}
