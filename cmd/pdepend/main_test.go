package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func project(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"src/a.php":        "<?php\nclass A {}\n",
		"src/b.php":        "<?php\nclass B extends A {}\n",
		"vendor/lib/c.php": "<?php\nclass C extends B {}\n",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func TestAnalyzeLine(t *testing.T) {
	dir := project(t)
	out, err := run(t, "analyze", "--format", "line", "--analyzers", "inheritance", "--exclude", "vendor/**", dir)
	require.NoError(t, err)

	a := filepath.Join(dir, "src", "a.php")
	b := filepath.Join(dir, "src", "b.php")
	assert.Equal(t, "unit\tclass\tA\t"+a+":2\n"+
		"unit\tclass\tB\t"+b+":2\n"+
		"metric\tA\tdit\t0\n"+
		"metric\tA\tnocc\t1\n"+
		"metric\tB\tdit\t1\n"+
		"metric\tB\tnocc\t0\n"+
		"dependency\tB\tinherits\tA\n", out)
}

func TestAnalyzeConfigFile(t *testing.T) {
	dir := project(t)
	cfgFile := filepath.Join(dir, "pdepend.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
format: yaml
analyzers: [nodecount]
workers: 2
`), 0o644))

	out, err := run(t, "analyze", "--config", cfgFile, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "units:")
	assert.Contains(t, out, "id: C")
	assert.Contains(t, out, "loc: 1")
	assert.NotContains(t, out, "dit:")

	_, err = run(t, "analyze", "--config", filepath.Join(dir, "missing.yaml"), dir)
	assert.Error(t, err)
}

func TestAnalyzeEnvironment(t *testing.T) {
	dir := project(t)
	t.Setenv("PDEPEND_FORMAT", "line")
	t.Setenv("PDEPEND_EXCLUDE", "vendor/**,src/b.php")
	t.Setenv("PDEPEND_ANALYZERS", "nodecount")

	out, err := run(t, "analyze", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "unit\tclass\tA\t")
	assert.NotContains(t, out, "unit\tclass\tB\t")
	assert.NotContains(t, out, "unit\tclass\tC\t")
}

func TestAnalyzeErrors(t *testing.T) {
	dir := project(t)

	_, err := run(t, "analyze", "--format", "xml", dir)
	assert.ErrorContains(t, err, "unknown format: xml")

	_, err = run(t, "analyze", "--analyzers", "nope", dir)
	assert.ErrorContains(t, err, "nope")

	_, err = run(t, "analyze", "--analyzers", "classlevel", dir)
	assert.ErrorContains(t, err, "ccn")

	_, err = run(t, "analyze", filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestAnalyzeReportsBrokenFiles(t *testing.T) {
	dir := project(t)
	broken := filepath.Join(dir, "src", "broken.php")
	require.NoError(t, os.WriteFile(broken, []byte("<?php\nfoo(1, 2;\n"), 0o644))

	out, err := run(t, "analyze", "--format", "line", "--analyzers", "nodecount", filepath.Join(dir, "src"))
	require.NoError(t, err)
	assert.Contains(t, out, "error\t"+broken+":2:")
	assert.Contains(t, out, "unit\tclass\tB\t")
}

func TestParse(t *testing.T) {
	dir := project(t)
	a := filepath.Join(dir, "src", "a.php")
	b := filepath.Join(dir, "src", "b.php")

	out, err := run(t, "parse", a, b)
	require.NoError(t, err)
	assert.Contains(t, out, `"kind": "ClassDecl"`)
	assert.Contains(t, out, `"symbol": "A"`)
	assert.NotContains(t, out, `"span"`)

	out, err = run(t, "parse", "--format", "tree", a)
	require.NoError(t, err)
	assert.Contains(t, out, "ClassDecl")

	_, err = run(t, "parse", "--format", "xml", a)
	assert.ErrorContains(t, err, "unknown format")

	broken := filepath.Join(dir, "broken.php")
	require.NoError(t, os.WriteFile(broken, []byte("<?php class {"), 0o644))
	_, err = run(t, "parse", broken)
	assert.ErrorContains(t, err, "parse "+broken)
}

func TestAnalyzersList(t *testing.T) {
	out, err := run(t, "analyzers")
	require.NoError(t, err)
	assert.Contains(t, out, "LAYER")
	assert.Regexp(t, `(?m)^0\s+nodecount\s+nom,loc\s+-$`, out)
	assert.Regexp(t, `(?m)^1\s+classlevel\s+wmc\s+ccn$`, out)
}
