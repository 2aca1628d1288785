package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `Sumel - Mserik:
  "12.2.2026": https://ee.kobotoolbox.org/x/PFZBZKSB
  Daily Visit: https://ee.kobotoolbox.org/x/Visit01
forms: {}
`

func writeConfig(t *testing.T, cfg map[string]any) string {
	t.Helper()
	dir := t.TempDir()
	if _, ok := cfg["catalog"]; !ok {
		catalogPath := filepath.Join(dir, "forms.yaml")
		require.NoError(t, os.WriteFile(catalogPath, []byte(testCatalog), 0o644))
		cfg["catalog"] = catalogPath
	}
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, SERVER_NAME+"/"+SERVER_VERSION)
}

func TestSearchText(t *testing.T) {
	cfgPath := writeConfig(t, map[string]any{})

	out, err := run(t, "--config", cfgPath, "search", "12.2")
	require.NoError(t, err)
	assert.Equal(t, "Sumel - Mserik\n  12.2.2026\thttps://ee.kobotoolbox.org/x/PFZBZKSB\n", out)

	out, err = run(t, "--config", cfgPath, "search", "zzz")
	require.NoError(t, err)
	assert.Equal(t, "No forms found matching 'zzz'.\n", out)
}

func TestSearchJSON(t *testing.T) {
	cfgPath := writeConfig(t, map[string]any{})

	out, err := run(t, "--config", cfgPath, "search", "--json", "VISIT")
	require.NoError(t, err)

	var payload struct {
		Query    string `json:"query"`
		Sections []struct {
			Name    string `json:"name"`
			Entries []struct {
				Name string `json:"name"`
			} `json:"entries"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "VISIT", payload.Query)
	require.Len(t, payload.Sections, 1)
	require.Len(t, payload.Sections[0].Entries, 1)
	assert.Equal(t, "Daily Visit", payload.Sections[0].Entries[0].Name)
}

func TestCheck(t *testing.T) {
	cfgPath := writeConfig(t, map[string]any{})

	out, err := run(t, "--config", cfgPath, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "catalog ok: 2 categories, 2 forms")
	assert.Contains(t, out, "hidden placeholders: forms")
}

func TestCheckRejectsDuplicateCategory(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "forms.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte("a:\n  x: u\na:\n  y: v\n"), 0o644))
	cfgPath := writeConfig(t, map[string]any{"catalog": catalogPath, "logLevel": "error"})

	_, err := run(t, "--config", cfgPath, "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate category")
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := run(t, "--config", filepath.Join(t.TempDir(), "missing.json"), "check")
	require.Error(t, err)
}

func TestBuild(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), "dist")
	cfgPath := writeConfig(t, map[string]any{"outputDir": outDir, "logLevel": "error"})

	_, err := run(t, "--config", cfgPath, "build")
	require.NoError(t, err)

	for _, name := range []string{"index.html", "404.html", "forms.json"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
	index, err := os.ReadFile(filepath.Join(outDir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "Daily Visit")
	assert.NotContains(t, string(index), `id="forms"`)
}
