package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "appinfo.json", `{"id": "com.example.json", "trustLevel": "trusted"}`)
	yamlPath := writeFile(t, dir, "appinfo.yaml", "id: com.example.yaml\ntrustLevel: bogus\n")
	tomlPath := writeFile(t, dir, "appinfo.toml", "id = \"com.example.toml\"\n")

	out, err := run("validate", jsonPath, yamlPath, tomlPath)
	require.NoError(t, err)

	assert.Contains(t, out, "ok   "+jsonPath+" id=com.example.json trust=trusted format=json\n")
	assert.Contains(t, out, "ok   "+yamlPath+" id=com.example.yaml trust=default format=yaml declared=\"bogus\"\n")
	assert.Contains(t, out, "ok   "+tomlPath+" id=com.example.toml trust=default format=toml\n")
}

func TestValidateFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.json", `{"id": "com.example.good"}`)
	anonymous := writeFile(t, dir, "anonymous.json", `{"title": "No id"}`)
	broken := writeFile(t, dir, "broken.json", `{"id": `)
	missing := filepath.Join(dir, "missing.json")

	out, err := run("validate", good, anonymous, broken, missing)
	require.Error(t, err)
	assert.Equal(t, "3 of 4 descriptors failed", err.Error())

	assert.Contains(t, out, "ok   "+good)
	assert.Contains(t, out, "FAIL "+anonymous+": manifest: missing required field \"id\"")
	assert.Contains(t, out, "FAIL "+broken+": manifest: malformed document")
	assert.Contains(t, out, "FAIL "+missing+":")
}

func TestValidateWarnsOnUnusualID(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "appinfo.json", `{"id": "com example"}`)

	out, err := run("validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, `warning="app id \"com example\" contains invalid characters"`)
}

func TestValidateRequiresFiles(t *testing.T) {
	_, err := run("validate")
	assert.Error(t, err)
}

func TestShow(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "appinfo.json",
		`{"id": "com.example.show", "title": "Show", "trustLevel": "internal", "inspectable": true}`)

	out, err := run("show", path)
	require.NoError(t, err)

	var view map[string]interface{}
	require.NoError(t, sonic.ConfigStd.Unmarshal([]byte(out), &view))
	assert.Equal(t, "com.example.show", view["id"])
	assert.Equal(t, "Show", view["title"])
	assert.Equal(t, "internal", view["trust_level"])
	assert.Equal(t, dir, view["folder_path"])
}

func TestShowFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "appinfo.json", `[]`)

	_, err := run("show", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
