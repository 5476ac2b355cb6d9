package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acmeFixture = `businesses:
  - name: Acme
  - name: Globex
departments:
  - name: Finance
    businesses: [Acme, Globex]
employees:
  - name: Jane
    age: 30
    business: Acme
    department: Finance
`

func TestDemoText(t *testing.T) {
	cfgPath := writeConfig(t, ":memory:")

	out, err := execute(t, "--config", cfgPath, "demo")
	require.NoError(t, err)

	before, after, found := strings.Cut(out, "== after deleting Finance")
	require.True(t, found, "output: %s", out)

	assert.Contains(t, before, "== after setup (idle)")
	assert.Contains(t, before, "departments: Finance")
	assert.Contains(t, before, "department: Finance")

	assert.NotContains(t, after, "Finance\n")
	assert.Contains(t, after, "Jane, 30")
	assert.Contains(t, after, "business:   Acme")
	assert.Contains(t, after, "department: -")
}

type demoStep struct {
	Step string `json:"step"`
	View struct {
		State       string `json:"state"`
		Departments []struct {
			Name string `json:"name"`
		} `json:"departments"`
		Employees []struct {
			Name       string `json:"name"`
			Business   string `json:"business"`
			Department string `json:"department"`
		} `json:"employees"`
	} `json:"view"`
}

func TestDemoJSON(t *testing.T) {
	cfgPath := writeConfig(t, ":memory:")

	out, err := execute(t, "--config", cfgPath, "demo", "-o", "json")
	require.NoError(t, err)

	dec := json.NewDecoder(strings.NewReader(out))
	var steps []demoStep
	for dec.More() {
		var step demoStep
		require.NoError(t, dec.Decode(&step))
		steps = append(steps, step)
	}

	require.Len(t, steps, 2)
	assert.Len(t, steps[0].View.Departments, 1)
	assert.Empty(t, steps[1].View.Departments)
	require.Len(t, steps[1].View.Employees, 1)
	assert.Equal(t, "Acme", steps[1].View.Employees[0].Business)
	assert.Equal(t, "", steps[1].View.Employees[0].Department)
}

func TestDemoInvalidOutput(t *testing.T) {
	cfgPath := writeConfig(t, ":memory:")

	_, err := execute(t, "--config", cfgPath, "demo", "-o", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSeedThenExport(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "graph.db")
	cfgPath := writeConfig(t, dbPath)

	fixturePath := filepath.Join(dir, "acme.yaml")
	require.NoError(t, os.WriteFile(fixturePath, []byte(acmeFixture), 0644))

	out, err := execute(t, "--config", cfgPath, "seed", fixturePath)
	require.NoError(t, err)
	assert.Equal(t, "Seeded 2 businesses, 1 departments, 1 employees, 2 links\n", out)

	out, err = execute(t, "--config", cfgPath, "export", "--format", "json")
	require.NoError(t, err)

	var exported struct {
		Businesses []struct {
			Ref  string `json:"ref"`
			Name string `json:"name"`
		} `json:"businesses"`
		Departments []struct {
			Name       string   `json:"name"`
			Businesses []string `json:"businesses"`
		} `json:"departments"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &exported))
	require.Len(t, exported.Businesses, 2)
	assert.Equal(t, "Acme", exported.Businesses[0].Name)
	require.Len(t, exported.Departments, 1)
	assert.Equal(t, []string{exported.Businesses[0].Ref, exported.Businesses[1].Ref}, exported.Departments[0].Businesses)
}

func TestExportToFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, filepath.Join(dir, "graph.db"))
	outPath := filepath.Join(dir, "out.yaml")

	out, err := execute(t, "--config", cfgPath, "export", "-o", outPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "businesses:")
}

func TestExportUnknownFormat(t *testing.T) {
	cfgPath := writeConfig(t, ":memory:")

	_, err := execute(t, "--config", cfgPath, "export", "--format", "xml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestSeedErrors(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, ":memory:")

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "--config", cfgPath, "seed", filepath.Join(dir, "missing.yaml"))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))
	})

	t.Run("unknown department", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		data := `{"businesses":[],"departments":[],"employees":[{"name":"Jane","age":30,"department":"Nowhere"}]}`
		require.NoError(t, os.WriteFile(path, []byte(data), 0644))

		_, err := execute(t, "--config", cfgPath, "seed", path)
		require.Error(t, err)
	})

	t.Run("no argument", func(t *testing.T) {
		_, err := execute(t, "--config", cfgPath, "seed")
		require.Error(t, err)
	})
}
