package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neowatch/internal/filters"
)

const neoCSV = `id,spkid,full_name,pdes,name,prefix,neo,pha,H,G,M1,M2,K1,K2,PC,diameter,extent,albedo
a0000433,2000433,"   433 Eros (A898 PA)",433,Eros,,Y,N,10.4,0.46,,,,,,16.84,34.4x11.2x11.2,0.25
a0099942,2099942,"99942 Apophis (2004 MN4)",99942,Apophis,,Y,Y,19.7,,,,,,,0.37,,0.23
`

const cadJSON = `{
  "fields": ["des", "orbit_id", "jd", "cd", "dist", "dist_min", "dist_max", "v_rel"],
  "data": [
    ["433", "659", "2415380.5", "1900-Dec-27 01:30", "0.314929", "0.31", "0.32", "5.58"],
    ["99942", "206", "2462240.4", "2029-Apr-13 21:46", "0.000254", "0.0002", "0.0003", "7.42"],
    ["99942", "206", "2465000.0", "2036-Mar-27 06:58", "0.15", "0.14", "0.16", "5.0"]
  ]
}`

func writeData(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	neoPath := filepath.Join(dir, "neos.csv")
	cadPath := filepath.Join(dir, "cad.json")
	require.NoError(t, os.WriteFile(neoPath, []byte(neoCSV), 0o644))
	require.NoError(t, os.WriteFile(cadPath, []byte(cadJSON), 0o644))
	return neoPath, cadPath
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	neoPath, cadPath := writeData(t)
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--neofile", neoPath, "--cadfile", cadPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestInspect(t *testing.T) {
	out, _, err := run(t, "inspect", "--pdes", "433")
	require.NoError(t, err)
	assert.Equal(t, "NEO 433 (Eros) has a diameter of 16.840 km and is not potentially hazardous\n", out)

	out, _, err = run(t, "inspect", "--name", "Apophis", "--verbose")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "is potentially hazardous")
	assert.Equal(t, "- On 2029-04-13 21:46, '99942 (Apophis)' approaches Earth at a distance of 0.00 au and a velocity of 7.42 km/s", lines[1])
}

func TestInspect_NotFound(t *testing.T) {
	out, errOut, err := run(t, "inspect", "--name", "apophis")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "No matching NEOs")
}

func TestInspect_RequiresExactlyOneSelector(t *testing.T) {
	_, _, err := run(t, "inspect")
	assert.Error(t, err)

	_, _, err = run(t, "inspect", "--pdes", "433", "--name", "Eros")
	assert.Error(t, err)
}

func TestQuery(t *testing.T) {
	out, _, err := run(t, "query", "--hazardous", "--limit", "1")
	require.NoError(t, err)
	assert.Equal(t, "On 2029-04-13 21:46, '99942 (Apophis)' approaches Earth at a distance of 0.00 au and a velocity of 7.42 km/s\n", out)

	out, _, err = run(t, "query", "--max-velocity", "6", "--limit", "0")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 2)

	out, _, err = run(t, "query", "--date", "1999-01-01")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestQuery_InvalidCriteria(t *testing.T) {
	_, _, err := run(t, "query", "--start-date", "2030-01-01", "--end-date", "2020-01-01")
	assert.ErrorIs(t, err, filters.ErrInvalidCriteria)

	_, _, err = run(t, "query", "--limit", "-2")
	assert.ErrorIs(t, err, filters.ErrInvalidCriteria)

	_, _, err = run(t, "query", "--hazardous", "--not-hazardous")
	assert.Error(t, err)
}

func TestQuery_Outfile(t *testing.T) {
	outfile := filepath.Join(t.TempDir(), "results.json")
	_, errOut, err := run(t, "query", "--not-hazardous", "--outfile", outfile)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Wrote 1 approaches")

	data, err := os.ReadFile(outfile)
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "433", rows[0]["neo"].(map[string]any)["designation"])

	_, _, err = run(t, "query", "--outfile", filepath.Join(t.TempDir(), "results.txt"))
	assert.Error(t, err)
}
