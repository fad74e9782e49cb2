package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/JakeFAU/pickup-checker/internal/pickup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestReplayCommand(t *testing.T) {
	cfg := writeConfig(t, "logging:\n  level: error\n")

	out, err := execute(t, "--config", cfg, "replay",
		"--html", filepath.Join("..", "internal", "replay", "testdata", "availability.html"),
		"--zip", "33172", "--open")
	require.NoError(t, err)

	var rows []pickup.Row
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, []bool{true, true, false}, []bool{rows[0].Available, rows[1].Available, rows[2].Available})
	for _, r := range rows {
		assert.Equal(t, "33172", r.Zip)
	}
}

func TestReplayCommandRequiresHTML(t *testing.T) {
	cfg := writeConfig(t, "logging:\n  level: error\n")
	_, err := execute(t, "--config", cfg, "replay")
	require.ErrorContains(t, err, "--html is required")
}

func TestRunCommandLaunchFailureStillWritesReport(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, fmt.Sprintf(`
check:
  zip_codes: "33172"
browser:
  exec_path: %s
output:
  dir: %s
  stdout: false
logging:
  level: error
`, filepath.Join(dir, "no-such-chrome"), dir))

	_, err := execute(t, "--config", cfg, "run")
	require.ErrorContains(t, err, "launch browser")

	data, err := os.ReadFile(filepath.Join(dir, "latest.json"))
	require.NoError(t, err)
	var rep pickup.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	require.Len(t, rep.Errors, 1)
	assert.Contains(t, rep.Errors[0], "launch browser")
	assert.Empty(t, rep.Rows)
	assert.NotEmpty(t, rep.RunID)

	summary, err := os.ReadFile(filepath.Join(dir, "last.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(summary), "no rows (modal might have failed)")
}

func TestResolveAppMissing(t *testing.T) {
	t.Parallel()

	_, err := resolveApp(context.Background())
	require.Error(t, err)
}
