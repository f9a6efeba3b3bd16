package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cchalm/genie-spaces/internal/genietest"
)

func newServer(t *testing.T) *genietest.Server {
	t.Helper()
	for _, key := range []string{
		"DATABRICKS_CLIENT_ID", "DATABRICKS_CLIENT_SECRET", "DATABRICKS_HTTP_TIMEOUT",
		"DATABRICKS_MAX_RATE_LIMIT_RETRIES", "GENIE_TELEMETRY_ENABLED", "GENIE_OTLP_ENDPOINT",
		"GENIE_OTLP_INSECURE",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	srv := genietest.NewServer(t)
	srv.Token = "cli-token"
	t.Setenv("DATABRICKS_HOST", srv.URL)
	t.Setenv("DATABRICKS_TOKEN", "cli-token")
	return srv
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{}
	defer a.shutdown()

	root := newRootCmd(a)
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func decode(t *testing.T, out string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &v))
	return v
}

func TestList_Empty(t *testing.T) {
	newServer(t)

	out, err := run(t, "list")
	require.NoError(t, err)
	assert.JSONEq(t, `{"spaces":[]}`, out)
}

func TestCreateGetUpdate(t *testing.T) {
	srv := newServer(t)

	out, err := run(t, "create",
		"--warehouse-id", "wh-1",
		"--parent-path", "/Workspace/Shared",
		"--title", "Sales",
		"--serialized-space", `{"version":1}`,
	)
	require.NoError(t, err)
	id, _ := decode(t, out)["space_id"].(string)
	require.NotEmpty(t, id)

	stored, ok := srv.StoredField(id, "serialized_space")
	require.True(t, ok)
	assert.Equal(t, `"{\"version\":1}"`, string(stored))

	out, err = run(t, "update", id, "--description", "Revenue")
	require.NoError(t, err)
	updated := decode(t, out)
	assert.Equal(t, "Sales", updated["title"])
	assert.Equal(t, "Revenue", updated["description"])

	req := srv.LastRequest()
	var body map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.Equal(t, map[string]any{"space_id": id, "description": "Revenue"}, body)

	out, err = run(t, "get", id)
	require.NoError(t, err)
	assert.NotContains(t, decode(t, out), "serialized_space")

	out, err = run(t, "get", id, "--include-serialized-space")
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, decode(t, out)["serialized_space"])
}

func TestCreate_MissingWarehouse(t *testing.T) {
	srv := newServer(t)

	_, err := run(t, "create", "--parent-path", "/p", "--serialized-space", "{}")
	require.ErrorContains(t, err, "warehouse_id")
	assert.Empty(t, srv.Requests())
}

func TestUpdate_NothingToChange(t *testing.T) {
	srv := newServer(t)
	id := srv.Seed(map[string]any{"title": "x"})

	_, err := run(t, "update", id)
	require.ErrorContains(t, err, "at least one field")
	assert.Empty(t, srv.Requests())
}

func TestExportThenCreateFromFile(t *testing.T) {
	srv := newServer(t)
	blob := "{\"version\": 2,\n  \"note\": \"a < b && c > d\",  \"tables\": [ ]}"
	out, err := run(t, "create", "--warehouse-id", "wh-1", "--parent-path", "/Workspace/Source",
		"--title", "Source", "--serialized-space", "placeholder")
	require.NoError(t, err)
	srcID, _ := decode(t, out)["space_id"].(string)

	// Replace the stored configuration with one the encoder would escape
	file := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"serialized_space":`+blob+`}`), 0o600))
	_, err = run(t, "update", srcID, "--serialized-space-file", file)
	require.NoError(t, err)

	exportFile := filepath.Join(t.TempDir(), "export.json")
	_, err = run(t, "export", srcID, "--file", exportFile)
	require.NoError(t, err)
	exported, err := os.ReadFile(exportFile)
	require.NoError(t, err)
	assert.Contains(t, string(exported), `"serialized_space":`+blob)

	out, err = run(t, "create", "--from-file", exportFile, "--warehouse-id", "wh-2", "--title", "Copy")
	require.NoError(t, err)
	copied := decode(t, out)
	dstID, _ := copied["space_id"].(string)
	assert.NotEqual(t, srcID, dstID)
	assert.Equal(t, "Copy", copied["title"])
	assert.Equal(t, "wh-2", copied["warehouse_id"])
	assert.Equal(t, "/Workspace/Source", copied["parent_path"])

	stored, ok := srv.StoredField(dstID, "serialized_space")
	require.True(t, ok)
	assert.Equal(t, blob, string(stored))
}

func TestTrash_ReportsEveryFailure(t *testing.T) {
	srv := newServer(t)
	id := srv.Seed(map[string]any{"title": "x"})

	out, err := run(t, "trash", "missing-1", id, "missing-2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 errors occurred")
	assert.Contains(t, err.Error(), "space missing-1")
	assert.Contains(t, err.Error(), "space missing-2")
	assert.Equal(t, id+"\n", out)
	assert.Equal(t, 0, srv.SpaceCount())
}

func TestOutput_YAML(t *testing.T) {
	srv := newServer(t)
	srv.Seed(map[string]any{"title": "Sales"})

	out, err := run(t, "list", "--all", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "spaces:\n")
	assert.Contains(t, out, "title: Sales\n")
}

func TestInvalidOutputFormat(t *testing.T) {
	newServer(t)

	_, err := run(t, "list", "--output", "xml")
	require.ErrorContains(t, err, "invalid output format")
}

func TestMissingCredentials(t *testing.T) {
	newServer(t)
	t.Setenv("DATABRICKS_TOKEN", "")

	_, err := run(t, "list")
	require.ErrorContains(t, err, "missing credentials")
}

func TestVersion(t *testing.T) {
	SetVersionInfo("1.2.3", "abc", "today")
	t.Cleanup(func() { SetVersionInfo("dev", "unknown", "unknown") })

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "genie-spaces 1.2.3 (commit abc, built today)\n", out)
}

func TestWriteOutput_KeepsHTMLCharacters(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, outputJSON, map[string]string{"note": "a < b & c"}))
	assert.Equal(t, "{\n  \"note\": \"a < b & c\"\n}\n", buf.String())
}
