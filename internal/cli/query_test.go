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

const insertArticles = `{"operations": [{
	"type": "insert", "table": "Article",
	"rows": [
		{"id": "00000000-0000-0000-0000-000000000001", "title": "Moon landing", "lang": "en"},
		{"id": "00000000-0000-0000-0000-000000000002", "title": "Lune", "lang": "fr"}
	]
}]}`

const queryEnglish = `{
	"target": {"type": "table", "name": ["Article"]},
	"query": {
		"fields": {"title": {"type": "column", "column": "title"}},
		"where": {"type": "binary_op", "column": {"name": ["lang"]}, "operator": "equal",
			"value": {"type": "scalar", "value": "en", "value_type": "text"}}
	}
}`

// jsonEnvelope is a decoded --format json response.
type jsonEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

func writeRequest(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func decodeEnvelope(t *testing.T, out string) jsonEnvelope {
	t.Helper()
	var env jsonEnvelope
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	return env
}

func TestQueryAndMutate_LocalStore(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "articles.db")
	local := []string{"--store", "local", "--db", db, "--format", "json"}

	insert := writeRequest(t, dir, "insert.json", insertArticles)
	out, err := execute(t, append(local, "mutate", insert)...)
	require.NoError(t, err)
	env := decodeEnvelope(t, out)
	assert.Equal(t, "ok", env.Status)
	assert.JSONEq(t, `{"operation_results": [{"affected_rows": 2}]}`, string(env.Data))

	query := writeRequest(t, dir, "query.json", queryEnglish)
	out, err = execute(t, append(local, "query", query)...)
	require.NoError(t, err)
	env = decodeEnvelope(t, out)
	assert.JSONEq(t, `{"rows": [{"title": "Moon landing"}]}`, string(env.Data))
}

func TestQuery_Stdin(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "articles.db")

	cmd := NewRootCommand()
	var out strings.Builder
	cmd.SetOut(&out)
	cmd.SetErr(&strings.Builder{})
	cmd.SetIn(strings.NewReader(queryEnglish))
	cmd.SetArgs([]string{"--store", "local", "--db", db, "--format", "json", "query", "-"})
	require.NoError(t, cmd.Execute())

	env := decodeEnvelope(t, out.String())
	assert.JSONEq(t, `{"rows": []}`, string(env.Data))
}

func TestQueryAndMutate_Errors(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		body     string
		wantCode string
		wantExit int
	}{
		{
			name:     "malformed query",
			command:  "query",
			body:     `{"target":`,
			wantCode: "INVALID_REQUEST",
			wantExit: ExitCommandError,
		},
		{
			name:     "function target",
			command:  "query",
			body:     `{"target": {"type": "function", "name": ["f"]}, "query": {}}`,
			wantCode: "INVALID_TARGET",
			wantExit: ExitCommandError,
		},
		{
			name:    "update rejected",
			command: "mutate",
			body: `{"operations": [
				{"type": "insert", "table": "Article", "rows": [{"id": "00000000-0000-0000-0000-000000000001"}]},
				{"type": "update", "table": "Article"}
			]}`,
			wantCode: "NOT_IMPLEMENTED",
			wantExit: ExitCommandError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeRequest(t, dir, "request.json", tt.body)

			out, err := execute(t, "--store", "local", "--db", filepath.Join(dir, "test.db"),
				"--format", "json", tt.command, path)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, GetExitCode(err))

			env := decodeEnvelope(t, out)
			assert.Equal(t, "error", env.Status)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
		})
	}
}

func TestQuery_MissingFile(t *testing.T) {
	_, err := execute(t, "--store", "local", "--db", filepath.Join(t.TempDir(), "x.db"),
		"query", "/nonexistent/request.json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestQuery_MissingConfiguration(t *testing.T) {
	t.Setenv("WEAVEBRIDGE_HOST", "")
	t.Setenv("WEAVEBRIDGE_API_KEY", "")
	t.Setenv("WEAVEBRIDGE_OPENAI_KEY", "")

	path := writeRequest(t, t.TempDir(), "query.json", queryEnglish)
	out, err := execute(t, "--format", "json", "query", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	env := decodeEnvelope(t, out)
	require.NotNil(t, env.Error)
	assert.Equal(t, "CONFIGURATION_ERROR", env.Error.Code)
}
