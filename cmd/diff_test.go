package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDiffCommand(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, "a.yaml", `
name:
  first: Ada
  last: Lovelace
phones:
  - label: work
    phone: "555-0100"
`)
	target := writeFile(t, dir, "b.json", `{"name": {"first": "Ada", "last": "King"}, "company": true}`)

	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "text",
			args: []string{"diff", "--family", "contacts", "--json=false", source, target},
			want: "~ name.last Lovelace -> King\n" +
				"~ company <nil> -> true\n" +
				"- phones[0] map[label:work phone:555-0100]\n",
		},
		{
			name: "same file",
			args: []string{"diff", "--family", "contacts", "--json=false", source, source},
			want: "",
		},
		{
			name:    "unknown family",
			args:    []string{"diff", "--family", "pets", "--json=false", source, target},
			wantErr: true,
		},
		{
			name:    "missing file",
			args:    []string{"diff", "--family", "contacts", "--json=false", source, filepath.Join(dir, "nope.yaml")},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			RootCmd.SetOut(&out)
			RootCmd.SetArgs(tt.args)
			defer RootCmd.SetOut(nil)

			err := RootCmd.Execute()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestDiffCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	source := writeFile(t, dir, "a.json", `{"name": "Friends"}`)
	target := writeFile(t, dir, "b.json", `{"name": "Family"}`)

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetArgs([]string{"diff", "--family", "groups", "--json", source, target})
	defer RootCmd.SetOut(nil)

	require.NoError(t, RootCmd.Execute())
	assert.JSONEq(t, `[{"action": "replace", "path": "name", "old": "Friends", "new": "Family"}]`, out.String())
}
