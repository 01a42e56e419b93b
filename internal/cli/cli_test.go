package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/dojo/internal/portal"
	"github.com/jacentio/dojo/internal/storetest"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "dojo", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)
}

func TestCommandPresence(t *testing.T) {
	paths := [][]string{
		{"provision"},
		{"invite"},
		{"users", "list"},
		{"users", "login"},
		{"users", "passwd"},
		{"users", "reset"},
		{"users", "rm"},
		{"students", "list"},
		{"students", "add"},
		{"students", "show"},
		{"students", "note", "add"},
		{"students", "note", "edit"},
		{"students", "note", "rm"},
		{"students", "assign"},
		{"students", "unassign"},
		{"students", "clear-times"},
		{"import"},
		{"sync"},
	}

	cmd := NewRootCommand()
	for _, path := range paths {
		t.Run(path[len(path)-1], func(t *testing.T) {
			sub, _, err := cmd.Find(path)
			require.NoError(t, err)
			assert.Equal(t, path[len(path)-1], sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)

	config := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, config)
	assert.Equal(t, "c", config.Shorthand)
}

func TestCommandFlags(t *testing.T) {
	cmd := NewRootCommand()

	invite, _, err := cmd.Find([]string{"invite"})
	require.NoError(t, err)
	require.NotNil(t, invite.Flags().Lookup("role"))
	assert.Equal(t, "Standard", invite.Flags().Lookup("role").DefValue)

	add, _, err := cmd.Find([]string{"students", "add"})
	require.NoError(t, err)
	require.NotNil(t, add.Flags().Lookup("belt"))

	note, _, err := cmd.Find([]string{"students", "note", "add"})
	require.NoError(t, err)
	assert.Equal(t, "admin", note.Flags().Lookup("author").DefValue)
}

// runCLI executes the command line against the sqlite backend at dir.
func runCLI(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	cfgPath := filepath.Join(dir, "dojo.yaml")
	if _, err := os.Stat(cfgPath); errors.Is(err, os.ErrNotExist) {
		cfg := "backend: sqlite\nsqlite_path: " + filepath.Join(dir, "dojo.db") + "\nlog_level: error\n"
		require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))
	}

	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

// runJSON executes the command line with --format json and decodes the data.
func runJSON(t *testing.T, dir string, v any, args ...string) {
	t.Helper()
	out, err := runCLI(t, dir, append([]string{"--format", "json"}, args...)...)
	require.NoError(t, err)

	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Equal(t, "ok", resp.Status)
	if v != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, v))
	}
}

func TestInvalidFormat(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "--format", "xml", "provision")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestMissingConfig(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml"), "provision"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestProvision(t *testing.T) {
	dir := t.TempDir()
	out, err := runCLI(t, dir, "provision")
	require.NoError(t, err)
	assert.Contains(t, out, "Provisioned tables on sqlite (PROVISIONED, 10/5 capacity)")

	var data map[string]any
	runJSON(t, dir, &data, "provision")
	assert.Equal(t, "sqlite", data["backend"])
	assert.EqualValues(t, 10, data["read_capacity"])
	assert.EqualValues(t, 5, data["write_capacity"])

	// Second run finds the tables already there.
	_, err = runCLI(t, dir, "provision")
	require.NoError(t, err)
}

func TestUsersFlow(t *testing.T) {
	dir := t.TempDir()

	out, err := runCLI(t, dir, "invite", "--role", "admin", "Sensei Kim", "hunter2")
	require.NoError(t, err)
	assert.Contains(t, out, "Installed Sensei Kim (Admin)")

	_, err = runCLI(t, dir, "users", "login", "Sensei Kim", "hunter2")
	require.NoError(t, err)

	_, err = runCLI(t, dir, "users", "login", "Sensei Kim", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, portal.ErrInvalidCredentials)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = runCLI(t, dir, "users", "passwd", "Sensei Kim", "correct horse")
	require.NoError(t, err)
	_, err = runCLI(t, dir, "users", "login", "Sensei Kim", "correct horse")
	require.NoError(t, err)

	out, err = runCLI(t, dir, "users", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Sensei Kim")

	_, err = runCLI(t, dir, "users", "rm", "Sensei Kim")
	require.NoError(t, err)

	var users []map[string]any
	runJSON(t, dir, &users, "users", "list")
	assert.Empty(t, users)
}

func TestInvite_BadRole(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "invite", "--role", "owner", "x", "y")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStudentsFlow(t *testing.T) {
	dir := t.TempDir()

	var student struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Belt string `json:"belt"`
	}
	runJSON(t, dir, &student, "students", "add", "Jo", "Park", "--belt", "Orange")
	require.NotEmpty(t, student.ID)
	assert.Equal(t, "Jo Park", student.Name)
	assert.Equal(t, "Orange", student.Belt)

	var note struct {
		ID uint32 `json:"id"`
	}
	runJSON(t, dir, &note, "students", "note", "add", student.ID, "notes", "likes kata")
	assert.Equal(t, uint32(1), note.ID)
	runJSON(t, dir, &note, "students", "note", "add", student.ID, "notes", "strong stances")
	assert.Equal(t, uint32(2), note.ID)

	_, err := runCLI(t, dir, "students", "note", "edit", student.ID, "notes", "1", "loves kata")
	require.NoError(t, err)
	_, err = runCLI(t, dir, "students", "note", "rm", student.ID, "notes", "2")
	require.NoError(t, err)

	out, err := runCLI(t, dir, "students", "show", student.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "loves kata")
	assert.NotContains(t, out, "strong stances")

	_, err = runCLI(t, dir, "students", "note", "rm", student.ID, "notes", "2")
	require.Error(t, err)
	assert.ErrorIs(t, err, portal.ErrNoteNotFound)

	_, err = runCLI(t, dir, "students", "assign", student.ID, "Sensei Kim")
	require.NoError(t, err)
	out, err = runCLI(t, dir, "students", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Sensei Kim")

	_, err = runCLI(t, dir, "students", "unassign", student.ID)
	require.NoError(t, err)
	out, err = runCLI(t, dir, "students", "list")
	require.NoError(t, err)
	assert.NotContains(t, out, "Sensei Kim")
}

func TestStudents_UnknownStudent(t *testing.T) {
	_, err := runCLI(t, t.TempDir(), "students", "show", "nobody")
	require.Error(t, err)
	assert.ErrorIs(t, err, portal.ErrStudentNotFound)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestNote_BadArguments(t *testing.T) {
	dir := t.TempDir()

	_, err := runCLI(t, dir, "students", "note", "add", "s-1", "gossip", "text")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	_, err = runCLI(t, dir, "students", "note", "edit", "s-1", "notes", "one", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid note id")
}

func TestImportAndSync(t *testing.T) {
	dir := t.TempDir()

	importPath := filepath.Join(dir, "import.yaml")
	require.NoError(t, os.WriteFile(importPath, []byte(`
- name: Jo Park
  belt: Yellow
  notes: ["likes kata"]
- name: "  "
`), 0o644))

	out, err := runCLI(t, dir, "import", importPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 1 of 2 rows")

	out, err = runCLI(t, dir, "students", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "(imported)")

	attendancePath := filepath.Join(dir, "attendance.yaml")
	require.NoError(t, os.WriteFile(attendancePath, []byte(`
participants:
  - id: "1042"
    first_name: Jo
    last_name: Park
    rank: Orange Belt
    check_ins: ["07:00 PM", "06:00 PM"]
  - id: "1043"
    first_name: Sam
    last_name: Lee
    rank: White Belt
`), 0o644))

	var report portal.SyncReport
	runJSON(t, dir, &report, "sync", attendancePath)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Integrated)

	out, err = runCLI(t, dir, "students", "show", "1042")
	require.NoError(t, err)
	assert.Contains(t, out, "Jo Park (Orange belt)")
	assert.Contains(t, out, "likes kata")

	out, err = runCLI(t, dir, "students", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "6:00 PM")
	assert.NotContains(t, out, "(imported)")

	out, err = runCLI(t, dir, "students", "clear-times")
	require.NoError(t, err)
	assert.Contains(t, out, "Cleared 1 check-ins")
}

func TestSync_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "attendance.yaml")
	require.NoError(t, os.WriteFile(path, []byte("participants: [[["), 0o644))

	_, err := runCLI(t, dir, "sync", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	_, err = runCLI(t, dir, "sync", filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestSync_WrongDay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "attendance.yaml")
	require.NoError(t, os.WriteFile(path, []byte("date: \"2001-01-01\"\nparticipants: []\n"), 0o644))

	_, err := runCLI(t, dir, "sync", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2001-01-01")
}

func TestClientOverride(t *testing.T) {
	mem := storetest.NewMemory()
	opts := &RootOptions{Client: mem}
	cmd := newRootCommand(opts)

	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"students", "add", "Jo", "Park"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, stdout.String(), "Added Jo Park")
	assert.Equal(t, 1, mem.Len("students"))
}

func TestExitError(t *testing.T) {
	cause := errors.New("boom")
	err := WrapExitError(ExitCommandError, "failed", cause)

	assert.Equal(t, "failed: boom", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ExitFailure, GetExitCode(cause))
	assert.Equal(t, "bare", (&ExitError{Message: "bare"}).Error())
}

func TestOutputFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := &OutputFormatter{Format: "json", Writer: &buf}
	require.NoError(t, f.Error(errors.New("nope")))
	assert.JSONEq(t, `{"status":"error","error":"nope"}`, buf.String())

	buf.Reset()
	f.Format = "text"
	require.NoError(t, f.Success("plain", nil))
	assert.Equal(t, "plain\n", buf.String())
}
