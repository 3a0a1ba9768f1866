package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"nestdo/internal/mutate"
	"nestdo/internal/store"
)

func runCLI(t *testing.T, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

type cliEnv struct {
	t     *testing.T
	dir   string
	flags []string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("NESTDO_CONFIG_DIR", t.TempDir())
	t.Setenv("NESTDO_FILE", "")
	t.Setenv("NESTDO_SETTINGS", "")
	t.Setenv("NESTDO_FORMAT", "")
	dir := t.TempDir()
	return &cliEnv{
		t:   t,
		dir: dir,
		flags: []string{
			"--file", filepath.Join(dir, "tasks.txt"),
			"--settings", filepath.Join(dir, "settings.txt"),
		},
	}
}

func (e *cliEnv) run(args ...string) ([]byte, []byte, error) {
	e.t.Helper()
	return runCLI(e.t, append(append([]string{}, e.flags...), args...))
}

func (e *cliEnv) mustEnv(args ...string) map[string]any {
	e.t.Helper()
	stdout, stderr, err := e.run(args...)
	if err != nil {
		e.t.Fatalf("command failed: nestdo %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, string(stderr), string(stdout))
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		e.t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s\nargs: %v", err, string(stdout), args)
	}
	if _, ok := env["data"]; !ok {
		e.t.Fatalf("expected JSON envelope to contain data key; got: %v", env)
	}
	return env
}

func (e *cliEnv) addID(args ...string) string {
	e.t.Helper()
	env := e.mustEnv(append([]string{"add"}, args...)...)
	id, _ := env["data"].(map[string]any)["id"].(float64)
	if id <= 0 {
		e.t.Fatalf("expected add to return an id; got %#v", env["data"])
	}
	return strconv.Itoa(int(id))
}

func (e *cliEnv) load() *store.Document {
	e.t.Helper()
	doc, _, err := store.Store{Path: filepath.Join(e.dir, "tasks.txt")}.Load()
	if err != nil {
		e.t.Fatalf("load: %v", err)
	}
	return doc
}

func listTexts(env map[string]any) []string {
	var out []string
	for _, x := range env["data"].([]any) {
		row := x.(map[string]any)
		out = append(out, strings.Repeat(".", int(row["depth"].(float64)))+row["text"].(string))
	}
	return out
}

func TestCLI_AddListAndNest(t *testing.T) {
	e := newCLIEnv(t)
	a := e.addID("Groceries")
	e.addID("Laundry")
	e.addID("--at", a, "--placement", "child", "milk")
	e.addID("--at", a, "--placement", "child", "eggs")

	got := strings.Join(listTexts(e.mustEnv("list")), ",")
	if got != "Groceries,.milk,.eggs,Laundry" {
		t.Fatalf("list = %s", got)
	}

	show := e.mustEnv("show", a)
	data := show["data"].(map[string]any)
	if data["text"] != "Groceries" || len(data["children"].([]any)) != 2 {
		t.Fatalf("show = %#v", data)
	}
	if n := show["meta"].(map[string]any)["subtree"].(float64); n != 3 {
		t.Fatalf("subtree = %v", n)
	}
}

func TestCLI_AddSanitizesText(t *testing.T) {
	e := newCLIEnv(t)
	e.addID("call", "bob:", "at 10:30")
	doc := e.load()
	t0, _ := doc.Get(doc.Roots[0])
	if strings.Contains(t0.Text, ":") {
		t.Fatalf("text kept the field delimiter: %q", t0.Text)
	}
}

func TestCLI_MoveAndRejection(t *testing.T) {
	e := newCLIEnv(t)
	a := e.addID("A")
	b := e.addID("B")
	c := e.addID("--at", b, "--placement", "child", "C")

	env := e.mustEnv("move", a, "--to", b, "--position", "child")
	if env["meta"].(map[string]any)["changed"] != true {
		t.Fatalf("move should report a change: %#v", env["meta"])
	}
	if got := strings.Join(listTexts(e.mustEnv("list")), ","); got != "B,.C,.A" {
		t.Fatalf("after move: %s", got)
	}

	before, err := os.ReadFile(filepath.Join(e.dir, "tasks.txt"))
	if err != nil {
		t.Fatal(err)
	}
	_, stderr, err := e.run("move", b, "--to", c, "--position", "child")
	if !mutate.IsMoveRejected(err) {
		t.Fatalf("expected a move rejection, got %v", err)
	}
	if !strings.Contains(string(stderr), "subtree") {
		t.Fatalf("stderr = %q", stderr)
	}
	after, _ := os.ReadFile(filepath.Join(e.dir, "tasks.txt"))
	if !bytes.Equal(before, after) {
		t.Fatalf("rejected move rewrote the file")
	}

	_, _, err = e.run("move", a, "--to", "99")
	var nf notFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCLI_OutlineCommands(t *testing.T) {
	e := newCLIEnv(t)
	e.addID("A")
	b := e.addID("B")
	e.mustEnv("indent", b)
	if got := strings.Join(listTexts(e.mustEnv("list")), ","); got != "A,.B" {
		t.Fatalf("after indent: %s", got)
	}
	e.mustEnv("outdent", b)
	e.mustEnv("up", b)
	if got := strings.Join(listTexts(e.mustEnv("list")), ","); got != "B,A" {
		t.Fatalf("after outdent+up: %s", got)
	}
	env := e.mustEnv("up", b)
	if env["meta"].(map[string]any)["changed"] != false {
		t.Fatalf("moving the first task up should be a no-op")
	}
}

func TestCLI_DoneSettingsAndCollapse(t *testing.T) {
	e := newCLIEnv(t)
	a := e.addID("A")
	e.addID("--at", a, "--placement", "child", "A1")
	b := e.addID("B")

	e.mustEnv("done", b)
	e.mustEnv("settings", "set", "show_completed", "false")
	if got := strings.Join(listTexts(e.mustEnv("list")), ","); got != "A,.A1" {
		t.Fatalf("completed tasks should be hidden: %s", got)
	}
	if got := len(listTexts(e.mustEnv("list", "--all"))); got != 3 {
		t.Fatalf("list --all = %d rows", got)
	}

	e.mustEnv("collapse", a)
	if got := strings.Join(listTexts(e.mustEnv("list")), ","); got != "A" {
		t.Fatalf("collapsed children should be hidden: %s", got)
	}

	get := e.mustEnv("settings", "get", "show_completed")
	if get["data"].(map[string]any)["value"] != "false" {
		t.Fatalf("settings get = %#v", get["data"])
	}
	if _, _, err := e.run("settings", "set", "font", "mono"); err == nil {
		t.Fatalf("unknown settings must be rejected")
	}
}

func TestCLI_SettingsPreserveUnknownKeys(t *testing.T) {
	e := newCLIEnv(t)
	path := filepath.Join(e.dir, "settings.txt")
	if err := os.WriteFile(path, []byte("font:Iosevka\nshow_completed:true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	e.mustEnv("settings", "set", "sort_mode", "alphabetical")
	b, _ := os.ReadFile(path)
	if !strings.Contains(string(b), "font:Iosevka") || !strings.Contains(string(b), "sort_mode:alphabetical") {
		t.Fatalf("settings file = %q", b)
	}
	all := e.mustEnv("settings")
	if all["data"].(map[string]any)["font"] != "Iosevka" {
		t.Fatalf("settings = %#v", all["data"])
	}
}

func TestCLI_RemoveSubtree(t *testing.T) {
	e := newCLIEnv(t)
	a := e.addID("A")
	e.addID("--at", a, "--placement", "child", "A1")
	e.addID("B")
	env := e.mustEnv("rm", a)
	if n := env["meta"].(map[string]any)["count"].(float64); n != 2 {
		t.Fatalf("removed = %v", n)
	}
	if doc := e.load(); doc.Len() != 1 {
		t.Fatalf("tasks left = %d", doc.Len())
	}
	if _, _, err := e.run("rm", a); err == nil {
		t.Fatalf("removing a missing task should fail")
	}
}

func TestCLI_ExportImportSQLite(t *testing.T) {
	e := newCLIEnv(t)
	a := e.addID("A")
	e.addID("--at", a, "--placement", "child", "A1")
	e.addID("B")
	dbPath := filepath.Join(t.TempDir(), "tasks.db")
	e.mustEnv("export", "sqlite", dbPath)

	if _, _, err := e.run("import", "sqlite", dbPath); err == nil {
		t.Fatalf("import over a non-empty file needs --force")
	}

	other := newCLIEnv(t)
	env := other.mustEnv("import", "sqlite", dbPath)
	if n := env["data"].(map[string]any)["tasks"].(float64); n != 3 {
		t.Fatalf("imported %v tasks", n)
	}
	if got := strings.Join(listTexts(other.mustEnv("list")), ","); got != "A,.A1,B" {
		t.Fatalf("imported list = %s", got)
	}
	// Ids keep counting after the imported ones.
	if id := other.addID("C"); id != "4" {
		t.Fatalf("next id = %s", id)
	}
}

func TestCLI_DoctorReportsSkippedLines(t *testing.T) {
	e := newCLIEnv(t)
	content := "1::A:false:0:false\nnot a task\n2:1:B:false:0:false\n"
	if err := os.WriteFile(filepath.Join(e.dir, "tasks.txt"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	env := e.mustEnv("doctor", "--fail")
	issues := env["data"].(map[string]any)["issues"].([]any)
	if len(issues) != 1 {
		t.Fatalf("issues = %#v", issues)
	}
	issue := issues[0].(map[string]any)
	if issue["code"] != "malformed_line" || issue["line"].(float64) != 2 {
		t.Fatalf("issue = %#v", issue)
	}
	if env["meta"].(map[string]any)["tasks"].(float64) != 2 {
		t.Fatalf("meta = %#v", env["meta"])
	}
}

func TestCLI_OutputFormats(t *testing.T) {
	e := newCLIEnv(t)
	e.addID("A")

	out, _, err := e.run("--format", "yaml", "list")
	if err != nil || !strings.Contains(string(out), "data:") || !strings.Contains(string(out), "text: A") {
		t.Fatalf("yaml list: %v\n%s", err, out)
	}
	out, _, err = e.run("--format", "edn", "list")
	if err != nil || !strings.Contains(string(out), ":data") {
		t.Fatalf("edn list: %v\n%s", err, out)
	}
	if _, _, err := e.run("--format", "xml", "list"); err == nil {
		t.Fatalf("unknown format should fail")
	}
}

func TestCLI_ConfigFileAndInit(t *testing.T) {
	cfgDir := t.TempDir()
	t.Setenv("NESTDO_CONFIG_DIR", cfgDir)
	t.Setenv("NESTDO_FILE", "")
	t.Setenv("NESTDO_SETTINGS", "")
	cfgPath := filepath.Join(cfgDir, "config.toml")
	if err := os.WriteFile(cfgPath, []byte("tasks_file = \"mine.txt\"\nhistory_depth = 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	stdout, stderr, err := runCLI(t, []string{"config"})
	if err != nil {
		t.Fatalf("config: %v\n%s", err, stderr)
	}
	var env map[string]any
	if err := json.Unmarshal(stdout, &env); err != nil {
		t.Fatal(err)
	}
	data := env["data"].(map[string]any)
	if data["tasksFile"] != filepath.Join(cfgDir, "mine.txt") || data["historyDepth"].(float64) != 5 {
		t.Fatalf("config = %#v", data)
	}

	if _, _, err := runCLI(t, []string{"config", "init"}); err == nil {
		t.Fatalf("config init must not overwrite without --force")
	}
	if _, _, err := runCLI(t, []string{"--file", filepath.Join(cfgDir, "other.txt"), "config", "init", "--force"}); err != nil {
		t.Fatalf("config init --force: %v", err)
	}
	b, _ := os.ReadFile(cfgPath)
	if !strings.Contains(string(b), "other.txt") {
		t.Fatalf("config file = %s", b)
	}
}

func TestCLI_BadArguments(t *testing.T) {
	e := newCLIEnv(t)
	for _, args := range [][]string{
		{"show", "abc"},
		{"show", "0"},
		{"add", "--placement", "sideways", "x"},
		{"add", "--at", "5", "x"},
		{"move", "1", "--to", "2", "--position", "inside"},
		{"edit", "1", " "},
	} {
		if _, _, err := e.run(args...); err == nil {
			t.Fatalf("nestdo %v should fail", args)
		}
	}
}

func TestCLI_ExportMarkdownAndDocs(t *testing.T) {
	e := newCLIEnv(t)
	a := e.addID("Groceries")
	e.addID("--at", a, "--placement", "child", "milk")
	e.addID("Laundry")

	out, _, err := e.run("export", "markdown", "--id", a)
	if err != nil {
		t.Fatalf("export markdown: %v", err)
	}
	if string(out) != "- [ ] Groceries\n  - [ ] milk\n" {
		t.Fatalf("markdown = %q", out)
	}
	path := filepath.Join(t.TempDir(), "todo.md")
	env := e.mustEnv("export", "markdown", "--to", path)
	if env["data"].(map[string]any)["written"] != path {
		t.Fatalf("export markdown --to = %#v", env["data"])
	}

	out, _, err = e.run("docs", "file-format", "--raw")
	if err != nil || !strings.HasPrefix(string(out), "# Task file format") {
		t.Fatalf("docs: %v\n%s", err, out)
	}
	if _, _, err := e.run("docs", "nope"); err == nil {
		t.Fatalf("unknown topic should fail")
	}
}
