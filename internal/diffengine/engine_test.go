package diffengine

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestSplitDiffIntoFiles(t *testing.T) {
	diff := "diff --git a/src/lib.rs b/src/lib.rs\n" +
		"index 1111111..2222222 100644\n" +
		"--- a/src/lib.rs\n" +
		"+++ b/src/lib.rs\n" +
		"@@ -1,0 +1,1 @@\n" +
		"+fn a() {}\n" +
		"diff --git a/README.md b/README.md\n" +
		"index 3333333..4444444 100644\n" +
		"--- a/README.md\n" +
		"+++ b/README.md\n" +
		"@@ -1,0 +1,1 @@\n" +
		"+hello\n"

	files := splitDiffIntoFiles(diff)
	if len(files) != 2 {
		t.Fatalf("expected 2 file diffs, got %d", len(files))
	}
	if files[0].path != "src/lib.rs" {
		t.Fatalf("expected src/lib.rs, got %q", files[0].path)
	}
	if files[1].path != "README.md" {
		t.Fatalf("expected README.md, got %q", files[1].path)
	}
}

func TestEngineParserForFallsBackToGeneric(t *testing.T) {
	e := New(".")
	p := e.parserFor("notes.txt")
	if p.Language() != "Generic" {
		t.Fatalf("expected Generic fallback, got %s", p.Language())
	}
}

func TestEngineRefreshDetectsRustFunction(t *testing.T) {
	dir := initEngineTestRepo(t)

	libPath := filepath.Join(dir, "src", "lib.rs")
	if err := os.MkdirAll(filepath.Dir(libPath), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(libPath, []byte("fn existing() {}\n"), 0o644); err != nil {
		t.Fatalf("write lib.rs: %v", err)
	}
	runEngineTestGit(t, dir, "add", ".")
	runEngineTestGit(t, dir, "commit", "-m", "initial")

	if err := os.WriteFile(libPath, []byte("fn existing() {}\n\nfn added() {}\n"), 0o644); err != nil {
		t.Fatalf("rewrite lib.rs: %v", err)
	}

	summary, err := New(dir).Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	var found bool
	for _, lang := range summary.Languages {
		for _, f := range lang.Files {
			for _, c := range f.Changes {
				if c.Name == "added" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Fatalf("expected to find an added function in summary, got %+v", summary)
	}
}

func initEngineTestRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	runEngineTestGit(t, dir, "init", "-b", "main")
	return dir
}

func engineTestGitEnv() []string {
	return []string{
		"GIT_TERMINAL_PROMPT=0",
		"GIT_AUTHOR_NAME=Test User",
		"GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=Test User",
		"GIT_COMMITTER_EMAIL=test@example.com",
		"GIT_CONFIG_NOSYSTEM=1",
		"GIT_CONFIG_GLOBAL=/dev/null",
		"HOME=" + os.TempDir(),
	}
}

func runEngineTestGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), engineTestGitEnv()...)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}
