package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pylift/pylift/internal/config"
)

func TestParseArgs(t *testing.T) {
	opts, err := parseArgs([]string{"--check", "--out", "build", "prog.py"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if !opts.Check {
		t.Errorf("expected check mode")
	}
	if opts.OutDir != "build" {
		t.Errorf("OutDir = %q, want build", opts.OutDir)
	}
	if len(opts.Files) != 1 || opts.Files[0] != "prog.py" {
		t.Errorf("Files = %v", opts.Files)
	}
}

func TestParseArgsRejectsNonSource(t *testing.T) {
	if _, err := parseArgs([]string{"prog.txt"}); err == nil {
		t.Errorf("expected an error for a non-source input")
	}
	if _, err := parseArgs([]string{"--wat", "prog.py"}); err == nil {
		t.Errorf("expected an error for an unknown flag")
	}
	if _, err := parseArgs([]string{"--check"}); err == nil {
		t.Errorf("expected an error when no files are given")
	}
}

func TestEmitPath(t *testing.T) {
	cfg := config.Default()
	if got := emitPath(filepath.Join("src", "prog.py"), cfg); got != filepath.Join("src", "prog.rs") {
		t.Errorf("emitPath = %q", got)
	}
	cfg.Emit.Dir = "out"
	if got := emitPath(filepath.Join("src", "prog.py"), cfg); got != filepath.Join("out", "prog.rs") {
		t.Errorf("emitPath with dir = %q", got)
	}
}

func TestTranslateFileWritesOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hello.py")
	if err := os.WriteFile(src, []byte("print(\"hi\")\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Emit.Dir = dir
	cfg.Emit.Overwrite = true
	opts := &Options{Files: []string{src}}

	if code := translateFile(src, opts, cfg, printer{}); code != 0 {
		t.Fatalf("translateFile exit code %d", code)
	}
	out, err := os.ReadFile(filepath.Join(dir, "hello.rs"))
	if err != nil {
		t.Fatalf("no output written: %v", err)
	}
	if !strings.Contains(string(out), "fn main() {") {
		t.Errorf("output is not a program:\n%s", out)
	}
}

func TestTranslateFileRespectsOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.py")
	if err := os.WriteFile(src, []byte("print(1)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(dir, "prog.rs")
	if err := os.WriteFile(existing, []byte("// keep me\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Emit.Dir = dir
	opts := &Options{Files: []string{src}}

	if code := translateFile(src, opts, cfg, printer{}); code != 1 {
		t.Fatalf("expected refusal to overwrite, got exit code %d", code)
	}
	kept, _ := os.ReadFile(existing)
	if string(kept) != "// keep me\n" {
		t.Errorf("existing output was clobbered")
	}
}

func TestCheckModeWritesNothing(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.py")
	if err := os.WriteFile(src, []byte("print(1)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Emit.Dir = dir
	cfg.Emit.Overwrite = true
	opts := &Options{Check: true, Files: []string{src}}

	if code := translateFile(src, opts, cfg, printer{}); code != 0 {
		t.Fatalf("translateFile exit code %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "prog.rs")); !os.IsNotExist(err) {
		t.Errorf("check mode should not write output")
	}
}

func TestBrokenSourceFails(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.py")
	if err := os.WriteFile(src, []byte("print(undefined_name)\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := config.Default()
	cfg.Emit.Dir = dir
	cfg.Emit.Overwrite = true
	opts := &Options{Files: []string{src}}

	if code := translateFile(src, opts, cfg, printer{}); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.rs")); !os.IsNotExist(err) {
		t.Errorf("no output should be written for a failing translation")
	}
}
