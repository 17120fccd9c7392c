package pipeline_test

import (
	"strings"
	"testing"

	"github.com/pylift/pylift/internal/analyzer"
	"github.com/pylift/pylift/internal/parser"
	"github.com/pylift/pylift/internal/pipeline"
	"github.com/pylift/pylift/internal/rustbe"
)

func run(t *testing.T, src string) *pipeline.PipelineContext {
	t.Helper()
	ctx := pipeline.NewContext("prog.py", src)
	return pipeline.New(
		&parser.ParserProcessor{},
		&analyzer.AnalyzerProcessor{},
		rustbe.NewRenderProcessor(),
	).Run(ctx)
}

func TestStagesProduceOutput(t *testing.T) {
	ctx := run(t, "print(1 + 1)\n")
	if ctx.HasErrors() {
		t.Fatalf("unexpected errors:\n%s", ctx.Diags.Text())
	}
	if ctx.AstRoot == nil || ctx.Program == nil {
		t.Fatalf("intermediate results missing")
	}
	if !strings.Contains(ctx.RustSource, "fn main() {") {
		t.Errorf("no rendered program:\n%s", ctx.RustSource)
	}
}

func TestLaterStagesSkipOnError(t *testing.T) {
	ctx := run(t, "print(nope)\n")
	if !ctx.HasErrors() {
		t.Fatalf("expected an error for an undefined name")
	}
	if ctx.RustSource != "" {
		t.Errorf("render stage should not run after errors")
	}
}

func TestDiagnosticsCarryFilePath(t *testing.T) {
	ctx := run(t, "print(nope)\n")
	for _, d := range ctx.Diags.All() {
		if d.File != "prog.py" {
			t.Errorf("diagnostic %s has file %q", d.Code, d.File)
		}
	}
}
