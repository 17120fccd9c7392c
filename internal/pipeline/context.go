package pipeline

import (
	"github.com/pylift/pylift/internal/ast"
	"github.com/pylift/pylift/internal/diagnostics"
	"github.com/pylift/pylift/internal/ir"
)

// Processor is one pipeline stage. A processor reads what earlier stages
// left on the context and writes its own result back; it never panics
// across the stage boundary.
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// PipelineContext carries one translation unit through the stages:
// source text in, syntax tree, normalized program, rendered output.
// Diagnostics accumulate across every stage; a later stage that needs a
// clean prior result checks HasErrors itself.
type PipelineContext struct {
	FilePath string
	Source   string

	AstRoot *ast.Program
	Program *ir.Program

	// RustSource is the rendered output, empty until the render stage
	// ran and only set when no error-severity diagnostic exists.
	RustSource string

	Diags *diagnostics.Collection
}

func NewContext(filePath, source string) *PipelineContext {
	return &PipelineContext{
		FilePath: filePath,
		Source:   source,
		Diags:    diagnostics.NewCollection(),
	}
}

// HasErrors reports whether any stage recorded an error-severity
// diagnostic so far.
func (ctx *PipelineContext) HasErrors() bool {
	return ctx.Diags != nil && ctx.Diags.HasErrors()
}
