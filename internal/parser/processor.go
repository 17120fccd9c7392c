package parser

import (
	"github.com/pylift/pylift/internal/lexer"
	"github.com/pylift/pylift/internal/pipeline"
)

type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	p := New(lexer.New(ctx.Source), ctx.Diags)
	ctx.AstRoot = p.ParseProgram()

	// Ensure all diagnostics carry the file path
	for _, d := range ctx.Diags.All() {
		if d.File == "" {
			d.File = ctx.FilePath
		}
	}
	return ctx
}
