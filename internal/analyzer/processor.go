package analyzer

import (
	"github.com/pylift/pylift/internal/pipeline"
)

type AnalyzerProcessor struct{}

func (ap *AnalyzerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.AstRoot == nil || ctx.HasErrors() {
		// Parse already failed; nothing to analyze.
		return ctx
	}
	a := New(ctx.Diags)
	ctx.Program = a.Analyze(ctx.AstRoot)
	for _, d := range ctx.Diags.All() {
		if d.File == "" {
			d.File = ctx.FilePath
		}
	}
	return ctx
}
