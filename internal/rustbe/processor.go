package rustbe

import (
	"github.com/pylift/pylift/internal/pipeline"
)

// RenderProcessor is the pipeline stage that prints the normalized program.
type RenderProcessor struct{}

func NewRenderProcessor() *RenderProcessor {
	return &RenderProcessor{}
}

func (p *RenderProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.Program == nil || ctx.HasErrors() {
		return ctx
	}
	ctx.RustSource = Render(ctx.Program)
	return ctx
}
