package tokens

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jonwraymond/sitetokens/content"
	"github.com/jonwraymond/sitetokens/observe"
)

// Stage is a named Processor in a Pipeline.
type Stage struct {
	Name      string
	Processor Processor
}

// Pipeline runs stages in order over the same Args. Each stage is wrapped
// with observe middleware, producing a tokens.<name> span, stage metrics and
// a log line.
type Pipeline struct {
	stages []Stage
	mw     *observe.Middleware
}

// NewPipeline creates a pipeline. A nil middleware records nothing.
func NewPipeline(mw *observe.Middleware, stages ...Stage) *Pipeline {
	if mw == nil {
		mw = observe.NewMiddleware(nil, nil, nil)
	}
	p := &Pipeline{mw: mw}
	for _, s := range stages {
		p.Add(s.Name, s.Processor)
	}
	return p
}

// Add appends a stage. Nil processors are ignored.
func (p *Pipeline) Add(name string, proc Processor) {
	if proc == nil {
		return
	}
	p.stages = append(p.stages, Stage{Name: name, Processor: proc})
}

// Stages returns the stage names in order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run executes every stage, stopping at the first error.
func (p *Pipeline) Run(ctx context.Context, args *Args) error {
	if args == nil {
		return ErrNilArgs
	}
	for _, s := range p.stages {
		op := observe.Operation{
			Component: "tokens",
			Name:      s.Name,
			Attrs:     []attribute.KeyValue{attribute.Bool("tokens.escape_spaces", args.EscapeSpaces)},
		}
		run := p.mw.Wrap(op, func(ctx context.Context) error {
			return s.Processor.Process(ctx, args)
		})
		if err := run(ctx); err != nil {
			return fmt.Errorf("tokens: stage %s: %w", s.Name, err)
		}
	}
	return nil
}

// ResolveTokens runs the pipeline over query and returns the result. On a
// stage error the query as rewritten so far is returned with the error.
func (p *Pipeline) ResolveTokens(ctx context.Context, query string, node *content.Node, escapeSpaces bool) (string, error) {
	args := &Args{Query: query, ContextNode: node, EscapeSpaces: escapeSpaces}
	err := p.Run(ctx, args)
	return args.Query, err
}
