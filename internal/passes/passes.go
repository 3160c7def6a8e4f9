// Package passes holds the interprocedural optimization pipeline. Passes run
// over a shared Context that owns the module and the cached call graph
// analysis; each pass either edits calls through the graph API or declares
// its damage when it cannot.
package passes

import (
	"github.com/tliron/commonlog"

	"sable/internal/callgraph"
	"sable/internal/mir"
)

var log = commonlog.GetLogger("sable.passes")

// Pass represents a single optimization transformation
type Pass interface {
	Name() string
	Description() string
	Apply(ctx *Context) bool // Returns true if changes were made
}

// Context is the per-run state shared by every pass in a pipeline.
type Context struct {
	Module   *mir.Module
	Analysis *callgraph.Analysis
}

// Graph returns the current call graph, building or rebuilding as needed.
func (c *Context) Graph() *callgraph.Graph {
	return c.Analysis.Get()
}

// BottomUpFunctions returns the functions defined in the module in
// callees-first order. Functions in one strongly connected component appear
// adjacent; passes that care must treat them as mutually dependent.
func (c *Context) BottomUpFunctions() []*mir.Function {
	var fns []*mir.Function
	for _, node := range c.Graph().BottomUpFunctionOrder() {
		if node.Function().IsDefinition() {
			fns = append(fns, node.Function())
		}
	}
	return fns
}

// Pipeline manages the sequence of optimization passes
type Pipeline struct {
	passes []Pass
}

// NewPipeline creates a pipeline with the default passes in execution order.
func NewPipeline() *Pipeline {
	pipeline := &Pipeline{}

	pipeline.AddPass(&Devirtualizer{})
	pipeline.AddPass(&RedundantArrayCheckElimination{})
	pipeline.AddPass(&DeadCodeElimination{})
	pipeline.AddPass(&DeadFunctionElimination{})

	return pipeline
}

// AddPass appends a pass to the pipeline
func (p *Pipeline) AddPass(pass Pass) {
	p.passes = append(p.passes, pass)
}

// Run executes all passes on the module. Returns true if any pass changed it.
func (p *Pipeline) Run(m *mir.Module) bool {
	ctx := &Context{Module: m, Analysis: callgraph.NewAnalysis(m)}

	changed := false
	for _, pass := range p.passes {
		log.Debugf("%s: %s", pass.Name(), pass.Description())
		if pass.Apply(ctx) {
			log.Infof("%s changed the module", pass.Name())
			changed = true
		}
	}
	return changed
}
