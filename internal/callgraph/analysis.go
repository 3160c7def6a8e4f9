package callgraph

import "sable/internal/mir"

// Preservation declares what a just-finished transformation did to the
// module's call structure, so the analysis can decide whether its cached
// graph survived.
type Preservation int

const (
	// CallsChanged: call sites were added, removed, or redirected without
	// telling the graph; the cache must be discarded.
	CallsChanged Preservation = iota
	// CallsPreserved: the transformation did not touch any call site, or it
	// kept the graph consistent through the editing API.
	CallsPreserved
)

// Analysis caches a call graph across optimizer passes so each pass can
// request one without paying for a rebuild. Invalidation is wholesale: a
// single function's call-site change can reorder the global bottom-up order,
// so there is no per-function cache to repair.
type Analysis struct {
	module *mir.Module
	graph  *Graph
	digest uint64
}

// NewAnalysis creates an empty analysis for a module. No graph is built
// until the first request.
func NewAnalysis(m *mir.Module) *Analysis {
	return &Analysis{module: m}
}

// Get returns the cached call graph, building it on first request. A cached
// graph whose call-site digest no longer matches the module means some pass
// mutated calls without invalidating - a fatal bug in that pass, not a
// recoverable condition.
func (a *Analysis) Get() *Graph {
	if a.graph == nil {
		a.graph = Build(a.module)
		a.digest = a.module.CallSiteDigest()
		return a.graph
	}
	if current := a.module.CallSiteDigest(); current != a.digest {
		panic("callgraph: cached graph is stale - calls changed without invalidation")
	}
	return a.graph
}

// HasCachedGraph reports whether a graph is currently cached.
func (a *Analysis) HasCachedGraph() bool {
	return a.graph != nil
}

// Invalidate discards the cached graph unless the caller declares calls
// preserved. No incremental repair is attempted.
func (a *Analysis) Invalidate(preserved Preservation) {
	if preserved == CallsPreserved {
		// If a pass edited calls through the graph API the cached graph is
		// still exact; refresh the digest so Get does not flag it.
		if a.graph != nil {
			a.digest = a.module.CallSiteDigest()
		}
		return
	}
	a.graph = nil
	a.digest = 0
}

// InvalidateFunction handles a single function's call sites changing. This
// design has no per-function granularity: it delegates to whole-graph
// invalidation.
func (a *Analysis) InvalidateFunction(_ *mir.Function, preserved Preservation) {
	a.Invalidate(preserved)
}
