package resolve

import (
	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/mappings"
)

type Options struct {
	Reporter diag.Reporter
	// NoLints disables the unused-binding warnings.
	NoLints bool
}

// Result is the resolver state after both phases; every lookup of the
// resolver stays available to later passes.
type Result struct {
	*Resolver
}

// ResolveCrate runs name resolution over c. Identity placeholders for all
// items are created first, then signatures and bodies are resolved.
func ResolveCrate(maps *mappings.Mappings, c *ast.Crate, opts Options) *Result {
	r := NewResolver(maps, c, opts.Reporter)
	r.declareCrate()
	r.resolveModule(c.Root)
	if !opts.NoLints {
		r.checkBindings()
	}
	return &Result{Resolver: r}
}
