package typeck

import (
	"fmt"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
	"oxbow/internal/ids"
	"oxbow/internal/types"
)

// TraitReference is the typed view of one trait declaration. Self is the
// implicit parameter every trait item is generic over.
type TraitReference struct {
	Item  *hir.Item
	Name  string
	Self  types.TypeID
	items []*hir.Item
}

// Items returns the trait's associated items in declaration order.
func (t *TraitReference) Items() []*hir.Item { return t.items }

// Lookup returns the associated items called name.
func (t *TraitReference) Lookup(c *Context, name string) []*hir.Item {
	var out []*hir.Item
	for _, it := range t.items {
		if c.name(it.Name) == name {
			out = append(out, it)
		}
	}
	return out
}

// TraitResolver memoises the trait a path denotes. Resolving a declaration
// directly is the identity and seeds the cache.
type TraitResolver struct {
	c      *Context
	byPath map[ids.NodeID]*TraitReference
	byDecl map[ids.IrID]*TraitReference
	failed map[ids.NodeID]bool
}

func newTraitResolver(c *Context) *TraitResolver {
	return &TraitResolver{
		c:      c,
		byPath: make(map[ids.NodeID]*TraitReference),
		byDecl: make(map[ids.IrID]*TraitReference),
		failed: make(map[ids.NodeID]bool),
	}
}

// ResolveTrait returns the reference for a trait declaration.
func (r *TraitResolver) ResolveTrait(decl *hir.Item) *TraitReference {
	if ref, ok := r.byDecl[decl.Ir()]; ok {
		return ref
	}
	ref := &TraitReference{
		Item: decl,
		Name: r.c.name(decl.Name),
		Self: r.c.traitSelf[decl.Ir()],
	}
	for _, ir := range decl.Trait.Items {
		if it, ok := r.c.hir.Item(ir); ok {
			ref.items = append(ref.items, it)
		}
	}
	r.byDecl[decl.Ir()] = ref
	return ref
}

// Lookup returns the cached reference for a trait declaration.
func (r *TraitResolver) Lookup(trait ids.IrID) (*TraitReference, bool) {
	ref, ok := r.byDecl[trait]
	return ref, ok
}

// Resolve returns the trait p names. Failures are reported once per path.
func (r *TraitResolver) Resolve(p *ast.Path) (*TraitReference, bool) {
	last := p.Last()
	if last == nil {
		return nil, false
	}
	if ref, ok := r.byPath[last.Node]; ok {
		return ref, true
	}
	if r.failed[last.Node] {
		return nil, false
	}
	ref, ok := r.resolvePath(p)
	if !ok {
		r.failed[last.Node] = true
		return nil, false
	}
	r.byPath[last.Node] = ref
	return ref, true
}

func (r *TraitResolver) resolvePath(p *ast.Path) (*TraitReference, bool) {
	c := r.c
	for i := range p.Segments {
		seg := &p.Segments[i]
		if c.res.WasUnresolved(seg.Node) {
			return nil, false
		}
		if seg.HasGenerics() {
			c.errorf(diag.SemaTraitGenericsUnsupported, seg.Span, "generic arguments on traits are not supported").Emit()
			return nil, false
		}
	}
	last := p.Last()
	node, ok := c.res.LookupResolvedType(last.Node)
	if !ok {
		if _, isValue := c.res.LookupResolvedName(last.Node); isValue {
			c.errorf(diag.SemaNotATrait, last.Span, fmt.Sprintf("expected trait, found value `%s`", c.ast.PathString(p))).Emit()
			return nil, false
		}
		c.errorf(diag.SemaUnresolvedName, last.Span, fmt.Sprintf("cannot find trait `%s` in this scope", c.ast.PathString(p))).Emit()
		return nil, false
	}
	it, ok := c.maps.LookupItemByNode(c.crate, node)
	if !ok || it.Kind != hir.ItemTrait {
		c.errorf(diag.SemaNotATrait, last.Span, fmt.Sprintf("expected trait, found `%s`", c.ast.PathString(p))).Emit()
		return nil, false
	}
	return r.ResolveTrait(it), true
}
