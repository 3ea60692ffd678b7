// Package typeck assigns types to every declaration and body node of a
// lowered crate and finishes path resolution: segments the name resolver
// leaves alone (associated items, enum variants, qualified paths) are
// resolved here by probing inherent impls and trait bounds of the receiver.
package typeck

import (
	"fmt"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/hir"
	"oxbow/internal/ice"
	"oxbow/internal/ids"
	"oxbow/internal/mappings"
	"oxbow/internal/resolve"
	"oxbow/internal/source"
	"oxbow/internal/trace"
	"oxbow/internal/types"
)

// Options configure a type-checking pass over one crate.
type Options struct {
	Reporter diag.Reporter
	// Types is shared when set; a fresh interner is created otherwise.
	Types  *types.Interner
	Tracer trace.Tracer
	// Parent nests the pass span under a caller span.
	Parent uint64
}

// VariantRef names the enum variant a path or pattern resolved to.
type VariantRef struct {
	Adt     types.TypeID
	Variant *types.VariantDef
}

// implInfo caches what probing needs to know about an impl block.
type implInfo struct {
	item   *hir.Item
	self   types.TypeID
	params []types.TypeID
	trait  *TraitReference
}

// loopFrame tracks the loop a break may target.
type loopFrame struct {
	node     ids.NodeID
	result   types.TypeID
	hasBreak bool
	isLoop   bool
}

// Context holds the typing results of one crate. Every table is keyed by
// IrID; path results are keyed by the IrID of the path expression, pattern
// or type that carries the path.
type Context struct {
	crate    ids.CrateNum
	maps     *mappings.Mappings
	res      *resolve.Result
	hir      *hir.Crate
	ast      *ast.Crate
	types    *types.Interner
	reporter diag.Reporter
	tracer   trace.Tracer

	nodeTypes     map[ids.IrID]types.TypeID
	receivers     map[ids.IrID]types.TypeID
	variants      map[ids.IrID]VariantRef
	resolvedNodes map[ids.IrID]ids.NodeID
	assocImpls    map[ids.IrID]ids.IrID
	traitImpls    map[ids.IrID]ids.IrID
	inherited     map[types.TypeID][]*TraitReference
	traits        *TraitResolver

	impls       []*implInfo
	implByIr    map[ids.IrID]*implInfo
	implSelfFor map[ids.NodeID]*hir.Item
	traitSelf   map[ids.IrID]types.TypeID
	adtItems    map[ids.IrID]types.TypeID
	ctorTypes   map[ids.IrID]types.TypeID
	inProgress  map[ids.IrID]bool
	langItems   map[mappings.LangItem]*TraitReference

	consts      map[ids.IrID]constState

	// body state
	inBody      bool
	fnResult    types.TypeID
	loops       []*loopFrame
	locals      map[ids.NodeID]bool
	letBindings []ids.IrID
}

func newContext(maps *mappings.Mappings, res *resolve.Result, h *hir.Crate, opts Options) *Context {
	in := opts.Types
	if in == nil {
		in = types.NewInterner()
	}
	c := &Context{
		crate:         h.Mapping.Crate,
		maps:          maps,
		res:           res,
		hir:           h,
		ast:           h.AST,
		types:         in,
		reporter:      opts.Reporter,
		tracer:        opts.Tracer,
		nodeTypes:     make(map[ids.IrID]types.TypeID),
		receivers:     make(map[ids.IrID]types.TypeID),
		variants:      make(map[ids.IrID]VariantRef),
		resolvedNodes: make(map[ids.IrID]ids.NodeID),
		assocImpls:    make(map[ids.IrID]ids.IrID),
		traitImpls:    make(map[ids.IrID]ids.IrID),
		inherited:     make(map[types.TypeID][]*TraitReference),
		implByIr:      make(map[ids.IrID]*implInfo),
		implSelfFor:   make(map[ids.NodeID]*hir.Item),
		traitSelf:     make(map[ids.IrID]types.TypeID),
		adtItems:      make(map[ids.IrID]types.TypeID),
		ctorTypes:     make(map[ids.IrID]types.TypeID),
		inProgress:    make(map[ids.IrID]bool),
		langItems:     make(map[mappings.LangItem]*TraitReference),
		consts:        make(map[ids.IrID]constState),
		locals:        make(map[ids.NodeID]bool),
	}
	c.traits = newTraitResolver(c)
	return c
}

// CheckCrate types the lowered crate h. All declarations are typed before
// any body so that bodies may refer to items declared after them.
func CheckCrate(maps *mappings.Mappings, res *resolve.Result, h *hir.Crate, opts Options) *Context {
	c := newContext(maps, res, h, opts)
	root := trace.Begin(c.tracer, trace.ScopePass, "typeck", opts.Parent)
	defer root.End("")

	phase := func(name string) func() {
		span := trace.Begin(c.tracer, trace.ScopePass, name, root.ID())
		return func() { span.End("") }
	}

	done := phase("typeck_declare")
	c.declareItems()
	done()

	done = phase("typeck_signatures")
	c.typeSignatures()
	done()

	done = phase("typeck_bodies")
	c.checkBodies()
	done()

	c.finish()
	return c
}

// finish applies literal defaults and replaces every recorded type by its
// fully resolved form.
func (c *Context) finish() {
	c.types.ApplyDefaults()
	for ir, t := range c.nodeTypes {
		c.nodeTypes[ir] = c.types.Deep(t)
	}
	for ir, t := range c.receivers {
		c.receivers[ir] = c.types.Deep(t)
	}
	for _, ir := range c.letBindings {
		if t := c.nodeTypes[ir]; c.types.IsUnboundVar(t) || c.types.HasInferVars(t) {
			span, _ := c.maps.LookupLocation(c.crate, ir)
			c.errorf(diag.SemaCannotInfer, span, "type annotations needed").Emit()
		}
	}
}

// Types returns the interner the context allocates types in.
func (c *Context) Types() *types.Interner { return c.types }

// Traits returns the trait resolver cache.
func (c *Context) Traits() *TraitResolver { return c.traits }

// Crate returns the lowered crate.
func (c *Context) Crate() *hir.Crate { return c.hir }

// TypeOf returns the type recorded for an IrID.
func (c *Context) TypeOf(ir ids.IrID) (types.TypeID, bool) {
	t, ok := c.nodeTypes[ir]
	return t, ok
}

// TypeOfNode goes through the NodeID->IrID map.
func (c *Context) TypeOfNode(node ids.NodeID) (types.TypeID, bool) {
	ir, ok := c.maps.LookupNodeToIr(c.crate, node)
	if !ok {
		return types.NoTypeID, false
	}
	return c.TypeOf(ir)
}

// Receiver returns the receiver type a path or method call was resolved
// against.
func (c *Context) Receiver(ir ids.IrID) (types.TypeID, bool) {
	t, ok := c.receivers[ir]
	return t, ok
}

// Variant returns the enum variant a path or pattern resolved to.
func (c *Context) Variant(ir ids.IrID) (VariantRef, bool) {
	v, ok := c.variants[ir]
	return v, ok
}

// ResolvedNode returns the definition a path finally resolved to.
func (c *Context) ResolvedNode(ir ids.IrID) (ids.NodeID, bool) {
	n, ok := c.resolvedNodes[ir]
	return n, ok
}

// AssociatedImpl returns the impl block whose Self substitution applied to
// the path at ir.
func (c *Context) AssociatedImpl(ir ids.IrID) (ids.IrID, bool) {
	impl, ok := c.assocImpls[ir]
	return impl, ok
}

// LookupAssociatedTraitImpl returns the trait an impl block implements.
func (c *Context) LookupAssociatedTraitImpl(impl ids.IrID) (ids.IrID, bool) {
	trait, ok := c.traitImpls[impl]
	return trait, ok
}

// InheritedBounds lists the traits attached to t by qualified paths.
func (c *Context) InheritedBounds(t types.TypeID) []*TraitReference {
	return c.inherited[t]
}

// TypeString renders t.
func (c *Context) TypeString(t types.TypeID) string {
	return c.types.String(t)
}

// ItemTypeString renders the type recorded for a HIR item; used by dumps.
func (c *Context) ItemTypeString(it *hir.Item) string {
	t, ok := c.nodeTypes[it.Ir()]
	if !ok {
		return ""
	}
	return c.types.String(t)
}

func (c *Context) irOf(node ids.NodeID) ids.IrID {
	ir, ok := c.maps.LookupNodeToIr(c.crate, node)
	if !ok {
		ice.Raise("typeck", "node %d was never lowered", node)
	}
	return ir
}

func (c *Context) record(ir ids.IrID, t types.TypeID) types.TypeID {
	c.nodeTypes[ir] = t
	return t
}

func (c *Context) name(id source.StringID) string {
	return c.ast.NameOf(id)
}

func (c *Context) errType() types.TypeID {
	return c.types.Builtins().Error
}

func (c *Context) errorf(code diag.Code, span source.Span, msg string) *diag.ReportBuilder {
	return diag.ReportError(c.reporter, code, span, msg)
}

// mismatch reports that found cannot be used where expected is required.
func (c *Context) mismatch(span source.Span, expected, found types.TypeID) {
	if c.types.IsError(expected) || c.types.IsError(found) {
		return
	}
	c.errorf(diag.SemaTypeMismatch, span, fmt.Sprintf("mismatched types: expected `%s`, found `%s`",
		c.types.String(expected), c.types.String(found))).Emit()
}

// unify unifies found with expected and reports a mismatch at span.
func (c *Context) unify(span source.Span, expected, found types.TypeID) types.TypeID {
	t, ok := c.types.Unify(expected, found)
	if !ok {
		c.mismatch(span, expected, found)
		return c.errType()
	}
	return t
}
