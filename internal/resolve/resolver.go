// Package resolve binds every name use of a crate to the NodeID of its
// definition. Names live in four namespaces (values, types, labels, macros),
// each a Scope of ribs. Resolution runs in two phases: the first declares
// every module-level item so that forward references work, the second walks
// signatures and bodies against the complete set.
package resolve

import (
	"github.com/hashicorp/go-set/v3"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/ice"
	"oxbow/internal/ids"
	"oxbow/internal/mappings"
	"oxbow/internal/source"
)

type Namespace uint8

const (
	NSValue Namespace = iota
	NSType
	NSLabel
	NSMacro
)

func (ns Namespace) String() string {
	switch ns {
	case NSValue:
		return "value"
	case NSType:
		return "type"
	case NSLabel:
		return "label"
	case NSMacro:
		return "macro"
	}
	return "namespace"
}

// Definition ties a declared node to its innermost enclosing declaration.
// Parent is UnknownNodeID for item-level declarations.
type Definition struct {
	Node   ids.NodeID
	Parent ids.NodeID
}

// Owner returns the declaration that owns the definition.
func (d Definition) Owner() ids.NodeID {
	if d.Parent.IsValid() {
		return d.Parent
	}
	return d.Node
}

// Builtin is a primitive type registered in the builtin type rib.
type Builtin struct {
	Name string
	Node ids.NodeID
}

var builtinTypeNames = []string{
	"bool", "char", "str",
	"i8", "i16", "i32", "i64", "isize",
	"u8", "u16", "u32", "u64", "usize",
	"f32", "f64",
}

type bindingKind uint8

const (
	bindingLet bindingKind = iota
	bindingParam
	bindingArm
	bindingSelf
)

type binding struct {
	rib         *Rib
	node        ids.NodeID
	name        string
	span        source.Span
	kind        bindingKind
	initialised bool
}

// Resolver holds the scopes and the resolution tables of one crate.
type Resolver struct {
	crate    ids.CrateNum
	ast      *ast.Crate
	maps     *mappings.Mappings
	reporter diag.Reporter

	names  *Scope
	types  *Scope
	labels *Scope
	macros *Scope

	nameRibs  map[ids.NodeID]*Rib
	typeRibs  map[ids.NodeID]*Rib
	labelRibs map[ids.NodeID]*Rib
	macroRibs map[ids.NodeID]*Rib

	definitions    map[ids.NodeID]Definition
	resolvedNames  map[ids.NodeID]ids.NodeID
	resolvedTypes  map[ids.NodeID]ids.NodeID
	resolvedLabels map[ids.NodeID]ids.NodeID
	resolvedMacros map[ids.NodeID]ids.NodeID

	mutable     *set.Set[ids.NodeID]
	assignments map[ids.NodeID]*set.Set[ids.NodeID]
	unresolved  *set.Set[ids.NodeID]

	builtins     []Builtin
	builtinNodes map[ids.NodeID]string
	builtinRib   *Rib
	unitType     ids.NodeID

	// walk state
	modules      map[ids.NodeID]ast.ItemID
	moduleParent map[ids.NodeID]ids.NodeID
	itemPaths    map[ids.NodeID]mappings.CanonicalPath
	bindings     []*binding
	bindingIndex map[ids.NodeID]*binding
	unitLike     *set.Set[ids.NodeID]
	curModule    ids.NodeID
	curPath      mappings.CanonicalPath
	loopDepth    int
}

// NewResolver creates a resolver for crate c. Builtin primitive types get
// NodeIDs from the registry.
func NewResolver(maps *mappings.Mappings, c *ast.Crate, reporter diag.Reporter) *Resolver {
	r := &Resolver{
		crate:          c.Num,
		ast:            c,
		maps:           maps,
		reporter:       reporter,
		nameRibs:       make(map[ids.NodeID]*Rib),
		typeRibs:       make(map[ids.NodeID]*Rib),
		labelRibs:      make(map[ids.NodeID]*Rib),
		macroRibs:      make(map[ids.NodeID]*Rib),
		definitions:    make(map[ids.NodeID]Definition),
		resolvedNames:  make(map[ids.NodeID]ids.NodeID),
		resolvedTypes:  make(map[ids.NodeID]ids.NodeID),
		resolvedLabels: make(map[ids.NodeID]ids.NodeID),
		resolvedMacros: make(map[ids.NodeID]ids.NodeID),
		mutable:        set.New[ids.NodeID](16),
		assignments:    make(map[ids.NodeID]*set.Set[ids.NodeID]),
		unresolved:     set.New[ids.NodeID](0),
		builtinNodes:   make(map[ids.NodeID]string),
		modules:        make(map[ids.NodeID]ast.ItemID),
		moduleParent:   make(map[ids.NodeID]ids.NodeID),
		itemPaths:      make(map[ids.NodeID]mappings.CanonicalPath),
		bindingIndex:   make(map[ids.NodeID]*binding),
		unitLike:       set.New[ids.NodeID](0),
	}
	r.names = NewScope(c.Num, "value", func(rib *Rib) { r.nameRibs[rib.Node()] = rib })
	r.types = NewScope(c.Num, "type", func(rib *Rib) { r.typeRibs[rib.Node()] = rib })
	r.labels = NewScope(c.Num, "label", func(rib *Rib) { r.labelRibs[rib.Node()] = rib })
	r.macros = NewScope(c.Num, "macro", func(rib *Rib) { r.macroRibs[rib.Node()] = rib })
	r.setupBuiltins()
	return r
}

func (r *Resolver) setupBuiltins() {
	r.builtinRib = NewRib(r.crate, ids.UnknownNodeID)
	for _, name := range builtinTypeNames {
		node := r.maps.NextNodeID(r.crate)
		r.builtins = append(r.builtins, Builtin{Name: name, Node: node})
		r.builtinNodes[node] = name
		r.builtinRib.InsertName(mappings.NewSegment(node, name), node, source.NoSpan, false, nil)
		r.definitions[node] = Definition{Node: node}
	}
	r.unitType = r.maps.NextNodeID(r.crate)
	r.builtinNodes[r.unitType] = "()"
	r.definitions[r.unitType] = Definition{Node: r.unitType}
}

func (r *Resolver) Crate() ids.CrateNum        { return r.crate }
func (r *Resolver) AST() *ast.Crate            { return r.ast }
func (r *Resolver) NameScope() *Scope          { return r.names }
func (r *Resolver) TypeScope() *Scope          { return r.types }
func (r *Resolver) LabelScope() *Scope         { return r.labels }
func (r *Resolver) MacroScope() *Scope         { return r.macros }
func (r *Resolver) Builtins() []Builtin        { return r.builtins }
func (r *Resolver) BuiltinRib() *Rib           { return r.builtinRib }
func (r *Resolver) UnitTypeNodeID() ids.NodeID { return r.unitType }

// LookupBuiltin returns the primitive name bound to node.
func (r *Resolver) LookupBuiltin(node ids.NodeID) (string, bool) {
	name, ok := r.builtinNodes[node]
	return name, ok
}

func (r *Resolver) FindNameRib(id ids.NodeID) (*Rib, bool) {
	rib, ok := r.nameRibs[id]
	return rib, ok
}

func (r *Resolver) FindTypeRib(id ids.NodeID) (*Rib, bool) {
	rib, ok := r.typeRibs[id]
	return rib, ok
}

func (r *Resolver) FindLabelRib(id ids.NodeID) (*Rib, bool) {
	rib, ok := r.labelRibs[id]
	return rib, ok
}

func (r *Resolver) FindMacroRib(id ids.NodeID) (*Rib, bool) {
	rib, ok := r.macroRibs[id]
	return rib, ok
}

// InsertNewDefinition records def for id. Recording a different definition
// for the same id is an internal error.
func (r *Resolver) InsertNewDefinition(id ids.NodeID, def Definition) {
	if prev, ok := r.definitions[id]; ok && prev != def {
		ice.Raise("resolve", "definition of node %d recorded twice (%v, %v)", id, prev, def)
	}
	r.definitions[id] = def
}

func (r *Resolver) LookupDefinition(id ids.NodeID) (Definition, bool) {
	def, ok := r.definitions[id]
	return def, ok
}

func (r *Resolver) InsertResolvedName(ref, def ids.NodeID)  { r.resolvedNames[ref] = def }
func (r *Resolver) InsertResolvedType(ref, def ids.NodeID)  { r.resolvedTypes[ref] = def }
func (r *Resolver) InsertResolvedLabel(ref, def ids.NodeID) { r.resolvedLabels[ref] = def }
func (r *Resolver) InsertResolvedMacro(ref, def ids.NodeID) { r.resolvedMacros[ref] = def }

func (r *Resolver) LookupResolvedName(ref ids.NodeID) (ids.NodeID, bool) {
	def, ok := r.resolvedNames[ref]
	return def, ok
}

func (r *Resolver) LookupResolvedType(ref ids.NodeID) (ids.NodeID, bool) {
	def, ok := r.resolvedTypes[ref]
	return def, ok
}

func (r *Resolver) LookupResolvedLabel(ref ids.NodeID) (ids.NodeID, bool) {
	def, ok := r.resolvedLabels[ref]
	return def, ok
}

func (r *Resolver) LookupResolvedMacro(ref ids.NodeID) (ids.NodeID, bool) {
	def, ok := r.resolvedMacros[ref]
	return def, ok
}

func (r *Resolver) MarkDeclMutability(id ids.NodeID, mut bool) {
	if mut {
		r.mutable.Insert(id)
	} else {
		r.mutable.Remove(id)
	}
}

func (r *Resolver) DeclIsMutable(id ids.NodeID) bool {
	return r.mutable.Contains(id)
}

// MarkAssignmentToDecl records an assignment expression targeting id.
func (r *Resolver) MarkAssignmentToDecl(id, assignment ids.NodeID) {
	s, ok := r.assignments[id]
	if !ok {
		s = set.New[ids.NodeID](1)
		r.assignments[id] = s
	}
	s.Insert(assignment)
}

func (r *Resolver) NumAssignmentsToDecl(id ids.NodeID) int {
	s, ok := r.assignments[id]
	if !ok {
		return 0
	}
	return s.Size()
}

// WasUnresolved reports whether resolving node already produced a diagnostic.
func (r *Resolver) WasUnresolved(node ids.NodeID) bool {
	return r.unresolved.Contains(node)
}

// IsModule reports whether node declares a module.
func (r *Resolver) IsModule(node ids.NodeID) bool {
	_, ok := r.modules[node]
	return ok
}

// ReferenceCount counts recorded uses of a local binding.
func (r *Resolver) ReferenceCount(def ids.NodeID) int {
	n := 0
	for _, rib := range r.nameRibs {
		if rib.DeclWasDeclaredHere(def) {
			n += rib.References(def)
		}
	}
	return n
}

func (r *Resolver) name(id source.StringID) string {
	return r.ast.NameOf(id)
}

func (r *Resolver) errorf(code diag.Code, span source.Span, msg string) *diag.ReportBuilder {
	return diag.ReportError(r.reporter, code, span, msg)
}
