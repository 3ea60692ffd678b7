package resolve

import (
	"fmt"
	"strings"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/ids"
	"oxbow/internal/mappings"
)

// position selects which namespace a path tries first.
type position uint8

const (
	posValue position = iota
	posType
)

// resolvePath resolves the leading segments of p. Resolution walks through
// modules and stops at the first segment that denotes anything else; later
// segments are associated items and are left to the type checker. Each
// resolved segment is recorded against its own node. The returned id is the
// last resolved definition.
func (r *Resolver) resolvePath(p *ast.Path, pos position) (ids.NodeID, bool) {
	for i := range p.Segments {
		for _, g := range p.Segments[i].Generics {
			r.resolveType(g)
		}
	}
	if len(p.Segments) == 0 {
		return ids.UnknownNodeID, false
	}

	module := ids.UnknownNodeID
	i := 0
	switch first := &p.Segments[0]; first.Kind {
	case ast.SegCrate:
		module = r.rootNode()
		r.InsertResolvedType(first.Node, module)
		i = 1
	case ast.SegSuper:
		module = r.curModule
		for i < len(p.Segments) && p.Segments[i].Kind == ast.SegSuper {
			seg := &p.Segments[i]
			parent := r.moduleParent[module]
			if !parent.IsValid() {
				r.unresolved.Insert(seg.Node)
				r.errorf(diag.SemaSuperAtRoot, seg.Span, "there are too many leading `super` keywords").Emit()
				return ids.UnknownNodeID, false
			}
			module = parent
			r.InsertResolvedType(seg.Node, module)
			i++
		}
	case ast.SegSelfMod:
		if len(p.Segments) == 1 && pos == posValue {
			return r.resolveSegment(first, ids.UnknownNodeID, pos, "self")
		}
		module = r.curModule
		r.InsertResolvedType(first.Node, module)
		i = 1
	case ast.SegSelfType:
		def, rib, ok := lookupScope(r.types, "Self")
		if !ok {
			r.unresolved.Insert(first.Node)
			r.errorf(diag.SemaSelfOutsideImpl, first.Span, "`Self` is only available in impls, traits, and type definitions").Emit()
			return ids.UnknownNodeID, false
		}
		rib.AppendReferenceForDef(def, first.Node)
		r.InsertResolvedType(first.Node, def)
		return def, true
	}

	if i == len(p.Segments) {
		return module, true
	}
	last := ids.UnknownNodeID
	for ; i < len(p.Segments); i++ {
		seg := &p.Segments[i]
		def, ok := r.resolveSegment(seg, module, pos, r.name(seg.Name))
		if !ok {
			return ids.UnknownNodeID, false
		}
		last = def
		if !r.IsModule(def) {
			break
		}
		module = def
	}
	return last, true
}

// resolveSegment looks name up lexically, or inside module when it is set.
func (r *Resolver) resolveSegment(seg *ast.PathSegment, module ids.NodeID, pos position, name string) (ids.NodeID, bool) {
	order := [2]Namespace{NSValue, NSType}
	if pos == posType {
		order = [2]Namespace{NSType, NSValue}
	}
	for _, ns := range order {
		var (
			def ids.NodeID
			rib *Rib
			ok  bool
		)
		if module.IsValid() {
			def, rib, ok = r.lookupInModule(module, ns, name)
		} else {
			def, rib, ok = lookupScope(r.scope(ns), name)
		}
		if !ok {
			continue
		}
		rib.AppendReferenceForDef(def, seg.Node)
		if ns == NSValue {
			r.InsertResolvedName(seg.Node, def)
		} else {
			r.InsertResolvedType(seg.Node, def)
		}
		return def, true
	}

	r.unresolved.Insert(seg.Node)
	msg := fmt.Sprintf("cannot find `%s` in this scope", name)
	if module.IsValid() {
		msg = fmt.Sprintf("cannot find `%s` in module `%s`", name, r.moduleName(module))
	}
	r.errorf(diag.SemaUnresolvedName, seg.Span, msg).Emit()
	return ids.UnknownNodeID, false
}

func (r *Resolver) lookupInModule(module ids.NodeID, ns Namespace, name string) (ids.NodeID, *Rib, bool) {
	var rib *Rib
	var ok bool
	switch ns {
	case NSValue:
		rib, ok = r.nameRibs[module]
	case NSType:
		rib, ok = r.typeRibs[module]
	case NSMacro:
		rib, ok = r.macroRibs[module]
	}
	if !ok {
		return ids.UnknownNodeID, nil, false
	}
	def, ok := rib.LookupName(mappings.NewSegment(ids.UnknownNodeID, name))
	return def, rib, ok
}

// lookupScope searches s innermost first and also returns the rib that
// holds the binding.
func lookupScope(s *Scope, name string) (ids.NodeID, *Rib, bool) {
	key := mappings.NewSegment(ids.UnknownNodeID, name)
	var (
		def   ids.NodeID
		found *Rib
	)
	s.Iterate(func(rib *Rib) bool {
		if id, ok := rib.LookupName(key); ok {
			def, found = id, rib
			return false
		}
		return true
	})
	return def, found, found != nil
}

func (r *Resolver) scope(ns Namespace) *Scope {
	switch ns {
	case NSValue:
		return r.names
	case NSType:
		return r.types
	case NSLabel:
		return r.labels
	}
	return r.macros
}

func (r *Resolver) rootNode() ids.NodeID {
	return r.ast.Items.Get(r.ast.Root).Node
}

func (r *Resolver) moduleName(module ids.NodeID) string {
	if p, ok := r.itemPaths[module]; ok {
		return p.String()
	}
	return "?"
}

// resolveType resolves every path inside a syntactic type.
func (r *Resolver) resolveType(id ast.TypeID) {
	if !id.IsValid() {
		return
	}
	t := r.ast.Types.Get(id)
	switch t.Kind {
	case ast.TypePath:
		r.resolvePath(&t.Path, posType)
	case ast.TypeQualPath:
		r.resolveQualified(&t.Qual)
	case ast.TypeTuple, ast.TypeRef:
		for _, e := range t.Elems {
			r.resolveType(e)
		}
	case ast.TypeArray:
		for _, e := range t.Elems {
			r.resolveType(e)
		}
		r.resolveExpr(t.Len)
	case ast.TypeInfer, ast.TypeNever:
	}
}

// resolveQualified handles `<T as Trait>::seg`. The trailing segments name
// associated items and are resolved by the type checker.
func (r *Resolver) resolveQualified(q *ast.QualifiedPath) {
	r.resolveType(q.Self)
	if q.Trait != nil {
		r.resolvePath(q.Trait, posType)
	}
	for i := range q.Segments {
		for _, g := range q.Segments[i].Generics {
			r.resolveType(g)
		}
	}
}

func (r *Resolver) pathText(segs []ast.PathSegment) string {
	var b strings.Builder
	for i := range segs {
		if i > 0 {
			b.WriteString("::")
		}
		seg := &segs[i]
		if seg.Kind != ast.SegIdent {
			b.WriteString(seg.Kind.String())
		} else {
			b.WriteString(r.name(seg.Name))
		}
		if len(seg.Generics) > 0 {
			args := make([]string, len(seg.Generics))
			for j, g := range seg.Generics {
				args[j] = r.typeText(g)
			}
			b.WriteString("<" + strings.Join(args, ", ") + ">")
		}
	}
	return b.String()
}

// typeText renders a syntactic type as written.
func (r *Resolver) typeText(id ast.TypeID) string {
	if !id.IsValid() {
		return "()"
	}
	t := r.ast.Types.Get(id)
	switch t.Kind {
	case ast.TypePath:
		return r.pathText(t.Path.Segments)
	case ast.TypeQualPath:
		s := "<" + r.typeText(t.Qual.Self)
		if t.Qual.Trait != nil {
			s += " as " + r.pathText(t.Qual.Trait.Segments)
		}
		return s + ">::" + r.pathText(t.Qual.Segments)
	case ast.TypeTuple:
		parts := make([]string, len(t.Elems))
		for i, e := range t.Elems {
			parts[i] = r.typeText(e)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case ast.TypeRef:
		if t.Mut {
			return "&mut " + r.typeText(t.Elem())
		}
		return "&" + r.typeText(t.Elem())
	case ast.TypeArray:
		return "[" + r.typeText(t.Elem()) + "; _]"
	case ast.TypeInfer:
		return "_"
	case ast.TypeNever:
		return "!"
	}
	return "?"
}
