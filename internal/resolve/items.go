package resolve

import (
	"fmt"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/ids"
	"oxbow/internal/mappings"
	"oxbow/internal/source"
)

// resolveModule is phase two for one module: the scopes are reset to the
// module's own ribs so that items of enclosing modules are not visible
// unqualified.
func (r *Resolver) resolveModule(mod ast.ItemID) {
	it := r.ast.Items.Get(mod)
	m, _ := r.ast.Items.Module(mod)

	savedNames := r.names.Reset(r.nameRibs[it.Node])
	savedTypes := r.types.Reset(r.builtinRib, r.typeRibs[it.Node])
	savedLabels := r.labels.Reset()
	savedMacros := r.macros.Reset(r.macroChain(it.Node)...)
	prevModule, prevPath := r.curModule, r.curPath
	r.curModule, r.curPath = it.Node, r.itemPaths[it.Node]

	for _, child := range m.Items {
		r.resolveItem(child)
	}

	r.curModule, r.curPath = prevModule, prevPath
	r.macros.Restore(savedMacros)
	r.labels.Restore(savedLabels)
	r.types.Restore(savedTypes)
	r.names.Restore(savedNames)
}

// macroChain lists the macro ribs of module and its ancestors, outermost
// first; macro_rules definitions are visible in nested modules.
func (r *Resolver) macroChain(module ids.NodeID) []*Rib {
	var chain []*Rib
	for m := module; m.IsValid(); m = r.moduleParent[m] {
		if rib, ok := r.macroRibs[m]; ok {
			chain = append([]*Rib{rib}, chain...)
		}
	}
	return chain
}

func (r *Resolver) resolveItem(id ast.ItemID) {
	it := r.ast.Items.Get(id)
	switch it.Kind {
	case ast.ItemModule:
		r.resolveModule(id)
	case ast.ItemFn:
		fn, _ := r.ast.Items.Fn(id)
		r.resolveFn(it, fn)
	case ast.ItemStruct:
		st, _ := r.ast.Items.Struct(id)
		r.types.Push(it.Node)
		r.declareGenerics(&st.Generics)
		r.resolveFields(st.Fields)
		r.types.Pop()
	case ast.ItemUnion:
		un, _ := r.ast.Items.Union(id)
		r.types.Push(it.Node)
		r.declareGenerics(&un.Generics)
		r.resolveFields(un.Fields)
		r.types.Pop()
	case ast.ItemEnum:
		en, _ := r.ast.Items.Enum(id)
		// generics share the rib that phase one filled with the variants
		r.types.PushRib(r.typeRibs[it.Node])
		r.declareGenerics(&en.Generics)
		for i := range en.Variants {
			r.resolveFields(en.Variants[i].Fields)
			r.resolveExpr(en.Variants[i].Discriminant)
		}
		r.types.Pop()
	case ast.ItemTrait:
		tr, _ := r.ast.Items.Trait(id)
		r.types.Push(it.Node)
		r.declareGenerics(&tr.Generics)
		r.types.Insert(mappings.NewSegment(it.Node, "Self"), it.Node, it.Span, true, nil)
		r.resolveAssociated(tr.Items)
		r.types.Pop()
	case ast.ItemImpl:
		im, _ := r.ast.Items.Impl(id)
		r.types.Push(it.Node)
		r.declareGenerics(&im.Generics)
		r.resolveType(im.SelfType)
		if im.Trait != nil {
			r.resolvePath(im.Trait, posType)
		}
		if im.SelfType.IsValid() {
			self := r.ast.Types.Get(im.SelfType)
			r.types.Insert(mappings.NewSegment(self.Node, "Self"), self.Node, self.Span, true, nil)
		}
		r.resolveAssociated(im.Items)
		r.types.Pop()
	case ast.ItemConst:
		c, _ := r.ast.Items.Const(id)
		r.resolveType(c.Type)
		r.resolveExpr(c.Value)
	case ast.ItemStatic:
		s, _ := r.ast.Items.Static(id)
		r.resolveType(s.Type)
		r.resolveExpr(s.Value)
	case ast.ItemTypeAlias:
		a, _ := r.ast.Items.TypeAlias(id)
		r.types.Push(it.Node)
		r.declareGenerics(&a.Generics)
		r.resolveType(a.Type)
		r.types.Pop()
	case ast.ItemMacroRules:
	}
}

func (r *Resolver) resolveAssociated(items []ast.ItemID) {
	prevPath := r.curPath
	for _, id := range items {
		r.curPath = r.itemPaths[r.ast.Items.Get(id).Node]
		r.resolveItem(id)
	}
	r.curPath = prevPath
}

func (r *Resolver) resolveFields(fields []ast.Field) {
	for i := range fields {
		r.resolveType(fields[i].Type)
	}
}

// declareGenerics inserts the generic params into the innermost type rib,
// then resolves their bounds and defaults.
func (r *Resolver) declareGenerics(g *ast.Generics) {
	for i := range g.Params {
		p := &g.Params[i]
		name := r.name(p.Name)
		r.types.Insert(mappings.NewSegment(p.Node, name), p.Node, p.Span, false, r.duplicateItem(name, p.Span))
		r.InsertNewDefinition(p.Node, Definition{Node: p.Node})
	}
	for i := range g.Params {
		p := &g.Params[i]
		for j := range p.Bounds {
			r.resolvePath(&p.Bounds[j], posType)
		}
		r.resolveType(p.Default)
	}
}

func (r *Resolver) resolveFn(it *ast.Item, fn *ast.FnItem) {
	savedLabels := r.labels.Reset()
	prevDepth, prevPath := r.loopDepth, r.curPath
	r.loopDepth = 0
	r.curPath = r.itemPaths[it.Node]

	r.types.Push(it.Node)
	r.declareGenerics(&fn.Generics)
	for i := range fn.Params {
		r.resolveType(fn.Params[i].Type)
	}
	r.resolveType(fn.Result)

	rib := r.names.Push(it.Node)
	if sp := fn.Self; sp != nil {
		r.names.Insert(mappings.NewSegment(sp.Node, "self"), sp.Node, sp.Span, false, nil)
		r.InsertNewDefinition(sp.Node, Definition{Node: sp.Node, Parent: sp.Node})
		r.MarkDeclMutability(sp.Node, sp.Mut)
		r.addBinding(rib, sp.Node, "self", sp.Span, bindingSelf, true)
	}
	for i := range fn.Params {
		p := &fn.Params[i]
		r.declarePattern(p.Pat, p.Node, bindingParam, false, make(map[string]ids.NodeID))
	}
	r.resolveExpr(fn.Body)
	r.names.Pop()
	r.types.Pop()

	r.loopDepth, r.curPath = prevDepth, prevPath
	r.labels.Restore(savedLabels)
}

func (r *Resolver) addBinding(rib *Rib, node ids.NodeID, name string, span source.Span, kind bindingKind, initialised bool) {
	b := &binding{rib: rib, node: node, name: name, span: span, kind: kind, initialised: initialised}
	r.bindings = append(r.bindings, b)
	r.bindingIndex[node] = b
}

func (r *Resolver) duplicateBinding(name string, span source.Span) DuplicateFunc {
	return func(_ ids.NodeID, prevSpan source.Span) {
		r.errorf(diag.SemaDuplicateBinding, span, fmt.Sprintf("identifier `%s` is bound more than once in the same parameter list", name)).
			WithNote(prevSpan, "first binding here").
			Emit()
	}
}
