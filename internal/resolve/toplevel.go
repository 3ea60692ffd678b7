package resolve

import (
	"fmt"

	"oxbow/internal/ast"
	"oxbow/internal/diag"
	"oxbow/internal/ids"
	"oxbow/internal/mappings"
	"oxbow/internal/source"
)

// declareCrate is phase one: every item of every module gets its canonical
// path, visibility, definition and scope entry before any use is resolved.
func (r *Resolver) declareCrate() {
	root := r.ast.Items.Get(r.ast.Root)
	path := mappings.NewSegment(root.Node, r.name(r.ast.Name))
	r.modules[root.Node] = r.ast.Root
	r.moduleParent[root.Node] = ids.UnknownNodeID
	r.maps.InsertCanonicalPath(r.crate, root.Node, path)
	r.maps.InsertVisibility(r.crate, root.Node, mappings.Visibility{Kind: mappings.VisPublic})
	r.InsertNewDefinition(root.Node, Definition{Node: root.Node})
	r.itemPaths[root.Node] = path

	r.declareModuleBody(r.ast.Root, path)
}

func (r *Resolver) declareModuleBody(mod ast.ItemID, path mappings.CanonicalPath) {
	it := r.ast.Items.Get(mod)
	m, _ := r.ast.Items.Module(mod)

	r.names.Push(it.Node)
	r.types.Push(it.Node)
	r.macros.Push(it.Node)
	prev := r.curModule
	r.curModule = it.Node

	for _, child := range m.Items {
		r.declareItem(child, path, it.Node)
	}

	r.curModule = prev
	r.macros.Pop()
	r.types.Pop()
	r.names.Pop()
}

// declareItem registers one item in the innermost ribs. module is the
// enclosing module when the item is a direct module child, UnknownNodeID for
// items nested in blocks.
func (r *Resolver) declareItem(id ast.ItemID, prefix mappings.CanonicalPath, module ids.NodeID) {
	it := r.ast.Items.Get(id)
	name := r.name(it.Name)
	if it.Kind == ast.ItemImpl {
		name = r.implSegment(id)
	}
	path := prefix.Append(mappings.NewSegment(it.Node, name))
	r.recordItem(it.Node, path, it.Vis, module)
	dup := r.duplicateItem(name, it.Span)

	switch it.Kind {
	case ast.ItemModule:
		r.types.Insert(mappings.NewSegment(it.Node, name), it.Node, it.Span, false, dup)
		r.modules[it.Node] = id
		r.moduleParent[it.Node] = r.curModule
		r.declareModuleBody(id, path)

	case ast.ItemFn, ast.ItemStatic:
		r.names.Insert(mappings.NewSegment(it.Node, name), it.Node, it.Span, false, dup)

	case ast.ItemConst:
		r.names.Insert(mappings.NewSegment(it.Node, name), it.Node, it.Span, false, dup)
		r.unitLike.Insert(it.Node)

	case ast.ItemStruct:
		r.types.Insert(mappings.NewSegment(it.Node, name), it.Node, it.Span, false, dup)
		st, _ := r.ast.Items.Struct(id)
		if st.Kind != ast.StructNamed {
			// tuple and unit structs double as constructors
			r.names.Insert(mappings.NewSegment(it.Node, name), it.Node, it.Span, false, dup)
		}
		if st.Kind == ast.StructUnit {
			r.unitLike.Insert(it.Node)
		}

	case ast.ItemEnum:
		r.types.Insert(mappings.NewSegment(it.Node, name), it.Node, it.Span, false, dup)
		r.declareVariants(id, path)

	case ast.ItemUnion, ast.ItemTypeAlias:
		r.types.Insert(mappings.NewSegment(it.Node, name), it.Node, it.Span, false, dup)

	case ast.ItemTrait:
		r.types.Insert(mappings.NewSegment(it.Node, name), it.Node, it.Span, false, dup)
		tr, _ := r.ast.Items.Trait(id)
		r.declareAssociated(it.Node, tr.Items, path)

	case ast.ItemImpl:
		im, _ := r.ast.Items.Impl(id)
		r.declareAssociated(it.Node, im.Items, path)

	case ast.ItemMacroRules:
		r.macros.Insert(mappings.NewSegment(it.Node, name), it.Node, it.Span, false, dup)
		r.maps.InsertMacroDef(r.crate, mappings.MacroDef{Node: it.Node, Name: name, Span: it.Span})
	}
}

func (r *Resolver) recordItem(node ids.NodeID, path mappings.CanonicalPath, vis ast.Visibility, module ids.NodeID) {
	r.maps.InsertCanonicalPath(r.crate, node, path)
	r.maps.InsertVisibility(r.crate, node, r.visibility(vis))
	if module.IsValid() {
		r.maps.InsertModuleChild(r.crate, module, node)
	}
	r.InsertNewDefinition(node, Definition{Node: node})
	r.itemPaths[node] = path
}

func (r *Resolver) visibility(v ast.Visibility) mappings.Visibility {
	switch v {
	case ast.VisPublic:
		return mappings.Visibility{Kind: mappings.VisPublic}
	case ast.VisCrate:
		return mappings.Visibility{Kind: mappings.VisRestricted, Module: r.ast.Items.Get(r.ast.Root).Node}
	case ast.VisSuper:
		if parent, ok := r.moduleParent[r.curModule]; ok && parent.IsValid() {
			return mappings.Visibility{Kind: mappings.VisRestricted, Module: parent}
		}
		return mappings.Visibility{Kind: mappings.VisRestricted, Module: r.curModule}
	}
	return mappings.Visibility{Kind: mappings.VisPrivate, Module: r.curModule}
}

// declareVariants puts every variant in both namespaces of a rib owned by
// the enum, so that Enum::Variant can be found from the enum's node.
func (r *Resolver) declareVariants(id ast.ItemID, path mappings.CanonicalPath) {
	it := r.ast.Items.Get(id)
	en, _ := r.ast.Items.Enum(id)
	r.names.Push(it.Node)
	r.types.Push(it.Node)
	for i := range en.Variants {
		v := &en.Variants[i]
		name := r.name(v.Name)
		seg := mappings.NewSegment(v.Node, name)
		dup := r.duplicateItem(name, v.Span)
		r.names.Insert(seg, v.Node, v.Span, false, dup)
		r.types.Insert(seg, v.Node, v.Span, false, nil)
		r.maps.InsertCanonicalPath(r.crate, v.Node, path.Append(seg))
		r.maps.InsertVisibility(r.crate, v.Node, mappings.Visibility{Kind: mappings.VisPublic})
		r.InsertNewDefinition(v.Node, Definition{Node: v.Node})
		r.itemPaths[v.Node] = path.Append(seg)
		if v.Kind == ast.StructUnit {
			r.unitLike.Insert(v.Node)
		}
	}
	r.types.Pop()
	r.names.Pop()
}

// declareAssociated registers the items of a trait or impl in a value rib
// owned by the container.
func (r *Resolver) declareAssociated(owner ids.NodeID, items []ast.ItemID, path mappings.CanonicalPath) {
	r.names.Push(owner)
	for _, id := range items {
		it := r.ast.Items.Get(id)
		name := r.name(it.Name)
		seg := mappings.NewSegment(it.Node, name)
		r.recordItem(it.Node, path.Append(seg), it.Vis, ids.UnknownNodeID)
		r.names.Insert(seg, it.Node, it.Span, false, r.duplicateItem(name, it.Span))
	}
	r.names.Pop()
}

// implSegment names an impl block in canonical paths: `<impl T>` or
// `<T as Trait>`.
func (r *Resolver) implSegment(id ast.ItemID) string {
	im, _ := r.ast.Items.Impl(id)
	self := r.typeText(im.SelfType)
	if im.Trait != nil {
		return fmt.Sprintf("<%s as %s>", self, r.pathText(im.Trait.Segments))
	}
	return fmt.Sprintf("<impl %s>", self)
}

func (r *Resolver) duplicateItem(name string, span source.Span) DuplicateFunc {
	return func(_ ids.NodeID, prevSpan source.Span) {
		r.errorf(diag.SemaDuplicateDefinition, span, fmt.Sprintf("the name `%s` is defined multiple times", name)).
			WithNote(prevSpan, fmt.Sprintf("previous definition of `%s` here", name)).
			Emit()
	}
}
