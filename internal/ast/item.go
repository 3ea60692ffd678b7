package ast

import (
	"oxbow/internal/ids"
	"oxbow/internal/source"
)

type ItemKind uint8

const (
	ItemModule ItemKind = iota
	ItemFn
	ItemStruct
	ItemEnum
	ItemUnion
	ItemTrait
	ItemImpl
	ItemConst
	ItemStatic
	ItemTypeAlias
	ItemMacroRules
)

func (k ItemKind) String() string {
	switch k {
	case ItemModule:
		return "module"
	case ItemFn:
		return "fn"
	case ItemStruct:
		return "struct"
	case ItemEnum:
		return "enum"
	case ItemUnion:
		return "union"
	case ItemTrait:
		return "trait"
	case ItemImpl:
		return "impl"
	case ItemConst:
		return "const"
	case ItemStatic:
		return "static"
	case ItemTypeAlias:
		return "type"
	case ItemMacroRules:
		return "macro_rules"
	}
	return "item"
}

// Visibility of an item or field.
type Visibility uint8

const (
	VisPrivate Visibility = iota
	VisPublic
	VisCrate
	VisSuper
)

func (v Visibility) String() string {
	switch v {
	case VisPublic:
		return "pub"
	case VisCrate:
		return "pub(crate)"
	case VisSuper:
		return "pub(super)"
	}
	return "priv"
}

// Attr is an outer attribute such as #[lang = "add"].
type Attr struct {
	Name  source.StringID
	Value source.StringID
	Span  source.Span
}

type Item struct {
	Node    ids.NodeID
	Kind    ItemKind
	Name    source.StringID
	Vis     Visibility
	Attrs   []Attr
	Span    source.Span
	Payload PayloadID
}

type GenericParam struct {
	Node    ids.NodeID
	Name    source.StringID
	Bounds  []Path
	Default TypeID
	Span    source.Span
}

type Generics struct {
	Params []GenericParam
}

func (g *Generics) Len() int { return len(g.Params) }

type Field struct {
	Node ids.NodeID
	Name source.StringID // tuple fields are named by their index
	Type TypeID
	Vis  Visibility
	Span source.Span
}

type Param struct {
	Node ids.NodeID
	Pat  PatID
	Type TypeID
	Span source.Span
}

// SelfParamKind covers `self`, `&self` and `&mut self`.
type SelfParamKind uint8

const (
	SelfValue SelfParamKind = iota
	SelfRef
	SelfRefMut
)

type SelfParam struct {
	Node ids.NodeID
	Kind SelfParamKind
	Mut  bool // `mut self`
	Span source.Span
}

type ModuleItem struct {
	Items []ItemID
}

type FnItem struct {
	Generics Generics
	Self     *SelfParam
	Params   []Param
	Result   TypeID // NoTypeID means unit
	Body     ExprID // NoExprID for required trait functions
}

// StructKind is shared by structs and enum variants.
type StructKind uint8

const (
	StructNamed StructKind = iota
	StructTuple
	StructUnit
)

func (k StructKind) String() string {
	switch k {
	case StructTuple:
		return "tuple"
	case StructUnit:
		return "unit"
	}
	return "named"
}

type StructItem struct {
	Generics Generics
	Kind     StructKind
	Fields   []Field
}

type Variant struct {
	Node         ids.NodeID
	Name         source.StringID
	Kind         StructKind
	Fields       []Field
	Discriminant ExprID
	Span         source.Span
}

type EnumItem struct {
	Generics Generics
	Variants []Variant
}

type UnionItem struct {
	Generics Generics
	Fields   []Field
}

// TraitItem holds functions and consts; items without a body or value are
// mandatory for implementors.
type TraitItem struct {
	Generics Generics
	Items    []ItemID
}

type ImplItem struct {
	Generics Generics
	Trait    *Path
	SelfType TypeID
	Items    []ItemID
}

type ConstItem struct {
	Type  TypeID
	Value ExprID
}

type StaticItem struct {
	Mut   bool
	Type  TypeID
	Value ExprID
}

type TypeAliasItem struct {
	Generics Generics
	Type     TypeID
}

type Items struct {
	Arena   *Arena[Item]
	Modules *Arena[ModuleItem]
	Fns     *Arena[FnItem]
	Structs *Arena[StructItem]
	Enums   *Arena[EnumItem]
	Unions  *Arena[UnionItem]
	Traits  *Arena[TraitItem]
	Impls   *Arena[ImplItem]
	Consts  *Arena[ConstItem]
	Statics *Arena[StaticItem]
	Aliases *Arena[TypeAliasItem]
}

// NewItems creates per-kind arenas; a zero capHint defaults to 1<<6.
func NewItems(capHint uint) *Items {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Items{
		Arena:   NewArena[Item](capHint),
		Modules: NewArena[ModuleItem](capHint / 4),
		Fns:     NewArena[FnItem](capHint),
		Structs: NewArena[StructItem](capHint / 4),
		Enums:   NewArena[EnumItem](capHint / 4),
		Unions:  NewArena[UnionItem](0),
		Traits:  NewArena[TraitItem](capHint / 4),
		Impls:   NewArena[ImplItem](capHint / 4),
		Consts:  NewArena[ConstItem](capHint / 4),
		Statics: NewArena[StaticItem](0),
		Aliases: NewArena[TypeAliasItem](0),
	}
}

func (i *Items) new(node ids.NodeID, kind ItemKind, name source.StringID, span source.Span, payload uint32) ItemID {
	return ItemID(i.Arena.Allocate(Item{
		Node:    node,
		Kind:    kind,
		Name:    name,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

func (i *Items) Get(id ItemID) *Item {
	return i.Arena.Get(uint32(id))
}

func (i *Items) Module(id ItemID) (*ModuleItem, bool) {
	it := i.Get(id)
	if it == nil || it.Kind != ItemModule {
		return nil, false
	}
	return i.Modules.Get(uint32(it.Payload)), true
}

func (i *Items) Fn(id ItemID) (*FnItem, bool) {
	it := i.Get(id)
	if it == nil || it.Kind != ItemFn {
		return nil, false
	}
	return i.Fns.Get(uint32(it.Payload)), true
}

func (i *Items) Struct(id ItemID) (*StructItem, bool) {
	it := i.Get(id)
	if it == nil || it.Kind != ItemStruct {
		return nil, false
	}
	return i.Structs.Get(uint32(it.Payload)), true
}

func (i *Items) Enum(id ItemID) (*EnumItem, bool) {
	it := i.Get(id)
	if it == nil || it.Kind != ItemEnum {
		return nil, false
	}
	return i.Enums.Get(uint32(it.Payload)), true
}

func (i *Items) Union(id ItemID) (*UnionItem, bool) {
	it := i.Get(id)
	if it == nil || it.Kind != ItemUnion {
		return nil, false
	}
	return i.Unions.Get(uint32(it.Payload)), true
}

func (i *Items) Trait(id ItemID) (*TraitItem, bool) {
	it := i.Get(id)
	if it == nil || it.Kind != ItemTrait {
		return nil, false
	}
	return i.Traits.Get(uint32(it.Payload)), true
}

func (i *Items) Impl(id ItemID) (*ImplItem, bool) {
	it := i.Get(id)
	if it == nil || it.Kind != ItemImpl {
		return nil, false
	}
	return i.Impls.Get(uint32(it.Payload)), true
}

func (i *Items) Const(id ItemID) (*ConstItem, bool) {
	it := i.Get(id)
	if it == nil || it.Kind != ItemConst {
		return nil, false
	}
	return i.Consts.Get(uint32(it.Payload)), true
}

func (i *Items) Static(id ItemID) (*StaticItem, bool) {
	it := i.Get(id)
	if it == nil || it.Kind != ItemStatic {
		return nil, false
	}
	return i.Statics.Get(uint32(it.Payload)), true
}

func (i *Items) TypeAlias(id ItemID) (*TypeAliasItem, bool) {
	it := i.Get(id)
	if it == nil || it.Kind != ItemTypeAlias {
		return nil, false
	}
	return i.Aliases.Get(uint32(it.Payload)), true
}

// GenericsOf returns the generic parameter list of items that declare one.
func (i *Items) GenericsOf(id ItemID) *Generics {
	it := i.Get(id)
	if it == nil {
		return nil
	}
	p := uint32(it.Payload)
	switch it.Kind {
	case ItemFn:
		return &i.Fns.Get(p).Generics
	case ItemStruct:
		return &i.Structs.Get(p).Generics
	case ItemEnum:
		return &i.Enums.Get(p).Generics
	case ItemUnion:
		return &i.Unions.Get(p).Generics
	case ItemTrait:
		return &i.Traits.Get(p).Generics
	case ItemImpl:
		return &i.Impls.Get(p).Generics
	case ItemTypeAlias:
		return &i.Aliases.Get(p).Generics
	}
	return nil
}

// AttrValue returns the value of the first attribute called name.
func (it *Item) AttrValue(name source.StringID) (source.StringID, bool) {
	for _, a := range it.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return source.NoStringID, false
}
