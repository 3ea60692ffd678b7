package hir

import (
	"oxbow/internal/ast"
	"oxbow/internal/ids"
	"oxbow/internal/source"
)

type ItemKind uint8

const (
	ItemModule ItemKind = iota
	ItemFn
	ItemStruct
	ItemEnum
	ItemVariant
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
	case ItemVariant:
		return "variant"
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

// Owner says where an associated item lives.
type Owner uint8

const (
	OwnerFree Owner = iota
	OwnerImpl
	OwnerTrait
)

// Item is a lowered declaration. Exactly one payload pointer matching Kind is
// set; modules and macros carry none beyond Module.
type Item struct {
	Mapping ids.NodeMapping
	Kind    ItemKind
	Name    source.StringID
	Vis     ast.Visibility
	Span    source.Span
	AST     ast.ItemID // NoItemID for enum variants
	Parent  ids.IrID   // enclosing module, impl, trait or enum
	Owner   Owner

	Module  *Module
	Fn      *Fn
	Struct  *Struct // also used by unions
	Enum    *Enum
	Variant *Variant
	Trait   *Trait
	Impl    *Impl
	Const   *Const
	Static  *Static
	Alias   *TypeAlias
}

func (it *Item) Ir() ids.IrID       { return it.Mapping.Ir }
func (it *Item) Node() ids.NodeID   { return it.Mapping.Node }
func (it *Item) DefID() ids.DefID   { return it.Mapping.DefID() }
func (it *Item) IsAssociated() bool { return it.Owner != OwnerFree }
func (it *Item) IsTypeDecl() bool   { return it.Kind == ItemStruct || it.Kind == ItemEnum || it.Kind == ItemUnion }
func (it *Item) IsValueDecl() bool  { return it.Kind == ItemFn || it.Kind == ItemConst || it.Kind == ItemStatic }
func (it *Item) IsModule() bool     { return it.Kind == ItemModule }
func (it *Item) String() string     { return it.Kind.String() + " " + it.Mapping.String() }

// Generics returns the generic parameters declared directly on the item.
func (it *Item) Generics() []*GenericParam {
	switch it.Kind {
	case ItemFn:
		return it.Fn.Generics
	case ItemStruct, ItemUnion:
		return it.Struct.Generics
	case ItemEnum:
		return it.Enum.Generics
	case ItemTrait:
		return it.Trait.Generics
	case ItemImpl:
		return it.Impl.Generics
	case ItemTypeAlias:
		return it.Alias.Generics
	}
	return nil
}

type GenericParam struct {
	Mapping ids.NodeMapping
	Name    source.StringID
	Bounds  []ast.Path
	Default ast.TypeID
	Span    source.Span
	Index   int
}

type Field struct {
	Mapping ids.NodeMapping
	Name    source.StringID
	Type    ast.TypeID
	Vis     ast.Visibility
	Span    source.Span
	Index   int
}

type Param struct {
	Mapping ids.NodeMapping
	Pat     ast.PatID
	Type    ast.TypeID
	Span    source.Span
}

type SelfParam struct {
	Mapping ids.NodeMapping
	Kind    ast.SelfParamKind
	Mut     bool
	Span    source.Span
}

type Module struct {
	Items []ids.IrID
}

type Fn struct {
	Generics []*GenericParam
	Self     *SelfParam
	Params   []*Param
	Result   ast.TypeID
	Body     ast.ExprID
}

// HasBody is false for required trait functions.
func (f *Fn) HasBody() bool { return f.Body.IsValid() }

type Struct struct {
	Generics []*GenericParam
	Kind     ast.StructKind
	Fields   []*Field
}

type Enum struct {
	Generics []*GenericParam
	Variants []ids.IrID
}

type Variant struct {
	Enum         ids.IrID
	Index        int
	Kind         ast.StructKind
	Fields       []*Field
	Discriminant ast.ExprID
}

type Trait struct {
	Generics []*GenericParam
	Items    []ids.IrID
}

type Impl struct {
	Generics []*GenericParam
	Trait    *ast.Path
	SelfType ast.TypeID
	Items    []ids.IrID
}

// IsTraitImpl reports whether the impl is `impl Trait for T`.
func (i *Impl) IsTraitImpl() bool { return i.Trait != nil }

type Const struct {
	Type  ast.TypeID
	Value ast.ExprID
}

// IsMandatory is true for trait consts without a default value.
func (c *Const) IsMandatory() bool { return !c.Value.IsValid() }

type Static struct {
	Mut   bool
	Type  ast.TypeID
	Value ast.ExprID
}

type TypeAlias struct {
	Generics []*GenericParam
	Type     ast.TypeID
}

// IsMandatoryTraitItem reports whether an implementor has to supply it.
func (it *Item) IsMandatoryTraitItem() bool {
	if it.Owner != OwnerTrait {
		return false
	}
	switch it.Kind {
	case ItemFn:
		return !it.Fn.HasBody()
	case ItemConst:
		return it.Const.IsMandatory()
	}
	return false
}
