package types

import "oxbow/internal/ids"

// AdtKind distinguishes the flavours of algebraic data types.
type AdtKind uint8

const (
	AdtStruct AdtKind = iota
	AdtTupleStruct
	AdtUnitStruct
	AdtEnum
	AdtUnion
)

func (k AdtKind) String() string {
	switch k {
	case AdtTupleStruct:
		return "tuple struct"
	case AdtUnitStruct:
		return "unit struct"
	case AdtEnum:
		return "enum"
	case AdtUnion:
		return "union"
	}
	return "struct"
}

// VariantKind is the shape of one variant's field list.
type VariantKind uint8

const (
	VariantNamed VariantKind = iota
	VariantTuple
	VariantUnit
)

// FieldDef is a field of a variant. Type is expressed over the ADT's formal
// params.
type FieldDef struct {
	Name string
	Type TypeID
}

// VariantDef describes one variant. Structs and unions have exactly one,
// whose Item is the ADT itself.
type VariantDef struct {
	Item         ids.IrID
	Name         string
	Kind         VariantKind
	Index        int
	Discriminant int64
	Fields       []FieldDef
}

// FieldIndex returns the position of the named field.
func (v *VariantDef) FieldIndex(name string) (int, bool) {
	for i := range v.Fields {
		if v.Fields[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// AdtInfo stores the metadata of an ADT. A template has nil Args; instances
// created by Instantiate share the template's Variants and carry one
// argument per formal param.
type AdtInfo struct {
	Item     ids.IrID
	Def      ids.DefID
	Name     string
	Kind     AdtKind
	Params   []TypeID
	Args     []TypeID
	Variants []*VariantDef
	template TypeID
}

// IsEnum reports whether the ADT is an enum.
func (a *AdtInfo) IsEnum() bool { return a.Kind == AdtEnum }

// Template returns the generic template the ADT was instantiated from.
func (a *AdtInfo) Template() TypeID { return a.template }

// VariantByName finds an enum variant.
func (a *AdtInfo) VariantByName(name string) (*VariantDef, bool) {
	for _, v := range a.Variants {
		if v.Name == name {
			return v, true
		}
	}
	return nil, false
}

// VariantByItem finds the variant declared by item.
func (a *AdtInfo) VariantByItem(item ids.IrID) (*VariantDef, bool) {
	for _, v := range a.Variants {
		if v.Item == item {
			return v, true
		}
	}
	return nil, false
}

// RegisterAdt allocates a nominal ADT template. Variants may be filled in
// later with SetVariants, once field types are known.
func (in *Interner) RegisterAdt(item ids.IrID, def ids.DefID, name string, kind AdtKind, params []TypeID) TypeID {
	in.adts = append(in.adts, AdtInfo{
		Item:   item,
		Def:    def,
		Name:   name,
		Kind:   kind,
		Params: cloneTypeArgs(params),
	})
	slot := slotOf(len(in.adts)-1, "adt info")
	id := in.internRaw(Type{Kind: KindAdt, Payload: slot})
	in.adts[slot].template = id
	return id
}

// SetVariants stores the variant list of a template and of every instance
// already made from it.
func (in *Interner) SetVariants(id TypeID, variants []*VariantDef) {
	info, ok := in.AdtInfo(id)
	if !ok {
		return
	}
	tmpl := info.template
	for i := range in.adts {
		if in.adts[i].template == tmpl {
			in.adts[i].Variants = variants
		}
	}
}

// AdtInfo returns metadata for the provided ADT TypeID.
func (in *Interner) AdtInfo(id TypeID) (*AdtInfo, bool) {
	tt, ok := in.Lookup(in.Resolve(id))
	if !ok || tt.Kind != KindAdt {
		return nil, false
	}
	if int(tt.Payload) >= len(in.adts) {
		return nil, false
	}
	return &in.adts[tt.Payload], true
}

// InstantiateAdt binds the formal params of template to args. Equal
// argument lists give the same TypeID; the template is left untouched.
func (in *Interner) InstantiateAdt(template TypeID, args []TypeID) TypeID {
	base, ok := in.AdtInfo(template)
	if !ok {
		return in.builtins.Error
	}
	if len(base.Params) == 0 {
		return base.template
	}
	key := argsKey("a", uint32(base.template), args)
	if id, ok := in.instances[key]; ok {
		return id
	}
	info := *base
	info.Args = cloneTypeArgs(args)
	in.adts = append(in.adts, info)
	id := in.internRaw(Type{Kind: KindAdt, Payload: slotOf(len(in.adts)-1, "adt info")})
	in.instances[key] = id
	return id
}

// FieldType returns the type of field i of v inside the ADT instance id.
func (in *Interner) FieldType(id TypeID, v *VariantDef, i int) TypeID {
	info, ok := in.AdtInfo(id)
	if !ok || i < 0 || i >= len(v.Fields) {
		return in.builtins.Error
	}
	ft := v.Fields[i].Type
	if len(info.Args) == 0 {
		return ft
	}
	return in.Substitute(ft, info.Params, info.Args)
}
