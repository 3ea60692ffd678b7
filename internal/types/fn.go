package types

import "oxbow/internal/ids"

// FnInfo stores metadata for function item types. Subst lists the formal
// params visible in the signature: those of the enclosing impl or trait
// first, then the function's own starting at OwnStart. A template has nil
// Args; an instance binds one argument per Subst entry and carries the
// substituted Params and Result.
type FnInfo struct {
	Item     ids.IrID
	Name     string
	Params   []TypeID
	Result   TypeID
	Subst    []TypeID
	OwnStart int
	Args     []TypeID
	template TypeID
}

// OwnParams returns the function's own generic params.
func (f *FnInfo) OwnParams() []TypeID {
	if f.OwnStart >= len(f.Subst) {
		return nil
	}
	return f.Subst[f.OwnStart:]
}

// Template returns the generic template the instance was made from.
func (f *FnInfo) Template() TypeID { return f.template }

// IsGeneric reports whether the signature has formal params left unbound.
func (f *FnInfo) IsGeneric() bool { return len(f.Subst) > 0 && f.Args == nil }

// RegisterFn allocates the type of one function item.
func (in *Interner) RegisterFn(item ids.IrID, name string, params []TypeID, result TypeID, subst []TypeID, ownStart int) TypeID {
	in.fns = append(in.fns, FnInfo{
		Item:     item,
		Name:     name,
		Params:   cloneTypeArgs(params),
		Result:   result,
		Subst:    cloneTypeArgs(subst),
		OwnStart: ownStart,
	})
	slot := slotOf(len(in.fns)-1, "fn info")
	id := in.internRaw(Type{Kind: KindFn, Payload: slot})
	in.fns[slot].template = id
	return id
}

// FnInfo retrieves function type metadata by TypeID.
func (in *Interner) FnInfo(id TypeID) (*FnInfo, bool) {
	tt, ok := in.Lookup(in.Resolve(id))
	if !ok || tt.Kind != KindFn {
		return nil, false
	}
	if int(tt.Payload) >= len(in.fns) {
		return nil, false
	}
	return &in.fns[tt.Payload], true
}

// InstantiateFn binds every formal param of template to args.
func (in *Interner) InstantiateFn(template TypeID, args []TypeID) TypeID {
	base, ok := in.FnInfo(template)
	if !ok {
		return in.builtins.Error
	}
	base, _ = in.FnInfo(base.template)
	if len(base.Subst) == 0 {
		return base.template
	}
	key := argsKey("f", uint32(base.template), args)
	if id, ok := in.instances[key]; ok {
		return id
	}
	info := FnInfo{
		Item:     base.Item,
		Name:     base.Name,
		Subst:    base.Subst,
		OwnStart: base.OwnStart,
		Args:     cloneTypeArgs(args),
		template: base.template,
	}
	info.Params = make([]TypeID, len(base.Params))
	for i, p := range base.Params {
		info.Params[i] = in.Substitute(p, base.Subst, args)
	}
	info.Result = in.Substitute(base.Result, base.Subst, args)
	in.fns = append(in.fns, info)
	id := in.internRaw(Type{Kind: KindFn, Payload: slotOf(len(in.fns)-1, "fn info")})
	in.instances[key] = id
	return id
}
