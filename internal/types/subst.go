package types

// Substitute replaces every occurrence of from[i] inside t with to[i].
// Templates are never modified; compound types are rebuilt and interned.
func (in *Interner) Substitute(t TypeID, from, to []TypeID) TypeID {
	if len(from) == 0 || len(from) != len(to) {
		return t
	}
	t = in.Resolve(t)
	tt, ok := in.Lookup(t)
	if !ok {
		return t
	}
	switch tt.Kind {
	case KindParam:
		for i, p := range from {
			if p == t {
				return to[i]
			}
		}
		return t
	case KindRef:
		return in.Intern(MakeReference(in.Substitute(tt.Elem, from, to), tt.Mutable))
	case KindArray:
		return in.Intern(MakeArray(in.Substitute(tt.Elem, from, to), tt.Count))
	case KindTuple:
		info, _ := in.TupleInfo(t)
		return in.RegisterTuple(in.substAll(info.Elems, from, to))
	case KindAdt:
		info, _ := in.AdtInfo(t)
		if len(info.Params) == 0 {
			return t
		}
		return in.InstantiateAdt(info.template, in.substAll(in.argsOrParams(info.Args, info.Params), from, to))
	case KindFn:
		info, _ := in.FnInfo(t)
		if len(info.Subst) == 0 {
			return t
		}
		return in.InstantiateFn(info.template, in.substAll(in.argsOrParams(info.Args, info.Subst), from, to))
	}
	return t
}

func (in *Interner) substAll(list, from, to []TypeID) []TypeID {
	out := make([]TypeID, len(list))
	for i, t := range list {
		out[i] = in.Substitute(t, from, to)
	}
	return out
}

// HasParams reports whether a formal generic param occurs in t.
func (in *Interner) HasParams(t TypeID) bool {
	t = in.Resolve(t)
	tt, ok := in.Lookup(t)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindParam:
		return true
	case KindRef, KindArray:
		return in.HasParams(tt.Elem)
	case KindTuple:
		info, _ := in.TupleInfo(t)
		return in.anyParams(info.Elems)
	case KindAdt:
		info, _ := in.AdtInfo(t)
		return in.anyParams(in.argsOrParams(info.Args, info.Params))
	case KindFn:
		info, _ := in.FnInfo(t)
		return in.anyParams(in.argsOrParams(info.Args, info.Subst))
	}
	return false
}

func (in *Interner) anyParams(list []TypeID) bool {
	for _, t := range list {
		if in.HasParams(t) {
			return true
		}
	}
	return false
}

// FreshArgs returns one new general inference variable per param.
func (in *Interner) FreshArgs(params []TypeID) []TypeID {
	out := make([]TypeID, len(params))
	for i := range params {
		out[i] = in.NewVar(InferGeneral)
	}
	return out
}

// HasInferVars reports whether an unbound inference variable occurs in t.
func (in *Interner) HasInferVars(t TypeID) bool {
	t = in.Resolve(t)
	tt, ok := in.Lookup(t)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindInfer:
		return true
	case KindRef, KindArray:
		return in.HasInferVars(tt.Elem)
	case KindTuple:
		info, _ := in.TupleInfo(t)
		return in.anyInfer(info.Elems)
	case KindAdt:
		info, _ := in.AdtInfo(t)
		return in.anyInfer(info.Args)
	case KindFn:
		info, _ := in.FnInfo(t)
		return in.anyInfer(info.Args)
	}
	return false
}

func (in *Interner) anyInfer(list []TypeID) bool {
	for _, t := range list {
		if in.HasInferVars(t) {
			return true
		}
	}
	return false
}
