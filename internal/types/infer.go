package types

type inferVar struct {
	kind  InferKind
	bound TypeID
}

// NewVar creates a fresh inference variable.
func (in *Interner) NewVar(kind InferKind) TypeID {
	in.vars = append(in.vars, inferVar{kind: kind})
	return in.internRaw(Type{Kind: KindInfer, Infer: kind, Payload: slotOf(len(in.vars)-1, "infer var")})
}

func (in *Interner) varOf(id TypeID) (*inferVar, bool) {
	tt, ok := in.Lookup(id)
	if !ok || tt.Kind != KindInfer || int(tt.Payload) >= len(in.vars) {
		return nil, false
	}
	return &in.vars[tt.Payload], true
}

// Resolve follows inference bindings until it reaches a non-variable or an
// unbound variable.
func (in *Interner) Resolve(id TypeID) TypeID {
	for {
		v, ok := in.varOf(id)
		if !ok || v.bound == NoTypeID {
			return id
		}
		id = v.bound
	}
}

// IsUnboundVar reports whether id is an inference variable with no binding.
func (in *Interner) IsUnboundVar(id TypeID) bool {
	_, ok := in.varOf(in.Resolve(id))
	return ok
}

// Deep resolves id and every type nested in it. Generic instances whose
// arguments change are re-instantiated.
func (in *Interner) Deep(id TypeID) TypeID {
	id = in.Resolve(id)
	tt, ok := in.Lookup(id)
	if !ok {
		return id
	}
	switch tt.Kind {
	case KindRef:
		return in.Intern(MakeReference(in.Deep(tt.Elem), tt.Mutable))
	case KindArray:
		return in.Intern(MakeArray(in.Deep(tt.Elem), tt.Count))
	case KindTuple:
		info, _ := in.TupleInfo(id)
		return in.RegisterTuple(in.deepAll(info.Elems))
	case KindAdt:
		info, _ := in.AdtInfo(id)
		if info.Args == nil {
			return id
		}
		return in.InstantiateAdt(info.template, in.deepAll(info.Args))
	case KindFn:
		info, _ := in.FnInfo(id)
		if info.Args == nil {
			return id
		}
		return in.InstantiateFn(info.template, in.deepAll(info.Args))
	}
	return id
}

func (in *Interner) deepAll(list []TypeID) []TypeID {
	out := make([]TypeID, len(list))
	for i, t := range list {
		out[i] = in.Deep(t)
	}
	return out
}

// accepts reports whether a variable of kind k may be bound to t.
func (in *Interner) accepts(k InferKind, t Type) bool {
	switch k {
	case InferInt:
		return t.IsIntegral()
	case InferFloat:
		return t.Kind == KindFloat
	}
	return true
}

func (in *Interner) bind(id TypeID, v *inferVar, to TypeID) TypeID {
	if in.occurs(id, to) {
		return NoTypeID
	}
	v.bound = to
	in.trail = append(in.trail, id)
	return to
}

// Snapshot marks the current set of inference bindings.
func (in *Interner) Snapshot() int {
	return len(in.trail)
}

// Rollback undoes every binding made since the snapshot was taken.
func (in *Interner) Rollback(snap int) {
	for i := len(in.trail) - 1; i >= snap; i-- {
		if v, ok := in.varOf(in.trail[i]); ok {
			v.bound = NoTypeID
		}
	}
	in.trail = in.trail[:snap]
}

// CanUnify reports whether a and b would unify, leaving every binding as
// it was.
func (in *Interner) CanUnify(a, b TypeID) bool {
	snap := in.Snapshot()
	_, ok := in.Unify(a, b)
	in.Rollback(snap)
	return ok
}

// occurs reports whether the variable id appears inside t.
func (in *Interner) occurs(id, t TypeID) bool {
	t = in.Resolve(t)
	if t == id {
		return true
	}
	tt, ok := in.Lookup(t)
	if !ok {
		return false
	}
	switch tt.Kind {
	case KindRef, KindArray:
		return in.occurs(id, tt.Elem)
	case KindTuple:
		info, _ := in.TupleInfo(t)
		for _, e := range info.Elems {
			if in.occurs(id, e) {
				return true
			}
		}
	case KindAdt:
		info, _ := in.AdtInfo(t)
		for _, a := range info.Args {
			if in.occurs(id, a) {
				return true
			}
		}
	}
	return false
}

// Unify makes a and b equal by binding inference variables. It returns the
// unified type and whether unification succeeded. The error type unifies
// with everything so that one failure does not cascade.
func (in *Interner) Unify(a, b TypeID) (TypeID, bool) {
	a, b = in.Resolve(a), in.Resolve(b)
	if a == b {
		return a, true
	}
	ta, okA := in.Lookup(a)
	tb, okB := in.Lookup(b)
	if !okA || !okB {
		return in.builtins.Error, false
	}
	if ta.Kind == KindError {
		return b, true
	}
	if tb.Kind == KindError {
		return a, true
	}

	va, aVar := in.varOf(a)
	vb, bVar := in.varOf(b)
	switch {
	case aVar && bVar:
		switch {
		case va.kind == vb.kind || vb.kind == InferGeneral:
			return b, in.bind(b, vb, a) != NoTypeID
		case va.kind == InferGeneral:
			return a, in.bind(a, va, b) != NoTypeID
		}
		return in.builtins.Error, false
	case aVar:
		if !in.accepts(va.kind, tb) {
			return in.builtins.Error, false
		}
		return b, in.bind(a, va, b) != NoTypeID
	case bVar:
		if !in.accepts(vb.kind, ta) {
			return in.builtins.Error, false
		}
		return a, in.bind(b, vb, a) != NoTypeID
	}

	// `!` coerces to anything
	if ta.Kind == KindNever {
		return b, true
	}
	if tb.Kind == KindNever {
		return a, true
	}
	if ta.Kind != tb.Kind {
		return in.builtins.Error, false
	}

	switch ta.Kind {
	case KindRef:
		if ta.Mutable != tb.Mutable {
			return in.builtins.Error, false
		}
		elem, ok := in.Unify(ta.Elem, tb.Elem)
		return in.Intern(MakeReference(elem, ta.Mutable)), ok
	case KindArray:
		if ta.Count != tb.Count {
			return in.builtins.Error, false
		}
		elem, ok := in.Unify(ta.Elem, tb.Elem)
		return in.Intern(MakeArray(elem, ta.Count)), ok
	case KindTuple:
		ia, _ := in.TupleInfo(a)
		ib, _ := in.TupleInfo(b)
		elems, ok := in.unifyAll(ia.Elems, ib.Elems)
		if !ok {
			return in.builtins.Error, false
		}
		return in.RegisterTuple(elems), true
	case KindAdt:
		ia, _ := in.AdtInfo(a)
		ib, _ := in.AdtInfo(b)
		if ia.template != ib.template {
			return in.builtins.Error, false
		}
		args, ok := in.unifyAll(in.argsOrParams(ia.Args, ia.Params), in.argsOrParams(ib.Args, ib.Params))
		if !ok {
			return in.builtins.Error, false
		}
		return in.InstantiateAdt(ia.template, args), true
	case KindFn:
		ia, _ := in.FnInfo(a)
		ib, _ := in.FnInfo(b)
		if ia.template != ib.template {
			return in.builtins.Error, false
		}
		args, ok := in.unifyAll(in.argsOrParams(ia.Args, ia.Subst), in.argsOrParams(ib.Args, ib.Subst))
		if !ok {
			return in.builtins.Error, false
		}
		return in.InstantiateFn(ia.template, args), true
	}
	// primitives and params are interned once, so distinct ids differ
	return in.builtins.Error, false
}

func (in *Interner) argsOrParams(args, params []TypeID) []TypeID {
	if args != nil {
		return args
	}
	return params
}

func (in *Interner) unifyAll(a, b []TypeID) ([]TypeID, bool) {
	if len(a) != len(b) {
		return nil, false
	}
	out := make([]TypeID, len(a))
	for i := range a {
		t, ok := in.Unify(a[i], b[i])
		if !ok {
			return nil, false
		}
		out[i] = t
	}
	return out, true
}

// ApplyDefaults binds every unbound integral variable to i32 and every
// float variable to f64. General variables stay unbound.
func (in *Interner) ApplyDefaults() {
	for i := 1; i < len(in.vars); i++ {
		v := &in.vars[i]
		if v.bound != NoTypeID {
			continue
		}
		switch v.kind {
		case InferInt:
			v.bound = in.builtins.I32
		case InferFloat:
			v.bound = in.builtins.F64
		}
	}
}
