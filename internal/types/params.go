package types

import "oxbow/internal/ids"

// ParamInfo stores metadata about a generic type parameter. Bounds lists
// the IrIDs of the traits the parameter is bounded by.
type ParamInfo struct {
	Name   string
	Item   ids.IrID
	Index  int
	Bounds []ids.IrID
}

// RegisterParam returns the param type declared by the generic param item.
// Registering the same item twice yields the same TypeID.
func (in *Interner) RegisterParam(item ids.IrID, name string, index int) TypeID {
	if id, ok := in.paramIdx[uint32(item)]; ok {
		return id
	}
	in.params = append(in.params, ParamInfo{Name: name, Item: item, Index: index})
	id := in.internRaw(Type{Kind: KindParam, Payload: slotOf(len(in.params)-1, "type param")})
	in.paramIdx[uint32(item)] = id
	return id
}

// ParamInfo returns metadata for the provided generic parameter.
func (in *Interner) ParamInfo(id TypeID) (*ParamInfo, bool) {
	tt, ok := in.Lookup(in.Resolve(id))
	if !ok || tt.Kind != KindParam {
		return nil, false
	}
	if tt.Payload == 0 || int(tt.Payload) >= len(in.params) {
		return nil, false
	}
	return &in.params[tt.Payload], true
}

// AddParamBound records that the param must implement trait.
func (in *Interner) AddParamBound(id TypeID, trait ids.IrID) {
	info, ok := in.ParamInfo(id)
	if !ok {
		return
	}
	for _, b := range info.Bounds {
		if b == trait {
			return
		}
	}
	info.Bounds = append(info.Bounds, trait)
}
