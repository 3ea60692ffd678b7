package resolve

import (
	"oxbow/internal/ice"
	"oxbow/internal/ids"
	"oxbow/internal/mappings"
	"oxbow/internal/source"
)

// Scope is a stack of ribs for one namespace, innermost last.
type Scope struct {
	crate  ids.CrateNum
	name   string
	stack  []*Rib
	onPush func(*Rib)
}

func NewScope(crate ids.CrateNum, name string, onPush func(*Rib)) *Scope {
	return &Scope{crate: crate, name: name, onPush: onPush}
}

// Push creates a rib owned by id and makes it innermost.
func (s *Scope) Push(id ids.NodeID) *Rib {
	r := NewRib(s.crate, id)
	s.stack = append(s.stack, r)
	if s.onPush != nil {
		s.onPush(r)
	}
	return r
}

// PushRib re-enters an existing rib.
func (s *Scope) PushRib(r *Rib) {
	s.stack = append(s.stack, r)
}

func (s *Scope) Pop() *Rib {
	if len(s.stack) == 0 {
		ice.Raise("resolve", "pop of empty %s scope", s.name)
	}
	r := s.stack[len(s.stack)-1]
	s.stack = s.stack[:len(s.stack)-1]
	return r
}

// Peek returns the innermost rib.
func (s *Scope) Peek() *Rib {
	if len(s.stack) == 0 {
		ice.Raise("resolve", "peek of empty %s scope", s.name)
	}
	return s.stack[len(s.stack)-1]
}

func (s *Scope) Depth() int { return len(s.stack) }

// Reset replaces the whole stack and returns the previous one.
func (s *Scope) Reset(ribs ...*Rib) []*Rib {
	prev := s.stack
	s.stack = append([]*Rib(nil), ribs...)
	return prev
}

// Restore reinstates a stack returned by Reset.
func (s *Scope) Restore(stack []*Rib) {
	s.stack = stack
}

// Insert binds path in the innermost rib.
func (s *Scope) Insert(path mappings.CanonicalPath, id ids.NodeID, span source.Span, shadow bool, onDuplicate DuplicateFunc) {
	s.Peek().InsertName(path, id, span, shadow, onDuplicate)
}

// Lookup searches from the innermost rib outwards.
func (s *Scope) Lookup(path mappings.CanonicalPath) (ids.NodeID, bool) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if id, ok := s.stack[i].LookupName(path); ok {
			return id, true
		}
	}
	return ids.UnknownNodeID, false
}

// Iterate visits ribs innermost first until fn returns false.
func (s *Scope) Iterate(fn func(*Rib) bool) {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if !fn(s.stack[i]) {
			return
		}
	}
}

// AppendReferenceForDef records ref in the rib that declared def.
func (s *Scope) AppendReferenceForDef(ref, def ids.NodeID) bool {
	found := false
	s.Iterate(func(r *Rib) bool {
		if r.DeclWasDeclaredHere(def) {
			found = r.AppendReferenceForDef(def, ref)
			return false
		}
		return true
	})
	return found
}
