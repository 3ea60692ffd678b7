package resolve

import (
	"github.com/hashicorp/go-set/v3"

	"oxbow/internal/ids"
	"oxbow/internal/mappings"
	"oxbow/internal/source"
)

// DuplicateFunc is called by InsertName when a non-shadowing insert collides
// with an existing binding. It receives the previous binding and its location.
type DuplicateFunc func(prev ids.NodeID, prevSpan source.Span)

// Rib is the symbol table of one lexical scope.
type Rib struct {
	crate ids.CrateNum
	node  ids.NodeID

	paths     map[string]ids.NodeID
	reverse   map[ids.NodeID]mappings.CanonicalPath
	decls     map[ids.NodeID]source.Span
	declOrder []ids.NodeID
	refs      map[ids.NodeID]*set.Set[ids.NodeID]
}

func NewRib(crate ids.CrateNum, node ids.NodeID) *Rib {
	return &Rib{
		crate:   crate,
		node:    node,
		paths:   make(map[string]ids.NodeID),
		reverse: make(map[ids.NodeID]mappings.CanonicalPath),
		decls:   make(map[ids.NodeID]source.Span),
		refs:    make(map[ids.NodeID]*set.Set[ids.NodeID]),
	}
}

func (r *Rib) Crate() ids.CrateNum { return r.crate }
func (r *Rib) Node() ids.NodeID    { return r.node }

// InsertName binds path to id. With shadow set an existing binding of the
// same path is replaced; otherwise onDuplicate is invoked and the rib is left
// unchanged.
func (r *Rib) InsertName(path mappings.CanonicalPath, id ids.NodeID, span source.Span, shadow bool, onDuplicate DuplicateFunc) {
	key := path.String()
	if prev, exists := r.paths[key]; exists && !shadow {
		if onDuplicate != nil {
			prevSpan, ok := r.decls[prev]
			if !ok {
				prevSpan = span
			}
			onDuplicate(prev, prevSpan)
		}
		return
	}
	r.paths[key] = id
	r.reverse[id] = path
	if _, seen := r.decls[id]; !seen {
		r.declOrder = append(r.declOrder, id)
	}
	r.decls[id] = span
	if _, ok := r.refs[id]; !ok {
		r.refs[id] = set.New[ids.NodeID](0)
	}
}

func (r *Rib) LookupName(path mappings.CanonicalPath) (ids.NodeID, bool) {
	id, ok := r.paths[path.String()]
	return id, ok
}

func (r *Rib) LookupCanonicalPath(id ids.NodeID) (mappings.CanonicalPath, bool) {
	p, ok := r.reverse[id]
	return p, ok
}

// ClearName removes the binding of path to id.
func (r *Rib) ClearName(path mappings.CanonicalPath, id ids.NodeID) {
	key := path.String()
	if cur, ok := r.paths[key]; ok && cur == id {
		delete(r.paths, key)
	}
	delete(r.reverse, id)
	delete(r.decls, id)
	delete(r.refs, id)
	for i, d := range r.declOrder {
		if d == id {
			r.declOrder = append(r.declOrder[:i], r.declOrder[i+1:]...)
			break
		}
	}
}

// AppendReferenceForDef records that ref uses def. It fails when def was not
// declared in this rib.
func (r *Rib) AppendReferenceForDef(def, ref ids.NodeID) bool {
	refs, ok := r.refs[def]
	if !ok {
		return false
	}
	refs.Insert(ref)
	return true
}

func (r *Rib) HaveReferencesForNode(def ids.NodeID) bool {
	refs, ok := r.refs[def]
	return ok && !refs.Empty()
}

// References returns the number of recorded uses of def.
func (r *Rib) References(def ids.NodeID) int {
	refs, ok := r.refs[def]
	if !ok {
		return 0
	}
	return refs.Size()
}

func (r *Rib) DeclWasDeclaredHere(def ids.NodeID) bool {
	_, ok := r.decls[def]
	return ok
}

// DeclSpan returns the declaration location of def.
func (r *Rib) DeclSpan(def ids.NodeID) (source.Span, bool) {
	sp, ok := r.decls[def]
	return sp, ok
}

// Declarations lists declared nodes in insertion order.
func (r *Rib) Declarations() []ids.NodeID {
	out := make([]ids.NodeID, len(r.declOrder))
	copy(out, r.declOrder)
	return out
}
