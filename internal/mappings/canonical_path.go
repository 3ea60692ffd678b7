package mappings

import (
	"strings"

	"oxbow/internal/ids"
)

// Segment is one element of a canonical path.
type Segment struct {
	Node ids.NodeID
	Name string
}

// CanonicalPath is the fully qualified, crate-relative name of a declaration,
// e.g. app::shapes::Circle::area. Equality compares names only.
type CanonicalPath struct {
	segs []Segment
}

// NewSegment creates a single-segment path.
func NewSegment(node ids.NodeID, name string) CanonicalPath {
	return CanonicalPath{segs: []Segment{{Node: node, Name: name}}}
}

// Append returns a new path with other's segments after p's.
func (p CanonicalPath) Append(other CanonicalPath) CanonicalPath {
	segs := make([]Segment, 0, len(p.segs)+len(other.segs))
	segs = append(segs, p.segs...)
	segs = append(segs, other.segs...)
	return CanonicalPath{segs: segs}
}

func (p CanonicalPath) Size() int     { return len(p.segs) }
func (p CanonicalPath) IsEmpty() bool { return len(p.segs) == 0 }

// Prefix returns the first n segments.
func (p CanonicalPath) Prefix(n int) CanonicalPath {
	if n >= len(p.segs) {
		return p
	}
	return CanonicalPath{segs: p.segs[:n:n]}
}

// Last returns the final segment.
func (p CanonicalPath) Last() (Segment, bool) {
	if len(p.segs) == 0 {
		return Segment{}, false
	}
	return p.segs[len(p.segs)-1], true
}

// Node returns the node of the final segment.
func (p CanonicalPath) Node() ids.NodeID {
	last, ok := p.Last()
	if !ok {
		return ids.UnknownNodeID
	}
	return last.Node
}

func (p CanonicalPath) Segments() []Segment {
	return p.segs
}

func (p CanonicalPath) Equal(other CanonicalPath) bool {
	if len(p.segs) != len(other.segs) {
		return false
	}
	for i := range p.segs {
		if p.segs[i].Name != other.segs[i].Name {
			return false
		}
	}
	return true
}

func (p CanonicalPath) String() string {
	var sb strings.Builder
	for i, s := range p.segs {
		if i > 0 {
			sb.WriteString("::")
		}
		sb.WriteString(s.Name)
	}
	return sb.String()
}
