package ast

import (
	"oxbow/internal/ids"
	"oxbow/internal/source"
)

// SegmentKind distinguishes ordinary identifiers from path keywords.
type SegmentKind uint8

const (
	SegIdent SegmentKind = iota
	SegCrate             // crate
	SegSelfMod           // self
	SegSuper             // super
	SegSelfType          // Self
)

func (k SegmentKind) String() string {
	switch k {
	case SegCrate:
		return "crate"
	case SegSelfMod:
		return "self"
	case SegSuper:
		return "super"
	case SegSelfType:
		return "Self"
	default:
		return "ident"
	}
}

// PathSegment is one `name::<Args>` element. Segments carry their own NodeID
// so that resolution results can be recorded per segment.
type PathSegment struct {
	Node     ids.NodeID
	Kind     SegmentKind
	Name     source.StringID
	Generics []TypeID
	Span     source.Span
}

// HasGenerics reports whether the segment carries a turbofish.
func (s *PathSegment) HasGenerics() bool {
	return len(s.Generics) > 0
}

type Path struct {
	Segments []PathSegment
	Span     source.Span
}

func (p *Path) Len() int { return len(p.Segments) }

// Last returns the final segment or nil for an empty path.
func (p *Path) Last() *PathSegment {
	if len(p.Segments) == 0 {
		return nil
	}
	return &p.Segments[len(p.Segments)-1]
}

// QualifiedPath is `<Self as Trait>::segments`. Trait is nil for `<T>::seg`.
type QualifiedPath struct {
	Self     TypeID
	Trait    *Path
	Segments []PathSegment
	Span     source.Span
}
