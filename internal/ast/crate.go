package ast

import (
	"oxbow/internal/ids"
	"oxbow/internal/source"
)

// Crate is the syntax tree of one compilation unit. The root is a module
// item whose name is the crate name.
type Crate struct {
	Num     ids.CrateNum
	Name    source.StringID
	File    source.FileID
	Root    ItemID
	Strings *source.Interner

	Items *Items
	Exprs *Exprs
	Stmts *Stmts
	Pats  *Pats
	Types *Types
}

// NameOf returns the text of an interned identifier.
func (c *Crate) NameOf(id source.StringID) string {
	if c == nil || c.Strings == nil {
		return ""
	}
	s, _ := c.Strings.Lookup(id)
	return s
}

// PathString renders a path as written.
func (c *Crate) PathString(p *Path) string {
	out := ""
	for i := range p.Segments {
		if i > 0 {
			out += "::"
		}
		seg := &p.Segments[i]
		if seg.Kind != SegIdent {
			out += seg.Kind.String()
		} else {
			out += c.NameOf(seg.Name)
		}
	}
	return out
}
