package hir

import (
	"oxbow/internal/ast"
	"oxbow/internal/ids"
)

// Crate groups the lowered declarations of one compilation unit. Items keeps
// lowering order so that every walk over the crate is deterministic.
type Crate struct {
	Mapping ids.NodeMapping
	Root    ids.IrID
	AST     *ast.Crate
	Items   []*Item
	byIr    map[ids.IrID]*Item
}

func NewCrate(mapping ids.NodeMapping, c *ast.Crate) *Crate {
	return &Crate{
		Mapping: mapping,
		AST:     c,
		byIr:    make(map[ids.IrID]*Item),
	}
}

func (c *Crate) Add(it *Item) {
	c.Items = append(c.Items, it)
	c.byIr[it.Ir()] = it
}

func (c *Crate) Item(id ids.IrID) (*Item, bool) {
	it, ok := c.byIr[id]
	return it, ok
}

// Each visits items in lowering order until fn returns false.
func (c *Crate) Each(fn func(*Item) bool) {
	for _, it := range c.Items {
		if !fn(it) {
			return
		}
	}
}

// Name returns the crate name.
func (c *Crate) Name() string {
	return c.AST.NameOf(c.AST.Name)
}
