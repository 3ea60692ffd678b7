package hir

import (
	"fmt"
	"io"
	"strings"

	"oxbow/internal/ids"
)

// TypeNamer renders the type recorded for an item; nil prints no types.
type TypeNamer func(it *Item) string

// Printer dumps the declaration tree.
type Printer struct {
	w      io.Writer
	crate  *Crate
	types  TypeNamer
	indent int
	err    error
}

func NewPrinter(w io.Writer, c *Crate, types TypeNamer) *Printer {
	return &Printer{w: w, crate: c, types: types}
}

// Dump writes the crate starting at its root module.
func Dump(w io.Writer, c *Crate, types TypeNamer) error {
	p := NewPrinter(w, c, types)
	p.printf("crate %s %s\n", c.Name(), c.Mapping)
	if root, ok := c.Item(c.Root); ok {
		p.indent++
		p.printChildren(root)
		p.indent--
	}
	return p.err
}

func (p *Printer) printChildren(it *Item) {
	var children []ids.IrID
	switch it.Kind {
	case ItemModule:
		children = it.Module.Items
	case ItemEnum:
		children = it.Enum.Variants
	case ItemTrait:
		children = it.Trait.Items
	case ItemImpl:
		children = it.Impl.Items
	}
	for _, id := range children {
		child, ok := p.crate.Item(id)
		if !ok {
			continue
		}
		p.printItem(child)
	}
}

func (p *Printer) printItem(it *Item) {
	name := p.crate.AST.NameOf(it.Name)
	if it.Kind == ItemImpl {
		name = p.implHeader(it)
	}
	p.printf("%s%s %s %s", strings.Repeat("  ", p.indent), it.Kind, name, it.Mapping)
	if it.Kind == ItemVariant {
		p.printf(" #%d", it.Variant.Index)
	}
	if p.types != nil {
		if ty := p.types(it); ty != "" {
			p.printf(" : %s", ty)
		}
	}
	p.printf("\n")
	p.indent++
	p.printChildren(it)
	p.indent--
}

func (p *Printer) implHeader(it *Item) string {
	if it.Impl.Trait == nil {
		return "<inherent>"
	}
	return "<" + p.crate.AST.PathString(it.Impl.Trait) + ">"
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}
