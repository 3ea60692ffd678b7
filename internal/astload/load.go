// Package astload reads crate descriptions written in YAML and builds the
// syntax tree the resolver consumes. It stands in for a parser: items,
// statements and expressions are YAML nodes, while paths, types, bindings
// and generic parameters are short strings parsed by a small
// recursive-descent reader.
//
// A description looks like
//
//	crate: app
//	items:
//	  - fn: main
//	    body:
//	      - let: x
//	        init: 1
//	      - call: util::show
//	        args: [x]
package astload

import (
	"errors"
	"fmt"
	"slices"

	"fortio.org/safecast"
	"gopkg.in/yaml.v3"

	"oxbow/internal/ast"
	"oxbow/internal/ids"
	"oxbow/internal/mappings"
	"oxbow/internal/source"
)

// Error locates a malformed part of a description.
type Error struct {
	Path string
	Line int
	Col  int
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Col, e.Msg)
}

// Description is the decoded header of a crate file.
type Description struct {
	Crate string    `yaml:"crate"`
	Items yaml.Node `yaml:"items"`
}

// Registry allocates crates and node ids; *mappings.Mappings satisfies it.
type Registry interface {
	ast.NodeAllocator
	NewCrate(name string) ids.CrateNum
}

var _ Registry = (*mappings.Mappings)(nil)

// LoadFile reads path into fs and builds its crate.
func LoadFile(fs *source.FileSet, reg Registry, strings *source.Interner, path string) (*ast.Crate, error) {
	id, err := fs.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load crate description: %w", err)
	}
	return Decode(fs.Get(id), reg, strings)
}

// LoadString builds a crate from an in-memory description, registering it
// as a virtual file.
func LoadString(fs *source.FileSet, reg Registry, strings *source.Interner, name, text string) (*ast.Crate, error) {
	id := fs.AddVirtual(name, []byte(text))
	return Decode(fs.Get(id), reg, strings)
}

// Decode builds the crate described by f. All malformed parts are
// reported together in the returned error.
func Decode(f *source.File, reg Registry, strings *source.Interner) (*ast.Crate, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(f.Content, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	var desc Description
	if err := doc.Decode(&desc); err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}
	if desc.Crate == "" {
		return nil, &Error{Path: f.Path, Line: 1, Col: 1, Msg: "missing `crate` name"}
	}
	num := reg.NewCrate(desc.Crate)
	l := &loader{
		b:    ast.NewBuilder(num, reg, strings, ast.Hints{}),
		file: f,
	}
	items := l.items(&desc.Items)
	root := l.b.Module(l.span(&doc), desc.Crate, ast.VisPublic, items...)
	c := l.b.Finish(desc.Crate, f.ID, root)
	if err := errors.Join(l.errs...); err != nil {
		return c, err
	}
	return c, nil
}

type loader struct {
	b    *ast.Builder
	file *source.File
	errs []error
}

func (l *loader) errorf(n *yaml.Node, format string, args ...any) {
	e := &Error{Path: l.file.Path, Msg: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Line, e.Col = n.Line, n.Column
	}
	l.errs = append(l.errs, e)
}

func (l *loader) span(n *yaml.Node) source.Span {
	if n == nil || n.Line <= 0 {
		return source.Span{File: l.file.ID}
	}
	line, err1 := safecast.Conv[uint32](n.Line)
	col, err2 := safecast.Conv[uint32](n.Column)
	if err1 != nil || err2 != nil {
		return source.Span{File: l.file.ID}
	}
	start := l.file.Offset(line, col)
	end := start
	if n.Kind == yaml.ScalarNode {
		if w, err := safecast.Conv[uint32](len(n.Value)); err == nil {
			end += w
		}
	}
	return source.Span{File: l.file.ID, Start: start, End: end}
}

// syntax starts a string parser over a scalar node.
func (l *loader) syntax(n *yaml.Node) (*syntax, bool) {
	if n.Kind != yaml.ScalarNode {
		l.errorf(n, "expected a string")
		return nil, false
	}
	p, err := newSyntax(l.b, n.Value, l.span(n))
	if err != nil {
		l.errorf(n, "%v", err)
		return nil, false
	}
	return p, true
}

func (l *loader) finish(n *yaml.Node, p *syntax, err error) bool {
	if err == nil {
		err = p.done()
	}
	if err != nil {
		l.errorf(n, "%v", err)
		return false
	}
	return true
}

// mapping is a YAML mapping with its keys in source order.
type mapping struct {
	node *yaml.Node
	keys []string
	vals map[string]*yaml.Node
	// keyNodes point at the key scalars for diagnostics
	keyNodes map[string]*yaml.Node
}

func (l *loader) mapping(n *yaml.Node) (mapping, bool) {
	if n.Kind != yaml.MappingNode {
		return mapping{}, false
	}
	m := mapping{node: n, vals: make(map[string]*yaml.Node), keyNodes: make(map[string]*yaml.Node)}
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i].Value
		if _, dup := m.vals[k]; dup {
			l.errorf(n.Content[i], "duplicate key `%s`", k)
			continue
		}
		m.keys = append(m.keys, k)
		m.vals[k] = n.Content[i+1]
		m.keyNodes[k] = n.Content[i]
	}
	return m, true
}

func (m mapping) kind() string {
	if len(m.keys) == 0 {
		return ""
	}
	return m.keys[0]
}

func (m mapping) head() *yaml.Node { return m.vals[m.kind()] }

func (m mapping) get(k string) *yaml.Node {
	n := m.vals[k]
	if n != nil && n.Kind == yaml.ScalarNode && n.Tag == "!!null" {
		return nil
	}
	return n
}

// allow reports keys other than the kind key that are not in allowed.
func (l *loader) allow(m mapping, allowed ...string) {
	if len(m.keys) == 0 {
		return
	}
	for _, k := range m.keys[1:] {
		if !slices.Contains(allowed, k) {
			l.errorf(m.keyNodes[k], "unknown key `%s` for `%s`", k, m.kind())
		}
	}
}

func (l *loader) seq(n *yaml.Node) []*yaml.Node {
	if n == nil || n.Kind == 0 || n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.SequenceNode {
		l.errorf(n, "expected a list")
		return nil
	}
	return n.Content
}

func (l *loader) str(n *yaml.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind != yaml.ScalarNode {
		l.errorf(n, "expected a string")
		return ""
	}
	return n.Value
}

func (l *loader) flag(n *yaml.Node) bool {
	if n == nil {
		return false
	}
	var v bool
	if err := n.Decode(&v); err != nil {
		l.errorf(n, "expected true or false")
	}
	return v
}
