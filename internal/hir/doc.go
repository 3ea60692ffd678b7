// Package hir is the declaration-level typed IR.
//
// Every lowered declaration carries an ids.NodeMapping tying its syntax node,
// its IrID and (for definitions) its LocalDefID together. Bodies are not
// copied: functions, consts and statics point back at their AST expressions,
// whose nodes are assigned IrIDs during lowering so that per-expression types
// can be keyed by IrID.
package hir
