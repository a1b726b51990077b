// Package ast defines the statement tree and expression-unit streams the
// parser builds, and the compile-time declarator shapes variable and
// reference statements use for structured bindings.
package ast

import "github.com/cwbudde/go-asteria/internal/source"

// Expression is a post-order (RPN) stream of Expression_Units; it carries
// no intrinsic precedence of its own; precedence was already resolved by
// the parser's climb into this linear order.
type Expression []ExprUnit

// ExprUnit is the tagged union of expression-stream nodes (spec.md §3).
// Each concrete type below implements it; callers switch on concrete type.
type ExprUnit interface {
	Location() source.Location
}

// PatternKind distinguishes the three declarator shapes a `var`/`ref`
// statement may bind: a single name, or a structured array/object
// binding. The reference implementation represents array/object bindings
// with sentinel delimiter strings ("[", "]" / "{", "}") bracketing a name
// list; this port uses a dedicated enum per the core's own design note
// inviting that substitution.
type PatternKind int

const (
	PatternSingle PatternKind = iota
	PatternArray
	PatternObject
)

// Declarator is one binding target of a variables/references statement:
// either a single name (PatternSingle) or a structured binding
// destructuring an array/object initializer positionally (PatternArray)
// or by key (PatternObject). Structured bindings require >=1 element and
// disallow duplicate names.
type Declarator struct {
	Kind  PatternKind
	Name  string   // PatternSingle
	Names []string // PatternArray / PatternObject
	Loc   source.Location
}
