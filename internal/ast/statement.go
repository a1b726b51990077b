package ast

import "github.com/cwbudde/go-asteria/internal/source"

// Statement is the tagged union of statement-tree nodes (spec.md §3).
type Statement interface {
	StmtLocation() source.Location
}

// ExprStmt evaluates Expr and discards the result (the stack effect is
// cleared).
type ExprStmt struct {
	Loc  source.Location
	Expr Expression
}

func (n *ExprStmt) StmtLocation() source.Location { return n.Loc }

// Block is a nested statement list introducing its own scope, unless it
// is eligible for Matryoshka removal or scopeless inlining during
// lowering.
type Block struct {
	Loc   source.Location
	Stmts []Statement
}

func (n *Block) StmtLocation() source.Location { return n.Loc }

// VarDecl declares one or more names (`var`) or constants (`const`); each
// Declarator has its own optional initializer expression (nil for a
// plain `var x;`).
type VarDecl struct {
	Loc         source.Location
	Immutable   bool
	Decls       []Declarator
	Initializer []Expression // parallel to Decls; may hold nil entries
}

func (n *VarDecl) StmtLocation() source.Location { return n.Loc }

// RefDecl declares one or more reference bindings (`ref name = expr;`),
// aliasing an existing addressable Reference instead of copying a value.
type RefDecl struct {
	Loc         source.Location
	Decls       []Declarator
	Initializer []Expression
}

func (n *RefDecl) StmtLocation() source.Location { return n.Loc }

// FuncDecl declares a named function in the enclosing scope; equivalent
// to `var name = func(...) { ... };` but visible to its own body for
// direct recursion without relying on `__func`.
type FuncDecl struct {
	Loc      source.Location
	Name     string
	Params   []string
	Variadic bool
	Body     []Statement
}

func (n *FuncDecl) StmtLocation() source.Location { return n.Loc }

// If is a conditional with an optional else branch. Both branches are
// non-declarative bodies (single statements are implicitly wrapped as a
// Block by the parser).
type If struct {
	Loc  source.Location
	Cond Expression
	Then *Block
	Else *Block // nil if absent
}

func (n *If) StmtLocation() source.Location { return n.Loc }

// SwitchClauseKind discriminates a switch clause.
type SwitchClauseKind int

const (
	ClauseCase SwitchClauseKind = iota
	ClauseDefault
	ClauseEach
)

// SwitchClause is one `case`/`default`/`each` arm. Each carries its own
// body (statements executed on fall-through from this point). For
// ClauseEach, Lower/Upper are the interval endpoints and LowerClosed/
// UpperClosed record which of `(`/`[` and `)`/`]` bracketed them.
type SwitchClause struct {
	Kind        SwitchClauseKind
	Value       Expression // ClauseCase
	Lower       Expression // ClauseEach
	Upper       Expression // ClauseEach
	LowerClosed bool
	UpperClosed bool
	Body        []Statement
}

// Switch evaluates Control once and searches Clauses in order; at most
// one ClauseDefault is permitted (enforced by the parser).
type Switch struct {
	Loc     source.Location
	Control Expression
	Clauses []SwitchClause
}

func (n *Switch) StmtLocation() source.Location { return n.Loc }

// DoWhile runs Body at least once, then repeats while Cond holds.
type DoWhile struct {
	Loc  source.Location
	Body *Block
	Cond Expression
}

func (n *DoWhile) StmtLocation() source.Location { return n.Loc }

// While runs Body while Cond holds, checked before each iteration.
type While struct {
	Loc  source.Location
	Cond Expression
	Body *Block
}

func (n *While) StmtLocation() source.Location { return n.Loc }

// ForEach iterates an array (integer keys 0..n-1) or object (string keys
// in insertion order). Key is optional (empty string if the loop binds
// only the mapped value).
type ForEach struct {
	Loc   source.Location
	Key   string
	Value string
	Range Expression
	Body  *Block
}

func (n *ForEach) StmtLocation() source.Location { return n.Loc }

// For is the C-style three-clause loop; any of Init/Cond/Step may be nil.
type For struct {
	Loc  source.Location
	Init Statement // *VarDecl or *ExprStmt, or nil
	Cond Expression
	Step Expression
	Body *Block
}

func (n *For) StmtLocation() source.Location { return n.Loc }

// TryCatch runs Try; on a Runtime_Error it binds Name (and exposes
// `__backtrace`) and runs Catch.
type TryCatch struct {
	Loc   source.Location
	Try   *Block
	Name  string
	Catch *Block
}

func (n *TryCatch) StmtLocation() source.Location { return n.Loc }

// LoopKind names the scope a break/continue statement may target.
type LoopKind int

const (
	LoopAny LoopKind = iota
	LoopSwitch
	LoopWhile
	LoopFor
)

// BreakContinue is a `break`/`continue`, optionally naming the kind of
// enclosing scope it must lexically match (checked by the parser against
// a threaded scope-flag bitmask).
type BreakContinue struct {
	Loc     source.Location
	IsBreak bool
	Target  LoopKind
	HasTgt  bool
}

func (n *BreakContinue) StmtLocation() source.Location { return n.Loc }

// Throw raises Value as a Runtime_Error; throwing null is a compile/runtime
// error enforced by the stack machine.
type Throw struct {
	Loc   source.Location
	Value Expression
}

func (n *Throw) StmtLocation() source.Location { return n.Loc }

// Return yields Value (by reference if ByRef) from the enclosing
// function; an empty `return;` has a nil Value and yields void.
type Return struct {
	Loc   source.Location
	ByRef bool
	Value Expression // nil for bare `return;`
}

func (n *Return) StmtLocation() source.Location { return n.Loc }

// Assert evaluates Cond and raises a Runtime_Error carrying Message (or a
// generated message) if it is falsy.
type Assert struct {
	Loc     source.Location
	Cond    Expression
	Message Expression // optional
}

func (n *Assert) StmtLocation() source.Location { return n.Loc }

// Defer registers Expr to run (LIFO, under both normal and exceptional
// exit) when the enclosing scope exits.
type Defer struct {
	Loc  source.Location
	Expr Expression
}

func (n *Defer) StmtLocation() source.Location { return n.Loc }
