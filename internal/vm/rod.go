package vm

import (
	cerr "github.com/cwbudde/go-asteria/internal/errors"
	"github.com/cwbudde/go-asteria/internal/source"
)

// Record is one sealed rod entry: a node (the "function pointer" handler)
// plus the source location solidified alongside it for diagnostics.
type Record struct {
	Node Node
	Loc  source.Location
}

// Rod is an append-only buffer of records (spec.md §3's AVM Rod). It is
// built via Append and then sealed with Finalize; appending to a sealed
// rod is a programming error, matching the "never mutated thereafter"
// invariant.
type Rod struct {
	records []Record
	sealed  bool
}

// NewRodBuilder returns an empty, unsealed rod ready for Append.
func NewRodBuilder() *Rod { return &Rod{} }

// Append adds one record. Panics if the rod is already sealed.
func (r *Rod) Append(n Node, loc source.Location) {
	if r.sealed {
		panic("vm: append to a finalized rod")
	}
	r.records = append(r.records, Record{Node: n, Loc: loc})
}

// Len reports the number of records.
func (r *Rod) Len() int { return len(r.records) }

// Records exposes the sealed record slice for disassembly/dump tooling.
func (r *Rod) Records() []Record { return r.records }

// Finalize seals the rod; further Append calls panic. Returns r for
// chaining at the end of a solidification pass.
func (r *Rod) Finalize() *Rod {
	r.sealed = true
	return r
}

// Sealed reports whether Finalize has been called.
func (r *Rod) Sealed() bool { return r.sealed }

// Run is the stack-machine driver loop: it executes each record in order
// against ctx, stopping when the rod is exhausted or a non-Next status is
// produced (spec.md §4.8).
func Run(r *Rod, ctx *Context) (Status, *cerr.RuntimeError) {
	for _, rec := range r.records {
		status, err := rec.Node.Exec(ctx)
		if err != nil {
			return StatusNext, err
		}
		if status != StatusNext {
			return status, nil
		}
	}
	return StatusNext, nil
}
