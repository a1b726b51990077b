package vm

import cerr "github.com/cwbudde/go-asteria/internal/errors"

// Node is the executable form of one AIR instruction: the "function
// pointer" handler spec.md §4.7 describes a rod record binding to, here
// expressed directly as a Go method instead of an opcode byte plus
// switch dispatch. Concrete node types live in package air; this
// interface is the seam that lets package vm drive them without
// importing package air (which itself depends on vm).
type Node interface {
	// Exec performs one record's effect against ctx, returning the
	// status the driver loop should act on. A non-nil error is always
	// wrapped as a Runtime_Error by the caller before it is returned
	// further.
	Exec(ctx *Context) (Status, *cerr.RuntimeError)
}
