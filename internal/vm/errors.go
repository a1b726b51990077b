package vm

import "errors"

// Sentinel errors surfaced by Reference.Read/Write and subscript walks;
// callers wrap these into a Runtime_Error with the current source
// location and frame stack before they escape the driver loop.
var (
	errVoidDereference     = errors.New("dereference of a void reference")
	errBypassedInitializer = errors.New("reference declared but not yet initialized on this path")
	errAssignToTemporary   = errors.New("cannot assign through a temporary reference")
	errAssignToImmutable   = errors.New("cannot assign to an immutable variable")
	errNotIndexable        = errors.New("value is not indexable")
	errUndeclaredName      = errors.New("undeclared identifier")
)
