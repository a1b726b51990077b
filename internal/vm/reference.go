package vm

// SubscriptKind tags one link of a Reference's subscript chain.
type SubscriptKind int

const (
	SubArrayIndex SubscriptKind = iota
	SubArrayHead
	SubArrayTail
	SubArrayRandom
	SubObjectKey
)

// Subscript is one element of a Reference's walk chain, applied in order
// when the reference is dereferenced for read or write.
type Subscript struct {
	Kind SubscriptKind
	Idx  int64
	Key  string
}

// refState distinguishes a Reference's binding kind.
type refState int

const (
	refVoid refState = iota
	refTemporary
	refVariable
	refPendingTailCall
)

// variable is the shared, mutable cell a named Reference points at.
// Multiple References (aliases, closures, ref-parameters) may point at
// the same variable; it is conceptually reference-counted by Go's GC.
type variable struct {
	value       Value
	initialized bool
	immutable   bool
}

// Reference is the runtime's universal value handle (spec.md §3): void, a
// temporary value, a named variable, or — transiently, on function return
// — a pending proper tail call.
type Reference struct {
	state   refState
	temp    Value
	v       *variable
	subs    []Subscript
	tailPtc *PendingTailCall
}

// PendingTailCall records a deferred call the driver loop must re-enter
// in place of a normal return, keeping call depth bounded (spec.md §5).
type PendingTailCall struct {
	Callee Value
	Args   []Value
}

// Void returns the void reference.
func Void() Reference { return Reference{state: refVoid} }

// Temp wraps a plain value as a temporary reference.
func Temp(v Value) Reference { return Reference{state: refTemporary, temp: v} }

// FromVariable returns a reference aliasing an existing variable cell.
func FromVariable(v *variable) Reference { return Reference{state: refVariable, v: v} }

// PendingCall returns a reference carrying a proper-tail-call marker.
func PendingCall(callee Value, args []Value) Reference {
	return Reference{state: refPendingTailCall, tailPtc: &PendingTailCall{Callee: callee, Args: args}}
}

func (r Reference) IsVoid() bool            { return r.state == refVoid }
func (r Reference) IsVariable() bool        { return r.state == refVariable }
func (r Reference) IsPendingTailCall() bool { return r.state == refPendingTailCall }

// Variable exposes the underlying variable cell for a refVariable
// reference with no subscript chain, letting a `ref` declaration alias
// the same storage instead of copying a value.
func (r Reference) Variable() (*variable, bool) {
	if r.state != refVariable || len(r.subs) != 0 {
		return nil, false
	}
	return r.v, true
}

// WithSubscript appends one subscript link, returning a new Reference
// that walks it on dereference.
func (r Reference) WithSubscript(s Subscript) Reference {
	next := r
	next.subs = append(append([]Subscript(nil), r.subs...), s)
	return next
}

// Dereferenceable reports whether Read would succeed: a variable must be
// initialized, and must not still carry a bypassed-initializer gap.
func (r Reference) Dereferenceable() bool {
	switch r.state {
	case refTemporary:
		return true
	case refVariable:
		return r.v.initialized
	default:
		return false
	}
}

// Read resolves the reference (walking any subscript chain) to a plain
// Value.
func (r Reference) Read() (Value, error) {
	var base Value
	switch r.state {
	case refVoid:
		return Value{}, errVoidDereference
	case refTemporary:
		base = r.temp
	case refVariable:
		if !r.v.initialized {
			return Value{}, errBypassedInitializer
		}
		base = r.v.value
	default:
		return Value{}, errVoidDereference
	}
	return walkSubscripts(base, r.subs, false)
}

// Write stores val through any subscript chain into the underlying
// variable. Writing through a temporary or void reference is an error.
func (r Reference) Write(val Value) error {
	switch r.state {
	case refVariable:
		if r.v.immutable && r.v.initialized {
			return errAssignToImmutable
		}
		if len(r.subs) == 0 {
			r.v.value = val
			r.v.initialized = true
			return nil
		}
		updated, err := writeSubscripts(r.v.value, r.subs, val)
		if err != nil {
			return err
		}
		r.v.value = updated
		return nil
	default:
		return errAssignToTemporary
	}
}

// Initialize seals the variable's first value, marking it immutable if
// requested (initialize-variable / VarDecl const).
func (r Reference) Initialize(val Value, immutable bool) error {
	if r.state != refVariable {
		return errAssignToTemporary
	}
	r.v.value = val
	r.v.initialized = true
	r.v.immutable = immutable
	return nil
}

func walkSubscripts(base Value, subs []Subscript, _ bool) (Value, error) {
	cur := base
	for _, s := range subs {
		next, err := readOneSubscript(cur, s)
		if err != nil {
			return Value{}, err
		}
		cur = next
	}
	return cur, nil
}

func readOneSubscript(cur Value, s Subscript) (Value, error) {
	switch s.Kind {
	case SubObjectKey:
		obj, ok := cur.AsObject()
		if !ok {
			return Value{}, errNotIndexable
		}
		v, found := obj.Get(s.Key)
		if !found {
			return Null(), nil
		}
		return v, nil
	default:
		arr, ok := cur.AsArray()
		if !ok {
			return Value{}, errNotIndexable
		}
		idx, err := resolveArrayIndex(arr, s)
		if err != nil {
			return Value{}, err
		}
		if idx < 0 || idx >= int64(len(arr.Elems)) {
			return Null(), nil
		}
		return arr.Elems[idx], nil
	}
}

func resolveArrayIndex(arr *Array, s Subscript) (int64, error) {
	switch s.Kind {
	case SubArrayHead:
		return 0, nil
	case SubArrayTail:
		return int64(len(arr.Elems)) - 1, nil
	case SubArrayRandom:
		return 0, nil // deterministic placeholder; a host RNG hook may override
	default:
		idx := s.Idx
		if idx < 0 {
			idx += int64(len(arr.Elems))
		}
		return idx, nil
	}
}

func writeSubscripts(base Value, subs []Subscript, val Value) (Value, error) {
	if len(subs) == 0 {
		return val, nil
	}
	head, rest := subs[0], subs[1:]
	switch head.Kind {
	case SubObjectKey:
		obj, ok := base.AsObject()
		if !ok {
			if base.IsNull() {
				obj = NewObject()
			} else {
				return Value{}, errNotIndexable
			}
		}
		child, _ := obj.Get(head.Key)
		updated, err := writeSubscripts(child, rest, val)
		if err != nil {
			return Value{}, err
		}
		obj.Set(head.Key, updated)
		return ObjectOf(obj), nil
	default:
		arr, ok := base.AsArray()
		if !ok {
			if base.IsNull() {
				arr = &Array{}
			} else {
				return Value{}, errNotIndexable
			}
		}
		idx, err := resolveArrayIndex(arr, head)
		if err != nil {
			return Value{}, err
		}
		if idx < 0 {
			return Value{}, errNotIndexable
		}
		for int64(len(arr.Elems)) <= idx {
			arr.Elems = append(arr.Elems, Null())
		}
		child := arr.Elems[idx]
		updated, err := writeSubscripts(child, rest, val)
		if err != nil {
			return Value{}, err
		}
		arr.Elems[idx] = updated
		return ArrayOf(arr), nil
	}
}
