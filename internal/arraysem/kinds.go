package arraysem

// Kind classifies the array-semantics tag on a callee.
type Kind int

const (
	KindNone Kind = iota
	KindIsNative
	KindNeedsTypeCheck
	KindCheckSubscript
	KindCheckIndex
	KindGetCount
	KindGetCapacity
	KindGetElement
	KindGetElementAddress
	KindMakeMutable
	KindMutateUnknown
	KindArrayInit
	KindArrayUninitialized
)

// Semantics strings the recognizer understands. These are the tags the
// standard library attaches to the array runtime entry points.
const (
	SemIsNative           = "array.props.isNative"
	SemNeedsTypeCheck     = "array.props.needsElementTypeCheck"
	SemCheckSubscript     = "array.check_subscript"
	SemCheckIndex         = "array.check_index"
	SemGetCount           = "array.get_count"
	SemGetCapacity        = "array.get_capacity"
	SemGetElement         = "array.get_element"
	SemGetElementAddress  = "array.get_element_address"
	SemMakeMutable        = "array.make_mutable"
	SemMutateUnknown      = "array.mutate_unknown"
	SemArrayInit          = "array.init"
	SemArrayUninitialized = "array.uninitialized"
)

var kindBySemantics = map[string]Kind{
	SemIsNative:           KindIsNative,
	SemNeedsTypeCheck:     KindNeedsTypeCheck,
	SemCheckSubscript:     KindCheckSubscript,
	SemCheckIndex:         KindCheckIndex,
	SemGetCount:           KindGetCount,
	SemGetCapacity:        KindGetCapacity,
	SemGetElement:         KindGetElement,
	SemGetElementAddress:  KindGetElementAddress,
	SemMakeMutable:        KindMakeMutable,
	SemMutateUnknown:      KindMutateUnknown,
	SemArrayInit:          KindArrayInit,
	SemArrayUninitialized: KindArrayUninitialized,
}

// KindFromSemantics maps a semantics tag to its kind; unknown tags map to
// KindNone.
func KindFromSemantics(tag string) Kind {
	return kindBySemantics[tag]
}

func (k Kind) String() string {
	switch k {
	case KindIsNative:
		return "is_native"
	case KindNeedsTypeCheck:
		return "needs_type_check"
	case KindCheckSubscript:
		return "check_subscript"
	case KindCheckIndex:
		return "check_index"
	case KindGetCount:
		return "get_count"
	case KindGetCapacity:
		return "get_capacity"
	case KindGetElement:
		return "get_element"
	case KindGetElementAddress:
		return "get_element_address"
	case KindMakeMutable:
		return "make_mutable"
	case KindMutateUnknown:
		return "mutate_unknown"
	case KindArrayInit:
		return "array_init"
	case KindArrayUninitialized:
		return "array_uninitialized"
	default:
		return "none"
	}
}

// hasSelf reports whether the kind operates on a receiver array passed as
// the first argument. The two constructors return a fresh array instead.
func (k Kind) hasSelf() bool {
	switch k {
	case KindArrayInit, KindArrayUninitialized, KindNone:
		return false
	default:
		return true
	}
}

// hasIndex reports whether the kind takes an index as its second argument.
func (k Kind) hasIndex() bool {
	switch k {
	case KindCheckSubscript, KindCheckIndex, KindGetElement, KindGetElementAddress:
		return true
	default:
		return false
	}
}

// hoistable reports whether a call of this kind may be moved upward in
// control flow at all. Mutating kinds pin the call; the needs-type-check
// query must not cross a point where the underlying storage could have been
// replaced, so it is pinned too.
func (k Kind) hoistable() bool {
	switch k {
	case KindIsNative, KindCheckSubscript, KindCheckIndex, KindGetCount, KindGetCapacity, KindGetElement:
		return true
	default:
		return false
	}
}

// MutatesArray reports whether the call may replace or modify the array's
// underlying storage.
func (k Kind) MutatesArray() bool {
	switch k {
	case KindMakeMutable, KindMutateUnknown:
		return true
	default:
		return false
	}
}
