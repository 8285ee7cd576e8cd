package tfsm

// HeldArgumentCapacity is the payload size of an owned argument. The wire
// equivalent is one byte larger to leave room for a terminator.
const HeldArgumentCapacity = 32

// ArgumentKind tells which variant an Argument holds.
type ArgumentKind uint8

const (
	// ArgumentEmpty means the slot is unset. Entering a state with an empty
	// slot picks up a pending held argument, if there is one.
	ArgumentEmpty ArgumentKind = iota
	// ArgumentOwned is a bounded copy of caller bytes, owned by the value.
	ArgumentOwned
	// ArgumentStatic is an immutable string that comes from the state table.
	ArgumentStatic
)

func (k ArgumentKind) String() string {
	switch k {
	case ArgumentEmpty:
		return "empty"
	case ArgumentOwned:
		return "owned"
	case ArgumentStatic:
		return "static"
	default:
		return "unknown"
	}
}

// Argument is the opaque context data handed to action and delay callbacks.
// The zero value is an empty argument. Owned payloads live in a fixed array,
// so copying an Argument never aliases caller memory.
type Argument struct {
	kind   ArgumentKind
	static string
	owned  [HeldArgumentCapacity]byte
	size   uint8
}

// StaticArgument wraps a table-provided string.
func StaticArgument(s string) Argument {
	return Argument{kind: ArgumentStatic, static: s}
}

// OwnedArgument copies b into a new owned argument. It reports false, and
// returns an empty argument, when b is empty or longer than HeldArgumentCapacity.
func OwnedArgument(b []byte) (Argument, bool) {
	if len(b) == 0 || len(b) > HeldArgumentCapacity {
		return Argument{}, false
	}

	arg := Argument{kind: ArgumentOwned, size: uint8(len(b))} //nolint:gosec // bounded above
	copy(arg.owned[:], b)

	return arg, true
}

func (a Argument) Kind() ArgumentKind {
	return a.kind
}

func (a Argument) IsEmpty() bool {
	return a.kind == ArgumentEmpty
}

// Bytes returns a copy of the payload. Empty arguments return nil.
func (a Argument) Bytes() []byte {
	switch a.kind {
	case ArgumentOwned:
		out := make([]byte, a.size)
		copy(out, a.owned[:a.size])

		return out
	case ArgumentStatic:
		return []byte(a.static)
	default:
		return nil
	}
}

func (a Argument) String() string {
	switch a.kind {
	case ArgumentOwned:
		return string(a.owned[:a.size])
	case ArgumentStatic:
		return a.static
	default:
		return ""
	}
}
