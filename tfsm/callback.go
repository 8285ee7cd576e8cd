package tfsm

// Callback is the behavior attached to a state. A nil Callback is "no callback".
// Implementations run on the caller of Run and must not block.
type Callback interface {
	Call(arg Argument)
}

// Func adapts an argument-less function. A nil Func does nothing.
type Func func()

func (f Func) Call(Argument) {
	if f != nil {
		f()
	}
}

// ArgFunc adapts a function that wants the state's argument. A nil ArgFunc
// does nothing.
type ArgFunc func(arg Argument)

func (f ArgFunc) Call(arg Argument) {
	if f != nil {
		f(arg)
	}
}

// isNil reports whether cb is nil or wraps a nil function.
func isNil(cb Callback) bool {
	switch f := cb.(type) {
	case nil:
		return true
	case Func:
		return f == nil
	case ArgFunc:
		return f == nil
	default:
		return false
	}
}

func invoke(cb Callback, arg Argument) {
	if cb != nil {
		cb.Call(arg)
	}
}
