package eventloop

// Loop serializes callbacks onto the owner's event loop. Work that finishes on
// another goroutine posts its result back through a Loop so UI state is only
// ever touched from one goroutine.
type Loop interface {
	Post(fn func())
}

// Func adapts a plain function to Loop.
type Func func(fn func())

func (f Func) Post(fn func()) { f(fn) }

// Immediate runs callbacks inline on the posting goroutine.
var Immediate Loop = Func(func(fn func()) { fn() })

// Go runs fn on a fresh goroutine.
func Go(fn func()) { go fn() }

// Inline runs fn on the calling goroutine.
func Inline(fn func()) { fn() }
