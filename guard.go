package tablefsm

import "fmt"

// guardResult is the verdict of evaluating a transition's guard list
type guardResult struct {
	ok     bool
	index  int // Index of the rejecting guard, -1 when ok
	reason string
	err    error
}

// evaluateGuards runs guards in order with AND semantics, stopping at the first
// rejection. A guard that errors or panics counts as a rejection.
func evaluateGuards(guards []Guard, c *Context) guardResult {
	for i, g := range guards {
		ok, err := callGuard(g, c)
		if err != nil {
			return guardResult{
				index:  i,
				reason: fmt.Sprintf("guard %d failed: %v", i, err),
				err:    err,
			}
		}
		if !ok {
			return guardResult{
				index:  i,
				reason: fmt.Sprintf("guard %d returned false", i),
			}
		}
	}
	return guardResult{ok: true, index: -1}
}

func callGuard(g Guard, c *Context) (ok bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			ok = false
			err = fmt.Errorf("guard panicked: %v", p)
		}
	}()
	return g(c)
}
