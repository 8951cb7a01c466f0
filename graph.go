package tablefsm

import (
	"fmt"
	"strings"
)

// DOT renders the transition table as a Graphviz digraph. Guarded transitions
// are drawn dashed; the initial state, if any, is drawn with a double border.
func (m *Machine) DOT() string {
	var b strings.Builder
	b.WriteString("digraph fsm {\n")
	b.WriteString("\trankdir=LR;\n")
	b.WriteString("\tnode [shape=box, style=rounded];\n")

	for _, id := range m.states.order {
		if id == m.initial {
			fmt.Fprintf(&b, "\t%q [peripheries=2];\n", id)
			continue
		}
		fmt.Fprintf(&b, "\t%q;\n", id)
	}

	for _, t := range m.transitions.order {
		label := string(t.Trigger)
		if n := len(t.Guards); n > 0 {
			label = fmt.Sprintf("%s [%d guard(s)]", t.Trigger, n)
			fmt.Fprintf(&b, "\t%q -> %q [label=%q, style=dashed];\n", t.From, t.To, label)
			continue
		}
		fmt.Fprintf(&b, "\t%q -> %q [label=%q];\n", t.From, t.To, label)
	}

	b.WriteString("}\n")
	return b.String()
}
