package onnx

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

func quoteAll(s []string) string {
	q := make([]string, len(s))
	for i, v := range s {
		q[i] = strconv.Quote(v)
	}
	return "[" + strings.Join(q, ", ") + "]"
}

func (n *Node) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "op_type: %s\n", n.OpType)
	if n.Name != "" {
		fmt.Fprintf(&b, "name: %s\n", n.Name)
	}
	if n.Domain != "" {
		fmt.Fprintf(&b, "domain: %s\n", n.Domain)
	}
	fmt.Fprintf(&b, "input: %s\n", quoteAll(n.Inputs))
	fmt.Fprintf(&b, "output: %s\n", quoteAll(n.Outputs))
	for _, a := range n.Attributes {
		fmt.Fprintf(&b, "attribute { %s type: %s }\n", a, a.Type)
	}
	return b.String()
}

// Fprint writes each match as a summary line with the index, inputs and
// attributes followed by the full node
func Fprint(w io.Writer, matches []Match) error {
	for _, m := range matches {
		attrs := make([]string, len(m.Node.Attributes))
		for i, a := range m.Node.Attributes {
			attrs[i] = a.String()
		}
		if _, err := fmt.Fprintf(w, "%d %s [%s]\n", m.Index, quoteAll(m.Node.Inputs), strings.Join(attrs, ", ")); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%d %s", m.Index, m.Node); err != nil {
			return err
		}
	}
	return nil
}
