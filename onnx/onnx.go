/*
Package onnx decodes just enough of a serialized ONNX model to list the nodes
of its graph along with their inputs, outputs and attributes.

Models are protocol buffers; rather than carrying the generated code for the
whole schema the wire format is walked directly and any field not needed here
is skipped.
*/
package onnx

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// AttributeType mirrors AttributeProto.AttributeType
type AttributeType int

// Attribute types
const (
	AttributeUndefined AttributeType = iota
	AttributeFloat
	AttributeInt
	AttributeString
	AttributeTensor
	AttributeGraph
	AttributeFloats
	AttributeInts
	AttributeStrings
	AttributeTensors
	AttributeGraphs
	AttributeSparseTensor
	AttributeSparseTensors
	AttributeTypeProto
	AttributeTypeProtos
)

var attributeTypeNames = [...]string{
	"UNDEFINED",
	"FLOAT",
	"INT",
	"STRING",
	"TENSOR",
	"GRAPH",
	"FLOATS",
	"INTS",
	"STRINGS",
	"TENSORS",
	"GRAPHS",
	"SPARSE_TENSOR",
	"SPARSE_TENSORS",
	"TYPE_PROTO",
	"TYPE_PROTOS",
}

func (t AttributeType) String() string {
	if t >= 0 && int(t) < len(attributeTypeNames) {
		return attributeTypeNames[t]
	}
	return strconv.Itoa(int(t))
}

// MarshalText implements encoding.TextMarshaler
func (t AttributeType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// OperatorSet is an imported operator set
type OperatorSet struct {
	Domain  string `json:"domain"`
	Version int64  `json:"version"`
}

// Model is a decoded ModelProto
type Model struct {
	IRVersion       int64         `json:"ir_version"`
	ProducerName    string        `json:"producer_name,omitempty"`
	ProducerVersion string        `json:"producer_version,omitempty"`
	Domain          string        `json:"domain,omitempty"`
	ModelVersion    int64         `json:"model_version,omitempty"`
	Opsets          []OperatorSet `json:"opset_import,omitempty"`
	Graph           *Graph        `json:"graph,omitempty"`
}

// Graph is a decoded GraphProto; only the node list and name are kept
type Graph struct {
	Name  string  `json:"name,omitempty"`
	Nodes []*Node `json:"node"`
}

// Node is a decoded NodeProto
type Node struct {
	Name       string       `json:"name,omitempty"`
	OpType     string       `json:"op_type"`
	Domain     string       `json:"domain,omitempty"`
	Inputs     []string     `json:"input"`
	Outputs    []string     `json:"output"`
	Attributes []*Attribute `json:"attribute,omitempty"`
}

// Attribute is a decoded AttributeProto. Tensor and graph values are not
// decoded; only their presence is recorded via Type.
type Attribute struct {
	Name    string        `json:"name"`
	Type    AttributeType `json:"type"`
	F       float32       `json:"f,omitempty"`
	I       int64         `json:"i,omitempty"`
	S       string        `json:"s,omitempty"`
	Floats  []float32     `json:"floats,omitempty"`
	Ints    []int64       `json:"ints,omitempty"`
	Strings []string      `json:"strings,omitempty"`
}

// Value renders the attribute value according to its type
func (a *Attribute) Value() string {
	switch a.Type {
	case AttributeFloat:
		return strconv.FormatFloat(float64(a.F), 'g', -1, 32)
	case AttributeInt:
		return strconv.FormatInt(a.I, 10)
	case AttributeString:
		return strconv.Quote(a.S)
	case AttributeFloats:
		s := make([]string, len(a.Floats))
		for i, f := range a.Floats {
			s[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
		}
		return "[" + strings.Join(s, ", ") + "]"
	case AttributeInts:
		s := make([]string, len(a.Ints))
		for i, n := range a.Ints {
			s[i] = strconv.FormatInt(n, 10)
		}
		return "[" + strings.Join(s, ", ") + "]"
	case AttributeStrings:
		return quoteAll(a.Strings)
	default:
		return "<" + strings.ToLower(a.Type.String()) + ">"
	}
}

func (a *Attribute) String() string {
	return fmt.Sprintf("%s: %s", a.Name, a.Value())
}

// Match is a node selected by Filter along with its position in the graph
type Match struct {
	Index int   `json:"index"`
	Node  *Node `json:"node"`
}

// Filter returns the nodes whose operator type equals opType, in graph
// order. An empty opType matches every node.
func (g *Graph) Filter(opType string) []Match {
	var matches []Match
	if g == nil {
		return matches
	}
	for i, n := range g.Nodes {
		if opType == "" || n.OpType == opType {
			matches = append(matches, Match{Index: i, Node: n})
		}
	}
	return matches
}

// Load reads and decodes the model in file
func Load(file string) (*Model, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}
