package onnx

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers from onnx.proto
const (
	modelIRVersion       = 1
	modelProducerName    = 2
	modelProducerVersion = 3
	modelDomain          = 4
	modelModelVersion    = 5
	modelGraph           = 7
	modelOpsetImport     = 8

	opsetDomain  = 1
	opsetVersion = 2

	graphNode = 1
	graphName = 2

	nodeInput     = 1
	nodeOutput    = 2
	nodeName      = 3
	nodeOpType    = 4
	nodeAttribute = 5
	nodeDomain    = 7

	attrName    = 1
	attrF       = 2
	attrI       = 3
	attrS       = 4
	attrT       = 5
	attrG       = 6
	attrFloats  = 7
	attrInts    = 8
	attrStrings = 9
	attrTensors = 10
	attrGraphs  = 11
	attrType    = 20
)

type field struct {
	num protowire.Number
	typ protowire.Type
	v   uint64
	b   []byte
}

func (f field) is(num protowire.Number, typ protowire.Type) bool {
	return f.num == num && f.typ == typ
}

func (f field) string() string {
	return string(f.b)
}

// Call fn for each field in b, in wire order
func fields(b []byte, fn func(field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.v, n = protowire.ConsumeVarint(b)
		case protowire.Fixed32Type:
			var v uint32
			v, n = protowire.ConsumeFixed32(b)
			f.v = uint64(v)
		case protowire.Fixed64Type:
			f.v, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.b, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		if err := fn(f); err != nil {
			return err
		}
	}
	return nil
}

// Decode decodes a serialized ModelProto
func Decode(b []byte) (*Model, error) {
	m := new(Model)
	if err := fields(b, func(f field) error {
		switch {
		case f.is(modelIRVersion, protowire.VarintType):
			m.IRVersion = int64(f.v)
		case f.is(modelProducerName, protowire.BytesType):
			m.ProducerName = f.string()
		case f.is(modelProducerVersion, protowire.BytesType):
			m.ProducerVersion = f.string()
		case f.is(modelDomain, protowire.BytesType):
			m.Domain = f.string()
		case f.is(modelModelVersion, protowire.VarintType):
			m.ModelVersion = int64(f.v)
		case f.is(modelOpsetImport, protowire.BytesType):
			o, err := decodeOpset(f.b)
			if err != nil {
				return err
			}
			m.Opsets = append(m.Opsets, o)
		case f.is(modelGraph, protowire.BytesType):
			g, err := decodeGraph(f.b)
			if err != nil {
				return err
			}
			m.Graph = g
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeOpset(b []byte) (OperatorSet, error) {
	var o OperatorSet
	err := fields(b, func(f field) error {
		switch {
		case f.is(opsetDomain, protowire.BytesType):
			o.Domain = f.string()
		case f.is(opsetVersion, protowire.VarintType):
			o.Version = int64(f.v)
		}
		return nil
	})
	return o, err
}

func decodeGraph(b []byte) (*Graph, error) {
	g := new(Graph)
	if err := fields(b, func(f field) error {
		switch {
		case f.is(graphName, protowire.BytesType):
			g.Name = f.string()
		case f.is(graphNode, protowire.BytesType):
			n, err := decodeNode(f.b)
			if err != nil {
				return err
			}
			g.Nodes = append(g.Nodes, n)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return g, nil
}

func decodeNode(b []byte) (*Node, error) {
	n := new(Node)
	if err := fields(b, func(f field) error {
		switch {
		case f.is(nodeInput, protowire.BytesType):
			n.Inputs = append(n.Inputs, f.string())
		case f.is(nodeOutput, protowire.BytesType):
			n.Outputs = append(n.Outputs, f.string())
		case f.is(nodeName, protowire.BytesType):
			n.Name = f.string()
		case f.is(nodeOpType, protowire.BytesType):
			n.OpType = f.string()
		case f.is(nodeDomain, protowire.BytesType):
			n.Domain = f.string()
		case f.is(nodeAttribute, protowire.BytesType):
			a, err := decodeAttribute(f.b)
			if err != nil {
				return err
			}
			n.Attributes = append(n.Attributes, a)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return n, nil
}

func decodeAttribute(b []byte) (*Attribute, error) {
	a := new(Attribute)

	// Early IR versions omit the type so remember which value was seen
	seen := AttributeUndefined

	if err := fields(b, func(f field) error {
		switch {
		case f.is(attrName, protowire.BytesType):
			a.Name = f.string()
		case f.is(attrType, protowire.VarintType):
			a.Type = AttributeType(f.v)
		case f.is(attrF, protowire.Fixed32Type):
			a.F = math.Float32frombits(uint32(f.v))
			seen = AttributeFloat
		case f.is(attrI, protowire.VarintType):
			a.I = int64(f.v)
			seen = AttributeInt
		case f.is(attrS, protowire.BytesType):
			a.S = f.string()
			seen = AttributeString
		case f.is(attrT, protowire.BytesType):
			seen = AttributeTensor
		case f.is(attrG, protowire.BytesType):
			seen = AttributeGraph
		case f.is(attrFloats, protowire.Fixed32Type):
			a.Floats = append(a.Floats, math.Float32frombits(uint32(f.v)))
			seen = AttributeFloats
		case f.is(attrFloats, protowire.BytesType):
			// Packed
			for p := f.b; len(p) > 0; {
				v, n := protowire.ConsumeFixed32(p)
				if n < 0 {
					return protowire.ParseError(n)
				}
				a.Floats = append(a.Floats, math.Float32frombits(v))
				p = p[n:]
			}
			seen = AttributeFloats
		case f.is(attrInts, protowire.VarintType):
			a.Ints = append(a.Ints, int64(f.v))
			seen = AttributeInts
		case f.is(attrInts, protowire.BytesType):
			// Packed
			for p := f.b; len(p) > 0; {
				v, n := protowire.ConsumeVarint(p)
				if n < 0 {
					return protowire.ParseError(n)
				}
				a.Ints = append(a.Ints, int64(v))
				p = p[n:]
			}
			seen = AttributeInts
		case f.is(attrStrings, protowire.BytesType):
			a.Strings = append(a.Strings, f.string())
			seen = AttributeStrings
		case f.is(attrTensors, protowire.BytesType):
			seen = AttributeTensors
		case f.is(attrGraphs, protowire.BytesType):
			seen = AttributeGraphs
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if a.Type == AttributeUndefined {
		a.Type = seen
	}

	return a, nil
}
