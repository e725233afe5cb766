// Package topology builds and validates the typed component DAG described
// in the pipeline configuration: cycle detection, input resolution and
// data-type checking, before a single source/transform/sink is constructed.
package topology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vectordotdev/vector-sub015/internal/corerr"
)

// DataType is a bitset of the event kinds a component can produce or accept.
type DataType uint8

const (
	DataTypeLog DataType = 1 << iota
	DataTypeMetric
	DataTypeTrace
	dataTypeAll = DataTypeLog | DataTypeMetric | DataTypeTrace
)

// DataTypeAny accepts or produces every event kind.
const DataTypeAny = dataTypeAll

func (d DataType) String() string {
	switch d {
	case DataTypeLog:
		return "Log"
	case DataTypeMetric:
		return "Metric"
	case DataTypeTrace:
		return "Trace"
	case DataTypeAny:
		return "Any"
	}
	var parts []string
	if d&DataTypeLog != 0 {
		parts = append(parts, "Log")
	}
	if d&DataTypeMetric != 0 {
		parts = append(parts, "Metric")
	}
	if d&DataTypeTrace != 0 {
		parts = append(parts, "Trace")
	}
	return strings.Join(parts, "|")
}

// compatible reports whether an upstream type can feed a downstream type:
// Any is compatible with everything in either position, otherwise the types
// must match exactly.
func compatible(upstream, downstream DataType) bool {
	if upstream == DataTypeAny || downstream == DataTypeAny {
		return true
	}
	return upstream == downstream
}

// ComponentKey identifies a configured component by name.
type ComponentKey string

func (k ComponentKey) String() string { return string(k) }

// OutputId identifies a specific named output of a component. Port is empty
// for a component's primary (unnamed) output.
type OutputId struct {
	Component ComponentKey
	Port      string
}

func (o OutputId) String() string {
	if o.Port == "" {
		return string(o.Component)
	}
	return fmt.Sprintf("%s.%s", o.Component, o.Port)
}

// ParseOutputId splits "component.port" into an OutputId; a string with no
// dot is the component's primary output.
func ParseOutputId(s string) OutputId {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return OutputId{Component: ComponentKey(s[:i]), Port: s[i+1:]}
	}
	return OutputId{Component: ComponentKey(s)}
}

// NodeKind distinguishes the three component roles.
type NodeKind int

const (
	NodeSource NodeKind = iota
	NodeTransform
	NodeSink
)

// Node is one vertex of the topology graph.
type Node struct {
	Kind NodeKind

	// Source / Sink
	Type DataType

	// Transform
	InputType    DataType
	OutputType   DataType
	NamedOutputs []string
}

// Edge connects an upstream output to a downstream component's input.
type Edge struct {
	From OutputId
	To   ComponentKey
}

// Graph is the full, unresolved topology: nodes plus the edges derived from
// each component's configured inputs.
type Graph struct {
	Nodes map[ComponentKey]Node
	Edges []Edge
}

// NewGraph returns an empty graph ready for AddSource/AddTransform/AddSink.
func NewGraph() *Graph {
	return &Graph{Nodes: make(map[ComponentKey]Node)}
}

// AddSource registers a source node producing events of the given type.
func (g *Graph) AddSource(key ComponentKey, ty DataType) {
	g.Nodes[key] = Node{Kind: NodeSource, Type: ty}
}

// AddTransform registers a transform node and the edges from its resolved
// inputs. namedOutputs lists any additional output ports beyond the primary.
func (g *Graph) AddTransform(key ComponentKey, inputs []OutputId, inTy, outTy DataType, namedOutputs []string) {
	g.Nodes[key] = Node{Kind: NodeTransform, InputType: inTy, OutputType: outTy, NamedOutputs: namedOutputs}
	for _, in := range inputs {
		g.Edges = append(g.Edges, Edge{From: in, To: key})
	}
}

// AddSink registers a sink node and the edges from its resolved inputs.
func (g *Graph) AddSink(key ComponentKey, inputs []OutputId, ty DataType) {
	g.Nodes[key] = Node{Kind: NodeSink, Type: ty}
	for _, in := range inputs {
		g.Edges = append(g.Edges, Edge{From: in, To: key})
	}
}

// ValidInputs returns the set of OutputIds a component's "inputs" list may
// legally reference: every source's primary output, and every transform's
// primary plus named outputs. Sinks contribute nothing (nothing may read
// from a sink).
func (g *Graph) ValidInputs() map[OutputId]struct{} {
	out := make(map[OutputId]struct{})
	for key, n := range g.Nodes {
		switch n.Kind {
		case NodeSource:
			out[OutputId{Component: key}] = struct{}{}
		case NodeTransform:
			out[OutputId{Component: key}] = struct{}{}
			for _, port := range n.NamedOutputs {
				out[OutputId{Component: key, Port: port}] = struct{}{}
			}
		}
	}
	return out
}

// ResolveInput maps a raw configured input string onto the OutputId with a
// matching string form among valid. It returns a ConfigShape error if two
// distinct valid outputs render to the same string (ambiguous configuration
// that the original Rust implementation treats as an unrecoverable bug).
func ResolveInput(raw string, valid map[OutputId]struct{}) (OutputId, error) {
	byForm := make(map[string]OutputId, len(valid))
	for id := range valid {
		form := id.String()
		if existing, ok := byForm[form]; ok && existing != id {
			return OutputId{}, corerr.New(corerr.KindConfigShape,
				"duplicate output form %q for %s and %s", form, existing, id)
		}
		byForm[form] = id
	}
	if id, ok := byForm[raw]; ok {
		return id, nil
	}
	return ParseOutputId(raw), nil
}

// CheckInputs verifies every edge's From output exists among valid. Errors
// are sorted and deduplicated, matching the upstream check_inputs pass.
func (g *Graph) CheckInputs() []error {
	valid := g.ValidInputs()
	var msgs []string
	for _, e := range g.Edges {
		if _, ok := valid[e.From]; ok {
			continue
		}
		n := g.Nodes[e.To]
		outputType := "sink"
		if n.Kind == NodeTransform {
			outputType = "transform"
		}
		msgs = append(msgs, fmt.Sprintf(
			"Input %q for %s %q doesn't match any components.", e.From, outputType, e.To))
	}
	return dedupSortedErrors(corerr.KindConfigResolve, msgs)
}

// Paths returns, for every sink in the graph, the full upstream chain that
// feeds it (source-first order), or a cycle error if walking that sink's
// ancestry revisits a node. Errors are sorted and deduplicated.
func (g *Graph) Paths() ([][]ComponentKey, []error) {
	var allPaths [][]ComponentKey
	var msgs []string
	for key, n := range g.Nodes {
		if n.Kind != NodeSink {
			continue
		}
		paths, err := g.pathsRec(key, nil)
		if err != nil {
			msgs = append(msgs, err.Error())
			continue
		}
		allPaths = append(allPaths, paths...)
	}
	sort.Slice(allPaths, func(i, j int) bool {
		return joinKeys(allPaths[i]) < joinKeys(allPaths[j])
	})
	return allPaths, dedupSortedErrors(corerr.KindConfigCycle, msgs)
}

func joinKeys(path []ComponentKey) string {
	ss := make([]string, len(path))
	for i, k := range path {
		ss[i] = string(k)
	}
	return strings.Join(ss, " -> ")
}

// pathsRec mirrors graph.rs's paths_rec: path is the chain walked so far,
// nearest node last (i.e. built leaf-to-root, reversed on return).
func (g *Graph) pathsRec(node ComponentKey, path []ComponentKey) ([][]ComponentKey, error) {
	if idx := indexOf(path, node); idx >= 0 {
		cyclic := append(append([]ComponentKey{}, path[idx:]...), node)
		reverseKeys(cyclic)
		return nil, fmt.Errorf("Cyclic dependency detected in the chain [ %s ]", joinKeys(cyclic))
	}

	path = append(append([]ComponentKey{}, path...), node)

	n, ok := g.Nodes[node]
	if !ok || n.Kind == NodeSource {
		rev := append([]ComponentKey{}, path...)
		reverseKeys(rev)
		return [][]ComponentKey{rev}, nil
	}

	var inputs []ComponentKey
	for _, e := range g.Edges {
		if e.To == node {
			inputs = append(inputs, e.From.Component)
		}
	}

	var result [][]ComponentKey
	for _, in := range inputs {
		sub, err := g.pathsRec(in, path)
		if err != nil {
			return nil, err
		}
		result = append(result, sub...)
	}
	return result, nil
}

func indexOf(path []ComponentKey, node ComponentKey) int {
	for i, k := range path {
		if k == node {
			return i
		}
	}
	return -1
}

func reverseKeys(s []ComponentKey) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// TypeCheck walks every sink's path (see Paths) checking adjacent node pairs
// for data-type compatibility. Errors are sorted and deduplicated.
func (g *Graph) TypeCheck() []error {
	paths, pathErrs := g.Paths()
	if len(pathErrs) > 0 {
		// A cyclic graph can't be meaningfully typechecked; the cycle
		// errors alone are reported upstream by the caller.
		return nil
	}
	var msgs []string
	for _, path := range paths {
		for i := 0; i+1 < len(path); i++ {
			x, y := path[i], path[i+1]
			outTy, ok1 := g.outputTypeOf(x)
			inTy, ok2 := g.inputTypeOf(y)
			if !ok1 || !ok2 {
				continue
			}
			if !compatible(outTy, inTy) {
				msgs = append(msgs, fmt.Sprintf(
					"Data type mismatch between %s (%s) and %s (%s)", x, outTy, y, inTy))
			}
		}
	}
	return dedupSortedErrors(corerr.KindConfigType, msgs)
}

func (g *Graph) outputTypeOf(key ComponentKey) (DataType, bool) {
	n, ok := g.Nodes[key]
	if !ok {
		return 0, false
	}
	switch n.Kind {
	case NodeSource:
		return n.Type, true
	case NodeTransform:
		return n.OutputType, true
	default:
		return 0, false
	}
}

func (g *Graph) inputTypeOf(key ComponentKey) (DataType, bool) {
	n, ok := g.Nodes[key]
	if !ok {
		return 0, false
	}
	switch n.Kind {
	case NodeSink:
		return n.Type, true
	case NodeTransform:
		return n.InputType, true
	default:
		return 0, false
	}
}

func dedupSortedErrors(kind corerr.Kind, msgs []string) []error {
	if len(msgs) == 0 {
		return nil
	}
	sort.Strings(msgs)
	out := make([]error, 0, len(msgs))
	var prev string
	for i, m := range msgs {
		if i > 0 && m == prev {
			continue
		}
		out = append(out, corerr.New(kind, "%s", m))
		prev = m
	}
	return out
}

// Validate runs CheckInputs, Paths (cycle detection) and TypeCheck, in that
// order, returning the union of every error found. Unlike a typical
// fail-fast validator this never stops at the first failing stage within
// CheckInputs/TypeCheck: all errors from a stage are collected before moving
// on, matching spec.md's "never short-circuits a validation stage".
func (g *Graph) Validate() []error {
	var all []error
	all = append(all, g.CheckInputs()...)
	_, cycleErrs := g.Paths()
	all = append(all, cycleErrs...)
	if len(cycleErrs) == 0 {
		all = append(all, g.TypeCheck()...)
	}
	return all
}
