package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vectordotdev/vector-sub015/internal/corerr"
	"github.com/vectordotdev/vector-sub015/internal/topology"
)

// BuildGraph turns a Document into a topology.Graph, resolving each
// component's "inputs" strings against the set of valid upstream outputs.
// Unlike CheckInputs (which runs against the fully-built graph), bad
// references here degrade gracefully: an input string matching no valid
// output still produces an edge CheckInputs can report precisely. The error
// ResolveInput returns when two valid outputs share a string form is
// discarded here; the edge is then added from the zero OutputId, which
// CheckInputs reports as an unmatched input.
func BuildGraph(doc *Document) *topology.Graph {
	g := topology.NewGraph()

	for name, s := range doc.Sources {
		g.AddSource(topology.ComponentKey(name), sourceType(s))
	}

	// Two passes: first register every node (so ValidInputs sees the whole
	// graph), then add edges once every node exists to resolve against.
	type pending struct {
		key    string
		inputs []string
	}
	var transforms, sinks []pending

	for name, tr := range doc.Transforms {
		desc, ok := builtinTransformTypes[tr.Type]
		inTy, outTy := topology.DataTypeAny, topology.DataTypeAny
		if ok {
			inTy, outTy = desc.TransformIn, desc.TransformOut
		}
		g.AddTransform(topology.ComponentKey(name), nil, inTy, outTy, tr.NamedOutputs)
		transforms = append(transforms, pending{key: name, inputs: tr.Inputs})
	}
	for name, sk := range doc.Sinks {
		g.AddSink(topology.ComponentKey(name), nil, sinkType(sk))
		sinks = append(sinks, pending{key: name, inputs: sk.Inputs})
	}

	valid := g.ValidInputs()
	for _, p := range transforms {
		for _, raw := range p.inputs {
			id, _ := topology.ResolveInput(raw, valid)
			g.Edges = append(g.Edges, topology.Edge{From: id, To: topology.ComponentKey(p.key)})
		}
	}
	for _, p := range sinks {
		for _, raw := range p.inputs {
			id, _ := topology.ResolveInput(raw, valid)
			g.Edges = append(g.Edges, topology.Edge{From: id, To: topology.ComponentKey(p.key)})
		}
	}

	return g
}

func sourceType(s SourceSpec) topology.DataType {
	if desc, ok := builtinSourceTypes[s.Type]; ok {
		return desc.SourceType
	}
	return topology.DataTypeAny
}

func sinkType(s SinkSpec) topology.DataType {
	if desc, ok := builtinSinkTypes[s.Type]; ok {
		return desc.SinkType
	}
	return topology.DataTypeAny
}

// ValidateComponentTypes reports every component whose "type" field names
// something this binary doesn't implement. This is a shape-stage concern
// (is the document even well-formed enough to build a graph from), not the
// resource-exclusion stage — see ValidateResourceConflicts for that.
func ValidateComponentTypes(doc *Document) []error {
	var msgs []string
	for name, s := range doc.Sources {
		if _, ok := builtinSourceTypes[s.Type]; !ok {
			msgs = append(msgs, "source \""+name+"\" has unknown type \""+s.Type+"\"")
		}
	}
	for name, tr := range doc.Transforms {
		if _, ok := builtinTransformTypes[tr.Type]; !ok {
			msgs = append(msgs, "transform \""+name+"\" has unknown type \""+tr.Type+"\"")
		}
	}
	for name, sk := range doc.Sinks {
		if _, ok := builtinSinkTypes[sk.Type]; !ok {
			msgs = append(msgs, "sink \""+name+"\" has unknown type \""+sk.Type+"\"")
		}
	}
	return toErrors(corerr.KindConfigShape, msgs)
}

// ValidateResourceConflicts implements spec.md §4.6 stage 3 ("resource
// exclusion"): two components may not bind the same external resource (TCP
// address today; unix socket path and systemd FD offset are read the same
// way should a future component type expose them). Only component types
// listed in bindResourceDefaultAddr actually bind a listening resource;
// outbound-only clients (redisq, postgres) never collide with each other
// just for pointing at the same address.
func ValidateResourceConflicts(doc *Document) []error {
	claimants := map[string][]string{}

	claim := func(name string, typ string, options map[string]any) {
		def, ok := bindResourceDefaultAddr[typ]
		if !ok {
			return
		}
		resource := resourceKey(options, def)
		claimants[resource] = append(claimants[resource], name)
	}
	for name, s := range doc.Sources {
		claim(name, s.Type, s.Options)
	}
	for name, sk := range doc.Sinks {
		claim(name, sk.Type, sk.Options)
	}

	var msgs []string
	for resource, names := range claimants {
		if len(names) < 2 {
			continue
		}
		sort.Strings(names)
		msgs = append(msgs, fmt.Sprintf("components %s claim the same resource %s", strings.Join(names, ", "), resource))
	}
	return toErrors(corerr.KindConfigResource, msgs)
}

// resourceKey extracts the external resource a component's options claim,
// preferring a unix socket path or systemd FD offset over a TCP address
// when more than one is configured (a component listening on a unix socket
// or an inherited FD typically ignores "addr" entirely).
func resourceKey(options map[string]any, defaultAddr string) string {
	if path, ok := options["socket_path"].(string); ok && path != "" {
		return "unix:" + path
	}
	if fd, ok := options["fd"]; ok {
		return fmt.Sprintf("fd:%v", fd)
	}
	addr, ok := options["addr"].(string)
	if !ok || addr == "" {
		addr = defaultAddr
	}
	return "tcp:" + addr
}

func toErrors(kind corerr.Kind, msgs []string) []error {
	if len(msgs) == 0 {
		return nil
	}
	sort.Strings(msgs)
	out := make([]error, len(msgs))
	for i, m := range msgs {
		out[i] = corerr.New(kind, "%s", m)
	}
	return out
}

// Validate runs every stage of the config builder pipeline in spec.md
// §4.6's order: (1) shape (component type names), (2) input resolution,
// (3) resource exclusion, (4) data-type check, (5) cycle detection —
// stages 2, 4 and 5 read the same built graph. Every stage's errors are
// collected; later stages still run even if an earlier one failed, except
// that TypeCheck is skipped once a cycle is found (a cyclic graph has no
// well-defined paths to type-check).
func Validate(doc *Document) []error {
	var all []error
	all = append(all, ValidateComponentTypes(doc)...)

	g := BuildGraph(doc)
	all = append(all, g.CheckInputs()...)
	all = append(all, ValidateResourceConflicts(doc)...)
	_, cycleErrs := g.Paths()
	if len(cycleErrs) == 0 {
		all = append(all, g.TypeCheck()...)
	}
	all = append(all, cycleErrs...)
	return all
}
