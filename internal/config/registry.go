package config

import "github.com/vectordotdev/vector-sub015/internal/topology"

// componentDescriptor is the knowledge the validator and graph builder need
// about a named component type: what data type it produces or accepts.
type componentDescriptor struct {
	SourceType    topology.DataType
	TransformIn   topology.DataType
	TransformOut  topology.DataType
	SinkType      topology.DataType
}

// builtinSourceTypes, builtinTransformTypes and builtinSinkTypes describe
// every component type this repo actually ships (see internal/sources,
// internal/transforms, internal/sinks). An unknown type name in the
// document is a shape-stage error — "doesn't match any components" is
// reserved for bad input routing, so ValidateComponentTypes reports it
// distinctly, under the ConfigShape kind.
var (
	builtinSourceTypes = map[string]componentDescriptor{
		"webhook": {SourceType: topology.DataTypeLog},
	}

	builtinTransformTypes = map[string]componentDescriptor{
		"noop":  {TransformIn: topology.DataTypeAny, TransformOut: topology.DataTypeAny},
		"route": {TransformIn: topology.DataTypeAny, TransformOut: topology.DataTypeAny},
	}

	builtinSinkTypes = map[string]componentDescriptor{
		"redisq":   {SinkType: topology.DataTypeAny},
		"postgres": {SinkType: topology.DataTypeLog},
		"wstap":    {SinkType: topology.DataTypeAny},
	}
)

// bindResourceDefaultAddr lists the component types that bind a listening
// external resource (as opposed to redisq/postgres, which only dial out),
// and the "addr" each falls back to when a component omits it, mirroring
// the concrete package's own DefaultConfig. Only these types participate in
// ValidateResourceConflicts — an outbound client reusing an address with
// another outbound client is not a conflict.
var bindResourceDefaultAddr = map[string]string{
	"webhook": ":8181",
	"wstap":   ":8282",
}
