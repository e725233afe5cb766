// Package config loads the pipeline's configuration document and runs it
// through the multi-stage validation pipeline (shape, resolve, resource,
// type, cycle) before any component is built, and hosts the reload
// coordinator that re-runs that pipeline on a live topology when the
// document changes.
package config

import (
	"github.com/vectordotdev/vector-sub015/internal/topology"
)

// SourceSpec is one configured source component.
type SourceSpec struct {
	Type string         `mapstructure:"type" validate:"required"`
	Kind topology.DataType `mapstructure:"-"`
	Options map[string]any `mapstructure:",remain"`
}

// TransformSpec is one configured transform component.
type TransformSpec struct {
	Type         string            `mapstructure:"type" validate:"required"`
	Inputs       []string          `mapstructure:"inputs" validate:"required,min=1"`
	InputType    topology.DataType `mapstructure:"-"`
	OutputType   topology.DataType `mapstructure:"-"`
	NamedOutputs []string          `mapstructure:"named_outputs"`
	Options      map[string]any    `mapstructure:",remain"`
}

// SinkSpec is one configured sink component.
type SinkSpec struct {
	Type    string         `mapstructure:"type" validate:"required"`
	Inputs  []string       `mapstructure:"inputs" validate:"required,min=1"`
	Kind    topology.DataType `mapstructure:"-"`
	Options map[string]any `mapstructure:",remain"`
}

// EnrichmentTableSpec is one configured enrichment table.
type EnrichmentTableSpec struct {
	Type    string         `mapstructure:"type" validate:"required"`
	Options map[string]any `mapstructure:",remain"`
}

// Document is the fully parsed configuration, independent of how it was
// loaded (file, env, reload diff).
type Document struct {
	DataDir          string                         `mapstructure:"data_dir"`
	Sources          map[string]SourceSpec          `mapstructure:"sources"`
	Transforms       map[string]TransformSpec       `mapstructure:"transforms"`
	Sinks            map[string]SinkSpec            `mapstructure:"sinks"`
	EnrichmentTables map[string]EnrichmentTableSpec `mapstructure:"enrichment_tables"`
}

// Hash returns a stable content hash of the document, used by the reload
// coordinator to short-circuit a SIGHUP that changed nothing on disk.
func (d *Document) Hash() string {
	return hashDocument(d)
}
