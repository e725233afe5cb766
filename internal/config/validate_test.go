package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectordotdev/vector-sub015/internal/corerr"
)

func sampleDoc() *Document {
	return &Document{
		DataDir: "/tmp/vector",
		Sources: map[string]SourceSpec{
			"in": {Type: "webhook"},
		},
		Transforms: map[string]TransformSpec{
			"route": {Type: "route", Inputs: []string{"in"}, NamedOutputs: []string{"errors", "not_errors"}},
		},
		Sinks: map[string]SinkSpec{
			"errors_sink": {Type: "redisq", Inputs: []string{"route.errors"}},
			"ok_sink":     {Type: "wstap", Inputs: []string{"route.not_errors"}},
		},
	}
}

func TestValidateCleanDocument(t *testing.T) {
	errs := Validate(sampleDoc())
	assert.Empty(t, errs)
}

func TestValidateUnknownComponentType(t *testing.T) {
	doc := sampleDoc()
	s := doc.Sinks["errors_sink"]
	s.Type = "carrier-pigeon"
	doc.Sinks["errors_sink"] = s

	errs := Validate(doc)
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if strings.Contains(e.Error(), "unknown type") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateResourceConflict(t *testing.T) {
	doc := sampleDoc()
	doc.Sources["in2"] = SourceSpec{Type: "webhook", Options: map[string]any{"addr": ":8181"}}
	// "in" has no explicit addr, so it falls back to webhook's default
	// (":8181") too — both sources claim the same port.

	errs := Validate(doc)
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if corerr.KindConfigResource.Is(e) && strings.Contains(e.Error(), "claim the same resource") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidateResourceConflictIgnoresOutboundClients(t *testing.T) {
	doc := sampleDoc()
	doc.Sinks["another_redisq"] = SinkSpec{Type: "redisq", Inputs: []string{"route.errors"}, Options: map[string]any{"addr": "127.0.0.1:6379"}}
	doc.Sinks["errors_sink"] = SinkSpec{Type: "redisq", Inputs: []string{"route.errors"}, Options: map[string]any{"addr": "127.0.0.1:6379"}}

	errs := Validate(doc)
	for _, e := range errs {
		assert.False(t, corerr.KindConfigResource.Is(e), "redisq clients dialing the same address should never be flagged: %v", e)
	}
}

func TestValidateBadInputReference(t *testing.T) {
	doc := sampleDoc()
	s := doc.Sinks["errors_sink"]
	s.Inputs = []string{"route.not_a_real_output"}
	doc.Sinks["errors_sink"] = s

	errs := Validate(doc)
	require.NotEmpty(t, errs)
	found := false
	for _, e := range errs {
		if strings.Contains(e.Error(), "doesn't match any components") {
			found = true
		}
	}
	assert.True(t, found)
}
