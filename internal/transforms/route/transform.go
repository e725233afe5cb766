// Package route implements a named-output router: each configured route
// tests a field equality condition against the incoming log event and
// sends matching events to the route's named output port; an event
// matching no route is dropped unless a "_unmatched" port is configured
// to receive it, mirroring a routing transform's typical fallthrough.
package route

import "github.com/vectordotdev/vector-sub015/internal/event"

// Rule is one named output's match condition.
type Rule struct {
	Output string
	Field  string
	Equals string
}

type Transform struct {
	rules []Rule
}

// New builds a Transform from the "routes" option, a list of
// {output, field, equals} maps.
func New(name string, options map[string]any) (*Transform, error) {
	var rules []Rule
	raw, _ := options["routes"].([]any)
	for _, r := range raw {
		m, ok := r.(map[string]any)
		if !ok {
			continue
		}
		output, _ := m["output"].(string)
		field, _ := m["field"].(string)
		equals, _ := m["equals"].(string)
		rules = append(rules, Rule{Output: output, Field: field, Equals: equals})
	}
	return &Transform{rules: rules}, nil
}

func (t *Transform) Process(ev event.Event) map[string][]event.Event {
	out := map[string][]event.Event{}
	if ev.Log == nil {
		out[""] = []event.Event{ev}
		return out
	}
	matched := false
	for _, r := range t.rules {
		v, ok := ev.Log.Fields.Get(r.Field)
		if ok && v.String() == r.Equals {
			out[r.Output] = append(out[r.Output], ev)
			matched = true
		}
	}
	if !matched {
		out["_unmatched"] = []event.Event{ev}
	}
	return out
}
