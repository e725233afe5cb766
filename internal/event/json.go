package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireValue is the on-the-wire JSON shape for Value, used for disk-buffer
// persistence and any sink that serializes events as JSON.
type wireValue struct {
	Kind string          `json:"kind"`
	Bool bool            `json:"bool,omitempty"`
	Int  int64           `json:"int,omitempty"`
	Float float64        `json:"float,omitempty"`
	Str  string          `json:"str,omitempty"`
	Time time.Time       `json:"time,omitempty"`
	Arr  []wireValue     `json:"arr,omitempty"`
	Obj  map[string]wireValue `json:"obj,omitempty"`
}

func (v Value) toWire() wireValue {
	switch v.kind {
	case kindNull:
		return wireValue{Kind: "null"}
	case kindBool:
		return wireValue{Kind: "bool", Bool: v.b}
	case kindInt:
		return wireValue{Kind: "int", Int: v.i}
	case kindFloat:
		return wireValue{Kind: "float", Float: v.f}
	case kindString:
		return wireValue{Kind: "string", Str: v.s}
	case kindTimestamp:
		return wireValue{Kind: "timestamp", Time: v.t}
	case kindArray:
		arr := make([]wireValue, len(v.arr))
		for i, e := range v.arr {
			arr[i] = e.toWire()
		}
		return wireValue{Kind: "array", Arr: arr}
	case kindObject:
		obj := make(map[string]wireValue, len(v.obj))
		for k, e := range v.obj {
			obj[k] = e.toWire()
		}
		return wireValue{Kind: "object", Obj: obj}
	}
	return wireValue{Kind: "null"}
}

func fromWire(w wireValue) (Value, error) {
	switch w.Kind {
	case "", "null":
		return Null(), nil
	case "bool":
		return Bool(w.Bool), nil
	case "int":
		return Int(w.Int), nil
	case "float":
		return Float(w.Float), nil
	case "string":
		return String(w.Str), nil
	case "timestamp":
		return Timestamp(w.Time), nil
	case "array":
		out := make([]Value, len(w.Arr))
		for i, e := range w.Arr {
			v, err := fromWire(e)
			if err != nil {
				return Value{}, err
			}
			out[i] = v
		}
		return Array(out), nil
	case "object":
		out := make(map[string]Value, len(w.Obj))
		for k, e := range w.Obj {
			v, err := fromWire(e)
			if err != nil {
				return Value{}, err
			}
			out[k] = v
		}
		return Object(out), nil
	default:
		return Value{}, fmt.Errorf("event: unknown value kind %q", w.Kind)
	}
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toWire())
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	parsed, err := fromWire(w)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
