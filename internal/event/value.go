// Package event defines the pipeline's wire-level data model: a dynamically
// typed Value, the Log/Metric/Trace event kinds built from it, and the
// Event envelope that carries one of them plus delivery metadata.
package event

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Value is the dynamically typed scalar/container value every event field
// is built from. The zero Value is null.
type Value struct {
	kind valueKind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
	arr  []Value
	obj  map[string]Value
}

type valueKind int

const (
	kindNull valueKind = iota
	kindBool
	kindInt
	kindFloat
	kindString
	kindTimestamp
	kindArray
	kindObject
)

func Null() Value                { return Value{kind: kindNull} }
func Bool(b bool) Value          { return Value{kind: kindBool, b: b} }
func Int(i int64) Value          { return Value{kind: kindInt, i: i} }
func Float(f float64) Value      { return Value{kind: kindFloat, f: f} }
func String(s string) Value      { return Value{kind: kindString, s: s} }
func Timestamp(t time.Time) Value { return Value{kind: kindTimestamp, t: t} }
func Array(vs []Value) Value     { return Value{kind: kindArray, arr: vs} }
func Object(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: kindObject, obj: m}
}

func (v Value) IsNull() bool { return v.kind == kindNull }

func (v Value) String() string {
	switch v.kind {
	case kindNull:
		return "null"
	case kindBool:
		return strconv.FormatBool(v.b)
	case kindInt:
		return strconv.FormatInt(v.i, 10)
	case kindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case kindString:
		return v.s
	case kindTimestamp:
		return v.t.Format(time.RFC3339Nano)
	case kindArray:
		parts := make([]string, len(v.arr))
		for i, e := range v.arr {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ",") + "]"
	case kindObject:
		return fmt.Sprintf("%v", v.obj)
	}
	return ""
}

// Get resolves a dotted path ("a.b.c") against an object-kind Value,
// returning (Null{}, false) if any segment is missing or the value at that
// point isn't an object.
func (v Value) Get(path string) (Value, bool) {
	cur := v
	if path == "" {
		return cur, true
	}
	for _, seg := range strings.Split(path, ".") {
		if cur.kind != kindObject {
			return Value{}, false
		}
		next, ok := cur.obj[seg]
		if !ok {
			return Value{}, false
		}
		cur = next
	}
	return cur, true
}

// Set writes val at the dotted path, creating intermediate objects as
// needed. Set only operates on (and produces) object-kind Values.
func (v *Value) Set(path string, val Value) {
	if v.kind != kindObject {
		*v = Object(nil)
	}
	segs := strings.Split(path, ".")
	cur := v.obj
	for i, seg := range segs {
		if i == len(segs)-1 {
			cur[seg] = val
			return
		}
		next, ok := cur[seg]
		if !ok || next.kind != kindObject {
			next = Object(nil)
			cur[seg] = next
		}
		cur = next.obj
	}
}

// Remove deletes the field at the dotted path, if present.
func (v *Value) Remove(path string) {
	if v.kind != kindObject {
		return
	}
	segs := strings.Split(path, ".")
	cur := v.obj
	for i, seg := range segs {
		if i == len(segs)-1 {
			delete(cur, seg)
			return
		}
		next, ok := cur[seg]
		if !ok || next.kind != kindObject {
			return
		}
		cur = next.obj
	}
}

// AsObjectMap returns the underlying map for an object-kind Value, or nil.
func (v Value) AsObjectMap() map[string]Value {
	if v.kind != kindObject {
		return nil
	}
	return v.obj
}
