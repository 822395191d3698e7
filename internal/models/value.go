// internal/models/value.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
)

// Kind enumerates the shapes a record field can take.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindInteger
	KindFloat
	KindBool
	KindList
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "null"
	}
}

// Value is a closed variant for graph record fields. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
	list []Value
	m    map[string]Value
}

func Null() Value { return Value{} }

func String(s string) Value { return Value{kind: KindString, s: s} }

func Integer(i int64) Value { return Value{kind: KindInteger, i: i} }

func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

func List(items ...Value) Value { return Value{kind: KindList, list: items} }

func Map(m map[string]Value) Value { return Value{kind: KindMap, m: m} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool { return v.kind == KindNull }

func (v Value) Items() []Value { return v.list }

func (v Value) Fields() map[string]Value { return v.m }

// Str returns the string payload, or "" for non-strings.
func (v Value) Str() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}

// Int returns integer and float payloads as int64, 0 otherwise.
func (v Value) Int() int64 {
	switch v.kind {
	case KindInteger:
		return v.i
	case KindFloat:
		return int64(v.f)
	default:
		return 0
	}
}

func (v Value) Number() float64 {
	switch v.kind {
	case KindInteger:
		return float64(v.i)
	case KindFloat:
		return v.f
	default:
		return 0
	}
}

func (v Value) Truthy() bool {
	return v.kind == KindBool && v.b
}

// Field returns the named map entry, or null.
func (v Value) Field(key string) Value {
	if v.kind != KindMap {
		return Null()
	}
	return v.m[key]
}

// Native converts the value to plain Go values suitable for encoding/json.
// Non-finite floats become strings since JSON cannot carry them.
func (v Value) Native() interface{} {
	switch v.kind {
	case KindString:
		return v.s
	case KindInteger:
		return v.i
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return strconv.FormatFloat(v.f, 'g', -1, 64)
		}
		return v.f
	case KindBool:
		return v.b
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, item := range v.list {
			out[i] = item.Native()
		}
		return out
	case KindMap:
		out := make(map[string]interface{}, len(v.m))
		for k, item := range v.m {
			out[k] = item.Native()
		}
		return out
	default:
		return nil
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Native())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// String renders the value for prompts and log lines. Maps print with sorted keys.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindString:
		return v.s
	case KindInteger:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(item.String())
		}
		buf.WriteByte(']')
		return buf.String()
	default:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(k)
			buf.WriteString(": ")
			buf.WriteString(v.m[k].String())
		}
		buf.WriteByte('}')
		return buf.String()
	}
}

// FromAny converts plain Go values (as produced by encoding/json or a driver record) into a
// Value. Unknown types are rendered with fmt and kept as strings.
func FromAny(x interface{}) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Integer(int64(t))
	case int8:
		return Integer(int64(t))
	case int16:
		return Integer(int64(t))
	case int32:
		return Integer(int64(t))
	case int64:
		return Integer(t)
	case uint8:
		return Integer(int64(t))
	case uint16:
		return Integer(int64(t))
	case uint32:
		return Integer(int64(t))
	case float32:
		return Float(float64(t))
	case float64:
		return Float(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Integer(i)
		}
		if f, err := t.Float64(); err == nil {
			return Float(f)
		}
		return String(t.String())
	case []byte:
		return String(string(t))
	case []string:
		items := make([]Value, len(t))
		for i, s := range t {
			items[i] = String(s)
		}
		return List(items...)
	case []interface{}:
		items := make([]Value, len(t))
		for i, item := range t {
			items[i] = FromAny(item)
		}
		return List(items...)
	case map[string]interface{}:
		m := make(map[string]Value, len(t))
		for k, item := range t {
			m[k] = FromAny(item)
		}
		return Map(m)
	case fmt.Stringer:
		return String(t.String())
	default:
		return String(fmt.Sprintf("%v", t))
	}
}

// Record is one materialized result row.
type Record map[string]Value

// ExecutionResult is the fully materialized outcome of one statement.
type ExecutionResult struct {
	Records []Record `json:"results"`
	Count   int      `json:"count"`
}

// NewExecutionResult keeps Count in step with the records.
func NewExecutionResult(records []Record) ExecutionResult {
	if records == nil {
		records = []Record{}
	}
	return ExecutionResult{Records: records, Count: len(records)}
}

// Sample returns at most n leading records.
func (r ExecutionResult) Sample(n int) []Record {
	if n < 0 {
		n = 0
	}
	if len(r.Records) <= n {
		return r.Records
	}
	return r.Records[:n]
}
