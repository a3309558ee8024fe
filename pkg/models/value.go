// Package models defines the shared data shapes used across the memory,
// cache, session, and audit subsystems.
package models

import (
	"encoding/json"
	"fmt"
)

// ValueKind tags the variant stored in a Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindBytes
	KindList
	KindMap
)

// Value is a tagged variant matching spec's MemoryItem content/metadata
// shape: string | number | bool | bytes | list<Value> | map<string,Value>.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Bin  []byte
	List []Value
	Map  map[string]Value
}

func NewString(s string) Value        { return Value{Kind: KindString, Str: s} }
func NewNumber(n float64) Value       { return Value{Kind: KindNumber, Num: n} }
func NewBool(b bool) Value            { return Value{Kind: KindBool, Bool: b} }
func NewBytes(b []byte) Value         { return Value{Kind: KindBytes, Bin: b} }
func NewList(v []Value) Value         { return Value{Kind: KindList, List: v} }
func NewMap(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }

// jsonValue is the wire shape used to (de)serialize a Value without
// leaking the Kind enum's numeric representation into persisted JSON.
type jsonValue struct {
	Type string           `json:"type"`
	S    string           `json:"s,omitempty"`
	N    float64          `json:"n,omitempty"`
	B    bool             `json:"b,omitempty"`
	Bin  []byte           `json:"bin,omitempty"`
	List []Value          `json:"list,omitempty"`
	Map  map[string]Value `json:"map,omitempty"`
}

func (v Value) MarshalJSON() ([]byte, error) {
	jv := jsonValue{}
	switch v.Kind {
	case KindNull:
		jv.Type = "null"
	case KindString:
		jv.Type, jv.S = "string", v.Str
	case KindNumber:
		jv.Type, jv.N = "number", v.Num
	case KindBool:
		jv.Type, jv.B = "bool", v.Bool
	case KindBytes:
		jv.Type, jv.Bin = "bytes", v.Bin
	case KindList:
		jv.Type, jv.List = "list", v.List
	case KindMap:
		jv.Type, jv.Map = "map", v.Map
	default:
		return nil, fmt.Errorf("models: unknown value kind %d", v.Kind)
	}
	return json.Marshal(jv)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	switch jv.Type {
	case "", "null":
		*v = Value{Kind: KindNull}
	case "string":
		*v = Value{Kind: KindString, Str: jv.S}
	case "number":
		*v = Value{Kind: KindNumber, Num: jv.N}
	case "bool":
		*v = Value{Kind: KindBool, Bool: jv.B}
	case "bytes":
		*v = Value{Kind: KindBytes, Bin: jv.Bin}
	case "list":
		*v = Value{Kind: KindList, List: jv.List}
	case "map":
		*v = Value{Kind: KindMap, Map: jv.Map}
	default:
		return fmt.Errorf("models: unknown value type %q", jv.Type)
	}
	return nil
}
