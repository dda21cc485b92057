package table

import (
	"math"
	"strconv"

	json "github.com/goccy/go-json"
)

// Kind tags the three shapes a decoded field can take.
type Kind uint8

const (
	Missing Kind = iota
	Int
	Text
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Text:
		return "text"
	default:
		return "missing"
	}
}

// Value is a single cell: an integer, a string, or missing.
// The zero Value is missing.
type Value struct {
	kind Kind
	i    int64
	s    string
}

// Null is the missing value.
var Null Value

func IntOf(n int64) Value   { return Value{kind: Int, i: n} }
func TextOf(s string) Value { return Value{kind: Text, s: s} }

func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == Missing }

// Int returns the integer payload. Text holding a base-10 integer is accepted
// so that keys decoded as strings still compare numerically where needed.
func (v Value) Int() (int64, bool) {
	switch v.kind {
	case Int:
		return v.i, true
	case Text:
		n, err := strconv.ParseInt(v.s, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func (v Value) Text() (string, bool) {
	if v.kind == Text {
		return v.s, true
	}
	return "", false
}

// String renders the value for keys and display; missing renders empty.
func (v Value) String() string {
	switch v.kind {
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Text:
		return v.s
	}
	return ""
}

// Any returns nil, int64 or string.
func (v Value) Any() any {
	switch v.kind {
	case Int:
		return v.i
	case Text:
		return v.s
	}
	return nil
}

func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.i == o.i && v.s == o.s
}

// FromAny converts decoded JSON/msgpack scalars back to a Value. Integral
// floats become Int; anything unrecognised is missing.
func FromAny(x any) Value {
	switch n := x.(type) {
	case nil:
		return Null
	case int:
		return IntOf(int64(n))
	case int8:
		return IntOf(int64(n))
	case int16:
		return IntOf(int64(n))
	case int32:
		return IntOf(int64(n))
	case int64:
		return IntOf(n)
	case uint8:
		return IntOf(int64(n))
	case uint16:
		return IntOf(int64(n))
	case uint32:
		return IntOf(int64(n))
	case uint64:
		if n > math.MaxInt64 {
			return Null
		}
		return IntOf(int64(n))
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return IntOf(int64(n))
		}
		return Null
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return IntOf(i)
		}
		return Null
	case string:
		return TextOf(n)
	}
	return Null
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// Record maps field names to decoded values for one physical record.
type Record map[string]Value

// Get returns the named field, missing when absent.
func (r Record) Get(name string) Value {
	return r[name]
}
