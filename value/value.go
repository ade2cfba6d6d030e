// Package value defines the values formulas compute with: numbers, booleans, strings, and null.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type ConversionError struct {
	message string
}

func newConversionError(message string) *ConversionError {
	return &ConversionError{
		message: message,
	}
}

func (e *ConversionError) Error() string {
	return e.message
}

var (
	ErrNumberConversion  = newConversionError("cannot convert to a number")
	ErrBooleanConversion = newConversionError("cannot convert to a boolean")
	ErrUnsupportedType   = newConversionError("unsupported host type")
)

type Kind int

const (
	KindNull Kind = iota
	KindNumber
	KindBoolean
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindString:
		return "string"
	}
	return "null"
}

// Value is an immutable tagged value. The zero value is null.
type Value struct {
	kind Kind
	num  float64
	b    bool
	str  string
}

var Null = Value{}

func Number(v float64) Value {
	return Value{
		kind: KindNumber,
		num:  v,
	}
}

func Boolean(v bool) Value {
	return Value{
		kind: KindBoolean,
		b:    v,
	}
}

func String(v string) Value {
	return Value{
		kind: KindString,
		str:  v,
	}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

// ToNumber converts a value to a number. A boolean is 1 or 0, and a string must be a decimal number.
func (v Value) ToNumber() (float64, error) {
	switch v.kind {
	case KindNumber:
		return v.num, nil
	case KindBoolean:
		if v.b {
			return 1, nil
		}
		return 0, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNumberConversion, v.str)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: null", ErrNumberConversion)
}

// ToBoolean converts a value to a boolean. A number is true unless it is 0, and a string must be `true` or
// `false` in any case.
func (v Value) ToBoolean() (bool, error) {
	switch v.kind {
	case KindBoolean:
		return v.b, nil
	case KindNumber:
		return v.num != 0, nil
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.str)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return false, fmt.Errorf("%w: %q", ErrBooleanConversion, v.str)
	}
	return false, fmt.Errorf("%w: null", ErrBooleanConversion)
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.str
	}
	return "null"
}

// FormatNumber prints integral numbers without a fraction and other numbers in the shortest form that
// reads back as the same float64.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Equal compares two values. Values of different kinds are compared as numbers when both convert.
func Equal(a, b Value) bool {
	if a.kind == b.kind {
		return a == b
	}
	if a.kind == KindNull || b.kind == KindNull {
		return false
	}
	x, err := a.ToNumber()
	if err != nil {
		return false
	}
	y, err := b.ToNumber()
	if err != nil {
		return false
	}
	return x == y
}

// Interface returns the host value: float64, bool, string, or nil.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBoolean:
		return v.b
	case KindString:
		return v.str
	}
	return nil
}

// FromAny converts a host value into a value.
func FromAny(x interface{}) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Null, nil
	case Value:
		return x, nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int8:
		return Number(float64(x)), nil
	case int16:
		return Number(float64(x)), nil
	case int32:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case uint:
		return Number(float64(x)), nil
	case uint8:
		return Number(float64(x)), nil
	case uint16:
		return Number(float64(x)), nil
	case uint32:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case bool:
		return Boolean(x), nil
	case string:
		return String(x), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Null, fmt.Errorf("%w: %q", ErrNumberConversion, x.String())
		}
		return Number(f), nil
	}
	return Null, fmt.Errorf("%w: %T", ErrUnsupportedType, x)
}

// FromMap converts a map of host values.
func FromMap(m map[string]interface{}) (map[string]Value, error) {
	vars := make(map[string]Value, len(m))
	for k, x := range m {
		v, err := FromAny(x)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", k, err)
		}
		vars[k] = v
	}
	return vars, nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var x interface{}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&x); err != nil {
		return err
	}
	conv, err := FromAny(x)
	if err != nil {
		return err
	}
	*v = conv
	return nil
}
