// Copyright 2025 the shp-processor authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cell normalizes loosely typed values coming back from a row
// source (database driver, JSON file, CSV file) into a single tagged
// value type, so downstream parsing only ever deals with text.
package cell

import (
	"fmt"
	"math"
	"strconv"
)

type Type int

const (
	Null Type = iota
	Text
	Number
	Other
)

func (t Type) String() string {
	switch t {
	case Null:
		return "null"
	case Text:
		return "text"
	case Number:
		return "number"
	default:
		return "other"
	}
}

// Value is a normalized cell value.  The zero value is a null cell.
type Value struct {
	typ  Type
	text string
	num  float64
	raw  any
}

func (v Value) Type() Type {
	return v.typ
}

func (v Value) IsNull() bool {
	return v.typ == Null
}

// Text returns the textual form of the value.  Numbers are formatted
// with the shortest representation that round-trips; null and
// non-coercible values return the empty string.
func (v Value) Text() string {
	switch v.typ {
	case Text:
		return v.text
	case Number:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	default:
		return ""
	}
}

// Number returns the numeric form of the value and whether it has one.
func (v Value) Number() (float64, bool) {
	if v.typ == Number {
		return v.num, true
	}
	return 0, false
}

// Raw returns the value as it came from the row source.
func (v Value) Raw() any {
	return v.raw
}

func NewText(s string) Value {
	return Value{typ: Text, text: s, raw: s}
}

func NewNumber(f float64) Value {
	return Value{typ: Number, num: f, raw: f}
}

// Normalize converts a raw driver value into a Value.  Byte slices are
// treated as text since MySQL returns string columns as []byte.  Values
// that cannot be coerced are tagged Other, never rejected.
func Normalize(raw any) Value {
	switch val := raw.(type) {
	case nil:
		return Value{raw: raw}
	case string:
		return Value{typ: Text, text: val, raw: raw}
	case []byte:
		return Value{typ: Text, text: string(val), raw: raw}
	case float64:
		return number(val, raw)
	case float32:
		return number(float64(val), raw)
	case int:
		return number(float64(val), raw)
	case int8:
		return number(float64(val), raw)
	case int16:
		return number(float64(val), raw)
	case int32:
		return number(float64(val), raw)
	case int64:
		return number(float64(val), raw)
	case uint:
		return number(float64(val), raw)
	case uint8:
		return number(float64(val), raw)
	case uint16:
		return number(float64(val), raw)
	case uint32:
		return number(float64(val), raw)
	case uint64:
		return number(float64(val), raw)
	case bool:
		if val {
			return Value{typ: Text, text: "true", raw: raw}
		}
		return Value{typ: Text, text: "false", raw: raw}
	case fmt.Stringer:
		return Value{typ: Text, text: val.String(), raw: raw}
	default:
		return Value{typ: Other, raw: raw}
	}
}

func number(f float64, raw any) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{typ: Other, raw: raw}
	}
	return Value{typ: Number, num: f, raw: raw}
}
