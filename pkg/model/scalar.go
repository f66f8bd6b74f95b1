// pkg/model/scalar.go
package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the concrete type carried by a Scalar
type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindText
	KindTime
	KindBool
)

// String returns a string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	case KindTime:
		return "time"
	case KindBool:
		return "bool"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Scalar is a loosely-typed cell value. The zero value is null.
// Coercion between kinds never fails loudly: every coercer returns
// the null scalar when the value cannot be represented in the target
// kind, so bad cells degrade instead of aborting a run.
type Scalar struct {
	kind Kind
	i    int64
	f    float64
	s    string
	t    time.Time
	b    bool
}

// Null returns the null scalar
func Null() Scalar { return Scalar{} }

// Int wraps an integer value
func Int(v int64) Scalar { return Scalar{kind: KindInt, i: v} }

// Float wraps a floating point value
func Float(v float64) Scalar { return Scalar{kind: KindFloat, f: v} }

// Text wraps a string value
func Text(v string) Scalar { return Scalar{kind: KindText, s: v} }

// Time wraps a timestamp value
func Time(v time.Time) Scalar { return Scalar{kind: KindTime, t: v} }

// Bool wraps a boolean value
func Bool(v bool) Scalar { return Scalar{kind: KindBool, b: v} }

// Kind returns the kind tag of the scalar
func (s Scalar) Kind() Kind { return s.kind }

// IsNull reports whether the scalar is null
func (s Scalar) IsNull() bool { return s.kind == KindNull }

// IntValue returns the integer payload if the scalar is an int
func (s Scalar) IntValue() (int64, bool) {
	if s.kind != KindInt {
		return 0, false
	}
	return s.i, true
}

// FloatValue returns the numeric payload as float64 for int and float scalars
func (s Scalar) FloatValue() (float64, bool) {
	switch s.kind {
	case KindInt:
		return float64(s.i), true
	case KindFloat:
		return s.f, true
	default:
		return 0, false
	}
}

// TextValue returns the string payload if the scalar is text
func (s Scalar) TextValue() (string, bool) {
	if s.kind != KindText {
		return "", false
	}
	return s.s, true
}

// TimeValue returns the timestamp payload if the scalar is a time
func (s Scalar) TimeValue() (time.Time, bool) {
	if s.kind != KindTime {
		return time.Time{}, false
	}
	return s.t, true
}

// BoolValue returns the boolean payload if the scalar is a bool
func (s Scalar) BoolValue() (bool, bool) {
	if s.kind != KindBool {
		return false, false
	}
	return s.b, true
}

// Equal reports whether two scalars have the same kind and payload
func (s Scalar) Equal(other Scalar) bool {
	if s.kind != other.kind {
		return false
	}
	switch s.kind {
	case KindNull:
		return true
	case KindInt:
		return s.i == other.i
	case KindFloat:
		return s.f == other.f
	case KindText:
		return s.s == other.s
	case KindTime:
		return s.t.Equal(other.t)
	case KindBool:
		return s.b == other.b
	}
	return false
}

// String renders the scalar for CSV output and logs. Null renders as the
// empty string. Date-only timestamps render without a clock component.
func (s Scalar) String() string {
	switch s.kind {
	case KindNull:
		return ""
	case KindInt:
		return strconv.FormatInt(s.i, 10)
	case KindFloat:
		return formatFloat(s.f)
	case KindText:
		return s.s
	case KindTime:
		return formatTime(s.t)
	case KindBool:
		return strconv.FormatBool(s.b)
	}
	return ""
}

// Native unwraps the scalar to a plain Go value suitable for document
// encoding: nil, int64, float64, string, or bool. Timestamps are rendered
// as strings so downstream stores receive plain scalars only.
func (s Scalar) Native() interface{} {
	switch s.kind {
	case KindInt:
		return s.i
	case KindFloat:
		return s.f
	case KindText:
		return s.s
	case KindTime:
		return formatTime(s.t)
	case KindBool:
		return s.b
	default:
		return nil
	}
}

// formatFloat keeps a decimal point on whole floats so serialized columns
// stay recognizably floating point after a CSV round trip
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// CoerceInt coerces a scalar to an integer, returning null on failure.
// Floats truncate toward zero, matching string-parse behavior for
// values like "12.0".
func CoerceInt(s Scalar) Scalar {
	switch s.kind {
	case KindInt:
		return s
	case KindFloat:
		return Int(int64(s.f))
	case KindText:
		v := strings.TrimSpace(s.s)
		if v == "" {
			return Null()
		}
		if iv, err := strconv.ParseInt(v, 10, 64); err == nil {
			return Int(iv)
		}
		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			return Int(int64(fv))
		}
		return Null()
	case KindBool:
		if s.b {
			return Int(1)
		}
		return Int(0)
	default:
		return Null()
	}
}

// CoerceFloat coerces a scalar to a float, returning null on failure
func CoerceFloat(s Scalar) Scalar {
	switch s.kind {
	case KindInt:
		return Float(float64(s.i))
	case KindFloat:
		return s
	case KindText:
		v := strings.TrimSpace(s.s)
		if v == "" {
			return Null()
		}
		if fv, err := strconv.ParseFloat(v, 64); err == nil {
			return Float(fv)
		}
		return Null()
	case KindBool:
		if s.b {
			return Float(1)
		}
		return Float(0)
	default:
		return Null()
	}
}

// timeLayouts are tried in order when parsing text timestamps
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"2006/01/02",
	time.RFC1123,
	time.RFC1123Z,
}

// CoerceTime coerces a scalar to a timestamp, returning null when no
// known layout matches
func CoerceTime(s Scalar) Scalar {
	switch s.kind {
	case KindTime:
		return s
	case KindText:
		v := strings.TrimSpace(s.s)
		if v == "" {
			return Null()
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return Time(t)
			}
		}
		return Null()
	case KindInt:
		// Unix timestamp in seconds
		return Time(time.Unix(s.i, 0).UTC())
	default:
		return Null()
	}
}
