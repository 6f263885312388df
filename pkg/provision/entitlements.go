package provision

import (
	"bytes"
	"fmt"
	"math"
	"time"
)

// Kind identifies an EntitlementValue variant.
type Kind uint8

const (
	KindArray Kind = iota + 1
	KindBoolean
	KindBlob
	KindTimestamp
	KindDictionary
	KindFloat
	KindInteger
	KindNull
	KindString
)

// kindTags are the `type` discriminants written by the tagged encodings.
var kindTags = [...]string{
	KindArray:      "array",
	KindBoolean:    "boolean",
	KindBlob:       "data",
	KindTimestamp:  "date",
	KindDictionary: "dictionary",
	KindFloat:      "double",
	KindInteger:    "integer",
	KindNull:       "null",
	KindString:     "string",
}

func (k Kind) String() string {
	if k == 0 || int(k) >= len(kindTags) {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindTags[k]
}

func kindForTag(tag string) (Kind, bool) {
	for k := KindArray; k <= KindString; k++ {
		if kindTags[k] == tag {
			return k, true
		}
	}
	return 0, false
}

// EntitlementValue is any value that can appear in a property list.
//
// The set of implementations is closed: Array, Boolean, Blob, Timestamp,
// Dictionary, Float, Integer, Null and String.
type EntitlementValue interface {
	Kind() Kind
	entitlementValue()
}

type (
	// Array is an ordered list of values.
	Array []EntitlementValue
	// Boolean is a property list <true/> or <false/>.
	Boolean bool
	// Blob is a property list <data>.
	Blob []byte
	// Timestamp is a property list <date>.
	Timestamp time.Time
	// Dictionary is a nested key-value mapping; key order is insignificant.
	Dictionary map[string]EntitlementValue
	// Float is a property list <real>. Equal treats NaN as equal to NaN.
	Float float64
	// Integer is a property list <integer>.
	Integer int64
	// Null is the absence of a value inside an array or dictionary.
	Null struct{}
	// String is a property list <string>.
	String string
)

func (Array) Kind() Kind      { return KindArray }
func (Boolean) Kind() Kind    { return KindBoolean }
func (Blob) Kind() Kind       { return KindBlob }
func (Timestamp) Kind() Kind  { return KindTimestamp }
func (Dictionary) Kind() Kind { return KindDictionary }
func (Float) Kind() Kind      { return KindFloat }
func (Integer) Kind() Kind    { return KindInteger }
func (Null) Kind() Kind       { return KindNull }
func (String) Kind() Kind     { return KindString }

func (Array) entitlementValue()      {}
func (Boolean) entitlementValue()    {}
func (Blob) entitlementValue()       {}
func (Timestamp) entitlementValue()  {}
func (Dictionary) entitlementValue() {}
func (Float) entitlementValue()      {}
func (Integer) entitlementValue()    {}
func (Null) entitlementValue()       {}
func (String) entitlementValue()     {}

// Time returns the timestamp as a time.Time.
func (t Timestamp) Time() time.Time { return time.Time(t) }

// EntitlementsDictionary holds the entitlements of a profile.
type EntitlementsDictionary map[string]EntitlementValue

// NewEntitlementValue converts an untyped property list value into an EntitlementValue.
//
// Lists and dictionaries are converted recursively. A single value that is not
// representable fails the whole conversion with ErrUnrepresentableValue.
func NewEntitlementValue(v any) (EntitlementValue, error) {
	return newValue(v, "")
}

// NewEntitlementsDictionary converts an untyped dictionary value-wise.
func NewEntitlementsDictionary(dict map[string]any) (EntitlementsDictionary, error) {
	out := make(EntitlementsDictionary, len(dict))
	for key, val := range dict {
		ev, err := newValue(val, key)
		if err != nil {
			return nil, err
		}
		out[key] = ev
	}
	return out, nil
}

func newValue(v any, path string) (EntitlementValue, error) {
	switch t := v.(type) {
	case []any:
		arr := make(Array, 0, len(t))
		for i, elem := range t {
			ev, err := newValue(elem, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, ev)
		}
		return arr, nil
	case bool:
		return Boolean(t), nil
	case []byte:
		return Blob(bytes.Clone(t)), nil
	case time.Time:
		return Timestamp(t), nil
	case map[string]any:
		dict := make(Dictionary, len(t))
		for key, val := range t {
			ev, err := newValue(val, keyPath(path, key))
			if err != nil {
				return nil, err
			}
			dict[key] = ev
		}
		return dict, nil
	case int:
		return Integer(t), nil
	case int8:
		return Integer(t), nil
	case int16:
		return Integer(t), nil
	case int32:
		return Integer(t), nil
	case int64:
		return Integer(t), nil
	case uint:
		return unsignedValue(uint64(t), v, path)
	case uint8:
		return Integer(t), nil
	case uint16:
		return Integer(t), nil
	case uint32:
		return Integer(t), nil
	case uint64:
		return unsignedValue(t, v, path)
	case float32:
		return Float(t), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case nil:
		return Null{}, nil
	default:
		return nil, unrepresentable(v, path)
	}
}

func unsignedValue(u uint64, orig any, path string) (EntitlementValue, error) {
	if u > math.MaxInt64 {
		return nil, unrepresentable(orig, path)
	}
	return Integer(u), nil
}

func unrepresentable(v any, path string) error {
	if path == "" {
		return fmt.Errorf("%w: %T", ErrUnrepresentableValue, v)
	}
	return fmt.Errorf("%w: %T at %q", ErrUnrepresentableValue, v, path)
}

func keyPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

// RawValue converts v back into the untyped representation it was built from.
// Null becomes nil.
func RawValue(v EntitlementValue) any {
	switch t := v.(type) {
	case Array:
		out := make([]any, 0, len(t))
		for _, elem := range t {
			out = append(out, RawValue(elem))
		}
		return out
	case Boolean:
		return bool(t)
	case Blob:
		return []byte(t)
	case Timestamp:
		return time.Time(t)
	case Dictionary:
		out := make(map[string]any, len(t))
		for key, val := range t {
			out[key] = RawValue(val)
		}
		return out
	case Float:
		return float64(t)
	case Integer:
		return int64(t)
	case String:
		return string(t)
	default:
		return nil
	}
}

// RawValue converts the entitlements back into an untyped dictionary.
func (d EntitlementsDictionary) RawValue() map[string]any {
	out := make(map[string]any, len(d))
	for key, val := range d {
		out[key] = RawValue(val)
	}
	return out
}

// PlistValue is RawValue for property list encoders, which have no null.
func (d EntitlementsDictionary) PlistValue() (map[string]any, error) {
	if path, ok := findNull(Dictionary(d), ""); ok {
		return nil, fmt.Errorf("%w: null at %q has no property list representation", ErrUnrepresentableValue, path)
	}
	return d.RawValue(), nil
}

func findNull(v EntitlementValue, path string) (string, bool) {
	switch t := v.(type) {
	case Null:
		return path, true
	case Array:
		for i, elem := range t {
			if p, ok := findNull(elem, indexPath(path, i)); ok {
				return p, true
			}
		}
	case Dictionary:
		for key, val := range t {
			if p, ok := findNull(val, keyPath(path, key)); ok {
				return p, true
			}
		}
	}
	return "", false
}

// Equal reports whether a and b are structurally equal.
func Equal(a, b EntitlementValue) bool {
	switch a := a.(type) {
	case Array:
		b, ok := b.(Array)
		if !ok || len(a) != len(b) {
			return false
		}
		for i := range a {
			if !Equal(a[i], b[i]) {
				return false
			}
		}
		return true
	case Boolean:
		b, ok := b.(Boolean)
		return ok && a == b
	case Blob:
		b, ok := b.(Blob)
		return ok && bytes.Equal(a, b)
	case Timestamp:
		b, ok := b.(Timestamp)
		return ok && time.Time(a).Equal(time.Time(b))
	case Dictionary:
		b, ok := b.(Dictionary)
		return ok && equalMaps(a, b)
	case Float:
		b, ok := b.(Float)
		return ok && (a == b || math.IsNaN(float64(a)) && math.IsNaN(float64(b)))
	case Integer:
		b, ok := b.(Integer)
		return ok && a == b
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		b, ok := b.(String)
		return ok && a == b
	case nil:
		return b == nil
	}
	return false
}

// Equal reports whether d and other hold structurally equal entitlements.
func (d EntitlementsDictionary) Equal(other EntitlementsDictionary) bool {
	return equalMaps(d, other)
}

func equalMaps[M ~map[string]EntitlementValue](a, b M) bool {
	if len(a) != len(b) {
		return false
	}
	for key, av := range a {
		bv, ok := b[key]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}
