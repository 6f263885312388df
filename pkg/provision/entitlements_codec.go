package provision

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Every variant encodes as {"type": <tag>, "value": <payload>}, with the
// payload omitted for Null. JSON alone cannot tell an integer from a float
// or a blob from a string, the tag can.

type taggedValue struct {
	Type  string `json:"type" cbor:"type" yaml:"type"`
	Value any    `json:"value" cbor:"value" yaml:"value"`
}

type taggedNull struct {
	Type string `json:"type" cbor:"type" yaml:"type"`
}

var cborEncMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Sort: cbor.SortCanonical}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

type wireFormat uint8

const (
	wireJSON wireFormat = iota
	wireCBOR
	wireYAML
)

// tagged returns the encodable form of v. Payloads use the underlying Go
// types so encoders don't recurse back into the variant's own marshaler.
func tagged(v EntitlementValue, wire wireFormat) any {
	tag := v.Kind().String()
	switch t := v.(type) {
	case Array:
		if t == nil {
			t = Array{}
		}
		return taggedValue{Type: tag, Value: []EntitlementValue(t)}
	case Boolean:
		return taggedValue{Type: tag, Value: bool(t)}
	case Blob:
		if wire == wireYAML {
			return taggedValue{Type: tag, Value: base64.StdEncoding.EncodeToString(t)}
		}
		if t == nil {
			t = Blob{}
		}
		return taggedValue{Type: tag, Value: []byte(t)}
	case Timestamp:
		// the cbor encoder writes a zero time.Time as null
		if wire == wireCBOR {
			return taggedValue{Type: tag, Value: time.Time(t).Format(time.RFC3339Nano)}
		}
		return taggedValue{Type: tag, Value: time.Time(t)}
	case Dictionary:
		if t == nil {
			t = Dictionary{}
		}
		return taggedValue{Type: tag, Value: map[string]EntitlementValue(t)}
	case Float:
		if wire == wireJSON {
			if name, ok := nonFiniteName(float64(t)); ok {
				return taggedValue{Type: tag, Value: name}
			}
		}
		return taggedValue{Type: tag, Value: float64(t)}
	case Integer:
		return taggedValue{Type: tag, Value: int64(t)}
	case String:
		return taggedValue{Type: tag, Value: string(t)}
	default:
		return taggedNull{Type: KindNull.String()}
	}
}

func (v Array) MarshalJSON() ([]byte, error)      { return json.Marshal(tagged(v, wireJSON)) }
func (v Boolean) MarshalJSON() ([]byte, error)    { return json.Marshal(tagged(v, wireJSON)) }
func (v Blob) MarshalJSON() ([]byte, error)       { return json.Marshal(tagged(v, wireJSON)) }
func (v Timestamp) MarshalJSON() ([]byte, error)  { return json.Marshal(tagged(v, wireJSON)) }
func (v Dictionary) MarshalJSON() ([]byte, error) { return json.Marshal(tagged(v, wireJSON)) }
func (v Float) MarshalJSON() ([]byte, error)      { return json.Marshal(tagged(v, wireJSON)) }
func (v Integer) MarshalJSON() ([]byte, error)    { return json.Marshal(tagged(v, wireJSON)) }
func (v Null) MarshalJSON() ([]byte, error)       { return json.Marshal(tagged(v, wireJSON)) }
func (v String) MarshalJSON() ([]byte, error)     { return json.Marshal(tagged(v, wireJSON)) }

func (v Array) MarshalCBOR() ([]byte, error)      { return cborEncMode.Marshal(tagged(v, wireCBOR)) }
func (v Boolean) MarshalCBOR() ([]byte, error)    { return cborEncMode.Marshal(tagged(v, wireCBOR)) }
func (v Blob) MarshalCBOR() ([]byte, error)       { return cborEncMode.Marshal(tagged(v, wireCBOR)) }
func (v Timestamp) MarshalCBOR() ([]byte, error)  { return cborEncMode.Marshal(tagged(v, wireCBOR)) }
func (v Dictionary) MarshalCBOR() ([]byte, error) { return cborEncMode.Marshal(tagged(v, wireCBOR)) }
func (v Float) MarshalCBOR() ([]byte, error)      { return cborEncMode.Marshal(tagged(v, wireCBOR)) }
func (v Integer) MarshalCBOR() ([]byte, error)    { return cborEncMode.Marshal(tagged(v, wireCBOR)) }
func (v Null) MarshalCBOR() ([]byte, error)       { return cborEncMode.Marshal(tagged(v, wireCBOR)) }
func (v String) MarshalCBOR() ([]byte, error)     { return cborEncMode.Marshal(tagged(v, wireCBOR)) }

func (v Array) MarshalYAML() (any, error)      { return tagged(v, wireYAML), nil }
func (v Boolean) MarshalYAML() (any, error)    { return tagged(v, wireYAML), nil }
func (v Blob) MarshalYAML() (any, error)       { return tagged(v, wireYAML), nil }
func (v Timestamp) MarshalYAML() (any, error)  { return tagged(v, wireYAML), nil }
func (v Dictionary) MarshalYAML() (any, error) { return tagged(v, wireYAML), nil }
func (v Float) MarshalYAML() (any, error)      { return tagged(v, wireYAML), nil }
func (v Integer) MarshalYAML() (any, error)    { return tagged(v, wireYAML), nil }
func (v Null) MarshalYAML() (any, error)       { return tagged(v, wireYAML), nil }
func (v String) MarshalYAML() (any, error)     { return tagged(v, wireYAML), nil }

// MarshalCBOR encodes the entitlements as a CBOR map of tagged values.
func (d EntitlementsDictionary) MarshalCBOR() ([]byte, error) {
	if d == nil {
		return cborEncMode.Marshal(map[string]EntitlementValue{})
	}
	return cborEncMode.Marshal(map[string]EntitlementValue(d))
}

// UnmarshalJSON decodes a JSON object of tagged values.
func (d *EntitlementsDictionary) UnmarshalJSON(data []byte) error {
	dict, err := decodeTaggedMembers(jsonCodec{}, data)
	if err != nil {
		return err
	}
	*d = dict
	return nil
}

// UnmarshalCBOR decodes a CBOR map of tagged values.
func (d *EntitlementsDictionary) UnmarshalCBOR(data []byte) error {
	dict, err := decodeTaggedMembers(cborCodec{}, data)
	if err != nil {
		return err
	}
	*d = dict
	return nil
}

// DecodeJSON decodes a tagged JSON encoding of an EntitlementValue.
func DecodeJSON(data []byte) (EntitlementValue, error) {
	return decodeTagged(jsonCodec{}, data, "")
}

// DecodeCBOR decodes a tagged CBOR encoding of an EntitlementValue.
func DecodeCBOR(data []byte) (EntitlementValue, error) {
	return decodeTagged(cborCodec{}, data, "")
}

// payloadCodec abstracts the structured format under the tagged decoder.
type payloadCodec interface {
	split(data []byte) (tag *string, payload []byte, err error)
	isNull(payload []byte) bool
	unmarshal(payload []byte, v any) error
	elements(payload []byte) ([][]byte, error)
	members(payload []byte) (map[string][]byte, error)
}

func decodeTaggedMembers(c payloadCodec, data []byte) (EntitlementsDictionary, error) {
	if c.isNull(data) {
		return EntitlementsDictionary{}, nil
	}
	members, err := c.members(data)
	if err != nil {
		return nil, decodeError("", "entitlements are not a dictionary: %v", err)
	}
	dict := make(EntitlementsDictionary, len(members))
	for key, raw := range members {
		ev, err := decodeTagged(c, raw, key)
		if err != nil {
			return nil, err
		}
		dict[key] = ev
	}
	return dict, nil
}

func decodeTagged(c payloadCodec, data []byte, path string) (EntitlementValue, error) {
	tag, payload, err := c.split(data)
	if err != nil {
		return nil, decodeError(path, "%v", err)
	}
	if tag == nil {
		return nil, decodeError(path, "missing type discriminant")
	}
	kind, ok := kindForTag(*tag)
	if !ok {
		return nil, decodeError(path, "unrecognized type discriminant %q", *tag)
	}
	if kind == KindNull {
		return Null{}, nil
	}
	if len(payload) == 0 || c.isNull(payload) {
		return nil, decodeError(path, "missing %s value", kind)
	}

	switch kind {
	case KindArray:
		elems, err := c.elements(payload)
		if err != nil {
			return nil, mismatch(path, kind, err)
		}
		arr := make(Array, 0, len(elems))
		for i, elem := range elems {
			ev, err := decodeTagged(c, elem, indexPath(path, i))
			if err != nil {
				return nil, err
			}
			arr = append(arr, ev)
		}
		return arr, nil
	case KindBoolean:
		var b bool
		if err := c.unmarshal(payload, &b); err != nil {
			return nil, mismatch(path, kind, err)
		}
		return Boolean(b), nil
	case KindBlob:
		var b []byte
		if err := c.unmarshal(payload, &b); err != nil {
			return nil, mismatch(path, kind, err)
		}
		if b == nil {
			b = []byte{}
		}
		return Blob(b), nil
	case KindTimestamp:
		var t time.Time
		if err := c.unmarshal(payload, &t); err != nil {
			return nil, mismatch(path, kind, err)
		}
		return Timestamp(t), nil
	case KindDictionary:
		members, err := c.members(payload)
		if err != nil {
			return nil, mismatch(path, kind, err)
		}
		dict := make(Dictionary, len(members))
		for key, raw := range members {
			ev, err := decodeTagged(c, raw, keyPath(path, key))
			if err != nil {
				return nil, err
			}
			dict[key] = ev
		}
		return dict, nil
	case KindFloat:
		var f float64
		if err := c.unmarshal(payload, &f); err != nil {
			var name string
			if c.unmarshal(payload, &name) != nil {
				return nil, mismatch(path, kind, err)
			}
			nf, ok := parseNonFinite(name)
			if !ok {
				return nil, mismatch(path, kind, err)
			}
			return Float(nf), nil
		}
		return Float(f), nil
	case KindInteger:
		var i int64
		if err := c.unmarshal(payload, &i); err != nil {
			return nil, mismatch(path, kind, err)
		}
		return Integer(i), nil
	default: // KindString
		var s string
		if err := c.unmarshal(payload, &s); err != nil {
			return nil, mismatch(path, kind, err)
		}
		return String(s), nil
	}
}

// JSON has no NaN or infinity, so those doubles travel as strings.
func nonFiniteName(f float64) (string, bool) {
	switch {
	case math.IsNaN(f):
		return "nan", true
	case math.IsInf(f, 1):
		return "inf", true
	case math.IsInf(f, -1):
		return "-inf", true
	}
	return "", false
}

func parseNonFinite(s string) (float64, bool) {
	switch s {
	case "nan":
		return math.NaN(), true
	case "inf":
		return math.Inf(1), true
	case "-inf":
		return math.Inf(-1), true
	}
	return 0, false
}

func decodeError(path, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if path == "" {
		return fmt.Errorf("%w: %s", ErrDecode, msg)
	}
	return fmt.Errorf("%w: at %q: %s", ErrDecode, path, msg)
}

func mismatch(path string, kind Kind, err error) error {
	return decodeError(path, "%s payload mismatch: %v", kind, err)
}

type jsonCodec struct{}

func (jsonCodec) split(data []byte) (*string, []byte, error) {
	var t struct {
		Type  *string         `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, nil, err
	}
	return t.Type, t.Value, nil
}

func (jsonCodec) isNull(payload []byte) bool {
	return bytes.Equal(bytes.TrimSpace(payload), []byte("null"))
}

func (jsonCodec) unmarshal(payload []byte, v any) error {
	return json.Unmarshal(payload, v)
}

func (jsonCodec) elements(payload []byte) ([][]byte, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil, err
	}
	out := make([][]byte, len(raws))
	for i, raw := range raws {
		out[i] = raw
	}
	return out, nil
}

func (jsonCodec) members(payload []byte) (map[string][]byte, error) {
	var raws map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raws); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(raws))
	for key, raw := range raws {
		out[key] = raw
	}
	return out, nil
}

type cborCodec struct{}

func (cborCodec) split(data []byte) (*string, []byte, error) {
	var t struct {
		Type  *string         `cbor:"type"`
		Value cbor.RawMessage `cbor:"value"`
	}
	if err := cbor.Unmarshal(data, &t); err != nil {
		return nil, nil, err
	}
	return t.Type, t.Value, nil
}

func (cborCodec) isNull(payload []byte) bool {
	// 0xf6 is null, 0xf7 is undefined
	return len(payload) == 1 && (payload[0] == 0xf6 || payload[0] == 0xf7)
}

func (cborCodec) unmarshal(payload []byte, v any) error {
	return cbor.Unmarshal(payload, v)
}

func (cborCodec) elements(payload []byte) ([][]byte, error) {
	var raws []cbor.RawMessage
	if err := cbor.Unmarshal(payload, &raws); err != nil {
		return nil, err
	}
	out := make([][]byte, len(raws))
	for i, raw := range raws {
		out[i] = raw
	}
	return out, nil
}

func (cborCodec) members(payload []byte) (map[string][]byte, error) {
	var raws map[string]cbor.RawMessage
	if err := cbor.Unmarshal(payload, &raws); err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(raws))
	for key, raw := range raws {
		out[key] = raw
	}
	return out, nil
}
