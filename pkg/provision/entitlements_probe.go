package provision

import (
	"encoding/json"
)

// ProbeJSON decodes an untagged JSON value by probing its shape.
//
// Containers are tried first (dictionary, then array), then each leaf kind
// in a fixed order: boolean, blob, integer, float, string, and finally an
// explicit null. The first successful attempt wins.
//
// Probing is best effort for leaf kinds. An integral Float, which JSON writes
// as e.g. 5, comes back as Integer. Any string that happens to be valid
// standard base64 (e.g. "test") comes back as Blob, and timestamps come back
// as String. Use the tagged encoding when the exact kind matters.
func ProbeJSON(data []byte) (EntitlementValue, error) {
	return probeJSON(data, "")
}

// ProbeEntitlementsJSON decodes an untagged JSON object of entitlements.
func ProbeEntitlementsJSON(data []byte) (EntitlementsDictionary, error) {
	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil || members == nil {
		return nil, decodeError("", "entitlements are not a JSON object")
	}
	dict := make(EntitlementsDictionary, len(members))
	for key, raw := range members {
		ev, err := probeJSON(raw, key)
		if err != nil {
			return nil, err
		}
		dict[key] = ev
	}
	return dict, nil
}

func probeJSON(raw []byte, path string) (EntitlementValue, error) {
	// encoding/json treats null as a no-op for every target type, so it has
	// to be excluded from the attempts explicitly.
	null := jsonCodec{}.isNull(raw)

	if !null {
		var members map[string]json.RawMessage
		if err := json.Unmarshal(raw, &members); err == nil {
			dict := make(Dictionary, len(members))
			for key, member := range members {
				ev, err := probeJSON(member, keyPath(path, key))
				if err != nil {
					return nil, err
				}
				dict[key] = ev
			}
			return dict, nil
		}

		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err == nil {
			arr := make(Array, 0, len(elems))
			for i, elem := range elems {
				ev, err := probeJSON(elem, indexPath(path, i))
				if err != nil {
					return nil, err
				}
				arr = append(arr, ev)
			}
			return arr, nil
		}

		var b bool
		if err := json.Unmarshal(raw, &b); err == nil {
			return Boolean(b), nil
		}
		var blob []byte
		if err := json.Unmarshal(raw, &blob); err == nil {
			if blob == nil {
				blob = []byte{}
			}
			return Blob(blob), nil
		}
		var i int64
		if err := json.Unmarshal(raw, &i); err == nil {
			return Integer(i), nil
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return Float(f), nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return String(s), nil
		}
	}

	if null {
		return Null{}, nil
	}
	return nil, decodeError(path, "value matches no entitlement kind")
}
