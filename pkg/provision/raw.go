package provision

import (
	"bytes"
	"fmt"

	"github.com/blacktop/go-plist"
)

// RawProfile holds the fields of a profile exactly as the property list
// decoder produced them: string, bool, int64, uint64, float32, float64,
// []byte, time.Time, []any, map[string]any or plist.UID values.
//
// It is read-only once decoded; Project is its only consumer.
type RawProfile struct {
	Fields map[string]any
}

// Decoder turns provisioning profile file bytes into a RawProfile.
type Decoder struct {
	opener EnvelopeOpener
}

// NewDecoder returns a Decoder using opener for the envelope stage.
// A nil opener selects the default PKCS#7 backend.
func NewDecoder(opener EnvelopeOpener) *Decoder {
	if opener == nil {
		opener = pkcs7Opener{}
	}
	return &Decoder{opener: opener}
}

// Decode unwraps the signed envelope and parses its content as a property
// list dictionary. Unknown keys are preserved.
func (d *Decoder) Decode(data []byte) (*RawProfile, error) {
	content, err := d.opener.Open(data)
	if err != nil {
		return nil, err
	}
	fields, err := parsePropertyList(content)
	if err != nil {
		return nil, err
	}
	return &RawProfile{Fields: fields}, nil
}

// DecodeRaw decodes data with the default PKCS#7 envelope backend.
func DecodeRaw(data []byte) (*RawProfile, error) {
	return NewDecoder(nil).Decode(data)
}

func parsePropertyList(data []byte) (fields map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			fields, err = nil, fmt.Errorf("%w: %v", ErrStructuralParse, r)
		}
	}()
	// the text format parser reads blank input as an empty dictionary
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: content is empty", ErrStructuralParse)
	}
	var v any
	if _, err := plist.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStructuralParse, err)
	}
	dict, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is %T, not a dictionary", ErrStructuralParse, v)
	}
	return dict, nil
}
