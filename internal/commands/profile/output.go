package profile

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/blacktop/provinfo/internal/colors"
	"github.com/blacktop/provinfo/pkg/provision"
	"gopkg.in/yaml.v3"
)

// OutputCertificate is a Certificate with its fingerprints rendered as hex.
type OutputCertificate struct {
	FingerprintSHA1        *string    `json:"fingerprint_sha1,omitempty"`
	FingerprintSHA256      *string    `json:"fingerprint_sha256,omitempty"`
	Issuer                 *string    `json:"issuer,omitempty"`
	KeyID                  []byte     `json:"key_id,omitempty"`
	NotValidAfter          *time.Time `json:"not_valid_after,omitempty"`
	NotValidBefore         *time.Time `json:"not_valid_before,omitempty"`
	OrganizationName       *string    `json:"organization_name,omitempty"`
	OrganizationalUnitName *string    `json:"organizational_unit_name,omitempty"`
	SubjectName            *string    `json:"subject_name,omitempty"`
	Summary                string     `json:"summary"`
	X509Serial             *string    `json:"x509_serial,omitempty"`
}

// Output is the structured form of the info command.
type Output struct {
	Path         string              `json:"path,omitempty"`
	Profile      *provision.Profile  `json:"profile"`
	Certificates []OutputCertificate `json:"certificates"`
	Signers      []OutputCertificate `json:"signers,omitempty"`
}

// NewOutput builds the structured form of p and its certificates.
func NewOutput(p *provision.Profile, certs []*provision.Certificate) *Output {
	out := &Output{
		Profile:      p,
		Certificates: make([]OutputCertificate, 0, len(certs)),
	}
	for _, c := range certs {
		out.Certificates = append(out.Certificates, NewOutputCertificate(c))
	}
	return out
}

// NewOutputCertificate converts c for structured output.
func NewOutputCertificate(c *provision.Certificate) OutputCertificate {
	return OutputCertificate{
		FingerprintSHA1:        hexified(c.FingerprintSHA1),
		FingerprintSHA256:      hexified(c.FingerprintSHA256),
		Issuer:                 c.Issuer,
		KeyID:                  c.KeyID,
		NotValidAfter:          c.NotValidAfter,
		NotValidBefore:         c.NotValidBefore,
		OrganizationName:       c.OrganizationName,
		OrganizationalUnitName: c.OrganizationalUnitName,
		SubjectName:            c.SubjectName,
		Summary:                c.Summary,
		X509Serial:             c.X509Serial,
	}
}

func hexified(data []byte) *string {
	if data == nil {
		return nil
	}
	s := provision.Hexify(data)
	return &s
}

// JSON encodes v as indented JSON.
func JSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json: %v", err)
	}
	return data, nil
}

// YAML encodes v as YAML using its JSON field names.
func YAML(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal json: %v", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("failed to convert json to yaml: %v", err)
	}
	blockStyle(&node)
	out, err := yaml.Marshal(&node)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal yaml: %v", err)
	}
	return out, nil
}

// blockStyle drops the flow and quoting styles JSON input leaves on every
// node; the encoder still quotes strings that would resolve to another type.
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

// PrintJSON writes JSON data to w, highlighted when color is enabled.
func PrintJSON(w io.Writer, data []byte) error {
	if colors.Enabled() {
		if err := quick.Highlight(w, string(data)+"\n", "json", "terminal256", "nord"); err != nil {
			return fmt.Errorf("failed to highlight json: %v", err)
		}
		return nil
	}
	_, err := fmt.Fprintln(w, string(data))
	return err
}
