package certs

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"math"
	"time"
)

// ReferenceDate is the epoch of validity values in the attribute dictionary.
var ReferenceDate = time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)

// ErrNoSummary is returned when a certificate has no name suitable for display.
var ErrNoSummary = errors.New("certs: certificate has no subject summary")

// Certificate is a parsed X.509 certificate.
type Certificate struct {
	cert *x509.Certificate
	der  []byte
}

// Parse parses a single DER encoded certificate.
func Parse(der []byte) (*Certificate, error) {
	if len(der) == 0 {
		return nil, errors.New("certs: empty certificate data")
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("certs: failed to parse certificate: %w", err)
	}
	return &Certificate{cert: cert, der: der}, nil
}

// X509 returns the underlying certificate.
func (c *Certificate) X509() *x509.Certificate { return c.cert }

// Summary returns the subject common name, or failing that the first email
// address, organization or organizational unit.
func (c *Certificate) Summary() (string, error) {
	subject := c.cert.Subject
	if subject.CommonName != "" {
		return subject.CommonName, nil
	}
	if len(c.cert.EmailAddresses) > 0 {
		return c.cert.EmailAddresses[0], nil
	}
	for _, atv := range subject.Names {
		if atv.Type.Equal(OIDEmailAddress) {
			if s, ok := atv.Value.(string); ok && s != "" {
				return s, nil
			}
		}
	}
	if len(subject.Organization) > 0 {
		return subject.Organization[0], nil
	}
	if len(subject.OrganizationalUnit) > 0 {
		return subject.OrganizationalUnit[0], nil
	}
	return "", ErrNoSummary
}

// Attributes returns the certificate fields as a dictionary keyed by attribute
// identifier (see the Attr constants). Every entry is a map with a "label"
// and a "value"; composite values are lists of such entries, in certificate
// order.
func (c *Certificate) Attributes() (map[string]any, error) {
	cert := c.cert
	attrs := map[string]any{
		AttrVersion:           entry("Version", int64(cert.Version)),
		AttrSerialNumber:      entry("Serial Number", cert.SerialNumber.String()),
		AttrSignatureAlg:      entry("Signature Algorithm", cert.SignatureAlgorithm.String()),
		AttrIssuerName:        entry("Issuer Name", nameEntries(cert.Issuer)),
		AttrSubjectName:       entry("Subject Name", nameEntries(cert.Subject)),
		AttrValidityNotBefore: entry("Not Valid Before", sinceReference(cert.NotBefore)),
		AttrValidityNotAfter:  entry("Not Valid After", sinceReference(cert.NotAfter)),
	}

	sum1 := sha1.Sum(c.der)
	sum256 := sha256.Sum256(c.der)
	attrs[AttrFingerprints] = entry("Fingerprints", []any{
		entry(LabelSHA256, sum256[:]),
		entry(LabelSHA1, sum1[:]),
	})

	if len(cert.SubjectKeyId) > 0 {
		attrs[AttrSubjectKeyID] = entry("Subject Key Identifier", []any{
			entry(LabelKeyIdentifier, cert.SubjectKeyId),
		})
	}
	if len(cert.AuthorityKeyId) > 0 {
		attrs[AttrAuthorityKeyID] = entry("Authority Key Identifier", []any{
			entry(LabelKeyIdentifier, cert.AuthorityKeyId),
		})
	}
	if cert.KeyUsage != 0 {
		ku := KeyUsage(cert.KeyUsage)
		attrs[AttrKeyUsage] = entry("Key Usage", ku.String())
	}
	if len(cert.ExtKeyUsage) > 0 || len(cert.UnknownExtKeyUsage) > 0 {
		var purposes []any
		for _, eku := range cert.ExtKeyUsage {
			purposes = append(purposes, entry("Purpose", ExtKeyUsage(eku).String()))
		}
		for _, oid := range cert.UnknownExtKeyUsage {
			purposes = append(purposes, entry("Purpose", LookupOID(oid)))
		}
		attrs[AttrExtendedKeyUsage] = entry("Extended Key Usage", purposes)
	}
	if cert.BasicConstraintsValid {
		attrs[AttrBasicConstraints] = entry("Basic Constraints", []any{
			entry("Certificate Authority", cert.IsCA),
		})
	}
	if len(cert.PolicyIdentifiers) > 0 {
		var policies []any
		for _, oid := range cert.PolicyIdentifiers {
			policies = append(policies, entry("Policy Identifier", LookupOID(oid)))
		}
		attrs[AttrCertPolicies] = entry("Certificate Policies", policies)
	}

	// remaining extensions (Apple marker OIDs) keep their raw value
	for _, ext := range cert.Extensions {
		id := ext.Id.String()
		if _, ok := attrs[id]; ok {
			continue
		}
		attrs[id] = map[string]any{
			"label":    LookupOID(ext.Id),
			"critical": ext.Critical,
			"value":    ext.Value,
		}
	}

	return attrs, nil
}

func entry(label string, value any) map[string]any {
	return map[string]any{"label": label, "value": value}
}

func nameEntries(name pkix.Name) []any {
	out := make([]any, 0, len(name.Names))
	for _, atv := range name.Names {
		out = append(out, entry(atv.Type.String(), atv.Value))
	}
	return out
}

// sinceReference avoids time.Duration, which saturates for 9999-12-31 bounds.
func sinceReference(t time.Time) float64 {
	return float64(t.Unix()-ReferenceDate.Unix()) + float64(t.Nanosecond())/1e9
}

// FromReference converts seconds since ReferenceDate back to a UTC time.
func FromReference(secs float64) time.Time {
	whole := math.Floor(secs)
	nsec := int64(math.Round((secs - whole) * 1e9))
	return time.Unix(ReferenceDate.Unix()+int64(whole), nsec).UTC()
}
