package provision

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/blacktop/provinfo/internal/certs"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"
)

// Certificate is a summary of one developer certificate embedded in a profile.
type Certificate struct {
	FingerprintSHA1        []byte     `json:"fingerprint_sha1,omitempty"`
	FingerprintSHA256      []byte     `json:"fingerprint_sha256,omitempty"`
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

// CertificateParser turns DER bytes into a CertificateHandle.
type CertificateParser interface {
	Parse(der []byte) (CertificateHandle, error)
}

// CertificateHandle is a parsed certificate.
//
// Attributes returns a dictionary keyed by attribute identifier. Composite
// entries have the shape {"label": ..., "value": [{"label": ..., "value": ...}]}.
type CertificateHandle interface {
	Summary() (string, error)
	Attributes() (map[string]any, error)
}

// X509Parser is the default CertificateParser, built on crypto/x509.
type X509Parser struct{}

func (X509Parser) Parse(der []byte) (CertificateHandle, error) {
	c, err := certs.Parse(der)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Extract extracts a Certificate from DER bytes with the default parser.
func Extract(der []byte) (*Certificate, error) {
	return extract(X509Parser{}, der)
}

func extract(parser CertificateParser, der []byte) (*Certificate, error) {
	handle, err := parser.Parse(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCertificateParse, err)
	}
	summary, err := handle.Summary()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSummaryUnavailable, err)
	}
	attrs, err := handle.Attributes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAttributesUnavailable, err)
	}

	sha1Sum, _ := lookupLabeled(attrs, certs.AttrFingerprints, certs.LabelSHA1).([]byte)
	sha256Sum, _ := lookupLabeled(attrs, certs.AttrFingerprints, certs.LabelSHA256).([]byte)
	keyID, _ := lookupLabeled(attrs, certs.AttrAuthorityKeyID, certs.LabelKeyIdentifier).([]byte)

	return &Certificate{
		FingerprintSHA1:        bytes.Clone(sha1Sum),
		FingerprintSHA256:      bytes.Clone(sha256Sum),
		Issuer:                 labeledString(attrs, certs.AttrIssuerName, certs.LabelCommonName),
		KeyID:                  bytes.Clone(keyID),
		NotValidAfter:          referenceTime(topLevelValue(attrs, certs.AttrValidityNotAfter)),
		NotValidBefore:         referenceTime(topLevelValue(attrs, certs.AttrValidityNotBefore)),
		OrganizationName:       labeledString(attrs, certs.AttrSubjectName, certs.LabelOrganization),
		OrganizationalUnitName: labeledString(attrs, certs.AttrSubjectName, certs.LabelOrganizationUnit),
		SubjectName:            labeledString(attrs, certs.AttrSubjectName, certs.LabelCommonName),
		Summary:                summary,
		X509Serial:             asString(topLevelValue(attrs, certs.AttrSerialNumber)),
	}, nil
}

func topLevelValue(attrs map[string]any, key string) any {
	field, ok := attrs[key].(map[string]any)
	if !ok {
		return nil
	}
	return field["value"]
}

// lookupLabeled returns the value of the first entry labeled label in the
// "value" list of attrs[key], or nil.
func lookupLabeled(attrs map[string]any, key, label string) any {
	entries, ok := topLevelValue(attrs, key).([]any)
	if !ok {
		return nil
	}
	for _, e := range entries {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		if l, ok := m["label"].(string); ok && l == label {
			return m["value"]
		}
	}
	return nil
}

func labeledString(attrs map[string]any, key, label string) *string {
	return asString(lookupLabeled(attrs, key, label))
}

func asString(v any) *string {
	if s, ok := v.(string); ok {
		return &s
	}
	return nil
}

func referenceTime(v any) *time.Time {
	var secs float64
	switch n := v.(type) {
	case float64:
		secs = n
	case int64:
		secs = float64(n)
	default:
		return nil
	}
	t := certs.FromReference(secs)
	return &t
}

// CertificateResult is the outcome of extracting one certificate in a batch.
type CertificateResult struct {
	Certificate *Certificate
	Err         error
}

// Extractor extracts certificates, memoizing results by the SHA-256 of the
// DER bytes. It is safe for concurrent use.
type Extractor struct {
	parser      CertificateParser
	cache       *lru.Cache[[32]byte, CertificateResult]
	concurrency int
}

// NewExtractor returns an Extractor. A nil parser selects X509Parser, a
// cacheSize below 1 disables memoization and a concurrency below 1 means
// no limit.
func NewExtractor(parser CertificateParser, cacheSize, concurrency int) (*Extractor, error) {
	if parser == nil {
		parser = X509Parser{}
	}
	e := &Extractor{parser: parser, concurrency: concurrency}
	if cacheSize > 0 {
		cache, err := lru.New[[32]byte, CertificateResult](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create certificate cache: %w", err)
		}
		e.cache = cache
	}
	return e, nil
}

// Extract extracts one certificate.
func (e *Extractor) Extract(der []byte) (*Certificate, error) {
	if e.cache == nil {
		return extract(e.parser, der)
	}
	key := sha256.Sum256(der)
	if res, ok := e.cache.Get(key); ok {
		return res.Certificate, res.Err
	}
	cert, err := extract(e.parser, der)
	e.cache.Add(key, CertificateResult{Certificate: cert, Err: err})
	return cert, err
}

// ExtractAll extracts every blob concurrently and returns one result per
// blob, in order. A failed certificate never aborts its siblings; only a
// cancelled ctx stops the batch, in which case the remaining results carry
// the context error.
func (e *Extractor) ExtractAll(ctx context.Context, blobs [][]byte) []CertificateResult {
	results := make([]CertificateResult, len(blobs))
	g, ctx := errgroup.WithContext(ctx)
	if e.concurrency > 0 {
		g.SetLimit(e.concurrency)
	}
	for i, der := range blobs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			cert, err := e.Extract(der)
			results[i] = CertificateResult{Certificate: cert, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
