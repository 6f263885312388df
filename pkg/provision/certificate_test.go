package provision

import (
	"context"
	"crypto/rand"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"

	"github.com/blacktop/provinfo/internal/certs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	der, _ := selfSigned(t, sampleTemplate())

	c, err := Extract(der)
	require.NoError(t, err)

	sum1 := sha1.Sum(der)
	sum256 := sha256.Sum256(der)

	assert.Equal(t, "Example Name", c.Summary)
	require.NotNil(t, c.SubjectName)
	assert.Equal(t, "Example Name", *c.SubjectName)
	require.NotNil(t, c.Issuer)
	assert.Equal(t, "Example Name", *c.Issuer)
	require.NotNil(t, c.OrganizationName)
	assert.Equal(t, "Example Organization", *c.OrganizationName)
	require.NotNil(t, c.OrganizationalUnitName)
	assert.Equal(t, "SELFSIGNED", *c.OrganizationalUnitName)
	require.NotNil(t, c.X509Serial)
	assert.Equal(t, "1", *c.X509Serial)
	require.NotNil(t, c.NotValidBefore)
	assert.True(t, sampleNotBefore.Equal(*c.NotValidBefore), "not before %s", c.NotValidBefore)
	require.NotNil(t, c.NotValidAfter)
	assert.True(t, sampleNotAfter.Equal(*c.NotValidAfter), "not after %s", c.NotValidAfter)
	assert.Equal(t, sum1[:], c.FingerprintSHA1)
	assert.Equal(t, sum256[:], c.FingerprintSHA256)
	// self-signed certificates carry no authority key identifier
	assert.Nil(t, c.KeyID)
}

// issuedByCA signs leaf with a throwaway CA whose subject key id is {1, 2, 3, 4}.
func issuedByCA(t *testing.T, leaf *x509.Certificate) []byte {
	t.Helper()
	key := testKey()
	ca := &x509.Certificate{
		SerialNumber:          big.NewInt(100),
		Subject:               pkix.Name{CommonName: "Example CA"},
		NotBefore:             sampleNotBefore,
		NotAfter:              sampleNotAfter,
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign,
		SubjectKeyId:          []byte{1, 2, 3, 4},
	}
	_, caCert := selfSigned(t, ca)
	der, err := x509.CreateCertificate(rand.Reader, leaf, caCert, &key.PublicKey, key)
	require.NoError(t, err)
	return der
}

func TestExtractAuthorityKeyID(t *testing.T) {
	leaf := sampleTemplate()
	leaf.SerialNumber = new(big.Int).SetUint64(1 << 40)

	c, err := Extract(issuedByCA(t, leaf))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, c.KeyID)
	require.NotNil(t, c.Issuer)
	assert.Equal(t, "Example CA", *c.Issuer)
	require.NotNil(t, c.X509Serial)
	assert.Equal(t, "1099511627776", *c.X509Serial)
}

func TestExtractSummaryFallback(t *testing.T) {
	tmpl := sampleTemplate()
	tmpl.Subject.CommonName = ""
	der, _ := selfSigned(t, tmpl)

	c, err := Extract(der)
	require.NoError(t, err)
	assert.Equal(t, "Example Organization", c.Summary)
	assert.Nil(t, c.SubjectName)
}

func TestExtractSummaryUnavailable(t *testing.T) {
	tmpl := sampleTemplate()
	tmpl.Subject = pkix.Name{}

	c, err := Extract(issuedByCA(t, tmpl))
	assert.Nil(t, c)
	assert.ErrorIs(t, err, ErrSummaryUnavailable)
	assert.ErrorIs(t, err, certs.ErrNoSummary)
}

func TestExtractParseFailure(t *testing.T) {
	for _, der := range [][]byte{nil, {0x30, 0x03, 0x02, 0x01}, []byte("not a certificate")} {
		c, err := Extract(der)
		assert.Nil(t, c)
		assert.ErrorIs(t, err, ErrCertificateParse)
	}
}

type fakeHandle struct {
	summary    string
	summaryErr error
	attrs      map[string]any
	attrsErr   error
}

func (h fakeHandle) Summary() (string, error)            { return h.summary, h.summaryErr }
func (h fakeHandle) Attributes() (map[string]any, error) { return h.attrs, h.attrsErr }

type fakeParser struct {
	handle fakeHandle
	err    error
	calls  atomic.Int32
}

func (p *fakeParser) Parse([]byte) (CertificateHandle, error) {
	p.calls.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.handle, nil
}

func TestExtractWithParser(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		parser  *fakeParser
		wantErr error
	}{
		{"parse", &fakeParser{err: boom}, ErrCertificateParse},
		{"summary", &fakeParser{handle: fakeHandle{summaryErr: boom, attrs: map[string]any{}}}, ErrSummaryUnavailable},
		{"attributes", &fakeParser{handle: fakeHandle{summary: "x", attrsErr: boom}}, ErrAttributesUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := extract(tt.parser, []byte{1})
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, boom)
		})
	}
}

func TestExtractSummaryOnly(t *testing.T) {
	c, err := extract(&fakeParser{handle: fakeHandle{summary: "only", attrs: map[string]any{}}}, []byte{1})
	require.NoError(t, err)
	assert.Equal(t, &Certificate{Summary: "only"}, c)
}

func TestLookupLabeled(t *testing.T) {
	entry := func(label string, value any) map[string]any {
		return map[string]any{"label": label, "value": value}
	}
	attrs := map[string]any{
		"subject": entry("Subject Name", []any{
			"garbage",
			entry(certs.LabelOrganizationUnit, "first"),
			map[string]any{"label": 3, "value": "wrong label type"},
			entry(certs.LabelOrganizationUnit, "second"),
		}),
		"scalar":  entry("Serial", "1"),
		"nolist":  map[string]any{"label": "x"},
		"notamap": []any{entry(certs.LabelCommonName, "x")},
	}

	tests := []struct {
		name       string
		key, label string
		want       any
	}{
		{"first match wins", "subject", certs.LabelOrganizationUnit, "first"},
		{"missing label", "subject", certs.LabelCommonName, nil},
		{"missing key", "issuer", certs.LabelCommonName, nil},
		{"value not a list", "scalar", certs.LabelCommonName, nil},
		{"no value", "nolist", certs.LabelCommonName, nil},
		{"top level not a map", "notamap", certs.LabelCommonName, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, lookupLabeled(attrs, tt.key, tt.label))
		})
	}
}

func TestExtractorCache(t *testing.T) {
	parser := &fakeParser{handle: fakeHandle{summary: "cached", attrs: map[string]any{}}}
	e, err := NewExtractor(parser, 8, 0)
	require.NoError(t, err)

	a, err := e.Extract([]byte{1, 2, 3})
	require.NoError(t, err)
	b, err := e.Extract([]byte{1, 2, 3})
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.EqualValues(t, 1, parser.calls.Load())

	_, err = e.Extract([]byte{4})
	require.NoError(t, err)
	assert.EqualValues(t, 2, parser.calls.Load())

	uncached, err := NewExtractor(parser, 0, 0)
	require.NoError(t, err)
	_, _ = uncached.Extract([]byte{1, 2, 3})
	_, _ = uncached.Extract([]byte{1, 2, 3})
	assert.EqualValues(t, 4, parser.calls.Load())
}

func TestExtractAll(t *testing.T) {
	der, _ := selfSigned(t, sampleTemplate())
	e, err := NewExtractor(nil, 4, 2)
	require.NoError(t, err)

	blobs := [][]byte{der, []byte("garbage"), der, nil}
	results := e.ExtractAll(context.Background(), blobs)
	require.Len(t, results, len(blobs))

	for _, i := range []int{0, 2} {
		require.NoError(t, results[i].Err)
		assert.Equal(t, "Example Name", results[i].Certificate.Summary)
	}
	for _, i := range []int{1, 3} {
		assert.Nil(t, results[i].Certificate)
		assert.ErrorIs(t, results[i].Err, ErrCertificateParse)
	}
}

func TestExtractAllCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, err := NewExtractor(nil, 0, 1)
	require.NoError(t, err)
	results := e.ExtractAll(ctx, [][]byte{{1}, {2}})
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}
