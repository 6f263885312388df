package provision

import (
	"crypto/x509"
	"errors"
	"fmt"

	cfpkcs7 "github.com/cloudflare/cfssl/crypto/pkcs7"
	"github.com/fullsailor/pkcs7"
)

// EnvelopeOpener unwraps a signed envelope and returns its inner content.
//
// Failures wrap one of ErrEnvelopeCreate, ErrEnvelopeUpdate,
// ErrEnvelopeFinalize or ErrEnvelopeExtract, and always ErrEnvelope.
type EnvelopeOpener interface {
	Open(data []byte) ([]byte, error)
}

// DefaultEnvelopeBackend is the backend used when none is configured.
const DefaultEnvelopeBackend = "pkcs7"

// NewEnvelopeOpener returns the opener registered under backend.
func NewEnvelopeOpener(backend string) (EnvelopeOpener, error) {
	switch backend {
	case "", DefaultEnvelopeBackend:
		return pkcs7Opener{}, nil
	default:
		return nil, envelopeFailure(ErrEnvelopeCreate, fmt.Errorf("unknown envelope backend %q", backend))
	}
}

// pkcs7Opener reads CMS SignedData (DER or BER) without verifying signatures.
type pkcs7Opener struct{}

func (pkcs7Opener) Open(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, envelopeFailure(ErrEnvelopeUpdate, errors.New("input is empty"))
	}
	p7, err := parsePKCS7(data)
	if err != nil {
		return nil, envelopeFailure(ErrEnvelopeFinalize, err)
	}
	if len(p7.Content) == 0 {
		return nil, envelopeFailure(ErrEnvelopeExtract, errors.New("no content found in PKCS#7 data"))
	}
	return p7.Content, nil
}

func parsePKCS7(data []byte) (p7 *pkcs7.PKCS7, err error) {
	defer func() {
		if r := recover(); r != nil {
			p7, err = nil, fmt.Errorf("malformed PKCS#7 data: %v", r)
		}
	}()
	return pkcs7.Parse(data)
}

// EnvelopeSigners returns the certificates carried by the signed envelope
// itself, i.e. the chain that signed the profile.
func EnvelopeSigners(data []byte) ([]*x509.Certificate, error) {
	if len(data) == 0 {
		return nil, envelopeFailure(ErrEnvelopeUpdate, errors.New("input is empty"))
	}
	if certs, err := cfssl7Certificates(data); err == nil {
		return certs, nil
	}
	// cfssl only reads DER, Apple signs profiles with indefinite length BER
	p7, err := parsePKCS7(data)
	if err != nil {
		return nil, envelopeFailure(ErrEnvelopeFinalize, err)
	}
	return p7.Certificates, nil
}

func cfssl7Certificates(data []byte) (certs []*x509.Certificate, err error) {
	defer func() {
		if r := recover(); r != nil {
			certs, err = nil, fmt.Errorf("malformed PKCS#7 data: %v", r)
		}
	}()
	p, err := cfpkcs7.ParsePKCS7(data)
	if err != nil {
		return nil, err
	}
	if p.Content.SignedData.Certificates == nil {
		return nil, errors.New("no certificates found in PKCS#7 data")
	}
	return p.Content.SignedData.Certificates, nil
}
