package provision

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/blacktop/go-plist"
	"github.com/fullsailor/pkcs7"
	"github.com/stretchr/testify/require"
)

const (
	sampleName   = "DO NOT USE: only for dummy signing"
	sampleDevice = "1234567890123456789012345678901234567890"
	sampleTeam   = "SELFSIGNED"
	sampleUUID   = "73ECBC99-16D4-4685-961A-2051D6BAEF24"
)

var (
	sampleCreated   = time.Date(2022, time.February, 14, 19, 47, 17, 0, time.UTC)
	sampleExpires   = sampleCreated.AddDate(0, 0, 365)
	sampleNotBefore = time.Date(2022, time.February, 14, 19, 47, 17, 0, time.UTC)
	sampleNotAfter  = time.Date(2023, time.February, 14, 19, 47, 17, 0, time.UTC)
)

var testKey = sync.OnceValue(func() *rsa.PrivateKey {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		panic(err)
	}
	return key
})

func sampleTemplate() *x509.Certificate {
	return &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName:         "Example Name",
			Organization:       []string{"Example Organization"},
			OrganizationalUnit: []string{sampleTeam},
		},
		NotBefore:   sampleNotBefore,
		NotAfter:    sampleNotAfter,
		KeyUsage:    x509.KeyUsageDigitalSignature,
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageCodeSigning},
	}
}

// selfSigned returns the DER and parsed form of a certificate signed by its own key.
func selfSigned(t *testing.T, tmpl *x509.Certificate) ([]byte, *x509.Certificate) {
	t.Helper()
	key := testKey()
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return der, cert
}

func sampleFields(certDER []byte) map[string]any {
	return map[string]any{
		"AppIDName":                   "XC Wildcard",
		"ApplicationIdentifierPrefix": []string{sampleTeam},
		"CreationDate":                sampleCreated,
		"DeveloperCertificates":       [][]byte{certDER},
		"Entitlements": map[string]any{
			"application-identifier": sampleTeam + ".*",
			"get-task-allow":         true,
			"keychain-access-groups": []string{sampleTeam + ".*"},
		},
		"ExpirationDate":     sampleExpires,
		"IsXcodeManaged":     false,
		"Name":               sampleName,
		"Platform":           []string{"iOS"},
		"ProvisionedDevices": []string{sampleDevice},
		"TeamIdentifier":     []string{sampleTeam},
		"TeamName":           "Selfsigners united",
		"TimeToLive":         365,
		"UUID":               sampleUUID,
		"Version":            1,
	}
}

// signedContainer wraps content in a PKCS#7 SignedData envelope.
func signedContainer(t *testing.T, content []byte, cert *x509.Certificate) []byte {
	t.Helper()
	sd, err := pkcs7.NewSignedData(content)
	require.NoError(t, err)
	require.NoError(t, sd.AddSigner(cert, testKey(), pkcs7.SignerInfoConfig{}))
	data, err := sd.Finish()
	require.NoError(t, err)
	return data
}

func signedProfile(t *testing.T, v any) []byte {
	t.Helper()
	_, cert := selfSigned(t, sampleTemplate())
	content, err := plist.Marshal(v, plist.XMLFormat)
	require.NoError(t, err)
	return signedContainer(t, content, cert)
}

// sampleProfile returns a signed sample profile and the DER of its developer certificate.
func sampleProfile(t *testing.T) ([]byte, []byte) {
	t.Helper()
	der, cert := selfSigned(t, sampleTemplate())
	content, err := plist.Marshal(sampleFields(der), plist.XMLFormat)
	require.NoError(t, err)
	return signedContainer(t, content, cert), der
}
