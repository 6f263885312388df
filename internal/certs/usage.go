package certs

import (
	"crypto/x509"
	"strings"
)

// KeyUsage mirrors the bit layout of x509.KeyUsage.
type KeyUsage int

var keyUsageNames = []string{
	"DigitalSignature",
	"ContentCommitment",
	"KeyEncipherment",
	"DataEncipherment",
	"KeyAgreement",
	"KeyCertSign",
	"CRLSign",
	"EncipherOnly",
	"DecipherOnly",
}

func (ku KeyUsage) Has(bit x509.KeyUsage) bool {
	return x509.KeyUsage(ku)&bit != 0
}

func (ku KeyUsage) String() string {
	var out []string
	for i, name := range keyUsageNames {
		if ku&(1<<i) != 0 {
			out = append(out, name)
		}
	}
	return strings.Join(out, ", ")
}

// ExtKeyUsage mirrors the values of x509.ExtKeyUsage.
type ExtKeyUsage int

var extKeyUsageNames = []string{
	"Any",
	"ServerAuth",
	"ClientAuth",
	"CodeSigning",
	"EmailProtection",
	"IPSECEndSystem",
	"IPSECTunnel",
	"IPSECUser",
	"TimeStamping",
	"OCSPSigning",
	"MicrosoftServerGatedCrypto",
	"NetscapeServerGatedCrypto",
	"MicrosoftCommercialCodeSigning",
	"MicrosoftKernelCodeSigning",
}

func (eku ExtKeyUsage) String() string {
	if eku < 0 || int(eku) >= len(extKeyUsageNames) {
		return "Unknown"
	}
	return extKeyUsageNames[eku]
}
