package certs

import "encoding/asn1"

// Attribute identifiers used as keys of the dictionary returned by
// Certificate.Attributes. The X.509 v1 fields have no OID of their own, so
// they live under the Intel X509V1 certificate branch the way macOS keychain
// services expose them.
const (
	AttrVersion           = "2.16.840.1.113741.2.1.1.1.1"
	AttrSerialNumber      = "2.16.840.1.113741.2.1.1.1.3"
	AttrSignatureAlg      = "2.16.840.1.113741.2.1.1.1.4"
	AttrIssuerName        = "2.16.840.1.113741.2.1.1.1.5"
	AttrValidityNotBefore = "2.16.840.1.113741.2.1.1.1.6"
	AttrValidityNotAfter  = "2.16.840.1.113741.2.1.1.1.7"
	AttrSubjectName       = "2.16.840.1.113741.2.1.1.1.8"

	AttrSubjectKeyID     = "2.5.29.14"
	AttrKeyUsage         = "2.5.29.15"
	AttrBasicConstraints = "2.5.29.19"
	AttrCertPolicies     = "2.5.29.32"
	AttrAuthorityKeyID   = "2.5.29.35"
	AttrExtendedKeyUsage = "2.5.29.37"
	AttrFingerprints     = "Fingerprints"
)

// Labels of nested attribute entries.
const (
	LabelCommonName       = "2.5.4.3"
	LabelCountry          = "2.5.4.6"
	LabelOrganization     = "2.5.4.10"
	LabelOrganizationUnit = "2.5.4.11"
	LabelEmailAddress     = "1.2.840.113549.1.9.1"
	LabelUserID           = "0.9.2342.19200300.100.1.1"
	LabelKeyIdentifier    = "Key Identifier"
	LabelSHA1             = "SHA-1"
	LabelSHA256           = "SHA-256"
)

var (
	OIDEmailAddress asn1.ObjectIdentifier = []int{1, 2, 840, 113549, 1, 9, 1}

	OIDAppleCertificatePolicy asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 5, 1}
	// leaf certificates
	OIDIosDeveloperLeaf                    asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 6, 1, 2}
	OIDIosAppStoreApplicationLeaf          asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 6, 1, 3}
	OIDIosDistributionLeaf                 asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 6, 1, 4}
	OID3rdPartyMacDeveloperApplicationLeaf asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 6, 1, 7}
	OID3rdPartyMacDeveloperInstallerLeaf   asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 6, 1, 8}
	OIDMacOsDevelopmentLeaf                asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 6, 1, 12}
	OIDDeveloperIdApplicationLeaf          asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 6, 1, 13}
	OIDDeveloperIdInstallerLeaf            asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 6, 1, 14}
	OIDDeveloperIdKernelExtensionLeaf      asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 6, 1, 18}
	OIDTestFlightLeaf                      asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 6, 1, 25, 1}
	OIDDeveloperIDDate                     asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 6, 1, 33}
	// intermediate CAs
	OIDWorldwideDeveloperRelationsIntermediateCA asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 6, 2, 1}
	OIDDeveloperIdIntermediateCA                 asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 6, 2, 6}
	// extended key usages
	OIDCodeSigningEKU                   asn1.ObjectIdentifier = []int{1, 3, 6, 1, 5, 5, 7, 3, 3}
	OIDSafariDeveloperEKU               asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 4, 8}
	OID3rdPartyMacDeveloperInstallerEKU asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 4, 9}
	OIDDeveloperIDInstallerEKU          asn1.ObjectIdentifier = []int{1, 2, 840, 113635, 100, 4, 13}
)

var oidNames = []struct {
	oid  asn1.ObjectIdentifier
	name string
}{
	{OIDEmailAddress, "Email Address"},
	{OIDAppleCertificatePolicy, "Apple Certificate Policy"},
	{OIDIosDeveloperLeaf, "iOS Developer (Leaf)"},
	{OIDIosAppStoreApplicationLeaf, "iOS AppStore Application (Leaf)"},
	{OIDIosDistributionLeaf, "iOS Distribution (Leaf)"},
	{OID3rdPartyMacDeveloperApplicationLeaf, "3rd Party Mac Developer Application (Leaf)"},
	{OID3rdPartyMacDeveloperInstallerLeaf, "3rd Party Mac Developer Installer (Leaf)"},
	{OIDMacOsDevelopmentLeaf, "macOS Development (Leaf)"},
	{OIDDeveloperIdApplicationLeaf, "Developer ID Application (Leaf)"},
	{OIDDeveloperIdInstallerLeaf, "Developer ID Installer (Leaf)"},
	{OIDDeveloperIdKernelExtensionLeaf, "Developer ID Kernel Extension (Leaf)"},
	{OIDTestFlightLeaf, "TestFlight (Leaf)"},
	{OIDDeveloperIDDate, "Developer ID Date"},
	{OIDWorldwideDeveloperRelationsIntermediateCA, "Worldwide Developer Relations Intermediate CA"},
	{OIDDeveloperIdIntermediateCA, "Developer ID Intermediate CA"},
	{OIDCodeSigningEKU, "CodeSigning EKU"},
	{OIDSafariDeveloperEKU, "Safari Developer EKU"},
	{OID3rdPartyMacDeveloperInstallerEKU, "3rd Party Mac Developer Installer EKU"},
	{OIDDeveloperIDInstallerEKU, "Developer ID Installer EKU"},
}

// LookupOID returns a human readable name for oid, or its dotted form.
func LookupOID(oid asn1.ObjectIdentifier) string {
	for _, n := range oidNames {
		if oid.Equal(n.oid) {
			return n.name
		}
	}
	return oid.String()
}
