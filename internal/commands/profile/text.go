package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/blacktop/provinfo/internal/colors"
	"github.com/blacktop/provinfo/pkg/provision"
	"github.com/dustin/go-humanize"
)

const (
	profileFieldWidth     = 20
	certificateFieldWidth = 26

	// expiring profiles are highlighted this long before their expiration date
	expiryWarning = 30 * 24 * time.Hour
)

// Text renders a profile and its certificates for the terminal.
//
// Dates relative to now are shown next to the expiration date.
func Text(p *provision.Profile, certs []*provision.Certificate, now time.Time) string {
	var b fieldsBuilder
	b.width = profileFieldWidth

	if p.Name != nil {
		b.add("Name", *p.Name)
	}
	if p.ExpirationDate != nil {
		b.add("Expiration date", expiry(*p.ExpirationDate, now))
	}
	for i, team := range p.TeamID {
		b.add(fmt.Sprintf("Team identifier #%d", i+1), team)
	}
	if p.TeamName != nil {
		b.add("Team name", *p.TeamName)
	}
	if p.UUID != nil {
		b.add("UUID", strings.ToUpper(p.UUID.String()))
	}
	if len(p.Platform) > 0 {
		b.add("Platform", strings.Join(p.Platform, ", "))
	}
	if p.ProvisionsAllDevices != nil && *p.ProvisionsAllDevices {
		b.add("Devices", "all")
	}

	if len(p.ProvisionedDevices) > 0 {
		b.addHeading("Devices")
		for _, d := range p.ProvisionedDevices {
			b.addValue(d.String())
		}
	}

	for i, c := range certs {
		b.addHeading(fmt.Sprintf("Certificate #%d", i+1))
		b.sb.WriteString(CertificateText(c))
	}

	return b.String()
}

// CertificateText renders a single certificate.
func CertificateText(c *provision.Certificate) string {
	var b fieldsBuilder
	b.width = certificateFieldWidth

	if c.Issuer != nil {
		b.add("Issuer", *c.Issuer)
	}
	if c.NotValidBefore != nil {
		b.addDate("Not valid before", *c.NotValidBefore)
	}
	if c.NotValidAfter != nil {
		b.addDate("Not valid after", *c.NotValidAfter)
	}
	if c.KeyID != nil {
		b.addData("Key identifier", c.KeyID)
	}
	if c.OrganizationName != nil {
		b.add("Organization name", *c.OrganizationName)
	}
	if c.OrganizationalUnitName != nil {
		b.add("Organizational unit name", *c.OrganizationalUnitName)
	}
	if c.SubjectName != nil {
		b.add("Subject", *c.SubjectName)
	}
	if c.X509Serial != nil {
		b.add("Serial", *c.X509Serial)
	}
	if c.FingerprintSHA1 != nil {
		b.addData("Fingerprint SHA-1", c.FingerprintSHA1)
	}
	if c.FingerprintSHA256 != nil {
		b.addData("Fingerprint SHA-256", c.FingerprintSHA256)
	}

	return b.String()
}

func expiry(t time.Time, now time.Time) string {
	rel := humanize.RelTime(t, now, "ago", "from now")
	if now.After(t) {
		return fmt.Sprintf("%s (%s)", t.Format(DateFormat), colors.Red().Sprintf("expired %s", rel))
	}
	if t.Sub(now) < expiryWarning {
		return fmt.Sprintf("%s (%s)", t.Format(DateFormat), colors.Yellow().Sprint(rel))
	}
	return fmt.Sprintf("%s (%s)", t.Format(DateFormat), colors.Green().Sprint(rel))
}
