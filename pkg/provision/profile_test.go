package provision

import (
	"testing"
	"time"

	"github.com/blacktop/go-plist"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSample(t *testing.T) {
	container, der := sampleProfile(t)

	p, err := Parse(container)
	require.NoError(t, err)

	require.NotNil(t, p.Name)
	assert.Equal(t, sampleName, *p.Name)
	require.NotNil(t, p.TimeToLive)
	assert.Equal(t, 365, *p.TimeToLive)
	assert.Equal(t, []string{"iOS"}, p.Platform)
	assert.Equal(t, []DeviceID{sampleDevice}, p.ProvisionedDevices)
	assert.Equal(t, []string{sampleTeam}, p.TeamID)
	require.NotNil(t, p.TeamName)
	assert.Equal(t, "Selfsigners united", *p.TeamName)
	require.NotNil(t, p.UUID)
	assert.Equal(t, uuid.MustParse(sampleUUID), *p.UUID)
	require.NotNil(t, p.Version)
	assert.Equal(t, 1, *p.Version)
	require.NotNil(t, p.CreationDate)
	assert.True(t, sampleCreated.Equal(*p.CreationDate))
	require.NotNil(t, p.ExpirationDate)
	assert.True(t, sampleExpires.Equal(*p.ExpirationDate))
	assert.Equal(t, [][]byte{der}, p.DeveloperCertificates)
	assert.Nil(t, p.DerEncodedProfile)

	require.NotNil(t, p.AppIDName)
	assert.Equal(t, "XC Wildcard", *p.AppIDName)
	assert.Equal(t, []string{sampleTeam}, p.ApplicationIdentifierPrefix)
	require.NotNil(t, p.IsXcodeManaged)
	assert.False(t, *p.IsXcodeManaged)
	assert.Nil(t, p.ProvisionsAllDevices)

	want := EntitlementsDictionary{
		"application-identifier": String(sampleTeam + ".*"),
		"get-task-allow":         Boolean(true),
		"keychain-access-groups": Array{String(sampleTeam + ".*")},
	}
	assert.True(t, want.Equal(p.Entitlements), "entitlements = %#v", p.Entitlements)

	certs := make([]*Certificate, 0, len(p.DeveloperCertificates))
	for _, blob := range p.DeveloperCertificates {
		c, err := Extract(blob)
		require.NoError(t, err)
		certs = append(certs, c)
	}
	require.Len(t, certs, 1)
	assert.Equal(t, "Example Name", certs[0].Summary)
}

func TestProjectEmpty(t *testing.T) {
	for _, raw := range []*RawProfile{nil, {}, {Fields: map[string]any{}}} {
		p, err := Project(raw)
		require.NoError(t, err)

		assert.Nil(t, p.Name)
		assert.Nil(t, p.CreationDate)
		assert.Nil(t, p.ExpirationDate)
		assert.Nil(t, p.TeamName)
		assert.Nil(t, p.TimeToLive)
		assert.Nil(t, p.UUID)
		assert.Nil(t, p.Version)
		assert.Nil(t, p.DerEncodedProfile)

		assert.NotNil(t, p.Platform)
		assert.Empty(t, p.Platform)
		assert.NotNil(t, p.ProvisionedDevices)
		assert.Empty(t, p.ProvisionedDevices)
		assert.NotNil(t, p.TeamID)
		assert.Empty(t, p.TeamID)
		assert.NotNil(t, p.DeveloperCertificates)
		assert.Empty(t, p.DeveloperCertificates)
		assert.NotNil(t, p.Entitlements)
		assert.Empty(t, p.Entitlements)
	}
}

func TestProjectWrongTypes(t *testing.T) {
	raw := &RawProfile{Fields: map[string]any{
		"Name":                  42,
		"TimeToLive":            "365",
		"Version":               1.5,
		"UUID":                  "not-a-uuid",
		"CreationDate":          "2022-02-14",
		"DER-Encoded-Profile":   "AAAA",
		"Platform":              []any{"iOS", 3},
		"TeamIdentifier":        "SELFSIGNED",
		"ProvisionedDevices":    []any{"a", nil},
		"DeveloperCertificates": []any{[]byte{1}, "cert"},
		"Entitlements":          []any{"not", "a", "dictionary"},
		"IsXcodeManaged":        "yes",
	}}

	p, err := Project(raw)
	require.NoError(t, err)

	assert.Nil(t, p.Name)
	assert.Nil(t, p.TimeToLive)
	assert.Nil(t, p.Version)
	assert.Nil(t, p.UUID)
	assert.Nil(t, p.CreationDate)
	assert.Nil(t, p.DerEncodedProfile)
	assert.Nil(t, p.IsXcodeManaged)
	assert.Equal(t, []string{}, p.Platform)
	assert.Equal(t, []string{}, p.TeamID)
	assert.Equal(t, []DeviceID{}, p.ProvisionedDevices)
	assert.Equal(t, [][]byte{}, p.DeveloperCertificates)
	assert.Equal(t, EntitlementsDictionary{}, p.Entitlements)
}

func TestProjectIntegers(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want *int
	}{
		{"int", 7, ptr(7)},
		{"int64", int64(-3), ptr(-3)},
		{"uint64", uint64(365), ptr(365)},
		{"uint64 overflow", uint64(1 << 63), nil},
		{"float", 7.0, nil},
		{"string", "7", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Project(&RawProfile{Fields: map[string]any{"TimeToLive": tt.in}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.TimeToLive)
		})
	}
}

func TestProjectUUID(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{sampleUUID, true},
		{"73ecbc99-16d4-4685-961a-2051d6baef24", true},
		{"73ECBC9916D44685961A2051D6BAEF24", false},
		{"urn:uuid:73ECBC99-16D4-4685-961A-2051D6BAEF24", false},
		{"73ECBC99-16D4-4685-961A-2051D6BAEFZZ", false},
		{[]byte(sampleUUID), false},
	}
	for _, tt := range tests {
		p, err := Project(&RawProfile{Fields: map[string]any{"UUID": tt.in}})
		require.NoError(t, err)
		assert.Equal(t, tt.want, p.UUID != nil, "UUID %v", tt.in)
	}
}

func TestProjectEntitlementsFailure(t *testing.T) {
	raw := &RawProfile{Fields: map[string]any{
		"Name": sampleName,
		"Entitlements": map[string]any{
			"ok":  true,
			"bad": map[string]any{"uid": plist.UID(3)},
		},
	}}

	p, err := Project(raw)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrEntitlementsConversion)
	assert.ErrorIs(t, err, ErrUnrepresentableValue)
	assert.ErrorContains(t, err, "bad.uid")
}

func TestProjectDeterministic(t *testing.T) {
	container, _ := sampleProfile(t)
	raw, err := DecodeRaw(container)
	require.NoError(t, err)

	a, err := Project(raw)
	require.NoError(t, err)
	b, err := Project(raw)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// projection copies blobs out of the raw profile
	a.DeveloperCertificates[0][0] ^= 0xff
	assert.NotEqual(t, a.DeveloperCertificates[0][0], b.DeveloperCertificates[0][0])
}

func TestProfileHelpers(t *testing.T) {
	expires := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	all := true
	p := &Profile{
		ExpirationDate:     &expires,
		ProvisionedDevices: []DeviceID{"a", "b"},
	}

	assert.False(t, p.IsExpired(expires.Add(-time.Second)))
	assert.True(t, p.IsExpired(expires.Add(time.Second)))
	assert.False(t, (&Profile{}).IsExpired(time.Now()))

	assert.True(t, p.ProvisionsDevice("b"))
	assert.False(t, p.ProvisionsDevice("c"))
	p.ProvisionsAllDevices = &all
	assert.True(t, p.ProvisionsDevice("c"))
}

func ptr[T any](v T) *T { return &v }
