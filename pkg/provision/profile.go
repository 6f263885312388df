package provision

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// profile property list keys
const (
	keyAppIDName                   = "AppIDName"
	keyApplicationIdentifierPrefix = "ApplicationIdentifierPrefix"
	keyCreationDate                = "CreationDate"
	keyDerEncodedProfile           = "DER-Encoded-Profile"
	keyDeveloperCertificates       = "DeveloperCertificates"
	keyEntitlements                = "Entitlements"
	keyExpirationDate              = "ExpirationDate"
	keyIsXcodeManaged              = "IsXcodeManaged"
	keyName                        = "Name"
	keyPlatform                    = "Platform"
	keyProvisionedDevices          = "ProvisionedDevices"
	keyProvisionsAllDevices        = "ProvisionsAllDevices"
	keyTeamIdentifier              = "TeamIdentifier"
	keyTeamName                    = "TeamName"
	keyTimeToLive                  = "TimeToLive"
	keyUUID                        = "UUID"
	keyVersion                     = "Version"
)

// DeviceID is a provisioned device identifier (UDID).
type DeviceID string

func (d DeviceID) String() string { return string(d) }

// Profile contains the fields extracted from a RawProfile.
//
// Optional fields are nil when the profile lacks the key or holds a value of
// the wrong type. Lists and Entitlements are empty, never nil, in that case.
type Profile struct {
	AppIDName                   *string                `json:"app_id_name,omitempty"`
	ApplicationIdentifierPrefix []string               `json:"application_identifier_prefix"`
	CreationDate                *time.Time             `json:"creation_date,omitempty"`
	DerEncodedProfile           []byte                 `json:"der_encoded_profile,omitempty"`
	DeveloperCertificates       [][]byte               `json:"developer_certificates"`
	Entitlements                EntitlementsDictionary `json:"entitlements"`
	ExpirationDate              *time.Time             `json:"expiration_date,omitempty"`
	IsXcodeManaged              *bool                  `json:"is_xcode_managed,omitempty"`
	Name                        *string                `json:"name,omitempty"`
	Platform                    []string               `json:"platform"`
	ProvisionedDevices          []DeviceID             `json:"provisioned_devices"`
	ProvisionsAllDevices        *bool                  `json:"provisions_all_devices,omitempty"`
	TeamID                      []string               `json:"team_id"`
	TeamName                    *string                `json:"team_name,omitempty"`
	TimeToLive                  *int                   `json:"time_to_live,omitempty"`
	UUID                        *uuid.UUID             `json:"uuid,omitempty"`
	Version                     *int                   `json:"version,omitempty"`
}

// Parse decodes a provisioning profile file and projects it into a Profile.
func Parse(data []byte) (*Profile, error) {
	raw, err := DecodeRaw(data)
	if err != nil {
		return nil, err
	}
	return Project(raw)
}

// Project maps the untyped fields of raw into a Profile.
//
// Only a corrupt entitlements tree is an error; every other field falls back
// to its default.
func Project(raw *RawProfile) (*Profile, error) {
	var fields map[string]any
	if raw != nil {
		fields = raw.Fields
	}

	entitlements, err := entitlementsField(fields)
	if err != nil {
		return nil, err
	}

	devices := stringsField(fields, keyProvisionedDevices)
	deviceIDs := make([]DeviceID, 0, len(devices))
	for _, d := range devices {
		deviceIDs = append(deviceIDs, DeviceID(d))
	}

	return &Profile{
		AppIDName:                   stringField(fields, keyAppIDName),
		ApplicationIdentifierPrefix: stringsField(fields, keyApplicationIdentifierPrefix),
		CreationDate:                dateField(fields, keyCreationDate),
		DerEncodedProfile:           dataField(fields, keyDerEncodedProfile),
		DeveloperCertificates:       dataListField(fields, keyDeveloperCertificates),
		Entitlements:                entitlements,
		ExpirationDate:              dateField(fields, keyExpirationDate),
		IsXcodeManaged:              boolField(fields, keyIsXcodeManaged),
		Name:                        stringField(fields, keyName),
		Platform:                    stringsField(fields, keyPlatform),
		ProvisionedDevices:          deviceIDs,
		ProvisionsAllDevices:        boolField(fields, keyProvisionsAllDevices),
		TeamID:                      stringsField(fields, keyTeamIdentifier),
		TeamName:                    stringField(fields, keyTeamName),
		TimeToLive:                  intField(fields, keyTimeToLive),
		UUID:                        uuidField(fields, keyUUID),
		Version:                     intField(fields, keyVersion),
	}, nil
}

// IsExpired reports whether the profile expired before now.
func (p *Profile) IsExpired(now time.Time) bool {
	return p.ExpirationDate != nil && now.After(*p.ExpirationDate)
}

// ProvisionsDevice reports whether the device with the given UDID may run
// apps signed with this profile.
func (p *Profile) ProvisionsDevice(udid string) bool {
	if p.ProvisionsAllDevices != nil && *p.ProvisionsAllDevices {
		return true
	}
	for _, d := range p.ProvisionedDevices {
		if string(d) == udid {
			return true
		}
	}
	return false
}

func entitlementsField(fields map[string]any) (EntitlementsDictionary, error) {
	dict, ok := fields[keyEntitlements].(map[string]any)
	if !ok {
		return EntitlementsDictionary{}, nil
	}
	entitlements, err := NewEntitlementsDictionary(dict)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEntitlementsConversion, err)
	}
	return entitlements, nil
}

func stringField(fields map[string]any, key string) *string {
	if s, ok := fields[key].(string); ok {
		return &s
	}
	return nil
}

func boolField(fields map[string]any, key string) *bool {
	if b, ok := fields[key].(bool); ok {
		return &b
	}
	return nil
}

func dateField(fields map[string]any, key string) *time.Time {
	if t, ok := fields[key].(time.Time); ok {
		return &t
	}
	return nil
}

func dataField(fields map[string]any, key string) []byte {
	if b, ok := fields[key].([]byte); ok {
		return bytes.Clone(b)
	}
	return nil
}

func intField(fields map[string]any, key string) *int {
	var n int
	switch v := fields[key].(type) {
	case int:
		n = v
	case int64:
		if v < math.MinInt || v > math.MaxInt {
			return nil
		}
		n = int(v)
	case uint64:
		if v > math.MaxInt {
			return nil
		}
		n = int(v)
	default:
		return nil
	}
	return &n
}

func uuidField(fields map[string]any, key string) *uuid.UUID {
	s, ok := fields[key].(string)
	// only the canonical 8-4-4-4-12 form
	if !ok || len(s) != 36 {
		return nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil
	}
	return &id
}

// stringsField is all-or-nothing: one non-string element yields an empty list.
func stringsField(fields map[string]any, key string) []string {
	switch v := fields[key].(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return []string{}
			}
			out = append(out, s)
		}
		return out
	}
	return []string{}
}

func dataListField(fields map[string]any, key string) [][]byte {
	switch v := fields[key].(type) {
	case [][]byte:
		out := make([][]byte, 0, len(v))
		for _, b := range v {
			out = append(out, bytes.Clone(b))
		}
		return out
	case []any:
		out := make([][]byte, 0, len(v))
		for _, elem := range v {
			b, ok := elem.([]byte)
			if !ok {
				return [][]byte{}
			}
			out = append(out, bytes.Clone(b))
		}
		return out
	}
	return [][]byte{}
}
