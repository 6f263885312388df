package profile

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/blacktop/provinfo/pkg/provision"
	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
)

// Extensions of provisioning profile files.
var Extensions = []string{".mobileprovision", ".provisionprofile"}

// IsProfile reports whether path has a provisioning profile extension.
func IsProfile(path string) bool {
	return slices.Contains(Extensions, strings.ToLower(filepath.Ext(path)))
}

// Entry is a decoded profile file.
type Entry struct {
	Path    string
	Data    []byte
	Profile *provision.Profile
}

// Load decodes the profile at path.
func Load(dec *provision.Decoder, path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read provisioning profile '%s': %v", path, err)
	}
	raw, err := dec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode '%s': %w", path, err)
	}
	p, err := provision.Project(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to project '%s': %w", path, err)
	}
	return &Entry{Path: path, Data: data, Profile: p}, nil
}

// Scan decodes every profile found under dir. Files that fail to decode
// are logged and skipped.
func Scan(dec *provision.Decoder, dir string) ([]*Entry, error) {
	var entries []*Entry
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			log.WithError(err).Debugf("failed to walk '%s'", path)
			return nil
		}
		if d.IsDir() || !IsProfile(path) {
			return nil
		}
		e, err := Load(dec, path)
		if err != nil {
			if errors.Is(err, os.ErrPermission) {
				log.Debug(err.Error())
			} else {
				log.WithError(err).Warn("skipping profile")
			}
			return nil
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan '%s': %w", dir, err)
	}
	return entries, nil
}

// SortByExpiration orders entries by expiration date, undated profiles last.
func SortByExpiration(entries []*Entry) {
	slices.SortStableFunc(entries, func(a, b *Entry) int {
		ea, eb := a.Profile.ExpirationDate, b.Profile.ExpirationDate
		switch {
		case ea == nil && eb == nil:
			return 0
		case ea == nil:
			return 1
		case eb == nil:
			return -1
		}
		return ea.Compare(*eb)
	})
}

// Table writes one row per entry.
func Table(w io.Writer, entries []*Entry, now time.Time) error {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		p := e.Profile
		rows = append(rows, []string{
			deref(p.Name),
			uuidString(p),
			strings.Join(p.TeamID, ", "),
			expires(p, now),
			devices(p),
			strconv.Itoa(len(p.DeveloperCertificates)),
		})
	}

	table := tablewriter.NewTable(w)
	table.Header([]string{"Name", "UUID", "Team", "Expires", "Devices", "Certificates"})
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to build table: %v", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %v", err)
	}
	return nil
}

// SummaryLine describes a profile in one line.
func SummaryLine(e *Entry, now time.Time) string {
	p := e.Profile
	return fmt.Sprintf("%s %s team=%s expires=%s devices=%s",
		deref(p.Name), uuidString(p), strings.Join(p.TeamID, ","), expires(p, now), devices(p))
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func uuidString(p *provision.Profile) string {
	if p.UUID == nil {
		return "-"
	}
	return strings.ToUpper(p.UUID.String())
}

func expires(p *provision.Profile, now time.Time) string {
	if p.ExpirationDate == nil {
		return "-"
	}
	rel := humanize.RelTime(*p.ExpirationDate, now, "ago", "from now")
	if p.IsExpired(now) {
		return "expired " + rel
	}
	return rel
}

func devices(p *provision.Profile) string {
	if p.ProvisionsAllDevices != nil && *p.ProvisionsAllDevices {
		return "all"
	}
	return strconv.Itoa(len(p.ProvisionedDevices))
}
