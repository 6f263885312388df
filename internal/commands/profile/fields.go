package profile

import (
	"strings"
	"time"

	"github.com/blacktop/provinfo/internal/colors"
	"github.com/blacktop/provinfo/pkg/provision"
)

// DateFormat is used for every date in text output.
const DateFormat = "2006-01-02 15:04 MST"

// fieldsBuilder lays out "Field:   value" lines with a fixed label column.
type fieldsBuilder struct {
	width int
	sb    strings.Builder
}

// pad truncates or right-pads s to exactly width runes.
func pad(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}

func (b *fieldsBuilder) addField(f string) {
	b.sb.WriteString(colors.Bold().Sprint(pad(f+":", b.width)))
}

func (b *fieldsBuilder) addValue(v string) {
	b.sb.WriteString(v)
	b.sb.WriteByte('\n')
}

func (b *fieldsBuilder) add(field, value string) {
	b.addField(field)
	b.addValue(value)
}

func (b *fieldsBuilder) addDate(field string, t time.Time) {
	b.add(field, t.Format(DateFormat))
}

func (b *fieldsBuilder) addData(field string, data []byte) {
	b.add(field, provision.Hexify(data))
}

func (b *fieldsBuilder) addHeading(v string) {
	b.sb.WriteString("\n==== ")
	b.sb.WriteString(colors.BoldCyan().Sprint(v))
	b.sb.WriteString("\n\n")
}

func (b *fieldsBuilder) String() string {
	return b.sb.String()
}
