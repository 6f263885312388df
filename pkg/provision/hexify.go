package provision

import "strings"

const hexDigits = "0123456789ABCDEF"

// Hexify renders data as space separated uppercase hex pairs, e.g. `01 05 A0 FF`.
func Hexify(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.Grow(len(data)*3 - 1)
	for i, b := range data {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte(hexDigits[b>>4])
		sb.WriteByte(hexDigits[b&0x0f])
	}
	return sb.String()
}
