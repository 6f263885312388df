// Package colors provides centralized color output with TTY-aware defaults.
//
// Colors are disabled automatically when stdout is not a terminal; fatih/color
// handles the detection. Init overrides it from CLI flags or config.
package colors

import "github.com/fatih/color"

// Init allows overriding the auto-detected color setting.
//   - forceColor == nil: keep auto-detected value
//   - forceColor == true: force colors on (--color, CLICOLOR=1)
//   - forceColor == false: force colors off (--no-color)
func Init(forceColor *bool) {
	if forceColor != nil {
		color.NoColor = !*forceColor
	}
}

// FromFlags resolves --color/--no-color into the argument for Init.
// --no-color wins when both are set.
func FromFlags(forceOn, forceOff bool) *bool {
	switch {
	case forceOff:
		off := false
		return &off
	case forceOn:
		on := true
		return &on
	default:
		return nil
	}
}

// Enabled returns true if colors are currently enabled.
func Enabled() bool {
	return !color.NoColor
}

func Bold() *color.Color     { return color.New(color.Bold) }
func Faint() *color.Color    { return color.New(color.Faint) }
func Red() *color.Color      { return color.New(color.FgRed) }
func Green() *color.Color    { return color.New(color.FgGreen) }
func Yellow() *color.Color   { return color.New(color.FgYellow) }
func BoldCyan() *color.Color { return color.New(color.Bold, color.FgCyan) }
