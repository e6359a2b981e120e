// internal/palette/palette.go
//
// Brand color tokens for the espresso house style. Tokens resolve to hex
// literals; anything that is not a token passes through unchanged so raw
// hex values (and, inevitably, typos) reach the renderer as-is.

package palette

import "strings"

// Token names map to the brand hex values. The set is closed; extending
// it is a brand decision, not a config option.
var tokens = map[string]string{
	"blue":     "#3F5B83",
	"orange":   "#DD6B20",
	"green":    "#4D5523",
	"sand":     "#CDAF7B",
	"cream":    "#F5F0E6",
	"paper":    "#F7F5F2",
	"espresso": "#4B2E1A",
	"mocha":    "#857052",
	"bean":     "#3C3325",
	"latte":    "#9D8561",
	"roast":    "#6C5C43",
}

// CoffeePalette is the ordered bar/donut series palette, darkest-roast
// ordering preserved from the house chart library.
var CoffeePalette = []string{
	"#9D8561", "#857052", "#6C5C43", "#544734",
	"#3C3325", "#79664A", "#D9D0C1", "#0B0A07",
}

// Resolve maps a brand token to its hex value. Unknown strings are
// returned unchanged: they are treated as literal colors rather than
// errors so a palette typo never blocks a whole week's run.
func Resolve(value string) string {
	if hex, ok := tokens[strings.ToLower(value)]; ok {
		return hex
	}
	return value
}

// IsToken reports whether the value names a known brand token.
func IsToken(value string) bool {
	_, ok := tokens[strings.ToLower(value)]
	return ok
}

// Tokens returns the known token names. The result is a copy.
func Tokens() []string {
	out := make([]string, 0, len(tokens))
	for name := range tokens {
		out = append(out, name)
	}
	return out
}
