// Package diagram provides orientation utilities for Mermaid flowchart
// sources: detecting the direction token on the header line and flipping a
// diagram between horizontal and vertical layout.
package diagram

import (
	"regexp"
	"strings"
)

// DefaultDirection is assumed when a diagram header carries no direction
// token. Mermaid renders such diagrams top-down.
const DefaultDirection = "TD"

// headerRe matches a flowchart/graph header line with an optional direction
// token. Group 1 is the keyword with leading whitespace, group 2 the token.
var headerRe = regexp.MustCompile(`(?m)^(\s*(?:flowchart|graph))(?:[ \t]+(TD|TB|LR|RL|BT))?[ \t]*$`)

// toggledDirection flips between horizontal and vertical orientation.
// TB is Mermaid's legacy spelling of TD and flips the same way.
//
//nolint:gochecknoglobals // Immutable orientation mapping.
var toggledDirection = map[string]string{
	"TD": "LR",
	"TB": "LR",
	"LR": "TD",
	"RL": "BT",
	"BT": "RL",
}

// ToggleResult is a flipped diagram plus the direction it now renders in.
type ToggleResult struct {
	Content      string
	NewDirection string
}

// DetectDirection returns the direction token of the first flowchart/graph
// header in content. A header without a token, or content without a header,
// detects as the default top-down direction. TB normalizes to TD.
func DetectDirection(content string) string {
	m := headerRe.FindStringSubmatch(content)
	if m == nil || m[2] == "" {
		return DefaultDirection
	}
	if m[2] == "TB" {
		return DefaultDirection
	}
	return m[2]
}

// ToggleDirection flips the orientation of the first flowchart/graph header:
// LR and TD swap, RL and BT swap. A header without a direction token gets the
// default top-down token inserted rather than flipped, so toggling is not a
// round trip for such input. Content without any header is returned unchanged
// apart from a prepended default header.
func ToggleDirection(content string) ToggleResult {
	loc := headerRe.FindStringSubmatchIndex(content)
	if loc == nil {
		return ToggleResult{
			Content:      "flowchart " + DefaultDirection + "\n" + content,
			NewDirection: DefaultDirection,
		}
	}

	keyword := content[loc[2]:loc[3]]

	// Header without a token: insert the default rather than flip.
	if loc[4] < 0 {
		updated := content[:loc[2]] + keyword + " " + DefaultDirection + content[loc[1]:]
		return ToggleResult{Content: updated, NewDirection: DefaultDirection}
	}

	current := content[loc[4]:loc[5]]
	next, ok := toggledDirection[current]
	if !ok {
		next = DefaultDirection
	}

	updated := content[:loc[2]] + keyword + " " + next + content[loc[1]:]
	return ToggleResult{Content: updated, NewDirection: next}
}

// IsHorizontal reports whether the direction token lays nodes out left-right
// or right-left.
func IsHorizontal(direction string) bool {
	return direction == "LR" || direction == "RL"
}

// HasHeader reports whether content contains a flowchart/graph header line.
func HasHeader(content string) bool {
	return headerRe.MatchString(content)
}

// NormalizeDirection maps the legacy TB spelling to TD and unknown tokens to
// the default; known tokens pass through.
func NormalizeDirection(direction string) string {
	d := strings.ToUpper(strings.TrimSpace(direction))
	if d == "TB" {
		return DefaultDirection
	}
	if _, ok := toggledDirection[d]; !ok {
		return DefaultDirection
	}
	return d
}
