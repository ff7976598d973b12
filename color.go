package configuru

import (
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Terminal styling for rendered diagnostics. Respects NO_COLOR and
// non-terminal output via the color package's own detection.
var (
	colorLocation = color.New(color.Bold).SprintFunc()
	colorMessage  = color.New(color.FgRed).SprintFunc()
	colorCaret    = color.New(color.FgYellow).SprintFunc()
	colorKey      = color.New(color.FgCyan).SprintFunc()
)

// ColorString renders the error like Error, with ANSI styling for terminal
// display: the location in bold, the message in red and the caret line in
// yellow.
func (e *ParseError) ColorString() string {
	var sb strings.Builder
	var loc strings.Builder
	loc.WriteString(e.Doc.Filename)
	loc.WriteString(":")
	loc.WriteString(strconv.Itoa(e.Line))
	loc.WriteString(":")
	loc.WriteString(strconv.Itoa(e.Column))
	e.Doc.appendIncludeInfo(&loc, "    ")
	sb.WriteString(colorLocation(loc.String()))
	sb.WriteString(": ")
	sb.WriteString(colorMessage(e.Message))
	if e.orientation != "" {
		sb.WriteString("\n")
		if idx := strings.IndexByte(e.orientation, '\n'); idx >= 0 {
			sb.WriteString(e.orientation[:idx+1])
			sb.WriteString(colorCaret(e.orientation[idx+1:]))
		} else {
			sb.WriteString(e.orientation)
		}
	}
	return sb.String()
}

// ColorString renders the dangling-key report with the offending keys
// highlighted.
func (e *DanglingKeysError) ColorString() string {
	var sb strings.Builder
	sb.WriteString(colorMessage("Dangling keys:"))
	for _, k := range e.Keys {
		sb.WriteString("\n    ")
		sb.WriteString(colorLocation(k.Where))
		sb.WriteString("Key ")
		sb.WriteString(colorKey("'" + k.Key + "'"))
		sb.WriteString(" never accessed.")
	}
	return sb.String()
}
