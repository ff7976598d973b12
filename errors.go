package configuru

import (
	"strconv"
	"strings"
)

// ParseError describes a syntax error in a document. Error renders the
// position, the include chain, the offending source line and a caret
// pointing at the column.
type ParseError struct {
	Doc     *DocInfo
	Line    int
	Column  int
	Message string

	// The source line (tabs expanded) followed by the caret line.
	orientation string
}

func (e *ParseError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Doc.Filename)
	sb.WriteString(":")
	sb.WriteString(strconv.Itoa(e.Line))
	sb.WriteString(":")
	sb.WriteString(strconv.Itoa(e.Column))
	e.Doc.appendIncludeInfo(&sb, "    ")
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.orientation != "" {
		sb.WriteString("\n")
		sb.WriteString(e.orientation)
	}
	return sb.String()
}

// TypeError is returned when a value is read through an accessor of the
// wrong type, an index is out of range, or a failed lookup is promoted to an
// access. Where carries "<file>:<line>: " when the value's provenance is
// known.
type TypeError struct {
	Where   string
	Message string
}

func (e *TypeError) Error() string {
	return e.Where + e.Message
}

// EncodingError is returned when the writer is asked to encode something the
// options forbid, such as NaN without the NaN option or an uninitialized
// value without WriteUninitialized.
type EncodingError struct {
	Message string
}

func (e *EncodingError) Error() string {
	return e.Message
}

// IOError wraps a failure reported by a Session's loader or sink callback,
// annotated with the path being loaded or written.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return "Failed to load '" + e.Path + "': " + e.Err.Error()
}

func (e *IOError) Unwrap() error { return e.Err }

// DanglingKey is one never-accessed object entry found by CheckDangling.
type DanglingKey struct {
	Where string // "<file>:<line>: " of the entry's value, if known.
	Key   string
}

// DanglingKeysError lists the object entries that were never accessed. It is
// a warning-grade error: callers commonly log it rather than abort.
type DanglingKeysError struct {
	Keys []DanglingKey
}

func (e *DanglingKeysError) Error() string {
	var sb strings.Builder
	sb.WriteString("Dangling keys:")
	for _, k := range e.Keys {
		sb.WriteString("\n    ")
		sb.WriteString(k.Where)
		sb.WriteString("Key '")
		sb.WriteString(k.Key)
		sb.WriteString("' never accessed.")
	}
	return sb.String()
}
