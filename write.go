package configuru

import (
	"math"
	"sort"
	"strconv"
	"strings"
)

// DumpString writes the value as a string in the given format. It fails
// with an EncodingError if the value is uninitialized (and
// WriteUninitialized is not set) or contains inf/NaN (and the Inf/NaN
// options are not set). Included subtrees are inlined; use Session.DumpString
// to write them back through a sink.
func DumpString(v Value, options *FormatOptions) (string, error) {
	return dumpString(v, options, nil)
}

// DumpString writes the value as a string in the given format. A subtree
// that came from an included document is written back to its own file via
// the session's sink, and referenced with an #include directive.
func (s *Session) DumpString(v Value, options *FormatOptions) (string, error) {
	return dumpString(v, options, s)
}

type encodeAbort struct{ err error }

func dumpString(v Value, options *FormatOptions, session *Session) (out string, err error) {
	w := &writer{
		options: options,
		compact: options.Compact(),
		doc:     v.Doc(),
		session: session,
	}
	defer func() {
		if r := recover(); r != nil {
			ab, ok := r.(encodeAbort)
			if !ok {
				panic(r)
			}
			out, err = "", ab.err
		}
	}()

	if options.ImplicitTopObject && v.IsObject() && (len(v.obj.entries) > 0 || options.EmptyFile) {
		w.writeObjectContents(0, v)
	} else {
		w.writeValue(0, v, true, true)
		if options.EndWithNewline && !options.Compact() {
			w.sb.WriteByte('\n')
		}
	}

	if options.MarkAccessed {
		v.MarkAccessed(true)
	}
	return w.sb.String(), nil
}

type writer struct {
	sb      strings.Builder
	options *FormatOptions
	compact bool
	doc     *DocInfo
	session *Session
}

func (w *writer) fail(err error) {
	panic(encodeAbort{err})
}

func (w *writer) writeIndent(indent int) {
	if w.compact {
		return
	}
	for i := 0; i < indent; i++ {
		w.sb.WriteString(w.options.Indentation)
	}
}

func (w *writer) writePrefixComments(indent int, comments []string) {
	if !w.options.WriteComments || len(comments) == 0 {
		return
	}
	w.sb.WriteByte('\n')
	for _, c := range comments {
		w.writeIndent(indent)
		w.sb.WriteString(c)
		w.sb.WriteByte('\n')
	}
}

func (w *writer) writePostfixComments(comments []string) {
	if !w.options.WriteComments {
		return
	}
	for _, c := range comments {
		w.sb.WriteByte(' ')
		w.sb.WriteString(c)
	}
}

func (w *writer) writePreBraceComments(indent int, comments []string) {
	w.writePrefixComments(indent, comments)
}

func prefixComments(v Value) []string {
	if v.comments == nil {
		return nil
	}
	return v.comments.Prefix
}

func postfixComments(v Value) []string {
	if v.comments == nil {
		return nil
	}
	return v.comments.Postfix
}

func preEndBraceComments(v Value) []string {
	if v.comments == nil {
		return nil
	}
	return v.comments.PreEndBrace
}

func hasPreEndBraceComments(v Value) bool {
	return len(preEndBraceComments(v)) > 0
}

func (w *writer) writeValue(indent int, v Value, writePrefix, writePostfix bool) {
	if w.options.AllowMacro && v.doc != nil && v.doc != w.doc && w.session != nil && w.session.sink != nil {
		// The subtree came from another document: write it back to its own
		// file and reference it.
		data, err := dumpString(v, w.options, w.session)
		if err != nil {
			w.fail(err)
		}
		if err := w.session.sink(v.doc.Filename, []byte(data)); err != nil {
			w.fail(&IOError{Path: v.doc.Filename, Err: err})
		}
		w.sb.WriteString("#include <")
		w.sb.WriteString(v.doc.Filename)
		w.sb.WriteByte('>')
		return
	}

	if writePrefix {
		w.writePrefixComments(indent, prefixComments(v))
	}

	switch v.typ {
	case Null:
		w.sb.WriteString("null")

	case Bool:
		if v.b {
			w.sb.WriteString("true")
		} else {
			w.sb.WriteString("false")
		}

	case Int:
		w.sb.WriteString(strconv.FormatInt(v.i, 10))

	case Float:
		w.writeNumber(v.f)

	case String:
		w.writeString(v.s)

	case Array:
		w.writeArray(indent, v)

	case Object:
		n := len(v.obj.entries)
		if n == 0 && !hasPreEndBraceComments(v) {
			if w.compact {
				w.sb.WriteString("{}")
			} else {
				w.sb.WriteString("{ }")
			}
		} else {
			if w.compact {
				w.sb.WriteByte('{')
			} else {
				w.sb.WriteString("{\n")
			}
			w.writeObjectContents(indent+1, v)
			w.writeIndent(indent)
			w.sb.WriteByte('}')
		}

	default:
		if w.options.WriteUninitialized {
			w.sb.WriteString("UNINITIALIZED")
		} else {
			w.fail(&EncodingError{Message: "Failed to serialize uninitialized value"})
		}
	}

	if writePostfix {
		w.writePostfixComments(postfixComments(v))
	}
}

func (w *writer) writeArray(indent int, v Value) {
	impl := v.arr.impl
	n := len(impl)

	switch {
	case n == 0 && !hasPreEndBraceComments(v):
		if w.compact {
			w.sb.WriteString("[]")
		} else {
			w.sb.WriteString("[ ]")
		}

	case w.compact || w.isSimpleArray(v):
		w.sb.WriteByte('[')
		if !w.compact {
			w.sb.WriteByte(' ')
		}
		for i, e := range impl {
			w.writeValue(indent+1, e, false, true)
			if w.compact {
				if i+1 < n {
					w.sb.WriteByte(',')
				}
			} else if w.options.ArrayOmitComma || i+1 == n {
				w.sb.WriteByte(' ')
			} else {
				w.sb.WriteString(", ")
			}
		}
		w.writePreBraceComments(indent+1, preEndBraceComments(v))
		w.sb.WriteByte(']')

	default:
		w.sb.WriteString("[\n")
		for i, e := range impl {
			w.writePrefixComments(indent+1, prefixComments(e))
			w.writeIndent(indent + 1)
			w.writeValue(indent+1, e, false, true)
			if w.options.ArrayOmitComma || i+1 == n {
				w.sb.WriteByte('\n')
			} else {
				w.sb.WriteString(",\n")
			}
		}
		w.writePreBraceComments(indent+1, preEndBraceComments(v))
		w.writeIndent(indent)
		w.sb.WriteByte(']')
	}
}

func (w *writer) writeObjectContents(indent int, v Value) {
	keys := v.obj.orderedKeys()
	if w.options.SortKeys {
		sort.Strings(keys)
	}

	alignValues := !w.compact && w.options.ObjectAlignValues
	longestKey := 0
	if alignValues {
		for _, key := range keys {
			longestKey = max(longestKey, len(key))
		}
	}

	n := len(keys)
	for i, key := range keys {
		value := v.obj.entries[key].value
		w.writePrefixComments(indent, prefixComments(value))
		w.writeIndent(indent)
		w.writeKey(key)
		if w.compact {
			w.sb.WriteByte(':')
		} else if w.options.OmitColonBeforeObject && value.IsObject() && len(value.obj.entries) != 0 {
			w.sb.WriteByte(' ')
		} else {
			w.sb.WriteString(": ")
			if alignValues {
				for j := len(key); j < longestKey; j++ {
					w.sb.WriteByte(' ')
				}
			}
		}
		w.writeValue(indent, value, false, true)
		if w.compact {
			if i+1 < n {
				w.sb.WriteByte(',')
			}
		} else if w.options.ObjectOmitComma || i+1 == n {
			w.sb.WriteByte('\n')
		} else {
			w.sb.WriteString(",\n")
		}
	}

	w.writePreBraceComments(indent, preEndBraceComments(v))
}

// isIdentifier reports whether s matches [A-Za-z_][A-Za-z0-9_]* and can be
// written as an unquoted key.
func isIdentifier(s string) bool {
	if len(s) == 0 || !identStarters[s[0]] {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !identChars[s[i]] {
			return false
		}
	}
	return true
}

func (w *writer) writeKey(key string) {
	if w.options.IdentifiersKeys && isIdentifier(key) {
		w.sb.WriteString(key)
	} else {
		w.writeString(key)
	}
}

// writeNumber prints a float with the fewest digits that still parse back
// to the exact same bits.
func (w *writer) writeNumber(val float64) {
	if w.options.DistinctFloats && val == 0 && math.Signbit(val) {
		w.sb.WriteString("-0.0")
		return
	}

	if val == math.Trunc(val) && math.Abs(val) < 1<<63 {
		w.sb.WriteString(strconv.FormatInt(int64(val), 10))
		if w.options.DistinctFloats {
			w.sb.WriteString(".0")
		}
		return
	}

	switch {
	case math.IsInf(val, +1):
		if !w.options.Inf {
			w.fail(&EncodingError{Message: "Can't encode infinity"})
		}
		w.sb.WriteString("+inf")
		return
	case math.IsInf(val, -1):
		if !w.options.Inf {
			w.fail(&EncodingError{Message: "Can't encode negative infinity"})
		}
		w.sb.WriteString("-inf")
		return
	case math.IsNaN(val):
		if !w.options.NaN {
			w.fail(&EncodingError{Message: "Can't encode NaN"})
		}
		w.sb.WriteString("+NaN")
		return
	}

	// A double that survives a round trip through float32 prints in the
	// float32 shortest form - provided that form still reads back as the
	// exact same double.
	if f32 := float32(val); float64(f32) == val {
		s := strconv.FormatFloat(float64(f32), 'g', -1, 32)
		if parsed, err := strconv.ParseFloat(s, 64); err == nil && parsed == val {
			w.sb.WriteString(s)
			return
		}
	}

	// Work up from low precision (good for denormals) to the full 17
	// significant digits.
	for _, prec := range []int{1, 6, 16} {
		s := strconv.FormatFloat(val, 'g', prec, 64)
		if parsed, err := strconv.ParseFloat(s, 64); err == nil && parsed == val {
			w.sb.WriteString(s)
			return
		}
	}
	w.sb.WriteString(strconv.FormatFloat(val, 'g', 17, 64))
}

func (w *writer) writeString(s string) {
	const longLine = 240

	if !w.options.StrPythonMultiline ||
		!strings.Contains(s, "\n") ||
		len(s) <= longLine ||
		strings.Contains(s, `"""`) {
		w.writeQuotedString(s)
	} else {
		w.sb.WriteString(`"""`)
		w.sb.WriteString(s)
		w.sb.WriteString(`"""`)
	}
}

func safeStringByte(c byte) bool {
	return c >= 0x20 && c != '\\' && c != '"'
}

func (w *writer) writeQuotedString(s string) {
	w.sb.WriteByte('"')

	for i := 0; i < len(s); {
		// Output large swaths of safe characters at once:
		start := i
		for i < len(s) && safeStringByte(s[i]) {
			i++
		}
		if start < i {
			w.sb.WriteString(s[start:i])
		}
		if i == len(s) {
			break
		}

		c := s[i]
		i++
		switch c {
		case '\\':
			w.sb.WriteString(`\\`)
		case '"':
			w.sb.WriteString(`\"`)
		case '\b':
			w.sb.WriteString(`\b`)
		case '\f':
			w.sb.WriteString(`\f`)
		case '\n':
			w.sb.WriteString(`\n`)
		case '\r':
			w.sb.WriteString(`\r`)
		case '\t':
			w.sb.WriteString(`\t`)
		default:
			// Remaining control bytes, NUL included, as \uXXXX so the
			// output stays parseable.
			w.sb.WriteString(`\u`)
			const hex = "0123456789abcdef"
			cc := uint16(c)
			w.sb.WriteByte(hex[(cc>>12)&0x0f])
			w.sb.WriteByte(hex[(cc>>8)&0x0f])
			w.sb.WriteByte(hex[(cc>>4)&0x0f])
			w.sb.WriteByte(hex[cc&0x0f])
		}
	}

	w.sb.WriteByte('"')
}

func (w *writer) isSimple(v Value) bool {
	if v.IsArray() && len(v.arr.impl) > 0 {
		return false
	}
	if v.IsObject() && len(v.obj.entries) > 0 {
		return false
	}
	if w.options.WriteComments && v.HasComments() {
		return false
	}
	return true
}

func isAllNumbers(v Value) bool {
	for _, e := range v.arr.impl {
		if !e.IsNumber() {
			return false
		}
	}
	return true
}

// isSimpleArray decides whether an array fits on one line: up to 16
// numbers (a 4x4 matrix, say), or up to 4 short scalars.
func (w *writer) isSimpleArray(v Value) bool {
	if len(v.arr.impl) <= 16 && isAllNumbers(v) {
		return true
	}

	if len(v.arr.impl) > 4 {
		return false
	}
	estimatedWidth := 0
	for _, e := range v.arr.impl {
		if !w.isSimple(e) {
			return false
		}
		if e.IsString() {
			estimatedWidth += 2 + len(e.s)
		} else {
			estimatedWidth += 5
		}
		estimatedWidth += 2
	}
	return estimatedWidth < 60
}
