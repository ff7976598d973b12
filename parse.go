package configuru

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseString parses a document and returns its value tree. The name should
// be something akin to a filename; it is only used for error reporting.
// Include directives fail without a Session - use Session.ParseString when
// the document may contain #include.
func ParseString(data []byte, options *FormatOptions, name string) (Value, error) {
	return NewSession(nil).ParseString(data, options, NewDocInfo(name))
}

// Character classes, indexed by byte.
var (
	identStarters [256]bool
	identChars    [256]bool
	maybeWhite    [256]bool
	specialChars  [256]bool
)

func init() {
	setRange := func(table *[256]bool, a, b byte) {
		for c := a; c <= b; c++ {
			table[c] = true
		}
	}

	identStarters['_'] = true
	setRange(&identStarters, 'a', 'z')
	setRange(&identStarters, 'A', 'Z')

	identChars['_'] = true
	setRange(&identChars, 'a', 'z')
	setRange(&identChars, 'A', 'Z')
	setRange(&identChars, '0', '9')

	maybeWhite['\n'] = true
	maybeWhite['\r'] = true
	maybeWhite['\t'] = true
	maybeWhite[' '] = true
	maybeWhite['/'] = true // Maybe a comment.

	specialChars[0] = true
	specialChars['\\'] = true
	specialChars['"'] = true
	specialChars['\n'] = true
	specialChars['\t'] = true
}

// parserState is the cursor: saving and restoring one gives bounded
// look-ahead.
type parserState struct {
	pos       int
	lineNr    int
	lineStart int
}

type parser struct {
	options *FormatOptions
	doc     *DocInfo
	session *Session
	data    []byte

	parserState
	// Expected number of indentation units between a newline and the next
	// key or value.
	indentation int
}

// parseAbort carries the first fatal error out of the recursive descent.
type parseAbort struct{ err error }

func parseDoc(data []byte, options *FormatOptions, doc *DocInfo, session *Session) (v Value, err error) {
	if options.EnforceIndentation && options.Indentation == "" {
		return Value{}, fmt.Errorf("configuru: EnforceIndentation requires a non-empty Indentation")
	}
	p := &parser{
		options:     options,
		doc:         doc,
		session:     session,
		data:        data,
		parserState: parserState{pos: 0, lineNr: 1, lineStart: 0},
	}
	defer func() {
		if r := recover(); r != nil {
			ab, ok := r.(parseAbort)
			if !ok {
				panic(r)
			}
			v, err = Value{}, ab.err
		}
	}()
	return p.topLevel(), nil
}

// at returns the byte at the given offset from the cursor, or 0 past the
// end. The zero byte doubles as the end-of-input sentinel, exactly like a
// NUL-terminated buffer.
func (p *parser) at(off int) byte {
	return p.byteAt(p.pos + off)
}

func (p *parser) byteAt(i int) byte {
	if i < len(p.data) {
		return p.data[i]
	}
	return 0
}

func (p *parser) startsWith(s string) bool {
	return bytes.HasPrefix(p.data[min(p.pos, len(p.data)):], []byte(s))
}

func (p *parser) state() parserState     { return p.parserState }
func (p *parser) setState(s parserState) { p.parserState = s }

func (p *parser) column() int {
	return p.pos - p.lineStart + 1
}

func (p *parser) tag(v *Value) {
	v.tag(p.doc, p.lineNr)
}

func (p *parser) endOfLine() int {
	i := p.pos
	for i < len(p.data) && p.data[i] != '\r' && p.data[i] != '\n' {
		i++
	}
	return i
}

// throwError aborts parsing with a ParseError at the cursor. The rendered
// message shows the offending source line with a caret under the column,
// tabs expanded so the caret lines up.
func (p *parser) throwError(desc string) {
	var orientation strings.Builder
	for i := p.lineStart; i < p.endOfLine(); i++ {
		if p.data[i] == '\t' {
			orientation.WriteString("    ")
		} else {
			orientation.WriteByte(p.data[i])
		}
	}
	orientation.WriteString("\n")
	for i := p.lineStart; i < p.pos && i < len(p.data); i++ {
		if p.data[i] == '\t' {
			orientation.WriteString("    ")
		} else {
			orientation.WriteByte(' ')
		}
	}
	orientation.WriteString("^")

	panic(parseAbort{&ParseError{
		Doc:         p.doc,
		Line:        p.lineNr,
		Column:      p.column(),
		Message:     desc,
		orientation: orientation.String(),
	}})
}

func (p *parser) throwIndentationError(first, second int) {
	if p.options.EnforceIndentation {
		p.throwError(fmt.Sprintf("Bad indentation: expected %d tabs, found %d", first, second))
	}
}

func (p *parser) assert(b bool, errMsg string) {
	if !b {
		p.throwError(errMsg)
	}
}

func (p *parser) assertAt(b bool, errMsg string, errState parserState) {
	if !b {
		p.setState(errState)
		p.throwError(errMsg)
	}
}

func (p *parser) swallow(c byte) {
	if p.at(0) == c {
		p.pos++
	} else {
		p.throwError("Expected " + quoteChar(c))
	}
}

func (p *parser) swallowStr(s, errMsg string) {
	p.assert(p.startsWith(s), errMsg)
	p.pos += len(s)
}

// isReservedIdentifier reports whether the cursor sits on a whole
// true/false/null keyword.
func (p *parser) isReservedIdentifier() bool {
	if p.startsWith("true") || p.startsWith("null") {
		return !identChars[p.at(4)]
	}
	if p.startsWith("false") {
		return !identChars[p.at(5)]
	}
	return false
}

func quoteChar(c byte) string {
	switch c {
	case 0:
		return "<eof>"
	case ' ':
		return "<space>"
	case '\n':
		return "'\\n'"
	case '\t':
		return "'\\t'"
	case '\r':
		return "'\\r'"
	case '\b':
		return "'\\b'"
	}
	return "'" + string(c) + "'"
}

// ----------------------------------------------------------------------------
// Whitespace and comments.

// skipWhite consumes whitespace and comments between tokens. It reports
// whether anything was skipped, and the indentation depth of the last line
// skipped onto: -1 means the line held something that was not pure
// indentation. Comments are collected into outComments with their
// delimiters kept. With breakOnNewline the skipper stops after the first
// line break, which is how same-line postfix comments are captured.
func (p *parser) skipWhite(outComments *[]string, breakOnNewline bool) (didSkip bool, outIndentation int) {
	startPos := p.pos
	foundNewline := false
	indentation := p.options.Indentation

	for maybeWhite[p.at(0)] {
		switch {
		case p.at(0) == '\n':
			// Unix style newline
			p.pos++
			p.lineNr++
			p.lineStart = p.pos
			outIndentation = 0
			if breakOnNewline {
				return true, outIndentation
			}
			foundNewline = true

		case p.at(0) == '\r':
			// CR-LF - windows style newline
			p.assert(p.at(1) == '\n', "CR with no LF. \\r only allowed before \\n.")
			p.pos += 2
			p.lineNr++
			p.lineStart = p.pos
			outIndentation = 0
			if breakOnNewline {
				return true, outIndentation
			}
			foundNewline = true

		case indentation != "" && p.startsWith(indentation):
			p.pos += len(indentation)
			if p.options.EnforceIndentation && indentation == "\t" {
				p.assert(outIndentation != -1, "Tabs should only occur on the start of a line!")
			}
			outIndentation++

		case p.at(0) == '\t':
			p.pos++
			if p.options.EnforceIndentation {
				p.assert(outIndentation != -1, "Tabs should only occur on the start of a line!")
			}
			outIndentation++

		case p.at(0) == ' ':
			if foundNewline && p.options.EnforceIndentation {
				if indentation == "\t" {
					p.throwError("Found a space at beginning of a line. Indentation must be done using tabs!")
				} else {
					p.throwError("Indentation should be a multiple of " + strconv.Itoa(len(indentation)) + " spaces.")
				}
			}
			p.pos++
			outIndentation = -1

		case p.at(0) == '/' && p.at(1) == '/':
			p.assert(p.options.SingleLineComments, "Single line comments forbidden.")
			start := p.pos
			p.pos += 2
			for p.at(0) != 0 && p.at(0) != '\n' {
				p.pos++
			}
			if outComments != nil {
				*outComments = append(*outComments, string(p.data[start:p.pos]))
			}
			outIndentation = 0
			if breakOnNewline {
				return true, outIndentation
			}

		case p.at(0) == '/' && p.at(1) == '*':
			p.assert(p.options.BlockComments, "Block comments forbidden.")
			// Remember the start so an unterminated comment can point at it.
			state := p.state()
			p.pos += 2
			nesting := 1
			for nesting > 0 {
				switch {
				case p.at(0) == 0:
					p.setState(state)
					p.throwError("Non-ending /* comment")
				case p.at(0) == '/' && p.at(1) == '*':
					p.pos += 2
					p.assert(p.options.NestingBlockComments, "Nesting comments (/* /* */ */) forbidden.")
					nesting++
				case p.at(0) == '*' && p.at(1) == '/':
					p.pos += 2
					nesting--
				case p.at(0) == '\n':
					p.pos++
					p.lineNr++
					p.lineStart = p.pos
				default:
					p.pos++
				}
			}
			if outComments != nil {
				*outComments = append(*outComments, string(p.data[state.pos:p.pos]))
			}
			outIndentation = -1
			if breakOnNewline {
				return true, outIndentation
			}

		default:
			if startPos == p.pos {
				return false, -1
			}
			return true, outIndentation
		}
	}

	if startPos == p.pos {
		return false, -1
	}
	return true, outIndentation
}

func (p *parser) skipWhiteIgnoreComments() bool {
	didSkip, _ := p.skipWhite(nil, false)
	return didSkip
}

// skipPreWhite skips leading whitespace before a value, attaching any
// comments found as the value's prefix comments.
func (p *parser) skipPreWhite(v *Value) (lineIndentation int) {
	if !maybeWhite[p.at(0)] {
		return -1
	}
	var comments []string
	_, lineIndentation = p.skipWhite(&comments, false)
	if len(comments) > 0 {
		c := v.Comments()
		c.Prefix = append(c.Prefix, comments...)
	}
	return lineIndentation
}

// skipPostWhite skips trailing whitespace on the value's own line,
// attaching same-line comments as postfix comments.
func (p *parser) skipPostWhite(v *Value) bool {
	if !maybeWhite[p.at(0)] {
		return false
	}
	var comments []string
	didSkip, _ := p.skipWhite(&comments, true)
	if len(comments) > 0 {
		c := v.Comments()
		c.Postfix = append(c.Postfix, comments...)
	}
	return didSkip
}

// ----------------------------------------------------------------------------
// Grammar.

// topLevel parses a whole document. The top level can be any value, or the
// innards of an object:
//
//	foo = 1
//	"bar": 2
func (p *parser) topLevel() Value {
	isObject := false

	if p.options.ImplicitTopObject {
		state := p.state()
		p.skipWhiteIgnoreComments()

		if identStarters[p.at(0)] && !p.isReservedIdentifier() {
			isObject = true
		} else if p.at(0) == '"' || p.at(0) == '@' {
			p.parseString()
			p.skipWhiteIgnoreComments()
			isObject = p.at(0) == ':' || p.at(0) == '='
		}

		p.setState(state) // restore
	}

	var ret Value
	p.tag(&ret)

	if isObject {
		p.parseObjectContents(&ret)
	} else {
		p.parseArrayContents(&ret)
		p.assert(len(ret.arr.impl) <= 1 || p.options.ImplicitTopArray,
			"Multiple values not allowed without enclosing []")
	}

	p.skipPostWhite(&ret)

	p.assert(p.at(0) == 0, "Expected EoF")

	if !isObject && len(ret.arr.impl) == 0 {
		if !p.options.EmptyFile {
			p.throwError("Empty file")
		}
		var empty Value
		empty.makeObject()
		empty.tag(ret.doc, ret.line)
		if ret.HasComments() {
			empty.comments = ret.comments
		}
		return empty
	}

	if !isObject && len(ret.arr.impl) == 1 {
		// A single value - not an array after all. The array's comments
		// travel with it.
		first := ret.arr.impl[0]
		if ret.HasComments() {
			first.Comments().Append(ret.comments)
		}
		return first
	}

	return ret
}

// parseValue parses one value into dst and reports whether any whitespace
// followed it (a potential element separator).
func (p *parser) parseValue(dst *Value) (hasSeparator bool) {
	lineIndentation := p.skipPreWhite(dst)
	p.tag(dst)

	if lineIndentation >= 0 && p.indentation-1 != lineIndentation {
		p.throwIndentationError(p.indentation-1, lineIndentation)
	}

	c := p.at(0)
	switch {
	case c == '"' || c == '@':
		dst.Assign(NewString(p.parseString()))

	case c == 'n':
		p.assert(p.at(1) == 'u' && p.at(2) == 'l' && p.at(3) == 'l', "Expected 'null'")
		p.assert(!identChars[p.at(4)], "Expected 'null'")
		p.pos += 4
		dst.Assign(NewNull())

	case c == 't':
		p.assert(p.at(1) == 'r' && p.at(2) == 'u' && p.at(3) == 'e', "Expected 'true'")
		p.assert(!identChars[p.at(4)], "Expected 'true'")
		p.pos += 4
		dst.Assign(NewBool(true))

	case c == 'f':
		p.assert(p.at(1) == 'a' && p.at(2) == 'l' && p.at(3) == 's' && p.at(4) == 'e', "Expected 'false'")
		p.assert(!identChars[p.at(5)], "Expected 'false'")
		p.pos += 5
		dst.Assign(NewBool(false))

	case c == '{':
		p.parseObject(dst)

	case c == '[':
		p.parseArray(dst)

	case c == '#':
		p.parseMacro(dst)

	case c == '+' || c == '-' || c == '.' || ('0' <= c && c <= '9'):
		// Some kind of number:
		switch {
		case p.startsWith("-inf"):
			p.assert(!identChars[p.at(4)], "Expected -inf")
			p.assert(p.options.Inf, "infinity forbidden.")
			p.pos += 4
			dst.Assign(NewFloat(math.Inf(-1)))
		case p.startsWith("+inf"):
			p.assert(!identChars[p.at(4)], "Expected +inf")
			p.assert(p.options.Inf, "infinity forbidden.")
			p.pos += 4
			dst.Assign(NewFloat(math.Inf(+1)))
		case p.startsWith("+NaN"):
			p.assert(!identChars[p.at(4)], "Expected +NaN")
			p.assert(p.options.NaN, "NaN (Not a Number) forbidden.")
			p.pos += 4
			dst.Assign(NewFloat(math.NaN()))
		default:
			p.parseFiniteNumber(dst)
		}

	default:
		p.throwError("Expected value")
	}

	return p.skipPostWhite(dst)
}

func (p *parser) parseArray(dst *Value) {
	state := p.state()

	p.swallow('[')

	p.indentation++
	p.parseArrayContents(dst)
	p.indentation--

	if p.at(0) == ']' {
		p.pos++
	} else {
		p.setState(state)
		p.throwError("Non-terminated array")
	}
}

func (p *parser) parseArrayContents(dst *Value) {
	dst.makeArray()

	var nextPrefixComments []string

	for {
		var value Value
		if len(nextPrefixComments) > 0 {
			value.Comments().Prefix = nextPrefixComments
			nextPrefixComments = nil
		}
		lineIndentation := p.skipPreWhite(&value)

		if p.at(0) == ']' {
			if lineIndentation >= 0 && p.indentation-1 != lineIndentation {
				p.throwIndentationError(p.indentation-1, lineIndentation)
			}
			if value.HasComments() {
				dst.Comments().PreEndBrace = value.comments.Prefix
			}
			break
		}

		if p.at(0) == 0 {
			if value.HasComments() {
				dst.Comments().PreEndBrace = value.comments.Prefix
			}
			break
		}

		if lineIndentation >= 0 && p.indentation != lineIndentation {
			p.throwIndentationError(p.indentation, lineIndentation)
		}

		if identStarters[p.at(0)] && !p.isReservedIdentifier() {
			p.throwError("Found identifier; expected value. Did you mean to use a {object} rather than a [array]?")
		}

		hasSeparator := p.parseValue(&value)
		p.skipWhite(&nextPrefixComments, false)

		commaState := p.state()
		hasComma := p.at(0) == ','

		if hasComma {
			p.pos++
			p.skipPostWhite(&value)
			hasSeparator = true
		}

		dst.arr.impl = append(dst.arr.impl, value)

		isLastElement := p.at(0) == 0 || p.at(0) == ']'

		if isLastElement {
			p.assertAt(!hasComma || p.options.ArrayTrailingComma,
				"Trailing comma forbidden.", commaState)
		} else if p.options.ArrayOmitComma {
			p.assert(hasSeparator, "Expected a space, newline, comma or ]")
		} else {
			p.assert(hasComma, "Expected a comma or ]")
		}
	}
}

func (p *parser) parseObject(dst *Value) {
	state := p.state()

	p.swallow('{')

	p.indentation++
	p.parseObjectContents(dst)
	p.indentation--

	if p.at(0) == '}' {
		p.pos++
	} else {
		p.setState(state)
		p.throwError("Non-terminated object")
	}
}

func (p *parser) parseObjectContents(dst *Value) {
	dst.makeObject()

	var nextPrefixComments []string

	for {
		var value Value
		if len(nextPrefixComments) > 0 {
			value.Comments().Prefix = nextPrefixComments
			nextPrefixComments = nil
		}
		lineIndentation := p.skipPreWhite(&value)

		if p.at(0) == '}' {
			if lineIndentation >= 0 && p.indentation-1 != lineIndentation {
				p.throwIndentationError(p.indentation-1, lineIndentation)
			}
			if value.HasComments() {
				dst.Comments().PreEndBrace = value.comments.Prefix
			}
			break
		}

		if p.at(0) == 0 {
			if value.HasComments() {
				dst.Comments().PreEndBrace = value.comments.Prefix
			}
			break
		}

		if lineIndentation >= 0 && p.indentation != lineIndentation {
			p.throwIndentationError(p.indentation, lineIndentation)
		}

		preKeyState := p.state()
		var key string

		if identStarters[p.at(0)] && !p.isReservedIdentifier() {
			p.assert(p.options.IdentifiersKeys, "You need to surround keys with quotes")
			start := p.pos
			for identChars[p.at(0)] {
				p.pos++
			}
			key = string(p.data[start:p.pos])
		} else if p.at(0) == '"' || p.at(0) == '@' {
			key = p.parseString()
		} else {
			p.throwError("Object key expected (either an identifier or a quoted string), got " + quoteChar(p.at(0)))
		}

		if !p.options.ObjectDuplicateKeys {
			if prior, ok := dst.obj.entries[key]; ok {
				p.setState(preKeyState)
				p.throwError("Duplicate key: \"" + key + "\". Already set at " + prior.value.Where())
			}
		}

		spaceAfterKey := p.skipWhiteIgnoreComments()

		if p.at(0) == ':' || (p.options.ObjectSeparatorEqual && p.at(0) == '=') {
			p.assert(p.options.AllowSpaceBeforeColon || p.at(0) != ':' || !spaceAfterKey,
				"No space allowed before colon")
			p.pos++
			p.skipWhiteIgnoreComments()
		} else if p.options.OmitColonBeforeObject && (p.at(0) == '{' || p.at(0) == '#') {
			// Ok to omit : in this case.
		} else if p.options.ObjectSeparatorEqual && p.options.OmitColonBeforeObject {
			p.throwError("Expected one of '=', ':', '{' or '#' after object key")
		} else {
			p.throwError("Expected : after object key")
		}

		hasSeparator := p.parseValue(&value)
		p.skipWhite(&nextPrefixComments, false)

		commaState := p.state()
		hasComma := p.at(0) == ','

		if hasComma {
			p.pos++
			p.skipPostWhite(&value)
			hasSeparator = true
		}

		// Last writer wins when duplicate keys are tolerated.
		if entry, ok := dst.obj.entries[key]; ok {
			entry.value = value
		} else {
			dst.obj.entries[key] = &objectEntry{value: value, nr: len(dst.obj.entries)}
		}

		isLastElement := p.at(0) == 0 || p.at(0) == '}'

		if isLastElement {
			p.assertAt(!hasComma || p.options.ObjectTrailingComma,
				"Trailing comma forbidden.", commaState)
		} else if p.options.ObjectOmitComma {
			p.assert(hasSeparator, "Expected a space, newline, comma or }")
		} else {
			p.assert(hasComma, "Expected a comma or }")
		}
	}
}

// ----------------------------------------------------------------------------
// Numbers.

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isHexDigit(c byte) bool {
	return isDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func (p *parser) parseInt(dst *Value) {
	start := p.pos
	j := start
	if b := p.byteAt(j); b == '+' || b == '-' {
		j++
	}
	digitsStart := j
	for isDigit(p.byteAt(j)) {
		j++
	}
	p.assert(j > digitsStart, "Invalid integer")
	val, err := strconv.ParseInt(string(p.data[start:j]), 10, 64)
	if err != nil {
		p.throwError("Invalid integer")
	}
	p.assert(p.byteAt(digitsStart) != '0' || val == 0, "Integer may not start with a zero")
	p.pos = j
	dst.Assign(NewInt(val))
}

func (p *parser) parseFloat(dst *Value) {
	start := p.pos
	j := start
	if b := p.byteAt(j); b == '+' || b == '-' {
		j++
	}
	for isDigit(p.byteAt(j)) {
		j++
	}
	if p.byteAt(j) == '.' {
		j++
		for isDigit(p.byteAt(j)) {
			j++
		}
	}
	if b := p.byteAt(j); b == 'e' || b == 'E' {
		k := j + 1
		if b := p.byteAt(k); b == '+' || b == '-' {
			k++
		}
		if isDigit(p.byteAt(k)) {
			j = k
			for isDigit(p.byteAt(j)) {
				j++
			}
		}
	}
	val, err := strconv.ParseFloat(string(p.data[start:j]), 64)
	if err != nil {
		// Out-of-range magnitudes saturate to +-inf (or 0), like strtod.
		numErr, ok := err.(*strconv.NumError)
		if !ok || numErr.Err != strconv.ErrRange {
			p.throwError("Invalid number")
		}
	}
	if j == start {
		p.throwError("Invalid number")
	}
	p.pos = j
	dst.Assign(NewFloat(val))
}

// unsignedFromDigits converts hex or binary digits, saturating at the
// maximum on overflow the way strtoull does.
func (p *parser) unsignedFromDigits(digits string, base int) int64 {
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		numErr, ok := err.(*strconv.NumError)
		if !ok || numErr.Err != strconv.ErrRange {
			p.throwError("Invalid integer")
		}
		u = math.MaxUint64
	}
	return int64(u)
}

// parseFiniteNumber parses anything numeric that is not an inf/NaN keyword.
// A digit string that cannot fit a signed 64-bit integer silently becomes a
// float; the 19-digit boundary is decided by string comparison so that
// 9223372036854775807 stays an integer and ...08 does not.
func (p *parser) parseFiniteNumber(dst *Value) {
	preSign := p.pos
	sign := int64(1)

	if p.at(0) == '+' {
		p.assert(p.options.UnaryPlus, "Prefixing numbers with + is forbidden.")
		p.pos++
	}
	if p.at(0) == '-' {
		p.pos++
		sign = -1
	}

	p.assert(p.at(0) != '+' && p.at(0) != '-', "Duplicate sign")

	// Check if it's an integer:
	if p.at(0) == '0' && p.at(1) == 'x' {
		p.assert(p.options.HexadecimalIntegers, "Hexadecimal numbers forbidden.")
		p.pos += 2
		start := p.pos
		for isHexDigit(p.at(0)) {
			p.pos++
		}
		p.assert(p.pos > start, "Missing hexadecimal digits after 0x")
		dst.Assign(NewInt(sign * p.unsignedFromDigits(string(p.data[start:p.pos]), 16)))
		return
	}

	if p.at(0) == '0' && p.at(1) == 'b' {
		p.assert(p.options.BinaryIntegers, "Binary numbers forbidden.")
		p.pos += 2
		start := p.pos
		for p.at(0) == '0' || p.at(0) == '1' {
			p.pos++
		}
		p.assert(p.pos > start, "Missing binary digits after 0b")
		dst.Assign(NewInt(sign * p.unsignedFromDigits(string(p.data[start:p.pos]), 2)))
		return
	}

	j := p.pos
	for isDigit(p.byteAt(j)) {
		j++
	}

	if b := p.byteAt(j); b == '.' || b == 'e' || b == 'E' {
		p.pos = preSign
		p.parseFloat(dst)
		return
	}

	// It looks like an integer - but it may be too long to represent as one!
	maxIntStr := "9223372036854775807"
	if sign == -1 {
		maxIntStr = "9223372036854775808"
	}

	length := j - p.pos

	if length < 19 {
		p.pos = preSign
		p.parseInt(dst)
		return
	}

	if length > 19 {
		p.pos = preSign
		p.parseFloat(dst) // Uncommon case optimization
		return
	}

	// Compare fast:
	for i := 0; i < 19; i++ {
		if p.at(i) > maxIntStr[i] {
			p.pos = preSign
			p.parseFloat(dst)
			return
		}
		if p.at(i) < maxIntStr[i] {
			p.pos = preSign
			p.parseInt(dst)
			return
		}
	}
	p.pos = preSign
	p.parseInt(dst) // Exactly max int
}

// ----------------------------------------------------------------------------
// Strings.

func (p *parser) parseCSharpString() string {
	// C# style verbatim string - everything until the next " except ""
	// which is ":
	state := p.state()
	p.assert(p.options.StrCSharpVerbatim, "C# @-style verbatim strings forbidden.")
	p.swallow('@')
	p.swallow('"')

	var sb strings.Builder

	for {
		switch {
		case p.at(0) == 0:
			p.setState(state)
			p.throwError("Unterminated verbatim string")
		case p.at(0) == '\n':
			p.throwError("Newline in verbatim string")
		case p.at(0) == '"' && p.at(1) == '"':
			// Escaped quote
			p.pos += 2
			sb.WriteByte('"')
		case p.at(0) == '"':
			p.pos++
			return sb.String()
		default:
			sb.WriteByte(p.at(0))
			p.pos++
		}
	}
}

func (p *parser) parseString() string {
	if p.at(0) == '@' {
		return p.parseCSharpString()
	}

	state := p.state()
	p.assert(p.at(0) == '"', "Quote (\") expected")

	if p.at(1) == '"' && p.at(2) == '"' {
		// Python style multiline string - everything until the next """:
		p.assert(p.options.StrPythonMultiline, "Python \"\"\"-style multiline strings forbidden.")
		p.pos += 3
		start := p.pos
		for {
			if p.at(0) == 0 || p.at(1) == 0 || p.at(2) == 0 {
				p.setState(state)
				p.throwError("Unterminated multiline string")
			}

			if p.at(0) == '"' && p.at(1) == '"' && p.at(2) == '"' && p.at(3) != '"' {
				s := string(p.data[start:p.pos])
				p.pos += 3
				return s
			}

			if p.at(0) == '\n' {
				p.pos++
				p.lineNr++
				p.lineStart = p.pos
			} else {
				p.pos++
			}
		}
	}

	// Normal string
	p.pos++ // Swallow quote

	var sb strings.Builder

	for {
		// Handle large swaths of safe characters at once:
		safeEnd := p.pos
		for safeEnd < len(p.data) && !specialChars[p.data[safeEnd]] {
			safeEnd++
		}
		if safeEnd > p.pos {
			sb.Write(p.data[p.pos:safeEnd])
			p.pos = safeEnd
		}

		if p.at(0) == 0 {
			p.setState(state)
			p.throwError("Unterminated string")
		}
		if p.at(0) == '"' {
			p.pos++
			return sb.String()
		}
		if p.at(0) == '\n' {
			p.throwError("Newline in string")
		}
		if p.at(0) == '\t' {
			p.assert(p.options.StrAllowTab, "Un-escaped tab not allowed in string")
		}

		if p.at(0) == '\\' {
			// Escape sequence
			p.pos++

			switch p.at(0) {
			case '"':
				sb.WriteByte('"')
				p.pos++
			case '\\':
				sb.WriteByte('\\')
				p.pos++
			case '/':
				sb.WriteByte('/')
				p.pos++
			case 'b':
				sb.WriteByte('\b')
				p.pos++
			case 'f':
				sb.WriteByte('\f')
				p.pos++
			case 'n':
				sb.WriteByte('\n')
				p.pos++
			case 'r':
				sb.WriteByte('\r')
				p.pos++
			case 't':
				sb.WriteByte('\t')
				p.pos++
			case 'u':
				// Four hexadecimal characters
				p.pos++
				codepoint := p.parseHex(4)
				if 0xD800 <= codepoint && codepoint <= 0xDBFF {
					// Surrogate pair
					p.assert(p.at(0) == '\\' && p.at(1) == 'u', "Missing second unicode surrogate.")
					p.pos += 2
					codepoint2 := p.parseHex(4)
					p.assert(0xDC00 <= codepoint2 && codepoint2 <= 0xDFFF, "Invalid second unicode surrogate")
					codepoint = (codepoint << 10) + codepoint2 - 0x35FDC00
				}
				p.assert(writeUTF8(&sb, codepoint), "Bad unicode codepoint")
			case 'U':
				// Eight hexadecimal characters
				p.assert(p.options.Str32BitUnicode, "\\U 32 bit unicodes forbidden.")
				p.pos++
				codepoint := p.parseHex(8)
				p.assert(writeUTF8(&sb, codepoint), "Bad unicode codepoint")
			default:
				p.throwError("Unknown escape character " + quoteChar(p.at(0)))
			}
		} else {
			sb.WriteByte(p.at(0))
			p.pos++
		}
	}
}

func (p *parser) parseHex(count int) uint64 {
	var ret uint64
	for i := 0; i < count; i++ {
		c := p.at(i)
		ret *= 16
		switch {
		case '0' <= c && c <= '9':
			ret += uint64(c - '0')
		case 'a' <= c && c <= 'f':
			ret += uint64(10 + c - 'a')
		case 'A' <= c && c <= 'F':
			ret += uint64(10 + c - 'A')
		default:
			p.throwError("Expected hexadecimal digit, got " + quoteChar(c))
		}
	}
	p.pos += count
	return ret
}

// writeUTF8 encodes a codepoint as UTF-8, up to the six-byte form covering
// values through 0x7FFFFFFF (needed for \U escapes). It reports success.
func writeUTF8(sb *strings.Builder, c uint64) bool {
	switch {
	case c <= 0x7F: // 0XXX XXXX - one byte
		sb.WriteByte(byte(c))
		return true
	case c <= 0x7FF: // 110X XXXX - two bytes
		sb.WriteByte(byte(0xC0 | (c >> 6)))
		sb.WriteByte(byte(0x80 | (c & 0x3F)))
		return true
	case c <= 0xFFFF: // 1110 XXXX - three bytes
		sb.WriteByte(byte(0xE0 | (c >> 12)))
		sb.WriteByte(byte(0x80 | ((c >> 6) & 0x3F)))
		sb.WriteByte(byte(0x80 | (c & 0x3F)))
		return true
	case c <= 0x1FFFFF: // 1111 0XXX - four bytes
		sb.WriteByte(byte(0xF0 | (c >> 18)))
		sb.WriteByte(byte(0x80 | ((c >> 12) & 0x3F)))
		sb.WriteByte(byte(0x80 | ((c >> 6) & 0x3F)))
		sb.WriteByte(byte(0x80 | (c & 0x3F)))
		return true
	case c <= 0x3FFFFFF: // 1111 10XX - five bytes
		sb.WriteByte(byte(0xF8 | (c >> 24)))
		sb.WriteByte(byte(0x80 | ((c >> 18) & 0x3F)))
		sb.WriteByte(byte(0x80 | ((c >> 12) & 0x3F)))
		sb.WriteByte(byte(0x80 | ((c >> 6) & 0x3F)))
		sb.WriteByte(byte(0x80 | (c & 0x3F)))
		return true
	case c <= 0x7FFFFFFF: // 1111 110X - six bytes
		sb.WriteByte(byte(0xFC | (c >> 30)))
		sb.WriteByte(byte(0x80 | ((c >> 24) & 0x3F)))
		sb.WriteByte(byte(0x80 | ((c >> 18) & 0x3F)))
		sb.WriteByte(byte(0x80 | ((c >> 12) & 0x3F)))
		sb.WriteByte(byte(0x80 | ((c >> 6) & 0x3F)))
		sb.WriteByte(byte(0x80 | (c & 0x3F)))
		return true
	}
	return false
}

// ----------------------------------------------------------------------------
// Includes.

func (p *parser) parseMacro(dst *Value) {
	p.assert(p.options.AllowMacro, "#macros forbidden.")

	p.swallowStr("#include", "Expected '#include'")
	p.skipWhiteIgnoreComments()

	var absolute bool
	var terminator byte

	switch p.at(0) {
	case '"':
		absolute = false
		terminator = '"'
	case '<':
		absolute = true
		terminator = '>'
	default:
		p.throwError("Expected \" or <")
	}

	state := p.state()
	p.pos++
	start := p.pos
	var path string
	for done := false; !done; {
		switch {
		case p.at(0) == 0:
			p.setState(state)
			p.throwError("Unterminated include path")
		case p.at(0) == terminator:
			path = string(p.data[start:p.pos])
			p.pos++
			done = true
		case p.at(0) == '\n':
			p.throwError("Newline in string")
		default:
			p.pos++
		}
	}

	if !absolute {
		// Relative to the directory of the current document.
		if idx := strings.LastIndexByte(p.doc.Filename, '/'); idx >= 0 {
			path = p.doc.Filename[:idx+1] + path
		}
	}

	val, err := p.session.include(path, p.doc, p.lineNr, p.options)
	if err != nil {
		if _, ok := err.(*ParseError); ok {
			panic(parseAbort{err})
		}
		if _, ok := err.(*IOError); ok {
			panic(parseAbort{err})
		}
		p.throwError(err.Error())
	}
	dst.Assign(val)
}
