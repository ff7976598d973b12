package configuru

// FormatOptions contains every way the file format can be tweaked. The same
// record drives both the parser (which relaxations to accept) and the writer
// (how to lay out the output).
//
// Use one of the presets - CFG, JSON or Forgiving - as a starting point and
// flip individual fields as needed.
type FormatOptions struct {
	// Indentation is written once per nesting level. It should be a single
	// tab, a run of spaces, or the empty string. Empty means compact output:
	// no newlines and minimal whitespace.
	Indentation string
	// EnforceIndentation makes the parser require correct indentation.
	EnforceIndentation bool
	// EndWithNewline appends a final newline when writing (unless compact).
	EndWithNewline bool

	// Top file:
	EmptyFile         bool // Treat an empty document as the empty object.
	ImplicitTopObject bool // Allow key-value pairs at the top level.
	ImplicitTopArray  bool // Allow several values at the top level.

	// Comments:
	SingleLineComments   bool // Allow this?
	BlockComments        bool /* Allow this? */
	NestingBlockComments bool // Allow /* nested /* block */ comments */?

	// Numbers:
	Inf                 bool // Allow +inf, -inf
	NaN                 bool // Allow +NaN
	HexadecimalIntegers bool // Allow 0xff
	BinaryIntegers      bool // Allow 0b1010
	UnaryPlus           bool // Allow +42
	// DistinctFloats prints 9.0 as "9.0", not just "9", and keeps -0.0
	// distinct from 0. A must for round-tripping.
	DistinctFloats bool

	// Arrays:
	ArrayOmitComma     bool // Allow [1 2 3]
	ArrayTrailingComma bool // Allow [1, 2, 3,]

	// Objects:
	IdentifiersKeys       bool // { is_this_ok: true }
	ObjectSeparatorEqual  bool // { "is_this_ok" = true }
	AllowSpaceBeforeColon bool // { "is_this_ok" : true }
	OmitColonBeforeObject bool // { "nested_object" { } }
	ObjectOmitComma       bool // Allow {a:1 b:2}
	ObjectTrailingComma   bool // Allow {a:1, b:2,}
	ObjectDuplicateKeys   bool // Allow {"a":1, "a":2} (last writer wins)
	ObjectAlignValues     bool // Pad keys so subsequent values line up.

	// Strings:
	StrCSharpVerbatim  bool // Allow @"Verbatim\strings"
	StrPythonMultiline bool // Allow """ Python multiline strings """
	Str32BitUnicode    bool // Allow "\U0030dbfd"
	StrAllowTab        bool // Allow unescaped tab in string.

	// Special:
	AllowMacro bool // Allow `#include "some_other_file.cfg"`

	// When writing:
	WriteComments bool
	// SortKeys writes object keys lexicographically. If false, keys are
	// written in the order they were added.
	SortKeys bool
	// WriteUninitialized prints uninitialized values as UNINITIALIZED
	// instead of failing. Useful for debugging.
	WriteUninitialized bool
	// MarkAccessed makes a dump mark every visited entry as accessed.
	MarkAccessed bool
}

// Compact reports whether output will be written without newlines.
func (o *FormatOptions) Compact() bool { return o.Indentation == "" }

// CFG returns the options of the native config file format: tab indentation
// enforced, includes allowed, and the relaxations on except empty files, '='
// separators, a space before ':', omitted colons and duplicate keys.
func CFG() *FormatOptions {
	return &FormatOptions{
		Indentation:        "\t",
		EnforceIndentation: true,
		EndWithNewline:     true,

		EmptyFile:         false,
		ImplicitTopObject: true,
		ImplicitTopArray:  true,

		SingleLineComments:   true,
		BlockComments:        true,
		NestingBlockComments: true,

		Inf:                 true,
		NaN:                 true,
		HexadecimalIntegers: true,
		BinaryIntegers:      true,
		UnaryPlus:           true,
		DistinctFloats:      true,

		ArrayOmitComma:     true,
		ArrayTrailingComma: true,

		IdentifiersKeys:       true,
		ObjectSeparatorEqual:  false,
		AllowSpaceBeforeColon: false,
		OmitColonBeforeObject: false,
		ObjectOmitComma:       true,
		ObjectTrailingComma:   true,
		ObjectDuplicateKeys:   false,
		ObjectAlignValues:     true,

		StrCSharpVerbatim:  true,
		StrPythonMultiline: true,
		Str32BitUnicode:    true,
		StrAllowTab:        true,

		AllowMacro: true,

		WriteComments: true,
		SortKeys:      false,
		MarkAccessed:  true,
	}
}

// JSON returns options describing the strict JSON file format.
func JSON() *FormatOptions {
	return &FormatOptions{
		Indentation:        "\t",
		EnforceIndentation: false,
		EndWithNewline:     true,

		EmptyFile:         false,
		ImplicitTopObject: false,
		ImplicitTopArray:  false,

		SingleLineComments:   false,
		BlockComments:        false,
		NestingBlockComments: false,

		Inf:                 false,
		NaN:                 false,
		HexadecimalIntegers: false,
		BinaryIntegers:      false,
		UnaryPlus:           false,
		DistinctFloats:      true,

		ArrayOmitComma:     false,
		ArrayTrailingComma: false,

		IdentifiersKeys:       false,
		ObjectSeparatorEqual:  false,
		AllowSpaceBeforeColon: true,
		OmitColonBeforeObject: false,
		ObjectOmitComma:       false,
		ObjectTrailingComma:   false,
		ObjectDuplicateKeys:   false,
		ObjectAlignValues:     true,

		StrCSharpVerbatim:  false,
		StrPythonMultiline: false,
		Str32BitUnicode:    false,
		StrAllowTab:        false,

		AllowMacro: false,

		WriteComments: false,
		SortKeys:      false,
		MarkAccessed:  true,
	}
}

// Forgiving returns options that allow parsing most files: every relaxation
// on, indentation not enforced, duplicate keys tolerated.
func Forgiving() *FormatOptions {
	o := CFG()
	o.EnforceIndentation = false
	o.EmptyFile = true
	o.ObjectSeparatorEqual = true
	o.AllowSpaceBeforeColon = true
	o.OmitColonBeforeObject = true
	o.ObjectDuplicateKeys = true
	o.WriteComments = false
	return o
}
