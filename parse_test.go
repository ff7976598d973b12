package configuru_test

import (
	"math"
	"testing"

	"github.com/emilk/configuru"
	"github.com/stretchr/testify/require"
)

func TestParse_StrictVsForgiving(t *testing.T) {
	t.Run("trailing comma", func(t *testing.T) {
		src := []byte(`{ "a": 1, "b": 2, }`)

		_, err := configuru.ParseString(src, configuru.JSON(), "test.json")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Trailing comma forbidden.")

		cfg, err := configuru.ParseString(src, configuru.Forgiving(), "test.cfg")
		require.NoError(t, err)
		keys, err := cfg.Keys()
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, keys)
	})

	t.Run("identifier keys", func(t *testing.T) {
		src := []byte(`{ a: 1, b: 2 }`)

		_, err := configuru.ParseString(src, configuru.JSON(), "test.json")
		require.Error(t, err)
		require.Contains(t, err.Error(), "You need to surround keys with quotes")

		cfg, err := configuru.ParseString(src, configuru.Forgiving(), "test.cfg")
		require.NoError(t, err)
		a, err := cfg.Get("a").AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(1), a)
	})

	t.Run("omitted commas", func(t *testing.T) {
		_, err := configuru.ParseString([]byte("[1 2 3]"), configuru.JSON(), "test.json")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Expected a comma or ]")

		cfg, err := configuru.ParseString([]byte("[1 2 3]"), configuru.Forgiving(), "test.cfg")
		require.NoError(t, err)
		n, err := cfg.ArraySize()
		require.NoError(t, err)
		require.Equal(t, 3, n)
	})

	t.Run("equal separator", func(t *testing.T) {
		cfg, err := configuru.ParseString([]byte(`"a" = 1`), configuru.Forgiving(), "test.cfg")
		require.NoError(t, err)
		a, err := cfg.Get("a").AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(1), a)
	})

	t.Run("comments", func(t *testing.T) {
		_, err := configuru.ParseString([]byte("// nope\n{}"), configuru.JSON(), "test.json")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Single line comments forbidden.")

		_, err = configuru.ParseString([]byte("/* nope */ {}"), configuru.JSON(), "test.json")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Block comments forbidden.")
	})
}

func TestParse_ImplicitTop(t *testing.T) {
	t.Run("object body without braces", func(t *testing.T) {
		cfg, err := configuru.ParseString([]byte("a: 1\nb: 2\n"), configuru.CFG(), "test.cfg")
		require.NoError(t, err)
		require.True(t, cfg.IsObject())
		keys, err := cfg.Keys()
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, keys)
	})

	t.Run("single value collapses", func(t *testing.T) {
		cfg, err := configuru.ParseString([]byte("42\n"), configuru.CFG(), "test.cfg")
		require.NoError(t, err)
		i, err := cfg.AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(42), i)
	})

	t.Run("several top-level values", func(t *testing.T) {
		cfg, err := configuru.ParseString([]byte("1 2 3\n"), configuru.CFG(), "test.cfg")
		require.NoError(t, err)
		n, err := cfg.ArraySize()
		require.NoError(t, err)
		require.Equal(t, 3, n)

		opts := configuru.CFG()
		opts.ImplicitTopArray = false
		_, err = configuru.ParseString([]byte("1 2 3\n"), opts, "test.cfg")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Multiple values not allowed without enclosing []")
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := configuru.ParseString([]byte(""), configuru.JSON(), "test.json")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Empty file")

		cfg, err := configuru.ParseString([]byte(""), configuru.Forgiving(), "test.cfg")
		require.NoError(t, err)
		require.True(t, cfg.IsObject())
		n, err := cfg.ObjectSize()
		require.NoError(t, err)
		require.Equal(t, 0, n)
	})
}

func TestParse_Numbers(t *testing.T) {
	parseCFG := func(t *testing.T, src string) configuru.Value {
		t.Helper()
		cfg, err := configuru.ParseString([]byte(src), configuru.CFG(), "test.cfg")
		require.NoError(t, err)
		return cfg
	}

	t.Run("int float dispatch", func(t *testing.T) {
		require.True(t, parseCFG(t, "5").IsInt())
		require.True(t, parseCFG(t, "5.0").IsFloat())
		require.True(t, parseCFG(t, "5e3").IsFloat())
		require.True(t, parseCFG(t, ".5").IsFloat())
		require.True(t, parseCFG(t, "-5").IsInt())
	})

	t.Run("19 digit boundary", func(t *testing.T) {
		v := parseCFG(t, "9223372036854775807")
		require.True(t, v.IsInt())
		i, err := v.AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(math.MaxInt64), i)

		v = parseCFG(t, "9223372036854775808")
		require.True(t, v.IsFloat(), "one past MaxInt64 becomes a float")

		v = parseCFG(t, "-9223372036854775808")
		require.True(t, v.IsInt())
		i, err = v.AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(math.MinInt64), i)

		v = parseCFG(t, "-9223372036854775809")
		require.True(t, v.IsFloat())
	})

	t.Run("hex and binary", func(t *testing.T) {
		i, err := parseCFG(t, "0xff").AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(255), i)

		i, err = parseCFG(t, "-0x10").AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(-16), i)

		i, err = parseCFG(t, "0b1010").AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(10), i)

		_, err = configuru.ParseString([]byte(`[255]`), configuru.JSON(), "t")
		require.NoError(t, err)
		_, err = configuru.ParseString([]byte(`[0xff]`), configuru.JSON(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Hexadecimal numbers forbidden.")

		_, err = configuru.ParseString([]byte("0x"), configuru.CFG(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Missing hexadecimal digits after 0x")
	})

	t.Run("unary plus", func(t *testing.T) {
		i, err := parseCFG(t, "+42").AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(42), i)

		_, err = configuru.ParseString([]byte(`[+42]`), configuru.JSON(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Prefixing numbers with + is forbidden.")
	})

	t.Run("inf and nan", func(t *testing.T) {
		f, err := parseCFG(t, "+inf").AsFloat64()
		require.NoError(t, err)
		require.True(t, math.IsInf(f, +1))

		f, err = parseCFG(t, "-inf").AsFloat64()
		require.NoError(t, err)
		require.True(t, math.IsInf(f, -1))

		f, err = parseCFG(t, "+NaN").AsFloat64()
		require.NoError(t, err)
		require.True(t, math.IsNaN(f))

		_, err = configuru.ParseString([]byte(`[-inf]`), configuru.JSON(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "infinity forbidden.")
	})

	t.Run("leading zero", func(t *testing.T) {
		_, err := configuru.ParseString([]byte("042"), configuru.CFG(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Integer may not start with a zero")
	})

	t.Run("duplicate sign", func(t *testing.T) {
		_, err := configuru.ParseString([]byte("--1"), configuru.CFG(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Duplicate sign")
	})

	t.Run("subnormals", func(t *testing.T) {
		f, err := parseCFG(t, "5e-324").AsFloat64()
		require.NoError(t, err)
		require.Equal(t, 5e-324, f)

		f, err = parseCFG(t, "2.2250738585072014e-308").AsFloat64()
		require.NoError(t, err)
		require.Equal(t, 2.2250738585072014e-308, f)
	})
}

func TestParse_Strings(t *testing.T) {
	parse := func(t *testing.T, src string, opts *configuru.FormatOptions) (string, error) {
		t.Helper()
		cfg, err := configuru.ParseString([]byte(src), opts, "test.cfg")
		if err != nil {
			return "", err
		}
		return cfg.AsString()
	}

	t.Run("escapes", func(t *testing.T) {
		s, err := parse(t, `"a\"b\\c\/d\be\ff\ng\rh\ti"`, configuru.CFG())
		require.NoError(t, err)
		require.Equal(t, "a\"b\\c/d\be\ff\ng\rh\ti", s)
	})

	t.Run("unicode escapes", func(t *testing.T) {
		s, err := parse(t, `"\u00e9"`, configuru.CFG())
		require.NoError(t, err)
		require.Equal(t, "\u00e9", s)

		// Surrogate pair for U+1D11E MUSICAL SYMBOL G CLEF.
		s, err = parse(t, `"\uD834\uDD1E"`, configuru.CFG())
		require.NoError(t, err)
		require.Equal(t, "\U0001D11E", s)
		require.Equal(t, []byte{0xF0, 0x9D, 0x84, 0x9E}, []byte(s))

		s, err = parse(t, `"\u0000"`, configuru.JSON())
		require.NoError(t, err)
		require.Equal(t, "\x00", s)

		_, err = parse(t, `"\uD834"`, configuru.CFG())
		require.Error(t, err)
		require.Contains(t, err.Error(), "Missing second unicode surrogate.")

		_, err = parse(t, `"\uD834\u0020"`, configuru.CFG())
		require.Error(t, err)
		require.Contains(t, err.Error(), "Invalid second unicode surrogate")

		s, err = parse(t, `"\U0001D11E"`, configuru.CFG())
		require.NoError(t, err)
		require.Equal(t, "\U0001D11E", s)

		_, err = parse(t, `"\U0001D11E"`, configuru.JSON())
		require.Error(t, err)
		require.Contains(t, err.Error(), `\U 32 bit unicodes forbidden.`)
	})

	t.Run("unknown escape", func(t *testing.T) {
		_, err := parse(t, `"\q"`, configuru.CFG())
		require.Error(t, err)
		require.Contains(t, err.Error(), "Unknown escape character 'q'")
	})

	t.Run("tab handling", func(t *testing.T) {
		s, err := parse(t, "\"a\tb\"", configuru.CFG())
		require.NoError(t, err)
		require.Equal(t, "a\tb", s)

		_, err = parse(t, "\"a\tb\"", configuru.JSON())
		require.Error(t, err)
		require.Contains(t, err.Error(), "Un-escaped tab not allowed in string")
	})

	t.Run("newline in string", func(t *testing.T) {
		_, err := parse(t, "\"a\nb\"", configuru.Forgiving())
		require.Error(t, err)
		require.Contains(t, err.Error(), "Newline in string")
	})

	t.Run("unterminated", func(t *testing.T) {
		_, err := parse(t, `"abc`, configuru.CFG())
		require.Error(t, err)
		require.Contains(t, err.Error(), "Unterminated string")
	})

	t.Run("python multiline", func(t *testing.T) {
		s, err := parse(t, "\"\"\"line one\nline two\"\"\"", configuru.CFG())
		require.NoError(t, err)
		require.Equal(t, "line one\nline two", s)

		// Inside a verbatim string backslashes are not escapes.
		s, err = parse(t, `"""C:\no\escape"""`, configuru.CFG())
		require.NoError(t, err)
		require.Equal(t, `C:\no\escape`, s)

		_, err = parse(t, `"""open`, configuru.CFG())
		require.Error(t, err)
		require.Contains(t, err.Error(), "Unterminated multiline string")
	})

	t.Run("csharp verbatim", func(t *testing.T) {
		s, err := parse(t, `@"a\b""c"`, configuru.CFG())
		require.NoError(t, err)
		require.Equal(t, `a\b"c`, s)

		_, err = parse(t, `@"a"`, configuru.JSON())
		require.Error(t, err)
		require.Contains(t, err.Error(), "C# @-style verbatim strings forbidden.")
	})
}

func TestParse_Keywords(t *testing.T) {
	cfg, err := configuru.ParseString([]byte("[true, false, null]"), configuru.JSON(), "t")
	require.NoError(t, err)
	arr, err := cfg.AsArray()
	require.NoError(t, err)
	require.Len(t, arr, 3)
	b, err := arr[0].AsBool()
	require.NoError(t, err)
	require.True(t, b)
	b, err = arr[1].AsBool()
	require.NoError(t, err)
	require.False(t, b)
	require.True(t, arr[2].IsNull())

	// A keyword must end at an identifier boundary.
	_, err = configuru.ParseString([]byte(`{"a": nullx}`), configuru.JSON(), "t")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Expected 'null'")

	_, err = configuru.ParseString([]byte(`{"a": truely}`), configuru.JSON(), "t")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Expected 'true'")
}

func TestParse_Newlines(t *testing.T) {
	// Windows newlines are fine.
	cfg, err := configuru.ParseString([]byte("{\r\n\"a\": 1\r\n}"), configuru.JSON(), "t")
	require.NoError(t, err)
	require.Equal(t, 2, cfg.Get("a").Line())

	// A lone CR is not.
	_, err = configuru.ParseString([]byte("{\r \"a\": 1}"), configuru.JSON(), "t")
	require.Error(t, err)
	require.Contains(t, err.Error(), "CR with no LF")
}

func TestParse_Indentation(t *testing.T) {
	t.Run("missing tab", func(t *testing.T) {
		_, err := configuru.ParseString([]byte("{\n\"a\": 1\n}"), configuru.CFG(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Bad indentation: expected 1 tabs, found 0")
	})

	t.Run("space instead of tab", func(t *testing.T) {
		_, err := configuru.ParseString([]byte("{\n  \"a\": 1\n}"), configuru.CFG(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Found a space at beginning of a line. Indentation must be done using tabs!")
	})

	t.Run("space indentation unit", func(t *testing.T) {
		opts := configuru.CFG()
		opts.Indentation = "  "
		cfg, err := configuru.ParseString([]byte("{\n  \"a\": 1\n}"), opts, "t")
		require.NoError(t, err)
		i, err := cfg.Get("a").AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(1), i)

		_, err = configuru.ParseString([]byte("{\n   \"a\": 1\n}"), opts, "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Indentation should be a multiple of 2 spaces.")
	})

	t.Run("correct tabs", func(t *testing.T) {
		cfg, err := configuru.ParseString([]byte("{\n\t\"a\": 1\n}"), configuru.CFG(), "t")
		require.NoError(t, err)
		i, err := cfg.Get("a").AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(1), i)
	})

	t.Run("not enforced", func(t *testing.T) {
		cfg, err := configuru.ParseString([]byte("{\n      \"a\": 1\n}"), configuru.Forgiving(), "t")
		require.NoError(t, err)
		i, err := cfg.Get("a").AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(1), i)
	})
}

func TestParse_Comments(t *testing.T) {
	t.Run("captured with delimiters", func(t *testing.T) {
		src := "{\n\t// leading\n\tkey: 1 // trailing\n\t/* closing */\n}"
		cfg, err := configuru.ParseString([]byte(src), configuru.CFG(), "t")
		require.NoError(t, err)

		val := cfg.Get("key")
		require.Equal(t, []string{"// leading"}, val.Comments().Prefix)
		require.Equal(t, []string{"// trailing"}, val.Comments().Postfix)
		require.Equal(t, []string{"/* closing */"}, cfg.Comments().PreEndBrace)
	})

	t.Run("nested block comments", func(t *testing.T) {
		cfg, err := configuru.ParseString([]byte("/* a /* b */ c */ 1"), configuru.CFG(), "t")
		require.NoError(t, err)
		i, err := cfg.AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(1), i)

		opts := configuru.CFG()
		opts.NestingBlockComments = false
		_, err = configuru.ParseString([]byte("/* a /* b */ c */ 1"), opts, "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Nesting comments (/* /* */ */) forbidden.")
	})

	t.Run("unterminated block points at the opening", func(t *testing.T) {
		_, err := configuru.ParseString([]byte("1\n/* open"), configuru.Forgiving(), "t")
		require.Error(t, err)
		var parseErr *configuru.ParseError
		require.ErrorAs(t, err, &parseErr)
		require.Contains(t, parseErr.Message, "Non-ending /* comment")
		require.Equal(t, 2, parseErr.Line)
	})
}

func TestParse_DuplicateKeys(t *testing.T) {
	src := []byte(`{"a": 1, "a": 2}`)

	_, err := configuru.ParseString(src, configuru.JSON(), "test.json")
	require.Error(t, err)
	require.Contains(t, err.Error(), `Duplicate key: "a". Already set at test.json:1`)

	cfg, err := configuru.ParseString(src, configuru.Forgiving(), "test.cfg")
	require.NoError(t, err)
	i, err := cfg.Get("a").AsInt64()
	require.NoError(t, err)
	require.Equal(t, int64(2), i, "last writer wins")
	n, err := cfg.ObjectSize()
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestParse_SeparatorRules(t *testing.T) {
	t.Run("space before colon", func(t *testing.T) {
		_, err := configuru.ParseString([]byte("{\n\ta : 1\n}"), configuru.CFG(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "No space allowed before colon")

		cfg, err := configuru.ParseString([]byte(`{ "a" : 1 }`), configuru.JSON(), "t")
		require.NoError(t, err)
		i, err := cfg.Get("a").AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(1), i)
	})

	t.Run("omitted colon before object", func(t *testing.T) {
		cfg, err := configuru.ParseString([]byte("nested { x: 1 }"), configuru.Forgiving(), "t")
		require.NoError(t, err)
		i, err := cfg.Get("nested").Get("x").AsInt64()
		require.NoError(t, err)
		require.Equal(t, int64(1), i)
	})

	t.Run("missing separator", func(t *testing.T) {
		_, err := configuru.ParseString([]byte(`{"a" 1}`), configuru.JSON(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Expected : after object key")
	})
}

func TestParse_Errors(t *testing.T) {
	t.Run("positions", func(t *testing.T) {
		_, err := configuru.ParseString([]byte("{\n\"a\": }\n}"), configuru.Forgiving(), "test.cfg")
		require.Error(t, err)
		var parseErr *configuru.ParseError
		require.ErrorAs(t, err, &parseErr)
		require.Equal(t, 2, parseErr.Line)
		require.Contains(t, parseErr.Message, "Expected value")
	})

	t.Run("non-terminated containers", func(t *testing.T) {
		_, err := configuru.ParseString([]byte("[1, 2"), configuru.JSON(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Non-terminated array")

		_, err = configuru.ParseString([]byte(`{"a": 1`), configuru.JSON(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Non-terminated object")
	})

	t.Run("identifier in array", func(t *testing.T) {
		_, err := configuru.ParseString([]byte("[foo]"), configuru.Forgiving(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Did you mean to use a {object} rather than a [array]?")
	})

	t.Run("garbage after value", func(t *testing.T) {
		_, err := configuru.ParseString([]byte(`{"a": 1} x`), configuru.JSON(), "t")
		require.Error(t, err)
	})
}

func TestParse_LineNumbers(t *testing.T) {
	src := []byte("{\n\t\"a\": 1,\n\t\"b\": {\n\t\t\"c\": 2\n\t}\n}")
	opts := configuru.JSON()
	cfg, err := configuru.ParseString(src, opts, "lines.json")
	require.NoError(t, err)

	require.Equal(t, 1, cfg.Line())
	require.Equal(t, 2, cfg.Get("a").Line())
	b := cfg.Get("b")
	require.Equal(t, 3, b.Line())
	require.Equal(t, 4, b.Get("c").Line())
	require.Equal(t, "lines.json:4: ", b.Get("c").Where())
}
