package configuru_test

import (
	"fmt"
	"testing"

	"github.com/emilk/configuru"
	"github.com/stretchr/testify/require"
)

// mapLoader serves documents from memory, standing in for the filesystem.
func mapLoader(files map[string]string) configuru.Loader {
	return func(path string) ([]byte, error) {
		data, ok := files[path]
		if !ok {
			return nil, fmt.Errorf("no such file")
		}
		return []byte(data), nil
	}
}

func TestInclude_Basic(t *testing.T) {
	s := configuru.NewSession(mapLoader(map[string]string{
		"dir/a.cfg": `#include "b.cfg"`,
		"dir/b.cfg": "42",
	}))

	cfg, err := s.ParseFile("dir/a.cfg", configuru.CFG())
	require.NoError(t, err)

	i, err := cfg.AsInt64()
	require.NoError(t, err)
	require.Equal(t, int64(42), i)

	// The value remembers which document it came from.
	require.NotNil(t, cfg.Doc())
	require.Equal(t, "dir/b.cfg", cfg.Doc().Filename)
	require.Len(t, cfg.Doc().Includers, 1)
	require.Equal(t, "dir/a.cfg", cfg.Doc().Includers[0].Doc.Filename)
	require.Equal(t, 1, cfg.Doc().Includers[0].Line)
}

func TestInclude_AngleBracketsAreAbsolute(t *testing.T) {
	s := configuru.NewSession(mapLoader(map[string]string{
		"dir/a.cfg": `#include <b.cfg>`,
		"b.cfg":     "7",
	}))

	cfg, err := s.ParseFile("dir/a.cfg", configuru.CFG())
	require.NoError(t, err)
	i, err := cfg.AsInt64()
	require.NoError(t, err)
	require.Equal(t, int64(7), i)
}

func TestInclude_Deduplicated(t *testing.T) {
	s := configuru.NewSession(mapLoader(map[string]string{
		"a.cfg":      "x: #include \"shared.cfg\"\ny: #include \"shared.cfg\"\n",
		"shared.cfg": `{ value: 1 }`,
	}))

	cfg, err := s.ParseFile("a.cfg", configuru.CFG())
	require.NoError(t, err)

	x := cfg.Get("x")
	y := cfg.Get("y")
	require.True(t, configuru.DeepEqual(x, y))

	// One shared document, with both include sites on record.
	require.Same(t, x.Doc(), y.Doc())
	require.Len(t, x.Doc().Includers, 2)
	require.Equal(t, 1, x.Doc().Includers[0].Line)
	require.Equal(t, 2, x.Doc().Includers[1].Line)

	// Shared ownership: the second include aliases the first tree.
	require.NoError(t, x.Set("value", configuru.NewInt(99)))
	i, err := y.Get("value").AsInt64()
	require.NoError(t, err)
	require.Equal(t, int64(99), i)
}

func TestInclude_Recursive(t *testing.T) {
	s := configuru.NewSession(mapLoader(map[string]string{
		"self.cfg": `#include "self.cfg"`,
	}))

	_, err := s.ParseFile("self.cfg", configuru.CFG())
	require.Error(t, err)
	require.Contains(t, err.Error(), "Recursive #include")

	s = configuru.NewSession(mapLoader(map[string]string{
		"a.cfg": `#include "b.cfg"`,
		"b.cfg": `#include "a.cfg"`,
	}))
	_, err = s.ParseFile("a.cfg", configuru.CFG())
	require.Error(t, err)
	require.Contains(t, err.Error(), "Recursive #include")
}

func TestInclude_Errors(t *testing.T) {
	t.Run("forbidden without AllowMacro", func(t *testing.T) {
		_, err := configuru.ParseString([]byte(`#include "x"`), configuru.JSON(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "#macros forbidden.")
	})

	t.Run("missing file", func(t *testing.T) {
		s := configuru.NewSession(mapLoader(map[string]string{
			"a.cfg": `#include "nope.cfg"`,
		}))
		_, err := s.ParseFile("a.cfg", configuru.CFG())
		require.Error(t, err)
		var ioErr *configuru.IOError
		require.ErrorAs(t, err, &ioErr)
		require.Equal(t, "nope.cfg", ioErr.Path)
	})

	t.Run("no loader", func(t *testing.T) {
		_, err := configuru.ParseString([]byte(`#include "x.cfg"`), configuru.CFG(), "t")
		require.Error(t, err)
		var ioErr *configuru.IOError
		require.ErrorAs(t, err, &ioErr)
	})

	t.Run("unterminated path", func(t *testing.T) {
		_, err := configuru.ParseString([]byte(`#include "x`), configuru.CFG(), "t")
		require.Error(t, err)
		require.Contains(t, err.Error(), "Unterminated include path")
	})

	t.Run("parse error inside include names the chain", func(t *testing.T) {
		s := configuru.NewSession(mapLoader(map[string]string{
			"a.cfg":   `#include "bad.cfg"`,
			"bad.cfg": "{ x: }",
		}))
		_, err := s.ParseFile("a.cfg", configuru.CFG())
		require.Error(t, err)
		require.Contains(t, err.Error(), "bad.cfg:1:6")
		require.Contains(t, err.Error(), "included at:\n    a.cfg:1")
	})
}

func TestInclude_SinkEmission(t *testing.T) {
	s := configuru.NewSession(mapLoader(map[string]string{
		"a.cfg": "x: #include \"b.cfg\"\n",
		"b.cfg": "42",
	}))

	cfg, err := s.ParseFile("a.cfg", configuru.CFG())
	require.NoError(t, err)

	sunk := map[string]string{}
	s.SetSink(func(path string, data []byte) error {
		sunk[path] = string(data)
		return nil
	})

	out, err := s.DumpString(cfg, configuru.CFG())
	require.NoError(t, err)
	require.Equal(t, "x: #include <b.cfg>\n", out)
	require.Equal(t, map[string]string{"b.cfg": "42\n"}, sunk)
}

func TestInclude_InlinedWithoutSink(t *testing.T) {
	s := configuru.NewSession(mapLoader(map[string]string{
		"a.cfg": "x: #include \"b.cfg\"\n",
		"b.cfg": "42",
	}))

	cfg, err := s.ParseFile("a.cfg", configuru.CFG())
	require.NoError(t, err)

	out, err := configuru.DumpString(cfg, configuru.CFG())
	require.NoError(t, err)
	require.Equal(t, "x: 42\n", out)
}
