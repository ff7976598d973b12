/*
Package configuru parses and writes configuration documents in a dialect
family that is a strict superset of JSON, with opt-in relaxations such as
identifier keys, omitted and trailing commas, comments, hex and binary
integers, verbatim and multi-line strings, and #include directives.

The package offers two symmetric engines around one dynamic value type:

1. Parsing

ParseString turns a byte buffer into a Value tree. Every value remembers the
file and line it came from, and any comments that were attached to it:

	cfg, err := configuru.ParseString(data, configuru.CFG(), "server.cfg")
	if err != nil {
		// handle error
	}

	port, err := cfg.Get("port").AsInt()

Which grammar relaxations are accepted is controlled by a FormatOptions
record. Three presets exist: JSON (strict), CFG (the native config format,
tab-indented) and Forgiving (accept almost anything).

2. Writing

DumpString is the inverse of ParseString on every document shape it accepts.
Numbers round-trip bit-exactly, insertion order of object keys is preserved,
and comments are replayed in their original positions when WriteComments is
set:

	out, err := configuru.DumpString(cfg, configuru.CFG())

Dangling keys

Object entries track whether they were ever read. After a program has pulled
the settings it cares about out of a document, CheckDangling reports every
key that was never accessed, which catches typos in config files:

	if err := cfg.CheckDangling(); err != nil {
		// "server.cfg:3: Key 'prot' never accessed."
	}

Includes

Documents may pull in other documents with #include "relative/path" or
#include <absolute/path>. The library performs no file I/O itself; a Session
carries a host-provided loader callback and a cache so that two includes of
the same file yield the same subtree.
*/
package configuru
