package configuru

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Type is the tag of a Value variant.
type Type uint8

const (
	// Uninitialized is the type of a zero Value. Reading one is always an
	// error.
	Uninitialized Type = iota
	// BadLookup is the type of the sentinel returned by a failed object
	// lookup. It is in effect write-only.
	BadLookup
	Null
	Bool
	Int
	Float
	String
	Array
	Object
)

// String returns a human-readable name for the type.
func (t Type) String() string {
	switch t {
	case Uninitialized:
		return "uninitialized"
	case BadLookup:
		return "undefined"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	}
	return "BROKEN Type"
}

// Value is a dynamic config variable: one of null, bool, integer, float,
// string, array or object. It acts like something out of Python or Lua.
//
// Copies share object and array bodies, so mutating a copy mutates every
// alias; use DeepClone for an independent tree. A Value also carries
// provenance (document, line) and any comments that were attached to it in
// the source.
//
// The zero Value is Uninitialized.
type Value struct {
	typ Type

	b   bool
	i   int64
	f   float64
	s   string
	arr *arrayBody
	obj *objectBody
	bad *badLookupInfo

	doc      *DocInfo
	line     int
	comments *Comments
}

type arrayBody struct {
	impl []Value
}

type objectEntry struct {
	value Value
	// nr is the entry's position in insertion order. A new entry gets the
	// current size of the object; Erase renumbers the entries after the
	// erased one.
	nr       int
	accessed atomic.Bool
}

type objectBody struct {
	entries map[string]*objectEntry
}

// badLookupInfo remembers where a failed lookup happened so that a later
// typed read can produce a useful error.
type badLookupInfo struct {
	doc  *DocInfo // of the parent object
	line int      // of the parent object
	key  string
	err  *TypeError // set when the lookup itself was invalid (non-object)
}

// Pair is one key-value pair for NewObject.
type Pair struct {
	Key   string
	Value Value
}

// ----------------------------------------------------------------------------
// Constructors.

// NewNull returns a null value.
func NewNull() Value { return Value{typ: Null} }

// NewBool returns a boolean value.
func NewBool(b bool) Value { return Value{typ: Bool, b: b} }

// NewInt returns an integer value.
func NewInt(i int64) Value { return Value{typ: Int, i: i} }

// NewFloat returns a float value.
func NewFloat(f float64) Value { return Value{typ: Float, f: f} }

// NewString returns a string value.
func NewString(s string) Value { return Value{typ: String, s: s} }

// NewArray returns an array holding the given elements.
func NewArray(elems ...Value) Value {
	v := Value{}
	v.makeArray()
	v.arr.impl = append(v.arr.impl, elems...)
	return v
}

// NewObject returns an object holding the given pairs, in order.
func NewObject(pairs ...Pair) Value {
	v := Value{}
	v.makeObject()
	for _, p := range pairs {
		v.obj.set(p.Key, p.Value)
	}
	return v
}

// From converts a plain Go value into a Value. Supported inputs are nil,
// bool, the integer and float kinds, string, []any, map[string]any, []Value
// and map[string]Value. Map keys are added in sorted order so the result is
// deterministic.
func From(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return NewNull(), nil
	case Value:
		return x, nil
	case bool:
		return NewBool(x), nil
	case int:
		return NewInt(int64(x)), nil
	case int8:
		return NewInt(int64(x)), nil
	case int16:
		return NewInt(int64(x)), nil
	case int32:
		return NewInt(int64(x)), nil
	case int64:
		return NewInt(x), nil
	case uint:
		return From(uint64(x))
	case uint8:
		return NewInt(int64(x)), nil
	case uint16:
		return NewInt(int64(x)), nil
	case uint32:
		return NewInt(int64(x)), nil
	case uint64:
		if x&0x8000000000000000 != 0 {
			return Value{}, fmt.Errorf("configuru: integer %d too large to fit into 63 bits", x)
		}
		return NewInt(int64(x)), nil
	case float32:
		return NewFloat(float64(x)), nil
	case float64:
		return NewFloat(x), nil
	case string:
		return NewString(x), nil
	case []any:
		arr := NewArray()
		for _, e := range x {
			ev, err := From(e)
			if err != nil {
				return Value{}, err
			}
			arr.arr.impl = append(arr.arr.impl, ev)
		}
		return arr, nil
	case []Value:
		return NewArray(x...), nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			ev, err := From(x[k])
			if err != nil {
				return Value{}, err
			}
			obj.obj.set(k, ev)
		}
		return obj, nil
	case map[string]Value:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := NewObject()
		for _, k := range keys {
			obj.obj.set(k, x[k])
		}
		return obj, nil
	}
	return Value{}, fmt.Errorf("configuru: cannot convert %T to a Value", x)
}

// makeObject and makeArray are used by the parser. They require the value to
// be uninitialized.
func (v *Value) makeObject() {
	if v.typ != Uninitialized {
		panic("makeObject on a " + v.typ.String() + " value")
	}
	v.typ = Object
	v.obj = &objectBody{entries: map[string]*objectEntry{}}
}

func (v *Value) makeArray() {
	if v.typ != Uninitialized {
		panic("makeArray on a " + v.typ.String() + " value")
	}
	v.typ = Array
	v.arr = &arrayBody{}
}

func (v *Value) tag(doc *DocInfo, line int) {
	v.doc = doc
	v.line = line
}

// ----------------------------------------------------------------------------
// Inspectors.

// Type returns the variant tag.
func (v Value) Type() Type { return v.typ }

func (v Value) IsUninitialized() bool { return v.typ == Uninitialized }
func (v Value) IsBadLookup() bool     { return v.typ == BadLookup }
func (v Value) IsNull() bool          { return v.typ == Null }
func (v Value) IsBool() bool          { return v.typ == Bool }
func (v Value) IsInt() bool           { return v.typ == Int }
func (v Value) IsFloat() bool         { return v.typ == Float }
func (v Value) IsString() bool        { return v.typ == String }
func (v Value) IsArray() bool         { return v.typ == Array }
func (v Value) IsObject() bool        { return v.typ == Object }
func (v Value) IsNumber() bool        { return v.typ == Int || v.typ == Float }

// Where returns "<file>:<line>: " if provenance is available, else "".
func (v Value) Where() string { return whereIs(v.doc, v.line) }

// Line returns the 1-indexed source line, or 0 if unknown.
func (v Value) Line() int { return v.line }

// Doc returns the document handle, or nil.
func (v Value) Doc() *DocInfo { return v.doc }

// SetDoc replaces the document handle.
func (v *Value) SetDoc(doc *DocInfo) { v.doc = doc }

// HasComments reports whether any comments are attached to this value.
func (v Value) HasComments() bool { return !v.comments.Empty() }

// Comments returns the comments attached to this value, allocating them on
// first use so they can be written to.
func (v *Value) Comments() *Comments {
	if v.comments == nil {
		v.comments = &Comments{}
	}
	return v.comments
}

// DebugDescr returns "true", "false", the contained string, or the type
// name. Meant for debug output only.
func (v Value) DebugDescr() string {
	switch v.typ {
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case String:
		return v.s
	default:
		return v.typ.String()
	}
}

func (v Value) assertType(expected Type) error {
	if v.typ == BadLookup {
		if v.bad.err != nil {
			return v.bad.err
		}
		return &TypeError{
			Where:   whereIs(v.bad.doc, v.bad.line),
			Message: "Failed to find key '" + v.bad.key + "'",
		}
	}
	if v.typ != expected {
		msg := "Expected " + expected.String() + ", got " + v.typ.String()
		if v.typ == Uninitialized && expected == Object {
			msg += ". Did you forget to call NewObject()?"
		} else if v.typ == Uninitialized && expected == Array {
			msg += ". Did you forget to call NewArray()?"
		}
		return &TypeError{Where: v.Where(), Message: msg}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Scalar accessors.

// AsBool returns the boolean payload.
func (v Value) AsBool() (bool, error) {
	if err := v.assertType(Bool); err != nil {
		return false, err
	}
	return v.b, nil
}

// AsInt64 returns the integer payload. Floats do not narrow to integers.
func (v Value) AsInt64() (int64, error) {
	if err := v.assertType(Int); err != nil {
		return 0, err
	}
	return v.i, nil
}

// AsInt returns the integer payload as an int, checking the range.
func (v Value) AsInt() (int, error) {
	i, err := v.AsInt64()
	if err != nil {
		return 0, err
	}
	if int64(int(i)) != i {
		return 0, &TypeError{Where: v.Where(), Message: "Integer out of range"}
	}
	return int(i), nil
}

// AsFloat64 returns the float payload. Integers widen to floats.
func (v Value) AsFloat64() (float64, error) {
	if v.typ == Int {
		return float64(v.i), nil
	}
	if err := v.assertType(Float); err != nil {
		return 0, err
	}
	return v.f, nil
}

// AsFloat32 is AsFloat64 narrowed to float32.
func (v Value) AsFloat32() (float32, error) {
	f, err := v.AsFloat64()
	return float32(f), err
}

// AsString returns the string payload.
func (v Value) AsString() (string, error) {
	if err := v.assertType(String); err != nil {
		return "", err
	}
	return v.s, nil
}

// ----------------------------------------------------------------------------
// Arrays.

// ArraySize returns the length of an array.
func (v Value) ArraySize() (int, error) {
	if err := v.assertType(Array); err != nil {
		return 0, err
	}
	return len(v.arr.impl), nil
}

// AsArray returns the backing slice of an array. The slice is shared with
// the value: use it for iteration, and assign through it to mutate elements
// in place.
func (v Value) AsArray() ([]Value, error) {
	if err := v.assertType(Array); err != nil {
		return nil, err
	}
	return v.arr.impl, nil
}

// At returns the i-th element of an array.
func (v Value) At(i int) (Value, error) {
	if err := v.assertType(Array); err != nil {
		return Value{}, err
	}
	if i < 0 || i >= len(v.arr.impl) {
		return Value{}, &TypeError{Where: v.Where(), Message: "Array index out of range"}
	}
	return v.arr.impl[i], nil
}

// SetAt replaces the i-th element of an array. The element keeps its old
// provenance if the new value carries none.
func (v *Value) SetAt(i int, elem Value) error {
	if err := v.assertType(Array); err != nil {
		return err
	}
	if i < 0 || i >= len(v.arr.impl) {
		return &TypeError{Where: v.Where(), Message: "Array index out of range"}
	}
	v.arr.impl[i].Assign(elem)
	return nil
}

// PushBack appends a value to an array.
func (v *Value) PushBack(elem Value) error {
	if err := v.assertType(Array); err != nil {
		return err
	}
	v.arr.impl = append(v.arr.impl, elem)
	return nil
}

// ----------------------------------------------------------------------------
// Objects.

// ObjectSize returns the number of entries in an object.
func (v Value) ObjectSize() (int, error) {
	if err := v.assertType(Object); err != nil {
		return 0, err
	}
	return len(v.obj.entries), nil
}

// Has reports whether an object has the given key. It does not mark the
// entry as accessed.
func (v Value) Has(key string) (bool, error) {
	if err := v.assertType(Object); err != nil {
		return false, err
	}
	_, ok := v.obj.entries[key]
	return ok, nil
}

// Get looks up a key in an object and marks the entry as accessed. If the
// key does not exist - or the value is not an object at all - Get returns a
// BadLookup sentinel; reading any typed field from the sentinel fails with
// an error citing this lookup. Get never creates entries.
func (v Value) Get(key string) Value {
	if err := v.assertType(Object); err != nil {
		var te *TypeError
		if e, ok := err.(*TypeError); ok {
			te = e
		} else {
			te = &TypeError{Where: v.Where(), Message: err.Error()}
		}
		return Value{typ: BadLookup, bad: &badLookupInfo{doc: v.doc, line: v.line, key: key, err: te}}
	}
	entry, ok := v.obj.entries[key]
	if !ok {
		return Value{typ: BadLookup, bad: &badLookupInfo{doc: v.doc, line: v.line, key: key}}
	}
	entry.accessed.Store(true)
	return entry.value
}

// GetOr returns the value at key, or def when the key is missing or the
// value is not an object. A hit marks the entry as accessed.
func (v Value) GetOr(key string, def Value) Value {
	if v.typ != Object {
		return def
	}
	entry, ok := v.obj.entries[key]
	if !ok {
		return def
	}
	entry.accessed.Store(true)
	return entry.value
}

// GetOrPath is GetOr over a chain of nested objects: it walks keys in order
// and returns def on the first miss.
func (v Value) GetOrPath(keys []string, def Value) Value {
	cur := v
	for _, key := range keys {
		ok, err := cur.Has(key)
		if err != nil || !ok {
			return def
		}
		cur = cur.Get(key)
	}
	return cur
}

// Set inserts or assigns key. An existing entry keeps its insertion order
// and its old provenance if the new value carries none. Writes do not count
// as accesses.
func (v *Value) Set(key string, val Value) error {
	if err := v.assertType(Object); err != nil {
		return err
	}
	v.obj.set(key, val)
	return nil
}

// Emplace inserts key only if it is not already present. It reports whether
// the value was inserted.
func (v *Value) Emplace(key string, val Value) (bool, error) {
	if err := v.assertType(Object); err != nil {
		return false, err
	}
	if _, ok := v.obj.entries[key]; ok {
		return false, nil
	}
	v.obj.entries[key] = &objectEntry{value: val, nr: len(v.obj.entries)}
	return true, nil
}

// Erase removes a key from an object. It reports whether the key existed.
func (v *Value) Erase(key string) (bool, error) {
	if err := v.assertType(Object); err != nil {
		return false, err
	}
	erased, ok := v.obj.entries[key]
	if !ok {
		return false, nil
	}
	delete(v.obj.entries, key)
	for _, entry := range v.obj.entries {
		if entry.nr > erased.nr {
			entry.nr--
		}
	}
	return true, nil
}

// Keys returns the object's keys in insertion order.
func (v Value) Keys() ([]string, error) {
	if err := v.assertType(Object); err != nil {
		return nil, err
	}
	return v.obj.orderedKeys(), nil
}

// ForEachEntry calls fn for every object entry in insertion order, marking
// each visited entry as accessed. fn receives a pointer to the stored value
// and may mutate it in place.
func (v Value) ForEachEntry(fn func(key string, value *Value)) error {
	if err := v.assertType(Object); err != nil {
		return err
	}
	for _, key := range v.obj.orderedKeys() {
		entry := v.obj.entries[key]
		entry.accessed.Store(true)
		fn(key, &entry.value)
	}
	return nil
}

func (o *objectBody) set(key string, val Value) {
	if entry, ok := o.entries[key]; ok {
		entry.value.Assign(val)
		return
	}
	o.entries[key] = &objectEntry{value: val, nr: len(o.entries)}
}

func (o *objectBody) orderedKeys() []string {
	keys := make([]string, 0, len(o.entries))
	for k := range o.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		return o.entries[keys[a]].nr < o.entries[keys[b]].nr
	})
	return keys
}

// ----------------------------------------------------------------------------
// Copying, equality.

// Assign overwrites v with o, but keeps v's provenance and comments when o
// carries none. This is how parsed values remember their source location
// even after the caller replaces their payload.
func (v *Value) Assign(o Value) {
	doc, line, comments := v.doc, v.line, v.comments
	*v = o
	if o.doc == nil && o.line == 0 {
		v.doc = doc
		v.line = line
	}
	if o.comments == nil {
		v.comments = comments
	} else {
		v.comments = o.comments.clone()
	}
}

// Swap exchanges the payloads of two values, provenance and comments
// included.
func (v *Value) Swap(o *Value) {
	*v, *o = *o, *v
}

// DeepClone returns a recursive copy: the result shares no object or array
// bodies with v. Access flags on the copy start out cleared.
func (v Value) DeepClone() Value {
	ret := v
	ret.comments = v.comments.clone()
	switch v.typ {
	case Object:
		ret.obj = &objectBody{entries: make(map[string]*objectEntry, len(v.obj.entries))}
		for key, entry := range v.obj.entries {
			ret.obj.entries[key] = &objectEntry{value: entry.value.DeepClone(), nr: entry.nr}
		}
	case Array:
		ret.arr = &arrayBody{impl: make([]Value, len(v.arr.impl))}
		for i, e := range v.arr.impl {
			ret.arr.impl[i] = e.DeepClone()
		}
	}
	return ret
}

// DeepEqual compares two values recursively: same variant tags, same keys,
// same scalar payloads. Provenance, comments and access flags are ignored.
func DeepEqual(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case Null:
		return true
	case Bool:
		return a.b == b.b
	case Int:
		return a.i == b.i
	case Float:
		return a.f == b.f
	case String:
		return a.s == b.s
	case Object:
		if a.obj == b.obj {
			return true
		}
		if len(a.obj.entries) != len(b.obj.entries) {
			return false
		}
		for key, ae := range a.obj.entries {
			be, ok := b.obj.entries[key]
			if !ok {
				return false
			}
			if !DeepEqual(ae.value, be.value) {
				return false
			}
		}
		return true
	case Array:
		if a.arr == b.arr {
			return true
		}
		if len(a.arr.impl) != len(b.arr.impl) {
			return false
		}
		for i := range a.arr.impl {
			if !DeepEqual(a.arr.impl[i], b.arr.impl[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Visit calls fn for v and then, recursively, for every value reachable
// from it. fn may mutate the values in place.
func (v *Value) Visit(fn func(*Value)) {
	fn(v)
	switch v.typ {
	case Object:
		for _, key := range v.obj.orderedKeys() {
			entry := v.obj.entries[key]
			entry.value.Visit(fn)
		}
	case Array:
		for i := range v.arr.impl {
			v.arr.impl[i].Visit(fn)
		}
	}
}

// String renders the value as compact JSON in a fail-safe manner, allowing
// uninitialized values and inf/nan. Meant for debugging; use DumpString for
// real output.
func (v Value) String() string {
	opts := JSON()
	opts.Inf = true
	opts.NaN = true
	opts.WriteUninitialized = true
	opts.EndWithNewline = false
	opts.MarkAccessed = false
	opts.Indentation = ""
	s, err := DumpString(v, opts)
	if err != nil {
		return "<" + err.Error() + ">"
	}
	return s
}
