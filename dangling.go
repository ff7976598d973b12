package configuru

// MarkAccessed sets or clears the access flag on every object entry
// reachable from v.
func (v Value) MarkAccessed(accessed bool) {
	switch v.typ {
	case Object:
		for _, entry := range v.obj.entries {
			entry.accessed.Store(accessed)
			entry.value.MarkAccessed(accessed)
		}
	case Array:
		for _, e := range v.arr.impl {
			e.MarkAccessed(accessed)
		}
	}
}

// VisitDangling calls visitor for every reachable object entry that was
// never accessed. Arrays are walked unconditionally; the children of an
// unaccessed entry are not visited separately (the entry itself is the
// diagnostic).
func (v Value) VisitDangling(visitor func(key string, value Value)) {
	switch v.typ {
	case Object:
		for _, key := range v.obj.orderedKeys() {
			entry := v.obj.entries[key]
			if entry.accessed.Load() {
				entry.value.VisitDangling(visitor)
			} else {
				visitor(key, entry.value)
			}
		}
	case Array:
		for _, e := range v.arr.impl {
			e.VisitDangling(visitor)
		}
	}
}

// CheckDangling returns a DanglingKeysError listing every reachable object
// entry that was never accessed, or nil if there are none. This is the tool
// for catching typos in config files: parse, read the settings you know,
// then let CheckDangling point at the rest.
func (v Value) CheckDangling() error {
	var keys []DanglingKey
	v.VisitDangling(func(key string, value Value) {
		keys = append(keys, DanglingKey{Where: value.Where(), Key: key})
	})
	if len(keys) == 0 {
		return nil
	}
	return &DanglingKeysError{Keys: keys}
}
