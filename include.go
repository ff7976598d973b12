package configuru

// Loader fetches the bytes of a named document on behalf of the parser. The
// library performs no file I/O itself; hosts typically pass os.ReadFile.
type Loader func(path string) ([]byte, error)

// Sink writes the bytes of a named document on behalf of the writer, used
// when an included subtree is dumped back to its own file.
type Sink func(path string, data []byte) error

// Session carries the state shared by one parse (or dump): the include
// cache and the host callbacks. Two #include directives for the same path
// yield the same value tree, and the included document records every site
// that pulled it in.
//
// A Session is not shared across goroutines.
type Session struct {
	loader Loader
	sink   Sink

	parsedFiles map[string]Value
	inProgress  map[string]bool
}

// NewSession returns a Session with the given loader. A nil loader is
// allowed; any #include directive will then fail.
func NewSession(loader Loader) *Session {
	return &Session{
		loader:      loader,
		parsedFiles: map[string]Value{},
		inProgress:  map[string]bool{},
	}
}

// SetSink installs the callback used to write included subtrees back to
// their own files during a dump.
func (s *Session) SetSink(sink Sink) { s.sink = sink }

// ParseString parses a document within this session, so that #include
// directives resolve through the session's loader and cache.
func (s *Session) ParseString(data []byte, options *FormatOptions, doc *DocInfo) (Value, error) {
	return parseDoc(data, options, doc, s)
}

// ParseFile loads path through the session's loader and parses it.
func (s *Session) ParseFile(path string, options *FormatOptions) (Value, error) {
	data, err := s.load(path)
	if err != nil {
		return Value{}, err
	}
	return s.ParseString(data, options, NewDocInfo(path))
}

func (s *Session) load(path string) ([]byte, error) {
	if s.loader == nil {
		return nil, &IOError{Path: path, Err: errNoLoader}
	}
	data, err := s.loader(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return data, nil
}

type noLoaderError struct{}

func (noLoaderError) Error() string { return "no loader configured on this session" }

var errNoLoader = noLoaderError{}

// include resolves one #include directive found at (fromDoc, fromLine).
// A cache hit returns the previously parsed tree and records the present
// site as an additional includer. A miss loads and parses the file. A path
// whose parse is still in progress is a cycle and an error.
func (s *Session) include(path string, fromDoc *DocInfo, fromLine int, options *FormatOptions) (Value, error) {
	if cached, ok := s.parsedFiles[path]; ok {
		childDoc := cached.Doc()
		childDoc.Includers = append(childDoc.Includers, Include{Doc: fromDoc, Line: fromLine})
		return cached, nil
	}

	if s.inProgress[path] {
		return Value{}, &ParseError{
			Doc:     fromDoc,
			Line:    fromLine,
			Column:  1,
			Message: "Recursive #include of \"" + path + "\"",
		}
	}

	data, err := s.load(path)
	if err != nil {
		return Value{}, err
	}

	childDoc := NewDocInfo(path)
	childDoc.Includers = []Include{{Doc: fromDoc, Line: fromLine}}

	s.inProgress[path] = true
	val, err := parseDoc(data, options, childDoc, s)
	delete(s.inProgress, path)
	if err != nil {
		return Value{}, err
	}

	s.parsedFiles[path] = val
	return val, nil
}
