package docgen

// Request is everything one generation needs. It is created once per
// invocation and holds its Options by value.
type Request struct {
	Sources   []string // existing absolute directories, in configuration order
	Classpath []string // absolute dependency source roots
	Samples   []string
	Includes  []string
	Options   Options
}

// HasSources reports whether there is anything to document.
func (r *Request) HasSources() bool {
	return r != nil && len(r.Sources) > 0
}
