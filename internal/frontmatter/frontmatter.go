// Package frontmatter writes and reads the YAML frontmatter of generated markdown pages.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

const delimiter = "---\n"

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Split separates YAML frontmatter from the markdown body. Generated pages
// always use LF newlines.
//
// If the document does not start with a delimiter, had is false and body is the full input.
func Split(content []byte) (fm []byte, body []byte, had bool, err error) {
	if !bytes.HasPrefix(content, []byte(delimiter)) {
		return nil, content, false, nil
	}
	rest := content[len(delimiter):]
	if bytes.HasPrefix(rest, []byte(delimiter)) {
		return []byte{}, rest[len(delimiter):], true, nil
	}
	idx := bytes.Index(rest, []byte("\n"+delimiter))
	if idx < 0 {
		return nil, nil, false, ErrMissingClosingDelimiter
	}
	return rest[:idx+1], rest[idx+1+len(delimiter):], true, nil
}

// Join reassembles a document from serialized frontmatter and body.
func Join(fm []byte, body []byte) []byte {
	out := make([]byte, 0, 2*len(delimiter)+len(fm)+len(body))
	out = append(out, delimiter...)
	out = append(out, fm...)
	out = append(out, delimiter...)
	out = append(out, body...)
	return out
}

// ParseYAML parses raw YAML frontmatter (without delimiters) into a map.
func ParseYAML(fm []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(fm) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(fm, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}
