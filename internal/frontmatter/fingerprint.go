package frontmatter

import (
	"errors"
	"strings"

	"github.com/inful/mdfp"
)

// Fingerprint computes the content fingerprint of a page: the serialized
// frontmatter without the fingerprint field, plus the body.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	if fields == nil {
		return "", errors.New("fields map is nil")
	}
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		forHash[k] = v
	}
	serialized, err := SerializeYAML(forHash)
	if err != nil {
		return "", err
	}
	fm := strings.TrimSuffix(string(serialized), "\n")
	return mdfp.CalculateFingerprintFromParts(fm, string(body)), nil
}

// Compose stamps fields with the fingerprint of fields+body and returns the
// complete page. fields is not modified.
func Compose(fields map[string]any, body []byte) ([]byte, error) {
	fp, err := Fingerprint(fields, body)
	if err != nil {
		return nil, err
	}
	stamped := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		stamped[k] = v
	}
	stamped[mdfp.FingerprintField] = fp
	fm, err := SerializeYAML(stamped)
	if err != nil {
		return nil, err
	}
	return Join(fm, body), nil
}

// Verify reports whether a composed page still matches its recorded fingerprint.
func Verify(content []byte) (bool, error) {
	fm, body, had, err := Split(content)
	if err != nil || !had {
		return false, err
	}
	fields, err := ParseYAML(fm)
	if err != nil {
		return false, err
	}
	recorded, _ := fields[mdfp.FingerprintField].(string)
	if recorded == "" {
		return false, nil
	}
	want, err := Fingerprint(fields, body)
	if err != nil {
		return false, err
	}
	return want == recorded, nil
}
