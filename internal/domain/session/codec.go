package session

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/goccy/go-yaml"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/GriffinCanCode/tabsession/internal/shared/types"
)

// Encode serialises a document to UTF-8 YAML. Absent optional fields are
// omitted. The output is checked to decode back to the same session.
func Encode(doc *types.Document) ([]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("refusing to encode invalid session: %w", err)
	}

	out := toYAML(doc)
	data, err := yaml.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}

	back, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("encoded session does not read back: %w", err)
	}
	if !back.Equal(out.toDocument()) {
		return nil, errors.New("encoded session does not read back unchanged")
	}
	return data, nil
}

// Decode parses a YAML session document. Every failure is a *DecodeError.
func Decode(data []byte) (*types.Document, error) {
	text, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return nil, &DecodeError{Stage: "decoding", Err: err}
	}
	if !utf8.Valid(text) {
		return nil, &DecodeError{Stage: "decoding", Err: fmt.Errorf("invalid UTF-8 at byte %d", invalidOffset(text))}
	}

	var raw yamlDocument
	if err := yaml.Unmarshal(text, &raw); err != nil {
		return nil, &DecodeError{Stage: "parsing", Err: &syntaxError{err: err}}
	}
	doc := raw.toDocument()
	if err := doc.Validate(); err != nil {
		return nil, &DecodeError{Stage: "validating", Err: err}
	}
	return doc, nil
}

// syntaxError flattens a YAML error to one line without the source excerpt
type syntaxError struct {
	err error
}

func (e *syntaxError) Error() string {
	msg := yaml.FormatError(e.err, false, false)
	return strings.Join(strings.Fields(msg), " ")
}

func (e *syntaxError) Unwrap() error {
	return e.err
}

func validText(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

func invalidOffset(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(b)
}
