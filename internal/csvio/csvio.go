// Package csvio transcodes CSV text to and from the encodings offered for
// export and import.
package csvio

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// Encoding names a supported character encoding.
type Encoding string

// Supported encodings.
const (
	UTF8        Encoding = "utf8"
	UTF8BOM     Encoding = "utf8bom"
	ShiftJIS    Encoding = "sjis"
	Windows1252 Encoding = "windows1252"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

// Encodings lists the supported encodings.
func Encodings() []Encoding {
	return []Encoding{UTF8, UTF8BOM, ShiftJIS, Windows1252}
}

// ParseEncoding resolves a configured or requested encoding name.
// An empty name means UTF8.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "")) {
	case "", "utf8":
		return UTF8, nil
	case "utf8bom":
		return UTF8BOM, nil
	case "sjis", "shiftjis":
		return ShiftJIS, nil
	case "windows1252", "cp1252":
		return Windows1252, nil
	}
	return "", fmt.Errorf("unsupported encoding %q", name)
}

func (e Encoding) codec() encoding.Encoding {
	switch e {
	case ShiftJIS:
		return japanese.ShiftJIS
	case Windows1252:
		return charmap.Windows1252
	}
	return nil
}

// Encode converts UTF-8 text into enc.
func Encode(content string, enc Encoding) ([]byte, error) {
	switch enc {
	case UTF8, "":
		return []byte(content), nil
	case UTF8BOM:
		return append(bytes.Clone(bom), content...), nil
	}
	codec := enc.codec()
	if codec == nil {
		return nil, fmt.Errorf("unsupported encoding %q", enc)
	}
	out, _, err := transform.Bytes(codec.NewEncoder(), []byte(content))
	if err != nil {
		return nil, fmt.Errorf("encode as %s: %w", enc, err)
	}
	return out, nil
}

// Decode detects the encoding of b and returns its text as UTF-8. A byte
// order mark selects UTF8BOM; valid UTF-8 is taken as is; anything else is
// decoded as Shift_JIS.
func Decode(b []byte) (string, Encoding, error) {
	if rest, ok := bytes.CutPrefix(b, bom); ok {
		return string(rest), UTF8BOM, nil
	}
	if utf8.Valid(b) {
		return string(b), UTF8, nil
	}
	s, err := DecodeAs(b, ShiftJIS)
	if err != nil {
		return "", "", err
	}
	return s, ShiftJIS, nil
}

// DecodeAs decodes b from a known encoding.
func DecodeAs(b []byte, enc Encoding) (string, error) {
	switch enc {
	case UTF8, "":
		return string(b), nil
	case UTF8BOM:
		return string(bytes.TrimPrefix(b, bom)), nil
	}
	codec := enc.codec()
	if codec == nil {
		return "", fmt.Errorf("unsupported encoding %q", enc)
	}
	out, _, err := transform.Bytes(codec.NewDecoder(), b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", enc, err)
	}
	return string(out), nil
}

// ReadRecords parses CSV text. Records may have different lengths.
func ReadRecords(content string) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(content))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return records, nil
}

// WriteRecords renders records as CSV text.
func WriteRecords(records [][]string) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return "", err
	}
	return buf.String(), nil
}
