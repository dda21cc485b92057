// Package fixedwidth turns raw fixed-length record bytes into typed values
// using a format.Definition. Decoding is total: malformed input degrades to
// missing values and never returns an error or panics.
package fixedwidth

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"

	"github.com/padraicbc/racefeat/format"
	"github.com/padraicbc/racefeat/table"
)

// DecodeField converts the byte range of f inside buf into a value.
// Ranges outside buf, empty ranges, undecodable bytes and non-numeric
// integers all yield table.Null.
func DecodeField(buf []byte, f format.Field, enc encoding.Encoding) table.Value {
	if enc == nil {
		return table.Null
	}
	return decodeField(buf, f, enc.NewDecoder())
}

func decodeField(buf []byte, f format.Field, dec *encoding.Decoder) table.Value {
	raw, ok := slice(buf, f)
	if !ok {
		return table.Null
	}
	switch f.Type {
	case format.IntegerNine:
		n, ok := parseInt(raw)
		if !ok {
			return table.Null
		}
		return table.IntOf(n)
	case format.IntegerZeroBlank:
		n, ok := parseInt(raw)
		if !ok || n == 0 {
			return table.Null
		}
		return table.IntOf(n)
	case format.String, format.StringHex:
		s, ok := decodeText(raw, dec)
		if !ok {
			return table.Null
		}
		return table.TextOf(s)
	}
	return table.Null
}

// DecodeRecord decodes every field of def from one record buffer. A bad
// field only affects its own value.
func DecodeRecord(buf []byte, def *format.Definition) table.Record {
	rec := make(table.Record, len(def.Fields))
	dec := def.Charset().NewDecoder()
	for _, f := range def.Fields {
		rec[f.Name] = decodeField(buf, f, dec)
	}
	return rec
}

// Decode splits blob into records and decodes them into a table whose
// columns are the definition's fields in layout order.
func Decode(blob []byte, def *format.Definition) *table.Table {
	b := table.NewBuilder(def.FieldNames()...)
	dec := def.Charset().NewDecoder()
	row := make([]table.Value, len(def.Fields))
	for _, rec := range Split(blob, def) {
		for i, f := range def.Fields {
			row[i] = decodeField(rec, f, dec)
		}
		b.Append(row...)
	}
	return b.Build()
}

func slice(buf []byte, f format.Field) ([]byte, bool) {
	start := f.Start - 1
	if start < 0 || f.Length <= 0 || start >= len(buf) || start+f.Length > len(buf) {
		return nil, false
	}
	raw := buf[start : start+f.Length]
	return raw, len(raw) > 0
}

func parseInt(raw []byte) (int64, bool) {
	s := strings.TrimSpace(string(bytes.Trim(raw, "\x00")))
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// decodeText converts raw to UTF-8 and trims ASCII and full-width padding.
// Blank text and byte sequences the charset cannot map are missing.
func decodeText(raw []byte, dec *encoding.Decoder) (string, bool) {
	out, err := dec.Bytes(raw)
	if err != nil || !utf8.Valid(out) || bytes.ContainsRune(out, utf8.RuneError) {
		return "", false
	}
	s := strings.TrimFunc(string(out), func(r rune) bool {
		return r == 0 || r == '　' || r == ' ' || r == '\t' || r == '\r' || r == '\n'
	})
	if s == "" {
		return "", false
	}
	return s, true
}
