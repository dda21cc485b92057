package fixedwidth

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/padraicbc/racefeat/format"
)

// EncodeRecord renders values into one fixed-width record in def's charset.
// Integer fields are zero padded on the left, text is space padded on the
// right. Unset fields are blank.
func EncodeRecord(def *format.Definition, values map[string]string) ([]byte, error) {
	buf := bytes.Repeat([]byte{' '}, def.RecordLength)
	enc := def.Charset().NewEncoder()
	for name, v := range values {
		f, ok := def.Field(name)
		if !ok {
			return nil, fmt.Errorf("%s: unknown field %q", def.DataType, name)
		}
		if v == "" {
			continue
		}
		raw, err := enc.Bytes([]byte(v))
		if err != nil {
			return nil, fmt.Errorf("%s.%s: encode %q: %w", def.DataType, name, v, err)
		}
		if len(raw) > f.Length {
			return nil, fmt.Errorf("%s.%s: %q needs %d bytes, field has %d", def.DataType, name, v, len(raw), f.Length)
		}
		if f.Type == format.IntegerNine || f.Type == format.IntegerZeroBlank {
			pad := bytes.Repeat([]byte{'0'}, f.Length-len(raw))
			if raw[0] == '-' {
				raw = append(append([]byte{'-'}, pad...), raw[1:]...)
			} else {
				raw = append(pad, raw...)
			}
		}
		copy(buf[f.Start-1:], raw)
	}
	return buf, nil
}

// EncodeFile renders rows as a blob of records separated by the definition's
// line ending.
func EncodeFile(def *format.Definition, rows []map[string]string) ([]byte, error) {
	sep := []byte("\r\n")
	if strings.EqualFold(def.LineEnding, format.LineLF) {
		sep = []byte("\n")
	}
	var out bytes.Buffer
	out.Grow(len(rows) * (def.RecordLength + len(sep)))
	for i, r := range rows {
		rec, err := EncodeRecord(def, r)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out.Write(rec)
		out.Write(sep)
	}
	return out.Bytes(), nil
}
