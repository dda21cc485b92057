package fixedwidth

import (
	"bytes"

	"github.com/padraicbc/racefeat/format"
)

// Split cuts blob into record buffers of def.RecordLength bytes. Lines may
// end in CRLF or LF regardless of the declared convention. A line holding
// several records back to back is cut into consecutive records; a trailing
// piece shorter than one record is an incomplete write and is dropped.
//
// The returned slices alias blob, so calling Split twice on the same blob
// yields identical results.
func Split(blob []byte, def *format.Definition) [][]byte {
	n := def.RecordLength
	if n <= 0 || len(blob) < n {
		return nil
	}
	out := make([][]byte, 0, len(blob)/(n+1)+1)
	for len(blob) > 0 {
		line := blob
		if i := bytes.IndexByte(blob, '\n'); i >= 0 {
			line, blob = blob[:i], blob[i+1:]
		} else {
			blob = nil
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})
		for len(line) >= n {
			out = append(out, line[:n:n])
			line = line[n:]
		}
	}
	return out
}
