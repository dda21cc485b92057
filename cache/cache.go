// Package cache stores tables as msgpack snapshots so decoded or combined
// data can be reloaded without decoding the source files again.
package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/padraicbc/racefeat/table"
)

const version = 1

type snapshot struct {
	Version int      `msgpack:"v"`
	Columns []string `msgpack:"cols"`
	Rows    [][]any  `msgpack:"rows"`
}

// Write encodes t to w. Column order and value kinds survive a round trip.
func Write(w io.Writer, t *table.Table) error {
	s := snapshot{Version: version, Columns: t.Columns(), Rows: make([][]any, t.Len())}
	for i := range s.Rows {
		row := make([]any, t.Width())
		for c := range row {
			row[c] = t.At(i, c).Any()
		}
		s.Rows[i] = row
	}
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	if err := enc.Encode(&s); err != nil {
		return fmt.Errorf("cache: encode: %w", err)
	}
	return nil
}

// Read decodes a snapshot written by Write.
func Read(r io.Reader) (*table.Table, error) {
	var s snapshot
	if err := msgpack.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("cache: decode: %w", err)
	}
	if s.Version != version {
		return nil, fmt.Errorf("cache: snapshot version %d, want %d", s.Version, version)
	}
	rows := make([][]table.Value, len(s.Rows))
	for i, raw := range s.Rows {
		row := make([]table.Value, len(raw))
		for c, x := range raw {
			row[c] = table.FromAny(x)
		}
		rows[i] = row
	}
	return table.New(s.Columns, rows)
}

// Save writes t to dir/name.msgpack, creating dir as needed.
func Save(dir, name string, t *table.Table) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".msgpack")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Write(f, t); err != nil {
		f.Close()
		return "", err
	}
	return path, f.Close()
}

// Load reads dir/name.msgpack.
func Load(dir, name string) (*table.Table, error) {
	f, err := os.Open(filepath.Join(dir, name+".msgpack"))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
