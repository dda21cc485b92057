package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
)

// codeOf returns the data-type code of a JRDB file name such as
// KYI240106.txt: its leading letters, upper-cased.
func codeOf(name string) string {
	base := filepath.Base(name)
	end := strings.IndexFunc(base, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		end = len(base)
	}
	return strings.ToUpper(base[:end])
}

// readDataDir loads every regular file in dir whose code is in known,
// grouped by code and ordered by file name.
func readDataDir(dir string, known []string) (map[string][][]byte, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	want := make(map[string]bool, len(known))
	for _, k := range known {
		want[strings.ToUpper(k)] = true
	}

	var names, skipped []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if want[codeOf(e.Name())] {
			names = append(names, e.Name())
		} else {
			skipped = append(skipped, e.Name())
		}
	}
	sort.Strings(names)

	files := make(map[string][][]byte)
	for _, n := range names {
		b, err := os.ReadFile(filepath.Join(dir, n))
		if err != nil {
			return nil, nil, err
		}
		code := codeOf(n)
		files[code] = append(files[code], b)
	}
	return files, skipped, nil
}
