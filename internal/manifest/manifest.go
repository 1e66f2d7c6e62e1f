// Package manifest reads lists of collage image references from files.
//
// A .csv manifest needs a header with a "url", "path" or "ref" column and
// may carry an "order" column; rows are stably sorted by it. Any other file
// is read as one reference per line, with blank lines and #-comments
// ignored.
package manifest

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

var refColumns = []string{"url", "path", "ref"}

// Load reads the manifest at path.
func Load(path string) ([]string, error) {
	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		refs, err := ParseCSV(fp)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		return refs, nil
	}
	return ParseLines(fp)
}

// ParseLines reads one reference per line.
func ParseLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// ParseCSV reads a CSV manifest.
func ParseCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 1 {
		return nil, fmt.Errorf("csv has no header")
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	refIdx := -1
	for _, name := range refColumns {
		if idx, ok := cols[name]; ok {
			refIdx = idx
			break
		}
	}
	if refIdx < 0 {
		return nil, fmt.Errorf("csv header needs one of %s", strings.Join(refColumns, ", "))
	}
	orderIdx, hasOrder := cols["order"]

	get := func(row []string, idx int) string {
		if idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	type entry struct {
		ref   string
		order int
	}
	var entries []entry
	for n, row := range rows[1:] {
		ref := get(row, refIdx)
		if ref == "" {
			continue
		}
		e := entry{ref: ref}
		if hasOrder {
			if s := get(row, orderIdx); s != "" {
				v, err := strconv.Atoi(s)
				if err != nil {
					return nil, fmt.Errorf("row %d: order %q: %w", n+2, s, err)
				}
				e.order = v
			}
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool { return entries[i].order < entries[j].order })
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ref
	}
	return out, nil
}
